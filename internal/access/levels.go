package access

import (
	"codeberg.org/planhub/server/planhub/projects"
)

// permission tags checked by handlers and the request gate.
//
// The *_own permissions are scoped: they mean "on resources the caller
// created", but the resolver only answers set membership. Comparing the
// caller against a resource's creator is the handler's job; the permission
// string alone does not enforce the scoping.
const (
	PermView           = "view"
	PermComment        = "comment"
	PermCreate         = "create"
	PermUpdateOwn      = "update_own"
	PermDeleteOwn      = "delete_own"
	PermExport         = "export"
	PermUseAI          = "use_ai"
	PermUpdateAny      = "update_any"
	PermDeleteAny      = "delete_any"
	PermManageMembers  = "manage_members"
	PermManageSettings = "manage_settings"
	PermDeleteProject  = "delete_project"
)

// LevelPolicy maps an access level to its permission set and display
// metadata. Policies are immutable after init.
type LevelPolicy struct {
	DisplayName string
	Description string
	Permissions map[string]bool
}

// permission sets grow monotonically with level; the scoped *_own
// permissions appear at Contributor and are superseded (not replaced) by the
// unscoped *_any permissions at Manager and above
var levelPolicies = map[projects.AccessLevel]LevelPolicy{
	projects.LevelViewer: {
		DisplayName: "Viewer",
		Description: "can view the project and leave comments",
		Permissions: perms(PermView, PermComment),
	},
	projects.LevelContributor: {
		DisplayName: "Contributor",
		Description: "can create documents and edit their own",
		Permissions: perms(PermView, PermComment, PermCreate, PermUpdateOwn, PermDeleteOwn, PermUseAI),
	},
	projects.LevelEditor: {
		DisplayName: "Editor",
		Description: "can additionally export project documents",
		Permissions: perms(PermView, PermComment, PermCreate, PermUpdateOwn, PermDeleteOwn, PermUseAI, PermExport),
	},
	projects.LevelManager: {
		DisplayName: "Manager",
		Description: "can edit anything and manage members",
		Permissions: perms(PermView, PermComment, PermCreate, PermUpdateOwn, PermDeleteOwn, PermUseAI, PermExport,
			PermUpdateAny, PermDeleteAny, PermManageMembers),
	},
	projects.LevelOwner: {
		DisplayName: "Owner",
		Description: "full control of the project",
		Permissions: perms(PermView, PermComment, PermCreate, PermUpdateOwn, PermDeleteOwn, PermUseAI, PermExport,
			PermUpdateAny, PermDeleteAny, PermManageMembers, PermManageSettings, PermDeleteProject),
	},
}

// returns the policy for a level; unknown levels get the Viewer policy
func PolicyFor(level projects.AccessLevel) LevelPolicy {
	if p, ok := levelPolicies[level]; ok {
		return p
	}

	return levelPolicies[projects.LevelViewer]
}

// returns the sorted-by-declaration permission list for a level
func PermissionsFor(level projects.AccessLevel) []string {
	policy := PolicyFor(level)
	list := make([]string, 0, len(policy.Permissions))

	for _, perm := range allPermissions {
		if policy.Permissions[perm] {
			list = append(list, perm)
		}
	}

	return list
}

// declaration order, used to keep permission lists stable in responses
var allPermissions = []string{
	PermView,
	PermComment,
	PermCreate,
	PermUpdateOwn,
	PermDeleteOwn,
	PermExport,
	PermUseAI,
	PermUpdateAny,
	PermDeleteAny,
	PermManageMembers,
	PermManageSettings,
	PermDeleteProject,
}

func perms(tags ...string) map[string]bool {
	set := make(map[string]bool, len(tags))

	for _, tag := range tags {
		set[tag] = true
	}

	return set
}
