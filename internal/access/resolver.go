package access

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"codeberg.org/planhub/server/planhub/projects"
	"github.com/jackc/pgx/v5"
)

// denial reasons carried on an Access result
const (
	ReasonProjectNotFound        = "project_not_found"
	ReasonNoMembership           = "no_membership"
	ReasonPermissionInsufficient = "permission_insufficient"
)

// validation failures on membership mutations, distinguishable from
// infrastructure faults with errors.Is
var (
	ErrInvalidLevel  = errors.New("access level not valid for a membership")
	ErrOwnerIsMember = errors.New("the project owner cannot be added as a member")
)

// ProjectStore is the repository contract the resolver needs; satisfied by
// planhub/projects. Row absence is reported as pgx.ErrNoRows.
type ProjectStore interface {
	FindProject(ctx context.Context, projectID string) (*projects.Project, error)
	FindMembership(ctx context.Context, projectID, accountID string) (*projects.Membership, error)
	AddMember(ctx context.Context, projectID, accountID string, level projects.AccessLevel, invitedBy string) (*projects.Membership, error)
	UpdateMemberAccess(ctx context.Context, projectID, membershipID string, level projects.AccessLevel) (*projects.Membership, error)
	RemoveMember(ctx context.Context, projectID, membershipID string) error
	ListOwned(ctx context.Context, accountID string) ([]*projects.Project, error)
	ListMemberProjects(ctx context.Context, accountID string) ([]*projects.ProjectSummary, error)
}

// Access is the outcome of resolving an account's standing on a project.
// A false HasAccess with an empty error is a domain denial; errors are
// reserved for infrastructure faults so callers can apply fail-closed policy.
type Access struct {
	HasAccess   bool
	IsOwner     bool
	Level       projects.AccessLevel
	Permissions []string

	// denial reason code, empty when access is granted
	Reason string
}

// Resolver answers project access and permission questions and applies the
// actor checks on membership mutations.
type Resolver struct {
	store ProjectStore
}

func NewResolver(store ProjectStore) *Resolver {
	return &Resolver{store: store}
}

// resolves the account's effective access on a project.
//
// A missing project, an inactive project, and a project the account cannot
// see all produce the same ReasonProjectNotFound denial so existence is not
// leaked. The recorded owner resolves to Owner unconditionally; membership
// rows cannot lower or revoke ownership.
func (r *Resolver) CheckProjectAccess(ctx context.Context, accountID, projectID string) (*Access, error) {
	project, err := r.store.FindProject(ctx, projectID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &Access{Reason: ReasonProjectNotFound}, nil
		}

		return nil, fmt.Errorf("failed to load project: %w", err)
	}

	if !project.Active {
		return &Access{Reason: ReasonProjectNotFound}, nil
	}

	if project.OwnerID == accountID {
		return &Access{
			HasAccess:   true,
			IsOwner:     true,
			Level:       projects.LevelOwner,
			Permissions: PermissionsFor(projects.LevelOwner),
		}, nil
	}

	membership, err := r.store.FindMembership(ctx, projectID, accountID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &Access{Reason: ReasonNoMembership}, nil
		}

		return nil, fmt.Errorf("failed to load membership: %w", err)
	}

	return &Access{
		HasAccess:   true,
		Level:       membership.AccessLevel,
		Permissions: PermissionsFor(membership.AccessLevel),
	}, nil
}

// resolves access and then tests whether the resulting permission set
// contains perm. The *_own scoping caveat on the permission constants
// applies: a granted update_own still requires the caller to own the
// resource, which this method cannot see.
func (r *Resolver) CheckPermission(ctx context.Context, accountID, projectID, perm string) (*Access, bool, error) {
	acc, err := r.CheckProjectAccess(ctx, accountID, projectID)
	if err != nil {
		return nil, false, err
	}

	if !acc.HasAccess {
		return acc, false, nil
	}

	if !PolicyFor(acc.Level).Permissions[perm] {
		denied := *acc
		denied.Reason = ReasonPermissionInsufficient

		return &denied, false, nil
	}

	return acc, true, nil
}

// adds a member to a project on behalf of actorID. The actor must hold
// manage_members; the project owner cannot be added as a member, and
// memberships are never created at Owner level.
func (r *Resolver) AddMember(ctx context.Context, actorID, projectID, accountID string, level projects.AccessLevel) (*projects.Membership, *Access, error) {
	actor, ok, err := r.CheckPermission(ctx, actorID, projectID, PermManageMembers)
	if err != nil {
		return nil, nil, err
	}

	if !ok {
		return nil, actor, nil
	}

	if level >= projects.LevelOwner || !level.Valid() {
		return nil, nil, fmt.Errorf("%w: %s", ErrInvalidLevel, level)
	}

	project, err := r.store.FindProject(ctx, projectID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load project: %w", err)
	}

	if project.OwnerID == accountID {
		return nil, nil, ErrOwnerIsMember
	}

	membership, err := r.store.AddMember(ctx, projectID, accountID, level, actorID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to add member: %w", err)
	}

	return membership, actor, nil
}

// changes a member's access level on behalf of actorID. The mutation is
// scoped to the project the actor was authorized on; a membership id from
// another project is not found.
func (r *Resolver) UpdateMemberAccess(ctx context.Context, actorID, projectID, membershipID string, level projects.AccessLevel) (*projects.Membership, *Access, error) {
	actor, ok, err := r.CheckPermission(ctx, actorID, projectID, PermManageMembers)
	if err != nil {
		return nil, nil, err
	}

	if !ok {
		return nil, actor, nil
	}

	if level >= projects.LevelOwner || !level.Valid() {
		return nil, nil, fmt.Errorf("%w: %s", ErrInvalidLevel, level)
	}

	membership, err := r.store.UpdateMemberAccess(ctx, projectID, membershipID, level)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to update member access: %w", err)
	}

	return membership, actor, nil
}

// removes a member on behalf of actorID; the membership row is soft-deleted
// and stays retrievable for audit. Scoped to the authorizing project the
// same way as UpdateMemberAccess.
func (r *Resolver) RemoveMember(ctx context.Context, actorID, projectID, membershipID string) (*Access, error) {
	actor, ok, err := r.CheckPermission(ctx, actorID, projectID, PermManageMembers)
	if err != nil {
		return nil, err
	}

	if !ok {
		return actor, nil
	}

	if err := r.store.RemoveMember(ctx, projectID, membershipID); err != nil {
		return nil, fmt.Errorf("failed to remove member: %w", err)
	}

	return actor, nil
}

// returns every project the account can reach, owned first by recency, with
// membership rows for owned projects dropped as duplicates
func (r *Resolver) UserProjects(ctx context.Context, accountID string) ([]*projects.ProjectSummary, error) {
	owned, err := r.store.ListOwned(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to list owned projects: %w", err)
	}

	member, err := r.store.ListMemberProjects(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to list member projects: %w", err)
	}

	seen := make(map[string]bool, len(owned))
	summaries := make([]*projects.ProjectSummary, 0, len(owned)+len(member))

	for _, p := range owned {
		seen[p.ID] = true
		summaries = append(summaries, &projects.ProjectSummary{
			Project:     p,
			AccessLevel: projects.LevelOwner,
			IsOwner:     true,
			Since:       p.CreatedAt,
		})
	}

	for _, s := range member {
		// a stale membership row on an owned project must not appear twice
		if seen[s.Project.ID] {
			continue
		}

		seen[s.Project.ID] = true
		summaries = append(summaries, s)
	}

	sort.SliceStable(summaries, func(i, j int) bool {
		return summaries[i].Since.After(summaries[j].Since)
	})

	return summaries, nil
}
