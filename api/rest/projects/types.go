package projects

import (
	"codeberg.org/planhub/server/planhub/projects"
)

// CreateProjectRequest for creating a new project
type CreateProjectRequest struct {
	Name        string `json:"name" binding:"required,max=200"`
	Description string `json:"description" binding:"max=2000"`
}

// AddMemberRequest for inviting an account to a project
type AddMemberRequest struct {
	AccountID   string `json:"account_id" binding:"required,uuid"`
	AccessLevel string `json:"access_level" binding:"required"`
}

// UpdateMemberRequest for changing a member's access level
type UpdateMemberRequest struct {
	AccessLevel string `json:"access_level" binding:"required"`
}

// ProjectResponse wraps one project with the caller's standing on it
type ProjectResponse struct {
	Project     *projects.Project `json:"project"`
	AccessLevel string            `json:"access_level"`
	IsOwner     bool              `json:"is_owner"`
	Permissions []string          `json:"permissions"`
}

// ProjectListResponse wraps the caller's reachable projects
type ProjectListResponse struct {
	Projects []*projects.ProjectSummary `json:"projects"`
	Total    int                        `json:"total"`
}

// MemberResponse wraps one membership
type MemberResponse struct {
	Membership *projects.Membership `json:"membership"`
}

// MemberListResponse wraps a project's member roster
type MemberListResponse struct {
	Members []*projects.Membership `json:"members"`
	Total   int                    `json:"total"`
}

// MessageResponse for simple success messages
type MessageResponse struct {
	Message string `json:"message"`
}
