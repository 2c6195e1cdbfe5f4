package projects

import (
	stderrors "errors"
	"net/http"

	"codeberg.org/planhub/server/internal/access"
	"codeberg.org/planhub/server/internal/auth"
	"codeberg.org/planhub/server/internal/errors"
	"codeberg.org/planhub/server/planhub/projects"
	"github.com/gin-gonic/gin"
)

// CreateProjectHandler godoc
// @Summary Create project
// @Description Create a new project owned by the authenticated account
// @Tags projects
// @Accept json
// @Produce json
// @Param request body CreateProjectRequest true "Project data"
// @Success 201 {object} ProjectResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /api/v1/projects [post]
// @Security BearerAuth
func CreateProjectHandler(projectRepo *projects.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		accountID, exists := auth.GetAccountID(c)
		if !exists {
			errors.Unauthorized(c, "")
			return
		}

		var req CreateProjectRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			errors.ValidationError(c, err)
			return
		}

		project, err := projectRepo.Create(c.Request.Context(), &projects.CreateProjectRequest{
			OwnerID:     accountID,
			Name:        req.Name,
			Description: req.Description,
		})
		if err != nil {
			errors.InternalError(c, "failed to create project", err)
			return
		}

		c.JSON(http.StatusCreated, ProjectResponse{
			Project:     project,
			AccessLevel: projects.LevelOwner.String(),
			IsOwner:     true,
			Permissions: access.PermissionsFor(projects.LevelOwner),
		})
	}
}

// ListProjectsHandler godoc
// @Summary List projects
// @Description List every project the authenticated account owns or is a member of
// @Tags projects
// @Produce json
// @Success 200 {object} ProjectListResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /api/v1/projects [get]
// @Security BearerAuth
func ListProjectsHandler(resolver *access.Resolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		accountID, exists := auth.GetAccountID(c)
		if !exists {
			errors.Unauthorized(c, "")
			return
		}

		summaries, err := resolver.UserProjects(c.Request.Context(), accountID)
		if err != nil {
			errors.InternalError(c, "failed to list projects", err)
			return
		}

		c.JSON(http.StatusOK, ProjectListResponse{
			Projects: summaries,
			Total:    len(summaries),
		})
	}
}

// GetProjectHandler godoc
// @Summary Get project
// @Description Get one project with the caller's access level and permissions
// @Tags projects
// @Produce json
// @Param id path string true "Project ID"
// @Success 200 {object} ProjectResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /api/v1/projects/{id} [get]
// @Security BearerAuth
func GetProjectHandler(resolver *access.Resolver, projectRepo *projects.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		accountID, exists := auth.GetAccountID(c)
		if !exists {
			errors.Unauthorized(c, "")
			return
		}

		projectID, ok := errors.ValidatePathUUID(c, "id")
		if !ok {
			return
		}

		acc, err := resolver.CheckProjectAccess(c.Request.Context(), accountID, projectID)
		if err != nil {
			errors.DependencyUnavailable(c, "unable to verify project access", err)
			return
		}

		if !writeDenial(c, acc, "") {
			return
		}

		project, err := projectRepo.FindProject(c.Request.Context(), projectID)
		if err != nil {
			errors.InternalError(c, "failed to load project", err)
			return
		}

		c.JSON(http.StatusOK, ProjectResponse{
			Project:     project,
			AccessLevel: acc.Level.String(),
			IsOwner:     acc.IsOwner,
			Permissions: acc.Permissions,
		})
	}
}

// ListMembersHandler godoc
// @Summary List project members
// @Description List a project's active members; any member can view the roster
// @Tags projects
// @Produce json
// @Param id path string true "Project ID"
// @Success 200 {object} MemberListResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /api/v1/projects/{id}/members [get]
// @Security BearerAuth
func ListMembersHandler(resolver *access.Resolver, projectRepo *projects.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		accountID, exists := auth.GetAccountID(c)
		if !exists {
			errors.Unauthorized(c, "")
			return
		}

		projectID, ok := errors.ValidatePathUUID(c, "id")
		if !ok {
			return
		}

		acc, allowed, err := resolver.CheckPermission(c.Request.Context(), accountID, projectID, access.PermView)
		if err != nil {
			errors.DependencyUnavailable(c, "unable to verify project access", err)
			return
		}

		if !allowed {
			writeDenial(c, acc, access.PermView)
			return
		}

		members, err := projectRepo.ListMembers(c.Request.Context(), projectID)
		if err != nil {
			errors.InternalError(c, "failed to list members", err)
			return
		}

		c.JSON(http.StatusOK, MemberListResponse{
			Members: members,
			Total:   len(members),
		})
	}
}

// AddMemberHandler godoc
// @Summary Add project member
// @Description Invite an account to a project; requires the manage_members permission
// @Tags projects
// @Accept json
// @Produce json
// @Param id path string true "Project ID"
// @Param request body AddMemberRequest true "Member data"
// @Success 201 {object} MemberResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /api/v1/projects/{id}/members [post]
// @Security BearerAuth
func AddMemberHandler(resolver *access.Resolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		accountID, exists := auth.GetAccountID(c)
		if !exists {
			errors.Unauthorized(c, "")
			return
		}

		projectID, ok := errors.ValidatePathUUID(c, "id")
		if !ok {
			return
		}

		var req AddMemberRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			errors.ValidationError(c, err)
			return
		}

		level, ok := parseLevel(c, req.AccessLevel)
		if !ok {
			return
		}

		membership, actor, err := resolver.AddMember(c.Request.Context(), accountID, projectID, req.AccountID, level)
		if err != nil {
			writeMutationError(c, err)
			return
		}

		if membership == nil {
			writeDenial(c, actor, access.PermManageMembers)
			return
		}

		c.JSON(http.StatusCreated, MemberResponse{Membership: membership})
	}
}

// UpdateMemberHandler godoc
// @Summary Update member access
// @Description Change a member's access level; requires the manage_members permission
// @Tags projects
// @Accept json
// @Produce json
// @Param id path string true "Project ID"
// @Param member_id path string true "Membership ID"
// @Param request body UpdateMemberRequest true "New access level"
// @Success 200 {object} MemberResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /api/v1/projects/{id}/members/{member_id} [put]
// @Security BearerAuth
func UpdateMemberHandler(resolver *access.Resolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		accountID, exists := auth.GetAccountID(c)
		if !exists {
			errors.Unauthorized(c, "")
			return
		}

		projectID, ok := errors.ValidatePathUUID(c, "id")
		if !ok {
			return
		}

		membershipID, ok := errors.ValidatePathUUID(c, "member_id")
		if !ok {
			return
		}

		var req UpdateMemberRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			errors.ValidationError(c, err)
			return
		}

		level, ok := parseLevel(c, req.AccessLevel)
		if !ok {
			return
		}

		membership, actor, err := resolver.UpdateMemberAccess(c.Request.Context(), accountID, projectID, membershipID, level)
		if err != nil {
			writeMutationError(c, err)
			return
		}

		if membership == nil {
			writeDenial(c, actor, access.PermManageMembers)
			return
		}

		c.JSON(http.StatusOK, MemberResponse{Membership: membership})
	}
}

// RemoveMemberHandler godoc
// @Summary Remove project member
// @Description Soft-delete a membership; requires the manage_members permission
// @Tags projects
// @Produce json
// @Param id path string true "Project ID"
// @Param member_id path string true "Membership ID"
// @Success 200 {object} MessageResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /api/v1/projects/{id}/members/{member_id} [delete]
// @Security BearerAuth
func RemoveMemberHandler(resolver *access.Resolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		accountID, exists := auth.GetAccountID(c)
		if !exists {
			errors.Unauthorized(c, "")
			return
		}

		projectID, ok := errors.ValidatePathUUID(c, "id")
		if !ok {
			return
		}

		membershipID, ok := errors.ValidatePathUUID(c, "member_id")
		if !ok {
			return
		}

		actor, err := resolver.RemoveMember(c.Request.Context(), accountID, projectID, membershipID)
		if err != nil {
			if errors.IsNotFound(err) {
				errors.NotFound(c, "membership")
				return
			}

			writeMutationError(c, err)

			return
		}

		if !actor.HasAccess || actor.Reason != "" {
			writeDenial(c, actor, access.PermManageMembers)
			return
		}

		c.JSON(http.StatusOK, MessageResponse{Message: "member removed"})
	}
}

// translates an Access denial into the matching HTTP error; returns true
// when access was granted and nothing was written
func writeDenial(c *gin.Context, acc *access.Access, permission string) bool {
	if acc.HasAccess && acc.Reason == "" {
		return true
	}

	switch acc.Reason {
	case access.ReasonProjectNotFound:
		errors.ProjectNotFound(c)
	case access.ReasonPermissionInsufficient:
		errors.PermissionInsufficient(c, permission, acc.Level.String())
	default:
		errors.AccessDenied(c, "")
	}

	return false
}

func writeMutationError(c *gin.Context, err error) {
	if stderrors.Is(err, access.ErrInvalidLevel) || stderrors.Is(err, access.ErrOwnerIsMember) {
		errors.BadRequest(c, err.Error(), nil)
		return
	}

	// covers membership ids that do not belong to the path's project
	if errors.IsNotFound(err) {
		errors.NotFound(c, "membership")
		return
	}

	errors.InternalError(c, "failed to update membership", err)
}

// parses a level name strictly; the lenient fallback parse is for stored
// rows, not API input
func parseLevel(c *gin.Context, name string) (projects.AccessLevel, bool) {
	level := projects.ParseAccessLevel(name)
	if level.String() != name {
		errors.BadRequest(c, "unknown access level: "+name, nil)
		return 0, false
	}

	if level >= projects.LevelOwner {
		errors.BadRequest(c, "owner access cannot be granted through membership", nil)
		return 0, false
	}

	return level, true
}
