package projects

const (
	projectColumns = `id, owner_id, name, description, active, created_at, updated_at`

	membershipColumns = `id, project_id, account_id, access_level, active, joined_at, invited_by`

	queryCreateProject = `
		INSERT INTO projects (owner_id, name, description)
		VALUES ($1, $2, $3)
		RETURNING ` + projectColumns

	queryFindProject = `
		SELECT ` + projectColumns + `
		FROM projects
		WHERE id = $1
	`

	queryFindMembership = `
		SELECT ` + membershipColumns + `
		FROM memberships
		WHERE project_id = $1 AND account_id = $2 AND active = true
	`

	// includes soft-deleted rows; used for audit and invite reactivation
	queryFindMembershipAny = `
		SELECT ` + membershipColumns + `
		FROM memberships
		WHERE project_id = $1 AND account_id = $2
	`

	// re-inviting a removed member reactivates the old row rather than
	// creating a duplicate
	queryAddMember = `
		INSERT INTO memberships (project_id, account_id, access_level, invited_by)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (project_id, account_id)
		DO UPDATE SET
			access_level = EXCLUDED.access_level,
			invited_by = EXCLUDED.invited_by,
			active = true,
			joined_at = NOW()
		RETURNING ` + membershipColumns

	// both mutations match on project_id as well as id so a membership can
	// only be touched through its own project
	queryUpdateMemberAccess = `
		UPDATE memberships
		SET access_level = $3
		WHERE id = $1 AND project_id = $2 AND active = true
		RETURNING ` + membershipColumns

	querySoftDeleteMember = `
		UPDATE memberships
		SET active = false
		WHERE id = $1 AND project_id = $2 AND active = true
	`

	queryListMembers = `
		SELECT ` + membershipColumns + `
		FROM memberships
		WHERE project_id = $1 AND active = true
		ORDER BY joined_at ASC
	`

	queryListOwned = `
		SELECT ` + projectColumns + `
		FROM projects
		WHERE owner_id = $1 AND active = true
		ORDER BY created_at DESC
	`

	queryListMemberProjects = `
		SELECT p.id, p.owner_id, p.name, p.description, p.active, p.created_at, p.updated_at,
		       m.access_level, m.joined_at
		FROM projects p
		JOIN memberships m ON m.project_id = p.id
		WHERE m.account_id = $1 AND m.active = true AND p.active = true
		ORDER BY m.joined_at DESC
	`
)
