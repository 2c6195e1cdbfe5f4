package projects

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// creates a new project repository
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// creates a project owned by the given account
func (r *Repository) Create(ctx context.Context, req *CreateProjectRequest) (*Project, error) {
	return r.scanProject(r.db.QueryRow(ctx, queryCreateProject, req.OwnerID, req.Name, req.Description))
}

// finds a project by ID, active or not; existence filtering is the access
// resolver's concern
func (r *Repository) FindProject(ctx context.Context, projectID string) (*Project, error) {
	return r.scanProject(r.db.QueryRow(ctx, queryFindProject, projectID))
}

// finds the active membership row for (project, account)
func (r *Repository) FindMembership(ctx context.Context, projectID, accountID string) (*Membership, error) {
	return r.scanMembership(r.db.QueryRow(ctx, queryFindMembership, projectID, accountID))
}

// finds the membership row for (project, account) including soft-deleted rows
func (r *Repository) FindMembershipAny(ctx context.Context, projectID, accountID string) (*Membership, error) {
	return r.scanMembership(r.db.QueryRow(ctx, queryFindMembershipAny, projectID, accountID))
}

// adds a member, reactivating any soft-deleted row for the same account
func (r *Repository) AddMember(ctx context.Context, projectID, accountID string, level AccessLevel, invitedBy string) (*Membership, error) {
	return r.scanMembership(r.db.QueryRow(ctx, queryAddMember, projectID, accountID, level.String(), invitedBy))
}

// changes an active member's access level; the row must belong to projectID
func (r *Repository) UpdateMemberAccess(ctx context.Context, projectID, membershipID string, level AccessLevel) (*Membership, error) {
	return r.scanMembership(r.db.QueryRow(ctx, queryUpdateMemberAccess, membershipID, projectID, level.String()))
}

// soft-deletes a membership of projectID; the row stays retrievable for audit
func (r *Repository) RemoveMember(ctx context.Context, projectID, membershipID string) error {
	tag, err := r.db.Exec(ctx, querySoftDeleteMember, membershipID, projectID)
	if err != nil {
		return fmt.Errorf("failed to remove member: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}

	return nil
}

// lists a project's active members
func (r *Repository) ListMembers(ctx context.Context, projectID string) ([]*Membership, error) {
	rows, err := r.db.Query(ctx, queryListMembers, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}

	defer rows.Close()

	var members []*Membership

	for rows.Next() {
		m, err := r.scanMembershipRows(rows)
		if err != nil {
			return nil, err
		}

		members = append(members, m)
	}

	return members, rows.Err()
}

// lists active projects owned by the account, newest first
func (r *Repository) ListOwned(ctx context.Context, accountID string) ([]*Project, error) {
	rows, err := r.db.Query(ctx, queryListOwned, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to list owned projects: %w", err)
	}

	defer rows.Close()

	var owned []*Project

	for rows.Next() {
		var p Project

		err := rows.Scan(&p.ID, &p.OwnerID, &p.Name, &p.Description, &p.Active, &p.CreatedAt, &p.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}

		owned = append(owned, &p)
	}

	return owned, rows.Err()
}

// lists active projects the account belongs to through a membership,
// most recent join first
func (r *Repository) ListMemberProjects(ctx context.Context, accountID string) ([]*ProjectSummary, error) {
	rows, err := r.db.Query(ctx, queryListMemberProjects, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to list member projects: %w", err)
	}

	defer rows.Close()

	var summaries []*ProjectSummary

	for rows.Next() {
		var p Project
		var level string
		var s ProjectSummary

		err := rows.Scan(&p.ID, &p.OwnerID, &p.Name, &p.Description, &p.Active, &p.CreatedAt, &p.UpdatedAt, &level, &s.Since)
		if err != nil {
			return nil, fmt.Errorf("failed to scan member project: %w", err)
		}

		s.Project = &p
		s.AccessLevel = ParseAccessLevel(level)
		summaries = append(summaries, &s)
	}

	return summaries, rows.Err()
}

func (r *Repository) scanProject(row pgx.Row) (*Project, error) {
	var p Project

	err := row.Scan(&p.ID, &p.OwnerID, &p.Name, &p.Description, &p.Active, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}

	return &p, nil
}

func (r *Repository) scanMembership(row pgx.Row) (*Membership, error) {
	var m Membership
	var level string

	err := row.Scan(&m.ID, &m.ProjectID, &m.AccountID, &level, &m.Active, &m.JoinedAt, &m.InvitedBy)
	if err != nil {
		return nil, err
	}

	m.AccessLevel = ParseAccessLevel(level)

	return &m, nil
}

func (r *Repository) scanMembershipRows(rows pgx.Rows) (*Membership, error) {
	var m Membership
	var level string

	err := rows.Scan(&m.ID, &m.ProjectID, &m.AccountID, &level, &m.Active, &m.JoinedAt, &m.InvitedBy)
	if err != nil {
		return nil, fmt.Errorf("failed to scan membership: %w", err)
	}

	m.AccessLevel = ParseAccessLevel(level)

	return &m, nil
}
