package projects

import (
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// handles project and membership database operations
type Repository struct {
	db *pgxpool.Pool
}

// project access levels, ordered from lowest to highest. Owner is reserved
// for the project's recorded owner and never stored in a membership row.
const (
	LevelViewer AccessLevel = iota
	LevelContributor
	LevelEditor
	LevelManager
	LevelOwner
)

// AccessLevel is a closed, ordered set of project roles. The zero value is
// Viewer.
type AccessLevel int

var levelNames = map[AccessLevel]string{
	LevelViewer:      "viewer",
	LevelContributor: "contributor",
	LevelEditor:      "editor",
	LevelManager:     "manager",
	LevelOwner:       "owner",
}

var levelsByName = map[string]AccessLevel{
	"viewer":      LevelViewer,
	"contributor": LevelContributor,
	"editor":      LevelEditor,
	"manager":     LevelManager,
	"owner":       LevelOwner,
}

func (l AccessLevel) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}

	return fmt.Sprintf("level(%d)", int(l))
}

// reports whether the level is a member of the closed set
func (l AccessLevel) Valid() bool {
	_, ok := levelNames[l]
	return ok
}

// reports whether l is at or above other in the level ordering
func (l AccessLevel) AtLeast(other AccessLevel) bool {
	return l >= other
}

// parses a stored level name; unknown names fall back to Viewer so a bad row
// can never grant elevated access
func ParseAccessLevel(name string) AccessLevel {
	if l, ok := levelsByName[name]; ok {
		return l
	}

	return LevelViewer
}

// MarshalText implements encoding.TextMarshaler
func (l AccessLevel) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (l *AccessLevel) UnmarshalText(text []byte) error {
	*l = ParseAccessLevel(string(text))
	return nil
}

// represents a collaborative project. OwnerID is set at creation and never
// changed by membership edits; ownership transfer is a separate operation.
type Project struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"owner_id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// binds an account to a project at an access level. Rows are soft-deleted
// (active=false) on removal so the audit trail survives.
type Membership struct {
	ID          string      `json:"id"`
	ProjectID   string      `json:"project_id"`
	AccountID   string      `json:"account_id"`
	AccessLevel AccessLevel `json:"access_level"`
	Active      bool        `json:"active"`
	JoinedAt    time.Time   `json:"joined_at"`
	InvitedBy   string      `json:"invited_by"`
}

// one row of an account's project list: a project plus how and when the
// account got access to it
type ProjectSummary struct {
	Project     *Project    `json:"project"`
	AccessLevel AccessLevel `json:"access_level"`
	IsOwner     bool        `json:"is_owner"`
	Since       time.Time   `json:"since"`
}

// contains data for creating a project
type CreateProjectRequest struct {
	OwnerID     string `json:"owner_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}
