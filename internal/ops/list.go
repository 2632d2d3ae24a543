package ops

import (
	"database/sql"

	"github.com/loomworks/loom/internal/db"
	"github.com/loomworks/loom/internal/project"
)

// DefaultRecentLimit caps the recent-projects listing when no limit is given.
const DefaultRecentLimit = 20

// ListInput contains parameters for the List operation.
type ListInput struct {
	Limit int
}

// ListOutput contains the result of the List operation.
type ListOutput struct {
	Projects []project.Project `json:"projects"`
	Count    int               `json:"count"`
}

// List returns the most recently modified projects.
func List(database *sql.DB, input ListInput) (*ListOutput, error) {
	limit := input.Limit
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	projects, err := db.RecentProjects(database, limit)
	if err != nil {
		return nil, err
	}
	return &ListOutput{Projects: projects, Count: len(projects)}, nil
}
