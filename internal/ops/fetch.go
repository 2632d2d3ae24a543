package ops

import (
	"database/sql"

	"github.com/loomworks/loom/internal/db"
	"github.com/loomworks/loom/internal/project"
	"github.com/loomworks/loom/internal/table"
)

// FetchInput contains parameters for the Fetch operation.
type FetchInput struct {
	ProjectID string
	Original  bool // fetch the pristine original instead of the working copy
}

// FetchOutput contains the result of the Fetch operation.
type FetchOutput struct {
	Project *project.Project `json:"project"`
	Preview *table.Preview   `json:"preview"`
}

// Fetch loads a project and its current working copy (or the pristine
// original when requested).
func Fetch(database *sql.DB, input FetchInput) (*FetchOutput, error) {
	p, err := db.GetProject(database, input.ProjectID)
	if err != nil {
		return nil, err
	}

	path := p.WorkingPath
	if input.Original {
		path = p.OriginalPath
	}
	t, err := loadTable(path)
	if err != nil {
		return nil, err
	}
	return &FetchOutput{Project: p, Preview: t.ToPreview()}, nil
}
