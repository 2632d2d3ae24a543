package ops

import (
	"database/sql"

	"github.com/loomworks/loom/internal/db"
	"github.com/loomworks/loom/internal/storage"
)

// DeleteInput contains parameters for the Delete operation.
type DeleteInput struct {
	ProjectID string
}

// DeleteOutput contains the result of the Delete operation.
type DeleteOutput struct {
	ProjectID string `json:"project_id"`
	Deleted   bool   `json:"deleted"`
}

// Delete removes a project, its change log, its checkpoints, and both
// of its files. Database rows go first, in one transaction; file
// removal follows and is best-effort since the rows are already gone.
func Delete(database *sql.DB, input DeleteInput) (*DeleteOutput, error) {
	unlock := lockProject(input.ProjectID)
	defer unlock()

	p, err := db.GetProject(database, input.ProjectID)
	if err != nil {
		return nil, err
	}
	if err := db.DeleteProject(database, input.ProjectID); err != nil {
		return nil, err
	}
	storage.RemoveFile(p.WorkingPath)
	storage.RemoveFile(p.OriginalPath)

	return &DeleteOutput{ProjectID: input.ProjectID, Deleted: true}, nil
}
