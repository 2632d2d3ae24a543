package ops

import (
	"database/sql"

	"github.com/loomworks/loom/internal/db"
	"github.com/loomworks/loom/internal/project"
)

// CheckpointsInput contains parameters for the Checkpoints operation.
type CheckpointsInput struct {
	ProjectID string
}

// CheckpointsOutput contains the result of the Checkpoints operation.
type CheckpointsOutput struct {
	Checkpoints []project.Checkpoint `json:"checkpoints"`
	Count       int                  `json:"count"`
}

// Checkpoints returns a project's checkpoints, newest first.
func Checkpoints(database *sql.DB, input CheckpointsInput) (*CheckpointsOutput, error) {
	if _, err := db.GetProject(database, input.ProjectID); err != nil {
		return nil, err
	}
	cps, err := db.ListCheckpoints(database, input.ProjectID)
	if err != nil {
		return nil, err
	}
	return &CheckpointsOutput{Checkpoints: cps, Count: len(cps)}, nil
}
