package ops

import (
	"database/sql"

	"github.com/loomworks/loom/internal/db"
	"github.com/loomworks/loom/internal/errors"
	"github.com/loomworks/loom/internal/project"
	"github.com/loomworks/loom/internal/table"
)

// SaveInput contains parameters for the Save operation.
type SaveInput struct {
	ProjectID string
	Message   string
}

// SaveOutput contains the result of the Save operation.
type SaveOutput struct {
	Project    *project.Project    `json:"project"`
	Checkpoint *project.Checkpoint `json:"checkpoint"`
	Sealed     int                 `json:"sealed"`
	Preview    *table.Preview      `json:"preview"`
}

// Save verifies the project's unapplied transformations by replaying
// the full log, sealed history first and then the unapplied entries,
// onto the pristine original, writes the replayed result to the
// working copy, and seals the unapplied entries under a new checkpoint.
// The original is never rewritten, so the sealed entries must be part
// of every fold; replaying the unapplied tail alone would land on the
// state before the previous checkpoint. The working copy should already
// match the replay result; rewriting it from the original guarantees it
// does. The checkpoint is only created after the rewrite succeeds, so a
// failed replay seals nothing.
func Save(database *sql.DB, input SaveInput) (*SaveOutput, error) {
	unlock := lockProject(input.ProjectID)
	defer unlock()

	p, err := db.GetProject(database, input.ProjectID)
	if err != nil {
		return nil, err
	}
	entries, err := db.UnappliedLogs(database, p.ID)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, errors.NewConflict("no unapplied transformations to save")
	}
	applied, err := db.AppliedLogsThrough(database, p.ID, now())
	if err != nil {
		return nil, err
	}

	base, err := loadTable(p.OriginalPath)
	if err != nil {
		return nil, err
	}
	t, err := replay(base, append(applied, entries...))
	if err != nil {
		return nil, err
	}
	if err := persistTable(p.WorkingPath, t); err != nil {
		return nil, err
	}

	id, err := project.NewID()
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	ts := now()
	cp := &project.Checkpoint{
		ID:        id,
		ProjectID: p.ID,
		Message:   input.Message,
		CreatedAt: ts,
	}
	sealed, err := db.CreateCheckpoint(database, cp)
	if err != nil {
		return nil, err
	}
	if err := db.TouchProject(database, p.ID, ts); err != nil {
		return nil, err
	}
	p.LastModified = ts

	return &SaveOutput{Project: p, Checkpoint: cp, Sealed: sealed, Preview: t.ToPreview()}, nil
}
