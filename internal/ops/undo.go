package ops

import (
	"database/sql"

	"github.com/loomworks/loom/internal/db"
	"github.com/loomworks/loom/internal/project"
	"github.com/loomworks/loom/internal/table"
)

// UndoInput contains parameters for the Undo operation.
type UndoInput struct {
	ProjectID string
}

// UndoOutput contains the result of the Undo operation.
type UndoOutput struct {
	Project   *project.Project  `json:"project"`
	Removed   *project.LogEntry `json:"removed,omitempty"`
	Remaining int               `json:"remaining"`
	Preview   *table.Preview    `json:"preview"`
}

// Undo removes the most recent unapplied log entry and rebuilds the
// working copy by replaying the remaining unapplied entries onto the
// last checkpointed state. Sealed entries are not undoable; when no
// unapplied entry exists the project is returned unchanged with a nil
// Removed field.
func Undo(database *sql.DB, input UndoInput) (*UndoOutput, error) {
	unlock := lockProject(input.ProjectID)
	defer unlock()

	p, err := db.GetProject(database, input.ProjectID)
	if err != nil {
		return nil, err
	}

	last, err := db.LatestUnappliedLog(database, p.ID)
	if err != nil {
		return nil, err
	}
	if last == nil {
		t, err := loadTable(p.WorkingPath)
		if err != nil {
			return nil, err
		}
		return &UndoOutput{Project: p, Remaining: 0, Preview: t.ToPreview()}, nil
	}

	if err := db.DeleteLog(database, last.Seq); err != nil {
		return nil, err
	}

	// Rebuild from the checkpointed baseline: the sealed history first,
	// then whatever unapplied entries remain.
	applied, err := db.AppliedLogsThrough(database, p.ID, now())
	if err != nil {
		return nil, err
	}
	remaining, err := db.UnappliedLogs(database, p.ID)
	if err != nil {
		return nil, err
	}

	base, err := loadTable(p.OriginalPath)
	if err != nil {
		return nil, err
	}
	t, err := replay(base, append(applied, remaining...))
	if err != nil {
		return nil, err
	}
	if err := persistTable(p.WorkingPath, t); err != nil {
		return nil, err
	}

	ts := now()
	if err := db.TouchProject(database, p.ID, ts); err != nil {
		return nil, err
	}
	p.LastModified = ts

	return &UndoOutput{
		Project:   p,
		Removed:   last,
		Remaining: len(remaining),
		Preview:   t.ToPreview(),
	}, nil
}
