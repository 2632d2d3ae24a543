package ops

import (
	"database/sql"

	"github.com/loomworks/loom/internal/config"
	"github.com/loomworks/loom/internal/db"
	"github.com/loomworks/loom/internal/project"
	"github.com/loomworks/loom/internal/storage"
	"github.com/loomworks/loom/internal/table"
)

// RevertInput contains parameters for the Revert operation.
type RevertInput struct {
	ProjectID    string
	CheckpointID string // empty means revert all the way to the original
	Discard      bool   // also delete log entries recorded after the target
}

// RevertOutput contains the result of the Revert operation.
type RevertOutput struct {
	Project    *project.Project    `json:"project"`
	Checkpoint *project.Checkpoint `json:"checkpoint,omitempty"`
	Replayed   int                 `json:"replayed"`
	Discarded  int64               `json:"discarded"`
	Preview    *table.Preview      `json:"preview"`
}

// Revert rewrites the working copy to the state at a checkpoint, or to
// the pristine original when no checkpoint is given. The checkpoint
// state is reconstructed by replaying every entry sealed under the
// target checkpoint or an earlier one, in recorded order, onto the
// original. The log is left intact unless discarding is requested,
// either per call or through the DestructiveRevert config flag.
func Revert(database *sql.DB, cfg *config.Config, input RevertInput) (*RevertOutput, error) {
	unlock := lockProject(input.ProjectID)
	defer unlock()

	p, err := db.GetProject(database, input.ProjectID)
	if err != nil {
		return nil, err
	}

	var cp *project.Checkpoint
	var cutoff int64
	var entries []project.LogEntry
	if input.CheckpointID != "" {
		cp, err = db.GetCheckpoint(database, p.ID, input.CheckpointID)
		if err != nil {
			return nil, err
		}
		cutoff = cp.CreatedAt
		entries, err = db.AppliedLogsThrough(database, p.ID, cp.CreatedAt)
		if err != nil {
			return nil, err
		}
	}

	var t *table.Table
	if len(entries) == 0 {
		// Nothing to replay: restore the original file verbatim rather
		// than round-tripping it through the codec.
		data, err := storage.ReadBytes(p.OriginalPath)
		if err != nil {
			return nil, err
		}
		if t, err = table.Decode(data); err != nil {
			return nil, err
		}
		if err := storage.WriteBytes(p.WorkingPath, data); err != nil {
			return nil, err
		}
	} else {
		base, err := loadTable(p.OriginalPath)
		if err != nil {
			return nil, err
		}
		if t, err = replay(base, entries); err != nil {
			return nil, err
		}
		if err := persistTable(p.WorkingPath, t); err != nil {
			return nil, err
		}
	}

	var discarded int64
	if input.Discard || cfg.DestructiveRevert {
		discarded, err = db.DeleteLogsAfter(database, p.ID, cutoff)
		if err != nil {
			return nil, err
		}
	}

	ts := now()
	if err := db.TouchProject(database, p.ID, ts); err != nil {
		return nil, err
	}
	p.LastModified = ts

	return &RevertOutput{
		Project:    p,
		Checkpoint: cp,
		Replayed:   len(entries),
		Discarded:  discarded,
		Preview:    t.ToPreview(),
	}, nil
}
