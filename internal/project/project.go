// Package project defines the durable entities: the Project with its
// pair of CSV files, the append-only change log, and checkpoints.
package project

import (
	"crypto/rand"
	"encoding/json"
	"time"

	"github.com/oklog/ulid/v2"
)

// Project is a user-uploaded dataset. OriginalPath points at the
// pristine upload, which is never rewritten after creation: it is the
// fixed base every replay starts from. WorkingPath is the mutable
// working copy the user currently sees.
type Project struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Description  string `json:"description,omitempty"`
	OriginalPath string `json:"original_path"`
	WorkingPath  string `json:"working_path"`
	CreatedAt    int64  `json:"created_at"`
	LastModified int64  `json:"last_modified"`
}

// LogEntry is one recorded transformation. Seq is assigned by the
// database in insertion order and is the tiebreak when two entries
// share a creation timestamp. Invariant: Applied is true exactly when
// CheckpointID is non-nil.
type LogEntry struct {
	Seq          int64           `json:"seq"`
	ProjectID    string          `json:"project_id"`
	Kind         string          `json:"action_type"`
	Params       json.RawMessage `json:"action_details"`
	CreatedAt    int64           `json:"created_at"`
	CheckpointID *string         `json:"checkpoint_id,omitempty"`
	Applied      bool            `json:"applied"`
}

// Checkpoint is a named fence sealing a batch of log entries as applied.
type Checkpoint struct {
	ID        string `json:"id"`
	ProjectID string `json:"project_id"`
	Message   string `json:"message"`
	CreatedAt int64  `json:"created_at"`
}

// NewID generates a ULID for projects and checkpoints.
func NewID() (string, error) {
	id, err := ulid.New(ulid.Timestamp(time.Now()), rand.Reader)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}
