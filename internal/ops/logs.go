package ops

import (
	"database/sql"

	"github.com/loomworks/loom/internal/db"
	"github.com/loomworks/loom/internal/project"
)

// LogsInput contains parameters for the Logs operation.
type LogsInput struct {
	ProjectID     string
	UnappliedOnly bool
}

// LogsOutput contains the result of the Logs operation.
type LogsOutput struct {
	Entries   []project.LogEntry `json:"entries"`
	Count     int                `json:"count"`
	Unapplied int                `json:"unapplied"`
}

// Logs returns a project's change log in replay order.
func Logs(database *sql.DB, input LogsInput) (*LogsOutput, error) {
	if _, err := db.GetProject(database, input.ProjectID); err != nil {
		return nil, err
	}

	var entries []project.LogEntry
	var err error
	if input.UnappliedOnly {
		entries, err = db.UnappliedLogs(database, input.ProjectID)
	} else {
		entries, err = db.ListLogs(database, input.ProjectID)
	}
	if err != nil {
		return nil, err
	}

	unapplied := 0
	for i := range entries {
		if !entries[i].Applied {
			unapplied++
		}
	}
	return &LogsOutput{Entries: entries, Count: len(entries), Unapplied: unapplied}, nil
}
