package ops

import (
	"database/sql"

	"github.com/loomworks/loom/internal/db"
	"github.com/loomworks/loom/internal/errors"
	"github.com/loomworks/loom/internal/project"
	"github.com/loomworks/loom/internal/table"
	"github.com/loomworks/loom/internal/transform"
)

// TransformInput contains parameters for the Transform operation.
type TransformInput struct {
	ProjectID string
	Operation *transform.Operation
}

// TransformOutput contains the result of the Transform operation.
type TransformOutput struct {
	Project *project.Project `json:"project"`
	Preview *table.Preview   `json:"preview"`
	Seq     int64            `json:"seq"`
}

// Transform applies one operation to a project's working copy and
// appends it to the change log as a new unapplied entry. The log write
// happens only after the transformed table has been persisted, so a
// failed transformation leaves neither file nor log changed.
func Transform(database *sql.DB, input TransformInput) (*TransformOutput, error) {
	if input.Operation == nil {
		return nil, errors.NewInvalidRequest("operation is required")
	}
	unlock := lockProject(input.ProjectID)
	defer unlock()

	p, err := db.GetProject(database, input.ProjectID)
	if err != nil {
		return nil, err
	}
	t, err := loadTable(p.WorkingPath)
	if err != nil {
		return nil, err
	}
	t, err = transform.Apply(t, input.Operation)
	if err != nil {
		return nil, err
	}
	if err := persistTable(p.WorkingPath, t); err != nil {
		return nil, err
	}

	params, err := input.Operation.Marshal()
	if err != nil {
		return nil, err
	}
	ts := now()
	seq, err := db.InsertLog(database, &project.LogEntry{
		ProjectID: p.ID,
		Kind:      string(input.Operation.Kind),
		Params:    params,
		CreatedAt: ts,
	})
	if err != nil {
		return nil, err
	}
	if err := db.TouchProject(database, p.ID, ts); err != nil {
		return nil, err
	}
	p.LastModified = ts

	return &TransformOutput{Project: p, Preview: t.ToPreview(), Seq: seq}, nil
}
