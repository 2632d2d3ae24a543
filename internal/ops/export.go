package ops

import (
	"database/sql"

	"github.com/loomworks/loom/internal/config"
	"github.com/loomworks/loom/internal/db"
	"github.com/loomworks/loom/internal/storage"
)

// ExportInput contains parameters for the Export operation.
type ExportInput struct {
	ProjectID string
	Path      string // destination .csv path, validated against config
	Original  bool   // export the pristine original instead of the working copy
}

// ExportOutput contains the result of the Export operation.
type ExportOutput struct {
	ProjectID string `json:"project_id"`
	Path      string `json:"path"`
	Bytes     int    `json:"bytes"`
}

// Export copies a project's working copy (or its original) to a
// destination path. The bytes are copied verbatim, with no decode and
// re-encode round trip.
func Export(database *sql.DB, cfg *config.Config, baseDir string, input ExportInput) (*ExportOutput, error) {
	if err := storage.ValidateExportPath(input.Path, baseDir, cfg); err != nil {
		return nil, err
	}
	p, err := db.GetProject(database, input.ProjectID)
	if err != nil {
		return nil, err
	}

	src := p.WorkingPath
	if input.Original {
		src = p.OriginalPath
	}
	data, err := storage.ReadBytes(src)
	if err != nil {
		return nil, err
	}
	if err := storage.WriteBytes(input.Path, data); err != nil {
		return nil, err
	}
	return &ExportOutput{ProjectID: p.ID, Path: input.Path, Bytes: len(data)}, nil
}
