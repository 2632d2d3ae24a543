package ops

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/loomworks/loom/internal/config"
	"github.com/loomworks/loom/internal/db"
	"github.com/loomworks/loom/internal/errors"
	"github.com/loomworks/loom/internal/project"
	"github.com/loomworks/loom/internal/storage"
	"github.com/loomworks/loom/internal/table"
)

// CreateInput contains parameters for the Create operation.
type CreateInput struct {
	Name        string
	Description string
	Filename    string // original upload filename, used for the stored name
	Data        []byte // raw CSV bytes
}

// CreateOutput contains the result of the Create operation.
type CreateOutput struct {
	Project *project.Project `json:"project"`
	Preview *table.Preview   `json:"preview"`
}

// Create stores an uploaded CSV as a new project: the original file is
// written once and never touched again, and a working copy is placed
// alongside it for transformations.
func Create(database *sql.DB, cfg *config.Config, baseDir string, input CreateInput) (*CreateOutput, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, errors.NewInvalidRequest("project name is required")
	}
	if len(input.Data) == 0 {
		return nil, errors.NewInvalidRequest("upload data is empty")
	}
	if int64(len(input.Data)) > cfg.MaxUploadBytes {
		return nil, errors.NewInvalidRequest(fmt.Sprintf("upload exceeds maximum size of %d bytes", cfg.MaxUploadBytes))
	}
	ext := strings.ToLower(filepath.Ext(input.Filename))
	if !cfg.AllowsExtension(ext) {
		return nil, errors.NewInvalidRequest(fmt.Sprintf("file type %q not allowed", ext))
	}

	// Decode before touching disk: a malformed upload creates nothing.
	t, err := table.Decode(input.Data)
	if err != nil {
		return nil, err
	}

	safeName := storage.SanitizeFilename(input.Filename)
	originalPath, err := storage.ResolveUploadPath(baseDir, safeName)
	if err != nil {
		return nil, err
	}
	workingPath := storage.WorkingCopyPath(originalPath)

	if err := storage.WriteBytes(originalPath, input.Data); err != nil {
		return nil, err
	}
	if err := storage.WriteBytes(workingPath, input.Data); err != nil {
		storage.RemoveFile(originalPath)
		return nil, err
	}

	id, err := project.NewID()
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	ts := now()
	p := &project.Project{
		ID:           id,
		Name:         input.Name,
		Description:  input.Description,
		OriginalPath: originalPath,
		WorkingPath:  workingPath,
		CreatedAt:    ts,
		LastModified: ts,
	}
	if err := db.InsertProject(database, p); err != nil {
		storage.RemoveFile(originalPath)
		storage.RemoveFile(workingPath)
		return nil, err
	}

	return &CreateOutput{Project: p, Preview: t.ToPreview()}, nil
}
