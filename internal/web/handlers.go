package web

import (
	"database/sql"
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/loomworks/loom/internal/config"
	"github.com/loomworks/loom/internal/errors"
	"github.com/loomworks/loom/internal/ops"
	"github.com/loomworks/loom/internal/transform"
)

// Handlers contains HTTP route handlers for the web UI and JSON API.
type Handlers struct {
	db       *sql.DB
	cfg      *config.Config
	baseDir  string
	renderer *Renderer
}

// HandleList handles GET /projects — recent projects page.
func (h *Handlers) HandleList(w http.ResponseWriter, r *http.Request) {
	result, err := ops.List(h.db, ops.ListInput{Limit: parseIntParam(r, "limit", ops.DefaultRecentLimit)})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	h.renderer.renderPage(w, r, "list", ListPageData{
		PageData: PageData{
			Title:   "Projects",
			Version: h.renderer.version,
			Nav:     "projects",
		},
		Projects: result.Projects,
	})
}

// HandleUpload handles POST /projects — multipart upload form.
func (h *Handlers) HandleUpload(w http.ResponseWriter, r *http.Request) {
	input, err := h.uploadInput(r)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	result, err := ops.Create(h.db, h.cfg, h.baseDir, *input)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	http.Redirect(w, r, "/projects/"+result.Project.ID, http.StatusSeeOther)
}

// HandleDetail handles GET /projects/{id} — project page with the
// current working-copy preview, change log, and checkpoints.
func (h *Handlers) HandleDetail(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("project ID is required"))
		return
	}

	fetched, err := ops.Fetch(h.db, ops.FetchInput{ProjectID: id, Original: parseBoolParam(r, "original")})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	logs, err := ops.Logs(h.db, ops.LogsInput{ProjectID: id})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	cps, err := ops.Checkpoints(h.db, ops.CheckpointsInput{ProjectID: id})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	h.renderer.renderPage(w, r, "detail", DetailPageData{
		PageData: PageData{
			Title:   fetched.Project.Name,
			Version: h.renderer.version,
			Nav:     "projects",
		},
		Project:      fetched.Project,
		Preview:      fetched.Preview,
		RenderedHTML: renderMarkdown(fetched.Project.Description),
		Logs:         logs.Entries,
		Unapplied:    logs.Unapplied,
		Checkpoints:  cps.Checkpoints,
	})
}

// HandleDelete handles DELETE /projects/{id}.
func (h *Handlers) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("project ID is required"))
		return
	}
	if _, err := ops.Delete(h.db, ops.DeleteInput{ProjectID: id}); err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	http.Redirect(w, r, "/projects", http.StatusFound)
}

// --- JSON API ---

// APIUpload handles POST /api/projects — create a project from a
// multipart CSV upload.
func (h *Handlers) APIUpload(w http.ResponseWriter, r *http.Request) {
	input, err := h.uploadInput(r)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	result, err := ops.Create(h.db, h.cfg, h.baseDir, *input)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusCreated, result)
}

// APIList handles GET /api/projects.
func (h *Handlers) APIList(w http.ResponseWriter, r *http.Request) {
	result, err := ops.List(h.db, ops.ListInput{Limit: parseIntParam(r, "limit", ops.DefaultRecentLimit)})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, result)
}

// APIFetch handles GET /api/projects/{id}.
func (h *Handlers) APIFetch(w http.ResponseWriter, r *http.Request) {
	result, err := ops.Fetch(h.db, ops.FetchInput{
		ProjectID: r.PathValue("id"),
		Original:  parseBoolParam(r, "original"),
	})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, result)
}

// APIDelete handles DELETE /api/projects/{id}.
func (h *Handlers) APIDelete(w http.ResponseWriter, r *http.Request) {
	result, err := ops.Delete(h.db, ops.DeleteInput{ProjectID: r.PathValue("id")})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, result)
}

// APITransform handles POST /api/projects/{id}/transform. The body is
// one operation object in the log's wire format.
func (h *Handlers) APITransform(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 1<<20))
	if err != nil {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("cannot read request body"))
		return
	}
	op, err := transform.Unmarshal(body)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	result, err := ops.Transform(h.db, ops.TransformInput{
		ProjectID: r.PathValue("id"),
		Operation: op,
	})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, result)
}

// APISave handles POST /api/projects/{id}/save.
func (h *Handlers) APISave(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Message string `json:"message"`
	}
	if err := decodeJSONBody(r, &body); err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	result, err := ops.Save(h.db, ops.SaveInput{
		ProjectID: r.PathValue("id"),
		Message:   body.Message,
	})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, result)
}

// APIRevert handles POST /api/projects/{id}/revert.
func (h *Handlers) APIRevert(w http.ResponseWriter, r *http.Request) {
	var body struct {
		CheckpointID string `json:"checkpoint_id"`
		Discard      bool   `json:"discard"`
	}
	if err := decodeJSONBody(r, &body); err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	result, err := ops.Revert(h.db, h.cfg, ops.RevertInput{
		ProjectID:    r.PathValue("id"),
		CheckpointID: body.CheckpointID,
		Discard:      body.Discard,
	})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, result)
}

// APIUndo handles POST /api/projects/{id}/undo.
func (h *Handlers) APIUndo(w http.ResponseWriter, r *http.Request) {
	result, err := ops.Undo(h.db, ops.UndoInput{ProjectID: r.PathValue("id")})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, result)
}

// APILogs handles GET /api/projects/{id}/logs.
func (h *Handlers) APILogs(w http.ResponseWriter, r *http.Request) {
	result, err := ops.Logs(h.db, ops.LogsInput{
		ProjectID:     r.PathValue("id"),
		UnappliedOnly: parseBoolParam(r, "unapplied"),
	})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, result)
}

// APICheckpoints handles GET /api/projects/{id}/checkpoints.
func (h *Handlers) APICheckpoints(w http.ResponseWriter, r *http.Request) {
	result, err := ops.Checkpoints(h.db, ops.CheckpointsInput{ProjectID: r.PathValue("id")})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, result)
}

// APIExport handles POST /api/projects/{id}/export.
func (h *Handlers) APIExport(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Path     string `json:"path"`
		Original bool   `json:"original"`
	}
	if err := decodeJSONBody(r, &body); err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	result, err := ops.Export(h.db, h.cfg, h.baseDir, ops.ExportInput{
		ProjectID: r.PathValue("id"),
		Path:      body.Path,
		Original:  body.Original,
	})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, result)
}

// uploadInput reads a multipart upload (fields: name, description,
// file) into a CreateInput, enforcing the configured size cap at the
// transport edge.
func (h *Handlers) uploadInput(r *http.Request) (*ops.CreateInput, error) {
	if err := r.ParseMultipartForm(h.cfg.MaxUploadBytes); err != nil {
		return nil, errors.NewInvalidRequest("invalid multipart form data")
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, errors.NewInvalidRequest("file field is required")
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, h.cfg.MaxUploadBytes+1))
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	return &ops.CreateInput{
		Name:        r.FormValue("name"),
		Description: r.FormValue("description"),
		Filename:    header.Filename,
		Data:        data,
	}, nil
}

// decodeJSONBody decodes an optional JSON request body. An empty body
// leaves dst at its zero value.
func decodeJSONBody(r *http.Request, dst any) error {
	body, err := io.ReadAll(http.MaxBytesReader(nil, r.Body, 1<<20))
	if err != nil {
		return errors.NewInvalidRequest("cannot read request body")
	}
	if len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return errors.NewInvalidRequest("invalid JSON body")
	}
	return nil
}

// parseIntParam parses an integer query parameter with a default value.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	s := r.URL.Query().Get(name)
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return defaultVal
	}
	return v
}

// parseBoolParam parses a boolean query parameter.
func parseBoolParam(r *http.Request, name string) bool {
	s := r.URL.Query().Get(name)
	return s == "true" || s == "1"
}
