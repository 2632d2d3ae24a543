package mcp

import (
	"context"
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/loomworks/loom/internal/config"
	"github.com/loomworks/loom/internal/errors"
	"github.com/loomworks/loom/internal/ops"
	"github.com/loomworks/loom/internal/transform"
)

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	db      *sql.DB
	cfg     *config.Config
	baseDir string
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(db *sql.DB, cfg *config.Config, baseDir string) *Handlers {
	return &Handlers{db: db, cfg: cfg, baseDir: baseDir}
}

// Request types for each tool

// CreateRequest represents the arguments for project_create.
type CreateRequest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Path        string `json:"path"`
}

// FetchRequest represents the arguments for project_fetch.
type FetchRequest struct {
	ID       string `json:"id"`
	Original bool   `json:"original,omitempty"`
}

// ListRequest represents the arguments for project_list.
type ListRequest struct {
	Limit int `json:"limit,omitempty"`
}

// DeleteRequest represents the arguments for project_delete.
type DeleteRequest struct {
	ID string `json:"id"`
}

// TransformRequest represents the arguments for project_transform.
type TransformRequest struct {
	ID        string          `json:"id"`
	Operation json.RawMessage `json:"operation"`
}

// SaveRequest represents the arguments for project_save.
type SaveRequest struct {
	ID      string `json:"id"`
	Message string `json:"message,omitempty"`
}

// RevertRequest represents the arguments for project_revert.
type RevertRequest struct {
	ID           string `json:"id"`
	CheckpointID string `json:"checkpoint_id,omitempty"`
	Discard      bool   `json:"discard,omitempty"`
}

// UndoRequest represents the arguments for project_undo.
type UndoRequest struct {
	ID string `json:"id"`
}

// LogsRequest represents the arguments for project_logs.
type LogsRequest struct {
	ID        string `json:"id"`
	Unapplied bool   `json:"unapplied,omitempty"`
}

// CheckpointsRequest represents the arguments for project_checkpoints.
type CheckpointsRequest struct {
	ID string `json:"id"`
}

// ExportRequest represents the arguments for project_export.
type ExportRequest struct {
	ID       string `json:"id"`
	Path     string `json:"path"`
	Original bool   `json:"original,omitempty"`
}

// Handler implementations

// HandleCreate handles the project_create tool call.
func (h *Handlers) HandleCreate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[CreateRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	data, err := os.ReadFile(input.Path)
	if err != nil {
		return errorResult(errors.NewInvalidRequest("cannot read file: " + input.Path)), nil
	}

	result, err := ops.Create(h.db, h.cfg, h.baseDir, ops.CreateInput{
		Name:        input.Name,
		Description: input.Description,
		Filename:    filepath.Base(input.Path),
		Data:        data,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleFetch handles the project_fetch tool call.
func (h *Handlers) HandleFetch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[FetchRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Fetch(h.db, ops.FetchInput{
		ProjectID: input.ID,
		Original:  input.Original,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleList handles the project_list tool call.
func (h *Handlers) HandleList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ListRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.List(h.db, ops.ListInput{Limit: input.Limit})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleDelete handles the project_delete tool call.
func (h *Handlers) HandleDelete(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[DeleteRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Delete(h.db, ops.DeleteInput{ProjectID: input.ID})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleTransform handles the project_transform tool call.
func (h *Handlers) HandleTransform(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[TransformRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	op, err := transform.Unmarshal(input.Operation)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := ops.Transform(h.db, ops.TransformInput{
		ProjectID: input.ID,
		Operation: op,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleSave handles the project_save tool call.
func (h *Handlers) HandleSave(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SaveRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Save(h.db, ops.SaveInput{
		ProjectID: input.ID,
		Message:   input.Message,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleRevert handles the project_revert tool call.
func (h *Handlers) HandleRevert(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[RevertRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Revert(h.db, h.cfg, ops.RevertInput{
		ProjectID:    input.ID,
		CheckpointID: input.CheckpointID,
		Discard:      input.Discard,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleUndo handles the project_undo tool call.
func (h *Handlers) HandleUndo(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[UndoRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Undo(h.db, ops.UndoInput{ProjectID: input.ID})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleLogs handles the project_logs tool call.
func (h *Handlers) HandleLogs(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[LogsRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Logs(h.db, ops.LogsInput{
		ProjectID:     input.ID,
		UnappliedOnly: input.Unapplied,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleCheckpoints handles the project_checkpoints tool call.
func (h *Handlers) HandleCheckpoints(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[CheckpointsRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Checkpoints(h.db, ops.CheckpointsInput{ProjectID: input.ID})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleExport handles the project_export tool call.
func (h *Handlers) HandleExport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ExportRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Export(h.db, h.cfg, h.baseDir, ops.ExportInput{
		ProjectID: input.ID,
		Path:      input.Path,
		Original:  input.Original,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// Result helpers

// errorResult creates an MCP error result from any error.
// Uses IsError: true so MCP clients recognize failures properly.
// Note: Internal error details are not exposed to prevent leaking sensitive info.
func errorResult(err error) *mcp.CallToolResult {
	var payload map[string]any

	if lErr, ok := err.(*errors.LoomError); ok {
		errorObj := map[string]any{
			"code":    lErr.Code,
			"message": lErr.Message,
			"status":  lErr.Status,
		}
		// Only include details for non-internal errors to avoid leaking
		// sensitive info like file paths or SQL errors
		if lErr.Code != errors.ErrInternal && lErr.Details != nil {
			errorObj["details"] = lErr.Details
		}
		payload = map[string]any{"error": errorObj}
	} else {
		payload = map[string]any{
			"error": map[string]any{
				"code":    "INTERNAL",
				"message": "an internal error occurred",
				"status":  500,
			},
		}
	}

	content, _ := json.Marshal(payload)
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

// successResult creates an MCP success result from any data.
func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}
