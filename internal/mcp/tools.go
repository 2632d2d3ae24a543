package mcp

import "github.com/mark3labs/mcp-go/mcp"

var createToolDef = mcp.NewTool("project_create",
	mcp.WithDescription("Create a project from a CSV file on disk. The file becomes the immutable original; a working copy is made alongside it."),
	mcp.WithString("name", mcp.Required(), mcp.Description("Project name")),
	mcp.WithString("description", mcp.Description("Optional project description (markdown)")),
	mcp.WithString("path", mcp.Required(), mcp.Description("Path to the CSV file to upload")),
)

var fetchToolDef = mcp.NewTool("project_fetch",
	mcp.WithDescription("Fetch a project and a preview of its working copy."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Project ID")),
	mcp.WithBoolean("original", mcp.Description("Preview the pristine original instead of the working copy")),
)

var listToolDef = mcp.NewTool("project_list",
	mcp.WithDescription("List the most recently modified projects."),
	mcp.WithNumber("limit", mcp.Description("Maximum number of projects to return (default 20)")),
)

var deleteToolDef = mcp.NewTool("project_delete",
	mcp.WithDescription("Delete a project, its change log, its checkpoints, and its files."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Project ID")),
)

var transformToolDef = mcp.NewTool("project_transform",
	mcp.WithDescription("Apply one transformation to a project's working copy and record it in the change log. The operation object uses the log wire format: operation_type plus the matching params field (row_params, col_params, filter_params, sort_params, change_cell_value, fill_empty_params, rename_col_params, cast_data_type_params, trim_whitespace_params, drop_duplicate, adv_query, pivot_query)."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Project ID")),
	mcp.WithObject("operation", mcp.Required(), mcp.Description("Operation object in the log wire format")),
)

var saveToolDef = mcp.NewTool("project_save",
	mcp.WithDescription("Replay the project's unapplied transformations onto the pristine original, write the result to the working copy, and seal them under a new checkpoint."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Project ID")),
	mcp.WithString("message", mcp.Description("Optional checkpoint message")),
)

var revertToolDef = mcp.NewTool("project_revert",
	mcp.WithDescription("Rewrite the working copy to the state at a checkpoint, or to the pristine original when no checkpoint is given."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Project ID")),
	mcp.WithString("checkpoint_id", mcp.Description("Target checkpoint ID; omit to revert to the original")),
	mcp.WithBoolean("discard", mcp.Description("Also delete log entries recorded after the target")),
)

var undoToolDef = mcp.NewTool("project_undo",
	mcp.WithDescription("Remove the most recent unapplied transformation and rebuild the working copy by replay."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Project ID")),
)

var logsToolDef = mcp.NewTool("project_logs",
	mcp.WithDescription("List a project's change log in replay order."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Project ID")),
	mcp.WithBoolean("unapplied", mcp.Description("Only return entries not yet sealed under a checkpoint")),
)

var checkpointsToolDef = mcp.NewTool("project_checkpoints",
	mcp.WithDescription("List a project's checkpoints, newest first."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Project ID")),
)

var exportToolDef = mcp.NewTool("project_export",
	mcp.WithDescription("Copy a project's working copy (or its original) to a destination .csv path."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Project ID")),
	mcp.WithString("path", mcp.Required(), mcp.Description("Destination .csv path")),
	mcp.WithBoolean("original", mcp.Description("Export the pristine original instead of the working copy")),
)
