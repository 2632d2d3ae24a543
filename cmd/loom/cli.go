package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/loomworks/loom/internal/config"
	"github.com/loomworks/loom/internal/errors"
	"github.com/loomworks/loom/internal/ops"
	"github.com/loomworks/loom/internal/transform"
	"github.com/loomworks/loom/internal/web"
)

// newCLIApp creates the CLI application with all commands.
func newCLIApp(db *sql.DB, cfg *config.Config, baseDir string) *cli.App {
	app := &cli.App{
		Name:    "loom",
		Usage:   "Replayable CSV transformation projects",
		Version: Version,
		Commands: []*cli.Command{
			createCmd(db, cfg, baseDir),
			showCmd(db),
			listCmd(db),
			deleteCmd(db),
			transformCmd(db),
			saveCmd(db),
			revertCmd(db, cfg),
			undoCmd(db),
			logCmd(db),
			checkpointsCmd(db),
			exportCmd(db, cfg, baseDir),
			webCmd(db, cfg, baseDir),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// createCmd creates the create command.
func createCmd(db *sql.DB, cfg *config.Config, baseDir string) *cli.Command {
	return &cli.Command{
		Name:      "create",
		Usage:     "Create a project from a CSV file",
		ArgsUsage: "<file.csv>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "name", Aliases: []string{"n"}, Usage: "Project name (defaults to the file name)"},
			&cli.StringFlag{Name: "description", Aliases: []string{"d"}, Usage: "Project description (markdown)"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return outputError(errors.NewInvalidRequest("a CSV file argument is required"))
			}
			path := c.Args().First()
			data, err := os.ReadFile(path)
			if err != nil {
				return outputError(errors.NewInvalidRequest(fmt.Sprintf("cannot read file: %s", path)))
			}

			name := c.String("name")
			if name == "" {
				name = strings.TrimSuffix(filepath.Base(path), ".csv")
			}

			output, err := ops.Create(db, cfg, baseDir, ops.CreateInput{
				Name:        name,
				Description: c.String("description"),
				Filename:    filepath.Base(path),
				Data:        data,
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// showCmd creates the show command.
func showCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:      "show",
		Usage:     "Show a project and a preview of its working copy",
		ArgsUsage: "<id>",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "original", Usage: "Preview the pristine original instead of the working copy"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return outputError(errors.NewInvalidRequest("project ID is required"))
			}
			output, err := ops.Fetch(db, ops.FetchInput{
				ProjectID: c.Args().First(),
				Original:  c.Bool("original"),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// listCmd creates the list command.
func listCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List the most recently modified projects",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "limit", Aliases: []string{"l"}, Value: ops.DefaultRecentLimit, Usage: "Maximum projects to return"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.List(db, ops.ListInput{Limit: c.Int("limit")})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// deleteCmd creates the delete command.
func deleteCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:      "delete",
		Usage:     "Delete a project, its change log, its checkpoints, and its files",
		ArgsUsage: "<id>",
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return outputError(errors.NewInvalidRequest("project ID is required"))
			}
			output, err := ops.Delete(db, ops.DeleteInput{ProjectID: c.Args().First()})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// transformCmd creates the transform command.
func transformCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:      "transform",
		Usage:     "Apply one transformation (reads the operation JSON from stdin)",
		ArgsUsage: "<id>",
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return outputError(errors.NewInvalidRequest("project ID is required"))
			}
			if !stdinHasData() {
				return outputError(errors.NewInvalidRequest("operation JSON must be piped via stdin"))
			}
			body, err := io.ReadAll(os.Stdin)
			if err != nil {
				return outputError(errors.NewInternal(err))
			}
			op, err := transform.Unmarshal(body)
			if err != nil {
				return outputError(err)
			}

			output, err := ops.Transform(db, ops.TransformInput{
				ProjectID: c.Args().First(),
				Operation: op,
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// saveCmd creates the save command.
func saveCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:      "save",
		Usage:     "Replay unapplied transformations and seal them under a checkpoint",
		ArgsUsage: "<id>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "message", Aliases: []string{"m"}, Usage: "Checkpoint message"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return outputError(errors.NewInvalidRequest("project ID is required"))
			}
			output, err := ops.Save(db, ops.SaveInput{
				ProjectID: c.Args().First(),
				Message:   c.String("message"),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// revertCmd creates the revert command.
func revertCmd(db *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:      "revert",
		Usage:     "Rewrite the working copy to a checkpoint, or to the original",
		ArgsUsage: "<id>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "checkpoint", Aliases: []string{"c"}, Usage: "Target checkpoint ID (omit to revert to the original)"},
			&cli.BoolFlag{Name: "discard", Usage: "Also delete log entries recorded after the target"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return outputError(errors.NewInvalidRequest("project ID is required"))
			}
			output, err := ops.Revert(db, cfg, ops.RevertInput{
				ProjectID:    c.Args().First(),
				CheckpointID: c.String("checkpoint"),
				Discard:      c.Bool("discard"),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// undoCmd creates the undo command.
func undoCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:      "undo",
		Usage:     "Remove the most recent unapplied transformation",
		ArgsUsage: "<id>",
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return outputError(errors.NewInvalidRequest("project ID is required"))
			}
			output, err := ops.Undo(db, ops.UndoInput{ProjectID: c.Args().First()})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// logCmd creates the log command.
func logCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:      "log",
		Usage:     "List a project's change log in replay order",
		ArgsUsage: "<id>",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "unapplied", Usage: "Only entries not yet sealed under a checkpoint"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return outputError(errors.NewInvalidRequest("project ID is required"))
			}
			output, err := ops.Logs(db, ops.LogsInput{
				ProjectID:     c.Args().First(),
				UnappliedOnly: c.Bool("unapplied"),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// checkpointsCmd creates the checkpoints command.
func checkpointsCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:      "checkpoints",
		Usage:     "List a project's checkpoints, newest first",
		ArgsUsage: "<id>",
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return outputError(errors.NewInvalidRequest("project ID is required"))
			}
			output, err := ops.Checkpoints(db, ops.CheckpointsInput{ProjectID: c.Args().First()})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// exportCmd creates the export command.
func exportCmd(db *sql.DB, cfg *config.Config, baseDir string) *cli.Command {
	return &cli.Command{
		Name:      "export",
		Usage:     "Copy a project's working copy to a destination .csv path",
		ArgsUsage: "<id>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "path", Aliases: []string{"p"}, Required: true, Usage: "Destination .csv path"},
			&cli.BoolFlag{Name: "original", Usage: "Export the pristine original instead of the working copy"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return outputError(errors.NewInvalidRequest("project ID is required"))
			}
			output, err := ops.Export(db, cfg, baseDir, ops.ExportInput{
				ProjectID: c.Args().First(),
				Path:      c.String("path"),
				Original:  c.Bool("original"),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// webCmd creates the web command.
func webCmd(db *sql.DB, cfg *config.Config, baseDir string) *cli.Command {
	return &cli.Command{
		Name:  "web",
		Usage: "Start the web UI and JSON API server",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "bind", Value: "127.0.0.1", Usage: "Bind address"},
			&cli.IntFlag{Name: "port", Value: 8787, Usage: "Port"},
		},
		Action: func(c *cli.Context) error {
			srv := web.NewServer(db, cfg, baseDir, Version, c.String("bind"), c.Int("port"))
			return web.Run(srv)
		},
	}
}

// Helper functions

// outputJSON marshals result to stdout as JSON.
func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError formats error for CLI.
func outputError(err error) error {
	if lErr, ok := err.(*errors.LoomError); ok {
		return cli.Exit(fmt.Sprintf("[%s] %s", lErr.Code, lErr.Message), 1)
	}
	return cli.Exit(err.Error(), 1)
}

// stdinHasData returns true if stdin has piped data (not a terminal).
func stdinHasData() bool {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) == 0
}
