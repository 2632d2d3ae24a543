package db

import (
	"database/sql"

	"github.com/loomworks/loom/internal/errors"
	"github.com/loomworks/loom/internal/project"
)

// --- projects ---

// InsertProject stores a new project row.
func InsertProject(db *sql.DB, p *project.Project) error {
	query := `
		INSERT INTO projects (id, name, description, original_path, working_path, created_at, last_modified)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err := db.Exec(query, p.ID, p.Name, toNullString(p.Description),
		p.OriginalPath, p.WorkingPath, p.CreatedAt, p.LastModified)
	if err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// GetProject retrieves a project by id.
func GetProject(db *sql.DB, id string) (*project.Project, error) {
	query := `
		SELECT id, name, description, original_path, working_path, created_at, last_modified
		FROM projects
		WHERE id = ?
	`
	var p project.Project
	var desc sql.NullString
	err := db.QueryRow(query, id).Scan(&p.ID, &p.Name, &desc,
		&p.OriginalPath, &p.WorkingPath, &p.CreatedAt, &p.LastModified)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound("project", id)
	}
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	p.Description = desc.String
	return &p, nil
}

// RecentProjects returns the most recently modified projects.
func RecentProjects(db *sql.DB, limit int) ([]project.Project, error) {
	query := `
		SELECT id, name, description, original_path, working_path, created_at, last_modified
		FROM projects
		ORDER BY last_modified DESC, id DESC
		LIMIT ?
	`
	rows, err := db.Query(query, limit)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	var out []project.Project
	for rows.Next() {
		var p project.Project
		var desc sql.NullString
		if err := rows.Scan(&p.ID, &p.Name, &desc,
			&p.OriginalPath, &p.WorkingPath, &p.CreatedAt, &p.LastModified); err != nil {
			return nil, errors.NewInternal(err)
		}
		p.Description = desc.String
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}
	return out, nil
}

// TouchProject bumps a project's last_modified timestamp. Every write
// path that changes the working copy must call this, or recency-ordered
// listings silently go stale.
func TouchProject(db *sql.DB, id string, ts int64) error {
	_, err := db.Exec(`UPDATE projects SET last_modified = ? WHERE id = ?`, ts, id)
	if err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// DeleteProject removes a project and everything it owns in one
// transaction, in dependency order: log entries, then checkpoints, then
// the project row. File removal is the caller's job.
func DeleteProject(db *sql.DB, id string) error {
	tx, err := db.Begin()
	if err != nil {
		return errors.NewInternal(err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM logs WHERE project_id = ?`, id); err != nil {
		return errors.NewInternal(err)
	}
	if _, err := tx.Exec(`DELETE FROM checkpoints WHERE project_id = ?`, id); err != nil {
		return errors.NewInternal(err)
	}
	res, err := tx.Exec(`DELETE FROM projects WHERE id = ?`, id)
	if err != nil {
		return errors.NewInternal(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.NewInternal(err)
	}
	if n == 0 {
		return errors.NewNotFound("project", id)
	}
	if err := tx.Commit(); err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// --- change log ---

// InsertLog appends one unapplied log entry and returns its sequence id.
func InsertLog(db *sql.DB, e *project.LogEntry) (int64, error) {
	query := `
		INSERT INTO logs (project_id, action_type, action_details, created_at, checkpoint_id, applied)
		VALUES (?, ?, ?, ?, NULL, 0)
	`
	res, err := db.Exec(query, e.ProjectID, e.Kind, string(e.Params), e.CreatedAt)
	if err != nil {
		return 0, errors.NewInternal(err)
	}
	seq, err := res.LastInsertId()
	if err != nil {
		return 0, errors.NewInternal(err)
	}
	return seq, nil
}

const logColumns = `seq, project_id, action_type, action_details, created_at, checkpoint_id, applied`

// UnappliedLogs returns the project's unapplied entries in replay order:
// creation time ascending, insertion order as the tiebreak.
func UnappliedLogs(db *sql.DB, projectID string) ([]project.LogEntry, error) {
	query := `
		SELECT ` + logColumns + `
		FROM logs
		WHERE project_id = ? AND applied = 0
		ORDER BY created_at ASC, seq ASC
	`
	return queryLogs(db, query, projectID)
}

// AppliedLogsThrough returns the applied entries belonging to any
// checkpoint created at or before the given timestamp, in replay order.
func AppliedLogsThrough(db *sql.DB, projectID string, checkpointCreatedAt int64) ([]project.LogEntry, error) {
	query := `
		SELECT ` + logColumns + `
		FROM logs
		WHERE project_id = ? AND applied = 1
		  AND checkpoint_id IN (
		    SELECT id FROM checkpoints WHERE project_id = ? AND created_at <= ?
		  )
		ORDER BY created_at ASC, seq ASC
	`
	return queryLogs(db, query, projectID, projectID, checkpointCreatedAt)
}

// ListLogs returns every entry for a project in replay order.
func ListLogs(db *sql.DB, projectID string) ([]project.LogEntry, error) {
	query := `
		SELECT ` + logColumns + `
		FROM logs
		WHERE project_id = ?
		ORDER BY created_at ASC, seq ASC
	`
	return queryLogs(db, query, projectID)
}

// LatestUnappliedLog returns the most recently created unapplied entry,
// with the highest sequence id breaking timestamp ties, or nil if none.
func LatestUnappliedLog(db *sql.DB, projectID string) (*project.LogEntry, error) {
	query := `
		SELECT ` + logColumns + `
		FROM logs
		WHERE project_id = ? AND applied = 0
		ORDER BY created_at DESC, seq DESC
		LIMIT 1
	`
	entries, err := queryLogs(db, query, projectID)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, nil
	}
	return &entries[0], nil
}

// DeleteLog removes a single entry by sequence id.
func DeleteLog(db *sql.DB, seq int64) error {
	if _, err := db.Exec(`DELETE FROM logs WHERE seq = ?`, seq); err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// DeleteLogsAfter removes every entry, applied or not, created after
// the given timestamp. Used by the destructive revert variant.
func DeleteLogsAfter(db *sql.DB, projectID string, ts int64) (int64, error) {
	res, err := db.Exec(`DELETE FROM logs WHERE project_id = ? AND created_at > ?`, projectID, ts)
	if err != nil {
		return 0, errors.NewInternal(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, errors.NewInternal(err)
	}
	return n, nil
}

// CountUnappliedLogs counts the project's unapplied entries.
func CountUnappliedLogs(db *sql.DB, projectID string) (int, error) {
	var n int
	err := db.QueryRow(`SELECT COUNT(*) FROM logs WHERE project_id = ? AND applied = 0`, projectID).Scan(&n)
	if err != nil {
		return 0, errors.NewInternal(err)
	}
	return n, nil
}

func queryLogs(db *sql.DB, query string, args ...any) ([]project.LogEntry, error) {
	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	var out []project.LogEntry
	for rows.Next() {
		var e project.LogEntry
		var params string
		var checkpointID sql.NullString
		var applied int
		if err := rows.Scan(&e.Seq, &e.ProjectID, &e.Kind, &params,
			&e.CreatedAt, &checkpointID, &applied); err != nil {
			return nil, errors.NewInternal(err)
		}
		e.Params = []byte(params)
		e.Applied = applied != 0
		if checkpointID.Valid {
			id := checkpointID.String
			e.CheckpointID = &id
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}
	return out, nil
}

// --- checkpoints ---

// CreateCheckpoint inserts a checkpoint and, in the same transaction,
// seals every currently-unapplied log entry of the project under it.
// Returns the number of entries sealed.
func CreateCheckpoint(db *sql.DB, cp *project.Checkpoint) (int, error) {
	tx, err := db.Begin()
	if err != nil {
		return 0, errors.NewInternal(err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`INSERT INTO checkpoints (id, project_id, message, created_at) VALUES (?, ?, ?, ?)`,
		cp.ID, cp.ProjectID, cp.Message, cp.CreatedAt)
	if err != nil {
		return 0, errors.NewInternal(err)
	}

	res, err := tx.Exec(`UPDATE logs SET applied = 1, checkpoint_id = ? WHERE project_id = ? AND applied = 0`,
		cp.ID, cp.ProjectID)
	if err != nil {
		return 0, errors.NewInternal(err)
	}
	sealed, err := res.RowsAffected()
	if err != nil {
		return 0, errors.NewInternal(err)
	}

	if err := tx.Commit(); err != nil {
		return 0, errors.NewInternal(err)
	}
	return int(sealed), nil
}

// GetCheckpoint retrieves a checkpoint scoped to a project.
func GetCheckpoint(db *sql.DB, projectID, id string) (*project.Checkpoint, error) {
	query := `
		SELECT id, project_id, message, created_at
		FROM checkpoints
		WHERE id = ? AND project_id = ?
	`
	var cp project.Checkpoint
	err := db.QueryRow(query, id, projectID).Scan(&cp.ID, &cp.ProjectID, &cp.Message, &cp.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound("checkpoint", id)
	}
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	return &cp, nil
}

// ListCheckpoints returns a project's checkpoints, newest first.
func ListCheckpoints(db *sql.DB, projectID string) ([]project.Checkpoint, error) {
	query := `
		SELECT id, project_id, message, created_at
		FROM checkpoints
		WHERE project_id = ?
		ORDER BY created_at DESC, id DESC
	`
	rows, err := db.Query(query, projectID)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	var out []project.Checkpoint
	for rows.Next() {
		var cp project.Checkpoint
		if err := rows.Scan(&cp.ID, &cp.ProjectID, &cp.Message, &cp.CreatedAt); err != nil {
			return nil, errors.NewInternal(err)
		}
		out = append(out, cp)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}
	return out, nil
}

func toNullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
