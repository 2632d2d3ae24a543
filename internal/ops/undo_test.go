package ops

import (
	"testing"
)

func TestUndo_RemovesLatestEntry(t *testing.T) {
	env := newTestEnv(t)
	p := createTestProject(t, env)

	if _, err := Transform(env.db, TransformInput{ProjectID: p.ID, Operation: filterOp("city", "=", "New York")}); err != nil {
		t.Fatalf("Transform failed: %v", err)
	}
	afterFirst := readFile(t, p.WorkingPath)
	pause()
	if _, err := Transform(env.db, TransformInput{ProjectID: p.ID, Operation: sortOp("age", false)}); err != nil {
		t.Fatalf("Transform failed: %v", err)
	}

	out, err := Undo(env.db, UndoInput{ProjectID: p.ID})
	if err != nil {
		t.Fatalf("Undo failed: %v", err)
	}
	if out.Removed == nil || out.Removed.Kind != "sort" {
		t.Errorf("Removed = %+v, want the sort entry", out.Removed)
	}
	if out.Remaining != 1 {
		t.Errorf("Remaining = %d, want 1", out.Remaining)
	}
	if got := readFile(t, p.WorkingPath); got != afterFirst {
		t.Errorf("working copy = %q, want pre-sort state", got)
	}
}

func TestUndo_NothingToUndo(t *testing.T) {
	env := newTestEnv(t)
	p := createTestProject(t, env)
	before := readFile(t, p.WorkingPath)

	out, err := Undo(env.db, UndoInput{ProjectID: p.ID})
	if err != nil {
		t.Fatalf("Undo failed: %v", err)
	}
	if out.Removed != nil {
		t.Errorf("Removed = %+v, want nil", out.Removed)
	}
	if out.Remaining != 0 {
		t.Errorf("Remaining = %d, want 0", out.Remaining)
	}
	if got := readFile(t, p.WorkingPath); got != before {
		t.Error("working copy changed on empty undo")
	}
}

func TestUndo_StopsAtCheckpoint(t *testing.T) {
	env := newTestEnv(t)
	p := createTestProject(t, env)

	if _, err := Transform(env.db, TransformInput{ProjectID: p.ID, Operation: filterOp("city", "=", "New York")}); err != nil {
		t.Fatalf("Transform failed: %v", err)
	}
	if _, err := Save(env.db, SaveInput{ProjectID: p.ID, Message: "sealed"}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	sealed := readFile(t, p.WorkingPath)
	pause()
	if _, err := Transform(env.db, TransformInput{ProjectID: p.ID, Operation: sortOp("age", false)}); err != nil {
		t.Fatalf("Transform failed: %v", err)
	}

	// First undo removes the unapplied sort and lands on the checkpoint.
	out, err := Undo(env.db, UndoInput{ProjectID: p.ID})
	if err != nil {
		t.Fatalf("Undo failed: %v", err)
	}
	if out.Removed == nil || out.Removed.Kind != "sort" {
		t.Errorf("Removed = %+v, want the sort entry", out.Removed)
	}
	if got := readFile(t, p.WorkingPath); got != sealed {
		t.Errorf("working copy = %q, want checkpoint state", got)
	}

	// Sealed entries are not undoable: the second undo is a no-op.
	out, err = Undo(env.db, UndoInput{ProjectID: p.ID})
	if err != nil {
		t.Fatalf("Undo failed: %v", err)
	}
	if out.Removed != nil {
		t.Errorf("Removed = %+v, want nil past the checkpoint", out.Removed)
	}
	logs, err := Logs(env.db, LogsInput{ProjectID: p.ID})
	if err != nil {
		t.Fatalf("Logs failed: %v", err)
	}
	if logs.Count != 1 || !logs.Entries[0].Applied {
		t.Errorf("log = %+v, want single sealed entry", logs.Entries)
	}
}

func TestUndo_RebuildsOnSealedHistory(t *testing.T) {
	env := newTestEnv(t)
	p := createTestProject(t, env)

	if _, err := Transform(env.db, TransformInput{ProjectID: p.ID, Operation: filterOp("city", "=", "New York")}); err != nil {
		t.Fatalf("Transform failed: %v", err)
	}
	if _, err := Save(env.db, SaveInput{ProjectID: p.ID, Message: "base"}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	pause()
	if _, err := Transform(env.db, TransformInput{ProjectID: p.ID, Operation: renameOp(0, "person")}); err != nil {
		t.Fatalf("Transform failed: %v", err)
	}
	afterRename := readFile(t, p.WorkingPath)
	pause()
	if _, err := Transform(env.db, TransformInput{ProjectID: p.ID, Operation: sortOp("age", false)}); err != nil {
		t.Fatalf("Transform failed: %v", err)
	}

	// Undo the sort: the rebuild replays the sealed filter plus the
	// remaining unapplied rename, in recorded order.
	out, err := Undo(env.db, UndoInput{ProjectID: p.ID})
	if err != nil {
		t.Fatalf("Undo failed: %v", err)
	}
	if out.Removed == nil || out.Removed.Kind != "sort" {
		t.Errorf("Removed = %+v, want the sort entry", out.Removed)
	}
	if out.Remaining != 1 {
		t.Errorf("Remaining = %d, want 1", out.Remaining)
	}
	if got := readFile(t, p.WorkingPath); got != afterRename {
		t.Errorf("working copy = %q, want filter+rename state %q", got, afterRename)
	}
	if out.Preview.Columns[0] != "person" {
		t.Errorf("columns = %v, want renamed first column", out.Preview.Columns)
	}
}
