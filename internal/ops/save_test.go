package ops

import (
	"testing"
	"time"

	"github.com/loomworks/loom/internal/errors"
)

func TestSave_SealsUnappliedEntries(t *testing.T) {
	env := newTestEnv(t)
	p := createTestProject(t, env)

	if _, err := Transform(env.db, TransformInput{ProjectID: p.ID, Operation: filterOp("age", ">", "28")}); err != nil {
		t.Fatalf("Transform failed: %v", err)
	}
	if _, err := Transform(env.db, TransformInput{ProjectID: p.ID, Operation: sortOp("age", true)}); err != nil {
		t.Fatalf("Transform failed: %v", err)
	}

	out, err := Save(env.db, SaveInput{ProjectID: p.ID, Message: "first save"})
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if out.Sealed != 2 {
		t.Errorf("Sealed = %d, want 2", out.Sealed)
	}
	if out.Checkpoint == nil || out.Checkpoint.Message != "first save" {
		t.Errorf("checkpoint = %+v", out.Checkpoint)
	}

	logs, err := Logs(env.db, LogsInput{ProjectID: p.ID})
	if err != nil {
		t.Fatalf("Logs failed: %v", err)
	}
	if logs.Unapplied != 0 {
		t.Errorf("unapplied after save = %d, want 0", logs.Unapplied)
	}
	for _, e := range logs.Entries {
		if e.CheckpointID == nil || *e.CheckpointID != out.Checkpoint.ID {
			t.Errorf("entry %d checkpoint = %v, want %s", e.Seq, e.CheckpointID, out.Checkpoint.ID)
		}
	}
}

func TestSave_ReplayMatchesWorkingCopy(t *testing.T) {
	env := newTestEnv(t)
	p := createTestProject(t, env)

	if _, err := Transform(env.db, TransformInput{ProjectID: p.ID, Operation: filterOp("city", "=", "New York")}); err != nil {
		t.Fatalf("Transform failed: %v", err)
	}
	if _, err := Transform(env.db, TransformInput{ProjectID: p.ID, Operation: renameOp(0, "person")}); err != nil {
		t.Fatalf("Transform failed: %v", err)
	}
	before := readFile(t, p.WorkingPath)

	// Save rebuilds the working copy from the original; replaying the log
	// must land on exactly the state direct application produced.
	out, err := Save(env.db, SaveInput{ProjectID: p.ID, Message: "verify"})
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if got := readFile(t, p.WorkingPath); got != before {
		t.Errorf("replayed working copy = %q, want %q", got, before)
	}
	if out.Preview.Columns[0] != "person" {
		t.Errorf("columns = %v, want renamed first column", out.Preview.Columns)
	}

	// The original is still pristine.
	if got := readFile(t, p.OriginalPath); got != sampleCSV {
		t.Error("original changed during save")
	}
}

func TestSave_SecondSaveKeepsSealedHistory(t *testing.T) {
	env := newTestEnv(t)
	p := createTestProject(t, env)

	if _, err := Transform(env.db, TransformInput{ProjectID: p.ID, Operation: filterOp("city", "=", "New York")}); err != nil {
		t.Fatalf("Transform failed: %v", err)
	}
	if _, err := Save(env.db, SaveInput{ProjectID: p.ID, Message: "first"}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	time.Sleep(2 * time.Millisecond)

	if _, err := Transform(env.db, TransformInput{ProjectID: p.ID, Operation: renameOp(0, "person")}); err != nil {
		t.Fatalf("Transform failed: %v", err)
	}
	before := readFile(t, p.WorkingPath)

	// The second save replays the sealed filter before the new rename;
	// folding the rename alone would resurrect the filtered-out rows.
	out, err := Save(env.db, SaveInput{ProjectID: p.ID, Message: "second"})
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if out.Sealed != 1 {
		t.Errorf("Sealed = %d, want 1", out.Sealed)
	}
	if out.Preview.RowCount != 2 {
		t.Errorf("RowCount = %d, want 2 (sealed filter must survive)", out.Preview.RowCount)
	}
	if out.Preview.Columns[0] != "person" {
		t.Errorf("columns = %v, want renamed first column", out.Preview.Columns)
	}
	if got := readFile(t, p.WorkingPath); got != before {
		t.Errorf("working copy after second save = %q, want %q", got, before)
	}
}

func TestSave_NothingToSave(t *testing.T) {
	env := newTestEnv(t)
	p := createTestProject(t, env)

	if _, err := Save(env.db, SaveInput{ProjectID: p.ID, Message: "empty"}); !errors.Is(err, errors.ErrConflict) {
		t.Errorf("err = %v, want CONFLICT", err)
	}

	// Saving twice in a row hits the same conflict.
	if _, err := Transform(env.db, TransformInput{ProjectID: p.ID, Operation: sortOp("age", true)}); err != nil {
		t.Fatalf("Transform failed: %v", err)
	}
	if _, err := Save(env.db, SaveInput{ProjectID: p.ID, Message: "one"}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if _, err := Save(env.db, SaveInput{ProjectID: p.ID, Message: "two"}); !errors.Is(err, errors.ErrConflict) {
		t.Errorf("second save = %v, want CONFLICT", err)
	}
}

func TestCheckpoints_NewestFirst(t *testing.T) {
	env := newTestEnv(t)
	p := createTestProject(t, env)

	var ids []string
	for _, msg := range []string{"one", "two"} {
		if _, err := Transform(env.db, TransformInput{ProjectID: p.ID, Operation: sortOp("age", true)}); err != nil {
			t.Fatalf("Transform failed: %v", err)
		}
		out, err := Save(env.db, SaveInput{ProjectID: p.ID, Message: msg})
		if err != nil {
			t.Fatalf("Save failed: %v", err)
		}
		ids = append(ids, out.Checkpoint.ID)
		// Millisecond timestamps: keep the two checkpoints distinct.
		time.Sleep(2 * time.Millisecond)
	}

	out, err := Checkpoints(env.db, CheckpointsInput{ProjectID: p.ID})
	if err != nil {
		t.Fatalf("Checkpoints failed: %v", err)
	}
	if out.Count != 2 {
		t.Fatalf("count = %d, want 2", out.Count)
	}
	if out.Checkpoints[0].ID != ids[1] || out.Checkpoints[1].ID != ids[0] {
		t.Errorf("order = [%s %s], want newest first", out.Checkpoints[0].ID, out.Checkpoints[1].ID)
	}
}
