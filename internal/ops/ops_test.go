package ops

import (
	"database/sql"
	"os"
	"testing"

	"github.com/loomworks/loom/internal/config"
	"github.com/loomworks/loom/internal/db"
	"github.com/loomworks/loom/internal/project"
	"github.com/loomworks/loom/internal/transform"
)

const sampleCSV = `name,age,city
Alice,30,New York
Bob,25,Los Angeles
Charlie,35,New York
`

type testEnv struct {
	db      *sql.DB
	cfg     *config.Config
	baseDir string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	baseDir := t.TempDir()
	database, err := db.Init(baseDir)
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return &testEnv{db: database, cfg: config.DefaultConfig(), baseDir: baseDir}
}

// createTestProject uploads sampleCSV and returns the stored project.
func createTestProject(t *testing.T, env *testEnv) *project.Project {
	t.Helper()
	out, err := Create(env.db, env.cfg, env.baseDir, CreateInput{
		Name:     "people",
		Filename: "people.csv",
		Data:     []byte(sampleCSV),
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	return out.Project
}

func filterOp(column, condition, value string) *transform.Operation {
	return &transform.Operation{
		Kind:   transform.KindFilter,
		Filter: &transform.FilterParams{Column: column, Condition: condition, Value: value},
	}
}

func sortOp(column string, ascending bool) *transform.Operation {
	return &transform.Operation{
		Kind: transform.KindSort,
		Sort: &transform.SortParams{Column: column, Ascending: ascending},
	}
}

func renameOp(colIndex int, newName string) *transform.Operation {
	return &transform.Operation{
		Kind:   transform.KindRenameCol,
		Rename: &transform.RenameColParams{ColIndex: colIndex, NewName: newName},
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile(%s) failed: %v", path, err)
	}
	return string(data)
}
