// Package ops implements the project-level operations: upload, direct
// transformation, and the three replay entry points (save, revert,
// undo). Each operation is a function over the database handle and
// config, with typed input and output structs, mirroring the boundary
// surfaces (CLI, web, MCP) one-to-one.
package ops

import (
	"sync"
	"time"

	"github.com/loomworks/loom/internal/storage"
	"github.com/loomworks/loom/internal/table"
)

// now returns the timestamp recorded on log entries, checkpoints, and
// project modification times. Milliseconds keep same-second writes
// distinguishable; insertion order still breaks exact ties.
func now() int64 {
	return time.Now().UnixMilli()
}

// projectLocks serializes mutating operations per project. The design
// is single-writer-per-project: the lock is held across the whole
// load, transform, persist, log sequence so two concurrent requests
// cannot interleave file and log writes.
var projectLocks = struct {
	mu sync.Mutex
	m  map[string]*sync.Mutex
}{m: make(map[string]*sync.Mutex)}

// lockProject acquires the per-project mutex and returns the unlock.
func lockProject(id string) func() {
	projectLocks.mu.Lock()
	l, ok := projectLocks.m[id]
	if !ok {
		l = &sync.Mutex{}
		projectLocks.m[id] = l
	}
	projectLocks.mu.Unlock()

	l.Lock()
	return l.Unlock
}

// loadTable reads and decodes the CSV file at path.
func loadTable(path string) (*table.Table, error) {
	data, err := storage.ReadBytes(path)
	if err != nil {
		return nil, err
	}
	return table.Decode(data)
}

// persistTable encodes the table and atomically replaces the file at path.
func persistTable(path string, t *table.Table) error {
	data, err := table.Encode(t)
	if err != nil {
		return err
	}
	return storage.WriteBytes(path, data)
}
