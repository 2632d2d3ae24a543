package ops

import (
	"github.com/loomworks/loom/internal/project"
	"github.com/loomworks/loom/internal/table"
	"github.com/loomworks/loom/internal/transform"
)

// replay folds an ordered sequence of log entries onto a base table.
// The fold is strictly sequential: operations do not commute (renaming
// a column then filtering by the old name must fail the same way it
// would have failed live), so callers must pass entries in the exact
// order they were recorded — creation time ascending, sequence id as
// the tiebreak. Save, revert, and undo all reconstruct state through
// this one function.
func replay(base *table.Table, entries []project.LogEntry) (*table.Table, error) {
	t := base
	for i := range entries {
		op, err := transform.Unmarshal(entries[i].Params)
		if err != nil {
			return nil, err
		}
		t, err = transform.Apply(t, op)
		if err != nil {
			return nil, err
		}
	}
	return t, nil
}
