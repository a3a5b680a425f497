// Package hydrate reassembles object graphs from flat multi-entity query
// rows. It is a pure in-memory pass over column names and row values, with no
// database dependency: the SQL layer produces the rows, this package splits
// them at declared column boundaries and groups them back into roots with
// their related entities.
package hydrate

import (
	"fmt"
	"time"
)

// Values is one entity block's slice of a flat row.
type Values struct {
	columns []string
	vals    []any
}

// Get returns the value of the named column within the block, nil when the
// column is absent or NULL.
func (v Values) Get(name string) any {
	for i, c := range v.columns {
		if c == name {
			return v.vals[i]
		}
	}
	return nil
}

// AllNull reports whether every column of the block is NULL, as produced by
// an unmatched LEFT JOIN.
func (v Values) AllNull() bool {
	for _, val := range v.vals {
		if val != nil {
			return false
		}
	}
	return true
}

// Int reads an integer column, tolerating the driver's integer widths.
func (v Values) Int(name string) int {
	switch n := v.Get(name).(type) {
	case int:
		return n
	case int32:
		return int(n)
	case int64:
		return int(n)
	default:
		return 0
	}
}

// Float reads a numeric column.
func (v Values) Float(name string) float64 {
	switch n := v.Get(name).(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	default:
		return 0
	}
}

// String reads a text column, empty when NULL.
func (v Values) String(name string) string {
	if s, ok := v.Get(name).(string); ok {
		return s
	}
	return ""
}

// Bool reads a boolean column, false when NULL.
func (v Values) Bool(name string) bool {
	if b, ok := v.Get(name).(bool); ok {
		return b
	}
	return false
}

// Time reads a timestamp column, zero when NULL.
func (v Values) Time(name string) time.Time {
	if t, ok := v.Get(name).(time.Time); ok {
		return t
	}
	return time.Time{}
}

// RowSplitter divides flat rows into entity blocks. Each block after the
// first begins at its declared split column, conventionally the related
// entity's identifier column; blocks are declared strictly left to right.
type RowSplitter struct {
	columns []string
	starts  []int
}

// NewRowSplitter resolves the split columns against the statement's column
// list. A split column that cannot be found to the right of the previous
// block is a caller configuration error.
func NewRowSplitter(columns []string, splitOn ...string) (*RowSplitter, error) {
	if len(columns) == 0 {
		return nil, fmt.Errorf("hydrate: no columns")
	}
	starts := make([]int, 0, len(splitOn)+1)
	starts = append(starts, 0)
	from := 1
	for _, split := range splitOn {
		idx := -1
		for i := from; i < len(columns); i++ {
			if columns[i] == split {
				idx = i
				break
			}
		}
		if idx < 0 {
			return nil, fmt.Errorf("hydrate: split column %q not found after column %d", split, from-1)
		}
		starts = append(starts, idx)
		from = idx + 1
	}
	return &RowSplitter{columns: columns, starts: starts}, nil
}

// Blocks returns the number of entity blocks per row, root included.
func (s *RowSplitter) Blocks() int {
	return len(s.starts)
}

// Split slices one row into its entity blocks in declared order.
func (s *RowSplitter) Split(row []any) ([]Values, error) {
	if len(row) != len(s.columns) {
		return nil, fmt.Errorf("hydrate: row has %d values, statement has %d columns", len(row), len(s.columns))
	}
	blocks := make([]Values, len(s.starts))
	for i, start := range s.starts {
		end := len(row)
		if i+1 < len(s.starts) {
			end = s.starts[i+1]
		}
		blocks[i] = Values{columns: s.columns[start:end], vals: row[start:end]}
	}
	return blocks, nil
}

// Assembler groups split rows into one root instance per contiguous run of
// rows sharing the same root key, attaching each row's related blocks. The
// result set must be ordered by the root identifier; an all-NULL related
// block is skipped so the corresponding reference stays absent.
type Assembler[R any] struct {
	Splitter *RowSplitter

	// BuildRoot materializes a root from its block, once per distinct root key.
	BuildRoot func(Values) (R, error)

	// RootKey identifies the root of a row, conventionally its id column value.
	RootKey func(Values) any

	// Attach wires one non-NULL related block (1-based index into the declared
	// split order) onto the current root. One-to-one references should only be
	// set once; one-to-many collections append per row.
	Attach func(root R, block int, vals Values) error
}

// Assemble runs the grouping pass over all rows in order.
func (a *Assembler[R]) Assemble(rows [][]any) ([]R, error) {
	var (
		result  []R
		current R
		lastKey any
		started bool
	)
	for _, row := range rows {
		blocks, err := a.Splitter.Split(row)
		if err != nil {
			return nil, err
		}
		key := a.RootKey(blocks[0])
		if !started || key != lastKey {
			current, err = a.BuildRoot(blocks[0])
			if err != nil {
				return nil, err
			}
			result = append(result, current)
			lastKey = key
			started = true
		}
		for i := 1; i < len(blocks); i++ {
			if blocks[i].AllNull() {
				continue
			}
			if err := a.Attach(current, i, blocks[i]); err != nil {
				return nil, err
			}
		}
	}
	return result, nil
}
