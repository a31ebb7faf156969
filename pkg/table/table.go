package table

// Table is the accumulated dataset: rows in arrival order and the union of
// their columns in order of first appearance.
type Table struct {
	columns []string
	seen    map[string]struct{}
	rows    []*Record
}

// New creates an empty table.
func New() *Table {
	return &Table{
		seen: make(map[string]struct{}),
	}
}

// Append adds records at the end of the table, extending the column set
// with any field not seen before.
func (t *Table) Append(records ...*Record) {
	for _, rec := range records {
		for _, key := range rec.keys {
			t.addColumn(key)
		}
		t.rows = append(t.rows, rec)
	}
}

// AddColumn derives a column from every row. fn sees one row at a time;
// a nil result marks the value as absent.
func (t *Table) AddColumn(name string, fn func(*Record) any) {
	t.addColumn(name)
	for _, rec := range t.rows {
		rec.Set(name, fn(rec))
	}
}

func (t *Table) addColumn(name string) {
	if _, ok := t.seen[name]; ok {
		return
	}
	t.seen[name] = struct{}{}
	t.columns = append(t.columns, name)
}

// Columns returns the column names.
func (t *Table) Columns() []string {
	out := make([]string, len(t.columns))
	copy(out, t.columns)
	return out
}

// Rows returns the rows. The slice is shared with the table.
func (t *Table) Rows() []*Record {
	return t.rows
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.rows)
}
