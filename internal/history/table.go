package history

// Row is one aggregation cycle's output. Values maps display column to a
// formatted percentage; columns without a value are simply absent.
type Row struct {
	Timestamp string            `json:"timestamp"` // HH:MM:SS exchange-local
	Values    map[string]string `json:"values"`
}

func (r Row) clone() Row {
	values := make(map[string]string, len(r.Values))
	for k, v := range r.Values {
		values[k] = v
	}
	return Row{Timestamp: r.Timestamp, Values: values}
}

// Table is the append-only history of one trading day. Storage order is
// insertion order; Window exposes the newest rows first.
type Table struct {
	date    string
	columns []string
	rows    []Row
}

// NewTable creates an empty table for date with a fixed column set.
func NewTable(date string, columns []string) *Table {
	cols := make([]string, len(columns))
	copy(cols, columns)
	return &Table{date: date, columns: cols}
}

// Append stores a copy of row.
func (t *Table) Append(row Row) {
	t.rows = append(t.rows, row.clone())
}

// Window returns at most n rows, newest first. Storage order is untouched.
func (t *Table) Window(n int) []Row {
	if n > len(t.rows) {
		n = len(t.rows)
	}
	if n <= 0 {
		return nil
	}
	out := make([]Row, 0, n)
	for i := len(t.rows) - 1; i >= len(t.rows)-n; i-- {
		out = append(out, t.rows[i].clone())
	}
	return out
}

// Rows returns every row in insertion order.
func (t *Table) Rows() []Row {
	out := make([]Row, len(t.rows))
	for i, r := range t.rows {
		out[i] = r.clone()
	}
	return out
}

func (t *Table) Len() int { return len(t.rows) }

func (t *Table) Date() string { return t.date }

func (t *Table) Columns() []string {
	out := make([]string, len(t.columns))
	copy(out, t.columns)
	return out
}
