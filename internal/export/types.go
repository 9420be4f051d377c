// Copyright (c) 2025 Netskope, Inc. All rights reserved.

package export

// Row is one record returned by a Resource Graph query. Columns keep their
// insertion order; the column set may differ between rows of the same result
// set because the upstream API omits optional and nested fields inconsistently.
type Row struct {
	cols   []string
	values map[string]any
}

// Set adds or replaces a column value. First-time columns are appended to the
// column order.
func (r *Row) Set(col string, v any) {
	if r.values == nil {
		r.values = make(map[string]any)
	}
	if _, ok := r.values[col]; !ok {
		r.cols = append(r.cols, col)
	}
	r.values[col] = v
}

// Columns returns the column names in insertion order.
func (r *Row) Columns() []string {
	return r.cols
}

// Value returns the value for a column and whether the column is present.
func (r *Row) Value(col string) (any, bool) {
	v, ok := r.values[col]
	return v, ok
}

// Len returns the number of columns.
func (r *Row) Len() int {
	return len(r.cols)
}

// ResultSet is the ordered output of one query, bounded by the row cap that
// was passed to the query call.
type ResultSet struct {
	Label    string // human label for logs ("Secure Scores")
	BaseName string // output file base name ("SecureScores")
	Rows     []Row
	Cap      int // row cap requested from the service, 0 if uncapped
}

// Empty reports whether the result set has no rows.
func (rs ResultSet) Empty() bool {
	return len(rs.Rows) == 0
}

// Truncated reports whether the result set hit the row cap. A capped result
// set is known-incomplete; the service returns at most Cap rows per query and
// no further pagination is attempted.
func (rs ResultSet) Truncated() bool {
	return rs.Cap > 0 && len(rs.Rows) == rs.Cap
}
