package listing

import (
	"bytes"
	"encoding/json"

	"gopkg.in/yaml.v3"
)

// Row is one output record: an ordered set of columns whose values are
// strings, string lists or unit lists.
type Row struct {
	cols   []string
	values map[string]any
}

// NewRow creates an empty row.
func NewRow() *Row {
	return &Row{values: make(map[string]any)}
}

// Set stores a column value. Re-setting a column keeps its position.
func (r *Row) Set(col string, v any) {
	if _, ok := r.values[col]; !ok {
		r.cols = append(r.cols, col)
	}
	r.values[col] = v
}

// Get returns a column value.
func (r *Row) Get(col string) (any, bool) {
	v, ok := r.values[col]
	return v, ok
}

// String returns a column value when it is a plain string.
func (r *Row) String(col string) string {
	s, _ := r.values[col].(string)
	return s
}

// Has reports whether the column is set.
func (r *Row) Has(col string) bool {
	_, ok := r.values[col]
	return ok
}

// Columns returns the column names in order.
func (r *Row) Columns() []string {
	out := make([]string, len(r.cols))
	copy(out, r.cols)
	return out
}

// MarshalJSON encodes the row as an ordered JSON object.
func (r *Row) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, c := range r.cols {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(c)
		if err != nil {
			return nil, err
		}
		vb, err := json.Marshal(r.values[c])
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// MarshalYAML encodes the row as an ordered YAML mapping.
func (r *Row) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, c := range r.cols {
		var val yaml.Node
		if err := val.Encode(r.values[c]); err != nil {
			return nil, err
		}
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: c},
			&val,
		)
	}
	return node, nil
}
