package listing

import (
	"bytes"
	"encoding/json"

	"gopkg.in/yaml.v3"
)

// Fields is an ordered label -> value mapping. Portal labels are not known at
// compile time, so project info and unit attributes are kept in the order the
// page presents them.
type Fields struct {
	keys   []string
	values map[string]string
}

// NewFields creates an empty mapping.
func NewFields() *Fields {
	return &Fields{values: make(map[string]string)}
}

// Set stores value under label. Re-setting a label keeps its position.
func (f *Fields) Set(label, value string) {
	if f.values == nil {
		f.values = make(map[string]string)
	}
	if _, ok := f.values[label]; !ok {
		f.keys = append(f.keys, label)
	}
	f.values[label] = value
}

// Get returns the value for label.
func (f *Fields) Get(label string) (string, bool) {
	if f == nil {
		return "", false
	}
	v, ok := f.values[label]
	return v, ok
}

// Keys returns the labels in insertion order.
func (f *Fields) Keys() []string {
	if f == nil {
		return nil
	}
	out := make([]string, len(f.keys))
	copy(out, f.keys)
	return out
}

// Len returns the number of labels.
func (f *Fields) Len() int {
	if f == nil {
		return 0
	}
	return len(f.keys)
}

// MarshalJSON encodes the mapping as a JSON object preserving label order.
func (f *Fields) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range f.Keys() {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		vb, err := json.Marshal(f.values[k])
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

// MarshalYAML encodes the mapping as an ordered YAML mapping node.
func (f *Fields) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, k := range f.Keys() {
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: k},
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: f.values[k]},
		)
	}
	return node, nil
}
