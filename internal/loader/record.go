package loader

import (
	"strings"

	"gopkg.in/yaml.v3"
)

// Record is one raw entity as it appeared in its collection file.
type Record struct {
	Entity string
	Index  int
	Line   int
	Column int
	// ID is the record's id when it is a non-empty scalar.
	ID   string
	Node *yaml.Node
}

// Entry is one key/value pair of a mapping, in document order.
type Entry struct {
	Key   string
	Value *yaml.Node
}

func newRecord(entity string, index int, n *yaml.Node) *Record {
	r := &Record{Entity: entity, Index: index, Line: n.Line, Column: n.Column, Node: n}
	if v, ok := r.Get("id"); ok && v.Kind == yaml.ScalarNode && !IsNull(v) {
		r.ID = strings.TrimSpace(v.Value)
	}
	return r
}

// IsMapping reports whether the record is a mapping at all.
func (r *Record) IsMapping() bool {
	return r.Node != nil && r.Node.Kind == yaml.MappingNode
}

// Entries returns the record's fields in document order.
func (r *Record) Entries() []Entry {
	if !r.IsMapping() {
		return nil
	}
	return entries(r.Node)
}

// Get returns a top-level field value.
func (r *Record) Get(name string) (*yaml.Node, bool) {
	if !r.IsMapping() {
		return nil, false
	}
	return get(r.Node, name)
}

// Lookup resolves a dotted path such as "measurement.service_level_id".
func (r *Record) Lookup(path string) (*yaml.Node, bool) {
	n := r.Node
	for _, part := range strings.Split(path, ".") {
		if n == nil || n.Kind != yaml.MappingNode {
			return nil, false
		}
		v, ok := get(n, part)
		if !ok {
			return nil, false
		}
		n = v
	}
	return n, true
}

// Strings returns the string values held at path: one for a scalar, every
// scalar element for a list. Null and empty values are skipped.
func (r *Record) Strings(path string) []string {
	n, ok := r.Lookup(path)
	if !ok {
		return nil
	}
	return Strings(n)
}

// Strings flattens a scalar or sequence node to its non-empty scalar values.
func Strings(n *yaml.Node) []string {
	n = resolve(n)
	switch {
	case n == nil || IsNull(n):
		return nil
	case n.Kind == yaml.ScalarNode:
		if s := strings.TrimSpace(n.Value); s != "" {
			return []string{s}
		}
	case n.Kind == yaml.SequenceNode:
		var out []string
		for _, item := range n.Content {
			item = resolve(item)
			if item.Kind != yaml.ScalarNode || IsNull(item) {
				continue
			}
			if s := strings.TrimSpace(item.Value); s != "" {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// IsNull reports an explicit YAML null (~, null or an empty value).
func IsNull(n *yaml.Node) bool {
	n = resolve(n)
	return n == nil || (n.Kind == yaml.ScalarNode && n.Tag == "!!null")
}

// IsEmpty treats null, blank strings, empty mappings and lists holding only
// empty elements as empty.
func IsEmpty(n *yaml.Node) bool {
	n = resolve(n)
	if IsNull(n) {
		return true
	}
	switch n.Kind {
	case yaml.ScalarNode:
		return strings.TrimSpace(n.Value) == ""
	case yaml.SequenceNode:
		for _, item := range n.Content {
			if !IsEmpty(item) {
				return false
			}
		}
		return true
	case yaml.MappingNode:
		return len(entries(n)) == 0
	}
	return false
}

// KindName describes a node's shape for messages.
func KindName(n *yaml.Node) string {
	n = resolve(n)
	if n == nil {
		return "nothing"
	}
	switch n.Kind {
	case yaml.MappingNode:
		return "mapping"
	case yaml.SequenceNode:
		return "list"
	case yaml.ScalarNode:
		switch n.Tag {
		case "!!null":
			return "null"
		case "!!str", "!!timestamp":
			return "string"
		case "!!int", "!!float":
			return "number"
		case "!!bool":
			return "boolean"
		}
		return "scalar"
	}
	return "document"
}

// entries expands merge keys (<<: *anchor). Explicit keys override merged
// ones, and earlier merge sources override later ones. Repeated explicit keys
// are all returned.
func entries(n *yaml.Node) []Entry {
	out := make([]Entry, 0, len(n.Content)/2)
	var merged []Entry
	for i := 0; i+1 < len(n.Content); i += 2 {
		key, value := n.Content[i], n.Content[i+1]
		if src, ok := mergeSources(key, value); ok {
			merged = append(merged, src...)
			continue
		}
		out = append(out, Entry{Key: key.Value, Value: resolve(value)})
	}
	if len(merged) == 0 {
		return out
	}
	seen := make(map[string]bool, len(out)+len(merged))
	for _, e := range out {
		seen[e.Key] = true
	}
	for _, e := range merged {
		if !seen[e.Key] {
			seen[e.Key] = true
			out = append(out, e)
		}
	}
	return out
}

// mergeSources returns the entries a merge key pulls in. A merge key whose
// value is not a mapping or a list of mappings is left as an ordinary key.
func mergeSources(key, value *yaml.Node) ([]Entry, bool) {
	if key.Kind != yaml.ScalarNode || key.Value != "<<" || (key.Tag != "" && key.Tag != "!!merge") {
		return nil, false
	}
	value = resolve(value)
	switch value.Kind {
	case yaml.MappingNode:
		return entries(value), true
	case yaml.SequenceNode:
		var out []Entry
		for _, item := range value.Content {
			item = resolve(item)
			if item.Kind != yaml.MappingNode {
				return nil, false
			}
			out = append(out, entries(item)...)
		}
		return out, true
	}
	return nil, false
}

// Entries lists a mapping node's pairs in document order, merged keys last.
func Entries(n *yaml.Node) []Entry {
	n = resolve(n)
	if n == nil || n.Kind != yaml.MappingNode {
		return nil
	}
	return entries(n)
}

func get(n *yaml.Node, key string) (*yaml.Node, bool) {
	for _, e := range entries(n) {
		if e.Key == key {
			return e.Value, true
		}
	}
	return nil, false
}

// resolve follows alias nodes to their anchors.
func resolve(n *yaml.Node) *yaml.Node {
	for n != nil && n.Kind == yaml.AliasNode {
		n = n.Alias
	}
	return n
}
