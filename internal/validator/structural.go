package validator

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ajitpratap0/adlint/internal/diag"
	"github.com/ajitpratap0/adlint/internal/loader"
	"github.com/ajitpratap0/adlint/internal/schema"
)

// checkStructure validates every record of every collection against its
// entity type. It never stops early.
func checkStructure(snap *loader.Snapshot, reg *schema.Registry) []diag.Diagnostic {
	var out []diag.Diagnostic
	for _, name := range reg.Order() {
		e := reg.MustEntity(name)
		c := snap.Collection(name)
		for _, key := range c.ExtraKeys {
			pos := diag.FileLevel(name)
			pos.Field = key
			out = append(out, diag.Errorf(diag.CodeUnknownField, pos,
				"unknown top-level key %q in %s (expected only %q)", key, e.FileName, e.CollectionKey))
		}
		for _, rec := range c.Records {
			out = append(out, checkRecord(e, rec)...)
		}
	}
	return out
}

func checkRecord(e *schema.EntityType, rec *loader.Record) []diag.Diagnostic {
	if !rec.IsMapping() {
		return []diag.Diagnostic{diag.Errorf(diag.CodeWrongType, diag.At(e.Name, rec.Index, ""),
			"%s entry must be a mapping, got %s", e.Name, loader.KindName(rec.Node))}
	}
	c := &recordChecker{entity: e.Name, rec: rec}
	c.fields("", e.Fields, rec.Node)
	if id, ok := rec.Get("id"); ok && id.Tag == "!!str" && rec.ID != "" && !e.ValidID(rec.ID) {
		c.errorf(diag.CodeBadIDFormat, "id", "id %q has invalid format (expected %s)", rec.ID, e.IDPattern)
	}
	return c.out
}

type recordChecker struct {
	entity string
	rec    *loader.Record
	out    []diag.Diagnostic
}

func (c *recordChecker) pos(field string) diag.Position {
	p := diag.At(c.entity, c.rec.Index, field)
	p.EntityID = c.rec.ID
	return p
}

func (c *recordChecker) errorf(code diag.Code, field, format string, args ...any) {
	c.out = append(c.out, diag.Errorf(code, c.pos(field), format, args...))
}

// fields checks the declared fields of a mapping, then rejects undeclared and
// repeated keys. The first occurrence of a repeated key is the one checked.
func (c *recordChecker) fields(prefix string, declared []schema.Field, n *yaml.Node) {
	entries := loader.Entries(n)
	known := make(map[string]bool, len(declared))
	for _, f := range declared {
		known[f.Name] = true
		var value *yaml.Node
		for _, entry := range entries {
			if entry.Key == f.Name {
				value = entry.Value
				break
			}
		}
		c.field(join(prefix, f.Name), f, value)
	}
	seen := make(map[string]bool, len(entries))
	for _, entry := range entries {
		switch {
		case seen[entry.Key]:
			c.errorf(diag.CodeWrongType, join(prefix, entry.Key), "field %q appears more than once", entry.Key)
		case !known[entry.Key]:
			c.errorf(diag.CodeUnknownField, join(prefix, entry.Key), "unknown field %q", entry.Key)
		}
		seen[entry.Key] = true
	}
}

func (c *recordChecker) field(path string, f schema.Field, n *yaml.Node) {
	if loader.IsNull(n) {
		if f.Required {
			c.errorf(diag.CodeRequiredMissing, path, "required field %q is missing", path)
		}
		return
	}

	switch f.Kind {
	case schema.KindScalar, schema.KindReference:
		if c.scalar(path, n) && f.Required && loader.IsEmpty(n) {
			c.errorf(diag.CodeRequiredMissing, path, "required field %q is empty", path)
		}
	case schema.KindEnum:
		if !c.scalar(path, n) {
			return
		}
		v := strings.TrimSpace(n.Value)
		if v == "" {
			if f.Required {
				c.errorf(diag.CodeRequiredMissing, path, "required field %q is empty", path)
			}
			return
		}
		if !contains(f.Enum, v) {
			c.errorf(diag.CodeInvalidEnum, path, "%q is not a valid %s (allowed: %s)", v, path, strings.Join(f.Enum, ", "))
		}
	case schema.KindList, schema.KindRefList, schema.KindLinkList:
		if n.Kind != yaml.SequenceNode {
			c.errorf(diag.CodeWrongType, path, "%s must be a list, got %s", path, loader.KindName(n))
			return
		}
		if f.Required && len(n.Content) == 0 {
			c.errorf(diag.CodeRequiredMissing, path, "required field %q is empty", path)
		}
		for j, item := range n.Content {
			p := fmt.Sprintf("%s[%d]", path, j)
			if c.scalar(p, item) && f.Kind != schema.KindList && loader.IsEmpty(item) {
				c.errorf(diag.CodeRequiredMissing, p, "%s must not be blank", p)
			}
		}
	case schema.KindMap:
		if n.Kind != yaml.MappingNode {
			c.errorf(diag.CodeWrongType, path, "%s must be a mapping, got %s", path, loader.KindName(n))
			return
		}
		for _, entry := range loader.Entries(n) {
			if entry.Value.Kind != yaml.ScalarNode {
				c.errorf(diag.CodeWrongType, join(path, entry.Key), "%s.%s must be a single value, got %s",
					path, entry.Key, loader.KindName(entry.Value))
			}
		}
	case schema.KindObject:
		if n.Kind != yaml.MappingNode {
			c.errorf(diag.CodeWrongType, path, "%s must be a mapping, got %s", path, loader.KindName(n))
			return
		}
		c.fields(path, f.Fields, n)
	}
}

// scalar accepts strings and timestamps. Null list elements count as wrong.
func (c *recordChecker) scalar(path string, n *yaml.Node) bool {
	if n.Kind == yaml.AliasNode {
		n = n.Alias
	}
	if n.Kind == yaml.ScalarNode && (n.Tag == "!!str" || n.Tag == "!!timestamp") {
		return true
	}
	c.errorf(diag.CodeWrongType, path, "%s must be a string, got %s", path, loader.KindName(n))
	return false
}

func join(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "." + name
}

func contains(values []string, v string) bool {
	for _, s := range values {
		if s == v {
			return true
		}
	}
	return false
}
