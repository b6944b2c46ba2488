// Package workspace reads and writes entity collection files for the
// editing surfaces. It is the only package that mutates architectures.
package workspace

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/ajitpratap0/adlint/internal/loader"
	"github.com/ajitpratap0/adlint/internal/schema"
)

// Sentinel errors, matched with errors.Is.
var (
	ErrNotFound    = errors.New("not found")
	ErrReadOnly    = errors.New("architecture is read-only")
	ErrInvalidPath = errors.New("invalid path")
)

// Workspace is a specs root holding one directory per architecture.
type Workspace struct {
	root string
	reg  *schema.Registry
}

// New returns a workspace rooted at root.
func New(root string, reg *schema.Registry) *Workspace {
	return &Workspace{root: filepath.Clean(root), reg: reg}
}

// Root returns the specs root directory.
func (w *Workspace) Root() string { return w.root }

// ListArchitectures returns the architecture ids below the root, sorted. A
// directory qualifies when it holds at least one collection file. With none,
// the root itself is the only architecture.
func (w *Workspace) ListArchitectures() ([]string, error) {
	entries, err := os.ReadDir(w.root)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("specs root %s: %w", w.root, ErrNotFound)
		}
		return nil, fmt.Errorf("listing architectures: %w", err)
	}
	var ids []string
	for _, e := range entries {
		if !e.IsDir() || strings.HasPrefix(e.Name(), ".") || strings.HasPrefix(e.Name(), "_") {
			continue
		}
		if w.hasCollections(filepath.Join(w.root, e.Name())) {
			ids = append(ids, e.Name())
		}
	}
	if len(ids) == 0 {
		return []string{loader.RootID}, nil
	}
	sort.Strings(ids)
	return ids, nil
}

func (w *Workspace) hasCollections(dir string) bool {
	for _, name := range w.reg.Order() {
		if _, ok := loader.FindFile(dir, w.reg.MustEntity(name)); ok {
			return true
		}
	}
	return false
}

// Resolve returns the directory of an existing architecture.
func (w *Workspace) Resolve(archID string) (string, error) {
	dir, err := loader.Dir(w.root, archID)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidPath, err)
	}
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return "", fmt.Errorf("architecture %q: %w", archID, ErrNotFound)
	}
	return dir, nil
}

// ReadEntity returns the records of one collection as plain values. A missing
// optional file reads as an empty list.
func (w *Workspace) ReadEntity(archID, entity string) ([]map[string]any, error) {
	e, dir, err := w.locate(archID, entity)
	if err != nil {
		return nil, err
	}
	path, ok := loader.FindFile(dir, e)
	if !ok {
		return []map[string]any{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", filepath.Base(path), err)
	}
	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", filepath.Base(path), err)
	}
	items, _ := doc[e.CollectionKey].([]any)
	records := make([]map[string]any, 0, len(items))
	for i, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%s: entry %d is not a mapping", filepath.Base(path), i)
		}
		records = append(records, m)
	}
	return records, nil
}

// WriteEntity replaces a collection file. Relation fields given as strings are
// split on whitespace and commas into lists. The write is atomic: content goes
// to a temporary file in the same directory which is then renamed over the
// target.
func (w *Workspace) WriteEntity(archID, entity string, records []map[string]any) error {
	if archID == loader.RootID {
		return ErrReadOnly
	}
	e, dir, err := w.locate(archID, entity)
	if err != nil {
		return err
	}
	normalized := make([]map[string]any, len(records))
	for i, rec := range records {
		normalized[i] = Normalize(e, rec)
	}

	doc, err := collectionNode(e, normalized)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", entity, err)
	}
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encoding %s: %w", entity, err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("encoding %s: %w", entity, err)
	}

	path, _ := loader.FindFile(dir, e)
	tmp := filepath.Join(dir, "."+filepath.Base(path)+"."+uuid.New().String()+".tmp")
	if err := os.WriteFile(tmp, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replacing %s: %w", filepath.Base(path), err)
	}
	return nil
}

func (w *Workspace) locate(archID, entity string) (*schema.EntityType, string, error) {
	e, ok := w.reg.Entity(entity)
	if !ok {
		return nil, "", fmt.Errorf("entity type %q: %w", entity, ErrNotFound)
	}
	dir, err := w.Resolve(archID)
	if err != nil {
		return nil, "", err
	}
	return e, dir, nil
}

// collectionNode lays records out with declared fields first, in schema
// order, followed by any undeclared keys sorted by name.
func collectionNode(e *schema.EntityType, records []map[string]any) (*yaml.Node, error) {
	list := &yaml.Node{Kind: yaml.SequenceNode}
	for _, rec := range records {
		n, err := mappingNode(e.Fields, rec)
		if err != nil {
			return nil, err
		}
		list.Content = append(list.Content, n)
	}
	return &yaml.Node{Kind: yaml.MappingNode, Content: []*yaml.Node{
		{Kind: yaml.ScalarNode, Value: e.CollectionKey}, list,
	}}, nil
}

func mappingNode(fields []schema.Field, rec map[string]any) (*yaml.Node, error) {
	n := &yaml.Node{Kind: yaml.MappingNode}
	add := func(key string, v any, sub []schema.Field) error {
		var vn *yaml.Node
		if m, ok := v.(map[string]any); ok && sub != nil {
			var err error
			if vn, err = mappingNode(sub, m); err != nil {
				return err
			}
		} else {
			vn = &yaml.Node{}
			if err := vn.Encode(v); err != nil {
				return fmt.Errorf("field %s: %w", key, err)
			}
		}
		n.Content = append(n.Content, &yaml.Node{Kind: yaml.ScalarNode, Value: key}, vn)
		return nil
	}
	declared := make(map[string]bool, len(fields))
	for _, f := range fields {
		declared[f.Name] = true
		v, ok := rec[f.Name]
		if !ok {
			continue
		}
		if err := add(f.Name, v, f.Fields); err != nil {
			return nil, err
		}
	}
	var extra []string
	for k := range rec {
		if !declared[k] {
			extra = append(extra, k)
		}
	}
	sort.Strings(extra)
	for _, k := range extra {
		if err := add(k, rec[k], nil); err != nil {
			return nil, err
		}
	}
	return n, nil
}

// Normalize returns a copy of rec with list-valued fields coerced to lists.
// Relation and link strings are split on whitespace and commas, free-text
// lists on commas only. Nested objects are normalized against their sub-fields.
func Normalize(e *schema.EntityType, rec map[string]any) map[string]any {
	return normalizeFields(e.Fields, rec)
}

func normalizeFields(fields []schema.Field, rec map[string]any) map[string]any {
	out := make(map[string]any, len(rec))
	for k, v := range rec {
		out[k] = v
	}
	for _, f := range fields {
		v, ok := out[f.Name]
		if !ok || v == nil {
			continue
		}
		switch f.Kind {
		case schema.KindRefList, schema.KindLinkList:
			if s, ok := v.(string); ok {
				out[f.Name] = splitList(s, isSpaceOrComma)
			}
		case schema.KindList:
			if s, ok := v.(string); ok {
				out[f.Name] = splitList(s, func(r rune) bool { return r == ',' })
			}
		case schema.KindObject:
			if m, ok := v.(map[string]any); ok {
				out[f.Name] = normalizeFields(f.Fields, m)
			}
		}
	}
	return out
}

func isSpaceOrComma(r rune) bool {
	return r == ',' || unicode.IsSpace(r)
}

func splitList(s string, sep func(rune) bool) []string {
	out := []string{}
	for _, p := range strings.FieldsFunc(s, sep) {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
