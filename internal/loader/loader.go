// Package loader reads one architecture's YAML collections into positionally
// addressable records. It never interprets field values; that is left to the
// validators, which work on the retained yaml.Node trees.
package loader

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ajitpratap0/adlint/internal/diag"
	"github.com/ajitpratap0/adlint/internal/schema"
)

// RootID names the specs root itself as an architecture. It is read-only.
const RootID = "_root"

// ErrInvalidArchitecture is returned for ids that would leave the specs root.
var ErrInvalidArchitecture = errors.New("invalid architecture id")

// Snapshot is the loaded content of one architecture for one validation run.
type Snapshot struct {
	ArchitectureID string
	Dir            string
	Collections    map[string]*Collection
}

// Collection returns the named collection. Unknown names yield an empty collection.
func (s *Snapshot) Collection(entity string) *Collection {
	if c, ok := s.Collections[entity]; ok {
		return c
	}
	return &Collection{Entity: entity}
}

// Collection is every record of one entity type, in file order.
type Collection struct {
	Entity string
	// File is the path the collection was read from; empty when the optional file is absent.
	File    string
	Records []*Record
	// ExtraKeys are top-level keys other than the collection key, in file order.
	ExtraKeys []string
}

// Dir resolves an architecture id to its directory below root.
func Dir(root, archID string) (string, error) {
	if archID == RootID {
		return filepath.Clean(root), nil
	}
	if archID == "" || archID == "." || archID == ".." ||
		strings.ContainsAny(archID, `/\`) || strings.HasPrefix(archID, ".") {
		return "", fmt.Errorf("%w: %q", ErrInvalidArchitecture, archID)
	}
	dir := filepath.Join(root, archID)
	rel, err := filepath.Rel(filepath.Clean(root), dir)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf("%w: %q", ErrInvalidArchitecture, archID)
	}
	return dir, nil
}

// Load reads every collection the registry declares. It attempts every file so
// that all load failures are reported together; when any occurs the snapshot is
// nil and the returned diagnostics are all fatal.
func Load(root, archID string, reg *schema.Registry) (*Snapshot, []diag.Diagnostic) {
	dir, err := Dir(root, archID)
	if err != nil {
		return nil, []diag.Diagnostic{diag.Fatalf(diag.CodeArchNotFound, archID, "%v", err)}
	}
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return nil, []diag.Diagnostic{diag.Fatalf(diag.CodeArchNotFound, archID, "architecture %q not found", archID)}
	}

	snap := &Snapshot{
		ArchitectureID: archID,
		Dir:            dir,
		Collections:    make(map[string]*Collection),
	}
	var fatal []diag.Diagnostic
	for _, name := range reg.Order() {
		c, d := loadCollection(dir, reg.MustEntity(name))
		if d != nil {
			fatal = append(fatal, *d)
			continue
		}
		snap.Collections[name] = c
	}
	if len(fatal) > 0 {
		return nil, fatal
	}
	return snap, nil
}

// FindFile returns the path of an entity type's file, trying the declared
// name and then its .yml variant. ok is false when neither exists.
func FindFile(dir string, e *schema.EntityType) (path string, ok bool) {
	candidates := []string{e.FileName}
	if ext := filepath.Ext(e.FileName); ext == ".yaml" {
		candidates = append(candidates, strings.TrimSuffix(e.FileName, ext)+".yml")
	}
	for _, name := range candidates {
		p := filepath.Join(dir, name)
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p, true
		}
	}
	return filepath.Join(dir, e.FileName), false
}

func loadCollection(dir string, e *schema.EntityType) (*Collection, *diag.Diagnostic) {
	c := &Collection{Entity: e.Name}
	path, ok := FindFile(dir, e)
	if !ok {
		if e.RequiredFile {
			d := diag.Fatalf(diag.CodeMissingFile, e.Name, "required file %s is missing", e.FileName)
			return nil, &d
		}
		return c, nil
	}
	c.File = path

	data, err := os.ReadFile(path)
	if err != nil {
		code := diag.CodeYAMLParse
		if errors.Is(err, fs.ErrNotExist) {
			code = diag.CodeMissingFile
		}
		d := diag.Fatalf(code, e.Name, "reading %s: %v", filepath.Base(path), err)
		return nil, &d
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		d := diag.Fatalf(diag.CodeYAMLParse, e.Name, "%s: %v", filepath.Base(path), err)
		return nil, &d
	}
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return c, nil
	}
	top := resolve(doc.Content[0])
	if IsNull(top) {
		return c, nil
	}
	if top.Kind != yaml.MappingNode {
		d := diag.Fatalf(diag.CodeInvalidRoot, e.Name, "%s: top level must be a mapping, got %s", filepath.Base(path), KindName(top))
		return nil, &d
	}

	var items *yaml.Node
	for i := 0; i+1 < len(top.Content); i += 2 {
		key, val := top.Content[i], resolve(top.Content[i+1])
		if key.Value != e.CollectionKey {
			c.ExtraKeys = append(c.ExtraKeys, key.Value)
			continue
		}
		items = val
	}
	if items == nil || IsNull(items) {
		return c, nil
	}
	if items.Kind != yaml.SequenceNode {
		d := diag.Fatalf(diag.CodeInvalidCollection, e.Name, "%s: key %q must hold a list, got %s",
			filepath.Base(path), e.CollectionKey, KindName(items))
		return nil, &d
	}
	for i, n := range items.Content {
		c.Records = append(c.Records, newRecord(e.Name, i, resolve(n)))
	}
	return c, nil
}
