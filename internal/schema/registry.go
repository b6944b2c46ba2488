package schema

import (
	"fmt"
	"strings"
)

// Registry is an immutable set of entity types in load order. It is safe for
// concurrent use by any number of validation runs.
type Registry struct {
	order    []string
	entities map[string]*EntityType
}

// NewRegistry builds a registry from entity types given in load order.
func NewRegistry(types []EntityType) (*Registry, error) {
	r := &Registry{entities: make(map[string]*EntityType, len(types))}
	known := make(map[string]bool, len(types))
	for _, t := range types {
		if known[t.Name] {
			return nil, fmt.Errorf("duplicate entity type %q", t.Name)
		}
		known[t.Name] = true
	}
	for i := range types {
		t := types[i]
		if t.FileName == "" {
			t.FileName = t.Name + ".yaml"
		}
		if t.IDPattern == "" {
			t.IDPattern = DefaultIDPattern
		}
		if err := t.validate(known); err != nil {
			return nil, err
		}
		r.order = append(r.order, t.Name)
		r.entities[t.Name] = &t
	}
	return r, nil
}

// Order returns entity type names in load order.
func (r *Registry) Order() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Entity returns the entity type with the given name.
func (r *Registry) Entity(name string) (*EntityType, bool) {
	e, ok := r.entities[name]
	return e, ok
}

// MustEntity is Entity for names that are known to exist. An unknown name is a
// programming error.
func (r *Registry) MustEntity(name string) *EntityType {
	e, ok := r.entities[name]
	if !ok {
		panic(fmt.Sprintf("schema: unknown entity type %q", name))
	}
	return e
}

// Fields returns the declared top-level fields of an entity type.
func (r *Registry) Fields(entity string) []Field {
	return r.MustEntity(entity).Fields
}

// RequiredFields returns the names of required top-level fields.
func (r *Registry) RequiredFields(entity string) []string {
	var out []string
	for _, f := range r.MustEntity(entity).Fields {
		if f.Required {
			out = append(out, f.Name)
		}
	}
	return out
}

// ReferenceTarget returns the entity type a reference field points to.
func (r *Registry) ReferenceTarget(entity, fieldPath string) (string, bool) {
	f, ok := r.MustEntity(entity).Lookup(fieldPath)
	if !ok || !f.Kind.IsReference() {
		return "", false
	}
	return f.Target, true
}

// IsExternalLink reports whether the field holds external URLs.
func (r *Registry) IsExternalLink(entity, fieldPath string) bool {
	f, ok := r.MustEntity(entity).Lookup(fieldPath)
	return ok && f.Kind == KindLinkList
}

// EntityRank is the position of the entity in load order; unknown names sort last.
func (r *Registry) EntityRank(entity string) int {
	for i, name := range r.order {
		if name == entity {
			return i
		}
	}
	return len(r.order)
}

// FieldRank is the declaration position of the top-level field named by the
// path. Record-level findings (empty path) sort first and undeclared fields last.
func (r *Registry) FieldRank(entity, fieldPath string) int {
	if fieldPath == "" {
		return -1
	}
	e, ok := r.entities[entity]
	if !ok {
		return 0
	}
	top := fieldPath
	if i := strings.IndexAny(fieldPath, ".["); i >= 0 {
		top = fieldPath[:i]
	}
	for i, f := range e.Fields {
		if f.Name == top {
			return i
		}
	}
	return len(e.Fields)
}
