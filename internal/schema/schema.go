// Package schema holds the declarative description of every entity type in an
// architecture: its file, collection key, fields, references and link fields.
// Validation is driven entirely by these descriptors, so adding an entity type
// means adding data here rather than new control flow.
package schema

import (
	"fmt"
	"regexp"
	"strings"
)

// DefaultIDPattern is the id format used when an entity type declares none.
const DefaultIDPattern = `^[A-Za-z][A-Za-z0-9\-_.:]*$`

// Kind is the value shape of a field.
type Kind string

const (
	KindScalar    Kind = "scalar"
	KindEnum      Kind = "enum"
	KindList      Kind = "list"
	KindReference Kind = "reference"
	KindRefList   Kind = "reference_list"
	KindMap       Kind = "map"
	KindObject    Kind = "object"
	KindLinkList  Kind = "link_list"
)

// ValidKinds is the set of all valid field kinds.
var ValidKinds = []Kind{
	KindScalar,
	KindEnum,
	KindList,
	KindReference,
	KindRefList,
	KindMap,
	KindObject,
	KindLinkList,
}

// IsValid returns true if the kind is recognized.
func (k Kind) IsValid() bool {
	for _, v := range ValidKinds {
		if k == v {
			return true
		}
	}
	return false
}

// IsReference reports whether values of this kind name ids in another collection.
func (k Kind) IsReference() bool {
	return k == KindReference || k == KindRefList
}

// Field describes one declared field of an entity type.
type Field struct {
	Name     string
	Kind     Kind
	Required bool
	Help     string

	// Enum lists the allowed values of a KindEnum field.
	Enum []string

	// Target is the entity type referenced by KindReference/KindRefList fields.
	Target string

	// Advisory reference fields report dangling ids as warnings.
	Advisory bool

	// NoSelfReference forbids a record from referencing its own id.
	NoSelfReference bool

	// Fields are the sub-fields of a KindObject field.
	Fields []Field
}

// EntityType is the schema of one collection.
type EntityType struct {
	Name          string
	FileName      string
	CollectionKey string
	IDPrefix      string
	IDWidth       int
	IDPattern     string
	RequiredFile  bool
	Fields        []Field

	idRE *regexp.Regexp
}

// ValidID reports whether id matches IDPattern. Types that were not built by
// NewRegistry accept any id.
func (e *EntityType) ValidID(id string) bool {
	if e.idRE == nil {
		return true
	}
	return e.idRE.MatchString(id)
}

// Field returns the declared top-level field with the given name.
func (e *EntityType) Field(name string) (Field, bool) {
	for _, f := range e.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Lookup resolves a dotted field path such as "measurement.service_level_id".
func (e *EntityType) Lookup(path string) (Field, bool) {
	fields := e.Fields
	parts := strings.Split(path, ".")
	for i, part := range parts {
		var found *Field
		for j := range fields {
			if fields[j].Name == part {
				found = &fields[j]
				break
			}
		}
		if found == nil {
			return Field{}, false
		}
		if i == len(parts)-1 {
			return *found, true
		}
		if found.Kind != KindObject {
			return Field{}, false
		}
		fields = found.Fields
	}
	return Field{}, false
}

// FormatID renders the n-th identifier for this type, e.g. CAP-007.
func (e *EntityType) FormatID(n int) string {
	return fmt.Sprintf("%s-%0*d", e.IDPrefix, e.IDWidth, n)
}

// FieldRef is a field declaration together with its dotted path from the record root.
type FieldRef struct {
	Path  string
	Field Field
}

// Walk returns every field of the type, depth first, with its dotted path.
func (e *EntityType) Walk() []FieldRef {
	var out []FieldRef
	var walk func(prefix string, fields []Field)
	walk = func(prefix string, fields []Field) {
		for _, f := range fields {
			path := f.Name
			if prefix != "" {
				path = prefix + "." + f.Name
			}
			out = append(out, FieldRef{Path: path, Field: f})
			if f.Kind == KindObject {
				walk(path, f.Fields)
			}
		}
	}
	walk("", e.Fields)
	return out
}

func (e *EntityType) validate(known map[string]bool) error {
	if e.Name == "" {
		return fmt.Errorf("entity type without name")
	}
	if e.CollectionKey == "" {
		return fmt.Errorf("entity %s: collection key must not be empty", e.Name)
	}
	if _, ok := e.Field("id"); !ok {
		return fmt.Errorf("entity %s: must declare an id field", e.Name)
	}
	re, err := regexp.Compile(e.IDPattern)
	if err != nil {
		return fmt.Errorf("entity %s: id pattern: %w", e.Name, err)
	}
	e.idRE = re
	for _, ref := range e.Walk() {
		f := ref.Field
		if !f.Kind.IsValid() {
			return fmt.Errorf("entity %s: field %s has invalid kind %q", e.Name, ref.Path, f.Kind)
		}
		if f.Kind == KindEnum && len(f.Enum) == 0 {
			return fmt.Errorf("entity %s: enum field %s declares no values", e.Name, ref.Path)
		}
		if f.Kind.IsReference() && !known[f.Target] {
			return fmt.Errorf("entity %s: field %s references unknown entity %q", e.Name, ref.Path, f.Target)
		}
		if f.Kind == KindObject && len(f.Fields) == 0 {
			return fmt.Errorf("entity %s: object field %s declares no sub-fields", e.Name, ref.Path)
		}
	}
	return nil
}
