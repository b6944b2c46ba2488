package schema

import (
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
)

const draft = "https://json-schema.org/draft/2020-12/schema"

// JSONSchema renders an entity type's collection file as a JSON Schema
// document, so editors can offer completion and inline checks for the YAML.
func (r *Registry) JSONSchema(entity string) (*jsonschema.Schema, error) {
	e, ok := r.Entity(entity)
	if !ok {
		return nil, fmt.Errorf("unknown entity type %q", entity)
	}
	record := objectSchema(e.Fields)
	record.Title = e.Name
	record.Description = fmt.Sprintf("One %s entry; ids look like %s.", e.Name, e.FormatID(1))
	record.Properties["id"].Pattern = e.IDPattern

	return &jsonschema.Schema{
		Schema: draft,
		ID:     "adlint:" + e.Name,
		Title:  e.FileName,
		Type:   "object",
		Properties: map[string]*jsonschema.Schema{
			e.CollectionKey: {Type: "array", Items: record},
		},
		AdditionalProperties: falseSchema(),
	}, nil
}

func objectSchema(fields []Field) *jsonschema.Schema {
	s := &jsonschema.Schema{
		Type:                 "object",
		Properties:           make(map[string]*jsonschema.Schema, len(fields)),
		AdditionalProperties: falseSchema(),
	}
	for _, f := range fields {
		s.Properties[f.Name] = fieldSchema(f)
		if f.Required {
			s.Required = append(s.Required, f.Name)
		}
	}
	return s
}

func fieldSchema(f Field) *jsonschema.Schema {
	var s *jsonschema.Schema
	switch f.Kind {
	case KindEnum:
		values := make([]any, len(f.Enum))
		for i, v := range f.Enum {
			values[i] = v
		}
		s = &jsonschema.Schema{Type: "string", Enum: values}
	case KindList:
		s = &jsonschema.Schema{Type: "array", Items: &jsonschema.Schema{Type: "string"}}
	case KindReference:
		s = &jsonschema.Schema{Type: "string"}
	case KindRefList:
		s = &jsonschema.Schema{Type: "array", Items: &jsonschema.Schema{Type: "string"}}
	case KindMap:
		s = &jsonschema.Schema{Type: "object", AdditionalProperties: &jsonschema.Schema{Type: "string"}}
	case KindObject:
		s = objectSchema(f.Fields)
	case KindLinkList:
		s = &jsonschema.Schema{Type: "array", Items: &jsonschema.Schema{Type: "string", Format: "uri"}}
	default:
		s = &jsonschema.Schema{Type: "string"}
		if f.Required {
			one := 1
			s.MinLength = &one
		}
	}
	s.Description = f.Help
	if f.Kind.IsReference() {
		s.Description = fmt.Sprintf("%s (ids of %s)", f.Help, f.Target)
	}
	return s
}

// falseSchema accepts nothing; used to forbid undeclared properties.
func falseSchema() *jsonschema.Schema {
	return &jsonschema.Schema{Not: &jsonschema.Schema{}}
}
