// Package gaps derives traceability findings from a loaded architecture. The
// rules are data: each names an entity type, a condition and the fields that
// must not be empty, or a reference edge that must point at every record.
// Referrer conditions let a rule ask whether the right kind of record
// points at it.
package gaps

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/ajitpratap0/adlint/internal/diag"
	"github.com/ajitpratap0/adlint/internal/schema"
)

// Kind selects how a rule is evaluated.
type Kind string

const (
	// KindEmpty fires for records whose listed fields are all empty.
	KindEmpty Kind = "empty"
	// KindUnreferenced fires for records no other record points at.
	KindUnreferenced Kind = "unreferenced"
	// KindMatch fires for every record that satisfies When.
	KindMatch Kind = "match"
	// KindUnserved fires for records that are referenced, but only by records
	// failing the Referrer condition.
	KindUnserved Kind = "unserved"
)

// Condition restricts a rule to matching records. Every part that is set
// must hold.
type Condition struct {
	Field string `yaml:"field,omitempty" validate:"required_with=Contains ContainsAll Equals MatchesAny"`
	// Contains matches when any value of Field equals it, ignoring case.
	Contains string `yaml:"contains,omitempty"`
	// ContainsAll matches when every listed value is among Field's values.
	ContainsAll []string `yaml:"contains_all,omitempty"`
	// Equals matches when the single value of Field equals it, ignoring case.
	Equals string `yaml:"equals,omitempty"`
	// MatchesAny matches when some value of Field has one of these as a
	// substring, ignoring case.
	MatchesAny []string `yaml:"matches_any,omitempty"`
	// AnyNonEmpty matches when at least one of the paths holds a value.
	AnyNonEmpty []string `yaml:"any_non_empty,omitempty"`
}

func (c *Condition) paths() []string {
	if c == nil {
		return nil
	}
	var out []string
	if c.Field != "" {
		out = append(out, c.Field)
	}
	return append(out, c.AnyNonEmpty...)
}

// Edge names the reference field that justifies a record's existence.
type Edge struct {
	Entity string `yaml:"entity" validate:"required"`
	Field  string `yaml:"field" validate:"required"`
}

// Rule is one traceability check. Findings are always WARN.
type Rule struct {
	Name    string    `yaml:"name" validate:"required"`
	Kind    Kind      `yaml:"kind" validate:"required,oneof=empty unreferenced match unserved"`
	Entity  string    `yaml:"entity" validate:"required"`
	Code    diag.Code `yaml:"code" validate:"required,uppercase"`
	Message string    `yaml:"message" validate:"required"`

	Fields   []string   `yaml:"fields,omitempty" validate:"required_if=Kind empty"`
	Location string     `yaml:"location,omitempty"`
	When     *Condition `yaml:"when,omitempty" validate:"required_if=Kind match"`
	// Unless suppresses the rule for records it matches.
	Unless *Condition `yaml:"unless,omitempty"`

	ReferencedBy *Edge `yaml:"referenced_by,omitempty" validate:"required_if=Kind unreferenced,required_if=Kind unserved"`
	// Referrer is what a referring record must satisfy to serve an unserved rule.
	Referrer *Condition `yaml:"referrer,omitempty" validate:"required_if=Kind unserved"`
}

// locationField is the field a finding is addressed to.
func (r Rule) locationField() string {
	if r.Location != "" {
		return r.Location
	}
	if r.Kind == KindEmpty && len(r.Fields) > 0 {
		return r.Fields[0]
	}
	return ""
}

var validate = validator.New()

// Validate checks rule shape and that every entity and field it names exists
// in the registry.
func Validate(rules []Rule, reg *schema.Registry) error {
	var errs []error
	names := make(map[string]bool, len(rules))
	for _, r := range rules {
		if err := validate.Struct(r); err != nil {
			errs = append(errs, fmt.Errorf("rule %q: %w", r.Name, err))
			continue
		}
		if names[r.Name] {
			errs = append(errs, fmt.Errorf("rule %q: duplicate name", r.Name))
		}
		names[r.Name] = true
		if err := checkRefs(r, reg); err != nil {
			errs = append(errs, fmt.Errorf("rule %q: %w", r.Name, err))
		}
	}
	return errors.Join(errs...)
}

func checkRefs(r Rule, reg *schema.Registry) error {
	e, ok := reg.Entity(r.Entity)
	if !ok {
		return fmt.Errorf("unknown entity %q", r.Entity)
	}
	paths := append([]string(nil), r.Fields...)
	if r.Location != "" {
		paths = append(paths, r.Location)
	}
	paths = append(paths, r.When.paths()...)
	paths = append(paths, r.Unless.paths()...)
	for _, p := range paths {
		if _, ok := e.Lookup(p); !ok {
			return fmt.Errorf("entity %s has no field %q", r.Entity, p)
		}
	}
	if r.Kind == KindUnreferenced || r.Kind == KindUnserved {
		if _, ok := reg.Entity(r.ReferencedBy.Entity); !ok {
			return fmt.Errorf("referenced_by: unknown entity %q", r.ReferencedBy.Entity)
		}
		target, ok := reg.ReferenceTarget(r.ReferencedBy.Entity, r.ReferencedBy.Field)
		if !ok {
			return fmt.Errorf("referenced_by: %s.%s is not a reference field", r.ReferencedBy.Entity, r.ReferencedBy.Field)
		}
		if target != r.Entity {
			return fmt.Errorf("referenced_by: %s.%s points at %s, not %s",
				r.ReferencedBy.Entity, r.ReferencedBy.Field, target, r.Entity)
		}
		referrer := reg.MustEntity(r.ReferencedBy.Entity)
		for _, p := range r.Referrer.paths() {
			if _, ok := referrer.Lookup(p); !ok {
				return fmt.Errorf("referrer: entity %s has no field %q", referrer.Name, p)
			}
		}
	}
	return nil
}

type ruleFile struct {
	Rules []Rule `yaml:"rules"`
}

// Parse reads a rules document of the form {rules: [...]}. Unknown keys are errors.
func Parse(r io.Reader) ([]Rule, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var f ruleFile
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("decoding rules: %w", err)
	}
	return f.Rules, nil
}

// LoadFile reads and validates a rules file.
func LoadFile(path string, reg *schema.Registry) ([]Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading rules file: %w", err)
	}
	rules, err := Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if err := Validate(rules, reg); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rules, nil
}
