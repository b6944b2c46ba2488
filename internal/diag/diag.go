// Package diag defines validation findings and assembles them into an ordered report.
package diag

import (
	"fmt"
	"strings"
)

// Severity classifies a finding.
type Severity string

const (
	SeverityError Severity = "ERROR"
	SeverityWarn  Severity = "WARN"
)

// ValidSeverities is the set of all valid severities, most severe first.
var ValidSeverities = []Severity{SeverityError, SeverityWarn}

// IsValid returns true if the severity is recognized.
func (s Severity) IsValid() bool {
	for _, v := range ValidSeverities {
		if s == v {
			return true
		}
	}
	return false
}

// rank orders severities for report assembly.
func (s Severity) rank() int {
	if s == SeverityError {
		return 0
	}
	return 1
}

// Code identifies the kind of a finding.
type Code string

// Load failures. Any of these halts the run.
const (
	CodeArchNotFound      Code = "ARCH_NOT_FOUND"
	CodeMissingFile       Code = "MISSING_FILE"
	CodeYAMLParse         Code = "YAML_PARSE_ERROR"
	CodeInvalidRoot       Code = "INVALID_ROOT"
	CodeInvalidCollection Code = "INVALID_COLLECTION"
)

// Structural findings.
const (
	CodeRequiredMissing Code = "REQUIRED_FIELD_MISSING"
	CodeWrongType       Code = "WRONG_TYPE"
	CodeUnknownField    Code = "UNKNOWN_FIELD"
	CodeInvalidEnum     Code = "INVALID_ENUM"
)

// Identity, reference and link findings.
const (
	CodeDuplicateID          Code = "DUPLICATE_ID"
	CodeBadIDFormat          Code = "BAD_ID_FORMAT"
	CodeUnresolvedReference  Code = "UNRESOLVED_REFERENCE"
	CodeSelfReference        Code = "SELF_REFERENCE"
	CodeInvalidExternalLink  Code = "INVALID_EXTERNAL_LINK"
	CodeInvalidLinkExtension Code = "INVALID_LINK_EXTENSION"
)

// Built-in traceability codes. Gap rules may define others.
const (
	CodeGap                Code = "GAP"
	CodeMissingMeasurement Code = "MISSING_MEASUREMENT"
	CodeIncompleteSLO      Code = "INCOMPLETE_SLO_SLA"
	CodeUnused             Code = "UNUSED"
	CodeMissingViewLink    Code = "MISSING_VIEW_LINK"
)

// Position addresses a finding inside an architecture. Index is -1 for
// findings that concern a whole file rather than one record.
type Position struct {
	Entity   string
	Index    int
	Field    string
	EntityID string
}

// FileLevel returns a position for a file-wide finding.
func FileLevel(entity string) Position {
	return Position{Entity: entity, Index: -1}
}

// At returns a record-scoped position.
func At(entity string, index int, field string) Position {
	return Position{Entity: entity, Index: index, Field: field}
}

// String renders the index form: stakeholders[2].name, concerns[0], risks.
func (p Position) String() string {
	var b strings.Builder
	b.WriteString(p.Entity)
	if p.Index >= 0 {
		fmt.Fprintf(&b, "[%d]", p.Index)
	}
	if p.Field != "" {
		b.WriteByte('.')
		b.WriteString(p.Field)
	}
	return b.String()
}

// ByID renders the id form used in rendered documents: concerns:C-001.measurement.
// It falls back to the index form when the record has no usable id.
func (p Position) ByID() string {
	if p.EntityID == "" || p.Index < 0 {
		return p.String()
	}
	s := p.Entity + ":" + p.EntityID
	if p.Field != "" {
		s += "." + p.Field
	}
	return s
}

// Diagnostic is one reported finding.
type Diagnostic struct {
	Severity Severity `json:"severity"`
	Code     Code     `json:"code"`
	Location string   `json:"location"`
	Message  string   `json:"message"`

	// Fatal marks load failures that prevent validation.
	Fatal bool     `json:"-"`
	Pos   Position `json:"-"`
}

// Errorf builds an ERROR diagnostic.
func Errorf(code Code, pos Position, format string, args ...any) Diagnostic {
	return newDiagnostic(SeverityError, code, pos, fmt.Sprintf(format, args...))
}

// Warnf builds a WARN diagnostic.
func Warnf(code Code, pos Position, format string, args ...any) Diagnostic {
	return newDiagnostic(SeverityWarn, code, pos, fmt.Sprintf(format, args...))
}

// Fatalf builds a fatal load diagnostic. Location is the bare position string,
// normally an entity type name.
func Fatalf(code Code, location string, format string, args ...any) Diagnostic {
	d := newDiagnostic(SeverityError, code, Position{Entity: location, Index: -1}, fmt.Sprintf(format, args...))
	d.Fatal = true
	return d
}

func newDiagnostic(sev Severity, code Code, pos Position, msg string) Diagnostic {
	return Diagnostic{
		Severity: sev,
		Code:     code,
		Location: pos.String(),
		Message:  msg,
		Pos:      pos,
	}
}

// String formats the diagnostic on one line.
func (d Diagnostic) String() string {
	return fmt.Sprintf("%s %s %s: %s", d.Severity, d.Code, d.Location, d.Message)
}
