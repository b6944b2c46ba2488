package diag

import (
	"sort"
	"strings"
)

// Status is the overall outcome of a validation run.
type Status string

const (
	StatusOK    Status = "ok"
	StatusError Status = "error"
)

// Summary counts findings by severity.
type Summary struct {
	Errors   int `json:"errors"`
	Warnings int `json:"warnings"`
}

// Report is the sole result of a validation run.
type Report struct {
	ArchitectureID string       `json:"architecture_id"`
	Status         Status       `json:"status"`
	Summary        Summary      `json:"summary"`
	Diagnostics    []Diagnostic `json:"diagnostics"`
}

// OK reports whether the run found no ERROR-severity findings.
func (r *Report) OK() bool { return r.Status == StatusOK }

// Filter returns the diagnostics whose code matches.
func (r *Report) Filter(code Code) []Diagnostic {
	var out []Diagnostic
	for _, d := range r.Diagnostics {
		if d.Code == code {
			out = append(out, d)
		}
	}
	return out
}

// Orderer ranks entity types and fields so findings can be listed in load order.
type Orderer interface {
	EntityRank(entity string) int
	FieldRank(entity, fieldPath string) int
}

// Aggregate assembles the report for one run. If any diagnostic is fatal only
// the fatal ones are kept. Otherwise errors precede warnings, each group in
// encounter order: entity order, record index, field rank, then emission order.
func Aggregate(archID string, diags []Diagnostic, order Orderer) *Report {
	var fatal []Diagnostic
	for _, d := range diags {
		if d.Fatal {
			fatal = append(fatal, d)
		}
	}
	if len(fatal) > 0 {
		return &Report{
			ArchitectureID: archID,
			Status:         StatusError,
			Summary:        Summary{Errors: len(fatal)},
			Diagnostics:    fatal,
		}
	}

	sorted := make([]Diagnostic, len(diags))
	copy(sorted, diags)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.Severity.rank() != b.Severity.rank() {
			return a.Severity.rank() < b.Severity.rank()
		}
		if ea, eb := order.EntityRank(a.Pos.Entity), order.EntityRank(b.Pos.Entity); ea != eb {
			return ea < eb
		}
		if a.Pos.Index != b.Pos.Index {
			return a.Pos.Index < b.Pos.Index
		}
		return order.FieldRank(a.Pos.Entity, a.Pos.Field) < order.FieldRank(b.Pos.Entity, b.Pos.Field)
	})

	r := &Report{
		ArchitectureID: archID,
		Status:         StatusOK,
		Diagnostics:    sorted,
	}
	for _, d := range sorted {
		switch d.Severity {
		case SeverityError:
			r.Summary.Errors++
		case SeverityWarn:
			r.Summary.Warnings++
		}
	}
	if r.Summary.Errors > 0 {
		r.Status = StatusError
	}
	if r.Diagnostics == nil {
		r.Diagnostics = []Diagnostic{}
	}
	return r
}

// TopField returns the first segment of a dotted field path, without any
// list index: "measurement.sli" -> "measurement", "tags[2]" -> "tags".
func TopField(path string) string {
	if i := strings.IndexAny(path, ".["); i >= 0 {
		return path[:i]
	}
	return path
}
