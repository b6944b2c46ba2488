package validator

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/adlint/internal/diag"
	"github.com/ajitpratap0/adlint/internal/gaps"
	"github.com/ajitpratap0/adlint/internal/schema"
	"github.com/ajitpratap0/adlint/internal/testfixture"
)

func newTestEngine(t *testing.T, opts ...Option) *Engine {
	t.Helper()
	opts = append([]Option{WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))}, opts...)
	e, err := New(schema.Default(), opts...)
	require.NoError(t, err)
	return e
}

func validate(t *testing.T, files testfixture.Files, opts ...Option) *diag.Report {
	t.Helper()
	root := testfixture.Root(t, "demo", files)
	return newTestEngine(t, opts...).Validate(context.Background(), root, "demo")
}

// clean avoids the stakeholder gap in the minimal fixture.
func clean() testfixture.Files {
	return testfixture.Minimal().With(testfixture.Files{
		"stakeholders.yaml": "stakeholders:\n  - {id: STK-001, name: Operations}\n",
	})
}

func diagCodes(r *diag.Report) []diag.Code {
	out := make([]diag.Code, 0, len(r.Diagnostics))
	for _, d := range r.Diagnostics {
		out = append(out, d.Code)
	}
	return out
}

func TestValidate_Clean(t *testing.T) {
	r := validate(t, clean())
	assert.Equal(t, diag.StatusOK, r.Status)
	assert.Empty(t, r.Diagnostics)
	assert.Equal(t, "demo", r.ArchitectureID)
}

func TestValidate_DuplicateIDs(t *testing.T) {
	r := validate(t, clean().With(testfixture.Files{
		"capabilities.yaml": `capabilities:
  - {id: CAP-001, name: a, description: d, addresses_concerns: [C-001]}
  - {id: CAP-001, name: b, description: d, addresses_concerns: [C-001]}
  - {id: CAP-001, name: c, description: d, addresses_concerns: [C-001]}
`,
	}))
	dups := r.Filter(diag.CodeDuplicateID)
	assert.Len(t, dups, 2)
	assert.Equal(t, diag.StatusError, r.Status)
}

func TestValidate_ReferenceResolution(t *testing.T) {
	r := validate(t, clean().With(testfixture.Files{
		"stakeholders.yaml": "stakeholders:\n  - {id: STK-001, name: a}\n  - {id: STK-002, name: b}\n",
		"concerns.yaml": `concerns:
  - {id: C-001, name: a, description: d, stakeholders: [STK-001, STK-002]}
  - {id: C-002, name: b, description: d, stakeholders: [STK-001, STK-999]}
`,
		"capabilities.yaml": "capabilities:\n  - {id: CAP-001, name: a, description: d, addresses_concerns: [C-001, C-002]}\n",
	}))
	unresolved := r.Filter(diag.CodeUnresolvedReference)
	require.Len(t, unresolved, 1)
	assert.Equal(t, "concerns[1].stakeholders", unresolved[0].Location)
	assert.Contains(t, unresolved[0].Message, "STK-999")
	assert.Contains(t, unresolved[0].Message, "stakeholders")
	assert.Equal(t, diag.SeverityError, unresolved[0].Severity)
}

func TestValidate_ReferencesUseDeclaredTargetNotPrefix(t *testing.T) {
	// A concern id in a stakeholder field does not resolve even though C-001 exists.
	r := validate(t, clean().With(testfixture.Files{
		"concerns.yaml": "concerns:\n  - {id: C-001, name: a, description: d, stakeholders: [STK-001, C-001]}\n",
	}))
	unresolved := r.Filter(diag.CodeUnresolvedReference)
	require.Len(t, unresolved, 1)
	assert.Contains(t, unresolved[0].Message, `"C-001"`)
}

func TestValidate_NestedAndSingularReferences(t *testing.T) {
	r := validate(t, clean().With(testfixture.Files{
		"concerns.yaml": `concerns:
  - id: C-001
    name: a
    description: d
    stakeholders: [STK-001]
    measurement: {service_level_id: SL-404}
`,
		"risks.yaml": `risks:
  - id: R-001
    title: t
    description: d
    type: Data
    status: Open
    owner: STK-404
    mitigation: m
    affected_concerns: [C-001]
    affected_capabilities: [CAP-001]
    linked_views: [VW-404]
`,
	}))
	unresolved := r.Filter(diag.CodeUnresolvedReference)
	require.Len(t, unresolved, 3)
	assert.Equal(t, "concerns[0].measurement.service_level_id", unresolved[0].Location)
	assert.Equal(t, "risks[0].owner", unresolved[1].Location)
	assert.Equal(t, diag.SeverityError, unresolved[1].Severity)
	// Advisory references are warnings, so they come last.
	assert.Equal(t, "risks[0].linked_views", unresolved[2].Location)
	assert.Equal(t, diag.SeverityWarn, unresolved[2].Severity)
}

func TestValidate_FailSlow(t *testing.T) {
	r := validate(t, clean().With(testfixture.Files{
		"stakeholders.yaml": "stakeholders:\n  - {id: STK-001}\n",
		"concerns.yaml":     "concerns:\n  - {id: C-001, name: a, description: d, stakeholders: [STK-002]}\n",
	}))
	assert.Equal(t, []diag.Code{diag.CodeRequiredMissing, diag.CodeUnresolvedReference, diag.CodeGap}, diagCodes(r))
	assert.Equal(t, "stakeholders[0].name", r.Diagnostics[0].Location)
	assert.Equal(t, "concerns[0].stakeholders", r.Diagnostics[1].Location)
	assert.Equal(t, 2, r.Summary.Errors)
	assert.Equal(t, 1, r.Summary.Warnings)
}

func TestValidate_StructuralFindings(t *testing.T) {
	r := validate(t, clean().With(testfixture.Files{
		"risks.yaml": `risks:
  - id: R-001
    title: [not, a, string]
    description: "  "
    type: Weather
    status: Open
    owner: STK-001
    mitigation: m
    affected_concerns: C-001
    affected_capabilities: [CAP-001, {nested: map}]
    severity: high
  - just a string
extra: true
`,
	}))
	var got []string
	for _, d := range r.Diagnostics {
		if d.Severity == diag.SeverityError {
			got = append(got, string(d.Code)+" "+d.Location)
		}
	}
	assert.Equal(t, []string{
		"UNKNOWN_FIELD risks.extra",
		"WRONG_TYPE risks[0].title",
		"REQUIRED_FIELD_MISSING risks[0].description",
		"INVALID_ENUM risks[0].type",
		"WRONG_TYPE risks[0].affected_concerns",
		"WRONG_TYPE risks[0].affected_capabilities[1]",
		"UNKNOWN_FIELD risks[0].severity",
		"WRONG_TYPE risks[1]",
	}, got)
}

func TestValidate_NestedObjectUnknownField(t *testing.T) {
	r := validate(t, clean().With(testfixture.Files{
		"concerns.yaml": `concerns:
  - id: C-001
    name: a
    description: d
    stakeholders: [STK-001]
    measurement: {sli: p99, unit: ms}
`,
	}))
	unknown := r.Filter(diag.CodeUnknownField)
	require.Len(t, unknown, 1)
	assert.Equal(t, "concerns[0].measurement.unit", unknown[0].Location)
}

func TestValidate_TimestampsAreStrings(t *testing.T) {
	r := validate(t, clean().With(testfixture.Files{
		"decisions.yaml": "decisions:\n  - {id: DEC-001, title: t, status: Accepted, date: 2024-05-01}\n",
	}))
	assert.Empty(t, r.Diagnostics)
}

func TestValidate_LinkSchemes(t *testing.T) {
	r := validate(t, clean().With(testfixture.Files{
		"views.yaml": `views:
  - id: VW-001
    name: ok
    diagram_links: ["https://example.com/a.png"]
  - id: VW-002
    name: bad
    diagram_links: ["file:///etc/passwd"]
`,
	}))
	links := r.Filter(diag.CodeInvalidExternalLink)
	require.Len(t, links, 1)
	assert.Equal(t, "views[1].diagram_links", links[0].Location)
	assert.Len(t, r.Diagnostics, 1)
}

func TestValidate_LinkExtensionPolicy(t *testing.T) {
	files := clean().With(testfixture.Files{
		"views.yaml": `views:
  - {id: VW-001, name: a, diagram_links: ["https://example.com/a.PNG", "https://example.com/page"]}
`,
	})
	r := validate(t, files)
	assert.Empty(t, r.Diagnostics)

	r = validate(t, files, WithLinkPolicy(LinkPolicy{Schemes: []string{"https"}, Extensions: []string{".png", "svg"}}))
	ext := r.Filter(diag.CodeInvalidLinkExtension)
	require.Len(t, ext, 1)
	assert.Contains(t, ext[0].Message, "https://example.com/page")
}

func TestLinkPolicy_Check(t *testing.T) {
	p := DefaultLinkPolicy()
	for _, ok := range []string{"http://a.example/x", "HTTPS://a.example/x.png"} {
		_, _, valid := p.Check(ok)
		assert.True(t, valid, ok)
	}
	for _, bad := range []string{"ftp://a.example/x", "diagrams/a.png", "https:///nohost", "file:///etc/passwd", "%zz"} {
		code, reason, valid := p.Check(bad)
		assert.False(t, valid, bad)
		assert.Equal(t, diag.CodeInvalidExternalLink, code, bad)
		assert.NotEmpty(t, reason, bad)
	}
}

func TestValidate_GapKeepsStatusOK(t *testing.T) {
	r := validate(t, clean().With(testfixture.Files{
		"capabilities.yaml": `capabilities:
  - {id: CAP-001, name: a, description: d, addresses_concerns: [C-001]}
  - {id: CAP-002, name: b, description: d, addresses_concerns: []}
`,
	}))
	require.Len(t, r.Diagnostics, 1)
	assert.Equal(t, diag.CodeGap, r.Diagnostics[0].Code)
	assert.Equal(t, "capabilities[1].addresses_concerns", r.Diagnostics[0].Location)
	assert.Equal(t, diag.StatusOK, r.Status)
}

func TestValidate_BlankReferenceElements(t *testing.T) {
	r := validate(t, clean().With(testfixture.Files{
		"capabilities.yaml": `capabilities:
  - {id: CAP-001, name: a, description: d, addresses_concerns: [C-001]}
  - {id: CAP-002, name: b, description: d, addresses_concerns: ['']}
`,
		"views.yaml": "views:\n  - {id: VW-001, name: v, diagram_links: [\"https://example.com/a.png\", \" \"]}\n",
	}))
	var got []string
	for _, d := range r.Diagnostics {
		got = append(got, string(d.Code)+" "+d.Location)
	}
	assert.Equal(t, []string{
		"REQUIRED_FIELD_MISSING capabilities[1].addresses_concerns[0]",
		"REQUIRED_FIELD_MISSING views[0].diagram_links[1]",
		"GAP capabilities[1].addresses_concerns",
	}, got)
	assert.Equal(t, diag.StatusError, r.Status)
}

func TestValidate_RepeatedKeys(t *testing.T) {
	r := validate(t, clean().With(testfixture.Files{
		"stakeholders.yaml": "stakeholders:\n  - {id: STK-001, name: a, name: b}\n",
	}))
	require.Len(t, r.Diagnostics, 1)
	assert.Equal(t, diag.CodeWrongType, r.Diagnostics[0].Code)
	assert.Equal(t, "stakeholders[0].name", r.Diagnostics[0].Location)
	assert.Contains(t, r.Diagnostics[0].Message, "more than once")
}

func TestValidate_MergeKeys(t *testing.T) {
	r := validate(t, clean().With(testfixture.Files{
		"concerns.yaml": `concerns:
  - id: C-001
    name: a
    description: d
    stakeholders: &stk [STK-001]
    measurement: &m {sli: p99 latency}
  - id: C-002
    <<: {name: b, description: shared}
    stakeholders: *stk
    measurement:
      <<: *m
      slo: "99.9%"
`,
		"capabilities.yaml": "capabilities:\n  - {id: CAP-001, name: a, description: d, addresses_concerns: [C-001, C-002]}\n",
	}))
	assert.Empty(t, r.Diagnostics)
	assert.Equal(t, diag.StatusOK, r.Status)
}

func TestValidate_IDFormat(t *testing.T) {
	r := validate(t, clean().With(testfixture.Files{
		"stakeholders.yaml": `stakeholders:
  - {id: STK-001, name: a}
  - {id: "bad id", name: b}
  - {id: 42, name: c}
`,
		"concerns.yaml": "concerns:\n  - {id: C-001, name: a, description: d, stakeholders: [STK-001, bad id, '42']}\n",
	}))
	bad := r.Filter(diag.CodeBadIDFormat)
	require.Len(t, bad, 1)
	assert.Equal(t, "stakeholders[1].id", bad[0].Location)
	assert.Equal(t, diag.SeverityError, bad[0].Severity)
	assert.Contains(t, bad[0].Message, `"bad id"`)

	wrong := r.Filter(diag.CodeWrongType)
	require.Len(t, wrong, 1)
	assert.Equal(t, "stakeholders[2].id", wrong[0].Location)
}

func TestValidate_MeasurementIsOptional(t *testing.T) {
	// A missing measurement block is a traceability warning, not a schema error.
	r := validate(t, clean().With(testfixture.Files{
		"concerns.yaml": "concerns:\n  - {id: C-001, name: a, description: d, stakeholders: [STK-001], tags: [Operational]}\n",
	}))
	assert.Equal(t, []diag.Code{diag.CodeMissingMeasurement}, diagCodes(r))
	assert.Equal(t, "concerns[0].measurement", r.Diagnostics[0].Location)
	assert.Equal(t, diag.StatusOK, r.Status)
}

func TestValidate_MissingFiles(t *testing.T) {
	r := validate(t, clean())
	assert.Empty(t, r.Diagnostics, "absent optional risks.yaml")

	r = validate(t, clean().Without("concerns.yaml").With(testfixture.Files{
		"risks.yaml": "risks:\n  - {id: R-001}\n",
	}))
	require.Len(t, r.Diagnostics, 1)
	assert.Equal(t, diag.CodeMissingFile, r.Diagnostics[0].Code)
	assert.Equal(t, "concerns", r.Diagnostics[0].Location)
	assert.Equal(t, diag.StatusError, r.Status)
}

func TestValidate_Idempotent(t *testing.T) {
	root := testfixture.Root(t, "demo", clean().With(testfixture.Files{
		"risks.yaml": "risks:\n  - {id: R-001, title: t, type: Bad, owner: STK-9}\n  - {id: R-001}\n",
		"views.yaml": "views:\n  - {id: VW-001, name: v, diagram_links: [ftp://x]}\n",
	}))
	e := newTestEngine(t)

	first, err := json.Marshal(e.Validate(context.Background(), root, "demo"))
	require.NoError(t, err)
	second, err := json.Marshal(e.Validate(context.Background(), root, "demo"))
	require.NoError(t, err)
	assert.True(t, bytes.Equal(first, second))
	assert.Contains(t, string(first), `"diagnostics":[{`)
}

func TestValidateAll_PreservesOrder(t *testing.T) {
	root := t.TempDir()
	testfixture.Architecture(t, root, "a", clean())
	testfixture.Architecture(t, root, "b", clean().Without("capabilities.yaml"))
	testfixture.Architecture(t, root, "c", clean())

	reports, err := newTestEngine(t, WithConcurrency(2)).ValidateAll(context.Background(), root, []string{"a", "b", "c", "missing"})
	require.NoError(t, err)
	require.Len(t, reports, 4)
	assert.Equal(t, "a", reports[0].ArchitectureID)
	assert.True(t, reports[0].OK())
	assert.False(t, reports[1].OK())
	assert.True(t, reports[2].OK())
	assert.Equal(t, []diag.Code{diag.CodeArchNotFound}, diagCodes(reports[3]))
}

func TestValidateAll_Cancelled(t *testing.T) {
	root := testfixture.Root(t, "a", clean())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := newTestEngine(t).ValidateAll(ctx, root, []string{"a"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNew_RejectsBadConfiguration(t *testing.T) {
	_, err := New(schema.Default(), WithLinkPolicy(LinkPolicy{}))
	assert.Error(t, err)

	_, err = New(schema.Default(), WithRules([]gaps.Rule{{Name: "x", Kind: gaps.KindEmpty, Entity: "nope", Code: "X", Message: "m", Fields: []string{"a"}}}))
	assert.ErrorContains(t, err, "gap rules")
}

func TestValidate_CustomRulesReplaceDefaults(t *testing.T) {
	r := validate(t, clean().With(testfixture.Files{
		"capabilities.yaml": "capabilities:\n  - {id: CAP-001, name: a, description: d}\n",
	}), WithRules(nil))
	assert.Empty(t, r.Diagnostics)
}
