package api

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/adlint/internal/diag"
	"github.com/ajitpratap0/adlint/internal/loader"
	"github.com/ajitpratap0/adlint/internal/schema"
	"github.com/ajitpratap0/adlint/internal/testfixture"
	"github.com/ajitpratap0/adlint/internal/validator"
	"github.com/ajitpratap0/adlint/internal/workspace"
)

// newTestServer serves a specs root holding one architecture "demo".
func newTestServer(t *testing.T, authToken string) (*httptest.Server, string) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	reg := schema.Default()
	root := testfixture.Root(t, "demo", testfixture.Minimal())
	engine, err := validator.New(reg, validator.WithLogger(logger))
	require.NoError(t, err)
	srv := NewServer(engine, workspace.New(root, reg), logger, authToken, 0)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts, root
}

func do(t *testing.T, method, url, body string, header http.Header) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	for k, v := range header {
		req.Header[k] = v
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decode(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func TestHealthz(t *testing.T) {
	ts, _ := newTestServer(t, "secret")
	resp := do(t, http.MethodGet, ts.URL+"/healthz", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get(RequestIDHeader))
}

func TestRequestIDIsEchoed(t *testing.T) {
	ts, _ := newTestServer(t, "")
	resp := do(t, http.MethodGet, ts.URL+"/healthz", "", http.Header{RequestIDHeader: {"abc-123"}})
	assert.Equal(t, "abc-123", resp.Header.Get(RequestIDHeader))
}

func TestAuth(t *testing.T) {
	ts, _ := newTestServer(t, "secret")

	resp := do(t, http.MethodGet, ts.URL+"/v1/architectures", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = do(t, http.MethodGet, ts.URL+"/v1/architectures", "", http.Header{"Authorization": {"Bearer wrong"}})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = do(t, http.MethodGet, ts.URL+"/v1/architectures", "", http.Header{"Authorization": {"Bearer secret"}})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body architecturesResponse
	decode(t, resp, &body)
	assert.Equal(t, []string{"demo"}, body.Architectures)
}

func TestMetadataAndSchema(t *testing.T) {
	ts, _ := newTestServer(t, "")

	resp := do(t, http.MethodGet, ts.URL+"/v1/metadata", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var meta schema.Metadata
	decode(t, resp, &meta)
	assert.Equal(t, schema.Glossary, meta.EntityOrder[0])
	assert.Equal(t, "CAP", meta.Entities[schema.Capabilities].IDPrefix)

	resp = do(t, http.MethodGet, ts.URL+"/v1/schema/views", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"format":"uri"`)

	resp = do(t, http.MethodGet, ts.URL+"/v1/schema/widgets", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestValidateEndpoint(t *testing.T) {
	ts, _ := newTestServer(t, "")

	resp := do(t, http.MethodPost, ts.URL+"/v1/architectures/demo/validate", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var report diag.Report
	decode(t, resp, &report)
	assert.Equal(t, diag.StatusOK, report.Status)
	assert.Equal(t, "demo", report.ArchitectureID)
	require.Len(t, report.Diagnostics, 1)
	assert.Equal(t, diag.CodeGap, report.Diagnostics[0].Code)

	resp = do(t, http.MethodPost, ts.URL+"/v1/architectures/missing/validate", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestPutThenValidate(t *testing.T) {
	ts, _ := newTestServer(t, "")

	body := `{"records":[{"id":"C-001","name":"Availability","description":"d","stakeholders":"STK-001 STK-002 STK-404"}]}`
	resp := do(t, http.MethodPut, ts.URL+"/v1/architectures/demo/entities/concerns", body, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = do(t, http.MethodGet, ts.URL+"/v1/architectures/demo/entities/concerns", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var got entityBody
	decode(t, resp, &got)
	require.Len(t, got.Records, 1)
	assert.Equal(t, []any{"STK-001", "STK-002", "STK-404"}, got.Records[0]["stakeholders"])

	resp = do(t, http.MethodPost, ts.URL+"/v1/architectures/demo/validate", "", nil)
	var report diag.Report
	decode(t, resp, &report)
	assert.Equal(t, diag.StatusError, report.Status)
	unresolved := report.Filter(diag.CodeUnresolvedReference)
	require.Len(t, unresolved, 1)
	assert.Contains(t, unresolved[0].Message, "STK-404")
}

func TestPutRejections(t *testing.T) {
	ts, root := newTestServer(t, "")
	testfixture.Architecture(t, root, loader.RootID, testfixture.Minimal())

	cases := []struct {
		name   string
		path   string
		body   string
		status int
	}{
		{"root is read-only", "/v1/architectures/_root/entities/stakeholders", `{"records":[]}`, http.StatusBadRequest},
		{"unknown entity", "/v1/architectures/demo/entities/widgets", `{"records":[]}`, http.StatusNotFound},
		{"unknown architecture", "/v1/architectures/other/entities/stakeholders", `{"records":[]}`, http.StatusNotFound},
		{"bad json", "/v1/architectures/demo/entities/stakeholders", `{`, http.StatusBadRequest},
		{"missing records", "/v1/architectures/demo/entities/stakeholders", `{}`, http.StatusBadRequest},
		{"null record", "/v1/architectures/demo/entities/stakeholders", `{"records":[null]}`, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := do(t, http.MethodPut, ts.URL+tc.path, tc.body, nil)
			assert.Equal(t, tc.status, resp.StatusCode)
		})
	}
}

func TestPutBodyLimit(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	reg := schema.Default()
	root := testfixture.Root(t, "demo", testfixture.Minimal())
	engine, err := validator.New(reg, validator.WithLogger(logger))
	require.NoError(t, err)
	ts := httptest.NewServer(NewServer(engine, workspace.New(root, reg), logger, "", 64).Handler())
	t.Cleanup(ts.Close)

	big := `{"records":[{"id":"STK-001","name":"` + string(bytes.Repeat([]byte("x"), 200)) + `"}]}`
	resp := do(t, http.MethodPut, ts.URL+"/v1/architectures/demo/entities/stakeholders", big, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestMetricsEndpoint(t *testing.T) {
	ts, _ := newTestServer(t, "secret")
	_ = do(t, http.MethodPost, ts.URL+"/v1/architectures/demo/validate", "", http.Header{"Authorization": {"Bearer secret"}})

	resp := do(t, http.MethodGet, ts.URL+"/metrics", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "adlint_validation_runs_total")
}
