package metrics

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInc(t *testing.T) {
	before := testutil.ToFloat64(EntityWrites)
	Inc(EntityWrites)
	assert.Equal(t, before+1, testutil.ToFloat64(EntityWrites))

	c := RunsTotal.WithLabelValues("ok")
	before = testutil.ToFloat64(c)
	Inc(c)
	assert.Equal(t, before+1, testutil.ToFloat64(c))
}

func TestHandlerExportsCollectors(t *testing.T) {
	ObserveSince(RunDuration, time.Now())
	Inc(WatchRuns)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "adlint_validation_duration_seconds")
	assert.Contains(t, string(body), "adlint_watch_revalidations_total")
}
