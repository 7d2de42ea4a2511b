package metrics

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorders(t *testing.T) {
	before := testutil.ToFloat64(RunsTotal.WithLabelValues("failure"))
	RecordRun(false)
	assert.Equal(t, before+1, testutil.ToFloat64(RunsTotal.WithLabelValues("failure")))

	before = testutil.ToFloat64(RowsTotal.WithLabelValues(RowsDropped))
	RecordRows(RowsDropped, 3)
	assert.Equal(t, before+3, testutil.ToFloat64(RowsTotal.WithLabelValues(RowsDropped)))

	before = testutil.ToFloat64(ValuesFilled.WithLabelValues("price"))
	RecordFills(map[string]int{"price": 2, "store_location": 1})
	assert.Equal(t, before+2, testutil.ToFloat64(ValuesFilled.WithLabelValues("price")))

	beforeBytes := testutil.ToFloat64(UploadBytes.WithLabelValues("sales"))
	RecordUpload("sales", true, 128)
	RecordUpload("sales", false, 64)
	assert.Equal(t, beforeBytes+128, testutil.ToFloat64(UploadBytes.WithLabelValues("sales")))
	assert.GreaterOrEqual(t, testutil.ToFloat64(UploadsTotal.WithLabelValues("sales", "failure")), 1.0)

	RecordStage("clean", 0.2)
	assert.Equal(t, 1, testutil.CollectAndCount(StageDuration, "sales_etl_pipeline_stage_duration_seconds"))
}

func TestPush(t *testing.T) {
	var (
		method string
		path   string
		body   []byte
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method, path = r.Method, r.URL.Path
		body, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	RecordRun(true)
	require.NoError(t, Push(context.Background(), server.URL, "sales_etl", "run-1"))
	assert.Equal(t, http.MethodPut, method)
	assert.Equal(t, "/metrics/job/sales_etl/run_id/run-1", path)
	assert.NotEmpty(t, body)
}

func TestPush_Error(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	assert.Error(t, Push(context.Background(), server.URL, "sales_etl", "run-1"))
}
