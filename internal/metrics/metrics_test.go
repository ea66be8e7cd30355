// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordComparison(t *testing.T) {
	before := testutil.ToFloat64(RecordsTotal.WithLabelValues("primary_only"))
	RecordComparison(time.Millisecond, 3, 2, 1)
	assert.Equal(t, before+2, testutil.ToFloat64(RecordsTotal.WithLabelValues("primary_only")))
}

func TestRecordIssuesSkipsZero(t *testing.T) {
	before := testutil.ToFloat64(IssuesTotal.WithLabelValues("quantity"))
	RecordIssues("quantity", 0)
	RecordIssues("quantity", 4)
	assert.Equal(t, before+4, testutil.ToFloat64(IssuesTotal.WithLabelValues("quantity")))
}

func TestRecordExport(t *testing.T) {
	before := testutil.ToFloat64(ExportsTotal.WithLabelValues("pdf"))
	RecordExport("pdf")
	assert.Equal(t, before+1, testutil.ToFloat64(ExportsTotal.WithLabelValues("pdf")))
}

func TestHandlerServesMetrics(t *testing.T) {
	RecordDuroRequest("search", "ok", 10*time.Millisecond)
	RecordExtractionError("primary", "column")

	srv := httptest.NewServer(Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Contains(t, string(body), "bom_reconcile_duro_requests_total")
	assert.Contains(t, string(body), "bom_reconcile_extraction_errors_total")
}
