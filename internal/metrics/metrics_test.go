package metrics

import (
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestMetricsExposure(t *testing.T) {
	EtlRuns.Inc()
	IncFile(OUTCOME_OK)
	IncFile(OUTCOME_FAILED)
	RecordsWritten.Add(3)
	MalformedRecords.Inc()
	IncCache(CACHE_HIT)
	SinkUp.Set(1)
	ObserveRunDuration(time.Now().Add(-1500 * time.Millisecond))

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics status: %d", rec.Code)
	}
	body := rec.Body.String()
	for _, m := range []string{
		"wctweets_etl_runs_total",
		`wctweets_etl_files_total{outcome="failed"}`,
		"wctweets_etl_records_written_total",
		"wctweets_etl_malformed_records_total",
		"wctweets_etl_run_duration_seconds",
		`wctweets_dashboard_cache_lookups_total{result="hit"}`,
		"wctweets_sink_up 1",
	} {
		if !strings.Contains(body, m) {
			t.Fatalf("expected metric %s in body", m)
		}
	}
}

func TestStartServerReportsBindFailure(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer ln.Close()

	if err := StartServer(ln.Addr().String()); err == nil {
		t.Fatal("expected error for an address already in use")
	}
	if err := StartServer(""); err != nil {
		t.Fatalf("empty addr should disable the server, got %v", err)
	}
}
