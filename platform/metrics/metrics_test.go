package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body, _ := io.ReadAll(rec.Body)
	return string(body)
}

func TestRecorders(t *testing.T) {
	m := New(func() float64 { return 3 })

	m.ScanFinished("resolved")
	m.ScanFinished("resolved")
	m.ScanFinished("no_sign")
	m.Resolved("table")
	m.TableImported(true)
	m.TableImported(false)
	m.ExtractionObserved("gemini", 1500*time.Millisecond)

	body := scrape(t, m)
	for _, want := range []string{
		`bezirk_scanner_scans_total{outcome="resolved"} 2`,
		`bezirk_scanner_scans_total{outcome="no_sign"} 1`,
		`bezirk_scanner_resolutions_total{source="table"} 1`,
		`bezirk_scanner_lookup_table_imports_total{result="failed"} 1`,
		`bezirk_scanner_extraction_duration_seconds_count{provider="gemini"} 1`,
		`bezirk_scanner_active_sessions 3`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected %q in scrape output", want)
		}
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.ScanFinished("resolved")
	m.Resolved("rule")
	m.TableImported(true)
	m.ExtractionObserved("gemini", time.Second)
}
