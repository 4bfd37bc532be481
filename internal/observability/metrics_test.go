package observability

import (
	"testing"
	"time"

	"github.com/danmuck/pmsense/internal/testutil/testlog"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRegisterMetricsAndRecordersAreSafe(t *testing.T) {
	testlog.Start(t)
	RegisterMetrics()
	RegisterMetrics()

	RecordHTTPRequest("pmsense", "GET", "/health", 200, 12*time.Millisecond)
	RecordDecode("ok", 900*time.Millisecond)
	RecordDecode("checksum_mismatch", 0)
	RecordSinkError("file")
	SetReading("pm_standard", "pm25", 17, time.Unix(1700000000, 0))

	if got := testutil.ToFloat64(decodeTotal.WithLabelValues("checksum_mismatch")); got < 1 {
		t.Fatalf("expected checksum_mismatch counted, got %v", got)
	}
	if got := testutil.ToFloat64(pointValues.WithLabelValues("pm_standard", "pm25")); got != 17 {
		t.Fatalf("unexpected pm25 gauge: %v", got)
	}
	if got := testutil.ToFloat64(lastReading); got != 1700000000 {
		t.Fatalf("unexpected last reading timestamp: %v", got)
	}
}
