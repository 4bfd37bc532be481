package observability

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
)

func newTestEngine(logger zerolog.Logger) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestLogger(logger))
	r.Use(RequestMetricsMiddleware("pmsense-test"))
	r.GET("/measurements/latest", func(c *gin.Context) {
		c.Status(http.StatusNotFound)
	})
	return r
}

func serve(r *gin.Engine, path string) {
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
}

func TestMetricsLabelUnmatchedRoutes(t *testing.T) {
	RegisterMetrics()
	r := newTestEngine(zerolog.Nop())

	serve(r, "/wp-login.php")
	serve(r, "/.env")
	serve(r, "/measurements/latest")

	unmatched := httpRequests.WithLabelValues("pmsense-test", "GET", unmatchedRoute, "404")
	if got := testutil.ToFloat64(unmatched); got != 2 {
		t.Fatalf("expected 2 unmatched requests, got %v", got)
	}
	routed := httpRequests.WithLabelValues("pmsense-test", "GET", "/measurements/latest", "404")
	if got := testutil.ToFloat64(routed); got != 1 {
		t.Fatalf("expected 1 routed request, got %v", got)
	}
}

func TestRequestLoggerKeepsRawPathAndLevels(t *testing.T) {
	var buf bytes.Buffer
	r := newTestEngine(zerolog.New(&buf).Level(zerolog.TraceLevel))

	serve(r, "/wp-login.php")
	out := buf.String()
	if !strings.Contains(out, `"path":"/wp-login.php"`) {
		t.Fatalf("expected raw path in log line, got %s", out)
	}
	if !strings.Contains(out, `"level":"warn"`) {
		t.Fatalf("expected 404 logged at warn, got %s", out)
	}
}
