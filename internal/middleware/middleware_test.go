package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"asset-thumbnails/internal/logging"
	"asset-thumbnails/internal/metrics"
)

func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	logging.SetOutput(&buf)
	prev := logging.GetLevel()
	logging.SetLevel(logging.LevelDebug)
	t.Cleanup(func() {
		logging.SetOutput(os.Stderr)
		logging.SetLevel(prev)
	})
	return &buf
}

func TestSanitizeLogField(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", "/api/thumbnail", "/api/thumbnail"},
		{"newline", "a\nb", "a b"},
		{"carriage return", "a\rb", "a b"},
		{"null byte", "a\x00b", "ab"},
		{"ansi escape", "\x1b[31mred", "[31mred"},
		{"tab kept", "a\tb", "a\tb"},
		{"bell stripped", "a\x07b", "ab"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sanitizeLogField(tt.input); got != tt.want {
				t.Errorf("sanitizeLogField(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{"forwarded list", map[string]string{"X-Forwarded-For": "10.0.0.1, 10.0.0.2"}, "1.2.3.4:5", "10.0.0.1"},
		{"real ip", map[string]string{"X-Real-IP": "10.0.0.9"}, "1.2.3.4:5", "10.0.0.9"},
		{"remote addr", nil, "192.168.1.1:4321", "192.168.1.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			if got := getClientIP(r); got != tt.want {
				t.Errorf("getClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestResponseWriter(t *testing.T) {
	rec := httptest.NewRecorder()
	rw := newResponseWriter(rec)

	rw.WriteHeader(http.StatusTeapot)
	rw.WriteHeader(http.StatusOK)
	if _, err := rw.Write([]byte("hello")); err != nil {
		t.Fatal(err)
	}

	if rw.statusCode != http.StatusTeapot || rec.Code != http.StatusTeapot {
		t.Errorf("status = %d/%d, want first WriteHeader to win", rw.statusCode, rec.Code)
	}
	if rw.bytesWritten != 5 {
		t.Errorf("bytesWritten = %d, want 5", rw.bytesWritten)
	}
}

func TestLogger(t *testing.T) {
	tests := []struct {
		name       string
		path       string
		config     LoggingConfig
		wantLogged bool
	}{
		{"api request", "/api/thumbnail?path=/a.jpg", LoggingConfig{}, true},
		{"health skipped", "/health", LoggingConfig{LogHealthChecks: false}, false},
		{"health logged", "/health", LoggingConfig{LogHealthChecks: true}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := captureLogs(t)
			handler := Logger(tt.config)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusNotFound)
			}))

			handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, tt.path, nil))

			logged := strings.Contains(buf.String(), " 404 ")
			if logged != tt.wantLogged {
				t.Errorf("logged = %v, want %v (output %q)", logged, tt.wantLogged, buf.String())
			}
		})
	}
}

func TestMetrics_UsesRouteTemplate(t *testing.T) {
	router := mux.NewRouter()
	router.Use(Metrics(DefaultMetricsConfig()))
	router.HandleFunc("/api/thumbnail", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}).Methods(http.MethodGet)
	router.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {}).Methods(http.MethodGet)

	counter := metrics.HTTPRequestsTotal.WithLabelValues(http.MethodGet, "/api/thumbnail", "202")
	before := testutil.ToFloat64(counter)

	for _, p := range []string{"/a.jpg", "/b.jpg"} {
		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/thumbnail?path="+p, nil))
	}

	if got := testutil.ToFloat64(counter) - before; got != 2 {
		t.Errorf("requests counted = %v, want 2", got)
	}

	health := metrics.HTTPRequestsTotal.WithLabelValues(http.MethodGet, "/health", "200")
	beforeHealth := testutil.ToFloat64(health)
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))
	if got := testutil.ToFloat64(health) - beforeHealth; got != 0 {
		t.Errorf("health requests counted = %v, want 0", got)
	}
}
