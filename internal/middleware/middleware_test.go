package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSanitizeLogField(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", "GET", "GET"},
		{"newline forging", "a\nb", "a b"},
		{"carriage return", "a\rb", "a b"},
		{"null byte", "a\x00b", "ab"},
		{"ansi escape", "a\x1b[31mb", "a[31mb"},
		{"tab kept", "a\tb", "a\tb"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := sanitizeLogField(tc.input); got != tc.want {
				t.Errorf("got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestGetClientIP(t *testing.T) {
	t.Run("x-forwarded-for first hop", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("X-Forwarded-For", "10.1.2.3, 10.0.0.1")
		if got := getClientIP(r); got != "10.1.2.3" {
			t.Errorf("got %s", got)
		}
	})

	t.Run("remote addr fallback", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.RemoteAddr = "192.168.1.5:4242"
		if got := getClientIP(r); got != "192.168.1.5" {
			t.Errorf("got %s", got)
		}
	})
}

func TestNormalizePath(t *testing.T) {
	cases := []struct {
		path string
		want string
	}{
		{"/api/albums", "/api/albums"},
		{"/api/albums/0b84f2c1-e2d7", "/api/albums/{id}"},
		{"/api/thumbnail/2024/05/img.jpg", "/api/thumbnail/{id}"},
		{"/healthz", "/healthz"},
	}
	for _, tc := range cases {
		if got := normalizePath(tc.path); got != tc.want {
			t.Errorf("normalizePath(%q) = %q, want %q", tc.path, got, tc.want)
		}
	}
}

func TestResponseWriterCapturesStatus(t *testing.T) {
	rec := httptest.NewRecorder()
	rw := newResponseWriter(rec)

	rw.WriteHeader(http.StatusNotFound)
	rw.WriteHeader(http.StatusOK) // second call must not override
	if _, err := rw.Write([]byte("missing")); err != nil {
		t.Fatal(err)
	}

	if rw.statusCode != http.StatusNotFound {
		t.Errorf("status = %d", rw.statusCode)
	}
	if rw.bytesWritten != int64(len("missing")) {
		t.Errorf("bytes = %d", rw.bytesWritten)
	}
}

func TestMetricsMiddlewareSkipsConfiguredPaths(t *testing.T) {
	handled := 0
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handled++
		w.WriteHeader(http.StatusOK)
	})

	h := Metrics(DefaultMetricsConfig())(inner)

	for _, path := range []string{"/metrics", "/healthz", "/api/albums"} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusOK {
			t.Errorf("%s: status %d", path, rec.Code)
		}
	}
	if handled != 3 {
		t.Errorf("inner handler ran %d times, want 3", handled)
	}
}

func TestLoggerPassesThrough(t *testing.T) {
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	h := Logger(DefaultLoggingConfig())(inner)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/albums", nil))
	if rec.Code != http.StatusTeapot {
		t.Errorf("status = %d", rec.Code)
	}
}
