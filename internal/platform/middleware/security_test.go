package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSecurityMiddlewareSetsHeaders(t *testing.T) {
	h := Security()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	req := httptest.NewRequest(http.MethodGet, "/greeting/normal", nil)
	resp := httptest.NewRecorder()

	h.ServeHTTP(resp, req)

	tests := []struct {
		header string
		want   string
	}{
		{"Cache-Control", "no-store"},
		{"Content-Security-Policy", "frame-ancestors 'none'"},
		{"Cross-Origin-Opener-Policy", "same-origin"},
		{"Cross-Origin-Resource-Policy", "same-origin"},
		{"Referrer-Policy", "strict-origin-when-cross-origin"},
		{"X-Content-Type-Options", "nosniff"},
		{"X-Frame-Options", "DENY"},
	}
	for _, tt := range tests {
		if got := resp.Header().Get(tt.header); got != tt.want {
			t.Errorf("%s: expected %q, got %q", tt.header, tt.want, got)
		}
	}
}

func TestSecurityMiddlewareDoesNotOverrideDownstreamHeaders(t *testing.T) {
	h := Security()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "max-age=3600")
		w.WriteHeader(http.StatusOK)
	}))
	req := httptest.NewRequest(http.MethodGet, "/greeting/normal", nil)
	resp := httptest.NewRecorder()

	h.ServeHTTP(resp, req)

	if got := resp.Header().Get("Cache-Control"); got != "max-age=3600" {
		t.Errorf("expected downstream Cache-Control to be preserved, got %q", got)
	}
}

func TestSecurityMiddlewareSkipsExcludedPaths(t *testing.T) {
	h := Security("/api-docs", "/metrics/admin")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		path        string
		wantHeaders bool
	}{
		{"/api-docs", false},
		{"/metrics/admin/", false},
		{"/metrics/admin/threads", false},
		{"/greeting/normal", true},
		{"/health", true},
	}

	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, tt.path, nil)
		resp := httptest.NewRecorder()
		h.ServeHTTP(resp, req)

		hasHeaders := resp.Header().Get("X-Content-Type-Options") == "nosniff"
		if hasHeaders != tt.wantHeaders {
			t.Errorf("%s: expected headers=%v, got headers=%v", tt.path, tt.wantHeaders, hasHeaders)
		}
	}
}
