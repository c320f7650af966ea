package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/fxamacker/cbor/v2"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	greetinghttp "github.com/niatpaceya/greeting-metrics/internal/http/greeting"
	"github.com/niatpaceya/greeting-metrics/internal/http/health"
	"github.com/niatpaceya/greeting-metrics/internal/platform/admin"
	"github.com/niatpaceya/greeting-metrics/internal/platform/config"
)

func testConfig() config.Config {
	return config.Config{
		Port:                "0",
		GreetingDelay:       0,
		ShutdownTimeout:     time.Second,
		HealthMaxGoroutines: 100000,
		LogLevel:            "info",
	}
}

func testApplication(t *testing.T) *application {
	t.Helper()
	app, err := newApplication(testConfig())
	if err != nil {
		t.Fatalf("new application: %v", err)
	}
	app.router.Get("/panic", func(http.ResponseWriter, *http.Request) {
		panic("boom")
	})
	return app
}

func serve(app *application, method, path, accept string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	req.Header.Set(chimiddleware.RequestIDHeader, "main-test-req")
	if accept != "" {
		req.Header.Set("Accept", accept)
	}
	resp := httptest.NewRecorder()
	app.router.ServeHTTP(resp, req)
	return resp
}

func TestHealth(t *testing.T) {
	app := testApplication(t)
	resp := serve(app, http.MethodGet, health.Path, "application/json")

	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200 got %d", resp.Code)
	}
	var body health.Response
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if body.Status != "healthy" {
		t.Fatalf("expected status 'healthy', got %s", body.Status)
	}
}

func TestGreetingEndpoints(t *testing.T) {
	app := testApplication(t)

	resp := serve(app, http.MethodGet, "/greeting/normal?name=Alice", "")
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	var msg greetinghttp.Message
	if err := json.Unmarshal(resp.Body.Bytes(), &msg); err != nil {
		t.Fatalf("failed to unmarshal greeting: %v", err)
	}
	if msg.ID != 1 || msg.Content != "Hello, Alice!" {
		t.Fatalf("unexpected greeting %+v", msg)
	}
	if resp.Header().Get(chimiddleware.RequestIDHeader) != "main-test-req" {
		t.Fatalf("expected request id echoed")
	}

	resp = serve(app, http.MethodGet, "/greeting/nested-method2", "application/cbor")
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if err := cbor.Unmarshal(resp.Body.Bytes(), &msg); err != nil {
		t.Fatalf("failed to unmarshal cbor greeting: %v", err)
	}
	if msg.ID != 2 || msg.Content != "Hello, World!" {
		t.Fatalf("unexpected greeting %+v", msg)
	}

	resp = serve(app, http.MethodGet, "/greeting/error-method", "")
	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 got %d", resp.Code)
	}
	if app.service.Counter().Current() != 2 {
		t.Fatalf("error-method consumed an id: counter at %d", app.service.Counter().Current())
	}
}

func TestNotFoundReturnsProblemDetails(t *testing.T) {
	app := testApplication(t)
	resp := serve(app, http.MethodGet, "/missing", "")

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
	if ct := resp.Header().Get("Content-Type"); ct != "application/problem+json" {
		t.Fatalf("expected application/problem+json content type, got %q", ct)
	}
	var problem huma.ErrorModel
	if err := json.Unmarshal(resp.Body.Bytes(), &problem); err != nil {
		t.Fatalf("failed to unmarshal 404 response: %v", err)
	}
	if problem.Status != http.StatusNotFound || problem.Detail != "resource not found" {
		t.Fatalf("unexpected problem %+v", problem)
	}
}

func TestNotFoundNegotiatesCBOR(t *testing.T) {
	app := testApplication(t)
	resp := serve(app, http.MethodGet, "/missing", "application/cbor")

	if ct := resp.Header().Get("Content-Type"); ct != "application/problem+cbor" {
		t.Fatalf("expected application/problem+cbor content type, got %q", ct)
	}
	var problem huma.ErrorModel
	if err := cbor.Unmarshal(resp.Body.Bytes(), &problem); err != nil {
		t.Fatalf("failed to unmarshal cbor problem: %v", err)
	}
	if problem.Status != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", problem.Status)
	}
}

func TestMethodNotAllowedReturnsProblemDetails(t *testing.T) {
	app := testApplication(t)
	resp := serve(app, http.MethodPost, health.Path, "")

	if resp.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405 got %d", resp.Code)
	}
	if allow := resp.Header().Get("Allow"); !strings.Contains(allow, http.MethodGet) {
		t.Fatalf("expected Allow header to list GET, got %q", allow)
	}
	var problem huma.ErrorModel
	if err := json.Unmarshal(resp.Body.Bytes(), &problem); err != nil {
		t.Fatalf("failed to unmarshal 405 response: %v", err)
	}
	if !strings.Contains(problem.Detail, "POST") {
		t.Fatalf("expected detail to mention POST, got %s", problem.Detail)
	}
}

func TestRecovererReturnsProblemDetails(t *testing.T) {
	app := testApplication(t)
	resp := serve(app, http.MethodGet, "/panic", "")

	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 got %d", resp.Code)
	}
	var problem huma.ErrorModel
	if err := json.Unmarshal(resp.Body.Bytes(), &problem); err != nil {
		t.Fatalf("failed to unmarshal 500 response: %v", err)
	}
	if problem.Detail != "internal server error" {
		t.Fatalf("unexpected detail: %s", problem.Detail)
	}
}

func TestSecurityHeadersSkipAdmin(t *testing.T) {
	app := testApplication(t)

	resp := serve(app, http.MethodGet, "/greeting/normal", "")
	if resp.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Fatalf("expected security headers on API routes")
	}
	resp = serve(app, http.MethodGet, admin.MountPath+"/ping", "")
	if resp.Code != http.StatusOK {
		t.Fatalf("expected admin ping 200, got %d", resp.Code)
	}
	if resp.Header().Get("X-Content-Type-Options") != "" {
		t.Fatalf("expected admin surface to skip security headers")
	}
}

func TestAdminMetricsIncludeRequests(t *testing.T) {
	app := testApplication(t)
	serve(app, http.MethodGet, "/greeting/normal", "")

	resp := serve(app, http.MethodGet, admin.MountPath+"/metrics", "")
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	body := resp.Body.String()
	if !strings.Contains(body, `http_requests_total{method="GET",route="/greeting/normal",status="200"} 1`) {
		t.Fatalf("expected request counter in exposition")
	}
	if !strings.Contains(body, "greeting_responses_seconds") {
		t.Fatalf("expected responses timer in exposition")
	}
}

func TestWildcardAcceptReturnsJSON(t *testing.T) {
	app := testApplication(t)
	for _, accept := range []string{"*/*", "application/*", "text/plain", ""} {
		t.Run(accept, func(t *testing.T) {
			resp := serve(app, http.MethodGet, "/greeting/normal", accept)
			if resp.Code != http.StatusOK {
				t.Fatalf("expected 200 OK, got %d", resp.Code)
			}
			if ct := resp.Header().Get("Content-Type"); ct != "application/json" {
				t.Fatalf("expected application/json, got %q", ct)
			}
		})
	}
}

func TestOpenAPICBORContentTypes(t *testing.T) {
	app := testApplication(t)

	op := app.api.OpenAPI().Paths["/greeting/normal"].Get
	if op == nil {
		t.Fatal("expected GET /greeting/normal operation")
	}
	resp200 := op.Responses["200"]
	if resp200 == nil {
		t.Fatal("expected 200 response")
	}
	if _, ok := resp200.Content["application/json"]; !ok {
		t.Fatal("expected application/json in 200 response content")
	}
	if _, ok := resp200.Content["application/cbor"]; !ok {
		t.Fatal("expected application/cbor in 200 response content")
	}
}

func TestWriteTimeoutExceedsDelay(t *testing.T) {
	for _, delay := range []time.Duration{0, 2 * time.Second, time.Minute} {
		if got := writeTimeout(delay); got <= delay {
			t.Fatalf("write timeout %v does not exceed delay %v", got, delay)
		}
	}
	srv := newServer(testConfig(), http.NotFoundHandler())
	if srv.Addr != ":0" {
		t.Fatalf("unexpected addr %q", srv.Addr)
	}
	if srv.ReadHeaderTimeout == 0 || srv.MaxHeaderBytes == 0 {
		t.Fatalf("expected header limits to be set")
	}
}

func TestRunShutsDownOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- run(ctx, testConfig())
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("expected clean shutdown, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for shutdown")
	}
}

func TestRunReturnsListenError(t *testing.T) {
	cfg := testConfig()
	cfg.Port = "-1"

	select {
	case err := <-runAsync(cfg):
		if err == nil || !strings.Contains(err.Error(), "listen on") {
			t.Fatalf("expected listen error, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for listen error")
	}
}

func runAsync(cfg config.Config) <-chan error {
	done := make(chan error, 1)
	go func() {
		done <- run(context.Background(), cfg)
	}()
	return done
}
