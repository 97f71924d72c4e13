package httpx

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.eggybyte.com/codestart/internal/errors"
	"go.eggybyte.com/codestart/internal/testingx"
)

type bindTarget struct {
	ArtifactID string   `json:"artifactId" validate:"required"`
	Extensions []string `json:"extensions"`
}

func TestBindAndValidate(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{"valid", `{"artifactId":"app","extensions":["resteasy"]}`, false},
		{"empty body", ``, true},
		{"malformed", `{"artifactId":`, true},
		{"unknown field", `{"artifactId":"app","colour":"blue"}`, true},
		{"missing required", `{"extensions":[]}`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req *http.Request
			if tt.body == "" {
				req = httptest.NewRequest(http.MethodPost, "/", http.NoBody)
			} else {
				req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			}

			var target bindTarget
			err := BindAndValidate(req, &target)
			if tt.wantErr {
				testingx.AssertError(t, err, errors.CodeInvalidRequest)
				return
			}
			testingx.AssertNoError(t, err)
			if target.ArtifactID != "app" {
				t.Errorf("Expected app, got %s", target.ArtifactID)
			}
		})
	}
}

func TestStatusOf(t *testing.T) {
	tests := []struct {
		code errors.Code
		want int
	}{
		{errors.CodeUnknownExtension, http.StatusBadRequest},
		{errors.CodeIncompatibleExtension, http.StatusBadRequest},
		{errors.CodeUnsupportedBuildTool, http.StatusBadRequest},
		{errors.CodeUnsupportedLanguage, http.StatusBadRequest},
		{errors.CodeInvalidRequest, http.StatusBadRequest},
		{errors.CodeFileConflict, http.StatusInternalServerError},
		{errors.CodeDependencyCycle, http.StatusInternalServerError},
		{errors.CodeInternal, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			if got := StatusOf(tt.code); got != tt.want {
				t.Errorf("Expected %d, got %d", tt.want, got)
			}
		})
	}
}

func TestWriteError(t *testing.T) {
	rec := httptest.NewRecorder()
	err := errors.Build(errors.CodeUnknownExtension).
		WithMsg("unknown extension").
		WithDetail("extension", "nope").
		Err()

	if werr := WriteError(rec, err); werr != nil {
		t.Fatal(werr)
	}
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		t.Errorf("Expected JSON content type, got %s", ct)
	}

	var body errors.Body
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body.Error != errors.CodeUnknownExtension || body.Message != "unknown extension" {
		t.Errorf("Unexpected body %+v", body)
	}
	if len(body.Details) != 1 || body.Details[0].Value != "nope" {
		t.Errorf("Expected extension detail, got %v", body.Details)
	}
}

func TestNotFoundAndMethodNotAllowed(t *testing.T) {
	rec := httptest.NewRecorder()
	NotFoundHandler()(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	if rec.Code != http.StatusNotFound || !strings.Contains(rec.Body.String(), "/nope") {
		t.Errorf("Expected 404 naming the path, got %d %s", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	MethodNotAllowedHandler()(rec, httptest.NewRequest(http.MethodDelete, "/api/extensions", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("Expected 405, got %d", rec.Code)
	}
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
}

func TestSecureMiddleware(t *testing.T) {
	headers := DefaultSecurityHeaders()
	headers.StrictTransportSec = true
	headers.ContentSecurityPolicy = "default-src 'none'"

	rec := httptest.NewRecorder()
	SecureMiddleware(headers)(okHandler()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	want := map[string]string{
		"X-Content-Type-Options":    "nosniff",
		"X-Frame-Options":           "DENY",
		"Referrer-Policy":           "no-referrer",
		"Strict-Transport-Security": "max-age=31536000; includeSubDomains",
		"Content-Security-Policy":   "default-src 'none'",
	}
	for k, v := range want {
		if got := rec.Header().Get(k); got != v {
			t.Errorf("Expected %s=%q, got %q", k, v, got)
		}
	}
}

func TestCORSMiddleware(t *testing.T) {
	tests := []struct {
		name       string
		opts       CORSOptions
		method     string
		origin     string
		wantOrigin string
		wantStatus int
	}{
		{"wildcard", DefaultCORSOptions(), http.MethodGet, "https://a.example", "*", http.StatusOK},
		{"preflight", DefaultCORSOptions(), http.MethodOptions, "https://a.example", "*", http.StatusNoContent},
		{"listed origin", CORSOptions{AllowedOrigins: []string{"https://a.example"}}, http.MethodGet, "https://a.example", "https://a.example", http.StatusOK},
		{"unlisted origin", CORSOptions{AllowedOrigins: []string{"https://a.example"}}, http.MethodGet, "https://b.example", "", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/api/extensions", nil)
			req.Header.Set("Origin", tt.origin)
			rec := httptest.NewRecorder()

			CORSMiddleware(tt.opts)(okHandler()).ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("Expected status %d, got %d", tt.wantStatus, rec.Code)
			}
			if got := rec.Header().Get("Access-Control-Allow-Origin"); got != tt.wantOrigin {
				t.Errorf("Expected origin %q, got %q", tt.wantOrigin, got)
			}
		})
	}
}

func TestLoggingMiddleware(t *testing.T) {
	logger := testingx.NewMockLogger(t)

	h := Chain(okHandler(), LoggingMiddleware(logger, time.Hour))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", nil))
	logger.AssertLogged("INFO", "request completed")

	failing := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	Chain(failing, LoggingMiddleware(logger, time.Hour)).
		ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/boom", nil))
	logger.AssertLogged("WARN", "request failed")
}

func TestRequestIDMiddleware(t *testing.T) {
	logger := testingx.NewMockLogger(t)
	h := Chain(okHandler(), RequestIDMiddleware(), LoggingMiddleware(logger, time.Hour))

	req := httptest.NewRequest(http.MethodGet, "/api/extensions", nil)
	req.Header.Set(RequestIDHeader, "caller-42")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if got := rec.Header().Get(RequestIDHeader); got != "caller-42" {
		t.Errorf("Expected echoed request id, got %q", got)
	}
	entry, ok := logger.Find("INFO", "request completed")
	if !ok {
		t.Fatal("Expected request log")
	}
	if v, _ := entry.Field("request_id"); v != "caller-42" {
		t.Errorf("Expected request_id caller-42 in log, got %v", v)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/extensions", nil))
	if got := rec.Header().Get(RequestIDHeader); len(got) != 36 {
		t.Errorf("Expected generated uuid, got %q", got)
	}
}

func TestRecoveryMiddleware(t *testing.T) {
	logger := testingx.NewMockLogger(t)
	panicking := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})

	rec := httptest.NewRecorder()
	Chain(panicking, RecoveryMiddleware(logger)).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("Expected 500, got %d", rec.Code)
	}
	logger.AssertLogged("ERROR", "panic recovered")
}

func TestChain_Order(t *testing.T) {
	var order []string
	mark := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	Chain(okHandler(), mark("outer"), mark("inner")).
		ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if strings.Join(order, ",") != "outer,inner" {
		t.Errorf("Expected outer,inner, got %v", order)
	}
}
