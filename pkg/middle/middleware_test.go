package middle

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestRequestIDMiddleware(t *testing.T) {
	var seen string
	h := RequestIDMiddleware(zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestID(r.Context())
		if LoggerFrom(r.Context()) == nil {
			t.Errorf("no request logger in context")
		}
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	if !strings.HasPrefix(seen, "req-") || rr.Header().Get(RequestIDHeader) != seen {
		t.Fatalf("request id %q, header %q", seen, rr.Header().Get(RequestIDHeader))
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "caller-1")
	h.ServeHTTP(httptest.NewRecorder(), req)
	if seen != "caller-1" {
		t.Fatalf("caller request id not kept, got %q", seen)
	}
}

func TestLoggingMiddlewareRecoversPanic(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	h := Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}), RequestIDMiddleware(zap.New(core)), LoggingMiddleware(zap.NewNop()))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rr.Code)
	}
	if logs.FilterMessage("Internal Server Error").Len() != 1 {
		t.Fatalf("panic not logged: %v", logs.All())
	}
	done := logs.FilterMessage("Request completed").All()
	if len(done) != 1 || done[0].ContextMap()["status"] != int64(500) {
		t.Fatalf("unexpected completion log %v", done)
	}
	if _, ok := done[0].ContextMap()["request_id"]; !ok {
		t.Errorf("completion log lacks request_id")
	}
}
