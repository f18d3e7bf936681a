package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"video-transcribe-go/internal/config"
	"video-transcribe-go/internal/logger"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRateLimitDisabled(t *testing.T) {
	if mw := RateLimit(config.RateLimitConfig{}); mw != nil {
		t.Error("expected nil middleware when disabled")
	}
}

func TestRateLimitBlocksAfterBurst(t *testing.T) {
	mw := RateLimit(config.RateLimitConfig{Enabled: true, RequestsPerMinute: 1, Burst: 2})
	h := mw(okHandler())

	codes := []int{}
	for i := 0; i < 4; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		codes = append(codes, rec.Code)
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusOK {
		t.Errorf("expected burst requests to pass, got %v", codes)
	}
	if codes[3] != http.StatusTooManyRequests {
		t.Errorf("expected 429 after burst, got %v", codes)
	}
}

func TestRecoveryConvertsPanic(t *testing.T) {
	h := Recovery(logger.New())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", rec.Code)
	}
}

func TestChainSkipsNil(t *testing.T) {
	h := Chain(okHandler(), nil, RequestID(), nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("expected request id header")
	}
}
