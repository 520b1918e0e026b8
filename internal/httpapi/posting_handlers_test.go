package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

func TestParsePositiveInt(t *testing.T) {
	t.Parallel()

	if got := parsePositiveInt("", 25); got != 25 {
		t.Fatalf("empty value: got %d, want 25", got)
	}
	if got := parsePositiveInt(" 3 ", 25); got != 3 {
		t.Fatalf("padded value: got %d, want 3", got)
	}
	if got := parsePositiveInt("0", 25); got != 25 {
		t.Fatalf("zero falls back: got %d, want 25", got)
	}
	if got := parsePositiveInt("-4", 25); got != 25 {
		t.Fatalf("negative falls back: got %d, want 25", got)
	}
	if got := parsePositiveInt("abc", 25); got != 25 {
		t.Fatalf("non-numeric falls back: got %d, want 25", got)
	}
}

func TestHandlePostingDetailRejectsBadFingerprint(t *testing.T) {
	t.Parallel()

	srv := &Server{logger: zerolog.Nop()}
	e := echo.New()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/postings/short", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("link_hash")
	c.SetParamValues("short")

	if err := srv.handlePostingDetail(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unexpected status: %d", rec.Code)
	}

	var body jsendResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body.Status != "fail" {
		t.Fatalf("unexpected jsend status: %q", body.Status)
	}
}

func TestHandleRefreshWithoutPipeline(t *testing.T) {
	t.Parallel()

	srv := &Server{logger: zerolog.Nop()}
	e := echo.New()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/refresh", nil)
	rec := httptest.NewRecorder()

	if err := srv.handleRefresh(e.NewContext(req, rec)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
}

func TestHandleRefreshStartsCycle(t *testing.T) {
	t.Parallel()

	started := make(chan struct{})
	srv := &Server{
		logger: zerolog.Nop(),
		refresh: func(ctx context.Context) error {
			close(started)
			return nil
		},
	}
	e := echo.New()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/refresh", nil)
	rec := httptest.NewRecorder()

	if err := srv.handleRefresh(e.NewContext(req, rec)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusAccepted {
		t.Fatalf("unexpected status: %d", rec.Code)
	}

	select {
	case <-started:
	case <-time.After(2 * time.Second):
		t.Fatal("refresh cycle was not started")
	}
}

func TestHandlePostingIngestRejectsOversizedBody(t *testing.T) {
	t.Parallel()

	srv := &Server{logger: zerolog.Nop()}
	e := echo.New()

	big := strings.NewReader(strings.Repeat("a", maxIngestBodyBytes+2))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/postings", big)
	rec := httptest.NewRecorder()

	if err := srv.handlePostingIngest(e.NewContext(req, rec)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
}

func TestNewServerAppliesDefaults(t *testing.T) {
	t.Parallel()

	srv := NewServer(nil, nil, nil, zerolog.Nop(), Options{})
	if srv.opts.Host != "0.0.0.0" {
		t.Fatalf("unexpected host: %q", srv.opts.Host)
	}
	if srv.opts.Port != 8090 {
		t.Fatalf("unexpected port: %d", srv.opts.Port)
	}
	if srv.opts.ReadTimeout != 10*time.Second {
		t.Fatalf("unexpected read timeout: %s", srv.opts.ReadTimeout)
	}
	if srv.opts.ShutdownTimeout != 10*time.Second {
		t.Fatalf("unexpected shutdown timeout: %s", srv.opts.ShutdownTimeout)
	}
}
