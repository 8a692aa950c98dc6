package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"lectern/internal/config"
	"lectern/internal/logging"
	"lectern/internal/sheets"
)

type fakePusher struct {
	received []sheets.Video
	result   sheets.Result
	err      error
}

func (f *fakePusher) UpdateEmbeds(_ context.Context, videos []sheets.Video) (sheets.Result, error) {
	f.received = videos
	return f.result, f.err
}

func newTestServer(t *testing.T, pusher *fakePusher) *Server {
	t.Helper()
	cfg := config.Default()
	return NewServer(&cfg, pusher, logging.NewNop())
}

func TestUpdateEmbedsEndpoint(t *testing.T) {
	pusher := &fakePusher{result: sheets.Result{
		Updated:       1,
		NotFoundNames: []string{"missing.mp4"},
	}}
	server := newTestServer(t, pusher)

	body := `{"videos":[{"name":"lesson.mp4","embed_code":"<iframe/>"},{"name":"missing.mp4","embed_code":"<iframe/>"}]}`
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/update-embeds", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	server.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	if len(pusher.received) != 2 || pusher.received[0].Name != "lesson.mp4" {
		t.Fatalf("pusher received %+v", pusher.received)
	}

	var resp struct {
		Updated  int      `json:"updated"`
		NotFound []string `json:"not_found"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Updated != 1 || len(resp.NotFound) != 1 {
		t.Errorf("unexpected response: %+v", resp)
	}
}

func TestUpdateEmbedsRejectsMalformedBody(t *testing.T) {
	server := newTestServer(t, &fakePusher{})

	for _, body := range []string{
		`not json`,
		`{}`,
		`{"videos":[{"name":"","embed_code":"<iframe/>"}]}`,
		`{"videos":[{"name":"lesson.mp4","embed_code":""}]}`,
	} {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/update-embeds", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		server.Handler().ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("body %q: status = %d, want 400", body, rec.Code)
		}
	}
}

func TestUpdateEmbedsSurfacesSheetErrors(t *testing.T) {
	server := newTestServer(t, &fakePusher{err: errors.New("sheets returned 500")})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/update-embeds",
		strings.NewReader(`{"videos":[{"name":"a.mp4","embed_code":"<iframe/>"}]}`))
	req.Header.Set("Content-Type", "application/json")
	server.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", rec.Code)
	}
}

func TestHealthEndpoint(t *testing.T) {
	server := newTestServer(t, &fakePusher{})

	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}
