package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tofu/tofu-labeller/internal/db"
	"github.com/tofu/tofu-labeller/internal/editor"
	"github.com/tofu/tofu-labeller/internal/labels"
	"github.com/tofu/tofu-labeller/internal/logging"
	"github.com/tofu/tofu-labeller/internal/marks"
	"github.com/tofu/tofu-labeller/internal/media"
	"github.com/tofu/tofu-labeller/internal/playback"
	"github.com/tofu/tofu-labeller/internal/timeline"
)

const testToken = "test-token-0123456789"

type testEnv struct {
	router  *chi.Mux
	cfg     ServerConfig
	dataDir string
}

type fakeProber struct {
	res *media.ProbeResult
	err error
}

func (p *fakeProber) Probe(ctx context.Context, path string) (*media.ProbeResult, error) {
	return p.res, p.err
}

func newTestEnv(t *testing.T, prober media.Prober) *testEnv {
	t.Helper()
	dir := t.TempDir()

	database, err := db.New(filepath.Join(dir, "test.db"), nil)
	if err != nil {
		t.Fatalf("db.New() error = %v", err)
	}
	t.Cleanup(func() { database.Close() })

	repo := labels.NewRepository(database.Conn())
	if err := repo.SetConfig(context.Background(), AuthTokenKey, testToken); err != nil {
		t.Fatalf("SetConfig() error = %v", err)
	}

	logger := logging.Discard()
	ctrl, err := timeline.NewController(timeline.DefaultSpacingMs, nil)
	if err != nil {
		t.Fatalf("NewController() error = %v", err)
	}
	store := marks.NewStore()
	session := editor.NewSession(ctrl, store, logger)
	tracker := playback.NewTracker(logger)
	tracker.OnDurationChange(func(d float64) { session.UpdateDuration(d) })
	registry := labels.NewRegistry()

	if prober == nil {
		prober = media.NewStubProber(logger)
	}

	cfg := ServerConfig{
		Session:    session,
		Store:      store,
		Registry:   registry,
		Dispatcher: labels.NewDispatcher(registry, store, tracker, logger),
		Repository: repo,
		Tracker:    tracker,
		Streamer:   playback.NewStreamer(logger),
		Prober:     prober,
		ExportDir:  filepath.Join(dir, "exports"),
		Logger:     logger,
		StartTime:  time.Now(),
	}
	return &testEnv{router: NewRouter(cfg), cfg: cfg, dataDir: dir}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		r = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Authorization", "Bearer "+testToken)
	rr := httptest.NewRecorder()
	e.router.ServeHTTP(rr, req)
	return rr
}

// writeVideo creates a small fake video file.
func (e *testEnv) writeVideo(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(e.dataDir, name)
	if err := os.WriteFile(path, []byte("0123456789"), 0o644); err != nil {
		t.Fatalf("write video: %v", err)
	}
	return path
}

func (e *testEnv) loadMedia(t *testing.T, durationMs float64) string {
	t.Helper()
	path := e.writeVideo(t, "take1.mp4")
	rr := e.do(t, http.MethodPost, "/media", LoadMediaRequest{Path: path, DurationMs: durationMs})
	if rr.Code != http.StatusOK {
		t.Fatalf("POST /media status = %d, body = %s", rr.Code, rr.Body.String())
	}
	return path
}

func decodeJSON[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rr.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode response %q: %v", rr.Body.String(), err)
	}
	return v
}

func expectStatus(t *testing.T, rr *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rr.Code != want {
		t.Fatalf("status = %d, want %d, body = %s", rr.Code, want, rr.Body.String())
	}
}

func expectErrorCode(t *testing.T, rr *httptest.ResponseRecorder, status int, code string) {
	t.Helper()
	expectStatus(t, rr, status)
	resp := decodeJSON[ErrorResponse](t, rr)
	if resp.Code != code {
		t.Fatalf("error code = %q, want %q (%s)", resp.Code, code, resp.Error)
	}
}
