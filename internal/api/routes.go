package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tofu/tofu-labeller/internal/config"
	"github.com/tofu/tofu-labeller/internal/logging"
	"github.com/tofu/tofu-labeller/internal/media"
	"github.com/tofu/tofu-labeller/internal/playback"
)

func NewRouter(cfg ServerConfig) *chi.Mux {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware())
	r.Use(RecoveryMiddleware(cfg.Logger))
	r.Use(LoggingMiddleware(cfg.Logger))
	r.Use(CORSAllowlist())

	r.Get("/health", healthHandler(cfg))

	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(cfg.Repository, cfg.Logger))

		r.Get("/status", statusHandler(cfg))
		r.Post("/media", loadMediaHandler(cfg))
		r.Get("/media/stream", streamHandler(cfg))
		r.Post("/playback", playbackHandler(cfg))

		r.Get("/bindings", listBindingsHandler(cfg))
		r.Put("/bindings", putBindingHandler(cfg))
		r.Delete("/bindings/{combo}", deleteBindingHandler(cfg))
		r.Post("/shortcuts", shortcutHandler(cfg))

		r.Get("/marks", listMarksHandler(cfg))
		r.Post("/marks", createMarkHandler(cfg))
		r.Post("/marks/{id}/select", selectMarkHandler(cfg))
		r.Get("/selection", getSelectionHandler(cfg))
		r.Delete("/selection", deleteSelectionHandler(cfg))
		r.Put("/selection/range", editRangeHandler(cfg))

		r.Post("/export", exportHandler(cfg))
		r.Get("/export/csv", exportCSVHandler(cfg))
	})

	return r
}

func healthHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uptime := int64(time.Since(cfg.StartTime).Seconds())
		WriteJSON(w, http.StatusOK, HealthResponse{
			Status:  "ok",
			Version: config.Version,
			UptimeS: uptime,
		})
	}
}

func statusHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st := cfg.Session.State()
		WriteJSON(w, http.StatusOK, StatusResponse{
			Media:         st.Media,
			Playback:      playbackToResponse(cfg.Tracker),
			Selected:      string(st.Selected),
			Range:         st.Range,
			MarksCount:    st.Marks,
			BindingsCount: cfg.Registry.Len(),
		})
	}
}

func loadMediaHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req LoadMediaRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		if req.Path == "" {
			WriteError(w, http.StatusBadRequest, "path is required", "BAD_REQUEST")
			return
		}
		if !filepath.IsAbs(req.Path) || filepath.Clean(req.Path) != req.Path {
			WriteError(w, http.StatusBadRequest, "path must be absolute and clean", "BAD_REQUEST")
			return
		}
		if req.DurationMs < 0 {
			WriteError(w, http.StatusBadRequest, "duration_ms must be >= 0", "BAD_REQUEST")
			return
		}

		info, err := os.Stat(req.Path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				WriteError(w, http.StatusNotFound, "media file not found", "NOT_FOUND")
				return
			}
			WriteError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
			return
		}
		if info.IsDir() {
			WriteError(w, http.StatusBadRequest, "path is a directory", "BAD_REQUEST")
			return
		}
		if !playback.IsVideoFile(req.Path) {
			WriteError(w, http.StatusUnsupportedMediaType, "unsupported media type", "UNSUPPORTED_MEDIA")
			return
		}

		resp := MediaResponse{Path: req.Path, Name: filepath.Base(req.Path), DurationMs: req.DurationMs}
		if resp.DurationMs == 0 && cfg.Prober != nil {
			res, err := cfg.Prober.Probe(r.Context(), req.Path)
			switch {
			case err == nil:
				resp.Probed = true
				resp.DurationMs = res.DurationMs
				resp.Width = res.Width
				resp.Height = res.Height
				resp.Codec = res.Codec
				resp.FrameRate = res.FrameRate
			case errors.Is(err, media.ErrProbeUnavailable):
				cfg.Logger.Debug("probe unavailable, waiting for player duration")
			default:
				cfg.Logger.Warn("media probe failed", "error", err, "path", logging.SanitizePath(req.Path))
			}
		}

		cfg.Tracker.Stop()
		if err := cfg.Session.LoadMedia(req.Path, resp.DurationMs); err != nil {
			writeDomainError(w, err)
			return
		}

		WriteJSON(w, http.StatusOK, resp)
	}
}

func streamHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		m, ok := cfg.Session.Media()
		if !ok {
			WriteError(w, http.StatusNotFound, "no media loaded", "NO_MEDIA")
			return
		}

		if err := cfg.Streamer.ServeFile(w, r, m.Path); err != nil {
			cfg.Logger.Error("stream error", "error", err, "path", logging.SanitizePath(m.Path))
			if errors.Is(err, playback.ErrNoMedia) {
				WriteError(w, http.StatusNotFound, "no media loaded", "NO_MEDIA")
				return
			}
			WriteError(w, http.StatusInternalServerError, "failed to stream media", "INTERNAL_ERROR")
		}
	}
}

func playbackHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req PlaybackRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		state, err := playback.ParseState(req.State)
		if err != nil {
			WriteError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
			return
		}

		if state == playback.StateError {
			msg := req.Error
			if msg == "" {
				msg = "playback error"
			}
			cfg.Tracker.Fail(msg)
		} else if err := cfg.Tracker.Update(playback.Report{
			State:      state,
			PositionMs: req.PositionMs,
			DurationMs: req.DurationMs,
		}); err != nil {
			WriteError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
			return
		}

		WriteJSON(w, http.StatusOK, playbackToResponse(cfg.Tracker))
	}
}

func playbackToResponse(t *playback.Tracker) PlaybackResponse {
	return PlaybackResponse{
		State:      t.State().String(),
		PositionMs: t.CurrentPositionMs(),
		DurationMs: t.DurationMs(),
		LastError:  t.LastError(),
	}
}
