package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/tofu/tofu-labeller/internal/api"
	"github.com/tofu/tofu-labeller/internal/config"
	"github.com/tofu/tofu-labeller/internal/db"
	"github.com/tofu/tofu-labeller/internal/editor"
	"github.com/tofu/tofu-labeller/internal/export"
	"github.com/tofu/tofu-labeller/internal/labels"
	"github.com/tofu/tofu-labeller/internal/logging"
	"github.com/tofu/tofu-labeller/internal/marks"
	"github.com/tofu/tofu-labeller/internal/media"
	"github.com/tofu/tofu-labeller/internal/playback"
	"github.com/tofu/tofu-labeller/internal/timeline"
)

// app owns every long-lived component of a running agent.
type app struct {
	cfg    config.Config
	logger *slog.Logger

	database   *db.DB
	repo       *labels.SQLiteRepository
	registry   *labels.Registry
	store      *marks.Store
	session    *editor.Session
	tracker    *playback.Tracker
	dispatcher *labels.Dispatcher
	prober     media.Prober
	authToken  string
}

func newApp(ctx context.Context, cfg config.Config, logger *slog.Logger) (*app, error) {
	if err := os.MkdirAll(cfg.DataDir(), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data dir: %w", err)
	}

	database, err := db.New(cfg.DBPath(), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	a := &app{
		cfg:      cfg,
		logger:   logger,
		database: database,
		repo:     labels.NewRepository(database.Conn()),
		registry: labels.NewRegistry(),
		store:    marks.NewStore(),
		tracker:  playback.NewTracker(logging.WithComponent(logger, "playback")),
	}

	a.authToken, err = ensureAuthToken(ctx, a.repo)
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to ensure auth token: %w", err)
	}

	if err := a.loadBindings(ctx); err != nil {
		database.Close()
		return nil, err
	}

	ctrl, err := timeline.NewController(cfg.SpacingMs(), nil)
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to create range controller: %w", err)
	}
	a.session = editor.NewSession(ctrl, a.store, logging.WithComponent(logger, "editor"))

	a.tracker.OnDurationChange(func(durationMs float64) {
		if err := a.session.UpdateDuration(durationMs); err != nil && !errors.Is(err, editor.ErrNoMedia) {
			logger.Warn("failed to apply player duration", "error", err, "duration_ms", durationMs)
		}
	})

	a.dispatcher = labels.NewDispatcher(a.registry, a.store, a.tracker, logging.WithComponent(logger, "labels"))

	probeLogger := logging.WithComponent(logger, "media")
	if ff, err := media.NewFFprobe(cfg.FFprobePath(), cfg.ProbeTimeout(), probeLogger); err != nil {
		logger.Warn("ffprobe unavailable, media duration will come from the player", "error", err)
		a.prober = media.NewStubProber(probeLogger)
	} else {
		a.prober = ff
	}

	return a, nil
}

// loadBindings restores stored bindings, then adds any declared in the
// config file that are not stored yet. Conflicts are logged, not fatal.
func (a *app) loadBindings(ctx context.Context) error {
	stored, err := labels.LoadInto(ctx, a.repo, a.registry)
	if err != nil {
		if stored == nil {
			return fmt.Errorf("failed to load bindings: %w", err)
		}
		a.logger.Warn("some stored bindings were skipped", "error", err)
	}

	for _, b := range a.cfg.Bindings() {
		bound, err := a.registry.Bind(b.Combo, b.Label)
		if err != nil {
			a.logger.Warn("config binding skipped", "combo", b.Combo, "label", b.Label, "error", err)
			continue
		}
		if err := a.repo.SaveBinding(ctx, bound); err != nil {
			return fmt.Errorf("failed to save config binding %s: %w", bound.Combo, err)
		}
	}

	a.logger.Info("bindings loaded", "count", a.registry.Len())
	return nil
}

func (a *app) serverConfig(startTime time.Time) api.ServerConfig {
	return api.ServerConfig{
		Port:       a.cfg.Port(),
		Session:    a.session,
		Store:      a.store,
		Registry:   a.registry,
		Dispatcher: a.dispatcher,
		Repository: a.repo,
		Tracker:    a.tracker,
		Streamer:   playback.NewStreamer(logging.WithComponent(a.logger, "stream")),
		Prober:     a.prober,
		ExportDir:  a.cfg.ExportDir(),
		Logger:     logging.WithComponent(a.logger, "api"),
		StartTime:  startTime,
	}
}

// exportCSV writes all marks to the export directory, named after the
// loaded media.
func (a *app) exportCSV() (export.ExportResponse, error) {
	dir := a.cfg.ExportDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return export.ExportResponse{}, fmt.Errorf("create export dir: %w", err)
	}
	req := export.ExportRequest{Format: export.FormatCSV, OutputDir: dir}
	src := export.Source{Rows: a.store.Rows()}
	if m, ok := a.session.Media(); ok {
		req.Name = m.Name
		src.MediaPath = m.Path
	}
	return export.WriteFile(req, src)
}

func (a *app) Close() error {
	return a.database.Close()
}

func ensureAuthToken(ctx context.Context, repo labels.Repository) (string, error) {
	existing, err := repo.GetConfig(ctx, api.AuthTokenKey)
	if err == nil && existing != "" {
		return existing, nil
	}

	tokenBytes := make([]byte, 32)
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", err
	}
	token := hex.EncodeToString(tokenBytes)

	if err := repo.SetConfig(ctx, api.AuthTokenKey, token); err != nil {
		return "", err
	}

	return token, nil
}
