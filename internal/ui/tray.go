// Package ui runs the system tray menu: what is loaded, how many marks
// exist, and the export and quit actions.
package ui

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/getlantern/systray"

	"github.com/tofu/tofu-labeller/internal/editor"
	"github.com/tofu/tofu-labeller/internal/export"
	"github.com/tofu/tofu-labeller/internal/marks"
	"github.com/tofu/tofu-labeller/internal/playback"
)

type Tray struct {
	session *editor.Session
	logger  *slog.Logger

	statusItem *systray.MenuItem
	mediaItem  *systray.MenuItem
	marksItem  *systray.MenuItem

	mu    sync.Mutex
	ready bool
	state playback.State
	count int

	onExport func() (export.ExportResponse, error)
	onQuit   func()
}

type TrayConfig struct {
	Session  *editor.Session
	Store    *marks.Store
	Tracker  *playback.Tracker
	Logger   *slog.Logger
	OnExport func() (export.ExportResponse, error)
	OnQuit   func()
}

func NewTray(cfg TrayConfig) *Tray {
	t := &Tray{
		session:  cfg.Session,
		logger:   cfg.Logger,
		onExport: cfg.OnExport,
		onQuit:   cfg.OnQuit,
	}
	if cfg.Store != nil {
		t.count = cfg.Store.Len()
		cfg.Store.Subscribe(func(ev marks.Event) {
			if ev.Type == marks.EventCreated {
				t.UpdateMarksCount(cfg.Store.Len())
			}
		})
	}
	if cfg.Tracker != nil {
		cfg.Tracker.OnStateChange(t.UpdateStatus)
	}
	return t
}

// Run blocks on the platform event loop until Quit.
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

func (t *Tray) onReady() {
	systray.SetIcon(iconBytes)
	systray.SetTitle("Tofu")
	systray.SetTooltip("Tofu Labeller")

	t.mu.Lock()
	t.statusItem = systray.AddMenuItem(statusTitle(t.state), "Player state")
	t.statusItem.Disable()
	t.mediaItem = systray.AddMenuItem(mediaTitle(t.currentMedia()), "Loaded media")
	t.mediaItem.Disable()
	t.marksItem = systray.AddMenuItem(marksTitle(t.count), "Marks on the timeline")
	t.marksItem.Disable()
	t.ready = true
	t.mu.Unlock()

	systray.AddSeparator()

	exportItem := systray.AddMenuItem("Export CSV", "Write all marks to the export folder")

	systray.AddSeparator()

	quitItem := systray.AddMenuItem("Quit", "Quit Tofu Labeller")

	go func() {
		for {
			select {
			case <-exportItem.ClickedCh:
				t.handleExport()
			case <-quitItem.ClickedCh:
				t.logger.Info("quit requested from tray")
				if t.onQuit != nil {
					t.onQuit()
				}
				systray.Quit()
				return
			}
		}
	}()

	t.logger.Info("system tray ready")
}

func (t *Tray) onExit() {
	t.logger.Info("system tray exiting")
}

func (t *Tray) handleExport() {
	if t.onExport == nil {
		return
	}
	resp, err := t.onExport()
	if err != nil {
		t.logger.Error("tray export failed", "error", err)
		return
	}
	t.logger.Info("tray export written", "path", resp.OutputPath, "marks", resp.MarkCount)
}

func (t *Tray) currentMedia() *editor.Media {
	if t.session == nil {
		return nil
	}
	if m, ok := t.session.Media(); ok {
		return &m
	}
	return nil
}

// UpdateStatus refreshes the player line and the media line, which may
// have changed with it.
func (t *Tray) UpdateStatus(state playback.State) {
	m := t.currentMedia()

	t.mu.Lock()
	defer t.mu.Unlock()
	t.state = state
	if !t.ready {
		return
	}
	t.statusItem.SetTitle(statusTitle(state))
	t.mediaItem.SetTitle(mediaTitle(m))
}

func (t *Tray) UpdateMarksCount(count int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.count = count
	if !t.ready {
		return
	}
	t.marksItem.SetTitle(marksTitle(count))
}

func (t *Tray) Quit() {
	systray.Quit()
}

func statusTitle(state playback.State) string {
	switch state {
	case playback.StatePlaying:
		return "Status: Playing"
	case playback.StatePaused:
		return "Status: Paused"
	case playback.StateError:
		return "Status: Error"
	default:
		return "Status: Stopped"
	}
}

func mediaTitle(m *editor.Media) string {
	if m == nil {
		return "Media: none"
	}
	return "Media: " + m.Name
}

func marksTitle(n int) string {
	if n == 1 {
		return "1 mark"
	}
	return fmt.Sprintf("%d marks", n)
}
