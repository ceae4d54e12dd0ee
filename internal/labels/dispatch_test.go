package labels

import (
	"context"
	"io"
	"log/slog"
	"math"
	"path/filepath"
	"slices"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tofu/tofu-labeller/internal/db"
	"github.com/tofu/tofu-labeller/internal/marks"
	"github.com/tofu/tofu-labeller/internal/playback"
)

type fakePlayer struct {
	state    playback.State
	position float64
}

func (f *fakePlayer) CurrentPositionMs() float64 { return f.position }
func (f *fakePlayer) State() playback.State       { return f.state }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestDispatcher(t *testing.T, player *fakePlayer) (*Dispatcher, *marks.Store) {
	t.Helper()
	reg := NewRegistry()
	_, err := reg.Bind("k", "kick")
	require.NoError(t, err)
	store := marks.NewStore()
	return NewDispatcher(reg, store, player, discardLogger()), store
}

func TestDispatcher_TriggerWhilePlaying(t *testing.T) {
	for _, state := range []playback.State{playback.StatePlaying, playback.StatePaused} {
		t.Run(state.String(), func(t *testing.T) {
			d, store := newTestDispatcher(t, &fakePlayer{state: state, position: 12345})

			id, created, err := d.Trigger("K")
			require.NoError(t, err)
			require.True(t, created)

			m, err := store.Get(id)
			require.NoError(t, err)
			require.Equal(t, "kick", m.Label)
			require.Equal(t, 12345.0, m.Interval.Start)
			require.Equal(t, 12345.0, m.Interval.End)
		})
	}
}

func TestDispatcher_TriggerWhileStopped(t *testing.T) {
	for _, state := range []playback.State{playback.StateStopped, playback.StateError} {
		t.Run(state.String(), func(t *testing.T) {
			d, store := newTestDispatcher(t, &fakePlayer{state: state, position: 500})

			id, created, err := d.Trigger("k")
			require.NoError(t, err)
			require.False(t, created)
			require.Empty(t, id)
			require.Zero(t, store.Len())
		})
	}
}

func TestDispatcher_TriggerUnbound(t *testing.T) {
	d, store := newTestDispatcher(t, &fakePlayer{state: playback.StatePlaying})

	_, _, err := d.Trigger("j")
	require.ErrorIs(t, err, ErrUnboundShortcut)
	require.Contains(t, err.Error(), "did you mean k?")
	require.Zero(t, store.Len())
}

func TestDispatcher_TriggerLabel(t *testing.T) {
	d, store := newTestDispatcher(t, &fakePlayer{state: playback.StatePaused, position: 42})

	_, created := d.TriggerLabel("  ")
	require.False(t, created)

	_, created = d.TriggerLabel("crash")
	require.True(t, created)
	require.Equal(t, []marks.Row{{Label: "crash", Start: 42, End: 42}}, slices.Collect(store.Rows()))
}

func TestDispatcher_MarkAtIgnoresPlayerState(t *testing.T) {
	d, store := newTestDispatcher(t, &fakePlayer{state: playback.StateStopped, position: 999})

	id, err := d.MarkAt(" crash ", 2500.5)
	require.NoError(t, err)

	m, err := store.Get(id)
	require.NoError(t, err)
	require.Equal(t, "crash", m.Label)
	require.Equal(t, 2500.5, m.Interval.Start)
}

func TestDispatcher_MarkAtRejectsBadInput(t *testing.T) {
	d, store := newTestDispatcher(t, &fakePlayer{state: playback.StatePlaying})

	_, err := d.MarkAt("", 100)
	require.ErrorIs(t, err, ErrInvalidBinding)
	for _, ts := range []float64{-1, math.NaN(), math.Inf(1)} {
		_, err = d.MarkAt("kick", ts)
		require.ErrorIs(t, err, ErrInvalidTimestamp)
	}
	require.Zero(t, store.Len())
}

func TestSQLiteRepository_Bindings(t *testing.T) {
	database, err := db.New(filepath.Join(t.TempDir(), "test.db"), nil)
	require.NoError(t, err)
	defer database.Close()

	repo := NewRepository(database.Conn())
	ctx := context.Background()

	require.NoError(t, repo.SaveBinding(ctx, Binding{Combo: "k", Label: "kick"}))
	require.NoError(t, repo.SaveBinding(ctx, Binding{Combo: "h", Label: "hat"}))
	require.NoError(t, repo.SaveBinding(ctx, Binding{Combo: "k", Label: "kick2"}))

	got, err := repo.ListBindings(ctx)
	require.NoError(t, err)
	require.Equal(t, []Binding{{Combo: "h", Label: "hat"}, {Combo: "k", Label: "kick2"}}, got)

	require.NoError(t, repo.DeleteBinding(ctx, "h"))
	got, err = repo.ListBindings(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
}

func TestSQLiteRepository_Config(t *testing.T) {
	database, err := db.New(filepath.Join(t.TempDir(), "test.db"), nil)
	require.NoError(t, err)
	defer database.Close()

	repo := NewRepository(database.Conn())
	ctx := context.Background()

	v, err := repo.GetConfig(ctx, "auth_token")
	require.NoError(t, err)
	require.Empty(t, v)

	require.NoError(t, repo.SetConfig(ctx, "auth_token", "abc"))
	require.NoError(t, repo.SetConfig(ctx, "auth_token", "def"))
	v, err = repo.GetConfig(ctx, "auth_token")
	require.NoError(t, err)
	require.Equal(t, "def", v)
}

func TestLoadInto(t *testing.T) {
	database, err := db.New(filepath.Join(t.TempDir(), "test.db"), nil)
	require.NoError(t, err)
	defer database.Close()

	repo := NewRepository(database.Conn())
	ctx := context.Background()
	require.NoError(t, repo.SaveBinding(ctx, Binding{Combo: "k", Label: "kick"}))
	require.NoError(t, repo.SaveBinding(ctx, Binding{Combo: "s", Label: "snare"}))

	reg := NewRegistry()
	_, err = reg.Bind("s", "other")
	require.NoError(t, err)

	stored, err := LoadInto(ctx, repo, reg)
	require.ErrorIs(t, err, ErrDuplicateBinding)
	require.Len(t, stored, 2)

	label, ok := reg.Lookup("k")
	require.True(t, ok)
	require.Equal(t, "kick", label)
}
