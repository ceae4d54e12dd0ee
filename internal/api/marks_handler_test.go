package api

import (
	"net/http"
	"testing"
)

func ptr(v float64) *float64 { return &v }

func TestBindingsAndShortcuts(t *testing.T) {
	env := newTestEnv(t, nil)

	rr := env.do(t, http.MethodPut, "/bindings", BindingRequest{Combo: "Shift+K", Label: "kick"})
	expectStatus(t, rr, http.StatusOK)

	rr = env.do(t, http.MethodPut, "/bindings", BindingRequest{Combo: "shift+k", Label: "snare"})
	expectErrorCode(t, rr, http.StatusConflict, "DUPLICATE_BINDING")

	rr = env.do(t, http.MethodPut, "/bindings", BindingRequest{Combo: "ctrl+", Label: "x"})
	expectErrorCode(t, rr, http.StatusBadRequest, "INVALID_BINDING")

	list := decodeJSON[BindingsResponse](t, env.do(t, http.MethodGet, "/bindings", nil))
	if len(list.Bindings) != 1 || list.Bindings[0].Combo != "shift+k" {
		t.Fatalf("bindings = %+v", list.Bindings)
	}

	stored, err := env.cfg.Repository.ListBindings(t.Context())
	if err != nil || len(stored) != 1 {
		t.Fatalf("persisted bindings = %v, err = %v", stored, err)
	}

	// Stopped player: the shortcut is recognised but stamps nothing.
	rr = env.do(t, http.MethodPost, "/shortcuts", ShortcutRequest{Combo: "shift+k"})
	expectStatus(t, rr, http.StatusOK)
	if got := decodeJSON[ShortcutResponse](t, rr); got.Created {
		t.Fatalf("shortcut created a mark while stopped: %+v", got)
	}

	env.do(t, http.MethodPost, "/playback", PlaybackRequest{State: "playing", PositionMs: 4200})
	rr = env.do(t, http.MethodPost, "/shortcuts", ShortcutRequest{Combo: "SHIFT+K"})
	expectStatus(t, rr, http.StatusCreated)
	got := decodeJSON[ShortcutResponse](t, rr)
	if !got.Created || got.Label != "kick" || got.MarkID == "" {
		t.Fatalf("shortcut response = %+v", got)
	}

	rr = env.do(t, http.MethodPost, "/shortcuts", ShortcutRequest{Combo: "shift+j"})
	expectErrorCode(t, rr, http.StatusNotFound, "UNBOUND_SHORTCUT")

	rr = env.do(t, http.MethodPost, "/shortcuts", ShortcutRequest{})
	expectErrorCode(t, rr, http.StatusBadRequest, "BAD_REQUEST")

	rr = env.do(t, http.MethodDelete, "/bindings/shift+k", nil)
	expectStatus(t, rr, http.StatusNoContent)
	rr = env.do(t, http.MethodDelete, "/bindings/shift+k", nil)
	expectErrorCode(t, rr, http.StatusNotFound, "NOT_FOUND")
}

func TestCreateMark(t *testing.T) {
	env := newTestEnv(t, nil)

	rr := env.do(t, http.MethodPost, "/marks", CreateMarkRequest{Label: "crash", TimestampMs: ptr(2500)})
	expectStatus(t, rr, http.StatusCreated)
	m := decodeJSON[MarkResponse](t, rr)
	if m.StartMs != 2500 || m.EndMs != 2500 || m.Label != "crash" {
		t.Fatalf("mark = %+v", m)
	}

	rr = env.do(t, http.MethodPost, "/marks", CreateMarkRequest{Label: "crash"})
	expectErrorCode(t, rr, http.StatusConflict, "PLAYER_INACTIVE")

	env.do(t, http.MethodPost, "/playback", PlaybackRequest{State: "paused", PositionMs: 900})
	rr = env.do(t, http.MethodPost, "/marks", CreateMarkRequest{Label: "ride"})
	expectStatus(t, rr, http.StatusCreated)

	rr = env.do(t, http.MethodPost, "/marks", CreateMarkRequest{Label: " "})
	expectErrorCode(t, rr, http.StatusBadRequest, "BAD_REQUEST")
	rr = env.do(t, http.MethodPost, "/marks", CreateMarkRequest{Label: "x", TimestampMs: ptr(-5)})
	expectErrorCode(t, rr, http.StatusBadRequest, "INVALID_TIMESTAMP")

	list := decodeJSON[MarksResponse](t, env.do(t, http.MethodGet, "/marks", nil))
	if len(list.Marks) != 2 || list.Marks[0].Label != "crash" || list.Marks[1].StartMs != 900 {
		t.Fatalf("marks = %+v", list.Marks)
	}
}

func TestSelectionFlow(t *testing.T) {
	env := newTestEnv(t, nil)

	m := decodeJSON[MarkResponse](t, env.do(t, http.MethodPost, "/marks", CreateMarkRequest{Label: "kick", TimestampMs: ptr(5000)}))

	rr := env.do(t, http.MethodPost, "/marks/"+m.ID+"/select", nil)
	expectErrorCode(t, rr, http.StatusConflict, "NO_MEDIA")

	env.loadMedia(t, 10000)

	rr = env.do(t, http.MethodPut, "/selection/range", RangeRequest{StartMs: ptr(1)})
	expectErrorCode(t, rr, http.StatusConflict, "NO_ACTIVE_SELECTION")

	rr = env.do(t, http.MethodPost, "/marks/missing/select", nil)
	expectErrorCode(t, rr, http.StatusNotFound, "UNKNOWN_MARK")

	rr = env.do(t, http.MethodPost, "/marks/"+m.ID+"/select", nil)
	expectStatus(t, rr, http.StatusOK)
	sel := decodeJSON[SelectionResponse](t, rr)
	if !sel.Range.Enabled || sel.Range.Window.RangeMin != 2000 || sel.Range.Window.RangeMax != 8000 {
		t.Fatalf("selection range = %+v", sel.Range)
	}

	rr = env.do(t, http.MethodPut, "/selection/range", RangeRequest{EndMs: ptr(7250.8)})
	expectStatus(t, rr, http.StatusOK)
	sel = decodeJSON[SelectionResponse](t, rr)
	if sel.Mark == nil || sel.Mark.StartMs != 5000 || sel.Mark.EndMs != 7250 {
		t.Fatalf("selection mark = %+v", sel.Mark)
	}

	rr = env.do(t, http.MethodPut, "/selection/range", RangeRequest{StartMs: ptr(500)})
	expectErrorCode(t, rr, http.StatusUnprocessableEntity, "OUTSIDE_WINDOW")

	rr = env.do(t, http.MethodPut, "/selection/range", RangeRequest{StartMs: ptr(7500)})
	expectErrorCode(t, rr, http.StatusUnprocessableEntity, "INVALID_INTERVAL")

	rr = env.do(t, http.MethodPut, "/selection/range", RangeRequest{})
	expectErrorCode(t, rr, http.StatusBadRequest, "BAD_REQUEST")

	rr = env.do(t, http.MethodGet, "/selection", nil)
	expectStatus(t, rr, http.StatusOK)
	if got := decodeJSON[SelectionResponse](t, rr); got.MarkID != m.ID {
		t.Fatalf("selection mark id = %q, want %q", got.MarkID, m.ID)
	}

	rr = env.do(t, http.MethodDelete, "/selection", nil)
	expectStatus(t, rr, http.StatusNoContent)
	got := decodeJSON[SelectionResponse](t, env.do(t, http.MethodGet, "/selection", nil))
	if got.MarkID != "" || got.Range.Enabled {
		t.Fatalf("selection after delete = %+v", got)
	}
}

func TestSelectMarkOutsideExtent(t *testing.T) {
	env := newTestEnv(t, nil)
	env.loadMedia(t, 10000)

	m := decodeJSON[MarkResponse](t, env.do(t, http.MethodPost, "/marks", CreateMarkRequest{Label: "late", TimestampMs: ptr(20000)}))

	rr := env.do(t, http.MethodPost, "/marks/"+m.ID+"/select", nil)
	expectErrorCode(t, rr, http.StatusUnprocessableEntity, "OUTSIDE_EXTENT")
}
