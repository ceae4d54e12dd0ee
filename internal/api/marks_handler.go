package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/tofu/tofu-labeller/internal/marks"
	"github.com/tofu/tofu-labeller/internal/timeline"
)

func listMarksHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list := cfg.Store.List()
		resp := MarksResponse{Marks: make([]MarkResponse, len(list))}
		for i, m := range list {
			resp.Marks[i] = MarkToResponse(m)
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

// createMarkHandler stamps a mark at an explicit timestamp, or at the
// player position when none is given.
func createMarkHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateMarkRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		label := strings.TrimSpace(req.Label)
		if label == "" {
			WriteError(w, http.StatusBadRequest, "label is required", "BAD_REQUEST")
			return
		}

		var id marks.ID
		if req.TimestampMs != nil {
			var err error
			if id, err = cfg.Dispatcher.MarkAt(label, *req.TimestampMs); err != nil {
				writeDomainError(w, err)
				return
			}
		} else {
			var created bool
			id, created = cfg.Dispatcher.TriggerLabel(label)
			if !created {
				WriteError(w, http.StatusConflict, "player is not playing or paused", "PLAYER_INACTIVE")
				return
			}
		}

		m, err := cfg.Store.Get(id)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		WriteJSON(w, http.StatusCreated, MarkToResponse(m))
	}
}

func selectMarkHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := marks.ID(chi.URLParam(r, "id"))
		if id == "" {
			WriteError(w, http.StatusBadRequest, "mark id required", "BAD_REQUEST")
			return
		}

		snap, err := cfg.Session.Select(id)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeSelection(w, cfg, id, snap)
	}
}

func getSelectionHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st := cfg.Session.State()
		writeSelection(w, cfg, st.Selected, st.Range)
	}
}

func deleteSelectionHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cfg.Session.Deselect()
		w.WriteHeader(http.StatusNoContent)
	}
}

// editRangeHandler is the range control's user-edit path. A request may
// move one handle; the missing bound keeps its current value.
func editRangeHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req RangeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}
		if req.StartMs == nil && req.EndMs == nil {
			WriteError(w, http.StatusBadRequest, "start_ms or end_ms is required", "BAD_REQUEST")
			return
		}

		snap, err := cfg.Session.EditBounds(req.StartMs, req.EndMs)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		id, _ := cfg.Session.Selected()
		writeSelection(w, cfg, id, snap)
	}
}

func writeSelection(w http.ResponseWriter, cfg ServerConfig, id marks.ID, snap timeline.Snapshot) {
	resp := SelectionResponse{MarkID: string(id), Range: snap}
	if id != "" {
		if m, err := cfg.Store.Get(id); err == nil {
			mr := MarkToResponse(m)
			resp.Mark = &mr
		}
	}
	WriteJSON(w, http.StatusOK, resp)
}
