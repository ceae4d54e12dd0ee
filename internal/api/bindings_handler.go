package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tofu/tofu-labeller/internal/labels"
)

func listBindingsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, BindingsResponse{Bindings: cfg.Registry.Bindings()})
	}
}

// putBindingHandler binds a combo in memory first so validation and the
// duplicate check run before anything is persisted.
func putBindingHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req BindingRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		b, err := cfg.Registry.Bind(req.Combo, req.Label)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		if err := cfg.Repository.SaveBinding(r.Context(), b); err != nil {
			cfg.Logger.Error("failed to persist binding", "error", err, "combo", b.Combo.String())
			cfg.Registry.Unbind(b.Combo.String())
			WriteError(w, http.StatusInternalServerError, "failed to save binding", "INTERNAL_ERROR")
			return
		}

		cfg.Logger.Info("binding saved", "combo", b.Combo.String(), "label", b.Label)
		WriteJSON(w, http.StatusOK, b)
	}
}

func deleteBindingHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw := chi.URLParam(r, "combo")
		combo, err := labels.ParseCombo(raw)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		removed, err := cfg.Registry.Unbind(combo.String())
		if err != nil {
			writeDomainError(w, err)
			return
		}
		if !removed {
			WriteError(w, http.StatusNotFound, "binding not found", "NOT_FOUND")
			return
		}

		if err := cfg.Repository.DeleteBinding(r.Context(), combo); err != nil {
			cfg.Logger.Error("failed to delete binding", "error", err, "combo", combo.String())
			WriteError(w, http.StatusInternalServerError, "failed to delete binding", "INTERNAL_ERROR")
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func shortcutHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ShortcutRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		var resp ShortcutResponse
		switch {
		case req.Combo != "":
			id, created, err := cfg.Dispatcher.Trigger(req.Combo)
			if err != nil {
				writeDomainError(w, err)
				return
			}
			label, _ := cfg.Registry.Lookup(req.Combo)
			resp = ShortcutResponse{Created: created, MarkID: string(id), Label: label}
		case req.Label != "":
			id, created := cfg.Dispatcher.TriggerLabel(req.Label)
			resp = ShortcutResponse{Created: created, MarkID: string(id), Label: req.Label}
		default:
			WriteError(w, http.StatusBadRequest, "combo or label is required", "BAD_REQUEST")
			return
		}

		status := http.StatusOK
		if resp.Created {
			status = http.StatusCreated
		}
		WriteJSON(w, status, resp)
	}
}
