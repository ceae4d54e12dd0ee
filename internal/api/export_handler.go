package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/tofu/tofu-labeller/internal/export"
)

func exportHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req export.ExportRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		if strings.TrimSpace(req.OutputDir) == "" {
			if cfg.ExportDir == "" {
				WriteError(w, http.StatusBadRequest, "output_dir is required", "BAD_REQUEST")
				return
			}
			if err := os.MkdirAll(cfg.ExportDir, 0o755); err != nil {
				cfg.Logger.Error("failed to create export dir", "error", err)
				WriteError(w, http.StatusInternalServerError, "failed to create export directory", "INTERNAL_ERROR")
				return
			}
			req.OutputDir = cfg.ExportDir
		}

		src := export.Source{Rows: cfg.Store.Rows()}
		if m, ok := cfg.Session.Media(); ok {
			src.MediaPath = m.Path
			if req.Name == "" {
				req.Name = m.Name
			}
		}

		resp, err := export.WriteFile(req, src)
		if err != nil {
			cfg.Logger.Warn("export failed", "error", err)
			writeDomainError(w, err)
			return
		}

		cfg.Logger.Info("marks exported", "format", resp.Format, "marks", resp.MarkCount)
		WriteJSON(w, http.StatusOK, resp)
	}
}

// exportCSVHandler streams the CSV export as a download.
func exportCSVHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := "marks"
		if m, ok := cfg.Session.Media(); ok {
			if n := export.FileStem(m.Name, 120); n != "" {
				name = n
			}
		}

		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name+".csv"))
		if _, err := export.WriteCSV(w, cfg.Store.Rows()); err != nil {
			cfg.Logger.Error("csv export failed", "error", err)
		}
	}
}
