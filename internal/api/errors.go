package api

import (
	"errors"
	"net/http"

	"github.com/tofu/tofu-labeller/internal/editor"
	"github.com/tofu/tofu-labeller/internal/export"
	"github.com/tofu/tofu-labeller/internal/labels"
	"github.com/tofu/tofu-labeller/internal/marks"
	"github.com/tofu/tofu-labeller/internal/timeline"
)

// writeDomainError maps the core sentinel errors onto status codes.
// Anything unrecognised is a 500.
func writeDomainError(w http.ResponseWriter, err error) {
	status, code := http.StatusInternalServerError, "INTERNAL_ERROR"
	switch {
	case errors.Is(err, marks.ErrUnknownMark):
		status, code = http.StatusNotFound, "UNKNOWN_MARK"
	case errors.Is(err, labels.ErrUnboundShortcut):
		status, code = http.StatusNotFound, "UNBOUND_SHORTCUT"
	case errors.Is(err, editor.ErrNoMedia):
		status, code = http.StatusConflict, "NO_MEDIA"
	case errors.Is(err, timeline.ErrNoActiveSelection):
		status, code = http.StatusConflict, "NO_ACTIVE_SELECTION"
	case errors.Is(err, labels.ErrDuplicateBinding):
		status, code = http.StatusConflict, "DUPLICATE_BINDING"
	case errors.Is(err, labels.ErrInvalidBinding):
		status, code = http.StatusBadRequest, "INVALID_BINDING"
	case errors.Is(err, labels.ErrInvalidTimestamp):
		status, code = http.StatusBadRequest, "INVALID_TIMESTAMP"
	case errors.Is(err, timeline.ErrInvalidExtent):
		status, code = http.StatusBadRequest, "INVALID_EXTENT"
	case errors.Is(err, timeline.ErrInvalidInterval):
		status, code = http.StatusUnprocessableEntity, "INVALID_INTERVAL"
	case errors.Is(err, timeline.ErrOutsideExtent):
		status, code = http.StatusUnprocessableEntity, "OUTSIDE_EXTENT"
	case errors.Is(err, timeline.ErrOutsideWindow):
		status, code = http.StatusUnprocessableEntity, "OUTSIDE_WINDOW"
	case errors.Is(err, export.ErrUnsupportedFormat), errors.Is(err, export.ErrInvalidOutputDir):
		status, code = http.StatusBadRequest, "BAD_REQUEST"
	}

	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "internal server error"
	}
	WriteError(w, status, msg, code)
}
