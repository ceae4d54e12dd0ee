package playback

import (
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

var ErrNoMedia = errors.New("no media loaded")

// The system mime table is not guaranteed to know video containers.
var videoTypes = map[string]string{
	".mp4":  "video/mp4",
	".m4v":  "video/mp4",
	".mov":  "video/quicktime",
	".mkv":  "video/x-matroska",
	".webm": "video/webm",
	".avi":  "video/x-msvideo",
}

// ContentType guesses the media type from the file extension.
func ContentType(filePath string) string {
	ext := strings.ToLower(filepath.Ext(filePath))
	if ct, ok := videoTypes[ext]; ok {
		return ct
	}
	return mime.TypeByExtension(ext)
}

// IsVideoFile reports whether the extension is a known video container.
func IsVideoFile(filePath string) bool {
	_, ok := videoTypes[strings.ToLower(filepath.Ext(filePath))]
	return ok
}

type StreamService interface {
	ServeFile(w http.ResponseWriter, r *http.Request, filePath string) error
}

// Streamer serves media files with byte-range support so the front end
// can seek.
type Streamer struct {
	logger *slog.Logger
}

func NewStreamer(logger *slog.Logger) *Streamer {
	return &Streamer{logger: logger}
}

func (s *Streamer) ServeFile(w http.ResponseWriter, r *http.Request, filePath string) error {
	if filePath == "" {
		return ErrNoMedia
	}

	file, err := os.Open(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			http.Error(w, "file not found", http.StatusNotFound)
			return nil
		}
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat file: %w", err)
	}
	if stat.IsDir() {
		http.Error(w, "not a file", http.StatusBadRequest)
		return nil
	}

	contentType := ContentType(filePath)
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)

	// ServeContent handles Range, If-Range and 416 responses.
	http.ServeContent(w, r, stat.Name(), stat.ModTime(), file)
	return nil
}
