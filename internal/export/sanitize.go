package export

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"unicode"

	"github.com/tofu/tofu-labeller/internal/playback"
)

var ErrInvalidOutputDir = errors.New("invalid output_dir")

// ClipName flattens a mark label onto a single EDL comment line. Line
// breaks, tabs and other control runes collapse into one space.
func ClipName(label string, maxLen int) string {
	fields := strings.FieldsFunc(label, func(r rune) bool {
		return unicode.IsSpace(r) || unicode.IsControl(r)
	})
	return truncateRunes(strings.Join(fields, " "), maxLen)
}

// FileStem turns a media file name or a requested export name into the
// stem of an export file. Export and video extensions are dropped, every
// run of runes outside [letters digits - . _] becomes a single '_', and
// leading dots are removed so the export is never a hidden file.
func FileStem(name string, maxLen int) string {
	name = strings.TrimSpace(filepath.Base(filepath.Clean("/" + name)))
	if ext := strings.ToLower(filepath.Ext(name)); ext == "."+FormatCSV || ext == "."+FormatEDL || playback.IsVideoFile(name) {
		name = name[:len(name)-len(ext)]
	}

	var b strings.Builder
	pendingSep := false
	for _, r := range name {
		if !isStemRune(r) {
			pendingSep = true
			continue
		}
		if pendingSep && b.Len() > 0 {
			b.WriteRune('_')
		}
		pendingSep = false
		b.WriteRune(r)
	}

	stem := strings.TrimLeft(b.String(), ".")
	return strings.TrimRight(truncateRunes(stem, maxLen), "._")
}

func isStemRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_' || r == '.'
}

func truncateRunes(s string, maxLen int) string {
	if maxLen <= 0 {
		return s
	}
	if runes := []rune(s); len(runes) > maxLen {
		return string(runes[:maxLen])
	}
	return s
}

// ValidateOutputDir requires an absolute, clean path to an existing
// directory. Relative paths would resolve against the agent's working
// directory, which the front end cannot see.
func ValidateOutputDir(dir string) error {
	if strings.TrimSpace(dir) == "" {
		return fmt.Errorf("%w: required", ErrInvalidOutputDir)
	}
	if slices.Contains(strings.Split(filepath.ToSlash(dir), "/"), "..") {
		return fmt.Errorf("%w: path traversal", ErrInvalidOutputDir)
	}
	if !filepath.IsAbs(dir) {
		return fmt.Errorf("%w: must be absolute", ErrInvalidOutputDir)
	}
	if filepath.Clean(dir) != dir {
		return fmt.Errorf("%w: must be a clean path", ErrInvalidOutputDir)
	}

	info, err := os.Stat(dir)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return fmt.Errorf("%w: %s does not exist", ErrInvalidOutputDir, dir)
	case err != nil:
		return fmt.Errorf("%w: %w", ErrInvalidOutputDir, err)
	case !info.IsDir():
		return fmt.Errorf("%w: %s is not a directory", ErrInvalidOutputDir, dir)
	}
	return nil
}
