// Package export writes the mark list out as a flat CSV file or an edit
// decision list.
package export

import (
	"bytes"
	"errors"
	"fmt"
	"iter"
	"os"
	"path/filepath"
	"strings"

	"github.com/tofu/tofu-labeller/internal/marks"
)

var ErrUnsupportedFormat = errors.New("unsupported export format")

const defaultName = "marks"

// Source is what an export reads from.
type Source struct {
	Rows      iter.Seq[marks.Row]
	MediaPath string
}

// WriteFile renders the rows in the requested format and writes them to
// OutputDir. The file is written to a temp name first and renamed into place.
func WriteFile(req ExportRequest, src Source) (ExportResponse, error) {
	format := strings.ToLower(strings.TrimSpace(req.Format))
	if format == "" {
		format = FormatCSV
	}
	if format != FormatCSV && format != FormatEDL {
		return ExportResponse{}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, req.Format)
	}
	if err := ValidateOutputDir(req.OutputDir); err != nil {
		return ExportResponse{}, err
	}

	name := FileStem(req.Name, 120)
	if name == "" {
		name = defaultName
	}

	var buf bytes.Buffer
	var count int
	switch format {
	case FormatCSV:
		n, err := WriteCSV(&buf, src.Rows)
		if err != nil {
			return ExportResponse{}, err
		}
		count = n
	case FormatEDL:
		edl, n := GenerateEDL(src.Rows, name, src.MediaPath, req.FrameRate)
		buf.WriteString(edl)
		count = n
	}

	outputPath := filepath.Join(req.OutputDir, name+"."+format)
	tmp, err := os.CreateTemp(req.OutputDir, "."+name+"-*.tmp")
	if err != nil {
		return ExportResponse{}, fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return ExportResponse{}, fmt.Errorf("write export: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return ExportResponse{}, fmt.Errorf("close export: %w", err)
	}
	if err := os.Rename(tmp.Name(), outputPath); err != nil {
		return ExportResponse{}, fmt.Errorf("rename export: %w", err)
	}

	return ExportResponse{
		Status:     "ok",
		Format:     format,
		OutputPath: outputPath,
		MarkCount:  count,
	}, nil
}
