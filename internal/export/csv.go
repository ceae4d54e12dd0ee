package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"iter"
	"strconv"

	"github.com/tofu/tofu-labeller/internal/marks"
)

// WriteCSV writes one (label, startSeconds, endSeconds) record per row, with
// no header. Times are converted from milliseconds here and nowhere else.
func WriteCSV(w io.Writer, rows iter.Seq[marks.Row]) (int, error) {
	cw := csv.NewWriter(w)
	n := 0
	for row := range rows {
		rec := []string{row.Label, formatSeconds(row.Start), formatSeconds(row.End)}
		if err := cw.Write(rec); err != nil {
			return n, fmt.Errorf("write csv row %d: %w", n+1, err)
		}
		n++
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return n, fmt.Errorf("flush csv: %w", err)
	}
	return n, nil
}

func formatSeconds(ms float64) string {
	return strconv.FormatFloat(ms/1000, 'f', -1, 64)
}
