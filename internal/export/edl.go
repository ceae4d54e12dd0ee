package export

import (
	"fmt"
	"iter"
	"math"
	"strings"

	"github.com/tofu/tofu-labeller/internal/marks"
)

// GenerateEDL lays the marks end to end on the record side, each event
// pointing at its span of the source media. Point marks get one frame.
func GenerateEDL(rows iter.Seq[marks.Row], title, mediaPath string, frameRate float64) (string, int) {
	fps := int(math.Round(frameRate))
	if fps <= 0 {
		fps = 30
	}
	frameMs := 1000.0 / float64(fps)

	isDropFrame := math.Abs(frameRate-29.97) < 0.01 || math.Abs(frameRate-59.94) < 0.01

	lines := []string{fmt.Sprintf("TITLE: %s", title)}
	if isDropFrame {
		lines = append(lines, "FCM: DROP FRAME")
	} else {
		lines = append(lines, "FCM: NON-DROP FRAME")
	}
	lines = append(lines, "")

	n := 0
	recordOffsetMs := 0.0
	for row := range rows {
		n++
		end := row.End
		if end-row.Start < frameMs {
			end = row.Start + frameMs
		}
		durationMs := end - row.Start

		lines = append(lines,
			fmt.Sprintf("%03d  %-8s %-5s C        %s %s %s %s", n, "AX", "V",
				msToTimecode(row.Start, fps),
				msToTimecode(end, fps),
				msToTimecode(recordOffsetMs, fps),
				msToTimecode(recordOffsetMs+durationMs, fps),
			),
			fmt.Sprintf("* FROM CLIP NAME:  %s", ClipName(row.Label, 160)),
			fmt.Sprintf("* SOURCE FILE:  %s", mediaPath),
		)

		recordOffsetMs += durationMs
	}

	lines = append(lines, "")
	return strings.Join(lines, "\n"), n
}

func msToTimecode(ms float64, fps int) string {
	totalFrames := int(math.Round(ms * float64(fps) / 1000.0))
	frames := totalFrames % fps
	totalSeconds := totalFrames / fps
	seconds := totalSeconds % 60
	totalMinutes := totalSeconds / 60
	minutes := totalMinutes % 60
	hours := totalMinutes / 60
	return fmt.Sprintf("%02d:%02d:%02d:%02d", hours, minutes, seconds, frames)
}
