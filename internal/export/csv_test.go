package export

import (
	"bytes"
	"errors"
	"iter"
	"slices"
	"testing"

	"github.com/tofu/tofu-labeller/internal/marks"
	"github.com/tofu/tofu-labeller/internal/timeline"
)

func TestWriteCSV(t *testing.T) {
	rows := []marks.Row{
		{Label: "kick", Start: 1500, End: 1500},
		{Label: "snare, loud", Start: 2000, End: 4250},
		{Label: `say "hi"`, Start: 0, End: 1},
	}

	var buf bytes.Buffer
	n, err := WriteCSV(&buf, slices.Values(rows))
	if err != nil {
		t.Fatalf("WriteCSV() error = %v", err)
	}
	if n != 3 {
		t.Fatalf("WriteCSV() rows = %d, want 3", n)
	}

	want := "kick,1.5,1.5\n" +
		"\"snare, loud\",2,4.25\n" +
		"\"say \"\"hi\"\"\",0,0.001\n"
	if got := buf.String(); got != want {
		t.Fatalf("WriteCSV() output = %q, want %q", got, want)
	}
}

func TestWriteCSV_Empty(t *testing.T) {
	var buf bytes.Buffer
	n, err := WriteCSV(&buf, slices.Values([]marks.Row(nil)))
	if err != nil {
		t.Fatalf("WriteCSV() error = %v", err)
	}
	if n != 0 || buf.Len() != 0 {
		t.Fatalf("WriteCSV() on no rows wrote %d rows, %q", n, buf.String())
	}
}

func TestWriteCSV_FromStore(t *testing.T) {
	store := marks.NewStore()
	store.CreateMark("a", 1000)
	id := store.CreateMark("b", 2000)
	if err := store.UpdateMark(id, timeline.Interval{Start: 1500, End: 3000}); err != nil {
		t.Fatalf("UpdateMark() error = %v", err)
	}

	var buf bytes.Buffer
	if _, err := WriteCSV(&buf, store.Rows()); err != nil {
		t.Fatalf("WriteCSV() error = %v", err)
	}
	if got, want := buf.String(), "a,1,1\nb,1.5,3\n"; got != want {
		t.Fatalf("WriteCSV() output = %q, want %q", got, want)
	}
}

type failWriter struct{}

func (failWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestWriteCSV_WriterError(t *testing.T) {
	var rows iter.Seq[marks.Row] = slices.Values([]marks.Row{{Label: "a"}})
	if _, err := WriteCSV(failWriter{}, rows); err == nil {
		t.Fatal("WriteCSV() expected error from failing writer")
	}
}
