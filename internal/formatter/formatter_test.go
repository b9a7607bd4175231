package formatter

import (
	"bytes"
	"encoding/csv"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/ytspot/internal/models"
	th "github.com/desertthunder/ytspot/internal/testing"
)

func testOutcomes() []*models.Outcome {
	now := time.Now()
	return []*models.Outcome{
		models.RestoreOutcome("o1", 1, "run1", "Liked Videos", "vid1", "Song One", "Artist One", "", models.OutcomeUnmatched, now, now),
		models.RestoreOutcome("o2", 2, "run1", "Road Trip", "vid2", "Song [Live]", "", "", models.OutcomeUnmatched, now, now),
		models.RestoreOutcome("o3", 3, "run1", "Liked Videos", "vid3", "Song, Three", "Band", "", models.OutcomeUnmatched, now, now),
	}
}

func testRun() *models.Run {
	created := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	finished := created.Add(time.Minute)
	return models.RestoreRun("run1", 4, models.RunCompleted, false, 2, 10, 3, 0, "", &finished, created, finished)
}

func TestUnmatched(t *testing.T) {
	t.Run("UnmatchedToCSV", func(t *testing.T) {
		data, err := UnmatchedToCSV(testOutcomes())
		if err != nil {
			t.Fatalf("UnmatchedToCSV failed: %v", err)
		}

		records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
		if err != nil {
			t.Fatalf("output is not valid CSV: %v", err)
		}
		if len(records) != 4 {
			t.Fatalf("expected header and 3 rows, got %d", len(records))
		}
		if strings.Join(records[0], ",") != "Collection,Video ID,Title,Artist,Query" {
			t.Errorf("unexpected headers: %v", records[0])
		}
		if records[1][4] != "track:Song One artist:Artist One" {
			t.Errorf("unexpected query column: %q", records[1][4])
		}
		if records[2][4] != "track:Song [Live]" {
			t.Errorf("expected query without artist, got %q", records[2][4])
		}
		if records[3][2] != "Song, Three" {
			t.Errorf("expected quoted title to round trip, got %q", records[3][2])
		}
	})

	t.Run("UnmatchedToMarkdown", func(t *testing.T) {
		data, err := UnmatchedToMarkdown(testRun(), testOutcomes())
		if err != nil {
			t.Fatalf("UnmatchedToMarkdown failed: %v", err)
		}
		output := string(data)

		for _, want := range []string{
			"# Unmatched tracks",
			"**Run**: #4 (run1)",
			"**Tracks**: 3",
			"## Liked Videos",
			"## Road Trip",
			"1. [Song One](https://www.youtube.com/watch?v=vid1) (Artist One)",
			"2. [Song, Three](https://www.youtube.com/watch?v=vid3) (Band)",
			`1. [Song \[Live\]](https://www.youtube.com/watch?v=vid2)`,
		} {
			if !strings.Contains(output, want) {
				t.Errorf("Markdown missing %q, got:\n%s", want, output)
			}
		}

		if strings.Index(output, "## Liked Videos") > strings.Index(output, "## Road Trip") {
			t.Error("collections should appear in order of first outcome")
		}
	})

	t.Run("UnmatchedToText", func(t *testing.T) {
		data, err := UnmatchedToText(nil, testOutcomes())
		if err != nil {
			t.Fatalf("UnmatchedToText failed: %v", err)
		}
		output := string(data)

		if strings.Contains(output, "Run #") {
			t.Error("expected no run header without a run")
		}
		if !strings.Contains(output, "Unmatched: 3") {
			t.Errorf("missing count, got:\n%s", output)
		}
		if !strings.Contains(output, "  - Song One (Artist One)") || !strings.Contains(output, "  - Song [Live]\n") {
			t.Errorf("unexpected lines, got:\n%s", output)
		}
	})

	t.Run("empty outcomes", func(t *testing.T) {
		data, err := UnmatchedToText(testRun(), nil)
		if err != nil {
			t.Fatalf("UnmatchedToText failed: %v", err)
		}
		if string(data) != "Run #4 (run1)\nUnmatched: 0\n" {
			t.Errorf("unexpected output: %q", string(data))
		}
	})

	t.Run("Unmatched dispatches on format", func(t *testing.T) {
		tests := []struct {
			format  string
			prefix  string
			wantErr bool
		}{
			{format: FormatCSV, prefix: "Collection,"},
			{format: FormatMarkdown, prefix: "# Unmatched tracks"},
			{format: FormatText, prefix: "Run #4"},
			{format: "", prefix: "Run #4"},
			{format: "json", wantErr: true},
		}

		for _, tt := range tests {
			t.Run(tt.format, func(t *testing.T) {
				data, err := Unmatched(tt.format, testRun(), testOutcomes())
				if tt.wantErr {
					if err == nil {
						t.Error("expected error for unknown format")
					}
					return
				}
				if err != nil {
					t.Fatalf("Unmatched() error = %v", err)
				}
				if !strings.HasPrefix(string(data), tt.prefix) {
					t.Errorf("expected output to start with %q, got %q", tt.prefix, string(data))
				}
			})
		}
	})
}

func TestRunsToText(t *testing.T) {
	var buf bytes.Buffer
	created := time.Now()
	runs := []*models.Run{
		testRun(),
		models.RestoreRun("run2", 5, models.RunFailed, true, 0, 0, 0, 0, "boom", nil, created, created),
	}

	if err := RunsToText(&buf, runs); err != nil {
		t.Fatalf("RunsToText() error = %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header and 2 rows, got %d", len(lines))
	}
	if !strings.HasPrefix(lines[0], "#") || !strings.Contains(lines[0], "FAILED BATCHES") {
		t.Errorf("unexpected header: %q", lines[0])
	}
	if !strings.Contains(lines[1], "run1") || !strings.Contains(lines[1], "completed") {
		t.Errorf("unexpected first row: %q", lines[1])
	}
	if !strings.Contains(lines[2], "failed (dry run)") {
		t.Errorf("expected dry run marker, got %q", lines[2])
	}

	if err := RunsToText(&th.FWriter{}, runs); err == nil {
		t.Error("expected write error")
	}
}

func TestWriteReport(t *testing.T) {
	t.Run("stdout", func(t *testing.T) {
		var buf bytes.Buffer
		if err := WriteReport(&buf, "", []byte("hello")); err != nil {
			t.Fatalf("WriteReport() error = %v", err)
		}
		if buf.String() != "hello" {
			t.Errorf("unexpected output: %q", buf.String())
		}
	})

	t.Run("file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "unmatched.csv")
		var buf bytes.Buffer
		if err := WriteReport(&buf, path, []byte("a,b\n")); err != nil {
			t.Fatalf("WriteReport() error = %v", err)
		}
		th.AssertFileExists(t, path)
		if got := th.MustReadFile(t, path); got != "a,b\n" {
			t.Errorf("unexpected file content: %q", got)
		}
		if buf.Len() != 0 {
			t.Error("nothing should be written to the writer")
		}
	})

	t.Run("bad path", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "missing", "out.txt")
		if err := WriteReport(&bytes.Buffer{}, path, []byte("x")); err == nil {
			t.Error("expected error for missing directory")
		}
	})

	t.Run("writer error", func(t *testing.T) {
		if err := WriteReport(&th.FWriter{}, "", []byte("x")); err == nil {
			t.Error("expected write error")
		}
	})
}
