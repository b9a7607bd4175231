// package formatter renders run reports to various formats (CSV, Markdown, plain text)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/desertthunder/ytspot/internal/matcher"
	"github.com/desertthunder/ytspot/internal/models"
	"github.com/samber/lo"
)

// Format names accepted by [Unmatched].
const (
	FormatText     = "text"
	FormatCSV      = "csv"
	FormatMarkdown = "markdown"
)

// Formats lists the supported output formats.
var Formats = []string{FormatText, FormatCSV, FormatMarkdown}

// Unmatched renders the unmatched outcomes of run in the named format.
func Unmatched(format string, run *models.Run, outcomes []*models.Outcome) ([]byte, error) {
	switch format {
	case FormatCSV:
		return UnmatchedToCSV(outcomes)
	case FormatMarkdown:
		return UnmatchedToMarkdown(run, outcomes)
	case FormatText, "":
		return UnmatchedToText(run, outcomes)
	default:
		return nil, fmt.Errorf("unknown format %q (want one of %s)", format, strings.Join(Formats, ", "))
	}
}

// UnmatchedToCSV converts outcomes to CSV with columns: Collection, Video ID, Title, Artist, Query
func UnmatchedToCSV(outcomes []*models.Outcome) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Collection", "Video ID", "Title", "Artist", "Query"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, o := range outcomes {
		record := []string{o.Collection(), o.SourceID(), o.Title(), o.Artist(), query(o)}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// UnmatchedToMarkdown renders one section per collection with a link to each video.
func UnmatchedToMarkdown(run *models.Run, outcomes []*models.Outcome) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString("# Unmatched tracks\n\n")
	if run != nil {
		buf.WriteString(fmt.Sprintf("**Run**: #%d (%s)\n", run.Sequence(), run.ID()))
		buf.WriteString(fmt.Sprintf("**Started**: %s\n", run.CreatedAt().Format(time.RFC3339)))
	}
	buf.WriteString(fmt.Sprintf("**Tracks**: %d\n", len(outcomes)))

	for _, collection := range collectionOrder(outcomes) {
		buf.WriteString(fmt.Sprintf("\n## %s\n\n", collection))
		n := 0
		for _, o := range outcomes {
			if o.Collection() != collection {
				continue
			}
			n++
			buf.WriteString(fmt.Sprintf("%d. [%s](https://www.youtube.com/watch?v=%s)%s\n", n, escapeMarkdown(o.Title()), o.SourceID(), artistPart(o)))
		}
	}

	return buf.Bytes(), nil
}

// UnmatchedToText renders outcomes as plain text grouped by collection.
func UnmatchedToText(run *models.Run, outcomes []*models.Outcome) ([]byte, error) {
	var buf bytes.Buffer

	if run != nil {
		buf.WriteString(fmt.Sprintf("Run #%d (%s)\n", run.Sequence(), run.ID()))
	}
	buf.WriteString(fmt.Sprintf("Unmatched: %d\n", len(outcomes)))

	for _, collection := range collectionOrder(outcomes) {
		buf.WriteString(fmt.Sprintf("\n%s\n", collection))
		for _, o := range outcomes {
			if o.Collection() == collection {
				buf.WriteString(fmt.Sprintf("  - %s%s\n", o.Title(), artistPart(o)))
			}
		}
	}

	return buf.Bytes(), nil
}

// RunsToText writes one aligned row per run.
func RunsToText(w io.Writer, runs []*models.Run) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tID\tSTARTED\tSTATUS\tCOLLECTIONS\tMATCHED\tUNMATCHED\tFAILED BATCHES")
	for _, r := range runs {
		status := string(r.Status())
		if r.DryRun() {
			status += " (dry run)"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d\t%d\t%d\t%d\n",
			r.Sequence(),
			r.ID(),
			r.CreatedAt().Local().Format("2006-01-02 15:04"),
			status,
			r.Collections(),
			r.Matched(),
			r.Unmatched(),
			r.FailedBatches(),
		)
	}
	return tw.Flush()
}

// WriteReport writes data to path, or to w when path is empty.
func WriteReport(w io.Writer, path string, data []byte) error {
	if path == "" {
		_, err := w.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

// collectionOrder returns collection names in order of first appearance.
func collectionOrder(outcomes []*models.Outcome) []string {
	return lo.Uniq(lo.Map(outcomes, func(o *models.Outcome, _ int) string { return o.Collection() }))
}

func artistPart(o *models.Outcome) string {
	if o.Artist() == "" {
		return ""
	}
	return " (" + o.Artist() + ")"
}

func query(o *models.Outcome) string {
	return matcher.Query(models.ArtistTitle{Title: o.Title(), Artist: o.Artist()})
}

var markdownEscaper = strings.NewReplacer("[", `\[`, "]", `\]`)

func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}
