package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/hyperjump/kotae/internal/models"
	"github.com/hyperjump/kotae/pkg/utils"
)

// OutputFormat selects how command results are printed.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// ParseOutputFormat validates a --output flag value.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(strings.ToLower(s)); f {
	case OutputText, OutputJSON:
		return f, nil
	default:
		return "", fmt.Errorf("unknown output format %q; use text or json", s)
	}
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// WriteUpload prints the result of one upload.
func WriteUpload(w io.Writer, resp *models.UploadResponse, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, resp)
	}
	_, err := fmt.Fprintf(w, "%s: %d segments indexed in %s\n", resp.Filename, resp.Segments, resp.ProcessingTime)
	return err
}

// WriteAnswer prints an answer and its stage timings.
func WriteAnswer(w io.Writer, resp *models.AskResponse, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, resp)
	}
	fmt.Fprintf(w, "%s\n\n", resp.Answer)
	_, err := fmt.Fprintf(w, "(search %s, generation %s, total %s)\n",
		resp.Timings.ContextSearch, resp.Timings.AnswerGeneration, resp.Timings.Total)
	return err
}

// WriteSearchResults prints retrieved segments, best first.
func WriteSearchResults(w io.Writer, resp *models.SearchResponse, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, resp)
	}
	if len(resp.Hits) == 0 {
		_, err := fmt.Fprintln(w, "No matching segments.")
		return err
	}
	fmt.Fprintf(w, "\nFound %d segments for %q\n\n", len(resp.Hits), resp.Query)
	for i, h := range resp.Hits {
		fmt.Fprintf(w, "─────────────────────────────────────────────────────────\n")
		fmt.Fprintf(w, "#%d %s | Relevance: %.2f (distance %.4f)\n", i+1, h.Filename, h.Relevance, h.Distance)
		fmt.Fprintf(w, "\n%s\n\n", utils.Ellipsize(h.Text, 200))
	}
	return nil
}

// WriteDocuments prints the catalog.
func WriteDocuments(w io.Writer, resp *DocumentsResponse, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, resp)
	}
	fmt.Fprintf(w, "%d documents\n", resp.Total)
	for _, d := range resp.Documents {
		fmt.Fprintf(w, "  %-36s  %-30s  %4d segments  %7d chars  %s\n",
			d.ID, d.Filename, d.SegmentCount, d.CharCount, d.IngestedAt.Format("2006-01-02 15:04:05"))
	}
	return nil
}

// WriteStatus prints engine counts, ceilings and configuration.
func WriteStatus(w io.Writer, s *StatusResponse, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, s)
	}
	e := s.Engine
	fmt.Fprintf(w, "documents:          %d / %d\n", e.Documents, e.MaxDocuments)
	if e.MaxSegments > 0 {
		fmt.Fprintf(w, "segments:           %d / %d\n", e.Segments, e.MaxSegments)
	} else {
		fmt.Fprintf(w, "segments:           %d\n", e.Segments)
	}
	fmt.Fprintf(w, "embedder:           %s (%d dims)\n", e.Embedder, e.Dimensions)
	if s.DiskUsageBytes != nil {
		fmt.Fprintf(w, "disk_usage_bytes:   %d\n", *s.DiskUsageBytes)
	}
	for _, st := range []models.IngestionStatus{models.IngestionIndexed, models.IngestionRejected, models.IngestionFailed} {
		if n, ok := s.Ingestions[st]; ok {
			fmt.Fprintf(w, "ingestions_%-8s %d\n", string(st)+":", n)
		}
	}
	for _, d := range s.WatchedDirectories {
		fmt.Fprintf(w, "watching:           %s\n", d)
	}
	if len(s.Config) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "# configuration")
		keys := make([]string, 0, len(s.Config))
		for k := range s.Config {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(w, "%-20s %v\n", k+":", s.Config[k])
		}
	}
	return nil
}
