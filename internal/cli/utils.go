// Package cli provides output helpers for the frontpage CLI.
package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/hyperjump/frontpage/internal/index"
	"github.com/hyperjump/frontpage/pkg/utils"
)

// OutputFormat is the format for search result output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// WriteHits writes query hits to w in the given format.
func WriteHits(w io.Writer, query string, hits []index.Hit, format OutputFormat) error {
	switch format {
	case OutputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]any{"query": query, "hits": hits})
	default:
		writeHitsText(w, query, hits)
		return nil
	}
}

func writeHitsText(w io.Writer, query string, hits []index.Hit) {
	fmt.Fprintf(w, "\nFound %d results for %q\n\n", len(hits), query)
	for i, hit := range hits {
		fmt.Fprintf(w, "─────────────────────────────────────────────────────────\n")
		fmt.Fprintf(w, "Rank: %d | Row: %d | Score: %.4f", i+1, hit.Row, hit.Score)
		if hit.Example != nil && hit.Example.Meta.Distance > 0 {
			fmt.Fprintf(w, " | Distance: %.4f", hit.Example.Meta.Distance)
		}
		fmt.Fprintln(w)
		if hit.Example == nil {
			continue
		}
		if hit.Example.Meta.Title != "" {
			fmt.Fprintf(w, "Title: %s\n", hit.Example.Meta.Title)
		}
		if hit.Example.Meta.URL != "" {
			fmt.Fprintf(w, "URL: %s\n", hit.Example.Meta.URL)
		}
		if hit.Example.Created != "" {
			fmt.Fprintf(w, "Created: %s\n", hit.Example.Created)
		}
		fmt.Fprintf(w, "\n%s\n\n", utils.Truncate(hit.Example.Text, 300))
	}
}
