package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/hyperjump/frontpage/internal/index"
	"github.com/hyperjump/frontpage/internal/models"
)

func sampleHits() []index.Hit {
	return []index.Hit{
		{
			Row:   3,
			Score: 0.91,
			Example: &models.Example{
				Text:    "We release a new benchmark dataset for question answering.",
				Created: "2024-01-05",
				Meta: models.Meta{
					Title: "A Benchmark for QA",
					URL:   "http://arxiv.org/abs/2401.01234v1",
				},
			},
		},
	}
}

func TestWriteHits_JSON(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteHits(&buf, "dataset", sampleHits(), OutputJSON); err != nil {
		t.Fatalf("WriteHits(json): %v", err)
	}
	var decoded struct {
		Query string      `json:"query"`
		Hits  []index.Hit `json:"hits"`
	}
	if err := json.NewDecoder(&buf).Decode(&decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if decoded.Query != "dataset" {
		t.Errorf("query=%q", decoded.Query)
	}
	if len(decoded.Hits) != 1 || decoded.Hits[0].Row != 3 {
		t.Errorf("hits=%+v", decoded.Hits)
	}
}

func TestWriteHits_text(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteHits(&buf, "dataset", sampleHits(), OutputText); err != nil {
		t.Fatalf("WriteHits(text): %v", err)
	}
	out := buf.String()
	for _, sub := range []string{"Found 1 results", "Rank: 1", "Row: 3", "A Benchmark for QA", "2024-01-05", "benchmark dataset"} {
		if !strings.Contains(out, sub) {
			t.Errorf("text output missing %q:\n%s", sub, out)
		}
	}
}

func TestWriteHits_textEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteHits(&buf, "nothing", nil, OutputText); err != nil {
		t.Fatalf("WriteHits(text): %v", err)
	}
	if !strings.Contains(buf.String(), "Found 0 results") {
		t.Errorf("got %q", buf.String())
	}
}

func TestWriteHits_unknownFormatTreatedAsText(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteHits(&buf, "x", nil, OutputFormat("unknown")); err != nil {
		t.Fatalf("WriteHits(unknown): %v", err)
	}
	if !strings.Contains(buf.String(), "Found") {
		t.Errorf("unknown format should fall back to text; got %q", buf.String())
	}
}
