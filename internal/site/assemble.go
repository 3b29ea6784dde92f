package site

import (
	"fmt"
	"iter"
	"math"
	"slices"
	"sort"
	"strconv"
	"strings"

	"github.com/hyperjump/frontpage/internal/config"
	"github.com/hyperjump/frontpage/internal/models"
)

// Section is one assembled output section, newest content first.
type Section struct {
	Label   string
	Title   string
	Content []*models.Record
}

// Assembler groups assigned records into the configured sections and renders
// the per-record highlight HTML.
type Assembler struct {
	sections   []config.SectionConfig
	thresholds map[string]float64
}

// NewAssembler creates an assembler over the configured sections.
func NewAssembler(sections []config.SectionConfig) *Assembler {
	thresholds := make(map[string]float64, len(sections))
	for _, s := range sections {
		thresholds[s.Label] = s.Threshold
	}
	return &Assembler{sections: sections, thresholds: thresholds}
}

// Assemble drains the assignment stream and produces one Section per
// configured section, in configuration order. Duplicate emissions of the same
// record collapse to one entry; each section entry is an independent copy
// carrying HTML with that section's qualifying sentences highlighted. Within
// a section, content is ordered newest first.
func (a *Assembler) Assemble(assigned iter.Seq2[*models.Record, error]) ([]*Section, error) {
	seen := make(map[string]bool)
	var records []*models.Record
	for rec, err := range assigned {
		if err != nil {
			return nil, err
		}
		if rec.Abstract == "" || seen[rec.Abstract] {
			continue
		}
		seen[rec.Abstract] = true
		records = append(records, rec)
	}

	buckets := make(map[string][]*models.Record, len(a.sections))
	for _, rec := range records {
		for _, label := range rec.Sections {
			if _, ok := a.thresholds[label]; !ok {
				continue
			}
			entry := rec.Clone()
			entry.HTML = renderHTML(entry, label, a.thresholds[label])
			buckets[label] = append(buckets[label], entry)
		}
	}

	out := make([]*Section, 0, len(a.sections))
	for _, sec := range a.sections {
		content := dedupRecords(buckets[sec.Label])
		sort.SliceStable(content, func(i, j int) bool {
			return content[i].Created > content[j].Created
		})
		out = append(out, &Section{Label: sec.Label, Title: sec.Title, Content: content})
	}
	return out, nil
}

func dedupRecords(records []*models.Record) []*models.Record {
	seen := make(map[string]bool, len(records))
	return slices.DeleteFunc(slices.Clone(records), func(r *models.Record) bool {
		if seen[r.Abstract] {
			return true
		}
		seen[r.Abstract] = true
		return false
	})
}

// renderHTML joins the record's sentences into one paragraph, wrapping each
// sentence that clears the section threshold in a highlight span with its
// rounded probability.
func renderHTML(rec *models.Record, label string, threshold float64) string {
	var b strings.Builder
	b.WriteString("<p>")
	for i, sent := range rec.Sentences {
		if i >= len(rec.Preds) {
			break
		}
		proba := rec.Preds[i][label]
		if proba > threshold {
			fmt.Fprintf(&b,
				"<span class='px-1 mx-1 bg-yellow-200'>%s <span style='font-size: 0.65rem;' class='text-purple-500 font-bold'>%s</span></span>",
				sent, formatProba(proba))
		} else {
			b.WriteString(sent)
		}
	}
	b.WriteString("</p>")
	return b.String()
}

// formatProba rounds to three decimals and trims trailing zeros, so 0.9
// renders as "0.9" and 0.9146 as "0.915".
func formatProba(p float64) string {
	return strconv.FormatFloat(math.Round(p*1000)/1000, 'f', -1, 64)
}
