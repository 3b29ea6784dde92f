// Package e2e runs the whole pipeline over a fixture corpus: raw download
// batches through preprocessing, index builds, retrieval, training, and the
// site render.
package e2e

import (
	"fmt"
	"strings"

	"github.com/hyperjump/frontpage/internal/ingest"
	"github.com/hyperjump/frontpage/internal/models"
)

// Paper is one fixture abstract. Each abstract carries a unique signature
// phrase so retrieval queries can assert the right paper came back, and the
// final sentence is the one a section classifier should pick up.
type Paper struct {
	Title    string
	Abstract string
	Created  string
	Label    string
}

// QueryTestCase defines a lexical query and the paper titles of which at
// least one must appear in the results.
type QueryTestCase struct {
	Query          string
	ExpectedTitles []string
	Description    string
}

// Corpus holds the fixture papers and the retrieval test cases built from
// their signature phrases.
type Corpus struct {
	Papers    []Paper
	TestCases []QueryTestCase
}

// Labels used across the fixture corpus, in section order.
var CorpusLabels = []string{"new-dataset", "new-model", "data-quality", "education"}

// BuildCorpus returns a corpus of papers spread over three submission days.
func BuildCorpus() *Corpus {
	topics := []struct {
		title    string
		phrase   string
		body     string
		label    string
	}{
		{"A Multilingual Corpus for Intent Detection", "multilingual intent detection benchmark",
			"Intent detection systems degrade outside English. We release a multilingual intent detection benchmark covering forty languages.", "new-dataset"},
		{"LegalQA: Question Answering over Statutes", "statute question answering dataset",
			"Legal text is underserved by current resources. We publish a statute question answering dataset with expert annotations.", "new-dataset"},
		{"ClinNotes: De-identified Clinical Narratives", "clinical narrative corpus release",
			"Clinical NLP lacks shareable data. Our clinical narrative corpus release contains eighty thousand de-identified notes.", "new-dataset"},
		{"TableBench for Structured Reasoning", "table reasoning evaluation suite",
			"Reasoning over tables remains brittle. We introduce a table reasoning evaluation suite with compositional splits.", "new-dataset"},
		{"Sparse Mixture Decoding for Long Inputs", "sparse mixture decoder architecture",
			"Long inputs overwhelm dense attention. We propose a sparse mixture decoder architecture that scales linearly.", "new-model"},
		{"Distilling Retrieval into Generation", "retrieval distilled generator model",
			"Retrieval pipelines add latency. Our retrieval distilled generator model internalizes the index at training time.", "new-model"},
		{"Contrastive Pretraining for Code Search", "contrastive code encoder",
			"Code search needs better representations. We train a contrastive code encoder on aligned docstring pairs.", "new-model"},
		{"Recurrent State Spaces Revisited", "state space sequence model",
			"Attention is not the only route to context. A state space sequence model matches transformers at a fraction of the memory.", "new-model"},
		{"Label Noise in Crowdsourced Benchmarks", "annotation noise audit",
			"Benchmark scores hide annotation problems. Our annotation noise audit finds ten percent contradictory labels in popular sets.", "data-quality"},
		{"Duplicate Contamination in Web Corpora", "near duplicate contamination study",
			"Test sets leak into training crawls. This near duplicate contamination study quantifies overlap across five corpora.", "data-quality"},
		{"Auditing Demographic Skew in Pretraining Data", "pretraining data skew measurement",
			"Pretraining corpora are rarely inspected. We present a pretraining data skew measurement across sources and dialects.", "data-quality"},
		{"Teaching Transformers in the Classroom", "interactive curriculum for attention",
			"Attention is hard to teach from equations alone. We describe an interactive curriculum for attention built on visual widgets.", "education"},
		{"A Course on Reproducible NLP Experiments", "reproducibility course materials",
			"Students rarely learn experiment hygiene. We share reproducibility course materials used across three semesters.", "education"},
		{"Explaining Embeddings to Non-Specialists", "embedding intuition tutorial",
			"Vector semantics confuses newcomers. Our embedding intuition tutorial uses geography metaphors and live demos.", "education"},
	}

	days := []string{"2024-01-04", "2024-01-05", "2024-01-06"}
	papers := make([]Paper, 0, len(topics))
	for i, tp := range topics {
		papers = append(papers, Paper{
			Title:    tp.title,
			Abstract: tp.body,
			Created:  fmt.Sprintf("%s %02d:00:00", days[i%len(days)], 9+i%8),
			Label:    tp.label,
		})
	}

	var cases []QueryTestCase
	for _, tp := range topics {
		cases = append(cases, QueryTestCase{
			Query:          tp.phrase,
			ExpectedTitles: []string{tp.title},
			Description:    fmt.Sprintf("query %q returns %q", tp.phrase, tp.title),
		})
	}
	return &Corpus{Papers: papers, TestCases: cases}
}

// ToRecords converts the papers to pipeline records with segmented sentences.
func (c *Corpus) ToRecords() []*models.Record {
	out := make([]*models.Record, len(c.Papers))
	for i, p := range c.Papers {
		rec := &models.Record{
			Created:   p.Created,
			Title:     p.Title,
			Abstract:  p.Abstract,
			Sentences: ingest.SplitSentences(p.Abstract),
			URL:       fmt.Sprintf("http://arxiv.org/abs/2401.%05dv1", i+1),
		}
		rec.Normalize()
		out[i] = rec
	}
	return out
}

// Batches groups the corpus records into dated download batch files, keyed by
// the batch filename the downloader would have used.
func (c *Corpus) Batches() map[string][]*models.Record {
	out := make(map[string][]*models.Record)
	for _, rec := range c.ToRecords() {
		name := rec.Day() + "-10h.jsonl"
		out[name] = append(out[name], rec)
	}
	return out
}

// PaperByTitle returns the fixture paper with the given title.
func (c *Corpus) PaperByTitle(title string) (Paper, bool) {
	for _, p := range c.Papers {
		if p.Title == title {
			return p, true
		}
	}
	return Paper{}, false
}

func containsPhrase(p Paper, phrase string) bool {
	return strings.Contains(p.Title, phrase) || strings.Contains(p.Abstract, phrase)
}
