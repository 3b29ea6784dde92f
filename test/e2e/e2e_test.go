package e2e

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/hyperjump/frontpage/internal/archive"
	"github.com/hyperjump/frontpage/internal/classify"
	"github.com/hyperjump/frontpage/internal/config"
	"github.com/hyperjump/frontpage/internal/embedding"
	"github.com/hyperjump/frontpage/internal/index"
	"github.com/hyperjump/frontpage/internal/models"
	"github.com/hyperjump/frontpage/internal/site"
	"github.com/hyperjump/frontpage/internal/storage"
	"github.com/hyperjump/frontpage/internal/stream"
	"github.com/hyperjump/frontpage/internal/train"
)

const e2eDimensions = 16

// pipelineDirs lays out the on-disk pipeline state and writes the corpus as
// raw download batches.
func pipelineDirs(t *testing.T, corpus *Corpus) (downloads, clean, root string) {
	t.Helper()
	root = t.TempDir()
	downloads = filepath.Join(root, "downloads")
	clean = filepath.Join(root, "clean")
	if err := os.MkdirAll(downloads, 0755); err != nil {
		t.Fatal(err)
	}
	for name, recs := range corpus.Batches() {
		batch := recs
		err := stream.WriteFile(filepath.Join(downloads, name), func(yield func(*models.Record) bool) {
			for _, r := range batch {
				if !yield(r) {
					return
				}
			}
		})
		if err != nil {
			t.Fatalf("write batch %s: %v", name, err)
		}
	}
	return downloads, clean, root
}

func TestE2E_PreprocessAndRetrieve(t *testing.T) {
	corpus := BuildCorpus()
	downloads, clean, root := pipelineDirs(t, corpus)
	ctx := context.Background()

	arch := archive.New(downloads, clean, zap.NewNop())
	if err := arch.Preprocess(); err != nil {
		t.Fatalf("preprocess: %v", err)
	}

	store, err := storage.Open(filepath.Join(root, "rows.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	emb := embedding.NewMockEmbedder(e2eDimensions)
	defer emb.Close()

	lexical, err := index.New(index.KindLexical, filepath.Join(root, "indices"), store, emb)
	if err != nil {
		t.Fatal(err)
	}
	examples, err := arch.Examples(index.LevelAbstract)
	if err != nil {
		t.Fatal(err)
	}
	n, err := lexical.Build(ctx, index.LevelAbstract, examples)
	if err != nil {
		t.Fatalf("build lexical index: %v", err)
	}
	if n != len(corpus.Papers) {
		t.Fatalf("indexed %d abstracts, corpus has %d papers", n, len(corpus.Papers))
	}

	for _, tc := range corpus.TestCases {
		t.Run(tc.Description, func(t *testing.T) {
			hits, err := lexical.Query(ctx, index.LevelAbstract, tc.Query, 10)
			if err != nil {
				t.Fatalf("query failed: %v", err)
			}
			if !containsAnyTitle(hits, tc.ExpectedTitles) {
				t.Errorf("query %q: expected one of %v in results, got %v",
					tc.Query, tc.ExpectedTitles, hitTitles(hits))
			}
		})
	}

	similarity, err := index.New(index.KindSimilarity, filepath.Join(root, "indices"), store, emb)
	if err != nil {
		t.Fatal(err)
	}
	sentences, err := arch.Examples(index.LevelSentence)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := similarity.Build(ctx, index.LevelSentence, sentences); err != nil {
		t.Fatalf("build similarity index: %v", err)
	}

	// The embedder is deterministic, so querying with a stored sentence must
	// return that sentence as the nearest neighbor.
	probe := corpus.ToRecords()[0].Sentences[0]
	hits, err := similarity.Query(ctx, index.LevelSentence, probe, 3)
	if err != nil {
		t.Fatalf("similarity query failed: %v", err)
	}
	if len(hits) == 0 {
		t.Fatal("similarity query returned no hits")
	}
	if hits[0].Example.Text != probe {
		t.Errorf("nearest neighbor of a stored sentence is %q, want %q", hits[0].Example.Text, probe)
	}
}

func TestE2E_TrainFromAnnotations(t *testing.T) {
	corpus := BuildCorpus()
	annotationsDir := t.TempDir()
	ctx := context.Background()

	// Each signature sentence is accepted for its own label and rejected for
	// the next one, so every label file carries both outcomes.
	byLabel := make(map[string][]*models.Annotation)
	for i, p := range corpus.Papers {
		sentences := corpus.ToRecords()[i].Sentences
		text := sentences[len(sentences)-1]
		other := CorpusLabels[(labelIndex(p.Label)+1)%len(CorpusLabels)]
		byLabel[p.Label] = append(byLabel[p.Label],
			&models.Annotation{Text: text, Label: p.Label, Answer: models.AnswerAccept})
		byLabel[other] = append(byLabel[other],
			&models.Annotation{Text: text, Label: other, Answer: models.AnswerReject})
	}
	for _, label := range CorpusLabels {
		anns := byLabel[label]
		err := stream.WriteFile(filepath.Join(annotationsDir, label+".jsonl"), func(yield func(*models.Annotation) bool) {
			for _, a := range anns {
				if !yield(a) {
					return
				}
			}
		})
		if err != nil {
			t.Fatal(err)
		}
	}

	examples, err := train.Accumulate(annotationsDir, CorpusLabels)
	if err != nil {
		t.Fatalf("accumulate: %v", err)
	}
	if len(examples) != len(corpus.Papers) {
		t.Fatalf("expected one training example per paper, got %d", len(examples))
	}

	emb := embedding.NewMockEmbedder(e2eDimensions)
	defer emb.Close()
	model := classify.NewLinear(emb, CorpusLabels, zap.NewNop())
	if err := model.Train(ctx, examples, classify.TrainOptions{Epochs: 300, LearningRate: 0.5}); err != nil {
		t.Fatalf("train: %v", err)
	}

	// The model must separate its own training texts: accepted label above
	// the rejected one.
	for _, ex := range examples {
		preds, err := model.Predict(ctx, ex.Text)
		if err != nil {
			t.Fatalf("predict: %v", err)
		}
		for label, outcome := range ex.Categories {
			if outcome == 1 && preds[label] <= 0.5 {
				t.Errorf("text %q: accepted label %q scored %.3f", ex.Text, label, preds[label])
			}
			if outcome == 0 && preds[label] >= 0.5 {
				t.Errorf("text %q: rejected label %q scored %.3f", ex.Text, label, preds[label])
			}
		}
	}

	modelPath := filepath.Join(t.TempDir(), "model.json")
	if err := model.Save(modelPath); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := classify.Load(modelPath, emb, zap.NewNop()); err != nil {
		t.Fatalf("load: %v", err)
	}
}

func TestE2E_SiteBuild(t *testing.T) {
	corpus := BuildCorpus()
	downloads, clean, root := pipelineDirs(t, corpus)
	ctx := context.Background()

	arch := archive.New(downloads, clean, zap.NewNop())
	if err := arch.Preprocess(); err != nil {
		t.Fatalf("preprocess: %v", err)
	}

	labelByPhrase := make(map[string]string)
	for _, tc := range corpus.TestCases {
		p, _ := corpus.PaperByTitle(tc.ExpectedTitles[0])
		labelByPhrase[tc.Query] = p.Label
	}
	scorer := classify.Func(func(text string) map[string]float64 {
		preds := make(map[string]float64, len(CorpusLabels))
		for _, label := range CorpusLabels {
			preds[label] = 0.05
		}
		for phrase, label := range labelByPhrase {
			if strings.Contains(text, phrase) {
				preds[label] = 0.95
			}
		}
		return preds
	})

	siteDir := filepath.Join(root, "site")
	cfg := &config.Config{
		Paths: config.PathsConfig{SiteDir: siteDir},
		Sections: []config.SectionConfig{
			{Label: "new-dataset", Title: "New Datasets", Threshold: 0.6},
			{Label: "new-model", Title: "New Models", Threshold: 0.6},
			{Label: "data-quality", Title: "Data Quality", Threshold: 0.6},
			{Label: "education", Title: "Education", Threshold: 0.6},
		},
		Site: config.SiteConfig{Quota: 50, MaxCandidates: 1000},
	}
	builder := site.NewBuilder(arch, scorer, cfg, zap.NewNop())
	if err := builder.Build(ctx); err != nil {
		t.Fatalf("site build: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(siteDir, "index.html"))
	if err != nil {
		t.Fatalf("site page not written: %v", err)
	}
	page := string(data)
	for _, sec := range cfg.Sections {
		if !strings.Contains(page, sec.Title) {
			t.Errorf("page missing section title %q", sec.Title)
		}
	}
	for _, p := range corpus.Papers {
		if !strings.Contains(page, p.Title) {
			t.Errorf("page missing paper %q", p.Title)
		}
	}
	if !strings.Contains(page, "bg-yellow-200") {
		t.Error("page has no highlighted sentences")
	}
	if strings.Contains(page, "&lt;span") {
		t.Error("highlight markup was escaped")
	}
}

func hitTitles(hits []index.Hit) []string {
	out := make([]string, 0, len(hits))
	for _, h := range hits {
		if h.Example != nil {
			out = append(out, h.Example.Meta.Title)
		}
	}
	return out
}

func containsAnyTitle(hits []index.Hit, expected []string) bool {
	got := make(map[string]bool)
	for _, title := range hitTitles(hits) {
		got[title] = true
	}
	for _, title := range expected {
		if got[title] {
			return true
		}
	}
	return false
}

func labelIndex(label string) int {
	for i, l := range CorpusLabels {
		if l == label {
			return i
		}
	}
	return 0
}
