package index

import (
	"context"
	"fmt"
	"iter"

	"github.com/hyperjump/frontpage/internal/embedding"
	"github.com/hyperjump/frontpage/internal/models"
	"github.com/hyperjump/frontpage/internal/storage"
	"github.com/hyperjump/frontpage/internal/vector"
)

// embedBatchSize is how many texts are embedded per call during a build.
const embedBatchSize = 200

// Similarity is the embedding nearest-neighbor retrieval backend.
type Similarity struct {
	root     string
	store    *storage.RowStore
	embedder embedding.Embedder
}

// NewSimilarity creates the similarity retriever rooted at root.
func NewSimilarity(root string, store *storage.RowStore, embedder embedding.Embedder) *Similarity {
	return &Similarity{root: root, store: store, embedder: embedder}
}

// indexFile is the on-disk location of the vector store for level.
func (s *Similarity) indexFile(level Level) string {
	return Path(s.root, KindSimilarity, level) + ".bin"
}

// Build embeds the example stream in batches and writes the vector store and
// the row store in one pass. Building over an empty corpus is a configuration
// error for this backend.
func (s *Similarity) Build(ctx context.Context, level Level, examples iter.Seq[*models.Example]) (int, error) {
	vs, err := vector.NewStore(s.embedder.Dimensions())
	if err != nil {
		return 0, err
	}

	var buildErr error
	var texts []string
	var rows []int

	flush := func() bool {
		if len(texts) == 0 {
			return true
		}
		vecs, err := s.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			buildErr = fmt.Errorf("embed batch: %w", err)
			return false
		}
		if err := vs.Add(ctx, rows, vecs); err != nil {
			buildErr = err
			return false
		}
		texts = texts[:0]
		rows = rows[:0]
		return true
	}

	n, err := s.store.Replace(ctx, string(level), func(yield func(*models.Example) bool) {
		row := 0
		for ex := range examples {
			texts = append(texts, ex.Text)
			rows = append(rows, row)
			if len(texts) >= embedBatchSize && !flush() {
				return
			}
			if !yield(ex) {
				return
			}
			row++
		}
		flush()
	})
	if buildErr != nil {
		return 0, buildErr
	}
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, fmt.Errorf("similarity index for level %q: empty corpus", level)
	}
	if err := vs.Save(s.indexFile(level)); err != nil {
		return 0, err
	}
	return n, nil
}

// Query embeds the query text and returns the k nearest examples by
// ascending distance (1 - cosine similarity). Each hit's Meta.Distance is
// set; callers must handle an empty result.
func (s *Similarity) Query(ctx context.Context, level Level, query string, limit int) ([]Hit, error) {
	vs, err := vector.Load(s.indexFile(level), s.embedder.Dimensions())
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 10
	}
	qvec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	results, err := vs.Search(ctx, qvec, limit)
	if err != nil {
		return nil, err
	}

	hits := make([]Hit, 0, len(results))
	for _, res := range results {
		resolved, err := s.store.Resolve(ctx, string(level), []int{res.ID})
		if err != nil {
			return nil, err
		}
		if len(resolved) == 0 {
			continue
		}
		ex := resolved[0]
		ex.Meta.Distance = 1 - res.Score
		hits = append(hits, Hit{Row: res.ID, Score: res.Score, Example: ex})
	}
	return hits, nil
}
