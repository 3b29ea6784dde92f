package index

import (
	"context"
	"fmt"
	"iter"
	"os"
	"path/filepath"
	"strconv"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"

	"github.com/hyperjump/frontpage/internal/models"
	"github.com/hyperjump/frontpage/internal/storage"
)

// Lexical is the term-matching retrieval backend, backed by Bleve.
type Lexical struct {
	root  string
	store *storage.RowStore
}

// NewLexical creates the lexical retriever rooted at root.
func NewLexical(root string, store *storage.RowStore) *Lexical {
	return &Lexical{root: root, store: store}
}

const indexBatchSize = 500

// Build indexes the example stream under sequential row numbers and writes
// the same rows to the row store, in one pass. Any prior index at this
// location is removed first. An empty corpus produces an empty, queryable
// index.
func (l *Lexical) Build(ctx context.Context, level Level, examples iter.Seq[*models.Example]) (int, error) {
	path := Path(l.root, KindLexical, level)
	if err := os.RemoveAll(path); err != nil {
		return 0, fmt.Errorf("clear index at %s: %w", path, err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return 0, fmt.Errorf("create index dir: %w", err)
	}

	im := bleve.NewIndexMapping()
	docMapping := bleve.NewDocumentMapping()
	textFieldMapping := bleve.NewTextFieldMapping()
	// Standard analyzer (lowercase + tokenize, no stemming) so queries match
	// exact terms; stemming would fold distinct ML vocabulary together.
	textFieldMapping.Analyzer = standard.Name
	docMapping.AddFieldMappingsAt("text", textFieldMapping)
	im.DefaultMapping = docMapping

	idx, err := bleve.New(path, im)
	if err != nil {
		return 0, fmt.Errorf("create index at %s: %w", path, err)
	}
	defer idx.Close()

	var buildErr error
	batch := idx.NewBatch()
	n, err := l.store.Replace(ctx, string(level), func(yield func(*models.Example) bool) {
		row := 0
		for ex := range examples {
			if err := batch.Index(strconv.Itoa(row), map[string]any{"text": ex.Text}); err != nil {
				buildErr = fmt.Errorf("index row %d: %w", row, err)
				return
			}
			if batch.Size() >= indexBatchSize {
				if err := idx.Batch(batch); err != nil {
					buildErr = fmt.Errorf("flush batch: %w", err)
					return
				}
				batch = idx.NewBatch()
			}
			if !yield(ex) {
				return
			}
			row++
		}
	})
	if buildErr != nil {
		return 0, buildErr
	}
	if err != nil {
		return 0, err
	}
	if batch.Size() > 0 {
		if err := idx.Batch(batch); err != nil {
			return 0, fmt.Errorf("flush batch: %w", err)
		}
	}
	return n, nil
}

// Query runs a match query and returns up to limit hits, most relevant
// first, resolved back to full examples through the row store.
func (l *Lexical) Query(ctx context.Context, level Level, query string, limit int) ([]Hit, error) {
	path := Path(l.root, KindLexical, level)
	idx, err := bleve.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open lexical index at %s: %w", path, err)
	}
	defer idx.Close()

	if limit <= 0 {
		limit = 10
	}
	req := bleve.NewSearchRequest(bleve.NewMatchQuery(query))
	req.Size = limit
	results, err := idx.Search(req)
	if err != nil {
		return nil, fmt.Errorf("lexical search failed: %w", err)
	}

	hits := make([]Hit, 0, len(results.Hits))
	for _, hit := range results.Hits {
		row, err := strconv.Atoi(hit.ID)
		if err != nil {
			continue
		}
		resolved, err := l.store.Resolve(ctx, string(level), []int{row})
		if err != nil {
			return nil, err
		}
		if len(resolved) == 0 {
			continue
		}
		hits = append(hits, Hit{Row: row, Score: hit.Score, Example: resolved[0]})
	}
	return hits, nil
}
