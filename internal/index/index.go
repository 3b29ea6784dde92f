// Package index provides the retrieval indices used for annotation lookup:
// a lexical (Bleve) backend and an embedding-similarity backend, polymorphic
// over one build/query contract.
package index

import (
	"context"
	"fmt"
	"iter"
	"path/filepath"

	"github.com/hyperjump/frontpage/internal/embedding"
	"github.com/hyperjump/frontpage/internal/models"
	"github.com/hyperjump/frontpage/internal/storage"
)

// Kind selects the index backend.
type Kind string

const (
	// KindLexical is the token/term-matching backend.
	KindLexical Kind = "lexical"
	// KindSimilarity is the embedding nearest-neighbor backend.
	KindSimilarity Kind = "similarity"
)

// Level is the granularity of indexing: one row per sentence or per abstract.
type Level string

const (
	LevelSentence Level = "sentence"
	LevelAbstract Level = "abstract"
)

// ParseKind validates a kind string.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindLexical, KindSimilarity:
		return Kind(s), nil
	}
	return "", fmt.Errorf("unknown index kind %q (supported: lexical, similarity)", s)
}

// ParseLevel validates a level string.
func ParseLevel(s string) (Level, error) {
	switch Level(s) {
	case LevelSentence, LevelAbstract:
		return Level(s), nil
	}
	return "", fmt.Errorf("unknown index level %q (supported: sentence, abstract)", s)
}

// Path returns the on-disk location for a (kind, level) pair. Each pair maps
// to a distinct location; a rebuild silently replaces whatever is there.
func Path(root string, kind Kind, level Level) string {
	return filepath.Join(root, string(kind), string(level))
}

// Hit is one ranked query result resolved back to its source example.
type Hit struct {
	Row     int             `json:"row"`
	Score   float64         `json:"score"`
	Example *models.Example `json:"example"`
}

// Retriever is the contract both backends implement. Build consumes the
// ordered example stream, assigns sequential row numbers starting at zero,
// and replaces any prior index content; row numbers are stable for the
// lifetime of that build. Query returns ranked hits resolved through the
// row store.
type Retriever interface {
	Build(ctx context.Context, level Level, examples iter.Seq[*models.Example]) (int, error)
	Query(ctx context.Context, level Level, query string, limit int) ([]Hit, error)
}

// New creates a retriever for kind. The embedder is required only for the
// similarity backend.
func New(kind Kind, root string, store *storage.RowStore, emb embedding.Embedder) (Retriever, error) {
	switch kind {
	case KindLexical:
		return NewLexical(root, store), nil
	case KindSimilarity:
		if emb == nil {
			return nil, fmt.Errorf("similarity index requires an embedder")
		}
		return NewSimilarity(root, store, emb), nil
	}
	return nil, fmt.Errorf("unknown index kind %q", kind)
}
