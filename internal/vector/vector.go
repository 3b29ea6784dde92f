// Package vector provides the embedding-vector store behind the similarity
// retrieval backend: brute-force inner-product search with a flat binary
// on-disk format.
package vector

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
)

// Result is a single vector search hit. ID is the corpus row number assigned
// at build time; Score is cosine similarity for normalized vectors.
type Result struct {
	ID    int
	Score float64
}

// Store holds row-numbered vectors in memory. Rows are appended in build
// order, so the slice position equals the row number of the id at that
// position. Rebuilds start from a fresh Store; there is no removal.
type Store struct {
	dimensions int
	ids        []int
	vectors    [][]float32
}

// NewStore creates an empty store with the given dimension.
func NewStore(dimensions int) (*Store, error) {
	if dimensions <= 0 {
		return nil, fmt.Errorf("dimensions must be positive")
	}
	return &Store{dimensions: dimensions}, nil
}

// Add appends vectors with the given row ids.
func (s *Store) Add(ctx context.Context, ids []int, vectors [][]float32) error {
	if len(ids) != len(vectors) {
		return fmt.Errorf("ids and vectors length mismatch")
	}
	for i, id := range ids {
		if len(vectors[i]) != s.dimensions {
			return fmt.Errorf("vector dimension mismatch: got %d, expected %d", len(vectors[i]), s.dimensions)
		}
		vec := make([]float32, s.dimensions)
		copy(vec, vectors[i])
		s.ids = append(s.ids, id)
		s.vectors = append(s.vectors, vec)
	}
	return nil
}

// Search returns the top-k rows by inner product (cosine similarity for
// normalized vectors), highest first. An empty store returns no results.
func (s *Store) Search(ctx context.Context, query []float32, k int) ([]Result, error) {
	if len(query) != s.dimensions {
		return nil, fmt.Errorf("query dimension mismatch: got %d, expected %d", len(query), s.dimensions)
	}
	if k <= 0 || len(s.ids) == 0 {
		return nil, nil
	}
	scored := make([]Result, len(s.ids))
	for i, vec := range s.vectors {
		var dot float64
		for j := 0; j < s.dimensions; j++ {
			dot += float64(query[j] * vec[j])
		}
		scored[i] = Result{ID: s.ids[i], Score: dot}
	}
	sort.Slice(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })
	if k > len(scored) {
		k = len(scored)
	}
	return scored[:k], nil
}

// Size returns the number of stored vectors.
func (s *Store) Size() int { return len(s.ids) }

// Dimensions returns the vector dimension.
func (s *Store) Dimensions() int { return s.dimensions }

// Save writes the store to path, replacing any prior content. Format:
// dimensions (u32), count (u32), then per row: id (u32), vector
// (dimensions * f32), all little-endian.
func (s *Store) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create index dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create index file: %w", err)
	}
	defer f.Close()
	if err := binary.Write(f, binary.LittleEndian, uint32(s.dimensions)); err != nil {
		return fmt.Errorf("write dimensions: %w", err)
	}
	if err := binary.Write(f, binary.LittleEndian, uint32(len(s.ids))); err != nil {
		return fmt.Errorf("write count: %w", err)
	}
	buf := make([]byte, 4+s.dimensions*4)
	for i, id := range s.ids {
		binary.LittleEndian.PutUint32(buf[:4], uint32(id))
		for j, v := range s.vectors[i] {
			binary.LittleEndian.PutUint32(buf[4+j*4:8+j*4], math.Float32bits(v))
		}
		if _, err := f.Write(buf); err != nil {
			return fmt.Errorf("write row %d: %w", i, err)
		}
	}
	return nil
}

// Load reads a store from path. The file's dimension must match.
func Load(path string, dimensions int) (*Store, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open index file %s: %w", path, err)
	}
	defer f.Close()
	var dim, count uint32
	if err := binary.Read(f, binary.LittleEndian, &dim); err != nil {
		return nil, fmt.Errorf("read dimensions: %w", err)
	}
	if int(dim) != dimensions {
		return nil, fmt.Errorf("dimension mismatch: file has %d, expected %d", dim, dimensions)
	}
	if err := binary.Read(f, binary.LittleEndian, &count); err != nil {
		return nil, fmt.Errorf("read count: %w", err)
	}
	s := &Store{
		dimensions: dimensions,
		ids:        make([]int, 0, count),
		vectors:    make([][]float32, 0, count),
	}
	buf := make([]byte, 4+dimensions*4)
	for i := uint32(0); i < count; i++ {
		if _, err := io.ReadFull(f, buf); err != nil {
			return nil, fmt.Errorf("read row %d: %w", i, err)
		}
		id := int(binary.LittleEndian.Uint32(buf[:4]))
		vec := make([]float32, dimensions)
		for j := range vec {
			vec[j] = math.Float32frombits(binary.LittleEndian.Uint32(buf[4+j*4 : 8+j*4]))
		}
		s.ids = append(s.ids, id)
		s.vectors = append(s.vectors, vec)
	}
	return s, nil
}
