package vector

import (
	"context"
	"path/filepath"
	"testing"
)

func TestStore_addSearch(t *testing.T) {
	s, err := NewStore(3)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	vecs := [][]float32{
		{1, 0, 0},
		{0.9, 0.1, 0},
		{0, 1, 0},
	}
	if err := s.Add(ctx, []int{0, 1, 2}, vecs); err != nil {
		t.Fatal(err)
	}
	if s.Size() != 3 {
		t.Errorf("Size=%d", s.Size())
	}
	results, err := s.Search(ctx, []float32{1, 0, 0}, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].ID != 0 {
		t.Errorf("top result should be row 0, got %d", results[0].ID)
	}
	if results[0].Score < results[1].Score {
		t.Error("results must be ordered by descending score")
	}
}

func TestStore_emptySearch(t *testing.T) {
	s, _ := NewStore(2)
	results, err := s.Search(context.Background(), []float32{1, 0}, 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 0 {
		t.Errorf("empty store should return no results, got %d", len(results))
	}
}

func TestStore_dimensionMismatch(t *testing.T) {
	s, _ := NewStore(2)
	if err := s.Add(context.Background(), []int{0}, [][]float32{{1, 0, 0}}); err == nil {
		t.Error("expected error adding wrong-dimension vector")
	}
	if _, err := s.Search(context.Background(), []float32{1}, 1); err == nil {
		t.Error("expected error querying with wrong-dimension vector")
	}
}

func TestStore_saveLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "idx", "vectors.bin")
	ctx := context.Background()

	s, _ := NewStore(2)
	if err := s.Add(ctx, []int{0, 1}, [][]float32{{1, 0}, {0, 1}}); err != nil {
		t.Fatal(err)
	}
	if err := s.Save(path); err != nil {
		t.Fatal(err)
	}

	loaded, err := Load(path, 2)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Size() != 2 {
		t.Fatalf("loaded size=%d", loaded.Size())
	}
	results, err := loaded.Search(ctx, []float32{0, 1}, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 || results[0].ID != 1 {
		t.Errorf("unexpected results after load: %+v", results)
	}
}

func TestLoad_dimensionMismatch(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "vectors.bin")
	s, _ := NewStore(2)
	_ = s.Add(context.Background(), []int{0}, [][]float32{{1, 0}})
	if err := s.Save(path); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path, 3); err == nil {
		t.Error("expected dimension mismatch error")
	}
}

func TestLoad_missingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.bin"), 2); err == nil {
		t.Error("expected error for missing index file")
	}
}
