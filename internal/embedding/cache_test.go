package embedding

import "testing"

func TestCache_getSet(t *testing.T) {
	c := NewCache(2)
	c.Set("a", []float32{1})
	if v, ok := c.Get("a"); !ok || v[0] != 1 {
		t.Fatal("cached value not returned")
	}
	if _, ok := c.Get("missing"); ok {
		t.Fatal("missing key should not hit")
	}
}

func TestCache_evictsLRU(t *testing.T) {
	c := NewCache(2)
	c.Set("a", []float32{1})
	c.Set("b", []float32{2})
	c.Get("a") // a is now most recently used
	c.Set("c", []float32{3})
	if _, ok := c.Get("b"); ok {
		t.Error("b should have been evicted")
	}
	if _, ok := c.Get("a"); !ok {
		t.Error("a should still be cached")
	}
	if c.Len() != 2 {
		t.Errorf("len=%d", c.Len())
	}
}
