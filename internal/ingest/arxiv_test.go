package ingest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

const feedXML = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom" xmlns:arxiv="http://arxiv.org/schemas/atom">
  <entry>
    <id>http://arxiv.org/abs/2401.01234v1</id>
    <title>A Benchmark
  for Question Answering</title>
    <summary>We release a dataset.
 It covers ten languages.</summary>
    <published>2024-01-05T10:00:00Z</published>
    <arxiv:primary_category term="cs.CL"/>
  </entry>
  <entry>
    <id>http://arxiv.org/abs/2401.05678v2</id>
    <title>Protein Folding Dynamics</title>
    <summary>A biology paper.</summary>
    <published>2024-01-04T09:00:00Z</published>
    <arxiv:primary_category term="q-bio.BM"/>
  </entry>
</feed>`

func feedServer(t *testing.T, handler http.HandlerFunc) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	old := arxivAPIBase
	arxivAPIBase = srv.URL
	t.Cleanup(func() { arxivAPIBase = old })
}

func TestClient_latest(t *testing.T) {
	feedServer(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("sortBy"); got != "submittedDate" {
			t.Errorf("sortBy=%q", got)
		}
		if got := r.URL.Query().Get("max_results"); got != "50" {
			t.Errorf("max_results=%q", got)
		}
		w.Write([]byte(feedXML))
	})

	articles, err := NewClient(nil, nil).Latest(context.Background(), 50)
	if err != nil {
		t.Fatal(err)
	}
	if len(articles) != 2 {
		t.Fatalf("got %d articles, want 2", len(articles))
	}
	a := articles[0]
	if a.Title != "A Benchmark for Question Answering" {
		t.Errorf("title newlines not collapsed: %q", a.Title)
	}
	if a.Abstract != "We release a dataset. It covers ten languages." {
		t.Errorf("abstract=%q", a.Abstract)
	}
	if a.PrimaryCategory != "cs.CL" {
		t.Errorf("primary category=%q", a.PrimaryCategory)
	}
	if a.Published.IsZero() {
		t.Error("published not parsed")
	}
	if articles[1].PrimaryCategory != "q-bio.BM" {
		t.Errorf("second category=%q", articles[1].PrimaryCategory)
	}
}

func TestClient_retriesOnServerError(t *testing.T) {
	var calls atomic.Int32
	feedServer(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(feedXML))
	})

	client := NewClient(nil, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	articles, err := client.Latest(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(articles) != 2 {
		t.Fatalf("got %d articles", len(articles))
	}
	if calls.Load() != 3 {
		t.Errorf("calls=%d, want 3", calls.Load())
	}
}

func TestArticle_ageDays(t *testing.T) {
	a := Article{Published: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	now := time.Date(2024, 1, 3, 12, 0, 0, 0, time.UTC)
	if got := a.AgeDays(now); got != 2.5 {
		t.Errorf("AgeDays=%f, want 2.5", got)
	}
}
