package ingest

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/frontpage/internal/config"
	"github.com/hyperjump/frontpage/internal/models"
	"github.com/hyperjump/frontpage/internal/stream"
)

// Downloader fetches recent arXiv articles, filters them to fresh items in
// the configured category, and appends a new batch file to the downloads
// folder.
type Downloader struct {
	client       *Client
	downloadsDir string
	cfg          config.IngestConfig
	logger       *zap.Logger
	// now is swappable for tests.
	now func() time.Time
}

// NewDownloader creates a downloader writing into downloadsDir.
func NewDownloader(client *Client, downloadsDir string, cfg config.IngestConfig, logger *zap.Logger) *Downloader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Downloader{
		client:       client,
		downloadsDir: downloadsDir,
		cfg:          cfg,
		logger:       logger,
		now:          time.Now,
	}
}

// Run fetches the latest submissions and writes the ones not yet present in
// the most recent batch file. Returns the number of new records written.
// Batch files are named by download hour, so at most one batch per hour; a
// run with nothing new writes no file.
func (d *Downloader) Run(ctx context.Context) (int, error) {
	articles, err := d.client.Latest(ctx, d.cfg.MaxResults)
	if err != nil {
		return 0, err
	}
	d.logger.Info("arxiv results fetched", zap.Int("count", len(articles)))

	now := d.now()
	var records []*models.Record
	for _, a := range articles {
		if a.AgeDays(now) >= d.cfg.MaxAgeDays {
			continue
		}
		if !strings.HasPrefix(a.PrimaryCategory, d.cfg.CategoryPrefix) {
			continue
		}
		records = append(records, d.toRecord(a))
	}

	known, err := d.latestBatchTitles()
	if err != nil {
		return 0, err
	}
	fresh := records[:0]
	for _, rec := range records {
		if known[rec.Title] {
			continue
		}
		fresh = append(fresh, rec)
	}
	if skipped := len(records) - len(fresh); skipped > 0 {
		d.logger.Info("already-downloaded articles skipped", zap.Int("count", skipped))
	}
	if len(fresh) == 0 {
		d.logger.Info("no new articles")
		return 0, nil
	}

	path := filepath.Join(d.downloadsDir, now.Format("2006-01-02-15")+"h.jsonl")
	err = stream.WriteFile(path, func(yield func(*models.Record) bool) {
		for _, rec := range fresh {
			if !yield(rec) {
				return
			}
		}
	})
	if err != nil {
		return 0, err
	}
	d.logger.Info("batch written",
		zap.String("file", filepath.Base(path)),
		zap.Int("count", len(fresh)))
	return len(fresh), nil
}

func (d *Downloader) toRecord(a Article) *models.Record {
	rec := &models.Record{
		Created:   a.Published.UTC().Format("2006-01-02 15:04:05"),
		Title:     a.Title,
		Abstract:  a.Abstract,
		Sentences: SplitSentences(a.Abstract),
		URL:       a.ID,
	}
	rec.Normalize()
	return rec
}

// latestBatchTitles returns the titles in the most recent batch file, or an
// empty set when the downloads folder has no batches yet.
func (d *Downloader) latestBatchTitles() (map[string]bool, error) {
	matches, err := filepath.Glob(filepath.Join(d.downloadsDir, "*.jsonl"))
	if err != nil {
		return nil, fmt.Errorf("list downloads: %w", err)
	}
	if len(matches) == 0 {
		return map[string]bool{}, nil
	}
	sort.Strings(matches)
	records, err := stream.ReadFile[models.Record](matches[len(matches)-1])
	if err != nil {
		return nil, err
	}
	titles := make(map[string]bool)
	for rec := range records {
		titles[rec.Title] = true
	}
	return titles, nil
}
