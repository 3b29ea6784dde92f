// Package archive manages the raw download stream and the deduplicated,
// day-partitioned clean archive derived from it.
package archive

import (
	"fmt"
	"io/fs"
	"iter"
	"os"
	"path/filepath"
	"sort"

	"go.uber.org/zap"

	"github.com/hyperjump/frontpage/internal/index"
	"github.com/hyperjump/frontpage/internal/models"
	"github.com/hyperjump/frontpage/internal/stream"
)

// Archive reads raw downloads and maintains the clean partition files.
type Archive struct {
	downloadsDir string
	cleanDir     string
	logger       *zap.Logger
}

// New creates an archive over the given roots.
func New(downloadsDir, cleanDir string, logger *zap.Logger) *Archive {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Archive{downloadsDir: downloadsDir, cleanDir: cleanDir, logger: logger}
}

// jsonlFiles returns all .jsonl files under root, recursively, sorted by path.
func jsonlFiles(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && filepath.Ext(path) == ".jsonl" {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", root, err)
	}
	sort.Strings(files)
	return files, nil
}

// reverse flips a path list in place so newest (lexicographically last,
// filenames are timestamped) comes first.
func reverse(paths []string) []string {
	for i, j := 0, len(paths)-1; i < j; i, j = i+1, j-1 {
		paths[i], paths[j] = paths[j], paths[i]
	}
	return paths
}

// RawStream returns the raw downloaded records, newest download file first.
// The downloads root must exist; its absence is a hard error naming the path.
func (a *Archive) RawStream() (iter.Seq[*models.Record], error) {
	if _, err := os.Stat(a.downloadsDir); err != nil {
		return nil, fmt.Errorf("downloads folder %s: %w", a.downloadsDir, err)
	}
	files, err := jsonlFiles(a.downloadsDir)
	if err != nil {
		return nil, err
	}
	reverse(files)
	return stream.ReadFiles[models.Record](files, func(err error) {
		a.logger.Warn("raw stream aborted", zap.Error(err))
	}), nil
}

// CleanStream returns the deduplicated clean records, newest partition first.
func (a *Archive) CleanStream() (iter.Seq[*models.Record], error) {
	if _, err := os.Stat(a.cleanDir); err != nil {
		return nil, fmt.Errorf("clean folder %s: %w", a.cleanDir, err)
	}
	files, err := jsonlFiles(a.cleanDir)
	if err != nil {
		return nil, err
	}
	reverse(files)
	return stream.ReadFiles[models.Record](files, func(err error) {
		a.logger.Warn("clean stream aborted", zap.Error(err))
	}), nil
}

// Preprocess deduplicates the raw stream by abstract (first seen wins, and
// the raw stream is newest-first, so the most recent copy wins) and rewrites
// the clean archive as one partition file per day. Partitions are replaced
// wholesale; running this twice over the same input yields identical files.
func (a *Archive) Preprocess() error {
	raw, err := a.RawStream()
	if err != nil {
		return err
	}
	deduped := stream.DedupBy(raw, func(r *models.Record) string { return r.Abstract })
	n, err := a.writePartitions(deduped, func(r *models.Record) string { return r.Day() })
	if err != nil {
		return err
	}
	a.logger.Info("clean partitions written",
		zap.String("folder", a.cleanDir),
		zap.Int("partitions", n),
	)
	return nil
}

// writePartitions groups records by groupKey and writes one file per group
// under the clean root. Each record's created field is normalized to the
// group key. Returns the number of partitions written.
func (a *Archive) writePartitions(records iter.Seq[*models.Record], groupKey func(*models.Record) string) (int, error) {
	groups := make(map[string][]*models.Record)
	var order []string
	for rec := range records {
		key := groupKey(rec)
		if key == "" {
			continue
		}
		if _, ok := groups[key]; !ok {
			order = append(order, key)
		}
		rec.Created = key
		groups[key] = append(groups[key], rec)
	}
	if err := os.MkdirAll(a.cleanDir, 0755); err != nil {
		return 0, fmt.Errorf("create clean folder %s: %w", a.cleanDir, err)
	}
	for _, key := range order {
		path := filepath.Join(a.cleanDir, key+".jsonl")
		recs := groups[key]
		err := stream.WriteFile(path, func(yield func(*models.Record) bool) {
			for _, r := range recs {
				if !yield(r) {
					return
				}
			}
		})
		if err != nil {
			return 0, err
		}
	}
	return len(order), nil
}

// Examples projects the clean stream to annotation examples at the given
// level: one example per abstract, or one per sentence.
func (a *Archive) Examples(level index.Level) (iter.Seq[*models.Example], error) {
	clean, err := a.CleanStream()
	if err != nil {
		return nil, err
	}
	switch level {
	case index.LevelAbstract:
		return func(yield func(*models.Example) bool) {
			for rec := range clean {
				if rec.Abstract == "" {
					continue
				}
				ex := &models.Example{
					Text:      rec.Abstract,
					Sentences: rec.Sentences,
					Created:   rec.Day(),
					Meta:      models.Meta{Created: rec.Day(), URL: rec.URL, Title: rec.Title},
				}
				if !yield(ex) {
					return
				}
			}
		}, nil
	case index.LevelSentence:
		return func(yield func(*models.Example) bool) {
			for rec := range clean {
				for _, sent := range rec.Sentences {
					ex := &models.Example{
						Text: sent,
						Meta: models.Meta{URL: rec.URL},
					}
					if !yield(ex) {
						return
					}
				}
			}
		}, nil
	}
	return nil, fmt.Errorf("unknown level %q", level)
}
