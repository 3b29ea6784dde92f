package site

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/frontpage/internal/archive"
	"github.com/hyperjump/frontpage/internal/classify"
	"github.com/hyperjump/frontpage/internal/config"
	"github.com/hyperjump/frontpage/internal/stream"
)

// Builder runs the full site build: candidate selection from the clean
// archive, section assignment, content assembly, and the HTML render.
type Builder struct {
	archive       *archive.Archive
	classifier    classify.Classifier
	sections      []config.SectionConfig
	quota         int
	maxCandidates int
	siteDir       string
	logger        *zap.Logger
}

// NewBuilder wires a builder from configuration.
func NewBuilder(arch *archive.Archive, classifier classify.Classifier, cfg *config.Config, logger *zap.Logger) *Builder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Builder{
		archive:       arch,
		classifier:    classifier,
		sections:      cfg.Sections,
		quota:         cfg.Site.Quota,
		maxCandidates: cfg.Site.MaxCandidates,
		siteDir:       cfg.Paths.SiteDir,
		logger:        logger,
	}
}

// Build assembles the sections from the newest clean records and writes the
// site page. Only the newest maxCandidates records are scored.
func (b *Builder) Build(ctx context.Context) error {
	clean, err := b.archive.CleanStream()
	if err != nil {
		return err
	}
	candidates := stream.Head(clean, b.maxCandidates)

	assigner := NewAssigner(b.classifier, b.sections, b.quota, b.logger)
	assembler := NewAssembler(b.sections)
	sections, err := assembler.Assemble(assigner.Assign(ctx, candidates))
	if err != nil {
		return err
	}

	total := 0
	for _, sec := range sections {
		total += len(sec.Content)
	}
	b.logger.Info("sections assembled",
		zap.Int("sections", len(sections)),
		zap.Int("records", total))

	if err := Render(b.siteDir, sections, time.Now()); err != nil {
		return err
	}
	b.logger.Info("site built", zap.String("folder", b.siteDir))
	return nil
}
