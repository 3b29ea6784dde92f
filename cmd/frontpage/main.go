// Package main is the frontpage CLI entry point.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/frontpage/internal/archive"
	"github.com/hyperjump/frontpage/internal/classify"
	"github.com/hyperjump/frontpage/internal/cli"
	"github.com/hyperjump/frontpage/internal/config"
	"github.com/hyperjump/frontpage/internal/embedding"
	"github.com/hyperjump/frontpage/internal/index"
	"github.com/hyperjump/frontpage/internal/ingest"
	"github.com/hyperjump/frontpage/internal/server"
	"github.com/hyperjump/frontpage/internal/site"
	"github.com/hyperjump/frontpage/internal/storage"
	"github.com/hyperjump/frontpage/internal/train"
	"github.com/hyperjump/frontpage/internal/watcher"
	"github.com/hyperjump/frontpage/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/frontpage/config.yaml"

// loadConfig loads config from path. When path is the default, it first looks
// for config.yaml in the current directory (for development); if that exists
// it is used.
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "download":
		runDownload()
	case "preprocess":
		runPreprocess()
	case "index":
		runIndex()
	case "train":
		runTrain()
	case "build":
		runBuild()
	case "search":
		runSearch()
	case "serve":
		runServe()
	case "version", "--version", "-v":
		fmt.Printf("frontpage version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

// setup parses common flags and returns config, logger, and the parsed flag
// set for positional arguments. Every subcommand shares -config and -debug.
func setup(name string, args []string, extra func(fs *flag.FlagSet)) (*config.Config, *zap.Logger, *flag.FlagSet) {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	if extra != nil {
		extra(fs)
	}
	_ = fs.Parse(args)

	cfg, resolvedPath, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	logger.Debug("config loaded", zap.String("config_path", resolvedPath))
	return cfg, logger, fs
}

// newEmbedder builds the configured embedder. The ONNX embedder needs CGO and
// the onnxruntime library; when it is unavailable the deterministic mock keeps
// the pipeline usable for development.
func newEmbedder(cfg *config.Config, logger *zap.Logger) embedding.Embedder {
	if cfg.Embedding.UseMock {
		logger.Info("using mock embedder")
		return embedding.NewMockEmbedder(cfg.Embedding.Dimensions)
	}
	emb, err := embedding.NewONNXEmbedder(embedding.Config{
		ModelPath:     cfg.Embedding.ModelPath,
		TokenizerPath: cfg.Embedding.TokenizerPath,
		Dimensions:    cfg.Embedding.Dimensions,
		MaxTokens:     cfg.Embedding.MaxTokens,
		CacheSize:     cfg.Embedding.CacheSize,
	})
	if err != nil {
		logger.Warn("ONNX embedder unavailable, falling back to mock", zap.Error(err))
		return embedding.NewMockEmbedder(cfg.Embedding.Dimensions)
	}
	return emb
}

func runDownload() {
	cfg, logger, _ := setup("download", os.Args[2:], nil)
	defer logger.Sync()

	downloader := ingest.NewDownloader(
		ingest.NewClient(nil, logger), cfg.Paths.DownloadsDir, cfg.Ingest, logger)
	n, err := downloader.Run(context.Background())
	if err != nil {
		logger.Fatal("download failed", zap.Error(err))
	}
	fmt.Printf("Downloaded %d new article(s)\n", n)
}

func runPreprocess() {
	cfg, logger, _ := setup("preprocess", os.Args[2:], nil)
	defer logger.Sync()

	arch := archive.New(cfg.Paths.DownloadsDir, cfg.Paths.CleanDir, logger)
	if err := arch.Preprocess(); err != nil {
		logger.Fatal("preprocess failed", zap.Error(err))
	}
	fmt.Println("Clean archive rebuilt")
}

// parseTargets resolves the -kind and -level flags; empty means all.
func parseTargets(kindFlag, levelFlag string) ([]index.Kind, []index.Level, error) {
	kinds := []index.Kind{index.KindLexical, index.KindSimilarity}
	if kindFlag != "" {
		kind, err := index.ParseKind(kindFlag)
		if err != nil {
			return nil, nil, err
		}
		kinds = []index.Kind{kind}
	}
	levels := []index.Level{index.LevelSentence, index.LevelAbstract}
	if levelFlag != "" {
		level, err := index.ParseLevel(levelFlag)
		if err != nil {
			return nil, nil, err
		}
		levels = []index.Level{level}
	}
	return kinds, levels, nil
}

// buildIndices rebuilds every (kind, level) pair requested.
func buildIndices(ctx context.Context, cfg *config.Config, store *storage.RowStore,
	emb embedding.Embedder, logger *zap.Logger, kinds []index.Kind, levels []index.Level) error {
	arch := archive.New(cfg.Paths.DownloadsDir, cfg.Paths.CleanDir, logger)
	for _, kind := range kinds {
		retriever, err := index.New(kind, cfg.Paths.IndicesDir, store, emb)
		if err != nil {
			return err
		}
		for _, level := range levels {
			examples, err := arch.Examples(level)
			if err != nil {
				return err
			}
			n, err := retriever.Build(ctx, level, examples)
			if err != nil {
				return fmt.Errorf("build %s/%s: %w", kind, level, err)
			}
			logger.Info("index built",
				zap.String("kind", string(kind)),
				zap.String("level", string(level)),
				zap.Int("rows", n))
		}
	}
	return nil
}

func runIndex() {
	var kindFlag, levelFlag *string
	cfg, logger, _ := setup("index", os.Args[2:], func(fs *flag.FlagSet) {
		kindFlag = fs.String("kind", "", "index kind: lexical or similarity (default: both)")
		levelFlag = fs.String("level", "", "index level: sentence or abstract (default: both)")
	})
	defer logger.Sync()

	kinds, levels, err := parseTargets(*kindFlag, *levelFlag)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	store, err := storage.Open(cfg.Paths.RowStorePath)
	if err != nil {
		logger.Fatal("failed to open row store", zap.Error(err))
	}
	defer store.Close()
	emb := newEmbedder(cfg, logger)
	defer emb.Close()

	if err := buildIndices(context.Background(), cfg, store, emb, logger, kinds, levels); err != nil {
		logger.Fatal("indexing failed", zap.Error(err))
	}
}

// trainModel accumulates the annotations and fits a fresh model at the
// configured model path.
func trainModel(ctx context.Context, cfg *config.Config, emb embedding.Embedder, logger *zap.Logger) error {
	examples, err := train.Accumulate(cfg.Paths.AnnotationsDir, cfg.Labels())
	if err != nil {
		return err
	}
	logger.Info("training set accumulated", zap.Int("examples", len(examples)))
	model := classify.NewLinear(emb, cfg.Labels(), logger)
	if err := model.Train(ctx, examples, classify.DefaultTrainOptions()); err != nil {
		return err
	}
	return model.Save(cfg.Paths.ModelPath)
}

func runTrain() {
	cfg, logger, _ := setup("train", os.Args[2:], nil)
	defer logger.Sync()

	emb := newEmbedder(cfg, logger)
	defer emb.Close()
	if err := trainModel(context.Background(), cfg, emb, logger); err != nil {
		logger.Fatal("training failed", zap.Error(err))
	}
	fmt.Printf("Model written to %s\n", cfg.Paths.ModelPath)
}

func runBuild() {
	var retrain, preprocess *bool
	cfg, logger, _ := setup("build", os.Args[2:], func(fs *flag.FlagSet) {
		retrain = fs.Bool("retrain", false, "retrain the model before building")
		preprocess = fs.Bool("preprocess", false, "rebuild the clean archive before building")
	})
	defer logger.Sync()

	ctx := context.Background()
	if *preprocess {
		arch := archive.New(cfg.Paths.DownloadsDir, cfg.Paths.CleanDir, logger)
		if err := arch.Preprocess(); err != nil {
			logger.Fatal("preprocess failed", zap.Error(err))
		}
	}
	emb := newEmbedder(cfg, logger)
	defer emb.Close()
	if *retrain {
		if err := trainModel(ctx, cfg, emb, logger); err != nil {
			logger.Fatal("training failed", zap.Error(err))
		}
	}
	model, err := classify.Load(cfg.Paths.ModelPath, emb, logger)
	if err != nil {
		logger.Fatal("failed to load model (run 'frontpage train' first)", zap.Error(err))
	}

	arch := archive.New(cfg.Paths.DownloadsDir, cfg.Paths.CleanDir, logger)
	builder := site.NewBuilder(arch, model, cfg, logger)
	if err := builder.Build(ctx); err != nil {
		logger.Fatal("site build failed", zap.Error(err))
	}
	fmt.Printf("Site written to %s\n", cfg.Paths.SiteDir)
}

// searchArgsReorder moves flags that appear after the query to the front so
// flag.Parse() sees them; the flag package stops at the first non-flag
// argument.
func searchArgsReorder(args []string) []string {
	for i, a := range args {
		if len(a) > 0 && a[0] == '-' {
			if i == 0 {
				return args
			}
			reordered := make([]string, 0, len(args))
			reordered = append(reordered, args[i:]...)
			reordered = append(reordered, args[:i]...)
			return reordered
		}
	}
	return args
}

func runSearch() {
	var kindFlag, levelFlag, outputFlag *string
	var limitFlag *int
	args := searchArgsReorder(os.Args[2:])
	cfg, logger, fs := setup("search", args, func(fs *flag.FlagSet) {
		kindFlag = fs.String("kind", "lexical", "index kind: lexical or similarity")
		levelFlag = fs.String("level", "sentence", "index level: sentence or abstract")
		limitFlag = fs.Int("limit", 10, "number of results")
		outputFlag = fs.String("output", "text", "output format: text or json")
	})
	defer logger.Sync()

	// The query is all remaining positional arguments joined by spaces.
	query := strings.TrimSpace(strings.Join(fs.Args(), " "))
	if query == "" {
		fmt.Fprintln(os.Stderr, "Usage: frontpage search [flags] <query>")
		os.Exit(1)
	}

	kind, err := index.ParseKind(*kindFlag)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	level, err := index.ParseLevel(*levelFlag)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	format := cli.OutputText
	if *outputFlag == "json" {
		format = cli.OutputJSON
	}

	store, err := storage.Open(cfg.Paths.RowStorePath)
	if err != nil {
		logger.Fatal("failed to open row store", zap.Error(err))
	}
	defer store.Close()
	emb := newEmbedder(cfg, logger)
	defer emb.Close()

	retriever, err := index.New(kind, cfg.Paths.IndicesDir, store, emb)
	if err != nil {
		logger.Fatal("failed to create retriever", zap.Error(err))
	}
	hits, err := retriever.Query(context.Background(), level, query, *limitFlag)
	if err != nil {
		logger.Fatal("search failed", zap.Error(err))
	}
	if err := cli.WriteHits(os.Stdout, query, hits, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func runServe() {
	cfg, logger, _ := setup("serve", os.Args[2:], nil)
	defer logger.Sync()

	store, err := storage.Open(cfg.Paths.RowStorePath)
	if err != nil {
		logger.Fatal("failed to open row store", zap.Error(err))
	}
	defer store.Close()
	emb := newEmbedder(cfg, logger)
	defer emb.Close()

	factory := func(kind index.Kind) (index.Retriever, error) {
		return index.New(kind, cfg.Paths.IndicesDir, store, emb)
	}

	// New download batches refresh the clean archive and both indices so
	// annotation search stays current without a restart.
	allKinds := []index.Kind{index.KindLexical, index.KindSimilarity}
	allLevels := []index.Level{index.LevelSentence, index.LevelAbstract}
	arch := archive.New(cfg.Paths.DownloadsDir, cfg.Paths.CleanDir, logger)
	refresh := func() {
		if err := arch.Preprocess(); err != nil {
			logger.Warn("refresh preprocess failed", zap.Error(err))
			return
		}
		if err := buildIndices(context.Background(), cfg, store, emb, logger, allKinds, allLevels); err != nil {
			logger.Warn("refresh indexing failed", zap.Error(err))
		}
	}
	watch := watcher.New(cfg.Paths.DownloadsDir, refresh, watcher.WithLogger(logger))
	watchCtx, watchCancel := context.WithCancel(context.Background())
	defer watchCancel()
	if err := watch.Start(watchCtx); err != nil {
		logger.Fatal("failed to start watcher", zap.Error(err))
	}
	defer watch.Stop()

	srv := server.NewServer(factory, cfg.Paths.AnnotationsDir, cfg.Labels(),
		cfg.Paths.SiteDir, &cfg.Server, logger)
	go func() {
		if err := srv.Start(); err != nil {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	watchCancel()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

func printUsage() {
	fmt.Println(`frontpage - curated arxiv abstracts

Usage:
  frontpage download [flags]          Fetch recent abstracts from arXiv
  frontpage preprocess [flags]        Rebuild the deduplicated clean archive
  frontpage index [flags]             Rebuild the annotation search indices
  frontpage train [flags]             Fit the section classifier from annotations
  frontpage build [flags]             Build the site from the clean archive
  frontpage search [flags] <query>    Query an annotation index
  frontpage serve [flags]             Start the annotation API and site server
  frontpage version                   Show version
  frontpage help                      Show this help

Common Flags:
  --config string    Config file path (default: /usr/local/etc/frontpage/config.yaml,
                     falling back to ./config.yaml when present)
  --debug            Enable debug logging

Index Flags:
  --kind string      lexical or similarity (default: both)
  --level string     sentence or abstract (default: both)

Build Flags:
  --retrain          Retrain the model before building
  --preprocess       Rebuild the clean archive before building

Search Flags:
  --kind string      lexical or similarity (default: lexical)
  --level string     sentence or abstract (default: sentence)
  --limit int        Number of results (default: 10)
  --output string    text or json (default: text)

Examples:
  frontpage download
  frontpage preprocess
  frontpage index --kind similarity --level sentence
  frontpage train
  frontpage build --retrain --preprocess
  frontpage search "new dataset"
  frontpage search --kind similarity --limit 20 active learning
  frontpage serve`)
}
