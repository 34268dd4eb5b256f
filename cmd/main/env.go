package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/CTAG07/wordgraph/pkg/corpus"
	"github.com/CTAG07/wordgraph/pkg/sampling"
	"github.com/CTAG07/wordgraph/pkg/wordgraph"
)

// rootOptions holds the persistent flags shared by every command.
type rootOptions struct {
	configPath string
	corpusPath string
	docName    string
	seed       uint64
}

// environment is the per-invocation state: configuration, logging and the
// lazily opened corpus store.
type environment struct {
	config    *Config
	logger    *slog.Logger
	tokenizer *corpus.DefaultTokenizer
	db        *sql.DB
	store     *corpus.Store
}

// model is a built graph together with a walker configured from the
// generator section.
type model struct {
	graph  *wordgraph.Graph
	walker *wordgraph.Walker
}

func newEnvironment(opts *rootOptions) (*environment, error) {
	config, err := LoadConfig(opts.configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if opts.seed != 0 {
		config.Generator.Seed = opts.seed
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: parseLogLevel(config.Server.LogLevel)}))

	return &environment{
		config:    config,
		logger:    logger,
		tokenizer: corpus.NewDefaultTokenizer(),
	}, nil
}

// Store opens the corpus database on first use.
func (e *environment) Store() (*corpus.Store, error) {
	if e.store != nil {
		return e.store, nil
	}

	path := e.config.Server.DatabasePath
	if dir := filepath.Dir(strings.SplitN(path, "?", 2)[0]); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	db, err := sql.Open(driverName, path)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	if err = corpus.SetupSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to setup corpus schema: %w", err)
	}
	store, err := corpus.NewStore(db, e.tokenizer)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create corpus store: %w", err)
	}
	store.SetLogger(e.logger)

	e.db = db
	e.store = store
	return store, nil
}

// Close releases the store and its database, if they were opened.
func (e *environment) Close() {
	if e.store != nil {
		e.store.Close()
	}
	if e.db != nil {
		if err := e.db.Close(); err != nil {
			e.logger.Error("Failed to close database", "error", err)
		}
	}
}

// loadSentences reads the corpus named by the flags: a text file when
// --corpus is set, otherwise a stored document.
func (e *environment) loadSentences(ctx context.Context, opts *rootOptions) ([][]string, error) {
	switch {
	case opts.corpusPath != "":
		f, err := os.Open(opts.corpusPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open corpus: %w", err)
		}
		defer func(f *os.File) {
			_ = f.Close()
		}(f)
		return corpus.ReadSentences(e.tokenizer, f)

	case opts.docName != "":
		store, err := e.Store()
		if err != nil {
			return nil, err
		}
		doc, err := store.GetDocument(ctx, opts.docName)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("document %q does not exist", opts.docName)
		}
		if err != nil {
			return nil, err
		}
		return store.Sentences(ctx, doc)

	default:
		return nil, errors.New("no corpus given: use --corpus <file> or --doc <name>")
	}
}

// buildModel loads the corpus and builds the graph and walker over it.
func (e *environment) buildModel(ctx context.Context, opts *rootOptions) (*model, error) {
	start := time.Now()
	sentences, err := e.loadSentences(ctx, opts)
	if err != nil {
		return nil, err
	}
	loaded := time.Since(start)

	start = time.Now()
	g, err := wordgraph.Build(sentences, wordgraph.WithLogger(e.logger))
	if err != nil {
		return nil, fmt.Errorf("failed to build word graph: %w", err)
	}

	walker := wordgraph.NewWalker(g, sampling.NewRand(e.config.Generator.Seed), e.config.Generator.WalkOptions()...)
	walker.SetLogger(e.logger)

	e.logger.Info("Model ready",
		slog.Duration("load_time", loaded),
		slog.Duration("build_time", time.Since(start)),
		slog.Int("distinct_words", g.Len()),
	)
	return &model{graph: g, walker: walker}, nil
}
