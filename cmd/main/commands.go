package main

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/CTAG07/wordgraph/pkg/corpus"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "wordgraph",
		Short:         "generate sentences by walking a word graph built from a corpus",
		Version:       fmt.Sprintf("%s (commit %s, built %s)", Version, Commit, BuildDate),
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runREPL(cmd, opts)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "./config.json", "path to the JSON config file")
	flags.StringVar(&opts.corpusPath, "corpus", "", "plain text corpus file")
	flags.StringVar(&opts.docName, "doc", "", "name of a stored corpus document")
	flags.Uint64Var(&opts.seed, "seed", 0, "random seed, overrides the config (0 keeps the config value)")

	root.AddCommand(
		&cobra.Command{
			Use:   "repl",
			Short: "interactive session over the corpus (default)",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return runREPL(cmd, opts)
			},
		},
		newGenCommand(opts),
		newIngestCommand(opts),
		newStatsCommand(opts),
		newDocsCommand(opts),
	)
	return root
}

func runREPL(cmd *cobra.Command, opts *rootOptions) error {
	env, err := newEnvironment(opts)
	if err != nil {
		return err
	}
	defer env.Close()

	m, err := env.buildModel(cmd.Context(), opts)
	if err != nil {
		return err
	}
	r := &repl{
		graph:     m.graph,
		walker:    m.walker,
		tokenizer: env.tokenizer,
		normalize: env.tokenizer.Normalize,
		maxLength: env.config.Generator.MaxLength,
		out:       cmd.OutOrStdout(),
	}
	return r.run(env.config.Server.HistoryFile)
}

func newGenCommand(opts *rootOptions) *cobra.Command {
	var count int
	cmd := &cobra.Command{
		Use:   "gen [max-length]",
		Short: "print generated sentences",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := newEnvironment(opts)
			if err != nil {
				return err
			}
			defer env.Close()

			maxLength := env.config.Generator.MaxLength
			if len(args) == 1 {
				if maxLength, err = strconv.Atoi(args[0]); err != nil || maxLength <= 0 {
					return fmt.Errorf("%q is not a sentence length", args[0])
				}
			}

			m, err := env.buildModel(cmd.Context(), opts)
			if err != nil {
				return err
			}
			for i := 0; i < count; i++ {
				words, err := m.walker.Generate(maxLength)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), corpus.Join(env.tokenizer, words))
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&count, "count", "n", 1, "number of sentences to generate")
	return cmd
}

func newIngestCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "ingest <doc> <file>...",
		Short: "tokenize text files and store their sentences under a document name",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := newEnvironment(opts)
			if err != nil {
				return err
			}
			defer env.Close()

			store, err := env.Store()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			doc, err := store.GetOrInsertDocument(ctx, args[0])
			if err != nil {
				return err
			}

			var total int
			for _, path := range args[1:] {
				f, err := os.Open(path)
				if err != nil {
					return err
				}
				n, err := store.Ingest(ctx, doc, f)
				_ = f.Close()
				if err != nil {
					return fmt.Errorf("failed to ingest %s: %w", path, err)
				}
				total += n
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Ingested %s sentences into %q.\n", humanize.Comma(int64(total)), doc.Name)
			return nil
		},
	}
}

func newStatsCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "show graph statistics for --corpus/--doc, or store statistics without them",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := newEnvironment(opts)
			if err != nil {
				return err
			}
			defer env.Close()
			out := cmd.OutOrStdout()

			if opts.corpusPath != "" || opts.docName != "" {
				m, err := env.buildModel(cmd.Context(), opts)
				if err != nil {
					return err
				}
				s := m.graph.Stats()
				_, _ = fmt.Fprintf(out, "sentences:      %s\n", humanize.Comma(int64(s.Sentences)))
				_, _ = fmt.Fprintf(out, "words:          %s\n", humanize.Comma(int64(s.Words)))
				_, _ = fmt.Fprintf(out, "distinct words: %s\n", humanize.Comma(int64(s.DistinctWords)))
				_, _ = fmt.Fprintf(out, "initial words:  %s\n", humanize.Comma(int64(s.InitialWords)))
				_, _ = fmt.Fprintf(out, "links:          %s\n", humanize.Comma(int64(s.Links)))
				return nil
			}

			store, err := env.Store()
			if err != nil {
				return err
			}
			stats, err := store.Stats(cmd.Context())
			if err != nil {
				return err
			}
			for _, doc := range stats.Documents {
				ds := stats.Stats[doc.Id]
				_, _ = fmt.Fprintf(out, "%-24s %12s sentences %12s tokens\n", doc.Name, humanize.Comma(int64(ds.Sentences)), humanize.Comma(int64(ds.Tokens)))
			}
			_, _ = fmt.Fprintf(out, "total: %s documents, %s sentences, %s tokens\n",
				humanize.Comma(int64(len(stats.Documents))), humanize.Comma(int64(stats.Sentences)), humanize.Comma(int64(stats.Tokens)))
			return nil
		},
	}
}

func newDocsCommand(opts *rootOptions) *cobra.Command {
	docs := &cobra.Command{
		Use:   "docs",
		Short: "manage stored corpus documents",
	}

	// withStore runs fn against an opened store and closes it afterwards.
	withStore := func(fn func(cmd *cobra.Command, args []string, store *corpus.Store) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			env, err := newEnvironment(opts)
			if err != nil {
				return err
			}
			defer env.Close()
			store, err := env.Store()
			if err != nil {
				return err
			}
			return fn(cmd, args, store)
		}
	}

	lookup := func(cmd *cobra.Command, store *corpus.Store, name string) (corpus.DocumentInfo, error) {
		doc, err := store.GetDocument(cmd.Context(), name)
		if errors.Is(err, sql.ErrNoRows) {
			return doc, fmt.Errorf("document %q does not exist", name)
		}
		return doc, err
	}

	docs.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "list stored documents",
			Args:  cobra.NoArgs,
			RunE: withStore(func(cmd *cobra.Command, args []string, store *corpus.Store) error {
				stats, err := store.Stats(cmd.Context())
				if err != nil {
					return err
				}
				for _, doc := range stats.Documents {
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\n", doc.Id, doc.Name)
				}
				return nil
			}),
		},
		&cobra.Command{
			Use:   "rm <doc>",
			Short: "remove a stored document",
			Args:  cobra.ExactArgs(1),
			RunE: withStore(func(cmd *cobra.Command, args []string, store *corpus.Store) error {
				doc, err := lookup(cmd, store, args[0])
				if err != nil {
					return err
				}
				return store.RemoveDocument(cmd.Context(), doc)
			}),
		},
		&cobra.Command{
			Use:   "export <doc> [file]",
			Short: "write a document as JSON to a file or stdout",
			Args:  cobra.RangeArgs(1, 2),
			RunE: withStore(func(cmd *cobra.Command, args []string, store *corpus.Store) error {
				doc, err := lookup(cmd, store, args[0])
				if err != nil {
					return err
				}
				if len(args) == 1 {
					return store.ExportDocument(cmd.Context(), doc, cmd.OutOrStdout())
				}
				f, err := os.Create(args[1])
				if err != nil {
					return err
				}
				if err = store.ExportDocument(cmd.Context(), doc, f); err != nil {
					_ = f.Close()
					return err
				}
				return f.Close()
			}),
		},
		&cobra.Command{
			Use:   "import <file>",
			Short: "merge a JSON document export into the store",
			Args:  cobra.ExactArgs(1),
			RunE: withStore(func(cmd *cobra.Command, args []string, store *corpus.Store) error {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer func(f *os.File) {
					_ = f.Close()
				}(f)
				doc, err := store.ImportDocument(cmd.Context(), f)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Imported %q.\n", doc.Name)
				return nil
			}),
		},
	)
	return docs
}
