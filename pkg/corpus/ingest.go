package corpus

import (
	"cmp"
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"slices"
)

// sentenceBatchSize determines how many sentences are buffered in memory
// before being written to the database in a single batch.
const sentenceBatchSize = 500

// Stats holds aggregated statistics for the stored corpus. Documents are
// ordered by id.
type Stats struct {
	Documents []DocumentInfo        // A list of documents in the database
	Stats     map[int]DocumentStats // A mapping of document ids to their stats
	Sentences int                   // The number of sentences in all documents
	Tokens    int                   // The number of tokens in all documents
}

// DocumentStats holds aggregated statistics for a single document.
type DocumentStats struct {
	Sentences int
	Tokens    int
}

// Ingest tokenizes r and appends its sentences to doc. The whole operation
// runs in a single transaction, with sentence rows written in batches. It
// returns the number of sentences stored.
func (s *Store) Ingest(ctx context.Context, doc DocumentInfo, r io.Reader) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func(tx *sql.Tx) {
		_ = tx.Rollback()
	}(tx)

	next, err := s.nextSentence(ctx, tx, doc)
	if err != nil {
		return 0, err
	}
	insert, err := prepareSentenceInsert(ctx, tx)
	if err != nil {
		return 0, err
	}
	defer func(stmt *sql.Stmt) {
		_ = stmt.Close()
	}(insert)

	batch := make([][]string, 0, sentenceBatchSize)
	var count int

	err = EachSentence(s.tokenizer, r, func(sentence []string) error {
		batch = append(batch, sentence)
		if len(batch) < sentenceBatchSize {
			return nil
		}
		if err := writeSentences(ctx, insert, doc, next+count, batch); err != nil {
			return err
		}
		count += len(batch)
		batch = batch[:0]
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("ingesting into %q: %w", doc.Name, err)
	}
	if err = writeSentences(ctx, insert, doc, next+count, batch); err != nil {
		return 0, err
	}
	count += len(batch)

	if err = tx.Commit(); err != nil {
		return 0, err
	}

	s.logger.InfoContext(ctx, "Ingest completed",
		slog.String("doc_name", doc.Name),
		slog.Int("doc_id", doc.Id),
		slog.Int("sentences_processed", count),
	)
	return count, nil
}

// AddSentences appends already tokenized sentences to doc in a single
// transaction. Empty sentences are skipped. Empty tokens and tokens holding
// the storage separator are rejected and nothing is written.
func (s *Store) AddSentences(ctx context.Context, doc DocumentInfo, sentences [][]string) error {
	if err := validateSentences(sentences); err != nil {
		return fmt.Errorf("adding sentences to %q: %w", doc.Name, err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func(tx *sql.Tx) {
		_ = tx.Rollback()
	}(tx)

	next, err := s.nextSentence(ctx, tx, doc)
	if err != nil {
		return err
	}
	insert, err := prepareSentenceInsert(ctx, tx)
	if err != nil {
		return err
	}
	defer func(stmt *sql.Stmt) {
		_ = stmt.Close()
	}(insert)

	kept := make([][]string, 0, len(sentences))
	for _, sentence := range sentences {
		if len(sentence) > 0 {
			kept = append(kept, sentence)
		}
	}
	if err = writeSentences(ctx, insert, doc, next, kept); err != nil {
		return err
	}
	return tx.Commit()
}

// Stats returns a snapshot of statistics for the entire corpus, including
// per-document counts.
func (s *Store) Stats(ctx context.Context) (*Stats, error) {
	docs, err := s.Documents(ctx)
	if err != nil {
		return nil, err
	}

	stats := &Stats{
		Documents: make([]DocumentInfo, 0, len(docs)),
		Stats:     make(map[int]DocumentStats, len(docs)),
	}
	for _, doc := range docs {
		var ds DocumentStats
		if err = s.stmtDocumentCounts.QueryRowContext(ctx, doc.Id).Scan(&ds.Sentences, &ds.Tokens); err != nil {
			return nil, fmt.Errorf("could not count document %q: %w", doc.Name, err)
		}
		stats.Documents = append(stats.Documents, doc)
		stats.Stats[doc.Id] = ds
		stats.Sentences += ds.Sentences
		stats.Tokens += ds.Tokens
	}
	slices.SortFunc(stats.Documents, func(a, b DocumentInfo) int {
		return cmp.Compare(a.Id, b.Id)
	})
	return stats, nil
}

func (s *Store) nextSentence(ctx context.Context, tx *sql.Tx, doc DocumentInfo) (int, error) {
	var next int
	if err := tx.StmtContext(ctx, s.stmtNextSentence).QueryRowContext(ctx, doc.Id).Scan(&next); err != nil {
		return 0, fmt.Errorf("could not find next sentence index for %q: %w", doc.Name, err)
	}
	return next, nil
}

func prepareSentenceInsert(ctx context.Context, tx *sql.Tx) (*sql.Stmt, error) {
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO corpus_sentences (doc_id, sentence_idx, token_count, tokens) VALUES (?, ?, ?, ?);`)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare sentence insert statement: %w", err)
	}
	return stmt, nil
}

func writeSentences(ctx context.Context, stmt *sql.Stmt, doc DocumentInfo, first int, batch [][]string) error {
	for i, sentence := range batch {
		if _, err := stmt.ExecContext(ctx, doc.Id, first+i, len(sentence), joinTokens(sentence)); err != nil {
			return fmt.Errorf("failed during batch insert of sentence %d: %w", first+i, err)
		}
	}
	return nil
}
