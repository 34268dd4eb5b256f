package corpus

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// tokenSeparator joins the tokens of one sentence in the database. Tokenizers
// never emit it.
const tokenSeparator = "\x1f"

// SetupSchema initializes the necessary tables in the provided database. This
// function should be called once on a new database before any other
// operations are performed. It is idempotent and safe to call on an
// already-initialized database.
func SetupSchema(db *sql.DB) error {

	const (
		schemaDocuments = `
CREATE TABLE IF NOT EXISTS corpus_documents (
    doc_id INTEGER PRIMARY KEY,
    doc_name TEXT NOT NULL UNIQUE
);
`
		schemaSentences = `
CREATE TABLE IF NOT EXISTS corpus_sentences (
    doc_id INTEGER NOT NULL,
    sentence_idx INTEGER NOT NULL,
    token_count INTEGER NOT NULL,
    tokens TEXT NOT NULL,
    PRIMARY KEY (doc_id, sentence_idx)
);
`
	)

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("could not begin transaction: %w", err)
	}

	// If the transaction succeeds, tx.Commit() will be called first, and the rollback will do nothing.
	defer func(tx *sql.Tx) {
		_ = tx.Rollback()
	}(tx)

	if _, err = tx.Exec(schemaDocuments); err != nil {
		return fmt.Errorf("could not create documents schema: %w", err)
	}

	if _, err = tx.Exec(schemaSentences); err != nil {
		return fmt.Errorf("could not create sentences schema: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("could not commit transaction: %w", err)
	}

	return nil
}

// Store keeps named documents of tokenized sentences in a SQLite database.
// It holds the database connection, a tokenizer used for ingestion, and
// prepared SQL statements for efficient database interaction.
type Store struct {
	db                 *sql.DB
	tokenizer          Tokenizer
	stmtGetDocument    *sql.Stmt
	stmtGetDocuments   *sql.Stmt
	stmtAddDocument    *sql.Stmt
	stmtGetSentences   *sql.Stmt
	stmtNextSentence   *sql.Stmt
	stmtDocumentCounts *sql.Stmt
	logger             *slog.Logger
}

// NewStore creates and returns a new Store. It takes a database connection and
// a Tokenizer implementation. It pre-compiles all necessary SQL statements,
// returning an error if any preparation fails.
func NewStore(db *sql.DB, tokenizer Tokenizer) (*Store, error) {
	stmtGetDocument, err := db.Prepare(`SELECT doc_id FROM corpus_documents WHERE doc_name = ?;`)
	if err != nil {
		return nil, err
	}

	stmtGetDocuments, err := db.Prepare(`SELECT doc_id, doc_name FROM corpus_documents;`)
	if err != nil {
		return nil, err
	}

	stmtAddDocument, err := db.Prepare(`INSERT INTO corpus_documents (doc_name) VALUES (?);`)
	if err != nil {
		return nil, err
	}

	stmtGetSentences, err := db.Prepare(`SELECT tokens FROM corpus_sentences WHERE doc_id = ? ORDER BY sentence_idx;`)
	if err != nil {
		return nil, err
	}

	stmtNextSentence, err := db.Prepare(`SELECT coalesce(MAX(sentence_idx) + 1, 0) FROM corpus_sentences WHERE doc_id = ?;`)
	if err != nil {
		return nil, err
	}

	stmtDocumentCounts, err := db.Prepare(`SELECT COUNT(*), coalesce(SUM(token_count), 0) FROM corpus_sentences WHERE doc_id = ?;`)
	if err != nil {
		return nil, err
	}

	return &Store{
		db:                 db,
		tokenizer:          tokenizer,
		stmtGetDocument:    stmtGetDocument,
		stmtGetDocuments:   stmtGetDocuments,
		stmtAddDocument:    stmtAddDocument,
		stmtGetSentences:   stmtGetSentences,
		stmtNextSentence:   stmtNextSentence,
		stmtDocumentCounts: stmtDocumentCounts,
		logger:             slog.New(slog.NewTextHandler(io.Discard, nil)),
	}, nil
}

// Close releases all prepared SQL statements held by the Store. It should be
// called when the Store is no longer needed to free up database resources.
func (s *Store) Close() {
	_ = s.stmtGetDocument.Close()
	_ = s.stmtGetDocuments.Close()
	_ = s.stmtAddDocument.Close()
	_ = s.stmtGetSentences.Close()
	_ = s.stmtNextSentence.Close()
	_ = s.stmtDocumentCounts.Close()
}

// SetLogger sets the logger for the Store. By default, all logs are discarded.
func (s *Store) SetLogger(logger *slog.Logger) {
	if logger != nil {
		s.logger = logger
	}
}

// Sentences loads every sentence of a document in insertion order.
func (s *Store) Sentences(ctx context.Context, doc DocumentInfo) ([][]string, error) {
	rows, err := s.stmtGetSentences.QueryContext(ctx, doc.Id)
	if err != nil {
		return nil, fmt.Errorf("could not query sentences of %q: %w", doc.Name, err)
	}
	defer func(rows *sql.Rows) {
		_ = rows.Close()
	}(rows)

	var sentences [][]string
	for rows.Next() {
		var text string
		if err = rows.Scan(&text); err != nil {
			return nil, err
		}
		sentences = append(sentences, splitTokens(text))
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return sentences, nil
}

// validateSentences rejects tokens that could not be read back unchanged:
// empty tokens, and tokens containing tokenSeparator.
func validateSentences(sentences [][]string) error {
	for i, sentence := range sentences {
		for j, token := range sentence {
			if token == "" {
				return fmt.Errorf("sentence %d: token %d is empty", i, j)
			}
			if strings.Contains(token, tokenSeparator) {
				return fmt.Errorf("sentence %d: token %d contains the reserved separator %q", i, j, tokenSeparator)
			}
		}
	}
	return nil
}

func joinTokens(sentence []string) string {
	return strings.Join(sentence, tokenSeparator)
}

func splitTokens(text string) []string {
	if text == "" {
		return []string{}
	}
	return strings.Split(text, tokenSeparator)
}
