package corpus

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
)

// DocumentInfo holds the metadata of a stored document.
type DocumentInfo struct {
	Id   int
	Name string
}

// ExportedDocument is the serializable representation of a stored document,
// used for JSON-based import and export.
type ExportedDocument struct {
	Name      string     `json:"name"`
	Sentences [][]string `json:"sentences"`
}

// Documents retrieves metadata for all documents currently in the database,
// returning them in a map keyed by document name.
func (s *Store) Documents(ctx context.Context) (map[string]DocumentInfo, error) {
	rows, err := s.stmtGetDocuments.QueryContext(ctx)
	if err != nil {
		return nil, err
	}
	defer func(rows *sql.Rows) {
		_ = rows.Close()
	}(rows)

	docs := make(map[string]DocumentInfo)
	for rows.Next() {
		var doc DocumentInfo
		if err = rows.Scan(&doc.Id, &doc.Name); err != nil {
			return nil, err
		}
		docs[doc.Name] = doc
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return docs, nil
}

// GetDocument retrieves the metadata for a single document specified by name.
// It returns sql.ErrNoRows if the document does not exist.
func (s *Store) GetDocument(ctx context.Context, name string) (DocumentInfo, error) {
	var id int
	if err := s.stmtGetDocument.QueryRowContext(ctx, name).Scan(&id); err != nil {
		return DocumentInfo{}, err
	}
	return DocumentInfo{Id: id, Name: name}, nil
}

// InsertDocument creates a new, empty document entry in the database.
func (s *Store) InsertDocument(ctx context.Context, name string) (DocumentInfo, error) {
	res, err := s.stmtAddDocument.ExecContext(ctx, name)
	if err != nil {
		return DocumentInfo{}, fmt.Errorf("could not insert document %q: %w", name, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return DocumentInfo{}, err
	}
	return DocumentInfo{Id: int(id), Name: name}, nil
}

// GetOrInsertDocument returns the named document, creating it if needed.
func (s *Store) GetOrInsertDocument(ctx context.Context, name string) (DocumentInfo, error) {
	doc, err := s.GetDocument(ctx, name)
	if errors.Is(err, sql.ErrNoRows) {
		return s.InsertDocument(ctx, name)
	}
	return doc, err
}

// RemoveDocument deletes a document and all of its sentences from the
// database. The operation is performed within a transaction.
func (s *Store) RemoveDocument(ctx context.Context, doc DocumentInfo) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func(tx *sql.Tx) {
		_ = tx.Rollback()
	}(tx)

	if _, err = tx.ExecContext(ctx, "DELETE FROM corpus_sentences WHERE doc_id = ?", doc.Id); err != nil {
		return fmt.Errorf("failed to remove sentences for document %d: %w", doc.Id, err)
	}

	if _, err = tx.ExecContext(ctx, "DELETE FROM corpus_documents WHERE doc_id = ?", doc.Id); err != nil {
		return fmt.Errorf("failed to remove document %d: %w", doc.Id, err)
	}

	s.logger.InfoContext(ctx, "Document removed successfully",
		slog.String("doc_name", doc.Name),
		slog.Int("doc_id", doc.Id),
	)

	return tx.Commit()
}

// ExportDocument serializes a document into JSON and writes it to w.
func (s *Store) ExportDocument(ctx context.Context, doc DocumentInfo, w io.Writer) error {
	sentences, err := s.Sentences(ctx, doc)
	if err != nil {
		return err
	}
	if sentences == nil {
		sentences = [][]string{}
	}

	s.logger.InfoContext(ctx, "Document exported",
		slog.String("doc_name", doc.Name),
		slog.Int("doc_id", doc.Id),
		slog.Int("sentences_exported", len(sentences)),
	)

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(ExportedDocument{Name: doc.Name, Sentences: sentences})
}

// ImportDocument reads a JSON document from r and appends its sentences to the
// document of the same name, creating it if it does not exist. The sentences
// are written in a single transaction.
func (s *Store) ImportDocument(ctx context.Context, r io.Reader) (DocumentInfo, error) {
	var imported ExportedDocument
	if err := json.NewDecoder(r).Decode(&imported); err != nil {
		return DocumentInfo{}, fmt.Errorf("failed to decode json document: %w", err)
	}
	if imported.Name == "" {
		return DocumentInfo{}, errors.New("imported document has no name")
	}
	if err := validateSentences(imported.Sentences); err != nil {
		return DocumentInfo{}, fmt.Errorf("imported document %q: %w", imported.Name, err)
	}

	doc, err := s.GetOrInsertDocument(ctx, imported.Name)
	if err != nil {
		return DocumentInfo{}, err
	}
	if err = s.AddSentences(ctx, doc, imported.Sentences); err != nil {
		return DocumentInfo{}, err
	}

	s.logger.InfoContext(ctx, "Document imported successfully",
		slog.String("doc_name", doc.Name),
		slog.Int("target_doc_id", doc.Id),
		slog.Int("sentences_merged", len(imported.Sentences)),
	)
	return doc, nil
}
