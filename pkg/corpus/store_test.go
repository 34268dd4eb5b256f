package corpus

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"
)

func TestIngestAndSentences(t *testing.T) {
	ctx, s, doc := setupTestDBWithDocument(t)

	got, err := s.Sentences(ctx, doc)
	if err != nil {
		t.Fatalf("Sentences() failed: %v", err)
	}
	expected := [][]string{{"the", "cat", "sat", "."}, {"the", "dog", "sat", "."}}
	if !reflect.DeepEqual(got, expected) {
		t.Errorf("Sentences() = %v, want %v", got, expected)
	}

	// A second ingest appends after the existing sentences.
	n, err := s.Ingest(ctx, doc, strings.NewReader("A bird flew."))
	if err != nil {
		t.Fatalf("Ingest() failed: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 sentence ingested, got %d", n)
	}
	got, _ = s.Sentences(ctx, doc)
	if len(got) != 3 || !reflect.DeepEqual(got[2], []string{"a", "bird", "flew", "."}) {
		t.Errorf("unexpected sentences after append: %v", got)
	}
}

func TestIngestBatches(t *testing.T) {
	_, s := setupTestDB(t)
	ctx := context.Background()
	doc, err := s.InsertDocument(ctx, "numbers")
	if err != nil {
		t.Fatalf("InsertDocument() failed: %v", err)
	}

	const total = sentenceBatchSize*2 + 37
	var sb strings.Builder
	for i := 0; i < total; i++ {
		_, _ = fmt.Fprintf(&sb, "word%d.\n", i)
	}

	n, err := s.Ingest(ctx, doc, strings.NewReader(sb.String()))
	if err != nil {
		t.Fatalf("Ingest() failed: %v", err)
	}
	if n != total {
		t.Errorf("expected %d sentences, got %d", total, n)
	}

	got, err := s.Sentences(ctx, doc)
	if err != nil {
		t.Fatalf("Sentences() failed: %v", err)
	}
	if len(got) != total {
		t.Fatalf("expected %d stored sentences, got %d", total, len(got))
	}
	for _, i := range []int{0, sentenceBatchSize, total - 1} {
		if want := fmt.Sprintf("word%d", i); got[i][0] != want {
			t.Errorf("sentence %d = %v, want it to start with %q", i, got[i], want)
		}
	}
}

func TestDocumentLifecycle(t *testing.T) {
	ctx, s, doc := setupTestDBWithDocument(t)

	found, err := s.GetDocument(ctx, "pets")
	if err != nil {
		t.Fatalf("GetDocument() failed: %v", err)
	}
	if found != doc {
		t.Errorf("GetDocument() = %+v, want %+v", found, doc)
	}

	if _, err := s.InsertDocument(ctx, "pets"); err == nil {
		t.Error("expected an error inserting a duplicate document name")
	}

	docs, err := s.Documents(ctx)
	if err != nil {
		t.Fatalf("Documents() failed: %v", err)
	}
	if len(docs) != 1 || docs["pets"] != doc {
		t.Errorf("unexpected documents: %v", docs)
	}

	if err := s.RemoveDocument(ctx, doc); err != nil {
		t.Fatalf("RemoveDocument() failed: %v", err)
	}
	if _, err := s.GetDocument(ctx, "pets"); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("expected sql.ErrNoRows after removal, got %v", err)
	}
	sentences, err := s.Sentences(ctx, doc)
	if err != nil {
		t.Fatalf("Sentences() failed: %v", err)
	}
	if len(sentences) != 0 {
		t.Errorf("expected sentences to be removed with the document, got %v", sentences)
	}
}

func TestStats(t *testing.T) {
	ctx, s, doc := setupTestDBWithDocument(t)

	other, err := s.InsertDocument(ctx, "empty")
	if err != nil {
		t.Fatalf("InsertDocument() failed: %v", err)
	}

	stats, err := s.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats() failed: %v", err)
	}
	if !reflect.DeepEqual(stats.Documents, []DocumentInfo{doc, other}) {
		t.Errorf("unexpected documents: %v", stats.Documents)
	}
	if stats.Sentences != 2 || stats.Tokens != 8 {
		t.Errorf("expected 2 sentences and 8 tokens, got %d and %d", stats.Sentences, stats.Tokens)
	}
	if ds := stats.Stats[other.Id]; ds.Sentences != 0 || ds.Tokens != 0 {
		t.Errorf("expected an empty document to have zero counts, got %+v", ds)
	}
}

func TestExportImport(t *testing.T) {
	ctx, s, doc := setupTestDBWithDocument(t)
	before, _ := s.Sentences(ctx, doc)

	var buf bytes.Buffer
	if err := s.ExportDocument(ctx, doc, &buf); err != nil {
		t.Fatalf("ExportDocument() failed: %v", err)
	}
	exported := buf.String()
	if err := s.RemoveDocument(ctx, doc); err != nil {
		t.Fatalf("RemoveDocument() failed: %v", err)
	}

	imported, err := s.ImportDocument(ctx, strings.NewReader(exported))
	if err != nil {
		t.Fatalf("ImportDocument() failed: %v", err)
	}
	if imported.Name != "pets" {
		t.Errorf("expected imported name 'pets', got %q", imported.Name)
	}
	after, err := s.Sentences(ctx, imported)
	if err != nil {
		t.Fatalf("Sentences() failed: %v", err)
	}
	if !reflect.DeepEqual(before, after) {
		t.Errorf("round trip changed sentences: %v vs %v", before, after)
	}

	// Importing again merges into the existing document.
	if _, err := s.ImportDocument(ctx, strings.NewReader(exported)); err != nil {
		t.Fatalf("second ImportDocument() failed: %v", err)
	}
	after, _ = s.Sentences(ctx, imported)
	if len(after) != 4 {
		t.Errorf("expected 4 sentences after merge, got %d", len(after))
	}
}

func TestImportDocumentErrors(t *testing.T) {
	_, s := setupTestDB(t)
	ctx := context.Background()

	testCases := []struct {
		name    string
		input   string
		message string
	}{
		{name: "Malformed JSON", input: "{not json"},
		{name: "No name", input: `{"sentences": [["a", "."]]}`},
		{name: "Token with separator", input: `{"name": "bad", "sentences": [["ok", "."], ["a\u001fb", "."]]}`, message: "sentence 1: token 0"},
		{name: "Empty token", input: `{"name": "bad", "sentences": [[""]]}`, message: "sentence 0: token 0"},
		{name: "Empty token inside sentence", input: `{"name": "bad", "sentences": [["a", "", "b"]]}`, message: "sentence 0: token 1"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := s.ImportDocument(ctx, strings.NewReader(tc.input))
			if err == nil {
				t.Fatal("expected an error")
			}
			if tc.message != "" && !strings.Contains(err.Error(), tc.message) {
				t.Errorf("error %q does not name %q", err, tc.message)
			}
		})
	}

	// Rejected imports leave no trace in the store.
	docs, err := s.Documents(ctx)
	if err != nil {
		t.Fatalf("Documents() failed: %v", err)
	}
	if len(docs) != 0 {
		t.Errorf("expected no documents after rejected imports, got %v", docs)
	}
}

func TestAddSentencesRejectsUnstorableTokens(t *testing.T) {
	ctx, s, doc := setupTestDBWithDocument(t)

	for _, sentences := range [][][]string{
		{{"a" + tokenSeparator + "b", "."}},
		{{""}},
		{{"hi", "."}, {"a", "", "b"}},
	} {
		if err := s.AddSentences(ctx, doc, sentences); err == nil {
			t.Errorf("AddSentences(%q): expected an error", sentences)
		}
	}

	got, err := s.Sentences(ctx, doc)
	if err != nil {
		t.Fatalf("Sentences() failed: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("rejected batches must not be partially written, got %v", got)
	}
}

func TestAddSentencesSkipsEmpty(t *testing.T) {
	ctx, s, doc := setupTestDBWithDocument(t)

	if err := s.AddSentences(ctx, doc, [][]string{{}, {"hi", "."}, nil}); err != nil {
		t.Fatalf("AddSentences() failed: %v", err)
	}
	got, _ := s.Sentences(ctx, doc)
	if len(got) != 3 || !reflect.DeepEqual(got[2], []string{"hi", "."}) {
		t.Errorf("unexpected sentences: %v", got)
	}
}
