package corpus

import (
	"errors"
	"io"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// maxSentenceLength prevents massive sentences from taking up a large amount of memory.
const maxSentenceLength = 4096

// Token represents a single tokenized unit of text. It contains the text itself
// and a boolean flag indicating if it ends a sentence.
type Token struct {
	Text string
	EOC  bool
}

// Tokenizer is an interface that defines the contract for splitting input text
// into tokens. This allows sentence reading and rendering to be independent of
// the specific tokenization strategy.
type Tokenizer interface {
	// NewStream returns a stateful StreamTokenizer for processing an io.Reader.
	NewStream(io.Reader) StreamTokenizer
	// Separator returns the string that should be used to join tokens
	// when building a final generated string, using the previous and current
	// tokens.
	Separator(prev, current string) string
}

// StreamTokenizer is an interface for a stateful tokenizer that processes a
// stream of data, returning one token at a time.
type StreamTokenizer interface {
	// Next returns the next token from the stream. It returns io.EOF as the
	// error when the stream is fully consumed.
	Next() (*Token, error)
}

// ReadSentences tokenizes r and groups the tokens into sentences. Every EOC
// token closes the sentence it ends and is kept as its last element. Trailing
// tokens without a terminal form a final sentence of their own.
func ReadSentences(t Tokenizer, r io.Reader) ([][]string, error) {
	var sentences [][]string
	err := EachSentence(t, r, func(sentence []string) error {
		sentences = append(sentences, sentence)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return sentences, nil
}

// EachSentence is the streaming form of ReadSentences. The slice passed to fn
// is owned by fn. Iteration stops at the first error returned by fn.
func EachSentence(t Tokenizer, r io.Reader, fn func(sentence []string) error) error {
	stream := t.NewStream(r)
	var current []string

	for {
		token, err := stream.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return err
		}

		current = append(current, token.Text)
		if token.EOC || len(current) >= maxSentenceLength {
			if err := fn(current); err != nil {
				return err
			}
			current = nil
		}
	}

	if len(current) > 0 {
		return fn(current)
	}
	return nil
}

// Join renders tokens as display text, asking t for the separator between
// each pair and upper-casing the first letter of the sentence.
func Join(t Tokenizer, tokens []string) string {
	if len(tokens) == 0 {
		return ""
	}
	var builder strings.Builder
	builder.WriteString(cases.Title(language.Und, cases.NoLower).String(tokens[0]))
	for i := 1; i < len(tokens); i++ {
		builder.WriteString(t.Separator(tokens[i-1], tokens[i]))
		builder.WriteString(tokens[i])
	}
	return builder.String()
}
