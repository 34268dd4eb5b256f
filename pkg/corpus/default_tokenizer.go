package corpus

import (
	"bufio"
	"io"
	"regexp"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// DefaultTokenizer is a default implementation of the Tokenizer interface.
// It uses regular expressions to split text into words and punctuation,
// and identifies sentence-ending punctuation as End-Of-Chain (EOC) tokens.
// Input is NFC-normalized and, unless disabled, lower-cased.
// Its behavior can be customized with functional options.
type DefaultTokenizer struct {
	separator         string
	lowercase         bool
	separatorRegex    *regexp.Regexp
	eocRegex          *regexp.Regexp
	separatorExcRegex *regexp.Regexp
}

// Option Is a function that configures a DefaultTokenizer.
type Option func(*DefaultTokenizer)

// WithSeparator Sets the character used for joining tokens when rendering.
// Default: " "
func WithSeparator(sep string) Option {
	return func(t *DefaultTokenizer) {
		t.separator = sep
	}
}

// WithLowercase sets whether tokens are lower-cased.
// Default: true
func WithLowercase(enabled bool) Option {
	return func(t *DefaultTokenizer) {
		t.lowercase = enabled
	}
}

// WithSeparatorRegex sets the regex string to use when splitting input text.
// Default: `[\p{L}\p{N}_'’]+|\.\.\.|!!!|[.!?;]`
func WithSeparatorRegex(splitRegex string) Option {
	return func(t *DefaultTokenizer) {
		t.separatorRegex = regexp.MustCompile(splitRegex)
	}
}

// WithEOCRegex sets the regex string to use when deciding whether a token ends a sentence.
// Default: `^(\.\.\.|!!!|[.!?;])$`
func WithEOCRegex(eocRegex string) Option {
	return func(t *DefaultTokenizer) {
		t.eocRegex = regexp.MustCompile(eocRegex)
	}
}

// WithSeparatorExcRegex sets the regex string to use when deciding whether to add a separator before a token.
func WithSeparatorExcRegex(splitExcRegex string) Option {
	return func(t *DefaultTokenizer) {
		t.separatorExcRegex = regexp.MustCompile(splitExcRegex)
	}
}

// NewDefaultTokenizer creates a new tokenizer with default settings, which can be
// overridden by providing one or more Option functions.
func NewDefaultTokenizer(opts ...Option) *DefaultTokenizer {
	t := &DefaultTokenizer{
		separator: " ",
		lowercase: true,
		// This regex finds runs of letters, digits, underscores and apostrophes
		// OR a single terminal mark. Commas, quotes and brackets are dropped.
		separatorRegex: regexp.MustCompile(`[\p{L}\p{N}_'’]+|\.\.\.|!!!|[.!?;]`),
		// This regex checks if a token is one of the sentence-ending punctuation marks.
		eocRegex: regexp.MustCompile(`^(\.\.\.|!!!|[.!?;])$`),
		// This regex checks for characters that don't get a separator put before them.
		separatorExcRegex: regexp.MustCompile(`^[.,!?;]`),
	}

	for _, opt := range opts {
		opt(t)
	}

	return t
}

// Separator Returns the configured separator string.
func (t *DefaultTokenizer) Separator(_, next string) string {
	if t.separatorExcRegex.MatchString(next) {
		return ""
	}
	return t.separator
}

// Normalize folds a single word the way the stream tokenizer folds input text,
// so user-supplied words can be looked up against tokenized sentences.
func (t *DefaultTokenizer) Normalize(word string) string {
	word = norm.NFC.String(word)
	if t.lowercase {
		word = cases.Lower(language.Und).String(word)
	}
	return word
}

// NewStream Returns the stream processor.
func (t *DefaultTokenizer) NewStream(r io.Reader) StreamTokenizer {
	s := &DefaultStreamTokenizer{
		scanner:    bufio.NewScanner(transform.NewReader(r, norm.NFC)),
		buffer:     []string{},
		splitRegex: t.separatorRegex,
		eosRegex:   t.eocRegex,
	}
	if t.lowercase {
		s.lower = true
		s.caser = cases.Lower(language.Und)
	}
	return s
}

// DefaultStreamTokenizer is the default implementation of the StreamTokenizer interface.
// It uses a bufio.Scanner and regular expressions to read and tokenize a stream.
type DefaultStreamTokenizer struct {
	scanner    *bufio.Scanner
	buffer     []string
	splitRegex *regexp.Regexp
	eosRegex   *regexp.Regexp
	lower      bool
	caser      cases.Caser
}

// Next returns the next token from the stream. It returns a Token and a nil error on
// success. When the stream is exhausted, it returns a nil Token and io.EOF.
// Any other error indicates a problem reading from the underlying stream.
func (s *DefaultStreamTokenizer) Next() (*Token, error) {
	for len(s.buffer) == 0 { // Loop until we have tokens
		if !s.scanner.Scan() {
			if err := s.scanner.Err(); err != nil {
				return nil, err
			}
			return nil, io.EOF
		}
		line := s.scanner.Text()
		if s.lower {
			line = s.caser.String(line)
		}
		s.buffer = s.splitRegex.FindAllString(line, -1)
	}

	// We have tokens in the buffer. Process the next one.
	word := s.buffer[0]
	s.buffer = s.buffer[1:] // Consume the token

	// Return the word and whether it is an EOC token or not
	return &Token{Text: word, EOC: s.eosRegex.MatchString(word)}, nil
}
