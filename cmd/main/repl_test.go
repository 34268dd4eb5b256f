package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/CTAG07/wordgraph/pkg/corpus"
	"github.com/CTAG07/wordgraph/pkg/wordgraph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixedRand always returns the same draw.
type fixedRand float64

func (f fixedRand) Float64() float64 { return float64(f) }

func newTestREPL(t *testing.T, text string) (*repl, *bytes.Buffer) {
	t.Helper()
	tokenizer := corpus.NewDefaultTokenizer()
	sentences, err := corpus.ReadSentences(tokenizer, strings.NewReader(text))
	require.NoError(t, err)
	g, err := wordgraph.Build(sentences)
	require.NoError(t, err)

	var out bytes.Buffer
	return &repl{
		graph:     g,
		walker:    wordgraph.NewWalker(g, fixedRand(0)),
		tokenizer: tokenizer,
		normalize: tokenizer.Normalize,
		out:       &out,
	}, &out
}

func TestREPLCommands(t *testing.T) {
	testCases := []struct {
		line string
		want string
	}{
		{line: "gen", want: ">>> The cat sat.\n"},
		{line: "gen 10", want: ">>> The cat sat.\n"},
		{line: "gen x", want: ">>> \"x\" is not a sentence length.\n"},
		{line: "words", want: ">>> 8\n"},
		{line: "words -d", want: ">>> 5\n"},
		{line: "sentences", want: ">>> 2\n"},
		{line: "list", want: ".\ncat\ndog\nsat\nthe\n"},
		{line: "range 1 2", want: "cat\ndog\n"},
		{line: "range 4", want: "the\n"},
		{line: "range a", want: ">>> a is not an index expression.\n"},
		{line: "range 3 1", want: ">>> indices are reversed: 3 > 1\n"},
		{line: "pred the", want: ">>> none\n"},
		{line: "check", want: ">>> ok\n"},
		{line: "dance", want: ">>> Warning: \"dance\" has not parsed.\n"},
	}
	for _, tc := range testCases {
		t.Run(tc.line, func(t *testing.T) {
			r, out := newTestREPL(t, "The cat sat. The dog sat.")
			assert.False(t, r.process(tc.line))
			assert.Equal(t, tc.want, out.String())
		})
	}
}

func TestREPLNeighbors(t *testing.T) {
	r, out := newTestREPL(t, "The cat sat. The dog sat.")

	r.process("pred sat")
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "cat"))
	assert.Contains(t, lines[0], "50.00%")
	assert.True(t, strings.HasPrefix(lines[1], "dog"))

	out.Reset()
	r.process("succ the")
	assert.Contains(t, out.String(), "cat")
	assert.Contains(t, out.String(), "dog")

	// Arguments are folded like the corpus, so "The" finds "the".
	out.Reset()
	r.process("succ The")
	assert.Contains(t, out.String(), "cat")
	assert.NotContains(t, out.String(), "Error:")

	out.Reset()
	r.process("pred zebra")
	assert.Contains(t, out.String(), "Error:")
}

func TestREPLQuit(t *testing.T) {
	r, out := newTestREPL(t, "The cat sat.")
	assert.True(t, r.process("quit"))
	assert.Equal(t, ">>> Bye!\n", out.String())
}

func TestREPLGenerateError(t *testing.T) {
	// No sentence ends with ".", so the walk has nowhere to start.
	r, out := newTestREPL(t, "Is it?")
	r.process("gen")
	assert.Contains(t, out.String(), "Error:")
}

func TestCompleteCommand(t *testing.T) {
	assert.Equal(t, []string{"sentences", "succ"}, completeCommand("s"))
	assert.Equal(t, []string{"gen"}, completeCommand("GE"))
	assert.Empty(t, completeCommand("z"))
}
