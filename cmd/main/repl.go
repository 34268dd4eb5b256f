package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/CTAG07/wordgraph/pkg/corpus"
	"github.com/CTAG07/wordgraph/pkg/wordgraph"
	"github.com/dustin/go-humanize"
	"github.com/peterh/liner"
)

const replPrompt = "> "

var replCommands = []string{"gen", "words", "sentences", "list", "range", "pred", "succ", "check", "help", "quit"}

const replHelp = `gen [n]        generate a sentence, aiming for n tokens
words [-d]     number of words in the corpus, -d for distinct words
sentences      number of sentences in the corpus
list           list every distinct word in sorted order
range i [j]    list sorted words i through j
pred <word>    words that precede <word>, with weights
succ <word>    words that follow <word>, with weights
check          verify the internal consistency of the graph
help           show this message
quit           leave
`

// repl interprets the interactive commands against one model.
type repl struct {
	graph     *wordgraph.Graph
	walker    *wordgraph.Walker
	tokenizer corpus.Tokenizer
	normalize func(string) string // folds word arguments like the corpus; nil keeps them verbatim
	maxLength int
	out       io.Writer
}

// run reads commands with line editing until quit or end of input. History
// is loaded from and saved to historyPath when it is not empty.
func (r *repl) run(historyPath string) error {
	input := liner.NewLiner()
	defer input.Close()

	input.SetCtrlCAborts(true)
	input.SetCompleter(completeCommand)

	if historyPath != "" {
		if f, err := os.Open(historyPath); err == nil {
			_, _ = input.ReadHistory(f)
			_ = f.Close()
		}
	}

	for {
		line, err := input.Prompt(replPrompt)
		if errors.Is(err, liner.ErrPromptAborted) {
			continue
		} else if errors.Is(err, io.EOF) {
			break
		} else if err != nil {
			return err
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		input.AppendHistory(line)

		if r.process(line) {
			break
		}
	}

	if historyPath != "" {
		f, err := os.Create(historyPath)
		if err != nil {
			return fmt.Errorf("failed to save history: %w", err)
		}
		defer func(f *os.File) {
			_ = f.Close()
		}(f)
		if _, err = input.WriteHistory(f); err != nil {
			return fmt.Errorf("failed to save history: %w", err)
		}
	}
	return nil
}

func completeCommand(line string) []string {
	var matches []string
	for _, c := range replCommands {
		if strings.HasPrefix(c, strings.ToLower(line)) {
			matches = append(matches, c)
		}
	}
	return matches
}

// process executes one command line and reports whether the session should end.
func (r *repl) process(line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}
	args := fields[1:]

	switch fields[0] {
	case "gen":
		r.generate(line, args)
	case "words":
		stats := r.graph.Stats()
		if len(args) == 1 && args[0] == "-d" {
			r.reply(humanize.Comma(int64(stats.DistinctWords)))
		} else {
			r.reply(humanize.Comma(int64(stats.Words)))
		}
	case "sentences":
		r.reply(humanize.Comma(int64(r.graph.Stats().Sentences)))
	case "list":
		for _, w := range r.graph.SortedWords() {
			_, _ = fmt.Fprintln(r.out, w)
		}
	case "range":
		r.wordRange(line, args)
	case "pred":
		r.neighbors(line, args, r.graph.Predecessors)
	case "succ":
		r.neighbors(line, args, r.graph.Successors)
	case "check":
		if err := r.graph.Validate(); err != nil {
			r.reply("Error: " + err.Error())
		} else {
			r.reply("ok")
		}
	case "help":
		_, _ = io.WriteString(r.out, replHelp)
	case "quit", "exit":
		r.reply("Bye!")
		return true
	default:
		r.reply(fmt.Sprintf("Warning: %q has not parsed.", line))
	}
	return false
}

func (r *repl) reply(msg string) {
	_, _ = fmt.Fprintln(r.out, ">>> "+msg)
}

func (r *repl) generate(line string, args []string) {
	if len(args) > 1 {
		r.reply(fmt.Sprintf("Warning: command %q not recognized.", line))
		return
	}
	maxLength := r.maxLength
	if len(args) == 1 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n <= 0 {
			r.reply(fmt.Sprintf("%q is not a sentence length.", args[0]))
			return
		}
		maxLength = n
	}

	words, err := r.walker.Generate(maxLength)
	if err != nil {
		r.reply("Error: " + err.Error())
		return
	}
	r.reply(corpus.Join(r.tokenizer, words))
}

func (r *repl) wordRange(line string, args []string) {
	if len(args) < 1 || len(args) > 2 {
		r.reply(fmt.Sprintf("Command %q could not be parsed.", line))
		return
	}
	indices := make([]int, len(args))
	for i, a := range args {
		n, err := strconv.Atoi(a)
		if err != nil {
			r.reply(fmt.Sprintf("%s is not an index expression.", a))
			return
		}
		indices[i] = n
	}
	from, to := indices[0], indices[0]
	if len(indices) == 2 {
		to = indices[1]
	}

	words, err := r.graph.WordRange(from, to)
	if err != nil {
		r.reply(err.Error())
		return
	}
	for _, w := range words {
		_, _ = fmt.Fprintln(r.out, w)
	}
}

func (r *repl) neighbors(line string, args []string, list func(string) ([]wordgraph.Neighbor, error)) {
	if len(args) != 1 {
		r.reply(fmt.Sprintf("Command %q could not be parsed.", line))
		return
	}
	word := args[0]
	if r.normalize != nil {
		word = r.normalize(word)
	}
	neighbors, err := list(word)
	if err != nil {
		r.reply("Error: " + err.Error())
		return
	}
	if len(neighbors) == 0 {
		r.reply("none")
		return
	}
	for _, n := range neighbors {
		_, _ = fmt.Fprintf(r.out, "%-16s %8s %6.2f%%\n", n.Word, humanize.Ftoa(n.Weight), 100*n.Probability)
	}
}
