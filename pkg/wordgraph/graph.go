package wordgraph

import (
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/CTAG07/wordgraph/pkg/sampling"
)

var (
	// ErrNotFound is returned for unknown words and for neighbors that were
	// never linked to a word.
	ErrNotFound = sampling.ErrNotFound
	// ErrEmptyDistribution is returned when a walk cannot leave its starting
	// node.
	ErrEmptyDistribution = sampling.ErrEmptyDistribution
)

// NodeID addresses a Node inside the Graph that owns it.
type NodeID int

// Node is one distinct word of the corpus together with its adjacency data.
type Node struct {
	Word string

	// predCounts and predOrder hold raw predecessor multiplicities while the
	// graph is being built. They are consumed by bake and nil afterwards.
	predCounts map[NodeID]int
	predOrder  []NodeID

	successors []NodeID
	backward   *sampling.Tree[NodeID]
	forward    *sampling.Tree[NodeID]
}

// Neighbor describes one entry of a node's predecessor or successor
// distribution.
type Neighbor struct {
	Word        string
	Weight      float64
	Probability float64
}

// Stats holds the corpus counts gathered while building a Graph.
type Stats struct {
	Sentences     int // Number of sentences given to Build, empty ones included
	Words         int // Total number of tokens
	DistinctWords int // Number of nodes
	InitialWords  int // Number of distinct sentence-initial words
	Links         int // Number of distinct (predecessor, word) pairs
}

// Graph is an immutable word-adjacency graph. Nodes are kept in the order in
// which their words first occur in the corpus.
type Graph struct {
	nodes   []Node
	lookup  map[string]NodeID
	initial map[NodeID]struct{}
	stats   Stats
}

// buildOptions Is used by Build to configure logging.
type buildOptions struct {
	logger *slog.Logger
}

// BuildOption configures Build.
type BuildOption func(*buildOptions)

// WithLogger sets the logger used while building. By default, all logs are
// discarded.
func WithLogger(logger *slog.Logger) BuildOption {
	return func(o *buildOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// Build constructs a Graph from a sequence of tokenized sentences. Each
// sentence is an ordered slice of tokens with sentence-terminal punctuation
// as its own token. Empty sentences are counted but contribute no words;
// empty tokens are rejected.
func Build(sentences [][]string, opts ...BuildOption) (*Graph, error) {
	options := &buildOptions{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(options)
	}
	start := time.Now()

	g := &Graph{
		lookup:  make(map[string]NodeID),
		initial: make(map[NodeID]struct{}),
	}

	// First pass: one node per distinct word, in first-occurrence order.
	for i, sentence := range sentences {
		for j, word := range sentence {
			if word == "" {
				return nil, fmt.Errorf("sentence %d: empty token at position %d", i, j)
			}
			g.stats.Words++
			if _, ok := g.lookup[word]; !ok {
				g.lookup[word] = NodeID(len(g.nodes))
				g.nodes = append(g.nodes, Node{Word: word})
			}
		}
	}

	// Second pass: count every adjacent pair within a sentence.
	for _, sentence := range sentences {
		if len(sentence) == 0 {
			continue
		}
		g.initial[g.lookup[sentence[0]]] = struct{}{}
		for i := 0; i < len(sentence)-1; i++ {
			g.link(g.lookup[sentence[i]], g.lookup[sentence[i+1]])
		}
	}

	if err := g.bake(); err != nil {
		return nil, err
	}

	g.stats.Sentences = len(sentences)
	g.stats.DistinctWords = len(g.nodes)
	g.stats.InitialWords = len(g.initial)

	options.logger.Info("Word graph built",
		slog.Int("sentences", g.stats.Sentences),
		slog.Int("words", g.stats.Words),
		slog.Int("distinct_words", g.stats.DistinctWords),
		slog.Int("links", g.stats.Links),
		slog.Duration("elapsed", time.Since(start)),
	)
	return g, nil
}

// link records one occurrence of pred directly before word.
func (g *Graph) link(pred, word NodeID) {
	n := &g.nodes[word]
	if n.predCounts == nil {
		n.predCounts = make(map[NodeID]int)
	}
	if _, ok := n.predCounts[pred]; !ok {
		n.predOrder = append(n.predOrder, pred)
	}
	n.predCounts[pred]++
}

// bake turns the raw predecessor counts into sampling trees. Each predecessor
// also gains the reverse successor edge and forward weight.
func (g *Graph) bake() error {
	for i := range g.nodes {
		g.nodes[i].backward = sampling.NewTree[NodeID]()
		g.nodes[i].forward = sampling.NewTree[NodeID]()
	}
	for i := range g.nodes {
		id := NodeID(i)
		n := &g.nodes[i]
		for _, pred := range n.predOrder {
			weight := float64(n.predCounts[pred])
			if err := n.backward.Add(pred, weight); err != nil {
				return fmt.Errorf("baking predecessor %q of %q: %w", g.nodes[pred].Word, n.Word, err)
			}
			p := &g.nodes[pred]
			if err := p.forward.Add(id, weight); err != nil {
				return fmt.Errorf("baking successor %q of %q: %w", n.Word, p.Word, err)
			}
			p.successors = append(p.successors, id)
			g.stats.Links++
		}
		n.predCounts = nil
		n.predOrder = nil
	}
	return nil
}

// Stats returns the corpus counts.
func (g *Graph) Stats() Stats {
	return g.stats
}

// Len returns the number of distinct words.
func (g *Graph) Len() int {
	return len(g.nodes)
}

// Lookup returns the id of the node for word.
func (g *Graph) Lookup(word string) (NodeID, bool) {
	id, ok := g.lookup[word]
	return id, ok
}

// Node returns the node for word, or ErrNotFound.
func (g *Graph) Node(word string) (*Node, error) {
	id, ok := g.lookup[word]
	if !ok {
		return nil, fmt.Errorf("word %q: %w", word, ErrNotFound)
	}
	return &g.nodes[id], nil
}

// Word returns the word of the node with the given id.
func (g *Graph) Word(id NodeID) string {
	return g.nodes[id].Word
}

// IsInitial reports whether word started at least one corpus sentence.
func (g *Graph) IsInitial(word string) bool {
	id, ok := g.lookup[word]
	if !ok {
		return false
	}
	_, ok = g.initial[id]
	return ok
}

// Nodes returns every node in first-occurrence order. The nodes are owned by
// the graph and must not be modified.
func (g *Graph) Nodes() []*Node {
	nodes := make([]*Node, len(g.nodes))
	for i := range g.nodes {
		nodes[i] = &g.nodes[i]
	}
	return nodes
}

// Words returns every distinct word in first-occurrence order.
func (g *Graph) Words() []string {
	words := make([]string, len(g.nodes))
	for i := range g.nodes {
		words[i] = g.nodes[i].Word
	}
	return words
}

// SortedWords returns every distinct word in lexical order.
func (g *Graph) SortedWords() []string {
	words := g.Words()
	slices.Sort(words)
	return words
}

// WordRange returns the sorted words with indices from through to, both
// inclusive.
func (g *Graph) WordRange(from, to int) ([]string, error) {
	if from < 0 || from >= len(g.nodes) {
		return nil, fmt.Errorf("index %d is not within bounds [0, %d]", from, len(g.nodes)-1)
	}
	if to < 0 || to >= len(g.nodes) {
		return nil, fmt.Errorf("index %d is not within bounds [0, %d]", to, len(g.nodes)-1)
	}
	if from > to {
		return nil, fmt.Errorf("indices are reversed: %d > %d", from, to)
	}
	return g.SortedWords()[from : to+1], nil
}

// WeightOf returns how many times neighbor directly preceded word.
func (g *Graph) WeightOf(word, neighbor string) (float64, error) {
	n, nb, err := g.pair(word, neighbor)
	if err != nil {
		return 0, err
	}
	w, err := n.backward.WeightOf(nb)
	if err != nil {
		return 0, fmt.Errorf("%q is not a predecessor of %q: %w", neighbor, word, ErrNotFound)
	}
	return w, nil
}

// ProbabilityOf returns the probability that a walk at word steps back to
// neighbor.
func (g *Graph) ProbabilityOf(word, neighbor string) (float64, error) {
	n, nb, err := g.pair(word, neighbor)
	if err != nil {
		return 0, err
	}
	p, err := n.backward.ProbabilityOf(nb)
	if err != nil {
		return 0, fmt.Errorf("%q is not a predecessor of %q: %w", neighbor, word, ErrNotFound)
	}
	return p, nil
}

// SuccessorWeight returns how many times neighbor directly followed word.
func (g *Graph) SuccessorWeight(word, neighbor string) (float64, error) {
	n, nb, err := g.pair(word, neighbor)
	if err != nil {
		return 0, err
	}
	w, err := n.forward.WeightOf(nb)
	if err != nil {
		return 0, fmt.Errorf("%q is not a successor of %q: %w", neighbor, word, ErrNotFound)
	}
	return w, nil
}

// SuccessorProbability returns the share of word's outgoing links that lead
// to neighbor.
func (g *Graph) SuccessorProbability(word, neighbor string) (float64, error) {
	n, nb, err := g.pair(word, neighbor)
	if err != nil {
		return 0, err
	}
	p, err := n.forward.ProbabilityOf(nb)
	if err != nil {
		return 0, fmt.Errorf("%q is not a successor of %q: %w", neighbor, word, ErrNotFound)
	}
	return p, nil
}

// Predecessors returns the backward distribution of word sorted by word.
func (g *Graph) Predecessors(word string) ([]Neighbor, error) {
	n, err := g.Node(word)
	if err != nil {
		return nil, err
	}
	return g.neighbors(n.backward), nil
}

// Successors returns the forward distribution of word sorted by word.
func (g *Graph) Successors(word string) ([]Neighbor, error) {
	n, err := g.Node(word)
	if err != nil {
		return nil, err
	}
	return g.neighbors(n.forward), nil
}

// SuccessorWords returns the distinct words that directly followed word, in
// the order the links were baked.
func (g *Graph) SuccessorWords(word string) ([]string, error) {
	n, err := g.Node(word)
	if err != nil {
		return nil, err
	}
	words := make([]string, len(n.successors))
	for i, id := range n.successors {
		words[i] = g.nodes[id].Word
	}
	return words, nil
}

// Validate checks the invariants of every baked distribution.
func (g *Graph) Validate() error {
	for i := range g.nodes {
		n := &g.nodes[i]
		if err := n.backward.Validate(); err != nil {
			return fmt.Errorf("predecessors of %q: %w", n.Word, err)
		}
		if err := n.forward.Validate(); err != nil {
			return fmt.Errorf("successors of %q: %w", n.Word, err)
		}
		if n.forward.Len() != len(n.successors) {
			return fmt.Errorf("successors of %q: %d weighted, %d listed", n.Word, n.forward.Len(), len(n.successors))
		}
	}
	return nil
}

func (g *Graph) pair(word, neighbor string) (*Node, NodeID, error) {
	n, err := g.Node(word)
	if err != nil {
		return nil, 0, err
	}
	nb, ok := g.lookup[neighbor]
	if !ok {
		return nil, 0, fmt.Errorf("neighbor %q of %q: %w", neighbor, word, ErrNotFound)
	}
	return n, nb, nil
}

func (g *Graph) neighbors(tree *sampling.Tree[NodeID]) []Neighbor {
	out := make([]Neighbor, 0, tree.Len())
	total := tree.TotalWeight()
	tree.Each(func(id NodeID, weight float64) bool {
		out = append(out, Neighbor{
			Word:        g.nodes[id].Word,
			Weight:      weight,
			Probability: weight / total,
		})
		return true
	})
	slices.SortFunc(out, func(a, b Neighbor) int {
		return strings.Compare(a.Word, b.Word)
	})
	return out
}
