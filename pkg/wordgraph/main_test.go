package wordgraph

import (
	"testing"
)

// fixedRand always returns the same draw.
type fixedRand float64

func (f fixedRand) Float64() float64 { return float64(f) }

// seqRand returns its draws in order, repeating the last one when exhausted.
type seqRand struct {
	draws []float64
	next  int
}

func (s *seqRand) Float64() float64 {
	d := s.draws[min(s.next, len(s.draws)-1)]
	s.next++
	return d
}

// catDogCorpus is the two-sentence corpus used across the tests.
var catDogCorpus = [][]string{
	{"the", "cat", "sat", "."},
	{"the", "dog", "sat", "."},
}

// buildTestGraph builds a graph and fails the test on error.
func buildTestGraph(t testing.TB, sentences [][]string) *Graph {
	t.Helper()
	g, err := Build(sentences)
	if err != nil {
		t.Fatalf("Build() failed: %v", err)
	}
	if err := g.Validate(); err != nil {
		t.Fatalf("Validate() failed: %v", err)
	}
	return g
}
