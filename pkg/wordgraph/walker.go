package wordgraph

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"slices"

	"github.com/CTAG07/wordgraph/pkg/sampling"
)

const (
	// DefaultTerminal is the token a walk starts from unless WithTerminal is given.
	DefaultTerminal = "."
	// DefaultStopExponent shapes the early-stop cutoff (1 - length/max)^exponent.
	DefaultStopExponent = 0.1
	// DefaultMaxSteps bounds a single walk.
	DefaultMaxSteps = 10000
)

// walkOptions Is used by the Walker to hold its tuning parameters.
type walkOptions struct {
	terminal     string
	stopExponent float64
	maxSteps     int
	overshoot    bool
}

// WalkOption is a function that configures a Walker.
type WalkOption func(*walkOptions)

// WithTerminal sets the sentence-terminal token every walk starts from.
// Default: "."
func WithTerminal(token string) WalkOption {
	return func(o *walkOptions) { o.terminal = token }
}

// WithStopExponent sets the exponent of the early-stop cutoff. Smaller values
// keep the cutoff close to 1 for longer, making early stops rarer.
// Default: 0.1
func WithStopExponent(x float64) WalkOption {
	return func(o *walkOptions) { o.stopExponent = x }
}

// WithMaxSteps caps the number of predecessor samples drawn by one walk. A
// value of 0 or less disables the cap.
// Default: 10000
func WithMaxSteps(n int) WalkOption {
	return func(o *walkOptions) { o.maxSteps = n }
}

// WithOvershoot controls what happens once a walk reaches the requested
// length. When enabled, the walk keeps going until it samples a
// sentence-initial word. When disabled, it stops right away.
// Default: true
func WithOvershoot(enabled bool) WalkOption {
	return func(o *walkOptions) { o.overshoot = enabled }
}

// Walker generates sentences by walking a Graph backward from a terminal
// token. A Walker is not safe for concurrent use because it shares its
// random source between walks.
type Walker struct {
	graph   *Graph
	rng     sampling.Rand
	options walkOptions
	logger  *slog.Logger
}

// NewWalker returns a Walker over g that draws from r.
func NewWalker(g *Graph, r sampling.Rand, opts ...WalkOption) *Walker {
	options := walkOptions{
		terminal:     DefaultTerminal,
		stopExponent: DefaultStopExponent,
		maxSteps:     DefaultMaxSteps,
		overshoot:    true,
	}
	for _, opt := range opts {
		opt(&options)
	}
	return &Walker{
		graph:   g,
		rng:     r,
		options: options,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// SetLogger sets the logger for the Walker. By default, all logs are discarded.
func (w *Walker) SetLogger(logger *slog.Logger) {
	if logger != nil {
		w.logger = logger
	}
}

// Generate walks the graph and returns a sentence in reading order, ending
// with the terminal token. maxLength is the target number of tokens; a value
// of 0 or less means unbounded. The result may be longer than maxLength when
// overshoot is enabled.
//
// Generate returns ErrNotFound if the terminal token is not in the graph and
// ErrEmptyDistribution if nothing ever preceded it.
func (w *Walker) Generate(maxLength int) ([]string, error) {
	path, err := w.walk(maxLength)
	if err != nil {
		return nil, err
	}
	words := make([]string, len(path))
	for i, id := range path {
		words[i] = w.graph.nodes[id].Word
	}
	return words, nil
}

// walk returns the generated node path in reading order.
func (w *Walker) walk(maxLength int) ([]NodeID, error) {
	start, ok := w.graph.lookup[w.options.terminal]
	if !ok {
		return nil, fmt.Errorf("terminal token %q: %w", w.options.terminal, ErrNotFound)
	}
	if w.graph.nodes[start].backward.IsEmpty() {
		return nil, fmt.Errorf("terminal token %q has no predecessors: %w", w.options.terminal, ErrEmptyDistribution)
	}

	target := maxLength
	if target <= 0 {
		target = math.MaxInt
	}

	path := []NodeID{start}
	current := start
	reason := "dead_end"

	for steps := 0; ; steps++ {
		if w.options.maxSteps > 0 && steps >= w.options.maxSteps {
			reason = "step_limit"
			w.logger.Warn("Walk stopped at step limit",
				slog.Int("max_steps", w.options.maxSteps),
				slog.Int("generated_length", len(path)),
			)
			break
		}

		pred, err := w.graph.nodes[current].backward.Sample(w.rng)
		if errors.Is(err, sampling.ErrEmptyDistribution) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("sampling predecessor of %q: %w", w.graph.nodes[current].Word, err)
		}

		path = append(path, pred)
		current = pred

		if w.stop(pred, len(path), target) {
			reason = "stop_rule"
			break
		}
	}

	w.logger.Debug("Walk terminated",
		slog.String("reason", reason),
		slog.String("terminal", w.options.terminal),
		slog.Int("target_length", maxLength),
		slog.Int("generated_length", len(path)),
	)

	slices.Reverse(path)
	return path, nil
}

// stop applies the continuation test to the node just appended at the given
// path length.
func (w *Walker) stop(id NodeID, length, target int) bool {
	_, initial := w.graph.initial[id]

	if length >= target {
		if !w.options.overshoot {
			return true
		}
		return initial
	}
	if !initial {
		return false
	}

	factor := float64(length) / float64(target)
	cutoff := math.Pow(1-factor, w.options.stopExponent)
	return w.rng.Float64() > cutoff
}
