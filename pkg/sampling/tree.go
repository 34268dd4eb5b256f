package sampling

import (
	"fmt"
	"math"
)

// none marks a missing child, parent or root index.
const none = -1

// node is one slot of the tree arena. A leaf carries an element; a relay node
// carries no element and aggregates the weight and leaf count of its children.
type node[E comparable] struct {
	element E
	weight  float64
	leaves  int
	left    int
	right   int
	parent  int
	relay   bool
}

// Tree is a weighted multiset of distinct elements. Adding an element that is
// already present accumulates its weight instead of creating a second leaf.
//
// The zero value is not usable; create trees with NewTree.
type Tree[E comparable] struct {
	nodes       []node[E]
	free        []int
	root        int
	index       map[E]int
	totalWeight float64
}

// NewTree returns an empty tree.
func NewTree[E comparable]() *Tree[E] {
	return &Tree[E]{
		root:  none,
		index: make(map[E]int),
	}
}

// Add inserts element with the given weight, or increases the weight of an
// element that is already present. It returns ErrInvalidWeight for weights
// that are NaN, infinite, zero or negative, and when the accumulated weight
// would overflow.
func (t *Tree[E]) Add(element E, weight float64) error {
	if err := CheckWeight(weight); err != nil {
		return err
	}
	id, exists := t.index[element]
	if math.IsInf(t.totalWeight+weight, 0) || (exists && math.IsInf(t.nodes[id].weight+weight, 0)) {
		return fmt.Errorf("adding %v to %v overflows: %w", weight, element, ErrInvalidWeight)
	}

	if exists {
		t.nodes[id].weight += weight
		t.propagate(t.nodes[id].parent, weight, 0)
	} else {
		id = t.alloc(node[E]{
			element: element,
			weight:  weight,
			leaves:  1,
			left:    none,
			right:   none,
			parent:  none,
		})
		t.insert(id)
		t.index[element] = id
	}

	t.totalWeight += weight
	return nil
}

// Sample draws an element with probability proportional to its weight. It
// returns ErrEmptyDistribution when the tree holds no elements.
func (t *Tree[E]) Sample(r Rand) (E, error) {
	if len(t.index) == 0 {
		var zero E
		return zero, ErrEmptyDistribution
	}

	value := t.totalWeight * r.Float64()
	id := t.root
	for t.nodes[id].relay {
		left := t.nodes[id].left
		if value < t.nodes[left].weight {
			id = left
		} else {
			value -= t.nodes[left].weight
			id = t.nodes[id].right
		}
	}
	return t.nodes[id].element, nil
}

// Remove deletes element from the tree. It reports false if the element was
// not present.
func (t *Tree[E]) Remove(element E) bool {
	id, ok := t.index[element]
	if !ok {
		return false
	}
	delete(t.index, element)

	weight := t.nodes[id].weight
	t.unlink(id)
	t.release(id)

	if len(t.index) == 0 {
		// Drop accumulated rounding error together with the arena.
		t.Clear()
		return true
	}
	t.totalWeight -= weight
	return true
}

// Contains reports whether element has been added and not removed since.
func (t *Tree[E]) Contains(element E) bool {
	_, ok := t.index[element]
	return ok
}

// WeightOf returns the accumulated weight of element, or ErrNotFound.
func (t *Tree[E]) WeightOf(element E) (float64, error) {
	id, ok := t.index[element]
	if !ok {
		return 0, fmt.Errorf("weight of %v: %w", element, ErrNotFound)
	}
	return t.nodes[id].weight, nil
}

// ProbabilityOf returns the probability that Sample yields element, or
// ErrNotFound.
func (t *Tree[E]) ProbabilityOf(element E) (float64, error) {
	w, err := t.WeightOf(element)
	if err != nil {
		return 0, err
	}
	return w / t.totalWeight, nil
}

// TotalWeight returns the sum of all element weights.
func (t *Tree[E]) TotalWeight() float64 {
	return t.totalWeight
}

// IsEmpty reports whether the tree holds no elements.
func (t *Tree[E]) IsEmpty() bool {
	return len(t.index) == 0
}

// Len returns the number of distinct elements.
func (t *Tree[E]) Len() int {
	return len(t.index)
}

// Clear removes every element and resets the total weight to zero.
func (t *Tree[E]) Clear() {
	t.nodes = t.nodes[:0]
	t.free = t.free[:0]
	t.root = none
	clear(t.index)
	t.totalWeight = 0
}

// Each calls fn for every element in left-to-right leaf order until fn
// returns false.
func (t *Tree[E]) Each(fn func(element E, weight float64) bool) {
	if t.root == none {
		return
	}
	stack := []int{t.root}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		n := &t.nodes[id]
		if n.relay {
			stack = append(stack, n.right, n.left)
			continue
		}
		if !fn(n.element, n.weight) {
			return
		}
	}
}

// Elements returns the elements in left-to-right leaf order.
func (t *Tree[E]) Elements() []E {
	out := make([]E, 0, len(t.index))
	t.Each(func(e E, _ float64) bool {
		out = append(out, e)
		return true
	})
	return out
}

// Depth returns the number of edges on the longest root-to-leaf path, or -1
// for an empty tree.
func (t *Tree[E]) Depth() int {
	if t.root == none {
		return -1
	}
	var depth func(id int) int
	depth = func(id int) int {
		n := &t.nodes[id]
		if !n.relay {
			return 0
		}
		return 1 + max(depth(n.left), depth(n.right))
	}
	return depth(t.root)
}

// insert attaches the leaf id below the least-populated leaf of the tree.
func (t *Tree[E]) insert(id int) {
	if t.root == none {
		t.root = id
		return
	}

	cur := t.root
	for t.nodes[cur].relay {
		left, right := t.nodes[cur].left, t.nodes[cur].right
		if t.nodes[left].leaves <= t.nodes[right].leaves {
			cur = left
		} else {
			cur = right
		}
	}
	t.bypass(cur, id)
}

// bypass replaces the leaf with a new relay node whose children are the leaf
// and the newly created leaf id.
func (t *Tree[E]) bypass(leaf, id int) {
	parent := t.nodes[leaf].parent
	relay := t.alloc(node[E]{
		weight: t.nodes[leaf].weight,
		leaves: 1,
		left:   leaf,
		right:  id,
		parent: parent,
		relay:  true,
	})

	t.nodes[leaf].parent = relay
	t.nodes[id].parent = relay
	t.replaceChild(parent, leaf, relay)

	t.propagate(relay, t.nodes[id].weight, 1)
}

// unlink detaches the leaf id and promotes its sibling into the place of
// their shared relay node. The relay node slot is released.
func (t *Tree[E]) unlink(id int) {
	relay := t.nodes[id].parent
	if relay == none {
		t.root = none
		return
	}

	sibling := t.nodes[relay].left
	if sibling == id {
		sibling = t.nodes[relay].right
	}
	grandparent := t.nodes[relay].parent

	t.nodes[sibling].parent = grandparent
	t.replaceChild(grandparent, relay, sibling)
	t.release(relay)

	t.propagate(grandparent, -t.nodes[id].weight, -1)
}

// replaceChild points parent at newChild where it used to point at oldChild.
// A parent of none means the root is being replaced.
func (t *Tree[E]) replaceChild(parent, oldChild, newChild int) {
	switch {
	case parent == none:
		t.root = newChild
	case t.nodes[parent].left == oldChild:
		t.nodes[parent].left = newChild
	default:
		t.nodes[parent].right = newChild
	}
}

// propagate applies the weight and leaf-count deltas to id and all of its
// ancestors.
func (t *Tree[E]) propagate(id int, weightDelta float64, leafDelta int) {
	for id != none {
		t.nodes[id].weight += weightDelta
		t.nodes[id].leaves += leafDelta
		id = t.nodes[id].parent
	}
}

func (t *Tree[E]) alloc(n node[E]) int {
	if k := len(t.free); k > 0 {
		id := t.free[k-1]
		t.free = t.free[:k-1]
		t.nodes[id] = n
		return id
	}
	t.nodes = append(t.nodes, n)
	return len(t.nodes) - 1
}

func (t *Tree[E]) release(id int) {
	var zero node[E]
	t.nodes[id] = zero
	t.free = append(t.free, id)
}

// Validate checks the structural invariants of the tree: relay weights and
// leaf counts equal the sums over their children, parent links are
// consistent, the index matches the leaf set one to one, every weight is
// finite and positive, and the total weight equals the sum of leaf weights.
func (t *Tree[E]) Validate() error {
	if t.root == none {
		if len(t.index) != 0 {
			return fmt.Errorf("empty tree indexes %d elements", len(t.index))
		}
		if t.totalWeight != 0 {
			return fmt.Errorf("empty tree has total weight %v", t.totalWeight)
		}
		return nil
	}
	if t.nodes[t.root].parent != none {
		return fmt.Errorf("root %d has parent %d", t.root, t.nodes[t.root].parent)
	}

	var leafSum float64
	seen := 0
	var walk func(id int) error
	walk = func(id int) error {
		n := &t.nodes[id]
		if math.IsNaN(n.weight) || math.IsInf(n.weight, 0) || n.weight <= 0 {
			return fmt.Errorf("node %d has invalid weight %v", id, n.weight)
		}
		if !n.relay {
			if n.leaves != 1 {
				return fmt.Errorf("leaf %d has leaf count %d", id, n.leaves)
			}
			if idx, ok := t.index[n.element]; !ok || idx != id {
				return fmt.Errorf("leaf %d holding %v is not indexed", id, n.element)
			}
			leafSum += n.weight
			seen++
			return nil
		}
		for _, child := range []int{n.left, n.right} {
			if child == none {
				return fmt.Errorf("relay %d is missing a child", id)
			}
			if t.nodes[child].parent != id {
				return fmt.Errorf("node %d has parent %d, want %d", child, t.nodes[child].parent, id)
			}
			if err := walk(child); err != nil {
				return err
			}
		}
		l, r := &t.nodes[n.left], &t.nodes[n.right]
		if n.leaves != l.leaves+r.leaves {
			return fmt.Errorf("relay %d has leaf count %d, children sum to %d", id, n.leaves, l.leaves+r.leaves)
		}
		if !closeEnough(n.weight, l.weight+r.weight) {
			return fmt.Errorf("relay %d has weight %v, children sum to %v", id, n.weight, l.weight+r.weight)
		}
		return nil
	}
	if err := walk(t.root); err != nil {
		return err
	}

	if seen != len(t.index) {
		return fmt.Errorf("tree has %d leaves but indexes %d elements", seen, len(t.index))
	}
	if t.nodes[t.root].leaves != len(t.index) {
		return fmt.Errorf("root leaf count %d, want %d", t.nodes[t.root].leaves, len(t.index))
	}
	if !closeEnough(t.totalWeight, leafSum) {
		return fmt.Errorf("total weight %v, leaves sum to %v", t.totalWeight, leafSum)
	}
	return nil
}

func closeEnough(a, b float64) bool {
	return math.Abs(a-b) <= 1e-9*math.Max(1, math.Max(math.Abs(a), math.Abs(b)))
}
