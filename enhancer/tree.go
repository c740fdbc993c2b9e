package enhancer

// TreeAdapter exposes a node type to MapLeaves and CollectLeaves. WithLeaf and
// WithChildren must return new nodes and leave their argument untouched.
type TreeAdapter[N any] interface {
	// Children returns n's children in document order.
	Children(n N) []N

	// Leaf returns n's text when n is a translatable leaf.
	Leaf(n N) (string, bool)

	// Skip reports whether n's whole subtree is excluded.
	Skip(n N) bool

	// WithLeaf returns a copy of leaf n carrying text.
	WithLeaf(n N, text string) N

	// WithChildren returns a copy of n with children replaced.
	WithChildren(n N, children []N) N
}

// MapLeaves returns a tree in which every leaf text t is replaced by fn(t).
// Subtrees with no changed leaf are shared with the input, and the input is
// never modified.
func MapLeaves[N any](a TreeAdapter[N], root N, fn func(string) string) N {
	out, _ := mapNode(a, root, fn)
	return out
}

func mapNode[N any](a TreeAdapter[N], n N, fn func(string) string) (N, bool) {
	if a.Skip(n) {
		return n, false
	}

	if text, ok := a.Leaf(n); ok {
		replaced := fn(text)
		if replaced == text {
			return n, false
		}
		return a.WithLeaf(n, replaced), true
	}

	children := a.Children(n)
	if len(children) == 0 {
		return n, false
	}

	mapped := make([]N, len(children))
	changed := false
	for i, c := range children {
		m, ok := mapNode(a, c, fn)
		mapped[i] = m
		changed = changed || ok
	}
	if !changed {
		return n, false
	}
	return a.WithChildren(n, mapped), true
}

// CollectLeaves returns the text of every leaf MapLeaves would visit, in
// document order.
func CollectLeaves[N any](a TreeAdapter[N], root N) []string {
	var out []string
	var walk func(N)
	walk = func(n N) {
		if a.Skip(n) {
			return
		}
		if text, ok := a.Leaf(n); ok {
			out = append(out, text)
			return
		}
		for _, c := range a.Children(n) {
			walk(c)
		}
	}
	walk(root)
	return out
}
