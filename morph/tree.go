package morph

import (
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrMalformedTree reports a node whose child slots do not match the part
// indices of its shape.
var ErrMalformedTree = errors.New("morph: malformed decomposition tree")

// Node is one question position in the decomposition tree. Child slot i is
// explored with Part(word, i) of the node's answer; a nil slot is never
// explored. Nodes are immutable once built.
type Node struct {
	kind     Kind
	children []*Node
}

// NewNode builds a node asking k, with the given child slots (nil for an
// absent slot). The slice is copied.
func NewNode(k Kind, children ...*Node) *Node {
	return &Node{kind: k, children: append([]*Node(nil), children...)}
}

// Kind is the shape asked at this node.
func (n *Node) Kind() Kind { return n.kind }

// Len is the number of child slots, absent ones included.
func (n *Node) Len() int { return len(n.children) }

// Child returns the node in slot i, or nil when the slot is absent.
func (n *Node) Child(i int) *Node { return n.children[i] }

// Height counts the edges on the longest root-to-leaf path. A walk started
// at depth 0 never goes deeper than the root's height.
func (n *Node) Height() int {
	h := 0
	for _, c := range n.children {
		if c == nil {
			continue
		}
		if ch := c.Height() + 1; ch > h {
			h = ch
		}
	}
	return h
}

var tree = NewNode(KindPrefixedAnalyticalWord,
	nil,
	NewNode(KindSuffixedPronoun,
		NewNode(KindCompleteForm,
			NewNode(KindPrefixedSuffixedMorpheme,
				NewNode(KindMorphemeType),
				NewNode(KindMorphemeType),
				NewNode(KindMorphemeType),
			),
		),
		NewNode(KindCompleteForm),
	),
)

// Tree returns the shared decomposition tree:
//
//	PrefixedAnalyticalWord
//	├── [0] absent
//	└── [1] SuffixedPronoun
//	        ├── [0] CompleteForm
//	        │       └── [0] PrefixedSuffixedMorpheme
//	        │               ├── [0] MorphemeType
//	        │               ├── [1] MorphemeType
//	        │               └── [2] MorphemeType
//	        └── [1] CompleteForm
func Tree() *Node { return tree }

// Validate checks that every child slot has a matching part index and that
// the word list shape does not appear in the tree.
func Validate(root *Node) error {
	if root == nil {
		return fmt.Errorf("%w: nil root", ErrMalformedTree)
	}
	if root.kind == KindListWords {
		return fmt.Errorf("%w: %s cannot be a tree node", ErrMalformedTree, root.kind)
	}
	if _, ok := kindTable[root.kind]; !ok {
		return fmt.Errorf("%w: unknown kind %d", ErrMalformedTree, int(root.kind))
	}
	for i, c := range root.children {
		if !root.kind.AcceptsPart(i) {
			return fmt.Errorf("%w: %s has no part %d", ErrMalformedTree, root.kind, i)
		}
		if c == nil {
			continue
		}
		if err := Validate(c); err != nil {
			return err
		}
	}
	return nil
}

// Print writes an indented outline of the tree.
func Print(w io.Writer, root *Node) error {
	return printNode(w, root, 0, -1)
}

func printNode(w io.Writer, n *Node, depth, slot int) error {
	label := "absent"
	if n != nil {
		label = n.kind.String()
	}
	prefix := strings.Repeat("    ", depth)
	if slot >= 0 {
		prefix += fmt.Sprintf("[%d] ", slot)
	}
	if _, err := fmt.Fprintln(w, prefix+label); err != nil {
		return err
	}
	if n == nil {
		return nil
	}
	for i, c := range n.children {
		if err := printNode(w, c, depth+1, i); err != nil {
			return err
		}
	}
	return nil
}
