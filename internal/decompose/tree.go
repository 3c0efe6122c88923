// Copyright (c) 2025 Karl Gaissmaier
// SPDX-License-Identifier: MIT

// Package decompose flattens a compacted trie into the heavy-path
// decomposed label/branch/parenthesis streams consumed by the top-level
// query engine. It plugs into ctrie.Builder as a TreeBuilder: every time
// ctrie finishes a node it calls Node, and decompose folds that node into
// its heavy child's already-flattened subtree.
package decompose

import (
	"github.com/dimdew/pdtrie/internal/bitvec"
	"github.com/dimdew/pdtrie/internal/ctrie"
)

// Variant selects which child of a node is kept on the path (the "heavy"
// child) rather than flattened into a branch.
type Variant int

const (
	// Lex keeps the lexicographically first child on the path.
	Lex Variant = iota
	// Centroid keeps the child covering the most leaves on the path,
	// ties broken toward the first seen.
	Centroid
)

// SpecialCharFlag marks a label token as a branch-count marker rather
// than a plain path byte; see the high byte of a uint16 label token. The
// low byte carries n_branches-1, so a single branch point can hold at
// most 256 off-path siblings; Node panics past that (see maxBranches).
const SpecialCharFlag = 256

// DelimiterToken terminates every node's label slice. It carries its own
// high-byte flag (2) distinct from both a plain path byte (flag 0, which
// must be free to encode a genuine zero byte from a key) and a branch
// marker (flag 1); pdtrie's word-position scan relies on this token being
// unambiguous against both.
const DelimiterToken = 2 << 8

// maxBranches is the largest number of off-path siblings a single branch
// point can record: the marker token's low byte holds n_branches-1 in a
// single byte.
const maxBranches = 256

// Subtree is the flattened representation ctrie.Builder threads through
// the tree: the still-open decomposition path (reversed, flushed by
// appendTo) plus the already-closed labels/branches/bp streams of
// everything folded in so far.
type Subtree struct {
	decompositionPathLabel []uint16
	decompositionBranches  []byte

	Labels   []uint16
	Branches []byte
	BP       *bitvec.Builder

	NumLeaves int
}

func newSubtree() *Subtree {
	return &Subtree{NumLeaves: 1, BP: &bitvec.Builder{}}
}

// Size returns the number of leaves under this subtree, derived from the
// already-closed bp/branch streams (used to pick the heavy child under
// the Centroid variant without maintaining a separate leaf counter).
func (s *Subtree) Size() int {
	return (int(s.BP.Size()) + len(s.decompositionBranches) + 2) / 2
}

// appendTo folds s into parent as the next off-path child in DFUDS order:
// s contributes one "k ones + one zero" group to parent.BP (k = the
// number of branches s itself closed over), then its own branch and label
// bytes.
func (s *Subtree) appendTo(parent *Subtree) {
	parent.NumLeaves += s.NumLeaves

	if len(s.decompositionPathLabel) > 0 {
		for i := len(s.decompositionPathLabel) - 1; i >= 0; i-- {
			parent.Labels = append(parent.Labels, s.decompositionPathLabel[i])
		}
	}
	parent.Labels = append(parent.Labels, DelimiterToken)

	parent.BP.OneExtend(uint(len(s.decompositionBranches)))
	parent.BP.PushBack(false)

	for i := len(s.decompositionBranches) - 1; i >= 0; i-- {
		parent.Branches = append(parent.Branches, s.decompositionBranches[i])
	}

	parent.BP.Append(s.BP)
	s.BP = &bitvec.Builder{}

	parent.Branches = append(parent.Branches, s.Branches...)
	s.Branches = nil

	parent.Labels = append(parent.Labels, s.Labels...)
	s.Labels = nil
}

// TreeBuilder implements ctrie.TreeBuilder[*Subtree], heavy-path
// decomposing each compacted-trie node as ctrie finishes it.
type TreeBuilder struct {
	variant Variant
	root    *Subtree
}

// NewTreeBuilder returns a TreeBuilder using the given heavy-child rule.
func NewTreeBuilder(variant Variant) *TreeBuilder {
	return &TreeBuilder{variant: variant}
}

// Node implements ctrie.TreeBuilder.
func (tb *TreeBuilder) Node(children []ctrie.Child[*Subtree], buf []byte, offset, skip int) *Subtree {
	var ret *Subtree

	if len(children) > 0 {
		heavyIdx := 0
		if tb.variant == Centroid {
			heavySize := 0
			for i, c := range children {
				if i == 0 || c.Rep.Size() > heavySize {
					heavyIdx, heavySize = i, c.Rep.Size()
				}
			}
		}

		ret = children[heavyIdx].Rep
		nBranches := len(children) - 1
		if nBranches > maxBranches {
			panic("decompose: branch point exceeds maxBranches off-path siblings")
		}

		ret.decompositionPathLabel = append(ret.decompositionPathLabel,
			uint16(children[heavyIdx].Byte), uint16(SpecialCharFlag+nBranches-1))

		for i, c := range children {
			if i == heavyIdx {
				continue
			}
			ret.decompositionBranches = append(ret.decompositionBranches, c.Byte)
			c.Rep.appendTo(ret)
		}
	} else {
		ret = newSubtree()
	}

	for i := offset + skip - 1; i >= offset; i-- {
		ret.decompositionPathLabel = append(ret.decompositionPathLabel, uint16(buf[i]))
	}

	return ret
}

// Root implements ctrie.TreeBuilder: it wraps root in a fake-root node
// (a single leading 1-bit in bp) so DFUDS navigation always has a valid
// parent to climb to. Unlike newSubtree, the wrapper itself is not a
// trie leaf and so starts at NumLeaves 0, not 1.
func (tb *TreeBuilder) Root(root *Subtree) {
	wrapper := &Subtree{BP: &bitvec.Builder{}}
	wrapper.BP.PushBack(true)
	root.appendTo(wrapper)
	tb.root = wrapper
}

// Result returns the finished, wrapped root subtree. Valid only after the
// owning ctrie.Builder's Finish has run.
func (tb *TreeBuilder) Result() *Subtree {
	return tb.root
}
