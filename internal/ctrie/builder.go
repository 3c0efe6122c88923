// Copyright (c) 2025 Karl Gaissmaier
// SPDX-License-Identifier: MIT

// Package ctrie incrementally compacts a stream of sorted, prefix-free
// byte strings into a trie of path-compressed edges, without ever holding
// more than the current root-to-leaf path in memory. Each finished
// subtree is handed to a caller-supplied TreeBuilder, which is free to
// flatten it into whatever representation it needs (see decompose for the
// one used by this module).
package ctrie

import "errors"

// ErrFinishedTwice is returned when Append or Finish is called on a
// Builder that has already finished.
var ErrFinishedTwice = errors.New("ctrie: builder already finished")

// ErrUnsorted is returned by Append when bytes sorts before the previous
// key at their first differing byte. A duplicate of the previous key, or a
// prefix of it, is reported as ErrPrefixViolation instead.
var ErrUnsorted = errors.New("ctrie: keys must be appended in strictly increasing order")

// ErrPrefixViolation is returned by Append when bytes is a prefix of, or
// has the previous key as a prefix of, bytes.
var ErrPrefixViolation = errors.New("ctrie: keys must be prefix-free")

// Child pairs a branching byte with the representation of the subtree it
// leads to, as produced by TreeBuilder.Node.
type Child[R any] struct {
	Byte byte
	Rep  R
}

// TreeBuilder flattens a compacted-trie node into a caller-defined
// representation R as soon as the node is complete (i.e. no further keys
// can add children to it).
type TreeBuilder[R any] interface {
	// Node is called once per completed node, with its children in
	// left-to-right order, the most recently appended key (buf) as the
	// byte source for the node's own incoming edge label
	// buf[pathLen : pathLen+skip], and that slice's bounds.
	Node(children []Child[R], buf []byte, pathLen, skip int) R

	// Root is called exactly once, with the representation of the trie
	// root, after the final key has been processed.
	Root(root R)
}

type node[R any] struct {
	pathLen  int
	skip     int
	children []Child[R]
}

func (n *node[R]) end() int { return n.pathLen + n.skip }

// Builder holds the rightmost root-to-leaf path of a compacted trie under
// construction. The zero value is not usable; construct with NewBuilder.
type Builder[R any] struct {
	tree       TreeBuilder[R]
	nodeStack  []node[R]
	lastString []byte
	finished   bool
}

// NewBuilder returns a Builder that reports completed nodes to tree.
func NewBuilder[R any](tree TreeBuilder[R]) *Builder[R] {
	return &Builder[R]{tree: tree}
}

// Append adds the next key. Keys must be appended in strictly increasing
// lexicographic order and must be prefix-free; bytes must be non-empty.
func (b *Builder[R]) Append(bytes []byte) error {
	if b.finished {
		return ErrFinishedTwice
	}
	if len(bytes) == 0 {
		return nil
	}

	if len(b.nodeStack) == 0 {
		b.lastString = append([]byte(nil), bytes...)
		b.nodeStack = append(b.nodeStack, node[R]{pathLen: 0, skip: len(b.lastString)})
		return nil
	}

	minLen := len(bytes)
	if len(b.lastString) < minLen {
		minLen = len(b.lastString)
	}
	mismatch := 0
	for mismatch < minLen && bytes[mismatch] == b.lastString[mismatch] {
		mismatch++
	}
	if mismatch == len(bytes) || mismatch == len(b.lastString) {
		return ErrPrefixViolation
	}
	if bytes[mismatch] <= b.lastString[mismatch] {
		return ErrUnsorted
	}

	splitNodeIdx := 0
	for mismatch > b.nodeStack[splitNodeIdx].end() {
		splitNodeIdx++
	}
	splitNode := &b.nodeStack[splitNodeIdx]

	for idx := len(b.nodeStack) - 1; idx > splitNodeIdx; idx-- {
		child := b.nodeStack[idx]
		subtrie := b.tree.Node(child.children, b.lastString, child.pathLen, child.skip)
		branchByte := b.lastString[child.pathLen-1]
		b.nodeStack[idx-1].children = append(b.nodeStack[idx-1].children, Child[R]{Byte: branchByte, Rep: subtrie})
	}
	b.nodeStack = b.nodeStack[:splitNodeIdx+1]

	if mismatch < splitNode.pathLen+splitNode.skip {
		subtrie := b.tree.Node(splitNode.children, b.lastString, mismatch+1, splitNode.pathLen+splitNode.skip-mismatch-1)
		branchingChar := b.lastString[mismatch]
		splitNode.children = []Child[R]{{Byte: branchingChar, Rep: subtrie}}
		splitNode.skip = mismatch - splitNode.pathLen
	}

	b.nodeStack = append(b.nodeStack, node[R]{pathLen: mismatch + 1, skip: len(bytes) - mismatch - 1})
	b.lastString = append(b.lastString[:0], bytes...)
	return nil
}

// Finish flushes the remaining path and reports the root to the
// TreeBuilder. Append must not be called afterwards.
func (b *Builder[R]) Finish() error {
	if b.finished {
		return ErrFinishedTwice
	}
	b.finished = true
	if len(b.nodeStack) == 0 {
		return nil
	}

	for idx := len(b.nodeStack) - 1; idx > 0; idx-- {
		child := b.nodeStack[idx]
		subtrie := b.tree.Node(child.children, b.lastString, child.pathLen, child.skip)
		branchingChar := b.lastString[child.pathLen-1]
		b.nodeStack[idx-1].children = append(b.nodeStack[idx-1].children, Child[R]{Byte: branchingChar, Rep: subtrie})
	}

	root := b.tree.Node(b.nodeStack[0].children, b.lastString, b.nodeStack[0].pathLen, b.nodeStack[0].skip)
	b.tree.Root(root)
	b.nodeStack = nil
	return nil
}
