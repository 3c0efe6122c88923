// Copyright (c) 2025 Karl Gaissmaier
// SPDX-License-Identifier: MIT

package pdtrie

import (
	"errors"

	"github.com/dimdew/pdtrie/internal/bitvec"
	"github.com/dimdew/pdtrie/internal/bp"
	"github.com/dimdew/pdtrie/internal/ctrie"
	"github.com/dimdew/pdtrie/internal/decompose"
)

// Variant selects the heavy-child rule used to decompose the trie into
// paths: Lex keeps the lexicographically first child on the path,
// Centroid keeps the child covering the most leaves.
type Variant = decompose.Variant

const (
	Lex      = decompose.Lex
	Centroid = decompose.Centroid
)

// ErrFinishedTwice, ErrUnsorted and ErrPrefixViolation surface the
// compacted-trie builder's contract violations; see internal/ctrie.
var (
	ErrFinishedTwice   = ctrie.ErrFinishedTwice
	ErrUnsorted        = ctrie.ErrUnsorted
	ErrPrefixViolation = ctrie.ErrPrefixViolation
)

// ErrNotBuilt is returned by Builder.Finish if no key was ever appended.
var ErrNotBuilt = errors.New("pdtrie: no keys were appended")

// Builder incrementally builds a Trie from a sorted, prefix-free stream of
// non-empty byte-string keys. The zero value is not usable; construct
// with NewBuilder. A Builder is consumed by Finish and must not be reused
// afterwards.
type Builder struct {
	tree *decompose.TreeBuilder
	ct   *ctrie.Builder[*decompose.Subtree]
	n    int
}

// NewBuilder returns a Builder that will decompose the trie using the
// given heavy-child Variant.
func NewBuilder(variant Variant) *Builder {
	tree := decompose.NewTreeBuilder(variant)
	return &Builder{
		tree: tree,
		ct:   ctrie.NewBuilder[*decompose.Subtree](tree),
	}
}

// Append adds the next key. Keys must be appended in strictly increasing
// lexicographic order and must be prefix-free; an empty key is silently
// ignored, matching the reference implementation.
func (b *Builder) Append(key []byte) error {
	if len(key) == 0 {
		return nil
	}
	if err := b.ct.Append(key); err != nil {
		return err
	}
	b.n++
	return nil
}

// Finish seals the builder and returns the finished, read-only Trie.
// Finish must not be called more than once.
func (b *Builder) Finish() (*Trie, error) {
	if err := b.ct.Finish(); err != nil {
		return nil, err
	}
	if b.n == 0 {
		return nil, ErrNotBuilt
	}
	return newTrie(b.tree.Result()), nil
}

// Trie is an immutable succinct path-decomposed trie over a sorted,
// prefix-free set of byte-string keys. It supports exact-match Index and
// its inverse, Access, each in O(|key|) time via O(1) rank/select and
// balanced-parentheses matching; it has no mutation API.
//
// A Trie is safe for any number of concurrent Index/Access calls once
// built; there is no synchronization needed because nothing about it
// changes after construction.
type Trie struct {
	labels        []uint16
	branches      []byte
	bp            *bp.Vector
	wordPositions []int
}

// newTrie wraps a finished, wrapped root Subtree (as produced by
// decompose.TreeBuilder.Root) into a query-ready Trie.
func newTrie(root *decompose.Subtree) *Trie {
	t := &Trie{
		labels:   root.Labels,
		branches: root.Branches,
	}
	bpVec := bitvec.FromBuilder(root.BP)
	t.bp = bp.NewVector(bpVec, bitvec.BuildOptions{WithSelect0Hints: true})
	t.wordPositions = computeWordPositions(t.labels)
	return t
}

// computeWordPositions scans labels once, recording the start of every
// node's label slice: position 0, then the index immediately following
// every DelimiterToken, the last of which also serves as the one-past-end
// sentinel used by Access's bounds check.
func computeWordPositions(labels []uint16) []int {
	wp := make([]int, 0, len(labels)/2+1)
	wp = append(wp, 0)
	for i, tok := range labels {
		if tok == decompose.DelimiterToken {
			wp = append(wp, i+1)
		}
	}
	return wp
}

// NumNodes returns the number of heavy paths (one per key) in the trie.
func (t *Trie) NumNodes() int {
	return len(t.wordPositions) - 1
}

// Size returns the number of keys stored in the trie. Every heavy path
// ends in exactly one key, so this equals NumNodes.
func (t *Trie) Size() int {
	return t.NumNodes()
}

// Labels returns the raw label token stream backing the trie. It is
// exposed for serialization and testing; callers must not mutate it.
func (t *Trie) Labels() []uint16 { return t.labels }

// Branches returns the raw off-path branch-byte stream. It is exposed for
// serialization and testing; callers must not mutate it.
func (t *Trie) Branches() []byte { return t.branches }

// BP returns the DFUDS-shaped balanced-parentheses tree shape. It is
// exposed for serialization and testing; callers must not mutate it.
func (t *Trie) BP() *bp.Vector { return t.bp }

// branchIdxByNode returns the absolute index in Branches of the last
// branch belonging to nodeIdx (branchEnd) and the total number of
// branches nodeIdx owns (num), per spec §4.6's
// get_branch_idx_by_node_idx.
func (t *Trie) branchIdxByNode(nodeIdx int) (branchEnd, num int) {
	bpIdx := t.bp.Select0(uint(nodeIdx))
	branchEnd = int(t.bp.Rank(bpIdx)) - 2
	if nodeIdx == 0 {
		num = branchEnd + 1
		return
	}
	num = int(bpIdx) - int(t.bp.Predecessor0(bpIdx-1)) - 1
	return
}

// nodeIdxByBranchIdx returns the node index of the child reached via the
// branch at branchBPIdx (a position in BP), per spec §4.6's
// get_node_idx_by_branch_idx.
func (t *Trie) nodeIdxByBranchIdx(branchBPIdx uint) int {
	closed := t.bp.FindClose(branchBPIdx)
	succ := t.bp.Successor0(closed + 1)
	return int(t.bp.Rank0(succ))
}

// parentNodeBranch returns the parent of nodeIdx, the single byte
// consumed on the edge from parent to nodeIdx, and that byte's absolute
// index in Branches, per spec §4.6's get_parent_node_branch. nodeIdx must
// not be 0 (the root has no parent).
func (t *Trie) parentNodeBranch(nodeIdx int) (parentIdx int, branchByte byte, branchIdx int) {
	nodeBP := t.bp.Select0(uint(nodeIdx))
	parentOpen := t.bp.FindOpen(t.bp.Predecessor0(nodeBP - 1))
	parentIdx = int(t.bp.Rank0(parentOpen))
	parentNodeBPEnd := t.bp.Successor0(parentOpen)
	branchIdx = int(t.bp.Rank(parentNodeBPEnd)) - 2 + int(parentOpen) + 1 - int(parentNodeBPEnd)
	return parentIdx, t.branches[branchIdx], branchIdx
}

// Index returns the node index of key if it is present in the trie, or
// -1 if it is not. The node index is stable across calls for a given
// built Trie and is the argument Access inverts.
func (t *Trie) Index(key []byte) int {
	curNode := 0
	i := 0

outer:
	for {
		labelCur := t.wordPositions[curNode]
		branchEnd, allBranchNum := t.branchIdxByNode(curNode)
		branchCursor := branchEnd + 1 - allBranchNum

		for {
			tok := int(t.labels[labelCur])

			switch {
			case tok == decompose.DelimiterToken:
				if i == len(key) {
					return curNode
				}
				return -1

			case i >= len(key):
				return -1

			case tok >= decompose.SpecialCharFlag:
				heavyByte := byte(t.labels[labelCur+1])
				localBranches := tok - decompose.SpecialCharFlag + 1

				if heavyByte == key[i] {
					branchCursor += localBranches
					i++
					labelCur += 2
					continue
				}

				matched := -1
				for j := branchCursor; j < branchCursor+localBranches; j++ {
					if t.branches[j] == key[i] {
						matched = j
						break
					}
				}
				if matched == -1 {
					return -1
				}
				i++
				childBP := t.bp.Select0(uint(curNode)) - uint(branchEnd+1-matched)
				curNode = t.nodeIdxByBranchIdx(childBP)
				continue outer

			default:
				if byte(tok) == key[i] {
					i++
					labelCur++
					continue
				}
				return -1
			}
		}
	}
}

// Access reconstructs the key at node index idx, the inverse of Index. It
// returns nil if idx is out of range.
//
// The leaf's own label slice contributes in full; every ancestor on the
// climb to the root contributes only the part of its path before the
// branch point the climb came through, plus the branch byte itself. The
// bytes are collected leaf-first and reversed at the end.
func (t *Trie) Access(idx int) []byte {
	if idx < 0 || idx+1 >= len(t.wordPositions) {
		return nil
	}

	out := t.appendPathReversed(nil, idx, -1)
	for cur := idx; cur != 0; {
		parent, branchByte, branchIdx := t.parentNodeBranch(cur)
		out = append(out, branchByte)
		out = t.appendPathReversed(out, parent, branchIdx)
		cur = parent
	}

	for l, r := 0, len(out)-1; l < r; l, r = l+1, r-1 {
		out[l], out[r] = out[r], out[l]
	}
	return out
}

// appendPathReversed appends node's path bytes to out in reverse. With
// stopBranch < 0 the whole label slice is consumed (markers contribute
// their heavy byte); otherwise consumption stops at the branch point
// whose local branch range covers the absolute Branches index stopBranch,
// i.e. the point at which the climb left this node.
func (t *Trie) appendPathReversed(out []byte, node, stopBranch int) []byte {
	branchEnd, num := t.branchIdxByNode(node)
	cursor := branchEnd + 1 - num

	var path []byte
	pos := t.wordPositions[node]
collect:
	for {
		tok := int(t.labels[pos])
		switch {
		case tok == decompose.DelimiterToken:
			break collect
		case tok >= decompose.SpecialCharFlag:
			local := tok - decompose.SpecialCharFlag + 1
			if stopBranch >= 0 && stopBranch < cursor+local {
				break collect
			}
			cursor += local
			path = append(path, byte(t.labels[pos+1]))
			pos += 2
		default:
			path = append(path, byte(tok))
			pos++
		}
	}

	for i := len(path) - 1; i >= 0; i-- {
		out = append(out, path[i])
	}
	return out
}
