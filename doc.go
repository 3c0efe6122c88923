// Copyright (c) 2025 Karl Gaissmaier
// SPDX-License-Identifier: MIT

// Package pdtrie implements a succinct path-decomposed trie: a compressed,
// read-only indexed string dictionary that stores a sorted set of byte
// strings in space close to the information-theoretic minimum while
// supporting two queries, Index(key) and Access(idx), its exact inverse.
//
// Internally the trie is built in two stages. A compacted trie is grown
// incrementally from a sorted, prefix-free stream of keys
// (internal/ctrie), one root-to-leaf path at a time. Each finished
// compacted-trie node is then folded into a heavy-path decomposition
// (internal/decompose): one distinguished "heavy" child continues the
// current path, every other child starts a new one. The result is three
// flat arrays — a label stream, an off-path branch-byte stream, and a
// DFUDS-shaped balanced-parentheses tree shape — that together encode the
// whole trie without ever materializing per-node pointers.
//
// Queries navigate the balanced-parentheses encoding via O(1) rank/select
// (internal/bitvec) and FindOpen/FindClose/excess matching
// (internal/bp), rather than walking object pointers, which is what makes
// the representation succinct: no node carries its own child pointers,
// only the flat bitmap does.
//
// A Trie is built once and is then immutable; Index and Access are safe
// for unlimited concurrent use. There is no support for mutation after
// construction, nor for prefix or range enumeration — only exact
// membership (Index) and its inverse (Access) are first-class.
package pdtrie
