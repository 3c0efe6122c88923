// Copyright (c) 2025 Karl Gaissmaier
// SPDX-License-Identifier: MIT

package pdtrie

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/dimdew/pdtrie/internal/bitvec"
	"github.com/dimdew/pdtrie/internal/bp"
)

// WriteTo writes t in the four-section wire layout described in spec §6:
// the label stream, the branch-byte stream, the raw BP words, and the
// word-position table, each length-prefixed with a little-endian uint64.
// It implements io.WriterTo.
func (t *Trie) WriteTo(w io.Writer) (int64, error) {
	var written int64

	n, err := writeLenPrefixedU16s(w, t.labels)
	written += n
	if err != nil {
		return written, err
	}

	n, err = writeLenPrefixedBytes(w, t.branches)
	written += n
	if err != nil {
		return written, err
	}

	n, err = writeBP(w, t.bp)
	written += n
	if err != nil {
		return written, err
	}

	n, err = writeLenPrefixedInts(w, t.wordPositions)
	written += n
	if err != nil {
		return written, err
	}

	return written, nil
}

// ReadTrie reads a Trie previously written by WriteTo. The returned Trie
// rebuilds its rank/select and balanced-parentheses indices with
// select0_hints enabled and select_hints disabled, matching spec §6.
func ReadTrie(r io.Reader) (*Trie, error) {
	labels, err := readLenPrefixedU16s(r)
	if err != nil {
		return nil, fmt.Errorf("pdtrie: reading labels: %w", err)
	}

	branches, err := readLenPrefixedBytes(r)
	if err != nil {
		return nil, fmt.Errorf("pdtrie: reading branches: %w", err)
	}

	bpVec, err := readBP(r)
	if err != nil {
		return nil, fmt.Errorf("pdtrie: reading bp: %w", err)
	}

	wordPositions, err := readLenPrefixedInts(r)
	if err != nil {
		return nil, fmt.Errorf("pdtrie: reading word positions: %w", err)
	}

	return &Trie{
		labels:        labels,
		branches:      branches,
		bp:            bpVec,
		wordPositions: wordPositions,
	}, nil
}

func writeLenPrefixedU16s(w io.Writer, v []uint16) (int64, error) {
	if err := binary.Write(w, binary.LittleEndian, uint64(len(v))); err != nil {
		return 0, err
	}
	n := int64(8)
	if err := binary.Write(w, binary.LittleEndian, v); err != nil {
		return n, err
	}
	return n + int64(len(v))*2, nil
}

func readLenPrefixedU16s(r io.Reader) ([]uint16, error) {
	var n uint64
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return nil, err
	}
	v := make([]uint16, n)
	if n > 0 {
		if err := binary.Read(r, binary.LittleEndian, v); err != nil {
			return nil, err
		}
	}
	return v, nil
}

func writeLenPrefixedBytes(w io.Writer, b []byte) (int64, error) {
	if err := binary.Write(w, binary.LittleEndian, uint64(len(b))); err != nil {
		return 0, err
	}
	n := int64(8)
	if len(b) == 0 {
		return n, nil
	}
	written, err := w.Write(b)
	return n + int64(written), err
}

func readLenPrefixedBytes(r io.Reader) ([]byte, error) {
	var n uint64
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return nil, err
	}
	b := make([]byte, n)
	if n > 0 {
		if _, err := io.ReadFull(r, b); err != nil {
			return nil, err
		}
	}
	return b, nil
}

func writeLenPrefixedInts(w io.Writer, v []int) (int64, error) {
	u := make([]uint64, len(v))
	for i, x := range v {
		u[i] = uint64(x)
	}
	if err := binary.Write(w, binary.LittleEndian, uint64(len(u))); err != nil {
		return 0, err
	}
	n := int64(8)
	if len(u) == 0 {
		return n, nil
	}
	if err := binary.Write(w, binary.LittleEndian, u); err != nil {
		return n, err
	}
	return n + int64(len(u))*8, nil
}

func readLenPrefixedInts(r io.Reader) ([]int, error) {
	var n uint64
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return nil, err
	}
	u := make([]uint64, n)
	if n > 0 {
		if err := binary.Read(r, binary.LittleEndian, u); err != nil {
			return nil, err
		}
	}
	v := make([]int, n)
	for i, x := range u {
		v[i] = int(x)
	}
	return v, nil
}

func writeBP(w io.Writer, v *bp.Vector) (int64, error) {
	size := uint64(v.Size())
	numWords := uint64(v.NumWords())

	if err := binary.Write(w, binary.LittleEndian, size); err != nil {
		return 0, err
	}
	if err := binary.Write(w, binary.LittleEndian, numWords); err != nil {
		return 8, err
	}
	n := int64(16)

	words := make([]uint64, numWords)
	for i := range words {
		words[i] = v.RawWord(uint(i))
	}
	if numWords > 0 {
		if err := binary.Write(w, binary.LittleEndian, words); err != nil {
			return n, err
		}
	}
	return n + int64(numWords)*8, nil
}

func readBP(r io.Reader) (*bp.Vector, error) {
	var size, numWords uint64
	if err := binary.Read(r, binary.LittleEndian, &size); err != nil {
		return nil, err
	}
	if err := binary.Read(r, binary.LittleEndian, &numWords); err != nil {
		return nil, err
	}
	words := make([]uint64, numWords)
	if numWords > 0 {
		if err := binary.Read(r, binary.LittleEndian, words); err != nil {
			return nil, err
		}
	}
	vec := bitvec.NewVector(words, uint(size))
	return bp.NewVector(vec, bitvec.BuildOptions{WithSelect0Hints: true}), nil
}
