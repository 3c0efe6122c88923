// Copyright (c) 2025 Karl Gaissmaier
// SPDX-License-Identifier: MIT

// Package bitvec implements a growable, word-packed bit sequence and its
// O(1) rank/select index.
//
// The word layout mirrors the teacher's fixed-size internal/bitset package
// (bit i lives in word i/64 at position i%64, LSB first), generalized from
// a 256-bit set to an arbitrary, growable length, as required by the
// append-only construction of a trie whose size is not known up front.
package bitvec

import "math/bits"

const wordSize = 64

// wordsFor returns the number of 64-bit words needed to hold n bits.
func wordsFor(n uint) int {
	return int(n+wordSize-1) / wordSize
}

// Builder accumulates bits append-only (plus a handful of random-access
// writers into the already-sized prefix) and is later sealed into a
// read-only Vector via Steal.
//
// The zero value is an empty, ready to use Builder.
type Builder struct {
	words []uint64
	size  uint
}

// NewBuilder returns a Builder pre-sized to n bits, all zero, or all one if
// set is true.
func NewBuilder(n uint, set bool) *Builder {
	b := &Builder{words: make([]uint64, wordsFor(n)), size: n}
	if set {
		for i := range b.words {
			b.words[i] = ^uint64(0)
		}
		if rem := n % wordSize; rem != 0 && len(b.words) > 0 {
			b.words[len(b.words)-1] >>= wordSize - rem
		}
	}
	return b
}

// Reserve grows the backing array's capacity to hold n bits without
// changing Size.
func (b *Builder) Reserve(n uint) {
	if need := wordsFor(n); need > cap(b.words) {
		words := make([]uint64, len(b.words), need)
		copy(words, b.words)
		b.words = words
	}
}

// Size returns the number of bits appended so far.
func (b *Builder) Size() uint {
	return b.size
}

// PushBack appends a single bit.
func (b *Builder) PushBack(bit bool) {
	posInWord := b.size % wordSize
	if posInWord == 0 {
		b.words = append(b.words, 0)
	}
	if bit {
		b.words[len(b.words)-1] |= uint64(1) << posInWord
	}
	b.size++
}

// Set overwrites the bit at pos, which must already be within Size.
func (b *Builder) Set(pos uint, bit bool) {
	word := pos / wordSize
	shift := pos % wordSize
	b.words[word] &^= uint64(1) << shift
	if bit {
		b.words[word] |= uint64(1) << shift
	}
}

// SetBits overwrites length bits (length <= 64) starting at pos, which must
// already be within Size. bits must carry no set bit above length.
func (b *Builder) SetBits(pos uint, value uint64, length uint) {
	if length == 0 {
		return
	}
	mask := mask64(length)
	word := pos / wordSize
	shift := pos % wordSize

	b.words[word] &^= mask << shift
	b.words[word] |= value << shift

	stored := wordSize - shift
	if stored < length {
		b.words[word+1] &^= mask >> stored
		b.words[word+1] |= value >> stored
	}
}

// AppendBits appends the low length bits of value (length <= 64).
func (b *Builder) AppendBits(value uint64, length uint) {
	if length == 0 {
		return
	}
	posInWord := b.size % wordSize
	b.size += length
	if posInWord == 0 {
		b.words = append(b.words, value)
		return
	}
	b.words[len(b.words)-1] |= value << posInWord
	if length > wordSize-posInWord {
		b.words = append(b.words, value>>(wordSize-posInWord))
	}
}

// ZeroExtend appends n zero bits.
func (b *Builder) ZeroExtend(n uint) {
	b.size += n
	if need := wordsFor(b.size) - len(b.words); need > 0 {
		b.words = append(b.words, make([]uint64, need)...)
	}
}

// OneExtend appends n one bits.
func (b *Builder) OneExtend(n uint) {
	for n >= wordSize {
		b.AppendBits(^uint64(0), wordSize)
		n -= wordSize
	}
	if n > 0 {
		b.AppendBits(^uint64(0)>>(wordSize-n), n)
	}
}

// Append concatenates rhs onto b, handling the case where b's current size
// is not word-aligned.
func (b *Builder) Append(rhs *Builder) {
	if rhs.size == 0 {
		return
	}
	pos := len(b.words)
	shift := b.size % wordSize
	b.size += rhs.size
	if need := wordsFor(b.size) - len(b.words); need > 0 {
		b.words = append(b.words, make([]uint64, need)...)
	}

	if shift == 0 {
		copy(b.words[pos:], rhs.words)
		return
	}

	cur := pos - 1
	for i := 0; i < len(rhs.words)-1; i++ {
		w := rhs.words[i]
		b.words[cur] |= w << shift
		cur++
		b.words[cur] = w >> (wordSize - shift)
	}
	last := rhs.words[len(rhs.words)-1]
	b.words[cur] |= last << shift
	if cur < len(b.words)-1 {
		cur++
		b.words[cur] = last >> (wordSize - shift)
	}
}

// Reverse reverses the bit order of the whole vector in place.
func (b *Builder) Reverse() {
	shift := wordSize - (b.size % wordSize)

	var remainder uint64
	for i := range b.words {
		var cur uint64
		if shift != wordSize {
			cur = remainder | (b.words[i] << shift)
			remainder = b.words[i] >> (wordSize - shift)
		} else {
			cur = b.words[i]
		}
		b.words[i] = reverseBits(cur)
	}
	for i, j := 0, len(b.words)-1; i < j; i, j = i+1, j-1 {
		b.words[i], b.words[j] = b.words[j], b.words[i]
	}
}

// Steal transfers ownership of the packed word array to the caller and
// resets b to empty, mirroring the source's move_bits/steal primitive.
func (b *Builder) Steal() (words []uint64, size uint) {
	words, size = b.words, b.size
	b.words, b.size = nil, 0
	return words, size
}

func mask64(length uint) uint64 {
	if length == wordSize {
		return ^uint64(0)
	}
	return (uint64(1) << length) - 1
}

func reverseBits(n uint64) uint64 {
	return bits.Reverse64(n)
}
