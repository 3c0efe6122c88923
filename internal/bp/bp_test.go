// Copyright (c) 2025 Karl Gaissmaier
// SPDX-License-Identifier: MIT

package bp

import (
	"math/rand/v2"
	"testing"

	"github.com/dimdew/pdtrie/internal/bitvec"
)

func vectorFromParens(s string) *Vector {
	b := &bitvec.Builder{}
	for _, c := range s {
		b.PushBack(c == '(')
	}
	v := bitvec.FromBuilder(b)
	return NewVector(v, bitvec.BuildOptions{WithSelect0Hints: true})
}

// TestFindMatchHandComputed is a small, hand-verified nested balanced
// parenthesis sequence (the paper example's LEX BP shape from spec §8)
// with its full open/close matching table checked position by position.
func TestFindMatchHandComputed(t *testing.T) {
	v := vectorFromParens("(()((()()))())")
	match := map[uint]uint{
		0: 13, 13: 0,
		1: 2, 2: 1,
		3: 10, 10: 3,
		4: 9, 9: 4,
		5: 6, 6: 5,
		7: 8, 8: 7,
		11: 12, 12: 11,
	}
	for pos, want := range match {
		if v.Bit(pos) {
			if got := v.FindClose(pos); got != want {
				t.Errorf("FindClose(%d) = %d, want %d", pos, got, want)
			}
		} else if pos > 0 {
			if got := v.FindOpen(pos); got != want {
				t.Errorf("FindOpen(%d) = %d, want %d", pos, got, want)
			}
		}
	}
}

// TestFindOpenInWordSeeds pins the byte-table backward search against
// hand-computed words (spec §8's find-open byte-table scenarios).
func TestFindOpenInWordSeeds(t *testing.T) {
	tests := []struct {
		word   uint64
		excess excessT
		want   uint
	}{
		{0x0F53800000000000, 1, 47},
		{0x2974FFFFFFFFFFFF, 1, 45},
		{0x2974FFFFFFFFFFFF, 2, 44},
	}
	for _, tc := range tests {
		got, ok := findOpenInWord(tc.word, tc.excess)
		if !ok || got != tc.want {
			t.Errorf("findOpenInWord(%#x, %d) = %d,%v, want %d", tc.word, tc.excess, got, ok, tc.want)
		}
	}
}

func TestExcess(t *testing.T) {
	v := vectorFromParens("(()((()()))())")
	// excess(p) = 2*rank(p) - p.
	want := []int32{0, 1, 2, 1, 2, 3, 4, 3, 4, 3, 2, 1, 2, 1, 0}
	for p, w := range want {
		if got := v.Excess(uint(p)); got != w {
			t.Errorf("Excess(%d) = %d, want %d", p, got, w)
		}
	}
}

// generateBalanced returns a random balanced-parenthesis bit sequence of
// length n (n must be even): shuffle n/2 opens and n/2 closes, then
// rotate to the point of minimum prefix sum (cycle lemma), which is
// always a valid balanced rotation of any sequence with equal counts.
func generateBalanced(rng *rand.Rand, n int) []bool {
	bits := make([]bool, n)
	for i := 0; i < n/2; i++ {
		bits[i] = true
	}
	rng.Shuffle(n, func(i, j int) { bits[i], bits[j] = bits[j], bits[i] })

	sum, minSum, minIdx := 0, 0, 0
	for i, b := range bits {
		if b {
			sum++
		} else {
			sum--
		}
		if sum < minSum {
			minSum = sum
			minIdx = i + 1
		}
	}
	rotated := make([]bool, n)
	copy(rotated, bits[minIdx:])
	copy(rotated[n-minIdx:], bits[:minIdx])
	return rotated
}

func vectorFromBits(bits []bool) *Vector {
	b := &bitvec.Builder{}
	for _, bit := range bits {
		b.PushBack(bit)
	}
	v := bitvec.FromBuilder(b)
	return NewVector(v, bitvec.BuildOptions{WithSelect0Hints: true})
}

// TestFindMatchSymmetryRandom checks property (2) across random balanced
// sequences large enough to exercise the block and superblock min-excess
// tree escalation (bpBlockWords=4 words=256 bits, superblockSize=32
// blocks=8192 bits), not just the single-word fast path.
func TestFindMatchSymmetryRandom(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))
	sizes := []int{16, 256, 512, 8192, 8192 * 3, 20000}

	for _, n := range sizes {
		bits := generateBalanced(rng, n)
		v := vectorFromBits(bits)

		for p := uint(0); p < uint(n); p++ {
			if v.Bit(p) {
				if got := v.FindOpen(v.FindClose(p)); got != p {
					t.Fatalf("n=%d: FindOpen(FindClose(%d))=%d, want %d", n, p, got, p)
				}
			} else if p > 0 {
				if got := v.FindClose(v.FindOpen(p)); got != p {
					t.Fatalf("n=%d: FindClose(FindOpen(%d))=%d, want %d", n, p, got, p)
				}
			}
		}
	}
}

// TestExcessRMQRandom checks property (3): ExcessRMQ returns the
// leftmost minimal-excess index in [a, b), verified against a brute
// force scan. The size list reaches past one superblock (8192 bits) so
// the block and superblock-tree escalation paths run, not just the
// in-word scans.
func TestExcessRMQRandom(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 5))

	sizes := []int{64, 254, 1000, 4000, 8192, 8192*3 + 128, 40000}
	for trial := 0; trial < 30; trial++ {
		n := sizes[trial%len(sizes)] + 2*rng.IntN(32)
		if n%2 != 0 {
			n++
		}
		bits := generateBalanced(rng, n)
		v := vectorFromBits(bits)

		for attempt := 0; attempt < 40; attempt++ {
			a := uint(rng.IntN(n))
			b := a + 1 + uint(rng.IntN(n-int(a)))

			gotIdx, gotExc := v.ExcessRMQ(a, b)

			wantIdx, wantExc := a, v.Excess(a)
			for i := a + 1; i < b; i++ {
				if e := v.Excess(i); e < wantExc {
					wantExc, wantIdx = e, i
				}
			}
			if gotExc != wantExc || gotIdx != wantIdx {
				t.Fatalf("n=%d [%d,%d): ExcessRMQ = (%d,%d), want (%d,%d)", n, a, b, gotIdx, gotExc, wantIdx, wantExc)
			}
		}
	}
}

// TestBPStructuralCounts checks property (6) on the hand-built paper
// example: popcount(BP) = |BP|/2.
func TestBPStructuralCounts(t *testing.T) {
	v := vectorFromParens("(()((()()))())")
	if v.Size()%2 != 0 {
		t.Fatalf("|BP| = %d is not even", v.Size())
	}
	if got, want := v.NumOnes(), v.Size()/2; got != want {
		t.Errorf("popcount(BP) = %d, want %d", got, want)
	}
}
