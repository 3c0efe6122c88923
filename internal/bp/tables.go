// Copyright (c) 2025 Karl Gaissmaier
// SPDX-License-Identifier: MIT

package bp

import "math/bits"

// excessTables precomputes, for every possible byte value, how far that
// byte can shift a running open/close excess and where the first crossing
// of each target happens. A bit set to 1 is an opening parenthesis and
// contributes +1; a clear bit is a closing parenthesis and contributes -1.
//
// fwdPos/fwdMin scan the byte low bit to high bit (position 0 first) and
// record the first bit, counting from 1, at which the running excess
// (starting at 0) reaches -e for e in 1..8; fwdMin is the largest such e
// reachable in the byte at all.
//
// bwdPos/bwdMin are the mirror image: they scan high bit to low bit and
// track a running excess that increases on an opening bit, recording the
// first bit reaching +e.
// fwdExc is the byte's net excess, and fwdMinIdx the first bit, counting
// from 1, at which fwdMin is achieved (0 when the running excess never
// drops below its entry value); both drive the byte-at-a-time minimum
// scan in ExcessRMQ.
type excessTables struct {
	fwdPos    [256][9]uint8
	bwdPos    [256][9]uint8
	fwdMin    [256]uint8
	bwdMin    [256]uint8
	fwdExc    [256]int8
	fwdMinIdx [256]uint8
}

var tables = buildExcessTables()

func buildExcessTables() *excessTables {
	var t excessTables
	for c := 0; c < 256; c++ {
		excess := 0
		for i := 0; i < 8; i++ {
			if (c>>uint(i))&1 != 0 {
				excess++
			} else {
				excess--
				if excess < 0 && t.fwdPos[c][-excess] == 0 {
					t.fwdPos[c][-excess] = uint8(i + 1)
				}
			}
			if -excess > int(t.fwdMin[c]) {
				t.fwdMin[c] = uint8(-excess)
				t.fwdMinIdx[c] = uint8(i + 1)
			}
		}
		t.fwdExc[c] = int8(excess)

		excess = 0
		for i := 0; i < 8; i++ {
			if (c<<uint(i))&128 != 0 {
				excess++
				if excess > 0 && t.bwdPos[c][excess] == 0 {
					t.bwdPos[c][excess] = uint8(i + 1)
				}
			} else {
				excess--
			}
			if excess > int(t.bwdMin[c]) {
				t.bwdMin[c] = uint8(excess)
			}
		}
	}
	return &t
}

// netExcess returns the net excess (opens minus closes) contributed by a
// single byte, independent of scan direction.
func netExcess(c byte) int32 {
	return int32(2*bits.OnesCount8(c)) - 8
}
