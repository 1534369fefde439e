// Copyright 2025 go-highway Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package hwy

import (
	"os"
	"strconv"
)

// DispatchLevel represents the widest SIMD instruction set usable on the host.
//
// Levels are ordered within one architecture family: on x86-64
// Scalar < SSE2 < AVX2 < AVX512, on ARM64 Scalar < NEON < SVE < SVE2 < SME.
// Use AtLeast rather than comparing values directly, since an x86 level and an
// ARM level are not comparable.
type DispatchLevel int

const (
	// DispatchScalar indicates no SIMD, pure Go implementation.
	DispatchScalar DispatchLevel = iota

	// DispatchSSE2 indicates SSE2 instructions (x86-64 baseline).
	DispatchSSE2

	// DispatchAVX2 indicates AVX2 instructions (256-bit SIMD).
	DispatchAVX2

	// DispatchAVX512 indicates AVX-512 instructions (512-bit SIMD).
	DispatchAVX512

	// DispatchNEON indicates ARM NEON instructions (128-bit SIMD).
	DispatchNEON

	// DispatchSVE indicates ARM SVE instructions (scalable vector).
	DispatchSVE

	// DispatchSVE2 indicates ARM SVE2 instructions.
	DispatchSVE2

	// DispatchSME indicates ARM SME instructions (scalable matrix).
	// SME provides dedicated matrix multiplication hardware with ZA tile registers.
	DispatchSME
)

// Family groups dispatch levels that can be compared with each other.
type Family int

const (
	FamilyNone Family = iota
	FamilyX86
	FamilyARM
)

// String returns a human-readable name for the dispatch level.
func (d DispatchLevel) String() string {
	switch d {
	case DispatchScalar:
		return "scalar"
	case DispatchSSE2:
		return "sse2"
	case DispatchAVX2:
		return "avx2"
	case DispatchAVX512:
		return "avx512"
	case DispatchNEON:
		return "neon"
	case DispatchSVE:
		return "sve"
	case DispatchSVE2:
		return "sve2"
	case DispatchSME:
		return "sme"
	default:
		return "unknown"
	}
}

// Family returns the architecture family of the level. Scalar belongs to no
// family and is below every other level.
func (d DispatchLevel) Family() Family {
	switch d {
	case DispatchSSE2, DispatchAVX2, DispatchAVX512:
		return FamilyX86
	case DispatchNEON, DispatchSVE, DispatchSVE2, DispatchSME:
		return FamilyARM
	default:
		return FamilyNone
	}
}

// AtLeast reports whether d provides every instruction set implied by min.
// Levels of different families never satisfy each other, except that every
// level satisfies DispatchScalar.
func (d DispatchLevel) AtLeast(min DispatchLevel) bool {
	if min == DispatchScalar {
		return true
	}
	if d.Family() != min.Family() {
		return false
	}
	return d >= min
}

// ParseDispatchLevel is the inverse of DispatchLevel.String.
func ParseDispatchLevel(s string) (DispatchLevel, bool) {
	for l := DispatchScalar; l <= DispatchSME; l++ {
		if l.String() == s {
			return l, true
		}
	}
	return DispatchScalar, false
}

// width returns the vector register width in bytes implied by the level.
// SVE widths are implementation defined; 16 bytes is the architectural minimum.
func (d DispatchLevel) width() int {
	switch d {
	case DispatchAVX2:
		return 32
	case DispatchAVX512:
		return 64
	case DispatchSME:
		return 64 // streaming vector length on Apple M4
	default:
		return 16
	}
}

// NoSimdEnv checks if the HWY_NO_SIMD environment variable is set.
// When set, capability detection reports the baseline descriptor regardless
// of CPU capabilities. This is useful for testing and debugging.
func NoSimdEnv() bool {
	return envFlag("HWY_NO_SIMD")
}

// envFlag treats any non-empty value as true, except values strconv.ParseBool
// reads as false.
func envFlag(name string) bool {
	val := os.Getenv(name)
	if val == "" {
		return false
	}
	if b, err := strconv.ParseBool(val); err == nil {
		return b
	}
	return true
}
