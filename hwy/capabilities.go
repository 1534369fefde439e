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
	"math/bits"
	"runtime"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/ajroetker/go-highway-rt/internal/logging"
)

// Feature is a set of optional CPU instruction extensions.
type Feature uint32

const (
	FeatureSSE2 Feature = 1 << iota
	FeatureAVX2
	FeatureFMA
	FeatureAVX512
	FeatureAVX512BF16
	FeatureAVX512VNNI
	FeatureNEON
	FeatureSVE
	FeatureSVE2
	FeatureSME
	FeatureSME2

	// FeatureFP16 is native half-precision arithmetic (ARM FPHP+ASIMDHP).
	FeatureFP16
	// FeatureBF16 is bfloat16 dot product / conversion support.
	FeatureBF16
	// FeatureDotProd is the int8 dot product (ARM ASIMDDP, x86 VNNI).
	FeatureDotProd
	// FeatureI8MM is the int8 matrix-multiply extension.
	FeatureI8MM

	featureEnd
)

var featureNames = [...]string{
	"sse2", "avx2", "fma", "avx512", "avx512bf16", "avx512vnni",
	"neon", "sve", "sve2", "sme", "sme2",
	"fp16", "bf16", "dotprod", "i8mm",
}

// AllFeatures lists every single-bit feature in declaration order.
func AllFeatures() []Feature {
	fs := make([]Feature, 0, len(featureNames))
	for f := Feature(1); f < featureEnd; f <<= 1 {
		fs = append(fs, f)
	}
	return fs
}

// String returns the feature names joined by "|", or "none".
func (f Feature) String() string {
	if f == 0 {
		return "none"
	}
	var names []string
	for f != 0 {
		i := bits.TrailingZeros32(uint32(f))
		if i < len(featureNames) {
			names = append(names, featureNames[i])
		}
		f &^= 1 << i
	}
	return strings.Join(names, "|")
}

// ParseFeature maps a single feature name to its Feature bit.
func ParseFeature(name string) (Feature, bool) {
	for i, n := range featureNames {
		if n == name {
			return 1 << i, true
		}
	}
	return 0, false
}

// Capabilities is a snapshot of the instruction extensions usable on a host.
//
// The process-wide descriptor is computed once by GetCapabilities and passed
// by value afterwards. Synthetic descriptors for tests and tools are built
// with NewCapabilities.
type Capabilities struct {
	Arch     string
	Level    DispatchLevel
	Width    int // vector register width in bytes
	NumCPU   int
	Features Feature
}

// NewCapabilities builds a descriptor for arch with the given features, deriving
// the dispatch level and width from them.
func NewCapabilities(arch string, features Feature) Capabilities {
	c := Capabilities{
		Arch:     arch,
		NumCPU:   runtime.NumCPU(),
		Features: features,
	}
	c.Level = deriveLevel(features)
	c.Width = c.Level.width()
	return c
}

// Has reports whether every feature in f is present.
func (c Capabilities) Has(f Feature) bool {
	return c.Features&f == f
}

// With returns a copy of c with the given features added.
func (c Capabilities) With(f Feature) Capabilities {
	return NewCapabilities(c.Arch, c.Features|f).withCPUs(c.NumCPU)
}

// Without returns a copy of c with the given features removed.
func (c Capabilities) Without(f Feature) Capabilities {
	return NewCapabilities(c.Arch, c.Features&^f).withCPUs(c.NumCPU)
}

func (c Capabilities) withCPUs(n int) Capabilities {
	c.NumCPU = n
	return c
}

// Subsumes reports whether c offers every feature of other. A subsuming
// descriptor can run any kernel the weaker one can. Levels are derived from
// the features and are not compared.
func (c Capabilities) Subsumes(other Capabilities) bool {
	return c.Has(other.Features)
}

func (c Capabilities) String() string {
	return c.Arch + "/" + c.Level.String() + " [" + c.Features.String() + "]"
}

func deriveLevel(f Feature) DispatchLevel {
	switch {
	case f&FeatureSME != 0:
		return DispatchSME
	case f&FeatureSVE2 != 0:
		return DispatchSVE2
	case f&FeatureSVE != 0:
		return DispatchSVE
	case f&FeatureNEON != 0:
		return DispatchNEON
	case f&FeatureAVX512 != 0:
		return DispatchAVX512
	case f&(FeatureAVX2|FeatureFMA) == FeatureAVX2|FeatureFMA:
		return DispatchAVX2
	case f&FeatureSSE2 != 0:
		return DispatchSSE2
	default:
		return DispatchScalar
	}
}

// Baseline returns the safest descriptor for the running architecture: the
// extensions every CPU of the architecture is required to have.
func Baseline() Capabilities {
	return NewCapabilities(runtime.GOARCH, baselineFeatures())
}

// Scalar returns a descriptor with no SIMD extensions at all.
func Scalar() Capabilities {
	return NewCapabilities(runtime.GOARCH, 0)
}

var detectOnce = sync.OnceValue(detect)

// GetCapabilities returns the capabilities of the host CPU.
//
// Detection runs once, on first call; every later call returns the same
// descriptor. It is safe for concurrent use. Detection never fails: sources
// that cannot be read leave their features unset.
func GetCapabilities() Capabilities {
	return detectOnce()
}

func detect() Capabilities {
	log := logging.WithComponent("hwy")
	if NoSimdEnv() {
		log.Debug("HWY_NO_SIMD set, using scalar capabilities")
		return Scalar()
	}

	f := detectArch()
	if envFlag("HWY_NO_SVE") {
		f &^= FeatureSVE | FeatureSVE2
	}
	if envFlag("HWY_NO_SME") {
		f &^= FeatureSME | FeatureSME2
	}
	c := NewCapabilities(runtime.GOARCH, f)

	log.WithFields(logrus.Fields{
		"arch":     c.Arch,
		"level":    c.Level.String(),
		"width":    c.Width,
		"features": c.Features.String(),
	}).Debug("capabilities detected")
	return c
}
