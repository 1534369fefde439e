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

// Package hwy describes the host a kernel runs on and the element types it
// operates on.
//
// GetCapabilities probes the CPU once per process and returns an immutable
// Capabilities value: the architecture, the widest usable dispatch level and
// the set of optional instruction extensions. Probing never fails; when the
// operating system hides CPU information the result degrades to the
// architecture baseline.
//
// Basic usage:
//
//	caps := hwy.GetCapabilities()
//	if caps.Has(hwy.FeatureSVE | hwy.FeatureBF16) {
//		// use the SVE bf16 path
//	}
//
// The environment variables HWY_NO_SIMD, HWY_NO_SVE and HWY_NO_SME mask
// features at probe time, which is useful for exercising fallback kernels.
package hwy

// Floats is a constraint for floating-point types.
type Floats interface {
	~float32 | ~float64
}

// SignedInts is a constraint for signed integer types.
type SignedInts interface {
	~int8 | ~int16 | ~int32 | ~int64
}

// UnsignedInts is a constraint for unsigned integer types.
type UnsignedInts interface {
	~uint8 | ~uint16 | ~uint32 | ~uint64
}

// Integers is a constraint for all integer types.
type Integers interface {
	SignedInts | UnsignedInts
}

// Lanes is a constraint for all types that can be stored in SIMD lanes.
type Lanes interface {
	Floats | Integers
}

// DataTypeOf returns the DataType tag of T, or DataTypeUnknown when T has no
// tensor data type (int64, uint16, ...).
func DataTypeOf[T Lanes]() DataType {
	var zero T
	switch any(zero).(type) {
	case float32:
		return F32
	case float64:
		return F64
	case int32:
		return S32
	case int16:
		return S16
	case int8:
		return S8
	case uint8:
		return U8
	}
	return DataTypeUnknown
}
