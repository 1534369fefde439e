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

import "strings"

// DataType tags the element type of a tensor operand. Kernel descriptors are
// registered per data type.
type DataType int

const (
	DataTypeUnknown DataType = iota
	F32
	F16
	BF16
	F64
	S32
	S16
	S8
	U8
	// QASYMM8 is an asymmetric quantized unsigned 8-bit type.
	QASYMM8
	// QASYMM8Signed is an asymmetric quantized signed 8-bit type.
	QASYMM8Signed
)

var dataTypeNames = [...]string{
	DataTypeUnknown: "unknown",
	F32:             "f32",
	F16:             "f16",
	BF16:            "bf16",
	F64:             "f64",
	S32:             "s32",
	S16:             "s16",
	S8:              "s8",
	U8:              "u8",
	QASYMM8:         "qasymm8",
	QASYMM8Signed:   "qasymm8_signed",
}

var dataTypeSizes = [...]int{
	F32:           4,
	F16:           2,
	BF16:          2,
	F64:           8,
	S32:           4,
	S16:           2,
	S8:            1,
	U8:            1,
	QASYMM8:       1,
	QASYMM8Signed: 1,
}

func (d DataType) String() string {
	if d < 0 || int(d) >= len(dataTypeNames) {
		return "unknown"
	}
	return dataTypeNames[d]
}

// Size returns the element size in bytes, or 0 for DataTypeUnknown.
func (d DataType) Size() int {
	if d < 0 || int(d) >= len(dataTypeSizes) {
		return 0
	}
	return dataTypeSizes[d]
}

// IsFloat reports whether d is a floating-point type.
func (d DataType) IsFloat() bool {
	switch d {
	case F32, F16, BF16, F64:
		return true
	}
	return false
}

// IsQuantized reports whether d is an asymmetric quantized type.
func (d DataType) IsQuantized() bool {
	return d == QASYMM8 || d == QASYMM8Signed
}

// ParseDataType maps a name as returned by String back to its DataType.
// Matching ignores case; "float32" style aliases are accepted for floats.
func ParseDataType(s string) (DataType, bool) {
	s = strings.ToLower(s)
	switch s {
	case "float32":
		return F32, true
	case "float16":
		return F16, true
	case "bfloat16":
		return BF16, true
	case "float64":
		return F64, true
	case "int32":
		return S32, true
	}
	for i, n := range dataTypeNames {
		if i != int(DataTypeUnknown) && n == s {
			return DataType(i), true
		}
	}
	return DataTypeUnknown, false
}

// AllDataTypes lists every known data type.
func AllDataTypes() []DataType {
	return []DataType{F32, F16, BF16, F64, S32, S16, S8, U8, QASYMM8, QASYMM8Signed}
}
