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

//go:build amd64

package hwy

import "golang.org/x/sys/cpu"

// SSE2 is part of the x86-64 base architecture.
func baselineFeatures() Feature {
	return FeatureSSE2
}

func detectArch() Feature {
	f := FeatureSSE2
	if cpu.X86.HasAVX2 {
		f |= FeatureAVX2
	}
	if cpu.X86.HasFMA {
		f |= FeatureFMA
	}
	if cpu.X86.HasAVX512F {
		f |= FeatureAVX512
	}
	// AVX-512 BF16: bfloat16 dot products (Cooper Lake+, Zen 4+)
	if cpu.X86.HasAVX512F && cpu.X86.HasAVX512BF16 {
		f |= FeatureAVX512BF16 | FeatureBF16
	}
	// AVX-512 VNNI: int8 dot products (Cascade Lake+)
	if cpu.X86.HasAVX512F && cpu.X86.HasAVX512VNNI {
		f |= FeatureAVX512VNNI | FeatureDotProd
	}
	// AVX-512 FP16 is not yet exposed by x/sys/cpu, so FeatureFP16 stays unset.
	return f
}
