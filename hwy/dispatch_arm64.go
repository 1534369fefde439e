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

//go:build arm64

package hwy

import "golang.org/x/sys/cpu"

// NEON (ASIMD) is part of the ARMv8-A base architecture.
func baselineFeatures() Feature {
	return FeatureNEON
}

func detectArch() Feature {
	var f Feature
	// cpu.ARM64.HasASIMD is always true for ARMv8+; a false value leaves the
	// descriptor at scalar.
	if cpu.ARM64.HasASIMD {
		f |= FeatureNEON
	}
	if cpu.ARM64.HasFPHP && cpu.ARM64.HasASIMDHP {
		f |= FeatureFP16
	}
	if cpu.ARM64.HasASIMDDP {
		f |= FeatureDotProd
	}
	if cpu.ARM64.HasSVE {
		f |= FeatureSVE
	}
	if cpu.ARM64.HasSVE2 {
		f |= FeatureSVE2
	}
	// SME, BF16 and I8MM are read from OS-specific sources.
	return f | platformFeatures()
}
