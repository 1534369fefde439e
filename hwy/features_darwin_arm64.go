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

//go:build darwin && arm64

package hwy

import "golang.org/x/sys/unix"

var darwinFeatureSysctls = []struct {
	name string
	f    Feature
}{
	{"hw.optional.arm.FEAT_FP16", FeatureFP16},
	{"hw.optional.arm.FEAT_DotProd", FeatureDotProd},
	{"hw.optional.arm.FEAT_BF16", FeatureBF16}, // Apple M2+
	{"hw.optional.arm.FEAT_I8MM", FeatureI8MM}, // Apple M2+
	{"hw.optional.arm.FEAT_SME", FeatureSME},   // Apple M4+
	{"hw.optional.arm.FEAT_SME2", FeatureSME2}, // Apple M4+
}

// platformFeatures queries sysctl for each optional feature. Missing keys
// (older macOS releases) read as absent.
func platformFeatures() Feature {
	var f Feature
	for _, s := range darwinFeatureSysctls {
		if sysctlEnabled(s.name) {
			f |= s.f
		}
	}
	return f
}

func sysctlEnabled(name string) bool {
	val, err := unix.SysctlUint32(name)
	return err == nil && val == 1
}
