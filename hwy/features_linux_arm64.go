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

//go:build linux && arm64

package hwy

import "github.com/ajroetker/go-highway-rt/internal/logging"

const procCPUInfo = "/proc/cpuinfo"

// platformFeatures reads the kernel's hwcap listing. A restricted sandbox
// without /proc only loses the features x/sys/cpu does not report.
func platformFeatures() Feature {
	f, err := readCPUInfoFeatures(procCPUInfo)
	if err != nil {
		logging.WithComponent("hwy").WithError(err).Debug("cpuinfo unavailable")
		return 0
	}
	return f
}
