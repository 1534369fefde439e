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
	"bufio"
	"errors"
	"io"
	"os"
	"strings"
)

var errNoFeaturesLine = errors.New("hwy: no Features line in cpuinfo")

// cpuinfoFlags maps Linux arm64 hwcap names to features.
var cpuinfoFlags = map[string]Feature{
	"asimd":   FeatureNEON,
	"asimdhp": FeatureFP16,
	"asimddp": FeatureDotProd,
	"sve":     FeatureSVE,
	"sve2":    FeatureSVE2,
	"i8mm":    FeatureI8MM,
	"bf16":    FeatureBF16,
	"sme":     FeatureSME,
	"sme2":    FeatureSME2,
}

// parseCPUInfoFeatures reads the first "Features" line of a /proc/cpuinfo
// listing. All cores of a system report the same flags.
func parseCPUInfoFeatures(r io.Reader) (Feature, error) {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		key, value, ok := strings.Cut(sc.Text(), ":")
		if !ok || strings.TrimSpace(key) != "Features" {
			continue
		}
		var f Feature
		for _, flag := range strings.Fields(value) {
			f |= cpuinfoFlags[flag]
		}
		return f, nil
	}
	if err := sc.Err(); err != nil {
		return 0, err
	}
	return 0, errNoFeaturesLine
}

func readCPUInfoFeatures(path string) (Feature, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer file.Close()
	return parseCPUInfoFeatures(file)
}
