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

package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestInitLevel(t *testing.T) {
	if err := Init("debug", "", false); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if got := Get().GetLevel(); got != logrus.DebugLevel {
		t.Errorf("level = %v, want debug", got)
	}

	if err := Init("not-a-level", "", false); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if got := Get().GetLevel(); got != logrus.InfoLevel {
		t.Errorf("level = %v, want info fallback", got)
	}
}

func TestInitFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "hwy.log")
	if err := Init("info", path, false); err != nil {
		t.Fatalf("Init: %v", err)
	}
	WithComponent("test").Info("hello")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !strings.Contains(string(data), "component=test") {
		t.Errorf("log file missing component field: %q", data)
	}
}

func TestSetOutput(t *testing.T) {
	if err := Init("debug", "", false); err != nil {
		t.Fatalf("Init: %v", err)
	}
	var buf bytes.Buffer
	SetOutput(&buf)
	Debugf("value=%d", 42)
	if !strings.Contains(buf.String(), "value=42") {
		t.Errorf("output = %q, want value=42", buf.String())
	}
}

func TestGetConcurrentWithInit(t *testing.T) {
	if Get() == nil {
		t.Fatal("Get() = nil before Init")
	}
	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 200 {
				if i == 0 {
					if err := Init("warn", "", false); err != nil {
						t.Errorf("Init: %v", err)
						return
					}
					continue
				}
				if Get() == nil {
					t.Error("Get() = nil during Init")
					return
				}
				WithComponent("test").Debug("quiet")
			}
		}()
	}
	wg.Wait()
	if got := Get().GetLevel(); got != logrus.WarnLevel {
		t.Errorf("level = %v, want warn", got)
	}
}
