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

// Package logging owns the process-wide logrus logger used by the runtime.
//
// The logger starts at warn level writing to stderr, so the dispatch and
// scheduling hot paths stay quiet unless a binary calls Init with a more
// verbose level.
package logging

import (
	"io"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/sirupsen/logrus"
)

var log atomic.Pointer[logrus.Logger]

func init() {
	log.Store(newLogger())
}

func newLogger() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.WarnLevel)
	l.SetOutput(os.Stderr)
	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	return l
}

// Init configures the logger. An unparsable level falls back to info.
// When console is false and logFile is empty, output is discarded.
func Init(level, logFile string, console bool) error {
	l := newLogger()

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	l.SetLevel(lvl)

	var writers []io.Writer
	if console {
		writers = append(writers, os.Stderr)
	}
	if logFile != "" {
		if err := os.MkdirAll(filepath.Dir(logFile), 0o755); err != nil {
			return err
		}
		file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o666)
		if err != nil {
			return err
		}
		writers = append(writers, file)
	}
	switch len(writers) {
	case 0:
		l.SetOutput(io.Discard)
	case 1:
		l.SetOutput(writers[0])
	default:
		l.SetOutput(io.MultiWriter(writers...))
	}

	log.Store(l)
	return nil
}

// Get returns the current logger. It never blocks; Init swaps the logger
// atomically.
func Get() *logrus.Logger {
	return log.Load()
}

// SetOutput redirects the logger, mostly useful in tests.
func SetOutput(w io.Writer) {
	Get().SetOutput(w)
}

// WithComponent returns an entry tagged with the emitting component.
func WithComponent(name string) *logrus.Entry {
	return Get().WithField("component", name)
}

// Debugf logs at debug level on the shared logger.
func Debugf(format string, args ...any) {
	Get().Debugf(format, args...)
}

// Warnf logs at warn level on the shared logger.
func Warnf(format string, args ...any) {
	Get().Warnf(format, args...)
}
