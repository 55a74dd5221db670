// Copyright 2025 CloudWeGo Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package logx is a small leveled logger used across the engine's
// components. It is intentionally a thin stdlib wrapper, not a structured
// logging framework: every component prefixes its own tag.
package logx

import (
	"fmt"
	"log"
	"os"
	"sync/atomic"
)

// Level controls which calls actually print.
type Level int32

const (
	LevelError Level = iota
	LevelInfo
	LevelDebug
)

var current int32 = int32(LevelInfo)

// SetLevel changes the global verbosity. Safe for concurrent use.
func SetLevel(l Level) {
	atomic.StoreInt32(&current, int32(l))
}

func enabled(l Level) bool {
	return int32(l) <= atomic.LoadInt32(&current)
}

var std = log.New(os.Stderr, "", log.LstdFlags)

// Logger is a tag-prefixed logging handle for one component.
type Logger struct {
	tag string
}

// New returns a Logger tagged with the given component name, e.g. "repair".
func New(tag string) *Logger {
	return &Logger{tag: tag}
}

func (l *Logger) printf(level Level, format string, args ...interface{}) {
	if !enabled(level) {
		return
	}
	std.Printf("[%s] %s", l.tag, fmt.Sprintf(format, args...))
}

func (l *Logger) Debug(format string, args ...interface{}) { l.printf(LevelDebug, format, args...) }
func (l *Logger) Info(format string, args ...interface{})  { l.printf(LevelInfo, format, args...) }
func (l *Logger) Error(format string, args ...interface{}) { l.printf(LevelError, format, args...) }
