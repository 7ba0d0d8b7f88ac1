// Copyright 2025 samber.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// https://github.com/samber/ro/blob/main/licenses/LICENSE.apache.md
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package httputil

import (
	"bufio"
	"io"
	"os"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// FileLineGenerator reads a file line by line and exposes a Next method
// matching the shape of httpcore.Generator[string] (func() (string, bool)):
// on each call it returns the next buffered line, or ok=false when it has
// caught up with the file's current end. Once it reaches EOF it installs an
// fsnotify watcher so a caller can learn (via Changed) that more lines may
// now be available, and call Next again.
//
// A publisher wired to Next as its generator would typically call
// Announce() from a goroutine draining Changed.
type FileLineGenerator struct {
	path string

	mu      sync.Mutex
	file    *os.File
	reader  *bufio.Reader
	watcher *fsnotify.Watcher
}

// NewFileLineGenerator opens path for reading. The file must already exist.
func NewFileLineGenerator(path string) (*FileLineGenerator, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	return &FileLineGenerator{
		path:   path,
		file:   f,
		reader: bufio.NewReader(f),
	}, nil
}

// Next returns the next line (without its trailing newline) and true, or
// ("", false) if no full line is currently available.
func (g *FileLineGenerator) Next() (string, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	line, err := g.reader.ReadString('\n')
	if err != nil {
		if err != io.EOF {
			panic(err)
		}
		if line == "" {
			g.ensureWatcherLocked()
			return "", false
		}
		// Partial trailing line with no newline yet: push the read bytes
		// back by re-opening a reader at the line's start isn't available
		// on bufio.Reader, so instead we hold it until more bytes arrive.
		// Simplest correct behaviour: treat an unterminated final line as
		// not yet available, and seek back before it.
		if _, serr := g.file.Seek(-int64(len(line)), io.SeekCurrent); serr == nil {
			g.reader = bufio.NewReader(g.file)
		}
		g.ensureWatcherLocked()
		return "", false
	}

	return trimNewline(line), true
}

func trimNewline(s string) string {
	if n := len(s); n > 0 && s[n-1] == '\n' {
		s = s[:n-1]
	}
	if n := len(s); n > 0 && s[n-1] == '\r' {
		s = s[:n-1]
	}
	return s
}

// ensureWatcherLocked installs the fsnotify watcher on first EOF. Must be
// called with g.mu held.
func (g *FileLineGenerator) ensureWatcherLocked() {
	if g.watcher != nil {
		return
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return
	}
	if err := w.Add(g.path); err != nil {
		w.Close()
		return
	}
	g.watcher = w
}

// Changed returns the watcher's channel of filesystem events, or nil until the
// generator has hit EOF at least once. A caller typically ranges over this
// channel on its own goroutine and calls the owning Publisher's Announce()
// on every event.
func (g *FileLineGenerator) Changed() <-chan fsnotify.Event {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.watcher == nil {
		return nil
	}
	return g.watcher.Events
}

// Close releases the underlying file handle and, if installed, the fsnotify
// watcher.
func (g *FileLineGenerator) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.watcher != nil {
		_ = g.watcher.Close()
	}
	return g.file.Close()
}
