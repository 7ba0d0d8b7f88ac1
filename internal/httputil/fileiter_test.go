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
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileLineGenerator_ReadsLinesThenDries(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	path := filepath.Join(t.TempDir(), "lines.txt")
	require.NoError(t, os.WriteFile(path, []byte("alpha\nbeta\r\n"), 0o644))

	g, err := NewFileLineGenerator(path)
	require.NoError(t, err)
	defer g.Close()

	line, ok := g.Next()
	is.True(ok)
	is.Equal("alpha", line)

	line, ok = g.Next()
	is.True(ok)
	is.Equal("beta", line)

	_, ok = g.Next()
	is.False(ok)
}

func TestFileLineGenerator_PicksUpAppendedLines(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	path := filepath.Join(t.TempDir(), "lines.txt")
	require.NoError(t, os.WriteFile(path, []byte("first\n"), 0o644))

	g, err := NewFileLineGenerator(path)
	require.NoError(t, err)
	defer g.Close()

	line, ok := g.Next()
	is.True(ok)
	is.Equal("first", line)

	_, ok = g.Next()
	is.False(ok)

	// hitting EOF installs the change watcher.
	is.NotNil(g.Changed())

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, err = f.WriteString("second\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	line, ok = g.Next()
	is.True(ok)
	is.Equal("second", line)
}

func TestFileLineGenerator_MissingFile(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	_, err := NewFileLineGenerator(filepath.Join(t.TempDir(), "absent.txt"))
	is.Error(err)
}

func TestFileLineGenerator_UnterminatedLineWaits(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	path := filepath.Join(t.TempDir(), "lines.txt")
	require.NoError(t, os.WriteFile(path, []byte("done\npartial"), 0o644))

	g, err := NewFileLineGenerator(path)
	require.NoError(t, err)
	defer g.Close()

	line, ok := g.Next()
	is.True(ok)
	is.Equal("done", line)

	// the unterminated tail is held back until its newline arrives.
	_, ok = g.Next()
	is.False(ok)

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, err = f.WriteString(" line\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	line, ok = g.Next()
	is.True(ok)
	is.Equal("partial line", line)
}
