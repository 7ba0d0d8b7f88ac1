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
	"bytes"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"
)

// lockedBuffer is a bytes.Buffer safe for concurrent Write, since zerolog
// may be handed to code running on more than one goroutine during a test.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) Lines() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	trimmed := strings.TrimRight(b.buf.String(), "\n")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "\n")
}

// CaptureZerolog builds a zerolog.Logger writing JSON lines into an
// in-memory buffer, and returns an accessor for the lines captured so far.
func CaptureZerolog(t *testing.T) (zerolog.Logger, func() []string) {
	t.Helper()

	buf := &lockedBuffer{}
	logger := zerolog.New(buf).With().Timestamp().Logger()

	return logger, buf.Lines
}
