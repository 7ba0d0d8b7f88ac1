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

package httpcore

import (
	"context"
	"sync"
	"testing"

	"github.com/rs/zerolog"
)

// NewZerologUnhandledErrorHandler returns a handler suitable for
// SetOnUnhandledError that logs err at warn level through logger. This is
// the structured-logging equivalent of DefaultOnUnhandledError.
func NewZerologUnhandledErrorHandler(logger zerolog.Logger) func(ctx context.Context, err error) {
	return func(ctx context.Context, err error) {
		if err == nil {
			return
		}
		logger.Warn().Err(err).Msg("httpcore: unhandled error")
	}
}

// unhandledErrorMu serializes test-time overrides of the package-level
// unhandled-error hook so concurrent test goroutines never write the global
// simultaneously.
var unhandledErrorMu sync.Mutex

// WithZerologUnhandledError temporarily installs a zerolog-backed unhandled
// error handler for the duration of fn, restoring the previous handler
// afterwards even if fn panics.
func WithZerologUnhandledError(t *testing.T, logger zerolog.Logger, fn func()) {
	t.Helper()

	unhandledErrorMu.Lock()
	prev := GetOnUnhandledError()
	SetOnUnhandledError(NewZerologUnhandledErrorHandler(logger))

	defer func() {
		SetOnUnhandledError(prev)
		unhandledErrorMu.Unlock()
	}()

	fn()
}
