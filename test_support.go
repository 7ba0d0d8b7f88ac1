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
	"testing"
)

// WithOnUnhandledError temporarily installs handler as the package-level
// unhandled-error hook for the duration of fn, restoring the previous
// handler afterwards even if fn panics.
func WithOnUnhandledError(t *testing.T, handler func(ctx context.Context, err error), fn func()) {
	t.Helper()

	unhandledErrorMu.Lock()
	prev := GetOnUnhandledError()
	SetOnUnhandledError(handler)

	defer func() {
		SetOnUnhandledError(prev)
		unhandledErrorMu.Unlock()
	}()

	fn()
}
