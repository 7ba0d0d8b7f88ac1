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

// Package httpcore implements the single-subscriber, demand-gated publishing
// core used by the rest of the HTTP server's utility layer: header parsing,
// percent-decoding, file iteration and the wire codec all sit on top of it as
// consumers, but none of that belongs to this package.
package httpcore

import (
	"context"
	"log"
	"sync/atomic"
)

// onUnhandledError stores the current handler invoked when a subscriber's own
// OnError callback panics. It is accessed via atomic.Value so readers never
// race with a concurrent SetOnUnhandledError call.
var onUnhandledError atomic.Value // func(context.Context, error)

func init() {
	onUnhandledError.Store(IgnoreOnUnhandledError)
}

// SetOnUnhandledError sets the handler invoked when a subscriber's OnError
// itself fails. Passing nil restores the default (silently ignore). Per the
// error-propagation policy, this is the one place an error is allowed to be
// dropped rather than re-delivered, since re-delivering it risks an infinite
// error cascade.
func SetOnUnhandledError(fn func(ctx context.Context, err error)) {
	if fn == nil {
		fn = IgnoreOnUnhandledError
	}
	onUnhandledError.Store(fn)
}

// GetOnUnhandledError returns the currently configured unhandled-error handler.
func GetOnUnhandledError() func(ctx context.Context, err error) {
	return onUnhandledError.Load().(func(context.Context, error))
}

// OnUnhandledError calls the currently configured unhandled-error handler.
func OnUnhandledError(ctx context.Context, err error) {
	GetOnUnhandledError()(ctx, err)
}

// IgnoreOnUnhandledError is the default implementation of OnUnhandledError.
func IgnoreOnUnhandledError(ctx context.Context, err error) {}

// DefaultOnUnhandledError logs the error using the standard library logger.
// Most callers wire a structured logger instead; see
// NewZerologUnhandledErrorHandler in logging.go.
func DefaultOnUnhandledError(ctx context.Context, err error) {
	if err != nil {
		// bearer:disable go_lang_logger_leak
		log.Printf("httpcore: unhandled error: %s\n", err.Error())
	}
}
