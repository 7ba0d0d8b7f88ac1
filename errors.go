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
	"errors"
	"fmt"

	"github.com/samber/lo"
)

// ErrInvalidDemand is returned (or delivered to a subscriber's OnError) when
// Request is called with n < 1.
var ErrInvalidDemand = errors.New("httpcore: invalid demand: n must be >= 1")

// ErrInvalidState is returned, or signalled to a subscriber's OnError, when an
// operation is attempted against a state machine transition the contract does
// not allow: rebinding an installing subscriber, calling Complete in
// synchronous-runner mode, completing a runner with no run active, or
// subscribing to a publisher shut down mid-handshake.
var ErrInvalidState = errors.New("httpcore: invalid state")

// SubscriberFailureError wraps a panic raised from a subscriber's OnSubscribe
// or OnNext callback. A panic from OnSubscribe is returned as this error to
// the caller of Subscribe (the subscriber's OnError receives ErrInvalidState);
// a panic from OnNext is delivered as this error to the subscriber's OnError,
// while the caller of Announce receives the original cause.
type SubscriberFailureError struct {
	Cause error
}

func (e *SubscriberFailureError) Error() string {
	return fmt.Sprintf("httpcore: subscriber failure: %s", e.Cause)
}

func (e *SubscriberFailureError) Unwrap() error { return e.Cause }

// GeneratorFailureError wraps a panic raised from a publisher's generator
// function. It is delivered to the active subscriber (if any) as an OnError,
// and the original cause is rethrown to the caller of Announce when no
// subscriber was present to receive it.
type GeneratorFailureError struct {
	Cause error
}

func (e *GeneratorFailureError) Error() string {
	return fmt.Sprintf("httpcore: generator failure: %s", e.Cause)
}

func (e *GeneratorFailureError) Unwrap() error { return e.Cause }

// UnsubscriptionError wraps a panic raised from a teardown/finalizer callback
// registered on a Subscription.
type UnsubscriptionError struct {
	Cause error
}

func (e *UnsubscriptionError) Error() string {
	return fmt.Sprintf("httpcore: unsubscription failure: %s", e.Cause)
}

func (e *UnsubscriptionError) Unwrap() error { return e.Cause }

func newUnsubscriptionError(cause error) error {
	return &UnsubscriptionError{Cause: cause}
}

// recoverValueToError normalizes a recover() value into an error.
func recoverValueToError(e any) error {
	switch v := e.(type) {
	case error:
		return v
	case string:
		return errors.New(v)
	default:
		return fmt.Errorf("%v", v)
	}
}

// safeCall runs fn and converts any panic into an error, instead of letting
// it unwind the caller's stack. Used anywhere user-supplied code (generator,
// callbacks, OnSubscribe) must not be able to corrupt the core's internal
// bookkeeping by panicking mid-transition.
func safeCall(fn func() error) (err error) {
	lo.TryCatchWithErrorValue(
		func() error {
			return fn()
		},
		func(e any) {
			err = recoverValueToError(e)
		},
	)

	return err
}

// joinErrors joins zero or more errors, or nil when the slice is empty.
func joinErrors(errs ...error) error {
	return errors.Join(errs...)
}
