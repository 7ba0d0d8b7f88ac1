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

import "sync"

// Subscription is handed to a subscriber's OnSubscribe callback. It lets the
// subscriber express demand and cancel delivery.
type Subscription interface {
	// Request signals willingness to accept n more items. n must be >= 1;
	// otherwise the subscriber's OnError receives ErrInvalidDemand and the
	// subscription terminates.
	Request(n uint64)
	// Cancel terminates the subscription. Idempotent; guaranteed to reach
	// the delegate at most once.
	Cancel()
}

var _ Subscription = (*deferredSubscription)(nil)

// deferredSubscription is the Subscription proxy handed to a subscriber
// during OnSubscribe, before installation into the publisher's slot commits.
// Requests made before activation are buffered and drained, in order, to the
// delegate once Activate is called. A Cancel recorded before activation
// suppresses delegate binding entirely.
type deferredSubscription struct {
	mu         sync.Mutex
	activated  bool
	cancelled  bool
	pending    []uint64
	delegate   Subscription
	onInvalid  func()
	cancelOnce sync.Once
}

func newDeferredSubscription(onInvalidDemand func()) *deferredSubscription {
	return &deferredSubscription{onInvalid: onInvalidDemand}
}

// Request buffers the demand pre-activation, or forwards it directly once
// activated. An invalid n before activation cancels the handshake and
// surfaces invalid-demand through onInvalid; after activation the delegate
// enforces validity itself.
func (s *deferredSubscription) Request(n uint64) {
	s.mu.Lock()

	if !s.activated {
		if n < 1 {
			s.cancelled = true
			s.mu.Unlock()
			if s.onInvalid != nil {
				s.onInvalid()
			}
			return
		}
		if !s.cancelled {
			s.pending = append(s.pending, n)
		}
		s.mu.Unlock()
		return
	}

	delegate := s.delegate
	s.mu.Unlock()

	if delegate != nil {
		delegate.Request(n)
	}
}

// Cancel is idempotent. Before activation it suppresses delegate binding;
// after activation it forwards at most once to the delegate.
func (s *deferredSubscription) Cancel() {
	s.mu.Lock()
	s.cancelled = true
	activated := s.activated
	delegate := s.delegate
	s.mu.Unlock()

	if activated && delegate != nil {
		s.cancelOnce.Do(delegate.Cancel)
	}
}

// isCancelledBeforeActivation reports whether Cancel was called before
// activation, typically from within the subscriber's own OnSubscribe.
func (s *deferredSubscription) isCancelledBeforeActivation() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.activated && s.cancelled
}

// Activate binds delegate as the real subscription and drains any buffered
// requests to it, in order. If Cancel was called before activation, the
// delegate is cancelled instead of receiving buffered demand.
func (s *deferredSubscription) Activate(delegate Subscription) {
	s.mu.Lock()
	if s.activated {
		s.mu.Unlock()
		return
	}
	s.activated = true
	s.delegate = delegate
	cancelled := s.cancelled
	pending := s.pending
	s.pending = nil
	s.mu.Unlock()

	if cancelled {
		s.cancelOnce.Do(delegate.Cancel)
		return
	}

	for _, n := range pending {
		delegate.Request(n)
	}
}

var _ Subscription = (*rejectionSubscription)(nil)

// rejectionSubscription is a cancel-only Subscription handed to a subscriber
// that is being rejected (publisher busy/closed/not-reusable). Request is a
// no-op; Cancel flips a local flag so callers can detect a cancel performed
// by the subscriber from within its own OnSubscribe before signalling
// onward.
type rejectionSubscription struct {
	mu        sync.Mutex
	cancelled bool
}

func newRejectionSubscription() *rejectionSubscription {
	return &rejectionSubscription{}
}

func (s *rejectionSubscription) Request(n uint64) {}

func (s *rejectionSubscription) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelled = true
}

func (s *rejectionSubscription) IsCancelled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancelled
}

// liveSubscription is the real, activated Subscription bound to an active
// subscriber's Transfer and slot entry: Request forwards to the Transfer's
// demand counter (surfacing invalid n via OnError, clamping anything past
// the unbounded sentinel to unbounded); Cancel runs the publisher-supplied
// teardown at most once.
type liveSubscription[T any] struct {
	core   *unicastCore[T]
	state  *slotState[T]
	xfer   *Transfer[T]
	cancel func()

	once sync.Once
}

func (s *liveSubscription[T]) Request(n uint64) {
	if n < 1 {
		if s.core.signalError(ErrInvalidDemand, s.state) {
			s.xfer.Finish()
		}
		return
	}

	m := demandUnbounded
	if n < uint64(demandUnbounded) {
		m = int64(n)
	}
	_ = s.xfer.IncreaseDemand(m)
}

func (s *liveSubscription[T]) Cancel() {
	s.once.Do(func() {
		if s.cancel != nil {
			s.cancel()
		}
	})
}
