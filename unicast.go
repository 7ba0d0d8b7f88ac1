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
	"fmt"
	"sync/atomic"
)

type slotKind uint8

const (
	slotAccepting slotKind = iota
	slotInstalling
	slotActive
	slotNotReusable
	slotClosed
)

// slotState is the immutable value stored in the unicast slot. A new value
// fully replaces the old one on every CAS; nothing is mutated in place. The
// pointer doubles as the identity token for "is this still the same
// installation", so no Subscriber equality comparison is ever needed.
type slotState[T any] struct {
	kind slotKind
	sub  Subscriber[T]
}

// unicastCore owns the single-subscriber slot and mediates the installation
// handshake and termination bookkeeping. At most one Subscriber is ever
// Active at a time.
type unicastCore[T any] struct {
	slot     atomic.Pointer[slotState[T]]
	reusable bool
}

func newUnicastCore[T any](reusable bool) *unicastCore[T] {
	c := &unicastCore[T]{reusable: reusable}
	c.slot.Store(&slotState[T]{kind: slotAccepting})
	return c
}

func (c *unicastCore[T]) casSlot(from, to *slotState[T]) bool {
	return c.slot.CompareAndSwap(from, to)
}

func (c *unicastCore[T]) load() *slotState[T] {
	return c.slot.Load()
}

// rejectReason classifies why a subscribe attempt could not install.
type rejectReason string

const (
	reasonAlreadySubscribedNotReusable rejectReason = "already-subscribed-not-reusable"
	reasonShutdown                     rejectReason = "shutdown"
	reasonBusyInstalling               rejectReason = "busy-installing"
	reasonAlreadyHasSubscriber         rejectReason = "already-has-subscriber"
)

func classifyWitness[T any](witness *slotState[T]) rejectReason {
	switch witness.kind {
	case slotNotReusable:
		return reasonAlreadySubscribedNotReusable
	case slotClosed:
		return reasonShutdown
	case slotInstalling:
		return reasonBusyInstalling
	default:
		return reasonAlreadyHasSubscriber
	}
}

// newSubscriptionFunc builds the delegate Subscription bound to the
// now-active installation. Supplied by the caller (the push-pull publisher),
// since only it knows how to wire a per-subscription Transfer. terminate
// clears the slot for this installation exactly once; it reports whether
// this call performed the transition.
type newSubscriptionFunc[T any] func(active *slotState[T], terminate func() bool) Subscription

// subscribe runs the four-step installation handshake: CAS the slot to
// Installing, call OnSubscribe with a deferred proxy, commit to Active, then
// activate the proxy with the delegate built by newSub. Rejections and a
// shutdown racing the handshake are signalled to the subscriber's OnError;
// only a panic from the subscriber's own OnSubscribe is returned.
func (c *unicastCore[T]) subscribe(sub Subscriber[T], newSub newSubscriptionFunc[T]) error {
	installing := &slotState[T]{kind: slotInstalling, sub: sub}

	for {
		witness := c.load()
		if witness.kind == slotAccepting {
			if c.casSlot(witness, installing) {
				break
			}
			continue
		}

		c.reject(sub, classifyWitness(witness))
		return nil
	}

	deferred := newDeferredSubscription(func() {
		c.deliverError(sub, ErrInvalidDemand)
	})

	err := safeCall(func() error {
		sub.OnSubscribe(deferred)
		return nil
	})
	if err != nil {
		// Roll back Installing -> Accepting, tolerating a witness of Closed
		// or NotReusable (the publisher shut down concurrently).
		if !c.casSlot(installing, &slotState[T]{kind: slotAccepting}) {
			witness := c.load()
			if witness.kind != slotClosed && witness.kind != slotNotReusable {
				// contract violation: nothing else may replace Installing.
				panic("httpcore: unexpected slot witness during rollback")
			}
		}

		if !deferred.isCancelledBeforeActivation() {
			c.deliverError(sub, ErrInvalidState)
		}

		return &SubscriberFailureError{Cause: err}
	}

	active := &slotState[T]{kind: slotActive, sub: sub}
	if !c.casSlot(installing, active) {
		// The publisher was shut down during initialization.
		witness := c.load()
		if witness.kind != slotClosed {
			panic("httpcore: unexpected slot witness during activation")
		}

		if !deferred.isCancelledBeforeActivation() {
			c.deliverError(sub, ErrInvalidState)
		}
		return nil
	}

	terminate := func() bool {
		return c.casSlot(active, c.terminalSlot())
	}

	deferred.Activate(newSub(active, terminate))
	return nil
}

// reject installs a cancel-only subscription for sub and signals OnError
// unless sub cancelled during its own OnSubscribe.
func (c *unicastCore[T]) reject(sub Subscriber[T], reason rejectReason) {
	rs := newRejectionSubscription()

	_ = safeCall(func() error {
		sub.OnSubscribe(rs)
		return nil
	})

	if !rs.IsCancelled() {
		c.deliverError(sub, fmt.Errorf("%w: %s", ErrInvalidState, reason))
	}
}

// terminalSlot computes the slot value a terminating subscriber transitions
// into: Accepting if reusable, NotReusable otherwise.
func (c *unicastCore[T]) terminalSlot() *slotState[T] {
	if c.reusable {
		return &slotState[T]{kind: slotAccepting}
	}
	return &slotState[T]{kind: slotNotReusable}
}

// current returns the slot's state if it is Active and matches expected
// (nil expected matches any Active installation).
func (c *unicastCore[T]) current(expected *slotState[T]) *slotState[T] {
	witness := c.load()
	if witness.kind != slotActive {
		return nil
	}
	if expected != nil && witness != expected {
		return nil
	}
	return witness
}

// signalNext delivers item to the active subscriber. Reports whether the
// item was delivered; if OnNext panics, the slot is cleared (to Accepting or
// NotReusable per the reusable flag) and the panic's error returns.
func (c *unicastCore[T]) signalNext(item T, expected *slotState[T]) (bool, error) {
	witness := c.current(expected)
	if witness == nil {
		return false, nil
	}

	err := safeCall(func() error {
		witness.sub.OnNext(item)
		return nil
	})
	if err != nil {
		c.casSlot(witness, c.terminalSlot())
		return false, err
	}
	return true, nil
}

// signalComplete clears the slot if eligible, then calls OnComplete outside
// of the CAS. Reports whether this call delivered the completion.
func (c *unicastCore[T]) signalComplete(expected *slotState[T]) bool {
	witness := c.current(expected)
	if witness == nil {
		return false
	}
	if !c.casSlot(witness, c.terminalSlot()) {
		return false
	}

	_ = safeCall(func() error {
		witness.sub.OnComplete()
		return nil
	})
	return true
}

// signalError clears the slot if eligible, then calls OnError outside of the
// CAS. A panic from OnError itself is only reported to the unhandled-error
// hook, never propagated. Reports whether this call delivered the error.
func (c *unicastCore[T]) signalError(cause error, expected *slotState[T]) bool {
	witness := c.current(expected)
	if witness == nil {
		return false
	}
	if !c.casSlot(witness, c.terminalSlot()) {
		return false
	}

	c.deliverError(witness.sub, cause)
	return true
}

// deliverError calls sub.OnError(cause), assuming the caller already settled
// any slot transition. A panic from OnError itself is only reported to the
// unhandled-error hook, never propagated.
func (c *unicastCore[T]) deliverError(sub Subscriber[T], cause error) {
	if sub == nil {
		return
	}

	err := safeCall(func() error {
		sub.OnError(cause)
		return nil
	})
	if err != nil {
		OnUnhandledError(context.Background(), err)
	}
}

// tryShutdown CAS's any non-Active state to Closed. Returns the resulting
// post-condition: true if the slot is now Closed.
func (c *unicastCore[T]) tryShutdown() bool {
	for {
		witness := c.load()
		if witness.kind == slotClosed {
			return true
		}
		if witness.kind == slotActive {
			return false
		}
		if c.casSlot(witness, &slotState[T]{kind: slotClosed}) {
			return true
		}
	}
}

// shutdown unconditionally forces the slot to Closed and returns the
// previously-active subscriber, if any. The caller is responsible for
// signalling completion/error to it.
func (c *unicastCore[T]) shutdown() Subscriber[T] {
	for {
		witness := c.load()
		if c.casSlot(witness, &slotState[T]{kind: slotClosed}) {
			if witness.kind == slotActive {
				return witness.sub
			}
			return nil
		}
	}
}

func (c *unicastCore[T]) isClosed() bool {
	return c.load().kind == slotClosed
}
