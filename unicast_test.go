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
	"testing"

	"github.com/stretchr/testify/assert"
)

// passthroughSubscribe installs sub with a fakeSubscription delegate and
// returns the delegate plus the terminate closure captured at activation.
func passthroughSubscribe[T any](t *testing.T, c *unicastCore[T], sub Subscriber[T]) (*fakeSubscription, func() bool) {
	t.Helper()

	delegate := &fakeSubscription{}
	var term func() bool
	err := c.subscribe(sub, func(active *slotState[T], terminate func() bool) Subscription {
		term = terminate
		return delegate
	})
	assert.NoError(t, err)
	return delegate, term
}

func TestUnicastCore_InstallAndDeliver(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	c := newUnicastCore[string](true)
	rec := &recorder[string]{}
	passthroughSubscribe(t, c, rec)

	is.NotNil(rec.subscription())

	delivered, err := c.signalNext("hello", nil)
	is.True(delivered)
	is.NoError(err)
	is.Equal([]string{"hello"}, rec.items())
}

func TestUnicastCore_SecondSubscriberRejected(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	c := newUnicastCore[string](true)
	first := &recorder[string]{}
	passthroughSubscribe(t, c, first)

	second := &recorder[string]{}
	is.NoError(c.subscribe(second, func(*slotState[string], func() bool) Subscription {
		t.Fatal("rejected subscriber must never activate")
		return nil
	}))

	errs := second.errors()
	is.Len(errs, 1)
	is.ErrorIs(errs[0], ErrInvalidState)
	is.Contains(errs[0].Error(), "already-has-subscriber")
}

func TestUnicastCore_RejectedSubscriberMayCancelSilently(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	c := newUnicastCore[string](true)
	passthroughSubscribe(t, c, &recorder[string]{})

	second := &recorder[string]{
		onSubscribe: func(sub Subscription) { sub.Cancel() },
	}
	is.NoError(c.subscribe(second, func(*slotState[string], func() bool) Subscription { return &fakeSubscription{} }))

	// a cancel inside OnSubscribe suppresses the rejection error.
	is.Empty(second.errors())
	is.Zero(second.completed())
}

func TestUnicastCore_NotReusableAcceptsExactlyOne(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	c := newUnicastCore[string](false)
	first := &recorder[string]{}
	_, terminate := passthroughSubscribe(t, c, first)

	is.True(terminate())

	second := &recorder[string]{}
	is.NoError(c.subscribe(second, func(*slotState[string], func() bool) Subscription { return &fakeSubscription{} }))

	errs := second.errors()
	is.Len(errs, 1)
	is.Contains(errs[0].Error(), "already-subscribed-not-reusable")
}

func TestUnicastCore_ReusableAcceptsReplacement(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	c := newUnicastCore[string](true)
	first := &recorder[string]{}
	_, terminate := passthroughSubscribe(t, c, first)
	is.True(terminate())
	is.False(terminate()) // terminate is one-shot.

	second := &recorder[string]{}
	passthroughSubscribe(t, c, second)

	delivered, err := c.signalNext("again", nil)
	is.True(delivered)
	is.NoError(err)
	is.Equal([]string{"again"}, second.items())
	is.Empty(first.items())
}

func TestUnicastCore_OnSubscribePanicRollsBack(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	boom := errors.New("boom")
	c := newUnicastCore[string](true)
	bad := &recorder[string]{
		onSubscribe: func(Subscription) { panic(boom) },
	}

	err := c.subscribe(bad, func(*slotState[string], func() bool) Subscription {
		t.Fatal("activation must not happen after an OnSubscribe panic")
		return nil
	})

	var sf *SubscriberFailureError
	is.ErrorAs(err, &sf)
	is.ErrorIs(err, boom)

	errs := bad.errors()
	is.Len(errs, 1)
	is.ErrorIs(errs[0], ErrInvalidState)

	// the slot rolled back: a fresh subscriber installs normally.
	next := &recorder[string]{}
	passthroughSubscribe(t, c, next)
	delivered, _ := c.signalNext("ok", nil)
	is.True(delivered)
}

func TestUnicastCore_SignalNextPanicClearsSlot(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	boom := errors.New("boom")
	c := newUnicastCore[string](true)
	rec := &recorder[string]{
		onNext: func(string) { panic(boom) },
	}
	passthroughSubscribe(t, c, rec)

	delivered, err := c.signalNext("x", nil)
	is.False(delivered)
	is.ErrorIs(err, boom)

	// slot returned to Accepting: the next subscriber installs.
	next := &recorder[string]{}
	passthroughSubscribe(t, c, next)
	delivered, err = c.signalNext("y", nil)
	is.True(delivered)
	is.NoError(err)
}

func TestUnicastCore_SignalCompleteAndErrorAreOneShot(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	c := newUnicastCore[string](true)
	rec := &recorder[string]{}
	passthroughSubscribe(t, c, rec)

	is.True(c.signalComplete(nil))
	is.False(c.signalComplete(nil))
	is.False(c.signalError(errors.New("late"), nil))
	is.Equal(1, rec.completed())
	is.Empty(rec.errors())
}

func TestUnicastCore_SignalExpectedMismatchSkips(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	c := newUnicastCore[string](true)
	first := &recorder[string]{}
	_, terminate := passthroughSubscribe(t, c, first)

	firstState := c.load() // Active(first)
	is.Equal(slotActive, firstState.kind)

	is.True(terminate())
	second := &recorder[string]{}
	passthroughSubscribe(t, c, second)

	// a stale expectation never reaches the replacement subscriber.
	delivered, err := c.signalNext("stale", firstState)
	is.False(delivered)
	is.NoError(err)
	is.Empty(second.items())
	is.False(c.signalComplete(firstState))
	is.Zero(second.completed())
}

func TestUnicastCore_TryShutdown(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	c := newUnicastCore[string](true)
	is.True(c.tryShutdown())
	is.True(c.isClosed())
	is.True(c.tryShutdown()) // idempotent.

	active := newUnicastCore[string](true)
	passthroughSubscribe(t, active, &recorder[string]{})
	is.False(active.tryShutdown()) // an Active slot refuses the soft path.
	is.False(active.isClosed())
}

func TestUnicastCore_ShutdownReturnsActiveSubscriber(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	c := newUnicastCore[string](true)
	rec := &recorder[string]{}
	passthroughSubscribe(t, c, rec)

	got := c.shutdown()
	is.NotNil(got)
	is.True(c.isClosed())
	is.Nil(c.shutdown()) // already closed: nobody to hand back.

	// once Closed, every subscribe ends in rejection.
	late := &recorder[string]{}
	is.NoError(c.subscribe(late, func(*slotState[string], func() bool) Subscription { return &fakeSubscription{} }))
	errs := late.errors()
	is.Len(errs, 1)
	is.Contains(errs[0].Error(), "shutdown")
}
