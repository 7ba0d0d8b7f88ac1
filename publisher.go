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

import "sync/atomic"

// Generator yields the next item a Publisher pushes downstream, or ok=false
// when none is currently available. It fails only by panicking; a panic is
// captured and treated as a generator failure.
type Generator[T any] func() (item T, ok bool)

// Variant selects one of the three factory behaviours for a Publisher.
type Variant int

const (
	// VariantReusable returns the slot to Accepting after every
	// termination. Cancel and failure hooks default to NOPs; a generator
	// drought simply waits for the next Announce.
	VariantReusable Variant = iota
	// VariantHybrid behaves like VariantReusable until the first on-next
	// failure, at which point it stops the publisher for good and runs
	// PostMortem. A generator failure also runs PostMortem.
	VariantHybrid
	// VariantNonReusable accepts exactly one subscriber ever, and treats a
	// generator drought as exhaustion: the subscriber completes and
	// PostMortem runs. Cancel, on-next failure and generator failure all
	// run PostMortem.
	VariantNonReusable
)

// PublisherConfig configures a Publisher. Generator is required; all
// callbacks may be left nil.
type PublisherConfig[T any] struct {
	Variant Variant
	// Generator produces the next item, or ok=false when none is ready yet.
	Generator Generator[T]
	// Recycler receives items that were produced but never delivered to a
	// subscriber (e.g. produced right as the subscription was cancelled, or
	// handed to an OnNext that panicked).
	Recycler func(item T)
	// OnGeneratorError runs after Generator panics, before the original
	// error is possibly rethrown to the caller of Announce.
	OnGeneratorError func()
	// OnNextError runs after a subscriber's OnNext panics, for the hybrid and
	// non-reusable variants; the reusable variant does not call it. Receives
	// the publisher so the callback can itself call Stop if desired.
	OnNextError func(p *Publisher[T])
	// OnEachCancel runs after a cancellation terminates a non-reusable
	// publisher's subscription. The reusable variants treat cancellation as
	// routine slot turnover and skip it.
	OnEachCancel func()
	// PostMortem runs exactly once per end-of-life event: cancellation
	// (non-reusable), exhaustion (non-reusable), on-next failure (hybrid and
	// non-reusable) or generator failure (hybrid and non-reusable). The
	// reusable variant never runs it. Never on a planned Complete.
	PostMortem func()
}

// Publisher is the end-user façade: a demand-gated, single-subscriber
// stream driven by a user-supplied Generator. Each accepted subscriber gets
// its own Transfer pumping Generator output to that subscriber's OnNext,
// gated by the Subscription's Request calls.
type Publisher[T any] struct {
	core   *unicastCore[T]
	config PublisherConfig[T]

	current atomic.Pointer[Transfer[T]]
}

// NewPublisher constructs a Publisher from cfg.
func NewPublisher[T any](cfg PublisherConfig[T]) *Publisher[T] {
	reusable := cfg.Variant != VariantNonReusable

	return &Publisher[T]{
		core:   newUnicastCore[T](reusable),
		config: cfg,
	}
}

// Subscribe installs sub as the publisher's subscriber, if the slot permits
// it. Returns an error only when sub's own OnSubscribe panicked; rejection
// (busy/closed/not-reusable) is signalled to sub's OnError, not returned.
func (p *Publisher[T]) Subscribe(sub Subscriber[T]) error {
	return p.core.subscribe(sub, func(active *slotState[T], terminate func() bool) Subscription {
		xfer := NewTransfer[T](
			p.wrappedGenerator(),
			func(item T) error {
				delivered, err := p.core.signalNext(item, active)
				if err != nil {
					return err
				}
				if !delivered {
					p.recycle(item)
				}
				return nil
			},
			func(item T, err error) {
				p.core.deliverError(active.sub, &SubscriberFailureError{Cause: err})
				p.handleNextError(item)
			},
		)
		p.current.Store(xfer)

		live := &liveSubscription[T]{
			core:  p.core,
			state: active,
			xfer:  xfer,
		}
		live.cancel = func() {
			terminated := terminate()
			xfer.Finish()
			p.current.CompareAndSwap(xfer, nil)
			if terminated && p.config.Variant == VariantNonReusable {
				if err := p.runOnEachCancel(); err != nil {
					panic(newUnsubscriptionError(err))
				}
			}
		}
		return live
	})
}

// Announce is a push hint from upstream: try a transfer on the current
// subscription, if any. A no-op when there is no active subscriber.
func (p *Publisher[T]) Announce() error {
	xfer := p.current.Load()
	if xfer == nil {
		return nil
	}
	return xfer.TryTransfer()
}

// Error terminates the active subscription (if any) with err, without
// shutting down the whole publisher.
func (p *Publisher[T]) Error(err error) {
	p.terminateActive(err, false)
}

// Complete terminates the active subscription (if any) with a normal
// completion, delivered serially after the last in-flight transfer step.
func (p *Publisher[T]) Complete() {
	witness := p.core.current(nil)
	if witness == nil {
		return
	}

	xfer := p.current.Load()
	finish := func() { p.core.signalComplete(witness) }
	if xfer != nil {
		xfer.FinishWithCallback(finish)
	} else {
		finish()
	}
	p.current.CompareAndSwap(xfer, nil)
}

// Stop shuts the publisher down entirely and signals err (default
// ErrInvalidState) to the formerly-active subscriber, if any. No further
// Subscribe call will ever succeed.
func (p *Publisher[T]) Stop(errs ...error) {
	err := error(ErrInvalidState)
	if len(errs) > 0 && errs[0] != nil {
		err = errs[0]
	}
	p.terminateActive(err, true)
}

// terminateActive delivers err to the active subscriber (if any) through its
// Transfer's finish callback, so the delivery happens serially after the
// last in-flight transfer step. When alsoShutdown is set, the whole
// publisher's slot is forced Closed first, and whichever subscriber shutdown
// actually witnessed receives err.
func (p *Publisher[T]) terminateActive(err error, alsoShutdown bool) {
	xfer := p.current.Load()

	var sub Subscriber[T]
	if alsoShutdown {
		sub = p.core.shutdown()
	} else {
		witness := p.core.current(nil)
		if witness != nil && p.core.casSlot(witness, p.core.terminalSlot()) {
			sub = witness.sub
		}
	}
	if sub == nil {
		return
	}

	finish := func() { p.core.deliverError(sub, err) }
	if xfer != nil {
		xfer.FinishWithCallback(finish)
	} else {
		finish()
	}
	p.current.CompareAndSwap(xfer, nil)
}

// wrappedGenerator adapts config.Generator into a Producer, capturing panics
// and routing both failure and exhaustion through the variant's configured
// behaviour. It only ever runs inside the subscription's transfer step, so
// direct error delivery here cannot overlap an OnNext.
func (p *Publisher[T]) wrappedGenerator() Producer[T] {
	return func() (T, bool, error) {
		var (
			item T
			zero T
			ok   bool
		)

		perr := safeCall(func() error {
			item, ok = p.config.Generator()
			return nil
		})
		if perr == nil {
			if ok {
				return item, true, nil
			}
			if p.config.Variant == VariantNonReusable {
				p.completeExhausted()
			}
			return zero, false, nil
		}

		wrapped := &GeneratorFailureError{Cause: perr}
		sub := p.core.shutdown()
		if xfer := p.current.Swap(nil); xfer != nil {
			xfer.Finish()
		}

		if sub != nil {
			p.core.deliverError(sub, wrapped)
		}
		p.runGeneratorErrorHook()

		if sub != nil {
			return zero, false, nil
		}
		// No subscriber received the wrapped failure: rethrow the original
		// to whoever drove this transfer.
		return zero, false, perr
	}
}

// completeExhausted finishes the active subscription because the generator
// will never yield again: OnComplete, then PostMortem, delivered serially
// under the transfer's runner.
func (p *Publisher[T]) completeExhausted() {
	witness := p.core.current(nil)
	if witness == nil {
		return
	}

	xfer := p.current.Load()
	finish := func() {
		if p.core.signalComplete(witness) {
			p.runPostMortem()
		}
	}
	if xfer != nil {
		if xfer.FinishWithCallback(finish) {
			p.current.CompareAndSwap(xfer, nil)
		}
	} else {
		finish()
	}
}

// handleNextError runs after a subscriber's OnNext panicked inside a
// transfer step and the slot was already cleared. The item goes to the
// Recycler, then the variant's configured behaviour runs.
func (p *Publisher[T]) handleNextError(item T) {
	p.recycle(item)

	switch p.config.Variant {
	case VariantReusable:
		// NOP: the slot already returned to Accepting.
	case VariantHybrid:
		p.core.shutdown()
		p.runPostMortem()
		p.runOnNextError()
	case VariantNonReusable:
		p.runPostMortem()
		p.runOnNextError()
	}
}

func (p *Publisher[T]) runOnNextError() {
	if p.config.OnNextError == nil {
		return
	}
	_ = safeCall(func() error {
		p.config.OnNextError(p)
		return nil
	})
}

func (p *Publisher[T]) runGeneratorErrorHook() {
	if p.config.OnGeneratorError != nil {
		_ = safeCall(func() error {
			p.config.OnGeneratorError()
			return nil
		})
	}

	switch p.config.Variant {
	case VariantReusable:
		// NOP beyond OnGeneratorError itself.
	case VariantHybrid, VariantNonReusable:
		p.runPostMortem()
	}
}

// runOnEachCancel runs the on-each-cancel hook and, for the non-reusable
// variant, post-mortem, joining a panic from either into a single error the
// caller surfaces as an UnsubscriptionError.
func (p *Publisher[T]) runOnEachCancel() error {
	var errs []error

	if p.config.OnEachCancel != nil {
		if err := safeCall(func() error {
			p.config.OnEachCancel()
			return nil
		}); err != nil {
			errs = append(errs, err)
		}
	}

	if p.config.Variant == VariantNonReusable {
		if err := p.runPostMortemErr(); err != nil {
			errs = append(errs, err)
		}
	}

	return joinErrors(errs...)
}

func (p *Publisher[T]) recycle(item T) {
	if p.config.Recycler == nil {
		return
	}
	_ = safeCall(func() error {
		p.config.Recycler(item)
		return nil
	})
}

func (p *Publisher[T]) runPostMortem() {
	_ = p.runPostMortemErr()
}

func (p *Publisher[T]) runPostMortemErr() error {
	if p.config.PostMortem == nil {
		return nil
	}
	return safeCall(func() error {
		p.config.PostMortem()
		return nil
	})
}
