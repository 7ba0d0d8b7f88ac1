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

// Producer yields the next item for a Transfer to move, or ok=false when
// none is currently available. A producer error aborts the transfer.
type Producer[T any] func() (item T, ok bool, err error)

// Consumer accepts one item moved by a Transfer. An error aborts the
// transfer; the item is still considered delivered (demand is decremented).
type Consumer[T any] func(item T) error

// OnConsumerError is invoked, best-effort, with the item that a Consumer
// failed on. A panic raised from it is swallowed.
type OnConsumerError[T any] func(item T, err error)

// Transfer moves items one at a time from a Producer to a Consumer, gated by
// a Demand counter, using a SerialRunner so the producer and consumer are
// never invoked concurrently or recursively with one another.
type Transfer[T any] struct {
	demand          *Demand
	producer        Producer[T]
	consumer        Consumer[T]
	onConsumerError OnConsumerError[T]
	runner          *SerialRunner

	finishCallback atomic.Pointer[func()]
}

// NewTransfer constructs a Transfer around producer and consumer.
// onConsumerError may be nil.
func NewTransfer[T any](producer Producer[T], consumer Consumer[T], onConsumerError OnConsumerError[T]) *Transfer[T] {
	t := &Transfer[T]{
		demand:          NewDemand(),
		producer:        producer,
		consumer:        consumer,
		onConsumerError: onConsumerError,
	}
	t.runner = NewSerialRunner(RunnerSync, t.transferStep)
	return t
}

// IncreaseDemand adds n to the outstanding demand and attempts a transfer.
// Fails fast with ErrInvalidDemand when n < 1.
func (t *Transfer[T]) IncreaseDemand(n int64) error {
	if err := t.demand.Increase(n); err != nil {
		return err
	}
	return t.TryTransfer()
}

// TryTransfer asks the serial runner to execute one transfer step. Safe to
// call from any goroutine at any time; never blocks.
func (t *Transfer[T]) TryTransfer() error {
	return t.runner.Run()
}

// Finish transitions the demand counter to finished. Returns true only for
// the caller that performed the transition.
func (t *Transfer[T]) Finish() bool {
	return t.demand.Finish()
}

// FinishWithCallback transitions the demand counter to finished and, if this
// call performed the transition, arranges for callback to run exactly once,
// serially, under the transfer's runner, after the in-flight transfer (if
// any) settles.
func (t *Transfer[T]) FinishWithCallback(callback func()) bool {
	if !t.demand.Finish() {
		return false
	}

	cb := callback
	t.finishCallback.Store(&cb)
	_ = t.TryTransfer()
	return true
}

// transferStep is the delegate run by the SerialRunner. It implements the
// single producer-call-then-consumer-call step described by the transfer
// protocol.
func (t *Transfer[T]) transferStep() error {
	if t.demand.IsFinished() {
		if cbPtr := t.finishCallback.Swap(nil); cbPtr != nil {
			(*cbPtr)()
		}
		return nil
	}

	if !t.demand.Positive() {
		return nil
	}

	item, ok, err := t.producer()
	if err != nil {
		t.demand.Finish()
		return err
	}
	if !ok {
		return nil
	}

	if err := t.consumer(item); err != nil {
		t.demand.TryDecrementAfterDelivery()
		t.demand.Finish()
		if t.onConsumerError != nil {
			_ = safeCall(func() error {
				t.onConsumerError(item, err)
				return nil
			})
		}
		return err
	}

	t.demand.TryDecrementAfterDelivery()

	if t.demand.Positive() {
		_ = t.TryTransfer()
	}

	return nil
}
