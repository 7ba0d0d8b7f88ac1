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

// Subscriber is the consumer of a Publisher. Exactly one Subscriber may be
// active on a given Publisher at a time. The sequence of calls a Subscriber
// observes is: exactly one OnSubscribe, followed by zero or more OnNext,
// followed by at most one of OnComplete or OnError. No two calls for the
// same subscription ever overlap.
type Subscriber[T any] interface {
	// OnSubscribe is called once, synchronously from within Subscribe, with
	// a Subscription the subscriber uses to request items and/or cancel.
	// If OnSubscribe panics, the panic is returned to the caller of Subscribe
	// as a SubscriberFailureError after the subscriber also receives an
	// OnError.
	OnSubscribe(sub Subscription)
	// OnNext delivers one item. Never called concurrently with itself,
	// OnSubscribe, or a terminal event for the same subscription.
	OnNext(item T)
	// OnError delivers a terminal error. Called at most once.
	OnError(err error)
	// OnComplete delivers terminal, successful completion. Called at most
	// once, and never after OnError.
	OnComplete()
}

// SubscriberFuncs adapts plain functions into a Subscriber. Any of the
// fields may be left nil, in which case the corresponding notification is
// silently dropped.
type SubscriberFuncs[T any] struct {
	Subscribe func(sub Subscription)
	Next      func(item T)
	Error     func(err error)
	Complete  func()
}

var _ Subscriber[int] = SubscriberFuncs[int]{}

func (f SubscriberFuncs[T]) OnSubscribe(sub Subscription) {
	if f.Subscribe != nil {
		f.Subscribe(sub)
	}
}

func (f SubscriberFuncs[T]) OnNext(item T) {
	if f.Next != nil {
		f.Next(item)
	}
}

func (f SubscriberFuncs[T]) OnError(err error) {
	if f.Error != nil {
		f.Error(err)
	}
}

func (f SubscriberFuncs[T]) OnComplete() {
	if f.Complete != nil {
		f.Complete()
	}
}
