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

// recorder captures every notification a Subscriber receives, with optional
// hooks so a test can misbehave (panic, cancel, block) from inside its own
// callbacks.
type recorder[T any] struct {
	mu        sync.Mutex
	sub       Subscription
	next      []T
	errs      []error
	completes int

	onSubscribe func(sub Subscription)
	onNext      func(item T)
	onError     func(err error)
}

var _ Subscriber[int] = (*recorder[int])(nil)

func (r *recorder[T]) OnSubscribe(sub Subscription) {
	r.mu.Lock()
	r.sub = sub
	hook := r.onSubscribe
	r.mu.Unlock()

	if hook != nil {
		hook(sub)
	}
}

func (r *recorder[T]) OnNext(item T) {
	r.mu.Lock()
	r.next = append(r.next, item)
	hook := r.onNext
	r.mu.Unlock()

	if hook != nil {
		hook(item)
	}
}

func (r *recorder[T]) OnError(err error) {
	r.mu.Lock()
	r.errs = append(r.errs, err)
	hook := r.onError
	r.mu.Unlock()

	if hook != nil {
		hook(err)
	}
}

func (r *recorder[T]) OnComplete() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.completes++
}

func (r *recorder[T]) subscription() Subscription {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sub
}

func (r *recorder[T]) items() []T {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]T(nil), r.next...)
}

func (r *recorder[T]) errors() []error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]error(nil), r.errs...)
}

func (r *recorder[T]) completed() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.completes
}

func (r *recorder[T]) terminals() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.completes + len(r.errs)
}

// fakeSubscription records Request/Cancel calls forwarded by a proxy under
// test.
type fakeSubscription struct {
	mu       sync.Mutex
	requests []uint64
	cancels  int
}

var _ Subscription = (*fakeSubscription)(nil)

func (s *fakeSubscription) Request(n uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, n)
}

func (s *fakeSubscription) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancels++
}

func (s *fakeSubscription) requested() []uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]uint64(nil), s.requests...)
}

func (s *fakeSubscription) cancelled() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancels
}
