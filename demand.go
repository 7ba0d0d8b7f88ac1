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
	"math"
	"sync/atomic"
)

// demandFinished and demandUnbounded are the two sentinel values a Demand
// counter's 64-bit cell can hold outside of a plain non-negative count.
const (
	demandFinished  int64 = -1
	demandUnbounded int64 = math.MaxInt64
)

// Demand is a saturating 64-bit counter tracking how many more items a
// subscriber is willing to accept. It is mutated only through CAS loops; it
// never blocks and never takes a lock.
type Demand struct {
	n int64
}

// NewDemand returns a Demand initialized to zero.
func NewDemand() *Demand {
	return &Demand{}
}

// Increase adds n to the counter with saturating semantics, capping at
// demandUnbounded. A no-op if the counter has already finished. Fails fast
// with ErrInvalidDemand if n < 1.
func (d *Demand) Increase(n int64) error {
	if n < 1 {
		return ErrInvalidDemand
	}

	for {
		cur := atomic.LoadInt64(&d.n)
		if cur == demandFinished {
			return nil
		}
		if cur == demandUnbounded {
			return nil
		}

		next := cur + n
		// saturate on overflow or once unbounded territory is reached.
		if next < cur || next >= demandUnbounded {
			next = demandUnbounded
		}

		if atomic.CompareAndSwapInt64(&d.n, cur, next) {
			return nil
		}
	}
}

// TryDecrementAfterDelivery decrements the counter by one unless it is
// already finished, unbounded, or already at zero. Returns the value
// observed after decrement succeeded, or the unchanged value otherwise.
func (d *Demand) TryDecrementAfterDelivery() (after int64, decremented bool) {
	for {
		cur := atomic.LoadInt64(&d.n)
		if cur == demandFinished || cur == demandUnbounded || cur <= 0 {
			return cur, false
		}

		next := cur - 1
		if atomic.CompareAndSwapInt64(&d.n, cur, next) {
			return next, true
		}
	}
}

// Finish transitions the counter to the finished sentinel. Returns true only
// for the caller that actually performed the transition.
func (d *Demand) Finish() bool {
	for {
		cur := atomic.LoadInt64(&d.n)
		if cur == demandFinished {
			return false
		}
		if atomic.CompareAndSwapInt64(&d.n, cur, demandFinished) {
			return true
		}
	}
}

// IsFinished reports whether the counter has finished.
func (d *Demand) IsFinished() bool {
	return atomic.LoadInt64(&d.n) == demandFinished
}

// IsUnbounded reports whether the counter has saturated to unbounded.
func (d *Demand) IsUnbounded() bool {
	return atomic.LoadInt64(&d.n) == demandUnbounded
}

// Value returns the current raw count. It is either demandFinished,
// demandUnbounded, or a non-negative count; useful for tests and metrics.
func (d *Demand) Value() int64 {
	return atomic.LoadInt64(&d.n)
}

// Positive reports whether the counter currently permits a delivery, i.e. it
// is unbounded or a strictly positive count.
func (d *Demand) Positive() bool {
	cur := atomic.LoadInt64(&d.n)
	return cur == demandUnbounded || cur > 0
}
