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

// runnerState values. Two facts are encoded: how many completions the
// current logical run still owes (0, 1, or 2), and whether a re-run is
// pending. A synchronous run owes exactly one completion (the delegate's
// normal return); an asynchronous run owes two (the return plus an explicit
// Complete call).
const (
	runnerEnd    int32 = iota
	runnerBegin1       // running, one completion owed
	runnerAgain1       // runnerBegin1 plus a pending re-run
	runnerBegin2       // running, two completions owed (async mode)
	runnerAgain2       // runnerBegin2 plus a pending re-run
)

// RunnerMode selects whether a SerialRunner's logical run ends as soon as the
// delegate returns (RunnerSync), or only once the caller also invokes
// Complete (RunnerAsync).
type RunnerMode int

const (
	RunnerSync RunnerMode = iota
	RunnerAsync
)

// SerialRunner wraps a delegate so that concurrent or recursive invocations
// of Run never overlap. A call that arrives while the delegate is already
// running collapses into a single pending re-run, consumed either by the
// goroutine currently executing the delegate, or by whichever later caller
// wins the race to pick it up. Run never blocks.
type SerialRunner struct {
	mode     RunnerMode
	state    int32
	delegate func() error
}

// NewSerialRunner constructs a SerialRunner around delegate, running in mode.
func NewSerialRunner(mode RunnerMode, delegate func() error) *SerialRunner {
	return &SerialRunner{mode: mode, delegate: delegate}
}

// Run attempts to execute the delegate. If no run is in progress, it runs
// the delegate (possibly several times in a row, if concurrent calls arrive
// while it's running) on the calling goroutine and returns the delegate's
// error, if any. If a run is already in progress, it records a pending
// re-run and returns nil immediately.
func (r *SerialRunner) Run() error {
	for {
		cur := atomic.LoadInt32(&r.state)

		switch cur {
		case runnerEnd:
			begin := runnerBegin1
			if r.mode == RunnerAsync {
				begin = runnerBegin2
			}
			if atomic.CompareAndSwapInt32(&r.state, runnerEnd, begin) {
				return r.execute()
			}
			// lost the race to another caller; retry.

		case runnerBegin1, runnerBegin2:
			again := cur + 1
			if atomic.CompareAndSwapInt32(&r.state, cur, again) {
				return nil // collapsed into the pending re-run.
			}

		case runnerAgain1, runnerAgain2:
			// A re-run is already scheduled; nothing more for this caller to do.
			return nil
		}
	}
}

// execute runs the delegate on the calling goroutine, then consumes the
// completion owed by the run path. A synchronous runner keeps consuming
// pending re-runs in a loop until none remain. An async runner's logical run
// stays open (one completion still owed) until Complete settles it.
func (r *SerialRunner) execute() error {
	rebegin := runnerBegin1
	if r.mode == RunnerAsync {
		rebegin = runnerBegin2
	}

	for {
		if err := safeCall(r.delegate); err != nil {
			return r.fail(err)
		}

		rerun := false
		for !rerun {
			cur := atomic.LoadInt32(&r.state)
			switch cur {
			case runnerBegin1:
				// Sync mode: the run is over. Async mode: the delegate
				// already consumed its completion recursively, same thing.
				if atomic.CompareAndSwapInt32(&r.state, runnerBegin1, runnerEnd) {
					return nil
				}
			case runnerAgain1:
				// The run is settled with a re-run owed: start a fresh
				// logical run on this goroutine.
				rerun = atomic.CompareAndSwapInt32(&r.state, runnerAgain1, rebegin)
			case runnerBegin2:
				if atomic.CompareAndSwapInt32(&r.state, runnerBegin2, runnerBegin1) {
					return nil
				}
			case runnerAgain2:
				if atomic.CompareAndSwapInt32(&r.state, runnerAgain2, runnerAgain1) {
					return nil
				}
			}
		}
	}
}

// fail settles a delegate error: the pending re-run, if any, is cleared (no
// retry on error), and the error propagates to the caller. In async mode the
// error consumes only the completion owed by the run path; the explicit
// Complete is still expected to settle the run.
func (r *SerialRunner) fail(err error) error {
	for {
		cur := atomic.LoadInt32(&r.state)

		next := runnerEnd
		if cur == runnerBegin2 || cur == runnerAgain2 {
			next = runnerBegin1
		}
		if atomic.CompareAndSwapInt32(&r.state, cur, next) {
			return err
		}
	}
}

// Complete signals the explicit completion half of an async-mode run. It
// fails with ErrInvalidState when called on a sync-mode runner or when no
// run is active. If consuming the last owed completion reveals a pending
// re-run, Complete starts the next logical run on the calling goroutine.
func (r *SerialRunner) Complete() error {
	if r.mode != RunnerAsync {
		return ErrInvalidState
	}

	for {
		cur := atomic.LoadInt32(&r.state)

		switch cur {
		case runnerEnd:
			return ErrInvalidState

		case runnerBegin1:
			if atomic.CompareAndSwapInt32(&r.state, runnerBegin1, runnerEnd) {
				return nil
			}

		case runnerAgain1:
			// The prior run is settled and a re-run is owed: start a fresh
			// logical run on this goroutine.
			if atomic.CompareAndSwapInt32(&r.state, runnerAgain1, runnerBegin2) {
				return r.execute()
			}

		case runnerBegin2:
			// The delegate is still on some goroutine's stack (possibly our
			// own, recursively). Consume one completion; the run path's own
			// decrement settles the rest, so no delegate runs here.
			if atomic.CompareAndSwapInt32(&r.state, runnerBegin2, runnerBegin1) {
				return nil
			}

		case runnerAgain2:
			if atomic.CompareAndSwapInt32(&r.state, runnerAgain2, runnerAgain1) {
				return nil
			}
		}
	}
}

// IsIdle reports whether the runner is currently not running. Intended for
// tests and diagnostics, not for synchronization.
func (r *SerialRunner) IsIdle() bool {
	return atomic.LoadInt32(&r.state) == runnerEnd
}
