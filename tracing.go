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

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracedGenerator wraps gen so every call runs inside a span named
// "httpcore.generate", recording whether an item was produced and marking
// the span as errored if gen panics (the panic itself still propagates
// through the normal GeneratorFailureError path; this only annotates it).
func TracedGenerator[T any](tracer trace.Tracer, ctx context.Context, gen Generator[T]) Generator[T] {
	if tracer == nil {
		return gen
	}

	return func() (item T, ok bool) {
		_, span := tracer.Start(ctx, "httpcore.generate")
		defer span.End()

		err := safeCall(func() error {
			item, ok = gen()
			return nil
		})
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			panic(err)
		}

		span.SetAttributes(attribute.Bool("httpcore.generator.produced", ok))
		return item, ok
	}
}

// TracedSubscriber wraps sub with a subscription-level span, started as a
// new root span in OnSubscribe. Each OnNext runs inside its own child span of
// it; OnError and OnComplete record their outcome on the subscription-level
// span itself and end it.
type TracedSubscriber[T any] struct {
	Tracer trace.Tracer
	Next   Subscriber[T]

	ctx  context.Context
	span trace.Span
}

var _ Subscriber[int] = (*TracedSubscriber[int])(nil)

func (s *TracedSubscriber[T]) OnSubscribe(sub Subscription) {
	s.ctx, s.span = s.Tracer.Start(context.Background(), "httpcore.subscription")
	s.Next.OnSubscribe(sub)
}

func (s *TracedSubscriber[T]) OnNext(item T) {
	_, span := s.Tracer.Start(s.ctx, "httpcore.on_next")
	defer span.End()
	s.Next.OnNext(item)
}

func (s *TracedSubscriber[T]) OnError(err error) {
	defer s.span.End()
	s.span.RecordError(err)
	s.span.SetStatus(codes.Error, err.Error())
	s.Next.OnError(err)
}

func (s *TracedSubscriber[T]) OnComplete() {
	defer s.span.End()
	s.span.SetStatus(codes.Ok, "")
	s.Next.OnComplete()
}
