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

import "github.com/prometheus/client_golang/prometheus"

// PublisherMetrics bundles the Prometheus collectors a caller wires around a
// Publisher. The core types never reference prometheus; this file is the
// only one in the package that imports it.
type PublisherMetrics struct {
	ItemsDelivered      *prometheus.CounterVec
	GeneratorErrors     *prometheus.CounterVec
	NextErrors          *prometheus.CounterVec
	SubscriptionsActive prometheus.Gauge
}

// NewPublisherMetrics constructs a PublisherMetrics and registers all of its
// collectors against reg. name (typically a publisher or stream name) is set
// as the constant "publisher" label of SubscriptionsActive; the counter
// vectors carry a "publisher" label whose value each caller supplies, as the
// Instrument helpers below do.
func NewPublisherMetrics(reg prometheus.Registerer, namespace, name string) *PublisherMetrics {
	m := &PublisherMetrics{
		ItemsDelivered: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "httpcore",
			Name:      "items_delivered_total",
			Help:      "Items delivered to a subscriber's OnNext.",
		}, []string{"publisher"}),
		GeneratorErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "httpcore",
			Name:      "generator_errors_total",
			Help:      "Panics recovered from a publisher's generator.",
		}, []string{"publisher"}),
		NextErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "httpcore",
			Name:      "next_errors_total",
			Help:      "Panics recovered from a subscriber's OnNext.",
		}, []string{"publisher"}),
		SubscriptionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "httpcore",
			Name:      "subscriptions_active",
			Help:      "Publishers currently holding an Active subscriber.",
			ConstLabels: prometheus.Labels{
				"publisher": name,
			},
		}),
	}

	reg.MustRegister(m.ItemsDelivered, m.GeneratorErrors, m.NextErrors, m.SubscriptionsActive)
	return m
}

// NewInstrumentedGenerator wraps gen so every successful yield increments
// m.ItemsDelivered, labeled by name.
func NewInstrumentedGenerator[T any](m *PublisherMetrics, name string, gen Generator[T]) Generator[T] {
	if m == nil {
		return gen
	}

	counter := m.ItemsDelivered.WithLabelValues(name)
	return func() (T, bool) {
		item, ok := gen()
		if ok {
			counter.Inc()
		}
		return item, ok
	}
}

// InstrumentGeneratorError increments m.GeneratorErrors for name. Intended
// to be passed (wrapped in a closure) as PublisherConfig.OnGeneratorError.
func InstrumentGeneratorError(m *PublisherMetrics, name string) func() {
	if m == nil {
		return func() {}
	}
	return func() { m.GeneratorErrors.WithLabelValues(name).Inc() }
}

// InstrumentNextError increments m.NextErrors for name. Intended to be
// wrapped as PublisherConfig.OnNextError.
func InstrumentNextError[T any](m *PublisherMetrics, name string) func(*Publisher[T]) {
	if m == nil {
		return func(*Publisher[T]) {}
	}
	return func(*Publisher[T]) { m.NextErrors.WithLabelValues(name).Inc() }
}
