// Copyright 2026 The Prometheus Authors
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package prober

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "snmp_enum"

type Metrics struct {
	Probes               *prometheus.CounterVec
	Attempts             prometheus.Counter
	SNMPPackets          prometheus.Counter
	SNMPRetries          prometheus.Counter
	SNMPDuration         prometheus.Histogram
	CommunitiesAbandoned prometheus.Counter
}

// NewMetrics creates the run metrics and registers them with reg, which may
// be nil.
func NewMetrics(reg prometheus.Registerer) Metrics {
	m := Metrics{
		Probes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "probes_total",
				Help:      "Probes of one OID with one community string, by final outcome.",
			},
			[]string{"outcome"},
		),
		Attempts: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "attempts_total",
				Help:      "Requests attempted, including retries.",
			},
		),
		SNMPPackets: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "packets_sent_total",
				Help:      "SNMP packets sent to the target.",
			},
		),
		SNMPRetries: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "packets_retried_total",
				Help:      "Attempts made after a failed first attempt.",
			},
		),
		SNMPDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "request_duration_seconds",
				Help:      "Time between sending a request and receiving its response.",
				Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
			},
		),
		CommunitiesAbandoned: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "communities_abandoned_total",
				Help:      "Community strings abandoned after failing on the final OID.",
			},
		),
	}
	for _, k := range []Kind{Value, Timeout, TransportError, ProtocolError} {
		m.Probes.WithLabelValues(k.String())
	}
	if reg != nil {
		reg.MustRegister(
			m.Probes,
			m.Attempts,
			m.SNMPPackets,
			m.SNMPRetries,
			m.SNMPDuration,
			m.CommunitiesAbandoned,
		)
	}
	return m
}
