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

// Package prober queries a single OID with a single community string,
// retrying transient failures.
package prober

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/gosnmp/gosnmp"

	"github.com/snmpenum/snmp_enum/scraper"
)

// DefaultBackoff is the pause between two attempts of the same probe.
const DefaultBackoff = time.Second

// Reporter receives every attempt as soon as it completes.
type Reporter interface {
	ReportAttempt(a Attempt, o Outcome)
}

type Options struct {
	Retries int
	Timeout time.Duration
	Backoff time.Duration
	// Version is 1 or 2c, the zero value being gosnmp.Version1.
	Version gosnmp.SnmpVersion
}

type Prober struct {
	client   scraper.SNMPScraper
	target   string
	opts     Options
	reporter Reporter
	logger   *slog.Logger
	metrics  Metrics
}

// New configures client for probing target. Retries is the number of
// attempts and must be at least 1.
func New(client scraper.SNMPScraper, target string, opts Options, reporter Reporter, logger *slog.Logger, metrics Metrics) (*Prober, error) {
	if opts.Retries < 1 {
		return nil, fmt.Errorf("retries must be 1 or more. Got: %d", opts.Retries)
	}
	if opts.Timeout <= 0 {
		return nil, fmt.Errorf("timeout must be positive. Got: %s", opts.Timeout)
	}
	if opts.Backoff < 0 {
		opts.Backoff = 0
	}
	var sent time.Time
	client.SetOptions(
		func(g *gosnmp.GoSNMP) {
			g.OnSent = func(x *gosnmp.GoSNMP) {
				sent = time.Now()
				metrics.SNMPPackets.Inc()
			}
			g.OnRecv = func(x *gosnmp.GoSNMP) {
				metrics.SNMPDuration.Observe(time.Since(sent).Seconds())
			}
		},
		func(g *gosnmp.GoSNMP) {
			g.Version = opts.Version
			g.Timeout = opts.Timeout
			g.Retries = 0
		},
	)
	return &Prober{
		client:   client,
		target:   target,
		opts:     opts,
		reporter: reporter,
		logger:   logger,
		metrics:  metrics,
	}, nil
}

// Probe queries oid on the target using community. A timeout ends the probe
// at once; transport and SNMP errors are retried after the backoff until the
// attempts run out. Probe never fails: an Outcome without a value is the
// failure.
func (p *Prober) Probe(ctx context.Context, community, oid string) Outcome {
	p.client.SetOptions(func(g *gosnmp.GoSNMP) {
		g.Context = ctx
		g.Community = community
	})
	logger := p.logger.With("community", community, "oid", oid)

	var out Outcome
	for try := 1; try <= p.opts.Retries; try++ {
		p.metrics.Attempts.Inc()
		if try > 1 {
			p.metrics.SNMPRetries.Inc()
		}
		out = p.get(oid)
		out.Attempts = try
		if !out.HasValue() && ctx.Err() != nil {
			out = Outcome{Kind: TransportError, Err: ctx.Err(), Attempts: try}
			break
		}
		logger.Debug("Probe attempt completed", "attempt", try, "of", p.opts.Retries, "outcome", out.Kind, "err", out.Err)
		p.reporter.ReportAttempt(Attempt{
			Host:      p.target,
			Community: community,
			Oid:       oid,
			Try:       try,
			Of:        p.opts.Retries,
		}, out)
		if out.Kind == Value || out.Kind == Timeout || try == p.opts.Retries {
			break
		}
		if err := sleep(ctx, p.opts.Backoff); err != nil {
			out = Outcome{Kind: TransportError, Err: err, Attempts: try}
			break
		}
	}
	p.metrics.Probes.WithLabelValues(out.Kind.String()).Inc()
	return out
}

func (p *Prober) get(oid string) Outcome {
	packet, err := p.client.Get([]string{oid})
	if err != nil {
		if errors.Is(err, scraper.ErrTimeout) {
			return Outcome{Kind: Timeout, Err: err}
		}
		return Outcome{Kind: TransportError, Err: err}
	}
	if packet.Error != gosnmp.NoError {
		serr := &SNMPError{Status: packet.Error.String(), Index: int(packet.ErrorIndex)}
		if i := serr.Index; i > 0 && i <= len(packet.Variables) {
			serr.Oid = strings.TrimPrefix(packet.Variables[i-1].Name, ".")
		}
		return Outcome{Kind: ProtocolError, Err: serr}
	}
	if len(packet.Variables) == 0 {
		return Outcome{Kind: ProtocolError, Err: &SNMPError{Status: "EmptyResponse"}}
	}
	pdu := packet.Variables[0]
	switch pdu.Type {
	case gosnmp.NoSuchObject, gosnmp.NoSuchInstance, gosnmp.EndOfMibView:
		return Outcome{Kind: ProtocolError, Err: &SNMPError{
			Status: pdu.Type.String(),
			Index:  1,
			Oid:    strings.TrimPrefix(pdu.Name, "."),
		}}
	}
	return Outcome{Kind: Value, PDU: pdu}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
