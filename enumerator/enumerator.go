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

// Package enumerator drives the community string × OID loop against one
// target and decides when a community string is abandoned.
package enumerator

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/snmpenum/snmp_enum/config"
	"github.com/snmpenum/snmp_enum/prober"
	"github.com/snmpenum/snmp_enum/scraper"
)

// ClientFactory creates one SNMP client per worker.
type ClientFactory func(logger *slog.Logger) (scraper.SNMPScraper, error)

type Settings struct {
	Target string
	OIDs   []config.OID
	Probe  prober.Options
	// Concurrency is the number of community strings probed at once.
	Concurrency int
}

type Enumerator struct {
	settings  Settings
	newClient ClientFactory
	reporter  prober.Reporter
	logger    *slog.Logger
	metrics   prober.Metrics
}

func New(settings Settings, newClient ClientFactory, reporter prober.Reporter, logger *slog.Logger, metrics prober.Metrics) (*Enumerator, error) {
	if len(settings.OIDs) == 0 {
		return nil, fmt.Errorf("no OIDs to query")
	}
	if settings.Concurrency < 1 {
		settings.Concurrency = 1
	}
	return &Enumerator{
		settings:  settings,
		newClient: newClient,
		reporter:  reporter,
		logger:    logger,
		metrics:   metrics,
	}, nil
}

// Run probes every OID with every community, in order. Rows sharing a
// community string form one group that a single worker runs in wordlist
// order, so the FailureMemo and the rows come out as in a sequential run
// whatever the concurrency. Groups are handed out in order of first
// appearance. The error is non-nil only if a client could not be set up or
// ctx was cancelled, in which case the results are partial.
func (e *Enumerator) Run(ctx context.Context, communities []string) (*Results, error) {
	results := &Results{
		Rows: make([]Row, len(communities)),
		Memo: NewFailureMemo(),
	}
	for i, c := range communities {
		results.Rows[i].Community = c
	}
	if len(communities) == 0 {
		return results, nil
	}
	groups := groupRows(communities)
	workerCount := e.settings.Concurrency
	if workerCount > len(groups) {
		workerCount = len(groups)
	}
	e.logger.Info("Starting enumeration", "target", e.settings.Target, "communities", len(communities),
		"distinct", len(groups), "oids", len(e.settings.OIDs), "workers", workerCount)

	g, gctx := errgroup.WithContext(ctx)
	work := make(chan []int)
	for i := 0; i < workerCount; i++ {
		g.Go(func() error {
			logger := e.logger.With("worker", i)
			client, err := e.newClient(logger)
			if err != nil {
				return fmt.Errorf("failed to create snmp client: %w", err)
			}
			if err := client.Connect(); err != nil {
				return err
			}
			defer client.Close()
			p, err := prober.New(client, e.settings.Target, e.settings.Probe, e.reporter, logger, e.metrics)
			if err != nil {
				return err
			}
			for rows := range work {
				for _, idx := range rows {
					results.Rows[idx] = e.enumerateRow(gctx, p, results.Memo, communities[idx], logger)
				}
			}
			return nil
		})
	}
	g.Go(func() error {
		defer close(work)
		for _, rows := range groups {
			select {
			case <-gctx.Done():
				return gctx.Err()
			case work <- rows:
			}
		}
		return nil
	})
	err := g.Wait()
	if err == nil {
		err = ctx.Err()
	}
	e.logger.Info("Finished enumeration", "target", e.settings.Target, "values", results.Values(),
		"abandoned", results.Memo.Len())
	return results, err
}

// groupRows returns the row indices of each distinct community string, in
// order of first appearance.
func groupRows(communities []string) [][]int {
	pos := map[string]int{}
	var groups [][]int
	for i, c := range communities {
		g, ok := pos[c]
		if !ok {
			g = len(groups)
			pos[c] = g
			groups = append(groups, nil)
		}
		groups[g] = append(groups[g], i)
	}
	return groups
}

func (e *Enumerator) enumerateRow(ctx context.Context, p *prober.Prober, memo *FailureMemo, community string, logger *slog.Logger) Row {
	row := Row{Community: community}
	final := len(e.settings.OIDs) - 1
	for i, oid := range e.settings.OIDs {
		if ctx.Err() != nil {
			break
		}
		if memo.Abandoned(community) {
			row.Skipped = i == 0
			logger.Debug("Skipping abandoned community string", "community", community, "remaining_oids", len(e.settings.OIDs)-i)
			break
		}
		out := p.Probe(ctx, community, oid.Oid)
		if ctx.Err() != nil && !out.HasValue() {
			break
		}
		row.Probes++
		if out.HasValue() {
			row.Values++
			memo.Redeem(community)
			continue
		}
		row.Failures++
		if i == final && memo.Abandon(community) {
			e.metrics.CommunitiesAbandoned.Inc()
			logger.Debug("Abandoning community string", "community", community, "oid", oid.Oid, "outcome", out.Kind)
		}
	}
	row.Abandoned = memo.Abandoned(community)
	return row
}

// Row is what probing one community string produced.
type Row struct {
	Community string
	Probes    int
	Values    int
	Failures  int
	// Abandoned is set if the community ended the row in the FailureMemo.
	Abandoned bool
	// Skipped is set if the community was already abandoned by an earlier row.
	Skipped bool
}

func (r Row) Status() string {
	switch {
	case r.Skipped:
		return "skipped"
	case r.Abandoned:
		return "abandoned"
	case r.Values > 0:
		return "responded"
	case r.Probes == 0:
		return "not probed"
	default:
		return "no values"
	}
}

type Results struct {
	Rows []Row
	Memo *FailureMemo
}

func (r *Results) Values() int {
	n := 0
	for _, row := range r.Rows {
		n += row.Values
	}
	return n
}

func (r *Results) Failures() int {
	n := 0
	for _, row := range r.Rows {
		n += row.Failures
	}
	return n
}
