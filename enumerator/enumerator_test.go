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

package enumerator

import (
	"context"
	"errors"
	"log/slog"
	"reflect"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/gosnmp/gosnmp"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/prometheus/common/promslog"

	"github.com/snmpenum/snmp_enum/config"
	"github.com/snmpenum/snmp_enum/prober"
	"github.com/snmpenum/snmp_enum/scraper"
)

type line struct {
	Community string
	Oid       string
	Kind      prober.Kind
}

type recordingReporter struct {
	mu    sync.Mutex
	lines []line
}

func (r *recordingReporter) ReportAttempt(a prober.Attempt, o prober.Outcome) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lines = append(r.lines, line{Community: a.Community, Oid: a.Oid, Kind: o.Kind})
}

func (r *recordingReporter) count(community string, kind prober.Kind) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, l := range r.lines {
		if l.Community == community && l.Kind == kind {
			n++
		}
	}
	return n
}

func (r *recordingReporter) countCommunity(community string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, l := range r.lines {
		if l.Community == community {
			n++
		}
	}
	return n
}

// fullAgent answers every default OID.
func fullAgent() map[string]gosnmp.SnmpPDU {
	responses := map[string]gosnmp.SnmpPDU{}
	for _, o := range config.DefaultOIDs() {
		responses[o.Oid] = gosnmp.SnmpPDU{Name: "." + o.Oid, Type: gosnmp.OctetString, Value: []byte(o.Description)}
	}
	return responses
}

type fixture struct {
	mock     interface{ CallGet() []scraper.Call }
	reporter *recordingReporter
	metrics  prober.Metrics
	enum     *Enumerator
}

func newFixture(t *testing.T, responses map[string]gosnmp.SnmpPDU, concurrency int, communities ...string) *fixture {
	t.Helper()
	mock := scraper.NewMockSNMPScraper(responses, communities...)
	reporter := &recordingReporter{}
	metrics := prober.NewMetrics(nil)
	factory := func(*slog.Logger) (scraper.SNMPScraper, error) {
		return mock.Clone(), nil
	}
	enum, err := New(Settings{
		Target:      "192.0.2.1",
		OIDs:        config.DefaultOIDs(),
		Probe:       prober.Options{Retries: 1, Timeout: time.Second, Version: gosnmp.Version2c},
		Concurrency: concurrency,
	}, factory, reporter, promslog.NewNopLogger(), metrics)
	if err != nil {
		t.Fatalf("New returned an error: %v", err)
	}
	return &fixture{mock: mock, reporter: reporter, metrics: metrics, enum: enum}
}

func TestUnreachableTarget(t *testing.T) {
	// Only "nobody" is accepted, so every probe times out.
	f := newFixture(t, fullAgent(), 1, "nobody")

	communities := []string{"public", "private", "cisco"}
	results, err := f.enum.Run(context.Background(), communities)
	if err != nil {
		t.Fatalf("Run returned an error: %v", err)
	}
	if results.Values() != 0 {
		t.Errorf("expected no values, got %d", results.Values())
	}
	if !reflect.DeepEqual(results.Memo.Communities(), []string{"cisco", "private", "public"}) {
		t.Errorf("expected every community to be abandoned, got %v", results.Memo.Communities())
	}
	for _, c := range communities {
		if n := f.reporter.count(c, prober.Timeout); n != 12 {
			t.Errorf("expected 12 timeouts for %s, got %d", c, n)
		}
	}
	if got := testutil.ToFloat64(f.metrics.CommunitiesAbandoned); got != 3 {
		t.Errorf("expected 3 abandoned communities, got %v", got)
	}
}

func TestWordlistOnlyPublicAnswers(t *testing.T) {
	f := newFixture(t, fullAgent(), 1, "public")

	results, err := f.enum.Run(context.Background(), []string{"wrong1", "public", "wrong2"})
	if err != nil {
		t.Fatalf("Run returned an error: %v", err)
	}
	if n := f.reporter.count("public", prober.Value); n != 12 {
		t.Errorf("expected 12 values for public, got %d", n)
	}
	for _, c := range []string{"wrong1", "wrong2"} {
		if n := f.reporter.count(c, prober.Value); n != 0 {
			t.Errorf("expected no values for %s, got %d", c, n)
		}
		if n := f.reporter.countCommunity(c); n == 0 {
			t.Errorf("expected diagnostic lines for %s", c)
		}
	}
	if !reflect.DeepEqual(results.Memo.Communities(), []string{"wrong1", "wrong2"}) {
		t.Errorf("unexpected abandoned communities %v", results.Memo.Communities())
	}
	want := []string{"abandoned", "responded", "abandoned"}
	for i, row := range results.Rows {
		if row.Status() != want[i] {
			t.Errorf("row %d (%s): status %q, want %q", i, row.Community, row.Status(), want[i])
		}
	}
}

func TestDefaultCommunityProbesEveryOID(t *testing.T) {
	f := newFixture(t, fullAgent(), 1, "public")

	results, err := f.enum.Run(context.Background(), []string{config.DefaultCommunity})
	if err != nil {
		t.Fatalf("Run returned an error: %v", err)
	}
	calls := f.mock.CallGet()
	if len(calls) != 12 {
		t.Fatalf("expected 12 gets, got %d", len(calls))
	}
	for i, o := range config.DefaultOIDs() {
		if calls[i] != (scraper.Call{Community: "public", Oid: o.Oid}) {
			t.Errorf("call %d: got %+v, want public/%s", i, calls[i], o.Oid)
		}
	}
	if results.Rows[0].Values != 12 || results.Memo.Len() != 0 {
		t.Errorf("unexpected results %+v, abandoned %v", results.Rows[0], results.Memo.Communities())
	}
}

func TestOnlyFinalOIDFailureAbandons(t *testing.T) {
	oids := config.DefaultOIDs()
	final := oids[len(oids)-1].Oid

	// Everything but the final OID fails: never abandoned.
	onlyFinal := map[string]gosnmp.SnmpPDU{final: fullAgent()[final]}
	f := newFixture(t, onlyFinal, 1)
	results, err := f.enum.Run(context.Background(), []string{"public", "public"})
	if err != nil {
		t.Fatalf("Run returned an error: %v", err)
	}
	if results.Memo.Len() != 0 {
		t.Errorf("community failing all but the final OID was abandoned")
	}
	if len(f.mock.CallGet()) != 24 {
		t.Errorf("expected both rows to probe all 12 OIDs, got %d gets", len(f.mock.CallGet()))
	}

	// Only the final OID fails: abandoned, and the duplicate row is skipped.
	allButFinal := fullAgent()
	delete(allButFinal, final)
	f = newFixture(t, allButFinal, 1)
	results, err = f.enum.Run(context.Background(), []string{"public", "public"})
	if err != nil {
		t.Fatalf("Run returned an error: %v", err)
	}
	if !results.Memo.Abandoned("public") {
		t.Errorf("community failing the final OID was not abandoned")
	}
	if len(f.mock.CallGet()) != 12 {
		t.Errorf("expected the duplicate row to be skipped, got %d gets", len(f.mock.CallGet()))
	}
	if !results.Rows[1].Skipped || results.Rows[1].Probes != 0 {
		t.Errorf("expected second row to be skipped, got %+v", results.Rows[1])
	}
	if results.Rows[0].Values != 11 || results.Rows[0].Failures != 1 {
		t.Errorf("unexpected first row %+v", results.Rows[0])
	}
}

func TestDuplicatesMatchSequentialRun(t *testing.T) {
	oids := config.DefaultOIDs()
	allButFinal := fullAgent()
	delete(allButFinal, oids[len(oids)-1].Oid)
	communities := []string{"public", "private", "public", "private", "public"}

	var want []Row
	for _, concurrency := range []int{1, 2, 4} {
		f := newFixture(t, allButFinal, concurrency)
		results, err := f.enum.Run(context.Background(), communities)
		if err != nil {
			t.Fatalf("concurrency %d: Run returned an error: %v", concurrency, err)
		}
		if n := len(f.mock.CallGet()); n != 24 {
			t.Errorf("concurrency %d: expected 24 gets, got %d", concurrency, n)
		}
		if !reflect.DeepEqual(results.Memo.Communities(), []string{"private", "public"}) {
			t.Errorf("concurrency %d: unexpected abandoned communities %v", concurrency, results.Memo.Communities())
		}
		for i := 2; i < len(communities); i++ {
			if row := results.Rows[i]; !row.Skipped || row.Probes != 0 {
				t.Errorf("concurrency %d: expected row %d to be skipped, got %+v", concurrency, i, row)
			}
		}
		if want == nil {
			want = results.Rows
			continue
		}
		if !reflect.DeepEqual(results.Rows, want) {
			t.Errorf("concurrency %d: rows %+v differ from the sequential run %+v", concurrency, results.Rows, want)
		}
	}
}

func TestGroupRows(t *testing.T) {
	cases := []struct {
		in   []string
		want [][]int
	}{
		{[]string{"a"}, [][]int{{0}}},
		{[]string{"a", "b", "a", "", "b", ""}, [][]int{{0, 2}, {1, 4}, {3, 5}}},
		{[]string{"x", "x", "x"}, [][]int{{0, 1, 2}}},
	}
	for _, c := range cases {
		if got := groupRows(c.in); !reflect.DeepEqual(got, c.want) {
			t.Errorf("groupRows(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestEmptyCommunityIsProbed(t *testing.T) {
	f := newFixture(t, fullAgent(), 1, "")

	results, err := f.enum.Run(context.Background(), []string{""})
	if err != nil {
		t.Fatalf("Run returned an error: %v", err)
	}
	if results.Values() != 12 {
		t.Errorf("expected 12 values for the empty community, got %d", results.Values())
	}
}

func TestConcurrentRows(t *testing.T) {
	f := newFixture(t, fullAgent(), 4, "public", "private")

	communities := []string{"a", "public", "b", "private", "c", "d"}
	results, err := f.enum.Run(context.Background(), communities)
	if err != nil {
		t.Fatalf("Run returned an error: %v", err)
	}
	if results.Values() != 24 {
		t.Errorf("expected 24 values, got %d", results.Values())
	}
	if !reflect.DeepEqual(results.Memo.Communities(), []string{"a", "b", "c", "d"}) {
		t.Errorf("unexpected abandoned communities %v", results.Memo.Communities())
	}
	got := []string{}
	for _, row := range results.Rows {
		got = append(got, row.Community)
	}
	if !reflect.DeepEqual(got, communities) {
		t.Errorf("rows out of order: %v", got)
	}
	// Within a row OIDs are still probed in order.
	perCommunity := map[string][]string{}
	for _, c := range f.mock.CallGet() {
		perCommunity[c.Community] = append(perCommunity[c.Community], c.Oid)
	}
	for c, oids := range perCommunity {
		if len(oids) != 12 || oids[11] != config.DefaultOIDs()[11].Oid {
			t.Errorf("community %s probed out of order: %v", c, oids)
		}
	}
}

func TestClientError(t *testing.T) {
	boom := errors.New("no such host")
	enum, err := New(Settings{
		Target: "invalid.example",
		OIDs:   config.DefaultOIDs(),
		Probe:  prober.Options{Retries: 1, Timeout: time.Second},
	}, func(*slog.Logger) (scraper.SNMPScraper, error) {
		m := scraper.NewMockSNMPScraper(nil)
		m.ConnectError = boom
		return m, nil
	}, &recordingReporter{}, promslog.NewNopLogger(), prober.NewMetrics(nil))
	if err != nil {
		t.Fatalf("New returned an error: %v", err)
	}
	_, err = enum.Run(context.Background(), []string{"public"})
	if !errors.Is(err, boom) {
		t.Errorf("expected the connect error, got %v", err)
	}
}

func TestCancelledRun(t *testing.T) {
	f := newFixture(t, fullAgent(), 1, "public")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results, err := f.enum.Run(ctx, []string{"public", "private"})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if results.Memo.Len() != 0 {
		t.Errorf("cancelled rows must not be abandoned, got %v", results.Memo.Communities())
	}
}

func TestNoCommunities(t *testing.T) {
	f := newFixture(t, fullAgent(), 1)
	results, err := f.enum.Run(context.Background(), nil)
	if err != nil || len(results.Rows) != 0 || len(f.mock.CallGet()) != 0 {
		t.Errorf("expected an empty run, got %+v, %v", results, err)
	}
}

func TestFailureMemo(t *testing.T) {
	m := NewFailureMemo()
	if !m.Abandon("b") || !m.Abandon("a") {
		t.Error("first Abandon must report a new entry")
	}
	if m.Abandon("a") {
		t.Error("second Abandon must not report a new entry")
	}
	m.Redeem("b")
	m.Redeem("missing")
	got := m.Communities()
	sort.Strings(got)
	if !reflect.DeepEqual(got, []string{"a"}) || !m.Abandoned("a") || m.Abandoned("b") {
		t.Errorf("unexpected memo %v", got)
	}
}
