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

// Package report prints enumeration results as they happen.
package report

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"sync"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/snmpenum/snmp_enum/config"
	"github.com/snmpenum/snmp_enum/enumerator"
	"github.com/snmpenum/snmp_enum/prober"
)

// Printer writes one line per probe attempt. It is safe for concurrent use;
// lines are never interleaved mid-line.
type Printer struct {
	mu sync.Mutex
	w  io.Writer
}

func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: w}
}

// ReportAttempt implements prober.Reporter.
func (p *Printer) ReportAttempt(a prober.Attempt, o prober.Outcome) {
	var line string
	switch o.Kind {
	case prober.Value:
		line = fmt.Sprintf("%s (%s, community: %s): %s", a.Oid, a.Host, a.Community, FormatValue(o.PDU))
	case prober.Timeout:
		line = fmt.Sprintf("Timeout: no SNMP response received before timeout (host: %s, oid: %s, community: %s)",
			a.Host, a.Oid, a.Community)
	case prober.ProtocolError:
		status, at := "", "?"
		var serr *prober.SNMPError
		if errors.As(o.Err, &serr) {
			status, at = serr.Status, serr.OffendingOid()
		} else if o.Err != nil {
			status = o.Err.Error()
		}
		line = fmt.Sprintf("Error: %s at %s (host: %s, oid: %s, community: %s, retry: %d/%d)",
			status, at, a.Host, a.Oid, a.Community, a.Try, a.Of)
	default:
		line = fmt.Sprintf("Error: %v (host: %s, oid: %s, community: %s, retry: %d/%d)",
			o.Err, a.Host, a.Oid, a.Community, a.Try, a.Of)
	}
	p.println(line)
}

func (p *Printer) println(line string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintln(p.w, line)
}

// Banner prints the header shown before a run.
func (p *Printer) Banner() {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprint(p.w, `
    *********************************************
        SNMP Enumeration Tool
    *********************************************

`)
}

// InfoPanel prints usage notes and the OIDs queried on every target.
func (p *Printer) InfoPanel(oids []config.OID) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprint(p.w, `System information can be retrieved using SNMP with this tool.
Please provide the target address with -t or --target.
Community strings are read from a wordlist given with -w or --wordlist,
one per line; without one the default "public" string is used.
Use -r or --retries to set the number of attempts per OID (default 1).
Use -to or --timeout to set the seconds to wait for a response (default 5).
Use -I or --display-info to display this panel.

The following system information is retrieved using predefined OIDs:

`)
	t := table.NewWriter()
	t.SetOutputMirror(p.w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"#", "OID", "Description"})
	for i, o := range oids {
		t.AppendRow(table.Row{i + 1, o.Oid, o.Description})
	}
	t.Render()
}

// Summary prints one row per community string probed.
func (p *Printer) Summary(results *enumerator.Results) {
	p.mu.Lock()
	defer p.mu.Unlock()
	t := table.NewWriter()
	t.SetOutputMirror(p.w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Community", "Values", "Failed", "Status"})
	for _, row := range results.Rows {
		t.AppendRow(table.Row{strconv.Quote(row.Community), row.Values, row.Failures, row.Status()})
	}
	t.AppendFooter(table.Row{"Total", results.Values(), results.Failures(), ""})
	t.Render()
}
