// Copyright 2024 The Prometheus Authors
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

package scraper

import (
	"sync"

	"github.com/gosnmp/gosnmp"
)

// Call is one Get recorded by the mock scraper.
type Call struct {
	Community string
	Oid       string
}

// NewMockSNMPScraper returns a scraper answering from get. Only the listed
// communities get an answer, any other community times out like a real
// agent silently dropping the request. No communities means all are accepted.
func NewMockSNMPScraper(get map[string]gosnmp.SnmpPDU, communities ...string) *mockSNMPScraper {
	accepted := make(map[string]bool, len(communities))
	for _, c := range communities {
		accepted[c] = true
	}
	return &mockSNMPScraper{
		GetResponses: get,
		Communities:  accepted,
		state: &mockState{
			getErrors:    map[string][]error{},
			packetErrors: map[string][]gosnmp.SNMPError{},
		},
	}
}

type mockState struct {
	mu           sync.Mutex
	getErrors    map[string][]error
	packetErrors map[string][]gosnmp.SNMPError
	callGet      []Call
}

type mockSNMPScraper struct {
	GetResponses map[string]gosnmp.SnmpPDU
	Communities  map[string]bool
	ConnectError error
	CloseError   error

	state *mockState
	snmp  gosnmp.GoSNMP
}

// Clone returns a scraper sharing responses, queued failures and the call
// log, with its own connection options. Use one clone per goroutine.
func (m *mockSNMPScraper) Clone() *mockSNMPScraper {
	return &mockSNMPScraper{
		GetResponses: m.GetResponses,
		Communities:  m.Communities,
		ConnectError: m.ConnectError,
		CloseError:   m.CloseError,
		state:        m.state,
	}
}

// FailGet queues errors returned by the next Gets of oid, one per call.
func (m *mockSNMPScraper) FailGet(oid string, errs ...error) {
	m.state.mu.Lock()
	defer m.state.mu.Unlock()
	m.state.getErrors[oid] = append(m.state.getErrors[oid], errs...)
}

// FailStatus queues error statuses reported by the next Gets of oid.
func (m *mockSNMPScraper) FailStatus(oid string, statuses ...gosnmp.SNMPError) {
	m.state.mu.Lock()
	defer m.state.mu.Unlock()
	m.state.packetErrors[oid] = append(m.state.packetErrors[oid], statuses...)
}

func (m *mockSNMPScraper) CallGet() []Call {
	m.state.mu.Lock()
	defer m.state.mu.Unlock()
	return append([]Call(nil), m.state.callGet...)
}

func (m *mockSNMPScraper) Get(oids []string) (*gosnmp.SnmpPacket, error) {
	community := m.snmp.Community
	if m.snmp.OnSent != nil {
		m.snmp.OnSent(&m.snmp)
	}

	m.state.mu.Lock()
	for _, oid := range oids {
		m.state.callGet = append(m.state.callGet, Call{Community: community, Oid: oid})
	}
	var (
		queuedErr    error
		queuedStatus gosnmp.SNMPError
	)
	if len(oids) > 0 {
		if errs := m.state.getErrors[oids[0]]; len(errs) > 0 {
			queuedErr = errs[0]
			m.state.getErrors[oids[0]] = errs[1:]
		} else if statuses := m.state.packetErrors[oids[0]]; len(statuses) > 0 {
			queuedStatus = statuses[0]
			m.state.packetErrors[oids[0]] = statuses[1:]
		}
	}
	m.state.mu.Unlock()

	if queuedErr != nil {
		return nil, queuedErr
	}
	if len(m.Communities) > 0 && !m.Communities[community] {
		return nil, ErrTimeout
	}
	if m.snmp.OnRecv != nil {
		m.snmp.OnRecv(&m.snmp)
	}

	pdus := make([]gosnmp.SnmpPDU, 0, len(oids))
	for _, oid := range oids {
		if response, exists := m.GetResponses[oid]; exists && queuedStatus == gosnmp.NoError {
			pdus = append(pdus, response)
		} else {
			typ := gosnmp.NoSuchObject
			if queuedStatus != gosnmp.NoError {
				typ = gosnmp.Null
			}
			pdus = append(pdus, gosnmp.SnmpPDU{
				Name:  "." + oid,
				Type:  typ,
				Value: nil,
			})
		}
	}
	packet := &gosnmp.SnmpPacket{
		Community: community,
		Variables: pdus,
		Error:     queuedStatus,
	}
	if queuedStatus != gosnmp.NoError {
		packet.ErrorIndex = 1
	}
	return packet, nil
}

func (m *mockSNMPScraper) Connect() error {
	return m.ConnectError
}

func (m *mockSNMPScraper) Close() error {
	return m.CloseError
}

func (m *mockSNMPScraper) SetOptions(fns ...func(*gosnmp.GoSNMP)) {
	for _, fn := range fns {
		fn(&m.snmp)
	}
}
