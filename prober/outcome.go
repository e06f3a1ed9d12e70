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
	"fmt"

	"github.com/gosnmp/gosnmp"
)

// Kind classifies the result of a probe or of a single attempt.
type Kind int

const (
	Value Kind = iota
	Timeout
	TransportError
	ProtocolError
)

func (k Kind) String() string {
	switch k {
	case Value:
		return "value"
	case Timeout:
		return "timeout"
	case TransportError:
		return "transport_error"
	case ProtocolError:
		return "protocol_error"
	default:
		return fmt.Sprintf("unknown(%d)", int(k))
	}
}

// Outcome of probing one OID with one community string.
type Outcome struct {
	Kind Kind
	// PDU is the first variable binding of the response, set for Value.
	PDU gosnmp.SnmpPDU
	// Err is the failure of the last attempt, nil for Value.
	Err      error
	Attempts int
}

// HasValue is the only failure signal callers need.
func (o Outcome) HasValue() bool {
	return o.Kind == Value
}

// SNMPError is an error status reported by the agent in an otherwise valid
// response, or an exception value standing in for the requested variable.
type SNMPError struct {
	Status string
	// Index is the 1-based variable binding the agent blamed, 0 if none.
	Index int
	// Oid of the offending variable binding, empty if it can't be resolved.
	Oid string
}

func (e *SNMPError) Error() string {
	return fmt.Sprintf("%s at %s", e.Status, e.OffendingOid())
}

func (e *SNMPError) OffendingOid() string {
	if e.Oid == "" {
		return "?"
	}
	return e.Oid
}

// Attempt identifies one request sent while probing.
type Attempt struct {
	Host      string
	Community string
	Oid       string
	Try       int
	Of        int
}
