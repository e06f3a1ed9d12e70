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
	"sort"
	"sync"
)

// FailureMemo holds the community strings abandoned for the rest of a run.
type FailureMemo struct {
	mu     sync.Mutex
	failed map[string]struct{}
}

func NewFailureMemo() *FailureMemo {
	return &FailureMemo{failed: map[string]struct{}{}}
}

// Abandon records community as failed. It reports whether the community was
// not abandoned before.
func (m *FailureMemo) Abandon(community string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.failed[community]; ok {
		return false
	}
	m.failed[community] = struct{}{}
	return true
}

// Redeem forgets a failure once community produced a value.
func (m *FailureMemo) Redeem(community string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.failed, community)
}

func (m *FailureMemo) Abandoned(community string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.failed[community]
	return ok
}

// Communities returns the abandoned community strings, sorted.
func (m *FailureMemo) Communities() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.failed))
	for c := range m.failed {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

func (m *FailureMemo) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.failed)
}
