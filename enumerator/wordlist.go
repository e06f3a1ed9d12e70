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
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

const maxWordlistLine = 1024 * 1024

// ReadWordlist returns one candidate per line, in file order and with
// duplicates kept. Surrounding whitespace is trimmed; a blank line is the
// empty community string unless skipEmpty is set.
func ReadWordlist(r io.Reader, skipEmpty bool) ([]string, error) {
	communities := []string{}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxWordlistLine)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" && skipEmpty {
			continue
		}
		communities = append(communities, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return communities, nil
}

func LoadWordlist(path string, skipEmpty bool) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error opening wordlist: %w", err)
	}
	defer f.Close()
	communities, err := ReadWordlist(f, skipEmpty)
	if err != nil {
		return nil, fmt.Errorf("error reading wordlist %s: %w", path, err)
	}
	return communities, nil
}
