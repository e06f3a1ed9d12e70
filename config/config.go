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

package config

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/gosnmp/gosnmp"
	"go.yaml.in/yaml/v2"
)

const DefaultCommunity = "public"

func LoadFile(filename string) (*Config, error) {
	content, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	cfg := &Config{}
	err = yaml.UnmarshalStrict(content, cfg)
	if err != nil {
		return nil, fmt.Errorf("error parsing config file %q: %w", filename, err)
	}
	return cfg, nil
}

var (
	DefaultConfig = Config{
		Version: "2c",
		Retries: 1,
		Timeout: 5 * time.Second,
	}

	oidPattern = regexp.MustCompile(`^\.?[0-9]+(\.[0-9]+)*$`)
)

// OID is a single value to query on the target.
type OID struct {
	Oid         string `yaml:"oid"`
	Description string `yaml:"description,omitempty"`
}

func (o OID) String() string {
	return o.Oid
}

// DefaultOIDs returns the built-in list of OIDs. The order is significant:
// the final entry decides whether a community string gets abandoned.
func DefaultOIDs() []OID {
	return []OID{
		{Oid: "1.3.6.1.2.1.1.5.0", Description: "System Name"},
		{Oid: "1.3.6.1.2.1.1.1.0", Description: "System Description"},
		{Oid: "1.3.6.1.2.1.1.2.0", Description: "System OIDs (Object IDs)"},
		{Oid: "1.3.6.1.2.1.1.3.0", Description: "System UpTime"},
		{Oid: "1.3.6.1.2.1.1.4.0", Description: "System Contact"},
		{Oid: "1.3.6.1.2.1.1.6.0", Description: "System Location"},
		{Oid: "1.3.6.1.2.1.25.4.2.1.2", Description: "Running Windows Processes/Programs"},
		{Oid: "1.3.6.1.2.1.25.4.2.1.4", Description: "Processes Paths"},
		{Oid: "1.3.6.1.2.1.25.2.3.1.4", Description: "Storage Units"},
		{Oid: "1.3.6.1.2.1.25.6.3.1.2", Description: "Installed Software"},
		{Oid: "1.3.6.1.4.1.77.1.2.25", Description: "User Accounts"},
		{Oid: "1.3.6.1.2.1.6.13.1.3", Description: "Open TCP ports"},
	}
}

// Config for snmp_enum.
type Config struct {
	Version     string        `yaml:"version,omitempty"`
	Retries     int           `yaml:"retries,omitempty"`
	Timeout     time.Duration `yaml:"timeout,omitempty"`
	Communities []Secret      `yaml:"communities,omitempty"`
	OIDs        []OID         `yaml:"oids,omitempty"`
}

// Default returns a config holding the built-in defaults.
func Default() *Config {
	cfg := DefaultConfig
	cfg.OIDs = DefaultOIDs()
	return &cfg
}

func (c *Config) UnmarshalYAML(unmarshal func(interface{}) error) error {
	*c = DefaultConfig
	type plain Config
	if err := unmarshal((*plain)(c)); err != nil {
		return err
	}
	if len(c.OIDs) == 0 {
		c.OIDs = DefaultOIDs()
	}
	return c.Validate()
}

// Validate checks the values a run depends on.
func (c *Config) Validate() error {
	if _, err := ParseVersion(c.Version); err != nil {
		return err
	}
	if c.Retries < 1 {
		return fmt.Errorf("retries must be 1 or more. Got: %d", c.Retries)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive. Got: %s", c.Timeout)
	}
	if len(c.OIDs) == 0 {
		return fmt.Errorf("at least one OID is required")
	}
	for i, o := range c.OIDs {
		if !oidPattern.MatchString(o.Oid) {
			return fmt.Errorf("oid %d (%q) is not a dotted numeric OID", i+1, o.Oid)
		}
		c.OIDs[i].Oid = strings.TrimPrefix(o.Oid, ".")
	}
	return nil
}

// CommunityStrings returns the configured communities as plain strings.
func (c *Config) CommunityStrings() []string {
	out := make([]string, 0, len(c.Communities))
	for _, s := range c.Communities {
		out = append(out, string(s))
	}
	return out
}

// ParseVersion maps the textual SNMP version onto gosnmp's.
func ParseVersion(v string) (gosnmp.SnmpVersion, error) {
	switch strings.ToLower(v) {
	case "1", "v1":
		return gosnmp.Version1, nil
	case "2", "2c", "v2c":
		return gosnmp.Version2c, nil
	}
	if n, err := strconv.Atoi(v); err == nil && n == 3 {
		return 0, fmt.Errorf("SNMPv3 is not supported, community strings only exist in 1 and 2c")
	}
	return 0, fmt.Errorf("SNMP version must be 1 or 2c. Got: %q", v)
}

// Secret is a string that must not be revealed on marshaling.
type Secret string

// Hack for dumping a config with the secrets.
var (
	DoNotHideSecrets = false
)

// MarshalYAML implements the yaml.Marshaler interface.
func (s Secret) MarshalYAML() (interface{}, error) {
	if DoNotHideSecrets {
		return string(s), nil
	}
	if s != "" {
		return "<secret>", nil
	}
	return nil, nil
}
