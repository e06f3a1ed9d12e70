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
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gosnmp/gosnmp"
)

type GoSNMPWrapper struct {
	c      *gosnmp.GoSNMP
	logger *slog.Logger
}

func NewGoSNMP(logger *slog.Logger, target, srcAddress string, debug bool) (*GoSNMPWrapper, error) {
	transport := "udp"
	if s := strings.SplitN(target, "://", 2); len(s) == 2 {
		transport = s[0]
		target = s[1]
	}
	if transport != "udp" && transport != "tcp" {
		return nil, fmt.Errorf("unsupported transport %q for target %q", transport, target)
	}
	port := uint16(161)
	if host, _port, err := net.SplitHostPort(target); err == nil {
		target = host
		p, err := strconv.ParseUint(_port, 10, 16)
		if err != nil {
			return nil, fmt.Errorf("error converting port number to int for target %q: %w", target, err)
		}
		port = uint16(p)
	}
	if target == "" {
		return nil, fmt.Errorf("empty target host")
	}
	g := &gosnmp.GoSNMP{
		Transport: transport,
		Target:    target,
		Port:      port,
		LocalAddr: srcAddress,
		Version:   gosnmp.Version2c,
		Community: "public",
		Timeout:   5 * time.Second,
		// Retries are driven by the caller, one packet per attempt.
		Retries: 0,
		Context: context.Background(),
		MaxOids: gosnmp.MaxOids,
	}
	if debug {
		g.Logger = gosnmp.NewLogger(slog.NewLogLogger(logger.Handler(), slog.LevelDebug))
	}
	return &GoSNMPWrapper{c: g, logger: logger}, nil
}

// Target returns the host the wrapper sends to.
func (g *GoSNMPWrapper) Target() string {
	return g.c.Target
}

func (g *GoSNMPWrapper) SetOptions(fns ...func(*gosnmp.GoSNMP)) {
	for _, fn := range fns {
		fn(g.c)
	}
}

func (g *GoSNMPWrapper) Connect() error {
	st := time.Now()
	err := g.c.Connect()
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return fmt.Errorf("enumeration cancelled after %s connecting to target %s: %w",
				time.Since(st), g.c.Target, err)
		}
		return fmt.Errorf("error connecting to target %s: %w", g.c.Target, err)
	}
	return nil
}

func (g *GoSNMPWrapper) Close() error {
	if g.c.Conn == nil {
		return nil
	}
	return g.c.Conn.Close()
}

func (g *GoSNMPWrapper) Get(oids []string) (results *gosnmp.SnmpPacket, err error) {
	g.logger.Debug("Getting OIDs", "oids", oids)
	st := time.Now()
	results, err = g.c.Get(oids)
	if err != nil {
		switch {
		case errors.Is(err, context.Canceled):
			err = fmt.Errorf("enumeration cancelled after %s getting target %s: %w",
				time.Since(st), g.c.Target, err)
		case isTimeout(err):
			err = fmt.Errorf("%w (target %s, after %s)", ErrTimeout, g.c.Target, time.Since(st).Round(time.Millisecond))
		default:
			err = fmt.Errorf("error getting target %s: %w", g.c.Target, err)
		}
		return
	}
	g.logger.Debug("Get of OIDs completed", "oids", oids, "duration_seconds", time.Since(st).Seconds())
	return
}

// isTimeout reports whether err means the request went unanswered, as
// opposed to failing on the wire.
func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	// gosnmp reports exhausted retries as a plain formatted error.
	return strings.Contains(err.Error(), "request timeout")
}
