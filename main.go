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

package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/promslog"
	"github.com/prometheus/common/promslog/flag"
	"github.com/prometheus/common/version"

	"github.com/snmpenum/snmp_enum/config"
	"github.com/snmpenum/snmp_enum/enumerator"
	"github.com/snmpenum/snmp_enum/prober"
	"github.com/snmpenum/snmp_enum/report"
	"github.com/snmpenum/snmp_enum/scraper"
)

var (
	retriesSet, timeoutSet, versionSet bool

	app = kingpin.New("snmp_enum", "Retrieve system information using SNMP.")

	target = app.Flag(
		"target", "Target IP address or host, optionally with a port or a udp:// or tcp:// prefix. NEEDED ARGUMENT.",
	).Short('t').Default("").String()
	wordlist = app.Flag(
		"wordlist", "Wordlist of community strings, one per line. Without one the \"public\" community is used.",
	).Short('w').Default("").String()
	displayInfo = app.Flag(
		"display-info", "Display info/functionality panel.",
	).Short('I').Default("false").Bool()
	retries = app.Flag(
		"retries", "Number of tries per OID (use 1 or more).",
	).Short('r').Default("1").IsSetByUser(&retriesSet).Int()
	timeout = app.Flag(
		"timeout", "Timeout in seconds to wait for each response, also accepted as -to.",
	).Default("5").IsSetByUser(&timeoutSet).Int()
	skipEmpty = app.Flag(
		"wordlist.skip-empty", "Skip empty lines of the wordlist instead of trying the empty community string.",
	).Default("false").Bool()
	snmpVersion = app.Flag(
		"snmp.version", "SNMP version to use, 1 or 2c.",
	).Default("2c").IsSetByUser(&versionSet).String()
	srcAddress = app.Flag(
		"snmp.source-address", "Source address to send snmp from in the format 'address:port'. If the port is empty or '0' a random port is chosen.",
	).Default("").String()
	debugSNMP = app.Flag(
		"snmp.debug-packets", "Include a full debug trace of SNMP packet traffics.",
	).Default("false").Bool()
	configFile = app.Flag(
		"config.file", "Optional YAML file with the OIDs, default communities, retries, timeout and version.",
	).Default("").String()
	concurrency = app.Flag(
		"concurrency", "Number of community strings probed at the same time.",
	).Default("1").Int()
	summary = app.Flag(
		"summary", "Print a summary table per community string at the end of the run.",
	).Default("false").Bool()
	metricsFile = app.Flag(
		"metrics.file", "Write the run metrics to this file in the Prometheus text format.",
	).Default("").String()
)

// normalizeArgs rewrites the two letter -to flag, which kingpin would read
// as -t with the value "o".
func normalizeArgs(args []string) []string {
	out := make([]string, 0, len(args))
	for i, a := range args {
		switch {
		case a == "--":
			return append(out, args[i:]...)
		case a == "-to":
			out = append(out, "--timeout")
		case strings.HasPrefix(a, "-to="):
			out = append(out, "--timeout="+strings.TrimPrefix(a, "-to="))
		default:
			out = append(out, a)
		}
	}
	return out
}

// loadConfig merges the config file and the flags the user set.
func loadConfig() (*config.Config, error) {
	cfg := config.Default()
	if *configFile != "" {
		var err error
		cfg, err = config.LoadFile(*configFile)
		if err != nil {
			return nil, err
		}
	}
	if retriesSet {
		cfg.Retries = *retries
	}
	if timeoutSet {
		cfg.Timeout = time.Duration(*timeout) * time.Second
	}
	if versionSet {
		cfg.Version = *snmpVersion
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func communities(cfg *config.Config) ([]string, error) {
	switch {
	case *wordlist != "":
		return enumerator.LoadWordlist(*wordlist, *skipEmpty)
	case len(cfg.Communities) > 0:
		return cfg.CommunityStrings(), nil
	default:
		return []string{config.DefaultCommunity}, nil
	}
}

func run(ctx context.Context, logger *slog.Logger, stdout io.Writer) int {
	printer := report.NewPrinter(stdout)
	printer.Banner()

	if *displayInfo {
		oids := config.DefaultOIDs()
		if cfg, err := loadConfig(); err != nil {
			logger.Warn("Ignoring invalid configuration, showing the built-in OIDs", "err", err)
		} else {
			oids = cfg.OIDs
		}
		printer.InfoPanel(oids)
		return 0
	}
	if *target == "" {
		app.UsageWriter(stdout)
		app.Usage(nil)
		return 0
	}
	cfg, err := loadConfig()
	if err != nil {
		logger.Error("Invalid configuration", "err", err)
		return 1
	}
	snmpVer, err := config.ParseVersion(cfg.Version)
	if err != nil {
		logger.Error("Invalid configuration", "err", err)
		return 1
	}
	candidates, err := communities(cfg)
	if err != nil {
		logger.Error("Error loading community strings", "err", err)
		return 1
	}

	registry := prometheus.NewRegistry()
	metrics := prober.NewMetrics(registry)
	enum, err := enumerator.New(enumerator.Settings{
		Target: *target,
		OIDs:   cfg.OIDs,
		Probe: prober.Options{
			Retries: cfg.Retries,
			Timeout: cfg.Timeout,
			Backoff: prober.DefaultBackoff,
			Version: snmpVer,
		},
		Concurrency: *concurrency,
	}, func(l *slog.Logger) (scraper.SNMPScraper, error) {
		return scraper.NewGoSNMP(l.With("source_address", *srcAddress), *target, *srcAddress, *debugSNMP)
	}, printer, logger, metrics)
	if err != nil {
		logger.Error("Invalid configuration", "err", err)
		return 1
	}

	results, err := enum.Run(ctx, candidates)
	if *summary {
		printer.Summary(results)
	}
	if *metricsFile != "" {
		if werr := prometheus.WriteToTextfile(*metricsFile, registry); werr != nil {
			logger.Error("Error writing metrics file", "file", *metricsFile, "err", werr)
		}
	}
	if err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Warn("Enumeration interrupted")
		} else {
			logger.Error("Enumeration failed", "err", err)
		}
		return 1
	}
	return 0
}

func main() {
	promslogConfig := &promslog.Config{}
	flag.AddFlags(app, promslogConfig)
	app.Version(version.Print("snmp_enum"))
	app.HelpFlag.Short('h')
	kingpin.MustParse(app.Parse(normalizeArgs(os.Args[1:])))
	logger := promslog.New(promslogConfig)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, logger, os.Stdout)
	stop()
	os.Exit(code)
}
