package scraper

import (
	"errors"

	"github.com/gosnmp/gosnmp"
)

// ErrTimeout is returned by Get when the target did not answer in time.
var ErrTimeout = errors.New("no SNMP response received before timeout")

type SNMPScraper interface {
	Get([]string) (*gosnmp.SnmpPacket, error)
	Connect() error
	Close() error
	SetOptions(...func(*gosnmp.GoSNMP))
}
