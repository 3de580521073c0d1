// Package vendors holds the site-specific adapters. Each adapter is a thin
// selector map plus login/list-page routines; everything else (pagination,
// dedup, classification, persistence, logging) lives in the shared driver.
package vendors

import (
	"fmt"
	"sort"

	"github.com/bidwatch/bidwatch/config"
	"github.com/bidwatch/bidwatch/internal/scraper"
)

type constructor func(vc config.VendorConfig, sc config.ScraperConfig) scraper.VendorAdapter

var registry = map[string]constructor{
	"bidnetdirect": newBidnetDirect,
	"eprocure":     newEprocure,
	"stateportal":  newStatePortal,
}

// New builds the adapter for a named vendor.
func New(name string, vc config.VendorConfig, sc config.ScraperConfig) (scraper.VendorAdapter, error) {
	ctor, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("no adapter registered for vendor %q", name)
	}
	return ctor(vc, sc), nil
}

// Names lists all registered vendors, sorted.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
