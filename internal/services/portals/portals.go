// Package portals maps carrier names to agent portal contact metadata.
package portals

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"go.uber.org/zap"

	"carrier-recommendation-engine/internal/models"
)

// Directory resolves carriers to contact metadata. It is constructed once
// at startup and injected into request-handling code.
type Directory struct {
	entries map[string]models.PortalContact
	keys    []string
	logger  *zap.Logger
}

// NewDirectory creates a directory seeded with the built-in carrier list.
func NewDirectory(logger *zap.Logger) *Directory {
	d := &Directory{
		entries: make(map[string]models.PortalContact, len(builtinPortals)),
		logger:  logger,
	}
	for carrier, contact := range builtinPortals {
		d.entries[carrier] = contact
	}
	d.rebuildKeys()
	return d
}

// LoadFile merges portal entries from a JSON file over the built-in
// directory. A missing file is not an error.
func (d *Directory) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			d.logger.Warn("Portal links file not found", zap.String("path", path))
			return nil
		}
		return fmt.Errorf("failed to read portal links: %w", err)
	}

	var overrides map[string]models.PortalContact
	if err := json.Unmarshal(data, &overrides); err != nil {
		return fmt.Errorf("failed to parse portal links: %w", err)
	}

	for carrier, contact := range overrides {
		if contact.Name == "" {
			contact.Name = carrier
		}
		d.entries[carrier] = contact
	}
	d.rebuildKeys()

	d.logger.Info("Loaded portal links",
		zap.String("path", path),
		zap.Int("entries", len(d.entries)),
	)
	return nil
}

// Lookup resolves a carrier by case-insensitive substring match in either
// direction. Unmatched carriers get a contact with only the name set.
func (d *Directory) Lookup(carrier string) models.PortalContact {
	needle := strings.ToLower(strings.TrimSpace(carrier))
	if needle != "" {
		for _, key := range d.keys {
			k := strings.ToLower(key)
			if strings.Contains(k, needle) || strings.Contains(needle, k) {
				return d.entries[key]
			}
		}
	}
	return models.PortalContact{Name: carrier}
}

// rebuildKeys keeps lookup order deterministic.
func (d *Directory) rebuildKeys() {
	d.keys = d.keys[:0]
	for key := range d.entries {
		d.keys = append(d.keys, key)
	}
	sort.Strings(d.keys)
}

// builtinPortals is the fixed agent-portal directory.
var builtinPortals = map[string]models.PortalContact{
	"Elco Mutual": {
		Name:         "Elco Mutual Life & Annuity",
		PortalURL:    "https://elcomutual.com/agent-portal",
		EAppURL:      "https://elcomutual.com/e-app",
		Phone:        "800-323-4656",
		LogoFilename: "elco-mutual.svg",
	},
	"Mutual of Omaha": {
		Name:         "Mutual of Omaha",
		PortalURL:    "https://www.mutualofomaha.com/agent",
		EAppURL:      "https://www.mutualofomaha.com/agent/apply",
		Phone:        "800-775-6000",
		LogoFilename: "mutual-of-omaha.svg",
	},
	"Legal & General America": {
		Name:         "Legal & General America",
		PortalURL:    "https://www.lgamerica.com/agents",
		EAppURL:      "https://www.lgamerica.com/agents/eapp",
		Phone:        "800-638-8428",
		LogoFilename: "legal-general-america.svg",
	},
	"Transamerica": {
		Name:         "Transamerica",
		PortalURL:    "https://www.transamerica.com/individual/life-insurance/agent-center",
		EAppURL:      "https://www.transamerica.com/individual/life-insurance/agent-center/eapp",
		Phone:        "800-797-2643",
		LogoFilename: "transamerica.svg",
	},
	"Corebridge Financial": {
		Name:         "Corebridge Financial",
		PortalURL:    "https://www.corebridgefinancial.com/producers",
		EAppURL:      "https://www.corebridgefinancial.com/producers/eapp",
		Phone:        "877-244-5263",
		LogoFilename: "corebridge-financial.svg",
	},
	"SBLI": {
		Name:         "SBLI",
		PortalURL:    "https://www.sbli.com/agents",
		EAppURL:      "https://www.sbli.com/agents/apply",
		Phone:        "888-867-4662",
		LogoFilename: "sbli.svg",
	},
	"United Home Life": {
		Name:         "United Home Life Insurance Company",
		PortalURL:    "https://uhlic.com/agent-portal",
		EAppURL:      "https://uhlic.com/agent-portal/eapp",
		Phone:        "877-894-5432",
		LogoFilename: "united-home-life.svg",
	},
	"Kansas City Life": {
		Name:         "Kansas City Life Insurance Company",
		PortalURL:    "https://www.kclife.com/agents",
		EAppURL:      "https://www.kclife.com/agents/eapp",
		Phone:        "800-234-2KC",
		LogoFilename: "kansas-city-life.svg",
	},
}
