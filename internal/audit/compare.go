package audit

import (
	"strings"

	"server-auditor/internal/models"
)

// Heuristic knobs. Both came from operational experience rather than a hard
// rule, so they stay adjustable instead of buried as literals.
var (
	// DiskTolerance accepts a portal disk total slightly below the ordered
	// size (RAID and formatting overhead eat a share of the raw capacity).
	DiskTolerance = 0.9

	// CPUContainsEither accepts CPU strings where one normalized form
	// contains the other, absorbing the systems' different verbosity.
	CPUContainsEither = true
)

// Fields audited per server type. Virtual servers only carry network
// identity; dedicated boxes get the full hardware set.
var (
	virtualFields   = []string{"ns1", "dedicatedip"}
	dedicatedFields = []string{"ns1", "dedicatedip", "cpu", "ram", "disks", "raid"}
)

// ServerTypeFor classifies a server from its billing ns1 label.
// Hypervisor guests are labeled "hv..."; everything else is bare metal.
func ServerTypeFor(ns1 string) string {
	if strings.HasPrefix(strings.ToLower(strings.TrimSpace(ns1)), "hv") {
		return models.ServerVirtual
	}
	return models.ServerDedicated
}

// Compare audits a portal config against the billing product and returns the
// per-field results. Discrepancies are data, not errors.
func Compare(product models.BillingProduct, portal models.PortalConfig) *models.AuditReport {
	serverType := ServerTypeFor(product.NS1)

	fields := dedicatedFields
	if serverType == models.ServerVirtual {
		fields = virtualFields
	}

	report := &models.AuditReport{
		ServerID:     portal.ServerID,
		ServerType:   serverType,
		ProductID:    product.ID,
		ProductState: product.Status,
		LastUpdate:   portal.LastUpdate,
		OverallMatch: true,
	}

	for _, field := range fields {
		portalVal := portalFieldValue(portal, field)
		billingVal := billingFieldValue(product, field)

		result := models.FieldResult{
			Field:   field,
			Portal:  portalVal,
			Billing: billingVal,
			Matched: fieldMatches(field, portalVal, billingVal),
		}
		if !result.Matched {
			report.OverallMatch = false
		}
		report.Results = append(report.Results, result)
	}

	return report
}

// fieldMatches applies the per-field equality policy. portal is the local
// (actual) value, billing the remote (ordered) one.
func fieldMatches(field, portal, billing string) bool {
	switch field {
	case "ns1":
		return NormalizeNS1(portal) == NormalizeNS1(billing)

	case "ram":
		return NormalizeRAM(portal) == NormalizeRAM(billing)

	case "cpu":
		p, b := NormalizeCPU(portal), NormalizeCPU(billing)
		if CPUContainsEither {
			return p != "" && b != "" && (strings.Contains(p, b) || strings.Contains(b, p))
		}
		return p == b

	case "disks":
		p, b := NormalizeDisks(portal), NormalizeDisks(billing)
		if b > 0 {
			return float64(p) >= DiskTolerance*float64(b)
		}
		return p == b

	case "raid":
		switch ClassifyRAID(billing) {
		case RAIDSoftware:
			// Software RAID is configured after handover; out of audit scope.
			return true
		case RAIDNone:
			if ClassifyRAID(portal) == RAIDNone {
				return true
			}
		}
		return looseEqual(portal, billing)
	}

	return looseEqual(portal, billing)
}

func looseEqual(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

func portalFieldValue(c models.PortalConfig, field string) string {
	switch field {
	case "ns1":
		return c.NS1
	case "dedicatedip":
		return c.DedicatedIP
	case "cpu":
		return c.CPU
	case "ram":
		return c.RAM
	case "disks":
		return c.Disks
	case "raid":
		return c.RAID
	}
	return models.NotAvailable
}

func billingFieldValue(p models.BillingProduct, field string) string {
	switch field {
	case "ns1":
		return strings.Trim(p.NS1, ", ")
	case "dedicatedip":
		return strings.Trim(p.DedicatedIP, ", ")
	}
	// Hardware fields live in the product's config options.
	return p.ConfigOption(field)
}
