package models

import "strings"

// NotAvailable is the sentinel for any field the portal could not report.
// Extraction never fails hard; it degrades to this value and the comparison
// treats it like any other string.
const NotAvailable = "N/A"

// Server types derived from the billing ns1 label.
const (
	ServerVirtual   = "VIRTUAL"
	ServerDedicated = "DEDICATED"
)

// PortalConfig is what the provider portal reports for one server.
// All fields are raw strings exactly as scraped; normalization happens
// later, in the comparison engine.
type PortalConfig struct {
	ServerID    string `json:"server_id"`
	NS1         string `json:"ns1"`
	DedicatedIP string `json:"dedicatedip"`
	CPU         string `json:"cpu"`
	RAM         string `json:"ram"`
	Disks       string `json:"disks"`
	RAID        string `json:"raid"`
	LastUpdate  string `json:"last_update"`
}

// BillingProduct is one product row from the billing system, already
// flattened: configoptions arrive as an object-or-array mess on the wire
// and are normalized into the map at the JSON boundary.
type BillingProduct struct {
	ID            int               `json:"id"`
	Status        string            `json:"status"`
	NS1           string            `json:"ns1"`
	DedicatedIP   string            `json:"dedicatedip"`
	ConfigOptions map[string]string `json:"configoptions"`
}

// ConfigOption returns the named config option value, or NotAvailable.
func (p BillingProduct) ConfigOption(name string) string {
	for option, value := range p.ConfigOptions {
		if strings.EqualFold(option, name) {
			return value
		}
	}
	return NotAvailable
}

// FieldResult is the outcome of comparing one field.
type FieldResult struct {
	Field   string `json:"field"`
	Portal  string `json:"portal"`
	Billing string `json:"billing"`
	Matched bool   `json:"matched"`
}

// AuditReport is the full result of one audit run.
type AuditReport struct {
	Code         string        `json:"code"`
	ServerID     string        `json:"server_id"`
	ServerType   string        `json:"server_type"`
	ProductID    int           `json:"product_id"`
	ProductState string        `json:"product_status"`
	LastUpdate   string        `json:"portal_last_update,omitempty"`
	Warnings     []string      `json:"warnings,omitempty"`
	Results      []FieldResult `json:"results"`
	OverallMatch bool          `json:"overall_match"`
	Date         string        `json:"date"`
}
