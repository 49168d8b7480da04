package portal

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"server-auditor/internal/models"
)

const infoPageHTML = `<html><body>
<h1>Server 44781</h1>
<table class="device">
  <tr><td>Network Label</td><td> D22_031 </td></tr>
  <tr><td>Primary IP Address</td><td>151.236.34.234</td></tr>
  <tr><td>Location</td><td>AMS-1</td></tr>
</table>
</body></html>`

const auditPageHTML = `<html><body>
<table class="hardware">
  <tr><th>CPU Model</th><td>Intel Xeon E3-1240 v5 CPU @ 3.50GHz</td></tr>
  <tr><th>RAM Installed</th><td>64 GB</td></tr>
  <tr><th>Disk Layout</th><td>4x 500GB</td></tr>
  <tr><th>Last Update</th><td>2026-08-27 09:15</td></tr>
</table>
</body></html>`

const raidPageHTML = `<table>
  <tr><td>Array 0 (RAID)</td><td>state: 1, drives: 2/2</td></tr>
</table>`

func TestExtractFirstColumn(t *testing.T) {
	assert.Equal(t, "D22_031", Extract(infoPageHTML, "network label", KeyInFirstColumn))
	// Fuzzy key: "ip address" matches the "Primary IP Address" row.
	assert.Equal(t, "151.236.34.234", Extract(infoPageHTML, "ip address", KeyInFirstColumn))
}

func TestExtractHeader(t *testing.T) {
	assert.Equal(t, "Intel Xeon E3-1240 v5 CPU @ 3.50GHz", Extract(auditPageHTML, "cpu", KeyInHeader))
	assert.Equal(t, "64 GB", Extract(auditPageHTML, "ram", KeyInHeader))
	assert.Equal(t, "4x 500GB", Extract(auditPageHTML, "disk", KeyInHeader))
}

func TestExtractNeverFails(t *testing.T) {
	assert.Equal(t, models.NotAvailable, Extract(infoPageHTML, "no such field", KeyInFirstColumn))
	assert.Equal(t, models.NotAvailable, Extract("", "cpu", KeyInHeader))
	assert.Equal(t, models.NotAvailable, Extract("<table><tr><td>orphan", "cpu", KeyInFirstColumn))
	assert.Equal(t, models.NotAvailable, Extract("not html at all", "cpu", KeyInHeader))
	// Header lookup must not fall back to first-column rows.
	assert.Equal(t, models.NotAvailable, Extract(infoPageHTML, "network label", KeyInHeader))
}

func TestExtractRAIDState(t *testing.T) {
	assert.Equal(t, "1", ExtractRAIDState(raidPageHTML))
	assert.Equal(t, models.NotAvailable, ExtractRAIDState("<table><tr><td>RAID</td><td>healthy</td></tr></table>"))
	assert.Equal(t, models.NotAvailable, ExtractRAIDState(""))
}

func TestBuildConfig(t *testing.T) {
	pages := &Pages{Info: infoPageHTML, Audit: auditPageHTML, RAID: raidPageHTML}
	cfg := BuildConfig("44781", pages)

	assert.Equal(t, models.PortalConfig{
		ServerID:    "44781",
		NS1:         "D22_031",
		DedicatedIP: "151.236.34.234",
		CPU:         "Intel Xeon E3-1240 v5 CPU @ 3.50GHz",
		RAM:         "64 GB",
		Disks:       "4x 500GB",
		RAID:        "1",
		LastUpdate:  "2026-08-27 09:15",
	}, cfg)
}
