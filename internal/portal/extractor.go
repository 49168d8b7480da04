package portal

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"server-auditor/internal/models"
)

// KeyLocation says where a field's label cell sits inside its row.
type KeyLocation int

const (
	// KeyInHeader matches the row's <th> cell (the audit page style).
	KeyInHeader KeyLocation = iota
	// KeyInFirstColumn matches the row's first <td> (the info page style).
	KeyInFirstColumn
)

var raidStateRe = regexp.MustCompile(`(?i)state:\s*(\d+)`)

// Extract scans the document's table rows for a label cell containing key
// (case-insensitive) at the given location and returns the trimmed text of
// the cell after it. Extraction is best-effort: any miss, malformed row or
// parse failure yields models.NotAvailable, never an error. A field the
// portal stopped rendering becomes a visible discrepancy, not a crash.
func Extract(html, key string, loc KeyLocation) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return models.NotAvailable
	}

	key = strings.ToLower(key)
	value := models.NotAvailable

	doc.Find("tr").EachWithBreak(func(i int, row *goquery.Selection) bool {
		var label string
		var cell *goquery.Selection

		switch loc {
		case KeyInHeader:
			label = row.Find("th").First().Text()
			cell = row.Find("td").First()
		case KeyInFirstColumn:
			cells := row.Find("td")
			if cells.Length() < 2 {
				return true
			}
			label = cells.First().Text()
			cell = cells.Eq(1)
		}

		if !strings.Contains(strings.ToLower(label), key) || cell.Length() == 0 {
			return true
		}
		if text := strings.TrimSpace(cell.Text()); text != "" {
			value = text
		}
		return false
	})

	return value
}

// ExtractRAIDState reads the RAID endpoint's little status table: the row
// whose first cell mentions "raid" carries a "state: <n>" blob in its
// second cell. Only the numeric state survives.
func ExtractRAIDState(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return models.NotAvailable
	}

	state := models.NotAvailable
	doc.Find("tr").EachWithBreak(func(i int, row *goquery.Selection) bool {
		cells := row.Find("td")
		if cells.Length() < 2 {
			return true
		}
		if !strings.Contains(strings.ToLower(cells.First().Text()), "raid") {
			return true
		}
		if m := raidStateRe.FindStringSubmatch(cells.Eq(1).Text()); m != nil {
			state = m[1]
			return false
		}
		return true
	})
	return state
}

// BuildConfig pulls every audited field out of the fetched pages.
// The info page lists network identity in plain two-column rows; the audit
// page labels its hardware rows with <th> headers.
func BuildConfig(serverID string, pages *Pages) models.PortalConfig {
	return models.PortalConfig{
		ServerID:    serverID,
		NS1:         Extract(pages.Info, "network label", KeyInFirstColumn),
		DedicatedIP: Extract(pages.Info, "ip address", KeyInFirstColumn),
		CPU:         Extract(pages.Audit, "cpu", KeyInHeader),
		RAM:         Extract(pages.Audit, "ram", KeyInHeader),
		Disks:       Extract(pages.Audit, "disk", KeyInHeader),
		RAID:        ExtractRAIDState(pages.RAID),
		LastUpdate:  Extract(pages.Audit, "last update", KeyInHeader),
	}
}
