package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"server-auditor/internal/audit"
	"server-auditor/internal/billing"
	"server-auditor/internal/models"
	"server-auditor/internal/portal"
)

// Terminal audit failures, as the handler layer sees them.
var (
	// ErrBilling: the billing lookup failed or matched nothing. The portal
	// is never touched in this case.
	ErrBilling = errors.New("billing lookup failed")
	// ErrPortal: the portal could not produce a full set of report pages,
	// even after one re-authentication cycle.
	ErrPortal = errors.New("portal unavailable")
)

// maxExpiryRetries bounds session-expiry recovery. Exactly one re-login and
// refetch per audit; a second bounce in the same run means something worse
// than an idle timeout and must surface, not loop.
const maxExpiryRetries = 1

// ProductLookup is the billing side of an audit.
type ProductLookup interface {
	GetProducts(ctx context.Context, serverID string) ([]models.BillingProduct, error)
}

// PageSource is the portal side of an audit.
type PageSource interface {
	FetchPages(ctx context.Context, serverID string) (*portal.Pages, error)
}

// AuditService runs one complete audit: billing lookup, portal fetch with
// bounded expiry recovery, extraction, comparison.
type AuditService struct {
	Billing  ProductLookup
	Sessions *portal.SessionManager
	Fetcher  PageSource
}

func NewAuditService(b ProductLookup, sm *portal.SessionManager, f PageSource) *AuditService {
	return &AuditService{Billing: b, Sessions: sm, Fetcher: f}
}

// RunAudit audits one server id. The flow is strictly ordered: billing
// first (a dead order means no portal traffic at all), then the portal,
// then the comparison. The ctx deadline covers the whole run.
func (s *AuditService) RunAudit(ctx context.Context, serverID string) (*models.AuditReport, error) {
	serverID = strings.TrimSpace(serverID)
	if serverID == "" {
		return nil, fmt.Errorf("%w: empty server id", ErrBilling)
	}

	fmt.Println("🔎 Audit started for server:", serverID)

	// 1. Billing: what was sold.
	products, err := s.Billing.GetProducts(ctx, serverID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBilling, err)
	}
	if len(products) == 0 {
		return nil, fmt.Errorf("%w: no products for %s", ErrBilling, serverID)
	}
	product, warnings := billing.SelectProduct(products)
	fmt.Printf("📦 Auditing product #%d (status: %s)\n", product.ID, product.Status)

	// 2. Portal: what the server actually is.
	pages, err := s.fetchWithRecovery(ctx, serverID)
	if err != nil {
		return nil, err
	}
	cfg := portal.BuildConfig(serverID, pages)

	// 3. Compare.
	report := audit.Compare(product, cfg)
	report.Code = reportCode()
	report.Warnings = warnings
	report.Date = time.Now().Format("02/01/2006 15:04:05")

	if report.OverallMatch {
		fmt.Println("🎉 All audited fields match")
	} else {
		fmt.Println("🚨 Discrepancies found:", countMismatches(report))
	}
	return report, nil
}

// fetchWithRecovery fetches the report pages, re-authenticating at most
// maxExpiryRetries times when the portal bounces to its login form. A fetch
// after a bounce is a full refetch: partial page sets never survive.
func (s *AuditService) fetchWithRecovery(ctx context.Context, serverID string) (*portal.Pages, error) {
	for attempt := 0; ; attempt++ {
		if err := s.Sessions.Ensure(ctx); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrPortal, err)
		}

		pages, err := s.Fetcher.FetchPages(ctx, serverID)
		if err == nil {
			return pages, nil
		}
		if !errors.Is(err, portal.ErrSessionExpired) || attempt >= maxExpiryRetries {
			return nil, fmt.Errorf("%w: %v", ErrPortal, err)
		}
		s.Sessions.Invalidate()
	}
}

func countMismatches(r *models.AuditReport) int {
	n := 0
	for _, res := range r.Results {
		if !res.Matched {
			n++
		}
	}
	return n
}

// reportCode stamps each report with a short unique code, year-prefixed so
// operators can eyeball when a report was cut.
func reportCode() string {
	id := uuid.New().String()
	return fmt.Sprintf("%d-%s", time.Now().Year(), strings.ToUpper(id[:8]))
}
