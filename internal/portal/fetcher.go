package portal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
)

// ErrSessionExpired is the internal signal that a report page bounced back
// to the login form. The orchestrator re-authenticates once and retries;
// it never reaches the operator.
var ErrSessionExpired = errors.New("portal: session expired")

// Report documents fetched for one server, raw HTML as served.
type Pages struct {
	Info  string
	Audit string
	RAID  string
}

// Paths of the three report documents, relative to the portal root.
// Each takes the server id as its "id" query parameter.
const (
	infoPath  = "serverinfo.php"
	auditPath = "serveraudit.php"
	raidPath  = "ajax_raid.php"
)

// PageFetcher pulls the three report documents for a server in parallel,
// reusing the session manager's authenticated client. One audit issues
// exactly three requests, one goroutine each; there is no background work.
type PageFetcher struct {
	baseURL  string
	sessions *SessionManager
}

// NewPageFetcher roots the fetcher at the portal origin derived from the
// login URL (report pages live next to the login page).
func NewPageFetcher(sessions *SessionManager) (*PageFetcher, error) {
	u, err := url.Parse(sessions.creds.LoginURL)
	if err != nil || u.Host == "" {
		return nil, fmt.Errorf("portal: bad login url %q", sessions.creds.LoginURL)
	}
	return &PageFetcher{
		baseURL:  u.Scheme + "://" + u.Host,
		sessions: sessions,
	}, nil
}

// FetchPages retrieves all three documents concurrently. All-or-nothing:
// any network failure fails the fetch, and if any body turns out to be the
// login page the whole set is discarded and ErrSessionExpired returned.
// A mix of fresh and bounced documents must never reach the extractor.
func (f *PageFetcher) FetchPages(ctx context.Context, serverID string) (*Pages, error) {
	pages := &Pages{}
	targets := []struct {
		path string
		dest *string
	}{
		{infoPath, &pages.Info},
		{auditPath, &pages.Audit},
		{raidPath, &pages.RAID},
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	var firstErr error

	for _, t := range targets {
		wg.Add(1)
		go func(path string, dest *string) {
			defer wg.Done()

			reqCtx, cancel := context.WithTimeout(ctx, requestTimeout)
			defer cancel()

			body, err := f.get(reqCtx, path, serverID)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if firstErr == nil {
					firstErr = err
				}
				return
			}
			*dest = body
		}(t.path, t.dest)
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}

	for _, body := range []string{pages.Info, pages.Audit, pages.RAID} {
		if strings.Contains(strings.ToLower(body), loginPageMarker) {
			return nil, ErrSessionExpired
		}
	}
	return pages, nil
}

func (f *PageFetcher) get(ctx context.Context, path, serverID string) (string, error) {
	u := fmt.Sprintf("%s/%s?id=%s", f.baseURL, path, url.QueryEscape(serverID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return "", err
	}
	res, err := f.sessions.Client().Do(req)
	if err != nil {
		return "", fmt.Errorf("portal fetch %s: %w", path, err)
	}
	return readBody(res)
}

func readBody(res *http.Response) (string, error) {
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return "", fmt.Errorf("status HTTP %d", res.StatusCode)
	}
	data, err := io.ReadAll(res.Body)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
