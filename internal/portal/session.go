package portal

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// Markers the portal leaks about its own state. A logged-in page carries a
// logout control; a bounce back to the login page carries a password input.
const (
	loggedInMarker  = "logout"
	loginPageMarker = `type="password"`
)

// ErrAuth means the login POST did not land on an authenticated page
// (bad credentials, or the portal changed its form).
var ErrAuth = errors.New("portal: login rejected")

// Session lifecycle. There is at most one live session per process.
type sessionState int

const (
	sessionAbsent sessionState = iota
	sessionValid
	sessionInvalid
)

// Credentials for the portal login form.
type Credentials struct {
	LoginURL string
	Username string
	Password string
}

// SessionManager owns the one authenticated portal session (the cookie jar
// behind its http.Client). It logs in lazily, hands the client out for page
// fetches, and re-logs-in after an explicit Invalidate. Login attempts are
// serialized: concurrent audits must not race on the anti-forgery token.
type SessionManager struct {
	creds  Credentials
	client *http.Client

	mu    sync.Mutex
	state sessionState
}

// NewSessionManager builds a manager with a fresh cookie jar. The client
// tolerates the portal's internal certificate, same as the old tooling did.
func NewSessionManager(creds Credentials) *SessionManager {
	jar, _ := cookiejar.New(nil)
	tr := &http.Transport{TLSClientConfig: &tls.Config{InsecureSkipVerify: true}}
	return &SessionManager{
		creds: creds,
		client: &http.Client{
			Transport: tr,
			Jar:       jar,
			Timeout:   requestTimeout,
		},
	}
}

// Client returns the HTTP client carrying the session cookies.
func (m *SessionManager) Client() *http.Client { return m.client }

// Valid reports whether the current session is believed usable.
func (m *SessionManager) Valid() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state == sessionValid
}

// Invalidate marks the session unusable. The next Ensure call logs in again.
// Called by the fetch path when a report page bounces to the login form.
func (m *SessionManager) Invalidate() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == sessionValid {
		fmt.Println("⚠️  Portal session expired, will re-authenticate")
	}
	m.state = sessionInvalid
}

// Ensure makes sure a valid session exists, logging in if needed.
func (m *SessionManager) Ensure(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state == sessionValid {
		return nil
	}
	if err := m.login(ctx); err != nil {
		return err
	}
	m.state = sessionValid
	return nil
}

// login runs the portal's form flow: GET the login page, lift the hidden
// anti-forgery token out of the form, POST it back with the credentials,
// and confirm the response is an authenticated page. Caller holds m.mu.
func (m *SessionManager) login(ctx context.Context) error {
	fmt.Println("🔑 Logging in to portal:", m.creds.LoginURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.creds.LoginURL, nil)
	if err != nil {
		return err
	}
	res, err := m.client.Do(req)
	if err != nil {
		return fmt.Errorf("portal login page: %w", err)
	}
	doc, err := goquery.NewDocumentFromReader(res.Body)
	res.Body.Close()
	if err != nil {
		return fmt.Errorf("portal login page: %w", err)
	}

	token, _ := doc.Find(`input[name="token"]`).First().Attr("value")

	form := url.Values{
		"token":    {token},
		"username": {m.creds.Username},
		"password": {m.creds.Password},
		"login":    {"Login"},
	}
	req, err = http.NewRequestWithContext(ctx, http.MethodPost,
		m.creds.LoginURL, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	res, err = m.client.Do(req)
	if err != nil {
		return fmt.Errorf("portal login post: %w", err)
	}
	body, err := readBody(res)
	if err != nil {
		return fmt.Errorf("portal login post: %w", err)
	}

	if !strings.Contains(strings.ToLower(body), loggedInMarker) {
		return ErrAuth
	}
	fmt.Println("✅ Portal login successful")
	return nil
}

const requestTimeout = 15 * time.Second
