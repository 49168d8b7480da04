package portal

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchPagesAllThree(t *testing.T) {
	var hits atomic.Int32
	mux := http.NewServeMux()
	for _, p := range []struct{ path, body string }{
		{"/serverinfo.php", infoPageHTML},
		{"/serveraudit.php", auditPageHTML},
		{"/ajax_raid.php", raidPageHTML},
	} {
		body := p.body
		mux.HandleFunc(p.path, func(w http.ResponseWriter, r *http.Request) {
			hits.Add(1)
			assert.Equal(t, "44781", r.URL.Query().Get("id"))
			fmt.Fprint(w, body)
		})
	}
	ts := httptest.NewServer(mux)
	defer ts.Close()

	f, err := NewPageFetcher(newTestManager(ts, "u", "p"))
	require.NoError(t, err)

	pages, err := f.FetchPages(context.Background(), "44781")
	require.NoError(t, err)

	assert.Equal(t, int32(3), hits.Load())
	assert.Equal(t, infoPageHTML, pages.Info)
	assert.Equal(t, auditPageHTML, pages.Audit)
	assert.Equal(t, raidPageHTML, pages.RAID)
}

// One bounced page poisons the whole set: the caller gets the expiry
// signal and no documents, never a fresh/stale mix.
func TestFetchPagesDetectsExpiry(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/serverinfo.php", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, infoPageHTML)
	})
	mux.HandleFunc("/serveraudit.php", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, fakeLoginForm) // session died mid-audit
	})
	mux.HandleFunc("/ajax_raid.php", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, raidPageHTML)
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	f, err := NewPageFetcher(newTestManager(ts, "u", "p"))
	require.NoError(t, err)

	pages, err := f.FetchPages(context.Background(), "44781")
	assert.ErrorIs(t, err, ErrSessionExpired)
	assert.Nil(t, pages)
}

func TestFetchPagesNetworkFailureIsTotal(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/serverinfo.php", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, infoPageHTML)
	})
	mux.HandleFunc("/serveraudit.php", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})
	mux.HandleFunc("/ajax_raid.php", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, raidPageHTML)
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	f, err := NewPageFetcher(newTestManager(ts, "u", "p"))
	require.NoError(t, err)

	pages, err := f.FetchPages(context.Background(), "44781")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrSessionExpired)
	assert.Nil(t, pages)
}

func TestFetchPagesHonorsCancellation(t *testing.T) {
	mux := http.NewServeMux()
	for _, path := range []string{"/serverinfo.php", "/serveraudit.php", "/ajax_raid.php"} {
		mux.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
			<-r.Context().Done() // hang until the client gives up
		})
	}
	ts := httptest.NewServer(mux)
	defer ts.Close()

	f, err := NewPageFetcher(newTestManager(ts, "u", "p"))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = f.FetchPages(ctx, "44781")
	require.Error(t, err)
}

func TestNewPageFetcherRejectsBadURL(t *testing.T) {
	m := NewSessionManager(Credentials{LoginURL: "://not-a-url"})
	_, err := NewPageFetcher(m)
	assert.Error(t, err)
}
