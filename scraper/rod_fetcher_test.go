package scraper

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-rod/rod/lib/launcher"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pricewatch/logging"
)

func newTestRodFetcher(t *testing.T) *RodFetcher {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping browser test in short mode")
	}
	bin, ok := launcher.LookPath()
	if !ok {
		t.Skip("chromium not available")
	}

	f, err := NewRodFetcher(RodConfig{BrowserBin: bin, Timeout: 20 * time.Second}, logging.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { f.Close() })
	return f
}

func TestRodFetcher_FetchReleasesPages(t *testing.T) {
	f := newTestRodFetcher(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(productPage))
	}))
	defer srv.Close()

	before, err := f.browser.Pages()
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		markup, err := f.Fetch(context.Background(), srv.URL)
		require.NoError(t, err)
		assert.Contains(t, markup, "productTitle")
	}

	after, err := f.browser.Pages()
	require.NoError(t, err)
	assert.Len(t, after, len(before), "every fetch closes its page")
}

func TestRodFetcher_EmptySourceID(t *testing.T) {
	f := &RodFetcher{config: RodConfig{Timeout: time.Second}, detector: NewBotDetector(), log: logging.Discard()}

	_, err := f.Fetch(context.Background(), "  ")
	assert.ErrorIs(t, err, ErrRetrievalFailed)
}
