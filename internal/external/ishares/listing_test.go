package ishares

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/etfnav/backend/pkg/httputil"
	"github.com/wonny/etfnav/backend/pkg/logger"
)

const listingHTML = `
<html><body>
<table id="nav">
  <tr><th>Menu</th></tr>
  <tr><td>XIU</td></tr>
</table>
<table class="product-table">
  <tr><th>Fund Name</th><th>Ticker</th><th>MER</th></tr>
  <tr><td>iShares S&amp;P/TSX 60 Index ETF</td><td> xiu </td><td>0.18</td></tr>
  <tr><td>iShares Core Equity ETF Portfolio</td><td>XEQT.TO</td><td>0.20</td></tr>
  <tr><td>Duplicate</td><td>XIU</td><td>0.18</td></tr>
  <tr><td>Footnote</td><td>—</td><td></td></tr>
  <tr><td>short row</td></tr>
</table>
</body></html>`

func TestParseListing(t *testing.T) {
	tickers, err := ParseListing(strings.NewReader(listingHTML))
	require.NoError(t, err)
	assert.Equal(t, []string{"XIU.TO", "XEQT.TO"}, tickers)
}

func TestFetchListing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(listingHTML))
	}))
	defer server.Close()

	client := NewClient(httputil.New(logger.Nop(), time.Second).DisableRetry(), logger.Nop())
	tickers, err := client.FetchListing(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Len(t, tickers, 2)
}

func TestDefaultUniverse(t *testing.T) {
	u := DefaultUniverse()
	assert.Contains(t, u, "XEQT.TO")
	assert.Contains(t, u, "XIU.TO")

	seen := map[string]bool{}
	for _, tk := range u {
		assert.True(t, strings.HasSuffix(tk, Suffix), tk)
		assert.False(t, seen[tk], "duplicate %s", tk)
		seen[tk] = true
	}

	u[0] = "MUTATED"
	assert.NotEqual(t, "MUTATED", DefaultUniverse()[0])
}
