package ishares

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/wonny/etfnav/backend/pkg/httputil"
	"github.com/wonny/etfnav/backend/pkg/logger"
)

// Suffix is the exchange suffix for TSX tickers
const Suffix = ".TO"

var tickerRe = regexp.MustCompile(`^[A-Z][A-Z0-9.]{0,9}$`)

// Client fetches fund listing pages
// ⭐ SSOT: ETF 유니버스 목록 수집은 이 클라이언트에서만
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
}

// NewClient creates a listing client
func NewClient(httpClient *httputil.Client, log *logger.Logger) *Client {
	return &Client{
		httpClient: httpClient,
		logger:     log.WithField("module", "ishares"),
	}
}

// FetchListing downloads a listing page and extracts its tickers
func (c *Client) FetchListing(ctx context.Context, url string) ([]string, error) {
	resp, err := c.httpClient.Get(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	tickers, err := ParseListing(resp.Body)
	if err != nil {
		return nil, err
	}

	c.logger.WithFields(map[string]interface{}{
		"url":   url,
		"count": len(tickers),
	}).Info("Fetched fund listing")
	return tickers, nil
}

// ParseListing extracts tickers from every table whose header has a "Ticker" column.
// Tickers are upper-cased, de-duplicated in page order and given the TSX suffix.
func ParseListing(r io.Reader) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse listing html: %w", err)
	}

	seen := make(map[string]bool)
	var out []string

	doc.Find("table").Each(func(_ int, table *goquery.Selection) {
		col := -1
		table.Find("tr").First().Find("th, td").Each(func(i int, cell *goquery.Selection) {
			if col < 0 && strings.EqualFold(strings.TrimSpace(cell.Text()), "ticker") {
				col = i
			}
		})
		if col < 0 {
			return
		}

		table.Find("tr").Each(func(i int, row *goquery.Selection) {
			if i == 0 {
				return
			}
			cells := row.Find("td")
			if cells.Length() <= col {
				return
			}
			t := normalizeTicker(cells.Eq(col).Text())
			if t == "" || seen[t] {
				return
			}
			seen[t] = true
			out = append(out, t)
		})
	})

	return out, nil
}

func normalizeTicker(raw string) string {
	t := strings.ToUpper(strings.TrimSpace(raw))
	t = strings.TrimSuffix(t, Suffix)
	if !tickerRe.MatchString(t) {
		return ""
	}
	return t + Suffix
}
