package boc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/wonny/etfnav/backend/internal/contracts"
	"github.com/wonny/etfnav/backend/pkg/config"
	"github.com/wonny/etfnav/backend/pkg/httputil"
	"github.com/wonny/etfnav/backend/pkg/logger"
)

const snippetLen = 500

// Client fetches the 3-month T-bill yield from the Bank of Canada Valet API
// ⭐ SSOT: 무위험 수익률 API 호출은 이 클라이언트에서만
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string
	seriesKey  string
}

// NewClient creates a Valet client. Retries stay disabled: a failed fetch must surface to the caller.
func NewClient(cfg config.RiskFreeConfig, log *logger.Logger) *Client {
	httpClient := httputil.New(log, cfg.Timeout).
		DisableRetry().
		WithRateLimit(2, 1).
		WithBreaker(httputil.BreakerConfig{
			Name:                "boc-valet",
			ConsecutiveFailures: 3,
			OpenTimeout:         time.Minute,
		})

	return &Client{
		httpClient: httpClient,
		logger:     log.WithField("module", "boc"),
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		seriesKey:  cfg.SeriesKey,
	}
}

// valetResponse is the subset of the Valet payload we read
type valetResponse struct {
	Observations []map[string]json.RawMessage `json:"observations"`
}

type valetValue struct {
	V *string `json:"v"`
}

// URL returns the observations endpoint for a start date
func (c *Client) URL(start time.Time) string {
	return fmt.Sprintf("%s/observations/%s/json?start_date=%s", c.baseURL, c.seriesKey, start.Format(contracts.DateLayout))
}

// Fetch downloads and parses the yield series from start onwards
func (c *Client) Fetch(ctx context.Context, start time.Time) (contracts.RiskFreeSeries, error) {
	url := c.URL(start)

	status, body, err := c.httpClient.GetBody(ctx, url)
	if err != nil {
		return contracts.RiskFreeSeries{}, &contracts.UpstreamFetchError{URL: url, Status: status, Err: err}
	}
	if status != http.StatusOK {
		return contracts.RiskFreeSeries{}, &contracts.UpstreamFetchError{
			URL:     url,
			Status:  status,
			Snippet: contracts.Snippet(body, snippetLen),
			Err:     fmt.Errorf("unexpected status code: %d", status),
		}
	}

	series, err := Parse(body, c.seriesKey)
	if err != nil {
		return contracts.RiskFreeSeries{}, &contracts.UpstreamFetchError{
			URL:     url,
			Status:  status,
			Snippet: contracts.Snippet(body, snippetLen),
			Err:     err,
		}
	}

	c.logger.WithFields(map[string]interface{}{
		"series":       c.seriesKey,
		"start":        start.Format(contracts.DateLayout),
		"observations": series.Len(),
	}).Info("Fetched risk-free series")

	return series, nil
}

// Parse errors
var (
	ErrNotJSON        = errors.New("response not valid JSON")
	ErrNoObservations = errors.New("no observations in response")
	ErrNoSeriesKey    = errors.New("no series key in observation")
	ErrZeroRows       = errors.New("zero observations parsed")
)

// Parse decodes a Valet observations payload.
// The series key is detected from the first observation, preferring want when several are present.
// Observations with a missing date or non-numeric value are skipped.
func Parse(body []byte, want string) (contracts.RiskFreeSeries, error) {
	var payload valetResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return contracts.RiskFreeSeries{}, fmt.Errorf("%w: %v", ErrNotJSON, err)
	}
	if len(payload.Observations) == 0 {
		return contracts.RiskFreeSeries{}, ErrNoObservations
	}

	key, err := detectSeriesKey(payload.Observations[0], want)
	if err != nil {
		return contracts.RiskFreeSeries{}, err
	}

	obs := make([]contracts.Observation, 0, len(payload.Observations))
	for _, o := range payload.Observations {
		var dateStr string
		if raw, ok := o["d"]; !ok || json.Unmarshal(raw, &dateStr) != nil {
			continue
		}
		date, err := time.Parse(contracts.DateLayout, dateStr)
		if err != nil {
			continue
		}

		var v valetValue
		raw, ok := o[key]
		if !ok || json.Unmarshal(raw, &v) != nil || v.V == nil {
			continue
		}
		yield, err := strconv.ParseFloat(strings.TrimSpace(*v.V), 64)
		if err != nil {
			continue
		}
		obs = append(obs, contracts.Observation{Date: date, Value: yield})
	}

	if len(obs) == 0 {
		return contracts.RiskFreeSeries{}, ErrZeroRows
	}

	// Valet returns ascending dates; sort anyway so a reordered payload still validates
	sort.SliceStable(obs, func(i, j int) bool { return obs[i].Date.Before(obs[j].Date) })
	return contracts.NewRiskFreeSeries(dedupe(obs))
}

func detectSeriesKey(sample map[string]json.RawMessage, want string) (string, error) {
	keys := make([]string, 0, len(sample))
	for k := range sample {
		if k != "d" {
			keys = append(keys, k)
		}
	}
	if len(keys) == 0 {
		return "", ErrNoSeriesKey
	}
	sort.Strings(keys)
	for _, k := range keys {
		if k == want {
			return k, nil
		}
	}
	return keys[0], nil
}

// dedupe keeps the last observation for each date
func dedupe(obs []contracts.Observation) []contracts.Observation {
	out := obs[:0]
	for _, o := range obs {
		if n := len(out); n > 0 && out[n-1].Date.Equal(o.Date) {
			out[n-1] = o
			continue
		}
		out = append(out, o)
	}
	return out
}
