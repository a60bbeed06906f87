package s0_data

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/wonny/etfnav/backend/internal/contracts"
)

// MemoryStore serves a validated in-memory PriceHistory
type MemoryStore struct {
	history *contracts.PriceHistory
}

// NewMemoryStore wraps an existing history
func NewMemoryStore(history *contracts.PriceHistory) *MemoryStore {
	return &MemoryStore{history: history}
}

// Load returns the subset of the history for the requested tickers.
// Unknown tickers are simply absent; callers treat them as missing data.
func (s *MemoryStore) Load(_ context.Context, tickers []string) (*contracts.PriceHistory, error) {
	return s.history.Subset(tickers), nil
}

// History returns the whole underlying history
func (s *MemoryStore) History() *contracts.PriceHistory {
	return s.history
}

// priceFile is the JSON layout: {"XIU.TO": {"adj_close": [{"date": "2020-01-02", "value": 25.1}]}}
type priceFile map[string]map[contracts.Field][]struct {
	Date  string   `json:"date"`
	Value *float64 `json:"value"`
}

// DecodeHistory parses the JSON price layout into a validated history
func DecodeHistory(r io.Reader) (*contracts.PriceHistory, error) {
	var pf priceFile
	if err := json.NewDecoder(r).Decode(&pf); err != nil {
		return nil, fmt.Errorf("decode price file: %w", err)
	}

	raw := make(map[string]map[contracts.Field][]contracts.Observation, len(pf))
	for ticker, fields := range pf {
		raw[ticker] = make(map[contracts.Field][]contracts.Observation, len(fields))
		for field, points := range fields {
			obs := make([]contracts.Observation, 0, len(points))
			for _, p := range points {
				if p.Value == nil {
					continue
				}
				date, err := time.Parse(contracts.DateLayout, p.Date)
				if err != nil {
					return nil, &contracts.ValidationError{Field: "date", Message: fmt.Sprintf("%s %s: %v", ticker, field, err)}
				}
				obs = append(obs, contracts.Observation{Date: date, Value: *p.Value})
			}
			raw[ticker][field] = obs
		}
	}
	return contracts.NewPriceHistory(raw)
}

// LoadFile reads a JSON price file into a MemoryStore
func LoadFile(path string) (*MemoryStore, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open price file: %w", err)
	}
	defer f.Close()

	h, err := DecodeHistory(f)
	if err != nil {
		return nil, err
	}
	return NewMemoryStore(h), nil
}
