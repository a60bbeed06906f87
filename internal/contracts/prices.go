package contracts

import (
	"fmt"
	"math"
	"sort"
	"time"
)

// Field names a price column
type Field string

const (
	FieldClose    Field = "close"
	FieldAdjClose Field = "adj_close"
)

// DateLayout is the wire format for dates
const DateLayout = "2006-01-02"

// Day truncates t to midnight UTC. All series dates are day-granular.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// YearsBefore returns the calendar date n years before t
func YearsBefore(t time.Time, years int) time.Time {
	return Day(t).AddDate(-years, 0, 0)
}

// Observation is a single dated value
type Observation struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}

// PriceSeries is an immutable, strictly date-ordered series
// ⭐ SSOT: 가격 시계열은 생성 시점에 검증됨
type PriceSeries struct {
	obs []Observation
}

// NewPriceSeries validates and builds a series.
// Non-finite and non-positive prices are dropped; unordered or duplicate dates are rejected.
func NewPriceSeries(obs []Observation) (PriceSeries, error) {
	clean := make([]Observation, 0, len(obs))
	for _, o := range obs {
		if math.IsNaN(o.Value) || math.IsInf(o.Value, 0) || o.Value <= 0 {
			continue
		}
		clean = append(clean, Observation{Date: Day(o.Date), Value: o.Value})
	}
	if err := checkOrdered(clean); err != nil {
		return PriceSeries{}, err
	}
	return PriceSeries{obs: clean}, nil
}

func checkOrdered(obs []Observation) error {
	for i := 1; i < len(obs); i++ {
		if !obs[i].Date.After(obs[i-1].Date) {
			return &ValidationError{
				Field:   "date",
				Message: fmt.Sprintf("dates must be strictly increasing: %s after %s", obs[i].Date.Format(DateLayout), obs[i-1].Date.Format(DateLayout)),
			}
		}
	}
	return nil
}

// Len returns the number of observations
func (s PriceSeries) Len() int { return len(s.obs) }

// IsEmpty reports whether the series has no observations
func (s PriceSeries) IsEmpty() bool { return len(s.obs) == 0 }

// At returns the i-th observation
func (s PriceSeries) At(i int) Observation { return s.obs[i] }

// First returns the earliest observation; ok is false for an empty series
func (s PriceSeries) First() (Observation, bool) {
	if len(s.obs) == 0 {
		return Observation{}, false
	}
	return s.obs[0], true
}

// Last returns the latest observation; ok is false for an empty series
func (s PriceSeries) Last() (Observation, bool) {
	if len(s.obs) == 0 {
		return Observation{}, false
	}
	return s.obs[len(s.obs)-1], true
}

// Window returns the sub-series with from <= date <= to.
// The returned series shares storage with s; both are read-only.
func (s PriceSeries) Window(from, to time.Time) PriceSeries {
	from, to = Day(from), Day(to)
	lo := sort.Search(len(s.obs), func(i int) bool { return !s.obs[i].Date.Before(from) })
	hi := sort.Search(len(s.obs), func(i int) bool { return s.obs[i].Date.After(to) })
	if lo >= hi {
		return PriceSeries{}
	}
	return PriceSeries{obs: s.obs[lo:hi:hi]}
}

// Until returns the sub-series with date <= to
func (s PriceSeries) Until(to time.Time) PriceSeries {
	to = Day(to)
	hi := sort.Search(len(s.obs), func(i int) bool { return s.obs[i].Date.After(to) })
	return PriceSeries{obs: s.obs[:hi:hi]}
}

// Values returns a copy of the observation values
func (s PriceSeries) Values() []float64 {
	out := make([]float64, len(s.obs))
	for i, o := range s.obs {
		out[i] = o.Value
	}
	return out
}

// Observations returns a copy of the observations
func (s PriceSeries) Observations() []Observation {
	out := make([]Observation, len(s.obs))
	copy(out, s.obs)
	return out
}

// PriceHistory maps ticker → field → series
// ⭐ SSOT: S0 → S1 가격 데이터 전달 (요청 동안 읽기 전용)
type PriceHistory struct {
	series map[string]map[Field]PriceSeries
}

// NewPriceHistory validates raw observations and builds an immutable history
func NewPriceHistory(raw map[string]map[Field][]Observation) (*PriceHistory, error) {
	h := &PriceHistory{series: make(map[string]map[Field]PriceSeries, len(raw))}
	for ticker, fields := range raw {
		if ticker == "" {
			return nil, &ValidationError{Field: "ticker", Message: "ticker must not be empty"}
		}
		h.series[ticker] = make(map[Field]PriceSeries, len(fields))
		for field, obs := range fields {
			if field != FieldClose && field != FieldAdjClose {
				return nil, &ValidationError{Field: "field", Message: fmt.Sprintf("unknown price field %q for %s", field, ticker)}
			}
			s, err := NewPriceSeries(obs)
			if err != nil {
				return nil, fmt.Errorf("ticker %s field %s: %w", ticker, field, err)
			}
			h.series[ticker][field] = s
		}
	}
	return h, nil
}

// Series returns the series for (ticker, field); empty when absent
func (h *PriceHistory) Series(ticker string, field Field) PriceSeries {
	if h == nil {
		return PriceSeries{}
	}
	return h.series[ticker][field]
}

// AdjClose is shorthand for Series(ticker, FieldAdjClose)
func (h *PriceHistory) AdjClose(ticker string) PriceSeries {
	return h.Series(ticker, FieldAdjClose)
}

// Has reports whether the ticker is present in the history
func (h *PriceHistory) Has(ticker string) bool {
	if h == nil {
		return false
	}
	_, ok := h.series[ticker]
	return ok
}

// Tickers returns all tickers in sorted order
func (h *PriceHistory) Tickers() []string {
	if h == nil {
		return nil
	}
	out := make([]string, 0, len(h.series))
	for t := range h.series {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Until returns a view of the history with every series cut at asOf.
// Downstream stages given this view cannot observe later prices.
func (h *PriceHistory) Until(asOf time.Time) *PriceHistory {
	out := &PriceHistory{series: make(map[string]map[Field]PriceSeries, len(h.series))}
	for ticker, fields := range h.series {
		out.series[ticker] = make(map[Field]PriceSeries, len(fields))
		for field, s := range fields {
			out.series[ticker][field] = s.Until(asOf)
		}
	}
	return out
}

// RiskFreeSeries is an ordered series of annualized yields in percent
type RiskFreeSeries struct {
	obs []Observation
}

// NewRiskFreeSeries validates ordering; non-finite yields are dropped
func NewRiskFreeSeries(obs []Observation) (RiskFreeSeries, error) {
	clean := make([]Observation, 0, len(obs))
	for _, o := range obs {
		if math.IsNaN(o.Value) || math.IsInf(o.Value, 0) {
			continue
		}
		clean = append(clean, Observation{Date: Day(o.Date), Value: o.Value})
	}
	if err := checkOrdered(clean); err != nil {
		return RiskFreeSeries{}, err
	}
	return RiskFreeSeries{obs: clean}, nil
}

// Len returns the number of observations
func (r RiskFreeSeries) Len() int { return len(r.obs) }

// Observations returns a copy of the observations
func (r RiskFreeSeries) Observations() []Observation {
	out := make([]Observation, len(r.obs))
	copy(out, r.obs)
	return out
}

// Until returns the series cut at asOf
func (r RiskFreeSeries) Until(asOf time.Time) RiskFreeSeries {
	s := PriceSeries{obs: r.obs}.Until(asOf)
	return RiskFreeSeries{obs: s.obs}
}

// Window returns yields with from <= date <= to
func (r RiskFreeSeries) Window(from, to time.Time) RiskFreeSeries {
	s := PriceSeries{obs: r.obs}.Window(from, to)
	return RiskFreeSeries{obs: s.obs}
}

// MaxDate returns the latest observation date; ok is false when empty
func (r RiskFreeSeries) MaxDate() (time.Time, bool) {
	if len(r.obs) == 0 {
		return time.Time{}, false
	}
	return r.obs[len(r.obs)-1].Date, true
}

// Yields returns a copy of the yield values
func (r RiskFreeSeries) Yields() []float64 {
	out := make([]float64, len(r.obs))
	for i, o := range r.obs {
		out[i] = o.Value
	}
	return out
}

// Subset returns a view restricted to the given tickers; unknown tickers are ignored
func (h *PriceHistory) Subset(tickers []string) *PriceHistory {
	out := &PriceHistory{series: make(map[string]map[Field]PriceSeries, len(tickers))}
	if h == nil {
		return out
	}
	for _, t := range tickers {
		if fields, ok := h.series[t]; ok {
			out.series[t] = fields
		}
	}
	return out
}
