package contracts

import "fmt"

// UserProfile is the investor's declared preference, immutable per request
type UserProfile struct {
	TimeHorizonYears        int     `json:"time_horizon_years"`
	DesiredGrowthPct        float64 `json:"desired_growth_pct"`
	FluctuationTolerancePct float64 `json:"fluctuation_tolerance_pct"`
	MaxDrawdownTolerancePct float64 `json:"max_drawdown_tolerance_pct"`
	MinTrackRecordYears     int     `json:"min_track_record_years"`
	RiskWeight              float64 `json:"risk_weight"`
	ReturnWeight            float64 `json:"return_weight"`
}

// Validate checks the profile for values no stage can work with
func (p UserProfile) Validate() error {
	switch {
	case p.TimeHorizonYears <= 0:
		return &ValidationError{Field: "time_horizon_years", Message: "must be positive"}
	case p.FluctuationTolerancePct < 0:
		return &ValidationError{Field: "fluctuation_tolerance_pct", Message: "must not be negative"}
	case p.MaxDrawdownTolerancePct < 0:
		return &ValidationError{Field: "max_drawdown_tolerance_pct", Message: "must not be negative"}
	case p.MinTrackRecordYears < 0:
		return &ValidationError{Field: "min_track_record_years", Message: "must not be negative"}
	case p.RiskWeight < 0 || p.ReturnWeight < 0:
		return &ValidationError{Field: "risk_return_weight", Message: "weights must not be negative"}
	case p.RiskWeight+p.ReturnWeight <= 0:
		return &ValidationError{Field: "risk_return_weight", Message: "weights must sum to a positive value"}
	}
	return nil
}

// NormalizedWeights returns (W_return, W_risk), summing to 1
func (p UserProfile) NormalizedWeights() (wReturn, wRisk float64) {
	total := p.ReturnWeight + p.RiskWeight
	return p.ReturnWeight / total, p.RiskWeight / total
}

// ProfileOptions are the answer scales offered to investors, lowest to highest risk appetite
var ProfileOptions = struct {
	HorizonYears        []int
	GrowthPct           []float64
	FluctuationPct      []float64
	MaxDrawdownPct      []float64
	MinTrackRecordYears []int
	RiskReturnWeights   [][2]float64 // (risk, return)
}{
	HorizonYears:        []int{1, 4, 8, 15, 25},
	GrowthPct:           []float64{2, 5, 10, 16, 21},
	FluctuationPct:      []float64{5, 10, 15, 20, 35},
	MaxDrawdownPct:      []float64{15, 25, 35, 45, 100},
	MinTrackRecordYears: []int{10, 5, 3, 1, 0},
	RiskReturnWeights:   [][2]float64{{3, 1}, {2, 1}, {1, 1}, {1, 2}, {1, 3}},
}

// ProfileChoice selects one option index (0-4) per question
type ProfileChoice struct {
	Horizon     int `json:"horizon"`
	Growth      int `json:"growth"`
	Fluctuation int `json:"fluctuation"`
	Drawdown    int `json:"drawdown"`
	TrackRecord int `json:"track_record"`
	RiskReturn  int `json:"risk_return"`
}

// ProfileFromChoice builds a profile from option indexes
func ProfileFromChoice(c ProfileChoice) (UserProfile, error) {
	o := ProfileOptions
	checks := []struct {
		name string
		idx  int
		n    int
	}{
		{"horizon", c.Horizon, len(o.HorizonYears)},
		{"growth", c.Growth, len(o.GrowthPct)},
		{"fluctuation", c.Fluctuation, len(o.FluctuationPct)},
		{"drawdown", c.Drawdown, len(o.MaxDrawdownPct)},
		{"track_record", c.TrackRecord, len(o.MinTrackRecordYears)},
		{"risk_return", c.RiskReturn, len(o.RiskReturnWeights)},
	}
	for _, ch := range checks {
		if ch.idx < 0 || ch.idx >= ch.n {
			return UserProfile{}, &ValidationError{Field: ch.name, Message: fmt.Sprintf("option index %d out of range [0,%d)", ch.idx, ch.n)}
		}
	}

	w := o.RiskReturnWeights[c.RiskReturn]
	return UserProfile{
		TimeHorizonYears:        o.HorizonYears[c.Horizon],
		DesiredGrowthPct:        o.GrowthPct[c.Growth],
		FluctuationTolerancePct: o.FluctuationPct[c.Fluctuation],
		MaxDrawdownTolerancePct: o.MaxDrawdownPct[c.Drawdown],
		MinTrackRecordYears:     o.MinTrackRecordYears[c.TrackRecord],
		RiskWeight:              w[0],
		ReturnWeight:            w[1],
	}, nil
}

// AllProfiles enumerates the profile grid, varying every question.
// The full grid has 5^6 entries; callers usually sweep a subset.
func AllProfiles() []UserProfile {
	n := 5
	out := make([]UserProfile, 0, 15625)
	for h := 0; h < n; h++ {
		for g := 0; g < n; g++ {
			for f := 0; f < n; f++ {
				for d := 0; d < n; d++ {
					for tr := 0; tr < n; tr++ {
						for rr := 0; rr < n; rr++ {
							p, _ := ProfileFromChoice(ProfileChoice{h, g, f, d, tr, rr})
							out = append(out, p)
						}
					}
				}
			}
		}
	}
	return out
}

// DiagonalProfiles returns the five profiles where every answer uses the same index
func DiagonalProfiles() []UserProfile {
	out := make([]UserProfile, 0, 5)
	for i := 0; i < 5; i++ {
		p, _ := ProfileFromChoice(ProfileChoice{i, i, i, i, i, i})
		out = append(out, p)
	}
	return out
}
