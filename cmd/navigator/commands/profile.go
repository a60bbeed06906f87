package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wonny/etfnav/backend/internal/contracts"
)

// profileFlags binds the investor profile to a command
type profileFlags struct {
	choice      string
	horizon     int
	growth      float64
	fluctuation float64
	drawdown    float64
	trackRecord int
	riskWeight  float64
	returnWgt   float64
}

func (p *profileFlags) bind(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&p.choice, "choice", "2,2,2,2,2,2", "option indexes 0-4: horizon,growth,fluctuation,drawdown,track_record,risk_return")
	f.IntVar(&p.horizon, "horizon", 0, "투자 기간 (년), overrides --choice")
	f.Float64Var(&p.growth, "growth", 0, "목표 연 성장률 (%), overrides --choice")
	f.Float64Var(&p.fluctuation, "fluctuation", 0, "변동성 허용치 (%), overrides --choice")
	f.Float64Var(&p.drawdown, "drawdown", 0, "최대 낙폭 허용치 (%), overrides --choice")
	f.IntVar(&p.trackRecord, "track-record", 0, "최소 운용 이력 (년), overrides --choice")
	f.Float64Var(&p.riskWeight, "risk-weight", 0, "위험 가중치, overrides --choice")
	f.Float64Var(&p.returnWgt, "return-weight", 0, "수익 가중치, overrides --choice")
}

// resolve builds the profile from --choice, then applies explicit overrides
func (p *profileFlags) resolve(cmd *cobra.Command) (contracts.UserProfile, error) {
	choice, err := parseChoice(p.choice)
	if err != nil {
		return contracts.UserProfile{}, err
	}
	profile, err := contracts.ProfileFromChoice(choice)
	if err != nil {
		return contracts.UserProfile{}, err
	}

	f := cmd.Flags()
	if f.Changed("horizon") {
		profile.TimeHorizonYears = p.horizon
	}
	if f.Changed("growth") {
		profile.DesiredGrowthPct = p.growth
	}
	if f.Changed("fluctuation") {
		profile.FluctuationTolerancePct = p.fluctuation
	}
	if f.Changed("drawdown") {
		profile.MaxDrawdownTolerancePct = p.drawdown
	}
	if f.Changed("track-record") {
		profile.MinTrackRecordYears = p.trackRecord
	}
	if f.Changed("risk-weight") {
		profile.RiskWeight = p.riskWeight
	}
	if f.Changed("return-weight") {
		profile.ReturnWeight = p.returnWgt
	}

	return profile, profile.Validate()
}

func parseChoice(s string) (contracts.ProfileChoice, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 6 {
		return contracts.ProfileChoice{}, &contracts.ValidationError{Field: "choice", Message: fmt.Sprintf("expected 6 comma-separated indexes, got %d", len(parts))}
	}

	idx := make([]int, 6)
	for i, part := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return contracts.ProfileChoice{}, &contracts.ValidationError{Field: "choice", Message: fmt.Sprintf("index %d: %v", i, err)}
		}
		idx[i] = n
	}

	return contracts.ProfileChoice{
		Horizon:     idx[0],
		Growth:      idx[1],
		Fluctuation: idx[2],
		Drawdown:    idx[3],
		TrackRecord: idx[4],
		RiskReturn:  idx[5],
	}, nil
}

// parseTickers splits a comma-separated list; empty means the default universe
func parseTickers(s string, def []string) []string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	var out []string
	for _, t := range strings.Split(s, ",") {
		if t = strings.ToUpper(strings.TrimSpace(t)); t != "" {
			out = append(out, t)
		}
	}
	return out
}
