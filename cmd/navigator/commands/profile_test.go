package commands

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/etfnav/backend/internal/contracts"
)

func TestParseChoice(t *testing.T) {
	tests := []struct {
		in      string
		want    contracts.ProfileChoice
		wantErr bool
	}{
		{"0,1,2,3,4,0", contracts.ProfileChoice{Horizon: 0, Growth: 1, Fluctuation: 2, Drawdown: 3, TrackRecord: 4, RiskReturn: 0}, false},
		{" 2, 2 ,2,2,2,2", contracts.ProfileChoice{Horizon: 2, Growth: 2, Fluctuation: 2, Drawdown: 2, TrackRecord: 2, RiskReturn: 2}, false},
		{"1,2,3", contracts.ProfileChoice{}, true},
		{"a,1,1,1,1,1", contracts.ProfileChoice{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseChoice(tt.in)
			if tt.wantErr {
				var verr *contracts.ValidationError
				assert.ErrorAs(t, err, &verr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestProfileFlags_Overrides(t *testing.T) {
	var p profileFlags
	cmd := &cobra.Command{Use: "test"}
	p.bind(cmd)
	require.NoError(t, cmd.Flags().Parse([]string{"--choice", "0,0,0,0,0,0", "--growth", "7.5", "--track-record", "2"}))

	profile, err := p.resolve(cmd)
	require.NoError(t, err)
	assert.Equal(t, 1, profile.TimeHorizonYears)
	assert.Equal(t, 7.5, profile.DesiredGrowthPct)
	assert.Equal(t, 2, profile.MinTrackRecordYears)
	assert.Equal(t, 5.0, profile.FluctuationTolerancePct)
}

func TestProfileFlags_Invalid(t *testing.T) {
	var p profileFlags
	cmd := &cobra.Command{Use: "test"}
	p.bind(cmd)
	require.NoError(t, cmd.Flags().Parse([]string{"--horizon", "0"}))

	_, err := p.resolve(cmd)
	assert.Error(t, err)
}

func TestParseTickers(t *testing.T) {
	def := []string{"XIU.TO"}
	assert.Equal(t, def, parseTickers("  ", def))
	assert.Equal(t, []string{"XBB.TO", "XEQT.TO"}, parseTickers("xbb.to, XEQT.TO,,", def))
}
