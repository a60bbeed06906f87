package scoring

import (
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/wonny/etfnav/backend/internal/contracts"
)

// AverageRiskFree returns the mean yield (pct) over the last horizonYears of
// the series as known on asOf. Observations after asOf are never read.
func AverageRiskFree(series contracts.RiskFreeSeries, horizonYears int, asOf time.Time) contracts.Optional {
	known := series.Until(contracts.Day(asOf))
	maxDate, ok := known.MaxDate()
	if !ok {
		return contracts.Unavailable()
	}

	yields := known.Window(contracts.YearsBefore(maxDate, horizonYears), maxDate).Yields()
	if len(yields) == 0 {
		return contracts.Unavailable()
	}
	return contracts.Some(stat.Mean(yields, nil))
}
