package backtest

import (
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/wonny/etfnav/backend/internal/contracts"
	"github.com/wonny/etfnav/backend/internal/metrics"
	"github.com/wonny/etfnav/backend/internal/risk"
)

// Evaluate measures a basket over [from, to] with an equal-weighted daily
// return series. riskFree is the annual rate as a fraction; unavailable means 0.
func (e *Engine) Evaluate(label string, rec contracts.Recommendation, history *contracts.PriceHistory, from, to time.Time, riskFree contracts.Optional, profile contracts.UserProfile) contracts.BacktestResult {
	result := contracts.BacktestResult{
		Label:   label,
		Tickers: rec.Tickers(),
	}
	result.TrainAnnualGrowthPct, result.TrainVolatilityPct = trainMeans(rec.Items)

	daily := basketReturns(result.Tickers, history, from, to)
	if len(daily) == 0 {
		e.logger.WithFields(map[string]interface{}{
			"label":   label,
			"tickers": result.Tickers,
		}).Warn("Basket has no usable test data")
		return result
	}

	days := float64(e.config.TradingDaysPerYear)
	rf := riskFree.Or(0)

	mean := stat.Mean(daily, nil)
	annual := math.Pow(1+mean, days) - 1
	vol := stat.StdDev(daily, nil) * math.Sqrt(days)

	var downside []float64
	for _, r := range daily {
		if r < 0 {
			downside = append(downside, r)
		}
	}
	downsideDev := math.NaN()
	if len(downside) > 1 {
		downsideDev = stat.StdDev(downside, nil) * math.Sqrt(days)
	}

	curve := make([]float64, 0, len(daily)+1)
	level := 1.0
	curve = append(curve, level)
	for _, r := range daily {
		level *= 1 + r
		curve = append(curve, level)
	}

	threshold := (profile.DesiredGrowthPct - profile.FluctuationTolerancePct) / 100 / days
	shortfall := 0.0
	for _, r := range daily {
		if r < threshold {
			shortfall += threshold - r
		}
	}
	shortfall /= float64(len(daily))

	var reward float64
	if e.config.WeightedShortfall {
		reward = profile.ReturnWeight*annual*100 - profile.RiskWeight*shortfall*100
	} else {
		reward = annual*100 - shortfall*100
	}

	result.AnnualReturnPct = contracts.Some(annual * 100)
	result.VolatilityPct = contracts.Some(vol * 100)
	result.SharpeRatio = contracts.Some((annual - rf) / vol)
	result.SortinoRatio = contracts.Some((annual - rf) / downsideDev)
	result.MaxDrawdownPct = contracts.Some(metrics.MaxDrawdown(curve) * 100)
	result.MeanShortfallPct = contracts.Some(shortfall * 100)
	result.RewardToShortfall = contracts.Some(reward)
	result.TestDays = len(daily)

	if tail, err := risk.Historical(daily, e.config.VaRConfidence); err == nil {
		result.DailyVaRPct = contracts.Some(tail.VaR * 100)
		result.DailyCVaRPct = contracts.Some(tail.CVaR * 100)
	}

	return result
}

// basketReturns averages member daily returns per date. Members with fewer
// than 2 prices in the window are skipped.
func basketReturns(tickers []string, history *contracts.PriceHistory, from, to time.Time) []float64 {
	type acc struct {
		sum float64
		n   int
	}
	byDate := make(map[time.Time]*acc)

	for _, t := range tickers {
		window := history.AdjClose(t).Window(from, to)
		if window.Len() < 2 {
			continue
		}
		obs := window.Observations()
		returns := metrics.DailyReturns(window.Values())
		for i, r := range returns {
			d := obs[i+1].Date
			a, ok := byDate[d]
			if !ok {
				a = &acc{}
				byDate[d] = a
			}
			a.sum += r
			a.n++
		}
	}

	dates := make([]time.Time, 0, len(byDate))
	for d := range byDate {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	out := make([]float64, len(dates))
	for i, d := range dates {
		a := byDate[d]
		out[i] = a.sum / float64(a.n)
	}
	return out
}

// trainMeans averages the training-side growth and volatility of the basket
func trainMeans(items []contracts.ScoredInstrument) (growth, vol contracts.Optional) {
	if len(items) == 0 {
		return contracts.Unavailable(), contracts.Unavailable()
	}
	g := make([]float64, len(items))
	v := make([]float64, len(items))
	for i, it := range items {
		g[i] = it.AnnualGrowthPct.V
		v[i] = it.AnnualVolatilityPct.V
	}
	return contracts.Some(stat.Mean(g, nil)), contracts.Some(stat.Mean(v, nil))
}
