package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/etfnav/backend/internal/backtest"
	"github.com/wonny/etfnav/backend/internal/contracts"
)

// backtestCmd represents the backtest command
var backtestCmd = &cobra.Command{
	Use:   "backtest",
	Short: "추천 백테스트",
	Long: `학습 구간(now − years 이전) 데이터만으로 두 추천 바스켓을 고른 뒤
검증 구간 [now − years, now]에서 성과를 비교합니다.

검증 지표:
- 연 수익률, 변동성, Sharpe, Sortino, MDD
- 목표 대비 평균 부족분(shortfall)과 reward-to-shortfall

Example:
  go run ./cmd/navigator backtest run --choice 1,1,1,1,1,1 --years 3
  go run ./cmd/navigator backtest sweep --diagonal`,
}

var (
	backtestRunCmd = &cobra.Command{
		Use:   "run",
		Short: "단일 프로필 백테스트",
		RunE:  runBacktest,
	}

	backtestSweepCmd = &cobra.Command{
		Use:   "sweep",
		Short: "프로필 그리드 백테스트",
		Long: `여러 프로필에 대해 백테스트를 반복합니다.
실패한 프로필은 로그를 남기고 건너뜁니다.

--diagonal: 모든 답변이 같은 인덱스인 5개 프로필
(기본)     : 전체 5^6 그리드`,
		RunE: runSweep,
	}

	// Flags
	backtestProfile  profileFlags
	backtestNow      string
	backtestYears    int
	backtestTickers  string
	backtestDiagonal bool
)

func init() {
	rootCmd.AddCommand(backtestCmd)
	backtestCmd.AddCommand(backtestRunCmd)
	backtestCmd.AddCommand(backtestSweepCmd)

	backtestProfile.bind(backtestRunCmd)
	for _, c := range []*cobra.Command{backtestRunCmd, backtestSweepCmd} {
		c.Flags().StringVar(&backtestNow, "now", "", "검증 종료일 (YYYY-MM-DD, 기본: 오늘)")
		c.Flags().IntVar(&backtestYears, "years", 0, "검증 기간 (년, 기본: 전략 설정)")
		c.Flags().StringVar(&backtestTickers, "tickers", "", "쉼표 구분 티커 (기본: iShares 유니버스)")
	}
	backtestSweepCmd.Flags().BoolVar(&backtestDiagonal, "diagonal", false, "대각선 프로필 5개만 실행")
}

func backtestRequest(cmd *cobra.Command, a *app, profile contracts.UserProfile) (backtest.Request, error) {
	now, err := parseDateFlag(backtestNow)
	if err != nil {
		return backtest.Request{}, err
	}

	tickers := parseTickers(backtestTickers, a.universe)
	history, riskFree, err := a.load(cmd.Context(), tickers)
	if err != nil {
		return backtest.Request{}, err
	}

	return backtest.Request{
		Profile:         profile,
		Universe:        tickers,
		History:         history,
		RiskFree:        riskFree,
		Now:             now,
		TestPeriodYears: backtestYears,
	}, nil
}

func runBacktest(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	profile, err := backtestProfile.resolve(cmd)
	if err != nil {
		return err
	}

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	req, err := backtestRequest(cmd, a, profile)
	if err != nil {
		return err
	}

	result, err := a.backtester.Run(ctx, req)
	if err != nil {
		return fmt.Errorf("backtest: %w", err)
	}

	if jsonOutput {
		return PrintJSON(result)
	}
	printComparison(*result)
	return nil
}

func runSweep(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	profiles := contracts.AllProfiles()
	if backtestDiagonal {
		profiles = contracts.DiagonalProfiles()
	}

	req, err := backtestRequest(cmd, a, profiles[0])
	if err != nil {
		return err
	}

	results, err := a.backtester.Sweep(ctx, req, profiles)
	if err != nil {
		return fmt.Errorf("sweep: %w", err)
	}

	if jsonOutput {
		return PrintJSON(results)
	}

	PrintHeader(fmt.Sprintf("Backtest Sweep (%d/%d profiles)", len(results), len(profiles)))
	widths := []int{56, 12, 12}
	PrintTableHeader([]string{"Profile", "Ratio R/S", "Utility R/S"}, widths)
	for _, r := range results {
		PrintTableRow([]string{
			formatProfile(r.Profile),
			formatOptional(r.Sharpe.RewardToShortfall, 3),
			formatOptional(r.Custom.RewardToShortfall, 3),
		}, widths)
	}
	return nil
}

func printComparison(c contracts.Comparison) {
	PrintHeader("Backtest")
	PrintKeyValue("Profile", formatProfile(c.Profile), 10)
	PrintKeyValue("Train end", c.TrainEnd.Format(contracts.DateLayout), 10)
	PrintKeyValue("Test end", c.TestEnd.Format(contracts.DateLayout), 10)
	fmt.Println()

	widths := []int{20, 14, 14}
	PrintTableHeader([]string{"Metric", c.Sharpe.Label, c.Custom.Label}, widths)
	rows := []struct {
		name string
		get  func(contracts.BacktestResult) contracts.Optional
	}{
		{"Annual return %", func(r contracts.BacktestResult) contracts.Optional { return r.AnnualReturnPct }},
		{"Volatility %", func(r contracts.BacktestResult) contracts.Optional { return r.VolatilityPct }},
		{"Sharpe", func(r contracts.BacktestResult) contracts.Optional { return r.SharpeRatio }},
		{"Sortino", func(r contracts.BacktestResult) contracts.Optional { return r.SortinoRatio }},
		{"Max drawdown %", func(r contracts.BacktestResult) contracts.Optional { return r.MaxDrawdownPct }},
		{"Mean shortfall %", func(r contracts.BacktestResult) contracts.Optional { return r.MeanShortfallPct }},
		{"Reward/shortfall", func(r contracts.BacktestResult) contracts.Optional { return r.RewardToShortfall }},
		{"Train growth %", func(r contracts.BacktestResult) contracts.Optional { return r.TrainAnnualGrowthPct }},
		{"Train vol %", func(r contracts.BacktestResult) contracts.Optional { return r.TrainVolatilityPct }},
	}
	for _, row := range rows {
		PrintTableRow([]string{row.name, formatOptional(row.get(c.Sharpe), 3), formatOptional(row.get(c.Custom), 3)}, widths)
	}
	PrintTableRow([]string{"Tickers", fmt.Sprint(c.Sharpe.Tickers), fmt.Sprint(c.Custom.Tickers)}, widths)
}
