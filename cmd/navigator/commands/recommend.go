package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/etfnav/backend/internal/brain"
	"github.com/wonny/etfnav/backend/internal/contracts"
)

// recommendCmd represents the recommend command
var recommendCmd = &cobra.Command{
	Use:   "recommend",
	Short: "ETF 추천 실행",
	Long: `투자자 프로필로 전체 파이프라인을 실행하고 두 가지 점수 모델의
상위 ETF를 출력합니다.

점수 모델:
- ratio   : (성장률 − 무위험수익률) / 변동성
- utility : W_return × 정규화 초과수익 − W_risk × 정규화 변동성

후보 모드:
- quadrant  : 목표 사분면 (strict_and → relaxed_or → all)
- neighbors : 표준화 공간 최근접 K개
- all       : 전체 유니버스

Example:
  go run ./cmd/navigator recommend --choice 2,2,2,2,2,2
  go run ./cmd/navigator recommend --growth 8 --fluctuation 12 --mode neighbors
  go run ./cmd/navigator recommend --date 2023-06-30 --json`,
	RunE: runRecommend,
}

var (
	recommendProfile profileFlags
	recommendDate    string
	recommendMode    string
	recommendCount   int
	recommendK       int
	recommendTickers string
)

func init() {
	rootCmd.AddCommand(recommendCmd)

	recommendProfile.bind(recommendCmd)
	recommendCmd.Flags().StringVar(&recommendDate, "date", "", "기준일 (YYYY-MM-DD, 기본: 오늘)")
	recommendCmd.Flags().StringVar(&recommendMode, "mode", string(brain.ModeQuadrant), "후보 모드 (quadrant|neighbors|all)")
	recommendCmd.Flags().IntVar(&recommendCount, "count", 0, "추천 개수 (기본: 전략 설정)")
	recommendCmd.Flags().IntVar(&recommendK, "k", 0, "최근접 이웃 수 (기본: 전략 설정)")
	recommendCmd.Flags().StringVar(&recommendTickers, "tickers", "", "쉼표 구분 티커 (기본: iShares 유니버스)")
}

func runRecommend(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	profile, err := recommendProfile.resolve(cmd)
	if err != nil {
		return err
	}
	mode, err := brain.ParseMode(recommendMode)
	if err != nil {
		return err
	}
	ref, err := parseDateFlag(recommendDate)
	if err != nil {
		return err
	}

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	tickers := parseTickers(recommendTickers, a.universe)
	history, riskFree, err := a.load(ctx, tickers)
	if err != nil {
		return err
	}

	result, err := a.orchestrator.Recommend(ctx, brain.RecommendRequest{
		Profile:       profile,
		Universe:      tickers,
		History:       history,
		RiskFree:      riskFree,
		ReferenceDate: ref,
		Mode:          mode,
		Count:         recommendCount,
		NeighborK:     recommendK,
	})
	if err != nil {
		return fmt.Errorf("recommend: %w", err)
	}

	if jsonOutput {
		return PrintJSON(result)
	}

	PrintHeader("ETF Recommendation")
	PrintKeyValue("Run ID", result.RunID, 12)
	PrintKeyValue("Reference", result.ReferenceDate.Format(contracts.DateLayout), 12)
	PrintKeyValue("Profile", formatProfile(profile), 12)
	PrintKeyValue("Mode", fmt.Sprintf("%s (%s)", result.Mode, result.CandidateStage), 12)
	PrintKeyValue("Risk-free", fmt.Sprintf("%.2f%%", result.RiskFreePct), 12)
	PrintKeyValue("Excluded", fmt.Sprintf("%d", len(result.Excluded)), 12)

	printRecommendation(result.Ratio)
	printRecommendation(result.Utility)
	fmt.Println()
	PrintSuccess(fmt.Sprintf("Completed in %.2fs", result.Duration.Seconds()))
	return nil
}

func printRecommendation(rec contracts.Recommendation) {
	fmt.Printf("\n[%s]\n", rec.Kind)
	if len(rec.Items) == 0 {
		PrintWarning("no candidates")
		return
	}

	widths := []int{4, 10, 10, 10, 10}
	PrintTableHeader([]string{"#", "Ticker", "Growth%", "Vol%", "Score"}, widths)
	for i, it := range rec.Items {
		PrintTableRow([]string{
			fmt.Sprintf("%d", i+1),
			it.Ticker,
			formatOptional(it.AnnualGrowthPct, 2),
			formatOptional(it.AnnualVolatilityPct, 2),
			formatOptional(it.Score, 4),
		}, widths)
	}
}

func parseDateFlag(s string) (time.Time, error) {
	if s == "" {
		return contracts.Day(time.Now()), nil
	}
	t, err := time.Parse(contracts.DateLayout, s)
	if err != nil {
		return time.Time{}, &contracts.ValidationError{Field: "date", Message: "expected YYYY-MM-DD"}
	}
	return t, nil
}
