package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/etfnav/backend/internal/brain"
	"github.com/wonny/etfnav/backend/internal/contracts"
)

// neighborsCmd represents the neighbors command
var neighborsCmd = &cobra.Command{
	Use:   "neighbors",
	Short: "목표 지점 최근접 ETF 조회",
	Long: `표준화된 (−변동성, 성장률) 공간에서 목표 성장률/변동성에
가장 가까운 ETF K개를 거리순으로 출력합니다.

Example:
  go run ./cmd/navigator neighbors --growth 7 --fluctuation 10 --k 8`,
	RunE: runNeighbors,
}

var (
	neighborsProfile profileFlags
	neighborsDate    string
	neighborsK       int
	neighborsTickers string
)

func init() {
	rootCmd.AddCommand(neighborsCmd)

	neighborsProfile.bind(neighborsCmd)
	neighborsCmd.Flags().StringVar(&neighborsDate, "date", "", "기준일 (YYYY-MM-DD, 기본: 오늘)")
	neighborsCmd.Flags().IntVar(&neighborsK, "k", 0, "이웃 수 (기본: 전략 설정)")
	neighborsCmd.Flags().StringVar(&neighborsTickers, "tickers", "", "쉼표 구분 티커 (기본: iShares 유니버스)")
}

func runNeighbors(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	profile, err := neighborsProfile.resolve(cmd)
	if err != nil {
		return err
	}
	ref, err := parseDateFlag(neighborsDate)
	if err != nil {
		return err
	}

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	tickers := parseTickers(neighborsTickers, a.universe)
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
		Mode:          brain.ModeNeighbors,
		NeighborK:     neighborsK,
	})
	if err != nil {
		return fmt.Errorf("neighbors: %w", err)
	}

	if jsonOutput {
		return PrintJSON(result.Neighbors)
	}

	PrintHeader("Nearest ETFs")
	PrintKeyValue("Reference", ref.Format(contracts.DateLayout), 10)
	PrintKeyValue("Target", fmt.Sprintf("growth %.1f%% / vol %.1f%%", profile.DesiredGrowthPct, profile.FluctuationTolerancePct), 10)
	fmt.Println()

	widths := []int{4, 10, 10, 10, 10}
	PrintTableHeader([]string{"#", "Ticker", "Growth%", "Vol%", "Distance"}, widths)
	for i, n := range result.Neighbors {
		PrintTableRow([]string{
			fmt.Sprintf("%d", i+1),
			n.Ticker,
			formatOptional(n.AnnualGrowthPct, 2),
			formatOptional(n.AnnualVolatilityPct, 2),
			fmt.Sprintf("%.4f", n.Distance),
		}, widths)
	}
	return nil
}
