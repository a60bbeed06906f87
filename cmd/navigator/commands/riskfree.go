package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/etfnav/backend/internal/contracts"
	"github.com/wonny/etfnav/backend/internal/scoring"
)

// riskFreeCmd represents the risk-free command
var riskFreeCmd = &cobra.Command{
	Use:   "risk-free",
	Short: "무위험수익률 조회",
	Long: `Bank of Canada 3개월 T-bill 수익률을 조회하고
각 투자 기간의 평균 수익률을 출력합니다.

Example:
  go run ./cmd/navigator risk-free
  go run ./cmd/navigator risk-free --date 2020-12-31`,
	RunE: runRiskFree,
}

var riskFreeDate string

func init() {
	rootCmd.AddCommand(riskFreeCmd)

	riskFreeCmd.Flags().StringVar(&riskFreeDate, "date", "", "기준일 (YYYY-MM-DD, 기본: 오늘)")
}

func runRiskFree(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	asOf, err := parseDateFlag(riskFreeDate)
	if err != nil {
		return err
	}

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	series, err := a.riskFree.Fetch(ctx, a.riskFreeStart)
	if err != nil {
		return fmt.Errorf("fetch risk-free: %w", err)
	}

	horizons := contracts.ProfileOptions.HorizonYears
	averages := make(map[int]contracts.Optional, len(horizons))
	for _, h := range horizons {
		averages[h] = scoring.AverageRiskFree(series, h, asOf)
	}

	if jsonOutput {
		return PrintJSON(averages)
	}

	last, _ := series.Until(asOf).MaxDate()
	PrintHeader("Risk-free Rate (3M T-bill)")
	PrintKeyValue("Observations", fmt.Sprintf("%d", series.Len()), 12)
	PrintKeyValue("Latest", last.Format(contracts.DateLayout), 12)
	fmt.Println()

	widths := []int{10, 12}
	PrintTableHeader([]string{"Horizon", "Average %"}, widths)
	for _, h := range horizons {
		PrintTableRow([]string{fmt.Sprintf("%dy", h), formatOptional(averages[h], 3)}, widths)
	}
	return nil
}
