package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	strategyFile string
	verbose      bool
	jsonOutput   bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "navigator",
	Short: "ETF Navigator - 투자자 성향 기반 ETF 추천",
	Long: `ETF Navigator Unified CLI

투자자 프로필(기간, 목표 성장률, 변동성 허용치, 낙폭 허용치,
운용 이력, 위험/수익 가중치)로 TSX 상장 iShares ETF를 추천합니다.

파이프라인: 가격 데이터 → 낙폭 필터 → 지표 계산 → 후보 선정 → 점수 → 추천

Usage:
  go run ./cmd/navigator [command]

Examples:
  go run ./cmd/navigator recommend --choice 2,2,2,2,2,2
  go run ./cmd/navigator backtest run --choice 1,1,1,1,1,1 --years 3
  go run ./cmd/navigator backtest sweep --diagonal
  go run ./cmd/navigator api`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&strategyFile, "strategy", "", "strategy YAML (default: STRATEGY_PATH or built-in policy)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "print results as JSON")
}
