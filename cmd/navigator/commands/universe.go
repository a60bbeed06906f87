package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wonny/etfnav/backend/internal/external/ishares"
	"github.com/wonny/etfnav/backend/pkg/config"
	"github.com/wonny/etfnav/backend/pkg/httputil"
	"github.com/wonny/etfnav/backend/pkg/logger"
)

// universeCmd represents the universe command
var universeCmd = &cobra.Command{
	Use:   "universe",
	Short: "ETF 유니버스 조회",
	Long: `기본 iShares TSX 유니버스를 출력하거나
펀드 목록 페이지에서 티커를 수집합니다.

Example:
  go run ./cmd/navigator universe
  go run ./cmd/navigator universe --url https://www.blackrock.com/ca/investors/en/products/product-list`,
	RunE: runUniverse,
}

var universeURL string

func init() {
	rootCmd.AddCommand(universeCmd)

	universeCmd.Flags().StringVar(&universeURL, "url", "", "펀드 목록 페이지 URL (기본: 내장 목록)")
}

func runUniverse(cmd *cobra.Command, args []string) error {
	tickers := ishares.DefaultUniverse()

	if universeURL != "" {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		log := logger.New(cfg)

		client := ishares.NewClient(httputil.New(log, 0).WithRateLimit(1, 1), log)
		tickers, err = client.FetchListing(cmd.Context(), universeURL)
		if err != nil {
			return fmt.Errorf("fetch listing: %w", err)
		}
	}

	if jsonOutput {
		return PrintJSON(tickers)
	}

	PrintHeader(fmt.Sprintf("Universe (%d tickers)", len(tickers)))
	for i := 0; i < len(tickers); i += 8 {
		end := i + 8
		if end > len(tickers) {
			end = len(tickers)
		}
		fmt.Printf("   %s\n", strings.Join(tickers[i:end], "  "))
	}
	return nil
}
