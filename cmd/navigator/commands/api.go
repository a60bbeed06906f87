package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/etfnav/backend/internal/api"
	"github.com/wonny/etfnav/backend/internal/api/handlers"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "API 서버 시작",
	Long: `REST API 서버를 시작합니다.

Endpoints:
  GET  /health                        - Health check
  GET  /metrics                       - Prometheus 지표
  GET  /api/profile/options           - 프로필 선택지
  POST /api/recommend                 - 추천 실행
  POST /api/neighbors                 - 최근접 ETF
  POST /api/backtest                  - 백테스트
  GET  /api/recommendations/{run_id}  - 저장된 추천 조회 (PostgreSQL)

Example:
  go run ./cmd/navigator api
  go run ./cmd/navigator api --port 8080`,
	RunE: runAPIServer,
}

var (
	apiPort string
)

func init() {
	rootCmd.AddCommand(apiCmd)

	apiCmd.Flags().StringVar(&apiPort, "port", "", "API 서버 포트 (기본: PORT)")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	fmt.Println("=== ETF Navigator API Server ===")

	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.close()

	if apiPort != "" {
		a.cfg.Port = apiPort
	}

	deps := handlers.PipelineDeps{
		Prices:        a.prices,
		RiskFree:      a.riskFree,
		RiskFreeStart: a.riskFreeStart,
		Universe:      a.universe,
		Orchestrator:  a.orchestrator,
		Backtester:    a.backtester,
		Metrics:       a.metrics,
	}
	if a.runs != nil {
		deps.Runs = a.runs
	}

	router := api.NewRouter(handlers.NewPipelineHandler(deps, a.log), a.metrics, a.log)
	server := api.New(a.cfg, a.log, router)

	go func() {
		if err := server.Start(); err != nil {
			a.log.WithError(err).Fatal("Failed to start server")
		}
	}()

	fmt.Printf("\n✅ Server running on http://localhost:%s\n", a.cfg.Port)
	fmt.Println("\nPress Ctrl+C to stop")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	a.log.Info("Server stopped")
	return nil
}
