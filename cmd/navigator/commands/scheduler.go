package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/etfnav/backend/internal/cache"
	"github.com/wonny/etfnav/backend/internal/scheduler"
	"github.com/wonny/etfnav/backend/internal/scheduler/jobs"
)

// schedulerCmd represents the scheduler command
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "스케줄러 관리",
	Long: `캐시 예열 작업을 스케줄하거나 즉시 실행합니다.

Subcommands:
  start   - 스케줄러 시작
  list    - 등록된 작업 목록
  run     - 특정 작업 즉시 실행

Example:
  go run ./cmd/navigator scheduler start
  go run ./cmd/navigator scheduler run metrics_warmup`,
}

var (
	schedulerStartCmd = &cobra.Command{
		Use:   "start",
		Short: "스케줄러 시작",
		Long: `스케줄러를 시작하고 등록된 모든 작업을 스케줄합니다.

등록되는 작업:
- risk_free_refresh: 평일 오후 5시 30분 (무위험수익률 캐시)
- metrics_warmup: 매일 오전 6시 (모든 기간의 지표 캐시)
- cache_cleanup: 매시간 (프로세스 캐시 정리, Redis 미사용 시)

스케줄러는 Ctrl+C로 종료할 수 있습니다.`,
		RunE: runScheduler,
	}

	schedulerListCmd = &cobra.Command{
		Use:   "list",
		Short: "등록된 작업 목록",
		RunE:  listJobs,
	}

	schedulerRunCmd = &cobra.Command{
		Use:   "run [job_name]",
		Short: "특정 작업 즉시 실행",
		Args:  cobra.ExactArgs(1),
		RunE:  runJob,
	}
)

func init() {
	rootCmd.AddCommand(schedulerCmd)
	schedulerCmd.AddCommand(schedulerStartCmd)
	schedulerCmd.AddCommand(schedulerListCmd)
	schedulerCmd.AddCommand(schedulerRunCmd)
}

func initScheduler(a *app) (*scheduler.Scheduler, error) {
	sched := scheduler.New(a.log)

	js := []scheduler.Job{
		jobs.NewRiskFreeJob(a.riskFree, a.riskFreeStart, a.log),
		jobs.NewMetricsJob(a.prices, a.calculator, a.universe, a.log),
	}
	if mem, ok := a.cache.(*cache.Memory); ok {
		js = append(js, jobs.NewCacheCleanupJob(mem))
	}

	for _, job := range js {
		if err := sched.AddJob(job); err != nil {
			return nil, err
		}
	}
	return sched, nil
}

func runScheduler(cmd *cobra.Command, args []string) error {
	fmt.Println("=== ETF Navigator Scheduler ===")

	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.close()

	sched, err := initScheduler(a)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}

	sched.Start()

	fmt.Println("\n✅ Scheduler started successfully")
	fmt.Println("\nRegistered jobs:")
	printJobStats(sched.Stats(time.Now()))
	fmt.Println("\nPress Ctrl+C to stop")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	fmt.Println("\nShutting down scheduler...")
	sched.Stop()
	fmt.Println("Scheduler stopped")

	return nil
}

func listJobs(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.close()

	sched, err := initScheduler(a)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}

	stats := sched.Stats(time.Now())
	if jsonOutput {
		return PrintJSON(stats)
	}

	fmt.Println("Registered jobs:")
	printJobStats(stats)
	return nil
}

func printJobStats(stats []scheduler.JobStats) {
	for _, st := range stats {
		fmt.Printf("  - %-20s %-18s next %s\n", st.JobName, st.Schedule, st.NextRun.Format("2006-01-02 15:04:05"))
	}
}

func runJob(cmd *cobra.Command, args []string) error {
	jobName := args[0]

	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.close()

	sched, err := initScheduler(a)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}

	fmt.Printf("Running job: %s\n", jobName)
	result, err := sched.RunNow(cmd.Context(), jobName)
	if err != nil {
		return fmt.Errorf("run job: %w", err)
	}
	if !result.Success {
		return fmt.Errorf("job %s failed after %d attempt(s): %s", jobName, result.Attempts, result.Error)
	}

	PrintSuccess(fmt.Sprintf("%s completed in %.2fs (%d attempt(s))", jobName, result.Duration.Seconds(), result.Attempts))
	return nil
}
