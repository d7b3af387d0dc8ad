// Command keirin-ingest is the CLI shim around the ingestion core
// (spec.md §6): flag parsing, config file I/O, and log setup are its job;
// everything else delegates to internal/pipeline and internal/scheduler.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/sawpanic/keirin-ingest/internal/config"
	"github.com/sawpanic/keirin-ingest/internal/extract"
	"github.com/sawpanic/keirin-ingest/internal/fetch"
	"github.com/sawpanic/keirin-ingest/internal/httpapi"
	"github.com/sawpanic/keirin-ingest/internal/metrics"
	"github.com/sawpanic/keirin-ingest/internal/parse/providery"
	"github.com/sawpanic/keirin-ingest/internal/parse/providerw"
	"github.com/sawpanic/keirin-ingest/internal/pipeline"
	"github.com/sawpanic/keirin-ingest/internal/ratelimit"
	"github.com/sawpanic/keirin-ingest/internal/save"
	"github.com/sawpanic/keirin-ingest/internal/scheduler"
	"github.com/sawpanic/keirin-ingest/internal/stage"
	"github.com/sawpanic/keirin-ingest/internal/store"
	"github.com/sawpanic/keirin-ingest/internal/venue"
)

const (
	appName = "keirin-ingest"
	version = "v0.1.0"

	classWinticket = "winticket.api"
	classYenjoyAPI = "yenjoy.api"
	classYenjoyDoc = "yenjoy.result_detail"

	winticketHost = "https://api.winticket.jp"
	yenjoyHost    = "https://www.yenjoy.jp"
)

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	root := &cobra.Command{
		Use:     appName,
		Short:   "Japanese keirin racing-data ingestion pipeline",
		Version: version,
	}

	root.PersistentFlags().String("config", "config.yaml", "Path to the persisted configuration file")
	root.PersistentFlags().String("venue-codes", "venue_codes.yaml", "Path to the venue_id -> Provider-Y code mapping")
	root.PersistentFlags().String("dsn", os.Getenv("KEIRIN_DSN"), "Postgres connection string")
	root.PersistentFlags().Bool("debug", false, "Enable debug logging")

	root.AddCommand(newRunCmd(), newScheduleCmd())

	if err := root.Execute(); err != nil {
		log.Fatal().Err(err).Msg("exiting")
	}
}

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the pipeline once over a date window",
		RunE:  runOnce,
	}
	cmd.Flags().String("mode", "period", "Run mode: check_update|period|setup")
	cmd.Flags().String("start-date", "", "Window start date, YYYY-MM-DD")
	cmd.Flags().String("end-date", "", "Window end date, YYYY-MM-DD")
	for i := 1; i <= 5; i++ {
		cmd.Flags().Bool(fmt.Sprintf("step%d", i), true, fmt.Sprintf("Include step %d in this run", i))
	}
	cmd.Flags().Bool("force-update", false, "Bypass the status ledger and re-fetch everything in scope")
	cmd.Flags().String("cup-filter", "", "Restrict the run to a single cup_id")
	cmd.Flags().Int("max-workers", 0, "Override performance.max_workers from the config file")
	cmd.Flags().Bool("dry-run", false, "Select scope and log it without fetching or writing")
	return cmd
}

func newScheduleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schedule",
		Short: "Run the wall-clock scheduler daemon (spec.md §4.I)",
		RunE:  runScheduler,
	}
}

// app bundles everything main.go wires together once, shared by both the
// one-shot "run" command and the "schedule" daemon.
type app struct {
	cfg         config.Config
	gw          *store.Gateway
	coordinator *pipeline.Coordinator
	extractors  map[int]scopeSelector
}

// scopeSelector is the common shape of the per-stage Extractors, used only
// to report scope size under --dry-run without calling into the provider
// clients or the Savers.
type scopeSelector func(ctx context.Context, start, end time.Time, cupFilter string, force bool) (int, error)

func buildApp(cmd *cobra.Command) (*app, error) {
	configPath, _ := cmd.Flags().GetString("config")
	venueCodesPath, _ := cmd.Flags().GetString("venue-codes")
	dsn, _ := cmd.Flags().GetString("dsn")
	debug, _ := cmd.Flags().GetBool("debug")

	if debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if mw, _ := cmd.Flags().GetInt("max-workers"); mw > 0 {
		cfg.Performance.MaxWorkers = mw
	}

	codeTable, err := venue.LoadCodeTable(venueCodesPath)
	if err != nil {
		return nil, err
	}

	sqlDB, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db := sqlx.NewDb(sqlDB, "postgres")
	gw := store.New(db, cfg.Performance.SaverBatchSize)

	m := metrics.New()
	stage.Metrics = m

	limiter := ratelimit.NewLimiter()
	limiter.SetMetrics(m)
	for _, class := range []string{providerw.ClassMonth, providerw.ClassCup, providerw.ClassRace, providerw.ClassOdds} {
		limiter.SetInterval(class, rateToInterval(cfg.Performance.RateLimitWinticket), 0.2)
	}
	limiter.SetInterval(classYenjoyAPI, rateToInterval(cfg.Performance.RateLimitYenjoyAPI), 0.2)
	limiter.SetInterval(classYenjoyDoc, rateToInterval(cfg.Performance.RateLimitYenjoyHTML), 0.2)

	winticketCfg := httpapi.DefaultConfig(winticketHost)
	winticketCfg.RequestTimeout = cfg.API.RequestTimeout
	winticketCfg.RetryCount = cfg.API.RetryCount
	winticketClient := httpapi.NewClient(winticketCfg, limiter)
	winticketClient.SetMetrics(m)

	yenjoyCfg := httpapi.DefaultConfig(yenjoyHost)
	yenjoyCfg.RequestTimeout = cfg.API.RequestTimeout
	yenjoyCfg.RetryCount = cfg.API.RetryCount
	yenjoyClient := httpapi.NewClient(yenjoyCfg, limiter)
	yenjoyClient.SetMetrics(m)

	providerW := providerw.NewClient(winticketClient, winticketHost)
	providerY := providery.NewClient(yenjoyClient, yenjoyHost)

	resolver := fetch.NewStoreResolver(gw)

	s2Extractor := extract.NewS2Extractor(gw)
	s3Extractor := extract.NewS3Extractor(gw)
	s4Extractor := extract.NewS4Extractor(gw)
	s5Extractor := extract.NewS5Extractor(gw, codeTable)

	s1Updater := stage.NewS1Updater(providerW, save.NewS1Saver(gw))
	s2Updater := stage.NewS2Updater(
		s2Extractor,
		fetch.NewS2Fetcher(providerW),
		save.NewS2Saver(gw),
		cfg.Performance.MaxWorkers,
	)
	s3Updater := stage.NewS3Updater(
		s3Extractor,
		fetch.NewS3Fetcher(providerW, resolver),
		save.NewS3Saver(gw),
		gw,
		cfg.Performance.Step3MaxWorkers,
	)
	s4Updater := stage.NewS4Updater(
		s4Extractor,
		fetch.NewS4Fetcher(providerW, resolver),
		save.NewS4Saver(gw),
		gw,
		cfg.Performance.MaxWorkers,
	)
	s5Updater := stage.NewS5Updater(
		s5Extractor,
		fetch.NewS5Fetcher(providerY, codeTable, resolver),
		save.NewS5Saver(gw),
		cfg.Performance.MaxWorkers,
	)

	coordinator := pipeline.New(s1Updater.Run, s2Updater, s3Updater, s4Updater, s5Updater)

	extractors := map[int]scopeSelector{
		2: func(ctx context.Context, start, end time.Time, cupFilter string, force bool) (int, error) {
			cupIDs, err := s2Extractor.Select(ctx, start, end, cupFilter, force)
			return len(cupIDs), err
		},
		3: func(ctx context.Context, start, end time.Time, cupFilter string, force bool) (int, error) {
			tuples, err := s3Extractor.Select(ctx, start, end, cupFilter, force)
			return len(tuples), err
		},
		4: func(ctx context.Context, start, end time.Time, cupFilter string, force bool) (int, error) {
			tuples, err := s4Extractor.Select(ctx, start, end, cupFilter, force)
			return len(tuples), err
		},
		5: func(ctx context.Context, start, end time.Time, cupFilter string, force bool) (int, error) {
			tuples, _, err := s5Extractor.Select(ctx, start, end, cupFilter, force)
			return len(tuples), err
		},
	}

	return &app{cfg: cfg, gw: gw, coordinator: coordinator, extractors: extractors}, nil
}

// rateToInterval converts a "requests per second" config value into the
// minimum-issue-interval the rate limiter paces on (spec.md §4.B).
func rateToInterval(perSecond float64) time.Duration {
	if perSecond <= 0 {
		return 0
	}
	return time.Duration(float64(time.Second) / perSecond)
}

func runOnce(cmd *cobra.Command, _ []string) error {
	a, err := buildApp(cmd)
	if err != nil {
		return err
	}

	start, end, err := windowFromFlags(cmd)
	if err != nil {
		return err
	}
	steps := stepsFromFlags(cmd)
	force, _ := cmd.Flags().GetBool("force-update")
	cupFilter, _ := cmd.Flags().GetString("cup-filter")
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	ctx, cancel := signalContext()
	defer cancel()

	if dryRun {
		return runDryRun(ctx, a, start, end, steps, cupFilter, force)
	}

	result, err := a.coordinator.Run(ctx, start, end, steps, cupFilter, force)
	if err != nil {
		return err
	}
	for step, report := range result.PerStep {
		log.Info().Int("step", step).Bool("ok", report.OK).Int("count", report.Count).Msg(report.Message)
	}
	if !result.TotalOK {
		os.Exit(1)
	}
	return nil
}

// runDryRun selects each requested stage's scope and logs its size without
// calling any provider client or Saver (spec.md §6's --dry-run flag). S1
// has no store-driven scope (it always re-syncs the requested months), so
// it is reported as included without a count.
func runDryRun(ctx context.Context, a *app, start, end time.Time, steps []string, cupFilter string, force bool) error {
	for _, s := range steps {
		step, err := parseStepNumber(s)
		if err != nil {
			return err
		}
		if step == 1 {
			log.Info().Int("step", 1).Msg("dry-run: would re-sync months in window")
			continue
		}
		selector, ok := a.extractors[step]
		if !ok {
			continue
		}
		count, err := selector(ctx, start, end, cupFilter, force)
		if err != nil {
			return fmt.Errorf("dry-run: step %d: %w", step, err)
		}
		log.Info().Int("step", step).Int("scope", count).Msg("dry-run: scope selected")
	}
	return nil
}

func parseStepNumber(s string) (int, error) {
	var n int
	if _, err := fmt.Sscanf(s, "step%d", &n); err == nil {
		return n, nil
	}
	if _, err := fmt.Sscanf(s, "%d", &n); err == nil {
		return n, nil
	}
	return 0, fmt.Errorf("invalid step %q", s)
}

func runScheduler(cmd *cobra.Command, _ []string) error {
	a, err := buildApp(cmd)
	if err != nil {
		return err
	}

	sched := scheduler.New(func(ctx context.Context, steps []int) error {
		stepStrs := make([]string, len(steps))
		for i, s := range steps {
			stepStrs[i] = fmt.Sprintf("step%d", s)
		}
		now := time.Now().UTC()
		result, err := a.coordinator.Run(ctx, now.AddDate(0, 0, -1), now, stepStrs, "", false)
		if err != nil {
			return err
		}
		if !result.TotalOK {
			return fmt.Errorf("scheduled run did not fully succeed")
		}
		return nil
	})

	ctx, cancel := signalContext()
	defer cancel()

	if err := sched.Reload(ctx, a.cfg.Schedule.Triggers); err != nil {
		return err
	}
	sched.Start(ctx)
	<-ctx.Done()
	sched.Stop()
	return nil
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()
	return ctx, cancel
}

func windowFromFlags(cmd *cobra.Command) (time.Time, time.Time, error) {
	startStr, _ := cmd.Flags().GetString("start-date")
	endStr, _ := cmd.Flags().GetString("end-date")
	if startStr == "" || endStr == "" {
		now := time.Now().UTC()
		return now, now, nil
	}
	start, err := time.Parse("2006-01-02", startStr)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("--start-date: %w", err)
	}
	end, err := time.Parse("2006-01-02", endStr)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("--end-date: %w", err)
	}
	return start, end, nil
}

func stepsFromFlags(cmd *cobra.Command) []string {
	var steps []string
	for i := 1; i <= 5; i++ {
		flag := fmt.Sprintf("step%d", i)
		if on, _ := cmd.Flags().GetBool(flag); on {
			steps = append(steps, flag)
		}
	}
	return steps
}
