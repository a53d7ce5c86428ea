package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/sawpanic/equityrun/internal/cache"
	"github.com/sawpanic/equityrun/internal/config"
	"github.com/sawpanic/equityrun/internal/data"
	"github.com/sawpanic/equityrun/internal/enrich"
	"github.com/sawpanic/equityrun/internal/events"
	httpiface "github.com/sawpanic/equityrun/internal/interfaces/http"
	"github.com/sawpanic/equityrun/internal/metrics"
	"github.com/sawpanic/equityrun/internal/persistence"
	"github.com/sawpanic/equityrun/internal/pipeline"
)

const (
	appName = "equityrun"
	version = "v1.0.0"
)

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	if term.IsTerminal(int(os.Stderr.Fd())) {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}

	var cfgPath string

	rootCmd := &cobra.Command{
		Use:     appName,
		Short:   "Equity discovery scanner",
		Version: version,
		Long:    "equityrun scans the US equity universe for unusual volume and momentum setups,\nscores survivors on a weighted composite, and maintains an explosive shortlist.",
	}
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "Path to YAML config file (built-in defaults when empty)")
	rootCmd.PersistentFlags().SetNormalizeFunc(func(f *pflag.FlagSet, name string) pflag.NormalizedName {
		// Accept snake_case spellings of any flag.
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	scanCmd := &cobra.Command{
		Use:   "scan",
		Short: "Run one discovery cycle and print the result",
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, _ := cmd.Flags().GetInt("limit")
			pretty, _ := cmd.Flags().GetBool("pretty")
			return runScan(cmd.Context(), cfgPath, limit, pretty)
		},
	}
	scanCmd.Flags().Int("limit", 20, "Maximum candidates to return")
	scanCmd.Flags().Bool("pretty", false, "Indent JSON output")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the scanner loop with the read-only HTTP interface",
		RunE: func(cmd *cobra.Command, args []string) error {
			interval, _ := cmd.Flags().GetDuration("interval")
			limit, _ := cmd.Flags().GetInt("limit")
			return runServe(cmd.Context(), cfgPath, interval, limit)
		},
	}
	serveCmd.Flags().Duration("interval", 5*time.Minute, "Delay between discovery cycles")
	serveCmd.Flags().Int("limit", 20, "Maximum candidates per cycle")

	healthCmd := &cobra.Command{
		Use:   "health",
		Short: "Probe collaborators and print a readiness report",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHealth(cmd.Context(), cfgPath)
		},
	}

	rootCmd.AddCommand(scanCmd, serveCmd, healthCmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}

// app bundles the wired collaborators for one command invocation.
type app struct {
	cfg    *config.Config
	runner *pipeline.Runner
	store  cache.Store
	reg    *metrics.Registry
	repo   *persistence.ScanRepo
	sink   events.Sink
}

func buildApp(cfgPath string) (*app, error) {
	var cfg *config.Config
	var err error
	if cfgPath == "" {
		cfg, err = config.Default()
	} else {
		cfg, err = config.Load(cfgPath)
	}
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	source := data.NewClient(cfg.DataSource)
	reg := metrics.NewRegistry()

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	store := cache.NewRedisStore(rdb)

	repo, err := persistence.NewScanRepo(cfg.Postgres.DSN, 5*time.Second)
	if err != nil {
		log.Warn().Err(err).Msg("scan history store unavailable, continuing without it")
		repo = nil
	}

	var sink events.Sink
	if ks := events.NewKafkaSink(cfg.Kafka); ks != nil {
		sink = ks
	}

	runner := pipeline.NewRunner(cfg, source, enrich.Providers{}, reg, pipeline.Deps{
		Store: store,
		Repo:  repo,
		Sink:  sink,
	})

	return &app{cfg: cfg, runner: runner, store: store, reg: reg, repo: repo, sink: sink}, nil
}

func (a *app) close() {
	if a.repo != nil {
		a.repo.Close()
	}
	if a.sink != nil {
		if err := a.sink.Close(); err != nil {
			log.Warn().Err(err).Msg("event sink close failed")
		}
	}
}

func runScan(ctx context.Context, cfgPath string, limit int, pretty bool) error {
	a, err := buildApp(cfgPath)
	if err != nil {
		return err
	}
	defer a.close()

	res, err := a.runner.Run(ctx, pipeline.Options{Limit: limit})
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	if pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(res)
}

func runServe(ctx context.Context, cfgPath string, interval time.Duration, limit int) error {
	a, err := buildApp(cfgPath)
	if err != nil {
		return err
	}
	defer a.close()

	srv, err := httpiface.NewServer(httpiface.ServerConfig{
		Host:         a.cfg.HTTP.Host,
		Port:         a.cfg.HTTP.Port,
		ReadTimeout:  a.cfg.HTTP.ReadTimeout,
		WriteTimeout: a.cfg.HTTP.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}, a.runner, a.store, a.repo, a.reg.Gatherer())
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			res, err := a.runner.Run(ctx, pipeline.Options{Limit: limit})
			if err != nil {
				log.Error().Err(err).Msg("discovery cycle failed")
			} else {
				srv.Broadcast(res)
			}
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func runHealth(ctx context.Context, cfgPath string) error {
	a, err := buildApp(cfgPath)
	if err != nil {
		return err
	}
	defer a.close()

	report := a.runner.Health(ctx)

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return err
	}
	if !report.SystemReady {
		return fmt.Errorf("system not ready")
	}
	return nil
}
