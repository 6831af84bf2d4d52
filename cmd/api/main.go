package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"trainmapper.org/internal/app"
	"trainmapper.org/internal/appconf"
	"trainmapper.org/internal/cities"
	"trainmapper.org/internal/logging"
	"trainmapper.org/internal/metrics"
	"trainmapper.org/internal/restapi"
	"trainmapper.org/internal/schedule"
)

const shutdownTimeout = 15 * time.Second

func main() {
	appconf.LoadDotEnv()

	cfg, err := loadConfig(os.Args[1:], os.Stderr)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	logger := logging.NewStructuredLogger(os.Stdout, cfg.SlogLevel())
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logging.LogError(logger, "server stopped", err)
		os.Exit(1)
	}
}

// loadConfig layers defaults, TRAINMAPPER_* variables, an optional YAML file
// and finally the flags that were explicitly set.
func loadConfig(args []string, output io.Writer) (appconf.Config, error) {
	cfg := appconf.Default()
	if err := appconf.ApplyEnv(&cfg); err != nil {
		return cfg, err
	}

	fs := flag.NewFlagSet("trainmapper", flag.ContinueOnError)
	fs.SetOutput(output)

	var (
		configPath     string
		trustedProxies string
		flags          = cfg
	)
	fs.StringVar(&configPath, "config", "", "Path to a YAML configuration file")
	fs.IntVar(&flags.Port, "port", cfg.Port, "API server port")
	fs.StringVar(&flags.Env, "env", cfg.Env, "Environment (development|test|production)")
	fs.StringVar(&flags.LogLevel, "log-level", cfg.LogLevel, "Log level (debug|info|warn|error)")
	fs.IntVar(&flags.RateLimit, "rate-limit", cfg.RateLimit, "Requests per second allowed per client, 0 disables limiting")
	fs.StringVar(&trustedProxies, "trusted-proxies", strings.Join(cfg.TrustedProxies, ","), "Comma-separated proxy IPs or CIDR ranges whose X-Forwarded-For header is trusted")
	fs.StringVar(&flags.Schedule.StopsPath, "stops", cfg.Schedule.StopsPath, "Path to stops.txt")
	fs.StringVar(&flags.Schedule.StopTimesPath, "stop-times", cfg.Schedule.StopTimesPath, "Path to stop_times.txt")
	fs.StringVar(&flags.Schedule.FeedPath, "feed", cfg.Schedule.FeedPath, "Path to a GTFS zip feed, used instead of -stops and -stop-times")
	fs.StringVar(&flags.Registry.Driver, "registry", cfg.Registry.Driver, "City registry driver (sqlite|postgres|memory)")
	fs.StringVar(&flags.Registry.DSN, "registry-dsn", cfg.Registry.DSN, "City registry data source name")
	fs.DurationVar(&flags.Registry.CacheTTL, "cache-ttl", cfg.Registry.CacheTTL, "How long registry city names are cached, 0 disables the cache")
	fs.BoolVar(&flags.Registry.SeedFromStops, "seed-cities", cfg.Registry.SeedFromStops, "Register the first word of every stop name as a city at startup")
	fs.IntVar(&flags.Resolver.FuzzyThreshold, "fuzzy-threshold", cfg.Resolver.FuzzyThreshold, "Largest edit distance accepted by fuzzy city matching")

	if err := fs.Parse(args); err != nil {
		return cfg, err
	}

	if configPath != "" {
		if err := appconf.LoadFile(configPath, &cfg); err != nil {
			return cfg, err
		}
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "port":
			cfg.Port = flags.Port
		case "env":
			cfg.Env = flags.Env
		case "log-level":
			cfg.LogLevel = flags.LogLevel
		case "rate-limit":
			cfg.RateLimit = flags.RateLimit
		case "trusted-proxies":
			cfg.TrustedProxies = appconf.SplitList(trustedProxies)
		case "stops":
			cfg.Schedule.StopsPath = flags.Schedule.StopsPath
		case "stop-times":
			cfg.Schedule.StopTimesPath = flags.Schedule.StopTimesPath
		case "feed":
			cfg.Schedule.FeedPath = flags.Schedule.FeedPath
		case "registry":
			cfg.Registry.Driver = flags.Registry.Driver
		case "registry-dsn":
			cfg.Registry.DSN = flags.Registry.DSN
		case "cache-ttl":
			cfg.Registry.CacheTTL = flags.Registry.CacheTTL
		case "seed-cities":
			cfg.Registry.SeedFromStops = flags.Registry.SeedFromStops
		case "fuzzy-threshold":
			cfg.Resolver.FuzzyThreshold = flags.Resolver.FuzzyThreshold
		}
	})

	return cfg, appconf.Validate(cfg)
}

// buildApplication loads the schedule, opens the registry and wires the
// application together. The caller owns the returned store.
func buildApplication(ctx context.Context, cfg appconf.Config, logger *slog.Logger, collector *metrics.Collector) (*app.Application, cities.Store, error) {
	start := time.Now()
	src := schedule.Source{
		StopsPath:     cfg.Schedule.StopsPath,
		StopTimesPath: cfg.Schedule.StopTimesPath,
		FeedPath:      cfg.Schedule.FeedPath,
	}

	data, err := schedule.Load(src, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("error loading schedule from %s: %w", src, err)
	}

	store, err := cities.Open(ctx, cfg.Registry, cfg.Environment(), logger)
	if err != nil {
		return nil, nil, fmt.Errorf("error opening city registry: %w", err)
	}

	if cfg.Registry.SeedFromStops {
		added, err := store.SeedNames(ctx, cities.DeriveNames(data.Stops))
		if err != nil {
			logging.SafeCloseWithLogging(store, logger, "city_registry")
			return nil, nil, fmt.Errorf("error seeding city registry: %w", err)
		}
		logging.LogOperation(logger, "city_registry_seeded",
			slog.Int("added", added),
			slog.String("driver", cfg.Registry.Driver))
	}

	application := app.New(cfg, logger, data, store, collector)

	logging.LogOperation(logger, "startup_statistics",
		slog.Int("stops_loaded", len(data.Stops)),
		slog.Int("trips_loaded", application.Trips),
		slog.Int("nodes", application.Graph.NodeCount()),
		slog.Int("edges", application.Graph.EdgeCount()),
		slog.Duration("duration", time.Since(start)))

	return application, store, nil
}

func run(ctx context.Context, cfg appconf.Config, logger *slog.Logger) error {
	application, store, err := buildApplication(ctx, cfg, logger, metrics.NewCollector())
	if err != nil {
		return err
	}
	defer logging.SafeCloseWithLogging(store, logger, "city_registry")

	api := restapi.NewRestAPI(application)
	defer api.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      api.Handler(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("starting server", "addr", srv.Addr, "env", cfg.Env)
		serveErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down server", "addr", srv.Addr)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("error shutting down server: %w", err)
	}
	return nil
}
