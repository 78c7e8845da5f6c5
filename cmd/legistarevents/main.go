package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"
	_ "time/tzdata"

	"legistarevents/config"
	inputredis "legistarevents/internal/input/redis"
	"legistarevents/internal/logger"
	"legistarevents/internal/matcher"
	"legistarevents/internal/matchstate"
	"legistarevents/internal/metrics"
	"legistarevents/internal/output/eventhttp"
	"legistarevents/internal/output/eventjson"
	"legistarevents/internal/output/itemclickhouse"
	"legistarevents/internal/output/matchjson"
	"legistarevents/internal/pipeline"
	"legistarevents/internal/source/legistar"
	"legistarevents/internal/similarity"
	transform "legistarevents/internal/transform/legistar"
	"legistarevents/pkg/models"
)

const defaultConfigName = "legistarevents.yml"

func findConfigFile(configArg string) string {
	if configArg != "" {
		path := configArg
		if _, err := os.Stat(path); err == nil {
			return path
		}
		log.Printf("Warning: config file not found at %s, trying default locations", path)
	}

	if _, err := os.Stat(defaultConfigName); err == nil {
		return defaultConfigName
	}

	exePath, err := os.Executable()
	if err == nil {
		exeDir := filepath.Dir(exePath)
		path := filepath.Join(exeDir, defaultConfigName)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return defaultConfigName
}

// loadConfig loads the config and initializes the global logger from it.
func loadConfig(configArg string) (*config.Config, string) {
	configPath := findConfigFile(configArg)

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	l := cfg.Legistar.Logging
	if err := logger.Init(logger.Config{Enabled: l.Enabled, Level: l.Level, File: l.File, Console: l.Console}); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	return cfg, configPath
}

func queueConfig(cfg *config.Config) inputredis.Config {
	r := cfg.Legistar.Input.Redis
	return inputredis.Config{
		Addr:         r.Addr,
		Password:     r.Password,
		DB:           r.DB,
		Key:          r.Key,
		BlockTimeout: r.BlockTimeout,
	}
}

func stateStore(cfg *config.Config) (*matchstate.RedisStore, error) {
	s := cfg.Legistar.State
	return matchstate.NewRedisStore(matchstate.RedisConfig{
		Addr:      s.Redis.Addr,
		Password:  s.Redis.Password,
		DB:        s.Redis.DB,
		KeyPrefix: s.KeyPrefix,
		TTL:       s.TTL,
	})
}

func eventWriter(out config.OutputConfig) (pipeline.EventWriter, error) {
	switch out.Mode {
	case "file":
		w, err := eventjson.NewWriter(out.File.Path)
		if err != nil {
			return nil, fmt.Errorf("create event file writer: %w", err)
		}
		logger.Infof("Output mode: file (%s)", out.File.Path)
		return w, nil
	case "http":
		w, err := eventhttp.NewWriter(eventhttp.Config{
			URL:     out.HTTP.URL,
			Timeout: out.HTTP.Timeout,
			Headers: out.HTTP.Headers,
		})
		if err != nil {
			return nil, fmt.Errorf("create event HTTP writer: %w", err)
		}
		logger.Infof("Output mode: http (%s)", out.HTTP.URL)
		return w, nil
	case "clickhouse":
		ch := out.ClickHouse
		w, err := itemclickhouse.NewWriter(itemclickhouse.Config{
			URL:      ch.URL,
			Database: ch.Database,
			Table:    ch.Table,
			Username: ch.Username,
			Password: ch.Password,
			Timeout:  ch.Timeout,
			Headers:  ch.Headers,
		})
		if err != nil {
			return nil, fmt.Errorf("create ClickHouse writer: %w", err)
		}
		logger.Infof("Output mode: clickhouse (%s/%s.%s)", ch.URL, ch.Database, ch.Table)
		return w, nil
	default:
		return nil, fmt.Errorf("unknown output mode: %s", out.Mode)
	}
}

func runPipeline(args []string) {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	configArg := fs.String("config", "", "Config file path")
	_ = fs.Parse(args)
	if *configArg == "" && fs.NArg() > 0 {
		*configArg = fs.Arg(0)
	}

	cfg, configPath := loadConfig(*configArg)
	logger.Infof("Legistar match pipeline starting")
	logger.Infof("Config loaded from: %s", configPath)

	loc, err := cfg.Location()
	if err != nil {
		log.Fatalf("Invalid timezone: %v", err)
	}
	targets, err := cfg.Targets(transform.ParseTargets)
	if err != nil {
		log.Fatalf("Failed to load targets: %v", err)
	}

	consumer, err := inputredis.NewConsumer(queueConfig(cfg))
	if err != nil {
		logger.Errorf("Failed to create Redis consumer: %v", err)
		log.Fatalf("Failed to create Redis consumer: %v", err)
	}

	writer, err := eventWriter(cfg.Legistar.Output)
	if err != nil {
		logger.Errorf("%v", err)
		log.Fatalf("%v", err)
	}

	var recorders pipeline.MultiRecorder
	if cfg.Legistar.State.Enabled {
		store, err := stateStore(cfg)
		if err != nil {
			logger.Errorf("Failed to connect match state store: %v", err)
			log.Fatalf("Failed to connect match state store: %v", err)
		}
		recorders = append(recorders, store)
		logger.Infof("Match state enabled (%s, prefix=%s)", cfg.Legistar.State.Redis.Addr, cfg.Legistar.State.KeyPrefix)
	}
	if path := strings.TrimSpace(cfg.Legistar.Output.MatchFile); path != "" {
		w, err := matchjson.NewWriter(path)
		if err != nil {
			log.Fatalf("Failed to create match record writer: %v", err)
		}
		recorders = append(recorders, w)
		logger.Infof("Match records: file (%s)", path)
	}
	var recorder pipeline.MatchRecorder
	if len(recorders) > 0 {
		recorder = recorders
	}

	var m *metrics.Metrics
	var metricsServer *http.Server
	if cfg.Legistar.Metrics.Enabled {
		m = metrics.New()
		mux := http.NewServeMux()
		mux.Handle(cfg.Legistar.Metrics.Path, m.Handler())
		metricsServer = &http.Server{Addr: cfg.Legistar.Metrics.Addr, Handler: mux}
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Errorf("Metrics server error: %v", err)
			}
		}()
		logger.Infof("Metrics listening on %s%s", cfg.Legistar.Metrics.Addr, cfg.Legistar.Metrics.Path)
	}

	processor := pipeline.NewProcessor(
		matcher.New(similarity.TokenSet{}),
		targets,
		cfg.Legistar.Matching.IgnoreNames,
		loc,
	)
	pipe := pipeline.NewMatchPipeline(consumer, processor, writer, recorder, m, pipeline.Config{
		Workers:       cfg.Legistar.Pipeline.Workers,
		BatchSize:     cfg.Legistar.Pipeline.BatchSize,
		FlushInterval: cfg.Legistar.Pipeline.FlushInterval,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := pipe.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Errorf("Pipeline error: %v", err)
	}

	logger.Infof("Shutting down")
	if metricsServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = metricsServer.Shutdown(shutdownCtx)
		cancel()
	}
	if err := pipe.Close(); err != nil {
		logger.Errorf("Error closing pipeline: %v", err)
	}

	logger.Infof("Legistar match pipeline stopped")
}

func runFetch(args []string) int {
	fs := flag.NewFlagSet("fetch", flag.ContinueOnError)
	configArg := fs.String("config", "", "Config file path")
	sourceID := fs.String("source-id", "", "Identifier of the document the events are matched for")
	begin := fs.String("begin", "", "Window start (YYYY-MM-DD or RFC3339); defaults to now")
	end := fs.String("end", "", "Window end (YYYY-MM-DD or RFC3339); defaults to begin + source.window")
	targets := fs.String("targets", "", "Comma-separated target names; defaults to matching.targets")
	ignore := fs.String("ignore", "", "Comma-separated item names to drop; defaults to matching.ignore_names")
	dryRun := fs.Bool("dry-run", false, "Print the job instead of queueing it")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if strings.TrimSpace(*sourceID) == "" {
		fmt.Fprintln(os.Stderr, "fetch: -source-id is required")
		return 2
	}

	cfg, _ := loadConfig(*configArg)
	loc, err := cfg.Location()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid timezone: %v\n", err)
		return 1
	}
	windowStart, windowEnd, err := parseWindow(*begin, *end, cfg.Legistar.Source.Window, loc, time.Now())
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid window: %v\n", err)
		return 2
	}

	src := cfg.Legistar.Source
	client, err := legistar.NewClient(legistar.Config{
		BaseURL:         src.BaseURL,
		Client:          src.Client,
		Timeout:         src.Timeout,
		RetryCount:      src.RetryCount,
		RetryWait:       src.RetryWait,
		RetryMaxWait:    src.RetryMaxWait,
		Concurrency:     src.Concurrency,
		PersonCacheSize: src.PersonCacheSize,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create Legistar client: %v\n", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	events, err := client.FetchEvents(ctx, windowStart, windowEnd)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to fetch events: %v\n", err)
		return 1
	}

	job := &models.MatchJob{
		SourceID:    *sourceID,
		Targets:     splitList(*targets),
		IgnoreNames: splitList(*ignore),
		Events:      events,
		RequestedAt: time.Now().UTC(),
	}
	payload, err := transform.EncodeJob(job)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to encode job: %v\n", err)
		return 1
	}

	if *dryRun {
		fmt.Println(string(payload))
		return 0
	}

	producer, err := inputredis.NewProducer(queueConfig(cfg))
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create Redis producer: %v\n", err)
		return 1
	}
	defer producer.Close()

	depth, err := producer.Push(ctx, payload)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to queue job: %v\n", err)
		return 1
	}
	logger.Infof("Queued job %s: client=%s events=%d queue_depth=%d", job.SourceID, client.Name(), len(events), depth)
	fmt.Printf("queued source_id=%s events=%d window=%s..%s\n",
		job.SourceID, len(events), windowStart.Format(time.RFC3339), windowEnd.Format(time.RFC3339))
	return 0
}

func usage() {
	fmt.Fprintf(os.Stderr, `usage: legistarevents <command> [flags]

commands:
  run      consume match jobs from Redis and write canonical events
  fetch    fetch a window of Legistar events and queue a match job
  match    match and normalize events from a local JSON file
  history  show recent match outcomes from the state store
`)
}

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "run":
			runPipeline(os.Args[2:])
			return
		case "fetch":
			os.Exit(runFetch(os.Args[2:]))
		case "match":
			os.Exit(runMatch(os.Args[2:], os.Stdout))
		case "history":
			os.Exit(runHistory(os.Args[2:]))
		case "-h", "--help", "help":
			usage()
			return
		default:
			// A bare argument is taken as the config path for run.
			runPipeline(os.Args[1:])
			return
		}
	}

	runPipeline(nil)
}
