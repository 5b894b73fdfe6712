package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/edgefleet/fleetman/internal/config"
	"github.com/edgefleet/fleetman/pkg/api/server"
	"github.com/edgefleet/fleetman/pkg/cloudflare"
	"github.com/edgefleet/fleetman/pkg/github"
	"github.com/edgefleet/fleetman/pkg/log"
	"github.com/edgefleet/fleetman/pkg/manager"
	"github.com/edgefleet/fleetman/pkg/store"
	"github.com/edgefleet/fleetman/pkg/store/repos"
	"github.com/edgefleet/fleetman/pkg/version"
)

var (
	configFile    = flag.String("config", "", "Configuration file path")
	httpAddr      = flag.String("http-addr", "", "HTTP server address")
	dataDir       = flag.String("data-dir", "", "Data directory")
	accessCode    = flag.String("access-code", "", "Access code guarding the API (empty to disable)")
	githubToken   = flag.String("github-token", "", "Token for the source host API (raises rate limits)")
	templateFile  = flag.String("templates", "", "Yaml file replacing the built-in template set")
	cronSpec      = flag.String("cron", "", "Cron cadence for the scheduled pass")
	logLevel      = flag.String("log-level", "", "Log level (debug, info, warn, error)")
	debugLogLevel = flag.Bool("debug", false, "Enable debug mode (shorthand for --log-level=debug)")
	logFormat     = flag.String("log-format", "", "Log format (text, json)")
	showHelp      = flag.Bool("help", false, "Show help")
	showVer       = flag.Bool("version", false, "Show version")
)

// loadConfig merges file and environment config under explicitly set flags.
// Precedence: flags > env > config file > defaults.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(*configFile)
	if err != nil {
		return nil, err
	}

	cmdFlags := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) {
		cmdFlags[f.Name] = true
	})

	if cmdFlags["http-addr"] {
		cfg.Server.HTTPAddr = *httpAddr
	}
	if cmdFlags["data-dir"] {
		cfg.DataDir = *dataDir
	}
	if cmdFlags["access-code"] {
		cfg.Server.AccessCode = *accessCode
	}
	if cmdFlags["github-token"] {
		cfg.GitHub.Token = *githubToken
	}
	if cmdFlags["templates"] {
		cfg.TemplateFile = *templateFile
	}
	if cmdFlags["cron"] {
		cfg.Scheduler.CronSpec = *cronSpec
	}
	if cmdFlags["log-level"] {
		cfg.Log.Level = *logLevel
	}
	if cmdFlags["log-format"] {
		cfg.Log.Format = *logFormat
	}
	if *debugLogLevel {
		cfg.Log.Level = "debug"
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) log.Logger {
	var loggerOpts []log.LoggerOption

	level, err := log.ParseLevel(cfg.Log.Level)
	if err != nil {
		fmt.Printf("Invalid log level: %s, defaulting to 'info'\n", cfg.Log.Level)
		level = log.InfoLevel
	}
	loggerOpts = append(loggerOpts, log.WithLevel(level))

	switch strings.ToLower(cfg.Log.Format) {
	case "json":
		loggerOpts = append(loggerOpts, log.WithFormatter(&log.JSONFormatter{}))
	case "", "text":
		loggerOpts = append(loggerOpts, log.WithFormatter(&log.TextFormatter{}))
	default:
		fmt.Printf("Invalid log format: %s, defaulting to 'text'\n", cfg.Log.Format)
		loggerOpts = append(loggerOpts, log.WithFormatter(&log.TextFormatter{}))
	}

	return log.NewLogger(loggerOpts...)
}

func main() {
	flag.Parse()

	if *showHelp {
		flag.Usage()
		return
	}
	if *showVer {
		fmt.Println(version.Info())
		return
	}

	cfg, err := loadConfig()
	if err != nil {
		fmt.Printf("Failed to load configuration: %s\n", err)
		os.Exit(1)
	}

	logger := newLogger(cfg)
	logger.Info("Starting Fleetman daemon", log.Str("version", version.Version))

	templates, err := config.LoadTemplates(cfg.TemplateFile)
	if err != nil {
		logger.Error("Failed to load templates", log.Err(err))
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("Received signal", log.Str("signal", sig.String()))
		cancel()
	}()

	storeDir := filepath.Join(cfg.DataDir, "store")
	if err := os.MkdirAll(storeDir, 0755); err != nil {
		logger.Error("Failed to create data directory", log.Str("path", storeDir), log.Err(err))
		os.Exit(1)
	}

	logger.Info("Initializing state store", log.Str("path", storeDir))
	stateStore := store.NewBadgerStore(logger)
	if err := stateStore.Open(storeDir); err != nil {
		logger.Error("Failed to open state store", log.Err(err))
		os.Exit(1)
	}
	defer stateStore.Close()

	httpClient := &http.Client{Timeout: cfg.Client.Timeout}
	mgr := manager.NewManager(
		repos.NewStateRepo(stateStore),
		github.NewClient(httpClient, cfg.GitHub.Token, logger),
		cloudflare.NewClient(httpClient, logger),
		logger,
		manager.WithTemplates(templates),
	)

	scheduler := manager.NewScheduler(mgr, cfg.Scheduler.CronSpec, logger)
	if err := scheduler.Start(); err != nil {
		logger.Error("Failed to start scheduler", log.Err(err))
		os.Exit(1)
	}
	defer scheduler.Stop()

	if cfg.Server.AccessCode == "" {
		logger.Warn("API access code disabled")
	}

	apiServer, err := server.New(
		server.WithListenAddr(cfg.Server.HTTPAddr),
		server.WithAccessCode(cfg.Server.AccessCode),
		server.WithManager(mgr),
		server.WithLogger(logger),
	)
	if err != nil {
		logger.Error("Failed to create API server", log.Err(err))
		os.Exit(1)
	}
	if err := apiServer.Start(); err != nil {
		logger.Error("Failed to start API server", log.Err(err))
		os.Exit(1)
	}

	<-ctx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := apiServer.Stop(shutdownCtx); err != nil {
		logger.Error("Failed to stop API server", log.Err(err))
	}

	logger.Info("Fleetman daemon stopped")
}
