package main

import (
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/davidahmann/tradedesk/internal/api"
	"github.com/davidahmann/tradedesk/internal/auth"
	"github.com/davidahmann/tradedesk/internal/config"
	"github.com/davidahmann/tradedesk/internal/ledger/ledgerdb"
	"github.com/davidahmann/tradedesk/internal/logging"
	"github.com/davidahmann/tradedesk/internal/policy"
	"github.com/davidahmann/tradedesk/internal/telemetry"
	"go.uber.org/zap"
)

func main() {
	if err := runFn(os.Args[1:], os.Getenv, listenAndServe, newServer); err != nil {
		fatalf("server error: %v", err)
	}
}

var runFn = run
var fatalf = log.Fatalf

func newServer(cfg config.Config, logger *zap.Logger) (*http.Server, func() error, error) {
	loaded, err := policy.LoadPolicy(cfg.PolicyPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load policy: %w", err)
	}

	store, closeStore, err := ledgerdb.Open(cfg.DB.Driver, cfg.DB.DSN)
	if err != nil {
		return nil, nil, err
	}

	var metrics *telemetry.Metrics
	if cfg.Metrics.Enabled {
		metrics = telemetry.New()
	}

	service, err := api.NewDecisionService(api.NewDecisionServiceInput{
		Policy:  loaded,
		Store:   store,
		Metrics: metrics,
		Logger:  logger,
	})
	if err != nil {
		_ = closeStore()
		return nil, nil, err
	}

	tokens := make(map[string]string, len(cfg.Auth.Tokens))
	for _, tok := range cfg.Auth.Tokens {
		tokens[tok.Token] = tok.Subject
	}

	h := &api.Handler{
		Auth:        auth.NewStaticAuthenticator(tokens),
		Service:     service,
		Metrics:     metrics,
		MetricsPath: cfg.Metrics.Path,
		Logger:      logger.Named("http"),
	}
	logger.Info("policy loaded",
		zap.String("policy_id", loaded.Policy.PolicyID),
		zap.String("policy_hash", loaded.Hash),
		zap.String("db_driver", firstNonEmpty(cfg.DB.Driver, "memory")),
	)
	return &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           api.NewRouter(h),
		ReadHeaderTimeout: 5 * time.Second,
	}, closeStore, nil
}

type envFn func(string) string
type listenFn func(*http.Server) error
type serverFactory func(cfg config.Config, logger *zap.Logger) (*http.Server, func() error, error)

func run(args []string, getenv envFn, listen listenFn, factory serverFactory) error {
	fs := flag.NewFlagSet("tradedesk-gateway", flag.ContinueOnError)
	configPath := fs.String("config", "", "path to tradedesk config file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfgFile := *configPath
	if cfgFile == "" {
		cfgFile = getenv("TRADEDESK_CONFIG_PATH")
	}

	var cfg config.Config
	if cfgFile != "" {
		loaded, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		cfg = loaded
	}

	cfg.ListenAddr = firstNonEmpty(getenv("TRADEDESK_LISTEN_ADDR"), cfg.ListenAddr, ":8080")
	cfg.PolicyPath = firstNonEmpty(getenv("TRADEDESK_POLICY_PATH"), cfg.PolicyPath, "policies/tradedesk.yaml")
	cfg.DB.Driver = firstNonEmpty(getenv("TRADEDESK_DB_DRIVER"), cfg.DB.Driver)
	cfg.DB.DSN = firstNonEmpty(getenv("TRADEDESK_DB_DSN"), cfg.DB.DSN)
	cfg.Log.Level = firstNonEmpty(getenv("TRADEDESK_LOG_LEVEL"), cfg.Log.Level, "info")
	cfg.Log.Format = firstNonEmpty(getenv("TRADEDESK_LOG_FORMAT"), cfg.Log.Format, "json")
	cfg.Metrics.Path = firstNonEmpty(cfg.Metrics.Path, "/metrics")
	if getenv("TRADEDESK_METRICS_ENABLED") == "true" {
		cfg.Metrics.Enabled = true
	}
	if devToken := getenv("TRADEDESK_DEV_TOKEN"); devToken != "" {
		cfg.Auth.Tokens = append(cfg.Auth.Tokens, config.TokenConfig{Subject: "dev", Token: devToken})
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := logging.New(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	server, closeStore, err := factory(cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = closeStore() }()

	logger.Info("tradedesk-gateway listening", zap.String("addr", cfg.ListenAddr))
	if err := listen(server); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func listenAndServe(server *http.Server) error {
	return server.ListenAndServe()
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if value != "" {
			return value
		}
	}
	return ""
}
