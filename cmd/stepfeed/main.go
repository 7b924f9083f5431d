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

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/janisvco/stepfeed/internal/config"
	"github.com/janisvco/stepfeed/internal/connection"
	"github.com/janisvco/stepfeed/internal/credential"
	"github.com/janisvco/stepfeed/internal/publish"
	"github.com/janisvco/stepfeed/internal/readings"
	"github.com/janisvco/stepfeed/internal/version"
	"github.com/janisvco/stepfeed/internal/web"
)

// manager is what main needs from either manager flavour.
type manager interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	Readings() readings.View
	State() readings.ConnectionState
}

func main() {
	configPath := flag.String("config", "configs/stepfeed.yaml", "path to config file")
	envFiles := flag.String("env", ".env", "comma-separated .env files to load before the config")
	dev := flag.Bool("dev", false, "enable developer controls regardless of config")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	loaded, err := credential.LoadEnvFiles(splitList(*envFiles)...)
	if err != nil {
		logger.Error("failed to load env files", "error", err)
		os.Exit(1)
	}

	// Load configuration
	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if *dev {
		cfg.Diagnostic = true
	}

	logger = newLogger(os.Stdout, cfg.Log)
	slog.SetDefault(logger)

	logger.Info("starting stepfeed",
		"version", version.Version,
		"commit", version.Commit,
		"config", *configPath,
		"env_files", loaded,
	)

	if err := run(cfg, logger); err != nil {
		logger.Error("stepfeed failed", "error", err)
		os.Exit(1)
	}
	logger.Info("stepfeed stopped")
}

func run(cfg *config.Config, logger *slog.Logger) error {
	codec, err := cfg.Codec()
	if err != nil {
		return err
	}

	var runtime *credential.Client
	if cfg.Auth.RuntimeConfigURL != "" {
		runtime = credential.NewClient(cfg.Auth.RuntimeConfigURL,
			credential.WithLogger(logger),
			credential.WithTimeout(cfg.Auth.FetchTimeout),
			credential.WithRetries(1, 500*time.Millisecond),
		)
	}
	tokens := credential.NewResolver(runtime, cfg.Auth.TokenEnv, logger)

	connCfg := cfg.ConnectionConfig()
	opts := []connection.Option{
		connection.WithLogger(logger),
		connection.WithCodec(codec),
		connection.WithDialer(connection.NewWSDialer(cfg.ClientConfig(version.UserAgent()), logger)),
	}

	var (
		mgr     manager
		webOpts = []web.Option{
			web.WithLogger(logger),
			web.WithAllowOrigins(cfg.HTTP.AllowOrigins...),
			web.WithDevRateLimit(rate.Limit(cfg.HTTP.DevRateLimit)),
		}
	)
	if cfg.Diagnostic {
		d := connection.NewDiagnostic(connCfg, tokens, opts...)
		mgr = d
		webOpts = append(webOpts, web.WithControls(d))
		logger.Warn("developer controls enabled")
	} else {
		mgr = connection.NewManager(connCfg, tokens, opts...)
	}

	endpoint, _ := connCfg.Endpoint.URL()
	logger.Info("configuration loaded",
		"hub", endpoint,
		"mode", connCfg.Endpoint.Mode(),
		"entities", len(codec.EntityIDs()),
	)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	g, gctx := errgroup.WithContext(ctx)

	if cfg.HTTP.Addr != "" {
		srv := web.New(cfg.HTTP.Addr, mgr, webOpts...)
		g.Go(func() error {
			logger.Info("starting http server", "addr", cfg.HTTP.Addr)
			if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("http server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer shutdownCancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	if cfg.MQTT.Broker != "" {
		pub, err := publish.NewRealPublisher(publish.Options{
			Broker:      cfg.MQTT.Broker,
			ClientID:    cfg.MQTT.ClientID,
			TopicPrefix: cfg.MQTT.TopicPrefix,
			Retain:      cfg.MQTT.Retain,
			Username:    cfg.MQTT.Username,
			Password:    cfg.MQTT.Password,
		}, logger)
		if err != nil {
			// Readings still flow to the HTTP surface.
			logger.Error("mqtt unavailable, republishing disabled", "broker", cfg.MQTT.Broker, "error", err)
		} else {
			defer pub.Close()
			bridge := publish.NewBridge(mgr.Readings(), pub, logger, publish.WithRateLimit(rate.Limit(5), 1))
			g.Go(func() error { return bridge.Run(gctx) })
		}
	}

	if err := mgr.Start(gctx); err != nil {
		cancel()
		g.Wait()
		return fmt.Errorf("start connection manager: %w", err)
	}

	logger.Info("stepfeed running")

	// Wait for shutdown
	<-gctx.Done()

	logger.Info("shutting down...")

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer stopCancel()
	if err := mgr.Stop(stopCtx); err != nil {
		logger.Warn("connection manager stop", "error", err)
	}

	return g.Wait()
}

// newLogger builds the process logger from the log section.
func newLogger(w io.Writer, lc config.LogConfig) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(lc.Level)}
	if lc.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
