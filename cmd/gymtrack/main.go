package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kostadinov1/gym-backend/internal/auth"
	"github.com/kostadinov1/gym-backend/internal/config"
	"github.com/kostadinov1/gym-backend/internal/mcp"
	"github.com/kostadinov1/gym-backend/internal/metrics"
	"github.com/kostadinov1/gym-backend/internal/server"
	"github.com/kostadinov1/gym-backend/internal/storage"
	"tailscale.com/tsnet"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	envPath := flag.String("env", ".env", "optional .env file")
	migrationsPath := flag.String("migrations", "migrations", "path to migrations directory")
	migrateOnly := flag.Bool("migrate-only", false, "run migrations and exit")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	log.Info("GymTrack starting", "version", Version)

	if err := config.LoadDotEnv(*envPath); err != nil {
		log.Error("failed to load env file", "error", err)
		os.Exit(1)
	}
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	dsn := cfg.Database.DSN()
	if err := storage.RunMigrations(dsn, *migrationsPath); err != nil {
		log.Error("migration failed", "error", err)
		os.Exit(1)
	}
	log.Info("migrations applied")

	if *migrateOnly {
		log.Info("migrate-only: exiting")
		return
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	db, err := storage.New(ctx, dsn)
	if err != nil {
		log.Error("failed to connect database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	log.Info("database connected")

	issuer, err := auth.NewIssuer(cfg.Auth.SecretKey, cfg.Auth.Algorithm, cfg.Auth.TokenTTL())
	if err != nil {
		log.Error("invalid auth config", "error", err)
		os.Exit(1)
	}

	proxies, err := cfg.Server.TrustedPrefixes()
	if err != nil {
		log.Error("invalid server config", "error", err)
		os.Exit(1)
	}

	opts := server.Options{
		MCP:            mcp.NewHTTPHandler(mcp.New(db, Version, log)),
		TrustedProxies: proxies,
	}
	if cfg.Metrics.Enabled {
		opts.Metrics = metrics.NewManager()
		opts.MetricsPath = cfg.Metrics.Path
	}
	if cfg.RateLimit.Enabled {
		opts.Limiters = server.NewLimiterStore(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)
		opts.Limiters.StartJanitor(ctx, time.Minute)
	}

	srv := server.New(db, issuer, opts, log)

	// Start server: tsnet or plain TCP
	var listener net.Listener
	if cfg.Tailscale.Enabled {
		ts := &tsnet.Server{
			Hostname: cfg.Tailscale.Hostname,
			Dir:      cfg.Tailscale.StateDir,
		}
		if err := ts.Start(); err != nil {
			log.Error("tsnet start failed", "error", err)
			os.Exit(1)
		}
		defer ts.Close()

		listener, err = ts.Listen("tcp", ":80")
		if err != nil {
			log.Error("tsnet listen failed", "error", err)
			os.Exit(1)
		}
		log.Info("tsnet server starting", "hostname", cfg.Tailscale.Hostname)
	} else {
		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		listener, err = net.Listen("tcp", addr)
		if err != nil {
			log.Error("listen failed", "addr", addr, "error", err)
			os.Exit(1)
		}
		log.Info("server starting", "addr", addr)
	}

	httpSrv := &http.Server{
		Handler:           srv,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := httpSrv.Serve(listener); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Info("shutting down", "signal", sig)
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", "error", err)
	}
	log.Info("server stopped")
}
