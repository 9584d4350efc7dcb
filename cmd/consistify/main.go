package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"consistify/internal/auth"
	"consistify/internal/config"
	"consistify/internal/logger"
	"consistify/internal/scheduler"
	"consistify/internal/server"
	"consistify/internal/storage/sqlite"
	"consistify/internal/summary"
	"consistify/internal/util"
)

func main() {
	configFlag := flag.String("config", util.EnvOrDefault("CONSISTIFY_CONFIG", ""), "Path to YAML config file")
	addrFlag := flag.String("addr", "", "HTTP listen address (overrides config)")
	dbFlag := flag.String("db", "", "Path to sqlite database file (overrides config)")
	staticFlag := flag.String("static", "", "Directory with built dashboard (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*configFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	if *addrFlag != "" {
		cfg.Server.Addr = *addrFlag
	}
	if *dbFlag != "" {
		cfg.Database.Path = *dbFlag
	}
	if *staticFlag != "" {
		cfg.Server.StaticDir = *staticFlag
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Log)
	slog.SetDefault(log)
	log.Info("consistify starting", slog.String("db", cfg.Database.Path))

	store, err := sqlite.Open(cfg.Database.Path, log)
	if err != nil {
		log.Error("unable to open database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer store.Close()

	engine := summary.New(store, log)
	issuer := auth.NewIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)

	srv := server.New(store, engine, issuer, log, server.Options{
		StaticDir:     cfg.Server.StaticDir,
		AllowOrigins:  cfg.Server.AllowOrigins,
		SecureCookies: cfg.Auth.SecureCookies,
	})

	if cfg.Scheduler.Enabled {
		sched := scheduler.New(log)
		if _, err := sched.ScheduleRollover(cfg.Scheduler.RolloverSpec, engine); err != nil {
			log.Error("unable to schedule rollover", slog.String("error", err.Error()))
			os.Exit(1)
		}
		sched.Start()
		defer sched.Stop()
		log.Info("rollover scheduled", slog.String("spec", cfg.Scheduler.RolloverSpec))
	}

	httpServer := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           srv.Engine(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("starting server", slog.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server stopped unexpectedly", slog.String("error", err.Error()))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		log.Error("failed to shutdown server", slog.String("error", err.Error()))
	}

	log.Info("server stopped")
}
