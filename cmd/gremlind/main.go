// Command gremlind runs the gremlin pet engine: it restores saved pets, ticks
// passive decay and persists every change until interrupted.
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

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"github.com/moorebrett0/gremlin/internal/clock"
	"github.com/moorebrett0/gremlin/internal/config"
	"github.com/moorebrett0/gremlin/internal/cooldown"
	"github.com/moorebrett0/gremlin/internal/decay"
	"github.com/moorebrett0/gremlin/internal/gremlin"
	"github.com/moorebrett0/gremlin/internal/metrics"
	"github.com/moorebrett0/gremlin/internal/persist"
	"github.com/moorebrett0/gremlin/internal/pet"
	"github.com/moorebrett0/gremlin/internal/store"
)

func main() {
	configPath := flag.String("config", "gremlin.yaml", "path to the YAML config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		slog.Error("gremlind: fatal", "err", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	slog.SetDefault(slog.New(newHandler(os.Stderr, cfg.Log)))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gw, closeGateway, err := openGateway(cfg.Store)
	if err != nil {
		return err
	}
	defer closeGateway()

	st := store.New()
	if err := persist.Restore(ctx, gw, st); err != nil {
		return fmt.Errorf("restoring pets: %w", err)
	}
	slog.Info("gremlind: pets restored", "count", st.Len(), "backend", cfg.Store.Backend, "path", cfg.Store.Path)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	seed := cfg.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	rng := pet.NewRand(seed)
	clk := clock.New(cfg.Time.Location)

	writer := persist.NewWriter(st, gw, m)
	sched := decay.New(st, writer, clk, rng, m, decay.Config{
		Interval:    cfg.Time.UpdateInterval,
		Balance:     cfg.Balance,
		PrankChance: cfg.Probability.PrankChance,
	})
	cooldowns := cooldown.New(cfg.Cooldowns)

	svc := gremlin.New(st, writer, clk, rng, gremlin.Rules{
		Balance:                   cfg.Balance,
		Catalog:                   cfg.Catalog,
		RiskWindow:                cfg.Time.RiskWindow,
		TransformationDuration:    cfg.Time.TransformationDuration,
		RevertSuccessChance:       cfg.Probability.RevertSuccessChance,
		TransformationPrankChance: cfg.Probability.TransformationPrankChance,
	}, gremlin.Options{Pranks: sched, Cooldowns: cooldowns, Metrics: m})

	// No chat gateway is attached here; pranks are logged so operators can
	// see the engine working.
	svc.Subscribe(func(p decay.Prank) {
		slog.Info("gremlind: prank", "owner", p.Owner, "name", p.Pet.Name, "mood", p.Pet.Mood)
	})

	slog.Info("gremlind: started",
		"timezone", cfg.Time.Location.String(),
		"now", svc.Now().Format(time.RFC3339),
		"risk_window", cfg.Time.RiskWindow.String(),
		"tick", cfg.Time.UpdateInterval,
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		writer.Run(gctx)
		return nil
	})
	g.Go(func() error {
		sched.Run(gctx)
		return nil
	})
	g.Go(func() error {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case now := <-ticker.C:
				cooldowns.Forget(now)
			}
		}
	})
	if cfg.Metrics.Addr != "" {
		srv := &http.Server{
			Addr:              cfg.Metrics.Addr,
			Handler:           metricsMux(reg),
			ReadHeaderTimeout: 5 * time.Second,
		}
		g.Go(func() error {
			slog.Info("gremlind: metrics listening", "addr", cfg.Metrics.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	err = g.Wait()

	// Run already flushed a pending request; this catches writes that raced shutdown.
	flushCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if ferr := writer.Flush(flushCtx); ferr != nil {
		err = errors.Join(err, fmt.Errorf("final save: %w", ferr))
	}

	slog.Info("gremlind: stopped", "pets", st.Len())
	return err
}

func openGateway(cfg config.StoreConfig) (persist.Gateway, func(), error) {
	switch cfg.Backend {
	case "bolt":
		db, err := persist.OpenBolt(cfg.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("opening bolt store: %w", err)
		}
		return db, func() {
			if err := db.Close(); err != nil {
				slog.Warn("gremlind: closing bolt store", "err", err)
			}
		}, nil
	default:
		return persist.NewFileGateway(cfg.Path), func() {}, nil
	}
}

func metricsMux(g prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler(g))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, "ok\n")
	})
	return mux
}

func newHandler(w io.Writer, cfg config.LogConfig) slog.Handler {
	var level slog.Level
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "json" {
		return slog.NewJSONHandler(w, opts)
	}
	return slog.NewTextHandler(w, opts)
}
