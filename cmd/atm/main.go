package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"caspomat/internal/account/metrics"
	"caspomat/internal/account/service"
	"caspomat/internal/account/store"
	"caspomat/internal/platform/config"
	"caspomat/internal/platform/httpserver"
	"caspomat/internal/platform/logger"
	"caspomat/internal/session"
	"caspomat/internal/terminal"
	httptransport "caspomat/internal/transport/http"
)

// main wires the stores, the account service, the session controller and the
// interactive terminal, and keeps the process lifecycle small. Business rules
// live in the internal packages.
func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.FromEnv()
	if err != nil {
		return err
	}
	log := logger.New(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	durable, closeStore, err := openDurable(cfg)
	if err != nil {
		return err
	}
	if closeStore != nil {
		defer closeStore()
	}

	accounts := store.Defaults()
	if durable != nil {
		loaded, err := durable.Load(ctx)
		switch {
		case errors.Is(err, store.ErrCorruptState) && !cfg.StrictLoad:
			log.WithError(err).Warn("durable state unreadable, starting from built-in defaults")
		case err != nil:
			return fmt.Errorf("load durable state: %w", err)
		default:
			accounts = loaded
		}
	}

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	working := store.NewInMemoryAccountStoreWith(accounts)
	opts := []service.Option{
		service.WithLogger(log.WithField("component", "accounts")),
		service.WithMetrics(m),
	}
	if durable != nil {
		opts = append(opts, service.WithDurable(durable))
	}
	svc, err := service.New(working, opts...)
	if err != nil {
		return err
	}

	ctrl := session.New(svc, log.WithField("component", "session"))
	term := terminal.New(os.Stdin, os.Stdout, ctrl, log.WithField("component", "terminal"))

	g, gctx := errgroup.WithContext(ctx)
	if cfg.TelemetryAddr != "" {
		srv := httpserver.New(cfg.TelemetryAddr, httptransport.NewRouter(reg))
		log.WithField("addr", cfg.TelemetryAddr).Info("telemetry listening")
		g.Go(func() error {
			return httpserver.Run(gctx, srv)
		})
	}
	g.Go(func() error {
		// Session over: unblock the telemetry shutdown as well.
		defer stop()
		return term.Run(gctx)
	})
	return g.Wait()
}

func openDurable(cfg config.Config) (store.AccountStore, func() error, error) {
	switch cfg.Store {
	case config.StoreMemory:
		return nil, nil, nil
	case config.StoreJSON:
		return store.NewJSONFileAccountStore(cfg.DataFile), nil, nil
	case config.StoreSQLite:
		st, err := store.NewSQLiteAccountStore(cfg.SQLiteDSN)
		if err != nil {
			return nil, nil, err
		}
		return st, st.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.Store)
	}
}
