// Command server runs the fundvault record-keeping API.
package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"fundvault/internal/auditlog"
	"fundvault/internal/bond"
	counterhandler "fundvault/internal/counter/handler"
	counterservice "fundvault/internal/counter/service"
	counterstore "fundvault/internal/counter/store"
	"fundvault/internal/deposit"
	"fundvault/internal/insurance"
	"fundvault/internal/master/bank"
	"fundvault/internal/master/broker"
	"fundvault/internal/master/issuer"
	"fundvault/internal/master/owner"
	"fundvault/internal/master/role"
	"fundvault/internal/notify"
	"fundvault/internal/platform/config"
	"fundvault/internal/platform/httpserver"
	"fundvault/internal/platform/logger"
	"fundvault/internal/platform/metrics"
	"fundvault/internal/platform/postgres"
	platformredis "fundvault/internal/platform/redis"
	"fundvault/internal/record"
	"fundvault/internal/saving"
	"fundvault/internal/stock"
	httptransport "fundvault/internal/transport/http"
	"fundvault/internal/uniqueness"
	"fundvault/pkg/platform/audit"
	auditpostgres "fundvault/pkg/platform/audit/store/postgres"
	auditworker "fundvault/pkg/platform/audit/worker"
	"fundvault/pkg/platform/tx"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.FromEnv()
	log := logger.New(cfg.LogLevel)

	db, err := postgres.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()

	rdb, err := platformredis.New(ctx, cfg.RedisURL)
	if err != nil {
		return err
	}
	if rdb != nil {
		defer rdb.Close()
	}

	m := metrics.New()

	counters, err := counterservice.New(counterstore.NewPostgres(db), counterservice.WithLogger(log))
	if err != nil {
		return err
	}
	if err := counters.SeedDefaults(ctx); err != nil {
		return fmt.Errorf("seed counters: %w", err)
	}

	auditStore := auditpostgres.New(db)
	recorder, err := audit.NewRecorder(auditStore)
	if err != nil {
		return err
	}

	var publisher notify.Publisher = notify.NopPublisher{}
	if rdb != nil {
		publisher = notify.NewRedisPublisher(rdb.Client)
	}

	shared := record.Deps{
		Counters:  counters,
		Recorder:  recorder,
		Unique:    uniqueness.NewPostgres(db),
		Publisher: publisher,
		Tx:        tx.NewSQLRunner(db),
		Logger:    log,
		Metrics:   m,
	}

	bonds, err := wire(db, shared, bond.Definition().Table, bond.NewService)
	if err != nil {
		return err
	}
	deposits, err := wire(db, shared, deposit.Definition().Table, deposit.NewService)
	if err != nil {
		return err
	}
	savings, err := wire(db, shared, saving.Definition().Table, saving.NewService)
	if err != nil {
		return err
	}
	insurances, err := wire(db, shared, insurance.Definition().Table, insurance.NewService)
	if err != nil {
		return err
	}
	stocks, err := wire(db, shared, stock.Definition().Table, stock.NewService)
	if err != nil {
		return err
	}
	banks, err := wire(db, shared, bank.Definition().Table, bank.NewService)
	if err != nil {
		return err
	}
	owners, err := wire(db, shared, owner.Definition().Table, owner.NewService)
	if err != nil {
		return err
	}
	brokers, err := wire(db, shared, broker.Definition().Table, broker.NewService)
	if err != nil {
		return err
	}
	issuers, err := wire(db, shared, issuer.Definition().Table, issuer.NewService)
	if err != nil {
		return err
	}
	roles, err := wire(db, shared, role.Definition().Table, role.NewService)
	if err != nil {
		return err
	}

	checks := map[string]httptransport.Checker{
		"postgres": db.PingContext,
	}
	if rdb != nil {
		checks["redis"] = rdb.Health
	}

	router := httptransport.NewRouter(log, m, cfg.JWTSigningKey, httptransport.HealthHandler(checks),
		counterhandler.New(counters, log),
		auditlog.New(auditStore, log),
		bond.NewHandler(bonds, log),
		deposit.NewHandler(deposits, log),
		saving.NewHandler(savings, log),
		insurance.NewHandler(insurances, log),
		stock.NewHandler(stocks, log),
		bank.NewHandler(banks, log),
		owner.NewHandler(owners, log),
		broker.NewHandler(brokers, log),
		issuer.NewHandler(issuers, log),
		role.NewHandler(roles, log),
	)

	srv := httpserver.New(cfg.Addr, router)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.InfoContext(gctx, "server listening", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	if len(cfg.KafkaBrokers) > 0 {
		outbox, err := auditworker.New(db, cfg.KafkaBrokers, cfg.KafkaTopic, log)
		if err != nil {
			return err
		}
		defer outbox.Close()
		g.Go(func() error {
			if err := outbox.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		log.InfoContext(context.Background(), "shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// wire builds the per-table store and hands the completed dependency set to
// the module's service constructor.
func wire[S any](db *sql.DB, shared record.Deps, table string, build func(record.Deps) (S, error)) (S, error) {
	store, err := record.NewPostgresStore(db, table)
	if err != nil {
		var zero S
		return zero, err
	}
	shared.Store = store
	return build(shared)
}
