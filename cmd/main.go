package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"trade-lab/evolution"
	"trade-lab/exchange"
	"trade-lab/internal"
	"trade-lab/observability"
	"trade-lab/projection"
	"trade-lab/repositories"
	"trade-lab/runtime"
	"trade-lab/runtime/workers"
	"trade-lab/server"
	"trade-lab/services"
	"trade-lab/settlement"
	"trade-lab/sink"

	"github.com/dgraph-io/badger/v4"
	"github.com/mama165/sdk-go/logs"
	"golang.org/x/sync/errgroup"
)

// Exit codes to provide meaningful status to the operating system or service manager.
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
	}
	os.Exit(code)
}

// run wires every component and keeps deferred cleanups ahead of os.Exit.
func run() (int, error) {
	// 1. Configuration & Logger
	config, err := internal.LoadConfig()
	if err != nil {
		return exitConfig, err
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	catalog, err := loadCatalog(config.SpeciesCatalog)
	if err != nil {
		return exitConfig, err
	}

	// 2. Database (BadgerDB)
	db, err := badger.Open(badgerOptions(config, log))
	if err != nil {
		return exitRuntime, fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		log.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	ledger := repositories.NewLedgerRepository(db, log)
	settlements := repositories.NewSettlementRepository(db, log, config.LimitReceipts)

	// 3. Trading core
	monitoring := observability.NewMonitoringManager(log)
	registry := runtime.NewRegistry()
	supervisor := workers.NewSupervisor(log, config.RestartInterval)
	orchestrator := runtime.NewOrchestrator(
		log, supervisor, registry, monitoring,
		config.NumberOfWorkers, config.BufferSize, config.SinkTimeout, config.TelemetryInterval,
	)
	executor := settlement.NewExecutor(log, ledger, evolution.NewResolver(catalog), registry, orchestrator)
	orchestrator.Route(exchange.NewEngine(log, ledger, registry, executor, orchestrator))

	board := projection.NewBoard(config.PageSize, config.InboxSize)
	orchestrator.Add(
		sink.NewDisplaySink(board, log),
		sink.NewDiskSink(settlements, log),
		sink.NewTelemetrySink(monitoring),
	)

	invitations := runtime.NewInvitationGate(log, registry, ledger, orchestrator, config.InvitationTimeout)
	defer invitations.Stop()
	service := services.NewTradeService(orchestrator, invitations, ledger, board, settlements)

	// 4. HTTP Server
	routerConfig := server.RouterConfig{
		Log:           log,
		AllowOrigins:  config.AllowOrigins(),
		HealthHandler: server.NewHealthHandler(monitoring),
		TradeHandler:  server.NewTradeHandler(service),
	}
	if config.EnableInspector {
		log.Info("Debug Badger inspector available", "path", "/debug/inspect")
		routerConfig.DebugHandler = server.NewDebugHandler(internal.NewInspector(db, internal.TradeMapper))
	}
	httpServer := &http.Server{
		Addr:    config.Address(),
		Handler: server.NewRouter(routerConfig),
	}

	// 5. Context & Signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return orchestrator.Start(gctx)
	})
	g.Go(func() error {
		log.Info("Starting HTTP server", "address", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down gracefully...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
		defer cancel()
		err := httpServer.Shutdown(shutdownCtx)
		orchestrator.Stop()
		return err
	})

	if err := g.Wait(); err != nil {
		return exitRuntime, err
	}
	log.Info("Program stopped cleanly")
	return exitOK, nil
}

func loadCatalog(path string) (*evolution.Catalog, error) {
	if path == "" {
		return evolution.LoadDefaultCatalog()
	}
	return evolution.LoadCatalogFile(path)
}

func badgerOptions(config internal.Config, log *slog.Logger) badger.Options {
	options := badger.DefaultOptions(config.BadgerFilepath)
	if log.Enabled(context.Background(), slog.LevelDebug) {
		return options.WithLoggingLevel(badger.DEBUG)
	}
	return options.WithLoggingLevel(badger.WARNING)
}
