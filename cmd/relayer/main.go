package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/urfave/cli/v2"

	"github.com/gasgate-labs/gasgate-backend/internal/api"
	"github.com/gasgate-labs/gasgate-backend/internal/ledger"
	"github.com/gasgate-labs/gasgate-backend/internal/oracle"
	"github.com/gasgate-labs/gasgate-backend/internal/relayer/config"
	"github.com/gasgate-labs/gasgate-backend/internal/router"
	"github.com/gasgate-labs/gasgate-backend/internal/watcher"
	"github.com/gasgate-labs/gasgate-backend/internal/watcher/metrics"
	"github.com/gasgate-labs/gasgate-backend/pkg/eventbus"
	httppkg "github.com/gasgate-labs/gasgate-backend/pkg/http"
	"github.com/gasgate-labs/gasgate-backend/pkg/logging"
)

const shutdownTimeout = 10 * time.Second

func main() {
	app := &cli.App{
		Name:        "gasgate-relayer",
		Usage:       "GasGate relayer",
		Description: "Service that holds the transfer ledger, watches fee gates, and executes jobs when their time and fee conditions are met.",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "port",
				Usage: "API server port (overrides RELAYER_API_PORT)",
			},
		},
		Action: relayerMain,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "Application failed:", err)
		os.Exit(1)
	}
}

func relayerMain(cliCtx *cli.Context) error {
	if err := config.Init(); err != nil {
		return fmt.Errorf("failed to initialize config: %w", err)
	}

	logConfig := logging.NewDefaultConfig(logging.RelayerProcess)
	if !config.IsDevMode() {
		logConfig.Environment = logging.Production
	}
	if err := logging.InitServiceLogger(logConfig); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	logger := logging.GetServiceLogger()
	defer logging.Shutdown()

	logger.Info("Starting GasGate relayer service ...")

	// Network registry and fee oracle
	networks, err := config.LoadNetworks()
	if err != nil {
		return err
	}
	registry, err := oracle.NewRegistry(networks)
	if err != nil {
		return fmt.Errorf("invalid network registry: %w", err)
	}
	httpClient, err := httppkg.NewHTTPClient(httppkg.DefaultHTTPRetryConfig(), logger)
	if err != nil {
		return fmt.Errorf("failed to create HTTP client: %w", err)
	}
	feeOracle := oracle.NewClient(registry, httpClient, logger)
	logger.Info("[1/5] Fee oracle initialised", "networks", registry.Names())

	// Ledger and event bus
	bus := eventbus.New(logger)
	admin := common.HexToAddress(config.GetAdminAddress())
	led := ledger.New(ledger.Config{
		Network:      config.GetNetwork(),
		Admin:        admin,
		FeeBps:       config.GetFeeBps(),
		FeeCollector: common.HexToAddress(config.GetFeeCollector()),
	}, bus, logger)
	logger.Info("[2/5] Ledger initialised", "network", led.Network())

	// Relayer watcher
	relayerAddr := common.HexToAddress(config.GetRelayerAddress())
	if err := led.SetRelayerAuthorization(admin, relayerAddr, true); err != nil {
		return fmt.Errorf("failed to authorize relayer: %w", err)
	}
	submitter := watcher.NewLedgerSubmitter(led, relayerAddr, config.GetNetwork())
	relayerWatcher, err := watcher.New(watcher.Config{
		Address:      relayerAddr,
		Network:      config.GetNetwork(),
		PollInterval: config.GetPollInterval(),
		MaxWorkers:   config.GetMaxWorkers(),
		ResyncSpec:   config.GetResyncSpec(),
	}, led, feeOracle, submitter, logger)
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	relayerWatcher.SubscribeTo(bus)
	if err := relayerWatcher.Start(); err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}
	logger.Info("[3/5] Relayer watcher initialised", "relayer", relayerAddr.Hex())

	// Network router
	netRouter, err := router.New(registry, feeOracle, logger)
	if err != nil {
		return fmt.Errorf("failed to create router: %w", err)
	}
	logger.Info("[4/5] Network router initialised")

	metrics.StartMetricsCollection()

	// API server
	server, err := api.NewServer(api.Deps{
		Ledger:  led,
		Oracle:  feeOracle,
		Router:  netRouter,
		Watcher: relayerWatcher,
		Logger:  logger,
	})
	if err != nil {
		return fmt.Errorf("failed to create API server: %w", err)
	}
	logger.Info("[5/5] API server initialised")

	port := cliCtx.String("port")
	if port == "" {
		port = config.GetAPIPort()
	}
	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.Start(port)
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-shutdown:
		logger.Info("Received shutdown signal", "signal", sig.String())
	case err := <-serverErr:
		if err != nil {
			logger.Error("API server exited", "error", err)
		}
	}

	performGracefulShutdown(server, relayerWatcher, httpClient, logger)
	return nil
}

func performGracefulShutdown(server *api.Server, relayerWatcher *watcher.Watcher, httpClient *httppkg.HTTPClient, logger logging.Logger) {
	logger.Info("Initiating graceful shutdown...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("API server forced to shutdown", "error", err)
	} else {
		logger.Info("API server stopped successfully")
	}

	relayerWatcher.StopAll()
	logger.Info("Watcher stopped successfully")

	httpClient.Close()
	logger.Info("GasGate relayer service shutdown complete")
}
