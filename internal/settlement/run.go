package settlement

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os/signal"
	"syscall"

	"wheres-my-tab/internal/settlement/api/http"
	"wheres-my-tab/internal/settlement/app/core"
	"wheres-my-tab/internal/xpkg/config"
	"wheres-my-tab/internal/xpkg/logger"
)

type params struct {
	settlementParams *core.SettlementParams
	configPath       string
	cfg              *config.Config
}

// Execute starts the settlement service
func Execute(ctx context.Context, mylog logger.Logger, args []string) error {
	newCtx, close := signal.NotifyContext(ctx, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM)
	defer close()

	params, err := parseParams(args)
	if err != nil {
		if !errors.Is(err, core.ErrHelp) {
			mylog.Action("command_parse_failed").Error("Invalid command received", err)
		}
		return err
	}
	if err = validateParams(params); err != nil {
		mylog.Action("command_validation_failed").Error("Invalid command received", err)
		return err
	}
	mylog.Action("command_validation_completed").Info("Successfully validate params")

	server := http.NewServer(newCtx, context.Background(), params.cfg, params.settlementParams, mylog)

	runErrCh := make(chan error, 1)
	go func() {
		runErrCh <- server.Run()
	}()

	select {
	case <-newCtx.Done():
		mylog.Action("shutdown_signal_received").Info("Shutdown signal received")
		return server.Stop(context.Background())
	case err := <-runErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			mylog.Action("settlement_service_failed").Error("Server failed unexpectedly", err)
			_ = server.Stop(context.Background())
			return err
		}
		mylog.Action("server_stopped").Info("Server exited normally")
		return server.Stop(context.Background())
	}
}

// parseParams parses the settlement-service flags
func parseParams(args []string) (*params, error) {
	fs := flag.NewFlagSet("settlement-service", flag.ContinueOnError)
	showHelp := fs.Bool("help", false, "Show help")
	configPath := fs.String("config-path", "", "path for config yaml; empty reads the environment and .env")

	port := fs.Int("port", core.DefaultPort, "Port to run the settlement service")
	store := fs.String("store", core.StorePostgres, "storage backend: postgres | memory")

	if err := fs.Parse(args); err != nil {
		return nil, errors.New("cannot parse arguments")
	}

	if *showHelp {
		fs.Usage()
		return nil, core.ErrHelp
	}

	return &params{
		settlementParams: &core.SettlementParams{
			Port:  *port,
			Store: *store,
		},
		configPath: *configPath,
	}, nil
}

// validateParams loads the config and checks the flags
func validateParams(params *params) error {
	if params.configPath == "" {
		params.cfg = config.LoadDotEnv()
	} else {
		cfg, err := config.LoadConfig(params.configPath)
		if err != nil {
			return err
		}
		params.cfg = cfg
	}

	sp := params.settlementParams
	if sp.Port <= 0 || sp.Port >= 65536 {
		return fmt.Errorf("port must be in [1: 65,535]: %d", sp.Port)
	}
	if !core.AllowedStores[sp.Store] {
		return fmt.Errorf("unknown store %q: use postgres or memory", sp.Store)
	}
	return nil
}
