package refresh

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"wheres-my-tab/internal/refresh/adapter/consumer"
	"wheres-my-tab/internal/refresh/app/core"
	"wheres-my-tab/internal/xpkg/config"
	"wheres-my-tab/internal/xpkg/logger"

	brokermessage "wheres-my-tab/internal/refresh/adapter/broker_message"
)

type params struct {
	configPath string
	workers    int
	cfg        *config.Config
}

// Execute starts the refresh subscriber
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
	if err := validateParams(params); err != nil {
		mylog.Action("command_validation_failed").Error("Invalid command received", err)
		return err
	}

	mb, err := brokermessage.New(params.cfg.RMQ, params.workers, mylog)
	if err != nil {
		mylog.Action("mb_connection_failed").Error("Failed to connect to message broker", err)
		return fmt.Errorf("failed to connect to rabbitmq: %w", err)
	}
	mylog.Action("mb_connected").Info("Successful message broker connection")
	defer func() {
		if err := mb.Close(); err != nil {
			mylog.Action("mb_close_failed").Error("Failed to close message broker", err)
			return
		}
		mylog.Action("mb_closed").Info("Message broker closed")
	}()

	return consumer.NewSubscriber(mb, os.Stdout, params.workers, mylog).Run(newCtx)
}

func parseParams(args []string) (*params, error) {
	fs := flag.NewFlagSet("refresh-subscriber", flag.ContinueOnError)
	showHelp := fs.Bool("help", false, "Show help")
	configPath := fs.String("config-path", "", "path for config yaml; empty reads the environment and .env")
	workers := fs.Int("workers", core.DefaultWorkers, "Events handled concurrently")

	if err := fs.Parse(args); err != nil {
		return nil, errors.New("cannot parse arguments")
	}

	if *showHelp {
		fs.Usage()
		return nil, core.ErrHelp
	}
	return &params{configPath: *configPath, workers: *workers}, nil
}

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

	if !params.cfg.BrokerEnabled() {
		return core.ErrBrokerUnset
	}
	if params.workers <= 0 {
		return fmt.Errorf("workers must be positive: %d", params.workers)
	}
	return nil
}
