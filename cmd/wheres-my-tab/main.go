package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"wheres-my-tab/internal/refresh"
	"wheres-my-tab/internal/settlement"
	"wheres-my-tab/internal/xpkg/logger"

	xerrors "wheres-my-tab/internal/xpkg/errors"
)

func main() {
	mylogger, err := logger.NewWithOptions(logger.Options{
		Level:  envOr("LOG_LEVEL", "INFO"),
		Format: envOr("LOG_FORMAT", "json"),
	})
	if err != nil {
		log.Fatalf("log error: %v", err)
	}

	fs := flag.NewFlagSet("main", flag.ExitOnError)
	mode := fs.String("mode", "", "service to run: settlement-service | refresh-subscriber")

	// Only --mode is parsed here, the rest go to the service
	args := os.Args[1:]
	modeArgs := []string{}
	for i, arg := range args {
		if strings.HasPrefix(arg, "--mode") || strings.HasPrefix(arg, "-mode") {
			modeArgs = args[:i+1]
			if !strings.Contains(arg, "=") && i+1 < len(args) {
				modeArgs = args[:i+2]
			}
			break
		}
	}
	if err := fs.Parse(modeArgs); err != nil {
		mylogger.Action("wheres_my_tab_failed").Error("Failed to parse flags", err)
		help(fs)
		return
	}

	if *mode == "" {
		mylogger.Action("wheres_my_tab_failed").Error("Failed to start", xerrors.ErrModeFlag)
		help(fs)
		os.Exit(2)
	}

	remainingArgs := args[len(modeArgs):]

	ctx := context.Background()
	switch *mode {
	case "settlement-service", "ss":
		run(ctx, mylogger, "settlement-service", settlement.Execute, remainingArgs)

	case "refresh-subscriber", "rs":
		run(ctx, mylogger, "refresh-subscriber", refresh.Execute, remainingArgs)

	default:
		mylogger.Action("wheres_my_tab_failed").Error("Failed to start", xerrors.ErrUnknownMode, "mode", *mode)
		help(fs)
		os.Exit(2)
	}
}

type executeFunc func(ctx context.Context, mylog logger.Logger, args []string) error

func run(ctx context.Context, mylogger logger.Logger, name string, execute executeFunc, args []string) {
	action := strings.ReplaceAll(name, "-", "_")
	l := mylogger.With("service", name)

	l.Action(action + "_started").Info("Successfully started")
	if err := execute(ctx, l, args); err != nil {
		if errors.Is(err, xerrors.ErrHelp) {
			return
		}
		l.Action(action+"_failed").Error("Error in "+name, err)
		log.Fatalf("failed to execute %s: %s", name, err)
	}
	l.Action(action + "_completed").Info("Successfully completed")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func help(fs *flag.FlagSet) {
	fmt.Println("\nUsage:")
	fs.PrintDefaults()
	fmt.Println("\nExample:")
	fmt.Println("  ./wheres-my-tab --mode=settlement-service --port=3001 --store=memory")
	fmt.Println("  ./wheres-my-tab --mode=refresh-subscriber --config-path=config.yaml")
}
