// cmd/observer/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/rovshanmuradov/solana-observer/internal/cli"
)

func main() {
	configPath := flag.String("config", "", "path to config file (JSON or YAML); empty = defaults + env")
	flag.Usage = func() {
		fmt.Fprint(os.Stderr, cli.Usage())
		flag.PrintDefaults()
	}
	flag.Parse()
	os.Exit(run(*configPath, flag.Args()))
}

func run(configPath string, args []string) int {
	if len(args) == 0 {
		flag.Usage()
		return 2
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	runner := cli.NewRunner()
	// логи в консоль только для долгоживущего serve, иначе stdout - это JSON результат
	if err := runner.Initialize(ctx, configPath, args[0] == "serve"); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize: %v\n", err)
		return 1
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := runner.Shutdown(shutdownCtx); err != nil {
			fmt.Fprintf(os.Stderr, "shutdown: %v\n", err)
		}
	}()

	err := cli.Run(ctx, runner.Env(os.Stdout, os.Stdin), args)
	if err != nil {
		runner.Logger().Error("Command failed", zap.String("command", args[0]), zap.Error(err))
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return cli.ExitCode(err)
	}
	return 0
}
