package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"Flow/internal/cli/commands"
	"Flow/internal/config"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

func main() {
	// общий конфиг: env + флаги
	cfg := config.NewConfig()

	if cfg.Version {
		printVersion(os.Stdout, cfg)
		return
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	exitCode := commands.Dispatch(ctx, cfg, flag.Args())
	if exitCode == 0 {
		return
	}
	os.Exit(exitCode)
}

// printVersion заодно показывает, куда смотрит клиент: сервер и файл токена.
func printVersion(w io.Writer, cfg *config.Config) {
	fmt.Fprintf(w, "Flow CLI %s (built %s)\n", version, buildDate)
	fmt.Fprintf(w, "Server:     %s\n", cfg.ServerURL)
	fmt.Fprintf(w, "Token file: %s\n", cfg.TokenFile)
}
