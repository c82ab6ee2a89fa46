// Command server runs the IqEngi storefront.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/iqengi/site/internal/app"
	"github.com/iqengi/site/internal/config"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to configuration file")
	checkOnly := flag.Bool("check", false, "validate configuration and content, then exit")
	flag.Parse()

	if err := run(*configPath, *checkOnly); err != nil {
		slog.Error("server exited", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(configPath string, checkOnly bool) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	a, err := app.New(cfg)
	if err != nil {
		return fmt.Errorf("create app: %w", err)
	}
	if checkOnly {
		slog.Info("configuration and content are valid", slog.String("config", configPath))
		return a.Close()
	}
	return a.Run()
}
