// cmd/quotectl/helpers.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"quotegenius/internal/bootstrap"
	"quotegenius/internal/common/config"
	"quotegenius/internal/common/logger"
)

func loadConfig() (*config.Config, error) {
	if cfgFile != "" {
		return config.LoadFromFile(cfgFile)
	}
	return config.Load()
}

// openRuntime connects every backing service. Logs go to stderr so stdout
// carries only command output.
func openRuntime(ctx context.Context) (*bootstrap.Runtime, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	log := logger.NewStructured(cfg.Logging.Level, cfg.Logging.Format, "stderr")
	return bootstrap.Build(ctx, cfg, log)
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// readInput reads path, or stdin when path is "-".
func readInput(path string, stdin io.Reader) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(stdin)
	}
	return os.ReadFile(path)
}
