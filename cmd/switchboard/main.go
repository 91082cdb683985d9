// Command switchboard runs the local orchestration endpoint: durable SQLite
// stores, the configured model gateway and the HTTP channel adapter.
package main

import (
	"fmt"
	"os"
	"time"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"

	"github.com/skritek/switchboard"
	"github.com/skritek/switchboard/config"
	"github.com/skritek/switchboard/logging"
	"github.com/skritek/switchboard/model"
	"github.com/skritek/switchboard/model/anthropic"
	"github.com/skritek/switchboard/model/openai"
	"github.com/skritek/switchboard/server"
	"github.com/skritek/switchboard/store"
)

// ServerConfig is the process configuration, loaded from the environment
// with the SWITCHBOARD_ prefix (optionally seeded from a .env file).
type ServerConfig struct {
	Addr           string        `split_words:"true" default:"127.0.0.1:7071"`
	DataDir        string        `split_words:"true" default:""`
	Provider       string        `split_words:"true" default:""` // openai, anthropic or empty for degraded mode
	Model          string        `split_words:"true" default:""`
	GatewayTimeout time.Duration `split_words:"true" default:"60s"`
	LogLevel       string        `split_words:"true" default:"info"`
	LogFormat      string        `split_words:"true" default:"text"`
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "switchboard:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.MustNew[ServerConfig]("switchboard")

	logger := logging.NewLogger(&logging.LoggerConfig{
		Level:  logging.ParseLevel(cfg.LogLevel),
		Format: cfg.LogFormat,
		Output: os.Stderr,
	})

	dataDir := cfg.DataDir
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("resolving home directory: %w", err)
		}
		dataDir = home + "/.switchboard"
	}

	db, err := store.NewSQLiteStore(dataDir+"/switchboard.db", func(o *store.SQLiteOptions) {
		o.Logger = logger
	})
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer db.Close()

	gateway := buildGateway(cfg, logger)

	sb := switchboard.New(func(o *switchboard.Options) {
		o.Contexts = db
		o.Memory = db
		o.Gateway = gateway
		o.GatewayTimeout = cfg.GatewayTimeout
		o.Logger = logger
	})

	// Agent factories are registered by embedders; the bare binary serves
	// whatever has been compiled in plus context and memory management.
	if err := sb.Load(); err != nil {
		return fmt.Errorf("loading: %w", err)
	}

	srv := server.New(sb.Dispatcher(), sb.Registry(), sb.Contexts(), func(o *server.Options) {
		o.Logger = logger
	})
	return srv.ListenAndServe(cfg.Addr)
}

// buildGateway selects the completion backend from configuration. An
// unrecognized or empty provider yields nil, which runs the dispatcher in
// degraded keyword-routing mode.
func buildGateway(cfg *ServerConfig, logger logging.Logger) model.Gateway {
	switch cfg.Provider {
	case "openai":
		return openai.NewGateway(func(o *openai.Options) {
			if cfg.Model != "" {
				o.Model = cfg.Model
			}
		})
	case "anthropic":
		return anthropic.NewGateway(func(o *anthropic.Options) {
			if cfg.Model != "" {
				o.Model = anthropicsdk.Model(cfg.Model)
			}
		})
	case "":
		logger.Warn("no provider configured, running in degraded mode")
		return nil
	default:
		logger.Warn("unknown provider, running in degraded mode", "provider", cfg.Provider)
		return nil
	}
}
