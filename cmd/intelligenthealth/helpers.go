package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/ItsMeCK/IntelligentHealth/pkg/config"
	"github.com/ItsMeCK/IntelligentHealth/pkg/llm"
	"github.com/ItsMeCK/IntelligentHealth/pkg/store"
	"github.com/ItsMeCK/IntelligentHealth/pkg/workflow/checkpoint"
)

// Default paths when neither flags nor config provide one.
const (
	defaultDBPath          = "intelligenthealth.db"
	defaultCheckpointsPath = "checkpoints.db"
)

// appEnv holds the wired collaborators shared by all commands.
type appEnv struct {
	cfg    config.Config
	logger *slog.Logger
	store  store.Store
	client llm.Client
}

// setupEnv loads the settings file and wires logger, store and model
// client. Precedence: flag, then config key, then environment variable
// or default.
func setupEnv() (*appEnv, error) {
	cfg := config.New(nil)
	if rootFlags.configPath != "" {
		loaded, err := config.FromFile(rootFlags.configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	level := slog.LevelInfo
	if rootFlags.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	dbPath := rootFlags.dbPath
	if dbPath == "" {
		dbPath = cfg.String("database", defaultDBPath)
	}
	st, err := store.NewSQLiteStore(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open case database: %w", err)
	}

	model := cfg.Sub("model")
	apiKey := model.String("api_key", os.Getenv("OPENAI_API_KEY"))
	if apiKey == "" {
		st.Close()
		return nil, fmt.Errorf("no API key: set model.api_key in config or OPENAI_API_KEY")
	}

	var opts []llm.HTTPOption
	if base := model.String("base_url", ""); base != "" {
		opts = append(opts, llm.WithBaseURL(base))
	}
	if name := model.String("chat_model", ""); name != "" {
		opts = append(opts, llm.WithChatModel(name))
	}
	if name := model.String("transcribe_model", ""); name != "" {
		opts = append(opts, llm.WithTranscribeModel(name))
	}

	return &appEnv{
		cfg:    cfg,
		logger: logger,
		store:  st,
		client: llm.NewHTTPClient(apiKey, opts...),
	}, nil
}

func (e *appEnv) Close() {
	e.store.Close()
}

// openCheckpoints opens the checkpoint database used by resumable
// pipelines.
func (e *appEnv) openCheckpoints() (checkpoint.Store, error) {
	path := rootFlags.checkpoints
	if path == "" {
		path = e.cfg.String("checkpoints", defaultCheckpointsPath)
	}
	cp, err := checkpoint.NewSQLiteStore(path)
	if err != nil {
		return nil, fmt.Errorf("open checkpoint database: %w", err)
	}
	return cp, nil
}
