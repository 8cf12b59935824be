package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"cyberquest/internal/app"
	"cyberquest/internal/backend"
	"cyberquest/internal/config"
	"cyberquest/internal/identity"
	"cyberquest/internal/quest"
	"cyberquest/internal/store"
)

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Start a training session",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPlay(cmd)
	},
}

func runPlay(cmd *cobra.Command) error {
	// A missing .env file is fine; real env vars still apply.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	applyFlags(cmd, cfg)

	logger, err := buildLogger(cfg)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	sessionID := cfg.SessionID
	if sessionID == "" {
		sessionID = identity.NewSessionID()
	}
	if !identity.IsSessionID(sessionID) {
		return fmt.Errorf("invalid session id %q", sessionID)
	}

	opts := quest.Options{Logger: logger}

	// Telemetry is best-effort: a broken local DB must not block play.
	if err := store.EnsureDir(cfg.DBPath); err == nil {
		if st, err := store.Open(cfg.DBPath); err == nil {
			defer st.Close()
			opts.EventRepo = st.EventRepo()
		} else {
			logger.Warn("telemetry store unavailable", zap.Error(err))
		}
	} else {
		logger.Warn("telemetry dir unavailable", zap.Error(err))
	}

	clientCfg := backend.DefaultConfig()
	clientCfg.BaseURL = cfg.BackendURL
	clientCfg.ChatTimeout = cfg.ChatTimeout
	clientCfg.Logger = logger
	client := backend.New(clientCfg, sessionID)

	session, err := quest.NewSession(sessionID, client, opts)
	if err != nil {
		return err
	}
	defer session.Discard()

	logger.Info("session starting",
		zap.String("session_id", sessionID),
		zap.String("backend", cfg.BackendURL))

	return app.Run(session)
}

// applyFlags lets explicit flags win over env configuration.
func applyFlags(cmd *cobra.Command, cfg *config.Config) {
	if v, _ := cmd.Flags().GetString("backend"); v != "" {
		cfg.BackendURL = v
	}
	if v, _ := cmd.Flags().GetString("db"); v != "" {
		cfg.DBPath = v
	}
}

// buildLogger writes structured logs to a file beside the telemetry DB.
// Logging to stderr would tear the alternate screen.
func buildLogger(cfg *config.Config) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.Set(cfg.LogLevel); err != nil {
		level = zapcore.InfoLevel
	}

	logPath := filepath.Join(filepath.Dir(cfg.DBPath), "cyberquest.log")
	if err := os.MkdirAll(filepath.Dir(logPath), 0o755); err != nil {
		return zap.NewNop(), nil
	}

	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(level)
	zcfg.OutputPaths = []string{logPath}
	zcfg.ErrorOutputPaths = []string{logPath}
	return zcfg.Build()
}
