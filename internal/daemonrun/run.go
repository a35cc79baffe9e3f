package daemonrun

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"substudio/internal/backend"
	"substudio/internal/config"
	"substudio/internal/daemon"
	"substudio/internal/ipc"
	"substudio/internal/logging"
	"substudio/internal/media"
	"substudio/internal/scanner"
	"substudio/internal/session"
	"substudio/internal/settings"
)

// PIDFileName is written below paths.log_dir while a session host runs.
const PIDFileName = "substudio.pid"

// Run starts the session host and blocks until a signal or a shutdown request.
func Run(cmdCtx context.Context, cfg *config.Config) error {
	if cfg == nil {
		return errors.New("config is required")
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := cfg.EnsureDirectories(); err != nil {
		return fmt.Errorf("ensure directories: %w", err)
	}
	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	pidPath := filepath.Join(cfg.Paths.LogDir, PIDFileName)
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	client, err := backend.New(backend.Options{
		BaseURL:        cfg.Backend.BaseURL,
		Token:          cfg.Backend.APIToken,
		RequestTimeout: cfg.Backend.RequestTimeoutDuration(),
		UploadTimeout:  cfg.Backend.UploadTimeoutDuration(),
	})
	if err != nil {
		return fmt.Errorf("backend client: %w", err)
	}

	scannerName := "backend"
	opts := session.Options{
		Backend:           client,
		Settings:          GlobalFromConfig(cfg.Defaults),
		Logger:            logger,
		LogBufferLines:    cfg.Stream.LogBufferLines,
		InitialProgress:   cfg.Stream.InitialProgress,
		ReconnectDelay:    cfg.Stream.ReconnectDelay(),
		ReconnectMaxDelay: cfg.Stream.ReconnectMaxDelay(),
	}
	if cfg.Session.LocalScan {
		local, err := scanner.New(cfg.Paths.LibraryRoot, logger)
		if err != nil {
			return fmt.Errorf("local scanner: %w", err)
		}
		opts.Scanner = local
		scannerName = "local"
	}

	sess, err := session.New(opts)
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}

	d, err := daemon.New(cfg, sess, logger, daemon.Options{Scanner: scannerName, BackendURL: client.BaseURL()})
	if err != nil {
		sess.Close()
		return fmt.Errorf("create daemon: %w", err)
	}
	defer d.Close()

	if err := d.Start(signalCtx); err != nil {
		return err
	}
	logBackendSnapshot(logger, cfg, scannerName)

	ipcServer, err := ipc.NewServer(signalCtx, cfg.Paths.SocketPath, d, logger)
	if err != nil {
		return fmt.Errorf("start IPC server: %w", err)
	}
	defer ipcServer.Close()
	ipcServer.Serve()

	initialScan(signalCtx, sess, cfg, logger)

	select {
	case <-signalCtx.Done():
	case <-d.ShutdownRequested():
	}
	logger.Info("substudio session shutting down")
	return nil
}

// GlobalFromConfig maps the configured defaults onto session settings.
func GlobalFromConfig(defaults config.Defaults) settings.Global {
	mode, ok := media.ParseMode(defaults.WorkflowMode)
	if !ok {
		mode = media.ModeHybrid
	}
	return settings.Global{
		SourceLang:           defaults.SourceLang,
		TargetLanguages:      append([]string(nil), defaults.TargetLanguages...),
		WorkflowMode:         mode,
		ModelSize:            defaults.ModelSize,
		AutoGenerate:         defaults.AutoGenerate,
		ShouldMux:            defaults.ShouldMux,
		ShouldRemoveOriginal: defaults.ShouldRemoveOriginal,
		StripExistingSubs:    defaults.StripExistingSubs,
	}
}

func initialScan(ctx context.Context, sess *session.Session, cfg *config.Config, logger *slog.Logger) {
	path := strings.TrimSpace(cfg.Session.DefaultScanPath)
	if path == "" {
		return
	}
	result, err := sess.Scan(ctx, path, cfg.Session.Recursive)
	if err != nil {
		logger.Warn("initial scan failed",
			logging.String("path", path),
			logging.Error(err),
			logging.String(logging.FieldEventType, "initial_scan_failed"),
			logging.String(logging.FieldErrorHint, "run substudio scan once the backend is reachable"),
			logging.String(logging.FieldImpact, "library tree starts empty"),
		)
		return
	}
	logger.Debug("initial scan complete", logging.String("path", result.CurrentPath), logging.Int("files", result.Files))
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}

func logBackendSnapshot(logger *slog.Logger, cfg *config.Config, scannerName string) {
	logger.Info("backend snapshot",
		logging.String(logging.FieldEventType, "backend_snapshot"),
		logging.String("backend_url", cfg.Backend.BaseURL),
		logging.Bool("api_token_present", strings.TrimSpace(cfg.Backend.APIToken) != ""),
		logging.String("scanner", scannerName),
		logging.String("library_root", cfg.Paths.LibraryRoot),
		logging.Duration("request_timeout", cfg.Backend.RequestTimeoutDuration()),
		logging.Duration("reconnect_max_delay", cfg.Stream.ReconnectMaxDelay()),
	)
}
