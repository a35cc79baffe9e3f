package daemonctl

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"substudio/internal/config"
	"substudio/internal/daemonrun"
	"substudio/internal/ipc"
)

// LaunchOptions controls session host launch behavior.
type LaunchOptions struct {
	ConfigPath string
}

type StartState string

const (
	StartStateStarted        StartState = "started"
	StartStateAlreadyRunning StartState = "already_running"
)

// StartResult captures session host start state.
type StartResult struct {
	State StartState
	PID   int
}

// Launch starts a detached session host process.
func Launch(executablePath string, opts LaunchOptions) error {
	if strings.TrimSpace(executablePath) == "" {
		return errors.New("resolve executable: executable path is empty")
	}

	args := []string{"session", "run"}
	if cfg := strings.TrimSpace(opts.ConfigPath); cfg != "" {
		args = append(args, "--config", cfg)
	}

	proc := exec.Command(executablePath, args...)
	proc.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
	if err := proc.Start(); err != nil {
		return fmt.Errorf("launch session: %w", err)
	}
	return proc.Process.Release()
}

// WaitForClient waits for IPC socket availability and returns a connected client.
func WaitForClient(socketPath string, timeout time.Duration) (*ipc.Client, error) {
	deadline := time.Now().Add(timeout)
	var lastErr error
	for time.Now().Before(deadline) {
		client, err := ipc.Dial(socketPath)
		if err == nil {
			return client, nil
		}
		lastErr = err
		time.Sleep(200 * time.Millisecond)
	}
	if lastErr == nil {
		lastErr = errors.New("timeout waiting for session")
	}
	return nil, fmt.Errorf("session failed to start: %w", lastErr)
}

// EnsureStarted launches the session host unless one already answers on socketPath.
func EnsureStarted(socketPath, executablePath string, opts LaunchOptions, waitTimeout time.Duration) (StartResult, error) {
	state := StartStateAlreadyRunning
	client, err := ipc.Dial(socketPath)
	if err != nil {
		if launchErr := Launch(executablePath, opts); launchErr != nil {
			return StartResult{}, launchErr
		}
		client, err = WaitForClient(socketPath, waitTimeout)
		if err != nil {
			return StartResult{}, err
		}
		state = StartStateStarted
	}
	defer client.Close()

	status, err := client.Status()
	if err != nil {
		return StartResult{}, err
	}
	return StartResult{State: state, PID: status.PID}, nil
}

// WaitForShutdown waits for session IPC to disappear.
func WaitForShutdown(socketPath string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	var lastErr error
	for time.Now().Before(deadline) {
		client, err := ipc.Dial(socketPath)
		if err != nil {
			if isUnavailable(err) {
				return nil
			}
			lastErr = err
			time.Sleep(200 * time.Millisecond)
			continue
		}
		_, statusErr := client.Status()
		_ = client.Close()
		if statusErr != nil {
			lastErr = statusErr
		} else {
			lastErr = errors.New("session still running")
		}
		time.Sleep(200 * time.Millisecond)
	}
	if lastErr == nil {
		lastErr = errors.New("timeout waiting for shutdown")
	}
	return fmt.Errorf("session did not stop: %w", lastErr)
}

// ProcessInfo returns whether session IPC is reachable and the host PID when available.
func ProcessInfo(socketPath string) (bool, int, error) {
	client, err := ipc.Dial(socketPath)
	if err != nil {
		if isUnavailable(err) {
			return false, 0, nil
		}
		return false, 0, err
	}
	defer client.Close()
	status, statusErr := client.Status()
	if statusErr != nil {
		return true, 0, statusErr
	}
	return true, status.PID, nil
}

// ForceKillProcess sends SIGKILL to the session host and cleans pid and lock files.
func ForceKillProcess(pidPath, lockPath string, fallbackPID int) (int, error) {
	pid := fallbackPID
	data, err := os.ReadFile(pidPath)
	if err == nil {
		if parsed, parseErr := strconv.Atoi(strings.TrimSpace(string(data))); parseErr == nil && parsed > 0 {
			pid = parsed
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return 0, fmt.Errorf("read session pid file %q: %w", pidPath, err)
	}
	if pid <= 0 {
		return 0, fmt.Errorf("unable to determine session pid (pid file: %s)", pidPath)
	}
	if pid == os.Getpid() {
		return 0, fmt.Errorf("refusing to kill current process (pid %d)", pid)
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return 0, fmt.Errorf("locate session process %d: %w", pid, err)
	}
	if err := proc.Kill(); err != nil {
		return 0, fmt.Errorf("kill session process %d: %w", pid, err)
	}
	if err := os.Remove(pidPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return 0, fmt.Errorf("remove pid file %q: %w", pidPath, err)
	}
	if lockPath != "" {
		_ = os.Remove(lockPath)
	}
	return pid, nil
}

// ErrDaemonNotRunning indicates session IPC is unavailable.
var ErrDaemonNotRunning = errors.New("session not running")

// StopResult captures session stop outcome.
type StopResult struct {
	StopAcknowledged bool
	ForcedKill       bool
	PID              int
}

// StopAndTerminate asks the session host to exit and force-kills it if it is
// still alive after gracePeriod.
func StopAndTerminate(socketPath string, cfg *config.Config, gracePeriod time.Duration) (StopResult, error) {
	client, err := ipc.Dial(socketPath)
	if err != nil {
		if isUnavailable(err) {
			return StopResult{}, ErrDaemonNotRunning
		}
		return StopResult{}, err
	}
	var lockPath string
	pid := 0
	if status, statusErr := client.Status(); statusErr == nil {
		lockPath = status.LockPath
		pid = status.PID
	}
	resp, err := client.Shutdown()
	_ = client.Close()
	if err != nil {
		return StopResult{}, err
	}
	result := StopResult{PID: pid, StopAcknowledged: resp.Stopping}

	_ = WaitForShutdown(socketPath, gracePeriod)
	alive, livePID, aliveErr := ProcessInfo(socketPath)
	if aliveErr != nil || !alive {
		return result, nil
	}
	if livePID != 0 {
		pid = livePID
	}
	if cfg == nil || strings.TrimSpace(cfg.Paths.LogDir) == "" {
		return result, errors.New("unable to determine session log directory")
	}
	if lockPath == "" {
		lockPath = cfg.Paths.LockPath
	}
	killedPID, killErr := ForceKillProcess(filepath.Join(cfg.Paths.LogDir, daemonrun.PIDFileName), lockPath, pid)
	if killErr != nil {
		return result, fmt.Errorf("failed to stop session process: %w", killErr)
	}
	_ = os.Remove(socketPath)
	result.ForcedKill = true
	result.PID = killedPID
	return result, nil
}

func isUnavailable(err error) bool {
	return os.IsNotExist(err) ||
		errors.Is(err, os.ErrNotExist) ||
		errors.Is(err, syscall.ENOENT) ||
		errors.Is(err, syscall.ECONNREFUSED)
}

// StatusLine is one labelled readiness check.
type StatusLine struct {
	Label    string
	Severity string
	Detail   string
}

// BuildSystemChecks resolves readiness lines from runtime state and config.
func BuildSystemChecks(ctx context.Context, cfg *config.Config, status *ipc.StatusResponse) []StatusLine {
	lines := make([]StatusLine, 0, 4)
	if status != nil && status.Running {
		lines = append(lines, StatusLine{Label: "Session", Severity: "ok", Detail: fmt.Sprintf("Running (pid %d)", status.PID)})
	} else {
		lines = append(lines, StatusLine{Label: "Session", Severity: "warn", Detail: "Not running (run `substudio session start`)"})
	}
	if cfg == nil {
		return lines
	}

	lines = append(lines, CheckBackend(ctx, cfg.Backend.BaseURL, 2*time.Second))
	if strings.TrimSpace(cfg.Backend.APIToken) != "" {
		lines = append(lines, StatusLine{Label: "API Token", Severity: "ok", Detail: "Configured"})
	} else {
		lines = append(lines, StatusLine{Label: "API Token", Severity: "info", Detail: "Not configured"})
	}

	if cfg.Session.LocalScan {
		lines = append(lines, CheckDirectory("Library", cfg.Paths.LibraryRoot))
	} else {
		lines = append(lines, StatusLine{Label: "Scanner", Severity: "info", Detail: "Backend scan"})
	}
	return lines
}

// CheckBackend reports whether the backend answers HTTP at baseURL. Any
// response counts as reachable.
func CheckBackend(ctx context.Context, baseURL string, timeout time.Duration) StatusLine {
	line := StatusLine{Label: "Backend"}
	if strings.TrimSpace(baseURL) == "" {
		line.Severity = "error"
		line.Detail = "Not configured (set backend.base_url)"
		return line
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL, nil)
	if err != nil {
		line.Severity = "error"
		line.Detail = err.Error()
		return line
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		line.Severity = "error"
		line.Detail = "Unreachable at " + baseURL
		return line
	}
	resp.Body.Close()
	line.Severity = "ok"
	line.Detail = "Reachable at " + baseURL
	return line
}

// CheckDirectory reports whether path is a readable directory.
func CheckDirectory(label, path string) StatusLine {
	line := StatusLine{Label: label, Severity: "error"}
	if strings.TrimSpace(path) == "" {
		line.Detail = "Not configured"
		return line
	}
	info, err := os.Stat(path)
	switch {
	case err != nil:
		line.Detail = fmt.Sprintf("%s (%v)", path, err)
	case !info.IsDir():
		line.Detail = path + " is not a directory"
	default:
		line.Severity = "ok"
		line.Detail = path
	}
	return line
}
