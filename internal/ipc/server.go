package ipc

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"os"
	"sync"

	"substudio/internal/api"
	"substudio/internal/daemon"
	"substudio/internal/logging"
	"substudio/internal/media"
	"substudio/internal/session"
	"substudio/internal/settings"
)

// ServiceName is the RPC receiver name clients call into.
const ServiceName = "Substudio"

// Server exposes the session host via JSON-RPC over a Unix domain socket.
type Server struct {
	path      string
	daemon    *daemon.Daemon
	logger    *slog.Logger
	listener  net.Listener
	rpcServer *rpc.Server

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	mu     sync.Mutex
	conns  map[net.Conn]struct{}
}

// NewServer configures the IPC server at the given socket path.
func NewServer(ctx context.Context, path string, d *daemon.Daemon, logger *slog.Logger) (*Server, error) {
	if d == nil {
		return nil, errors.New("ipc server requires daemon")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	if err := os.RemoveAll(path); err != nil {
		return nil, fmt.Errorf("remove existing socket: %w", err)
	}

	listener, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("listen on socket: %w", err)
	}

	serverCtx, cancel := context.WithCancel(ctx)
	rpcServer := rpc.NewServer()
	srv := &service{daemon: d, session: d.Session(), logger: logging.NewComponentLogger(logger, "ipc"), ctx: serverCtx}
	if err := rpcServer.RegisterName(ServiceName, srv); err != nil {
		cancel()
		listener.Close()
		return nil, fmt.Errorf("register rpc service: %w", err)
	}

	return &Server{
		path:      path,
		daemon:    d,
		logger:    logger,
		listener:  listener,
		rpcServer: rpcServer,
		ctx:       serverCtx,
		cancel:    cancel,
		conns:     make(map[net.Conn]struct{}),
	}, nil
}

// Serve starts accepting RPC connections until the context is canceled.
func (s *Server) Serve() {
	s.logger.Debug("IPC server listening", logging.String("socket", s.path))
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			conn, err := s.listener.Accept()
			if err != nil {
				select {
				case <-s.ctx.Done():
					return
				default:
				}
				if errors.Is(err, net.ErrClosed) {
					return
				}
				s.logger.Warn("accept failed",
					logging.Error(err),
					logging.String(logging.FieldEventType, "ipc_accept_failed"),
					logging.String(logging.FieldImpact, "IPC clients may fail to connect"),
					logging.String(logging.FieldErrorHint, "Check socket permissions and restart the session if needed"))
				continue
			}
			s.track(conn, true)
			s.wg.Add(1)
			go func(c net.Conn) {
				defer s.wg.Done()
				defer s.track(c, false)
				s.rpcServer.ServeCodec(jsonrpc.NewServerCodec(c))
			}(conn)
		}
	}()
}

func (s *Server) track(conn net.Conn, add bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if add {
		s.conns[conn] = struct{}{}
		return
	}
	delete(s.conns, conn)
}

// Close stops the server, drops open client connections and removes the socket file.
func (s *Server) Close() {
	s.cancel()
	if s.listener != nil {
		_ = s.listener.Close()
	}
	s.mu.Lock()
	for conn := range s.conns {
		_ = conn.Close()
	}
	s.mu.Unlock()
	s.wg.Wait()
	if err := os.RemoveAll(s.path); err != nil {
		s.logger.Warn("failed to remove socket",
			logging.String("socket", s.path),
			logging.Error(err),
			logging.String(logging.FieldEventType, "ipc_socket_cleanup_failed"),
			logging.String(logging.FieldImpact, "stale IPC socket may block future starts"),
			logging.String(logging.FieldErrorHint, "Remove the socket file manually or rerun substudio session stop"))
	}
}

type service struct {
	daemon  *daemon.Daemon
	session *session.Session
	logger  *slog.Logger
	ctx     context.Context
}

func (s *service) Status(_ StatusRequest, resp *StatusResponse) error {
	status := s.daemon.Status(s.ctx)
	snap, err := s.session.Snapshot(s.ctx)
	if err != nil {
		return err
	}
	*resp = StatusResponse{
		Running:     status.Running,
		PID:         status.PID,
		Started:     status.Started,
		LockPath:    status.LockPath,
		LogPath:     status.LogPath,
		Scanner:     status.Scanner,
		BackendURL:  status.BackendURL,
		CurrentPath: snap.CurrentPath,
		Selected:    len(snap.Selection),
		Streams:     convertStreams(snap),
		Summary:     convertSummary(snap.Summary),
		Batch:       snap.Batch,
	}
	return nil
}

func (s *service) Scan(req ScanRequest, resp *ScanResponse) error {
	result, err := s.session.Scan(s.ctx, req.Path, req.Recursive)
	if err != nil {
		return err
	}
	*resp = ScanResponse{
		CurrentPath: result.CurrentPath,
		Files:       result.Files,
		Directories: result.Directories,
		Dangling:    result.Dangling,
	}
	return nil
}

func (s *service) Tree(_ TreeRequest, resp *TreeResponse) error {
	snap, err := s.session.Snapshot(s.ctx)
	if err != nil {
		return err
	}
	strategies := make(map[string]string, len(snap.Strategies))
	for id, strategy := range snap.Strategies {
		strategies[id] = string(strategy)
	}
	*resp = TreeResponse{
		CurrentPath:   snap.CurrentPath,
		Items:         api.FromItems(snap.Items),
		Selection:     snap.Selection,
		FullySelected: snap.FullySelected,
		Dangling:      snap.Dangling,
		Strategies:    strategies,
		Streams:       convertStreams(snap),
		Summary:       convertSummary(snap.Summary),
	}
	return nil
}

func (s *service) Toggle(req ToggleRequest, resp *ToggleResponse) error {
	if req.Clear {
		if err := s.session.ClearSelection(s.ctx); err != nil {
			return err
		}
	}
	for _, id := range req.IDs {
		selected, err := s.session.Toggle(s.ctx, id)
		if err != nil {
			return err
		}
		resp.Results = append(resp.Results, ToggleResult{ID: id, Selected: selected})
	}
	snap, err := s.session.Snapshot(s.ctx)
	if err != nil {
		return err
	}
	resp.Selection = snap.Selection
	return nil
}

func (s *service) Settings(_ SettingsRequest, resp *SettingsResponse) error {
	global, err := s.session.Settings(s.ctx)
	if err != nil {
		return err
	}
	resp.Settings = convertSettings(global)
	return nil
}

func (s *service) SetSettings(req SetSettingsRequest, resp *SetSettingsResponse) error {
	patch := settings.Patch{
		SourceLang:           req.SourceLang,
		TargetLanguages:      req.TargetLanguages,
		ModelSize:            req.ModelSize,
		AutoGenerate:         req.AutoGenerate,
		ShouldMux:            req.ShouldMux,
		ShouldRemoveOriginal: req.ShouldRemoveOriginal,
		StripExistingSubs:    req.StripExistingSubs,
	}
	if req.WorkflowMode != nil {
		mode := media.Mode(*req.WorkflowMode)
		patch.WorkflowMode = &mode
	}
	updated, err := s.session.SetSettings(s.ctx, patch)
	if err != nil {
		return err
	}
	global, err := s.session.Settings(s.ctx)
	if err != nil {
		return err
	}
	*resp = SetSettingsResponse{Settings: convertSettings(global), Updated: updated}
	return nil
}

func (s *service) SetOverride(req SetOverrideRequest, resp *SetOverrideResponse) error {
	if req.Resync {
		count, err := s.session.Resync(s.ctx, req.ID)
		if err != nil {
			return err
		}
		resp.Resynced = count
	}
	patch := settings.OverridePatch{
		SourceLang:        req.SourceLang,
		TargetLanguages:   req.TargetLanguages,
		SyncOffset:        req.SyncOffset,
		StripExistingSubs: req.StripExistingSubs,
	}
	if req.WorkflowMode != nil {
		mode := media.Mode(*req.WorkflowMode)
		patch.WorkflowMode = &mode
	}
	if !patch.Empty() {
		if err := s.session.SetOverride(s.ctx, req.ID, patch); err != nil {
			return err
		}
	}
	item, strategy, err := s.session.Item(s.ctx, req.ID)
	if err != nil {
		return err
	}
	resp.Item = api.FromItem(item)
	resp.Strategy = string(strategy)
	return nil
}

func (s *service) Process(req ProcessRequest, resp *ProcessResponse) error {
	var (
		result session.BatchResult
		err    error
	)
	if len(req.IDs) == 0 {
		result, err = s.session.ProcessSelection(s.ctx)
	} else {
		result, err = s.session.Process(s.ctx, req.IDs)
	}
	if err != nil {
		if len(result.Skipped) > 0 {
			return fmt.Errorf("%w (skipped: %s)", err, describeSkips(result.Skipped))
		}
		return err
	}
	resp.CorrelationID = result.CorrelationID
	resp.AckStatus = result.Ack.Status
	resp.AckMessage = result.Ack.Message
	for _, sub := range result.Submitted {
		resp.Submitted = append(resp.Submitted, SubmittedJob{ID: sub.ID, Workflow: string(sub.Strategy), Reason: sub.Reason})
	}
	for _, skip := range result.Skipped {
		resp.Skipped = append(resp.Skipped, SkippedJob{ID: skip.ID, Reason: skip.Reason})
	}
	return nil
}

func (s *service) Cancel(req CancelRequest, resp *CancelResponse) error {
	if err := s.session.Cancel(s.ctx, req.ID); err != nil {
		return err
	}
	resp.Requested = true
	return nil
}

func (s *service) Abort(req AbortRequest, resp *AbortResponse) error {
	result, err := s.session.Abort(s.ctx, req.Remote)
	resp.StreamsClosed = result.StreamsClosed
	resp.Remote = result.Remote
	return err
}

func (s *service) Upload(req UploadRequest, resp *UploadResponse) error {
	result, err := s.session.UploadSubtitle(s.ctx, req.ID, req.FileName, bytes.NewReader(req.Content))
	if err != nil {
		return err
	}
	*resp = UploadResponse{StoredPath: result.StoredPath, Cues: result.Cues}
	return nil
}

func (s *service) Logs(req LogsRequest, resp *LogsResponse) error {
	lines, err := s.session.Logs(s.ctx, req.ID)
	if err != nil {
		return err
	}
	for _, line := range lines {
		if !req.Since.IsZero() && !line.Time.After(req.Since) {
			continue
		}
		resp.Lines = append(resp.Lines, LogLine{Time: line.Time, Level: line.Level, Message: line.Message})
	}
	if item, _, err := s.session.Item(s.ctx, req.ID); err == nil {
		resp.Status = string(item.Status)
		resp.Progress = item.Progress
		resp.Active = item.Status.IsActive()
	}
	return nil
}

func (s *service) Shutdown(_ ShutdownRequest, resp *ShutdownResponse) error {
	s.daemon.RequestShutdown()
	resp.Stopping = true
	return nil
}
