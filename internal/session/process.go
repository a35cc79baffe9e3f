package session

import (
	"context"
	"fmt"
	"time"

	"substudio/internal/api"
	"substudio/internal/logging"
	"substudio/internal/media"
	"substudio/internal/stream"
	"substudio/internal/workflow"
)

// Skip explains why a requested item was not submitted.
type Skip struct {
	ID     string
	Reason string
}

// Submission is one submitted file with its resolved workflow.
type Submission struct {
	ID       string
	Strategy media.Strategy
	Reason   string
}

// BatchResult describes one start-job request.
type BatchResult struct {
	CorrelationID string
	Submitted     []Submission
	Skipped       []Skip
	Ack           api.Ack
}

// ProcessSelection submits every selected file.
func (s *Session) ProcessSelection(ctx context.Context) (BatchResult, error) {
	var ids []string
	if err := s.do(ctx, func() { ids = s.selection.IDs() }); err != nil {
		return BatchResult{}, err
	}
	return s.Process(ctx, ids)
}

// Process submits the given items as one batch. Directories and items with
// a job in flight are skipped. Submitted items are marked as processing and
// subscribed before the request is sent; if the request fails they are all
// marked as failed and their streams closed.
func (s *Session) Process(ctx context.Context, ids []string) (BatchResult, error) {
	if len(ids) == 0 {
		return BatchResult{}, fmt.Errorf("%w: no items given", ErrNothingToProcess)
	}
	if err := s.open(); err != nil {
		return BatchResult{}, err
	}

	result := BatchResult{CorrelationID: s.newID()}
	ctx = logging.WithCorrelationID(ctx, result.CorrelationID)
	logger := logging.WithContext(ctx, s.logger)
	var req api.ProcessRequest

	err := s.do(ctx, func() {
		global := s.registry.Global()
		seen := make(map[string]struct{}, len(ids))
		var items []*media.Item
		for _, id := range ids {
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			node, ok := s.tree.Lookup(id)
			switch {
			case !ok:
				result.Skipped = append(result.Skipped, Skip{ID: id, Reason: "not in the library tree"})
				continue
			case node.IsDirectory:
				continue
			case node.Status.IsActive():
				result.Skipped = append(result.Skipped, Skip{ID: id, Reason: "already " + string(node.Status)})
				continue
			}
			strategy, reason := workflow.Explain(workflow.ForItem(node, global.WorkflowMode))
			req.Items = append(req.Items, api.NewProcessItem(node, strategy))
			result.Submitted = append(result.Submitted, Submission{ID: node.ID, Strategy: strategy, Reason: reason})
			items = append(items, node)
		}
		if len(items) == 0 {
			return
		}
		req.GlobalOptions = api.GlobalOptions{
			TranscriptionEngine: "whisper",
			GenerateSRT:         global.AutoGenerate,
			MuxIntoMKV:          global.ShouldMux,
			CleanUp:             global.ShouldRemoveOriginal,
			ModelSize:           global.ModelSize,
			CorrelationID:       result.CorrelationID,
		}

		status := media.StatusProcessing
		progress := s.initialProgress
		text := "Submitting"
		now := time.Now()
		for _, node := range items {
			s.tree.Update(node.ID, media.Patch{Status: &status, Progress: &progress, StatusText: &text})
			s.logs.Reset(node.ID)
			s.logs.Append(node.ID, stream.LogLine{Time: now, Level: "info", Message: "submitted with " + string(findStrategy(result.Submitted, node.ID)) + " workflow"})
			s.mux.Subscribe(node.ID)
		}
		b := &batch{correlationID: result.CorrelationID, jobs: make(map[string]media.Status, len(items)), submitted: now}
		for _, node := range items {
			b.jobs[node.ID] = ""
		}
		s.batches[b.correlationID] = b
		s.lastBatch = b.correlationID
	})
	if err != nil {
		return BatchResult{}, err
	}
	if len(req.Items) == 0 {
		return result, fmt.Errorf("%w: no eligible files among %d requested", ErrNothingToProcess, len(ids))
	}
	for _, sub := range result.Submitted {
		attrs := append([]logging.Attr{logging.String(logging.FieldJobID, sub.ID)},
			logging.DecisionAttrs("workflow", string(sub.Strategy), sub.Reason)...)
		logger.Info("workflow resolved", logging.Args(attrs...)...)
	}

	ack, err := s.backend.StartJobs(ctx, req)
	if err != nil {
		s.rollback(result.CorrelationID, result.Submitted, err)
		logging.ErrorWithContext(logger, "start jobs failed", "process_failed",
			logging.Int("jobs", len(req.Items)),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check the backend logs; the whole batch was marked as failed"),
		)
		return result, fmt.Errorf("start jobs: %w", err)
	}
	result.Ack = ack
	logger.Info("batch submitted",
		logging.Int("jobs", len(req.Items)),
		logging.Int("skipped", len(result.Skipped)),
		logging.String("ack_status", ack.Status),
	)
	return result, nil
}

func findStrategy(subs []Submission, id string) media.Strategy {
	for _, sub := range subs {
		if sub.ID == id {
			return sub.Strategy
		}
	}
	return ""
}

// rollback marks every optimistic item as failed after a rejected batch.
// It uses its own context so a cancelled caller still leaves a consistent tree.
func (s *Session) rollback(correlationID string, subs []Submission, cause error) {
	_ = s.do(context.Background(), func() {
		status := media.StatusError
		text := fmt.Sprintf("Submission failed: %v", cause)
		now := time.Now()
		for _, sub := range subs {
			s.mux.Unsubscribe(sub.ID)
			s.tree.Update(sub.ID, media.Patch{Status: &status, StatusText: &text})
			s.logs.Append(sub.ID, stream.LogLine{Time: now, Level: "error", Message: text})
		}
		delete(s.batches, correlationID)
	})
}

// Cancel asks the backend to stop one job. The stream stays open until the
// backend reports the job as cancelled.
func (s *Session) Cancel(ctx context.Context, id string) error {
	var opErr error
	if err := s.do(ctx, func() {
		node, ok := s.tree.Lookup(id)
		if !ok {
			opErr = unknownItem(id)
			return
		}
		if node.IsDirectory {
			opErr = fmt.Errorf("cancel %s: directories have no job", id)
		}
	}); err != nil {
		return err
	}
	if opErr != nil {
		return opErr
	}
	ctx = logging.WithJobID(ctx, id)
	logger := logging.WithContext(ctx, s.logger)
	if err := s.backend.Cancel(ctx, id); err != nil {
		logging.WarnWithContext(logger, "cancel failed", "cancel_failed", logging.Error(err))
		return fmt.Errorf("cancel %s: %w", id, err)
	}
	logger.Info("cancel requested")
	return nil
}

// AbortResult reports what Abort did.
type AbortResult struct {
	StreamsClosed int
	Remote        bool
}

// Abort closes every live stream. With remote set it also asks the backend
// to stop all jobs. Item statuses are left as last reported.
func (s *Session) Abort(ctx context.Context, remote bool) (AbortResult, error) {
	var result AbortResult
	if err := s.do(ctx, func() {
		result.StreamsClosed = s.mux.UnsubscribeAll()
		clear(s.batches)
	}); err != nil {
		return result, err
	}
	logging.WarnWithContext(s.logger, "streams aborted", "abort",
		logging.Int("streams_closed", result.StreamsClosed),
		logging.Bool("remote", remote),
		logging.String(logging.FieldImpact, "progress is no longer tracked for in-flight jobs"),
	)
	if !remote {
		return result, nil
	}
	if err := s.backend.Abort(ctx); err != nil {
		return result, fmt.Errorf("abort: %w", err)
	}
	result.Remote = true
	return result, nil
}
