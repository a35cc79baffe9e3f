package session

import (
	"context"
	"math"

	"substudio/internal/media"
	"substudio/internal/settings"
	"substudio/internal/stream"
	"substudio/internal/workflow"
)

// Summary counts files by outcome across the tree.
type Summary struct {
	Total     int
	Idle      int
	Active    int
	Done      int
	Failed    int
	Cancelled int
	// Percent is the share of done files, rounded.
	Percent int
}

// Snapshot is a consistent deep copy of the session state.
type Snapshot struct {
	CurrentPath string
	Items       []*media.Item
	Selection   []string
	// FullySelected lists directories whose files are all selected.
	FullySelected []string
	Dangling      []string
	Settings      settings.Global
	Streams       []stream.HandleInfo
	Strategies    map[string]media.Strategy
	Summary       Summary
	// Batch is the correlation identifier of the last submitted batch.
	Batch string
}

// Snapshot copies the current state.
func (s *Session) Snapshot(ctx context.Context) (Snapshot, error) {
	var snap Snapshot
	err := s.do(ctx, func() {
		global := s.registry.Global()
		snap = Snapshot{
			CurrentPath: s.tree.CurrentPath(),
			Items:       s.tree.Clone(),
			Selection:   s.selection.IDs(),
			Dangling:    s.selection.Dangling(s.tree),
			Settings:    global,
			Streams:     s.mux.Active(),
			Strategies:  make(map[string]media.Strategy),
			Summary:     summarize(s.tree),
			Batch:       s.lastBatch,
		}
		s.tree.Walk(func(item *media.Item, _ int) bool {
			if item.IsDirectory {
				if s.selection.FullySelected(item) {
					snap.FullySelected = append(snap.FullySelected, item.ID)
				}
				return true
			}
			snap.Strategies[item.ID] = workflow.Resolve(workflow.ForItem(item, global.WorkflowMode))
			return true
		})
	})
	return snap, err
}

func summarize(tree *media.Tree) Summary {
	var sum Summary
	for _, item := range tree.Files() {
		sum.Total++
		switch {
		case item.Status == media.StatusDone:
			sum.Done++
		case item.Status == media.StatusError || item.Status == media.StatusInterrupted:
			sum.Failed++
		case item.Status == media.StatusCancelled:
			sum.Cancelled++
		case item.Status.IsActive():
			sum.Active++
		default:
			sum.Idle++
		}
	}
	if sum.Total > 0 {
		sum.Percent = int(math.Round(float64(sum.Done) / float64(sum.Total) * 100))
	}
	return sum
}
