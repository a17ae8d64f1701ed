// Package navigator runs the compliance graph engine against a content and
// checklist store: it loads snapshots, resolves plans, persists checklists
// and answers per-node step questions.
package navigator

import (
	"context"
	"fmt"
	"log/slog"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/errgroup"

	"qms/pathfinder/internal/db"
	"qms/pathfinder/internal/graph"
	"qms/pathfinder/internal/logging"
)

// Store is the content and checklist persistence the navigator works against.
type Store interface {
	Revision(ctx context.Context) (int64, error)
	AllNodes(ctx context.Context) ([]db.Node, error)
	AllEdges(ctx context.Context) ([]db.Edge, error)
	Checklist(ctx context.Context, requestKey string) ([]db.ChecklistItem, error)
	ReplaceChecklist(ctx context.Context, requestKey string, items []db.ChecklistItem) error
	SetItemCompleted(ctx context.Context, requestKey, nodeID string, completed bool) error
}

// Options configures a Navigator. Zero values pick defaults.
type Options struct {
	Estimator   graph.Estimator
	CacheSize   int
	Concurrency int
	Logger      *slog.Logger
}

// Navigator is safe for concurrent use.
type Navigator struct {
	store       Store
	snapshots   *lru.Cache[int64, *graph.Snapshot]
	estimator   graph.Estimator
	concurrency int
	log         *slog.Logger
}

// New creates a Navigator over store.
func New(store Store, opts Options) (*Navigator, error) {
	if opts.CacheSize <= 0 {
		opts.CacheSize = 8
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 4
	}
	if opts.Estimator == nil {
		opts.Estimator = graph.DefaultDurations()
	}
	if opts.Logger == nil {
		opts.Logger = logging.New("navigator")
	}
	cache, err := lru.New[int64, *graph.Snapshot](opts.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("creating snapshot cache: %w", err)
	}
	return &Navigator{
		store:       store,
		snapshots:   cache,
		estimator:   opts.Estimator,
		concurrency: opts.Concurrency,
		log:         opts.Logger,
	}, nil
}

// Request is one planning request.
type Request struct {
	Criteria graph.Criteria
	// Key names the stored checklist. Empty means Criteria.Key().
	Key string
	// KeepProgress carries completion over from the stored checklist.
	KeepProgress bool
}

// RequestKey returns the key the request's checklist is stored under.
func (r Request) RequestKey() string {
	if r.Key != "" {
		return r.Key
	}
	return r.Criteria.Key()
}

// Snapshot returns the snapshot for the store's current revision, building
// and caching it on a miss.
func (n *Navigator) Snapshot(ctx context.Context) (*graph.Snapshot, error) {
	rev, err := n.store.Revision(ctx)
	if err != nil {
		return nil, err
	}
	if snap, ok := n.snapshots.Get(rev); ok {
		return snap, nil
	}

	nodes, err := n.store.AllNodes(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading nodes: %w", err)
	}
	edges, err := n.store.AllEdges(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading edges: %w", err)
	}
	snap, err := graph.FromRecords(nodes, edges)
	if err != nil {
		return nil, fmt.Errorf("loading graph: %w", err)
	}
	n.snapshots.Add(rev, snap)
	n.log.Debug("snapshot built", "revision", rev, "nodes", snap.Len(), "edges", len(snap.Edges()))
	return snap, nil
}

// Plan resolves req against the current snapshot and stores its checklist,
// replacing any checklist previously stored under the same key.
func (n *Navigator) Plan(ctx context.Context, req Request) (*graph.WizardResult, error) {
	snap, err := n.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	result, err := n.resolve(ctx, snap, req)
	if err != nil {
		return nil, err
	}
	if err := n.persist(ctx, result); err != nil {
		return nil, err
	}
	return result, nil
}

// PlanMany resolves several requests against one snapshot in parallel and
// then stores their checklists in request order.
func (n *Navigator) PlanMany(ctx context.Context, reqs []Request) ([]*graph.WizardResult, error) {
	snap, err := n.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	results := make([]*graph.WizardResult, len(reqs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(n.concurrency)
	for i, req := range reqs {
		g.Go(func() error {
			r, err := n.resolve(gctx, snap, req)
			if err != nil {
				return fmt.Errorf("request %q: %w", req.RequestKey(), err)
			}
			results[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, r := range results {
		if err := n.persist(ctx, r); err != nil {
			return nil, err
		}
	}
	return results, nil
}

func (n *Navigator) resolve(ctx context.Context, snap *graph.Snapshot, req Request) (*graph.WizardResult, error) {
	key := req.RequestKey()
	opts := []graph.ResolveOption{
		graph.WithEstimator(n.estimator),
		graph.WithRequestKey(key),
	}
	if req.KeepProgress {
		prev, err := n.Checklist(ctx, key)
		if err != nil {
			return nil, err
		}
		opts = append(opts, graph.WithPreviousChecklist(prev))
	}

	result, err := graph.Resolve(snap, req.Criteria, opts...)
	if err != nil {
		return nil, err
	}

	for _, w := range result.Warnings {
		n.log.Warn(w.Message, "kind", string(w.Kind), "node_id", w.NodeID, "edge_id", w.EdgeID, "request", key)
	}
	n.log.Info("plan resolved",
		"request", key,
		"seeds", len(result.Seeds),
		"steps", len(result.Path),
		"estimated", result.EstimatedTime.String(),
		"warnings", len(result.Warnings))
	return result, nil
}

func (n *Navigator) persist(ctx context.Context, result *graph.WizardResult) error {
	if err := n.store.ReplaceChecklist(ctx, result.RequestKey, toRecords(result.RequestKey, result.Checklist)); err != nil {
		return fmt.Errorf("storing checklist: %w", err)
	}
	return nil
}

// Checklist returns the stored checklist for requestKey.
func (n *Navigator) Checklist(ctx context.Context, requestKey string) ([]graph.ChecklistItem, error) {
	rows, err := n.store.Checklist(ctx, requestKey)
	if err != nil {
		return nil, err
	}
	return fromRecords(rows), nil
}

// SetCompleted marks one stored checklist item done or not done.
func (n *Navigator) SetCompleted(ctx context.Context, requestKey, nodeID string, completed bool) error {
	if err := n.store.SetItemCompleted(ctx, requestKey, nodeID, completed); err != nil {
		return err
	}
	n.log.Info("checklist item updated", "request", requestKey, "node_id", nodeID, "completed", completed)
	return nil
}

// Inspect reports the next steps and prerequisites of nodeID. When requestKey
// is set, next steps carry completion from that stored checklist.
func (n *Navigator) Inspect(ctx context.Context, nodeID, requestKey string) (*graph.StepReport, error) {
	snap, err := n.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	var completed graph.CompletionSet
	if requestKey != "" {
		items, err := n.Checklist(ctx, requestKey)
		if err != nil {
			return nil, err
		}
		completed = graph.Completion(items)
	}
	return graph.Inspect(snap, nodeID, completed)
}

// Analyze computes the health report for the current snapshot.
func (n *Navigator) Analyze(ctx context.Context, cfg *graph.AnalyzerConfig) (*graph.AnalysisReport, error) {
	snap, err := n.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return graph.Analyze(snap, cfg), nil
}

func toRecords(key string, items []graph.ChecklistItem) []db.ChecklistItem {
	out := make([]db.ChecklistItem, len(items))
	for i, it := range items {
		out[i] = db.ChecklistItem{
			RequestKey: key,
			NodeID:     it.NodeID,
			ItemID:     it.ID,
			Title:      it.Title,
			Completed:  it.Completed,
			Position:   it.Order,
		}
	}
	return out
}

func fromRecords(rows []db.ChecklistItem) []graph.ChecklistItem {
	out := make([]graph.ChecklistItem, len(rows))
	for i, r := range rows {
		out[i] = graph.ChecklistItem{
			ID:        r.ItemID,
			NodeID:    r.NodeID,
			Title:     r.Title,
			Completed: r.Completed,
			Order:     r.Position,
		}
	}
	return out
}
