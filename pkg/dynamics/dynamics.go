// Package dynamics implements the periodic tick of §4.7: decay, pruning,
// feedback application, wisdom synthesis, attractor settling, and snapshot.
// Grounded on the teacher's pkg/decay/decay.go for the background
// Start/Stop ticker idiom (Manager.Start spawning one goroutine guarded by
// a context, Manager.Stop cancelling and joining it) and
// pkg/retention/retention.go for the prune/threshold shape.
package dynamics

import (
	"context"
	"sync"
	"time"

	"github.com/genomewalker/resonantdb/pkg/graph"
	"github.com/genomewalker/resonantdb/pkg/rlog"
	"github.com/genomewalker/resonantdb/pkg/sparseindex"
	"github.com/genomewalker/resonantdb/pkg/store"
	"github.com/genomewalker/resonantdb/pkg/types"
)

// Config holds §4.7's tunables; every field has a spec.md-stated default.
type Config struct {
	PruneThreshold       float64 // 0.05
	ClusterCosine        float64 // 0.75
	MinClusterSize       int     // 3
	WisdomConfidenceBump float64 // +0.2
	WisdomConfidenceCap  float64 // 0.95
	SettleStrength       float64 // 0.02
	AttractorMax         int     // 5
	TickInterval         time.Duration
}

// DefaultConfig returns §4.7's literal constants.
func DefaultConfig() Config {
	return Config{
		PruneThreshold:       0.05,
		ClusterCosine:        0.75,
		MinClusterSize:       3,
		WisdomConfidenceBump: 0.2,
		WisdomConfidenceCap:  0.95,
		SettleStrength:       0.02,
		AttractorMax:         5,
		TickInterval:         5 * time.Minute,
	}
}

// FeedbackEntry is one queued (node id, signed delta) pair (§4.7 step 3).
type FeedbackEntry struct {
	NodeID types.NodeID
	Delta  float64
}

// Engine runs the dynamics tick over a store/graph pair, atomically with
// respect to other ticks (a tick-local mutex serializes Tick calls, as
// §4.7 requires).
type Engine struct {
	store       *store.Store
	graph       *graph.Graph
	sparse      *sparseindex.Index
	segmentPath string
	config      Config
	nowFn       func() int64
	log         *rlog.Logger

	tickMu sync.Mutex

	feedbackMu sync.Mutex
	feedback   []FeedbackEntry

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New builds an Engine over an already-open store, graph, and sparse index.
// segmentPath is where Snapshot persists the sparse index on each tick; an
// empty segmentPath disables that part of step 6 (useful for tests that
// don't care about on-disk state).
func New(s *store.Store, g *graph.Graph, sparse *sparseindex.Index, segmentPath string, config Config, nowFn func() int64) *Engine {
	return &Engine{
		store:       s,
		graph:       g,
		sparse:      sparse,
		segmentPath: segmentPath,
		config:      config,
		nowFn:       nowFn,
		log:         rlog.New("dynamics"),
	}
}

// QueueFeedback appends one (id, Δ) entry to the feedback queue; ApplyFeedback
// drains it on the next tick (or via Mind.apply_feedback directly).
func (e *Engine) QueueFeedback(id types.NodeID, delta float64) {
	e.feedbackMu.Lock()
	defer e.feedbackMu.Unlock()
	e.feedback = append(e.feedback, FeedbackEntry{NodeID: id, Delta: delta})
}

// Tick runs all six steps of §4.7 atomically with respect to other ticks.
func (e *Engine) Tick(ctx context.Context) error {
	e.tickMu.Lock()
	defer e.tickMu.Unlock()

	if err := e.ApplyDecay(); err != nil {
		return err
	}
	if err := e.Prune(); err != nil {
		return err
	}
	if err := e.ApplyFeedback(); err != nil {
		return err
	}
	if err := e.SynthesizeWisdom(); err != nil {
		return err
	}
	if err := e.settleAttractors(ctx); err != nil {
		return err
	}
	if err := e.Snapshot(); err != nil {
		return err
	}
	return nil
}

// Start runs Tick every TickInterval in a background goroutine, following
// the teacher's decay.Manager.Start ticker shape. Stop must be called
// before process exit.
func (e *Engine) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	e.cancel = cancel
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		ticker := time.NewTicker(e.config.TickInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := e.Tick(ctx); err != nil {
					e.log.Errorf("tick failed: %v", err)
				}
			}
		}
	}()
}

// Stop cancels the background tick loop and waits for it to exit.
func (e *Engine) Stop() {
	if e.cancel == nil {
		return
	}
	e.cancel()
	e.wg.Wait()
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
