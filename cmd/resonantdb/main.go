// Package main provides the resonantdb CLI entry point. It wires config
// load, Mind.Open, and graceful shutdown only — no business logic lives
// here, since the RPC boundary and the maintenance process are out-of-core
// (spec.md's OUT OF SCOPE list).
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/genomewalker/resonantdb/pkg/config"
	"github.com/genomewalker/resonantdb/pkg/denseindex"
	"github.com/genomewalker/resonantdb/pkg/dynamics"
	"github.com/genomewalker/resonantdb/pkg/maintenance"
	"github.com/genomewalker/resonantdb/pkg/mind"
	"github.com/genomewalker/resonantdb/pkg/resonance"
)

var (
	version = "0.1.0"
	commit  = "dev"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "resonantdb",
		Short: "resonantdb - associative memory store for agent sessions",
		Long: `resonantdb stores nodes that decay, strengthen, and resonate with
each other rather than rows that sit inert until queried.

Features:
  • Tiered hot/warm/cold storage with a deterministic WAL
  • Dense (HNSW) and sparse (BM25) recall, fused and spread across the graph
  • Confidence that decays and strengthens with use
  • Attractor dynamics, review queues, and realm-scoped recall`,
	}

	rootCmd.AddCommand(versionCmd())
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(tickCmd())
	rootCmd.AddCommand(stateCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("resonantdb v%s (%s)\n", version, commit)
		},
	}
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Open the store and run the maintenance loop until interrupted",
		RunE:  runServe,
	}
	cmd.Flags().String("data-dir", "", "data directory (overrides config/env)")
	cmd.Flags().String("config", "", "path to a YAML config file")
	return cmd
}

func tickCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tick",
		Short: "Run one maintenance cycle (decay, prune, feedback, wisdom synthesis, settle, snapshot) and exit",
		RunE:  runTick,
	}
	cmd.Flags().String("data-dir", "", "data directory (overrides config/env)")
	cmd.Flags().String("config", "", "path to a YAML config file")
	return cmd
}

func stateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "state",
		Short: "Print a state/health snapshot and exit",
		RunE:  runState,
	}
	cmd.Flags().String("data-dir", "", "data directory (overrides config/env)")
	cmd.Flags().String("config", "", "path to a YAML config file")
	return cmd
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	configPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadFromEnvOrFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if dataDir, _ := cmd.Flags().GetString("data-dir"); dataDir != "" {
		cfg.Storage.DataDir = dataDir
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func openMind(cfg *config.Config) (*mind.Mind, error) {
	resCfg := resonance.DefaultConfig()
	resCfg.ConfidenceWeight = cfg.Resonance.ConfidenceWeight
	resCfg.RecencyWeight = cfg.Resonance.RecencyWeight
	resCfg.RecencyHalfLifeDays = cfg.Resonance.RecencyHalfLifeDays
	resCfg.PrimingRecentObservation = cfg.Resonance.PrimingRecentObservation
	resCfg.PrimingActiveIntention = cfg.Resonance.PrimingActiveIntention
	resCfg.PrimingGoalBasin = cfg.Resonance.PrimingGoalBasin
	resCfg.GoalBasinTau = cfg.Resonance.GoalBasinTau
	resCfg.AttractorMax = cfg.Resonance.AttractorMax
	resCfg.AttractorBoostFactor = cfg.Resonance.AttractorBoostFactor
	resCfg.SpreadHops = cfg.Resonance.SpreadHops
	resCfg.SpreadHaltThreshold = cfg.Resonance.SpreadHaltThreshold
	resCfg.LateralInhibitionCosine = cfg.Resonance.LateralInhibitionCosine
	resCfg.LateralInhibitionSoft = cfg.Resonance.LateralInhibitionSoft

	dynCfg := dynamics.DefaultConfig()
	dynCfg.PruneThreshold = cfg.Dynamics.PruneThreshold
	dynCfg.ClusterCosine = cfg.Dynamics.ClusterCosine
	dynCfg.MinClusterSize = cfg.Dynamics.MinClusterSize
	dynCfg.WisdomConfidenceBump = cfg.Dynamics.WisdomConfidenceBump
	dynCfg.WisdomConfidenceCap = cfg.Dynamics.WisdomConfidenceCap
	dynCfg.SettleStrength = cfg.Dynamics.SettleStrength
	dynCfg.AttractorMax = cfg.Dynamics.AttractorMax
	dynCfg.TickInterval = cfg.Dynamics.TickInterval

	return mind.Open(mind.Config{
		StorageRoot: cfg.Storage.DataDir,
		InMemory:    cfg.Storage.InMemory,
		HotCapacity: cfg.Storage.HotCapacity,
		Dense: denseindex.Config{
			M:               cfg.DenseIndex.M,
			EfConstruction:  cfg.DenseIndex.EfConstruction,
			EfSearch:        cfg.DenseIndex.EfSearch,
			LevelMultiplier: cfg.DenseIndex.LevelMultiplier,
		},
		Resonance:           resCfg,
		Dynamics:            dynCfg,
		CoherenceSampleSize: cfg.Resonance.CoherenceSampleSize,
	})
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	if !cfg.Storage.InMemory {
		if err := os.MkdirAll(cfg.Storage.DataDir, 0o755); err != nil {
			return fmt.Errorf("creating data directory: %w", err)
		}
	}

	fmt.Printf("resonantdb v%s\n", version)
	fmt.Printf("  data directory: %s\n", cfg.Storage.DataDir)
	fmt.Printf("  hot capacity:   %d\n", cfg.Storage.HotCapacity)

	m, err := openMind(cfg)
	if err != nil {
		return fmt.Errorf("opening mind: %w", err)
	}
	defer m.Close()

	var loop *maintenance.Loop
	if cfg.Maintenance.Enabled {
		loop = maintenance.New(cfg.Maintenance.Interval, m.Tick, func(err error) {
			fmt.Fprintf(os.Stderr, "maintenance tick failed: %v\n", err)
		})
		loop.Start()
		fmt.Printf("  maintenance:    every %s\n", cfg.Maintenance.Interval)
	}

	fmt.Println("resonantdb is ready")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	fmt.Println("shutting down...")
	if loop != nil {
		loop.Stop()
	}
	if err := m.Snapshot(); err != nil {
		fmt.Fprintf(os.Stderr, "snapshot on shutdown failed: %v\n", err)
	}
	return nil
}

func runTick(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	m, err := openMind(cfg)
	if err != nil {
		return fmt.Errorf("opening mind: %w", err)
	}
	defer m.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := m.Tick(ctx); err != nil {
		return fmt.Errorf("tick: %w", err)
	}
	fmt.Println("tick complete")
	return nil
}

func runState(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	m, err := openMind(cfg)
	if err != nil {
		return fmt.Errorf("opening mind: %w", err)
	}
	defer m.Close()

	state, err := m.StateSnapshot()
	if err != nil {
		return fmt.Errorf("state: %w", err)
	}
	health, err := m.Health()
	if err != nil {
		return fmt.Errorf("health: %w", err)
	}

	fmt.Printf("total_nodes=%d hot=%d warm=%d cold=%d yantra_ready=%t\n",
		state.TotalNodes, state.Hot, state.Warm, state.Cold, state.YantraReady)
	fmt.Printf("psi=%.4f structural=%.4f semantic=%.4f temporal=%.4f capacity=%.4f\n",
		health.Psi(), health.Structural, health.Semantic, health.Temporal, health.Capacity)
	return nil
}
