// Package config loads resonantdb's configuration from environment
// variables and an optional YAML override file.
//
// Environment variables use the RESONANTDB_ prefix, mirroring the teacher's
// NORNICDB_ convention. Every field also has a YAML tag so an operator can
// hand-author a config file instead.
//
// Example Usage:
//
//	cfg := config.LoadFromEnv()
//	if err := cfg.Validate(); err != nil {
//		log.Fatalf("invalid config: %v", err)
//	}
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is resonantdb's full configuration surface: typed sub-configs for
// storage, the dense index, resonance scoring, dynamics ticking, and the
// maintenance loop.
type Config struct {
	Storage     StorageConfig     `yaml:"storage"`
	DenseIndex  DenseIndexConfig  `yaml:"dense_index"`
	Resonance   ResonanceConfig   `yaml:"resonance"`
	Dynamics    DynamicsConfig    `yaml:"dynamics"`
	Maintenance MaintenanceConfig `yaml:"maintenance"`
}

// StorageConfig controls the tiered store's on-disk layout.
type StorageConfig struct {
	// DataDir holds wal.log, warm.mmap, cold.kv/, sparse.index,
	// realm.state, review.queue.
	DataDir string `yaml:"data_dir"`
	// InMemory runs every tier in memory (no DataDir required); for tests
	// and ephemeral sessions.
	InMemory bool `yaml:"in_memory"`
	// HotCapacity is the number of nodes the hot tier holds before the
	// oldest are demoted to warm.
	HotCapacity int `yaml:"hot_capacity"`
}

// DenseIndexConfig controls the HNSW dense vector index.
type DenseIndexConfig struct {
	M               int     `yaml:"m"`
	EfConstruction  int     `yaml:"ef_construction"`
	EfSearch        int     `yaml:"ef_search"`
	LevelMultiplier float64 `yaml:"level_multiplier"`
}

// ResonanceConfig controls recall scoring weights and spreading activation.
type ResonanceConfig struct {
	ConfidenceWeight    float64 `yaml:"confidence_weight"`
	RecencyWeight       float64 `yaml:"recency_weight"`
	RecencyHalfLifeDays float64 `yaml:"recency_half_life_days"`

	PrimingRecentObservation float64 `yaml:"priming_recent_observation"`
	PrimingActiveIntention   float64 `yaml:"priming_active_intention"`
	PrimingGoalBasin         float64 `yaml:"priming_goal_basin"`
	GoalBasinTau             float64 `yaml:"goal_basin_tau"`

	AttractorMax            int     `yaml:"attractor_max"`
	AttractorBoostFactor    float64 `yaml:"attractor_boost_factor"`
	SpreadHops              int     `yaml:"spread_hops"`
	SpreadHaltThreshold     float64 `yaml:"spread_halt_threshold"`
	LateralInhibitionCosine float64 `yaml:"lateral_inhibition_cosine"`
	LateralInhibitionSoft   float64 `yaml:"lateral_inhibition_soft"`

	// CoherenceSampleSize is §9 Q2's "configurable default (e.g., 64)" for
	// Coherence's global component.
	CoherenceSampleSize int `yaml:"coherence_sample_size"`
}

// DynamicsConfig controls the decay/prune/wisdom-synthesis tick.
type DynamicsConfig struct {
	PruneThreshold       float64       `yaml:"prune_threshold"`
	ClusterCosine        float64       `yaml:"cluster_cosine"`
	MinClusterSize       int           `yaml:"min_cluster_size"`
	WisdomConfidenceBump float64       `yaml:"wisdom_confidence_bump"`
	WisdomConfidenceCap  float64       `yaml:"wisdom_confidence_cap"`
	SettleStrength       float64       `yaml:"settle_strength"`
	AttractorMax         int           `yaml:"attractor_max"`
	TickInterval         time.Duration `yaml:"tick_interval"`
}

// MaintenanceConfig controls the background maintenance loop (pkg/maintenance).
type MaintenanceConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Interval time.Duration `yaml:"interval"`
}

// ln16 seeds DenseIndex's default LevelMultiplier (1/ln(16)) without
// importing math for a single constant.
const ln16 = 2.772588722239781

// DefaultConfig returns resonantdb's built-in defaults, one per
// collaborator package's own DefaultConfig.
func DefaultConfig() *Config {
	return &Config{
		Storage: StorageConfig{
			DataDir:     "./data",
			HotCapacity: 10_000,
		},
		DenseIndex: DenseIndexConfig{
			M:               16,
			EfConstruction:  200,
			EfSearch:        100,
			LevelMultiplier: 1.0 / ln16,
		},
		Resonance: ResonanceConfig{
			ConfidenceWeight:         0.5,
			RecencyWeight:            0.5,
			RecencyHalfLifeDays:      30,
			PrimingRecentObservation: 0.30,
			PrimingActiveIntention:   0.25,
			PrimingGoalBasin:         0.15,
			GoalBasinTau:             0.8,
			AttractorMax:             5,
			AttractorBoostFactor:     0.2,
			SpreadHops:               3,
			SpreadHaltThreshold:      0.01,
			LateralInhibitionCosine:  0.85,
			LateralInhibitionSoft:    0.30,
			CoherenceSampleSize:      64,
		},
		Dynamics: DynamicsConfig{
			PruneThreshold:       0.05,
			ClusterCosine:        0.75,
			MinClusterSize:       3,
			WisdomConfidenceBump: 0.2,
			WisdomConfidenceCap:  0.95,
			SettleStrength:       0.02,
			AttractorMax:         5,
			TickInterval:         5 * time.Minute,
		},
		Maintenance: MaintenanceConfig{
			Enabled:  true,
			Interval: time.Minute,
		},
	}
}

// Validate checks invariants LoadFromEnv/LoadConfig can't enforce by
// construction: a data dir unless in-memory, positive capacities and index
// parameters, a positive coherence sample size and tick interval. Weights are
// not range-checked.
func (c *Config) Validate() error {
	if !c.Storage.InMemory && c.Storage.DataDir == "" {
		return fmt.Errorf("config: storage.data_dir required unless storage.in_memory is set")
	}
	if c.Storage.HotCapacity <= 0 {
		return fmt.Errorf("config: storage.hot_capacity must be positive")
	}
	if c.DenseIndex.M <= 0 || c.DenseIndex.EfConstruction <= 0 || c.DenseIndex.EfSearch <= 0 {
		return fmt.Errorf("config: dense_index.m/ef_construction/ef_search must be positive")
	}
	if c.Resonance.CoherenceSampleSize <= 0 {
		return fmt.Errorf("config: resonance.coherence_sample_size must be positive")
	}
	if c.Dynamics.TickInterval <= 0 {
		return fmt.Errorf("config: dynamics.tick_interval must be positive")
	}
	return nil
}

// LoadFromEnv builds a Config from RESONANTDB_* environment variables,
// starting from DefaultConfig.
//
// Environment Variables:
//
//	RESONANTDB_DATA_DIR
//	RESONANTDB_IN_MEMORY
//	RESONANTDB_HOT_CAPACITY
//	RESONANTDB_DENSE_EF_SEARCH
//	RESONANTDB_RESONANCE_CONFIDENCE_WEIGHT
//	RESONANTDB_RESONANCE_RECENCY_WEIGHT
//	RESONANTDB_COHERENCE_SAMPLE_SIZE
//	RESONANTDB_DYNAMICS_TICK_INTERVAL
//	RESONANTDB_MAINTENANCE_ENABLED
//	RESONANTDB_MAINTENANCE_INTERVAL
func LoadFromEnv() *Config {
	cfg := DefaultConfig()

	if v := os.Getenv("RESONANTDB_DATA_DIR"); v != "" {
		cfg.Storage.DataDir = v
	}
	if v := os.Getenv("RESONANTDB_IN_MEMORY"); v != "" {
		cfg.Storage.InMemory = parseBool(v, cfg.Storage.InMemory)
	}
	if v := os.Getenv("RESONANTDB_HOT_CAPACITY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Storage.HotCapacity = n
		}
	}
	if v := os.Getenv("RESONANTDB_DENSE_EF_SEARCH"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.DenseIndex.EfSearch = n
		}
	}
	if v := os.Getenv("RESONANTDB_RESONANCE_CONFIDENCE_WEIGHT"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Resonance.ConfidenceWeight = f
		}
	}
	if v := os.Getenv("RESONANTDB_RESONANCE_RECENCY_WEIGHT"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Resonance.RecencyWeight = f
		}
	}
	if v := os.Getenv("RESONANTDB_COHERENCE_SAMPLE_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Resonance.CoherenceSampleSize = n
		}
	}
	if v := os.Getenv("RESONANTDB_DYNAMICS_TICK_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Dynamics.TickInterval = d
		}
	}
	if v := os.Getenv("RESONANTDB_MAINTENANCE_ENABLED"); v != "" {
		cfg.Maintenance.Enabled = parseBool(v, cfg.Maintenance.Enabled)
	}
	if v := os.Getenv("RESONANTDB_MAINTENANCE_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Maintenance.Interval = d
		}
	}

	return cfg
}

func parseBool(s string, defaultVal bool) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1", "yes", "on":
		return true
	case "false", "0", "no", "off":
		return false
	default:
		return defaultVal
	}
}

// LoadConfig reads a YAML override file into a Config seeded with
// DefaultConfig, so an operator only needs to specify the fields they want
// to change.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

// LoadFromEnvOrFile loads a YAML file (if filePath is non-empty and
// exists), then applies environment variable overrides on top, mirroring
// the teacher's apoc.LoadFromEnvOrFile precedence (env wins over file).
func LoadFromEnvOrFile(filePath string) (*Config, error) {
	cfg := DefaultConfig()
	if filePath != "" {
		if _, err := os.Stat(filePath); err == nil {
			fileCfg, err := LoadConfig(filePath)
			if err != nil {
				return nil, err
			}
			cfg = fileCfg
		}
	}

	if v, ok := os.LookupEnv("RESONANTDB_DATA_DIR"); ok && v != "" {
		cfg.Storage.DataDir = v
	}
	if v, ok := os.LookupEnv("RESONANTDB_IN_MEMORY"); ok {
		cfg.Storage.InMemory = parseBool(v, cfg.Storage.InMemory)
	}
	if v, ok := os.LookupEnv("RESONANTDB_HOT_CAPACITY"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Storage.HotCapacity = n
		}
	}
	if v, ok := os.LookupEnv("RESONANTDB_DENSE_EF_SEARCH"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.DenseIndex.EfSearch = n
		}
	}
	if v, ok := os.LookupEnv("RESONANTDB_RESONANCE_CONFIDENCE_WEIGHT"); ok {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Resonance.ConfidenceWeight = f
		}
	}
	if v, ok := os.LookupEnv("RESONANTDB_RESONANCE_RECENCY_WEIGHT"); ok {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Resonance.RecencyWeight = f
		}
	}
	if v, ok := os.LookupEnv("RESONANTDB_COHERENCE_SAMPLE_SIZE"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Resonance.CoherenceSampleSize = n
		}
	}
	if v, ok := os.LookupEnv("RESONANTDB_DYNAMICS_TICK_INTERVAL"); ok {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Dynamics.TickInterval = d
		}
	}
	if v, ok := os.LookupEnv("RESONANTDB_MAINTENANCE_ENABLED"); ok {
		cfg.Maintenance.Enabled = parseBool(v, cfg.Maintenance.Enabled)
	}
	if v, ok := os.LookupEnv("RESONANTDB_MAINTENANCE_INTERVAL"); ok {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Maintenance.Interval = d
		}
	}

	return cfg, nil
}
