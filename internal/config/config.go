package config

import (
	"os"
	"strconv"
	"strings"

	"coexnet/internal/errors"
)

// Config represents the complete pipeline configuration. Every default is
// explicit here; nothing reads the environment after Load returns.
type Config struct {
	Network      NetworkConfig
	Modules      ModuleConfig
	Preservation PreservationConfig
	Simulation   SimulationConfig
	Database     DatabaseConfig
	Server       ServerConfig
}

// NetworkConfig holds similarity and topological overlap settings
type NetworkConfig struct {
	SoftPower        float64 // explicit soft-threshold exponent; <= 0 means auto-select
	Signed           bool    // signed vs unsigned adjacency
	FitTarget        float64 // scale-free fit R^2 target for auto-selection
	MeanDegreeFloor  float64 // minimum mean connectivity for auto-selection
	CandidatePowers  []float64
	TOMBlockSize     int // rows per block in TOM computation
	MinGeneVariance  float64
}

// ModuleConfig holds module detection settings
type ModuleConfig struct {
	MinModuleSize       int     // top-level minimum
	SubMinModuleSize    int     // submodule pass minimum (effectively no floor)
	MergeHeight         float64 // eigengene dissimilarity merge threshold, top-level
	SubMergeHeight      float64 // submodule merge threshold
	ReassignThreshold   float64 // kME margin for gene reassignment
	CutHeightQuantile   float64 // dendrogram cut as a fraction of max merge height
	DetectSubmodules    bool    // run the submodule pass inside each module
}

// PreservationConfig holds permutation test settings
type PreservationConfig struct {
	Permutations  int
	Seed          int64
	MinScoreSize  int // modules below this report NA
	Workers       int // 0 means GOMAXPROCS
}

// SimulationConfig holds duplication simulator settings
type SimulationConfig struct {
	NoiseFactors      []float64
	Replicates        int
	ImbalanceFraction float64 // fraction of samples receiving the unduplicated value
	HubQuantile       float64 // upper connectivity quantile defining the hub set
	UnbalancedShare   float64 // unbalanced count as a share of the hub set size
	Seed              int64   // base seed for jitter and gene-draw streams
}

// DatabaseConfig holds result repository settings
type DatabaseConfig struct {
	URL     string
	Enabled bool
}

// ServerConfig holds results API settings
type ServerConfig struct {
	Port string
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	cfg := &Config{
		Network: NetworkConfig{
			SoftPower:       getEnvFloatOrDefault("SOFT_POWER", 0),
			Signed:          getEnvBoolOrDefault("SIGNED_NETWORK", false),
			FitTarget:       getEnvFloatOrDefault("SCALE_FREE_FIT_TARGET", 0.9),
			MeanDegreeFloor: getEnvFloatOrDefault("MEAN_CONNECTIVITY_FLOOR", 20),
			CandidatePowers: getEnvFloatsOrDefault("CANDIDATE_POWERS", defaultCandidatePowers()),
			TOMBlockSize:    getEnvIntOrDefault("TOM_BLOCK_SIZE", 1000),
			MinGeneVariance: getEnvFloatOrDefault("MIN_GENE_VARIANCE", 1e-8),
		},
		Modules: ModuleConfig{
			MinModuleSize:     getEnvIntOrDefault("MIN_MODULE_SIZE", 200),
			SubMinModuleSize:  getEnvIntOrDefault("SUB_MIN_MODULE_SIZE", 1),
			MergeHeight:       getEnvFloatOrDefault("MERGE_HEIGHT", 0.25),
			SubMergeHeight:    getEnvFloatOrDefault("SUB_MERGE_HEIGHT", 0.05),
			ReassignThreshold: getEnvFloatOrDefault("REASSIGN_THRESHOLD", 0.001),
			CutHeightQuantile: getEnvFloatOrDefault("CUT_HEIGHT_QUANTILE", 0.99),
			DetectSubmodules:  getEnvBoolOrDefault("DETECT_SUBMODULES", false),
		},
		Preservation: PreservationConfig{
			Permutations: getEnvIntOrDefault("PERMUTATIONS", 200),
			Seed:         int64(getEnvIntOrDefault("SEED", 12345)),
			MinScoreSize: getEnvIntOrDefault("MIN_SCORE_MODULE_SIZE", 10),
			Workers:      getEnvIntOrDefault("WORKERS", 0),
		},
		Simulation: SimulationConfig{
			NoiseFactors:      getEnvFloatsOrDefault("NOISE_FACTORS", []float64{0.1, 0.25, 0.5, 1.0}),
			Replicates:        getEnvIntOrDefault("SIM_REPLICATES", 10),
			ImbalanceFraction: getEnvFloatOrDefault("IMBALANCE_FRACTION", 0.5),
			HubQuantile:       getEnvFloatOrDefault("HUB_QUANTILE", 0.75),
			UnbalancedShare:   getEnvFloatOrDefault("UNBALANCED_SHARE", 0.5),
			Seed:              int64(getEnvIntOrDefault("SEED", 12345)),
		},
		Database: DatabaseConfig{
			URL:     getEnvOrDefault("DATABASE_URL", ""),
			Enabled: os.Getenv("DATABASE_URL") != "",
		},
		Server: ServerConfig{
			Port: getEnvOrDefault("PORT", "8080"),
		},
	}

	if err := validate(cfg); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}
	return cfg, nil
}

func defaultCandidatePowers() []float64 {
	powers := make([]float64, 0, 20)
	for p := 1; p <= 20; p++ {
		powers = append(powers, float64(p))
	}
	return powers
}

func validate(cfg *Config) error {
	if cfg.Network.SoftPower < 0 {
		return errors.ConfigInvalid("SOFT_POWER must be positive or 0 for auto-selection")
	}
	if cfg.Network.FitTarget <= 0 || cfg.Network.FitTarget > 1 {
		return errors.ConfigInvalid("SCALE_FREE_FIT_TARGET must be in (0,1]")
	}
	if cfg.Modules.MinModuleSize < 1 || cfg.Modules.SubMinModuleSize < 1 {
		return errors.ConfigInvalid("minimum module sizes must be at least 1")
	}
	if cfg.Preservation.Permutations < 1 {
		return errors.ConfigInvalid("PERMUTATIONS must be at least 1")
	}
	if cfg.Simulation.ImbalanceFraction < 0 || cfg.Simulation.ImbalanceFraction > 1 {
		return errors.ConfigInvalid("IMBALANCE_FRACTION must be in [0,1]")
	}
	if cfg.Simulation.HubQuantile <= 0 || cfg.Simulation.HubQuantile >= 1 {
		return errors.ConfigInvalid("HUB_QUANTILE must be in (0,1)")
	}
	for _, nf := range cfg.Simulation.NoiseFactors {
		if nf < 0 {
			return errors.ConfigInvalid("noise factors must be non-negative")
		}
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvFloatsOrDefault(key string, defaultValue []float64) []float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parts := strings.Split(value, ",")
	out := make([]float64, 0, len(parts))
	for _, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return defaultValue
		}
		out = append(out, f)
	}
	return out
}
