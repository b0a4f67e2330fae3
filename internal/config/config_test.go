package config

import (
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load with defaults failed: %v", err)
	}

	if cfg.Network.SoftPower != 0 {
		t.Errorf("SoftPower = %g, want 0 (auto-select)", cfg.Network.SoftPower)
	}
	if cfg.Network.Signed {
		t.Error("network defaults to signed, want unsigned")
	}
	if cfg.Network.FitTarget != 0.9 {
		t.Errorf("FitTarget = %g, want 0.9", cfg.Network.FitTarget)
	}
	if cfg.Network.MeanDegreeFloor != 20 {
		t.Errorf("MeanDegreeFloor = %g, want 20", cfg.Network.MeanDegreeFloor)
	}
	if got := len(cfg.Network.CandidatePowers); got != 20 {
		t.Errorf("candidate powers count = %d, want 20", got)
	}
	if cfg.Modules.MinModuleSize != 200 {
		t.Errorf("MinModuleSize = %d, want 200", cfg.Modules.MinModuleSize)
	}
	if cfg.Modules.SubMinModuleSize != 1 {
		t.Errorf("SubMinModuleSize = %d, want 1", cfg.Modules.SubMinModuleSize)
	}
	if cfg.Modules.MergeHeight != 0.25 || cfg.Modules.SubMergeHeight != 0.05 {
		t.Errorf("merge heights = %g/%g, want 0.25/0.05",
			cfg.Modules.MergeHeight, cfg.Modules.SubMergeHeight)
	}
	if cfg.Preservation.Permutations != 200 {
		t.Errorf("Permutations = %d, want 200", cfg.Preservation.Permutations)
	}
	if cfg.Preservation.Seed != 12345 {
		t.Errorf("Seed = %d, want 12345", cfg.Preservation.Seed)
	}
	if cfg.Preservation.MinScoreSize != 10 {
		t.Errorf("MinScoreSize = %d, want 10", cfg.Preservation.MinScoreSize)
	}
	if cfg.Simulation.Replicates != 10 {
		t.Errorf("Replicates = %d, want 10", cfg.Simulation.Replicates)
	}
	if cfg.Simulation.ImbalanceFraction != 0.5 {
		t.Errorf("ImbalanceFraction = %g, want 0.5", cfg.Simulation.ImbalanceFraction)
	}
	if cfg.Database.Enabled {
		t.Error("database enabled without DATABASE_URL")
	}
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("SOFT_POWER", "6")
	t.Setenv("SIGNED_NETWORK", "true")
	t.Setenv("PERMUTATIONS", "500")
	t.Setenv("NOISE_FACTORS", "0.2, 0.8")
	t.Setenv("SEED", "99")
	t.Setenv("DATABASE_URL", "postgres://localhost/coexnet")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Network.SoftPower != 6 {
		t.Errorf("SoftPower = %g, want 6", cfg.Network.SoftPower)
	}
	if !cfg.Network.Signed {
		t.Error("SIGNED_NETWORK=true not honored")
	}
	if cfg.Preservation.Permutations != 500 {
		t.Errorf("Permutations = %d, want 500", cfg.Preservation.Permutations)
	}
	if len(cfg.Simulation.NoiseFactors) != 2 || cfg.Simulation.NoiseFactors[1] != 0.8 {
		t.Errorf("NoiseFactors = %v, want [0.2 0.8]", cfg.Simulation.NoiseFactors)
	}
	// One SEED drives both the permutation and the simulation streams.
	if cfg.Preservation.Seed != 99 || cfg.Simulation.Seed != 99 {
		t.Errorf("Seed = %d/%d, want 99 for both engines", cfg.Preservation.Seed, cfg.Simulation.Seed)
	}
	if !cfg.Database.Enabled {
		t.Error("DATABASE_URL set but database not enabled")
	}
}

func TestLoad_RejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"negative soft power", "SOFT_POWER", "-1"},
		{"fit target above one", "SCALE_FREE_FIT_TARGET", "1.5"},
		{"zero module size", "MIN_MODULE_SIZE", "0"},
		{"zero permutations", "PERMUTATIONS", "0"},
		{"imbalance above one", "IMBALANCE_FRACTION", "1.2"},
		{"hub quantile at one", "HUB_QUANTILE", "1"},
		{"negative noise factor", "NOISE_FACTORS", "-0.5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			if _, err := Load(); err == nil {
				t.Fatalf("%s=%s accepted, want validation error", tt.key, tt.value)
			}
		})
	}
}

func TestLoad_MalformedValuesFallBackToDefaults(t *testing.T) {
	t.Setenv("PERMUTATIONS", "lots")
	t.Setenv("NOISE_FACTORS", "0.1,banana")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Preservation.Permutations != 200 {
		t.Errorf("Permutations = %d, want default 200", cfg.Preservation.Permutations)
	}
	if len(cfg.Simulation.NoiseFactors) != 4 {
		t.Errorf("NoiseFactors = %v, want 4 defaults", cfg.Simulation.NoiseFactors)
	}
}
