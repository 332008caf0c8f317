package tuning

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Tuning struct {
	GameDurationS       float64 `yaml:"game_duration_s"`
	MaxInventoryWeight  float64 `yaml:"max_inventory_weight"`
	MovementCooldownS   float64 `yaml:"movement_cooldown_s"`
	StaminaRecoveryRate float64 `yaml:"stamina_recovery_rate"`
	UndoDepth           int     `yaml:"undo_depth"`
	StartX              int     `yaml:"start_x"`
	StartY              int     `yaml:"start_y"`

	Resources Resources `yaml:"resources"`
	Observer  Observer  `yaml:"observer"`
	ScoreDB   string    `yaml:"score_db"`
}

type Resources struct {
	APIBase     string `yaml:"api_base"`
	CacheDir    string `yaml:"cache_dir"`
	CacheTTLS   int    `yaml:"cache_ttl_s"`
	FixtureDir  string `yaml:"fixture_dir"`
	HTTPTimeout int    `yaml:"http_timeout_s"`
}

type Observer struct {
	Addr        string `yaml:"addr"`
	FrameRateHz int    `yaml:"frame_rate_hz"`
}

// Default returns the stock tunables used when no tuning.yaml is supplied.
func Default() Tuning {
	return Tuning{
		GameDurationS:       900,
		MaxInventoryWeight:  10,
		MovementCooldownS:   1.0,
		StaminaRecoveryRate: 2.0,
		UndoDepth:           20,
		Resources: Resources{
			CacheDir:    "api_cache",
			CacheTTLS:   300,
			FixtureDir:  "fixtures",
			HTTPTimeout: 10,
		},
		Observer: Observer{
			Addr:        "127.0.0.1:8391",
			FrameRateHz: 10,
		},
		ScoreDB: "scores.db",
	}
}

func Load(path string) (Tuning, error) {
	t := Default()
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	if t.GameDurationS <= 0 {
		return t, fmt.Errorf("tuning.yaml: game_duration_s must be positive")
	}
	if t.MaxInventoryWeight <= 0 {
		return t, fmt.Errorf("tuning.yaml: max_inventory_weight must be positive")
	}
	return t, nil
}
