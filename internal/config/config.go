// Package config provides authored simulation tuning (YAML) and runtime
// settings (environment variables).
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"shopfloor/internal/curve"
	"shopfloor/internal/customer"
	"shopfloor/internal/policy"
	"shopfloor/internal/store"
)

// Runtime holds settings read from the environment at process start.
type Runtime struct {
	Port       int
	DBPath     string
	TuningPath string
	Seed       int64
	LogLevel   slog.Level
}

// LoadRuntime reads runtime settings from the environment.
func LoadRuntime() *Runtime {
	return &Runtime{
		Port:       getEnvInt("PORT", 8080),
		DBPath:     getEnv("DB_PATH", "data/shopfloor.db"),
		TuningPath: getEnv("TUNING_PATH", ""),
		Seed:       int64(getEnvInt("SEED", 42)),
		LogLevel:   parseLogLevel(getEnv("LOG_LEVEL", "info")),
	}
}

// Tuning is the authored content and balance configuration. It is loaded
// once at startup and never mutated at runtime.
type Tuning struct {
	// Categories names the product categories; the category count every
	// interest vector is sized to is len(Categories).
	Categories []string `yaml:"categories"`

	OpenHour  int `yaml:"open_hour"`
	CloseHour int `yaml:"close_hour"`

	// Average service seconds per resource type, used for wait prediction.
	ShelfServiceSec    float64 `yaml:"shelf_service_sec"`
	RegisterServiceSec float64 `yaml:"register_service_sec"`

	// Hourly restock quantity per shelf.
	RestockPerHour int `yaml:"restock_per_hour"`

	// Base customer arrivals per sim-hour before the traffic field shapes it.
	SpawnPerHour float64 `yaml:"spawn_per_hour"`

	// MaxConcurrentVisits caps the number of customers on the floor.
	MaxConcurrentVisits int `yaml:"max_concurrent_visits"`

	Policies policy.Config `yaml:"policies"`

	// SpendXP scales visit XP by money spent.
	SpendXP curve.Curve `yaml:"spend_xp"`

	Archetypes []customer.Archetype `yaml:"archetypes"`
	Traits     []customer.Trait     `yaml:"traits"`
	Resources  []store.Resource     `yaml:"resources"`
}

// CategoryCount returns the configured number of product categories.
func (t *Tuning) CategoryCount() int {
	return len(t.Categories)
}

// ArchetypeByID looks up an archetype definition.
func (t *Tuning) ArchetypeByID(id string) (*customer.Archetype, bool) {
	for i := range t.Archetypes {
		if t.Archetypes[i].ID == id {
			return &t.Archetypes[i], true
		}
	}
	return nil, false
}

// LoadTuning reads and validates a tuning file. An empty path yields the
// built-in default tuning.
func LoadTuning(path string) (*Tuning, error) {
	if path == "" {
		return DefaultTuning(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read tuning: %w", err)
	}
	t := DefaultTuning()
	if err := yaml.Unmarshal(raw, t); err != nil {
		return nil, fmt.Errorf("parse tuning: %w", err)
	}
	if err := t.Validate(); err != nil {
		return nil, fmt.Errorf("tuning %s: %w", path, err)
	}
	return t, nil
}

// Validate checks the invariants the composition and progression pipelines
// rely on.
func (t *Tuning) Validate() error {
	if len(t.Categories) == 0 {
		return fmt.Errorf("no product categories configured")
	}
	if len(t.Archetypes) == 0 {
		return fmt.Errorf("no archetypes configured")
	}
	if t.ShelfServiceSec <= 0 || t.RegisterServiceSec <= 0 {
		return fmt.Errorf("service seconds must be positive")
	}
	for _, a := range t.Archetypes {
		if len(a.WalletCap) == 0 {
			return fmt.Errorf("archetype %s: missing wallet cap curve", a.ID)
		}
		if !a.WalletCap.Valid() || !a.Patience.Valid() || !a.EmbarrassmentCap.Valid() {
			return fmt.Errorf("archetype %s: curve points not sorted", a.ID)
		}
		for i := 1; i < len(a.XPThresholds); i++ {
			if a.XPThresholds[i] < a.XPThresholds[i-1] {
				return fmt.Errorf("archetype %s: xp thresholds must be non-decreasing", a.ID)
			}
		}
	}
	seen := make(map[store.ResourceID]bool, len(t.Resources))
	registers := 0
	for _, r := range t.Resources {
		if seen[r.ID] {
			return fmt.Errorf("duplicate resource id %d", r.ID)
		}
		seen[r.ID] = true
		if r.Kind == store.KindRegister {
			registers++
		} else if r.Category < 0 || r.Category >= len(t.Categories) {
			return fmt.Errorf("shelf %d: category %d out of range", r.ID, r.Category)
		}
	}
	if registers == 0 {
		return fmt.Errorf("no registers configured")
	}
	return nil
}

// DefaultTuning returns a playable built-in configuration: a small grocery
// floor with three archetypes and a handful of traits.
func DefaultTuning() *Tuning {
	return &Tuning{
		Categories:         []string{"produce", "bakery", "dairy", "snacks", "household"},
		OpenHour:           8,
		CloseHour:          21,
		ShelfServiceSec:    15,
		RegisterServiceSec: 25,
		RestockPerHour:     8,
		SpawnPerHour:       30,
		MaxConcurrentVisits: 60,
		Policies: policy.Config{
			Selector: policy.SelectorConfig{
				MaxQueueLen:           5,
				MinInterest:           15,
				InterestWeight:        1.0,
				AttractivenessWeight:  0.4,
				QueuePenaltyWeight:    30,
				QueuePenalty:          curve.Curve{{X: 0, Y: 1}, {X: 6, Y: 0}},
				SkipPurchasedCategory: true,
			},
			Sizer: policy.SizerConfig{
				DefaultRange:       policy.Range{Min: 1, Max: 3},
				CategoryRanges:     map[int]policy.Range{3: {Min: 1, Max: 5}},
				LoyaltyQty:         curve.Curve{{X: 0, Y: 1}, {X: 5, Y: 1.6}},
				InterestQty:        curve.Curve{{X: 0, Y: 0.6}, {X: 100, Y: 1.4}},
				UseInterestCurve:   true,
				ConservativeFirst:  true,
				TrustThreshold:     5,
				FirstPurchaseCap:   2,
				BudgetReserve:      0.2,
				LowBudgetThreshold: 20,
				LowBudgetReserve:   0.05,
			},
			QueueSwitch:   policy.QueueSwitchConfig{MinAdvantage: 2, MinPosition: 2},
			Repath:        policy.RepathConfig{MaxQueueGrowth: 7},
			Embarrassment: policy.EmbarrassmentConfig{QueueRate: 0.4, PositionFactor: 0.25, DecayRate: 0.6},
			Cashier:       policy.CashierConfig{MaxQueueLen: 6},
		},
		SpendXP: curve.Curve{{X: 0, Y: 1}, {X: 50, Y: 1.5}, {X: 200, Y: 2.5}},
		Archetypes: []customer.Archetype{
			{
				ID:               "commuter",
				Name:             "Commuter",
				BaseInterest:     []float64{40, 70, 50, 60, 20},
				MoveSpeed:        1.8,
				QueueTolerance:   90,
				WalletCap:        curve.Curve{{X: 0, Y: 40}, {X: 5, Y: 90}},
				Patience:         curve.Curve{{X: 0, Y: 45}, {X: 5, Y: 70}},
				EmbarrassmentCap: curve.Constant(25),
				BaseXP:           8,
				XPThresholds:     []int{0, 60, 180, 450, 1000},
				PolicySet:        "default",
				SpawnWindow:      customer.HourRange{From: 7, Until: 10},
				SpawnWeight:      3,
			},
			{
				ID:               "family-shopper",
				Name:             "Family Shopper",
				BaseInterest:     []float64{75, 55, 70, 45, 65},
				MoveSpeed:        1.1,
				QueueTolerance:   240,
				WalletCap:        curve.Curve{{X: 0, Y: 120}, {X: 5, Y: 260}},
				Patience:         curve.Curve{{X: 0, Y: 120}, {X: 5, Y: 200}},
				EmbarrassmentCap: curve.Constant(40),
				BaseXP:           12,
				XPThresholds:     []int{0, 60, 180, 450, 1000},
				PolicySet:        "default",
				SpawnWindow:      customer.HourRange{From: 9, Until: 19},
				SpawnWeight:      4,
			},
			{
				ID:               "night-owl",
				Name:             "Night Owl",
				BaseInterest:     []float64{25, 30, 45, 85, 35},
				MoveSpeed:        1.4,
				QueueTolerance:   150,
				WalletCap:        curve.Curve{{X: 0, Y: 60}, {X: 5, Y: 130}},
				Patience:         curve.Curve{{X: 0, Y: 80}, {X: 5, Y: 120}},
				EmbarrassmentCap: curve.Constant(15),
				BaseXP:           10,
				XPThresholds:     []int{0, 60, 180, 450, 1000},
				PolicySet:        "default",
				SpawnWindow:      customer.HourRange{From: 18, Until: 21},
				SpawnWeight:      2,
			},
		},
		Traits: []customer.Trait{
			{ID: "bargain-hunter", Name: "Bargain Hunter", InterestAdd: []float64{5, 0, 0, 10, 5}, WalletMul: 0.8, PriceSensitivityMul: 1.5},
			{ID: "impulsive", Name: "Impulsive", InterestMul: []float64{1, 1.2, 1, 1.5, 1}, PatienceMul: 0.6, XPMul: 1.2},
			{ID: "shy", Name: "Shy", EmbarrassmentMul: 0.5, SpeedMul: 0.9},
			{ID: "early-bird", Name: "Early Bird", PatienceMul: 1.3, PreferredHours: []customer.HourRange{{From: 7, Until: 10}}, PreferredWeight: 4},
		},
		Resources: defaultFloor(),
	}
}

func defaultFloor() []store.Resource {
	right := store.GridCell{X: 1, Y: 0}
	down := store.GridCell{X: 0, Y: 1}
	return []store.Resource{
		{ID: 1, Kind: store.KindShelf, Name: "Produce Aisle", Category: 0, Attractiveness: 12, Price: 4, Stock: 40, MaxStock: 40, Cell: store.GridCell{X: 4, Y: 2}, QueueDir: down},
		{ID: 2, Kind: store.KindShelf, Name: "Bakery Counter", Category: 1, Attractiveness: 18, Price: 6, Stock: 25, MaxStock: 25, Cell: store.GridCell{X: 10, Y: 2}, QueueDir: down},
		{ID: 3, Kind: store.KindShelf, Name: "Dairy Wall", Category: 2, Attractiveness: 8, Price: 3, Stock: 50, MaxStock: 50, Cell: store.GridCell{X: 16, Y: 2}, QueueDir: down},
		{ID: 4, Kind: store.KindShelf, Name: "Snack Rack", Category: 3, Attractiveness: 20, Price: 2, Stock: 60, MaxStock: 60, Cell: store.GridCell{X: 4, Y: 9}, QueueDir: right},
		{ID: 5, Kind: store.KindShelf, Name: "Household Shelf", Category: 4, Attractiveness: 6, Price: 9, Stock: 30, MaxStock: 30, Cell: store.GridCell{X: 16, Y: 9}, QueueDir: right},
		{ID: 10, Kind: store.KindRegister, Name: "Register 1", Category: -1, Cell: store.GridCell{X: 6, Y: 14}, QueueDir: down},
		{ID: 11, Kind: store.KindRegister, Name: "Register 2", Category: -1, Cell: store.GridCell{X: 12, Y: 14}, QueueDir: down},
	}
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}
