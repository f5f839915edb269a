// Package customer provides the customer data model: immutable archetype
// templates, stackable trait modifiers, the persistent per-customer record,
// and the per-visit effective profile composed from all three.
package customer

import "shopfloor/internal/curve"

// ID is a unique identifier for a customer.
type ID uint64

// HourRange is an inclusive-start, exclusive-end window on the 24h sim clock.
type HourRange struct {
	From  int `yaml:"from" json:"from"`
	Until int `yaml:"until" json:"until"`
}

// Contains reports whether hour falls inside the window. Windows may wrap
// midnight (From > Until).
func (h HourRange) Contains(hour int) bool {
	if h.From <= h.Until {
		return hour >= h.From && hour < h.Until
	}
	return hour >= h.From || hour < h.Until
}

// Archetype is an immutable customer template authored at content time.
// Never mutated at runtime.
type Archetype struct {
	ID   string `yaml:"id" json:"id"`
	Name string `yaml:"name" json:"name"`

	// BaseInterest holds per-category interest, 0–100. Entries missing for
	// a category default to a neutral 50 during composition.
	BaseInterest []float64 `yaml:"base_interest" json:"base_interest"`

	MoveSpeed      float64 `yaml:"move_speed" json:"move_speed"`           // grid cells per second
	QueueTolerance float64 `yaml:"queue_tolerance_sec" json:"queue_tolerance_sec"` // seconds of queueing endured

	// Stat curves sampled at the customer's loyalty level.
	WalletCap        curve.Curve `yaml:"wallet_cap" json:"wallet_cap"`
	Patience         curve.Curve `yaml:"patience" json:"patience"`
	EmbarrassmentCap curve.Curve `yaml:"embarrassment_cap" json:"embarrassment_cap"`

	BaseXP       float64 `yaml:"base_xp" json:"base_xp"`
	XPThresholds []int   `yaml:"xp_thresholds" json:"xp_thresholds"` // non-decreasing; level = highest index reached

	PolicySet string `yaml:"policy_set" json:"policy_set"`

	// Spawn control.
	SpawnWindow HourRange `yaml:"spawn_window" json:"spawn_window"`
	SpawnWeight float64   `yaml:"spawn_weight" json:"spawn_weight"`
}

// Trait is an immutable modifier stacked onto an archetype baseline.
// Scalar fields at zero are treated as unset (neutral 1.0) so authored YAML
// only needs to name what a trait actually changes.
type Trait struct {
	ID   string `yaml:"id" json:"id"`
	Name string `yaml:"name" json:"name"`

	InterestAdd []float64 `yaml:"interest_add" json:"interest_add"` // signed, per category
	InterestMul []float64 `yaml:"interest_mul" json:"interest_mul"` // per category, 0 = unset

	WalletMul           float64 `yaml:"wallet_mul" json:"wallet_mul"`
	PatienceMul         float64 `yaml:"patience_mul" json:"patience_mul"`
	EmbarrassmentMul    float64 `yaml:"embarrassment_mul" json:"embarrassment_mul"`
	PriceSensitivityMul float64 `yaml:"price_sensitivity_mul" json:"price_sensitivity_mul"`
	SpeedMul            float64 `yaml:"speed_mul" json:"speed_mul"`
	XPMul               float64 `yaml:"xp_mul" json:"xp_mul"`

	// Preferred visiting hours boost the trait's pick weight at spawn time.
	PreferredHours  []HourRange `yaml:"preferred_hours" json:"preferred_hours"`
	PreferredWeight float64     `yaml:"preferred_weight" json:"preferred_weight"`
}

// PrefersHour reports whether hour falls in any preferred window.
func (t Trait) PrefersHour(hour int) bool {
	for _, r := range t.PreferredHours {
		if r.Contains(hour) {
			return true
		}
	}
	return false
}

// Record is the persistent per-customer entity. It survives across visits
// and is mutated only by the progression service at visit end.
type Record struct {
	ID          ID       `json:"id"`
	Name        string   `json:"name"`
	ArchetypeID string   `json:"archetype_id"`
	TraitIDs    []string `json:"trait_ids"`

	// PersonalDelta is a signed per-category interest adjustment accumulated
	// over the customer's history.
	PersonalDelta []float64 `json:"personal_delta"`

	Trust      int     `json:"trust"`
	Level      int     `json:"level"` // loyalty level, derived from XP
	XP         int     `json:"xp"`    // monotonic, never reset
	WalletBase float64 `json:"wallet_base"`

	LifetimeSpent float64 `json:"lifetime_spent"`
	VisitCount    int     `json:"visit_count"`

	// PurchasedCategories tracks which categories this customer has ever
	// bought, for the conservative first-purchase rule.
	PurchasedCategories []int `json:"purchased_categories"`

	LastVisitTick   uint64 `json:"last_visit_tick"`
	LastLeaveReason string `json:"last_leave_reason"`
}

// HasPurchased reports whether the customer has ever bought from category.
func (r *Record) HasPurchased(category int) bool {
	for _, c := range r.PurchasedCategories {
		if c == category {
			return true
		}
	}
	return false
}

// MarkPurchased records a category as bought at least once.
func (r *Record) MarkPurchased(category int) {
	if !r.HasPurchased(category) {
		r.PurchasedCategories = append(r.PurchasedCategories, category)
	}
}

// EffectiveProfile is the per-visit stat block composed from archetype,
// traits, and record. Immutable once computed; owned by the visiting session.
type EffectiveProfile struct {
	Interest         []float64 `json:"interest"` // per category, clamped >= 0
	WalletCap        float64   `json:"wallet_cap"`
	Patience         float64   `json:"patience"`
	EmbarrassmentCap float64   `json:"embarrassment_cap"`
	QueueTolerance   float64   `json:"queue_tolerance"`
	MoveSpeed        float64   `json:"move_speed"`
	PriceSensitivity float64   `json:"price_sensitivity"`
	XPMul            float64   `json:"xp_mul"`
}
