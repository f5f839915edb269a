// Default purchase sizer: random quantity in a per-category range, scaled
// by loyalty and interest curves, clamped by the wallet's budget ceiling.
package policy

import (
	"math"

	"shopfloor/internal/curve"
	"shopfloor/internal/store"
)

// Range is an inclusive purchase quantity range.
type Range struct {
	Min int `yaml:"min"`
	Max int `yaml:"max"`
}

// SizerConfig tunes the budget-constrained purchase sizer.
type SizerConfig struct {
	DefaultRange   Range         `yaml:"default_range"`
	CategoryRanges map[int]Range `yaml:"category_ranges"`

	// LoyaltyQty scales quantity by loyalty level; InterestQty by the
	// category's interest value when enabled.
	LoyaltyQty       curve.Curve `yaml:"loyalty_qty"`
	InterestQty      curve.Curve `yaml:"interest_qty"`
	UseInterestCurve bool        `yaml:"use_interest_curve"`

	// Conservative first purchase: customers who never bought this category
	// (or whose trust is still below the threshold) are capped.
	ConservativeFirst bool `yaml:"conservative_first"`
	TrustThreshold    int  `yaml:"trust_threshold"`
	FirstPurchaseCap  int  `yaml:"first_purchase_cap"`

	// Budget ceiling: unless AllowEmptyWallet, a fraction of the wallet is
	// held back (a smaller fraction once the wallet is already low).
	AllowEmptyWallet   bool    `yaml:"allow_empty_wallet"`
	BudgetReserve      float64 `yaml:"budget_reserve"`
	LowBudgetThreshold float64 `yaml:"low_budget_threshold"`
	LowBudgetReserve   float64 `yaml:"low_budget_reserve"`
}

// BudgetSizer is the default purchase sizer.
type BudgetSizer struct {
	Cfg SizerConfig
}

// PurchaseQty returns how many units to buy at the shelf. Zero when the
// customer cannot afford a single unit or the shelf is empty; otherwise at
// least one.
func (b *BudgetSizer) PurchaseQty(ctx *DecisionContext, shelf store.Snapshot) int {
	if shelf.Stock <= 0 || shelf.Price <= 0 || ctx.Wallet < shelf.Price {
		return 0
	}

	rng := b.Cfg.DefaultRange
	if override, ok := b.Cfg.CategoryRanges[shelf.Category]; ok {
		rng = override
	}
	if rng.Min < 1 {
		rng.Min = 1
	}
	if rng.Max < rng.Min {
		rng.Max = rng.Min
	}

	qty := float64(rng.Min + ctx.Rand.Intn(rng.Max-rng.Min+1))
	qty *= b.Cfg.LoyaltyQty.Sample(float64(ctx.Level))
	if b.Cfg.UseInterestCurve {
		qty *= b.Cfg.InterestQty.Sample(ctx.InterestIn(shelf.Category))
	}

	final := int(math.Round(qty))

	if b.Cfg.ConservativeFirst && b.Cfg.FirstPurchaseCap > 0 {
		firstTime := !ctx.EverPurchased[shelf.Category] || ctx.Trust < b.Cfg.TrustThreshold
		if firstTime && final > b.Cfg.FirstPurchaseCap {
			final = b.Cfg.FirstPurchaseCap
		}
	}

	ceiling := b.budgetCeiling(ctx.Wallet, shelf.Price)
	if final > ceiling {
		final = ceiling
	}
	if final > shelf.Stock {
		final = shelf.Stock
	}
	if final < 1 {
		// Affordability and stock both allow at least one unit here.
		final = 1
	}
	return final
}

// budgetCeiling returns how many units the reserved budget allows, raised to
// one when the customer can afford at least a single unit.
func (b *BudgetSizer) budgetCeiling(wallet, price float64) int {
	available := wallet
	if !b.Cfg.AllowEmptyWallet {
		reserve := b.Cfg.BudgetReserve
		if wallet < b.Cfg.LowBudgetThreshold {
			reserve = b.Cfg.LowBudgetReserve
		}
		available = wallet * (1 - reserve)
	}
	ceiling := int(math.Floor(available / price))
	if ceiling < 1 && wallet >= price {
		ceiling = 1
	}
	return ceiling
}
