// Stat composition merges archetype baseline, trait modifiers, and the
// customer's personal history into the per-visit effective profile.
package customer

import (
	"errors"
	"fmt"
)

// ErrInvalidConfiguration is returned when an archetype or category count is
// malformed. Composition failures are fatal for the customer: callers must
// not spawn a visit from a profile that failed to compose.
var ErrInvalidConfiguration = errors.New("invalid configuration")

// Neutral baseline interest used when an archetype's vector is shorter than
// the configured category count.
const defaultBaseInterest = 50.0

// Compose builds the effective profile for one visit.
//
// Interest pipeline: archetype baseline + personal delta, plus every trait's
// additive vector, times every trait's per-category factor, clamped >= 0.
// Scalar stats are the archetype curve sampled at the record's loyalty level
// times the product of the matching trait multipliers.
func Compose(a *Archetype, rec *Record, traits []Trait, categoryCount int) (*EffectiveProfile, error) {
	if a == nil {
		return nil, fmt.Errorf("%w: nil archetype", ErrInvalidConfiguration)
	}
	if rec == nil {
		return nil, fmt.Errorf("%w: nil record", ErrInvalidConfiguration)
	}
	if categoryCount <= 0 {
		return nil, fmt.Errorf("%w: category count %d", ErrInvalidConfiguration, categoryCount)
	}

	interest := make([]float64, categoryCount)
	for i := range interest {
		base := defaultBaseInterest
		if i < len(a.BaseInterest) {
			base = a.BaseInterest[i]
		}
		delta := 0.0
		if i < len(rec.PersonalDelta) {
			delta = rec.PersonalDelta[i]
		}
		interest[i] = base + delta
	}

	for _, t := range traits {
		for i := range interest {
			if i < len(t.InterestAdd) {
				interest[i] += t.InterestAdd[i]
			}
		}
	}
	for _, t := range traits {
		for i := range interest {
			if i < len(t.InterestMul) && t.InterestMul[i] != 0 {
				interest[i] *= t.InterestMul[i]
			}
		}
	}
	for i := range interest {
		if interest[i] < 0 {
			interest[i] = 0
		}
	}

	walletMul, patienceMul, embMul, priceMul, speedMul, xpMul := 1.0, 1.0, 1.0, 1.0, 1.0, 1.0
	for _, t := range traits {
		walletMul *= scalar(t.WalletMul)
		patienceMul *= scalar(t.PatienceMul)
		embMul *= scalar(t.EmbarrassmentMul)
		priceMul *= scalar(t.PriceSensitivityMul)
		speedMul *= scalar(t.SpeedMul)
		xpMul *= scalar(t.XPMul)
	}

	level := float64(rec.Level)
	return &EffectiveProfile{
		Interest:         interest,
		WalletCap:        (a.WalletCap.Sample(level) + rec.WalletBase) * walletMul,
		Patience:         a.Patience.Sample(level) * patienceMul,
		EmbarrassmentCap: a.EmbarrassmentCap.Sample(level) * embMul,
		QueueTolerance:   a.QueueTolerance * patienceMul,
		MoveSpeed:        a.MoveSpeed * speedMul,
		PriceSensitivity: priceMul,
		XPMul:            xpMul,
	}, nil
}

// scalar maps the zero value (unset in authored YAML) to a neutral 1.0.
func scalar(v float64) float64 {
	if v == 0 {
		return 1.0
	}
	return v
}
