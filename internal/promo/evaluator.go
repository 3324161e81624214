// Package promo holds the promo-code validity predicate and discount
// computation as pure functions over code snapshots.
package promo

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/dmitriyvasukov/crazy-hamburg/internal/models"
)

type Outcome string

const (
	// OutcomeNone means no code was supplied. Not an error.
	OutcomeNone Outcome = "none"
	// OutcomeInvalid covers unknown, inactive, expired and exhausted codes.
	OutcomeInvalid Outcome = "invalid"
	// OutcomeNotApplicable means the code is valid but scoped to other products.
	OutcomeNotApplicable Outcome = "not_applicable"
	OutcomeApplied       Outcome = "applied"
)

type Result struct {
	Outcome  Outcome
	Discount decimal.Decimal
	CodeID   int64
}

func noDiscount(outcome Outcome) Result {
	return Result{Outcome: outcome, Discount: decimal.Zero}
}

// Valid reports whether the code can be applied at the given instant:
// active, inside its validity window and not usage-exhausted.
func Valid(pc *models.PromoCode, now time.Time) bool {
	if pc == nil || !pc.IsActive {
		return false
	}
	if pc.ValidFrom != nil && now.Before(*pc.ValidFrom) {
		return false
	}
	if pc.ValidUntil != nil && now.After(*pc.ValidUntil) {
		return false
	}
	if pc.MaxUses != nil && pc.CurrentUses >= *pc.MaxUses {
		return false
	}
	return true
}

// Evaluate computes the discount for a code against the ordered products and
// pre-discount subtotal. A nil pc stands for a code that was not found.
// Percent takes precedence over the fixed amount when both are set; the
// discount never exceeds the subtotal.
func Evaluate(pc *models.PromoCode, productIDs []int64, subtotal decimal.Decimal, now time.Time) Result {
	if !Valid(pc, now) {
		return noDiscount(OutcomeInvalid)
	}

	if len(pc.ProductIDs) > 0 && !intersects(pc.ProductIDs, productIDs) {
		return noDiscount(OutcomeNotApplicable)
	}

	var discount decimal.Decimal
	switch {
	case pc.DiscountPercent.IsPositive():
		discount = subtotal.Mul(pc.DiscountPercent).Div(decimal.NewFromInt(100))
	case pc.DiscountAmount.IsPositive():
		discount = decimal.Min(pc.DiscountAmount, subtotal)
	}
	if discount.GreaterThan(subtotal) {
		discount = subtotal
	}

	return Result{Outcome: OutcomeApplied, Discount: discount, CodeID: pc.ID}
}

func intersects(scope, requested []int64) bool {
	set := make(map[int64]struct{}, len(scope))
	for _, id := range scope {
		set[id] = struct{}{}
	}
	for _, id := range requested {
		if _, ok := set[id]; ok {
			return true
		}
	}
	return false
}
