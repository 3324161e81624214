package promo

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/dmitriyvasukov/crazy-hamburg/internal/models"
)

func percentCode(percent int64) *models.PromoCode {
	return &models.PromoCode{
		ID:              1,
		Code:            "TEST10",
		DiscountPercent: decimal.NewFromInt(percent),
		IsActive:        true,
	}
}

func fixedCode(amount int64) *models.PromoCode {
	return &models.PromoCode{
		ID:             2,
		Code:           "MINUS500",
		DiscountAmount: decimal.NewFromInt(amount),
		IsActive:       true,
	}
}

func TestValid(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	past := now.Add(-24 * time.Hour)
	future := now.Add(24 * time.Hour)
	five := 5

	tests := []struct {
		name string
		pc   *models.PromoCode
		want bool
	}{
		{"nil", nil, false},
		{"active unbounded", percentCode(10), true},
		{"inactive", &models.PromoCode{IsActive: false}, false},
		{"inside window", &models.PromoCode{IsActive: true, ValidFrom: &past, ValidUntil: &future}, true},
		{"before window", &models.PromoCode{IsActive: true, ValidFrom: &future}, false},
		{"after window", &models.PromoCode{IsActive: true, ValidUntil: &past}, false},
		{"uses left", &models.PromoCode{IsActive: true, MaxUses: &five, CurrentUses: 4}, true},
		{"exhausted", &models.PromoCode{IsActive: true, MaxUses: &five, CurrentUses: 5}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Valid(tt.pc, now))
		})
	}
}

func TestEvaluatePercent(t *testing.T) {
	res := Evaluate(percentCode(10), []int64{1}, decimal.NewFromInt(2500), time.Now())

	assert.Equal(t, OutcomeApplied, res.Outcome)
	assert.True(t, res.Discount.Equal(decimal.NewFromInt(250)), "got %s", res.Discount)
	assert.Equal(t, int64(1), res.CodeID)
}

func TestEvaluateFullPercent(t *testing.T) {
	res := Evaluate(percentCode(100), []int64{1}, decimal.NewFromInt(5000), time.Now())

	assert.Equal(t, OutcomeApplied, res.Outcome)
	assert.True(t, res.Discount.Equal(decimal.NewFromInt(5000)))
}

func TestEvaluateFixedClamped(t *testing.T) {
	res := Evaluate(fixedCode(3000), []int64{1}, decimal.NewFromInt(2500), time.Now())

	assert.Equal(t, OutcomeApplied, res.Outcome)
	assert.True(t, res.Discount.Equal(decimal.NewFromInt(2500)))
}

func TestEvaluatePercentWinsOverFixed(t *testing.T) {
	pc := percentCode(10)
	pc.DiscountAmount = decimal.NewFromInt(1000)

	res := Evaluate(pc, []int64{1}, decimal.NewFromInt(2000), time.Now())
	assert.True(t, res.Discount.Equal(decimal.NewFromInt(200)))
}

func TestEvaluateInvalid(t *testing.T) {
	res := Evaluate(nil, []int64{1}, decimal.NewFromInt(2500), time.Now())

	assert.Equal(t, OutcomeInvalid, res.Outcome)
	assert.True(t, res.Discount.IsZero())
}

func TestEvaluateScope(t *testing.T) {
	pc := percentCode(10)
	pc.ProductIDs = []int64{5, 6}

	res := Evaluate(pc, []int64{1, 2}, decimal.NewFromInt(1000), time.Now())
	assert.Equal(t, OutcomeNotApplicable, res.Outcome)
	assert.True(t, res.Discount.IsZero())

	res = Evaluate(pc, []int64{2, 6}, decimal.NewFromInt(1000), time.Now())
	assert.Equal(t, OutcomeApplied, res.Outcome)
}

func TestEvaluateEmptyScopeAppliesToAny(t *testing.T) {
	res := Evaluate(percentCode(10), []int64{42}, decimal.NewFromInt(1000), time.Now())

	assert.Equal(t, OutcomeApplied, res.Outcome)
}
