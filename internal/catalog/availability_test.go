package catalog

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/dmitriyvasukov/crazy-hamburg/internal/models"
)

func stockProduct(stock int) *models.Product {
	return &models.Product{
		ID:         1,
		Article:    "DWC-001",
		Name:       "Hoodie",
		Price:      decimal.NewFromInt(2500),
		Mode:       models.ModeInStock,
		StockCount: stock,
		IsActive:   true,
	}
}

func preorderProduct(wave, wavesTotal, capacity, count int) *models.Product {
	return &models.Product{
		ID:               2,
		Article:          "DWC-002",
		Name:             "Jacket",
		Price:            decimal.NewFromInt(7000),
		Mode:             models.ModePreorder,
		WavesTotal:       wavesTotal,
		WaveCapacity:     capacity,
		CurrentWave:      wave,
		CurrentWaveCount: count,
		IsActive:         true,
	}
}

func TestResolveInStock(t *testing.T) {
	res := Resolve(stockProduct(10), 2)

	assert.True(t, res.Accepted)
	assert.Equal(t, AcceptInStock, res.Kind)
	assert.Equal(t, 2, res.Consume)
}

func TestResolveStockBoundary(t *testing.T) {
	// Quantity exactly equal to stock succeeds; one more fails.
	res := Resolve(stockProduct(5), 5)
	assert.True(t, res.Accepted)

	res = Resolve(stockProduct(5), 6)
	assert.False(t, res.Accepted)
	assert.Equal(t, RejectInsufficientStock, res.Reason)
}

func TestResolveUnknownProduct(t *testing.T) {
	res := Resolve(nil, 1)

	assert.False(t, res.Accepted)
	assert.Equal(t, RejectUnknownProduct, res.Reason)
}

func TestResolveInactive(t *testing.T) {
	p := stockProduct(10)
	p.IsActive = false

	res := Resolve(p, 1)
	assert.False(t, res.Accepted)
	assert.Equal(t, RejectInactive, res.Reason)
}

func TestResolveArchived(t *testing.T) {
	p := stockProduct(10)
	p.IsArchived = true

	res := Resolve(p, 1)
	assert.False(t, res.Accepted)
	assert.Equal(t, RejectInactive, res.Reason)
}

func TestResolveWaiting(t *testing.T) {
	p := stockProduct(10)
	p.Mode = models.ModeWaiting

	res := Resolve(p, 1)
	assert.False(t, res.Accepted)
	assert.Equal(t, RejectModeWaiting, res.Reason)
}

func TestResolvePreorder(t *testing.T) {
	res := Resolve(preorderProduct(1, 2, 5, 3), 2)

	assert.True(t, res.Accepted)
	assert.Equal(t, AcceptPreorder, res.Kind)
	assert.Equal(t, 1, res.Wave)
	assert.Equal(t, 2, res.Consume)
}

func TestResolvePreorderSpansWave(t *testing.T) {
	// A line larger than the remaining slots is still accepted at the
	// current wave; the overflow is carried forward during commit.
	res := Resolve(preorderProduct(1, 2, 5, 4), 3)

	assert.True(t, res.Accepted)
	assert.Equal(t, 1, res.Wave)
}

func TestResolveAllWavesFull(t *testing.T) {
	res := Resolve(preorderProduct(3, 2, 5, 0), 1)

	assert.False(t, res.Accepted)
	assert.Equal(t, RejectAllWavesFull, res.Reason)
}

func TestResolveDoesNotMutateSnapshot(t *testing.T) {
	p := preorderProduct(1, 2, 5, 3)
	Resolve(p, 4)

	assert.Equal(t, 1, p.CurrentWave)
	assert.Equal(t, 3, p.CurrentWaveCount)
}
