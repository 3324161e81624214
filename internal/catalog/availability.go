// Package catalog decides whether an order line can be accepted against a
// product snapshot and how it consumes capacity: warehouse stock for
// in-stock products, a slot in the current wave for preorders.
package catalog

import "github.com/dmitriyvasukov/crazy-hamburg/internal/models"

type RejectReason string

const (
	RejectUnknownProduct    RejectReason = "unknown_product"
	RejectInactive          RejectReason = "inactive"
	RejectModeWaiting       RejectReason = "mode_waiting"
	RejectInsufficientStock RejectReason = "insufficient_stock"
	RejectAllWavesFull      RejectReason = "all_waves_full"
)

type AcceptKind string

const (
	AcceptInStock  AcceptKind = "in_stock"
	AcceptPreorder AcceptKind = "preorder"
)

type Resolution struct {
	Accepted bool
	Kind     AcceptKind
	// Wave the line lands in, set for preorder acceptances.
	Wave int
	// Units consumed from stock or the wave counter.
	Consume int
	Reason  RejectReason
}

func reject(reason RejectReason) Resolution {
	return Resolution{Reason: reason}
}

// Resolve is pure over the snapshot it is given; it never mutates state.
// A preorder line is accepted whenever the campaign still has waves left,
// even if the quantity exceeds the remaining slots of the current wave;
// the overflow rolls into the next wave at commit time.
func Resolve(p *models.Product, quantity int) Resolution {
	if p == nil {
		return reject(RejectUnknownProduct)
	}
	if !p.IsActive || p.IsArchived {
		return reject(RejectInactive)
	}

	switch p.Mode {
	case models.ModeWaiting:
		return reject(RejectModeWaiting)
	case models.ModePreorder:
		if p.CurrentWave > p.WavesTotal {
			return reject(RejectAllWavesFull)
		}
		return Resolution{
			Accepted: true,
			Kind:     AcceptPreorder,
			Wave:     p.CurrentWave,
			Consume:  quantity,
		}
	default:
		if p.StockCount < quantity {
			return reject(RejectInsufficientStock)
		}
		return Resolution{
			Accepted: true,
			Kind:     AcceptInStock,
			Consume:  quantity,
		}
	}
}

// UnavailableError surfaces a rejected line together with the product it
// concerns, so handlers can name the product in the response.
type UnavailableError struct {
	ProductID   int64
	ProductName string
	Reason      RejectReason
}

func (e *UnavailableError) Error() string {
	return "product " + e.ProductName + " unavailable: " + string(e.Reason)
}
