package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/dmitriyvasukov/crazy-hamburg/internal/database"
	"github.com/dmitriyvasukov/crazy-hamburg/internal/promo"
	"github.com/dmitriyvasukov/crazy-hamburg/internal/store"
)

type validatePromoInput struct {
	Code       string  `json:"code" binding:"required"`
	ProductIDs []int64 `json:"product_ids"`
}

// ValidatePromoCode is the public pre-checkout check. It never errors on an
// unusable code; the outcome is carried in the body.
func (h *Handlers) ValidatePromoCode(c *gin.Context) {
	var input validatePromoInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": err.Error()})
		return
	}

	pc, err := store.GetPromoCodeByCode(c.Request.Context(), h.DB, input.Code)
	if err != nil {
		if errors.Is(err, database.ErrPromoCodeNotFound) {
			c.JSON(http.StatusOK, gin.H{"is_valid": false, "message": "Промокод не найден"})
			return
		}
		h.serverError(c, err)
		return
	}

	result := promo.Evaluate(pc, input.ProductIDs, decimal.Zero, time.Now().UTC())
	switch result.Outcome {
	case promo.OutcomeInvalid:
		c.JSON(http.StatusOK, gin.H{
			"is_valid": false,
			"message":  "Промокод недействителен или истёк срок действия",
		})
	case promo.OutcomeNotApplicable:
		c.JSON(http.StatusOK, gin.H{
			"is_valid": false,
			"message":  "Промокод не применим к выбранным товарам",
		})
	default:
		c.JSON(http.StatusOK, gin.H{
			"is_valid":         true,
			"message":          "Промокод действителен",
			"discount_percent": pc.DiscountPercent,
			"discount_amount":  pc.DiscountAmount,
		})
	}
}

func (h *Handlers) ListPromoCodes(c *gin.Context) {
	skip, limit := pagination(c)

	page, err := store.ListPromoCodes(c.Request.Context(), h.DB, skip, limit)
	if err != nil {
		h.serverError(c, err)
		return
	}

	c.JSON(http.StatusOK, page)
}

func (h *Handlers) GetPromoCode(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	pc, err := store.GetPromoCode(c.Request.Context(), h.DB, id)
	if err != nil {
		if errors.Is(err, database.ErrPromoCodeNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"detail": "Промокод не найден"})
			return
		}
		h.serverError(c, err)
		return
	}

	c.JSON(http.StatusOK, pc)
}

type createPromoInput struct {
	Code            string           `json:"code" binding:"required"`
	Description     *string          `json:"description"`
	DiscountPercent *decimal.Decimal `json:"discount_percent"`
	DiscountAmount  *decimal.Decimal `json:"discount_amount"`
	MaxUses         *int             `json:"max_uses" binding:"omitempty,gte=1"`
	ValidFrom       *time.Time       `json:"valid_from"`
	ValidUntil      *time.Time       `json:"valid_until"`
	ProductIDs      []int64          `json:"product_ids"`
}

// discountPercentInRange reports whether the percent sits in [0, 100].
// A nil percent means the field was not supplied.
func discountPercentInRange(p *decimal.Decimal) bool {
	if p == nil {
		return true
	}
	return !p.IsNegative() && p.LessThanOrEqual(decimal.NewFromInt(100))
}

func (h *Handlers) CreatePromoCode(c *gin.Context) {
	var input createPromoInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": err.Error()})
		return
	}

	if !discountPercentInRange(input.DiscountPercent) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": "Скидка в процентах должна быть от 0 до 100"})
		return
	}

	req := store.CreatePromoCodeRequest{
		Code:        input.Code,
		Description: input.Description,
		MaxUses:     input.MaxUses,
		ValidFrom:   input.ValidFrom,
		ValidUntil:  input.ValidUntil,
		ProductIDs:  input.ProductIDs,
	}
	if input.DiscountPercent != nil {
		req.DiscountPercent = *input.DiscountPercent
	}
	if input.DiscountAmount != nil {
		req.DiscountAmount = *input.DiscountAmount
	}

	pc, err := store.CreatePromoCode(c.Request.Context(), h.DB, req)
	if err != nil {
		if errors.Is(err, database.ErrDuplicateCode) {
			c.JSON(http.StatusBadRequest, gin.H{"detail": "Промокод с таким кодом уже существует"})
			return
		}
		h.serverError(c, err)
		return
	}

	c.JSON(http.StatusCreated, pc)
}

type updatePromoInput struct {
	Description     *string          `json:"description"`
	DiscountPercent *decimal.Decimal `json:"discount_percent"`
	DiscountAmount  *decimal.Decimal `json:"discount_amount"`
	MaxUses         *int             `json:"max_uses" binding:"omitempty,gte=1"`
	ValidFrom       *time.Time       `json:"valid_from"`
	ValidUntil      *time.Time       `json:"valid_until"`
	IsActive        *bool            `json:"is_active"`
	ProductIDs      *[]int64         `json:"product_ids"`
}

func (h *Handlers) UpdatePromoCode(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var input updatePromoInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": err.Error()})
		return
	}

	if !discountPercentInRange(input.DiscountPercent) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": "Скидка в процентах должна быть от 0 до 100"})
		return
	}

	pc, err := store.UpdatePromoCode(c.Request.Context(), h.DB, id, store.UpdatePromoCodeRequest{
		Description:     input.Description,
		DiscountPercent: input.DiscountPercent,
		DiscountAmount:  input.DiscountAmount,
		MaxUses:         input.MaxUses,
		ValidFrom:       input.ValidFrom,
		ValidUntil:      input.ValidUntil,
		IsActive:        input.IsActive,
		ProductIDs:      input.ProductIDs,
	})
	if err != nil {
		if errors.Is(err, database.ErrPromoCodeNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"detail": "Промокод не найден"})
			return
		}
		h.serverError(c, err)
		return
	}

	c.JSON(http.StatusOK, pc)
}

func (h *Handlers) DeletePromoCode(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := store.DeactivatePromoCode(c.Request.Context(), h.DB, id); err != nil {
		if errors.Is(err, database.ErrPromoCodeNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"detail": "Промокод не найден"})
			return
		}
		h.serverError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
