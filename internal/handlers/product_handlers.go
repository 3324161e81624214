package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/dmitriyvasukov/crazy-hamburg/internal/database"
	"github.com/dmitriyvasukov/crazy-hamburg/internal/models"
	"github.com/dmitriyvasukov/crazy-hamburg/internal/store"
)

func (h *Handlers) ListProducts(c *gin.Context) {
	skip, limit := pagination(c)

	filter := store.ProductFilter{}
	if raw, ok := c.GetQuery("is_active"); ok {
		if v, err := strconv.ParseBool(raw); err == nil {
			filter.IsActive = &v
		}
	}
	// Archived products are hidden unless explicitly requested.
	notArchived := false
	filter.IsArchived = &notArchived
	if raw, ok := c.GetQuery("is_archived"); ok {
		if v, err := strconv.ParseBool(raw); err == nil {
			filter.IsArchived = &v
		}
	}

	page, err := store.ListProducts(c.Request.Context(), h.DB, filter, skip, limit)
	if err != nil {
		h.serverError(c, err)
		return
	}

	c.JSON(http.StatusOK, page)
}

func (h *Handlers) GetProduct(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	product, err := store.GetProduct(c.Request.Context(), h.DB, id)
	if err != nil {
		if errors.Is(err, database.ErrProductNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"detail": "Товар не найден"})
			return
		}
		h.serverError(c, err)
		return
	}

	c.JSON(http.StatusOK, product)
}

type createProductInput struct {
	Article          string          `json:"article" binding:"required"`
	Name             string          `json:"name" binding:"required"`
	Description      *string         `json:"description"`
	Price            decimal.Decimal `json:"price" binding:"required"`
	Sizes            []string        `json:"sizes"`
	SizeTable        json.RawMessage `json:"size_table"`
	CareInstructions *string         `json:"care_instructions"`
	OrderType        string          `json:"order_type" binding:"required,oneof=in_stock preorder waiting"`
	StockCount       int             `json:"stock_count" binding:"gte=0"`
	WavesTotal       int             `json:"preorder_waves_total" binding:"gte=0"`
	WaveCapacity     int             `json:"preorder_wave_capacity" binding:"gte=0"`
	MediaURLs        []string        `json:"media_urls"`
}

func (h *Handlers) CreateProduct(c *gin.Context) {
	var input createProductInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": err.Error()})
		return
	}

	product, err := store.CreateProduct(c.Request.Context(), h.DB, store.CreateProductRequest{
		Article:          input.Article,
		Name:             input.Name,
		Description:      input.Description,
		Price:            input.Price,
		Sizes:            input.Sizes,
		SizeTable:        input.SizeTable,
		CareInstructions: input.CareInstructions,
		Mode:             models.AvailabilityMode(input.OrderType),
		StockCount:       input.StockCount,
		WavesTotal:       input.WavesTotal,
		WaveCapacity:     input.WaveCapacity,
		MediaURLs:        input.MediaURLs,
	})
	if err != nil {
		if errors.Is(err, database.ErrDuplicateArticle) {
			c.JSON(http.StatusBadRequest, gin.H{"detail": "Товар с таким артикулом уже существует"})
			return
		}
		h.serverError(c, err)
		return
	}

	c.JSON(http.StatusCreated, product)
}

type updateProductInput struct {
	Name             *string          `json:"name"`
	Description      *string          `json:"description"`
	Price            *decimal.Decimal `json:"price"`
	Sizes            []string         `json:"sizes"`
	SizeTable        json.RawMessage  `json:"size_table"`
	CareInstructions *string          `json:"care_instructions"`
	OrderType        *string          `json:"order_type" binding:"omitempty,oneof=in_stock preorder waiting"`
	StockCount       *int             `json:"stock_count" binding:"omitempty,gte=0"`
	WavesTotal       *int             `json:"preorder_waves_total" binding:"omitempty,gte=0"`
	WaveCapacity     *int             `json:"preorder_wave_capacity" binding:"omitempty,gte=0"`
	IsActive         *bool            `json:"is_active"`
}

func (h *Handlers) UpdateProduct(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var input updateProductInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": err.Error()})
		return
	}

	req := store.UpdateProductRequest{
		Name:             input.Name,
		Description:      input.Description,
		Price:            input.Price,
		Sizes:            input.Sizes,
		SizeTable:        input.SizeTable,
		CareInstructions: input.CareInstructions,
		StockCount:       input.StockCount,
		WavesTotal:       input.WavesTotal,
		WaveCapacity:     input.WaveCapacity,
		IsActive:         input.IsActive,
	}
	if input.OrderType != nil {
		mode := models.AvailabilityMode(*input.OrderType)
		req.Mode = &mode
	}

	product, err := store.UpdateProduct(c.Request.Context(), h.DB, id, req)
	if err != nil {
		if errors.Is(err, database.ErrProductNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"detail": "Товар не найден"})
			return
		}
		h.serverError(c, err)
		return
	}

	c.JSON(http.StatusOK, product)
}

func (h *Handlers) DeleteProduct(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := store.DeleteProduct(c.Request.Context(), h.DB, id); err != nil {
		if errors.Is(err, database.ErrProductNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"detail": "Товар не найден"})
			return
		}
		h.serverError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *Handlers) ArchiveProduct(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	product, err := store.ArchiveProduct(c.Request.Context(), h.DB, id)
	if err != nil {
		if errors.Is(err, database.ErrProductNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"detail": "Товар не найден"})
			return
		}
		h.serverError(c, err)
		return
	}

	c.JSON(http.StatusOK, product)
}
