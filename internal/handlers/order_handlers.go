package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dmitriyvasukov/crazy-hamburg/internal/catalog"
	"github.com/dmitriyvasukov/crazy-hamburg/internal/database"
	"github.com/dmitriyvasukov/crazy-hamburg/internal/models"
	"github.com/dmitriyvasukov/crazy-hamburg/internal/store"
)

type orderItemInput struct {
	ProductID int64  `json:"product_id" binding:"required"`
	Size      string `json:"size" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required,gte=1"`
}

type createOrderInput struct {
	Items           []orderItemInput `json:"items" binding:"required,min=1,dive"`
	DeliveryAddress *string          `json:"delivery_address"`
	CDEKPoint       *string          `json:"cdek_point"`
	PromoCode       string           `json:"promo_code"`
}

func (h *Handlers) CreateOrder(c *gin.Context) {
	var input createOrderInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": err.Error()})
		return
	}

	req := store.CreateOrderRequest{
		UserID:          currentUser(c).ID,
		DeliveryAddress: input.DeliveryAddress,
		CDEKPoint:       input.CDEKPoint,
		PromoCode:       input.PromoCode,
	}
	for _, item := range input.Items {
		req.Items = append(req.Items, store.OrderItemRequest{
			ProductID: item.ProductID,
			Size:      item.Size,
			Quantity:  item.Quantity,
		})
	}

	order, err := store.CreateOrder(c.Request.Context(), h.DB, req)
	if err != nil {
		var unavailable *catalog.UnavailableError
		if errors.As(err, &unavailable) {
			h.rejectOrderLine(c, unavailable)
			return
		}
		if errors.Is(err, database.ErrInsufficientStock) {
			c.JSON(http.StatusBadRequest, gin.H{"detail": "Недостаточно товара на складе"})
			return
		}
		h.serverError(c, err)
		return
	}

	c.JSON(http.StatusCreated, order)
}

func (h *Handlers) rejectOrderLine(c *gin.Context, e *catalog.UnavailableError) {
	switch e.Reason {
	case catalog.RejectUnknownProduct:
		c.JSON(http.StatusNotFound, gin.H{
			"detail": fmt.Sprintf("Товар с ID %d не найден", e.ProductID)})
	case catalog.RejectInactive:
		c.JSON(http.StatusBadRequest, gin.H{
			"detail": fmt.Sprintf("Товар %s недоступен для заказа", e.ProductName)})
	case catalog.RejectModeWaiting:
		c.JSON(http.StatusBadRequest, gin.H{
			"detail": fmt.Sprintf("Товар %s в режиме ожидания", e.ProductName)})
	case catalog.RejectInsufficientStock:
		c.JSON(http.StatusBadRequest, gin.H{
			"detail": fmt.Sprintf("Недостаточно товара %s на складе", e.ProductName)})
	case catalog.RejectAllWavesFull:
		c.JSON(http.StatusBadRequest, gin.H{
			"detail": fmt.Sprintf("Все волны предзаказа для %s заполнены", e.ProductName)})
	default:
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Товар недоступен для заказа"})
	}
}

func (h *Handlers) ListMyOrders(c *gin.Context) {
	skip, limit := pagination(c)
	userID := currentUser(c).ID

	page, err := store.ListOrders(c.Request.Context(), h.DB,
		store.OrderFilter{UserID: &userID}, skip, limit)
	if err != nil {
		h.serverError(c, err)
		return
	}

	c.JSON(http.StatusOK, page)
}

func (h *Handlers) GetOrder(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	order, err := store.GetOrder(c.Request.Context(), h.DB, id)
	if err != nil {
		if errors.Is(err, database.ErrOrderNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"detail": "Заказ не найден"})
			return
		}
		h.serverError(c, err)
		return
	}

	user := currentUser(c)
	if order.UserID != user.ID && !user.IsAdmin {
		c.JSON(http.StatusForbidden, gin.H{"detail": "Доступ запрещён"})
		return
	}

	c.JSON(http.StatusOK, order)
}

type updateOrderInput struct {
	Status          *string `json:"status" binding:"omitempty"`
	TrackingNumber  *string `json:"tracking_number"`
	DeliveryAddress *string `json:"delivery_address"`
	CDEKPoint       *string `json:"cdek_point"`
}

func (h *Handlers) UpdateOrder(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var input updateOrderInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": err.Error()})
		return
	}

	req := store.UpdateOrderRequest{
		TrackingNumber:  input.TrackingNumber,
		DeliveryAddress: input.DeliveryAddress,
		CDEKPoint:       input.CDEKPoint,
	}
	if input.Status != nil {
		status := models.OrderStatus(*input.Status)
		if !status.Valid() {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": "Некорректный статус заказа"})
			return
		}
		req.Status = &status
	}

	order, err := store.UpdateOrder(c.Request.Context(), h.DB, id, req)
	if err != nil {
		if errors.Is(err, database.ErrOrderNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"detail": "Заказ не найден"})
			return
		}
		h.serverError(c, err)
		return
	}

	c.JSON(http.StatusOK, order)
}

func (h *Handlers) ListAllOrders(c *gin.Context) {
	skip, limit := pagination(c)

	filter := store.OrderFilter{}
	if raw, ok := c.GetQuery("status"); ok && raw != "" {
		status := models.OrderStatus(raw)
		if !status.Valid() {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": "Некорректный статус заказа"})
			return
		}
		filter.Status = &status
	}

	page, err := store.ListOrders(c.Request.Context(), h.DB, filter, skip, limit)
	if err != nil {
		h.serverError(c, err)
		return
	}

	c.JSON(http.StatusOK, page)
}
