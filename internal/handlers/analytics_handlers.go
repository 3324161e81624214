package handlers

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dmitriyvasukov/crazy-hamburg/internal/store"
)

// analyticsPeriod reads optional start_date/end_date query parameters
// (RFC 3339), defaulting to the last 30 days.
func analyticsPeriod(c *gin.Context) (time.Time, time.Time, error) {
	now := time.Now().UTC()
	start := now.AddDate(0, 0, -30)
	end := now

	if raw := c.Query("start_date"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return start, end, fmt.Errorf("start_date: %w", err)
		}
		start = parsed
	}
	if raw := c.Query("end_date"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return start, end, fmt.Errorf("end_date: %w", err)
		}
		end = parsed
	}
	return start, end, nil
}

func (h *Handlers) SalesStats(c *gin.Context) {
	start, end, err := analyticsPeriod(c)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": err.Error()})
		return
	}

	stats, err := store.GetSalesStats(c.Request.Context(), h.DB, start, end)
	if err != nil {
		h.serverError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

func (h *Handlers) PreorderStats(c *gin.Context) {
	start, end, err := analyticsPeriod(c)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": err.Error()})
		return
	}

	stats, err := store.GetPreorderStats(c.Request.Context(), h.DB, start, end)
	if err != nil {
		h.serverError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

func (h *Handlers) CustomerStats(c *gin.Context) {
	stats, err := store.GetCustomerStats(c.Request.Context(), h.DB)
	if err != nil {
		h.serverError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

func (h *Handlers) PromoStats(c *gin.Context) {
	stats, err := store.GetPromoStats(c.Request.Context(), h.DB)
	if err != nil {
		h.serverError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

func csvAttachment(c *gin.Context, prefix string) *csv.Writer {
	filename := fmt.Sprintf("%s_%s.csv", prefix, time.Now().UTC().Format("20060102"))
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.Status(http.StatusOK)
	return csv.NewWriter(c.Writer)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func (h *Handlers) ExportCustomers(c *gin.Context) {
	customers, err := store.ListCustomersForExport(c.Request.Context(), h.DB)
	if err != nil {
		h.serverError(c, err)
		return
	}

	w := csvAttachment(c, "customers")
	w.Write([]string{
		"ID", "Телефон", "ФИО", "Email", "Telegram", "VK",
		"Адрес", "Пункт СДЭК", "Дата регистрации",
	})
	for _, customer := range customers {
		w.Write([]string{
			fmt.Sprintf("%d", customer.ID),
			customer.Phone,
			deref(customer.FullName),
			deref(customer.Email),
			deref(customer.Telegram),
			deref(customer.VK),
			deref(customer.Address),
			deref(customer.CDEKPoint),
			customer.CreatedAt.UTC().Format("2006-01-02 15:04:05"),
		})
	}
	w.Flush()
}

func (h *Handlers) ExportOrders(c *gin.Context) {
	var start, end *time.Time
	if raw := c.Query("start_date"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": "start_date: " + err.Error()})
			return
		}
		start = &parsed
	}
	if raw := c.Query("end_date"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": "end_date: " + err.Error()})
			return
		}
		end = &parsed
	}

	rows, err := store.ListOrdersForExport(c.Request.Context(), h.DB, start, end)
	if err != nil {
		h.serverError(c, err)
		return
	}

	w := csvAttachment(c, "orders")
	w.Write([]string{
		"Номер заказа", "Клиент", "Сумма", "Скидка", "Итого",
		"Статус", "Статус оплаты", "Трек-номер", "Дата создания", "Дата оплаты",
	})
	for _, row := range rows {
		paidAt := ""
		if row.PaidAt != nil {
			paidAt = row.PaidAt.UTC().Format("2006-01-02 15:04:05")
		}
		w.Write([]string{
			row.OrderNumber,
			row.CustomerPhone,
			row.TotalAmount.StringFixed(2),
			row.DiscountAmount.StringFixed(2),
			row.FinalAmount.StringFixed(2),
			string(row.Status),
			string(row.PaymentStatus),
			deref(row.TrackingNumber),
			row.CreatedAt.UTC().Format("2006-01-02 15:04:05"),
			paidAt,
		})
	}
	w.Flush()
}
