// Package handlers contains the gin HTTP handlers. Client-facing failure
// details are in Russian, matching the storefront.
package handlers

import (
	"database/sql"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/dmitriyvasukov/crazy-hamburg/internal/auth"
	"github.com/dmitriyvasukov/crazy-hamburg/internal/config"
	"github.com/dmitriyvasukov/crazy-hamburg/internal/models"
	"github.com/dmitriyvasukov/crazy-hamburg/internal/payment"
	"github.com/dmitriyvasukov/crazy-hamburg/internal/sms"
)

// Handlers holds the dependencies shared by all endpoint handlers.
type Handlers struct {
	DB       *sql.DB
	Cfg      *config.Config
	Tokens   *auth.TokenIssuer
	Payments *payment.Coordinator
	SMS      sms.Sender
	Log      *logrus.Logger
}

func New(db *sql.DB, cfg *config.Config, tokens *auth.TokenIssuer,
	payments *payment.Coordinator, sender sms.Sender, log *logrus.Logger) *Handlers {
	return &Handlers{
		DB:       db,
		Cfg:      cfg,
		Tokens:   tokens,
		Payments: payments,
		SMS:      sender,
		Log:      log,
	}
}

// currentUser returns the user placed in the context by the auth middleware.
func currentUser(c *gin.Context) *models.User {
	value, ok := c.Get("user")
	if !ok {
		return nil
	}
	user, _ := value.(*models.User)
	return user
}

func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": "Некорректный идентификатор"})
		return 0, false
	}
	return id, true
}

// pagination reads skip/limit query parameters with the catalog defaults.
func pagination(c *gin.Context) (skip, limit int) {
	skip, _ = strconv.Atoi(c.DefaultQuery("skip", "0"))
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "10"))
	if skip < 0 {
		skip = 0
	}
	if limit < 1 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}
	return skip, limit
}

func (h *Handlers) serverError(c *gin.Context, err error) {
	h.Log.WithError(err).WithField("path", c.FullPath()).Error("request failed")
	c.JSON(http.StatusInternalServerError, gin.H{"detail": "Внутренняя ошибка сервера"})
}
