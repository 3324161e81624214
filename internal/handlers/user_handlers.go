package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dmitriyvasukov/crazy-hamburg/internal/database"
	"github.com/dmitriyvasukov/crazy-hamburg/internal/store"
)

func (h *Handlers) Me(c *gin.Context) {
	c.JSON(http.StatusOK, currentUser(c))
}

type updateUserInput struct {
	FullName  *string `json:"full_name"`
	Email     *string `json:"email"`
	Telegram  *string `json:"telegram"`
	VK        *string `json:"vk"`
	Address   *string `json:"address"`
	CDEKPoint *string `json:"cdek_point"`
}

func (h *Handlers) UpdateMe(c *gin.Context) {
	var input updateUserInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": err.Error()})
		return
	}

	user, err := store.UpdateUser(c.Request.Context(), h.DB, currentUser(c).ID, store.UpdateUserRequest{
		FullName:  input.FullName,
		Email:     input.Email,
		Telegram:  input.Telegram,
		VK:        input.VK,
		Address:   input.Address,
		CDEKPoint: input.CDEKPoint,
	})
	if err != nil {
		h.serverError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

func (h *Handlers) ListUsers(c *gin.Context) {
	skip, limit := pagination(c)

	page, err := store.ListUsers(c.Request.Context(), h.DB, skip, limit)
	if err != nil {
		h.serverError(c, err)
		return
	}

	c.JSON(http.StatusOK, page)
}

func (h *Handlers) GetUser(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	user, err := store.GetUser(c.Request.Context(), h.DB, id)
	if err != nil {
		if errors.Is(err, database.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"detail": "Пользователь не найден"})
			return
		}
		h.serverError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}
