package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dmitriyvasukov/crazy-hamburg/internal/auth"
	"github.com/dmitriyvasukov/crazy-hamburg/internal/database"
	"github.com/dmitriyvasukov/crazy-hamburg/internal/store"
)

type registerInput struct {
	Phone    string  `json:"phone" binding:"required"`
	Password string  `json:"password" binding:"required,min=6"`
	FullName *string `json:"full_name"`
}

func (h *Handlers) Register(c *gin.Context) {
	var input registerInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": err.Error()})
		return
	}

	phone, err := auth.NormalizePhone(input.Phone)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": "Некорректный номер телефона"})
		return
	}

	hash, err := auth.HashPassword(input.Password)
	if err != nil {
		h.serverError(c, err)
		return
	}

	user, err := store.CreateUser(c.Request.Context(), h.DB, store.CreateUserRequest{
		Phone:        phone,
		PasswordHash: hash,
		FullName:     input.FullName,
	})
	if err != nil {
		if errors.Is(err, database.ErrDuplicatePhone) {
			c.JSON(http.StatusBadRequest, gin.H{"detail": "Пользователь с таким номером уже зарегистрирован"})
			return
		}
		h.serverError(c, err)
		return
	}

	token, err := h.Tokens.Generate(user.ID)
	if err != nil {
		h.serverError(c, err)
		return
	}

	// Welcome SMS is best effort; a gateway failure must not break signup.
	if h.SMS != nil {
		if err := h.SMS.SendMessage(c.Request.Context(), user.Phone, "Добро пожаловать в DWC!"); err != nil {
			h.Log.WithError(err).Warn("send welcome sms failed")
		}
	}

	c.JSON(http.StatusCreated, gin.H{
		"access_token": token,
		"token_type":   "bearer",
		"user":         user,
	})
}

type loginInput struct {
	Phone    string `json:"phone" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *Handlers) Login(c *gin.Context) {
	var input loginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": err.Error()})
		return
	}

	phone, err := auth.NormalizePhone(input.Phone)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"detail": "Неверный телефон или пароль"})
		return
	}

	user, err := store.GetUserByPhone(c.Request.Context(), h.DB, phone)
	if err != nil {
		if errors.Is(err, database.ErrUserNotFound) {
			c.JSON(http.StatusUnauthorized, gin.H{"detail": "Неверный телефон или пароль"})
			return
		}
		h.serverError(c, err)
		return
	}

	if !user.IsActive || !auth.CheckPassword(user.PasswordHash, input.Password) {
		c.JSON(http.StatusUnauthorized, gin.H{"detail": "Неверный телефон или пароль"})
		return
	}

	token, err := h.Tokens.Generate(user.ID)
	if err != nil {
		h.serverError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"access_token": token,
		"token_type":   "bearer",
		"user":         user,
	})
}
