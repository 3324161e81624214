package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gosimple/slug"

	"github.com/dmitriyvasukov/crazy-hamburg/internal/database"
	"github.com/dmitriyvasukov/crazy-hamburg/internal/store"
)

// ListPages is the admin listing; unpublished pages are included unless
// the published_only filter is set.
func (h *Handlers) ListPages(c *gin.Context) {
	publishedOnly := c.Query("published_only") == "true"

	pages, err := store.ListPages(c.Request.Context(), h.DB, publishedOnly)
	if err != nil {
		h.serverError(c, err)
		return
	}

	c.JSON(http.StatusOK, pages)
}

func (h *Handlers) GetPageBySlug(c *gin.Context) {
	page, err := store.GetPageBySlug(c.Request.Context(), h.DB, c.Param("slug"))
	if err != nil {
		if errors.Is(err, database.ErrPageNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"detail": "Страница не найдена"})
			return
		}
		h.serverError(c, err)
		return
	}

	c.JSON(http.StatusOK, page)
}

type createPageInput struct {
	Slug        string `json:"slug"`
	Title       string `json:"title" binding:"required"`
	Content     string `json:"content" binding:"required"`
	IsPublished *bool  `json:"is_published"`
}

func (h *Handlers) CreatePage(c *gin.Context) {
	var input createPageInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": err.Error()})
		return
	}

	pageSlug := input.Slug
	if pageSlug == "" {
		pageSlug = slug.Make(input.Title)
	}
	published := true
	if input.IsPublished != nil {
		published = *input.IsPublished
	}

	page, err := store.CreatePage(c.Request.Context(), h.DB, store.CreatePageRequest{
		Slug:        pageSlug,
		Title:       input.Title,
		Content:     input.Content,
		IsPublished: published,
	})
	if err != nil {
		if errors.Is(err, database.ErrDuplicateSlug) {
			c.JSON(http.StatusBadRequest, gin.H{"detail": "Страница с таким slug уже существует"})
			return
		}
		h.serverError(c, err)
		return
	}

	c.JSON(http.StatusCreated, page)
}

type updatePageInput struct {
	Title       *string `json:"title"`
	Content     *string `json:"content"`
	IsPublished *bool   `json:"is_published"`
}

func (h *Handlers) UpdatePage(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var input updatePageInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": err.Error()})
		return
	}

	page, err := store.UpdatePage(c.Request.Context(), h.DB, id, store.UpdatePageRequest{
		Title:       input.Title,
		Content:     input.Content,
		IsPublished: input.IsPublished,
	})
	if err != nil {
		if errors.Is(err, database.ErrPageNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"detail": "Страница не найдена"})
			return
		}
		h.serverError(c, err)
		return
	}

	c.JSON(http.StatusOK, page)
}

func (h *Handlers) DeletePage(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := store.DeletePage(c.Request.Context(), h.DB, id); err != nil {
		if errors.Is(err, database.ErrPageNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"detail": "Страница не найдена"})
			return
		}
		h.serverError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
