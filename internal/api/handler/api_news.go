package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jon4hz/newsdesk/internal/api/models"
	"github.com/jon4hz/newsdesk/internal/service"
)

type createNewsRequest struct {
	Title     *string `json:"title" binding:"required"`
	Content   *string `json:"content" binding:"required"`
	UserID    *uint   `json:"user_id" binding:"required"`
	IsPrivate *bool   `json:"is_private" binding:"required"`
}

type updateNewsRequest struct {
	Title     *string `json:"title"`
	Content   *string `json:"content"`
	UserID    *uint   `json:"user_id"`
	IsPrivate *bool   `json:"is_private"`
}

var (
	newsListFields = models.Fields{Only: []string{"title", "content", "user.name"}}
	newsItemFields = models.Fields{Only: []string{"title", "content", "user_id", "is_private"}}
)

// ListNews returns all news with their author name.
func (h *Handler) ListNews(c *gin.Context) {
	news, err := h.svc.ListNews(c.Request.Context())
	if err != nil {
		jsonError(c, err, "")
		return
	}
	c.JSON(http.StatusOK, gin.H{"news": models.Project(news, newsListFields)})
}

// GetNews returns a single news item.
func (h *Handler) GetNews(c *gin.Context) {
	id, ok := h.idParam(c)
	if !ok {
		return
	}
	news, err := h.svc.GetNews(c.Request.Context(), id)
	if err != nil {
		jsonError(c, err, msgNotFound)
		return
	}
	c.JSON(http.StatusOK, gin.H{"news": models.Project(news, newsItemFields)})
}

// CreateNews stores a news item and returns its id.
func (h *Handler) CreateNews(c *gin.Context) {
	var req createNewsRequest
	if !bindJSON(c, &req) {
		return
	}
	id, err := h.svc.CreateNews(c.Request.Context(), service.NewsFields{
		Title:     req.Title,
		Content:   req.Content,
		UserID:    req.UserID,
		IsPrivate: req.IsPrivate,
	})
	if err != nil {
		jsonError(c, err, "")
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id})
}

// UpdateNews applies the fields present in the body.
func (h *Handler) UpdateNews(c *gin.Context) {
	id, ok := h.idParam(c)
	if !ok {
		return
	}
	var req updateNewsRequest
	if !bindJSON(c, &req) {
		return
	}
	err := h.svc.UpdateNews(c.Request.Context(), id, service.NewsFields{
		Title:     req.Title,
		Content:   req.Content,
		UserID:    req.UserID,
		IsPrivate: req.IsPrivate,
	})
	if err != nil {
		jsonError(c, err, "News not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// DeleteNews removes a news item.
func (h *Handler) DeleteNews(c *gin.Context) {
	id, ok := h.idParam(c)
	if !ok {
		return
	}
	if err := h.svc.DeleteNews(c.Request.Context(), id); err != nil {
		jsonError(c, err, msgNotFound)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": "OK"})
}
