package handler

import (
	"bytes"
	"errors"
	"net/http"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/jon4hz/newsdesk/internal/api/auth"
	"github.com/jon4hz/newsdesk/internal/config"
	"github.com/jon4hz/newsdesk/internal/service"
)

const (
	msgEmptyRequest = "Empty request"
	msgBadRequest   = "Bad request"
	msgNotFound     = "Not found"
)

type Handler struct {
	svc    *service.Service
	auth   *auth.Binder
	config *config.Config
}

func New(svc *service.Service, binder *auth.Binder, cfg *config.Config) *Handler {
	return &Handler{
		svc:    svc,
		auth:   binder,
		config: cfg,
	}
}

func parseUintParam(param string) (uint, error) {
	var id uint64
	var err error
	if id, err = strconv.ParseUint(param, 10, 0); err != nil {
		return 0, err
	}
	return uint(id), nil
}

// statusFor maps a service error to its HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, service.ErrAuth):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// jsonError writes the error envelope for err.
// notFound replaces the message of not found errors if set.
func jsonError(c *gin.Context, err error, notFound string) {
	status := statusFor(err)
	msg := service.Message(err)
	switch status {
	case http.StatusNotFound:
		if notFound != "" {
			msg = notFound
		}
	case http.StatusInternalServerError:
		log.Error("request failed", "method", c.Request.Method, "path", c.Request.URL.Path, "error", err)
	}
	c.JSON(status, gin.H{"error": msg})
}

var errEmptyBody = errors.New("empty request body")

// bindJSON decodes the request body into obj and writes a 400 response on failure.
// Failed binding rules yield "Bad request", everything else "Empty request".
// A missing or null body counts as empty.
func bindJSON(c *gin.Context, obj any) bool {
	body, err := c.GetRawData()
	if err == nil {
		if trimmed := bytes.TrimSpace(body); len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
			err = errEmptyBody
		} else {
			err = binding.JSON.BindBody(body, obj)
		}
	}
	if err == nil {
		return true
	}
	msg := msgEmptyRequest
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		msg = msgBadRequest
	}
	log.Debug("rejected request body", "path", c.Request.URL.Path, "error", err)
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
	return false
}

// idParam parses the :id path parameter. An invalid id is answered like a missing route.
func (h *Handler) idParam(c *gin.Context) (uint, bool) {
	id, err := parseUintParam(c.Param("id"))
	if err != nil {
		h.NotFound(c)
		return 0, false
	}
	return id, true
}

// NotFound answers unknown routes. API paths get JSON, pages get the 404 page.
func (h *Handler) NotFound(c *gin.Context) {
	if auth.IsAPIPath(c.Request.URL.Path) {
		c.JSON(http.StatusNotFound, gin.H{"error": msgNotFound})
		return
	}
	h.render(c, http.StatusNotFound, "404.html", "Not found", "", nil)
}
