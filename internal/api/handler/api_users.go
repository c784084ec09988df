package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jon4hz/newsdesk/internal/api/models"
	"github.com/jon4hz/newsdesk/internal/service"
)

// userRequest is the body of user registration and updates.
// Registration checks presence of the fields in the service layer.
type userRequest struct {
	Name          *string `json:"name"`
	Email         *string `json:"email" binding:"omitempty,email"`
	About         *string `json:"about"`
	Password      *string `json:"password"`
	PasswordAgain *string `json:"password_again"`
}

func (r userRequest) fields() service.UserFields {
	return service.UserFields{
		Name:          r.Name,
		Email:         r.Email,
		About:         r.About,
		Password:      r.Password,
		PasswordAgain: r.PasswordAgain,
	}
}

var (
	userListFields = models.Fields{Only: []string{"id", "username", "email", "create_data"}}
	userItemFields = models.Fields{
		Only: []string{"id", "username", "email", "create_data"},
		Rels: map[string]models.Fields{
			"news": {Only: []string{"id", "title", "content", "is_private"}},
		},
	}
)

// RegisterUser creates a user account.
func (h *Handler) RegisterUser(c *gin.Context) {
	var req userRequest
	if !bindJSON(c, &req) {
		return
	}
	if _, err := h.svc.CreateUser(c.Request.Context(), req.fields()); err != nil {
		jsonError(c, err, "")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "registration successful"})
}

// UpdateUser applies the fields present in the body.
func (h *Handler) UpdateUser(c *gin.Context) {
	id, ok := h.idParam(c)
	if !ok {
		return
	}
	var req userRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.svc.UpdateUser(c.Request.Context(), id, req.fields()); err != nil {
		jsonError(c, err, "User not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "user updated"})
}

// DeleteUser removes a user. Their news are kept.
func (h *Handler) DeleteUser(c *gin.Context) {
	id, ok := h.idParam(c)
	if !ok {
		return
	}
	if err := h.svc.DeleteUser(c.Request.Context(), id); err != nil {
		jsonError(c, err, "User not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "user deleted"})
}

// ListUsers returns all users.
func (h *Handler) ListUsers(c *gin.Context) {
	users, err := h.svc.ListUsers(c.Request.Context())
	if err != nil {
		jsonError(c, err, "")
		return
	}
	c.JSON(http.StatusOK, models.Project(users, userListFields))
}

// GetUser returns a user with their news.
func (h *Handler) GetUser(c *gin.Context) {
	id, ok := h.idParam(c)
	if !ok {
		return
	}
	user, err := h.svc.GetUser(c.Request.Context(), id)
	if err != nil {
		jsonError(c, err, msgNotFound)
		return
	}
	c.JSON(http.StatusOK, models.Project(user, userItemFields))
}
