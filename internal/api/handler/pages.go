package handler

import (
	"errors"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/jon4hz/newsdesk/internal/api/auth"
	"github.com/jon4hz/newsdesk/internal/service"
	"github.com/samber/lo"
)

const msgMissingFields = "Please fill in all required fields"

type loginForm struct {
	Email      string `form:"email" binding:"required"`
	Password   string `form:"password" binding:"required"`
	RememberMe bool   `form:"remember_me"`
}

type registerForm struct {
	Email         string `form:"email" binding:"required,email"`
	Password      string `form:"password" binding:"required"`
	PasswordAgain string `form:"password_again" binding:"required"`
	Name          string `form:"name" binding:"required"`
	About         string `form:"about"`
}

type newsForm struct {
	Title     string `form:"title" binding:"required"`
	Content   string `form:"content"`
	IsPrivate bool   `form:"is_private"`
}

func (f newsForm) fields() service.NewsFields {
	return service.NewsFields{
		Title:     lo.ToPtr(f.Title),
		Content:   lo.ToPtr(f.Content),
		IsPrivate: lo.ToPtr(f.IsPrivate),
	}
}

// render writes an HTML page with the values every page needs.
func (h *Handler) render(c *gin.Context, status int, name, title, current string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}
	data["Title"] = title
	data["Page"] = current
	data["Site"] = h.config.Site
	data["User"] = auth.CurrentUser(c)
	data["CSRF"] = h.auth.CSRFToken(c)
	c.HTML(status, name, data)
}

// pageError renders the 404 page for missing rows and a bare 500 otherwise.
func (h *Handler) pageError(c *gin.Context, err error) {
	if errors.Is(err, service.ErrNotFound) {
		h.render(c, http.StatusNotFound, "404.html", "Not found", "", nil)
		return
	}
	log.Error("page request failed", "path", c.Request.URL.Path, "error", err)
	c.AbortWithStatus(http.StatusInternalServerError)
}

func (h *Handler) Index(c *gin.Context) {
	stats, err := h.svc.Stats(c.Request.Context())
	if err != nil {
		// the start page works without numbers
		log.Error("failed to load stats", "error", err)
	}
	h.render(c, http.StatusOK, "index.html", "Home", "", gin.H{"Stats": stats})
}

func (h *Handler) About(c *gin.Context) {
	h.render(c, http.StatusOK, "about.html", "About", "about", nil)
}

func (h *Handler) Contacts(c *gin.Context) {
	h.render(c, http.StatusOK, "contacts.html", "Contacts", "contacts", nil)
}

func (h *Handler) News(c *gin.Context) {
	news, err := h.svc.ListNews(c.Request.Context())
	if err != nil {
		h.pageError(c, err)
		return
	}
	h.render(c, http.StatusOK, "news.html", "News", "news", gin.H{"News": news})
}

func (h *Handler) LoginForm(c *gin.Context) {
	if auth.CurrentUser(c) != nil {
		c.Redirect(http.StatusFound, "/")
		return
	}
	h.render(c, http.StatusOK, "login.html", "Log in", "", gin.H{"Form": loginForm{}})
}

func (h *Handler) Login(c *gin.Context) {
	var form loginForm
	if err := c.ShouldBind(&form); err != nil {
		h.render(c, http.StatusOK, "login.html", "Log in", "", gin.H{"Form": form, "Message": msgMissingFields})
		return
	}
	if _, err := h.auth.Login(c, form.Email, form.Password, form.RememberMe); err != nil {
		if !errors.Is(err, service.ErrAuth) {
			h.pageError(c, err)
			return
		}
		h.render(c, http.StatusOK, "login.html", "Login failed", "", gin.H{
			"Form":    form,
			"Message": "Wrong email or password",
		})
		return
	}
	c.Redirect(http.StatusFound, "/")
}

func (h *Handler) Logout(c *gin.Context) {
	if err := h.auth.Logout(c); err != nil {
		if err := c.AbortWithError(http.StatusInternalServerError, err); err != nil {
			log.Error("Failed to abort with error", "error", err)
		}
		return
	}
	c.Redirect(http.StatusFound, "/")
}

func (h *Handler) RegisterForm(c *gin.Context) {
	h.render(c, http.StatusOK, "register.html", "Register", "", gin.H{"Form": registerForm{}})
}

func (h *Handler) Register(c *gin.Context) {
	var form registerForm
	if err := c.ShouldBind(&form); err != nil {
		h.render(c, http.StatusOK, "register.html", "Register", "", gin.H{"Form": form, "Message": msgMissingFields})
		return
	}
	if form.Password != form.PasswordAgain {
		h.render(c, http.StatusOK, "register.html", "Register", "", gin.H{"Form": form, "Message": "Passwords do not match"})
		return
	}

	_, err := h.svc.CreateUser(c.Request.Context(), service.UserFields{
		Name:          lo.ToPtr(form.Name),
		Email:         lo.ToPtr(form.Email),
		About:         lo.ToPtr(form.About),
		Password:      lo.ToPtr(form.Password),
		PasswordAgain: lo.ToPtr(form.PasswordAgain),
	})
	switch {
	case err == nil:
		c.Redirect(http.StatusFound, "/login")
	case errors.Is(err, service.ErrConflict):
		h.render(c, http.StatusOK, "register.html", "Register", "", gin.H{"Form": form, "Message": "User already exists"})
	case errors.Is(err, service.ErrValidation):
		h.render(c, http.StatusOK, "register.html", "Register", "", gin.H{"Form": form, "Message": service.Message(err)})
	default:
		h.pageError(c, err)
	}
}

func (h *Handler) NewsCreateForm(c *gin.Context) {
	h.render(c, http.StatusOK, "newsjob.html", "Add news", "", gin.H{"Form": newsForm{}, "Action": "/newsjob"})
}

func (h *Handler) NewsCreate(c *gin.Context) {
	var form newsForm
	if err := c.ShouldBind(&form); err != nil {
		h.render(c, http.StatusOK, "newsjob.html", "Add news", "", gin.H{
			"Form":    form,
			"Action":  "/newsjob",
			"Message": "Enter a title",
		})
		return
	}
	fields := form.fields()
	fields.UserID = lo.ToPtr(auth.CurrentUser(c).ID)
	if _, err := h.svc.CreateNews(c.Request.Context(), fields); err != nil {
		if errors.Is(err, service.ErrValidation) {
			h.render(c, http.StatusOK, "newsjob.html", "Add news", "", gin.H{
				"Form":    form,
				"Action":  "/newsjob",
				"Message": service.Message(err),
			})
			return
		}
		h.pageError(c, err)
		return
	}
	c.Redirect(http.StatusFound, "/news")
}

func (h *Handler) NewsEditForm(c *gin.Context) {
	id, ok := h.idParam(c)
	if !ok {
		return
	}
	news, err := h.svc.GetOwnedNews(c.Request.Context(), id, auth.CurrentUser(c).ID)
	if err != nil {
		h.pageError(c, err)
		return
	}
	h.render(c, http.StatusOK, "newsjob.html", "Edit news", "", gin.H{
		"Form":   newsForm{Title: news.Title, Content: news.Content, IsPrivate: news.IsPrivate},
		"Action": c.Request.URL.Path,
	})
}

func (h *Handler) NewsEdit(c *gin.Context) {
	id, ok := h.idParam(c)
	if !ok {
		return
	}
	owner := auth.CurrentUser(c).ID

	var form newsForm
	if err := c.ShouldBind(&form); err != nil {
		// a foreign item stays invisible even when the form is invalid
		if _, err := h.svc.GetOwnedNews(c.Request.Context(), id, owner); err != nil {
			h.pageError(c, err)
			return
		}
		h.render(c, http.StatusOK, "newsjob.html", "Edit news", "", gin.H{
			"Form":    form,
			"Action":  c.Request.URL.Path,
			"Message": "Enter a title",
		})
		return
	}
	if err := h.svc.UpdateOwnedNews(c.Request.Context(), id, owner, form.fields()); err != nil {
		h.pageError(c, err)
		return
	}
	c.Redirect(http.StatusFound, "/news")
}

func (h *Handler) NewsDelete(c *gin.Context) {
	id, ok := h.idParam(c)
	if !ok {
		return
	}
	if err := h.svc.DeleteOwnedNews(c.Request.Context(), id, auth.CurrentUser(c).ID); err != nil {
		h.pageError(c, err)
		return
	}
	c.Redirect(http.StatusFound, "/news")
}
