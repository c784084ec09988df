// Package auth binds the logged in user to the request through the cookie session.
package auth

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jon4hz/newsdesk/internal/config"
	"github.com/jon4hz/newsdesk/internal/database"
	"github.com/jon4hz/newsdesk/internal/service"
)

const (
	// SessionName is the name of the session cookie.
	SessionName = "newsdesk_session"
	// UserKey is the gin context key of the current *database.User.
	UserKey = "user"
	// CSRFField is the form field that carries the CSRF token.
	CSRFField = "csrf_token"

	sessionUserID   = "user_id"
	sessionRemember = "remember"
	sessionCSRF     = "csrf_token"
)

// Binder resolves the current user and manages logins.
type Binder struct {
	svc *service.Service
	cfg *config.Config
}

// New creates a new Binder.
func New(svc *service.Service, cfg *config.Config) *Binder {
	return &Binder{
		svc: svc,
		cfg: cfg,
	}
}

// Options returns the cookie options for a session.
func (b *Binder) Options(remember bool) sessions.Options {
	maxAge := b.cfg.SessionMaxAge
	if remember {
		maxAge = b.cfg.Session.RememberMaxAge
	}
	return sessions.Options{
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   b.cfg.Session.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// save writes the session and keeps the lifetime chosen at login.
func (b *Binder) save(session sessions.Session) error {
	remember, _ := session.Get(sessionRemember).(bool)
	session.Options(b.Options(remember))
	return session.Save()
}

// ResolveCurrentUser returns the user with the given id or nil if it does not exist.
func (b *Binder) ResolveCurrentUser(c *gin.Context, id uint) (*database.User, error) {
	return b.svc.CurrentUser(c.Request.Context(), id)
}

// LoadUser stores the logged in user under UserKey. Stale sessions are cleared.
func (b *Binder) LoadUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		raw := session.Get(sessionUserID)
		if raw == nil {
			c.Next()
			return
		}

		id, ok := raw.(uint)
		var user *database.User
		if ok {
			var err error
			user, err = b.ResolveCurrentUser(c, id)
			if err != nil {
				log.Error("failed to resolve session user", "id", id, "error", err)
				c.Next()
				return
			}
		}
		if user == nil {
			log.Debug("clearing stale session", "user_id", raw)
			session.Delete(sessionUserID)
			session.Delete(sessionRemember)
			if err := b.save(session); err != nil {
				log.Error("failed to save session", "error", err)
			}
			c.Next()
			return
		}

		c.Set(UserKey, user)
		c.Next()
	}
}

// CurrentUser returns the user stored by LoadUser or nil.
func CurrentUser(c *gin.Context) *database.User {
	if v, ok := c.Get(UserKey); ok {
		if user, ok := v.(*database.User); ok {
			return user
		}
	}
	return nil
}

// RequireAuth rejects anonymous requests.
// API paths get a 401 JSON error, pages redirect to the login form.
func (b *Binder) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if CurrentUser(c) != nil {
			c.Next()
			return
		}
		if IsAPIPath(c.Request.URL.Path) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Redirect(http.StatusFound, "/login")
		c.Abort()
	}
}

// IsAPIPath reports whether path belongs to the JSON API.
func IsAPIPath(path string) bool {
	return path == "/api" || strings.HasPrefix(path, "/api/")
}

// Login checks the credentials and binds the user to the session.
func (b *Binder) Login(c *gin.Context, email, password string, remember bool) (*database.User, error) {
	user, err := b.svc.Authenticate(c.Request.Context(), email, password)
	if err != nil {
		return nil, err
	}

	session := sessions.Default(c)
	session.Set(sessionUserID, user.ID)
	session.Set(sessionRemember, remember)
	if err := b.save(session); err != nil {
		log.Error("failed to save session", "error", err)
		return nil, err
	}
	log.Info("user logged in", "id", user.ID, "remember", remember)
	return user, nil
}

// Logout clears the session and expires the cookie.
func (b *Binder) Logout(c *gin.Context) error {
	session := sessions.Default(c)
	session.Clear()
	opts := b.Options(false)
	opts.MaxAge = -1
	session.Options(opts)
	return session.Save()
}

// CSRFToken returns the CSRF token of the session and creates one if needed.
func (b *Binder) CSRFToken(c *gin.Context) string {
	session := sessions.Default(c)
	if token, ok := session.Get(sessionCSRF).(string); ok && token != "" {
		return token
	}
	token := uuid.NewString()
	session.Set(sessionCSRF, token)
	if err := b.save(session); err != nil {
		log.Error("failed to save session", "error", err)
	}
	return token
}

// RequireCSRF rejects form posts without the token of the session.
func (b *Binder) RequireCSRF() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodPost {
			c.Next()
			return
		}
		expected, _ := sessions.Default(c).Get(sessionCSRF).(string)
		got := c.PostForm(CSRFField)
		if expected == "" || subtle.ConstantTimeCompare([]byte(expected), []byte(got)) != 1 {
			log.Warn("rejected form without valid csrf token", "path", c.Request.URL.Path)
			c.AbortWithStatus(http.StatusBadRequest)
			return
		}
		c.Next()
	}
}
