package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-contrib/gzip"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/jon4hz/newsdesk/internal/api/auth"
	"github.com/jon4hz/newsdesk/internal/api/handler"
	"github.com/jon4hz/newsdesk/internal/config"
	"github.com/jon4hz/newsdesk/internal/service"
	"github.com/jon4hz/newsdesk/internal/static"
	"github.com/jon4hz/newsdesk/internal/web"
)

type Server struct {
	cfg       *config.Config
	ginEngine *gin.Engine
	svc       *service.Service
	binder    *auth.Binder
	server    *http.Server
}

func New(cfg *config.Config, svc *service.Service) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if svc == nil {
		return nil, fmt.Errorf("service is required")
	}

	if log.GetLevel() > log.DebugLevel {
		gin.SetMode(gin.ReleaseMode)
	}

	renderer, err := web.NewRenderer(web.Funcs(cfg.Gravatar))
	if err != nil {
		return nil, fmt.Errorf("failed to load templates: %w", err)
	}

	ginEngine := gin.New()
	ginEngine.Use(gin.Recovery(), requestLogger())
	ginEngine.HTMLRender = renderer

	s := &Server{
		cfg:       cfg,
		ginEngine: ginEngine,
		svc:       svc,
		binder:    auth.New(svc, cfg),
	}
	if err := s.setupRoutes(); err != nil {
		return nil, err
	}
	s.server = &http.Server{
		Addr:              cfg.Listen,
		Handler:           ginEngine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s, nil
}

// requestLogger logs every request through charm log.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Debug("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}

func (s *Server) setupSession() {
	store := cookie.NewStore([]byte(s.cfg.SessionKey))
	store.Options(s.binder.Options(false))
	s.ginEngine.Use(sessions.Sessions(auth.SessionName, store))
}

func (s *Server) setupRoutes() error {
	s.ginEngine.Use(gzip.Gzip(gzip.DefaultCompression))
	s.setupSession()
	s.ginEngine.Use(s.binder.LoadUser())

	staticFS, err := static.FileSystem()
	if err != nil {
		return err
	}
	s.ginEngine.StaticFS("/static", staticFS)

	h := handler.New(s.svc, s.binder, s.cfg)
	csrf := s.binder.RequireCSRF()

	s.ginEngine.GET("/", h.Index)
	s.ginEngine.GET("/index", h.Index)
	s.ginEngine.GET("/about", h.About)
	s.ginEngine.GET("/contacts", h.Contacts)
	s.ginEngine.GET("/news", h.News)
	s.ginEngine.GET("/login", h.LoginForm)
	s.ginEngine.POST("/login", csrf, h.Login)
	s.ginEngine.GET("/register", h.RegisterForm)
	s.ginEngine.POST("/register", csrf, h.Register)

	protected := s.ginEngine.Group("/")
	protected.Use(s.binder.RequireAuth())

	protected.GET("/logout", h.Logout)
	protected.GET("/newsjob", h.NewsCreateForm)
	protected.POST("/newsjob", csrf, h.NewsCreate)
	protected.GET("/newsjob/:id", h.NewsEditForm)
	protected.POST("/newsjob/:id", csrf, h.NewsEdit)
	protected.GET("/newsdel/:id", h.NewsDelete)

	// API routes
	api := s.ginEngine.Group("/api")
	api.GET("/news", h.ListNews)
	api.GET("/news/:id", h.GetNews)
	api.POST("/news", h.CreateNews)
	api.PUT("/news/:id", h.UpdateNews)
	api.DELETE("/news/:id", h.DeleteNews)

	api.POST("/user", h.RegisterUser)
	api.PUT("/user/:id", h.UpdateUser)
	api.DELETE("/user/:id", h.DeleteUser)
	api.GET("/users", h.ListUsers)
	api.GET("/users/:id", h.GetUser)

	s.ginEngine.NoRoute(h.NotFound)
	return nil
}

// Handler returns the http.Handler of the server.
func (s *Server) Handler() http.Handler {
	return s.ginEngine
}

// Run serves HTTP until Shutdown is called.
// It returns immediately if the server was already shut down.
func (s *Server) Run() error {
	log.Info("starting server", "listen", s.cfg.Listen)
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
