// Package httpapi mounts the natours account routes on a gin router.
package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/MrEthical07/natours"
	"github.com/MrEthical07/natours/account"
	"github.com/MrEthical07/natours/middleware"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Pinger reports backend health for /health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Options configures the HTTP surface.
type Options struct {
	Logger *slog.Logger
	// CookieTTL is the session cookie lifetime.
	CookieTTL time.Duration
	// SecureCookies forces the Secure flag.
	SecureCookies bool
	// PublicBaseURL prefixes reset links. When empty the request host is
	// used.
	PublicBaseURL  string
	AllowedOrigins []string
	// Metrics is served on GET /metrics when set.
	Metrics http.Handler
	// Health is checked by GET /health when set.
	Health Pinger
}

// Server owns the router.
type Server struct {
	engine *natours.Engine
	router *gin.Engine
	opts   Options
	logger *slog.Logger
	admins account.RoleSet
}

// New builds the router and mounts the /api/v1/users routes.
func New(engine *natours.Engine, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.CookieTTL <= 0 {
		opts.CookieTTL = engine.TokenTTL()
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(opts.Logger))
	if len(opts.AllowedOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     opts.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Authorization", "Content-Type"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}
	r.Use(middleware.RequestContext())

	s := &Server{
		engine: engine,
		router: r,
		opts:   opts,
		logger: opts.Logger,
		admins: account.MustRoleSet(account.RoleAdmin),
	}
	s.registerRoutes()
	return s
}

// Router returns the HTTP handler.
func (s *Server) Router() http.Handler {
	return s.router
}

func (s *Server) registerRoutes() {
	if s.opts.Metrics != nil {
		s.router.GET("/metrics", gin.WrapH(s.opts.Metrics))
	}
	s.router.GET("/health", s.handleHealth)

	v1 := s.router.Group("/api/v1")
	v1.GET("/session", middleware.IsLoggedIn(s.engine), s.handleSession)

	users := v1.Group("/users")
	users.POST("/signup", s.handleSignup)
	users.POST("/login", s.handleLogin)
	users.GET("/logout", s.handleLogout)
	users.POST("/forgotPassword", s.handleForgotPassword)
	users.PATCH("/resetPassword/:token", s.handleResetPassword)

	authed := users.Group("")
	authed.Use(middleware.Protect(s.engine))
	authed.PATCH("/updateMyPassword", s.handleUpdatePassword)
	authed.GET("/me", s.handleMe)
	authed.PATCH("/updateMe", s.handleUpdateMe)
	authed.DELETE("/deleteMe", s.handleDeleteMe)

	admin := users.Group("")
	admin.Use(middleware.RestrictTo(s.engine, s.admins))
	admin.GET("", s.handleListUsers)
	admin.GET("/:id", s.handleGetUser)
	admin.PATCH("/:id", s.handleAdminUpdateUser)
	admin.DELETE("/:id", s.handleDeleteUser)
}

func (s *Server) handleHealth(c *gin.Context) {
	if s.opts.Health != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := s.opts.Health.Ping(ctx); err != nil {
			s.logger.WarnContext(ctx, "health check failed", slog.Any("error", err))
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "error"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) cookieOptions() middleware.CookieOptions {
	return middleware.CookieOptions{TTL: s.opts.CookieTTL, Secure: s.opts.SecureCookies}
}

func (s *Server) fail(c *gin.Context, err error) {
	middleware.Abort(c, err, s.engine.ProductionMode())
}

// sendSession attaches the cookie and writes the token envelope.
func (s *Server) sendSession(c *gin.Context, status int, sess natours.Session) {
	middleware.AttachToken(c, sess.Token, s.cookieOptions())
	c.JSON(status, gin.H{
		"status": "success",
		"token":  sess.Token,
		"data":   gin.H{"user": sess.Account},
	})
}

func (s *Server) resetURLBase(c *gin.Context) string {
	base := s.opts.PublicBaseURL
	if base == "" {
		scheme := "http"
		if c.Request.TLS != nil || strings.EqualFold(c.GetHeader("X-Forwarded-Proto"), "https") {
			scheme = "https"
		}
		base = scheme + "://" + c.Request.Host
	}
	return strings.TrimRight(base, "/") + "/api/v1/users/resetPassword"
}
