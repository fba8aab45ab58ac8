package api

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog/log"

	"github.com/scholarfeed/internal/api/auth"
	"github.com/scholarfeed/internal/config"
	"github.com/scholarfeed/internal/realtime"
	"github.com/scholarfeed/internal/social"
	"github.com/scholarfeed/internal/store"
)

// Server is the HTTP and websocket front of the application.
type Server struct {
	echo *echo.Echo
	cfg  *config.Config
}

// Deps carries everything the route handlers need.
type Deps struct {
	Store    *store.Store
	Tokens   *auth.TokenService
	Registry *realtime.Registry

	Posts         *social.PostService
	Comments      *social.CommentService
	Follows       *social.FollowService
	Notifications *social.NotificationService
	Users         *social.UserService

	WS *realtime.Handler
}

// NewServer creates the server and mounts all routes.
func NewServer(cfg *config.Config, deps Deps) *Server {
	e := echo.New()
	e.HideBanner = true

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	s := &Server{echo: e, cfg: cfg}
	s.setupRoutes(deps)
	return s
}

func (s *Server) setupRoutes(deps Deps) {
	e := s.echo

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "healthy"})
	})

	authHandlers := auth.NewHandlers(deps.Store, deps.Tokens)
	mw := auth.NewMiddleware(deps.Tokens, deps.Store)

	posts := NewPostHandlers(deps.Posts)
	comments := NewCommentHandlers(deps.Comments)
	users := NewUserHandlers(deps.Store, deps.Users, deps.Follows)
	notifications := NewNotificationHandlers(deps.Notifications)

	api := e.Group("/api")

	ag := api.Group("/auth")
	ag.POST("/register", authHandlers.Register)
	ag.POST("/login", authHandlers.Login)
	ag.POST("/logout", authHandlers.Logout, mw.Require)
	ag.GET("/me", authHandlers.Me, mw.Require)
	ag.GET("/check-username/:username", authHandlers.CheckUsername)

	pg := api.Group("/posts")
	pg.GET("", posts.List, mw.Optional)
	pg.POST("", posts.Create, mw.Require)
	pg.GET("/:id", posts.Get, mw.Optional)
	pg.PUT("/:id", posts.Update, mw.Require)
	pg.DELETE("/:id", posts.Delete, mw.Require)
	pg.POST("/:id/like", posts.ToggleLike, mw.Require)
	pg.POST("/:id/save", posts.ToggleSave, mw.Require)
	pg.POST("/:id/repost", posts.Repost, mw.Require)
	pg.GET("/:id/comments", comments.List, mw.Optional)
	pg.POST("/:id/comments", comments.AddComment, mw.Require)

	cg := api.Group("/comments", mw.Require)
	cg.PUT("/:id", comments.UpdateComment)
	cg.DELETE("/:id", comments.DeleteComment)
	cg.POST("/:id/like", comments.ToggleCommentLike)
	cg.POST("/:id/replies", comments.AddReply)

	rg := api.Group("/replies", mw.Require)
	rg.PUT("/:id", comments.UpdateReply)
	rg.DELETE("/:id", comments.DeleteReply)
	rg.POST("/:id/like", comments.ToggleReplyLike)

	ug := api.Group("/users")
	ug.GET("/:username", users.Profile, mw.Optional)
	ug.GET("/:username/posts", posts.ByAuthor, mw.Optional)
	ug.POST("/:id/follow", users.ToggleFollow, mw.Require)
	ug.GET("/:id/status", users.FollowStatus, mw.Require)
	ug.GET("/:id/followers", users.Followers, mw.Optional)
	ug.GET("/:id/following", users.Following, mw.Optional)

	api.PUT("/profile", users.UpdateProfile, mw.Require)
	api.GET("/search/users", users.Search, mw.Optional)
	api.GET("/search/posts", posts.Search, mw.Optional)
	api.GET("/insights", posts.Insights, mw.Require)

	ng := api.Group("/notifications", mw.Require)
	ng.GET("", notifications.List)
	ng.PATCH("/:id/read", notifications.MarkRead)
	ng.PATCH("/read-all", notifications.MarkAllRead)
	ng.DELETE("/:id", notifications.Delete)
	ng.DELETE("", notifications.DeleteAll)

	api.GET("/realtime/stats", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]any{
			"connections": deps.Registry.Count(),
			"online":      deps.Registry.Online(),
		})
	}, mw.Require)

	e.GET("/ws", deps.WS.Serve)
}

// Echo exposes the underlying router, mainly for tests.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}

// Start runs the server until an interrupt, then shuts down gracefully.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Server.Host, s.cfg.Server.Port)

	go func() {
		if err := s.echo.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server stopped")
		}
	}()
	log.Info().Str("addr", addr).Msg("server listening")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.echo.Shutdown(ctx)
}
