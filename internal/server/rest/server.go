// Package rest exposes the catalog and auth operations over HTTP.
package rest

import (
	"context"
	"net/http"
	"time"

	"github.com/dkolesnikov/bookshelf/internal/logging"
	"github.com/dkolesnikov/bookshelf/internal/server/config"
	"github.com/dkolesnikov/bookshelf/internal/server/services"
	"github.com/gin-gonic/gin"
)

// Server wraps a gin engine and the services it dispatches to.
type Server struct {
	config *config.Config
	logger logging.Logger

	users  *services.UserService
	books  *services.BookService
	covers *services.CoverService

	httpServer *http.Server
}

// NewServer builds the HTTP server with all routes registered.
func NewServer(cfg *config.Config, logger logging.Logger,
	users *services.UserService, books *services.BookService, covers *services.CoverService) *Server {

	s := &Server{
		config: cfg,
		logger: logger,
		users:  users,
		books:  books,
		covers: covers,
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery(), s.requestLogger())
	s.registerRoutes(engine)

	s.httpServer = &http.Server{
		Addr:    cfg.EndpointAddrHTTP,
		Handler: engine,
	}
	return s
}

func (s *Server) registerRoutes(r *gin.Engine) {
	r.GET("/ping/", s.ping)

	r.POST("/register/", s.register)
	r.POST("/token/", s.token)

	r.GET("/book/", s.listBooks)
	r.GET("/book/:id/", s.getBook)
	r.GET("/search/", s.searchBooks)
	r.GET("/book/:id/cover/", s.downloadCover)

	protected := r.Group("/", s.authRequired())
	protected.POST("/book/", s.createBook)
	protected.PUT("/book/:id/", s.updateBook)
	protected.DELETE("/book/:id/", s.deleteBook)
	protected.POST("/book/:id/cover/", s.uploadCover)
}

// Run starts serving and blocks until the listener fails or is shut down.
func (s *Server) Run() error {
	s.logger.Info(context.Background(), "http server starting", "addr", s.config.EndpointAddrHTTP)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests, waiting up to five seconds.
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return s.httpServer.Shutdown(ctx)
}
