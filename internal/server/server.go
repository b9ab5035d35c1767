// Package server exposes cards and their taxonomies over HTTP.
package server

import (
	"context"
	stderrors "errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/kutbudev/cardboard/internal/auth"
	"github.com/kutbudev/cardboard/internal/config"
	"github.com/kutbudev/cardboard/internal/errors"
	"github.com/kutbudev/cardboard/internal/models"
	"github.com/kutbudev/cardboard/internal/pagination"
	"github.com/kutbudev/cardboard/internal/policy"
	"github.com/kutbudev/cardboard/internal/repository"
)

// Server is the HTTP API.
type Server struct {
	cfg     *config.Config
	db      *repository.Database
	log     zerolog.Logger
	handler http.Handler
}

// New wires the API routes under /api/v1 onto db.
func New(cfg *config.Config, db *repository.Database, log zerolog.Logger) *Server {
	gin.SetMode(cfg.Server.Mode)
	useJSONFieldNames()

	proxies, err := cfg.Server.ProxyPrefixes()
	if err != nil {
		log.Error().Err(err).Msg("ignoring trusted proxies")
		proxies = nil
	}

	router := gin.New()
	if err := router.SetTrustedProxies(cfg.Server.TrustedProxies); err != nil {
		log.Error().Err(err).Msg("ignoring trusted proxies")
		_ = router.SetTrustedProxies(nil)
	}
	router.Use(gin.Recovery(), RequestLogger(log), ForwardedScheme(proxies))

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"detail": errors.NotFoundDetail})
	})

	router.GET("/healthz", func(c *gin.Context) {
		if err := db.Health(c.Request.Context()); err != nil {
			log.Error().Err(err).Msg("health check failed")
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	tokens := auth.NewTokens(cfg.Auth)
	users := repository.NewUsers(db.DB)
	pages := pagination.Config{PageSize: cfg.Pagination.PageSize, MaxPageSize: cfg.Pagination.MaxPageSize}

	authenticator := Authenticator{
		Verifier:      auth.NewVerifier(tokens, users),
		RejectInvalid: cfg.Auth.RejectInvalidTokens,
	}
	v1 := router.Group("/api/v1", authenticator.Authenticate)

	authHandler := AuthHandler{Users: users, Tokens: tokens}
	authHandler.RegisterRoutes(v1)

	categories := repository.NewTaxonomy[models.CardCategory](db.DB)
	colors := repository.NewTaxonomy[models.CardColor](db.DB)
	statuses := repository.NewTaxonomy[models.CardStatus](db.DB)

	categoryHandler := TaxonomyHandler[models.CardCategory, *models.CardCategory]{Path: "/categories", Repository: categories, Pages: pages}
	categoryHandler.RegisterRoutes(v1)
	colorHandler := TaxonomyHandler[models.CardColor, *models.CardColor]{Path: "/colors", Repository: colors, Pages: pages}
	colorHandler.RegisterRoutes(v1)
	statusHandler := TaxonomyHandler[models.CardStatus, *models.CardStatus]{Path: "/status", Repository: statuses, Pages: pages}
	statusHandler.RegisterRoutes(v1)

	cardHandler := CardHandler{
		Cards:      repository.NewCards(db.DB, repository.FilterMode(cfg.Cards.FilterMode)),
		Categories: categories,
		Statuses:   statuses,
		Colors:     colors,
		Owner:      policy.OwnerScope{ScopeRetrieve: cfg.Cards.ScopeRetrieve},
		Pages:      pages,
	}
	cardHandler.RegisterRoutes(v1)

	return &Server{cfg: cfg, db: db, log: log, handler: router}
}

func (s *Server) Handler() http.Handler { return s.handler }

// Run serves until ctx is cancelled, then drains in-flight requests for at
// most the configured shutdown timeout.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.cfg.Server.Addr(),
		Handler: s.handler,
	}

	errc := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", srv.Addr).Msg("listening")
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	s.log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; err != nil && !stderrors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
