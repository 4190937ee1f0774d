// Package web implements the HTTP surface of the gateway.
package web

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/servicefinder/auth-gateway/internal/auth"
	"github.com/servicefinder/auth-gateway/internal/config"
	fiberlogger "github.com/servicefinder/auth-gateway/internal/logger/adapter/fiber"
	"github.com/servicefinder/auth-gateway/internal/session"
	"github.com/servicefinder/auth-gateway/internal/web/handler/callback"
	"github.com/servicefinder/auth-gateway/internal/web/handler/dashboard"
	"github.com/servicefinder/auth-gateway/internal/web/handler/jwks"
	"github.com/servicefinder/auth-gateway/internal/web/handler/login"
	"github.com/servicefinder/auth-gateway/internal/web/handler/logout"
	"github.com/servicefinder/auth-gateway/internal/web/handler/userinfo"
)

// Service represents the web service.
type Service struct {
	App   *fiber.App
	cfg   *config.Config
	db    *gorm.DB
	alive atomic.Bool
}

// Start starts the web service on the configured port.
func (s *Service) Start(cfg *config.Config) error {
	var doneFiber = make(chan bool)

	go func() {
		addr := fmt.Sprintf(":%d", cfg.Webserver.Port)
		if err := s.App.Listen(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Msgf("fiber listen error: %v", err)
		}

		doneFiber <- true
	}()

	go s.WaitShutdown()

	<-doneFiber // wait for fiber to stop

	return nil
}

// WaitShutdown waits for graceful shutdown of the gateway.
func (s *Service) WaitShutdown() {
	irqSig := make(chan os.Signal, 1)
	signal.Notify(irqSig, syscall.SIGINT, syscall.SIGTERM)

	sig := <-irqSig
	log.Info().Msgf("shutdown request (signal: %v)", sig)

	// Graceful shutdown for reverse proxies: set status to fail, so checkalive returns fail.
	log.Info().Msgf(
		"graceful shutdown: return 503 while %d seconds to let LB to remove this pod from active targets",
		s.cfg.Webserver.ShutDownTime,
	)

	s.alive.Store(false)
	time.Sleep(time.Duration(s.cfg.Webserver.ShutDownTime) * time.Second)

	serverShutdown := make(chan struct{})

	go func() {
		log.Info().Msg("stopping http server ...")

		if err := s.App.Shutdown(); err != nil {
			log.Error().Err(err).Msg("")
		}

		serverShutdown <- struct{}{}
	}()

	<-serverShutdown
	log.Info().Msg("http server was stopped ... good bye...")
}

// New creates a new web service with the given configuration.
func New(cfg *config.Config, db *gorm.DB, secretSource session.SecretSource) *Service {
	if cfg == nil {
		panic("config cannot be nil")
	}

	if db == nil {
		panic("db cannot be nil")
	}

	app := fiber.New(
		fiber.Config{
			ReadBufferSize: 8192,
			AppName:        "auth-gateway",
			CaseSensitive:  true,
			Prefork:        false,
			Immutable:      true,
			ErrorHandler:   ErrorHandler,
		},
	)

	app.Use(fiberlogger.New(fiberlogger.Config{
		Config:            cfg.Log,
		CacheControlError: "max-age=0",
		CheckAliveURI:     "/checkalive",
	}))

	sessions := session.NewManager(
		db,
		cfg.Webserver.Session.ExpiryTime,
		secretSource,
		cfg.Secrets.SessionSecretName,
	)

	provider := auth.New(&cfg.Auth.OIDC)

	orchestrator := &auth.Orchestrator{
		Provider:     provider,
		Sessions:     sessions,
		ProviderName: cfg.Auth.OIDC.ProviderName,
	}

	service := &Service{
		cfg: cfg,
		App: app,
		db:  db,
	}
	service.alive.Store(true)

	// init handlers (they register their own routes)
	login.Handler.Init(app, cfg, provider, sessions)
	callback.Handler.Init(app, cfg, orchestrator, sessions)
	jwks.Handler.Init(app, cfg, secretSource)
	userinfo.Handler.Init(app, cfg)
	logout.Handler.Init(app, cfg, sessions)
	dashboard.Handler.Init(app, cfg)

	app.Get("/checkalive", func(c *fiber.Ctx) error {
		if !service.alive.Load() {
			return c.SendStatus(fiber.StatusServiceUnavailable)
		}

		return c.SendStatus(fiber.StatusOK)
	})

	// redirect root to dashboard
	app.Get("/", func(c *fiber.Ctx) error {
		return c.Redirect(dashboard.Path)
	})

	return service
}
