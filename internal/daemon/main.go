// Package daemon wires configuration, storage, secrets and the web
// service into a runnable gateway.
package daemon

import (
	"context"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	gormmysql "gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/servicefinder/auth-gateway/internal/config"
	"github.com/servicefinder/auth-gateway/internal/db/dsn"
	"github.com/servicefinder/auth-gateway/internal/logger"
	"github.com/servicefinder/auth-gateway/internal/secrets"
	"github.com/servicefinder/auth-gateway/internal/session"
	"github.com/servicefinder/auth-gateway/internal/web"
)

// Daemon represents the main application daemon.
type Daemon struct {
	cfg        *config.Config
	webService *web.Service
}

// Start starts the Daemon's web service.
func (d *Daemon) Start() error {
	return d.webService.Start(d.cfg)
}

// New creates a new Daemon instance with the provided configuration.
func New(cfg *config.Config) (*Daemon, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}

	if err := logger.Init(cfg.Log); err != nil {
		return nil, err
	}

	db, err := gorm.Open(gormmysql.Open(dsn.Create(cfg)), &gorm.Config{})
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect database")
	}

	if err = db.AutoMigrate(&session.Record{}); err != nil {
		return nil, errors.Wrap(err, "failed to migrate database")
	}

	fetcher, err := secrets.New(context.Background(), cfg.Secrets.Region)
	if err != nil {
		return nil, err
	}

	log.Info().Str("mode", cfg.Auth.SessionMode).Msg("gateway initialized")

	return &Daemon{
		cfg:        cfg,
		webService: web.New(cfg, db, fetcher),
	}, nil
}
