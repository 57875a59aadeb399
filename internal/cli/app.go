// Package cli wires configuration into the objects the commands run on:
// the template registry, the session store and the service.
package cli

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/aretw0/ironflow"
	"github.com/aretw0/ironflow/internal/config"
	"github.com/aretw0/ironflow/internal/logging"
	"github.com/aretw0/ironflow/internal/metrics"
	"github.com/aretw0/ironflow/internal/service"
	"github.com/aretw0/ironflow/pkg/adapters/file"
	"github.com/aretw0/ironflow/pkg/adapters/memory"
	"github.com/aretw0/ironflow/pkg/adapters/redis"
	"github.com/aretw0/ironflow/pkg/adapters/sqlite"
	"github.com/aretw0/ironflow/pkg/codec"
	"github.com/aretw0/ironflow/pkg/otype"
	"github.com/aretw0/ironflow/pkg/persistence/middleware"
	"github.com/aretw0/ironflow/pkg/ports"
	"github.com/aretw0/ironflow/pkg/session"
)

// App holds everything a command needs.
type App struct {
	Config   *config.Config
	Logger   *slog.Logger
	Metrics  *metrics.Metrics
	Ironflow *ironflow.Ironflow
	Store    ports.SessionStore
	Sessions *session.Manager
	Service  *service.Service

	closers []io.Closer
}

// NewApp builds the application from cfg. The store is opened lazily by
// OpenStore, so commands that never touch sessions need no backend.
func NewApp(cfg *config.Config) (*App, error) {
	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	format, err := logging.ParseFormat(cfg.LogFormat)
	if err != nil {
		return nil, err
	}
	app := &App{
		Config:  cfg,
		Logger:  logging.New(level, logging.WithFormat(format)),
		Metrics: metrics.New(prometheus.NewRegistry()),
	}

	onts, err := LoadOntologies(cfg.Ontologies)
	if err != nil {
		return nil, err
	}
	app.Ironflow, err = ironflow.New("ironflow",
		ironflow.WithLogger(app.Logger),
		ironflow.WithHooks(app.Metrics.Hooks()),
		ironflow.WithOntologies(onts...),
		ironflow.WithNodeDirs(cfg.NodeDirs...),
	)
	if err != nil {
		return nil, fmt.Errorf("error initializing ironflow: %w", err)
	}
	return app, nil
}

// LoadOntologies reads ontology files.
func LoadOntologies(paths []string) ([]*otype.Ontology, error) {
	onts := make([]*otype.Ontology, 0, len(paths))
	for _, p := range paths {
		o, err := otype.LoadFile(p)
		if err != nil {
			return nil, err
		}
		onts = append(onts, o)
	}
	return onts, nil
}

// OpenStore opens the configured session store and builds the service on
// top of it.
func (a *App) OpenStore(ctx context.Context) error {
	if a.Store != nil {
		return nil
	}
	store, locker, closer, err := OpenStore(ctx, a.Config)
	if err != nil {
		return err
	}
	if closer != nil {
		a.closers = append(a.closers, closer)
	}
	opts := []session.Option{session.WithLogger(a.Logger)}
	if locker != nil {
		opts = append(opts, session.WithLocker(locker))
	}
	a.Store = store
	a.Sessions = session.NewManager(store, opts...)
	a.Service = a.newService(a.Sessions)
	return nil
}

// NewService builds a service without a session store.
func (a *App) NewService() *service.Service {
	if a.Service != nil {
		return a.Service
	}
	return a.newService(nil)
}

func (a *App) newService(m *session.Manager) *service.Service {
	return service.New(a.Ironflow.Registry(), m,
		service.WithOntologies(a.Ironflow.Ontologies()),
		service.WithHooks(a.Metrics.Hooks()),
		service.WithLogger(a.Logger),
	)
}

// Close releases the store.
func (a *App) Close() error {
	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}

// OpenStore creates the session store cfg selects, wrapped in the redaction
// and encryption middleware when configured. The redis store comes with a
// distributed locker.
func OpenStore(ctx context.Context, cfg *config.Config) (ports.SessionStore, ports.DistributedLocker, io.Closer, error) {
	sc := cfg.Store
	ser, err := codec.New(sc.Codec, sc.Compression)
	if err != nil {
		return nil, nil, nil, err
	}

	var (
		store  ports.SessionStore
		locker ports.DistributedLocker
		closer io.Closer
	)
	switch sc.Kind {
	case "memory":
		store = memory.NewStore(memory.WithSerializer(ser))
	case "file":
		store = file.New(sc.Dir)
	case "redis":
		rs := redis.New(sc.RedisAddr, os.Getenv(config.EnvPrefix+"REDIS_PASSWORD"), sc.RedisDB,
			redis.WithSerializer(ser), redis.WithTTL(sc.TTL))
		store, locker, closer = rs, redis.NewLocker(rs.Client(), "ironflow:"), rs
	case "sqlite":
		ss, err := sqlite.Open(ctx, sc.SQLitePath, sqlite.WithSerializer(ser))
		if err != nil {
			return nil, nil, nil, err
		}
		store, closer = ss, ss
	default:
		return nil, nil, nil, fmt.Errorf("unknown store kind %q", sc.Kind)
	}

	var mws []middleware.Middleware
	if len(cfg.Redact) > 0 {
		mws = append(mws, middleware.NewRedactMiddleware(cfg.Redact))
	}
	if cfg.EncryptionKey != "" {
		key, err := hex.DecodeString(cfg.EncryptionKey)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("invalid encryption key: %w", err)
		}
		mws = append(mws, middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: key}))
	}
	return middleware.Chain(store, mws...), locker, closer, nil
}
