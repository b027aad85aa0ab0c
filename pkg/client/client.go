// Package client wires a config into a ready-to-use entity manager: logger,
// HTTP transport, optional shared metadata store and the configured user.
package client

import (
	"context"
	"fmt"
	"io"

	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"

	"github.com/mesh-intelligence/hrentities/internal/logging"
	"github.com/mesh-intelligence/hrentities/internal/metacache"
	"github.com/mesh-intelligence/hrentities/internal/transport"
	"github.com/mesh-intelligence/hrentities/pkg/manager"
	"github.com/mesh-intelligence/hrentities/pkg/types"
)

// Instance is one tenant of the HR platform as seen by one user.
type Instance struct {
	code    string
	manager *manager.Manager
	user    *types.User
	log     *logging.Logger
	closers []io.Closer
}

// New validates cfg, applying defaults first, and builds an Instance. Log
// output goes to console and, when configured, to rotating files.
func New(ctx context.Context, cfg types.Config, console io.Writer) (*Instance, error) {
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	log, err := logging.New(cfg.Log, console)
	if err != nil {
		return nil, fmt.Errorf("init logging: %w", err)
	}
	inst := &Instance{code: cfg.InstanceCode, user: cfg.User(), log: log}

	opts := []manager.Option{manager.WithLogger(logrus.NewEntry(log.Logger))}
	store, err := openStore(ctx, cfg)
	if err != nil {
		log.Close()
		return nil, err
	}
	if store != nil {
		opts = append(opts, manager.WithStore(store))
		inst.closers = append(inst.closers, store)
	}
	inst.closers = append(inst.closers, log)

	tr := transport.New(transport.ConfigFrom(cfg), logrus.NewEntry(log.Logger))
	inst.manager = manager.New(tr, opts...)

	log.Component("client").WithFields(logrus.Fields{
		"instance": cfg.InstanceCode,
		"api_url":  cfg.APIURL,
		"cache":    cfg.Cache.Backend,
	}).Debug("client ready")
	return inst, nil
}

type closableStore interface {
	manager.Store
	io.Closer
}

func openStore(ctx context.Context, cfg types.Config) (closableStore, error) {
	switch cfg.Cache.Backend {
	case types.CacheRedis:
		rdb, err := metacache.DialRedis(ctx, metacache.RedisConfig{
			Addr:     cfg.Cache.RedisAddr,
			Password: cfg.Cache.RedisPassword,
			DB:       cfg.Cache.RedisDB,
		})
		if err != nil {
			return nil, err
		}
		return metacache.NewRedisStore(rdb, cfg.InstanceCode, cfg.Cache.TTL), nil
	case types.CacheSQLite:
		s, err := metacache.OpenSQLite(cfg.Cache.DataDir, cfg.InstanceCode, cfg.Cache.TTL)
		if err != nil {
			return nil, fmt.Errorf("open metadata cache: %w", err)
		}
		return s, nil
	}
	return nil, nil
}

// NewEntityManager builds an Instance and returns its manager along with a
// function releasing the instance's resources.
func NewEntityManager(ctx context.Context, cfg types.Config, console io.Writer) (*manager.Manager, func() error, error) {
	inst, err := New(ctx, cfg, console)
	if err != nil {
		return nil, nil, err
	}
	return inst.Manager(), inst.Close, nil
}

// Code returns the instance code.
func (i *Instance) Code() string { return i.code }

// Manager returns the instance's entity manager.
func (i *Instance) Manager() *manager.Manager { return i.manager }

// User returns the configured user.
func (i *Instance) User() *types.User { return i.user }

// Logger returns the instance's logger.
func (i *Instance) Logger() *logrus.Logger { return i.log.Logger }

// Close releases the metadata store and log files. Every resource is closed
// even when an earlier one fails.
func (i *Instance) Close() error {
	var result *multierror.Error
	for _, c := range i.closers {
		if err := c.Close(); err != nil {
			result = multierror.Append(result, err)
		}
	}
	i.closers = nil
	return result.ErrorOrNil()
}
