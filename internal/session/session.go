// Package session wires a schema, its entity universe and a namespace resolver
// together from configuration. A process may hold any number of sessions.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/ontograph/ontograph/internal/config"
	"github.com/ontograph/ontograph/internal/entity"
	"github.com/ontograph/ontograph/internal/namespace"
	"github.com/ontograph/ontograph/internal/schema"
	"github.com/ontograph/ontograph/internal/source"
)

// Session holds everything derived from one metamodel
type Session struct {
	Config   *config.Config
	Cache    *schema.Cache
	Universe *entity.Universe
	Resolver namespace.Resolver

	logger  *zap.Logger
	closers []io.Closer
}

// Open loads the configured schema and builds the universe and resolver
func Open(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Session, error) {
	if cfg == nil {
		return nil, errors.New("session requires a configuration")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := cfg.RequireSchema(); err != nil {
		return nil, err
	}

	src, err := SourceFor(cfg.Schema)
	if err != nil {
		return nil, err
	}

	cache, err := schema.Load(src,
		schema.WithLogger(logger.Named("schema")),
		schema.WithMaxPasses(cfg.Schema.MaxPasses))
	if err != nil {
		return nil, err
	}

	s, err := newSession(cache, logger)
	if err != nil {
		return nil, err
	}
	s.Config = cfg

	resolver, closer, err := NewResolver(ctx, cfg.Namespace, logger.Named("namespace"))
	if err != nil {
		return nil, err
	}
	s.Resolver = resolver
	if closer != nil {
		s.closers = append(s.closers, closer)
	}

	logger.Info("session opened",
		zap.String("schema", cfg.Schema.Path),
		zap.Int("classes", cache.Len()))
	return s, nil
}

// FromDefinition builds a session around an in-memory definition.
// The session resolves namespaces with the identity resolver.
func FromDefinition(def *schema.Definition, logger *zap.Logger) (*Session, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	cache, err := schema.New(def, schema.WithLogger(logger.Named("schema")))
	if err != nil {
		return nil, err
	}

	s, err := newSession(cache, logger)
	if err != nil {
		return nil, err
	}
	s.Config = config.Default()
	s.Resolver = namespace.Identity{}
	return s, nil
}

func newSession(cache *schema.Cache, logger *zap.Logger) (*Session, error) {
	universe, err := entity.NewUniverse(cache, entity.WithLogger(logger.Named("entity")))
	if err != nil {
		return nil, err
	}
	return &Session{
		Cache:    cache,
		Universe: universe,
		logger:   logger,
	}, nil
}

// SourceFor builds the schema source described by the configuration
func SourceFor(cfg config.SchemaConfig) (schema.Source, error) {
	format, err := source.ParseFormat(cfg.Format)
	if err != nil {
		return nil, err
	}
	return source.File(cfg.Path, source.Options{
		Format:     format,
		XSDPath:    cfg.XSD,
		BuiltinXSD: cfg.BuiltinXSD,
	}), nil
}

// NewResolver builds the namespace resolver described by cfg.
// The returned closer is non-nil when the resolver owns a connection.
// An unreachable Redis cache is logged and resolution continues uncached.
func NewResolver(ctx context.Context, cfg config.NamespaceConfig, logger *zap.Logger) (namespace.Resolver, io.Closer, error) {
	var resolver namespace.Resolver = namespace.Identity{}
	if cfg.Resolver == config.ResolverSchemaWeb {
		resolver = namespace.NewSchemaWeb(cfg.Endpoint,
			namespace.WithTimeout(cfg.Timeout),
			namespace.WithLogger(logger))
	}

	if !cfg.Cache.Enabled {
		return resolver, nil, nil
	}

	storeConfig := namespace.StoreConfig{Prefix: cfg.Cache.Prefix, DefaultTTL: cfg.Cache.TTL}

	switch cfg.Cache.Backend {
	case config.BackendRedis:
		store, err := namespace.NewRedisStore(ctx, namespace.RedisConfig{
			Addr:        cfg.Cache.Addr,
			Password:    cfg.Cache.Password,
			DB:          cfg.Cache.DB,
			StoreConfig: storeConfig,
		})
		if err != nil {
			logger.Warn("namespace cache unavailable, resolving without it",
				zap.String("addr", cfg.Cache.Addr),
				zap.Error(err))
			return resolver, nil, nil
		}
		return namespace.NewCached(resolver, store, cfg.Cache.TTL, logger), store, nil
	case config.BackendMemory:
		return namespace.NewCached(resolver, namespace.NewMemoryStore(storeConfig), cfg.Cache.TTL, logger), nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown namespace cache backend %q", cfg.Cache.Backend)
	}
}

// Resolve maps a public identifier to a schema location
func (s *Session) Resolve(ctx context.Context, publicID string) string {
	return s.Resolver.Resolve(ctx, publicID)
}

// Logger returns the session logger
func (s *Session) Logger() *zap.Logger { return s.logger }

// Close releases connections held by the session
func (s *Session) Close() error {
	var errs []error
	for _, c := range s.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	s.closers = nil
	return errors.Join(errs...)
}
