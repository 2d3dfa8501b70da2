package session

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	"github.com/ontograph/ontograph/internal/config"
	"github.com/ontograph/ontograph/internal/entity"
	"github.com/ontograph/ontograph/internal/namespace"
	"github.com/ontograph/ontograph/internal/schema"
)

const petsYAML = `classes:
  - id: Animal
    abstract: true
  - id: Dog
    parentage: [Animal]
    associations:
      - id: owner
        type: Person
        maxCardinality: 1
        headCardinality: 1
  - id: Person
`

func writeSchema(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pets.yaml")
	require.NoError(t, os.WriteFile(path, []byte(petsYAML), 0644))
	return path
}

func TestOpen(t *testing.T) {
	cfg := config.Default()
	cfg.Schema.Path = writeSchema(t)
	cfg.Namespace.Resolver = config.ResolverIdentity

	s, err := Open(context.Background(), cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	defer s.Close()

	assert.Equal(t, 3, s.Cache.Len())
	assert.Equal(t, "urn:x", s.Resolve(context.Background(), "urn:x"))

	person, err := s.Universe.New("Person")
	require.NoError(t, err)
	dog, err := s.Universe.New("Dog", entity.V("owner", person))
	require.NoError(t, err)

	holders, ok := person.ReverseReferencesOf("Dog")
	require.True(t, ok)
	assert.Equal(t, []*entity.Entity{dog}, holders)
}

func TestOpen_Errors(t *testing.T) {
	t.Run("no schema path", func(t *testing.T) {
		_, err := Open(context.Background(), config.Default(), nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "schema.path")
	})

	t.Run("missing schema file", func(t *testing.T) {
		cfg := config.Default()
		cfg.Schema.Path = filepath.Join(t.TempDir(), "missing.yaml")
		_, err := Open(context.Background(), cfg, nil)
		assert.True(t, schema.IsSchemaLoad(err))
	})

	t.Run("bad format", func(t *testing.T) {
		cfg := config.Default()
		cfg.Schema.Path = writeSchema(t)
		cfg.Schema.Format = "toml"
		_, err := Open(context.Background(), cfg, nil)
		assert.Error(t, err)
	})

	t.Run("cyclic schema", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "cycle.yaml")
		doc := "classes:\n  - id: A\n    parentage: [B]\n  - id: B\n    parentage: [A]\n"
		require.NoError(t, os.WriteFile(path, []byte(doc), 0644))

		cfg := config.Default()
		cfg.Schema.Path = path
		_, err := Open(context.Background(), cfg, nil)
		assert.True(t, schema.IsSchemaCycle(err))
	})
}

func TestFromDefinition(t *testing.T) {
	def := &schema.Definition{Classes: []schema.ClassDef{{ID: "Thing"}}}
	s, err := FromDefinition(def, nil)
	require.NoError(t, err)
	defer s.Close()

	_, err = s.Universe.New("Thing")
	require.NoError(t, err)
	assert.Equal(t, 1, s.Universe.Count())
	assert.Equal(t, 20, s.Config.Schema.MaxPasses)

	// sessions are independent
	other, err := FromDefinition(def, nil)
	require.NoError(t, err)
	assert.Zero(t, other.Universe.Count())
}

func TestNewResolver(t *testing.T) {
	ctx := context.Background()

	t.Run("identity", func(t *testing.T) {
		cfg := config.Default().Namespace
		cfg.Resolver = config.ResolverIdentity
		r, closer, err := NewResolver(ctx, cfg, zap.NewNop())
		require.NoError(t, err)
		assert.Nil(t, closer)
		assert.IsType(t, namespace.Identity{}, r)
	})

	t.Run("schemaweb", func(t *testing.T) {
		r, _, err := NewResolver(ctx, config.Default().Namespace, zap.NewNop())
		require.NoError(t, err)
		assert.IsType(t, &namespace.SchemaWeb{}, r)
	})

	t.Run("memory cache", func(t *testing.T) {
		cfg := config.Default().Namespace
		cfg.Cache.Enabled = true
		r, closer, err := NewResolver(ctx, cfg, zap.NewNop())
		require.NoError(t, err)
		assert.Nil(t, closer)
		assert.IsType(t, &namespace.Cached{}, r)
	})

	t.Run("redis cache", func(t *testing.T) {
		mr := miniredis.RunT(t)

		cfg := config.Default().Namespace
		cfg.Resolver = config.ResolverIdentity
		cfg.Cache.Enabled = true
		cfg.Cache.Backend = config.BackendRedis
		cfg.Cache.Addr = mr.Addr()

		r, closer, err := NewResolver(ctx, cfg, zap.NewNop())
		require.NoError(t, err)
		require.NotNil(t, closer)
		defer closer.Close()
		assert.IsType(t, &namespace.Cached{}, r)
	})

	t.Run("redis unavailable", func(t *testing.T) {
		core, logs := observer.New(zap.WarnLevel)

		cfg := config.Default().Namespace
		cfg.Resolver = config.ResolverIdentity
		cfg.Cache.Enabled = true
		cfg.Cache.Backend = config.BackendRedis
		cfg.Cache.Addr = "localhost:99999"

		r, closer, err := NewResolver(ctx, cfg, zap.New(core))
		require.NoError(t, err)
		assert.Nil(t, closer)
		assert.IsType(t, namespace.Identity{}, r)
		assert.Equal(t, 1, logs.FilterMessage("namespace cache unavailable, resolving without it").Len())
	})
}
