package cli

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/ironflow/internal/config"
	"github.com/aretw0/ironflow/pkg/domain"
	"github.com/aretw0/ironflow/pkg/ports"
)

func TestNewApp(t *testing.T) {
	cfg := config.Default()
	cfg.Store.Kind = "memory"

	app, err := NewApp(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })

	assert.Nil(t, app.Store, "the store opens on demand")
	assert.NotEmpty(t, app.NewService().Templates("std"))

	require.NoError(t, app.OpenStore(context.Background()))
	assert.NotNil(t, app.Sessions)
	assert.NotNil(t, app.Service)
}

func TestNewApp_BadOntology(t *testing.T) {
	cfg := config.Default()
	cfg.Ontologies = []string{filepath.Join(t.TempDir(), "missing.yaml")}

	_, err := NewApp(cfg)
	assert.Error(t, err)
}

func TestOpenStore(t *testing.T) {
	mr := miniredis.RunT(t)

	tests := []struct {
		name   string
		mutate func(c *config.Config)
		locker bool
	}{
		{name: "memory", mutate: func(c *config.Config) { c.Store.Kind = "memory" }},
		{name: "memory msgpack zstd", mutate: func(c *config.Config) {
			c.Store.Kind = "memory"
			c.Store.Codec = "msgpack"
			c.Store.Compression = "zstd"
		}},
		{name: "file", mutate: func(c *config.Config) { c.Store.Dir = filepath.Join(t.TempDir(), "sessions") }},
		{name: "sqlite", mutate: func(c *config.Config) {
			c.Store.Kind = "sqlite"
			c.Store.SQLitePath = filepath.Join(t.TempDir(), "ironflow.db")
		}},
		{name: "redis", locker: true, mutate: func(c *config.Config) {
			c.Store.Kind = "redis"
			c.Store.RedisAddr = mr.Addr()
		}},
		{name: "encrypted and redacted", mutate: func(c *config.Config) {
			c.Store.Kind = "memory"
			c.EncryptionKey = strings.Repeat("ab", 32)
			c.Redact = []string{"password"}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.mutate(cfg)

			store, locker, closer, err := OpenStore(context.Background(), cfg)
			require.NoError(t, err)
			if closer != nil {
				t.Cleanup(func() { _ = closer.Close() })
			}
			assert.Equal(t, tt.locker, locker != nil)
			ports.RunSessionStoreContract(t, store)
		})
	}
}

func TestOpenStore_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *config.Config)
	}{
		{name: "unknown kind", mutate: func(c *config.Config) { c.Store.Kind = "etcd" }},
		{name: "unknown codec", mutate: func(c *config.Config) { c.Store.Codec = "xml" }},
		{name: "bad key", mutate: func(c *config.Config) { c.EncryptionKey = "zz" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.mutate(cfg)
			_, _, _, err := OpenStore(context.Background(), cfg)
			assert.Error(t, err)
		})
	}
}

func TestApp_SessionRoundTrip(t *testing.T) {
	cfg := config.Default()
	cfg.Store.Kind = "memory"
	app, err := NewApp(cfg)
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, app.OpenStore(ctx))

	doc, err := app.Ironflow.Serialize()
	require.NoError(t, err)
	_, err = app.Service.SaveSession(ctx, "s", doc)
	require.NoError(t, err)

	loaded, err := app.Store.Load(ctx, "s")
	require.NoError(t, err)
	assert.Equal(t, "ironflow", loaded.Title)

	_, err = app.Store.Load(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}
