package middleware_test

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"testing"

	"github.com/aretw0/ironflow/pkg/adapters/memory"
	"github.com/aretw0/ironflow/pkg/domain"
	"github.com/aretw0/ironflow/pkg/persistence/middleware"
	"github.com/aretw0/ironflow/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func generateKey(t *testing.T) []byte {
	t.Helper()
	k := make([]byte, 32)
	_, err := rand.Read(k)
	require.NoError(t, err)
	return k
}

func secretDocument() *domain.Document {
	doc := domain.NewDocument("secret")
	doc.Scripts = []domain.ScriptData{{Title: "script_0", Flow: domain.FlowData{
		Nodes: []domain.NodeData{{
			Identifier: "std.Input",
			Inputs:     []domain.PortData{{Label: "password", Val: json.RawMessage(`"hunter2"`)}},
			State:      map[string]any{"api_token": "abc", "note": "public"},
		}},
	}}}
	return doc
}

func TestEncryptionMiddleware_Contract(t *testing.T) {
	mw := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})
	ports.RunSessionStoreContract(t, mw(memory.NewStore()))
}

func TestEncryptionMiddleware_Roundtrip(t *testing.T) {
	underlying := memory.NewStore()
	secure := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})(underlying)
	ctx := context.Background()

	require.NoError(t, secure.Save(ctx, "s", secretDocument()))

	stored, err := underlying.Load(ctx, "s")
	require.NoError(t, err)
	assert.Empty(t, stored.Scripts, "scripts must be hidden")
	assert.NotEmpty(t, stored.Sealed)
	assert.Equal(t, "secret", stored.Title)

	loaded, err := secure.Load(ctx, "s")
	require.NoError(t, err)
	require.Len(t, loaded.Scripts, 1)
	assert.JSONEq(t, `"hunter2"`, string(loaded.Scripts[0].Flow.Nodes[0].Inputs[0].Val))
}

func TestEncryptionMiddleware_KeyRotation(t *testing.T) {
	underlying := memory.NewStore()
	oldKey, newKey := generateKey(t), generateKey(t)
	ctx := context.Background()

	oldStore := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: oldKey})(underlying)
	require.NoError(t, oldStore.Save(ctx, "s", secretDocument()))

	newStore := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
		ActiveKey:    newKey,
		FallbackKeys: [][]byte{oldKey},
	})(underlying)
	doc, err := newStore.Load(ctx, "s")
	require.NoError(t, err, "fallback key must decrypt")

	require.NoError(t, newStore.Save(ctx, "s", doc))
	_, err = oldStore.Load(ctx, "s")
	assert.Error(t, err, "the old key alone cannot read re-encrypted documents")
}

func TestEncryptionMiddleware_PlainDocument(t *testing.T) {
	underlying := memory.NewStore()
	ctx := context.Background()
	require.NoError(t, underlying.Save(ctx, "plain", domain.NewDocument("plain")))

	secure := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})(underlying)
	_, err := secure.Load(ctx, "plain")
	assert.ErrorIs(t, err, middleware.ErrNotSealed)
}

func TestEncryptionMiddleware_InvalidKey(t *testing.T) {
	assert.Panics(t, func() {
		middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: []byte("short-key")})
	})
}
