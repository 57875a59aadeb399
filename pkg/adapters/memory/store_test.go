package memory_test

import (
	"context"
	"testing"

	"github.com/aretw0/ironflow/pkg/adapters/memory"
	"github.com/aretw0/ironflow/pkg/codec"
	"github.com/aretw0/ironflow/pkg/domain"
	"github.com/aretw0/ironflow/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_Contract(t *testing.T) {
	ports.RunSessionStoreContract(t, memory.NewStore())
}

func TestMemoryStore_MsgPackZstd(t *testing.T) {
	s, err := codec.New("msgpack", "zstd")
	require.NoError(t, err)
	ports.RunSessionStoreContract(t, memory.NewStore(memory.WithSerializer(s)))
}

func TestMemoryStore_Isolation(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	doc := domain.NewDocument("original")
	require.NoError(t, store.Save(ctx, "s", doc))

	doc.Title = "mutated"
	loaded, err := store.Load(ctx, "s")
	require.NoError(t, err)
	assert.Equal(t, "original", loaded.Title)
}
