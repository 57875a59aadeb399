package ports

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/aretw0/ironflow/pkg/domain"
	"github.com/aretw0/ironflow/pkg/dtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func contractDocument(title string) *domain.Document {
	doc := domain.NewDocument(title)
	doc.Scripts = []domain.ScriptData{{
		Title: "script_0",
		Flow: domain.FlowData{
			Mode: "data",
			Nodes: []domain.NodeData{
				{
					Identifier: "std.Linspace",
					ID:         "n0",
					Title:      "Linspace",
					Pos:        domain.Position{X: 10, Y: 20},
					Inputs: []domain.PortData{
						{Label: "x1", Type: "data", DType: dtype.Float(), Val: json.RawMessage(`0`)},
					},
					Outputs: []domain.PortData{{Label: "linspace", Type: "data", DType: dtype.List()}},
				},
				{
					Identifier: "std.Sin",
					ID:         "n1",
					Title:      "Sin",
					Inputs:     []domain.PortData{{Label: "x", Type: "data", DType: dtype.Float(dtype.Batched())}},
					Outputs:    []domain.PortData{{Label: "sin", Type: "data", DType: dtype.Float()}},
				},
			},
			Connections: []domain.ConnectionData{{Parent: 0, OutputPort: 0, Connected: 1, InputPort: 0}},
		},
	}}
	return doc
}

// RunSessionStoreContract runs a suite of tests to verify that a SessionStore
// implementation adheres to the interface contract.
func RunSessionStoreContract(t *testing.T, store SessionStore) {
	ctx := context.Background()
	sessionID := "contract-test-session-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		doc := contractDocument("contract")
		require.NoError(t, store.Save(ctx, sessionID, doc), "Save should not return error")

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, "contract", loaded.Title)
		require.Len(t, loaded.Scripts, 1)

		f := loaded.Scripts[0].Flow
		require.Len(t, f.Nodes, 2)
		assert.Equal(t, "std.Linspace", f.Nodes[0].Identifier)
		assert.Equal(t, 20.0, f.Nodes[0].Pos.Y)
		assert.JSONEq(t, `0`, string(f.Nodes[0].Inputs[0].Val))
		require.NotNil(t, f.Nodes[1].Inputs[0].DType)
		assert.True(t, f.Nodes[1].Inputs[0].DType.Batched)
		assert.Equal(t, doc.Scripts[0].Flow.Connections, f.Connections)
	})

	t.Run("Overwrite", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, sessionID, domain.NewDocument("second")))
		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		assert.Equal(t, "second", loaded.Title)
		assert.Empty(t, loaded.Scripts)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, sessionID, contractDocument("to-delete")))
		require.NoError(t, store.Delete(ctx, sessionID), "Delete should not return error")

		_, err := store.Load(ctx, sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound, "Load after Delete should return ErrSessionNotFound")
	})

	t.Run("List", func(t *testing.T) {
		id1 := sessionID + "-1"
		id2 := sessionID + "-2"
		require.NoError(t, store.Save(ctx, id1, domain.NewDocument(id1)))
		require.NoError(t, store.Save(ctx, id2, domain.NewDocument(id2)))
		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		sessions, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, sessions, id1)
		assert.Contains(t, sessions, id2)
	})
}
