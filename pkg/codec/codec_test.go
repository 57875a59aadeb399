package codec_test

import (
	"encoding/json"
	"testing"

	"github.com/aretw0/ironflow/pkg/codec"
	"github.com/aretw0/ironflow/pkg/domain"
	"github.com/aretw0/ironflow/pkg/dtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func document() *domain.Document {
	doc := domain.NewDocument("codec")
	doc.Scripts = []domain.ScriptData{{
		Title: "script_0",
		Flow: domain.FlowData{
			Mode: "data",
			Nodes: []domain.NodeData{{
				Identifier: "std.Linspace",
				Pos:        domain.Position{X: 1.5, Y: -2},
				Inputs: []domain.PortData{{
					Label: "x1",
					Type:  "data",
					DType: dtype.Float(dtype.WithBounds(0, 10)),
					Val:   json.RawMessage(`[1,2.5]`),
				}},
			}},
			Connections: []domain.ConnectionData{{Parent: 0, OutputPort: 0, Connected: 0, InputPort: 0}},
		},
	}}
	return doc
}

func TestSerializers(t *testing.T) {
	tests := []struct {
		codec       string
		compression string
	}{
		{"json", "none"},
		{"json", "gzip"},
		{"msgpack", ""},
		{"msgpack", "zstd"},
	}
	for _, tt := range tests {
		t.Run(tt.codec+"/"+tt.compression, func(t *testing.T) {
			s, err := codec.New(tt.codec, tt.compression)
			require.NoError(t, err)

			in := document()
			data, err := s.Marshal(in)
			require.NoError(t, err)

			var out domain.Document
			require.NoError(t, s.Unmarshal(data, &out))
			assert.Equal(t, in.Title, out.Title)
			require.Len(t, out.Scripts, 1)

			n := out.Scripts[0].Flow.Nodes[0]
			assert.Equal(t, domain.Position{X: 1.5, Y: -2}, n.Pos)
			assert.JSONEq(t, `[1,2.5]`, string(n.Inputs[0].Val))
			require.NotNil(t, n.Inputs[0].DType)
			assert.Equal(t, dtype.KindFloat, n.Inputs[0].DType.Kind)
			require.NotNil(t, n.Inputs[0].DType.Bounds)
			require.NotNil(t, n.Inputs[0].DType.Bounds.Max)
			assert.Equal(t, 10.0, *n.Inputs[0].DType.Bounds.Max)
			assert.Equal(t, in.Scripts[0].Flow.Connections, out.Scripts[0].Flow.Connections)
		})
	}
}

func TestUnknown(t *testing.T) {
	_, err := codec.New("xml", "")
	assert.ErrorIs(t, err, codec.ErrUnknownCodec)
	_, err = codec.New("json", "brotli")
	assert.ErrorIs(t, err, codec.ErrUnknownCodec)
}
