// Package codec encodes session documents for the stores that keep them as
// opaque bytes (memory, Redis, SQLite).
//
// A Serializer pairs a Codec (JSON or MessagePack) with an optional
// compression step (gzip or zstd).
package codec

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/vmihailenco/msgpack/v5"
)

// ErrUnknownCodec is returned by ForName and ParseCompression.
var ErrUnknownCodec = errors.New("unknown codec")

// Codec turns values into bytes and back.
type Codec interface {
	Encode(v any) ([]byte, error)
	Decode(data []byte, v any) error
	Name() string
}

// JSON is the default codec; documents stay human readable.
type JSON struct{}

func (JSON) Encode(v any) ([]byte, error)    { return json.Marshal(v) }
func (JSON) Decode(data []byte, v any) error { return json.Unmarshal(data, v) }
func (JSON) Name() string                    { return "json" }

// MsgPack trades readability for size.
type MsgPack struct{}

func (MsgPack) Encode(v any) ([]byte, error) { return msgpack.Marshal(v) }

func (MsgPack) Decode(data []byte, v any) error {
	dec := msgpack.NewDecoder(bytes.NewReader(data))
	dec.UseLooseInterfaceDecoding(true)
	return dec.Decode(v)
}

func (MsgPack) Name() string { return "msgpack" }

// ForName returns the codec called name ("json" or "msgpack"). An empty name
// selects JSON.
func ForName(name string) (Codec, error) {
	switch name {
	case "", "json":
		return JSON{}, nil
	case "msgpack":
		return MsgPack{}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownCodec, name)
}

// Compression names a compression algorithm.
type Compression string

const (
	CompressionNone Compression = "none"
	CompressionGzip Compression = "gzip"
	CompressionZstd Compression = "zstd"
)

// ParseCompression validates a compression name. Empty means none.
func ParseCompression(s string) (Compression, error) {
	switch c := Compression(s); c {
	case "", CompressionNone:
		return CompressionNone, nil
	case CompressionGzip, CompressionZstd:
		return c, nil
	}
	return "", fmt.Errorf("%w: compression %q", ErrUnknownCodec, s)
}

// Serializer encodes then compresses.
type Serializer struct {
	Codec       Codec
	Compression Compression
}

// Default is plain JSON.
func Default() *Serializer {
	return &Serializer{Codec: JSON{}, Compression: CompressionNone}
}

// New builds a serializer from names, as found in configuration.
func New(codecName, compression string) (*Serializer, error) {
	c, err := ForName(codecName)
	if err != nil {
		return nil, err
	}
	comp, err := ParseCompression(compression)
	if err != nil {
		return nil, err
	}
	return &Serializer{Codec: c, Compression: comp}, nil
}

// Marshal encodes and compresses v.
func (s *Serializer) Marshal(v any) ([]byte, error) {
	data, err := s.Codec.Encode(v)
	if err != nil {
		return nil, fmt.Errorf("%s encoding failed: %w", s.Codec.Name(), err)
	}
	data, err = s.compress(data)
	if err != nil {
		return nil, fmt.Errorf("%s compression failed: %w", s.Compression, err)
	}
	return data, nil
}

// Unmarshal decompresses and decodes data into v.
func (s *Serializer) Unmarshal(data []byte, v any) error {
	data, err := s.decompress(data)
	if err != nil {
		return fmt.Errorf("%s decompression failed: %w", s.Compression, err)
	}
	if err := s.Codec.Decode(data, v); err != nil {
		return fmt.Errorf("%s decoding failed: %w", s.Codec.Name(), err)
	}
	return nil
}

func (s *Serializer) compress(data []byte) ([]byte, error) {
	switch s.Compression {
	case CompressionGzip:
		var buf bytes.Buffer
		w := gzip.NewWriter(&buf)
		if _, err := w.Write(data); err != nil {
			return nil, err
		}
		if err := w.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case CompressionZstd:
		enc, err := zstd.NewWriter(nil)
		if err != nil {
			return nil, err
		}
		defer enc.Close()
		return enc.EncodeAll(data, nil), nil
	}
	return data, nil
}

func (s *Serializer) decompress(data []byte) ([]byte, error) {
	switch s.Compression {
	case CompressionGzip:
		r, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		defer r.Close()
		return io.ReadAll(r)
	case CompressionZstd:
		dec, err := zstd.NewReader(nil)
		if err != nil {
			return nil, err
		}
		defer dec.Close()
		return dec.DecodeAll(data, nil)
	}
	return data, nil
}
