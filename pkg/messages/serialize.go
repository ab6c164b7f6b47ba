package messages

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/cbodonnell/reactions/pkg/game/types"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

const (
	EncodingZstd     = "zstd"
	EncodingGzip     = "gzip"
	EncodingIdentity = "identity"
)

// AcceptEncoding is the Accept-Encoding header value sent with every request.
const AcceptEncoding = EncodingZstd + ", " + EncodingGzip

func SerializeRequest(r *Request) ([]byte, error) {
	b, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize request: %v", err)
	}
	return b, nil
}

// DeserializeEnvelope validates data against the envelope schema and decodes it.
func DeserializeEnvelope(data []byte) (*types.Envelope, error) {
	if err := ValidateEnvelope(data); err != nil {
		return nil, err
	}
	envelope := &types.Envelope{}
	if err := json.Unmarshal(data, envelope); err != nil {
		return nil, fmt.Errorf("failed to deserialize envelope: %v", err)
	}
	return envelope, nil
}

// Decompress reads the whole body, undoing the given Content-Encoding.
func Decompress(body io.Reader, contentEncoding string) ([]byte, error) {
	switch strings.ToLower(strings.TrimSpace(contentEncoding)) {
	case "", EncodingIdentity:
		return io.ReadAll(io.LimitReader(body, MessageBufferSize))
	case EncodingZstd:
		compReader, err := zstd.NewReader(body)
		if err != nil {
			return nil, fmt.Errorf("failed to create zstd reader: %v", err)
		}
		defer compReader.Close()
		b, err := io.ReadAll(io.LimitReader(compReader, MessageBufferSize))
		if err != nil {
			return nil, fmt.Errorf("failed to read decompressed body: %v", err)
		}
		return b, nil
	case EncodingGzip:
		compReader, err := gzip.NewReader(body)
		if err != nil {
			return nil, fmt.Errorf("failed to create gzip reader: %v", err)
		}
		defer compReader.Close()
		b, err := io.ReadAll(io.LimitReader(compReader, MessageBufferSize))
		if err != nil {
			return nil, fmt.Errorf("failed to read decompressed body: %v", err)
		}
		return b, nil
	default:
		return nil, fmt.Errorf("unsupported content encoding: %s", contentEncoding)
	}
}

// Compress encodes data with the given Content-Encoding.
func Compress(data []byte, contentEncoding string) ([]byte, error) {
	compressed := bytes.NewBuffer(nil)
	var compWriter io.WriteCloser
	switch contentEncoding {
	case "", EncodingIdentity:
		return data, nil
	case EncodingZstd:
		w, err := zstd.NewWriter(compressed, zstd.WithEncoderLevel(zstd.SpeedFastest))
		if err != nil {
			return nil, fmt.Errorf("failed to create zstd writer: %v", err)
		}
		compWriter = w
	case EncodingGzip:
		w, err := gzip.NewWriterLevel(compressed, gzip.BestSpeed)
		if err != nil {
			return nil, fmt.Errorf("failed to create gzip writer: %v", err)
		}
		compWriter = w
	default:
		return nil, fmt.Errorf("unsupported content encoding: %s", contentEncoding)
	}

	if _, err := compWriter.Write(data); err != nil {
		return nil, fmt.Errorf("failed to compress body: %v", err)
	}
	if err := compWriter.Close(); err != nil {
		return nil, fmt.Errorf("failed to close %s writer: %v", contentEncoding, err)
	}
	return compressed.Bytes(), nil
}
