package region

import (
	"bytes"
	"fmt"
	"io"
	"sync"

	"github.com/klauspost/compress/zstd"
)

// decoderPool manages reusable zstd decoders to avoid per-blob allocation.
type decoderPool struct {
	pool      sync.Pool
	maxMemory uint64
}

func newDecoderPool(maxMemory uint64) *decoderPool {
	p := &decoderPool{maxMemory: maxMemory}
	p.pool.New = func() any {
		dec, err := p.newDecoder()
		if err != nil {
			return nil
		}
		return dec
	}
	return p
}

func (p *decoderPool) newDecoder() (*zstd.Decoder, error) {
	opts := []zstd.DOption{zstd.WithDecoderConcurrency(1)}
	if p.maxMemory != 0 {
		opts = append(opts, zstd.WithDecoderMaxMemory(p.maxMemory))
	}
	return zstd.NewReader(nil, opts...)
}

// decompress inflates src, bounding output to the declared length. A stream
// that inflates past dstLen is an error, matching the writer's contract that
// the record header states the exact uncompressed size.
func (p *decoderPool) decompress(src []byte, dstLen int) ([]byte, error) {
	if dstLen < 0 {
		return nil, fmt.Errorf("negative uncompressed length %d", dstLen)
	}

	dec, release, err := p.get(bytes.NewReader(src))
	if err != nil {
		return nil, err
	}
	defer release()

	out := make([]byte, dstLen)
	if _, err := io.ReadFull(dec, out); err != nil {
		return nil, err
	}

	// The stream must end exactly at the declared length.
	var extra [1]byte
	if n, err := dec.Read(extra[:]); n > 0 || (err != nil && err != io.EOF) {
		if n > 0 {
			return nil, fmt.Errorf("output exceeds declared length %d", dstLen)
		}
		return nil, err
	}
	return out, nil
}

func (p *decoderPool) get(r io.Reader) (*zstd.Decoder, func(), error) {
	value := p.pool.Get()
	dec, ok := value.(*zstd.Decoder)
	if !ok || dec == nil {
		fresh, err := p.newDecoder()
		if err != nil {
			return nil, nil, err
		}
		dec = fresh
	}
	if err := dec.Reset(r); err != nil {
		dec.Close()
		return nil, nil, err
	}
	return dec, func() {
		_ = dec.Reset(nil)
		p.pool.Put(dec)
	}, nil
}
