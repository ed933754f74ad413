// Package gzipcodec compresses tables with gzip, for consumers that cannot
// read zstd.
package gzipcodec

import (
	"compress/gzip"
	"fmt"
	"io"

	"github.com/discochess/archivist/internal/codec"
)

// Compile-time check that Codec implements codec.Codec.
var _ codec.Codec = (*Codec)(nil)

// Codec implements gzip compression at a fixed level.
type Codec struct {
	level int
}

// New returns a gzip codec at gzip.DefaultCompression.
func New() *Codec {
	return &Codec{level: gzip.DefaultCompression}
}

// NewWithLevel returns a gzip codec at level, which must be a valid
// compress/gzip level.
func NewWithLevel(level int) (*Codec, error) {
	if level < gzip.HuffmanOnly || level > gzip.BestCompression {
		return nil, fmt.Errorf("gzipcodec: invalid level %d", level)
	}
	return &Codec{level: level}, nil
}

func (c *Codec) Reader(r io.Reader) (io.ReadCloser, error) {
	return gzip.NewReader(r)
}

func (c *Codec) Writer(w io.Writer) (io.WriteCloser, error) {
	return gzip.NewWriterLevel(w, c.level)
}

// Name returns "gzip".
func (c *Codec) Name() string {
	return "gzip"
}
