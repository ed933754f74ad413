// Package codec provides compression and decompression for stored tables.
package codec

import (
	"fmt"
	"io"
)

// Codec provides compression and decompression functionality.
type Codec interface {
	// Reader wraps r to decompress data read from it.
	Reader(r io.Reader) (io.ReadCloser, error)
	// Writer wraps w to compress data written to it.
	Writer(w io.Writer) (io.WriteCloser, error)
	// Name identifies the codec inside a table header (e.g., "zstd", "gzip").
	// Returns "none" for no compression.
	Name() string
}

// Registry resolves codecs by the name recorded in a table header.
type Registry map[string]Codec

// Register adds c under its own name.
func (r Registry) Register(c Codec) {
	r[c.Name()] = c
}

// Lookup returns the codec registered under name.
func (r Registry) Lookup(name string) (Codec, error) {
	c, ok := r[name]
	if !ok {
		return nil, fmt.Errorf("codec: unknown codec %q", name)
	}
	return c, nil
}
