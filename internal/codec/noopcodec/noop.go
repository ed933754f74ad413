// Package noopcodec stores tables uncompressed, which keeps them readable
// with a text editor when debugging.
package noopcodec

import (
	"io"

	"github.com/discochess/archivist/internal/codec"
)

// Compile-time check that Codec implements codec.Codec.
var _ codec.Codec = Codec{}

// Codec passes bytes through unchanged.
type Codec struct{}

// New returns the pass-through codec.
func New() Codec { return Codec{} }

// Reader never closes r.
func (Codec) Reader(r io.Reader) (io.ReadCloser, error) {
	return io.NopCloser(r), nil
}

// Writer never closes w.
func (Codec) Writer(w io.Writer) (io.WriteCloser, error) {
	return passthrough{w}, nil
}

// Name returns "none", the name recorded in table headers.
func (Codec) Name() string { return "none" }

type passthrough struct{ io.Writer }

func (passthrough) Close() error { return nil }
