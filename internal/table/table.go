// Package table implements the flat columnar file format used for built
// datasets and cached game analyses.
//
// A table file is a single header line followed by the compressed column
// body:
//
//	{"version":1,"kind":"dataset","codec":"zstd","rows":812,...}\n
//	<codec-compressed JSON object of column name -> values>
//
// The header is always plain JSON so a table can be inspected without
// knowing its codec. The body is a struct of equally long slices owned by
// the package that writes the table.
package table

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/discochess/archivist/internal/codec"
	"github.com/discochess/archivist/internal/codec/gzipcodec"
	"github.com/discochess/archivist/internal/codec/noopcodec"
	"github.com/discochess/archivist/internal/codec/zstdcodec"
)

// Version is the current table format version.
const Version = 1

var (
	// ErrCorrupt is returned when a table cannot be decoded.
	ErrCorrupt = errors.New("table: corrupt table")

	// ErrVersion is returned for tables written by an unsupported format version.
	ErrVersion = errors.New("table: unsupported version")

	// ErrKind is returned when a table holds a different kind of data than requested.
	ErrKind = errors.New("table: unexpected kind")
)

// Header describes a table file.
type Header struct {
	Version int       `json:"version"`
	Kind    string    `json:"kind"`
	Codec   string    `json:"codec"`
	Rows    int       `json:"rows"`
	Columns []string  `json:"columns"`
	BuiltAt time.Time `json:"built_at"`
}

// DefaultRegistry returns a registry holding every codec a table can be
// written with.
func DefaultRegistry() codec.Registry {
	r := codec.Registry{}
	r.Register(zstdcodec.New())
	r.Register(gzipcodec.New())
	r.Register(noopcodec.New())
	return r
}

// Marshal encodes body under h using c. The header's Version and Codec
// fields are filled in.
func Marshal(c codec.Codec, h Header, body any) ([]byte, error) {
	h.Version = Version
	h.Codec = c.Name()
	if h.BuiltAt.IsZero() {
		h.BuiltAt = time.Now().UTC()
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(h); err != nil {
		return nil, fmt.Errorf("encoding header: %w", err)
	}

	w, err := c.Writer(&buf)
	if err != nil {
		return nil, fmt.Errorf("creating %s writer: %w", c.Name(), err)
	}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		w.Close()
		return nil, fmt.Errorf("encoding body: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("flushing %s writer: %w", c.Name(), err)
	}
	return buf.Bytes(), nil
}

// ReadHeader decodes only the header of a table.
func ReadHeader(data []byte) (*Header, []byte, error) {
	line, rest, ok := bytes.Cut(data, []byte("\n"))
	if !ok {
		return nil, nil, fmt.Errorf("%w: missing header", ErrCorrupt)
	}
	var h Header
	if err := json.Unmarshal(line, &h); err != nil {
		return nil, nil, fmt.Errorf("%w: header: %v", ErrCorrupt, err)
	}
	if h.Version != Version {
		return nil, nil, fmt.Errorf("%w: %d", ErrVersion, h.Version)
	}
	return &h, rest, nil
}

// Unmarshal decodes a table of the given kind into body, resolving the
// codec from reg.
func Unmarshal(data []byte, reg codec.Registry, kind string, body any) (*Header, error) {
	h, rest, err := ReadHeader(data)
	if err != nil {
		return nil, err
	}
	if h.Kind != kind {
		return nil, fmt.Errorf("%w: got %q, want %q", ErrKind, h.Kind, kind)
	}

	c, err := reg.Lookup(h.Codec)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	r, err := c.Reader(bytes.NewReader(rest))
	if err != nil {
		return nil, fmt.Errorf("%w: %s reader: %v", ErrCorrupt, h.Codec, err)
	}
	defer r.Close()

	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: decompressing body: %v", ErrCorrupt, err)
	}
	if err := json.Unmarshal(raw, body); err != nil {
		return nil, fmt.Errorf("%w: body: %v", ErrCorrupt, err)
	}
	return h, nil
}

// CheckLengths returns an error unless every column has n entries.
func CheckLengths(n int, columns map[string]int) error {
	for name, got := range columns {
		if got != n {
			return fmt.Errorf("%w: column %s has %d rows, want %d", ErrCorrupt, name, got, n)
		}
	}
	return nil
}
