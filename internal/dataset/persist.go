package dataset

import (
	"context"
	"fmt"

	"github.com/discochess/archivist/internal/codec"
	"github.com/discochess/archivist/internal/store"
	"github.com/discochess/archivist/internal/table"
)

const (
	tableKind = "dataset"
	tableExt  = ".table"
)

// Key returns the store key of username's dataset.
func Key(username string) string {
	return username + tableExt
}

// Save writes ds to s under Key(ds.Username), replacing any previous table.
func Save(ctx context.Context, s store.Store, c codec.Codec, ds *Dataset) error {
	data, err := table.Marshal(c, table.Header{
		Kind:    tableKind,
		Rows:    ds.Len(),
		Columns: ds.Columns(),
	}, ds)
	if err != nil {
		return fmt.Errorf("encoding dataset %s: %w", ds.Username, err)
	}
	if err := s.Write(ctx, Key(ds.Username), data); err != nil {
		return fmt.Errorf("writing dataset %s: %w", ds.Username, err)
	}
	return nil
}

// Load reads username's dataset from s. Returns store.ErrNotFound when it
// has not been built.
func Load(ctx context.Context, s store.Store, username string) (*Dataset, error) {
	data, err := s.Read(ctx, Key(username))
	if err != nil {
		return nil, err
	}

	var ds Dataset
	if _, err := table.Unmarshal(data, table.DefaultRegistry(), tableKind, &ds); err != nil {
		return nil, fmt.Errorf("decoding dataset %s: %w", username, err)
	}
	if err := ds.check(); err != nil {
		return nil, fmt.Errorf("decoding dataset %s: %w", username, err)
	}
	return &ds, nil
}

// check verifies that every column has one entry per row.
func (d *Dataset) check() error {
	lengths := map[string]int{
		"pgn":               len(d.PGN),
		ColumnPlayerResult:  len(d.PlayerResult),
		ColumnPlayerColour:  len(d.PlayerColour),
		ColumnEloDifference: len(d.EloDifference),
		ColumnGameLength:    len(d.GameLength),
	}
	for name, col := range d.Text {
		lengths[name] = len(col)
	}
	for name, col := range d.Dates {
		lengths[name] = len(col)
	}
	for name, col := range d.Times {
		lengths[name] = len(col)
	}
	for name, col := range d.Elos {
		lengths[name] = len(col)
	}
	for name, col := range d.Categorical {
		lengths[name] = len(col.Codes)
	}
	return table.CheckLengths(d.Len(), lengths)
}
