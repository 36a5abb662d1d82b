package archive

import (
	"context"
	"errors"
	"fmt"

	"github.com/roach88/modintegrator/internal/asset"
)

// Store searches the output, mod and base layers in priority order and
// writes into the output layer.
type Store struct {
	base []Reader
	mods []Reader
	out  Writer
}

// NewStore builds a store. mods must be ordered highest priority first.
func NewStore(base, mods []Reader, out Writer) *Store {
	return &Store{base: base, mods: mods, out: out}
}

// Record returns the raw bytes of path from the highest-priority layer that
// holds it.
func (s *Store) Record(ctx context.Context, path string) ([]byte, error) {
	layers := make([]Reader, 0, 1+len(s.mods)+len(s.base))
	if s.out != nil {
		layers = append(layers, s.out)
	}
	layers = append(layers, s.mods...)
	layers = append(layers, s.base...)

	for _, layer := range layers {
		data, err := layer.Get(ctx, path)
		if err == nil {
			return data, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return nil, err
		}
	}
	return nil, fmt.Errorf("%s: %w", path, ErrNotFound)
}

// Graph returns the decoded graph for path. A record that fails to decode or
// validate yields an error matching asset.ErrInvalidGraph.
func (s *Store) Graph(ctx context.Context, path string) (*asset.Graph, error) {
	data, err := s.Record(ctx, path)
	if err != nil {
		return nil, err
	}
	g, err := asset.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return g, nil
}

// PutGraph encodes g and writes it into the output layer.
func (s *Store) PutGraph(ctx context.Context, path string, g *asset.Graph) error {
	if s.out == nil {
		return errors.New("store has no output archive")
	}
	data, err := asset.Encode(g)
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return s.out.Put(ctx, path, data)
}
