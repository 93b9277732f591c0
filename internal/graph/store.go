package graph

import "context"

// Store is the contract both graph backends satisfy. Lookups on unknown
// entities return empty slices, not errors. Limits are non-negative;
// edge lookups return at most limit triples.
type Store interface {
	Reset(ctx context.Context) error
	AddTriple(ctx context.Context, t Triple) error
	OutEdges(ctx context.Context, entity string, limit int) ([]Triple, error)
	InEdges(ctx context.Context, entity string, limit int) ([]Triple, error)
	Close(ctx context.Context) error
}
