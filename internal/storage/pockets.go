package storage

import (
	"context"
	"fmt"

	"kantong/internal/core"
)

// GetPocket loads a pocket or returns core.ErrNotFound.
func (r *Repository) GetPocket(ctx context.Context, id string) (core.Pocket, error) {
	var p core.Pocket
	found, err := r.getJSON(ctx, PocketKey(id), &p)
	if err != nil {
		return core.Pocket{}, err
	}
	if !found {
		return core.Pocket{}, fmt.Errorf("%w: pocket %s", core.ErrNotFound, id)
	}
	return p, nil
}

func (r *Repository) PutPocket(ctx context.Context, p core.Pocket) error {
	return r.putJSON(ctx, PocketKey(p.ID), p)
}

// ListPockets returns every stored pocket in backend order.
func (r *Repository) ListPockets(ctx context.Context) ([]core.Pocket, error) {
	return scanJSON[core.Pocket](ctx, r.kv, PrefixPocket)
}

// NewPocketID generates an id for a custom pocket.
func (r *Repository) NewPocketID() string {
	return r.newID()
}
