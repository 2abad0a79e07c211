// Package catalog provides read access to the product catalog: a SQLite
// backed repository and a gRPC client/server pair exposing it to other
// processes.
package catalog

import (
	"context"

	"github.com/sinan-prvt/Hopyfy-Cart/internal/domain"
)

// Reader looks products up by id. Unknown and inactive ids are omitted from
// the result instead of failing the whole batch.
type Reader interface {
	GetProducts(ctx context.Context, ids []string) (map[string]domain.Product, error)
}

// GetProduct is a single-id convenience over Reader. The bool is false when
// the catalog omitted the product.
func GetProduct(ctx context.Context, r Reader, id string) (domain.Product, bool, error) {
	products, err := r.GetProducts(ctx, []string{id})
	if err != nil {
		return domain.Product{}, false, err
	}
	p, ok := products[id]
	return p, ok, nil
}

// UniqueIDs de-duplicates ids preserving first-seen order.
func UniqueIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
