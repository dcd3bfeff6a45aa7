package search

import (
	"context"

	"github.com/iliyamo/pharmacy-marketplace/internal/model"
)

// ProductStore is the read side of the product catalog the executor runs
// against. Every method evaluates the same Filter so that counts, rows and
// facets describe one result set. Implementations must treat an
// Unsatisfiable filter as matching nothing.
type ProductStore interface {
	CountProducts(ctx context.Context, f Filter) (int64, error)
	// FindProducts returns up to limit listings after skipping offset rows,
	// ordered by sort with the product id as tie-breaker. SortDistance is
	// never passed in.
	FindProducts(ctx context.Context, f Filter, sort Sort, offset, limit int) ([]model.ProductListing, error)
	DistinctCategories(ctx context.Context, f Filter) ([]string, error)
	// PriceRange returns the lowest and highest price of the matching
	// products, or the zero range when nothing matches.
	PriceRange(ctx context.Context, f Filter) (PriceRange, error)
}

// PharmacistStore is the read side of the pharmacist directory.
type PharmacistStore interface {
	CountPharmacists(ctx context.Context, f Filter) (int64, error)
	// FindPharmacists returns up to limit profiles after skipping offset
	// rows, in a stable order.
	FindPharmacists(ctx context.Context, f Filter, offset, limit int) ([]model.PharmacistListing, error)
}
