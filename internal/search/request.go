package search

import (
	"github.com/iliyamo/pharmacy-marketplace/internal/geo"
)

// SortKey names a column products can be ordered by.
type SortKey string

const (
	SortCreatedAt  SortKey = "createdAt"
	SortPrice      SortKey = "price"
	SortExpiryDate SortKey = "expiryDate"
	// SortDistance cannot be pushed to the store. The page is fetched in
	// createdAt order and re-sorted in memory, so the ordering only holds
	// within a page.
	SortDistance SortKey = "distance"
)

// ParseSortKey reports whether s names a known sort key.
func ParseSortKey(s string) (SortKey, bool) {
	switch SortKey(s) {
	case SortCreatedAt, SortPrice, SortExpiryDate, SortDistance:
		return SortKey(s), true
	}
	return "", false
}

type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

func ParseSortOrder(s string) (SortOrder, bool) {
	switch SortOrder(s) {
	case SortAsc, SortDesc:
		return SortOrder(s), true
	}
	return "", false
}

// Sort is the ordering requested from a store.
type Sort struct {
	Key   SortKey
	Order SortOrder
}

// Pagination limits.
const (
	DefaultLimit = 10
	MaxLimit     = 100
)

// ProductRequest is the structured input of a product search. Pointer fields
// are optional; nil leaves the dimension unconstrained.
type ProductRequest struct {
	Query      string
	Categories []string
	NearExpiry *bool
	InStock    *bool
	MinPrice   *float64
	MaxPrice   *float64
	OwnerID    *uint64

	// Center enables the geospatial scope. RadiusKm <= 0 means the default
	// radius.
	Center   *geo.Point
	RadiusKm float64

	SortBy    SortKey
	SortOrder SortOrder
	Page      int
	Limit     int

	IncludeFacets bool

	// Subscription of the caller, used to cap RadiusKm.
	Subscription Subscription
}

// PharmacistRequest is the structured input of a pharmacist search. Results
// are always ordered by distance from Center.
type PharmacistRequest struct {
	Query        string
	Available    *bool
	Center       geo.Point
	RadiusKm     float64
	Page         int
	Limit        int
	Subscription Subscription
}

// normalizePage clamps page and limit into their legal ranges and returns the
// row offset.
func normalizePage(page, limit int) (int, int, int) {
	if page < 1 {
		page = 1
	}
	switch {
	case limit <= 0:
		limit = DefaultLimit
	case limit > MaxLimit:
		limit = MaxLimit
	}
	return page, limit, (page - 1) * limit
}

// normalizeSort fills in defaults. Distance ordering needs a center and falls
// back to newest first without one.
func normalizeSort(key SortKey, order SortOrder, hasCenter bool) Sort {
	if _, ok := ParseSortKey(string(key)); !ok {
		key = SortCreatedAt
	}
	if key == SortDistance && !hasCenter {
		key, order = SortCreatedAt, ""
	}
	if _, ok := ParseSortOrder(string(order)); !ok {
		order = SortDesc
		if key == SortDistance {
			order = SortAsc
		}
	}
	return Sort{Key: key, Order: order}
}
