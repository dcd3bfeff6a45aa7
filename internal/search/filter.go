package search

import (
	"sort"
	"strings"
	"time"

	"github.com/iliyamo/pharmacy-marketplace/internal/geo"
)

// Predicate is one dimension of a search filter. The set of variants is
// closed; stores switch on the concrete type.
type Predicate interface {
	predicate()
}

// TextMatch is a case-insensitive substring match. For products it checks
// name or description, for pharmacists first name, last name or bio. Term is
// already lower-cased.
type TextMatch struct{ Term string }

// CategoryIn matches products whose category equals one of Values. A single
// value is plain equality.
type CategoryIn struct{ Values []string }

// PriceBetween bounds the price on either side. Nil bounds are open.
type PriceBetween struct{ Min, Max *float64 }

// NearExpiryOnly keeps products flagged as near expiry.
type NearExpiryOnly struct{}

// InStockOnly keeps products with stock > 0.
type InStockOnly struct{}

// OwnedBy scopes products to one pharmacy owner profile.
type OwnedBy struct{ OwnerID uint64 }

// WithinBox keeps entities whose coordinate lies in Box. Entities without a
// coordinate never match.
type WithinBox struct{ Box geo.Box }

// WithinRadius keeps entities whose great-circle distance from Center is at
// most Km. It always follows the WithinBox of the same circle, which stores
// can use as an index-friendly pre-filter.
type WithinRadius struct {
	Center geo.Point
	Km     float64
}

// AvailableOnly keeps pharmacists marked available.
type AvailableOnly struct{}

func (TextMatch) predicate()      {}
func (CategoryIn) predicate()     {}
func (PriceBetween) predicate()   {}
func (NearExpiryOnly) predicate() {}
func (InStockOnly) predicate()    {}
func (OwnedBy) predicate()        {}
func (WithinBox) predicate()      {}
func (WithinRadius) predicate()   {}
func (AvailableOnly) predicate()  {}

// Filter is the conjunction of its predicates. An Unsatisfiable filter
// matches nothing; it comes from contradictory input such as an inverted
// price range.
type Filter struct {
	Predicates    []Predicate
	Unsatisfiable bool
}

func (f *Filter) and(p Predicate) { f.Predicates = append(f.Predicates, p) }

// compiledProducts is a product request turned into store terms.
type compiledProducts struct {
	filter Filter
	center *geo.Point
	radius *RadiusInfo
	sort   Sort
	page   int
	limit  int
	offset int
	facets bool
}

// compileProducts translates req into a filter. The radius cap is applied
// before the bounding box and circle are built.
func compileProducts(req ProductRequest, policy TierPolicy, defaultRadiusKm float64, now time.Time) compiledProducts {
	var c compiledProducts
	f := &c.filter

	if term := normalizeTerm(req.Query); term != "" {
		f.and(TextMatch{Term: term})
	}
	if cats := normalizeCategories(req.Categories); len(cats) > 0 {
		f.and(CategoryIn{Values: cats})
	}
	if req.MinPrice != nil || req.MaxPrice != nil {
		if req.MinPrice != nil && req.MaxPrice != nil && *req.MaxPrice < *req.MinPrice {
			f.Unsatisfiable = true
		}
		f.and(PriceBetween{Min: req.MinPrice, Max: req.MaxPrice})
	}
	if req.NearExpiry != nil && *req.NearExpiry {
		f.and(NearExpiryOnly{})
	}
	if req.InStock != nil && *req.InStock {
		f.and(InStockOnly{})
	}
	if req.OwnerID != nil {
		f.and(OwnedBy{OwnerID: *req.OwnerID})
	}
	if req.Center != nil {
		center := *req.Center
		info := policy.Clamp(req.RadiusKm, defaultRadiusKm, req.Subscription, now)
		c.center = &center
		c.radius = &info
		f.and(WithinBox{Box: geo.BoundingBoxFor(center, info.EffectiveKm)})
		f.and(WithinRadius{Center: center, Km: info.EffectiveKm})
	}

	c.sort = normalizeSort(req.SortBy, req.SortOrder, req.Center != nil)
	c.page, c.limit, c.offset = normalizePage(req.Page, req.Limit)
	c.facets = req.IncludeFacets
	return c
}

// compiledPharmacists is a pharmacist request turned into store terms.
type compiledPharmacists struct {
	filter Filter
	center geo.Point
	radius RadiusInfo
	page   int
	limit  int
	offset int
}

func compilePharmacists(req PharmacistRequest, policy TierPolicy, defaultRadiusKm float64, now time.Time) compiledPharmacists {
	c := compiledPharmacists{center: req.Center}
	c.radius = policy.Clamp(req.RadiusKm, defaultRadiusKm, req.Subscription, now)

	f := &c.filter
	if term := normalizeTerm(req.Query); term != "" {
		f.and(TextMatch{Term: term})
	}
	if req.Available != nil && *req.Available {
		f.and(AvailableOnly{})
	}
	f.and(WithinBox{Box: geo.BoundingBoxFor(req.Center, c.radius.EffectiveKm)})
	f.and(WithinRadius{Center: req.Center, Km: c.radius.EffectiveKm})

	c.page, c.limit, c.offset = normalizePage(req.Page, req.Limit)
	return c
}

func normalizeTerm(q string) string {
	return strings.ToLower(strings.TrimSpace(q))
}

// normalizeCategories drops blanks and duplicates and returns the rest in a
// stable order.
func normalizeCategories(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, c := range in {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}
