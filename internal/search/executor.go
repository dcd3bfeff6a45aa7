// Package search compiles catalog and directory search requests into typed
// filters and runs them against a store.
//
// A search issues its count, page fetch and facet aggregations concurrently
// and fails as a whole when any of them fails. When a center point is given
// the filter carries both a bounding box and the exact circle, so counts,
// rows and facets all describe the same set; distances are then attached to
// the page here. Pagination is offset based, and ordering by distance only
// holds within a page.
package search

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/iliyamo/pharmacy-marketplace/internal/geo"
	"github.com/iliyamo/pharmacy-marketplace/internal/model"
)

// Observer is notified after every search with its kind ("products" or
// "pharmacists"), duration, total match count and error.
type Observer func(kind string, elapsed time.Duration, total int64, err error)

// Options configure a Service. Zero values fall back to defaults.
type Options struct {
	Policy          TierPolicy
	DefaultRadiusKm float64
	Now             func() time.Time
	Observe         Observer
}

// Service runs product and pharmacist searches. It keeps no state between
// calls and is safe for concurrent use.
type Service struct {
	products        ProductStore
	pharmacists     PharmacistStore
	policy          TierPolicy
	defaultRadiusKm float64
	now             func() time.Time
	observe         Observer
}

func NewService(products ProductStore, pharmacists PharmacistStore, opts Options) *Service {
	s := &Service{
		products:        products,
		pharmacists:     pharmacists,
		policy:          opts.Policy,
		defaultRadiusKm: opts.DefaultRadiusKm,
		now:             opts.Now,
		observe:         opts.Observe,
	}
	if s.policy == (TierPolicy{}) {
		s.policy = DefaultTierPolicy()
	}
	if s.defaultRadiusKm <= 0 {
		s.defaultRadiusKm = s.policy.NoneKm
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Policy returns the radius policy the service applies.
func (s *Service) Policy() TierPolicy { return s.policy }

// SearchProducts runs a product search. An inverted price range or an owner
// that does not exist yields an empty result, not an error.
func (s *Service) SearchProducts(ctx context.Context, req ProductRequest) (*ProductResult, error) {
	start := time.Now()
	c := compileProducts(req, s.policy, s.defaultRadiusKm, s.now())

	res, err := s.runProducts(ctx, c)
	if s.observe != nil {
		var total int64
		if res != nil {
			total = res.Pagination.Total
		}
		s.observe("products", time.Since(start), total, err)
	}
	return res, err
}

func (s *Service) runProducts(ctx context.Context, c compiledProducts) (*ProductResult, error) {
	var facets *Facets
	if c.facets {
		facets = &Facets{}
	}
	if c.filter.Unsatisfiable {
		return assembleProducts(c, 0, nil, facets), nil
	}

	storeSort := c.sort
	if storeSort.Key == SortDistance {
		storeSort = Sort{Key: SortCreatedAt, Order: SortDesc}
	}

	var (
		total int64
		rows  []model.ProductListing
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := s.products.CountProducts(gctx, c.filter)
		if err != nil {
			return errors.Wrap(err, "count products")
		}
		total = n
		return nil
	})
	g.Go(func() error {
		list, err := s.products.FindProducts(gctx, c.filter, storeSort, c.offset, c.limit)
		if err != nil {
			return errors.Wrap(err, "find products")
		}
		rows = list
		return nil
	})
	if facets != nil {
		g.Go(func() error {
			cats, err := s.products.DistinctCategories(gctx, c.filter)
			if err != nil {
				return errors.Wrap(err, "distinct categories")
			}
			facets.Categories = cats
			return nil
		})
		g.Go(func() error {
			pr, err := s.products.PriceRange(gctx, c.filter)
			if err != nil {
				return errors.Wrap(err, "price range")
			}
			facets.PriceRange = pr
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if c.center != nil {
		annotateDistance(rows, *c.center, productPoint, func(l *model.ProductListing, d float64) {
			l.DistanceKm = &d
		})
		if c.sort.Key == SortDistance {
			sortByDistance(rows, c.sort.Order, func(l model.ProductListing) float64 { return distanceOr(l.DistanceKm) })
		}
	}
	return assembleProducts(c, total, rows, facets), nil
}

// SearchPharmacists finds pharmacists around req.Center, nearest first.
func (s *Service) SearchPharmacists(ctx context.Context, req PharmacistRequest) (*PharmacistResult, error) {
	start := time.Now()
	c := compilePharmacists(req, s.policy, s.defaultRadiusKm, s.now())

	res, err := s.runPharmacists(ctx, c)
	if s.observe != nil {
		var total int64
		if res != nil {
			total = res.Pagination.Total
		}
		s.observe("pharmacists", time.Since(start), total, err)
	}
	return res, err
}

func (s *Service) runPharmacists(ctx context.Context, c compiledPharmacists) (*PharmacistResult, error) {
	var (
		total int64
		rows  []model.PharmacistListing
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := s.pharmacists.CountPharmacists(gctx, c.filter)
		if err != nil {
			return errors.Wrap(err, "count pharmacists")
		}
		total = n
		return nil
	})
	g.Go(func() error {
		list, err := s.pharmacists.FindPharmacists(gctx, c.filter, c.offset, c.limit)
		if err != nil {
			return errors.Wrap(err, "find pharmacists")
		}
		rows = list
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	annotateDistance(rows, c.center, pharmacistPoint, func(l *model.PharmacistListing, d float64) {
		l.DistanceKm = &d
	})
	sortByDistance(rows, SortAsc, func(l model.PharmacistListing) float64 { return distanceOr(l.DistanceKm) })
	return assemblePharmacists(c, total, rows), nil
}

func productPoint(l model.ProductListing) (geo.Point, bool) {
	lat, lon, ok := l.Location()
	return geo.Point{Lat: lat, Lon: lon}, ok
}

func pharmacistPoint(l model.PharmacistListing) (geo.Point, bool) {
	lat, lon, ok := l.Location()
	return geo.Point{Lat: lat, Lon: lon}, ok
}

// annotateDistance sets the distance from center on every located row. The
// store has already applied the radius, so no row is dropped here.
func annotateDistance[T any](rows []T, center geo.Point, locate func(T) (geo.Point, bool), annotate func(*T, float64)) {
	for i := range rows {
		if p, ok := locate(rows[i]); ok {
			annotate(&rows[i], geo.DistanceKm(center, p))
		}
	}
}

// distanceOr sorts unannotated rows last in ascending order.
func distanceOr(d *float64) float64 {
	if d == nil {
		return math.Inf(1)
	}
	return *d
}

func sortByDistance[T any](rows []T, order SortOrder, dist func(T) float64) {
	sort.SliceStable(rows, func(i, j int) bool {
		if order == SortDesc {
			return dist(rows[i]) > dist(rows[j])
		}
		return dist(rows[i]) < dist(rows[j])
	})
}
