package search

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/iliyamo/pharmacy-marketplace/internal/geo"
	"github.com/iliyamo/pharmacy-marketplace/internal/model"
)

var (
	cairo   = geo.Point{Lat: 30.05, Lon: 31.23}
	baseNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
)

func pharmacyAt(id uint64, p geo.Point) model.PharmacySummary {
	lat, lon := p.Lat, p.Lon
	return model.PharmacySummary{ID: id, PharmacyName: fmt.Sprintf("pharmacy %d", id), Latitude: &lat, Longitude: &lon}
}

func listing(id uint64, category string, price float64, ph model.PharmacySummary) model.ProductListing {
	return model.ProductListing{
		Product: model.Product{
			ID:        id,
			OwnerID:   ph.ID,
			Name:      fmt.Sprintf("product %d", id),
			Category:  category,
			Price:     price,
			Stock:     5,
			CreatedAt: baseNow.Add(time.Duration(id) * time.Minute),
		},
		Pharmacy: ph,
	}
}

func newTestService(st *memStore) *Service {
	return NewService(st, st, Options{Now: func() time.Time { return baseNow }})
}

// seedAntibiotics returns 15 antibiotics priced 5..19 and 5 products that miss
// the category or price filter.
func seedAntibiotics() *memStore {
	ph := pharmacyAt(1, cairo)
	st := &memStore{}
	for i := 0; i < 15; i++ {
		st.products = append(st.products, listing(uint64(i+1), "antibiotics", float64(5+i), ph))
	}
	st.products = append(st.products,
		listing(16, "antibiotics", 25, ph),
		listing(17, "antibiotics", 4.99, ph),
		listing(18, "vitamins", 10, ph),
		listing(19, "painkillers", 12, ph),
		listing(20, "vitamins", 7, ph),
	)
	return st
}

func TestSearchProductsCategoryAndPriceScenario(t *testing.T) {
	st := seedAntibiotics()
	svc := newTestService(st)

	res, err := svc.SearchProducts(context.Background(), ProductRequest{
		Categories:    []string{"antibiotics"},
		MinPrice:      f64(5),
		MaxPrice:      f64(20),
		Page:          1,
		Limit:         10,
		IncludeFacets: true,
	})
	if err != nil {
		t.Fatalf("SearchProducts: %v", err)
	}
	if res.Pagination.Total != 15 {
		t.Fatalf("total = %d, want 15", res.Pagination.Total)
	}
	if len(res.Products) != 10 {
		t.Fatalf("len(products) = %d, want 10", len(res.Products))
	}
	if res.Pagination.Pages != 2 || res.Pagination.Page != 1 || res.Pagination.Limit != 10 {
		t.Fatalf("unexpected pagination %+v", res.Pagination)
	}
	for _, p := range res.Products {
		if p.Price < 5 || p.Price > 20 {
			t.Fatalf("product %d price %v outside [5,20]", p.ID, p.Price)
		}
		if p.Category != "antibiotics" {
			t.Fatalf("product %d category %q", p.ID, p.Category)
		}
		if p.DistanceKm != nil {
			t.Fatalf("product %d has a distance without a center", p.ID)
		}
	}
	if res.Filters == nil {
		t.Fatal("facets requested but missing")
	}
	if got := res.Filters.Categories; len(got) != 1 || got[0] != "antibiotics" {
		t.Fatalf("categories facet = %v, want [antibiotics]", got)
	}
	if res.Filters.PriceRange != (PriceRange{Min: 5, Max: 19}) {
		t.Fatalf("price facet = %+v, want {5 19}", res.Filters.PriceRange)
	}
	if res.Radius != nil {
		t.Fatalf("radius reported without a center: %+v", res.Radius)
	}
}

func TestSearchProductsPageBeyondData(t *testing.T) {
	svc := newTestService(seedAntibiotics())

	res, err := svc.SearchProducts(context.Background(), ProductRequest{
		Categories: []string{"antibiotics"},
		MinPrice:   f64(5),
		MaxPrice:   f64(20),
		Page:       5,
		Limit:      10,
	})
	if err != nil {
		t.Fatalf("SearchProducts: %v", err)
	}
	if res.Products == nil || len(res.Products) != 0 {
		t.Fatalf("products = %v, want empty non-nil slice", res.Products)
	}
	if res.Pagination.Total != 15 || res.Pagination.Page != 5 {
		t.Fatalf("pagination = %+v, want total 15 on page 5", res.Pagination)
	}
}

func TestSearchProductsPaginationBounds(t *testing.T) {
	svc := newTestService(seedAntibiotics())
	tests := []struct {
		page, limit         int
		wantPage, wantLimit int
	}{
		{0, 0, 1, DefaultLimit},
		{-4, 5, 1, 5},
		{2, 1000, 2, MaxLimit},
		{3, -1, 3, DefaultLimit},
		{1, 100, 1, 100},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("page=%d,limit=%d", tt.page, tt.limit), func(t *testing.T) {
			res, err := svc.SearchProducts(context.Background(), ProductRequest{Page: tt.page, Limit: tt.limit})
			if err != nil {
				t.Fatalf("SearchProducts: %v", err)
			}
			if res.Pagination.Page != tt.wantPage || res.Pagination.Limit != tt.wantLimit {
				t.Fatalf("pagination = %+v, want page %d limit %d", res.Pagination, tt.wantPage, tt.wantLimit)
			}
			if len(res.Products) > res.Pagination.Limit {
				t.Fatalf("%d products exceed limit %d", len(res.Products), res.Pagination.Limit)
			}
		})
	}
}

func TestSearchProductsEmptyCatalog(t *testing.T) {
	svc := newTestService(&memStore{})

	res, err := svc.SearchProducts(context.Background(), ProductRequest{IncludeFacets: true})
	if err != nil {
		t.Fatalf("SearchProducts: %v", err)
	}
	if res.Products == nil || len(res.Products) != 0 {
		t.Fatalf("products = %v, want []", res.Products)
	}
	want := Pagination{Total: 0, Page: 1, Limit: 10, Pages: 0}
	if res.Pagination != want {
		t.Fatalf("pagination = %+v, want %+v", res.Pagination, want)
	}
	if res.Filters == nil || res.Filters.Categories == nil || len(res.Filters.Categories) != 0 {
		t.Fatalf("facets = %+v, want empty categories", res.Filters)
	}
	if res.Filters.PriceRange != (PriceRange{}) {
		t.Fatalf("price range = %+v, want zero", res.Filters.PriceRange)
	}
}

// seedAroundCairo places one product per pharmacy at the given distances
// (km) north-east of Cairo, plus one pharmacy without coordinates.
func seedAroundCairo(distances ...float64) *memStore {
	st := &memStore{}
	for i, d := range distances {
		id := uint64(i + 1)
		st.products = append(st.products, listing(id, "vitamins", 10, pharmacyAt(id, offsetPoint(cairo, 45, d))))
	}
	st.products = append(st.products, listing(99, "vitamins", 10, model.PharmacySummary{ID: 99}))
	return st
}

func TestSearchProductsBasicTierClampsRadius(t *testing.T) {
	st := seedAroundCairo(3, 12, 24, 40, 80, 150)
	svc := newTestService(st)
	center := cairo

	res, err := svc.SearchProducts(context.Background(), ProductRequest{
		Center:       &center,
		RadiusKm:     100,
		Subscription: Subscription{Status: model.SubscriptionBasic},
	})
	if err != nil {
		t.Fatalf("SearchProducts: %v", err)
	}
	if res.Radius == nil {
		t.Fatal("radius info missing")
	}
	want := RadiusInfo{RequestedKm: 100, EffectiveKm: 25, MaxKm: 25, Clamped: true}
	if *res.Radius != want {
		t.Fatalf("radius = %+v, want %+v", *res.Radius, want)
	}
	if len(res.Products) != 3 || res.Pagination.Total != 3 {
		t.Fatalf("got %d products of total %d, want 3 of 3", len(res.Products), res.Pagination.Total)
	}
	for _, p := range res.Products {
		if p.DistanceKm == nil {
			t.Fatalf("product %d not annotated with distance", p.ID)
		}
		if *p.DistanceKm > 25 {
			t.Fatalf("product %d at %.2f km beyond 25 km", p.ID, *p.DistanceKm)
		}
	}
}

func TestSearchProductsExpiredPremiumFallsBackToNoneTier(t *testing.T) {
	st := seedAroundCairo(3, 8, 20, 45)
	svc := newTestService(st)
	center := cairo
	yesterday := baseNow.Add(-24 * time.Hour)

	res, err := svc.SearchProducts(context.Background(), ProductRequest{
		Center:       &center,
		RadiusKm:     50,
		Subscription: Subscription{Status: model.SubscriptionPremium, ExpiresAt: &yesterday},
	})
	if err != nil {
		t.Fatalf("SearchProducts: %v", err)
	}
	if res.Radius.MaxKm != 10 || res.Radius.EffectiveKm != 10 {
		t.Fatalf("radius = %+v, want the none-tier cap of 10 km", *res.Radius)
	}
	if len(res.Products) != 2 {
		t.Fatalf("got %d products, want 2 within 10 km", len(res.Products))
	}
}

func TestSearchProductsDropsBoxCornerRows(t *testing.T) {
	// 28 km at 45° is inside the 25 km bounding box but outside the circle.
	st := &memStore{products: []model.ProductListing{
		listing(1, "vitamins", 10, pharmacyAt(1, offsetPoint(cairo, 45, 5))),
		listing(2, "skincare", 30, pharmacyAt(2, offsetPoint(cairo, 45, 28))),
	}}
	svc := newTestService(st)
	center := cairo

	res, err := svc.SearchProducts(context.Background(), ProductRequest{
		Center:        &center,
		RadiusKm:      25,
		IncludeFacets: true,
		Subscription:  Subscription{Status: model.SubscriptionPremium},
	})
	if err != nil {
		t.Fatalf("SearchProducts: %v", err)
	}
	if len(res.Products) != 1 || res.Products[0].ID != 1 {
		t.Fatalf("products = %+v, want only product 1", res.Products)
	}
	if res.Pagination.Total != 1 || res.Pagination.Pages != 1 {
		t.Fatalf("pagination = %+v, want total 1 over 1 page", res.Pagination)
	}
	if fmt.Sprint(res.Filters.Categories) != "[vitamins]" {
		t.Fatalf("categories = %v, want [vitamins]", res.Filters.Categories)
	}
	if res.Filters.PriceRange != (PriceRange{Min: 10, Max: 10}) {
		t.Fatalf("price range = %+v, want 10..10", res.Filters.PriceRange)
	}
}

func TestSearchProductsSortByDistance(t *testing.T) {
	st := seedAroundCairo(9, 2, 6, 4)
	svc := newTestService(st)
	center := cairo

	for _, order := range []SortOrder{SortAsc, SortDesc} {
		t.Run(string(order), func(t *testing.T) {
			res, err := svc.SearchProducts(context.Background(), ProductRequest{
				Center:    &center,
				SortBy:    SortDistance,
				SortOrder: order,
			})
			if err != nil {
				t.Fatalf("SearchProducts: %v", err)
			}
			if len(res.Products) != 4 {
				t.Fatalf("got %d products, want 4", len(res.Products))
			}
			for i := 1; i < len(res.Products); i++ {
				prev, cur := *res.Products[i-1].DistanceKm, *res.Products[i].DistanceKm
				if order == SortAsc && prev > cur || order == SortDesc && prev < cur {
					t.Fatalf("products not sorted %s by distance: %.2f then %.2f", order, prev, cur)
				}
			}
		})
	}
}

func TestSearchProductsSortByPrice(t *testing.T) {
	svc := newTestService(seedAntibiotics())

	res, err := svc.SearchProducts(context.Background(), ProductRequest{
		SortBy:    SortPrice,
		SortOrder: SortAsc,
		Limit:     100,
	})
	if err != nil {
		t.Fatalf("SearchProducts: %v", err)
	}
	for i := 1; i < len(res.Products); i++ {
		if res.Products[i-1].Price > res.Products[i].Price {
			t.Fatalf("prices not ascending at %d: %v > %v", i, res.Products[i-1].Price, res.Products[i].Price)
		}
	}
}

func TestSearchProductsFacetsMatchSelectableRows(t *testing.T) {
	near := pharmacyAt(1, offsetPoint(cairo, 45, 5))
	corner := pharmacyAt(2, offsetPoint(cairo, 45, 28))
	st := &memStore{products: []model.ProductListing{
		listing(1, "vitamins", 4, near),
		listing(2, "vitamins", 40, near),
		listing(3, "antibiotics", 12, near),
		listing(4, "painkillers", 8, near),
		listing(5, "skincare", 90, near),
		listing(6, "antibiotics", 70, near),
		listing(7, "skincare", 30, corner),
		listing(8, "antibiotics", 45, corner),
	}}
	svc := newTestService(st)
	center := cairo

	tests := []struct {
		name     string
		req      ProductRequest
		wantCats []string
		wantPR   PriceRange
	}{
		{
			name:     "price band",
			req:      ProductRequest{MinPrice: f64(5), MaxPrice: f64(50)},
			wantCats: []string{"antibiotics", "painkillers", "skincare", "vitamins"},
			wantPR:   PriceRange{Min: 8, Max: 45},
		},
		{
			name: "around a center",
			req: ProductRequest{
				Center:       &center,
				RadiusKm:     25,
				MinPrice:     f64(5),
				MaxPrice:     f64(50),
				Subscription: Subscription{Status: model.SubscriptionPremium},
			},
			wantCats: []string{"antibiotics", "painkillers", "vitamins"},
			wantPR:   PriceRange{Min: 8, Max: 40},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			base := tt.req
			base.IncludeFacets = true
			base.Limit = MaxLimit

			res, err := svc.SearchProducts(context.Background(), base)
			if err != nil {
				t.Fatalf("SearchProducts: %v", err)
			}
			if fmt.Sprint(res.Filters.Categories) != fmt.Sprint(tt.wantCats) {
				t.Fatalf("categories = %v, want %v", res.Filters.Categories, tt.wantCats)
			}
			if res.Filters.PriceRange != tt.wantPR {
				t.Fatalf("price range = %+v, want %+v", res.Filters.PriceRange, tt.wantPR)
			}
			if res.Pagination.Total != int64(len(res.Products)) {
				t.Fatalf("total = %d but %d rows returned", res.Pagination.Total, len(res.Products))
			}
			for _, cat := range res.Filters.Categories {
				req := base
				req.Categories = []string{cat}
				sub, err := svc.SearchProducts(context.Background(), req)
				if err != nil {
					t.Fatalf("SearchProducts(%s): %v", cat, err)
				}
				if sub.Pagination.Total == 0 || int64(len(sub.Products)) != sub.Pagination.Total {
					t.Fatalf("facet %q: total %d, rows %d", cat, sub.Pagination.Total, len(sub.Products))
				}
			}
		})
	}
}

func TestSearchProductsInvertedPriceRangeIsEmpty(t *testing.T) {
	st := seedAntibiotics()
	svc := newTestService(st)

	res, err := svc.SearchProducts(context.Background(), ProductRequest{
		MinPrice:      f64(20),
		MaxPrice:      f64(5),
		IncludeFacets: true,
	})
	if err != nil {
		t.Fatalf("SearchProducts: %v", err)
	}
	if res.Pagination.Total != 0 || len(res.Products) != 0 {
		t.Fatalf("inverted range returned %d/%d rows", len(res.Products), res.Pagination.Total)
	}
	if n := st.calls.Load(); n != 0 {
		t.Fatalf("store called %d times for an unsatisfiable filter", n)
	}
}

func TestSearchProductsUnknownOwnerIsEmpty(t *testing.T) {
	svc := newTestService(seedAntibiotics())

	res, err := svc.SearchProducts(context.Background(), ProductRequest{OwnerID: u64(4242)})
	if err != nil {
		t.Fatalf("SearchProducts: %v", err)
	}
	if res.Pagination.Total != 0 || len(res.Products) != 0 {
		t.Fatalf("unknown owner returned rows: %+v", res.Pagination)
	}
}

func TestSearchProductsTextAndFlags(t *testing.T) {
	ph := pharmacyAt(1, cairo)
	a := listing(1, "vitamins", 10, ph)
	a.Name = "Vitamin C 500mg"
	b := listing(2, "vitamins", 10, ph)
	b.Description = "Effervescent VITAMIN tablets"
	b.IsNearExpiry = true
	c := listing(3, "vitamins", 10, ph)
	c.Name = "Zinc"
	c.IsNearExpiry = true
	c.Stock = 0
	svc := newTestService(&memStore{products: []model.ProductListing{a, b, c}})

	tests := []struct {
		name string
		req  ProductRequest
		want []uint64
	}{
		{"text matches name or description", ProductRequest{Query: "  vitamin "}, []uint64{1, 2}},
		{"near expiry only", ProductRequest{NearExpiry: boolp(true)}, []uint64{2, 3}},
		{"near expiry false is unconstrained", ProductRequest{NearExpiry: boolp(false)}, []uint64{1, 2, 3}},
		{"in stock only", ProductRequest{InStock: boolp(true), NearExpiry: boolp(true)}, []uint64{2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.req.SortBy, tt.req.SortOrder = SortCreatedAt, SortAsc
			res, err := svc.SearchProducts(context.Background(), tt.req)
			if err != nil {
				t.Fatalf("SearchProducts: %v", err)
			}
			var got []uint64
			for _, p := range res.Products {
				got = append(got, p.ID)
			}
			if fmt.Sprint(got) != fmt.Sprint(tt.want) {
				t.Fatalf("ids = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSearchProductsStoreFailureAbortsRequest(t *testing.T) {
	for _, method := range []string{"CountProducts", "FindProducts", "DistinctCategories", "PriceRange"} {
		t.Run(method, func(t *testing.T) {
			st := seedAntibiotics()
			st.failOn = method
			svc := newTestService(st)

			res, err := svc.SearchProducts(context.Background(), ProductRequest{IncludeFacets: true})
			if !errors.Is(err, errStore) {
				t.Fatalf("err = %v, want wrapped errStore", err)
			}
			if res != nil {
				t.Fatalf("partial result returned on failure: %+v", res)
			}
		})
	}
}

func TestSearchProductsObserver(t *testing.T) {
	var (
		kinds []string
		total int64
	)
	st := seedAntibiotics()
	svc := NewService(st, st, Options{Observe: func(kind string, _ time.Duration, n int64, err error) {
		kinds = append(kinds, kind)
		total = n
	}})

	if _, err := svc.SearchProducts(context.Background(), ProductRequest{}); err != nil {
		t.Fatalf("SearchProducts: %v", err)
	}
	if len(kinds) != 1 || kinds[0] != "products" || total != 20 {
		t.Fatalf("observer saw kinds=%v total=%d", kinds, total)
	}
}

func pharmacistAt(id uint64, p *geo.Point, available bool) model.PharmacistListing {
	l := model.PharmacistListing{PharmacistProfile: model.PharmacistProfile{
		ID:        id,
		FirstName: "Pharmacist",
		LastName:  fmt.Sprint(id),
		Available: available,
	}}
	if p != nil {
		lat, lon := p.Lat, p.Lon
		l.Latitude, l.Longitude = &lat, &lon
	}
	return l
}

func TestSearchPharmacists(t *testing.T) {
	at := func(km float64) *geo.Point {
		p := offsetPoint(cairo, 120, km)
		return &p
	}
	st := &memStore{pharmacists: []model.PharmacistListing{
		pharmacistAt(1, at(7), true),
		pharmacistAt(2, at(1), false),
		pharmacistAt(3, at(4), true),
		pharmacistAt(4, at(30), true),
		pharmacistAt(5, nil, true),
	}}
	svc := newTestService(st)

	t.Run("nearest first within none tier", func(t *testing.T) {
		res, err := svc.SearchPharmacists(context.Background(), PharmacistRequest{Center: cairo, RadiusKm: 40})
		if err != nil {
			t.Fatalf("SearchPharmacists: %v", err)
		}
		if res.Radius.EffectiveKm != 10 || !res.Radius.Clamped {
			t.Fatalf("radius = %+v, want clamped to 10", res.Radius)
		}
		var got []uint64
		for _, p := range res.Pharmacists {
			got = append(got, p.ID)
		}
		if fmt.Sprint(got) != "[2 3 1]" {
			t.Fatalf("ids = %v, want [2 3 1]", got)
		}
		if res.Pagination.Total != 3 {
			t.Fatalf("total = %d, want 3", res.Pagination.Total)
		}
	})

	t.Run("available only", func(t *testing.T) {
		res, err := svc.SearchPharmacists(context.Background(), PharmacistRequest{Center: cairo, Available: boolp(true)})
		if err != nil {
			t.Fatalf("SearchPharmacists: %v", err)
		}
		if len(res.Pharmacists) != 2 || res.Pharmacists[0].ID != 3 {
			t.Fatalf("pharmacists = %+v, want [3 1]", res.Pharmacists)
		}
	})

	t.Run("premium reaches further", func(t *testing.T) {
		res, err := svc.SearchPharmacists(context.Background(), PharmacistRequest{
			Center:       cairo,
			RadiusKm:     40,
			Subscription: Subscription{Status: model.SubscriptionPremium},
		})
		if err != nil {
			t.Fatalf("SearchPharmacists: %v", err)
		}
		if len(res.Pharmacists) != 4 || res.Radius.EffectiveKm != 40 {
			t.Fatalf("got %d pharmacists at radius %+v, want 4 at 40 km", len(res.Pharmacists), res.Radius)
		}
	})
}
