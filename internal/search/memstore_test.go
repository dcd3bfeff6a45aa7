package search

import (
	"context"
	"errors"
	"math"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/iliyamo/pharmacy-marketplace/internal/geo"
	"github.com/iliyamo/pharmacy-marketplace/internal/model"
)

// memStore is an in-memory ProductStore and PharmacistStore that evaluates
// filters the way the MySQL repository does.
type memStore struct {
	products    []model.ProductListing
	pharmacists []model.PharmacistListing

	failOn string // method name that returns errStore
	calls  atomic.Int32
}

var errStore = errors.New("store unavailable")

func (m *memStore) fail(method string) error {
	m.calls.Add(1)
	if m.failOn == method {
		return errStore
	}
	return nil
}

func (m *memStore) matching(f Filter) []model.ProductListing {
	var out []model.ProductListing
	for _, p := range m.products {
		if matchProduct(f, p) {
			out = append(out, p)
		}
	}
	return out
}

func (m *memStore) CountProducts(ctx context.Context, f Filter) (int64, error) {
	if err := m.fail("CountProducts"); err != nil {
		return 0, err
	}
	return int64(len(m.matching(f))), nil
}

func (m *memStore) FindProducts(ctx context.Context, f Filter, s Sort, offset, limit int) ([]model.ProductListing, error) {
	if err := m.fail("FindProducts"); err != nil {
		return nil, err
	}
	rows := m.matching(f)
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		var c int
		switch s.Key {
		case SortPrice:
			c = cmpFloat(a.Price, b.Price)
		case SortExpiryDate:
			c = expiryOf(a).Compare(expiryOf(b))
		default:
			c = a.CreatedAt.Compare(b.CreatedAt)
		}
		if c == 0 {
			c = cmpFloat(float64(a.ID), float64(b.ID))
		}
		if s.Order == SortDesc {
			c = -c
		}
		return c < 0
	})
	return window(rows, offset, limit), nil
}

func (m *memStore) DistinctCategories(ctx context.Context, f Filter) ([]string, error) {
	if err := m.fail("DistinctCategories"); err != nil {
		return nil, err
	}
	seen := map[string]bool{}
	var out []string
	for _, p := range m.matching(f) {
		if !seen[p.Category] {
			seen[p.Category] = true
			out = append(out, p.Category)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (m *memStore) PriceRange(ctx context.Context, f Filter) (PriceRange, error) {
	if err := m.fail("PriceRange"); err != nil {
		return PriceRange{}, err
	}
	rows := m.matching(f)
	if len(rows) == 0 {
		return PriceRange{}, nil
	}
	pr := PriceRange{Min: math.Inf(1), Max: math.Inf(-1)}
	for _, p := range rows {
		pr.Min = math.Min(pr.Min, p.Price)
		pr.Max = math.Max(pr.Max, p.Price)
	}
	return pr, nil
}

func (m *memStore) matchingPharmacists(f Filter) []model.PharmacistListing {
	var out []model.PharmacistListing
	for _, p := range m.pharmacists {
		if matchPharmacist(f, p) {
			out = append(out, p)
		}
	}
	return out
}

func (m *memStore) CountPharmacists(ctx context.Context, f Filter) (int64, error) {
	if err := m.fail("CountPharmacists"); err != nil {
		return 0, err
	}
	return int64(len(m.matchingPharmacists(f))), nil
}

func (m *memStore) FindPharmacists(ctx context.Context, f Filter, offset, limit int) ([]model.PharmacistListing, error) {
	if err := m.fail("FindPharmacists"); err != nil {
		return nil, err
	}
	rows := m.matchingPharmacists(f)
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].ID < rows[j].ID })
	return window(rows, offset, limit), nil
}

func window[T any](rows []T, offset, limit int) []T {
	if offset >= len(rows) {
		return nil
	}
	end := offset + limit
	if end > len(rows) {
		end = len(rows)
	}
	return append([]T(nil), rows[offset:end]...)
}

func expiryOf(p model.ProductListing) time.Time {
	if p.ExpiryDate == nil {
		return time.Time{}
	}
	return *p.ExpiryDate
}

func matchProduct(f Filter, l model.ProductListing) bool {
	if f.Unsatisfiable {
		return false
	}
	for _, pred := range f.Predicates {
		switch p := pred.(type) {
		case TextMatch:
			if !strings.Contains(strings.ToLower(l.Name), p.Term) &&
				!strings.Contains(strings.ToLower(l.Description), p.Term) {
				return false
			}
		case CategoryIn:
			found := false
			for _, v := range p.Values {
				if v == l.Category {
					found = true
				}
			}
			if !found {
				return false
			}
		case PriceBetween:
			if p.Min != nil && l.Price < *p.Min {
				return false
			}
			if p.Max != nil && l.Price > *p.Max {
				return false
			}
		case NearExpiryOnly:
			if !l.IsNearExpiry {
				return false
			}
		case InStockOnly:
			if l.Stock == 0 {
				return false
			}
		case OwnedBy:
			if l.OwnerID != p.OwnerID {
				return false
			}
		case WithinBox:
			lat, lon, ok := l.Location()
			if !ok || !p.Box.Contains(geo.Point{Lat: lat, Lon: lon}) {
				return false
			}
		case WithinRadius:
			lat, lon, ok := l.Location()
			if !ok || geo.DistanceKm(p.Center, geo.Point{Lat: lat, Lon: lon}) > p.Km {
				return false
			}
		default:
			return false
		}
	}
	return true
}

func matchPharmacist(f Filter, l model.PharmacistListing) bool {
	if f.Unsatisfiable {
		return false
	}
	for _, pred := range f.Predicates {
		switch p := pred.(type) {
		case TextMatch:
			hay := strings.ToLower(l.FirstName + " " + l.LastName + " " + l.Bio)
			if !strings.Contains(hay, p.Term) {
				return false
			}
		case AvailableOnly:
			if !l.Available {
				return false
			}
		case WithinBox:
			lat, lon, ok := l.Location()
			if !ok || !p.Box.Contains(geo.Point{Lat: lat, Lon: lon}) {
				return false
			}
		case WithinRadius:
			lat, lon, ok := l.Location()
			if !ok || geo.DistanceKm(p.Center, geo.Point{Lat: lat, Lon: lon}) > p.Km {
				return false
			}
		default:
			return false
		}
	}
	return true
}

// offsetPoint walks distKm from origin along bearingDeg on the sphere.
func offsetPoint(origin geo.Point, bearingDeg, distKm float64) geo.Point {
	d := distKm / geo.EarthRadiusKm
	th := bearingDeg * math.Pi / 180
	lat1, lon1 := origin.Lat*math.Pi/180, origin.Lon*math.Pi/180
	lat2 := math.Asin(math.Sin(lat1)*math.Cos(d) + math.Cos(lat1)*math.Sin(d)*math.Cos(th))
	lon2 := lon1 + math.Atan2(math.Sin(th)*math.Sin(d)*math.Cos(lat1), math.Cos(d)-math.Sin(lat1)*math.Sin(lat2))
	return geo.Point{Lat: lat2 * 180 / math.Pi, Lon: lon2 * 180 / math.Pi}
}

func cmpFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func f64(v float64) *float64 { return &v }
func u64(v uint64) *uint64 { return &v }
func boolp(v bool) *bool { return &v }
