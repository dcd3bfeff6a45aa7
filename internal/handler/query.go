package handler

import (
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/spf13/cast"

	"github.com/iliyamo/pharmacy-marketplace/internal/geo"
	"github.com/iliyamo/pharmacy-marketplace/internal/search"
)

// queryReader coerces query parameters and collects every problem instead
// of stopping at the first.
type queryReader struct {
	c    echo.Context
	errs fieldErrors
}

func (q *queryReader) str(name string) string {
	return strings.TrimSpace(q.c.QueryParam(name))
}

// first returns the first non-empty parameter among names.
func (q *queryReader) first(names ...string) (string, string) {
	for _, n := range names {
		if v := q.str(n); v != "" {
			return n, v
		}
	}
	return names[0], ""
}

func (q *queryReader) float(names ...string) *float64 {
	name, raw := q.first(names...)
	if raw == "" {
		return nil
	}
	f, err := cast.ToFloat64E(raw)
	if err != nil || !finite(f) {
		q.errs.add(name, name+" must be a number")
		return nil
	}
	return &f
}

func (q *queryReader) boolean(name string) *bool {
	raw := q.str(name)
	if raw == "" {
		return nil
	}
	b, err := cast.ToBoolE(strings.ToLower(raw))
	if err != nil {
		q.errs.add(name, name+" must be true or false")
		return nil
	}
	return &b
}

// integer returns def when the parameter is absent and reports values
// outside [lo, hi].
func (q *queryReader) integer(name string, def, lo, hi int) int {
	raw := q.str(name)
	if raw == "" {
		return def
	}
	digits, ok := decimal(raw)
	n, err := cast.ToIntE(digits)
	if !ok || err != nil || n < lo || n > hi {
		q.errs.add(name, name+" must be an integer between "+cast.ToString(lo)+" and "+cast.ToString(hi))
		return def
	}
	return n
}

func (q *queryReader) id(name string) *uint64 {
	raw := q.str(name)
	if raw == "" {
		return nil
	}
	digits, ok := decimal(raw)
	n, err := cast.ToUint64E(digits)
	if !ok || err != nil || n == 0 {
		q.errs.add(name, name+" must be a positive integer")
		return nil
	}
	return &n
}

// categories accepts repeated and comma separated values.
func (q *queryReader) categories() []string {
	var out []string
	for _, v := range q.c.QueryParams()["category"] {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func (q *queryReader) page() (int, int) {
	return q.integer("page", 1, 1, 1<<20), q.integer("limit", search.DefaultLimit, 1, search.MaxLimit)
}

// center reads lat/lon, with latitude/longitude as aliases.
func (q *queryReader) center() *geo.Point {
	lat := q.float("lat", "latitude")
	lon := q.float("lon", "longitude")
	checkCoordinates(&q.errs, lat, lon)
	if lat == nil || lon == nil {
		return nil
	}
	return &geo.Point{Lat: *lat, Lon: *lon}
}

func (q *queryReader) radius() float64 {
	r := q.float("radiusKm", "radius")
	if r == nil {
		return 0
	}
	if *r < 0 {
		q.errs.add("radiusKm", "radiusKm must not be negative")
		return 0
	}
	return *r
}

// parseProductSearch reads the product search parameters. The caller's
// subscription is filled in by the handler.
func parseProductSearch(c echo.Context) (search.ProductRequest, fieldErrors) {
	q := &queryReader{c: c}
	req := search.ProductRequest{
		Query:         q.str("q"),
		Categories:    q.categories(),
		NearExpiry:    q.boolean("nearExpiry"),
		InStock:       q.boolean("inStock"),
		MinPrice:      q.float("minPrice"),
		MaxPrice:      q.float("maxPrice"),
		OwnerID:       q.id("pharmacyId"),
		Center:        q.center(),
		RadiusKm:      q.radius(),
		IncludeFacets: true,
	}
	if f := q.boolean("facets"); f != nil {
		req.IncludeFacets = *f
	}
	if req.MinPrice != nil && *req.MinPrice < 0 {
		q.errs.add("minPrice", "minPrice must not be negative")
	}
	if req.MaxPrice != nil && *req.MaxPrice < 0 {
		q.errs.add("maxPrice", "maxPrice must not be negative")
	}
	if req.MinPrice != nil && req.MaxPrice != nil && *req.MaxPrice < *req.MinPrice {
		q.errs.add("maxPrice", "maxPrice must be greater than or equal to minPrice")
	}
	if s := q.str("sortBy"); s != "" {
		key, ok := search.ParseSortKey(s)
		if !ok {
			q.errs.add("sortBy", "sortBy must be one of createdAt, price, expiryDate, distance")
		}
		req.SortBy = key
	}
	if s := q.str("sortOrder"); s != "" {
		order, ok := search.ParseSortOrder(strings.ToLower(s))
		if !ok {
			q.errs.add("sortOrder", "sortOrder must be asc or desc")
		}
		req.SortOrder = order
	}
	req.Page, req.Limit = q.page()
	return req, q.errs
}

// parseProductList reads the public listing parameters: category,
// nearExpiry and paging, newest first.
func parseProductList(c echo.Context) (search.ProductRequest, fieldErrors) {
	q := &queryReader{c: c}
	req := search.ProductRequest{
		Categories: q.categories(),
		NearExpiry: q.boolean("nearExpiry"),
		SortBy:     search.SortCreatedAt,
		SortOrder:  search.SortDesc,
	}
	req.Page, req.Limit = q.page()
	return req, q.errs
}

// parsePharmacistSearch reads the pharmacist search parameters. A center is
// mandatory.
func parsePharmacistSearch(c echo.Context) (search.PharmacistRequest, fieldErrors) {
	q := &queryReader{c: c}
	req := search.PharmacistRequest{
		Query:     q.str("q"),
		Available: q.boolean("available"),
	}
	center := q.center()
	if center == nil && len(q.errs) == 0 {
		q.errs.add("latitude", "latitude and longitude are required")
	}
	if center != nil {
		req.Center = *center
	}
	req.RadiusKm = q.radius()
	req.Page, req.Limit = q.page()
	return req, q.errs
}
