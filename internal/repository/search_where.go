package repository

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/iliyamo/pharmacy-marketplace/internal/geo"
	"github.com/iliyamo/pharmacy-marketplace/internal/search"
)

// filterColumns maps search predicates onto the columns of one query. An
// empty column means the predicate does not apply to that table.
type filterColumns struct {
	text       []string
	category   string
	price      string
	nearExpiry string
	stock      string
	owner      string
	available  string
	lat        string
	lon        string
}

var productColumns = filterColumns{
	text:       []string{"p.name", "p.description"},
	category:   "p.category",
	price:      "p.price",
	nearExpiry: "p.is_near_expiry",
	stock:      "p.stock",
	owner:      "p.owner_id",
	lat:        "o.latitude",
	lon:        "o.longitude",
}

var pharmacistColumns = filterColumns{
	text:      []string{"ph.first_name", "ph.last_name", "ph.bio"},
	available: "ph.available",
	lat:       "ph.latitude",
	lon:       "ph.longitude",
}

// likeEscaper escapes LIKE wildcards; MySQL uses backslash as the default
// LIKE escape character.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// haversineKm renders the great-circle distance in km between the row's
// coordinate and a center bound as (lat, lat, lon), matching geo.DistanceKm.
func haversineKm(lat, lon string) string {
	return fmt.Sprintf(
		"2 * %g * ASIN(LEAST(1, SQRT(POW(SIN(RADIANS(%s - ?) / 2), 2) + COS(RADIANS(?)) * COS(RADIANS(%s)) * POW(SIN(RADIANS(%s - ?) / 2), 2))))",
		geo.EarthRadiusKm, lat, lat, lon)
}

// buildWhere renders f as a parameterized WHERE condition. Values never end
// up in the SQL text.
func buildWhere(f search.Filter, cols filterColumns) (string, []any, error) {
	if f.Unsatisfiable {
		return "1=0", nil, nil
	}
	where := []string{}
	args := []any{}

	need := func(col string, p search.Predicate) error {
		if col == "" {
			return errors.Wrapf(ErrUnsupportedPredicate, "%T", p)
		}
		return nil
	}

	for _, pred := range f.Predicates {
		switch p := pred.(type) {
		case search.TextMatch:
			if len(cols.text) == 0 {
				return "", nil, need("", p)
			}
			like := "%" + likeEscaper.Replace(p.Term) + "%"
			ors := make([]string, 0, len(cols.text))
			for _, c := range cols.text {
				ors = append(ors, "LOWER("+c+") LIKE ?")
				args = append(args, like)
			}
			where = append(where, "("+strings.Join(ors, " OR ")+")")
		case search.CategoryIn:
			if err := need(cols.category, p); err != nil {
				return "", nil, err
			}
			if len(p.Values) == 0 {
				continue
			}
			if len(p.Values) == 1 {
				where = append(where, cols.category+" = ?")
				args = append(args, p.Values[0])
				continue
			}
			marks := strings.TrimSuffix(strings.Repeat("?,", len(p.Values)), ",")
			where = append(where, fmt.Sprintf("%s IN (%s)", cols.category, marks))
			for _, v := range p.Values {
				args = append(args, v)
			}
		case search.PriceBetween:
			if err := need(cols.price, p); err != nil {
				return "", nil, err
			}
			if p.Min != nil {
				where = append(where, cols.price+" >= ?")
				args = append(args, *p.Min)
			}
			if p.Max != nil {
				where = append(where, cols.price+" <= ?")
				args = append(args, *p.Max)
			}
		case search.NearExpiryOnly:
			if err := need(cols.nearExpiry, p); err != nil {
				return "", nil, err
			}
			where = append(where, cols.nearExpiry+" = TRUE")
		case search.InStockOnly:
			if err := need(cols.stock, p); err != nil {
				return "", nil, err
			}
			where = append(where, cols.stock+" > 0")
		case search.OwnedBy:
			if err := need(cols.owner, p); err != nil {
				return "", nil, err
			}
			where = append(where, cols.owner+" = ?")
			args = append(args, p.OwnerID)
		case search.AvailableOnly:
			if err := need(cols.available, p); err != nil {
				return "", nil, err
			}
			where = append(where, cols.available+" = TRUE")
		case search.WithinBox:
			if err := need(cols.lat, p); err != nil {
				return "", nil, err
			}
			// NULL coordinates fail BETWEEN, so unlocated rows drop out here.
			where = append(where, cols.lat+" BETWEEN ? AND ?", cols.lon+" BETWEEN ? AND ?")
			args = append(args, p.Box.MinLat, p.Box.MaxLat, p.Box.MinLon, p.Box.MaxLon)
		case search.WithinRadius:
			if err := need(cols.lat, p); err != nil {
				return "", nil, err
			}
			where = append(where, haversineKm(cols.lat, cols.lon)+" <= ?")
			args = append(args, p.Center.Lat, p.Center.Lat, p.Center.Lon, p.Km)
		default:
			return "", nil, errors.Wrapf(ErrUnsupportedPredicate, "%T", p)
		}
	}

	cond := "1=1"
	if len(where) > 0 {
		cond = strings.Join(where, " AND ")
	}
	return cond, args, nil
}

// productSortColumns whitelists the columns a product query may be ordered
// by.
var productSortColumns = map[search.SortKey]string{
	search.SortCreatedAt:  "p.created_at",
	search.SortPrice:      "p.price",
	search.SortExpiryDate: "p.expiry_date",
}

// productOrderBy renders an ORDER BY clause with the product id as
// tie-breaker so that offset pagination is deterministic.
func productOrderBy(s search.Sort) string {
	col, ok := productSortColumns[s.Key]
	if !ok {
		col = "p.created_at"
	}
	dir := "DESC"
	if s.Order == search.SortAsc {
		dir = "ASC"
	}
	return fmt.Sprintf("%s %s, p.id %s", col, dir, dir)
}
