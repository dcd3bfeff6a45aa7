package search

import (
	"github.com/iliyamo/pharmacy-marketplace/internal/model"
)

// Pagination is computed from the store's count, never from the page size.
type Pagination struct {
	Total int64 `json:"total"`
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Pages int64 `json:"pages"`
}

type PriceRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Facets summarise the filtered result set.
type Facets struct {
	Categories []string   `json:"categories"`
	PriceRange PriceRange `json:"priceRange"`
}

// ProductResult is the response envelope of a product search.
type ProductResult struct {
	Products   []model.ProductListing `json:"products"`
	Pagination Pagination             `json:"pagination"`
	Filters    *Facets                `json:"filters,omitempty"`
	Radius     *RadiusInfo            `json:"radius,omitempty"`
}

// PharmacistResult is the response envelope of a pharmacist search.
type PharmacistResult struct {
	Pharmacists []model.PharmacistListing `json:"pharmacists"`
	Pagination  Pagination                `json:"pagination"`
	Radius      RadiusInfo                `json:"radius"`
}

func paginate(total int64, page, limit int) Pagination {
	p := Pagination{Total: total, Page: page, Limit: limit}
	if total > 0 {
		p.Pages = (total + int64(limit) - 1) / int64(limit)
	}
	return p
}

// assembleProducts packages the parts of a product search. Nil slices become
// empty ones so the JSON never carries null arrays.
func assembleProducts(c compiledProducts, total int64, rows []model.ProductListing, facets *Facets) *ProductResult {
	if rows == nil {
		rows = []model.ProductListing{}
	}
	if facets != nil && facets.Categories == nil {
		facets.Categories = []string{}
	}
	return &ProductResult{
		Products:   rows,
		Pagination: paginate(total, c.page, c.limit),
		Filters:    facets,
		Radius:     c.radius,
	}
}

func assemblePharmacists(c compiledPharmacists, total int64, rows []model.PharmacistListing) *PharmacistResult {
	if rows == nil {
		rows = []model.PharmacistListing{}
	}
	return &PharmacistResult{
		Pharmacists: rows,
		Pagination:  paginate(total, c.page, c.limit),
		Radius:      c.radius,
	}
}
