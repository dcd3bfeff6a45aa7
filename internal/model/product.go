package model

import "time"

// Product mirrors a row in the `products` table.
//
// Fields:
//  ID           – primary key identifier.
//  OwnerID      – pharmacy_owner_profiles.id of the selling pharmacy.
//  Name         – product name.
//  Description  – free text, may be empty.
//  Category     – free-form category label (not an enum in the schema).
//  Price        – non-negative decimal price.
//  Stock        – units on hand.
//  IsNearExpiry – flagged for discounted near-expiry sale.
//  ExpiryDate   – required by the API when IsNearExpiry is set, nullable otherwise.
//  ImageURL     – optional image link.
type Product struct {
	ID           uint64     `json:"id"`
	OwnerID      uint64     `json:"pharmacyOwnerId"`
	Name         string     `json:"name"`
	Description  string     `json:"description"`
	Category     string     `json:"category"`
	Price        float64    `json:"price"`
	Stock        uint32     `json:"stock"`
	IsNearExpiry bool       `json:"isNearExpiry"`
	ExpiryDate   *time.Time `json:"expiryDate"`
	ImageURL     *string    `json:"imageUrl"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// ProductListing is a product joined with its pharmacy, as returned by the
// catalog search. DistanceKm is only set when the search had a center point.
type ProductListing struct {
	Product
	Pharmacy   PharmacySummary `json:"pharmacyOwner"`
	DistanceKm *float64        `json:"distance,omitempty"`
}

// Location returns the pharmacy coordinate of the listing, if it has one.
func (l ProductListing) Location() (lat, lon float64, ok bool) {
	if l.Pharmacy.Latitude == nil || l.Pharmacy.Longitude == nil {
		return 0, 0, false
	}
	return *l.Pharmacy.Latitude, *l.Pharmacy.Longitude, true
}

// Location returns the pharmacist coordinate, if the profile has one.
func (l PharmacistListing) Location() (lat, lon float64, ok bool) {
	if l.Latitude == nil || l.Longitude == nil {
		return 0, 0, false
	}
	return *l.Latitude, *l.Longitude, true
}
