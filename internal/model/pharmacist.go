package model

import "time"

// PharmacistProfile mirrors a row in `pharmacist_profiles`. Location is kept
// as an optional latitude/longitude pair; profiles without coordinates never
// show up in geospatial searches.
type PharmacistProfile struct {
	ID          uint64    `json:"id"`
	UserID      uint64    `json:"userId"`
	FirstName   string    `json:"firstName"`
	LastName    string    `json:"lastName"`
	PhoneNumber string    `json:"phoneNumber"`
	CVURL       *string   `json:"cvUrl"`
	Bio         string    `json:"bio"`
	Experience  string    `json:"experience"`
	Education   string    `json:"education"`
	Latitude    *float64  `json:"latitude"`
	Longitude   *float64  `json:"longitude"`
	Available   bool      `json:"available"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// PharmacistListing is a pharmacist returned by a search, annotated with its
// distance from the search center when one was given.
type PharmacistListing struct {
	PharmacistProfile
	DistanceKm *float64 `json:"distanceKm,omitempty"`
}
