package model

import "time"

// SubscriptionStatus is the plan a pharmacy owner pays for. It gates how far
// the owner may search.
type SubscriptionStatus string

const (
	SubscriptionNone    SubscriptionStatus = "none"
	SubscriptionBasic   SubscriptionStatus = "basic"
	SubscriptionPremium SubscriptionStatus = "premium"
)

// ParseSubscriptionStatus maps a plan name to a SubscriptionStatus. The
// second return value is false for unknown names.
func ParseSubscriptionStatus(s string) (SubscriptionStatus, bool) {
	switch SubscriptionStatus(s) {
	case SubscriptionNone, SubscriptionBasic, SubscriptionPremium:
		return SubscriptionStatus(s), true
	}
	return SubscriptionNone, false
}

// PharmacyOwnerProfile mirrors a row in `pharmacy_owner_profiles`. Products
// reference the profile id (not the user id) through products.owner_id.
type PharmacyOwnerProfile struct {
	ID                    uint64             `json:"id"`
	UserID                uint64             `json:"userId"`
	PharmacyName          string             `json:"pharmacyName"`
	ContactPerson         string             `json:"contactPerson"`
	PhoneNumber           string             `json:"phoneNumber"`
	Address               string             `json:"address"`
	Latitude              *float64           `json:"latitude"`
	Longitude             *float64           `json:"longitude"`
	SubscriptionStatus    SubscriptionStatus `json:"subscriptionStatus"`
	SubscriptionExpiresAt *time.Time         `json:"subscriptionExpiresAt"`
	CreatedAt             time.Time          `json:"createdAt"`
	UpdatedAt             time.Time          `json:"updatedAt"`
}

// PharmacySummary is the subset of the owner profile embedded in product
// listings. Subscription details are never exposed publicly.
type PharmacySummary struct {
	ID            uint64   `json:"id"`
	PharmacyName  string   `json:"pharmacyName"`
	ContactPerson string   `json:"contactPerson"`
	PhoneNumber   string   `json:"phoneNumber"`
	Address       string   `json:"address"`
	Latitude      *float64 `json:"latitude"`
	Longitude     *float64 `json:"longitude"`
}
