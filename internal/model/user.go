package model

import "time"

// Role names stored in users.role and carried in the JWT "role" claim.
const (
	RolePharmacist    = "PHARMACIST"
	RolePharmacyOwner = "PHARMACY_OWNER"
)

// User represents an account row in the `users` table. A user owns exactly
// one profile and the role decides which: PHARMACIST users have a
// PharmacistProfile, PHARMACY_OWNER users a PharmacyOwnerProfile.
//
// Fields:
//  ID           – primary key identifier of the user.
//  Email        – unique, lower-cased email address.
//  PasswordHash – bcrypt hashed password.
//  Role         – PHARMACIST or PHARMACY_OWNER.
//  CreatedAt    – timestamp of creation.
//  UpdatedAt    – timestamp of last update.
type User struct {
	ID           uint64    // users.id
	Email        string    // users.email
	PasswordHash string    // users.password_hash
	Role         string    // users.role
	CreatedAt    time.Time // users.created_at
	UpdatedAt    time.Time // users.updated_at
}

// ValidRole reports whether r is one of the two account roles.
func ValidRole(r string) bool {
	return r == RolePharmacist || r == RolePharmacyOwner
}

// RefreshToken models an entry in the `refresh_tokens` table. Only the
// SHA-256 hash of the token handed to the client is stored.
type RefreshToken struct {
	ID        uint64     // refresh_tokens.id
	UserID    uint64     // refresh_tokens.user_id
	TokenHash string     // refresh_tokens.token_hash
	ExpiresAt time.Time  // refresh_tokens.expires_at
	RevokedAt *time.Time // refresh_tokens.revoked_at (nullable)
	CreatedAt time.Time  // refresh_tokens.created_at
}
