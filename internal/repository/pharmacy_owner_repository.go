package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/pharmacy-marketplace/internal/model"
)

// PharmacyOwnerRepo reads and updates pharmacy owner profiles, including
// their subscription plan.
type PharmacyOwnerRepo struct {
	db *sql.DB
}

func NewPharmacyOwnerRepo(db *sql.DB) *PharmacyOwnerRepo { return &PharmacyOwnerRepo{db: db} }

const ownerColumnList = `id, user_id, pharmacy_name, contact_person, phone_number, address,
		latitude, longitude, subscription_status, subscription_expires_at, created_at, updated_at`

func (r *PharmacyOwnerRepo) getOne(ctx context.Context, where string, arg any) (*model.PharmacyOwnerProfile, error) {
	var (
		p        model.PharmacyOwnerProfile
		lat, lon sql.NullFloat64
		expires  sql.NullTime
	)
	q := "SELECT " + ownerColumnList + " FROM pharmacy_owner_profiles WHERE " + where + " LIMIT 1"
	err := r.db.QueryRowContext(ctx, q, arg).Scan(&p.ID, &p.UserID, &p.PharmacyName, &p.ContactPerson,
		&p.PhoneNumber, &p.Address, &lat, &lon, &p.SubscriptionStatus, &expires, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}
	p.Latitude = nullFloat(lat)
	p.Longitude = nullFloat(lon)
	p.SubscriptionExpiresAt = nullTime(expires)
	return &p, nil
}

// GetByID fetches a pharmacy by its profile id.
func (r *PharmacyOwnerRepo) GetByID(ctx context.Context, id uint64) (*model.PharmacyOwnerProfile, error) {
	return r.getOne(ctx, "id = ?", id)
}

// GetByUserID fetches the pharmacy profile of a user account.
func (r *PharmacyOwnerRepo) GetByUserID(ctx context.Context, userID uint64) (*model.PharmacyOwnerProfile, error) {
	return r.getOne(ctx, "user_id = ?", userID)
}

// Update writes the editable fields of p, matched by p.UserID. Subscription
// fields are only changed through Subscribe.
func (r *PharmacyOwnerRepo) Update(ctx context.Context, p *model.PharmacyOwnerProfile) error {
	const q = `UPDATE pharmacy_owner_profiles
		SET pharmacy_name = ?, contact_person = ?, phone_number = ?, address = ?,
		    latitude = ?, longitude = ?, updated_at = CURRENT_TIMESTAMP
		WHERE user_id = ?`
	if _, err := r.db.ExecContext(ctx, q, p.PharmacyName, p.ContactPerson, p.PhoneNumber, p.Address,
		p.Latitude, p.Longitude, p.UserID); err != nil {
		return err
	}
	_, err := r.GetByUserID(ctx, p.UserID)
	return err
}

// Subscribe sets the plan of the pharmacy owned by userID. A nil expiresAt
// never expires.
func (r *PharmacyOwnerRepo) Subscribe(ctx context.Context, userID uint64, status model.SubscriptionStatus, expiresAt *time.Time) (*model.PharmacyOwnerProfile, error) {
	const q = `UPDATE pharmacy_owner_profiles
		SET subscription_status = ?, subscription_expires_at = ?, updated_at = CURRENT_TIMESTAMP
		WHERE user_id = ?`
	if _, err := r.db.ExecContext(ctx, q, string(status), expiresAt, userID); err != nil {
		return nil, err
	}
	return r.GetByUserID(ctx, userID)
}
