package repository

import (
	"context"
	"database/sql"
	"errors"

	pkgerrors "github.com/pkg/errors"

	"github.com/iliyamo/pharmacy-marketplace/internal/model"
	"github.com/iliyamo/pharmacy-marketplace/internal/search"
)

// PharmacistRepo reads and updates pharmacist profiles. It implements
// search.PharmacistStore.
type PharmacistRepo struct {
	db *sql.DB
}

var _ search.PharmacistStore = (*PharmacistRepo)(nil)

func NewPharmacistRepo(db *sql.DB) *PharmacistRepo { return &PharmacistRepo{db: db} }

const pharmacistColumnList = `ph.id, ph.user_id, ph.first_name, ph.last_name, ph.phone_number, ph.cv_url,
		ph.bio, ph.experience, ph.education, ph.latitude, ph.longitude, ph.available,
		ph.created_at, ph.updated_at`

func scanPharmacist(s rowScanner) (model.PharmacistProfile, error) {
	var (
		p        model.PharmacistProfile
		cv       sql.NullString
		lat, lon sql.NullFloat64
	)
	err := s.Scan(&p.ID, &p.UserID, &p.FirstName, &p.LastName, &p.PhoneNumber, &cv,
		&p.Bio, &p.Experience, &p.Education, &lat, &lon, &p.Available,
		&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return p, err
	}
	p.CVURL = nullString(cv)
	p.Latitude = nullFloat(lat)
	p.Longitude = nullFloat(lon)
	return p, nil
}

func (r *PharmacistRepo) getOne(ctx context.Context, where string, arg any) (*model.PharmacistProfile, error) {
	q := "SELECT " + pharmacistColumnList + " FROM pharmacist_profiles ph WHERE " + where + " LIMIT 1"
	p, err := scanPharmacist(r.db.QueryRowContext(ctx, q, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}
	return &p, nil
}

// GetByID fetches a profile by its own id.
func (r *PharmacistRepo) GetByID(ctx context.Context, id uint64) (*model.PharmacistProfile, error) {
	return r.getOne(ctx, "ph.id = ?", id)
}

// GetByUserID fetches the profile owned by a user account.
func (r *PharmacistRepo) GetByUserID(ctx context.Context, userID uint64) (*model.PharmacistProfile, error) {
	return r.getOne(ctx, "ph.user_id = ?", userID)
}

// Update writes the editable fields of p, matched by p.UserID.
func (r *PharmacistRepo) Update(ctx context.Context, p *model.PharmacistProfile) error {
	const q = `UPDATE pharmacist_profiles
		SET first_name = ?, last_name = ?, phone_number = ?, bio = ?, experience = ?, education = ?,
		    latitude = ?, longitude = ?, available = ?, updated_at = CURRENT_TIMESTAMP
		WHERE user_id = ?`
	res, err := r.db.ExecContext(ctx, q, p.FirstName, p.LastName, p.PhoneNumber, p.Bio, p.Experience, p.Education,
		p.Latitude, p.Longitude, p.Available, p.UserID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// MySQL reports 0 affected rows for a no-op update too.
		if _, err := r.GetByUserID(ctx, p.UserID); err != nil {
			return err
		}
	}
	return nil
}

// SetCV records the URL of an uploaded CV.
func (r *PharmacistRepo) SetCV(ctx context.Context, userID uint64, url string) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE pharmacist_profiles SET cv_url = ?, updated_at = CURRENT_TIMESTAMP WHERE user_id = ?", url, userID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrProfileNotFound
	}
	return nil
}

func (r *PharmacistRepo) CountPharmacists(ctx context.Context, f search.Filter) (int64, error) {
	cond, args, err := buildWhere(f, pharmacistColumns)
	if err != nil {
		return 0, err
	}
	var total int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM pharmacist_profiles ph WHERE "+cond, args...).Scan(&total); err != nil {
		return 0, pkgerrors.Wrap(err, "count pharmacists")
	}
	return total, nil
}

func (r *PharmacistRepo) FindPharmacists(ctx context.Context, f search.Filter, offset, limit int) ([]model.PharmacistListing, error) {
	cond, args, err := buildWhere(f, pharmacistColumns)
	if err != nil {
		return nil, err
	}
	q := "SELECT " + pharmacistColumnList + " FROM pharmacist_profiles ph WHERE " + cond +
		" ORDER BY ph.id LIMIT ? OFFSET ?"
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "find pharmacists")
	}
	defer rows.Close()

	out := make([]model.PharmacistListing, 0, limit)
	for rows.Next() {
		p, err := scanPharmacist(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, model.PharmacistListing{PharmacistProfile: p})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
