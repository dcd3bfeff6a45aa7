package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"

	"github.com/iliyamo/pharmacy-marketplace/internal/model"
	"github.com/iliyamo/pharmacy-marketplace/internal/utils"
)

type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

var ErrEmailExists = errors.New("email already exists")

// isDuplicate reports a MySQL unique-key violation (error 1062).
func isDuplicate(err error) bool {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number == 1062
	}
	return strings.Contains(strings.ToLower(err.Error()), "1062")
}

// createUser inserts the account row inside tx and returns its ID.
func createUser(ctx context.Context, tx *sql.Tx, email, password, role string, cost int) (uint64, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	res, err := tx.ExecContext(ctx,
		"INSERT INTO users (email, password_hash, role) VALUES (?,?,?)",
		email, hash, role)
	if err != nil {
		if isDuplicate(err) {
			return 0, ErrEmailExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// withTx runs fn in a transaction, committing when it returns nil.
func (r *UserRepo) withTx(ctx context.Context, fn func(tx *sql.Tx) error) (err error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()
	return fn(tx)
}

// CreatePharmacist registers a PHARMACIST account and its profile in one
// transaction. p.ID and p.UserID are populated on success.
func (r *UserRepo) CreatePharmacist(ctx context.Context, email, password string, cost int, p *model.PharmacistProfile) (uint64, error) {
	var userID uint64
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		id, err := createUser(ctx, tx, email, password, model.RolePharmacist, cost)
		if err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx,
			`INSERT INTO pharmacist_profiles
			 (user_id, first_name, last_name, phone_number, bio, experience, education, latitude, longitude, available)
			 VALUES (?,?,?,?,?,?,?,?,?,?)`,
			id, p.FirstName, p.LastName, p.PhoneNumber, p.Bio, p.Experience, p.Education, p.Latitude, p.Longitude, p.Available)
		if err != nil {
			return err
		}
		pid, err := res.LastInsertId()
		if err != nil {
			return err
		}
		userID, p.ID, p.UserID = id, uint64(pid), id
		return nil
	})
	return userID, err
}

// CreatePharmacyOwner registers a PHARMACY_OWNER account and its pharmacy
// profile in one transaction. New pharmacies start on the "none" plan.
func (r *UserRepo) CreatePharmacyOwner(ctx context.Context, email, password string, cost int, p *model.PharmacyOwnerProfile) (uint64, error) {
	var userID uint64
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		id, err := createUser(ctx, tx, email, password, model.RolePharmacyOwner, cost)
		if err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx,
			`INSERT INTO pharmacy_owner_profiles
			 (user_id, pharmacy_name, contact_person, phone_number, address, latitude, longitude, subscription_status)
			 VALUES (?,?,?,?,?,?,?,?)`,
			id, p.PharmacyName, p.ContactPerson, p.PhoneNumber, p.Address, p.Latitude, p.Longitude, string(model.SubscriptionNone))
		if err != nil {
			return err
		}
		pid, err := res.LastInsertId()
		if err != nil {
			return err
		}
		userID, p.ID, p.UserID = id, uint64(pid), id
		p.SubscriptionStatus = model.SubscriptionNone
		return nil
	})
	return userID, err
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	var u model.User
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,email,password_hash,role,created_at,updated_at FROM users WHERE email=? LIMIT 1",
		email).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	var u model.User
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,email,password_hash,role,created_at,updated_at FROM users WHERE id=? LIMIT 1",
		id).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}
