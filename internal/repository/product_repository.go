// Package repository contains data access logic separated from HTTP handlers.
// This file holds the product catalog: CRUD used by pharmacy owners and the
// read side the search service queries. Products always come back joined with
// the pharmacy that lists them.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	pkgerrors "github.com/pkg/errors"

	"github.com/iliyamo/pharmacy-marketplace/internal/model"
	"github.com/iliyamo/pharmacy-marketplace/internal/search"
)

// ProductRepo encapsulates all database queries related to products. It
// implements search.ProductStore.
type ProductRepo struct {
	db *sql.DB
}

var _ search.ProductStore = (*ProductRepo)(nil)

func NewProductRepo(db *sql.DB) *ProductRepo {
	return &ProductRepo{db: db}
}

const productFrom = `FROM products p
		JOIN pharmacy_owner_profiles o ON o.id = p.owner_id`

const listingColumns = `p.id, p.owner_id, p.name, p.description, p.category, p.price, p.stock,
		p.is_near_expiry, p.expiry_date, p.image_url, p.created_at, p.updated_at,
		o.id, o.pharmacy_name, o.contact_person, o.phone_number, o.address, o.latitude, o.longitude`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanListing(s rowScanner) (model.ProductListing, error) {
	var (
		l        model.ProductListing
		expiry   sql.NullTime
		image    sql.NullString
		lat, lon sql.NullFloat64
	)
	err := s.Scan(
		&l.ID, &l.OwnerID, &l.Name, &l.Description, &l.Category, &l.Price, &l.Stock,
		&l.IsNearExpiry, &expiry, &image, &l.CreatedAt, &l.UpdatedAt,
		&l.Pharmacy.ID, &l.Pharmacy.PharmacyName, &l.Pharmacy.ContactPerson, &l.Pharmacy.PhoneNumber,
		&l.Pharmacy.Address, &lat, &lon,
	)
	if err != nil {
		return l, err
	}
	l.ExpiryDate = nullTime(expiry)
	l.ImageURL = nullString(image)
	l.Pharmacy.Latitude = nullFloat(lat)
	l.Pharmacy.Longitude = nullFloat(lon)
	return l, nil
}

// Create inserts a new product for p.OwnerID. On success ID and the
// timestamps are populated.
func (r *ProductRepo) Create(ctx context.Context, p *model.Product) error {
	const q = `INSERT INTO products
		(owner_id, name, description, category, price, stock, is_near_expiry, expiry_date, image_url)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q,
		p.OwnerID, p.Name, p.Description, p.Category, p.Price, p.Stock, p.IsNearExpiry, p.ExpiryDate, p.ImageURL)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = uint64(id)
	return r.db.QueryRowContext(ctx, "SELECT created_at, updated_at FROM products WHERE id = ?", p.ID).
		Scan(&p.CreatedAt, &p.UpdatedAt)
}

// GetListing fetches one product with its pharmacy. It returns
// ErrProductNotFound if no row exists.
func (r *ProductRepo) GetListing(ctx context.Context, id uint64) (*model.ProductListing, error) {
	q := "SELECT " + listingColumns + " " + productFrom + " WHERE p.id = ?"
	l, err := scanListing(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	return &l, nil
}

// ownerOf returns the owner of product id inside tx, locking the row.
func ownerOf(ctx context.Context, tx *sql.Tx, id uint64) (uint64, error) {
	var owner uint64
	err := tx.QueryRowContext(ctx, "SELECT owner_id FROM products WHERE id = ? FOR UPDATE", id).Scan(&owner)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrProductNotFound
	}
	return owner, err
}

// Update overwrites the editable fields of p provided it belongs to
// p.OwnerID. ErrProductNotFound and ErrForbidden distinguish a missing
// product from someone else's.
func (r *ProductRepo) Update(ctx context.Context, p *model.Product) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
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

	owner, err := ownerOf(ctx, tx, p.ID)
	if err != nil {
		return err
	}
	if owner != p.OwnerID {
		return ErrForbidden
	}
	const q = `UPDATE products
		SET name = ?, description = ?, category = ?, price = ?, stock = ?,
		    is_near_expiry = ?, expiry_date = ?, image_url = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`
	if _, err = tx.ExecContext(ctx, q,
		p.Name, p.Description, p.Category, p.Price, p.Stock, p.IsNearExpiry, p.ExpiryDate, p.ImageURL, p.ID); err != nil {
		return err
	}
	return tx.QueryRowContext(ctx, "SELECT created_at, updated_at FROM products WHERE id = ?", p.ID).
		Scan(&p.CreatedAt, &p.UpdatedAt)
}

// Delete removes a product listed by ownerID.
func (r *ProductRepo) Delete(ctx context.Context, id, ownerID uint64) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
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

	owner, err := ownerOf(ctx, tx, id)
	if err != nil {
		return err
	}
	if owner != ownerID {
		return ErrForbidden
	}
	_, err = tx.ExecContext(ctx, "DELETE FROM products WHERE id = ?", id)
	return err
}

func (r *ProductRepo) CountProducts(ctx context.Context, f search.Filter) (int64, error) {
	cond, args, err := buildWhere(f, productColumns)
	if err != nil {
		return 0, err
	}
	var total int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) "+productFrom+" WHERE "+cond, args...).Scan(&total); err != nil {
		return 0, pkgerrors.Wrap(err, "count products")
	}
	return total, nil
}

func (r *ProductRepo) FindProducts(ctx context.Context, f search.Filter, s search.Sort, offset, limit int) ([]model.ProductListing, error) {
	cond, args, err := buildWhere(f, productColumns)
	if err != nil {
		return nil, err
	}
	q := "SELECT " + listingColumns + " " + productFrom + " WHERE " + cond +
		" ORDER BY " + productOrderBy(s) + " LIMIT ? OFFSET ?"
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "find products")
	}
	defer rows.Close()

	out := make([]model.ProductListing, 0, limit)
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *ProductRepo) DistinctCategories(ctx context.Context, f search.Filter) ([]string, error) {
	cond, args, err := buildWhere(f, productColumns)
	if err != nil {
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx,
		"SELECT DISTINCT p.category "+productFrom+" WHERE "+cond+" ORDER BY p.category", args...)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "distinct categories")
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *ProductRepo) PriceRange(ctx context.Context, f search.Filter) (search.PriceRange, error) {
	cond, args, err := buildWhere(f, productColumns)
	if err != nil {
		return search.PriceRange{}, err
	}
	var lo, hi sql.NullFloat64
	if err := r.db.QueryRowContext(ctx,
		"SELECT MIN(p.price), MAX(p.price) "+productFrom+" WHERE "+cond, args...).Scan(&lo, &hi); err != nil {
		return search.PriceRange{}, pkgerrors.Wrap(err, "price range")
	}
	return search.PriceRange{Min: lo.Float64, Max: hi.Float64}, nil
}

func nullTime(v sql.NullTime) *time.Time {
	if !v.Valid {
		return nil
	}
	t := v.Time
	return &t
}

func nullString(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}

func nullFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
