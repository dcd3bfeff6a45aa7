package handler

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/pharmacy-marketplace/internal/middleware"
	"github.com/iliyamo/pharmacy-marketplace/internal/model"
	"github.com/iliyamo/pharmacy-marketplace/internal/queue"
	"github.com/iliyamo/pharmacy-marketplace/internal/repository"
	"github.com/iliyamo/pharmacy-marketplace/internal/search"
	"github.com/iliyamo/pharmacy-marketplace/internal/service"
)

// StoreHandler serves the product catalog: pharmacy-side CRUD and the
// public listing and search.
type StoreHandler struct {
	Products      *repository.ProductRepo
	Owners        *repository.PharmacyOwnerRepo
	Searcher      *search.Service
	Events        service.EventPublisher
	SearchTimeout time.Duration
}

// productReq is used for create and update. On update nil fields keep
// their stored value.
type productReq struct {
	Name         *string  `json:"name"`
	Description  *string  `json:"description"`
	Category     *string  `json:"category"`
	Price        *float64 `json:"price"`
	Stock        *int64   `json:"stock"`
	IsNearExpiry *bool    `json:"isNearExpiry"`
	ExpiryDate   *string  `json:"expiryDate"`
	ImageURL     *string  `json:"imageUrl"`
}

// parseDate accepts RFC 3339 timestamps and plain dates.
func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	return time.Parse(time.DateOnly, s)
}

// apply validates req and merges it into p. create requires the mandatory
// fields.
func (req productReq) apply(p *model.Product, create bool) fieldErrors {
	var fe fieldErrors
	text := func(field string, v *string, dst *string) {
		switch {
		case v == nil:
			if create {
				fe.add(field, field+" is required")
			}
		case strings.TrimSpace(*v) == "":
			fe.add(field, field+" cannot be empty")
		default:
			*dst = strings.TrimSpace(*v)
		}
	}
	text("name", req.Name, &p.Name)
	text("category", req.Category, &p.Category)
	if req.Description != nil {
		p.Description = *req.Description
	}

	switch {
	case req.Price == nil:
		if create {
			fe.add("price", "price is required")
		}
	case !finite(*req.Price) || *req.Price < 0:
		fe.add("price", "price must be a non-negative number")
	default:
		p.Price = *req.Price
	}

	switch {
	case req.Stock == nil:
		if create {
			fe.add("stock", "stock is required")
		}
	case *req.Stock < 0 || *req.Stock > 1<<32-1:
		fe.add("stock", "stock must be a non-negative integer")
	default:
		p.Stock = uint32(*req.Stock)
	}

	if req.IsNearExpiry != nil {
		p.IsNearExpiry = *req.IsNearExpiry
	}
	if req.ExpiryDate != nil {
		if s := strings.TrimSpace(*req.ExpiryDate); s == "" {
			p.ExpiryDate = nil
		} else if t, err := parseDate(s); err != nil {
			fe.add("expiryDate", "expiry date must be a valid date")
		} else {
			p.ExpiryDate = &t
		}
	}
	if p.IsNearExpiry && p.ExpiryDate == nil {
		fe.add("expiryDate", "expiry date is required for near-expiry products")
	}

	if req.ImageURL != nil {
		if s := strings.TrimSpace(*req.ImageURL); s == "" {
			p.ImageURL = nil
		} else if u, err := url.ParseRequestURI(s); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			fe.add("imageUrl", "image URL must be a valid URL")
		} else {
			p.ImageURL = &s
		}
	}
	return fe
}

// ownerProfile loads the pharmacy of the authenticated caller, writing the
// error response itself when it fails.
func (h *StoreHandler) ownerProfile(ctx context.Context, c echo.Context) (*model.PharmacyOwnerProfile, error) {
	uid, ok := getUserID(c)
	if !ok {
		return nil, unauthorized(c)
	}
	p, err := h.Owners.GetByUserID(ctx, uid)
	if err != nil {
		if errors.Is(err, repository.ErrProfileNotFound) {
			return nil, c.JSON(http.StatusNotFound, echo.Map{"error": "pharmacy owner profile not found"})
		}
		return nil, serverError(c, "load profile failed", err)
	}
	return p, nil
}

func (h *StoreHandler) publish(ctx context.Context, p *model.Product, action string) {
	_ = h.Events.PublishProductChanged(ctx, queue.ProductChangedEvent{
		ProductID: p.ID,
		OwnerID:   p.OwnerID,
		Name:      p.Name,
		Category:  p.Category,
		Action:    action,
		At:        time.Now().UTC(),
	})
}

func (h *StoreHandler) CreateProduct(c echo.Context) error {
	var req productReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	var p model.Product
	if fe := req.apply(&p, true); len(fe) > 0 {
		return validationFailed(c, fe)
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	owner, err := h.ownerProfile(ctx, c)
	if owner == nil {
		return err
	}
	p.OwnerID = owner.ID
	if err := h.Products.Create(ctx, &p); err != nil {
		return serverError(c, "create product failed", err)
	}
	h.publish(ctx, &p, queue.ActionCreated)
	return c.JSON(http.StatusCreated, echo.Map{"message": "product created", "product": p})
}

// MyProducts pages through the caller's own products, newest first.
func (h *StoreHandler) MyProducts(c echo.Context) error {
	req, fe := parseProductList(c)
	if len(fe) > 0 {
		return validationFailed(c, fe)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.SearchTimeout)
	defer cancel()

	owner, err := h.ownerProfile(ctx, c)
	if owner == nil {
		return err
	}
	req.OwnerID = &owner.ID
	res, err := h.Searcher.SearchProducts(ctx, req)
	if err != nil {
		return serverError(c, "list products failed", err)
	}
	return c.JSON(http.StatusOK, res)
}

func (h *StoreHandler) GetProduct(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ctx, cancel := dbCtx(c)
	defer cancel()

	l, err := h.Products.GetListing(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "product not found"})
		}
		return serverError(c, "load product failed", err)
	}
	return c.JSON(http.StatusOK, l)
}

func (h *StoreHandler) UpdateProduct(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req productReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	owner, err := h.ownerProfile(ctx, c)
	if owner == nil {
		return err
	}
	current, err := h.Products.GetListing(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "product not found"})
		}
		return serverError(c, "load product failed", err)
	}
	if current.OwnerID != owner.ID {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "you can only update your own products"})
	}

	p := current.Product
	if fe := req.apply(&p, false); len(fe) > 0 {
		return validationFailed(c, fe)
	}
	p.OwnerID = owner.ID
	// the repository re-checks ownership under a row lock
	if err := h.Products.Update(ctx, &p); err != nil {
		switch {
		case errors.Is(err, repository.ErrProductNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "product not found"})
		case errors.Is(err, repository.ErrForbidden):
			return c.JSON(http.StatusForbidden, echo.Map{"error": "you can only update your own products"})
		}
		return serverError(c, "update product failed", err)
	}
	h.publish(ctx, &p, queue.ActionUpdated)
	return c.JSON(http.StatusOK, echo.Map{"message": "product updated", "product": p})
}

func (h *StoreHandler) DeleteProduct(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ctx, cancel := dbCtx(c)
	defer cancel()

	owner, err := h.ownerProfile(ctx, c)
	if owner == nil {
		return err
	}
	if err := h.Products.Delete(ctx, id, owner.ID); err != nil {
		switch {
		case errors.Is(err, repository.ErrProductNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "product not found"})
		case errors.Is(err, repository.ErrForbidden):
			return c.JSON(http.StatusForbidden, echo.Map{"error": "you can only delete your own products"})
		}
		return serverError(c, "delete product failed", err)
	}
	h.publish(ctx, &model.Product{ID: id, OwnerID: owner.ID}, queue.ActionDeleted)
	return c.JSON(http.StatusOK, echo.Map{"message": "product deleted"})
}

// ListProducts is the public catalog: optional category and nearExpiry
// filters, newest first.
func (h *StoreHandler) ListProducts(c echo.Context) error {
	req, fe := parseProductList(c)
	if len(fe) > 0 {
		return validationFailed(c, fe)
	}
	return h.runSearch(c, req)
}

// SearchProducts is the full catalog search. A signed-in pharmacy searches
// with its own plan's radius cap; everyone else gets the "none" tier.
func (h *StoreHandler) SearchProducts(c echo.Context) error {
	req, fe := parseProductSearch(c)
	if len(fe) > 0 {
		return validationFailed(c, fe)
	}
	return h.runSearch(c, req)
}

// PharmacyProducts searches within one pharmacy's catalog.
func (h *StoreHandler) PharmacyProducts(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	req, fe := parseProductSearch(c)
	if len(fe) > 0 {
		return validationFailed(c, fe)
	}
	req.OwnerID = &id
	return h.runSearch(c, req)
}

func (h *StoreHandler) runSearch(c echo.Context, req search.ProductRequest) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.SearchTimeout)
	defer cancel()

	if uid, ok := getUserID(c); ok && middleware.Role(c) == model.RolePharmacyOwner {
		owner, err := h.Owners.GetByUserID(ctx, uid)
		switch {
		case err == nil:
			req.Subscription = search.SubscriptionOf(owner)
		case !errors.Is(err, repository.ErrProfileNotFound):
			return serverError(c, "load profile failed", err)
		}
	}

	res, err := h.Searcher.SearchProducts(ctx, req)
	if err != nil {
		return serverError(c, "search products failed", err)
	}
	return c.JSON(http.StatusOK, res)
}
