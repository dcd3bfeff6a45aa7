package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/pharmacy-marketplace/internal/model"
	"github.com/iliyamo/pharmacy-marketplace/internal/queue"
	"github.com/iliyamo/pharmacy-marketplace/internal/repository"
	"github.com/iliyamo/pharmacy-marketplace/internal/service"
)

// PharmacyOwnerHandler serves the pharmacy profile and its subscription.
type PharmacyOwnerHandler struct {
	Owners           *repository.PharmacyOwnerRepo
	Events           service.EventPublisher
	SubscriptionDays int
	Now              func() time.Time
}

type updateOwnerReq struct {
	PharmacyName  *string  `json:"pharmacyName"`
	ContactPerson *string  `json:"contactPerson"`
	PhoneNumber   *string  `json:"phoneNumber"`
	Address       *string  `json:"address"`
	Latitude      *float64 `json:"latitude"`
	Longitude     *float64 `json:"longitude"`
}

type subscribeReq struct {
	PlanType string `json:"planType"`
}

func (h *PharmacyOwnerHandler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

func (h *PharmacyOwnerHandler) GetMe(c echo.Context) error {
	uid, ok := getUserID(c)
	if !ok {
		return unauthorized(c)
	}
	ctx, cancel := dbCtx(c)
	defer cancel()

	p, err := h.Owners.GetByUserID(ctx, uid)
	if err != nil {
		if errors.Is(err, repository.ErrProfileNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "pharmacy owner profile not found"})
		}
		return serverError(c, "load profile failed", err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *PharmacyOwnerHandler) UpdateMe(c echo.Context) error {
	uid, ok := getUserID(c)
	if !ok {
		return unauthorized(c)
	}
	var req updateOwnerReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	var fe fieldErrors
	if req.PharmacyName != nil && strings.TrimSpace(*req.PharmacyName) == "" {
		fe.add("pharmacyName", "pharmacy name cannot be empty")
	}
	if req.ContactPerson != nil && strings.TrimSpace(*req.ContactPerson) == "" {
		fe.add("contactPerson", "contact person name cannot be empty")
	}
	checkCoordinates(&fe, req.Latitude, req.Longitude)
	if len(fe) > 0 {
		return validationFailed(c, fe)
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	p, err := h.Owners.GetByUserID(ctx, uid)
	if err != nil {
		if errors.Is(err, repository.ErrProfileNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "pharmacy owner profile not found"})
		}
		return serverError(c, "load profile failed", err)
	}
	setString(&p.PharmacyName, req.PharmacyName)
	setString(&p.ContactPerson, req.ContactPerson)
	setString(&p.PhoneNumber, req.PhoneNumber)
	setString(&p.Address, req.Address)
	if req.Latitude != nil {
		p.Latitude, p.Longitude = req.Latitude, req.Longitude
	}
	if err := h.Owners.Update(ctx, p); err != nil {
		return serverError(c, "update profile failed", err)
	}
	updated, err := h.Owners.GetByUserID(ctx, uid)
	if err != nil {
		return serverError(c, "load profile failed", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "profile updated", "profile": updated})
}

// Subscribe switches the caller's plan. Paid plans run for
// SubscriptionDays from now; "none" has no expiry.
func (h *PharmacyOwnerHandler) Subscribe(c echo.Context) error {
	uid, ok := getUserID(c)
	if !ok {
		return unauthorized(c)
	}
	var req subscribeReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	plan, ok := model.ParseSubscriptionStatus(strings.ToLower(strings.TrimSpace(req.PlanType)))
	if !ok {
		return validationFailed(c, fieldErrors{{Field: "planType", Message: "plan type must be one of: none, basic, premium"}})
	}

	var expiresAt *time.Time
	if plan != model.SubscriptionNone {
		exp := h.now().UTC().AddDate(0, 0, h.SubscriptionDays)
		expiresAt = &exp
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	p, err := h.Owners.Subscribe(ctx, uid, plan, expiresAt)
	if err != nil {
		if errors.Is(err, repository.ErrProfileNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "pharmacy owner profile not found"})
		}
		return serverError(c, "update subscription failed", err)
	}

	_ = h.Events.PublishSubscriptionUpdated(ctx, queue.SubscriptionUpdatedEvent{
		PharmacyID: p.ID,
		UserID:     uid,
		PlanType:   string(plan),
		ExpiresAt:  expiresAt,
		At:         h.now().UTC(),
	})
	return c.JSON(http.StatusOK, echo.Map{"message": "subscription updated", "profile": p})
}
