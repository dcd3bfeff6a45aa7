package handler

import (
	"context"
	"errors"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/pharmacy-marketplace/internal/repository"
	"github.com/iliyamo/pharmacy-marketplace/internal/search"
	"github.com/iliyamo/pharmacy-marketplace/internal/storage"
)

// cvTypes maps accepted CV extensions to their content type.
var cvTypes = map[string]string{
	".pdf":  "application/pdf",
	".doc":  "application/msword",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
}

// PharmacistHandler serves pharmacist profiles, CV uploads and the
// pharmacist directory search used by pharmacies.
type PharmacistHandler struct {
	Pharmacists   *repository.PharmacistRepo
	Owners        *repository.PharmacyOwnerRepo
	Searcher      *search.Service
	Files         storage.FileStore
	MaxUpload     int64
	SearchTimeout time.Duration
}

// updatePharmacistReq carries a partial profile update; nil fields are left
// unchanged.
type updatePharmacistReq struct {
	FirstName   *string  `json:"firstName"`
	LastName    *string  `json:"lastName"`
	PhoneNumber *string  `json:"phoneNumber"`
	Bio         *string  `json:"bio"`
	Experience  *string  `json:"experience"`
	Education   *string  `json:"education"`
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
	Available   *bool    `json:"available"`
}

func (h *PharmacistHandler) GetMe(c echo.Context) error {
	uid, ok := getUserID(c)
	if !ok {
		return unauthorized(c)
	}
	ctx, cancel := dbCtx(c)
	defer cancel()

	p, err := h.Pharmacists.GetByUserID(ctx, uid)
	if err != nil {
		if errors.Is(err, repository.ErrProfileNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "pharmacist profile not found"})
		}
		return serverError(c, "load profile failed", err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *PharmacistHandler) UpdateMe(c echo.Context) error {
	uid, ok := getUserID(c)
	if !ok {
		return unauthorized(c)
	}
	var req updatePharmacistReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	var fe fieldErrors
	for field, v := range map[string]*string{"firstName": req.FirstName, "lastName": req.LastName, "phoneNumber": req.PhoneNumber} {
		if v != nil && strings.TrimSpace(*v) == "" {
			fe.add(field, field+" cannot be empty")
		}
	}
	checkCoordinates(&fe, req.Latitude, req.Longitude)
	if len(fe) > 0 {
		return validationFailed(c, fe)
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	p, err := h.Pharmacists.GetByUserID(ctx, uid)
	if err != nil {
		if errors.Is(err, repository.ErrProfileNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "pharmacist profile not found"})
		}
		return serverError(c, "load profile failed", err)
	}
	setString(&p.FirstName, req.FirstName)
	setString(&p.LastName, req.LastName)
	setString(&p.PhoneNumber, req.PhoneNumber)
	setString(&p.Bio, req.Bio)
	setString(&p.Experience, req.Experience)
	setString(&p.Education, req.Education)
	if req.Latitude != nil {
		p.Latitude, p.Longitude = req.Latitude, req.Longitude
	}
	if req.Available != nil {
		p.Available = *req.Available
	}
	if err := h.Pharmacists.Update(ctx, p); err != nil {
		return serverError(c, "update profile failed", err)
	}
	updated, err := h.Pharmacists.GetByUserID(ctx, uid)
	if err != nil {
		return serverError(c, "load profile failed", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "profile updated", "profile": updated})
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = strings.TrimSpace(*v)
	}
}

// UploadCV stores the multipart file "cv" (pdf, doc or docx) and records
// its URL on the caller's profile.
func (h *PharmacistHandler) UploadCV(c echo.Context) error {
	uid, ok := getUserID(c)
	if !ok {
		return unauthorized(c)
	}
	fh, err := c.FormFile("cv")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "no file uploaded"})
	}
	if h.MaxUpload > 0 && fh.Size > h.MaxUpload {
		return c.JSON(http.StatusRequestEntityTooLarge, echo.Map{"error": "file too large"})
	}
	ext := strings.ToLower(filepath.Ext(fh.Filename))
	contentType, ok := cvTypes[ext]
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "only PDF and Word documents are allowed"})
	}

	src, err := fh.Open()
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unreadable upload"})
	}
	defer src.Close()

	ctx, cancel := context.WithTimeout(c.Request().Context(), 30*time.Second)
	defer cancel()

	url, err := h.Files.Save(ctx, "cvs", ext, contentType, src, fh.Size)
	if err != nil {
		return serverError(c, "store cv failed", err)
	}
	if err := h.Pharmacists.SetCV(ctx, uid, url); err != nil {
		if errors.Is(err, repository.ErrProfileNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "pharmacist profile not found"})
		}
		return serverError(c, "save cv failed", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "CV uploaded", "cvUrl": url})
}

// Search lists pharmacists around a point for a pharmacy. The radius is
// capped by the pharmacy's plan.
func (h *PharmacistHandler) Search(c echo.Context) error {
	uid, ok := getUserID(c)
	if !ok {
		return unauthorized(c)
	}
	req, fe := parsePharmacistSearch(c)
	if len(fe) > 0 {
		return validationFailed(c, fe)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.SearchTimeout)
	defer cancel()

	owner, err := h.Owners.GetByUserID(ctx, uid)
	if err != nil {
		if errors.Is(err, repository.ErrProfileNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "pharmacy owner profile not found"})
		}
		return serverError(c, "load profile failed", err)
	}
	req.Subscription = search.SubscriptionOf(owner)

	res, err := h.Searcher.SearchPharmacists(ctx, req)
	if err != nil {
		return serverError(c, "search pharmacists failed", err)
	}
	return c.JSON(http.StatusOK, res)
}

// GetByID shows a pharmacist's full profile to pharmacies with an active
// plan.
func (h *PharmacistHandler) GetByID(c echo.Context) error {
	uid, ok := getUserID(c)
	if !ok {
		return unauthorized(c)
	}
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ctx, cancel := dbCtx(c)
	defer cancel()

	owner, err := h.Owners.GetByUserID(ctx, uid)
	if err != nil {
		if errors.Is(err, repository.ErrProfileNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "pharmacy owner profile not found"})
		}
		return serverError(c, "load profile failed", err)
	}
	if !search.SubscriptionOf(owner).Active(time.Now()) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "active subscription required to view pharmacist details"})
	}

	p, err := h.Pharmacists.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrProfileNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "pharmacist not found"})
		}
		return serverError(c, "load pharmacist failed", err)
	}
	return c.JSON(http.StatusOK, p)
}
