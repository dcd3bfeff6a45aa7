package handler

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/pharmacy-marketplace/internal/config"
	"github.com/iliyamo/pharmacy-marketplace/internal/middleware"
	"github.com/iliyamo/pharmacy-marketplace/internal/model"
	"github.com/iliyamo/pharmacy-marketplace/internal/repository"
	"github.com/iliyamo/pharmacy-marketplace/internal/utils"
)

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
	Cfg         config.Config
	Users       *repository.UserRepo
	Tokens      *repository.TokenRepo
	Pharmacists *repository.PharmacistRepo
	Owners      *repository.PharmacyOwnerRepo
}

func NewAuthHandler(cfg config.Config, u *repository.UserRepo, t *repository.TokenRepo,
	ph *repository.PharmacistRepo, o *repository.PharmacyOwnerRepo) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Users: u, Tokens: t, Pharmacists: ph, Owners: o}
}

// ----- DTOs -----

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerPharmacistReq struct {
	credentials
	FirstName   string   `json:"firstName"`
	LastName    string   `json:"lastName"`
	PhoneNumber string   `json:"phoneNumber"`
	Bio         string   `json:"bio"`
	Experience  string   `json:"experience"`
	Education   string   `json:"education"`
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
}

type registerOwnerReq struct {
	credentials
	PharmacyName  string   `json:"pharmacyName"`
	ContactPerson string   `json:"contactPerson"`
	PhoneNumber   string   `json:"phoneNumber"`
	Address       string   `json:"address"`
	Latitude      *float64 `json:"latitude"`
	Longitude     *float64 `json:"longitude"`
}

type refreshReq struct {
	RefreshToken string `json:"refresh_token"`
}

type tokenPart struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}
type userPart struct {
	ID    uint64 `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}
type authResp struct {
	User    userPart  `json:"user"`
	Access  tokenPart `json:"access"`
	Refresh tokenPart `json:"refresh"`
	Profile any       `json:"profile,omitempty"`
}

// check normalizes the email and validates the credential rules.
func (cr *credentials) check(fe *fieldErrors) {
	cr.Email = strings.ToLower(strings.TrimSpace(cr.Email))
	if a, err := mail.ParseAddress(cr.Email); err != nil || a.Address != cr.Email {
		fe.add("email", "please provide a valid email address")
	}
	if utils.CheckPassword(cr.Password) != nil {
		fe.add("password", "password must be at least 6 characters long")
	}
}

func required(fe *fieldErrors, field, v string) {
	if strings.TrimSpace(v) == "" {
		fe.add(field, field+" is required")
	}
}

// RegisterPharmacist creates a PHARMACIST account with its profile and
// returns a token pair.
func (h *AuthHandler) RegisterPharmacist(c echo.Context) error {
	var req registerPharmacistReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	var fe fieldErrors
	req.check(&fe)
	required(&fe, "firstName", req.FirstName)
	required(&fe, "lastName", req.LastName)
	required(&fe, "phoneNumber", req.PhoneNumber)
	checkCoordinates(&fe, req.Latitude, req.Longitude)
	if len(fe) > 0 {
		return validationFailed(c, fe)
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	profile := &model.PharmacistProfile{
		FirstName:   strings.TrimSpace(req.FirstName),
		LastName:    strings.TrimSpace(req.LastName),
		PhoneNumber: strings.TrimSpace(req.PhoneNumber),
		Bio:         req.Bio,
		Experience:  req.Experience,
		Education:   req.Education,
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
		Available:   true,
	}
	uid, err := h.Users.CreatePharmacist(ctx, req.Email, req.Password, h.Cfg.BcryptCost, profile)
	if err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "email already exists"})
		}
		return serverError(c, "create user failed", err)
	}
	return h.respondWithTokens(ctx, c, http.StatusCreated, userPart{ID: uid, Email: req.Email, Role: model.RolePharmacist}, profile)
}

// RegisterPharmacyOwner creates a PHARMACY_OWNER account with its pharmacy
// profile on the "none" plan.
func (h *AuthHandler) RegisterPharmacyOwner(c echo.Context) error {
	var req registerOwnerReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	var fe fieldErrors
	req.check(&fe)
	required(&fe, "pharmacyName", req.PharmacyName)
	required(&fe, "contactPerson", req.ContactPerson)
	required(&fe, "phoneNumber", req.PhoneNumber)
	checkCoordinates(&fe, req.Latitude, req.Longitude)
	if len(fe) > 0 {
		return validationFailed(c, fe)
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	profile := &model.PharmacyOwnerProfile{
		PharmacyName:  strings.TrimSpace(req.PharmacyName),
		ContactPerson: strings.TrimSpace(req.ContactPerson),
		PhoneNumber:   strings.TrimSpace(req.PhoneNumber),
		Address:       req.Address,
		Latitude:      req.Latitude,
		Longitude:     req.Longitude,
	}
	uid, err := h.Users.CreatePharmacyOwner(ctx, req.Email, req.Password, h.Cfg.BcryptCost, profile)
	if err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "email already exists"})
		}
		return serverError(c, "create user failed", err)
	}
	return h.respondWithTokens(ctx, c, http.StatusCreated, userPart{ID: uid, Email: req.Email, Role: model.RolePharmacyOwner}, profile)
}

// respondWithTokens issues an access token and a stored refresh token for u.
func (h *AuthHandler) respondWithTokens(ctx context.Context, c echo.Context, status int, u userPart, profile any) error {
	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, u.ID, u.Role, h.Cfg.AccessTTLMin)
	if err != nil {
		return serverError(c, "issue access failed", err)
	}
	refresh, err := utils.NewRefreshToken(h.Cfg.RefreshTTLDays)
	if err != nil {
		return serverError(c, "issue refresh failed", err)
	}
	if err := h.Tokens.StoreRefresh(ctx, u.ID, utils.HashRefreshRaw(refresh.Raw), refresh.Exp); err != nil {
		return serverError(c, "save refresh failed", err)
	}
	return c.JSON(status, authResp{
		User:    u,
		Access:  tokenPart{Token: access.Token, Expires: access.Exp},
		Refresh: tokenPart{Token: refresh.Raw, Expires: refresh.Exp}, // raw back to client
		Profile: profile,
	})
}

// Login verifies credentials and returns a new pair.
func (h *AuthHandler) Login(c echo.Context) error {
	var req credentials
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email/password required"})
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
		}
		return serverError(c, "query failed", err)
	}
	if !utils.VerifyPassword(u.PasswordHash, req.Password) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}
	return h.respondWithTokens(ctx, c, http.StatusOK, userPart{ID: u.ID, Email: u.Email, Role: u.Role}, nil)
}

// Refresh exchanges a refresh token for a new pair. The old token is
// revoked in the same transaction, so it works once.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "refresh_token required"})
	}
	oldHash := utils.HashRefreshRaw(strings.TrimSpace(req.RefreshToken))

	ctx, cancel := dbCtx(c)
	defer cancel()

	newRef, err := utils.NewRefreshToken(h.Cfg.RefreshTTLDays)
	if err != nil {
		return serverError(c, "issue refresh failed", err)
	}
	userID, err := h.Tokens.Rotate(ctx, oldHash, utils.HashRefreshRaw(newRef.Raw), newRef.Exp)
	if err != nil {
		if errors.Is(err, repository.ErrTokenInvalid) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh"})
		}
		return serverError(c, "rotate refresh failed", err)
	}

	u, err := h.Users.GetByID(ctx, userID)
	if err != nil {
		return serverError(c, "load user failed", err)
	}
	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, userID, u.Role, h.Cfg.AccessTTLMin)
	if err != nil {
		return serverError(c, "issue access failed", err)
	}
	return c.JSON(http.StatusOK, authResp{
		User:    userPart{ID: userID, Email: u.Email, Role: u.Role},
		Access:  tokenPart{Token: access.Token, Expires: access.Exp},
		Refresh: tokenPart{Token: newRef.Raw, Expires: newRef.Exp},
	})
}

// Logout revokes the refresh token in the body, or every token of the
// bearer when the body has none.
func (h *AuthHandler) Logout(c echo.Context) error {
	var uid uint64
	if auth := c.Request().Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		if claims, err := utils.ParseAccessToken(h.Cfg.JWTSecret, strings.TrimPrefix(auth, "Bearer ")); err == nil {
			uid, _ = claims.UserID()
		}
	}

	var req refreshReq
	_ = c.Bind(&req) // a bearer alone is enough
	refreshToken := strings.TrimSpace(req.RefreshToken)

	ctx, cancel := dbCtx(c)
	defer cancel()

	switch {
	case refreshToken != "":
		hash := utils.HashRefreshRaw(refreshToken)
		if _, err := h.Tokens.ValidateRefresh(ctx, hash); err != nil {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh token"})
		}
		if err := h.Tokens.RevokeByHash(ctx, hash); err != nil {
			return serverError(c, "logout failed", err)
		}
	case uid != 0:
		if err := h.Tokens.RevokeAllForUser(ctx, uid); err != nil {
			return serverError(c, "logout failed", err)
		}
	default:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "provide Authorization header or refresh_token"})
	}
	return c.NoContent(http.StatusNoContent)
}

// Me returns the caller's account and profile.
func (h *AuthHandler) Me(c echo.Context) error {
	uid, ok := getUserID(c)
	if !ok {
		return unauthorized(c)
	}
	ctx, cancel := dbCtx(c)
	defer cancel()

	u, err := h.Users.GetByID(ctx, uid)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return unauthorized(c)
		}
		return serverError(c, "load user failed", err)
	}

	var profile any
	switch middleware.Role(c) {
	case model.RolePharmacist:
		profile, err = h.Pharmacists.GetByUserID(ctx, uid)
	case model.RolePharmacyOwner:
		profile, err = h.Owners.GetByUserID(ctx, uid)
	}
	if err != nil && !errors.Is(err, repository.ErrProfileNotFound) {
		return serverError(c, "load profile failed", err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"user":    userPart{ID: u.ID, Email: u.Email, Role: u.Role},
		"profile": profile,
	})
}
