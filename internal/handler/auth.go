package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/gameforge-studio/internal/middleware"
	"github.com/iliyamo/gameforge-studio/internal/model"
	"github.com/iliyamo/gameforge-studio/internal/repository"
	"github.com/iliyamo/gameforge-studio/internal/utils"
)

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
	Users      repository.UserStore
	Sessions   *middleware.Sessions
	BcryptCost int
	Log        logrus.FieldLogger
}

func NewAuthHandler(users repository.UserStore, sessions *middleware.Sessions, bcryptCost int, log logrus.FieldLogger) *AuthHandler {
	if users == nil || sessions == nil || log == nil {
		panic("nil dependency passed to NewAuthHandler")
	}
	return &AuthHandler{Users: users, Sessions: sessions, BcryptCost: bcryptCost, Log: log}
}

// ----- DTOs -----

type signupReq struct {
	Username        string `json:"username" validate:"required,max=50"`
	Email           string `json:"email" validate:"required,email,max=255"`
	Password        string `json:"password" validate:"required,min=6,max=72"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=Password"`
	DisplayName     string `json:"displayName" validate:"max=100"`
	Role            string `json:"role" validate:"max=100"`
}

type loginReq struct {
	Username string `json:"username" validate:"required_without=Email"`
	Email    string `json:"email"`
	Password string `json:"password" validate:"required"`
}

type changePasswordReq struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=6,max=72"`
	ConfirmPassword string `json:"confirmPassword" validate:"omitempty,eqfield=NewPassword"`
}

type devLoginReq struct {
	Username string `json:"username" validate:"required_without=UserID"`
	UserID   string `json:"userId"`
}

func (r *signupReq) normalize() {
	r.Username = strings.TrimSpace(r.Username)
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	r.DisplayName = strings.TrimSpace(r.DisplayName)
}

func (r *loginReq) normalize() {
	r.Username = strings.TrimSpace(r.Username)
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
}

func (r *devLoginReq) normalize() {
	r.Username = strings.TrimSpace(r.Username)
	r.UserID = strings.TrimSpace(r.UserID)
}

// Signup: POST /api/auth/signup. Creates the account and logs it in.
func (h *AuthHandler) Signup(c echo.Context) error {
	var req signupReq
	if err := bind(c, &req); err != nil {
		return badRequest(c, err)
	}
	ctx := c.Request().Context()

	if u, err := h.Users.GetUserByUsername(ctx, req.Username); err != nil {
		return internalError(err)
	} else if u != nil {
		return message(c, http.StatusConflict, "Username already taken")
	}
	if u, err := h.Users.GetUserByEmail(ctx, req.Email); err != nil {
		return internalError(err)
	} else if u != nil {
		return message(c, http.StatusConflict, "Email already registered")
	}

	hash, err := utils.HashPassword(req.Password, h.BcryptCost)
	if err != nil {
		return internalError(err)
	}
	display := req.DisplayName
	if display == "" {
		display = req.Username
	}
	user, err := h.Users.CreateUser(ctx, model.NewUser{
		Username:    req.Username,
		Password:    hash,
		Email:       req.Email,
		DisplayName: display,
		Role:        req.Role,
	})
	if err != nil {
		// lost a race with a concurrent signup
		return storageError(c, err)
	}
	if err := h.Sessions.Start(c, user.ID); err != nil {
		return internalError(err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"user": user})
}

// Login: POST /api/auth/login. Accepts a username or an email address.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := bind(c, &req); err != nil {
		return badRequest(c, err)
	}
	ctx := c.Request().Context()

	ident := req.Username
	if ident == "" {
		ident = req.Email
	}
	var (
		user *model.User
		err  error
	)
	if strings.Contains(ident, "@") {
		user, err = h.Users.GetUserByEmail(ctx, strings.ToLower(ident))
	} else {
		user, err = h.Users.GetUserByUsername(ctx, ident)
	}
	if err != nil {
		return internalError(err)
	}
	if user == nil || !utils.VerifyPassword(user.Password, req.Password) {
		return message(c, http.StatusUnauthorized, "Invalid username or password")
	}

	if utils.NeedsRehash(user.Password, h.BcryptCost) {
		h.rehash(c, user.ID, req.Password)
	}
	if err := h.Sessions.Start(c, user.ID); err != nil {
		return internalError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"user": user})
}

// rehash upgrades a hash made with an older cost. Failure is not fatal;
// the old hash keeps working.
func (h *AuthHandler) rehash(c echo.Context, userID, plain string) {
	hash, err := utils.HashPassword(plain, h.BcryptCost)
	if err == nil {
		_, err = h.Users.UpdateUserPassword(c.Request().Context(), userID, hash)
	}
	if err != nil {
		h.Log.WithError(err).WithField("user_id", userID).Warn("password rehash failed")
	}
}

// Logout: POST /api/auth/logout.
func (h *AuthHandler) Logout(c echo.Context) error {
	if err := h.Sessions.End(c); err != nil {
		h.Log.WithError(err).Warn("session destroy failed")
	}
	return message(c, http.StatusOK, "Logged out")
}

// ChangePassword: PATCH /api/auth/change-password.
func (h *AuthHandler) ChangePassword(c echo.Context) error {
	uid := getUserID(c)
	var req changePasswordReq
	if err := bind(c, &req); err != nil {
		return badRequest(c, err)
	}
	ctx := c.Request().Context()

	user, err := h.Users.GetUser(ctx, uid)
	if err != nil {
		return internalError(err)
	}
	if user == nil {
		_ = h.Sessions.End(c)
		return unauthenticated(c)
	}
	if !utils.VerifyPassword(user.Password, req.CurrentPassword) {
		return badRequest(c, invalid(FieldError{Field: "currentPassword", Message: "is incorrect"}))
	}
	hash, err := utils.HashPassword(req.NewPassword, h.BcryptCost)
	if err != nil {
		return internalError(err)
	}
	ok, err := h.Users.UpdateUserPassword(ctx, uid, hash)
	if err != nil {
		return internalError(err)
	}
	if !ok {
		return notFound(c, "User")
	}
	return message(c, http.StatusOK, "Password updated")
}

// DevLogin: POST /api/auth/dev-login. Binds the session to a named user
// without a password. Mounted behind middleware.DevOnly.
func (h *AuthHandler) DevLogin(c echo.Context) error {
	var req devLoginReq
	if err := bind(c, &req); err != nil {
		return badRequest(c, err)
	}
	ctx := c.Request().Context()

	var (
		user *model.User
		err  error
	)
	if req.UserID != "" {
		user, err = h.Users.GetUser(ctx, req.UserID)
	} else {
		user, err = h.Users.GetUserByUsername(ctx, req.Username)
	}
	if err != nil {
		return internalError(err)
	}
	if user == nil {
		return notFound(c, "User")
	}
	if err := h.Sessions.Start(c, user.ID); err != nil {
		return internalError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"user": user})
}
