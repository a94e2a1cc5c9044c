package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/gameforge-studio/internal/middleware"
	"github.com/iliyamo/gameforge-studio/internal/model"
	"github.com/iliyamo/gameforge-studio/internal/repository"
)

// UserHandler serves profiles and the team directory.
type UserHandler struct {
	Users    repository.UserStore
	Sessions *middleware.Sessions
}

func NewUserHandler(users repository.UserStore, sessions *middleware.Sessions) *UserHandler {
	if users == nil || sessions == nil {
		panic("nil dependency passed to NewUserHandler")
	}
	return &UserHandler{Users: users, Sessions: sessions}
}

// Current: GET /api/user/current. A session whose user has been deleted is
// destroyed and the caller is treated as logged out.
func (h *UserHandler) Current(c echo.Context) error {
	user, err := h.Users.GetUser(c.Request().Context(), getUserID(c))
	if err != nil {
		return internalError(err)
	}
	if user == nil {
		_ = h.Sessions.End(c)
		return unauthenticated(c)
	}
	return c.JSON(http.StatusOK, user)
}

// List: GET /api/users.
func (h *UserHandler) List(c echo.Context) error {
	users, err := h.Users.ListUsers(c.Request().Context())
	if err != nil {
		return internalError(err)
	}
	return c.JSON(http.StatusOK, users)
}

// Get: GET /api/users/:id.
func (h *UserHandler) Get(c echo.Context) error {
	user, err := h.Users.GetUser(c.Request().Context(), c.Param("id"))
	if err != nil {
		return internalError(err)
	}
	if user == nil {
		return notFound(c, "User")
	}
	return c.JSON(http.StatusOK, user)
}

// Update: PATCH /api/users/:id. Users may only edit their own profile.
func (h *UserHandler) Update(c echo.Context) error {
	id := c.Param("id")
	if getUserID(c) != id {
		return forbidden(c)
	}
	var patch model.UserPatch
	if err := bind(c, &patch, immutableKeys...); err != nil {
		return badRequest(c, err)
	}
	user, err := h.Users.UpdateUser(c.Request().Context(), id, patch)
	if err != nil {
		return storageError(c, err)
	}
	if user == nil {
		return notFound(c, "User")
	}
	return c.JSON(http.StatusOK, user)
}
