package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/gameforge-studio/internal/model"
	"github.com/iliyamo/gameforge-studio/internal/repository"
)

// LibraryHandler serves the session user's game library.
type LibraryHandler struct {
	Library repository.LibraryStore
}

func NewLibraryHandler(lib repository.LibraryStore) *LibraryHandler {
	if lib == nil {
		panic("nil repository passed to NewLibraryHandler")
	}
	return &LibraryHandler{Library: lib}
}

type addLibraryReq struct {
	GameID     string `json:"gameId" validate:"required,max=100"`
	Title      string `json:"title" validate:"required,max=200"`
	IsFavorite bool   `json:"isFavorite"`
}

// List: GET /api/library.
func (h *LibraryHandler) List(c echo.Context) error {
	entries, err := h.Library.ListLibrary(c.Request().Context(), getUserID(c))
	if err != nil {
		return internalError(err)
	}
	return c.JSON(http.StatusOK, entries)
}

// Add: POST /api/library.
func (h *LibraryHandler) Add(c echo.Context) error {
	var req addLibraryReq
	if err := bind(c, &req); err != nil {
		return badRequest(c, err)
	}
	entry, err := h.Library.AddToLibrary(c.Request().Context(), model.NewLibraryEntry{
		UserID:     getUserID(c),
		GameID:     req.GameID,
		Title:      req.Title,
		IsFavorite: req.IsFavorite,
	})
	if err != nil {
		return storageError(c, err)
	}
	return c.JSON(http.StatusCreated, entry)
}

// owned loads entry id and checks that it belongs to the session user.
// It writes the response itself when ok is false.
func (h *LibraryHandler) owned(c echo.Context) (entry *model.GameLibrary, ok bool, err error) {
	entry, err = h.Library.GetLibraryEntry(c.Request().Context(), c.Param("id"))
	if err != nil {
		return nil, false, internalError(err)
	}
	if entry == nil {
		return nil, false, notFound(c, "Library entry")
	}
	if entry.UserID != getUserID(c) {
		return nil, false, forbidden(c)
	}
	return entry, true, nil
}

// Update: PATCH /api/library/:id.
func (h *LibraryHandler) Update(c echo.Context) error {
	entry, ok, err := h.owned(c)
	if !ok {
		return err
	}
	var patch model.LibraryPatch
	if err := bind(c, &patch, immutableKeys...); err != nil {
		return badRequest(c, err)
	}
	updated, err := h.Library.UpdateLibraryEntry(c.Request().Context(), entry.ID, patch)
	if err != nil {
		return storageError(c, err)
	}
	if updated == nil {
		return notFound(c, "Library entry")
	}
	return c.JSON(http.StatusOK, updated)
}

// Remove: DELETE /api/library/:id.
func (h *LibraryHandler) Remove(c echo.Context) error {
	entry, ok, err := h.owned(c)
	if !ok {
		return err
	}
	if _, err := h.Library.RemoveFromLibrary(c.Request().Context(), entry.ID); err != nil {
		return internalError(err)
	}
	return c.NoContent(http.StatusNoContent)
}
