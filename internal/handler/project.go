package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/gameforge-studio/internal/model"
	"github.com/iliyamo/gameforge-studio/internal/repository"
)

// ProjectHandler serves project CRUD.
type ProjectHandler struct {
	Projects repository.ProjectStore
	Users    repository.UserStore
}

func NewProjectHandler(projects repository.ProjectStore, users repository.UserStore) *ProjectHandler {
	if projects == nil || users == nil {
		panic("nil dependency passed to NewProjectHandler")
	}
	return &ProjectHandler{Projects: projects, Users: users}
}

type createProjectReq struct {
	Name        string   `json:"name" validate:"required,max=120"`
	Description string   `json:"description" validate:"max=2000"`
	Icon        string   `json:"icon" validate:"max=2048"`
	Status      string   `json:"status" validate:"omitempty,oneof=not-started in-progress live"`
	Engine      string   `json:"engine" validate:"omitempty,oneof=unity unreal godot gamemaker custom"`
	Platform    string   `json:"platform" validate:"omitempty,oneof=pc mobile console web cross-platform"`
	OwnerID     string   `json:"ownerId"`
	TeamMembers []string `json:"teamMembers" validate:"max=100,dive,min=1"`
	Features    []string `json:"features" validate:"max=50,dive,min=1,max=200"`
	Screenshots []string `json:"screenshots" validate:"max=20,dive,min=1,max=2048"`
}

// List: GET /api/projects, optionally filtered with ?ownerId=.
func (h *ProjectHandler) List(c echo.Context) error {
	ctx := c.Request().Context()
	var (
		projects []model.Project
		err      error
	)
	if owner := c.QueryParam("ownerId"); owner != "" {
		projects, err = h.Projects.ListProjectsByOwner(ctx, owner)
	} else {
		projects, err = h.Projects.ListProjects(ctx)
	}
	if err != nil {
		return internalError(err)
	}
	return c.JSON(http.StatusOK, projects)
}

// Get: GET /api/projects/:id.
func (h *ProjectHandler) Get(c echo.Context) error {
	p, err := h.Projects.GetProject(c.Request().Context(), c.Param("id"))
	if err != nil {
		return internalError(err)
	}
	if p == nil {
		return notFound(c, "Project")
	}
	return c.JSON(http.StatusOK, p)
}

// Create: POST /api/projects. The owner is the session user; anonymous
// callers must name an existing owner in the body.
func (h *ProjectHandler) Create(c echo.Context) error {
	var req createProjectReq
	if err := bind(c, &req); err != nil {
		return badRequest(c, err)
	}
	ctx := c.Request().Context()

	owner := getUserID(c)
	if owner == "" {
		if req.OwnerID == "" {
			return badRequest(c, invalid(FieldError{Field: "ownerId", Message: "is required"}))
		}
		u, err := h.Users.GetUser(ctx, req.OwnerID)
		if err != nil {
			return internalError(err)
		}
		if u == nil {
			return badRequest(c, invalid(FieldError{Field: "ownerId", Message: "does not exist"}))
		}
		owner = u.ID
	}

	p, err := h.Projects.CreateProject(ctx, model.NewProject{
		Name:        req.Name,
		Description: req.Description,
		Icon:        req.Icon,
		Status:      req.Status,
		Engine:      req.Engine,
		Platform:    req.Platform,
		OwnerID:     owner,
		TeamMembers: req.TeamMembers,
		Features:    req.Features,
		Screenshots: req.Screenshots,
	})
	if err != nil {
		return storageError(c, err)
	}
	return c.JSON(http.StatusCreated, p)
}

// Update: PATCH /api/projects/:id. The owner cannot be reassigned.
func (h *ProjectHandler) Update(c echo.Context) error {
	var patch model.ProjectPatch
	if err := bind(c, &patch, immutableKeys...); err != nil {
		return badRequest(c, err)
	}
	p, err := h.Projects.UpdateProject(c.Request().Context(), c.Param("id"), patch)
	if err != nil {
		return storageError(c, err)
	}
	if p == nil {
		return notFound(c, "Project")
	}
	return c.JSON(http.StatusOK, p)
}

// Delete: DELETE /api/projects/:id. 404 when missing, 403 when the caller
// is not the owner.
func (h *ProjectHandler) Delete(c echo.Context) error {
	ctx := c.Request().Context()
	id := c.Param("id")

	p, err := h.Projects.GetProject(ctx, id)
	if err != nil {
		return internalError(err)
	}
	if p == nil {
		return notFound(c, "Project")
	}
	if p.OwnerID != getUserID(c) {
		return forbidden(c)
	}
	if _, err := h.Projects.DeleteProject(ctx, id); err != nil {
		return internalError(err)
	}
	return c.NoContent(http.StatusNoContent)
}
