package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/gameforge-studio/internal/model"
	"github.com/iliyamo/gameforge-studio/internal/repository"
)

// CatalogHandler serves public marketplace reads.
type CatalogHandler struct {
	Assets  repository.AssetStore
	Bundles repository.BundleStore
}

func NewCatalogHandler(assets repository.AssetStore, bundles repository.BundleStore) *CatalogHandler {
	if assets == nil || bundles == nil {
		panic("nil dependency passed to NewCatalogHandler")
	}
	return &CatalogHandler{Assets: assets, Bundles: bundles}
}

// ListAssets: GET /api/assets?category=&search=. "all" means no category
// filter.
func (h *CatalogHandler) ListAssets(c echo.Context) error {
	filter := model.AssetFilter{
		Category: strings.TrimSpace(c.QueryParam("category")),
		Search:   strings.TrimSpace(c.QueryParam("search")),
	}
	if strings.EqualFold(filter.Category, "all") {
		filter.Category = ""
	}
	assets, err := h.Assets.ListAssets(c.Request().Context(), filter)
	if err != nil {
		return internalError(err)
	}
	return c.JSON(http.StatusOK, assets)
}

// GetAsset: GET /api/assets/:id.
func (h *CatalogHandler) GetAsset(c echo.Context) error {
	a, err := h.Assets.GetAsset(c.Request().Context(), c.Param("id"))
	if err != nil {
		return internalError(err)
	}
	if a == nil {
		return notFound(c, "Asset")
	}
	return c.JSON(http.StatusOK, a)
}

// ListBundles: GET /api/bundles.
func (h *CatalogHandler) ListBundles(c echo.Context) error {
	bundles, err := h.Bundles.ListBundles(c.Request().Context())
	if err != nil {
		return internalError(err)
	}
	return c.JSON(http.StatusOK, bundles)
}

// GetBundle: GET /api/bundles/:id.
func (h *CatalogHandler) GetBundle(c echo.Context) error {
	b, err := h.Bundles.GetBundle(c.Request().Context(), c.Param("id"))
	if err != nil {
		return internalError(err)
	}
	if b == nil {
		return notFound(c, "Bundle")
	}
	return c.JSON(http.StatusOK, b)
}
