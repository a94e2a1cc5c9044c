package handler

// Cart and purchase routes take the user id from the path and do not check
// it against the session. Anyone can read or change another user's cart.
// This is the documented behaviour of the public API and is kept as is.

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/gameforge-studio/internal/model"
	"github.com/iliyamo/gameforge-studio/internal/queue"
	"github.com/iliyamo/gameforge-studio/internal/repository"
	"github.com/iliyamo/gameforge-studio/internal/service"
)

// CommerceHandler serves the cart and purchase history.
type CommerceHandler struct {
	Store     repository.Storage
	Publisher service.Publisher
	Log       logrus.FieldLogger
}

func NewCommerceHandler(store repository.Storage, pub service.Publisher, log logrus.FieldLogger) *CommerceHandler {
	if store == nil || pub == nil || log == nil {
		panic("nil dependency passed to NewCommerceHandler")
	}
	return &CommerceHandler{Store: store, Publisher: pub, Log: log}
}

type addCartItemReq struct {
	AssetID  *string `json:"assetId"`
	BundleID *string `json:"bundleId"`
	Quantity int     `json:"quantity" validate:"omitempty,min=1,max=99"`
}

type createPurchaseReq struct {
	UserID   string  `json:"userId" validate:"required"`
	AssetID  *string `json:"assetId"`
	BundleID *string `json:"bundleId"`
	Price    *int    `json:"price" validate:"omitempty,min=0"`
	Status   string  `json:"status" validate:"omitempty,oneof=completed pending refunded"`
}

// lookupPrice resolves the catalog price of the referenced item. found is
// false when the item does not exist.
func (h *CommerceHandler) lookupPrice(ctx context.Context, assetID, bundleID *string) (price int, found bool, err error) {
	if assetID != nil && *assetID != "" {
		a, err := h.Store.GetAsset(ctx, *assetID)
		if err != nil || a == nil {
			return 0, false, err
		}
		return a.Price, true, nil
	}
	b, err := h.Store.GetBundle(ctx, *bundleID)
	if err != nil || b == nil {
		return 0, false, err
	}
	return b.Price, true, nil
}

func xorError() *ValidationError {
	return invalid(FieldError{Field: "assetId", Message: "exactly one of assetId or bundleId is required"})
}

// ListCart: GET /api/cart/:userId.
func (h *CommerceHandler) ListCart(c echo.Context) error {
	items, err := h.Store.ListCartItems(c.Request().Context(), c.Param("userId"))
	if err != nil {
		return internalError(err)
	}
	return c.JSON(http.StatusOK, items)
}

// AddToCart: POST /api/cart/:userId. Adding an item already in the cart
// raises its quantity.
func (h *CommerceHandler) AddToCart(c echo.Context) error {
	var req addCartItemReq
	if err := bind(c, &req); err != nil {
		return badRequest(c, err)
	}
	in := model.NewCartItem{UserID: c.Param("userId"), AssetID: req.AssetID, BundleID: req.BundleID, Quantity: req.Quantity}
	if !in.Valid() {
		return badRequest(c, xorError())
	}
	if in.Quantity == 0 {
		in.Quantity = 1
	}
	ctx := c.Request().Context()
	if _, found, err := h.lookupPrice(ctx, in.AssetID, in.BundleID); err != nil {
		return internalError(err)
	} else if !found {
		return notFound(c, "Catalog item")
	}
	item, err := h.Store.AddCartItem(ctx, in)
	if err != nil {
		return storageError(c, err)
	}
	return c.JSON(http.StatusCreated, item)
}

// RemoveFromCart: DELETE /api/cart/:userId/items/:itemId.
func (h *CommerceHandler) RemoveFromCart(c echo.Context) error {
	ok, err := h.Store.RemoveCartItem(c.Request().Context(), c.Param("userId"), c.Param("itemId"))
	if err != nil {
		return internalError(err)
	}
	if !ok {
		return notFound(c, "Cart item")
	}
	return c.NoContent(http.StatusNoContent)
}

// ClearCart: DELETE /api/cart/:userId.
func (h *CommerceHandler) ClearCart(c echo.Context) error {
	n, err := h.Store.ClearCart(c.Request().Context(), c.Param("userId"))
	if err != nil {
		return internalError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"removed": n})
}

// Checkout: POST /api/cart/:userId/checkout. Each cart line becomes a
// completed purchase at the current catalog price times its quantity,
// then the cart is emptied. Lines whose item has left the catalog are
// dropped.
func (h *CommerceHandler) Checkout(c echo.Context) error {
	ctx := c.Request().Context()
	userID := c.Param("userId")

	items, err := h.Store.ListCartItems(ctx, userID)
	if err != nil {
		return internalError(err)
	}
	if len(items) == 0 {
		return message(c, http.StatusBadRequest, "Cart is empty")
	}

	purchases := make([]model.Purchase, 0, len(items))
	total := 0
	for _, it := range items {
		price, found, err := h.lookupPrice(ctx, it.AssetID, it.BundleID)
		if err != nil {
			return internalError(err)
		}
		if !found {
			h.Log.WithField("cart_item", it.ID).Warn("checkout: skipping item no longer in catalog")
			continue
		}
		p, err := h.Store.CreatePurchase(ctx, model.NewPurchase{
			UserID:   userID,
			AssetID:  it.AssetID,
			BundleID: it.BundleID,
			Price:    price * it.Quantity,
			Status:   model.PurchaseCompleted,
		})
		if err != nil {
			return internalError(err)
		}
		purchases = append(purchases, *p)
		total += p.Price
		h.publish(*p)
	}
	if _, err := h.Store.ClearCart(ctx, userID); err != nil {
		return internalError(err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"purchases": purchases, "total": total})
}

// CreatePurchase: POST /api/purchases. No payment is taken. Without an
// explicit price the catalog price is recorded.
func (h *CommerceHandler) CreatePurchase(c echo.Context) error {
	var req createPurchaseReq
	if err := bind(c, &req); err != nil {
		return badRequest(c, err)
	}
	in := model.NewPurchase{UserID: req.UserID, AssetID: req.AssetID, BundleID: req.BundleID, Status: req.Status}
	if !(model.NewCartItem{AssetID: in.AssetID, BundleID: in.BundleID}).Valid() {
		return badRequest(c, xorError())
	}
	ctx := c.Request().Context()

	u, err := h.Store.GetUser(ctx, req.UserID)
	if err != nil {
		return internalError(err)
	}
	if u == nil {
		return badRequest(c, invalid(FieldError{Field: "userId", Message: "does not exist"}))
	}
	price, found, err := h.lookupPrice(ctx, in.AssetID, in.BundleID)
	if err != nil {
		return internalError(err)
	}
	if !found {
		return notFound(c, "Catalog item")
	}
	in.Price = price
	if req.Price != nil {
		in.Price = *req.Price
	}
	if in.Status == "" {
		in.Status = model.PurchaseCompleted
	}

	p, err := h.Store.CreatePurchase(ctx, in)
	if err != nil {
		return storageError(c, err)
	}
	if p.Status == model.PurchaseCompleted {
		h.publish(*p)
	}
	return c.JSON(http.StatusCreated, p)
}

// ListPurchases: GET /api/purchases/:userId.
func (h *CommerceHandler) ListPurchases(c echo.Context) error {
	ps, err := h.Store.ListPurchasesByUser(c.Request().Context(), c.Param("userId"))
	if err != nil {
		return internalError(err)
	}
	return c.JSON(http.StatusOK, ps)
}

// publish never fails the request; the purchase is already recorded.
func (h *CommerceHandler) publish(p model.Purchase) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := h.Publisher.PublishPurchaseCompleted(ctx, queue.NewPurchaseCompletedEvent(p)); err != nil {
		h.Log.WithError(err).WithField("purchase_id", p.ID).Warn("purchase event not published")
	}
}
