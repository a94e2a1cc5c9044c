package model

import "time"

// Purchase status values.
const (
	PurchaseCompleted = "completed"
	PurchasePending   = "pending"
	PurchaseRefunded  = "refunded"
)

// CartItem references exactly one of AssetID or BundleID.
type CartItem struct {
	ID        string    `json:"id" db:"id"`
	UserID    string    `json:"userId" db:"user_id"`
	AssetID   *string   `json:"assetId" db:"asset_id"`
	BundleID  *string   `json:"bundleId" db:"bundle_id"`
	Quantity  int       `json:"quantity" db:"quantity"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// Clone returns a deep copy of the cart item.
func (c CartItem) Clone() CartItem {
	c.AssetID = copyString(c.AssetID)
	c.BundleID = copyString(c.BundleID)
	return c
}

// NewCartItem is the input to AddCartItem.
type NewCartItem struct {
	UserID   string
	AssetID  *string
	BundleID *string
	Quantity int
}

// Valid reports whether exactly one of AssetID/BundleID is set.
func (n NewCartItem) Valid() bool {
	hasAsset := n.AssetID != nil && *n.AssetID != ""
	hasBundle := n.BundleID != nil && *n.BundleID != ""
	return hasAsset != hasBundle
}

// Purchase is an immutable record of a completed transaction.
type Purchase struct {
	ID        string    `json:"id" db:"id"`
	UserID    string    `json:"userId" db:"user_id"`
	AssetID   *string   `json:"assetId" db:"asset_id"`
	BundleID  *string   `json:"bundleId" db:"bundle_id"`
	Price     int       `json:"price" db:"price"`
	Status    string    `json:"status" db:"status"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// Clone returns a deep copy of the purchase.
func (p Purchase) Clone() Purchase {
	p.AssetID = copyString(p.AssetID)
	p.BundleID = copyString(p.BundleID)
	return p
}

// NewPurchase is the input to CreatePurchase.
type NewPurchase struct {
	UserID   string
	AssetID  *string
	BundleID *string
	Price    int
	Status   string
}

// GameLibrary grants a user access to a game.
type GameLibrary struct {
	ID         string     `json:"id" db:"id"`
	UserID     string     `json:"userId" db:"user_id"`
	GameID     string     `json:"gameId" db:"game_id"`
	Title      string     `json:"title" db:"title"`
	PlayTime   int        `json:"playTime" db:"play_time"`
	IsFavorite bool       `json:"isFavorite" db:"is_favorite"`
	LastPlayed *time.Time `json:"lastPlayed" db:"last_played"`
	CreatedAt  time.Time  `json:"createdAt" db:"created_at"`
}

// Clone returns a deep copy of the library entry.
func (g GameLibrary) Clone() GameLibrary {
	g.LastPlayed = copyTime(g.LastPlayed)
	return g
}

// NewLibraryEntry is the input to AddToLibrary.
type NewLibraryEntry struct {
	UserID     string
	GameID     string
	Title      string
	IsFavorite bool
}

// LibraryPatch lists the mutable library fields.
type LibraryPatch struct {
	PlayTime   *int       `json:"playTime" validate:"omitempty,min=0"`
	IsFavorite *bool      `json:"isFavorite"`
	LastPlayed *time.Time `json:"lastPlayed"`
}

// Apply merges the patch into g.
func (p LibraryPatch) Apply(g *GameLibrary) {
	if p.PlayTime != nil {
		g.PlayTime = *p.PlayTime
	}
	if p.IsFavorite != nil {
		g.IsFavorite = *p.IsFavorite
	}
	if p.LastPlayed != nil {
		g.LastPlayed = copyTime(p.LastPlayed)
	}
}
