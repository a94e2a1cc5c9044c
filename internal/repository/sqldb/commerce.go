package sqldb

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/gameforge-studio/internal/model"
	"github.com/iliyamo/gameforge-studio/internal/repository"
)

const cartColumns = "id, user_id, asset_id, bundle_id, quantity, created_at"
const purchaseColumns = "id, user_id, asset_id, bundle_id, price, status, created_at"
const libraryColumns = "id, user_id, game_id, title, play_time, is_favorite, last_played, created_at"

func (s *Store) ListCartItems(ctx context.Context, userID string) ([]model.CartItem, error) {
	out := []model.CartItem{}
	err := s.selectAll(ctx, "cart.list", &out,
		"SELECT "+cartColumns+" FROM cart_items WHERE user_id = ? ORDER BY created_at DESC", userID)
	return out, err
}

func (s *Store) AddCartItem(ctx context.Context, in model.NewCartItem) (*model.CartItem, error) {
	if !in.Valid() {
		return nil, repository.ErrInvalidCartItem
	}
	qty := in.Quantity
	if qty < 1 {
		qty = 1
	}

	var (
		existing model.CartItem
		found    bool
		err      error
	)
	if in.AssetID != nil && *in.AssetID != "" {
		found, err = s.getOne(ctx, "cart.find", &existing,
			"SELECT "+cartColumns+" FROM cart_items WHERE user_id = ? AND asset_id = ?", in.UserID, *in.AssetID)
	} else {
		found, err = s.getOne(ctx, "cart.find", &existing,
			"SELECT "+cartColumns+" FROM cart_items WHERE user_id = ? AND bundle_id = ?", in.UserID, *in.BundleID)
	}
	if err != nil {
		return nil, err
	}
	if found {
		existing.Quantity += qty
		if _, err := s.execAffected(ctx, "cart.update_quantity",
			"UPDATE cart_items SET quantity = ? WHERE id = ?", existing.Quantity, existing.ID); err != nil {
			return nil, err
		}
		return &existing, nil
	}

	c := model.CartItem{
		ID:        uuid.NewString(),
		UserID:    in.UserID,
		AssetID:   in.AssetID,
		BundleID:  in.BundleID,
		Quantity:  qty,
		CreatedAt: s.timestamp(),
	}.Clone()
	err = s.namedExec(ctx, "cart.add", `INSERT INTO cart_items (`+cartColumns+`)
		VALUES (:id, :user_id, :asset_id, :bundle_id, :quantity, :created_at)`, &c)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *Store) RemoveCartItem(ctx context.Context, userID, itemID string) (bool, error) {
	return s.execAffected(ctx, "cart.remove", "DELETE FROM cart_items WHERE id = ? AND user_id = ?", itemID, userID)
}

func (s *Store) ClearCart(ctx context.Context, userID string) (int, error) {
	var n int64
	err := s.retry(ctx, "cart.clear", func(ctx context.Context) error {
		res, err := s.db.ExecContext(ctx, s.db.Rebind("DELETE FROM cart_items WHERE user_id = ?"), userID)
		if err != nil {
			return err
		}
		n, err = res.RowsAffected()
		return err
	})
	return int(n), err
}

func (s *Store) CreatePurchase(ctx context.Context, in model.NewPurchase) (*model.Purchase, error) {
	p := model.Purchase{
		ID:        uuid.NewString(),
		UserID:    in.UserID,
		AssetID:   in.AssetID,
		BundleID:  in.BundleID,
		Price:     in.Price,
		Status:    in.Status,
		CreatedAt: s.timestamp(),
	}.Clone()
	if p.Status == "" {
		p.Status = model.PurchaseCompleted
	}
	err := s.namedExec(ctx, "purchases.create", `INSERT INTO purchases (`+purchaseColumns+`)
		VALUES (:id, :user_id, :asset_id, :bundle_id, :price, :status, :created_at)`, &p)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Store) ListPurchasesByUser(ctx context.Context, userID string) ([]model.Purchase, error) {
	out := []model.Purchase{}
	err := s.selectAll(ctx, "purchases.list", &out,
		"SELECT "+purchaseColumns+" FROM purchases WHERE user_id = ? ORDER BY created_at DESC", userID)
	return out, err
}

func (s *Store) GetLibraryEntry(ctx context.Context, id string) (*model.GameLibrary, error) {
	var g model.GameLibrary
	found, err := s.getOne(ctx, "library.get", &g, "SELECT "+libraryColumns+" FROM game_library WHERE id = ?", id)
	if err != nil || !found {
		return nil, err
	}
	return &g, nil
}

func (s *Store) ListLibrary(ctx context.Context, userID string) ([]model.GameLibrary, error) {
	out := []model.GameLibrary{}
	err := s.selectAll(ctx, "library.list", &out,
		"SELECT "+libraryColumns+" FROM game_library WHERE user_id = ? ORDER BY created_at DESC", userID)
	return out, err
}

func (s *Store) AddToLibrary(ctx context.Context, in model.NewLibraryEntry) (*model.GameLibrary, error) {
	g := model.GameLibrary{
		ID:         uuid.NewString(),
		UserID:     in.UserID,
		GameID:     in.GameID,
		Title:      in.Title,
		IsFavorite: in.IsFavorite,
		CreatedAt:  s.timestamp(),
	}
	err := s.namedExec(ctx, "library.add", `INSERT INTO game_library (`+libraryColumns+`)
		VALUES (:id, :user_id, :game_id, :title, :play_time, :is_favorite, :last_played, :created_at)`, &g)
	if err != nil {
		return nil, err
	}
	return &g, nil
}

func (s *Store) UpdateLibraryEntry(ctx context.Context, id string, patch model.LibraryPatch) (*model.GameLibrary, error) {
	g, err := s.GetLibraryEntry(ctx, id)
	if err != nil || g == nil {
		return nil, err
	}
	patch.Apply(g)
	if g.LastPlayed != nil {
		t := g.LastPlayed.UTC().Truncate(time.Microsecond)
		g.LastPlayed = &t
	}
	err = s.namedExec(ctx, "library.update", `UPDATE game_library SET
		play_time = :play_time, is_favorite = :is_favorite, last_played = :last_played
		WHERE id = :id`, g)
	if err != nil {
		return nil, err
	}
	return g, nil
}

func (s *Store) RemoveFromLibrary(ctx context.Context, id string) (bool, error) {
	return s.execAffected(ctx, "library.remove", "DELETE FROM game_library WHERE id = ?", id)
}
