package memory

import (
	"context"
	"time"

	"github.com/iliyamo/gameforge-studio/internal/model"
	"github.com/iliyamo/gameforge-studio/internal/repository"
)

func cartRecency(c model.CartItem) time.Time { return c.CreatedAt }
func purchaseRecency(p model.Purchase) time.Time { return p.CreatedAt }
func libraryRecency(g model.GameLibrary) time.Time { return g.CreatedAt }

func sameRef(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func (s *Store) ListCartItems(_ context.Context, userID string) ([]model.CartItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	mine := func(c model.CartItem) bool { return c.UserID == userID }
	return s.cart.list(mine, cartRecency, model.CartItem.Clone), nil
}

func (s *Store) AddCartItem(_ context.Context, in model.NewCartItem) (*model.CartItem, error) {
	if !in.Valid() {
		return nil, repository.ErrInvalidCartItem
	}
	qty := in.Quantity
	if qty < 1 {
		qty = 1
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for id, r := range s.cart {
		c := r.val
		if c.UserID == in.UserID && sameRef(c.AssetID, in.AssetID) && sameRef(c.BundleID, in.BundleID) {
			c.Quantity += qty
			s.cart.set(id, c)
			out := c.Clone()
			return &out, nil
		}
	}
	c := model.CartItem{
		ID:        newID(""),
		UserID:    in.UserID,
		AssetID:   in.AssetID,
		BundleID:  in.BundleID,
		Quantity:  qty,
		CreatedAt: s.now(),
	}.Clone()
	s.cart.insert(c.ID, s.nextSeqLocked(), c)
	out := c.Clone()
	return &out, nil
}

func (s *Store) RemoveCartItem(_ context.Context, userID, itemID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.cart.get(itemID)
	if !ok || c.UserID != userID {
		return false, nil
	}
	return s.cart.remove(itemID), nil
}

func (s *Store) ClearCart(_ context.Context, userID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for id, r := range s.cart {
		if r.val.UserID == userID {
			delete(s.cart, id)
			n++
		}
	}
	return n, nil
}

func (s *Store) CreatePurchase(_ context.Context, in model.NewPurchase) (*model.Purchase, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := model.Purchase{
		ID:        newID(""),
		UserID:    in.UserID,
		AssetID:   in.AssetID,
		BundleID:  in.BundleID,
		Price:     in.Price,
		Status:    in.Status,
		CreatedAt: s.now(),
	}.Clone()
	if p.Status == "" {
		p.Status = model.PurchaseCompleted
	}
	s.purchase.insert(p.ID, s.nextSeqLocked(), p)
	out := p.Clone()
	return &out, nil
}

func (s *Store) ListPurchasesByUser(_ context.Context, userID string) ([]model.Purchase, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	mine := func(p model.Purchase) bool { return p.UserID == userID }
	return s.purchase.list(mine, purchaseRecency, model.Purchase.Clone), nil
}

func (s *Store) GetLibraryEntry(_ context.Context, id string) (*model.GameLibrary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.library.get(id)
	if !ok {
		return nil, nil
	}
	out := g.Clone()
	return &out, nil
}

func (s *Store) ListLibrary(_ context.Context, userID string) ([]model.GameLibrary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	mine := func(g model.GameLibrary) bool { return g.UserID == userID }
	return s.library.list(mine, libraryRecency, model.GameLibrary.Clone), nil
}

func (s *Store) AddToLibrary(_ context.Context, in model.NewLibraryEntry) (*model.GameLibrary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	g := model.GameLibrary{
		ID:         newID(""),
		UserID:     in.UserID,
		GameID:     in.GameID,
		Title:      in.Title,
		IsFavorite: in.IsFavorite,
		CreatedAt:  s.now(),
	}
	s.library.insert(g.ID, s.nextSeqLocked(), g)
	out := g.Clone()
	return &out, nil
}

func (s *Store) UpdateLibraryEntry(_ context.Context, id string, patch model.LibraryPatch) (*model.GameLibrary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.library.get(id)
	if !ok {
		return nil, nil
	}
	g = g.Clone()
	patch.Apply(&g)
	s.library.set(id, g)
	out := g.Clone()
	return &out, nil
}

func (s *Store) RemoveFromLibrary(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.library.remove(id), nil
}
