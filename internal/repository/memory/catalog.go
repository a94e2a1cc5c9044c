package memory

import (
	"context"
	"time"

	"github.com/iliyamo/gameforge-studio/internal/model"
)

func assetRecency(a model.Asset) time.Time { return a.CreatedAt }
func bundleRecency(b model.AssetBundle) time.Time { return b.CreatedAt }

func (s *Store) GetAsset(_ context.Context, id string) (*model.Asset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.assets.get(id)
	if !ok {
		return nil, nil
	}
	out := a.Clone()
	return &out, nil
}

func (s *Store) ListAssets(_ context.Context, filter model.AssetFilter) ([]model.Asset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keep := func(a model.Asset) bool {
		if filter.Category != "" && a.Category != filter.Category {
			return false
		}
		if filter.Search != "" && !containsFold(a.Title, filter.Search) && !containsFold(a.Description, filter.Search) {
			return false
		}
		return true
	}
	return s.assets.list(keep, assetRecency, model.Asset.Clone), nil
}

func (s *Store) CreateAsset(_ context.Context, in model.NewAsset) (*model.Asset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	a := model.Asset{
		ID:            newID(in.ID),
		Title:         in.Title,
		Description:   in.Description,
		Category:      in.Category,
		Tags:          model.StringList(in.Tags).Clone(),
		Price:         in.Price,
		OriginalPrice: in.OriginalPrice,
		Thumbnail:     in.Thumbnail,
		Creator:       in.Creator,
		Downloads:     in.Downloads,
		Rating:        in.Rating,
		ReviewCount:   in.ReviewCount,
		CreatedAt:     now,
		UpdatedAt:     now,
	}.Clone()
	s.assets.insert(a.ID, s.nextSeqLocked(), a)
	out := a.Clone()
	return &out, nil
}

func (s *Store) UpdateAsset(_ context.Context, id string, patch model.AssetPatch) (*model.Asset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.assets.get(id)
	if !ok {
		return nil, nil
	}
	a = a.Clone()
	patch.Apply(&a)
	a.UpdatedAt = s.now()
	s.assets.set(id, a)
	out := a.Clone()
	return &out, nil
}

func (s *Store) DeleteAsset(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.assets.remove(id), nil
}

func (s *Store) IncrementAssetDownloads(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.assets.get(id)
	if !ok {
		return false, nil
	}
	a.Downloads++
	a.UpdatedAt = s.now()
	s.assets.set(id, a)
	return true, nil
}

func (s *Store) GetBundle(_ context.Context, id string) (*model.AssetBundle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.bundles.get(id)
	if !ok {
		return nil, nil
	}
	out := b.Clone()
	return &out, nil
}

func (s *Store) ListBundles(_ context.Context) ([]model.AssetBundle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.bundles.list(nil, bundleRecency, model.AssetBundle.Clone), nil
}

func (s *Store) CreateBundle(_ context.Context, in model.NewBundle) (*model.AssetBundle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	b := model.AssetBundle{
		ID:            newID(in.ID),
		Title:         in.Title,
		Description:   in.Description,
		Category:      in.Category,
		AssetIDs:      model.StringList(in.AssetIDs).Clone(),
		Price:         in.Price,
		OriginalPrice: in.OriginalPrice,
		Thumbnail:     in.Thumbnail,
		Downloads:     in.Downloads,
		Rating:        in.Rating,
		ReviewCount:   in.ReviewCount,
		CreatedAt:     now,
		UpdatedAt:     now,
	}.Clone()
	s.bundles.insert(b.ID, s.nextSeqLocked(), b)
	out := b.Clone()
	return &out, nil
}

func (s *Store) UpdateBundle(_ context.Context, id string, patch model.BundlePatch) (*model.AssetBundle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.bundles.get(id)
	if !ok {
		return nil, nil
	}
	b = b.Clone()
	patch.Apply(&b)
	b.UpdatedAt = s.now()
	s.bundles.set(id, b)
	out := b.Clone()
	return &out, nil
}

func (s *Store) DeleteBundle(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bundles.remove(id), nil
}

func (s *Store) IncrementBundleDownloads(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bundles.get(id)
	if !ok {
		return false, nil
	}
	b.Downloads++
	b.UpdatedAt = s.now()
	s.bundles.set(id, b)
	return true, nil
}
