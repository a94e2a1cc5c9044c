package sqldb

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/iliyamo/gameforge-studio/internal/model"
)

const assetColumns = `id, title, description, category, tags, price, original_price, thumbnail,
	creator, downloads, rating, review_count, created_at, updated_at`

const bundleColumns = `id, title, description, category, asset_ids, price, original_price, thumbnail,
	downloads, rating, review_count, created_at, updated_at`

func (s *Store) GetAsset(ctx context.Context, id string) (*model.Asset, error) {
	var a model.Asset
	found, err := s.getOne(ctx, "assets.get", &a, "SELECT "+assetColumns+" FROM assets WHERE id = ?", id)
	if err != nil || !found {
		return nil, err
	}
	return &a, nil
}

func (s *Store) ListAssets(ctx context.Context, filter model.AssetFilter) ([]model.Asset, error) {
	var (
		where []string
		args  []interface{}
	)
	if filter.Category != "" {
		where = append(where, "category = ?")
		args = append(args, filter.Category)
	}
	if filter.Search != "" {
		like := "%" + strings.ToLower(filter.Search) + "%"
		where = append(where, "(LOWER(title) LIKE ? OR LOWER(description) LIKE ?)")
		args = append(args, like, like)
	}
	q := "SELECT " + assetColumns + " FROM assets"
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY created_at DESC"

	out := []model.Asset{}
	err := s.selectAll(ctx, "assets.list", &out, q, args...)
	return out, err
}

func (s *Store) CreateAsset(ctx context.Context, in model.NewAsset) (*model.Asset, error) {
	now := s.timestamp()
	a := model.Asset{
		ID:            in.ID,
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
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	err := s.namedExec(ctx, "assets.create", `INSERT INTO assets (`+assetColumns+`) VALUES (
		:id, :title, :description, :category, :tags, :price, :original_price, :thumbnail,
		:creator, :downloads, :rating, :review_count, :created_at, :updated_at)`, &a)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *Store) UpdateAsset(ctx context.Context, id string, patch model.AssetPatch) (*model.Asset, error) {
	a, err := s.GetAsset(ctx, id)
	if err != nil || a == nil {
		return nil, err
	}
	patch.Apply(a)
	a.UpdatedAt = s.timestamp()

	err = s.namedExec(ctx, "assets.update", `UPDATE assets SET
		title = :title, description = :description, category = :category, tags = :tags,
		price = :price, original_price = :original_price, thumbnail = :thumbnail,
		downloads = :downloads, rating = :rating, review_count = :review_count, updated_at = :updated_at
		WHERE id = :id`, a)
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (s *Store) DeleteAsset(ctx context.Context, id string) (bool, error) {
	return s.execAffected(ctx, "assets.delete", "DELETE FROM assets WHERE id = ?", id)
}

func (s *Store) IncrementAssetDownloads(ctx context.Context, id string) (bool, error) {
	return s.execAffected(ctx, "assets.increment_downloads",
		"UPDATE assets SET downloads = downloads + 1, updated_at = ? WHERE id = ?", s.timestamp(), id)
}

func (s *Store) GetBundle(ctx context.Context, id string) (*model.AssetBundle, error) {
	var b model.AssetBundle
	found, err := s.getOne(ctx, "bundles.get", &b, "SELECT "+bundleColumns+" FROM asset_bundles WHERE id = ?", id)
	if err != nil || !found {
		return nil, err
	}
	return &b, nil
}

func (s *Store) ListBundles(ctx context.Context) ([]model.AssetBundle, error) {
	out := []model.AssetBundle{}
	err := s.selectAll(ctx, "bundles.list", &out,
		"SELECT "+bundleColumns+" FROM asset_bundles ORDER BY created_at DESC")
	return out, err
}

func (s *Store) CreateBundle(ctx context.Context, in model.NewBundle) (*model.AssetBundle, error) {
	now := s.timestamp()
	b := model.AssetBundle{
		ID:            in.ID,
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
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	err := s.namedExec(ctx, "bundles.create", `INSERT INTO asset_bundles (`+bundleColumns+`) VALUES (
		:id, :title, :description, :category, :asset_ids, :price, :original_price, :thumbnail,
		:downloads, :rating, :review_count, :created_at, :updated_at)`, &b)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (s *Store) UpdateBundle(ctx context.Context, id string, patch model.BundlePatch) (*model.AssetBundle, error) {
	b, err := s.GetBundle(ctx, id)
	if err != nil || b == nil {
		return nil, err
	}
	patch.Apply(b)
	b.UpdatedAt = s.timestamp()

	err = s.namedExec(ctx, "bundles.update", `UPDATE asset_bundles SET
		title = :title, description = :description, category = :category, asset_ids = :asset_ids,
		price = :price, original_price = :original_price, thumbnail = :thumbnail,
		downloads = :downloads, rating = :rating, review_count = :review_count, updated_at = :updated_at
		WHERE id = :id`, b)
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (s *Store) DeleteBundle(ctx context.Context, id string) (bool, error) {
	return s.execAffected(ctx, "bundles.delete", "DELETE FROM asset_bundles WHERE id = ?", id)
}

func (s *Store) IncrementBundleDownloads(ctx context.Context, id string) (bool, error) {
	return s.execAffected(ctx, "bundles.increment_downloads",
		"UPDATE asset_bundles SET downloads = downloads + 1, updated_at = ? WHERE id = ?", s.timestamp(), id)
}
