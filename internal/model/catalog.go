package model

import "time"

// Asset is a marketplace item. Prices are integer cents.
type Asset struct {
	ID            string     `json:"id" db:"id"`
	Title         string     `json:"title" db:"title"`
	Description   string     `json:"description" db:"description"`
	Category      string     `json:"category" db:"category"`
	Tags          StringList `json:"tags" db:"tags"`
	Price         int        `json:"price" db:"price"`
	OriginalPrice *int       `json:"originalPrice" db:"original_price"`
	Thumbnail     string     `json:"thumbnail" db:"thumbnail"`
	Creator       string     `json:"creator" db:"creator"`
	Downloads     int        `json:"downloads" db:"downloads"`
	Rating        float64    `json:"rating" db:"rating"`
	ReviewCount   int        `json:"reviewCount" db:"review_count"`
	CreatedAt     time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt     time.Time  `json:"updatedAt" db:"updated_at"`
}

// Clone returns a deep copy of the asset.
func (a Asset) Clone() Asset {
	a.Tags = a.Tags.Clone()
	a.OriginalPrice = copyInt(a.OriginalPrice)
	return a
}

// NewAsset is the input to CreateAsset.
type NewAsset struct {
	ID            string
	Title         string
	Description   string
	Category      string
	Tags          []string
	Price         int
	OriginalPrice *int
	Thumbnail     string
	Creator       string
	Downloads     int
	Rating        float64
	ReviewCount   int
}

// AssetPatch lists the mutable asset fields.
type AssetPatch struct {
	Title         *string   `json:"title" validate:"omitempty,min=1,max=200"`
	Description   *string   `json:"description" validate:"omitempty,max=5000"`
	Category      *string   `json:"category" validate:"omitempty,max=100"`
	Tags          *[]string `json:"tags" validate:"omitempty,max=30,dive,min=1,max=50"`
	Price         *int      `json:"price" validate:"omitempty,min=0"`
	OriginalPrice *int      `json:"originalPrice" validate:"omitempty,min=0"`
	Thumbnail     *string   `json:"thumbnail" validate:"omitempty,max=2048"`
	Downloads     *int      `json:"downloads" validate:"omitempty,min=0"`
	Rating        *float64  `json:"rating" validate:"omitempty,min=0,max=5"`
	ReviewCount   *int      `json:"reviewCount" validate:"omitempty,min=0"`
}

// Apply merges the patch into a.
func (p AssetPatch) Apply(a *Asset) {
	if p.Title != nil {
		a.Title = *p.Title
	}
	if p.Description != nil {
		a.Description = *p.Description
	}
	if p.Category != nil {
		a.Category = *p.Category
	}
	if p.Tags != nil {
		a.Tags = StringList(*p.Tags).Clone()
	}
	if p.Price != nil {
		a.Price = *p.Price
	}
	if p.OriginalPrice != nil {
		a.OriginalPrice = copyInt(p.OriginalPrice)
	}
	if p.Thumbnail != nil {
		a.Thumbnail = *p.Thumbnail
	}
	if p.Downloads != nil {
		a.Downloads = *p.Downloads
	}
	if p.Rating != nil {
		a.Rating = *p.Rating
	}
	if p.ReviewCount != nil {
		a.ReviewCount = *p.ReviewCount
	}
}

// AssetFilter narrows ListAssets. Empty fields match everything.
type AssetFilter struct {
	Category string
	Search   string
}

// AssetBundle groups several assets at a combined price.
type AssetBundle struct {
	ID            string     `json:"id" db:"id"`
	Title         string     `json:"title" db:"title"`
	Description   string     `json:"description" db:"description"`
	Category      string     `json:"category" db:"category"`
	AssetIDs      StringList `json:"assetIds" db:"asset_ids"`
	Price         int        `json:"price" db:"price"`
	OriginalPrice *int       `json:"originalPrice" db:"original_price"`
	Thumbnail     string     `json:"thumbnail" db:"thumbnail"`
	Downloads     int        `json:"downloads" db:"downloads"`
	Rating        float64    `json:"rating" db:"rating"`
	ReviewCount   int        `json:"reviewCount" db:"review_count"`
	CreatedAt     time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt     time.Time  `json:"updatedAt" db:"updated_at"`
}

// Clone returns a deep copy of the bundle.
func (b AssetBundle) Clone() AssetBundle {
	b.AssetIDs = b.AssetIDs.Clone()
	b.OriginalPrice = copyInt(b.OriginalPrice)
	return b
}

// NewBundle is the input to CreateBundle.
type NewBundle struct {
	ID            string
	Title         string
	Description   string
	Category      string
	AssetIDs      []string
	Price         int
	OriginalPrice *int
	Thumbnail     string
	Downloads     int
	Rating        float64
	ReviewCount   int
}

// BundlePatch lists the mutable bundle fields.
type BundlePatch struct {
	Title         *string   `json:"title" validate:"omitempty,min=1,max=200"`
	Description   *string   `json:"description" validate:"omitempty,max=5000"`
	Category      *string   `json:"category" validate:"omitempty,max=100"`
	AssetIDs      *[]string `json:"assetIds" validate:"omitempty,dive,min=1"`
	Price         *int      `json:"price" validate:"omitempty,min=0"`
	OriginalPrice *int      `json:"originalPrice" validate:"omitempty,min=0"`
	Thumbnail     *string   `json:"thumbnail" validate:"omitempty,max=2048"`
	Downloads     *int      `json:"downloads" validate:"omitempty,min=0"`
	Rating        *float64  `json:"rating" validate:"omitempty,min=0,max=5"`
	ReviewCount   *int      `json:"reviewCount" validate:"omitempty,min=0"`
}

// Apply merges the patch into b.
func (p BundlePatch) Apply(b *AssetBundle) {
	if p.Title != nil {
		b.Title = *p.Title
	}
	if p.Description != nil {
		b.Description = *p.Description
	}
	if p.Category != nil {
		b.Category = *p.Category
	}
	if p.AssetIDs != nil {
		b.AssetIDs = StringList(*p.AssetIDs).Clone()
	}
	if p.Price != nil {
		b.Price = *p.Price
	}
	if p.OriginalPrice != nil {
		b.OriginalPrice = copyInt(p.OriginalPrice)
	}
	if p.Thumbnail != nil {
		b.Thumbnail = *p.Thumbnail
	}
	if p.Downloads != nil {
		b.Downloads = *p.Downloads
	}
	if p.Rating != nil {
		b.Rating = *p.Rating
	}
	if p.ReviewCount != nil {
		b.ReviewCount = *p.ReviewCount
	}
}
