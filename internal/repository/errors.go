// Package repository defines the storage contract shared by the in-memory
// and SQL implementations, plus the sentinel errors handlers use to tell
// failure scenarios apart.
package repository

import "errors"

// ErrForbidden is returned when the caller attempts an operation on a
// resource they do not own. Handlers translate this into 403.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when a write would break a uniqueness rule, such
// as a taken username or email. Handlers translate this into 409.
var ErrConflict = errors.New("conflict")

// ErrInvalidCartItem is returned when a cart item does not reference exactly
// one of an asset or a bundle.
var ErrInvalidCartItem = errors.New("cart item must reference exactly one of assetId or bundleId")
