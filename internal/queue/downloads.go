package queue

import (
	"context"
	"fmt"
)

// DownloadStore is the part of the storage layer the download counter needs.
type DownloadStore interface {
	IncrementAssetDownloads(ctx context.Context, id string) (bool, error)
	IncrementBundleDownloads(ctx context.Context, id string) (bool, error)
}

// NewDownloadCounter returns a Handler that bumps the download counter of
// the purchased asset or bundle.
func NewDownloadCounter(store DownloadStore) Handler {
	return func(ctx context.Context, ev PurchaseCompletedEvent) error {
		var (
			found bool
			err   error
		)
		switch {
		case ev.AssetID != "":
			found, err = store.IncrementAssetDownloads(ctx, ev.AssetID)
		case ev.BundleID != "":
			found, err = store.IncrementBundleDownloads(ctx, ev.BundleID)
		default:
			return fmt.Errorf("purchase %s names no asset or bundle", ev.PurchaseID)
		}
		if err != nil {
			return err
		}
		if !found {
			return fmt.Errorf("purchase %s: catalog item no longer exists", ev.PurchaseID)
		}
		return nil
	}
}
