package repository

import (
	"context"

	"github.com/iliyamo/gameforge-studio/internal/model"
)

// Every store follows the same contract:
//   - Get* returns (nil, nil) when the target does not exist.
//   - Update* returns (nil, nil) when the target does not exist and always
//     bumps lastUpdated/updatedAt itself.
//   - Delete*/Remove* report whether a row was removed; a missing id is
//     (false, nil).
//   - List* return newest first and never return a nil slice.

// UserStore persists accounts.
type UserStore interface {
	GetUser(ctx context.Context, id string) (*model.User, error)
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	ListUsers(ctx context.Context) ([]model.User, error)
	CreateUser(ctx context.Context, in model.NewUser) (*model.User, error)
	UpdateUser(ctx context.Context, id string, patch model.UserPatch) (*model.User, error)
	UpdateUserPassword(ctx context.Context, id, hash string) (bool, error)
	DeleteUser(ctx context.Context, id string) (bool, error)
}

// ProjectStore persists projects.
type ProjectStore interface {
	GetProject(ctx context.Context, id string) (*model.Project, error)
	ListProjects(ctx context.Context) ([]model.Project, error)
	ListProjectsByOwner(ctx context.Context, ownerID string) ([]model.Project, error)
	CreateProject(ctx context.Context, in model.NewProject) (*model.Project, error)
	UpdateProject(ctx context.Context, id string, patch model.ProjectPatch) (*model.Project, error)
	DeleteProject(ctx context.Context, id string) (bool, error)
}

// AssetStore persists marketplace assets.
type AssetStore interface {
	GetAsset(ctx context.Context, id string) (*model.Asset, error)
	ListAssets(ctx context.Context, filter model.AssetFilter) ([]model.Asset, error)
	CreateAsset(ctx context.Context, in model.NewAsset) (*model.Asset, error)
	UpdateAsset(ctx context.Context, id string, patch model.AssetPatch) (*model.Asset, error)
	DeleteAsset(ctx context.Context, id string) (bool, error)
	IncrementAssetDownloads(ctx context.Context, id string) (bool, error)
}

// BundleStore persists asset bundles.
type BundleStore interface {
	GetBundle(ctx context.Context, id string) (*model.AssetBundle, error)
	ListBundles(ctx context.Context) ([]model.AssetBundle, error)
	CreateBundle(ctx context.Context, in model.NewBundle) (*model.AssetBundle, error)
	UpdateBundle(ctx context.Context, id string, patch model.BundlePatch) (*model.AssetBundle, error)
	DeleteBundle(ctx context.Context, id string) (bool, error)
	IncrementBundleDownloads(ctx context.Context, id string) (bool, error)
}

// CartStore persists shopping cart rows.
type CartStore interface {
	ListCartItems(ctx context.Context, userID string) ([]model.CartItem, error)
	// AddCartItem returns ErrInvalidCartItem unless exactly one of AssetID
	// or BundleID is set. Adding an item already in the cart increases its
	// quantity.
	AddCartItem(ctx context.Context, in model.NewCartItem) (*model.CartItem, error)
	RemoveCartItem(ctx context.Context, userID, itemID string) (bool, error)
	ClearCart(ctx context.Context, userID string) (int, error)
}

// PurchaseStore persists completed purchases. Purchases are never updated.
type PurchaseStore interface {
	CreatePurchase(ctx context.Context, in model.NewPurchase) (*model.Purchase, error)
	ListPurchasesByUser(ctx context.Context, userID string) ([]model.Purchase, error)
}

// LibraryStore persists game ownership records.
type LibraryStore interface {
	GetLibraryEntry(ctx context.Context, id string) (*model.GameLibrary, error)
	ListLibrary(ctx context.Context, userID string) ([]model.GameLibrary, error)
	AddToLibrary(ctx context.Context, in model.NewLibraryEntry) (*model.GameLibrary, error)
	UpdateLibraryEntry(ctx context.Context, id string, patch model.LibraryPatch) (*model.GameLibrary, error)
	RemoveFromLibrary(ctx context.Context, id string) (bool, error)
}

// ChatStore persists chats and their membership.
type ChatStore interface {
	GetChat(ctx context.Context, id string) (*model.Chat, error)
	ListChats(ctx context.Context) ([]model.Chat, error)
	ListChatsByUser(ctx context.Context, userID string) ([]model.Chat, error)
	CreateChat(ctx context.Context, in model.NewChat) (*model.Chat, error)
	UpdateChat(ctx context.Context, id string, patch model.ChatPatch) (*model.Chat, error)
	// DeleteChat also removes the chat's messages and members.
	DeleteChat(ctx context.Context, id string) (bool, error)

	ListChatMembers(ctx context.Context, chatID string) ([]model.ChatMember, error)
	GetChatMember(ctx context.Context, chatID, userID string) (*model.ChatMember, error)
	// AddChatMember returns the existing row when the user is already a
	// member.
	AddChatMember(ctx context.Context, chatID, userID, role string) (*model.ChatMember, error)
	RemoveChatMember(ctx context.Context, chatID, userID string) (bool, error)
}

// MessageStore persists chat messages.
type MessageStore interface {
	GetMessage(ctx context.Context, id string) (*model.Message, error)
	ListMessages(ctx context.Context, chatID string) ([]model.Message, error)
	CreateMessage(ctx context.Context, in model.NewMessage) (*model.Message, error)
	// UpdateMessage sets EditedAt.
	UpdateMessage(ctx context.Context, id string, patch model.MessagePatch) (*model.Message, error)
	DeleteMessage(ctx context.Context, id string) (bool, error)
}

// MetricsStore persists per-user dashboard counters.
type MetricsStore interface {
	GetMetrics(ctx context.Context, userID string) (*model.Metrics, error)
	UpsertMetrics(ctx context.Context, userID string, values model.MetricsValues) (*model.Metrics, error)
}

// Storage is everything the HTTP layer needs. The in-memory and SQL stores
// both implement it and are selected at startup.
type Storage interface {
	UserStore
	ProjectStore
	AssetStore
	BundleStore
	CartStore
	PurchaseStore
	LibraryStore
	ChatStore
	MessageStore
	MetricsStore

	Ping(ctx context.Context) error
	Close() error
}
