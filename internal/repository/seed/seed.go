// Package seed describes the sample dataset loaded into development
// databases and the in-memory store. Both stores consume the same
// description through the repository.Storage interface.
package seed

import (
	"context"
	"fmt"

	"github.com/iliyamo/gameforge-studio/internal/model"
	"github.com/iliyamo/gameforge-studio/internal/repository"
	"github.com/iliyamo/gameforge-studio/internal/utils"
)

// DevPassword is the password shared by every fixture account.
const DevPassword = "password123"

// Fixed identifiers so that fixtures can reference each other and tests can
// look them up.
const (
	UserAlex   = "user-alex-chen"
	UserSarah  = "user-sarah-kim"
	UserMarcus = "user-marcus-johnson"
	UserEmma   = "user-emma-wilson"

	ProjectMystic  = "project-mystic-realms"
	ProjectNeon    = "project-neon-drift"
	ProjectPixel   = "project-pixel-quest"
	MainChat       = "chat-general"
	WelcomeMessage = "message-welcome"
)

// Member is a fixture chat membership.
type Member struct {
	ChatID string
	UserID string
	Role   string
}

// Dataset is a complete fixture description. Rows are inserted in field
// order so that references always resolve.
type Dataset struct {
	Users    []model.NewUser
	Projects []model.NewProject
	Assets   []model.NewAsset
	Bundles  []model.NewBundle
	Metrics  map[string]model.MetricsValues
	Chats    []model.NewChat
	Members  []Member
	Messages []model.NewMessage
}

// Default hashes DevPassword at the given bcrypt cost and returns the
// standard dataset.
func Default(cost int) (Dataset, error) {
	hash, err := utils.HashPassword(DevPassword, cost)
	if err != nil {
		return Dataset{}, fmt.Errorf("hash fixture password: %w", err)
	}
	return Build(hash), nil
}

// Build returns the standard dataset with every account using passwordHash.
func Build(passwordHash string) Dataset {
	str := func(s string) *string { return &s }
	cents := func(c int) *int { return &c }

	return Dataset{
		Users: []model.NewUser{
			{
				ID: UserAlex, Username: "alexchen", Password: passwordHash,
				Email: "alex@gameforge.dev", DisplayName: "Alex Chen", Role: "Lead Developer",
				Avatar:       str("https://images.gameforge.dev/avatars/alex.png"),
				Bio:          str("Gameplay programmer and engine tinkerer."),
				Location:     str("San Francisco, CA"),
				Skills:       []string{"Unity", "C#", "Shaders"},
				Availability: model.AvailabilityOnline,
			},
			{
				ID: UserSarah, Username: "sarahkim", Password: passwordHash,
				Email: "sarah@gameforge.dev", DisplayName: "Sarah Kim", Role: "Art Director",
				Avatar:       str("https://images.gameforge.dev/avatars/sarah.png"),
				Bio:          str("Pixel art, concept art and everything in between."),
				Location:     str("Seoul, KR"),
				Skills:       []string{"Aseprite", "Blender", "Illustration"},
				Availability: model.AvailabilityBusy,
			},
			{
				ID: UserMarcus, Username: "marcusj", Password: passwordHash,
				Email: "marcus@gameforge.dev", DisplayName: "Marcus Johnson", Role: "Sound Designer",
				Location:     str("Austin, TX"),
				Skills:       []string{"FMOD", "Wwise", "Composition"},
				Availability: model.AvailabilityAway,
			},
			{
				ID: UserEmma, Username: "emmaw", Password: passwordHash,
				Email: "emma@gameforge.dev", DisplayName: "Emma Wilson", Role: "Producer",
				Location:     str("London, UK"),
				Skills:       []string{"Scrum", "Community", "Publishing"},
				Availability: model.AvailabilityOffline,
			},
		},
		Projects: []model.NewProject{
			{
				ID: ProjectMystic, Name: "Mystic Realms", Icon: "🧙",
				Description: "A fantasy RPG with procedurally generated dungeons.",
				Status:      model.ProjectInProgress, Engine: "unity", Platform: "pc",
				OwnerID:     UserAlex,
				TeamMembers: []string{UserSarah, UserMarcus},
				Features:    []string{"Procedural dungeons", "Co-op multiplayer", "Crafting"},
			},
			{
				ID: ProjectNeon, Name: "Neon Drift", Icon: "🏎️",
				Description: "Arcade racing through a synthwave city.",
				Status:      model.ProjectLive, Engine: "unreal", Platform: "cross-platform",
				OwnerID:     UserAlex,
				TeamMembers: []string{UserEmma},
				Features:    []string{"Online leaderboards", "Photo mode"},
			},
			{
				ID: ProjectPixel, Name: "Pixel Quest", Icon: "👾",
				Description: "A retro platformer for mobile.",
				Status:      model.ProjectNotStarted, Engine: "godot", Platform: "mobile",
				OwnerID:     UserSarah,
				TeamMembers: []string{UserAlex},
				Features:    []string{"Touch controls"},
			},
		},
		Assets: []model.NewAsset{
			{
				ID: "asset-fantasy-characters", Title: "Fantasy Character Pack",
				Description: "40 rigged low-poly fantasy characters.", Category: "3d-models",
				Tags: []string{"fantasy", "characters", "low-poly"}, Price: 2999, OriginalPrice: cents(4999),
				Thumbnail: "https://images.gameforge.dev/assets/fantasy-characters.png", Creator: "PolyForge",
				Downloads: 1250, Rating: 4.8, ReviewCount: 156,
			},
			{
				ID: "asset-synthwave-music", Title: "Synthwave Music Collection",
				Description: "25 loopable retro tracks.", Category: "audio",
				Tags: []string{"music", "synthwave", "loops"}, Price: 1999,
				Thumbnail: "https://images.gameforge.dev/assets/synthwave.png", Creator: "RetroSound",
				Downloads: 860, Rating: 4.6, ReviewCount: 92,
			},
			{
				ID: "asset-pixel-tileset", Title: "Pixel Dungeon Tileset",
				Description: "16x16 dungeon tiles with animated torches.", Category: "2d-sprites",
				Tags: []string{"pixel", "tileset", "dungeon"}, Price: 999,
				Thumbnail: "https://images.gameforge.dev/assets/pixel-tileset.png", Creator: "TinyTiles",
				Downloads: 3400, Rating: 4.9, ReviewCount: 410,
			},
			{
				ID: "asset-ui-kit", Title: "Sci-Fi UI Kit",
				Description: "HUD frames, buttons and icons.", Category: "ui",
				Tags: []string{"ui", "sci-fi", "hud"}, Price: 1499, OriginalPrice: cents(2499),
				Thumbnail: "https://images.gameforge.dev/assets/ui-kit.png", Creator: "HoloWorks",
				Downloads: 720, Rating: 4.4, ReviewCount: 64,
			},
			{
				ID: "asset-water-shader", Title: "Stylized Water Shader",
				Description: "Toon water with foam and caustics.", Category: "shaders",
				Tags: []string{"shader", "water", "stylized"}, Price: 0,
				Thumbnail: "https://images.gameforge.dev/assets/water-shader.png", Creator: "ShaderLab",
				Downloads: 5100, Rating: 4.7, ReviewCount: 388,
			},
			{
				ID: "asset-sfx-pack", Title: "Essential SFX Pack",
				Description: "500 sound effects for action games.", Category: "audio",
				Tags: []string{"sfx", "action", "impacts"}, Price: 2499,
				Thumbnail: "https://images.gameforge.dev/assets/sfx.png", Creator: "RetroSound",
				Downloads: 1900, Rating: 4.5, ReviewCount: 201,
			},
		},
		Bundles: []model.NewBundle{
			{
				ID: "bundle-rpg-starter", Title: "RPG Starter Bundle",
				Description: "Characters, tiles and music for your first RPG.", Category: "bundles",
				AssetIDs: []string{"asset-fantasy-characters", "asset-pixel-tileset", "asset-synthwave-music"},
				Price:    3999, OriginalPrice: cents(5997),
				Thumbnail: "https://images.gameforge.dev/bundles/rpg-starter.png",
				Downloads: 430, Rating: 4.8, ReviewCount: 57,
			},
			{
				ID: "bundle-audio-complete", Title: "Complete Audio Bundle",
				Description: "Every sound and song from RetroSound.", Category: "bundles",
				AssetIDs: []string{"asset-synthwave-music", "asset-sfx-pack"},
				Price:    3499, OriginalPrice: cents(4498),
				Thumbnail: "https://images.gameforge.dev/bundles/audio.png",
				Downloads: 210, Rating: 4.6, ReviewCount: 23,
			},
		},
		Metrics: map[string]model.MetricsValues{
			UserAlex:   {ActiveProjects: 2, TeamMembers: 3, AssetsCreated: 14, GamesPublished: 1, Revenue: 1245000},
			UserSarah:  {ActiveProjects: 1, TeamMembers: 1, AssetsCreated: 48, GamesPublished: 0, Revenue: 0},
			UserMarcus: {ActiveProjects: 1, TeamMembers: 0, AssetsCreated: 120, GamesPublished: 0, Revenue: 0},
			UserEmma:   {ActiveProjects: 1, TeamMembers: 4, AssetsCreated: 0, GamesPublished: 1, Revenue: 0},
		},
		Chats: []model.NewChat{
			{
				ID: MainChat, Name: "General", Description: "Studio-wide announcements and chatter.",
				Type: model.ChatGroup, IsMainChat: true, CreatedBy: UserAlex,
			},
		},
		Members: []Member{
			{ChatID: MainChat, UserID: UserAlex, Role: model.MemberAdmin},
			{ChatID: MainChat, UserID: UserSarah, Role: model.MemberMember},
			{ChatID: MainChat, UserID: UserMarcus, Role: model.MemberMember},
			{ChatID: MainChat, UserID: UserEmma, Role: model.MemberMember},
		},
		Messages: []model.NewMessage{
			{ID: WelcomeMessage, ChatID: MainChat, UserID: UserAlex, Content: "Welcome to GameForge Studio! 🎮"},
		},
	}
}

// Apply inserts every row of ds into s. It stops at the first failure.
func Apply(ctx context.Context, s repository.Storage, ds Dataset) error {
	for _, u := range ds.Users {
		if _, err := s.CreateUser(ctx, u); err != nil {
			return fmt.Errorf("seed user %s: %w", u.Username, err)
		}
	}
	for _, p := range ds.Projects {
		if _, err := s.CreateProject(ctx, p); err != nil {
			return fmt.Errorf("seed project %s: %w", p.Name, err)
		}
	}
	for _, a := range ds.Assets {
		if _, err := s.CreateAsset(ctx, a); err != nil {
			return fmt.Errorf("seed asset %s: %w", a.Title, err)
		}
	}
	for _, b := range ds.Bundles {
		if _, err := s.CreateBundle(ctx, b); err != nil {
			return fmt.Errorf("seed bundle %s: %w", b.Title, err)
		}
	}
	for _, u := range ds.Users {
		v, ok := ds.Metrics[u.ID]
		if !ok {
			continue
		}
		if _, err := s.UpsertMetrics(ctx, u.ID, v); err != nil {
			return fmt.Errorf("seed metrics for %s: %w", u.Username, err)
		}
	}
	for _, c := range ds.Chats {
		if _, err := s.CreateChat(ctx, c); err != nil {
			return fmt.Errorf("seed chat %s: %w", c.Name, err)
		}
	}
	for _, m := range ds.Members {
		if _, err := s.AddChatMember(ctx, m.ChatID, m.UserID, m.Role); err != nil {
			return fmt.Errorf("seed member %s/%s: %w", m.ChatID, m.UserID, err)
		}
	}
	for _, m := range ds.Messages {
		if _, err := s.CreateMessage(ctx, m); err != nil {
			return fmt.Errorf("seed message %s: %w", m.ID, err)
		}
	}
	return nil
}
