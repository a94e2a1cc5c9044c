package database

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
)

// Each statement uses {{id}}, {{str}}, {{text}}, {{int}}, {{float}},
// {{bool}} and {{ts}} for the column types that differ between engines.
var tables = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id {{id}} PRIMARY KEY,
		username {{str}} NOT NULL UNIQUE,
		password {{str}} NOT NULL,
		email {{str}} NOT NULL UNIQUE,
		display_name {{str}} NOT NULL,
		role {{str}} NOT NULL,
		avatar {{text}},
		banner {{text}},
		bio {{text}},
		status {{text}},
		location {{text}},
		portfolio_link {{text}},
		skills {{text}} NOT NULL,
		current_project {{text}},
		availability {{str}} NOT NULL,
		settings {{text}} NOT NULL,
		created_at {{ts}} NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS projects (
		id {{id}} PRIMARY KEY,
		name {{str}} NOT NULL,
		description {{text}} NOT NULL,
		icon {{str}} NOT NULL,
		status {{str}} NOT NULL,
		engine {{str}} NOT NULL,
		platform {{str}} NOT NULL,
		owner_id {{id}} NOT NULL,
		team_members {{text}} NOT NULL,
		features {{text}} NOT NULL,
		screenshots {{text}} NOT NULL,
		last_updated {{ts}} NOT NULL,
		created_at {{ts}} NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS assets (
		id {{id}} PRIMARY KEY,
		title {{str}} NOT NULL,
		description {{text}} NOT NULL,
		category {{str}} NOT NULL,
		tags {{text}} NOT NULL,
		price {{int}} NOT NULL,
		original_price {{int}},
		thumbnail {{text}} NOT NULL,
		creator {{str}} NOT NULL,
		downloads {{int}} NOT NULL,
		rating {{float}} NOT NULL,
		review_count {{int}} NOT NULL,
		created_at {{ts}} NOT NULL,
		updated_at {{ts}} NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS asset_bundles (
		id {{id}} PRIMARY KEY,
		title {{str}} NOT NULL,
		description {{text}} NOT NULL,
		category {{str}} NOT NULL,
		asset_ids {{text}} NOT NULL,
		price {{int}} NOT NULL,
		original_price {{int}},
		thumbnail {{text}} NOT NULL,
		downloads {{int}} NOT NULL,
		rating {{float}} NOT NULL,
		review_count {{int}} NOT NULL,
		created_at {{ts}} NOT NULL,
		updated_at {{ts}} NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS cart_items (
		id {{id}} PRIMARY KEY,
		user_id {{id}} NOT NULL,
		asset_id {{id}},
		bundle_id {{id}},
		quantity {{int}} NOT NULL,
		created_at {{ts}} NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS purchases (
		id {{id}} PRIMARY KEY,
		user_id {{id}} NOT NULL,
		asset_id {{id}},
		bundle_id {{id}},
		price {{int}} NOT NULL,
		status {{str}} NOT NULL,
		created_at {{ts}} NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS game_library (
		id {{id}} PRIMARY KEY,
		user_id {{id}} NOT NULL,
		game_id {{str}} NOT NULL,
		title {{str}} NOT NULL,
		play_time {{int}} NOT NULL,
		is_favorite {{bool}} NOT NULL,
		last_played {{ts}},
		created_at {{ts}} NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS chats (
		id {{id}} PRIMARY KEY,
		name {{str}} NOT NULL,
		description {{text}} NOT NULL,
		type {{str}} NOT NULL,
		is_main_chat {{bool}} NOT NULL,
		created_by {{id}} NOT NULL,
		created_at {{ts}} NOT NULL,
		updated_at {{ts}} NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS chat_members (
		id {{id}} PRIMARY KEY,
		chat_id {{id}} NOT NULL,
		user_id {{id}} NOT NULL,
		role {{str}} NOT NULL,
		joined_at {{ts}} NOT NULL,
		UNIQUE (chat_id, user_id)
	)`,
	`CREATE TABLE IF NOT EXISTS messages (
		id {{id}} PRIMARY KEY,
		chat_id {{id}} NOT NULL,
		user_id {{id}} NOT NULL,
		content {{text}} NOT NULL,
		reply_to_id {{id}},
		edited_at {{ts}},
		created_at {{ts}} NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS metrics (
		id {{id}} PRIMARY KEY,
		user_id {{id}} NOT NULL UNIQUE,
		active_projects {{int}} NOT NULL,
		team_members {{int}} NOT NULL,
		assets_created {{int}} NOT NULL,
		games_published {{int}} NOT NULL,
		revenue {{int}} NOT NULL,
		updated_at {{ts}} NOT NULL
	)`,
}

func columnTypes(d Dialect) *strings.Replacer {
	switch d {
	case Postgres:
		return strings.NewReplacer(
			"{{id}}", "VARCHAR(64)", "{{str}}", "VARCHAR(255)", "{{text}}", "TEXT",
			"{{int}}", "BIGINT", "{{float}}", "DOUBLE PRECISION", "{{bool}}", "BOOLEAN",
			"{{ts}}", "TIMESTAMPTZ")
	case MySQL:
		return strings.NewReplacer(
			"{{id}}", "VARCHAR(64)", "{{str}}", "VARCHAR(255)", "{{text}}", "TEXT",
			"{{int}}", "BIGINT", "{{float}}", "DOUBLE", "{{bool}}", "BOOLEAN",
			"{{ts}}", "DATETIME(6)")
	default:
		return strings.NewReplacer(
			"{{id}}", "VARCHAR(64)", "{{str}}", "VARCHAR(255)", "{{text}}", "TEXT",
			"{{int}}", "INTEGER", "{{float}}", "REAL", "{{bool}}", "BOOLEAN",
			"{{ts}}", "DATETIME")
	}
}

// SchemaStatements returns the CREATE TABLE statements for d.
func SchemaStatements(d Dialect) []string {
	r := columnTypes(d)
	out := make([]string, len(tables))
	for i, stmt := range tables {
		out[i] = r.Replace(stmt)
	}
	return out
}

// EnsureSchema creates any missing tables. It is safe to run on every start.
func EnsureSchema(ctx context.Context, db *sqlx.DB) error {
	for _, stmt := range SchemaStatements(DialectOf(db)) {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
