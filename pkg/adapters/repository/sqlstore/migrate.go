package sqlstore

import "github.com/jmoiron/sqlx"

const sqliteSchema = `
	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL DEFAULT '',
		avatar_url TEXT NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS images (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		url TEXT NOT NULL UNIQUE,
		author TEXT NOT NULL DEFAULT '',
		title TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		orientation TEXT NOT NULL DEFAULT 'vertical',
		width INTEGER NOT NULL DEFAULT 0,
		height INTEGER NOT NULL DEFAULT 0,
		base_url TEXT NOT NULL DEFAULT '',
		filename TEXT NOT NULL DEFAULT '',
		variants TEXT NOT NULL DEFAULT '[]',
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_images_author ON images(author);

	CREATE TABLE IF NOT EXISTS favorites (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id TEXT NOT NULL,
		image_id INTEGER NOT NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		UNIQUE (user_id, image_id),
		FOREIGN KEY(user_id) REFERENCES users(id) ON DELETE CASCADE,
		FOREIGN KEY(image_id) REFERENCES images(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS collections (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY(user_id) REFERENCES users(id) ON DELETE CASCADE
	);
	CREATE INDEX IF NOT EXISTS idx_collections_user ON collections(user_id);

	CREATE TABLE IF NOT EXISTS collection_favorites (
		collection_id TEXT NOT NULL,
		favorite_id INTEGER NOT NULL,
		display_order INTEGER NOT NULL DEFAULT 0,
		added_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (collection_id, favorite_id),
		FOREIGN KEY(collection_id) REFERENCES collections(id) ON DELETE CASCADE,
		FOREIGN KEY(favorite_id) REFERENCES favorites(id) ON DELETE CASCADE
	);
	CREATE INDEX IF NOT EXISTS idx_collection_favorites_favorite ON collection_favorites(favorite_id);

	CREATE TABLE IF NOT EXISTS comments (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		image_id INTEGER NOT NULL,
		content TEXT NOT NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME,
		FOREIGN KEY(user_id) REFERENCES users(id) ON DELETE CASCADE,
		FOREIGN KEY(image_id) REFERENCES images(id) ON DELETE CASCADE
	);
	CREATE INDEX IF NOT EXISTS idx_comments_image ON comments(image_id);
	CREATE INDEX IF NOT EXISTS idx_comments_user ON comments(user_id);
`

const postgresSchema = `
	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL DEFAULT '',
		avatar_url TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS images (
		id BIGSERIAL PRIMARY KEY,
		url TEXT NOT NULL UNIQUE,
		author TEXT NOT NULL DEFAULT '',
		title TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		orientation TEXT NOT NULL DEFAULT 'vertical',
		width INTEGER NOT NULL DEFAULT 0,
		height INTEGER NOT NULL DEFAULT 0,
		base_url TEXT NOT NULL DEFAULT '',
		filename TEXT NOT NULL DEFAULT '',
		variants TEXT NOT NULL DEFAULT '[]',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);
	CREATE INDEX IF NOT EXISTS idx_images_author ON images(author);

	CREATE TABLE IF NOT EXISTS favorites (
		id BIGSERIAL PRIMARY KEY,
		user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		image_id BIGINT NOT NULL REFERENCES images(id) ON DELETE CASCADE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (user_id, image_id)
	);

	CREATE TABLE IF NOT EXISTS collections (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);
	CREATE INDEX IF NOT EXISTS idx_collections_user ON collections(user_id);

	CREATE TABLE IF NOT EXISTS collection_favorites (
		collection_id TEXT NOT NULL REFERENCES collections(id) ON DELETE CASCADE,
		favorite_id BIGINT NOT NULL REFERENCES favorites(id) ON DELETE CASCADE,
		display_order INTEGER NOT NULL DEFAULT 0,
		added_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		PRIMARY KEY (collection_id, favorite_id)
	);
	CREATE INDEX IF NOT EXISTS idx_collection_favorites_favorite ON collection_favorites(favorite_id);

	CREATE TABLE IF NOT EXISTS comments (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		image_id BIGINT NOT NULL REFERENCES images(id) ON DELETE CASCADE,
		content TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ
	);
	CREATE INDEX IF NOT EXISTS idx_comments_image ON comments(image_id);
	CREATE INDEX IF NOT EXISTS idx_comments_user ON comments(user_id);
`

func migrate(db *sqlx.DB) error {
	schema := sqliteSchema
	if db.DriverName() == DriverPostgres {
		schema = postgresSchema
	}
	if _, err := db.Exec(schema); err != nil {
		return err
	}

	// Older databases predate image dimensions. SQLite has no ADD COLUMN IF
	// NOT EXISTS, so the error of an existing column is ignored.
	if db.DriverName() != DriverPostgres {
		_, _ = db.Exec(`ALTER TABLE images ADD COLUMN width INTEGER NOT NULL DEFAULT 0`)
		_, _ = db.Exec(`ALTER TABLE images ADD COLUMN height INTEGER NOT NULL DEFAULT 0`)
	}
	return nil
}
