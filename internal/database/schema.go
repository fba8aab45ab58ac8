package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Membership tables (post_likes, comment_likes, reply_likes, follows,
// saved_posts) carry composite primary keys so a like or follow toggle is a
// single conditional INSERT/DELETE and a double-add cannot happen under
// concurrent requests. Counts are always derived from these tables.
const schema = `
CREATE TABLE IF NOT EXISTS users (
	id            UUID PRIMARY KEY,
	username      TEXT NOT NULL UNIQUE,
	name          TEXT NOT NULL,
	email         TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	avatar        TEXT NOT NULL DEFAULT '',
	bio           TEXT NOT NULL DEFAULT '',
	field         TEXT NOT NULL DEFAULT 'Other',
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS auth_tokens (
	id         BIGSERIAL PRIMARY KEY,
	user_id    UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	token_hash TEXT NOT NULL,
	token_type TEXT NOT NULL,
	expires_at TIMESTAMPTZ NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS follows (
	follower_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	followee_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (follower_id, followee_id)
);

CREATE TABLE IF NOT EXISTS posts (
	id               UUID PRIMARY KEY,
	author_id        UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	title            TEXT NOT NULL,
	content          TEXT NOT NULL,
	category         TEXT NOT NULL,
	tags             TEXT[] NOT NULL DEFAULT '{}',
	visibility       TEXT NOT NULL DEFAULT 'public',
	is_repost        BOOLEAN NOT NULL DEFAULT FALSE,
	original_post_id UUID REFERENCES posts(id) ON DELETE SET NULL,
	repost_count     INTEGER NOT NULL DEFAULT 0,
	views            INTEGER NOT NULL DEFAULT 0,
	hot_score        DOUBLE PRECISION NOT NULL DEFAULT 0,
	trending_score   DOUBLE PRECISION NOT NULL DEFAULT 0,
	created_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at       TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_posts_author_created ON posts (author_id, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_posts_hot ON posts (hot_score DESC);
CREATE INDEX IF NOT EXISTS idx_posts_trending ON posts (trending_score DESC);

CREATE TABLE IF NOT EXISTS post_likes (
	post_id    UUID NOT NULL REFERENCES posts(id) ON DELETE CASCADE,
	user_id    UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (post_id, user_id)
);

CREATE TABLE IF NOT EXISTS saved_posts (
	post_id    UUID NOT NULL REFERENCES posts(id) ON DELETE CASCADE,
	user_id    UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (post_id, user_id)
);

CREATE TABLE IF NOT EXISTS comments (
	id         UUID PRIMARY KEY,
	post_id    UUID NOT NULL REFERENCES posts(id) ON DELETE CASCADE,
	author_id  UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	content    TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_comments_post ON comments (post_id, created_at);

CREATE TABLE IF NOT EXISTS comment_likes (
	comment_id UUID NOT NULL REFERENCES comments(id) ON DELETE CASCADE,
	user_id    UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (comment_id, user_id)
);

-- Replies reference comments only; reply-to-reply nesting has no
-- representation in the schema.
CREATE TABLE IF NOT EXISTS replies (
	id         UUID PRIMARY KEY,
	comment_id UUID NOT NULL REFERENCES comments(id) ON DELETE CASCADE,
	author_id  UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	content    TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_replies_comment ON replies (comment_id, created_at);

CREATE TABLE IF NOT EXISTS reply_likes (
	reply_id   UUID NOT NULL REFERENCES replies(id) ON DELETE CASCADE,
	user_id    UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (reply_id, user_id)
);

CREATE TABLE IF NOT EXISTS notifications (
	id           UUID PRIMARY KEY,
	recipient_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	type         TEXT NOT NULL,
	from_user_id UUID REFERENCES users(id) ON DELETE SET NULL,
	post_id      UUID REFERENCES posts(id) ON DELETE CASCADE,
	comment_id   UUID REFERENCES comments(id) ON DELETE CASCADE,
	message      TEXT NOT NULL,
	read         BOOLEAN NOT NULL DEFAULT FALSE,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_notifications_recipient ON notifications (recipient_id, created_at DESC);
`

// Migrate applies the schema. Statements are idempotent so running it on
// every startup is safe.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}
