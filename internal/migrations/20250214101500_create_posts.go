package migrations

import (
	"database/sql"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigration(upCreatePosts, downCreatePosts)
}

func upCreatePosts(tx *sql.Tx) error {
	_, err := tx.Exec(`
	CREATE TABLE posts (
		id TEXT PRIMARY KEY,
		channel_id TEXT NOT NULL,
		scheduled_date TEXT NOT NULL,
		scheduled_time TEXT NOT NULL,
		timezone TEXT NOT NULL,
		body TEXT NOT NULL DEFAULT '',
		image TEXT NOT NULL DEFAULT '',
		buttons JSONB NOT NULL DEFAULT '[]',
		status TEXT NOT NULL DEFAULT 'scheduled',
		error TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		sent_at TIMESTAMPTZ
	);
	CREATE INDEX posts_status_idx ON posts (status);
	`)
	if err != nil {
		return err
	}
	return nil
}

func downCreatePosts(tx *sql.Tx) error {
	_, err := tx.Exec(`
	DROP TABLE posts;
	`)
	if err != nil {
		return err
	}
	return nil
}
