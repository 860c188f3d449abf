package migrations

import (
	"context"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/migrate"
)

const createLearningTablesSQL = `
CREATE TABLE IF NOT EXISTS chapters (
	id           TEXT PRIMARY KEY,
	course_id    TEXT NOT NULL,
	title        TEXT NOT NULL DEFAULT '',
	position     INT NOT NULL DEFAULT 0,
	is_published BOOLEAN NOT NULL DEFAULT FALSE
);
CREATE INDEX IF NOT EXISTS chapters_course_idx ON chapters (course_id);

CREATE TABLE IF NOT EXISTS chapter_questions (
	chapter_id TEXT PRIMARY KEY REFERENCES chapters (id) ON DELETE CASCADE,
	data       JSONB NOT NULL
);

CREATE TABLE IF NOT EXISTS user_progress (
	id                UUID PRIMARY KEY,
	seq               BIGSERIAL NOT NULL,
	user_id           TEXT NOT NULL,
	course_id         TEXT NOT NULL,
	chapter_id        TEXT NOT NULL REFERENCES chapters (id) ON DELETE CASCADE,
	is_completed      BOOLEAN NOT NULL DEFAULT FALSE,
	is_quiz_completed BOOLEAN NOT NULL DEFAULT FALSE,
	quiz_score        INT NOT NULL DEFAULT 0,
	time_taken        INT NOT NULL DEFAULT 0,
	correct_answers   INT NOT NULL DEFAULT 0,
	incorrect_answers INT NOT NULL DEFAULT 0,
	created_at        TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS user_progress_chapter_idx ON user_progress (chapter_id) WHERE is_quiz_completed;
`

var Migrations = migrate.NewMigrations()

func init() {
	Migrations.MustRegister(
		func(ctx context.Context, db *bun.DB) error {
			_, err := db.ExecContext(ctx, createLearningTablesSQL)
			return err
		},
		func(ctx context.Context, db *bun.DB) error {
			_, err := db.ExecContext(ctx, `DROP TABLE IF EXISTS user_progress, chapter_questions, chapters`)
			return err
		},
	)
}
