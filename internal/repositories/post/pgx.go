package post

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"telecast/internal/domain"
	"telecast/internal/repositories"
	"telecast/pkg/logger"
)

// Pgx is the durable store backend. It honors the same contract as Memory;
// created_at is never touched by the upsert so overwrites keep the original
// insertion time.
type Pgx struct {
	pg     *pgxpool.Pool
	logger logger.Logger
}

func NewPgx(pg *pgxpool.Pool, log logger.Logger) *Pgx {
	return &Pgx{
		pg:     pg,
		logger: log.WithComponent("PostStorePgx"),
	}
}

var _ Repository = (*Pgx)(nil)

const postColumns = "id, channel_id, scheduled_date, scheduled_time, timezone, body, image, buttons, status, error, created_at, sent_at"

func (p *Pgx) Put(ctx context.Context, post domain.Post) (domain.Post, error) {
	buttons, err := json.Marshal(post.Buttons)
	if err != nil {
		return domain.Post{}, err
	}

	createdAt := post.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	query, args, err := repositories.SqBuilder.
		Insert("posts").
		Columns("id", "channel_id", "scheduled_date", "scheduled_time", "timezone",
			"body", "image", "buttons", "status", "error", "created_at", "sent_at").
		Values(post.ID, post.ChannelID, post.Date, post.Time, post.Timezone,
			post.Text, post.Image.Raw, buttons, post.Status, post.Error, createdAt, post.SentAt).
		Suffix(`ON CONFLICT (id) DO UPDATE SET
			channel_id = EXCLUDED.channel_id,
			scheduled_date = EXCLUDED.scheduled_date,
			scheduled_time = EXCLUDED.scheduled_time,
			timezone = EXCLUDED.timezone,
			body = EXCLUDED.body,
			image = EXCLUDED.image,
			buttons = EXCLUDED.buttons,
			status = EXCLUDED.status,
			error = EXCLUDED.error,
			sent_at = EXCLUDED.sent_at
			RETURNING created_at`).
		ToSql()
	if err != nil {
		return domain.Post{}, repositories.ErrBadQuery
	}

	if err := p.pg.QueryRow(ctx, query, args...).Scan(&post.CreatedAt); err != nil {
		return domain.Post{}, err
	}
	return post, nil
}

func (p *Pgx) Get(ctx context.Context, id string) (*domain.Post, error) {
	query, args, err := repositories.SqBuilder.
		Select(postColumns).
		From("posts").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, repositories.ErrBadQuery
	}

	post, err := scanPost(p.pg.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return post, nil
}

func (p *Pgx) List(ctx context.Context) ([]*domain.Post, error) {
	query, args, err := repositories.SqBuilder.
		Select(postColumns).
		From("posts").
		OrderBy("created_at ASC").
		ToSql()
	if err != nil {
		return nil, repositories.ErrBadQuery
	}

	rows, err := p.pg.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var posts []*domain.Post
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, post)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return posts, nil
}

func (p *Pgx) Delete(ctx context.Context, id string) error {
	query, args, err := repositories.SqBuilder.
		Delete("posts").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return repositories.ErrBadQuery
	}

	_, err = p.pg.Exec(ctx, query, args...)
	return err
}

func (p *Pgx) UpdateStatus(ctx context.Context, id string, upd StatusUpdate) error {
	query, args, err := repositories.SqBuilder.
		Update("posts").
		Set("status", upd.Status).
		Set("error", upd.Error).
		Set("sent_at", upd.SentAt).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return repositories.ErrBadQuery
	}

	result, err := p.pg.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		p.logger.Debug("Status update for missing post, skipping", "post_id", id)
	}
	return nil
}

func scanPost(row pgx.Row) (*domain.Post, error) {
	var (
		post    domain.Post
		image   string
		buttons []byte
	)
	err := row.Scan(&post.ID, &post.ChannelID, &post.Date, &post.Time, &post.Timezone,
		&post.Text, &image, &buttons, &post.Status, &post.Error, &post.CreatedAt, &post.SentAt)
	if err != nil {
		return nil, err
	}

	post.Image = domain.ParseImage(image)
	if len(buttons) > 0 {
		if err := json.Unmarshal(buttons, &post.Buttons); err != nil {
			return nil, err
		}
	}
	return &post, nil
}
