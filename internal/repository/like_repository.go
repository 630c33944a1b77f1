package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/henningsieh/growagram/internal/models"
)

var ErrLikeNotFound = errors.New("like not found")

type LikeRepository struct {
	pool *pgxpool.Pool
}

func NewLikeRepository(pool *pgxpool.Pool) *LikeRepository {
	return &LikeRepository{pool: pool}
}

// Create is idempotent per (user, target): liking twice keeps the first row.
func (r *LikeRepository) Create(ctx context.Context, like models.Like) error {
	const query = `
		INSERT INTO likes (
			id, user_id, target, target_id, created_at
		) VALUES (
			$1, $2, $3, $4, NOW()
		)
		ON CONFLICT (user_id, target, target_id) DO NOTHING
	`
	_, err := r.pool.Exec(ctx, query,
		like.ID,
		like.UserID,
		like.Target,
		like.TargetID,
	)
	return err
}

func (r *LikeRepository) Delete(ctx context.Context, userID string, target models.LikeTarget, targetID string) error {
	const query = `DELETE FROM likes WHERE user_id = $1 AND target = $2 AND target_id = $3`
	cmd, err := r.pool.Exec(ctx, query, userID, target, targetID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrLikeNotFound
	}
	return nil
}

func (r *LikeRepository) Get(ctx context.Context, userID string, target models.LikeTarget, targetID string) (models.Like, error) {
	const query = `
		SELECT id, user_id, target, target_id, created_at
		FROM likes
		WHERE user_id = $1 AND target = $2 AND target_id = $3
	`
	row := r.pool.QueryRow(ctx, query, userID, target, targetID)
	var like models.Like
	if err := row.Scan(
		&like.ID,
		&like.UserID,
		&like.Target,
		&like.TargetID,
		&like.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Like{}, ErrLikeNotFound
		}
		return models.Like{}, err
	}
	return like, nil
}

func (r *LikeRepository) CountByTarget(ctx context.Context, target models.LikeTarget, targetID string) (int, error) {
	const query = `SELECT COUNT(*) FROM likes WHERE target = $1 AND target_id = $2`
	row := r.pool.QueryRow(ctx, query, target, targetID)
	var count int
	if err := row.Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}
