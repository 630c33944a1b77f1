package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/henningsieh/growagram/internal/models"
)

var ErrCommentNotFound = errors.New("comment not found")

type CommentRepository struct {
	pool *pgxpool.Pool
}

func NewCommentRepository(pool *pgxpool.Pool) *CommentRepository {
	return &CommentRepository{pool: pool}
}

func (r *CommentRepository) Create(ctx context.Context, comment models.Comment) error {
	const query = `
		INSERT INTO comments (
			id, post_id, author_id, content, response_to, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7
		)
	`
	_, err := r.pool.Exec(ctx, query,
		comment.ID,
		comment.PostID,
		comment.AuthorID,
		comment.Content,
		comment.ResponseTo,
		comment.CreatedAt,
		comment.UpdatedAt,
	)
	return err
}

func (r *CommentRepository) GetByID(ctx context.Context, id string) (models.Comment, error) {
	const query = `
		SELECT id, post_id, author_id, content, response_to, created_at, updated_at
		FROM comments WHERE id = $1
	`
	return r.scanOne(r.pool.QueryRow(ctx, query, id))
}

func (r *CommentRepository) UpdateContent(ctx context.Context, id string, content string) (models.Comment, error) {
	const query = `
		UPDATE comments SET content = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING id, post_id, author_id, content, response_to, created_at, updated_at
	`
	return r.scanOne(r.pool.QueryRow(ctx, query, id, content))
}

// Delete removes the row. Replies are left in place; a reply whose parent is
// gone keeps its response_to reference.
func (r *CommentRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM comments WHERE id = $1`
	cmd, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrCommentNotFound
	}
	return nil
}

// ListTopLevelByPost returns root comments for a post, newest first.
func (r *CommentRepository) ListTopLevelByPost(ctx context.Context, postID string) ([]models.Comment, error) {
	const query = `
		SELECT id, post_id, author_id, content, response_to, created_at, updated_at
		FROM comments
		WHERE post_id = $1 AND response_to IS NULL
		ORDER BY created_at DESC
	`
	rows, err := r.pool.Query(ctx, query, postID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return r.scanMany(rows)
}

// ListResponses returns the direct replies for a set of parent comments,
// oldest first, grouped by parent.
func (r *CommentRepository) ListResponses(ctx context.Context, parentIDs []string) (map[string][]models.Comment, error) {
	result := make(map[string][]models.Comment, len(parentIDs))
	if len(parentIDs) == 0 {
		return result, nil
	}

	const query = `
		SELECT id, post_id, author_id, content, response_to, created_at, updated_at
		FROM comments
		WHERE response_to = ANY($1)
		ORDER BY created_at ASC
	`
	rows, err := r.pool.Query(ctx, query, parentIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	comments, err := r.scanMany(rows)
	if err != nil {
		return nil, err
	}
	for _, c := range comments {
		if c.ResponseTo != nil {
			result[*c.ResponseTo] = append(result[*c.ResponseTo], c)
		}
	}
	return result, nil
}

func (r *CommentRepository) scanOne(row pgx.Row) (models.Comment, error) {
	var comment models.Comment
	if err := row.Scan(
		&comment.ID,
		&comment.PostID,
		&comment.AuthorID,
		&comment.Content,
		&comment.ResponseTo,
		&comment.CreatedAt,
		&comment.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Comment{}, ErrCommentNotFound
		}
		return models.Comment{}, err
	}
	return comment, nil
}

func (r *CommentRepository) scanMany(rows pgx.Rows) ([]models.Comment, error) {
	var comments []models.Comment
	for rows.Next() {
		var comment models.Comment
		if err := rows.Scan(
			&comment.ID,
			&comment.PostID,
			&comment.AuthorID,
			&comment.Content,
			&comment.ResponseTo,
			&comment.CreatedAt,
			&comment.UpdatedAt,
		); err != nil {
			return nil, err
		}
		comments = append(comments, comment)
	}
	return comments, rows.Err()
}
