package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/henningsieh/growagram/internal/models"
)

var (
	ErrReportNotFound = errors.New("report not found")
	ErrPostNotFound   = errors.New("post not found")
)

type ReportRepository struct {
	pool *pgxpool.Pool
}

func NewReportRepository(pool *pgxpool.Pool) *ReportRepository {
	return &ReportRepository{pool: pool}
}

func (r *ReportRepository) Create(ctx context.Context, report models.Report) error {
	const query = `
		INSERT INTO reports (
			id, author_id, title, description, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6
		)
	`
	_, err := r.pool.Exec(ctx, query,
		report.ID,
		report.AuthorID,
		report.Title,
		report.Description,
		report.CreatedAt,
		report.UpdatedAt,
	)
	return err
}

func (r *ReportRepository) GetByID(ctx context.Context, id string) (models.Report, error) {
	const query = `
		SELECT id, author_id, title, description, created_at, updated_at
		FROM reports WHERE id = $1
	`

	row := r.pool.QueryRow(ctx, query, id)
	var report models.Report
	if err := row.Scan(
		&report.ID,
		&report.AuthorID,
		&report.Title,
		&report.Description,
		&report.CreatedAt,
		&report.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Report{}, ErrReportNotFound
		}
		return models.Report{}, err
	}
	return report, nil
}

func (r *ReportRepository) List(ctx context.Context, limit, offset int) ([]models.Report, error) {
	const query = `
		SELECT id, author_id, title, description, created_at, updated_at
		FROM reports
		ORDER BY updated_at DESC
		LIMIT $1 OFFSET $2
	`
	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reports []models.Report
	for rows.Next() {
		var report models.Report
		if err := rows.Scan(
			&report.ID,
			&report.AuthorID,
			&report.Title,
			&report.Description,
			&report.CreatedAt,
			&report.UpdatedAt,
		); err != nil {
			return nil, err
		}
		reports = append(reports, report)
	}
	return reports, rows.Err()
}

func (r *ReportRepository) CreatePost(ctx context.Context, post models.Post) error {
	const query = `
		INSERT INTO posts (
			id, report_id, author_id, date, title, content, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8
		)
	`
	_, err := r.pool.Exec(ctx, query,
		post.ID,
		post.ReportID,
		post.AuthorID,
		post.Date,
		post.Title,
		post.Content,
		post.CreatedAt,
		post.UpdatedAt,
	)
	return err
}

func (r *ReportRepository) GetPostByID(ctx context.Context, id string) (models.Post, error) {
	const query = `
		SELECT id, report_id, author_id, date, title, content, created_at, updated_at
		FROM posts WHERE id = $1
	`

	row := r.pool.QueryRow(ctx, query, id)
	var post models.Post
	if err := row.Scan(
		&post.ID,
		&post.ReportID,
		&post.AuthorID,
		&post.Date,
		&post.Title,
		&post.Content,
		&post.CreatedAt,
		&post.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Post{}, ErrPostNotFound
		}
		return models.Post{}, err
	}
	return post, nil
}

func (r *ReportRepository) ListPosts(ctx context.Context, reportID string) ([]models.Post, error) {
	const query = `
		SELECT id, report_id, author_id, date, title, content, created_at, updated_at
		FROM posts
		WHERE report_id = $1
		ORDER BY date ASC
	`
	rows, err := r.pool.Query(ctx, query, reportID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var posts []models.Post
	for rows.Next() {
		var post models.Post
		if err := rows.Scan(
			&post.ID,
			&post.ReportID,
			&post.AuthorID,
			&post.Date,
			&post.Title,
			&post.Content,
			&post.CreatedAt,
			&post.UpdatedAt,
		); err != nil {
			return nil, err
		}
		posts = append(posts, post)
	}
	return posts, rows.Err()
}

// TouchReport bumps updated_at so report listings surface recently active grows.
func (r *ReportRepository) TouchReport(ctx context.Context, id string) error {
	const query = `UPDATE reports SET updated_at = NOW() WHERE id = $1`
	_, err := r.pool.Exec(ctx, query, id)
	return err
}
