package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/teamboard/teamboard/internal/domain"
)

// PostRepository persists team chat posts.
type PostRepository interface {
	Create(ctx context.Context, post *domain.Post) error
	ListByTeam(ctx context.Context, teamID string, limit int) ([]domain.Post, error)
}

type postRepository struct {
	pool *pgxpool.Pool
}

// NewPostRepository constructs repository.
func NewPostRepository(pool *pgxpool.Pool) PostRepository {
	return &postRepository{pool: pool}
}

func (r *postRepository) Create(ctx context.Context, post *domain.Post) error {
	const query = `
        INSERT INTO posts (team_id, author_id, body)
        VALUES ($1, $2, $3)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query, post.TeamID, post.AuthorID, post.Body).Scan(&post.ID, &post.CreatedAt)
}

func (r *postRepository) ListByTeam(ctx context.Context, teamID string, limit int) ([]domain.Post, error) {
	const query = `
        SELECT id, team_id, author_id, body, created_at
        FROM posts WHERE team_id=$1
        ORDER BY created_at DESC, id
        LIMIT $2`
	rows, err := r.pool.Query(ctx, query, teamID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.Post{}
	for rows.Next() {
		var post domain.Post
		if err := rows.Scan(&post.ID, &post.TeamID, &post.AuthorID, &post.Body, &post.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, post)
	}
	return result, rows.Err()
}
