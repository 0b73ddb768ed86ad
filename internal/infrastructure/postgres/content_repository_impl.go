package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/oksasatya/skyport/internal/domain/entity"
	"github.com/oksasatya/skyport/internal/domain/repository"
)

const (
	postSelect = `
		SELECT p.id, p.poster_id, u.username, p.title, p.content, p.created_at
		FROM posts p JOIN users u ON u.id = p.poster_id`
	commentSelect = `
		SELECT c.id, c.commenter_id, u.username, c.target, c.target_key, c.content, c.created_at
		FROM comments c JOIN users u ON u.id = c.commenter_id`
)

type ContentRepository struct {
	db DBTX
}

func NewContentRepository(db DBTX) *ContentRepository {
	return &ContentRepository{db: db}
}

func (r *ContentRepository) CreatePost(ctx context.Context, p *entity.Post) error {
	row := r.db.QueryRow(ctx, `
		INSERT INTO posts (poster_id, title, content)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`, p.PosterID, p.Title, p.Content)
	if err := row.Scan(&p.ID, &p.CreatedAt); err != nil {
		return fmt.Errorf("insert post: %w", err)
	}
	return nil
}

func (r *ContentRepository) GetPost(ctx context.Context, id string) (*entity.Post, error) {
	p := &entity.Post{}
	if err := scanPost(r.db.QueryRow(ctx, postSelect+` WHERE p.id = $1`, id), p); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("select post: %w", err)
	}
	return p, nil
}

func (r *ContentRepository) ListPostsByPoster(ctx context.Context, username string) ([]entity.Post, error) {
	return r.queryPosts(ctx, postSelect+` WHERE u.username = $1 ORDER BY p.created_at DESC`, username)
}

func (r *ContentRepository) SearchPosts(ctx context.Context, q string, limit int) ([]entity.Post, error) {
	return r.queryPosts(ctx, postSelect+` WHERE p.title ILIKE $1 ORDER BY p.created_at DESC LIMIT $2`, likePattern(q), limit)
}

func (r *ContentRepository) queryPosts(ctx context.Context, query string, args ...any) ([]entity.Post, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select posts: %w", err)
	}
	defer rows.Close()

	var out []entity.Post
	for rows.Next() {
		var p entity.Post
		if err := scanPost(rows, &p); err != nil {
			return nil, fmt.Errorf("select posts: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *ContentRepository) CreateObject(ctx context.Context, o *entity.StellarObject) error {
	row := r.db.QueryRow(ctx, `
		INSERT INTO stellar_objects (name)
		VALUES ($1)
		RETURNING id, created_at
	`, o.Name)
	if err := row.Scan(&o.ID, &o.CreatedAt); err != nil {
		if uniqueViolation(err) != "" {
			return repository.ErrDuplicateObject
		}
		return fmt.Errorf("insert stellar object: %w", err)
	}
	return nil
}

func (r *ContentRepository) GetObjectByName(ctx context.Context, name string) (*entity.StellarObject, error) {
	o := &entity.StellarObject{}
	row := r.db.QueryRow(ctx, `SELECT id, name, created_at FROM stellar_objects WHERE lower(name) = lower($1)`, name)
	if err := row.Scan(&o.ID, &o.Name, &o.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("select stellar object: %w", err)
	}
	return o, nil
}

func (r *ContentRepository) SearchObjects(ctx context.Context, q string, limit int) ([]entity.StellarObject, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, name, created_at
		FROM stellar_objects
		WHERE name ILIKE $1
		ORDER BY name
		LIMIT $2
	`, likePattern(q), limit)
	if err != nil {
		return nil, fmt.Errorf("search stellar objects: %w", err)
	}
	defer rows.Close()

	var out []entity.StellarObject
	for rows.Next() {
		var o entity.StellarObject
		if err := rows.Scan(&o.ID, &o.Name, &o.CreatedAt); err != nil {
			return nil, fmt.Errorf("search stellar objects: %w", err)
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (r *ContentRepository) CreateComment(ctx context.Context, c *entity.Comment) error {
	key := c.TargetKey
	if c.Target == entity.TargetObject {
		key = strings.ToLower(key)
	}
	row := r.db.QueryRow(ctx, `
		INSERT INTO comments (commenter_id, target, target_key, content)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`, c.CommenterID, string(c.Target), key, c.Content)
	if err := row.Scan(&c.ID, &c.CreatedAt); err != nil {
		return fmt.Errorf("insert comment: %w", err)
	}
	c.TargetKey = key
	return nil
}

func (r *ContentRepository) ListComments(ctx context.Context, target entity.CommentTarget, key string) ([]entity.Comment, error) {
	if target == entity.TargetObject {
		key = strings.ToLower(key)
	}
	return r.queryComments(ctx, commentSelect+` WHERE c.target = $1 AND c.target_key = $2 ORDER BY c.created_at`, string(target), key)
}

func (r *ContentRepository) ListCommentsByCommenter(ctx context.Context, username string) ([]entity.Comment, error) {
	return r.queryComments(ctx, commentSelect+` WHERE u.username = $1 ORDER BY c.created_at DESC`, username)
}

func (r *ContentRepository) queryComments(ctx context.Context, query string, args ...any) ([]entity.Comment, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select comments: %w", err)
	}
	defer rows.Close()

	var out []entity.Comment
	for rows.Next() {
		var (
			c      entity.Comment
			target string
		)
		if err := rows.Scan(&c.ID, &c.CommenterID, &c.CommenterUsername, &target, &c.TargetKey, &c.Content, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("select comments: %w", err)
		}
		c.Target = entity.CommentTarget(target)
		out = append(out, c)
	}
	return out, rows.Err()
}

func scanPost(row pgx.Row, p *entity.Post) error {
	return row.Scan(&p.ID, &p.PosterID, &p.PosterUsername, &p.Title, &p.Content, &p.CreatedAt)
}

var _ repository.ContentRepository = (*ContentRepository)(nil)
