package repository

import (
	"context"
	"errors"

	"github.com/oksasatya/skyport/internal/domain/entity"
)

var ErrDuplicateObject = errors.New("stellar object already exists")

// ContentRepository stores posts, stellar objects and their comments.
type ContentRepository interface {
	CreatePost(ctx context.Context, p *entity.Post) error
	GetPost(ctx context.Context, id string) (*entity.Post, error)
	ListPostsByPoster(ctx context.Context, username string) ([]entity.Post, error)

	// CreateObject fails with ErrDuplicateObject when the name exists in any letter case.
	CreateObject(ctx context.Context, o *entity.StellarObject) error
	GetObjectByName(ctx context.Context, name string) (*entity.StellarObject, error)

	CreateComment(ctx context.Context, c *entity.Comment) error
	ListComments(ctx context.Context, target entity.CommentTarget, key string) ([]entity.Comment, error)
	ListCommentsByCommenter(ctx context.Context, username string) ([]entity.Comment, error)

	SearchObjects(ctx context.Context, q string, limit int) ([]entity.StellarObject, error)
	SearchPosts(ctx context.Context, q string, limit int) ([]entity.Post, error)
}
