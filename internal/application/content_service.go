package application

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/skyport/internal/domain/entity"
	repo "github.com/oksasatya/skyport/internal/domain/repository"
	"github.com/oksasatya/skyport/pkg/validation"
)

const searchLimit = 50

// SearchIndex is an optional full text index kept next to the store.
type SearchIndex interface {
	IndexUser(ctx context.Context, u entity.User) error
	IndexPost(ctx context.Context, p entity.Post) error
	IndexObject(ctx context.Context, o entity.StellarObject) error
	Search(ctx context.Context, q string, limit int) (*entity.SearchResults, error)
}

// ContentService serves posts, stellar objects, comments and search to
// confirmed users.
type ContentService struct {
	Content repo.ContentRepository
	Users   repo.UserRepository
	Index   SearchIndex
	Logger  *logrus.Logger

	validate *validator.Validate
}

func NewContentService(content repo.ContentRepository, users repo.UserRepository, index SearchIndex, logger *logrus.Logger) *ContentService {
	return &ContentService{Content: content, Users: users, Index: index, Logger: logger, validate: validation.New()}
}

type PostInput struct {
	Title   string `form:"title" validate:"required,min=1,max=100"`
	Content string `form:"content" validate:"required,min=5,max=500"`
}

type ObjectInput struct {
	Name string `form:"name" validate:"required,min=1,max=100"`
}

type CommentInput struct {
	Content string `form:"content" validate:"required,min=1,max=1000"`
}

// UserProfile is everything shown on a user's public page.
type UserProfile struct {
	User     *entity.User
	Posts    []entity.Post
	Comments []entity.Comment
}

func (s *ContentService) CreatePost(ctx context.Context, author *entity.User, in PostInput) (*entity.Post, error) {
	in.Title = strings.TrimSpace(in.Title)
	if err := checkForm(s.validate, in); err != nil {
		return nil, err
	}
	p := &entity.Post{PosterID: author.ID, PosterUsername: author.Username, Title: in.Title, Content: in.Content}
	if err := s.Content.CreatePost(ctx, p); err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}
	if s.Index != nil {
		if err := s.Index.IndexPost(ctx, *p); err != nil {
			s.Logger.WithError(err).WithField("post_id", p.ID).Warn("index post failed")
		}
	}
	return p, nil
}

// GetPost returns a post with its comments.
func (s *ContentService) GetPost(ctx context.Context, id string) (*entity.Post, []entity.Comment, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, nil, repo.ErrNotFound
	}
	p, err := s.Content.GetPost(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	comments, err := s.Content.ListComments(ctx, entity.TargetPost, p.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("list comments: %w", err)
	}
	return p, comments, nil
}

func (s *ContentService) CreateObject(ctx context.Context, in ObjectInput) (*entity.StellarObject, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := checkForm(s.validate, in); err != nil {
		return nil, err
	}
	o := &entity.StellarObject{Name: in.Name}
	if err := s.Content.CreateObject(ctx, o); err != nil {
		return nil, err
	}
	if s.Index != nil {
		if err := s.Index.IndexObject(ctx, *o); err != nil {
			s.Logger.WithError(err).WithField("object", o.Name).Warn("index object failed")
		}
	}
	return o, nil
}

// GetObject looks an object up by name in any letter case.
func (s *ContentService) GetObject(ctx context.Context, name string) (*entity.StellarObject, []entity.Comment, error) {
	o, err := s.Content.GetObjectByName(ctx, name)
	if err != nil {
		return nil, nil, err
	}
	comments, err := s.Content.ListComments(ctx, entity.TargetObject, o.Name)
	if err != nil {
		return nil, nil, fmt.Errorf("list comments: %w", err)
	}
	return o, comments, nil
}

// AddComment attaches a comment to an existing post or object.
func (s *ContentService) AddComment(ctx context.Context, author *entity.User, target entity.CommentTarget, key string, in CommentInput) (*entity.Comment, error) {
	if err := checkForm(s.validate, in); err != nil {
		return nil, err
	}
	switch target {
	case entity.TargetPost:
		if _, _, err := s.GetPost(ctx, key); err != nil {
			return nil, err
		}
	case entity.TargetObject:
		o, err := s.Content.GetObjectByName(ctx, key)
		if err != nil {
			return nil, err
		}
		key = o.Name
	default:
		return nil, fmt.Errorf("unknown comment target %q", target)
	}

	c := &entity.Comment{
		CommenterID:       author.ID,
		CommenterUsername: author.Username,
		Target:            target,
		TargetKey:         key,
		Content:           in.Content,
	}
	if err := s.Content.CreateComment(ctx, c); err != nil {
		return nil, fmt.Errorf("create comment: %w", err)
	}
	return c, nil
}

func (s *ContentService) PostsBy(ctx context.Context, username string) ([]entity.Post, error) {
	return s.Content.ListPostsByPoster(ctx, username)
}

func (s *ContentService) UserProfile(ctx context.Context, username string) (*UserProfile, error) {
	u, err := s.Users.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	posts, err := s.Content.ListPostsByPoster(ctx, u.Username)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	comments, err := s.Content.ListCommentsByCommenter(ctx, u.Username)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	return &UserProfile{User: u, Posts: posts, Comments: comments}, nil
}

// Search matches q case-insensitively against object names, post titles and
// usernames. The search index is preferred; the store answers when there is
// none or it fails.
func (s *ContentService) Search(ctx context.Context, q string) (*entity.SearchResults, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return &entity.SearchResults{}, nil
	}

	if s.Index != nil {
		res, err := s.Index.Search(ctx, q, searchLimit)
		if err == nil {
			res.Query = q
			return res, nil
		}
		s.Logger.WithError(err).WithField("query", q).Warn("search index failed, falling back to store")
	}

	objects, err := s.Content.SearchObjects(ctx, q, searchLimit)
	if err != nil {
		return nil, fmt.Errorf("search objects: %w", err)
	}
	posts, err := s.Content.SearchPosts(ctx, q, searchLimit)
	if err != nil {
		return nil, fmt.Errorf("search posts: %w", err)
	}
	users, err := s.Users.SearchByUsername(ctx, q, searchLimit)
	if err != nil {
		return nil, fmt.Errorf("search users: %w", err)
	}
	return &entity.SearchResults{Query: q, Objects: objects, Posts: posts, Users: users}, nil
}

// IsNotFound reports whether err means the requested record does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, repo.ErrNotFound)
}
