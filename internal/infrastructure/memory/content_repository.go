package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/oksasatya/skyport/internal/domain/entity"
	"github.com/oksasatya/skyport/internal/domain/repository"
)

type ContentRepository struct {
	mu       sync.RWMutex
	posts    []entity.Post
	objects  map[string]entity.StellarObject // keyed by lower-cased name
	comments []entity.Comment
	now      func() time.Time
}

func NewContentRepository() *ContentRepository {
	return &ContentRepository{
		objects: make(map[string]entity.StellarObject),
		now:     time.Now,
	}
}

func (r *ContentRepository) CreatePost(_ context.Context, p *entity.Post) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p.ID = uuid.NewString()
	p.CreatedAt = r.now().UTC()
	r.posts = append(r.posts, *p)
	return nil
}

func (r *ContentRepository) GetPost(_ context.Context, id string) (*entity.Post, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.posts {
		if p.ID == id {
			cp := p
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *ContentRepository) ListPostsByPoster(_ context.Context, username string) ([]entity.Post, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []entity.Post
	for _, p := range r.posts {
		if p.PosterUsername == username {
			out = append(out, p)
		}
	}
	sortPostsNewestFirst(out)
	return out, nil
}

func (r *ContentRepository) SearchPosts(_ context.Context, q string, limit int) ([]entity.Post, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	q = strings.ToLower(q)
	var out []entity.Post
	for _, p := range r.posts {
		if strings.Contains(strings.ToLower(p.Title), q) {
			out = append(out, p)
		}
	}
	sortPostsNewestFirst(out)
	return truncate(out, limit), nil
}

func (r *ContentRepository) CreateObject(_ context.Context, o *entity.StellarObject) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := strings.ToLower(o.Name)
	if _, ok := r.objects[key]; ok {
		return repository.ErrDuplicateObject
	}
	o.ID = uuid.NewString()
	o.CreatedAt = r.now().UTC()
	r.objects[key] = *o
	return nil
}

func (r *ContentRepository) GetObjectByName(_ context.Context, name string) (*entity.StellarObject, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	o, ok := r.objects[strings.ToLower(name)]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &o, nil
}

func (r *ContentRepository) SearchObjects(_ context.Context, q string, limit int) ([]entity.StellarObject, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	q = strings.ToLower(q)
	var out []entity.StellarObject
	for key, o := range r.objects {
		if strings.Contains(key, q) {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return truncate(out, limit), nil
}

func (r *ContentRepository) CreateComment(_ context.Context, c *entity.Comment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c.Target == entity.TargetObject {
		c.TargetKey = strings.ToLower(c.TargetKey)
	}
	c.ID = uuid.NewString()
	c.CreatedAt = r.now().UTC()
	r.comments = append(r.comments, *c)
	return nil
}

func (r *ContentRepository) ListComments(_ context.Context, target entity.CommentTarget, key string) ([]entity.Comment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if target == entity.TargetObject {
		key = strings.ToLower(key)
	}
	var out []entity.Comment
	for _, c := range r.comments {
		if c.Target == target && c.TargetKey == key {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *ContentRepository) ListCommentsByCommenter(_ context.Context, username string) ([]entity.Comment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []entity.Comment
	for i := len(r.comments) - 1; i >= 0; i-- {
		if r.comments[i].CommenterUsername == username {
			out = append(out, r.comments[i])
		}
	}
	return out, nil
}

func sortPostsNewestFirst(posts []entity.Post) {
	sort.SliceStable(posts, func(i, j int) bool { return posts[i].CreatedAt.After(posts[j].CreatedAt) })
}

func truncate[T any](s []T, limit int) []T {
	if limit > 0 && len(s) > limit {
		return s[:limit]
	}
	return s
}

var _ repository.ContentRepository = (*ContentRepository)(nil)
