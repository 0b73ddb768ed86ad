// Package elasticsearch keeps users, posts and stellar objects searchable in
// Elasticsearch when SEARCH_BACKEND=elasticsearch.
package elasticsearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/oksasatya/skyport/internal/domain/entity"
)

const requestTimeout = 3 * time.Second

type SearchIndex struct {
	ES      *elasticsearch.Client
	Users   string
	Posts   string
	Objects string
}

// NewSearchIndex names the three indices "<prefix>-users", "<prefix>-posts"
// and "<prefix>-objects".
func NewSearchIndex(es *elasticsearch.Client, prefix string) *SearchIndex {
	return &SearchIndex{
		ES:      es,
		Users:   prefix + "-users",
		Posts:   prefix + "-posts",
		Objects: prefix + "-objects",
	}
}

var mappings = map[string]string{
	"users":   `{"mappings":{"properties":{"id":{"type":"keyword"},"username":{"type":"keyword"},"created_at":{"type":"date"}}}}`,
	"posts":   `{"mappings":{"properties":{"id":{"type":"keyword"},"poster_id":{"type":"keyword"},"poster_username":{"type":"keyword"},"title":{"type":"keyword"},"content":{"type":"text"},"created_at":{"type":"date"}}}}`,
	"objects": `{"mappings":{"properties":{"id":{"type":"keyword"},"name":{"type":"keyword"},"created_at":{"type":"date"}}}}`,
}

// EnsureIndices creates any missing index with a keyword mapping for the
// searched fields.
func (s *SearchIndex) EnsureIndices(ctx context.Context) error {
	for kind, index := range map[string]string{"users": s.Users, "posts": s.Posts, "objects": s.Objects} {
		c, cancel := context.WithTimeout(ctx, requestTimeout)
		res, err := s.ES.Indices.Exists([]string{index}, s.ES.Indices.Exists.WithContext(c))
		if err != nil {
			cancel()
			return fmt.Errorf("check index %s: %w", index, err)
		}
		_ = res.Body.Close()
		if res.StatusCode == 200 {
			cancel()
			continue
		}
		res, err = s.ES.Indices.Create(index,
			s.ES.Indices.Create.WithContext(c),
			s.ES.Indices.Create.WithBody(strings.NewReader(mappings[kind])),
		)
		cancel()
		if err != nil {
			return fmt.Errorf("create index %s: %w", index, err)
		}
		_ = res.Body.Close()
		if res.IsError() && res.StatusCode != 400 { // 400: created concurrently
			return fmt.Errorf("create index %s: %s", index, res.Status())
		}
	}
	return nil
}

type userDoc struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
}

type postDoc struct {
	ID             string    `json:"id"`
	PosterID       string    `json:"poster_id"`
	PosterUsername string    `json:"poster_username"`
	Title          string    `json:"title"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"created_at"`
}

type objectDoc struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

func (s *SearchIndex) IndexUser(ctx context.Context, u entity.User) error {
	return s.index(ctx, s.Users, u.ID, userDoc{ID: u.ID, Username: u.Username, CreatedAt: u.CreatedAt})
}

func (s *SearchIndex) IndexPost(ctx context.Context, p entity.Post) error {
	return s.index(ctx, s.Posts, p.ID, postDoc{
		ID: p.ID, PosterID: p.PosterID, PosterUsername: p.PosterUsername,
		Title: p.Title, Content: p.Content, CreatedAt: p.CreatedAt,
	})
}

func (s *SearchIndex) IndexObject(ctx context.Context, o entity.StellarObject) error {
	return s.index(ctx, s.Objects, o.ID, objectDoc{ID: o.ID, Name: o.Name, CreatedAt: o.CreatedAt})
}

func (s *SearchIndex) index(ctx context.Context, index, id string, doc any) error {
	b, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	req := esapi.IndexRequest{Index: index, DocumentID: id, Body: bytes.NewReader(b), Refresh: "wait_for"}
	c, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()
	res, err := req.Do(c, s.ES)
	if err != nil {
		return fmt.Errorf("index %s/%s: %w", index, id, err)
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() {
		return fmt.Errorf("index %s/%s: %s", index, id, res.Status())
	}
	return nil
}

// Search runs a case-insensitive substring match on each collection's name field.
func (s *SearchIndex) Search(ctx context.Context, q string, limit int) (*entity.SearchResults, error) {
	res := &entity.SearchResults{Query: q}

	var objects []objectDoc
	if err := s.search(ctx, s.Objects, "name", q, limit, &objects); err != nil {
		return nil, err
	}
	for _, d := range objects {
		res.Objects = append(res.Objects, entity.StellarObject{ID: d.ID, Name: d.Name, CreatedAt: d.CreatedAt})
	}

	var posts []postDoc
	if err := s.search(ctx, s.Posts, "title", q, limit, &posts); err != nil {
		return nil, err
	}
	for _, d := range posts {
		res.Posts = append(res.Posts, entity.Post{
			ID: d.ID, PosterID: d.PosterID, PosterUsername: d.PosterUsername,
			Title: d.Title, Content: d.Content, CreatedAt: d.CreatedAt,
		})
	}

	var users []userDoc
	if err := s.search(ctx, s.Users, "username", q, limit, &users); err != nil {
		return nil, err
	}
	for _, d := range users {
		res.Users = append(res.Users, entity.User{ID: d.ID, Username: d.Username, CreatedAt: d.CreatedAt})
	}
	return res, nil
}

// search decodes the _source of every hit into out, which must point to a slice.
func (s *SearchIndex) search(ctx context.Context, index, field, q string, limit int, out any) error {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	query := map[string]any{
		"query": map[string]any{
			"wildcard": map[string]any{
				field: map[string]any{
					"value":            "*" + escapeWildcard(q) + "*",
					"case_insensitive": true,
				},
			},
		},
		"size": limit,
	}
	b, _ := json.Marshal(query)

	c, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	res, err := s.ES.Search(
		s.ES.Search.WithContext(c),
		s.ES.Search.WithIndex(index),
		s.ES.Search.WithBody(bytes.NewReader(b)),
	)
	if err != nil {
		return fmt.Errorf("search %s: %w", index, err)
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		return fmt.Errorf("search %s: %s %s", index, res.Status(), body)
	}

	var parsed struct {
		Hits struct {
			Hits []struct {
				Source json.RawMessage `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return fmt.Errorf("decode %s hits: %w", index, err)
	}

	sources := make([]json.RawMessage, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		sources = append(sources, h.Source)
	}
	raw, err := json.Marshal(sources)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}

// escapeWildcard makes q match literally inside a wildcard pattern.
func escapeWildcard(q string) string {
	r := strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`)
	return r.Replace(q)
}
