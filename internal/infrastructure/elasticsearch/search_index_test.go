package elasticsearch

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/skyport/internal/domain/entity"
)

type recorded struct {
	Method string
	Path   string
	Body   string
}

type fakeES struct {
	mu       sync.Mutex
	requests []recorded
	hits     map[string][]map[string]any // index -> sources
}

func (f *fakeES) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	f.mu.Lock()
	f.requests = append(f.requests, recorded{Method: r.Method, Path: r.URL.Path, Body: string(body)})
	f.mu.Unlock()

	w.Header().Set("X-Elastic-Product", "Elasticsearch")
	w.Header().Set("Content-Type", "application/json")

	switch {
	case strings.HasSuffix(r.URL.Path, "/_search"):
		index := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/"), "/_search")
		var hits []map[string]any
		for _, src := range f.hits[index] {
			hits = append(hits, map[string]any{"_source": src})
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"hits": map[string]any{"hits": hits}})
	case strings.Contains(r.URL.Path, "/_doc/"):
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"result":"created"}`))
	default:
		_, _ = w.Write([]byte(`{}`))
	}
}

func (f *fakeES) find(path string) (recorded, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.requests {
		if r.Path == path {
			return r, true
		}
	}
	return recorded{}, false
}

func newTestIndex(t *testing.T, f *fakeES) *SearchIndex {
	t.Helper()
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)
	es, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{srv.URL}})
	require.NoError(t, err)
	return NewSearchIndex(es, "skyport")
}

func TestSearchIndex_IndexDocuments(t *testing.T) {
	f := &fakeES{}
	idx := newTestIndex(t, f)
	ctx := context.Background()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, idx.IndexUser(ctx, entity.User{ID: "u-1", Username: "alice", Email: "alice@example.com", PasswordHash: "secret", CreatedAt: now}))
	require.NoError(t, idx.IndexObject(ctx, entity.StellarObject{ID: "o-1", Name: "Andromeda", CreatedAt: now}))

	req, ok := f.find("/skyport-users/_doc/u-1")
	require.True(t, ok)
	assert.Equal(t, http.MethodPut, req.Method)
	assert.Contains(t, req.Body, `"username":"alice"`)
	assert.NotContains(t, req.Body, "secret")
	assert.NotContains(t, req.Body, "alice@example.com")

	_, ok = f.find("/skyport-objects/_doc/o-1")
	assert.True(t, ok)
}

func TestSearchIndex_Search(t *testing.T) {
	f := &fakeES{hits: map[string][]map[string]any{
		"skyport-objects": {{"id": "o-1", "name": "Crab Nebula", "created_at": "2024-05-01T12:00:00Z"}},
		"skyport-posts":   {{"id": "p-1", "poster_username": "alice", "title": "Nebula night", "content": "wow", "created_at": "2024-05-01T12:00:00Z"}},
	}}
	idx := newTestIndex(t, f)

	res, err := idx.Search(context.Background(), "nebula", 10)
	require.NoError(t, err)
	require.Len(t, res.Objects, 1)
	assert.Equal(t, "Crab Nebula", res.Objects[0].Name)
	require.Len(t, res.Posts, 1)
	assert.Equal(t, "alice", res.Posts[0].PosterUsername)
	assert.Empty(t, res.Users)

	req, ok := f.find("/skyport-objects/_search")
	require.True(t, ok)
	var body map[string]any
	require.NoError(t, json.Unmarshal([]byte(req.Body), &body))
	wc := body["query"].(map[string]any)["wildcard"].(map[string]any)["name"].(map[string]any)
	assert.Equal(t, "*nebula*", wc["value"])
	assert.Equal(t, true, wc["case_insensitive"])
	assert.EqualValues(t, 10, body["size"])
}

func TestEscapeWildcard(t *testing.T) {
	assert.Equal(t, `a\*b\?c\\d`, escapeWildcard(`a*b?c\d`))
	assert.Equal(t, "moon", escapeWildcard("moon"))
}
