package vectorstore

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/siherrmann/docqa/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeQdrant implements the subset of the Qdrant REST API used by QdrantStore
type fakeQdrant struct {
	mu          sync.Mutex
	collections map[string]int
	points      map[string]map[string]qdrantPoint
	upserts     int
	searches    int
}

func newFakeQdrant(t *testing.T) (*fakeQdrant, *httptest.Server) {
	f := &fakeQdrant{collections: map[string]int{}, points: map[string]map[string]qdrantPoint{}}
	srv := httptest.NewServer(http.HandlerFunc(f.handle))
	t.Cleanup(srv.Close)
	return f, srv
}

func (f *fakeQdrant) handle(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(parts) < 2 || parts[0] != "collections" {
		http.NotFound(w, r)
		return
	}
	name := parts[1]

	switch {
	case len(parts) == 2 && r.Method == http.MethodGet:
		dim, ok := f.collections[name]
		if !ok {
			http.Error(w, `{"status":{"error":"Not found"}}`, http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(`{"result":{"config":{"params":{"vectors":{"size":` + itoa(dim) + `,"distance":"Cosine"}}}}}`))

	case len(parts) == 2 && r.Method == http.MethodPut:
		var body struct {
			Vectors struct {
				Size int `json:"size"`
			} `json:"vectors"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.collections[name] = body.Vectors.Size
		f.points[name] = map[string]qdrantPoint{}
		_, _ = w.Write([]byte(`{"result":true}`))

	case len(parts) == 3 && parts[2] == "points" && r.Method == http.MethodPut:
		if r.URL.Query().Get("wait") != "true" {
			http.Error(w, "wait required", http.StatusBadRequest)
			return
		}
		var body qdrantUpsertRequest
		_ = json.NewDecoder(r.Body).Decode(&body)
		for _, p := range body.Points {
			f.points[name][p.ID] = p
		}
		f.upserts++
		_, _ = w.Write([]byte(`{"result":{"status":"completed"}}`))

	case len(parts) == 4 && parts[3] == "search" && r.Method == http.MethodPost:
		if _, ok := f.collections[name]; !ok {
			http.Error(w, `{"status":{"error":"Not found"}}`, http.StatusNotFound)
			return
		}
		f.searches++
		var body qdrantSearchRequest
		_ = json.NewDecoder(r.Body).Decode(&body)

		type hit struct {
			ID      string                 `json:"id"`
			Score   float64                `json:"score"`
			Payload map[string]interface{} `json:"payload"`
			Vector  []float32              `json:"vector"`
		}
		var hits []hit
		for id, p := range f.points[name] {
			hits = append(hits, hit{ID: id, Score: CosineSimilarity(body.Vector, p.Vector), Payload: p.Payload, Vector: p.Vector})
		}
		sort.Slice(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
		if len(hits) > body.Limit {
			hits = hits[:body.Limit]
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"result": hits})

	default:
		http.NotFound(w, r)
	}
}

func itoa(i int) string {
	b, _ := json.Marshal(i)
	return string(b)
}

func TestQdrantStore(t *testing.T) {
	ctx := context.Background()

	t.Run("Valid call Upsert and Query round trip", func(t *testing.T) {
		fake, srv := newFakeQdrant(t)
		store := NewQdrantStore(srv.URL, "", 0, nil)
		defer store.Close()

		err := store.Upsert(ctx, "my_docs", []model.Record{
			record("a.txt", 0, "the sky is blue", 1, 0),
			record("a.txt", 1, "grass is green", 0, 1),
		})
		require.NoError(t, err)
		assert.Equal(t, 2, fake.collections["my_docs"])
		assert.Len(t, fake.points["my_docs"], 2)

		results, err := store.Query(ctx, "my_docs", []float32{1, 0}, 1)
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, "the sky is blue", results[0].Record.Text)
		assert.Equal(t, model.RecordKey("a.txt", 0), results[0].Record.Key)
		assert.Equal(t, "a.txt", results[0].Record.Metadata.String(model.MetadataDocumentID))
		assert.NotContains(t, results[0].Record.Metadata, qdrantTextField)
	})

	t.Run("Re-upsert overwrites by key", func(t *testing.T) {
		fake, srv := newFakeQdrant(t)
		store := NewQdrantStore(srv.URL, "", 0, nil)

		require.NoError(t, store.Upsert(ctx, "docs", []model.Record{record("a", 0, "old", 1, 0)}))
		require.NoError(t, store.Upsert(ctx, "docs", []model.Record{record("a", 0, "new", 1, 0)}))

		assert.Len(t, fake.points["docs"], 1)
	})

	t.Run("Empty upsert does not create collection", func(t *testing.T) {
		fake, srv := newFakeQdrant(t)
		store := NewQdrantStore(srv.URL, "", 0, nil)

		require.NoError(t, store.Upsert(ctx, "docs", nil))
		assert.Empty(t, fake.collections)
	})

	t.Run("Error when collection was never populated", func(t *testing.T) {
		fake, srv := newFakeQdrant(t)
		store := NewQdrantStore(srv.URL, "", 0, nil)

		_, err := store.Query(ctx, "missing", []float32{1, 0}, 4)
		var notFound *model.CollectionNotFoundError
		require.ErrorAs(t, err, &notFound)
		assert.Equal(t, 0, fake.searches, "Expected no search for a missing collection")
	})

	t.Run("Error when dimension differs", func(t *testing.T) {
		_, srv := newFakeQdrant(t)
		store := NewQdrantStore(srv.URL, "", 0, nil)
		require.NoError(t, store.Upsert(ctx, "docs", []model.Record{record("a", 0, "x", 1, 0)}))

		err := store.Upsert(ctx, "docs", []model.Record{record("a", 1, "x", 1, 0, 0)})
		var mismatch *model.DimensionMismatchError
		assert.ErrorAs(t, err, &mismatch)

		_, err = store.Query(ctx, "docs", []float32{1, 0, 0}, 4)
		assert.ErrorAs(t, err, &mismatch)
	})

	t.Run("Existing collection dimension is read from the server", func(t *testing.T) {
		fake, srv := newFakeQdrant(t)
		fake.collections["docs"] = 3
		fake.points["docs"] = map[string]qdrantPoint{}
		store := NewQdrantStore(srv.URL, "", 0, nil)

		err := store.Upsert(ctx, "docs", []model.Record{record("a", 0, "x", 1, 0)})
		var mismatch *model.DimensionMismatchError
		require.ErrorAs(t, err, &mismatch)
		assert.Equal(t, 3, mismatch.Expected)
	})

	t.Run("Error when server fails", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		}))
		defer srv.Close()
		store := NewQdrantStore(srv.URL, "secret", 0, nil)

		_, err := store.Query(ctx, "docs", []float32{1}, 4)
		var storeErr *model.VectorStoreError
		require.ErrorAs(t, err, &storeErr)
		assert.Contains(t, err.Error(), "status 500")
	})

	t.Run("API key is sent", func(t *testing.T) {
		var gotKey string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotKey = r.Header.Get("api-key")
			http.NotFound(w, r)
		}))
		defer srv.Close()
		store := NewQdrantStore(srv.URL, "secret", 0, nil)

		_, _ = store.Query(ctx, "docs", []float32{1}, 4)
		assert.Equal(t, "secret", gotKey)
	})
}
