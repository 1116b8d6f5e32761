package vectorstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/siherrmann/docqa/model"
)

const qdrantTextField = "text"

// QdrantStore is a Store backed by the Qdrant REST API
type QdrantStore struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client

	log *slog.Logger

	mu         sync.Mutex
	dimensions map[string]int
}

var _ Store = (*QdrantStore)(nil)

// NewQdrantStore creates a store for the Qdrant instance at baseURL
func NewQdrantStore(baseURL string, apiKey string, timeout time.Duration, logger *slog.Logger) *QdrantStore {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &QdrantStore{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		APIKey:     apiKey,
		HTTPClient: &http.Client{Timeout: timeout},
		log:        logger,
		dimensions: make(map[string]int),
	}
}

type qdrantError struct {
	status int
	body   string
}

func (e *qdrantError) Error() string {
	return fmt.Sprintf("qdrant returned status %d: %s", e.status, e.body)
}

type qdrantCollectionInfo struct {
	Result struct {
		Config struct {
			Params struct {
				Vectors struct {
					Size int `json:"size"`
				} `json:"vectors"`
			} `json:"params"`
		} `json:"config"`
	} `json:"result"`
}

type qdrantPoint struct {
	ID      string                 `json:"id"`
	Vector  []float32              `json:"vector"`
	Payload map[string]interface{} `json:"payload"`
}

type qdrantUpsertRequest struct {
	Points []qdrantPoint `json:"points"`
}

type qdrantSearchRequest struct {
	Vector      []float32 `json:"vector"`
	Limit       int       `json:"limit"`
	WithPayload bool      `json:"with_payload"`
	WithVector  bool      `json:"with_vector"`
}

type qdrantSearchResponse struct {
	Result []struct {
		ID      interface{}            `json:"id"`
		Score   float64                `json:"score"`
		Payload map[string]interface{} `json:"payload"`
		Vector  []float32              `json:"vector"`
	} `json:"result"`
}

// Upsert creates the collection if needed and writes the points with wait=true
// so they are visible to the next query.
func (q *QdrantStore) Upsert(ctx context.Context, collection string, records []model.Record) error {
	if len(records) == 0 {
		return nil
	}

	dimension, err := q.dimension(ctx, collection)
	if err != nil && !model.IsNoContent(err) {
		return err
	}

	dimension, err = CheckDimensions(collection, dimension, records)
	if err != nil {
		return err
	}

	if err := q.ensureCollection(ctx, collection, dimension); err != nil {
		return err
	}

	points := make([]qdrantPoint, len(records))
	for i, r := range records {
		payload := make(map[string]interface{}, len(r.Metadata)+1)
		for k, v := range r.Metadata {
			payload[k] = v
		}
		payload[qdrantTextField] = r.Text
		points[i] = qdrantPoint{ID: r.Key.String(), Vector: r.Embedding, Payload: payload}
	}

	path := fmt.Sprintf("/collections/%s/points?wait=true", url.PathEscape(collection))
	if err := q.do(ctx, http.MethodPut, path, qdrantUpsertRequest{Points: points}, nil); err != nil {
		return &model.VectorStoreError{Op: "upsert", Collection: collection, Err: err}
	}

	q.log.Debug("Upserted points", slog.String("collection", collection), slog.Int("count", len(points)))

	return nil
}

// Query searches the collection for the k nearest points
func (q *QdrantStore) Query(ctx context.Context, collection string, vector []float32, k int) ([]*model.RetrievalResult, error) {
	dimension, err := q.dimension(ctx, collection)
	if err != nil {
		return nil, err
	}
	if len(vector) != dimension {
		return nil, &model.DimensionMismatchError{Collection: collection, Expected: dimension, Actual: len(vector)}
	}
	if k <= 0 {
		return []*model.RetrievalResult{}, nil
	}

	var resp qdrantSearchResponse
	path := fmt.Sprintf("/collections/%s/points/search", url.PathEscape(collection))
	req := qdrantSearchRequest{Vector: vector, Limit: k, WithPayload: true, WithVector: true}
	if err := q.do(ctx, http.MethodPost, path, req, &resp); err != nil {
		if isStatus(err, http.StatusNotFound) {
			q.forget(collection)
			return nil, &model.CollectionNotFoundError{Collection: collection}
		}
		return nil, &model.VectorStoreError{Op: "query", Collection: collection, Err: err}
	}

	results := make([]*model.RetrievalResult, 0, len(resp.Result))
	for _, point := range resp.Result {
		metadata := model.Metadata{}
		text := ""
		for k, v := range point.Payload {
			if k == qdrantTextField {
				text, _ = v.(string)
				continue
			}
			metadata[k] = v
		}

		key, err := uuid.Parse(fmt.Sprintf("%v", point.ID))
		if err != nil {
			return nil, &model.VectorStoreError{Op: "query", Collection: collection, Err: fmt.Errorf("invalid point id %v: %w", point.ID, err)}
		}

		results = append(results, &model.RetrievalResult{
			Record: &model.Record{Key: key, Text: text, Embedding: point.Vector, Metadata: metadata},
			Score:  point.Score,
		})
	}

	return results, nil
}

// Close releases idle connections
func (q *QdrantStore) Close() error {
	q.HTTPClient.CloseIdleConnections()
	return nil
}

// dimension returns the vector size of a collection, cached after the first lookup
func (q *QdrantStore) dimension(ctx context.Context, collection string) (int, error) {
	q.mu.Lock()
	dim, ok := q.dimensions[collection]
	q.mu.Unlock()
	if ok {
		return dim, nil
	}

	var info qdrantCollectionInfo
	err := q.do(ctx, http.MethodGet, "/collections/"+url.PathEscape(collection), nil, &info)
	if err != nil {
		if isStatus(err, http.StatusNotFound) {
			return 0, &model.CollectionNotFoundError{Collection: collection}
		}
		return 0, &model.VectorStoreError{Op: "describe collection", Collection: collection, Err: err}
	}

	dim = info.Result.Config.Params.Vectors.Size
	q.mu.Lock()
	q.dimensions[collection] = dim
	q.mu.Unlock()

	return dim, nil
}

func (q *QdrantStore) ensureCollection(ctx context.Context, collection string, dimension int) error {
	q.mu.Lock()
	_, ok := q.dimensions[collection]
	q.mu.Unlock()
	if ok {
		return nil
	}

	body := map[string]interface{}{
		"vectors": map[string]interface{}{
			"size":     dimension,
			"distance": "Cosine",
		},
	}
	err := q.do(ctx, http.MethodPut, "/collections/"+url.PathEscape(collection), body, nil)
	// A concurrent writer may have created it first
	if err != nil && !isStatus(err, http.StatusConflict) {
		return &model.VectorStoreError{Op: "create collection", Collection: collection, Err: err}
	}

	q.mu.Lock()
	q.dimensions[collection] = dimension
	q.mu.Unlock()

	q.log.Info("Created qdrant collection", slog.String("collection", collection), slog.Int("dimension", dimension))

	return nil
}

func (q *QdrantStore) forget(collection string) {
	q.mu.Lock()
	delete(q.dimensions, collection)
	q.mu.Unlock()
}

func (q *QdrantStore) do(ctx context.Context, method string, path string, body interface{}, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, q.BaseURL+path, reader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if q.APIKey != "" {
		req.Header.Set("api-key", q.APIKey)
	}

	resp, err := q.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("qdrant request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return &qdrantError{status: resp.StatusCode, body: string(respBody)}
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("parsing response: %w", err)
		}
	}

	return nil
}

func isStatus(err error, status int) bool {
	qe, ok := err.(*qdrantError)
	return ok && qe.status == status
}
