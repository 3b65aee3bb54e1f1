package indexer

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"framework-search/internal/common/logger"
	"framework-search/internal/models"
)

type fakeSource struct {
	docs  []models.IndexedFramework
	err   error
	calls []int64
}

func (f *fakeSource) ListIndexDocuments(_ context.Context, afterID int64, limit int) ([]models.IndexedFramework, error) {
	f.calls = append(f.calls, afterID)
	if f.err != nil {
		return nil, f.err
	}
	var out []models.IndexedFramework
	for _, doc := range f.docs {
		if doc.ID > afterID && len(out) < limit {
			out = append(out, doc)
		}
	}
	return out, nil
}

type fakeInvalidator struct {
	calls int
}

func (f *fakeInvalidator) Invalidate(context.Context) error {
	f.calls++
	return nil
}

// fakeElastic records requests and answers the index APIs the indexer uses.
type fakeElastic struct {
	mu       sync.Mutex
	exists   bool
	requests []string
	mapping  map[string]interface{}
	indexed  []string
	failIDs  map[string]bool
}

func (f *fakeElastic) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()

		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		f.requests = append(f.requests, r.Method+" "+r.URL.Path)

		switch {
		case r.Method == http.MethodHead && r.URL.Path == "/frameworks":
			if !f.exists {
				w.WriteHeader(http.StatusNotFound)
			}
		case r.Method == http.MethodPut && r.URL.Path == "/frameworks":
			require.NoError(t, json.NewDecoder(r.Body).Decode(&f.mapping))
			f.exists = true
			_, _ = w.Write([]byte(`{"acknowledged":true}`))
		case r.Method == http.MethodDelete && r.URL.Path == "/frameworks":
			if !f.exists {
				w.WriteHeader(http.StatusNotFound)
				_, _ = w.Write([]byte(`{"error":{"type":"index_not_found_exception"},"status":404}`))
				return
			}
			f.exists = false
			_, _ = w.Write([]byte(`{"acknowledged":true}`))
		case strings.HasSuffix(r.URL.Path, "/_bulk"):
			f.bulk(t, w, r.Body)
		case strings.HasSuffix(r.URL.Path, "/_refresh"):
			_, _ = w.Write([]byte(`{"_shards":{"total":1,"successful":1,"failed":0}}`))
		default:
			w.WriteHeader(http.StatusBadRequest)
		}
	}
}

func (f *fakeElastic) bulk(t *testing.T, w http.ResponseWriter, body io.Reader) {
	var items []string
	scanner := bufio.NewScanner(body)
	for scanner.Scan() {
		var action map[string]struct {
			ID string `json:"_id"`
		}
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &action))
		id := action["index"].ID
		scanner.Scan()

		if f.failIDs[id] {
			items = append(items, fmt.Sprintf(`{"index":{"_id":%q,"status":400,"error":{"type":"mapper_parsing_exception","reason":"bad date"}}}`, id))
			continue
		}
		f.indexed = append(f.indexed, id)
		items = append(items, fmt.Sprintf(`{"index":{"_id":%q,"status":201,"result":"created"}}`, id))
	}
	_, _ = fmt.Fprintf(w, `{"took":1,"errors":false,"items":[%s]}`, strings.Join(items, ","))
}

func newTestIndexer(t *testing.T, es *fakeElastic, src DocumentSource, inv CacheInvalidator) *Indexer {
	t.Helper()
	server := httptest.NewServer(es.handler(t))
	t.Cleanup(server.Close)

	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses:    []string{server.URL},
		DisableRetry: true,
	})
	require.NoError(t, err)

	return New(Options{
		Client:      client,
		Index:       "frameworks",
		Source:      src,
		Invalidator: inv,
		Logger:      logger.NewTestLogger(t),
		BatchSize:   2,
	})
}

func docs(n int) []models.IndexedFramework {
	out := make([]models.IndexedFramework, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, models.IndexedFramework{
			ID:   int64(i),
			Name: fmt.Sprintf("Framework %d", i),
			Cpvs: []models.IndexCpv{{Code: 72000000 + i}},
		})
	}
	return out
}

func TestCreate(t *testing.T) {
	es := &fakeElastic{}
	idx := newTestIndexer(t, es, &fakeSource{}, nil)

	require.NoError(t, idx.Create(context.Background()))
	assert.Equal(t, []string{"HEAD /frameworks", "PUT /frameworks"}, es.requests)

	props := es.mapping["mappings"].(map[string]interface{})["properties"].(map[string]interface{})
	name := props["name"].(map[string]interface{})
	assert.Equal(t, "text", name["type"])
	assert.Contains(t, name["fields"], "search_as_you_type")
	assert.Equal(t, "nested", props["cpvs"].(map[string]interface{})["type"])

	// A second create leaves the existing index alone.
	require.NoError(t, idx.Create(context.Background()))
	assert.Equal(t, "HEAD /frameworks", es.requests[len(es.requests)-1])
}

func TestDelete_MissingIndexIsNotAnError(t *testing.T) {
	es := &fakeElastic{}
	idx := newTestIndexer(t, es, &fakeSource{}, nil)

	require.NoError(t, idx.Delete(context.Background()))
}

func TestRecreate(t *testing.T) {
	es := &fakeElastic{exists: true}
	idx := newTestIndexer(t, es, &fakeSource{}, nil)

	require.NoError(t, idx.Recreate(context.Background()))
	assert.Equal(t, []string{"DELETE /frameworks", "HEAD /frameworks", "PUT /frameworks"}, es.requests)
	assert.True(t, es.exists)
}

func TestSync(t *testing.T) {
	es := &fakeElastic{exists: true}
	src := &fakeSource{docs: docs(5)}
	inv := &fakeInvalidator{}
	idx := newTestIndexer(t, es, src, inv)

	stats, err := idx.Sync(context.Background())
	require.NoError(t, err)

	assert.Equal(t, uint64(5), stats.Read)
	assert.Equal(t, uint64(5), stats.Indexed)
	assert.Zero(t, stats.Failed)
	assert.ElementsMatch(t, []string{"1", "2", "3", "4", "5"}, es.indexed)
	assert.Equal(t, []int64{0, 2, 4, 5}, src.calls)
	assert.Equal(t, 1, inv.calls)
	assert.Contains(t, es.requests, "POST /frameworks/_refresh")
}

func TestSync_ReportsFailedDocuments(t *testing.T) {
	es := &fakeElastic{exists: true, failIDs: map[string]bool{"2": true}}
	idx := newTestIndexer(t, es, &fakeSource{docs: docs(3)}, nil)

	stats, err := idx.Sync(context.Background())
	require.Error(t, err)
	assert.Equal(t, uint64(2), stats.Indexed)
	assert.Equal(t, uint64(1), stats.Failed)
}

func TestSync_SourceError(t *testing.T) {
	es := &fakeElastic{exists: true}
	inv := &fakeInvalidator{}
	idx := newTestIndexer(t, es, &fakeSource{err: errors.New("db down")}, inv)

	_, err := idx.Sync(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db down")
	assert.Zero(t, inv.calls)
}
