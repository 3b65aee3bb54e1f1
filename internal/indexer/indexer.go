// Package indexer manages the framework search index: it creates and drops
// the index and bulk-loads it from PostgreSQL.
package indexer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/elastic/go-elasticsearch/v8/esutil"

	"framework-search/internal/common/logger"
	"framework-search/internal/common/metrics"
	"framework-search/internal/models"
)

const (
	defaultBatchSize  = 500
	defaultFlushBytes = 5 << 20
)

// DocumentSource pages through the frameworks to index.
type DocumentSource interface {
	ListIndexDocuments(ctx context.Context, afterID int64, limit int) ([]models.IndexedFramework, error)
}

// CacheInvalidator drops data derived from the framework table.
type CacheInvalidator interface {
	Invalidate(ctx context.Context) error
}

type Options struct {
	Client      *elasticsearch.Client
	Index       string
	Source      DocumentSource
	Invalidator CacheInvalidator
	Logger      logger.Logger
	BatchSize   int
	Workers     int
	FlushBytes  int
}

type Indexer struct {
	client      *elasticsearch.Client
	index       string
	source      DocumentSource
	invalidator CacheInvalidator
	logger      logger.Logger
	batchSize   int
	workers     int
	flushBytes  int
}

// SyncStats summarises one Sync run.
type SyncStats struct {
	Read     uint64
	Indexed  uint64
	Failed   uint64
	Duration time.Duration
}

func New(opts Options) *Indexer {
	idx := &Indexer{
		client:      opts.Client,
		index:       opts.Index,
		source:      opts.Source,
		invalidator: opts.Invalidator,
		logger:      opts.Logger,
		batchSize:   opts.BatchSize,
		workers:     opts.Workers,
		flushBytes:  opts.FlushBytes,
	}
	if idx.batchSize <= 0 {
		idx.batchSize = defaultBatchSize
	}
	if idx.workers <= 0 {
		idx.workers = 1
	}
	if idx.flushBytes <= 0 {
		idx.flushBytes = defaultFlushBytes
	}
	if idx.logger == nil {
		idx.logger = logger.NewNoOpLogger()
	}
	return idx
}

// Exists reports whether the index is present.
func (i *Indexer) Exists(ctx context.Context) (bool, error) {
	res, err := esapi.IndicesExistsRequest{Index: []string{i.index}}.Do(ctx, i.client)
	if err != nil {
		return false, fmt.Errorf("check index %s: %w", i.index, err)
	}
	defer res.Body.Close()

	switch res.StatusCode {
	case http.StatusOK:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	default:
		return false, fmt.Errorf("check index %s: %s", i.index, res.Status())
	}
}

// Create creates the index with its mapping. An existing index is left as is.
func (i *Indexer) Create(ctx context.Context) error {
	exists, err := i.Exists(ctx)
	if err != nil {
		return err
	}
	if exists {
		i.logger.Info("Index already exists", map[string]interface{}{"index": i.index})
		return nil
	}

	body, err := json.Marshal(frameworkIndexBody())
	if err != nil {
		return fmt.Errorf("encode index mapping: %w", err)
	}

	res, err := esapi.IndicesCreateRequest{
		Index: i.index,
		Body:  bytes.NewReader(body),
	}.Do(ctx, i.client)
	if err != nil {
		return fmt.Errorf("create index %s: %w", i.index, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("create index %s: %s", i.index, res.String())
	}

	i.logger.Info("Index created", map[string]interface{}{"index": i.index})
	return nil
}

// Delete drops the index. A missing index is not an error.
func (i *Indexer) Delete(ctx context.Context) error {
	res, err := esapi.IndicesDeleteRequest{Index: []string{i.index}}.Do(ctx, i.client)
	if err != nil {
		return fmt.Errorf("delete index %s: %w", i.index, err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		i.logger.Warn("Index does not exist", map[string]interface{}{"index": i.index})
		return nil
	}
	if res.IsError() {
		return fmt.Errorf("delete index %s: %s", i.index, res.String())
	}

	i.logger.Info("Index deleted", map[string]interface{}{"index": i.index})
	return nil
}

// Recreate drops and creates the index.
func (i *Indexer) Recreate(ctx context.Context) error {
	if err := i.Delete(ctx); err != nil {
		return err
	}
	return i.Create(ctx)
}

// Sync indexes every framework, keyed by id, then refreshes the index and
// invalidates the form data cache.
func (i *Indexer) Sync(ctx context.Context) (SyncStats, error) {
	start := time.Now()
	var stats SyncStats

	bi, err := esutil.NewBulkIndexer(esutil.BulkIndexerConfig{
		Client:     i.client,
		Index:      i.index,
		NumWorkers: i.workers,
		FlushBytes: i.flushBytes,
		OnError: func(_ context.Context, err error) {
			i.logger.Error("Bulk indexer error", map[string]interface{}{"index": i.index, "error": err})
		},
	})
	if err != nil {
		return stats, fmt.Errorf("create bulk indexer: %w", err)
	}

	var afterID int64
	for {
		docs, err := i.source.ListIndexDocuments(ctx, afterID, i.batchSize)
		if err != nil {
			_ = bi.Close(ctx)
			return stats, fmt.Errorf("read frameworks after %d: %w", afterID, err)
		}
		if len(docs) == 0 {
			break
		}

		for _, doc := range docs {
			if err := i.add(ctx, bi, doc); err != nil {
				_ = bi.Close(ctx)
				return stats, err
			}
			stats.Read++
		}
		afterID = docs[len(docs)-1].ID
	}

	if err := bi.Close(ctx); err != nil {
		return stats, fmt.Errorf("flush bulk indexer: %w", err)
	}

	biStats := bi.Stats()
	stats.Indexed = biStats.NumIndexed + biStats.NumCreated + biStats.NumUpdated
	stats.Failed = biStats.NumFailed
	stats.Duration = time.Since(start)
	metrics.IndexedDocuments.WithLabelValues("indexed").Add(float64(stats.Indexed))
	metrics.IndexedDocuments.WithLabelValues("failed").Add(float64(stats.Failed))

	if err := i.refresh(ctx); err != nil {
		return stats, err
	}

	if i.invalidator != nil {
		if err := i.invalidator.Invalidate(ctx); err != nil {
			i.logger.Warn("Failed to invalidate form data cache", map[string]interface{}{"error": err})
		}
	}

	i.logger.Info("Index sync completed", map[string]interface{}{
		"index":      i.index,
		"read":       stats.Read,
		"indexed":    stats.Indexed,
		"failed":     stats.Failed,
		"durationMs": stats.Duration.Milliseconds(),
	})

	if stats.Failed > 0 {
		return stats, fmt.Errorf("%d of %d documents failed to index", stats.Failed, stats.Read)
	}
	return stats, nil
}

func (i *Indexer) add(ctx context.Context, bi esutil.BulkIndexer, doc models.IndexedFramework) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode framework %d: %w", doc.ID, err)
	}

	return bi.Add(ctx, esutil.BulkIndexerItem{
		Action:     "index",
		DocumentID: strconv.FormatInt(doc.ID, 10),
		Body:       bytes.NewReader(body),
		OnFailure: func(_ context.Context, item esutil.BulkIndexerItem, res esutil.BulkIndexerResponseItem, err error) {
			fields := map[string]interface{}{"frameworkId": item.DocumentID}
			if err != nil {
				fields["error"] = err
			} else {
				fields["error"] = res.Error.Type + ": " + res.Error.Reason
			}
			i.logger.Warn("Failed to index framework", fields)
		},
	})
}

func (i *Indexer) refresh(ctx context.Context) error {
	res, err := esapi.IndicesRefreshRequest{Index: []string{i.index}}.Do(ctx, i.client)
	if err != nil {
		return fmt.Errorf("refresh index %s: %w", i.index, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("refresh index %s: %s", i.index, res.String())
	}
	return nil
}
