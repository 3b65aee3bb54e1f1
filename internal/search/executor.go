package search

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	apperrors "framework-search/internal/common/errors"
	"framework-search/internal/common/logger"
	"framework-search/internal/search/queries"
)

// Executor submits a search body to the index.
type Executor interface {
	Search(ctx context.Context, body queries.Body) (*Response, error)
}

// Response is the part of a _search response the mappers use.
type Response struct {
	Total int64
	Took  int64
	Hits  []Hit
}

type Hit struct {
	ID     string
	Score  float64
	Source Document
}

// Document is the indexed framework as returned in _source.
type Document struct {
	ID                 int64   `json:"id"`
	Name               string  `json:"name"`
	Number             string  `json:"number"`
	Description        string  `json:"description"`
	ValueNumber        *int64  `json:"value_number"`
	IndustryOrCategory *string `json:"industry_or_category"`
	SubCategory        *string `json:"sub_category"`
	StartDate          *string `json:"start_date"`
	EndDate            *string `json:"end_date"`
}

type searchResponse struct {
	Took int64 `json:"took"`
	Hits struct {
		Total struct {
			Value int64 `json:"value"`
		} `json:"total"`
		Hits []struct {
			ID     string   `json:"_id"`
			Score  *float64 `json:"_score"`
			Source Document `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

// ElasticsearchExecutor runs searches against one index. It never retries.
type ElasticsearchExecutor struct {
	client  *elasticsearch.Client
	index   string
	timeout time.Duration
	logger  logger.Logger
}

func NewElasticsearchExecutor(client *elasticsearch.Client, index string, timeout time.Duration, log logger.Logger) *ElasticsearchExecutor {
	return &ElasticsearchExecutor{
		client:  client,
		index:   index,
		timeout: timeout,
		logger:  log.WithFields(map[string]interface{}{"index": index}),
	}
}

func (e *ElasticsearchExecutor) Search(ctx context.Context, body queries.Body) (*Response, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode search body: %w", err)
	}

	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	req := esapi.SearchRequest{
		Index:          []string{e.index},
		Body:           bytes.NewReader(payload),
		TrackTotalHits: true,
	}

	res, err := req.Do(ctx, e.client)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, apperrors.NewSearchTimeoutError(e.index)
		}
		e.logger.Error("Search request failed", map[string]interface{}{"error": err})
		return nil, apperrors.NewIndexUnavailableError(err)
	}
	defer res.Body.Close()

	if res.IsError() {
		if res.StatusCode == http.StatusNotFound {
			return nil, apperrors.NewIndexNotFoundError(e.index)
		}
		detail, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		e.logger.Error("Search query rejected", map[string]interface{}{
			"status": res.StatusCode,
			"body":   string(detail),
		})
		return nil, apperrors.NewSearchQueryFailedError(e.index, fmt.Errorf("status %d: %s", res.StatusCode, detail))
	}

	var parsed searchResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, apperrors.NewSearchQueryFailedError(e.index, fmt.Errorf("decode response: %w", err))
	}

	out := &Response{
		Total: parsed.Hits.Total.Value,
		Took:  parsed.Took,
		Hits:  make([]Hit, 0, len(parsed.Hits.Hits)),
	}
	for _, h := range parsed.Hits.Hits {
		hit := Hit{ID: h.ID, Source: h.Source}
		if h.Score != nil {
			hit.Score = *h.Score
		}
		out.Hits = append(out.Hits, hit)
	}

	e.logger.Debug("Search executed", map[string]interface{}{
		"total": out.Total,
		"hits":  len(out.Hits),
		"took":  out.Took,
	})
	return out, nil
}
