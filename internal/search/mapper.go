package search

import (
	"context"
	"fmt"
	"strconv"

	apperrors "framework-search/internal/common/errors"
	"framework-search/internal/common/logger"
	"framework-search/internal/common/metrics"
	"framework-search/internal/models"
)

// FrameworkSource loads the relational rows behind index hits.
type FrameworkSource interface {
	GetFrameworks(ctx context.Context, ids []int64) (map[int64]*models.Framework, error)
}

// Item is one entry of a result page.
type Item interface {
	FrameworkID() int64
}

// ConsumerItem is a consumer search result.
type ConsumerItem struct {
	ID             int64   `json:"framework_id"`
	Name           string  `json:"framework_name"`
	Number         string  `json:"framework_number"`
	Value          string  `json:"framework_value"`
	IndustryType   *string `json:"industry_type"`
	SubCategory    *string `json:"sub_category"`
	Description    string  `json:"description"`
	StartDate      *string `json:"start_date"`
	EndDate        *string `json:"end_date"`
	FrameworkImage string  `json:"framework_image"`
}

// AdminItem is a staff search result.
type AdminItem struct {
	ID             int64   `json:"framework_id"`
	Name           string  `json:"framework_name"`
	Number         string  `json:"number"`
	StartDate      *string `json:"start_date"`
	FrameworkImage string  `json:"framework_image"`
}

type NameSuggestion struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type NumberSuggestion struct {
	ID     int64  `json:"id"`
	Number string `json:"number"`
}

func (i ConsumerItem) FrameworkID() int64     { return i.ID }
func (i AdminItem) FrameworkID() int64        { return i.ID }
func (s NameSuggestion) FrameworkID() int64   { return s.ID }
func (s NumberSuggestion) FrameworkID() int64 { return s.ID }

// Images resolves framework logos to absolute URLs.
type Images struct {
	BackendDomain    string
	MediaURL         string
	DefaultImagePath string
}

// URL returns the logo URL, or the default image when there is no logo.
func (im Images) URL(logo *string) string {
	if logo == nil || *logo == "" {
		return fmt.Sprintf(im.DefaultImagePath, im.BackendDomain)
	}
	return im.BackendDomain + im.MediaURL + *logo
}

// Mapper joins index hits with their relational rows.
type Mapper struct {
	source FrameworkSource
	images Images
	logger logger.Logger
}

func NewMapper(source FrameworkSource, images Images, log logger.Logger) *Mapper {
	return &Mapper{source: source, images: images, logger: log}
}

// rows fetches the frameworks behind the hits in one query.
func (m *Mapper) rows(ctx context.Context, hits []Hit) (map[int64]*models.Framework, error) {
	if len(hits) == 0 {
		return map[int64]*models.Framework{}, nil
	}
	ids := make([]int64, 0, len(hits))
	for _, h := range hits {
		ids = append(ids, hitID(h))
	}
	rows, err := m.source.GetFrameworks(ctx, ids)
	if err != nil {
		return nil, apperrors.NewQueryExecutionFailedError("get frameworks", err)
	}
	return rows, nil
}

// Consumer maps hits in order, skipping hits whose row is gone.
func (m *Mapper) Consumer(ctx context.Context, res *Response) ([]Item, error) {
	rows, err := m.rows(ctx, res.Hits)
	if err != nil {
		return nil, err
	}

	items := make([]Item, 0, len(res.Hits))
	for _, h := range res.Hits {
		fw, ok := rows[hitID(h)]
		if !ok {
			m.skip(KindFull, h)
			continue
		}
		items = append(items, ConsumerItem{
			ID:             h.Source.ID,
			Name:           h.Source.Name,
			Number:         h.Source.Number,
			Value:          fw.Value,
			IndustryType:   h.Source.IndustryOrCategory,
			SubCategory:    h.Source.SubCategory,
			Description:    h.Source.Description,
			StartDate:      h.Source.StartDate,
			EndDate:        h.Source.EndDate,
			FrameworkImage: m.images.URL(fw.Logo),
		})
	}
	return items, nil
}

// Admin maps hits in order, skipping hits whose row is gone.
func (m *Mapper) Admin(ctx context.Context, res *Response) ([]Item, error) {
	rows, err := m.rows(ctx, res.Hits)
	if err != nil {
		return nil, err
	}

	items := make([]Item, 0, len(res.Hits))
	for _, h := range res.Hits {
		fw, ok := rows[hitID(h)]
		if !ok {
			m.skip(KindAdmin, h)
			continue
		}
		items = append(items, AdminItem{
			ID:             h.Source.ID,
			Name:           h.Source.Name,
			Number:         h.Source.Number,
			StartDate:      h.Source.StartDate,
			FrameworkImage: m.images.URL(fw.Logo),
		})
	}
	return items, nil
}

func (m *Mapper) skip(kind Kind, h Hit) {
	metrics.SearchHitsSkipped.WithLabelValues(kind.String()).Inc()
	m.logger.Warn("Index hit has no framework row", map[string]interface{}{
		"kind":        kind.String(),
		"frameworkId": hitID(h),
	})
}

// Names maps suggestion hits straight from _source.
func Names(res *Response) []Item {
	items := make([]Item, 0, len(res.Hits))
	for _, h := range res.Hits {
		items = append(items, NameSuggestion{ID: h.Source.ID, Name: h.Source.Name})
	}
	return items
}

func Numbers(res *Response) []Item {
	items := make([]Item, 0, len(res.Hits))
	for _, h := range res.Hits {
		items = append(items, NumberSuggestion{ID: h.Source.ID, Number: h.Source.Number})
	}
	return items
}

// hitID prefers the id stored in _source and falls back to _id.
func hitID(h Hit) int64 {
	if h.Source.ID != 0 {
		return h.Source.ID
	}
	id, _ := strconv.ParseInt(h.ID, 10, 64)
	return id
}
