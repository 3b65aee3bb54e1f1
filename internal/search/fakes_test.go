package search

import (
	"context"
	"sort"
	"sync"
	"testing"

	"framework-search/internal/common/logger"
	"framework-search/internal/models"
	"framework-search/internal/search/queries"
	"framework-search/internal/store"

	"go.uber.org/zap/zaptest"
)

func createTestLogger(t *testing.T) logger.Logger {
	return logger.NewZapAdapter(zaptest.NewLogger(t))
}

func int64Ptr(v int64) *int64 { return &v }

func strPtr(s string) *string { return &s }

func intPtr(v int) *int { return &v }

func datePtr(d models.Date) *models.Date { return &d }

// fakeStore is an in-memory Store.
type fakeStore struct {
	values     map[string]*models.FrameworkValue
	followed   map[string]int64
	frameworks map[int64]*models.Framework
	err        error

	fetched [][]int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		values:     map[string]*models.FrameworkValue{},
		followed:   map[string]int64{},
		frameworks: map[int64]*models.Framework{},
	}
}

func (f *fakeStore) FrameworkValueExists(_ context.Context, value string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	_, ok := f.values[value]
	return ok, nil
}

func (f *fakeStore) GetFrameworkValue(_ context.Context, value string) (*models.FrameworkValue, error) {
	if f.err != nil {
		return nil, f.err
	}
	fv, ok := f.values[value]
	if !ok {
		return nil, store.ErrNotFound
	}
	return fv, nil
}

func (f *fakeStore) PreferenceNames(_ context.Context, _ int64) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	names := make([]string, 0, len(f.followed))
	for name := range f.followed {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (f *fakeStore) PreferredFrameworkIDs(_ context.Context, _ int64, names []string) ([]int64, error) {
	if f.err != nil {
		return nil, f.err
	}
	ids := []int64{}
	for _, name := range names {
		if id, ok := f.followed[name]; ok {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (f *fakeStore) GetFrameworks(_ context.Context, ids []int64) (map[int64]*models.Framework, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.fetched = append(f.fetched, ids)
	out := map[int64]*models.Framework{}
	for _, id := range ids {
		if fw, ok := f.frameworks[id]; ok {
			out[id] = fw
		}
	}
	return out, nil
}

// fakeExecutor records the bodies it receives.
type fakeExecutor struct {
	res    *Response
	err    error
	bodies []queries.Body
}

func (f *fakeExecutor) Search(_ context.Context, body queries.Body) (*Response, error) {
	f.bodies = append(f.bodies, body)
	if f.err != nil {
		return nil, f.err
	}
	if f.res == nil {
		return &Response{}, nil
	}
	return f.res, nil
}

type fakeRecorder struct {
	mu    sync.Mutex
	calls [][]int64
}

func (f *fakeRecorder) RecordSearch(_ context.Context, _ int64, ids []int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, ids)
}

func hitFor(id int64, name, number string) Hit {
	return Hit{
		Source: Document{
			ID:          id,
			Name:        name,
			Number:      number,
			Description: name + " description",
			StartDate:   strPtr("2024-01-01"),
			EndDate:     strPtr("2026-01-01"),
		},
	}
}
