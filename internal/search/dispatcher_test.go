package search

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "framework-search/internal/common/errors"
	"framework-search/internal/models"
)

var testImages = Images{
	BackendDomain:    "https://api.example.com",
	MediaURL:         "/media/",
	DefaultImagePath: "%s/static/images/default_framework.png",
}

func newTestDispatcher(t *testing.T, st *fakeStore, exec *fakeExecutor, rec Recorder) *Dispatcher {
	return NewDispatcher(Options{
		Store:           st,
		Executor:        exec,
		Recorder:        rec,
		Logger:          createTestLogger(t),
		Images:          testImages,
		ResultsPerPage:  10,
		SuggestionsSize: 10,
	})
}

func TestImages_URL(t *testing.T) {
	assert.Equal(t, "https://api.example.com/static/images/default_framework.png", testImages.URL(nil))
	assert.Equal(t, "https://api.example.com/static/images/default_framework.png", testImages.URL(strPtr("")))
	assert.Equal(t, "https://api.example.com/media/x/y.png", testImages.URL(strPtr("x/y.png")))
	assert.Equal(t, testImages.URL(strPtr("x/y.png")), testImages.URL(strPtr("x/y.png")))
}

func TestDispatcher_Search(t *testing.T) {
	st := newFakeStore()
	st.frameworks[1] = &models.Framework{ID: 1, Value: "£1M-£5M", Logo: strPtr("logos/one.png")}
	st.frameworks[3] = &models.Framework{ID: 3, Value: "£5M+"}
	exec := &fakeExecutor{res: &Response{
		Total: 3,
		Hits: []Hit{
			hitFor(1, "Cloud", "RM1"),
			hitFor(2, "Removed", "RM2"),
			hitFor(3, "Catering", "RM3"),
		},
	}}
	rec := &fakeRecorder{}
	d := newTestDispatcher(t, st, exec, rec)

	page, err := d.Search(context.Background(), testUser,
		[]byte(`{"query_type": "by_name", "query": {"value": "C"}, "page": "1"}`))
	require.NoError(t, err)

	assert.Equal(t, int64(3), page.TotalCount)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 10, page.ResultsPerPage)
	require.Len(t, page.Data, 2)

	first := page.Data[0].(ConsumerItem)
	assert.Equal(t, int64(1), first.ID)
	assert.Equal(t, "Cloud", first.Name)
	assert.Equal(t, "RM1", first.Number)
	assert.Equal(t, "£1M-£5M", first.Value)
	assert.Equal(t, "https://api.example.com/media/logos/one.png", first.FrameworkImage)
	assert.Equal(t, "https://api.example.com/static/images/default_framework.png",
		page.Data[1].(ConsumerItem).FrameworkImage)

	require.Len(t, st.fetched, 1)
	assert.Equal(t, []int64{1, 2, 3}, st.fetched[0])
	assert.Equal(t, [][]int64{{1, 3}}, rec.calls)
}

func TestDispatcher_SearchEmptyQuery(t *testing.T) {
	exec := &fakeExecutor{}
	rec := &fakeRecorder{}
	d := newTestDispatcher(t, newFakeStore(), exec, rec)

	page, err := d.Search(context.Background(), testUser,
		[]byte(`{"query_type": "search_all", "query": {"value": ""}, "page": "2"}`))
	require.NoError(t, err)

	out, err := json.Marshal(page)
	require.NoError(t, err)
	assert.JSONEq(t, `{"total_count": 0, "page": 2, "results_per_page": 10, "data": []}`, string(out))
	assert.Empty(t, exec.bodies)
	assert.Empty(t, rec.calls)
}

func TestDispatcher_SearchValidationFailure(t *testing.T) {
	exec := &fakeExecutor{}
	d := newTestDispatcher(t, newFakeStore(), exec, nil)

	_, err := d.Search(context.Background(), testUser, []byte(`{"query_type": "by_value", "query": {"value": "nope"}}`))
	stdErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, "value: Invalid value", stdErr.Message)
	assert.Empty(t, exec.bodies)
}

func TestDispatcher_SearchIndexFailure(t *testing.T) {
	exec := &fakeExecutor{err: apperrors.NewIndexUnavailableError(errors.New("dial tcp: refused"))}
	rec := &fakeRecorder{}
	d := newTestDispatcher(t, newFakeStore(), exec, rec)

	_, err := d.Search(context.Background(), testUser, []byte(`{"query_type": "by_name", "query": {"value": "x"}}`))
	stdErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrCodeIndexUnavailable, stdErr.Code)
	assert.Empty(t, rec.calls)
}

func TestDispatcher_AdminSearch(t *testing.T) {
	st := newFakeStore()
	st.frameworks[1] = &models.Framework{ID: 1}
	exec := &fakeExecutor{res: &Response{
		Total: 120,
		Hits:  []Hit{hitFor(1, "Cloud", "RM1"), hitFor(2, "Removed", "RM2")},
	}}
	d := newTestDispatcher(t, st, exec, nil)

	page, err := d.AdminSearch(context.Background(), models.User{ID: 1, IsStaff: true}, []byte(`{"results_per_page": 2}`))
	require.NoError(t, err)

	require.Len(t, exec.bodies, 1)
	assert.JSONEq(t, `{"query": {"match_all": {}}, "size": 2}`, mustJSON(t, exec.bodies[0]))
	assert.Equal(t, int64(120), page.TotalCount)
	require.Len(t, page.Data, 1)
	assert.Equal(t, AdminItem{
		ID:             1,
		Name:           "Cloud",
		Number:         "RM1",
		StartDate:      strPtr("2024-01-01"),
		FrameworkImage: "https://api.example.com/static/images/default_framework.png",
	}, page.Data[0])
}

func TestDispatcher_Suggestions(t *testing.T) {
	exec := &fakeExecutor{res: &Response{Hits: []Hit{hitFor(4, "Cloud", "RM4"), hitFor(2, "Clothing", "RM2")}}}
	d := newTestDispatcher(t, newFakeStore(), exec, nil)

	names, err := d.SuggestNames(context.Background(), testUser, []byte(`{"name": "Clo"}`))
	require.NoError(t, err)
	assert.Equal(t, []Item{NameSuggestion{ID: 4, Name: "Cloud"}, NameSuggestion{ID: 2, Name: "Clothing"}}, names)

	numbers, err := d.SuggestNumbers(context.Background(), testUser, []byte(`{"framework_number": "RM"}`))
	require.NoError(t, err)
	assert.Equal(t, []Item{NumberSuggestion{ID: 4, Number: "RM4"}, NumberSuggestion{ID: 2, Number: "RM2"}}, numbers)

	require.Len(t, exec.bodies, 2)
	assert.JSONEq(t, `{
		"query": {"multi_match": {"query": "RM", "type": "bool_prefix", "fields": ["number.search_as_you_type"]}},
		"size": 10
	}`, mustJSON(t, exec.bodies[1]))
}

func TestDispatcher_RejectsUnvalidatedInput(t *testing.T) {
	exec := &fakeExecutor{}
	d := newTestDispatcher(t, newFakeStore(), exec, nil)

	_, _, err := d.Dispatch(context.Background(), Validated{})
	require.Error(t, err)
	assert.Empty(t, exec.bodies)
}

func TestDispatcher_MappingStoreFailure(t *testing.T) {
	st := newFakeStore()
	exec := &fakeExecutor{res: &Response{Total: 1, Hits: []Hit{hitFor(1, "Cloud", "RM1")}}}
	d := newTestDispatcher(t, st, exec, nil)

	v, err := d.validator.Validate(context.Background(), testUser, []byte(`{"query_type": "by_name", "query": {"value": "x"}}`), KindFull)
	require.NoError(t, err)

	st.err = errors.New("db down")
	_, err = d.Page(context.Background(), v)
	stdErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrCodeQueryExecutionFailed, stdErr.Code)
}
