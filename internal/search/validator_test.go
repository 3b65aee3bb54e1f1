package search

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "framework-search/internal/common/errors"
	"framework-search/internal/models"
)

var testUser = models.User{ID: 7, IsSurveyCompleted: true}

func fieldsOf(t *testing.T, err error) map[string]string {
	t.Helper()
	stdErr, ok := apperrors.As(err)
	require.True(t, ok, "expected StandardError, got %v", err)
	require.Equal(t, apperrors.ErrCodeValidationFailed, stdErr.Code)
	fields, _ := stdErr.Metadata["fields"].(map[string]string)
	return fields
}

func TestValidate_NameSuggestion(t *testing.T) {
	v := NewValidator(newFakeStore(), 10)

	tests := []struct {
		name string
		body string
		want string
	}{
		{name: "canonical key", body: `{"name": "Cloud"}`, want: "Cloud"},
		{name: "legacy key", body: `{"framework_name": "Cloud"}`, want: "Cloud"},
		{name: "canonical key wins", body: `{"name": "Cloud", "framework_name": "Other"}`, want: "Cloud"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := v.Validate(context.Background(), testUser, []byte(tt.body), KindName)
			require.NoError(t, err)
			assert.Equal(t, NameCriteria{Name: tt.want}, got.Criteria())
			assert.Equal(t, testUser, got.User())
		})
	}
}

func TestValidate_SuggestionRejectsBlank(t *testing.T) {
	v := NewValidator(newFakeStore(), 10)

	_, err := v.Validate(context.Background(), testUser, []byte(`{}`), KindNumber)
	assert.Equal(t, "This field is required.", fieldsOf(t, err)["number"])

	_, err = v.Validate(context.Background(), testUser, []byte(`{"number": ""}`), KindNumber)
	assert.Equal(t, "This field may not be blank.", fieldsOf(t, err)["number"])
}

func TestValidate_FullQuery(t *testing.T) {
	st := newFakeStore()
	st.values["£1M-£5M"] = &models.FrameworkValue{ID: 1, Value: "£1M-£5M"}
	st.followed["Cloud Services"] = 11
	v := NewValidator(st, 10)

	tests := []struct {
		name       string
		body       string
		wantErr    map[string]string
		wantFilter Filter
	}{
		{
			name: "by name with filter",
			body: `{"query_type": "by_name", "query": {"value": "Cloud"},
				"filter": {"cpv_code": "72000000", "industry_category_type": "IT", "start_date": "2024-01-01", "end_date": ""}}`,
			wantFilter: Filter{
				CPVCode:              intPtr(72000000),
				IndustryCategoryType: "IT",
				StartDate:            datePtr(models.NewDate(2024, time.January, 1)),
			},
		},
		{
			name:       "integer cpv code",
			body:       `{"query_type": "by_name", "query": {"value": "Cloud"}, "filter": {"cpv_code": 4500}}`,
			wantFilter: Filter{CPVCode: intPtr(4500)},
		},
		{
			name:       "null filter",
			body:       `{"query_type": "search_all", "query": {}, "filter": null}`,
			wantFilter: Filter{},
		},
		{
			name:    "invalid cpv code",
			body:    `{"query_type": "by_name", "query": {"value": "x"}, "filter": {"cpv_code": "72-000"}}`,
			wantErr: map[string]string{"cpv_code": "Invalid CPV code"},
		},
		{
			name:    "unknown value bucket",
			body:    `{"query_type": "by_value", "query": {"value": "£10M+"}}`,
			wantErr: map[string]string{"value": "Invalid value"},
		},
		{
			name: "known value bucket",
			body: `{"query_type": "by_value", "query": {"value": "£1M-£5M"}}`,
		},
		{
			name:    "preference not followed",
			body:    `{"query_type": "search_all", "query": {"preference_frameworks": ["Cloud Services", "Catering"]}}`,
			wantErr: map[string]string{"preference_frameworks": "Catering is not valid"},
		},
		{
			name:    "malformed date",
			body:    `{"query_type": "by_name", "query": {"value": "x"}, "filter": {"end_date": "2024-13-45"}}`,
			wantErr: map[string]string{"end_date": msgDateFormat},
		},
		{
			name:    "unknown query type",
			body:    `{"query_type": "by_colour", "query": {"value": "x"}}`,
			wantErr: map[string]string{"query_type": `"by_colour" is not a valid choice.`},
		},
		{
			name:    "missing query",
			body:    `{"query_type": "by_name"}`,
			wantErr: map[string]string{"query": "This field is required."},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := v.Validate(context.Background(), testUser, []byte(tt.body), KindFull)
			if tt.wantErr != nil {
				fields := fieldsOf(t, err)
				for field, msg := range tt.wantErr {
					assert.Equal(t, msg, fields[field], field)
				}
				assert.True(t, got.IsZero())
				return
			}
			require.NoError(t, err)
			c, ok := got.Criteria().(FullCriteria)
			require.True(t, ok)
			assert.Equal(t, tt.wantFilter, c.Filter)
		})
	}
}

func TestValidate_LookupFailure(t *testing.T) {
	st := newFakeStore()
	st.err = errors.New("connection reset")
	v := NewValidator(st, 10)

	_, err := v.Validate(context.Background(), testUser,
		[]byte(`{"query_type": "by_value", "query": {"value": "£1M"}}`), KindFull)
	require.Error(t, err)
	stdErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrCodeQueryExecutionFailed, stdErr.Code)
}

func TestValidate_Pagination(t *testing.T) {
	v := NewValidator(newFakeStore(), 10)

	tests := []struct {
		name    string
		extra   string
		want    Pagination
		wantOff int
	}{
		{name: "defaults", extra: ``, want: Pagination{Page: 1, ResultsPerPage: 10}, wantOff: 0},
		{name: "digit strings", extra: `, "page": "3", "results_per_page": "20"`, want: Pagination{Page: 3, ResultsPerPage: 20}, wantOff: 40},
		{name: "integers", extra: `, "page": 2, "results_per_page": 5`, want: Pagination{Page: 2, ResultsPerPage: 5}, wantOff: 5},
		{name: "zero string", extra: `, "page": "0"`, want: Pagination{Page: 1, ResultsPerPage: 10}},
		{name: "negative string", extra: `, "page": "-1"`, want: Pagination{Page: 1, ResultsPerPage: 10}},
		{name: "letters", extra: `, "page": "abc", "results_per_page": "ten"`, want: Pagination{Page: 1, ResultsPerPage: 10}},
		{name: "zero integer", extra: `, "page": 0, "results_per_page": -4`, want: Pagination{Page: 1, ResultsPerPage: 10}},
		{name: "fraction", extra: `, "page": 1.5`, want: Pagination{Page: 1, ResultsPerPage: 10}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := `{"query_type": "by_name", "query": {"value": "x"}` + tt.extra + `}`
			got, err := v.Validate(context.Background(), testUser, []byte(body), KindFull)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Page())
			assert.Equal(t, tt.wantOff, got.Page().From())
		})
	}
}

func TestValidate_Admin(t *testing.T) {
	v := NewValidator(newFakeStore(), 10)

	t.Run("empty criteria is valid", func(t *testing.T) {
		got, err := v.Validate(context.Background(), testUser, []byte(`{"results_per_page": 25}`), KindAdmin)
		require.NoError(t, err)
		assert.Equal(t, AdminCriteria{}, got.Criteria())
		assert.Equal(t, Pagination{Page: 1, ResultsPerPage: 25}, got.Page())
	})

	t.Run("results_per_page required", func(t *testing.T) {
		_, err := v.Validate(context.Background(), testUser, []byte(`{"frameworks": ["Cloud"]}`), KindAdmin)
		assert.Equal(t, "This field is required.", fieldsOf(t, err)["results_per_page"])

		_, err = v.Validate(context.Background(), testUser, []byte(`{"results_per_page": "0"}`), KindAdmin)
		assert.Contains(t, fieldsOf(t, err), "results_per_page")
	})

	t.Run("dates come in pairs", func(t *testing.T) {
		_, err := v.Validate(context.Background(), testUser,
			[]byte(`{"results_per_page": 10, "start_date": "2024-01-01"}`), KindAdmin)
		assert.Equal(t, msgDatesTogether, fieldsOf(t, err)["(root)"])

		stdErr, _ := apperrors.As(err)
		assert.Equal(t, msgDatesTogether, stdErr.Message)
	})

	t.Run("full criteria", func(t *testing.T) {
		got, err := v.Validate(context.Background(), testUser, []byte(`{
			"frameworks": ["Cloud"], "industry_category_types": ["IT"], "sub_categories": ["Hosting"],
			"start_date": "2024-01-01", "end_date": "2025-01-01", "page": "2", "results_per_page": "10"}`), KindAdmin)
		require.NoError(t, err)
		assert.Equal(t, AdminCriteria{
			Frameworks:            []string{"Cloud"},
			IndustryCategoryTypes: []string{"IT"},
			SubCategories:         []string{"Hosting"},
			StartDate:             datePtr(models.NewDate(2024, time.January, 1)),
			EndDate:               datePtr(models.NewDate(2025, time.January, 1)),
		}, got.Criteria())
		assert.Equal(t, 10, got.Page().From())
	})
}

func TestValidate_TriesKindsInOrder(t *testing.T) {
	v := NewValidator(newFakeStore(), 10)

	got, err := v.Validate(context.Background(), testUser, []byte(`{"number": "RM6100"}`), KindName, KindNumber)
	require.NoError(t, err)
	assert.Equal(t, KindNumber, got.Criteria().Kind())

	_, err = v.Validate(context.Background(), testUser, []byte(`{}`), KindName, KindNumber)
	fields := fieldsOf(t, err)
	assert.Contains(t, fields, "name")
	assert.Contains(t, fields, "number")
}

func TestValidate_NotJSON(t *testing.T) {
	v := NewValidator(newFakeStore(), 10)

	_, err := v.Validate(context.Background(), testUser, []byte(`{"name": `), KindName)
	stdErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrCodeValidationFailed, stdErr.Code)
	assert.Contains(t, stdErr.Message, "JSON parse error")
}

func TestValidated_ZeroValue(t *testing.T) {
	var v Validated
	assert.True(t, v.IsZero())
	assert.Nil(t, v.Criteria())
}
