package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	apperrors "framework-search/internal/common/errors"
	"framework-search/internal/models"
)

const (
	msgInvalidCPVCode   = "Invalid CPV code"
	msgInvalidValue     = "Invalid value"
	msgInvalidQueryType = "query_type value not valid"
	msgDatesTogether    = "Both start_date and end_date should be provided."
	msgDateFormat       = "Date has wrong format. Use one of these formats instead: YYYY-MM-DD."
	msgRequired         = "This field is required."
)

// Lookup is the relational data the validator and the builders consult.
type Lookup interface {
	FrameworkValueExists(ctx context.Context, value string) (bool, error)
	GetFrameworkValue(ctx context.Context, value string) (*models.FrameworkValue, error)
	PreferenceNames(ctx context.Context, userID int64) ([]string, error)
	PreferredFrameworkIDs(ctx context.Context, userID int64, names []string) ([]int64, error)
}

// Validator turns raw request bodies into Validated inputs.
type Validator struct {
	lookup         Lookup
	resultsPerPage int
}

// NewValidator creates a validator. resultsPerPage is the consumer page size
// used when the request does not carry a usable one.
func NewValidator(lookup Lookup, resultsPerPage int) *Validator {
	return &Validator{lookup: lookup, resultsPerPage: resultsPerPage}
}

// Validate tries each kind in order and returns the first that fits. When
// none does, the error is a VALIDATION_FAILED StandardError whose fields
// collect the messages of every attempt. Lookup failures are returned as-is.
func (v *Validator) Validate(ctx context.Context, user models.User, raw []byte, kinds ...Kind) (Validated, error) {
	doc, err := decodeDocument(raw)
	if err != nil {
		return Validated{}, apperrors.NewBadRequestError(fmt.Sprintf("JSON parse error - %s", err.Error()))
	}

	failures := map[string]string{}
	for _, kind := range kinds {
		candidate := applyAliases(kind, doc)

		criteria, fields, err := v.check(ctx, user, kind, candidate)
		if err != nil {
			return Validated{}, err
		}
		if len(fields) == 0 {
			var page Pagination
			page, fields = v.pagination(kind, candidate)
			if len(fields) == 0 {
				return Validated{criteria: criteria, page: page, user: user}, nil
			}
		}
		for field, msg := range fields {
			if _, seen := failures[field]; !seen {
				failures[field] = msg
			}
		}
	}

	if len(failures) == 0 {
		failures["(root)"] = "No search shape accepted the request."
	}
	return Validated{}, apperrors.NewValidationError(failures)
}

func (v *Validator) check(ctx context.Context, user models.User, kind Kind, doc interface{}) (Criteria, map[string]string, error) {
	schema := schemaFor(kind)
	if schema == nil {
		return nil, nil, fmt.Errorf("search: unknown kind %d", kind)
	}
	result, err := schema.ValidateValue(doc)
	if err != nil {
		return nil, nil, err
	}
	if result.HasErrors() {
		return nil, result.FieldMessages(), nil
	}

	switch kind {
	case KindName:
		var req nameRequest
		if err := redecode(doc, &req); err != nil {
			return nil, nil, err
		}
		return NameCriteria{Name: req.Name}, nil, nil
	case KindNumber:
		var req numberRequest
		if err := redecode(doc, &req); err != nil {
			return nil, nil, err
		}
		return NumberCriteria{Number: req.Number}, nil, nil
	case KindFull:
		var req fullRequest
		if err := redecode(doc, &req); err != nil {
			return nil, nil, err
		}
		return v.full(ctx, user, req)
	default:
		var req adminRequest
		if err := redecode(doc, &req); err != nil {
			return nil, nil, err
		}
		c, fields := admin(req)
		return c, fields, nil
	}
}

func (v *Validator) full(ctx context.Context, user models.User, req fullRequest) (Criteria, map[string]string, error) {
	c := FullCriteria{
		QueryType:            models.QueryType(req.QueryType),
		PreferenceFrameworks: req.Query.PreferenceFrameworks,
	}
	if !c.QueryType.Valid() {
		return nil, map[string]string{"query_type": msgInvalidQueryType}, nil
	}
	if req.Query.Value != nil {
		c.Value = *req.Query.Value
	}

	filter, fields := parseFilter(req.Filter)
	c.Filter = filter

	switch c.QueryType {
	case models.QueryTypeByValue:
		exists, err := v.lookup.FrameworkValueExists(ctx, c.Value)
		if err != nil {
			return nil, nil, apperrors.NewQueryExecutionFailedError("framework value exists", err)
		}
		if !exists {
			fields["value"] = msgInvalidValue
		}
	case models.QueryTypeSearchAll:
		if len(c.PreferenceFrameworks) == 0 {
			break
		}
		names, err := v.lookup.PreferenceNames(ctx, user.ID)
		if err != nil {
			return nil, nil, apperrors.NewQueryExecutionFailedError("preference names", err)
		}
		followed := make(map[string]struct{}, len(names))
		for _, name := range names {
			followed[name] = struct{}{}
		}
		for _, name := range c.PreferenceFrameworks {
			if _, ok := followed[name]; !ok {
				fields["preference_frameworks"] = fmt.Sprintf("%s is not valid", name)
				break
			}
		}
	}

	if len(fields) > 0 {
		return nil, fields, nil
	}
	return c, nil, nil
}

func parseFilter(req *filterRequest) (Filter, map[string]string) {
	fields := map[string]string{}
	var f Filter
	if req == nil {
		return f, fields
	}

	if code, ok, err := parseCPVCode(req.CPVCode); err != nil {
		fields["cpv_code"] = msgInvalidCPVCode
	} else if ok {
		f.CPVCode = &code
	}
	f.IndustryCategoryType = deref(req.IndustryCategoryType)
	f.SubCategory = deref(req.SubCategory)

	var err error
	if f.StartDate, err = parseOptionalDate(req.StartDate); err != nil {
		fields["start_date"] = msgDateFormat
	}
	if f.EndDate, err = parseOptionalDate(req.EndDate); err != nil {
		fields["end_date"] = msgDateFormat
	}
	return f, fields
}

func admin(req adminRequest) (Criteria, map[string]string) {
	fields := map[string]string{}
	c := AdminCriteria{
		Frameworks:            req.Frameworks,
		IndustryCategoryTypes: req.IndustryCategoryTypes,
		SubCategories:         req.SubCategories,
	}

	var err error
	if c.StartDate, err = parseOptionalDate(req.StartDate); err != nil {
		fields["start_date"] = msgDateFormat
	}
	if c.EndDate, err = parseOptionalDate(req.EndDate); err != nil {
		fields["end_date"] = msgDateFormat
	}
	if len(fields) == 0 && (c.StartDate == nil) != (c.EndDate == nil) {
		fields["(root)"] = msgDatesTogether
	}

	if len(fields) > 0 {
		return nil, fields
	}
	return c, nil
}

// pagination reads page and results_per_page. Unusable values fall back to
// the defaults; the admin search has no default page size.
func (v *Validator) pagination(kind Kind, doc interface{}) (Pagination, map[string]string) {
	m, _ := doc.(map[string]interface{})
	page := Pagination{Page: 1, ResultsPerPage: v.resultsPerPage}

	if n, ok := positiveInt(m["page"]); ok {
		page.Page = n
	}
	n, ok := positiveInt(m["results_per_page"])
	switch {
	case ok:
		page.ResultsPerPage = n
	case kind == KindAdmin:
		return page, map[string]string{"results_per_page": msgRequired}
	}
	return page, nil
}

// positiveInt accepts a JSON integer or a string of digits, either > 0.
func positiveInt(v interface{}) (int, bool) {
	var s string
	switch x := v.(type) {
	case json.Number:
		s = x.String()
	case string:
		if !isDigits(x) {
			return 0, false
		}
		s = x
	default:
		return 0, false
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

func parseCPVCode(v interface{}) (int, bool, error) {
	var s string
	switch x := v.(type) {
	case nil:
		return 0, false, nil
	case json.Number:
		s = x.String()
	case string:
		s = strings.TrimSpace(x)
		if s == "" {
			return 0, false, nil
		}
	default:
		return 0, false, fmt.Errorf("unexpected cpv_code type %T", v)
	}
	code, err := strconv.Atoi(s)
	if err != nil {
		return 0, false, err
	}
	return code, true, nil
}

func parseOptionalDate(s *string) (*models.Date, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	d, err := models.ParseDate(*s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// decodeDocument parses a request body keeping numbers as json.Number. An
// empty body is an empty object.
func decodeDocument(raw []byte) (interface{}, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return map[string]interface{}{}, nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var doc interface{}
	if err := dec.Decode(&doc); err != nil {
		return nil, err
	}
	if dec.More() {
		return nil, fmt.Errorf("unexpected data after top-level value")
	}
	return doc, nil
}

func applyAliases(kind Kind, doc interface{}) interface{} {
	aliases, ok := fieldAliases[kind]
	m, isMap := doc.(map[string]interface{})
	if !ok || !isMap {
		return doc
	}

	out := make(map[string]interface{}, len(m))
	for k, val := range m {
		out[k] = val
	}
	for alias, canonical := range aliases {
		if _, has := out[canonical]; has {
			continue
		}
		if val, has := out[alias]; has {
			out[canonical] = val
		}
	}
	return out
}

// redecode moves a schema-checked document into its typed request struct.
func redecode(doc interface{}, dst interface{}) error {
	b, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	return dec.Decode(dst)
}
