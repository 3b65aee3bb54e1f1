package validation

import (
	"fmt"
	"sort"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// Schema is a compiled JSON schema used to check the shape of request bodies
// before any typed decoding happens.
type Schema struct {
	name   string
	schema *gojsonschema.Schema
}

type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// MustCompile compiles a schema literal and panics on a malformed schema.
// Schemas are package-level constants, so a failure is a programming error.
func MustCompile(name, source string) *Schema {
	s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(source))
	if err != nil {
		panic(fmt.Sprintf("validation: compile schema %s: %v", name, err))
	}
	return &Schema{name: name, schema: s}
}

func (s *Schema) Name() string {
	return s.name
}

// Validate checks a raw JSON document. A non-nil error means the document is
// not JSON at all.
func (s *Schema) Validate(document []byte) (*ValidationResult, error) {
	result, err := s.schema.Validate(gojsonschema.NewBytesLoader(document))
	if err != nil {
		return nil, fmt.Errorf("validate %s: %w", s.name, err)
	}
	return toValidationResult(result), nil
}

// ValidateValue checks an already decoded Go value.
func (s *Schema) ValidateValue(value interface{}) (*ValidationResult, error) {
	result, err := s.schema.Validate(gojsonschema.NewGoLoader(value))
	if err != nil {
		return nil, fmt.Errorf("validate %s: %w", s.name, err)
	}
	return toValidationResult(result), nil
}

func toValidationResult(result *gojsonschema.Result) *ValidationResult {
	out := &ValidationResult{Valid: result.Valid()}
	for _, re := range result.Errors() {
		out.Errors = append(out.Errors, ValidationError{
			Field:   fieldOf(re),
			Message: messageOf(re),
			Code:    strings.ToUpper(re.Type()),
		})
	}
	return out
}

// fieldOf reports the offending property. For "required" errors gojsonschema
// points at the parent object, so the missing property name is appended.
func fieldOf(re gojsonschema.ResultError) string {
	field := re.Field()
	if re.Type() != "required" {
		return field
	}
	prop, _ := re.Details()["property"].(string)
	if prop == "" {
		return field
	}
	if field == "" || field == "(root)" {
		return prop
	}
	return field + "." + prop
}

func messageOf(re gojsonschema.ResultError) string {
	switch re.Type() {
	case "required":
		return "This field is required."
	case "enum":
		return fmt.Sprintf("%q is not a valid choice.", fmt.Sprint(re.Value()))
	case "invalid_type":
		if expected, ok := re.Details()["expected"].(string); ok {
			return fmt.Sprintf("Expected %s.", strings.ToLower(expected))
		}
	case "string_gte":
		return "This field may not be blank."
	}
	return re.Description()
}

// HasErrors reports whether validation failed.
func (r *ValidationResult) HasErrors() bool {
	return !r.Valid || len(r.Errors) > 0
}

// FieldMessages collapses the errors to one message per field, keeping the
// first message reported for each.
func (r *ValidationResult) FieldMessages() map[string]string {
	out := make(map[string]string, len(r.Errors))
	for _, e := range r.Errors {
		if _, seen := out[e.Field]; !seen {
			out[e.Field] = e.Message
		}
	}
	return out
}

// GetErrorMessages returns "field: message" strings in field order.
func (r *ValidationResult) GetErrorMessages() []string {
	fields := r.FieldMessages()
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	messages := make([]string, 0, len(keys))
	for _, k := range keys {
		messages = append(messages, fmt.Sprintf("%s: %s", k, fields[k]))
	}
	return messages
}
