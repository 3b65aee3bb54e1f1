package search

import "framework-search/internal/common/validation"

const dateDefinition = `{
	"type": ["string", "null"],
	"pattern": "^(\\d{4}-\\d{2}-\\d{2})?$"
}`

var (
	nameSchema = validation.MustCompile("name-suggest", `{
		"type": "object",
		"required": ["name"],
		"properties": {
			"name": {"type": "string", "minLength": 1}
		}
	}`)

	numberSchema = validation.MustCompile("number-suggest", `{
		"type": "object",
		"required": ["number"],
		"properties": {
			"number": {"type": "string", "minLength": 1}
		}
	}`)

	fullSchema = validation.MustCompile("full-search", `{
		"type": "object",
		"required": ["query_type", "query"],
		"definitions": {"date": `+dateDefinition+`},
		"properties": {
			"query_type": {
				"type": "string",
				"enum": ["by_name", "by_number", "by_value", "search_all"]
			},
			"query": {
				"type": "object",
				"properties": {
					"value": {"type": "string"},
					"preference_frameworks": {
						"type": "array",
						"items": {"type": "string", "minLength": 1}
					}
				}
			},
			"filter": {
				"type": ["object", "null"],
				"properties": {
					"cpv_code": {"type": ["string", "integer", "null"]},
					"industry_category_type": {"type": ["string", "null"]},
					"sub_category": {"type": ["string", "null"]},
					"start_date": {"$ref": "#/definitions/date"},
					"end_date": {"$ref": "#/definitions/date"}
				}
			}
		}
	}`)

	adminSchema = validation.MustCompile("admin-search", `{
		"type": "object",
		"definitions": {
			"date": `+dateDefinition+`,
			"names": {"type": "array", "items": {"type": "string", "minLength": 1}}
		},
		"properties": {
			"frameworks": {"$ref": "#/definitions/names"},
			"industry_category_types": {"$ref": "#/definitions/names"},
			"sub_categories": {"$ref": "#/definitions/names"},
			"start_date": {"$ref": "#/definitions/date"},
			"end_date": {"$ref": "#/definitions/date"}
		}
	}`)
)

func schemaFor(kind Kind) *validation.Schema {
	switch kind {
	case KindName:
		return nameSchema
	case KindNumber:
		return numberSchema
	case KindFull:
		return fullSchema
	case KindAdmin:
		return adminSchema
	}
	return nil
}

// Request bodies as decoded after the schema check. Pointers distinguish an
// absent field from an empty one.
type (
	nameRequest struct {
		Name string `json:"name"`
	}

	numberRequest struct {
		Number string `json:"number"`
	}

	fullRequest struct {
		QueryType string `json:"query_type"`
		Query     struct {
			Value                *string  `json:"value"`
			PreferenceFrameworks []string `json:"preference_frameworks"`
		} `json:"query"`
		Filter *filterRequest `json:"filter"`
	}

	filterRequest struct {
		CPVCode              interface{} `json:"cpv_code"`
		IndustryCategoryType *string     `json:"industry_category_type"`
		SubCategory          *string     `json:"sub_category"`
		StartDate            *string     `json:"start_date"`
		EndDate              *string     `json:"end_date"`
	}

	adminRequest struct {
		Frameworks            []string `json:"frameworks"`
		IndustryCategoryTypes []string `json:"industry_category_types"`
		SubCategories         []string `json:"sub_categories"`
		StartDate             *string  `json:"start_date"`
		EndDate               *string  `json:"end_date"`
	}
)

// fieldAliases maps legacy request keys onto the canonical ones.
var fieldAliases = map[Kind]map[string]string{
	KindName:   {"framework_name": "name"},
	KindNumber: {"framework_number": "number"},
}
