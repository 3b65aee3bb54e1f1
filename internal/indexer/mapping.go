package indexer

// frameworkIndexBody is the settings and mapping of the framework index. name
// and number are analysed for relevance with a raw keyword for exact lookups
// and a search_as_you_type sub-field for suggestions.
func frameworkIndexBody() map[string]interface{} {
	textWithSubFields := map[string]interface{}{
		"type":     "text",
		"analyzer": "html_strip",
		"fields": map[string]interface{}{
			"raw":                map[string]interface{}{"type": "keyword"},
			"search_as_you_type": map[string]interface{}{"type": "search_as_you_type"},
		},
	}

	return map[string]interface{}{
		"settings": map[string]interface{}{
			"number_of_shards":   1,
			"number_of_replicas": 1,
			"analysis": map[string]interface{}{
				"analyzer": map[string]interface{}{
					"html_strip": map[string]interface{}{
						"type":        "custom",
						"tokenizer":   "standard",
						"filter":      []string{"lowercase", "stop", "snowball"},
						"char_filter": []string{"html_strip"},
					},
				},
			},
		},
		"mappings": map[string]interface{}{
			"properties": map[string]interface{}{
				"id":                   map[string]interface{}{"type": "integer"},
				"name":                 textWithSubFields,
				"number":               textWithSubFields,
				"description":          map[string]interface{}{"type": "keyword"},
				"value_number":         map[string]interface{}{"type": "long"},
				"industry_or_category": map[string]interface{}{"type": "keyword"},
				"sub_category":         map[string]interface{}{"type": "keyword"},
				"start_date":           map[string]interface{}{"type": "date"},
				"end_date":             map[string]interface{}{"type": "date"},
				"cpvs": map[string]interface{}{
					"type": "nested",
					"properties": map[string]interface{}{
						"code": map[string]interface{}{"type": "integer"},
					},
				},
			},
		},
	}
}
