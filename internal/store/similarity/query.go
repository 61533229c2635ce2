// internal/store/similarity/query.go
package similarity

import (
	"sort"
)

const (
	fieldContent   = "content"
	fieldMetadata  = "metadata"
	fieldEmbedding = "embedding"

	minCandidates = 50
)

// buildFilterClauses turns an exact-match filter into term clauses in key
// order, so identical filters always produce identical requests.
func buildFilterClauses(filter map[string]string) []interface{} {
	keys := make([]string, 0, len(filter))
	for k := range filter {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	clauses := make([]interface{}, 0, len(keys))
	for _, k := range keys {
		clauses = append(clauses, map[string]interface{}{
			"term": map[string]interface{}{
				fieldMetadata + "." + k: filter[k],
			},
		})
	}
	return clauses
}

// buildKNNQuery searches the dense vector field, pre-filtering on metadata.
func buildKNNQuery(vector []float32, k int, filter map[string]string) map[string]interface{} {
	candidates := k * 10
	if candidates < minCandidates {
		candidates = minCandidates
	}

	knn := map[string]interface{}{
		"field":          fieldEmbedding,
		"query_vector":   vector,
		"k":              k,
		"num_candidates": candidates,
	}
	if clauses := buildFilterClauses(filter); len(clauses) > 0 {
		knn["filter"] = clauses
	}

	return map[string]interface{}{
		"knn":     knn,
		"size":    k,
		"_source": []string{fieldContent, fieldMetadata},
	}
}

// buildTextQuery is the BM25 fallback used when no embedder is configured.
func buildTextQuery(text string, k int, filter map[string]string) map[string]interface{} {
	boolQuery := map[string]interface{}{
		"must": []interface{}{
			map[string]interface{}{
				"match": map[string]interface{}{
					fieldContent: text,
				},
			},
		},
	}
	if clauses := buildFilterClauses(filter); len(clauses) > 0 {
		boolQuery["filter"] = clauses
	}

	return map[string]interface{}{
		"query":   map[string]interface{}{"bool": boolQuery},
		"size":    k,
		"_source": []string{fieldContent, fieldMetadata},
	}
}

// indexMapping maps every string metadata value to keyword so term filters
// match exactly. The vector field is only declared when dims is known.
func indexMapping(dims int) map[string]interface{} {
	properties := map[string]interface{}{
		fieldContent:  map[string]interface{}{"type": "text"},
		fieldMetadata: map[string]interface{}{"type": "object"},
	}
	if dims > 0 {
		properties[fieldEmbedding] = map[string]interface{}{
			"type":       "dense_vector",
			"dims":       dims,
			"index":      true,
			"similarity": "cosine",
		}
	}

	return map[string]interface{}{
		"mappings": map[string]interface{}{
			"dynamic_templates": []interface{}{
				map[string]interface{}{
					"metadata_strings": map[string]interface{}{
						"path_match":         fieldMetadata + ".*",
						"match_mapping_type": "string",
						"mapping":            map[string]interface{}{"type": "keyword"},
					},
				},
			},
			"properties": properties,
		},
	}
}
