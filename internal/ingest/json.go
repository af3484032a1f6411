package ingest

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

// JSONNormalizer parses JSON payloads. A top-level object is wrapped as a
// one-record sequence; a top-level array is used as-is.
type JSONNormalizer struct{}

func NewJSONNormalizer() *JSONNormalizer {
	return &JSONNormalizer{}
}

func (n *JSONNormalizer) Format() Format {
	return FormatJSON
}

func (n *JSONNormalizer) Normalize(data []byte) ([]map[string]string, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, &NormalizationError{Format: FormatJSON, Err: errors.New("empty payload")}
	}
	if !gjson.ValidBytes(data) {
		return nil, &NormalizationError{Format: FormatJSON, Err: errors.New("invalid JSON syntax")}
	}

	root := gjson.ParseBytes(data)
	switch {
	case root.IsObject():
		return []map[string]string{jsonRecord(root)}, nil
	case root.IsArray():
		elems := root.Array()
		records := make([]map[string]string, 0, len(elems))
		for i, elem := range elems {
			if !elem.IsObject() {
				return nil, &NormalizationError{
					Format: FormatJSON,
					Err:    fmt.Errorf("array element %d is not an object", i),
				}
			}
			records = append(records, jsonRecord(elem))
		}
		return records, nil
	}
	return nil, &NormalizationError{Format: FormatJSON, Err: errors.New("payload must be an object or an array of objects")}
}

// jsonRecord flattens one object into a field-mapping. Null values are
// dropped, a metadata object becomes "metadata.<key>" entries, and any
// other nested value is kept as its raw JSON text.
func jsonRecord(obj gjson.Result) map[string]string {
	record := make(map[string]string)
	obj.ForEach(func(key, value gjson.Result) bool {
		name := key.String()
		if name == "metadata" && value.IsObject() {
			value.ForEach(func(mk, mv gjson.Result) bool {
				if mv.Type != gjson.Null {
					record["metadata."+mk.String()] = jsonScalar(mv)
				}
				return true
			})
			return true
		}
		if value.Type == gjson.Null {
			return true
		}
		record[name] = jsonScalar(value)
		return true
	})
	return record
}

func jsonScalar(v gjson.Result) string {
	switch v.Type {
	case gjson.String:
		return v.Str
	case gjson.True:
		return "true"
	case gjson.False:
		return "false"
	default:
		// Numbers keep their source text; nested values keep raw JSON.
		return v.Raw
	}
}
