package templatebuilder

import (
	"encoding/json"
	"net/url"

	"github.com/gorilla/schema"
)

// JSONEncoder is the default body encoder; it reports the content type
// "application/json".
type JSONEncoder struct{}

// Encode marshals v as JSON.
func (JSONEncoder) Encode(v interface{}) ([]byte, string, error) {
	if m, ok := v.(map[string]interface{}); ok && len(m) == 0 {
		return []byte("{}"), "application/json", nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, "", err
	}
	return b, "application/json", nil
}

var schemaEncoder = schema.NewEncoder()

// FormEncoder serializes a map or struct into application/x-www-form-urlencoded
// bytes via gorilla/schema, the form-encoding direction of the struct/url.Values
// bridge that package provides.
type FormEncoder struct{}

// Encode converts v into a form-urlencoded body.
func (FormEncoder) Encode(v interface{}) ([]byte, string, error) {
	values := url.Values{}
	switch m := v.(type) {
	case map[string]interface{}:
		for k, val := range m {
			s, err := stringify(val)
			if err != nil {
				return nil, "", err
			}
			values.Set(k, s)
		}
	default:
		if err := schemaEncoder.Encode(v, values); err != nil {
			return nil, "", err
		}
	}
	return []byte(values.Encode()), "application/x-www-form-urlencoded", nil
}
