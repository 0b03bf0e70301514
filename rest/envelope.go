package rest

import (
	"fmt"

	"github.com/yourorg/opentoclose-go/apierr"
)

// The vendor is inconsistent about envelopes: some endpoints return the
// object directly, some wrap it under "data", list endpoints sometimes
// return a bare array and sometimes a single object. AsRecord and AsRecords
// normalize all of that.

// AsRecord coerces a decoded response into a single record.
func AsRecord(v any, endpoint string) (Record, error) {
	m, ok := v.(map[string]any)
	if !ok {
		return nil, shapeError(endpoint, "object", v)
	}
	if _, ok := m["id"]; ok {
		return m, nil
	}
	if data, ok := m["data"]; ok {
		if dm, ok := data.(map[string]any); ok {
			return dm, nil
		}
		return Record{}, nil
	}
	return m, nil
}

// AsRecords coerces a decoded response into a list of records.
func AsRecords(v any, endpoint string) ([]Record, error) {
	switch t := v.(type) {
	case []any:
		return toRecords(t), nil
	case map[string]any:
		if data, ok := t["data"]; ok {
			if list, ok := data.([]any); ok {
				return toRecords(list), nil
			}
			return []Record{}, nil
		}
		if len(t) == 0 {
			return []Record{}, nil
		}
		if _, ok := t["id"]; ok {
			return []Record{t}, nil
		}
	}
	return nil, shapeError(endpoint, "list or object with list data", v)
}

func toRecords(list []any) []Record {
	out := make([]Record, 0, len(list))
	for _, item := range list {
		if m, ok := item.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}

func shapeError(endpoint, expected string, v any) error {
	return &apierr.DataFormatError{
		APIError: apierr.APIError{
			Message:  fmt.Sprintf("unexpected response shape from %s: want %s, got %T", endpoint, expected, v),
			Endpoint: endpoint,
		},
		Expected: expected,
		Actual:   fmt.Sprintf("%T", v),
	}
}
