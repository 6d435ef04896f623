package docstore

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
)

// Encode converts a struct or map into normalized Fields. The "id" key is
// dropped because ids are addressed separately.
func Encode(record any) (Fields, error) {
	b, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("docstore: encode record: %w", err)
	}
	fields, err := Decode(b)
	if err != nil {
		return nil, err
	}
	delete(fields, "id")
	return fields, nil
}

// Decode parses a JSON object into normalized Fields.
func Decode(data []byte) (Fields, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("docstore: decode record: %w", err)
	}
	if raw == nil {
		return nil, fmt.Errorf("docstore: record is not an object")
	}
	return Fields(normalize(raw).(map[string]any)), nil
}

// MarshalFields is the inverse of Decode.
func MarshalFields(f Fields) ([]byte, error) {
	return json.Marshal(map[string]any(f))
}

// normalize makes integral numbers int64 and everything else float64, so
// values compare equal whichever backend produced them.
func normalize(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, val := range t {
			t[k] = normalize(val)
		}
		return t
	case []any:
		for i, val := range t {
			t[i] = normalize(val)
		}
		return t
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i
		}
		f, _ := t.Float64()
		return f
	default:
		return v
	}
}

// NormalizeFilter runs filter values through the same encoding as records.
func NormalizeFilter(filter Filter) (Fields, error) {
	if len(filter) == 0 {
		return Fields{}, nil
	}
	b, err := json.Marshal(map[string]any(filter))
	if err != nil {
		return nil, fmt.Errorf("docstore: encode filter: %w", err)
	}
	return Decode(b)
}

// Match reports whether every filter key is present in fields with an equal value.
func Match(fields, filter Fields) bool {
	for k, want := range filter {
		got, ok := fields[k]
		if !ok || !reflect.DeepEqual(got, want) {
			return false
		}
	}
	return true
}

// Merge returns a copy of base with patch applied on top.
func Merge(base, patch Fields) Fields {
	out := clone(base)
	for k, v := range patch {
		out[k] = cloneValue(v)
	}
	return out
}

// Clone deep-copies fields.
func Clone(f Fields) Fields {
	return clone(f)
}

func clone(f Fields) Fields {
	out := make(Fields, len(f)+1)
	for k, v := range f {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		m := make(map[string]any, len(t))
		for k, val := range t {
			m[k] = cloneValue(val)
		}
		return m
	case Fields:
		return map[string]any(clone(t))
	case []any:
		s := make([]any, len(t))
		for i, val := range t {
			s[i] = cloneValue(val)
		}
		return s
	default:
		return v
	}
}

// SortSnapshots orders snapshots by id so every backend returns a stable order.
func SortSnapshots(s []Snapshot) {
	sort.Slice(s, func(i, j int) bool { return s[i].ID < s[j].ID })
}
