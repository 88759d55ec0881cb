package bearer

import (
	"fmt"
	"reflect"
	"time"
)

// Changes is a partial update document for a stored record. Values are merged
// rather than replacing the record wholesale: scalars set the field, slices
// append to the current value, and nested maps flatten into dotted paths.
type Changes map[string]any

// NormalizeChanges splits an update document into direct sets and array
// appends, flattening nested objects into dotted-path keys. The modification
// timestamp is always stamped.
func NormalizeChanges(changes Changes, now time.Time) (sets Changes, appends Changes) {
	sets = Changes{"updated_at": now}
	appends = Changes{}

	for key, value := range changes {
		if value == nil {
			sets[key] = nil
			continue
		}

		rv := reflect.ValueOf(value)
		switch rv.Kind() {
		case reflect.Slice, reflect.Array:
			appends[key] = value
		case reflect.Map:
			flattenInto(sets, key, value)
		default:
			sets[key] = value
		}
	}

	return sets, appends
}

func flattenInto(sets Changes, prefix string, value any) {
	nested, ok := value.(map[string]any)
	if !ok {
		sets[prefix] = value
		return
	}

	for key, val := range nested {
		path := fmt.Sprintf("%s.%s", prefix, key)
		if inner, ok := val.(map[string]any); ok {
			flattenInto(sets, path, inner)
			continue
		}
		sets[path] = val
	}
}

// AppendValues merges an append-change into the current metadata value for
// the key. The current value may be absent or a prior slice.
func AppendValues(current any, addition any) []any {
	var out []any

	switch cur := current.(type) {
	case nil:
	case []any:
		out = append(out, cur...)
	default:
		out = append(out, cur)
	}

	rv := reflect.ValueOf(addition)
	if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
		for i := 0; i < rv.Len(); i++ {
			out = append(out, rv.Index(i).Interface())
		}
		return out
	}

	return append(out, addition)
}
