package crawler

import (
	"github.com/tidwall/gjson"
)

// jsonValue returns the scalar at path, or def when the path is absent or null.
// Objects and arrays come back as their raw JSON text.
func jsonValue(item gjson.Result, path string, def any) any {
	v := item.Get(path)
	if !v.Exists() || v.Type == gjson.Null {
		return def
	}
	return scalar(v)
}

func scalar(v gjson.Result) any {
	switch v.Type {
	case gjson.Null:
		return nil
	case gjson.String:
		return v.String()
	case gjson.Number:
		return v.Float()
	case gjson.True:
		return true
	case gjson.False:
		return false
	}
	return v.Raw
}

// jsonList reads a list-or-object field. The upstream API returns either a
// wrapper object holding the list under inner, the list itself, or a bare
// object/scalar; the bare shapes become a one-element list. Absent and null
// give an empty list.
func jsonList(item gjson.Result, key, inner string) []any {
	v := item.Get(key)
	if !v.Exists() || v.Type == gjson.Null {
		return []any{}
	}

	if v.IsObject() && inner != "" {
		if wrapped := v.Get(inner); wrapped.Exists() {
			v = wrapped
		}
	}

	if !v.IsArray() {
		return []any{scalar(v)}
	}

	elems := v.Array()
	out := make([]any, 0, len(elems))
	for _, e := range elems {
		out = append(out, scalar(e))
	}
	return out
}

// jsonTexts reduces a list of tag objects to their display text. String
// elements are kept; objects without the text field give def.
func jsonTexts(item gjson.Result, path, textKey string, def any) []any {
	v := item.Get(path)
	if !v.IsArray() {
		if v.IsObject() {
			return []any{jsonValue(v, textKey, def)}
		}
		return []any{}
	}
	elems := v.Array()
	out := make([]any, 0, len(elems))
	for _, e := range elems {
		if e.IsObject() {
			out = append(out, jsonValue(e, textKey, def))
			continue
		}
		out = append(out, scalar(e))
	}
	return out
}
