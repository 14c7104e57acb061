package crawler

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// ErrorField is the column an ErrorMarker stores its message in
const ErrorField = "error"

// Record is an insertion-ordered mapping of field name to value. Values are
// nil (null), string, float64/int, bool, []string or []any. The key order of
// the first record of a run becomes the output header.
type Record struct {
	keys   []string
	values map[string]any
}

// NewRecord creates an empty record
func NewRecord() *Record {
	return &Record{values: make(map[string]any)}
}

// RecordWithFields creates a record whose fields are present and nil, in order
func RecordWithFields(fields ...string) *Record {
	r := NewRecord()
	for _, f := range fields {
		r.Set(f, nil)
	}
	return r
}

// Set stores value under key. A new key is appended; an existing key keeps
// its position.
func (r *Record) Set(key string, value any) *Record {
	if _, ok := r.values[key]; !ok {
		r.keys = append(r.keys, key)
	}
	r.values[key] = value
	return r
}

// SetText stores a nullable string
func (r *Record) SetText(key string, value *string) *Record {
	if value == nil {
		return r.Set(key, nil)
	}
	return r.Set(key, *value)
}

// Get returns the value under key
func (r *Record) Get(key string) (any, bool) {
	v, ok := r.values[key]
	return v, ok
}

// Has reports whether key is present, even with a nil value
func (r *Record) Has(key string) bool {
	_, ok := r.values[key]
	return ok
}

// String returns the flattened string form of the value under key
func (r *Record) String(key string) string {
	return FlattenValue(r.values[key])
}

// Keys returns the keys in insertion order
func (r *Record) Keys() []string {
	out := make([]string, len(r.keys))
	copy(out, r.keys)
	return out
}

// Len returns the number of fields
func (r *Record) Len() int {
	return len(r.keys)
}

// Merge copies every field of o into r
func (r *Record) Merge(o *Record) *Record {
	if o == nil {
		return r
	}
	for _, k := range o.keys {
		r.Set(k, o.values[k])
	}
	return r
}

// MergeSuffixed copies o into r, renaming keys r already holds to key+suffix
// so listing columns are not overwritten by detail columns of the same name.
func (r *Record) MergeSuffixed(o *Record, suffix string) *Record {
	if o == nil {
		return r
	}
	existing := make(map[string]bool, len(r.keys))
	for _, k := range r.keys {
		existing[k] = true
	}
	for _, k := range o.keys {
		name := k
		if existing[k] {
			name = k + suffix
		}
		r.Set(name, o.values[k])
	}
	return r
}

// Clone returns a shallow copy
func (r *Record) Clone() *Record {
	return NewRecord().Merge(r)
}

// MarshalJSON encodes the record as a JSON object in key order
func (r *Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range r.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		vb, err := json.Marshal(r.values[k])
		if err != nil {
			return nil, err
		}
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// ErrorMarker stands in for a record whose detail fetch failed
type ErrorMarker struct {
	Key string // identifier column
	ID  string
	Err error
}

// Record renders the marker as a row holding only the identifier and the
// error message
func (m ErrorMarker) Record() *Record {
	msg := ""
	if m.Err != nil {
		msg = m.Err.Error()
	}
	return NewRecord().Set(m.Key, m.ID).Set(ErrorField, msg)
}

// IsErrorMarker reports whether rec was produced by ErrorMarker.Record
func IsErrorMarker(rec *Record) bool {
	return rec.Len() == 2 && rec.Has(ErrorField)
}

// FlattenValue renders a value as one cell. Lists become their elements'
// string forms joined by ", " with nil elements skipped; nil becomes "".
func FlattenValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case *string:
		if t == nil {
			return ""
		}
		return *t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case bool:
		return strconv.FormatBool(t)
	case []string:
		return strings.Join(t, ", ")
	case []any:
		parts := make([]string, 0, len(t))
		for _, e := range t {
			if e == nil {
				continue
			}
			parts = append(parts, FlattenValue(e))
		}
		return strings.Join(parts, ", ")
	case json.RawMessage:
		return string(t)
	}
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}
