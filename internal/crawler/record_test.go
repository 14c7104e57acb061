package crawler

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordKeepsInsertionOrder(t *testing.T) {
	r := NewRecord().Set("b", 1).Set("a", 2).Set("b", 3)

	assert.Equal(t, []string{"b", "a"}, r.Keys())
	v, ok := r.Get("b")
	assert.True(t, ok)
	assert.Equal(t, 3, v)
}

func TestRecordWithFieldsStartsNil(t *testing.T) {
	r := RecordWithFields("x", "y")

	assert.Equal(t, 2, r.Len())
	assert.True(t, r.Has("x"))
	v, _ := r.Get("y")
	assert.Nil(t, v)
	assert.Equal(t, "", r.String("y"))
}

func TestMergeSuffixed(t *testing.T) {
	listing := NewRecord().Set("제목", "list title").Set("URL", "u")
	detail := NewRecord().Set("제목", "detail title").Set("급여", "3000")

	merged := listing.Clone().MergeSuffixed(detail, "_상세")

	assert.Equal(t, []string{"제목", "URL", "제목_상세", "급여"}, merged.Keys())
	assert.Equal(t, "list title", merged.String("제목"))
	assert.Equal(t, "detail title", merged.String("제목_상세"))
	assert.Equal(t, 2, listing.Len(), "clone must not touch the original")
}

func TestErrorMarker(t *testing.T) {
	rec := ErrorMarker{Key: "id", ID: "123", Err: errors.New("boom")}.Record()

	assert.Equal(t, []string{"id", ErrorField}, rec.Keys())
	assert.Equal(t, "123", rec.String("id"))
	assert.Equal(t, "boom", rec.String(ErrorField))
	assert.True(t, IsErrorMarker(rec))
	assert.False(t, IsErrorMarker(NewRecord().Set("id", "1").Set("title", "t")))
}

func TestFlattenValue(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{"list", []any{"A", "B"}, "A, B"},
		{"string list", []string{"A", "B"}, "A, B"},
		{"empty list", []any{}, ""},
		{"nil", nil, ""},
		{"nil elements skipped", []any{"A", nil, "C"}, "A, C"},
		{"integral float", float64(123), "123"},
		{"fraction", 1.5, "1.5"},
		{"bool", false, "false"},
		{"mixed list", []any{"Go", float64(3)}, "Go, 3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FlattenValue(tt.in))
		})
	}
}

func TestRecordMarshalJSONOrdered(t *testing.T) {
	rec := NewRecord().Set("z", "1").Set("a", nil).Set("m", []any{"x"})

	data, err := json.Marshal(rec)
	require.NoError(t, err)
	assert.Equal(t, `{"z":"1","a":null,"m":["x"]}`, string(data))
}
