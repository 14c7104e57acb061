package crawler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tidwall/gjson"
)

func TestJSONList(t *testing.T) {
	tests := []struct {
		name string
		json string
		want []any
	}{
		{"wrapped list", `{"techStacks":{"techStacks":["Go","Java"]}}`, []any{"Go", "Java"}},
		{"plain list", `{"techStacks":["Go"]}`, []any{"Go"}},
		{"bare scalar", `{"techStacks":"Go"}`, []any{"Go"}},
		{"bare object", `{"techStacks":{"name":"Go"}}`, []any{`{"name":"Go"}`}},
		{"absent", `{}`, []any{}},
		{"null", `{"techStacks":null}`, []any{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := jsonList(gjson.Parse(tt.json), "techStacks", "techStacks")
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestJSONItemsSingleObject(t *testing.T) {
	res := gjson.Parse(`{"result":{"positions":{"id":7,"title":"solo"}}}`).Get("result.positions")

	items := JSONItems(res)
	assert.Len(t, items, 1)
	assert.Equal(t, "solo", items[0].Get("title").String())

	assert.Empty(t, JSONItems(gjson.Parse(`{}`).Get("missing")))
}

func TestNormalizeJumpit(t *testing.T) {
	item := gjson.Parse(`{
		"id": 123,
		"companyName": "Acme",
		"title": "Backend",
		"techStacks": {"techStacks": ["Go", null, "Kafka"]},
		"minCareer": 1,
		"locations": "서울 강남구"
	}`)

	rec := NormalizeJumpit(item)

	assert.Equal(t, []string{"id", "companyName", "title", "jobCategory", "techStacks", "minCareer", "maxCareer", "locations", "closedAt"}, rec.Keys())
	assert.Equal(t, "123", rec.String("id"))
	assert.Equal(t, "Go, Kafka", rec.String("techStacks"))
	assert.Equal(t, "서울 강남구", rec.String("locations"))
	assert.Equal(t, "", rec.String("maxCareer"))
	v, _ := rec.Get("jobCategory")
	assert.Nil(t, v)
}

func TestNormalizeJumpitMissingKeys(t *testing.T) {
	rec := NormalizeJumpit(gjson.Parse(`{"id": 1}`))

	assert.Equal(t, "", rec.String("techStacks"))
	assert.Equal(t, "", rec.String("locations"))
	assert.Equal(t, "", rec.String("companyName"))
}

func TestNormalizeWantedDefaults(t *testing.T) {
	rec := NormalizeWanted(gjson.Parse(`{
		"id": 42,
		"company": {"id": 9, "name": "Wanted Lab"},
		"position": "Go Developer",
		"skill_tags": [{"text": "Go"}, {"text": "gRPC"}]
	}`))

	assert.Equal(t, "42", rec.String("id"))
	assert.Equal(t, "Wanted Lab", rec.String("company_name"))
	assert.Equal(t, "", rec.String("district"))
	assert.Equal(t, "false", rec.String("is_newbie"))
	assert.Equal(t, "Go, gRPC", rec.String("skill_tags"))
	assert.Equal(t, "", rec.String("user_oriented_tags"))
	v, _ := rec.Get("annual_from")
	assert.Nil(t, v)
}

func TestWantedDetailFields(t *testing.T) {
	job := gjson.Parse(`{
		"detail": {"intro": "hello", "main_tasks": "build"},
		"address": {"full_location": "서울"},
		"category_tag": {"parent_tag": {"id": 518}, "child_tags": [{"text": "백엔드"}]},
		"attraction_tags": [{"title": "연봉 상위"}, {"title": "재택"}]
	}`)

	rec := wantedDetailFields(job)

	assert.Equal(t, "hello", rec.String("intro"))
	assert.Equal(t, "", rec.String("benefits"))
	assert.Equal(t, "518", rec.String("category_tag_parent_id"))
	assert.Equal(t, "백엔드", rec.String("category_tag_child_text"))
	assert.Equal(t, "연봉 상위, 재택", rec.String("attraction_tags"))

	empty := wantedDetailFields(gjson.Parse(`{"category_tag": {"child_tags": []}}`))
	assert.Equal(t, "", empty.String("category_tag_child_text"))
	assert.Equal(t, "", empty.String("attraction_tags"))
}
