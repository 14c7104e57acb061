package crawler

import (
	"context"
	"net/url"
	"path/filepath"
	"strconv"
	"time"

	"sjsage522/recruitcrawler/config"
	"sjsage522/recruitcrawler/helpers"

	"github.com/tidwall/gjson"
)

// NormalizeWanted maps one navigation results item to a listing record
func NormalizeWanted(item gjson.Result) *Record {
	return NewRecord().
		Set("id", jsonValue(item, "id", "")).
		Set("company_id", jsonValue(item, "company.id", "")).
		Set("company_name", jsonValue(item, "company.name", "")).
		Set("position", jsonValue(item, "position", "")).
		Set("location", jsonValue(item, "address.location", "")).
		Set("district", jsonValue(item, "address.district", "")).
		Set("reward_total", jsonValue(item, "reward_total", "")).
		Set("employment_type", jsonValue(item, "employment_type", "")).
		Set("is_newbie", jsonValue(item, "is_newbie", false)).
		Set("annual_from", jsonValue(item, "annual_from", nil)).
		Set("annual_to", jsonValue(item, "annual_to", nil)).
		Set("skill_tags", jsonTexts(item, "skill_tags", "text", nil)).
		Set("category_tag_id", jsonValue(item, "category_tag.id", "")).
		Set("user_oriented_tags", jsonList(item, "user_oriented_tags", ""))
}

// wantedDetailFields reads the job object of a details response
func wantedDetailFields(job gjson.Result) *Record {
	childText := any("")
	if first := job.Get("category_tag.child_tags.0"); first.Exists() {
		childText = jsonValue(first, "text", "")
	}
	return NewRecord().
		Set("intro", jsonValue(job, "detail.intro", "")).
		Set("main_tasks", jsonValue(job, "detail.main_tasks", "")).
		Set("requirements", jsonValue(job, "detail.requirements", "")).
		Set("preferred_points", jsonValue(job, "detail.preferred_points", "")).
		Set("benefits", jsonValue(job, "detail.benefits", "")).
		Set("hire_rounds", jsonValue(job, "detail.hire_rounds", "")).
		Set("full_location", jsonValue(job, "address.full_location", "")).
		Set("category_tag_parent_id", jsonValue(job, "category_tag.parent_tag.id", "")).
		Set("category_tag_child_text", childText).
		Set("attraction_tags", jsonTexts(job, "attraction_tags", "title", ""))
}

// wantedPages requests the navigation results API by item offset. The
// timestamp parameter defeats intermediate caches.
func wantedPages(f *helpers.Fetcher, listURL string, limit int) PageFunc[gjson.Result] {
	return func(ctx context.Context, cur Cursor) ([]gjson.Result, error) {
		q := url.Values{
			strconv.FormatInt(time.Now().UnixMilli(), 10): {""},
			"job_group_id": {"518"},
			"country":      {"kr"},
			"job_sort":     {"job.popularity_order"},
			"years":        {"-1"},
			"locations":    {"all"},
			"limit":        {strconv.Itoa(limit)},
			"offset":       {strconv.Itoa(cur.Offset)},
		}
		res, err := f.FetchJSON(ctx, listURL, q)
		if err != nil {
			return nil, err
		}
		return JSONItems(res.Get("data")), nil
	}
}

// JSONEnricher fetches a record's JSON detail resource and merges the fields
// Extract reads from it. A response without the detail object leaves the
// record as listed.
type JSONEnricher struct {
	Fetcher   *helpers.Fetcher
	DetailURL func(rec *Record) string
	Path      string
	Extract   func(gjson.Result) *Record
}

// Enrich fetches the record's detail resource and merges the fields read
// from Path
func (e *JSONEnricher) Enrich(ctx context.Context, rec *Record) (*Record, error) {
	res, err := e.Fetcher.FetchJSON(ctx, e.DetailURL(rec), nil)
	if err != nil {
		return nil, err
	}
	detail := res.Get(e.Path)
	if !detail.IsObject() || len(detail.Map()) == 0 {
		return rec, nil
	}
	return rec.Clone().Merge(e.Extract(detail)), nil
}

// NewWantedCrawler lists wanted jobs by offset and enriches each from the
// details API
func NewWantedCrawler(src config.SourceConfig, f *helpers.Fetcher, outputDir string) *Pipeline[gjson.Result] {
	if src.UserAgent != "" {
		f.UserAgent = src.UserAgent
	}
	detailBase := src.DetailURL
	pacer := NewPacer(src.Delay, src.Jitter)
	return &Pipeline[gjson.Result]{
		Name:     "WantedCrawler",
		Provider: config.SourceWanted,
		IDKey:    "id",
		Source: func() *Paginator[gjson.Result] {
			return NewPaginator(wantedPages(f, src.ListURL, src.PageSize), PaginatorConfig{
				Mode:     ByOffset,
				PageSize: src.PageSize,
				MaxPages: MaxPagesFor(src.TotalItems, src.PageSize),
				Pacer:    pacer,
			})
		},
		Normalize: NormalizeWanted,
		Enricher: &JSONEnricher{
			Fetcher:   f,
			DetailURL: func(rec *Record) string { return detailBase + "/" + rec.String("id") + "/details" },
			Path:      "data.job",
			Extract:   wantedDetailFields,
		},
		Pacer:  pacer,
		Sink:   NewSink(config.SourceWanted),
		Output: filepath.Join(outputDir, src.Output),
	}
}
