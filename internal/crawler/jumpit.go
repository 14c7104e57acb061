package crawler

import (
	"context"
	"net/url"
	"path/filepath"
	"strconv"

	"sjsage522/recruitcrawler/config"
	"sjsage522/recruitcrawler/helpers"
	"sjsage522/recruitcrawler/pkg/errors"

	"github.com/PuerkitoBio/goquery"
	"github.com/tidwall/gjson"
)

// jumpitDetail describes a position page. The summary box labels collide
// with listing columns, hence the _상세 names.
var jumpitDetail = DetailSpec{
	Fields: []string{
		"주요업무", "자격요건", "우대사항", "복지 및 혜택", "채용절차 및 기타 지원 유의사항",
		"경력_상세", "학력", "마감일_상세", "근무지역_상세", "기업/서비스 소개",
	},
	Tables: []LabelTable{
		{
			Root:      "div.position_info",
			Container: "dl",
			Label:     "dt",
			Value:     "dd",
			Text:      PreTextTransform,
			Rules: []LabelRule{
				{Label: "주요업무", Match: MatchContains},
				{Label: "자격요건", Match: MatchContains},
				{Label: "우대사항", Match: MatchContains},
				{Label: "복지 및 혜택", Match: MatchContains},
				{Label: "채용절차 및 기타 지원 유의사항", Match: MatchContains},
			},
		},
		{
			Root:      "div.sc-b12ae455-0.ehVsnD",
			Container: "dl",
			Label:     "dt",
			Value:     "dd",
			Rules: []LabelRule{
				{Label: "경력", Match: MatchContains, Field: "경력_상세"},
				{Label: "학력", Match: MatchContains},
				{Label: "마감일", Match: MatchContains, Field: "마감일_상세"},
				{Label: "근무지역", Match: MatchContains, Field: "근무지역_상세"},
			},
		},
	},
	Selectors: []SelectorRule{
		{Selector: "div.sc-3ef60426-3.dlAoCI pre", Field: "기업/서비스 소개"},
	},
}

// NormalizeJumpit maps one positions API item to a listing record
func NormalizeJumpit(item gjson.Result) *Record {
	return NewRecord().
		Set("id", jsonValue(item, "id", nil)).
		Set("companyName", jsonValue(item, "companyName", nil)).
		Set("title", jsonValue(item, "title", nil)).
		Set("jobCategory", jsonValue(item, "jobCategory", nil)).
		Set("techStacks", jsonList(item, "techStacks", "techStacks")).
		Set("minCareer", jsonValue(item, "minCareer", nil)).
		Set("maxCareer", jsonValue(item, "maxCareer", nil)).
		Set("locations", jsonList(item, "locations", "locations")).
		Set("closedAt", jsonValue(item, "closedAt", nil))
}

// jumpitPages requests the positions API newest first
func jumpitPages(f *helpers.Fetcher, listURL string) PageFunc[gjson.Result] {
	return func(ctx context.Context, cur Cursor) ([]gjson.Result, error) {
		q := url.Values{
			"sort":      {"reg_dt"},
			"highlight": {"false"},
			"page":      {strconv.Itoa(cur.Page)},
		}
		res, err := f.FetchJSON(ctx, listURL, q)
		if err != nil {
			return nil, err
		}
		positions := res.Get("result.positions")
		if positions.IsObject() && len(positions.Map()) == 0 {
			return nil, nil
		}
		return JSONItems(positions), nil
	}
}

// MarkupEnricher fetches a record's HTML detail page and merges the fields
// its DetailSpec extracts
type MarkupEnricher struct {
	Fetcher   *helpers.Fetcher
	DetailURL func(rec *Record) string
	Spec      DetailSpec
}

// Enrich fetches the record's detail page and merges the extracted fields
func (e *MarkupEnricher) Enrich(ctx context.Context, rec *Record) (*Record, error) {
	body, err := e.Fetcher.FetchWithRandomHeaders(ctx, e.DetailURL(rec))
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return nil, errors.NewParsing(e.Fetcher.Provider, "failed to parse detail page", err)
	}
	return rec.Clone().Merge(e.Spec.Extract(doc.Selection)), nil
}

// NewJumpitCrawler lists jumpit positions and enriches each from its
// position page
func NewJumpitCrawler(src config.SourceConfig, f *helpers.Fetcher, outputDir string) *Pipeline[gjson.Result] {
	detailBase := src.DetailURL
	pacer := NewPacer(src.Delay, src.Jitter)
	return &Pipeline[gjson.Result]{
		Name:     "JumpitCrawler",
		Provider: config.SourceJumpit,
		IDKey:    "id",
		Source: func() *Paginator[gjson.Result] {
			return NewPaginator(jumpitPages(f, src.ListURL), PaginatorConfig{
				Mode:     ByPage,
				PageSize: src.PageSize,
				MaxPages: MaxPagesFor(src.TotalItems, src.PageSize),
				Pacer:    pacer,
			})
		},
		Normalize: NormalizeJumpit,
		Enricher: &MarkupEnricher{
			Fetcher:   f,
			DetailURL: func(rec *Record) string { return detailBase + rec.String("id") },
			Spec:      jumpitDetail,
		},
		Pacer:  pacer,
		Sink:   NewSink(config.SourceJumpit),
		Output: filepath.Join(outputDir, src.Output),
	}
}
