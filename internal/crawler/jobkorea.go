package crawler

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"sjsage522/recruitcrawler/config"
	"sjsage522/recruitcrawler/logger"
	"sjsage522/recruitcrawler/pkg/errors"

	"github.com/PuerkitoBio/goquery"
)

const (
	jobkoreaCategory      = "label[for='duty_step1_10031']"
	jobkoreaSubCategories = "#duty_step2_10031_ly .item"
	jobkoreaSubLabels     = "#duty_step2_10031_ly .item .lb_tag"
	jobkoreaSearch        = "#dev-btn-search"
	jobkoreaPaging        = "#dvGIPaging"
	jobkoreaMaxCategories = 12
)

// jobkoreaDetail describes a GI_Read posting page
var jobkoreaDetail = DetailSpec{
	Fields: []string{
		"제목", "회사명", "모집분야", "모집인원", "고용형태", "직급/직책", "급여", "근무시간",
		"근무지주소", "인근지하철", "경력", "학력", "스킬", "핵심역량",
		"우대조건", "기본우대", "시작일", "마감일", "사원수",
		"기업구분", "산업(업종)", "위치",
	},
	Selectors: []SelectorRule{
		{Selector: "h1", Field: "제목"},
		{Selector: `h2[class*="Typography_variant_size20__"]`, Field: "회사명"},
	},
	Tables: []LabelTable{
		{
			Root:      `div[data-sentry-component="RecruitmentGuidelines"]`,
			Container: `div[data-sentry-component="RecruitmentItem"]`,
			Label:     `span[style*="min-width"]`,
			Value:     `span[class*="Typography_color_gray900__"]`,
			CatchAll:  true,
			SkipEmpty: true,
			Rules: []LabelRule{
				{Label: "고용형태", Transform: JoinTextsTransform(`span[class*="Typography_"]`, " ")},
				{Label: "인근지하철", Transform: NextSiblingTransform("div")},
			},
		},
		{
			Root:      `div[data-sentry-component="Qualification"]`,
			Container: `div[data-sentry-component="QualificationItem"]`,
			Label:     `span[style*="min-width"]`,
			Value:     `span[data-accent-color="gray900"]`,
			SkipEmpty: true,
			Rules: []LabelRule{
				{Label: "경력", Value: `span[data-accent-color="theme-primary"]`},
				{Label: "학력", Value: `span[data-accent-color="theme-primary"]`},
				{Label: "스킬"},
				{Label: "핵심역량"},
				{Label: "우대조건", Transform: GroupedListTransform(
					`div[data-sentry-component="PreferenceSubItem"]`,
					`span[data-accent-color="gray500"]`,
					"ul",
					`span[data-accent-color="gray900"]`,
				)},
				{Label: "기본우대"},
			},
		},
		{
			Root:      `#application-section div[data-sentry-component="SimpleTable"]`,
			Container: `div[class*="Flex_display_flex__"][class*="Flex_gap_space12__"]`,
			Label:     `span[data-accent-color="gray700"]`,
			Value:     `span[data-accent-color="gray900"]`,
			CatchAll:  true,
			SkipEmpty: true,
		},
		{
			Root:      "#company-section",
			Container: `div[data-sentry-component="CorpInformationBox"]`,
			Label:     `span[class*="Typography_variant_size13__"]`,
			Value:     `div[class*="Typography_variant_size14__"]`,
			CatchAll:  true,
			SkipEmpty: true,
		},
	},
}

// JobKoreaListSource drives the duty search UI in a browser: select the
// development category and its sub categories, search, then walk the result
// pages through the pagination links.
type JobKoreaListSource struct {
	Session   Session
	URL       string
	UserAgent string
	Wait      time.Duration // bound for each element wait
	Settle    time.Duration // pause after UI interactions
	Log       *logger.Logger
}

// Page returns the listing rows of page cur.Page. The first call runs the
// search; later calls click through to the requested page. A missing page
// link yields no rows, which ends pagination.
func (s *JobKoreaListSource) Page(ctx context.Context, cur Cursor) ([]*goquery.Selection, error) {
	if cur.Index == 0 {
		if err := s.search(ctx); err != nil {
			return nil, err
		}
	} else {
		ok, err := s.turnTo(ctx, cur.Page)
		if err != nil || !ok {
			return nil, err
		}
	}

	if err := s.Session.WaitPresent(ctx, jobkoreaPaging, s.Wait); err != nil {
		return nil, errors.NewBrowser(config.SourceJobKorea, "result paging did not load", err)
	}
	html, err := s.Session.HTML(ctx)
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, errors.NewParsing(config.SourceJobKorea, "failed to parse result page", err)
	}

	table := doc.Find("div.tplList.tplJobList").First()
	if table.Length() == 0 {
		s.log().Warn().Int("page", cur.Page).Msg("Result table not found, stopping")
		return nil, nil
	}
	var rows []*goquery.Selection
	table.Find("tr.devloopArea").Each(func(_ int, tr *goquery.Selection) {
		rows = append(rows, tr)
	})
	return rows, nil
}

func (s *JobKoreaListSource) log() *logger.Logger {
	if s.Log == nil {
		s.Log = logger.ForSource(config.SourceJobKorea)
	}
	return s.Log
}

func (s *JobKoreaListSource) search(ctx context.Context) error {
	if err := s.Session.SetUserAgent(ctx, s.UserAgent); err != nil {
		return err
	}
	if err := s.Session.Navigate(ctx, s.URL); err != nil {
		return err
	}
	if err := s.Session.Click(ctx, jobkoreaCategory, s.Wait); err != nil {
		return errors.NewBrowser(config.SourceJobKorea, "category filter not clickable", err)
	}
	if err := sleep(ctx, s.Settle); err != nil {
		return err
	}

	n, err := s.Session.Count(ctx, jobkoreaSubCategories)
	if err != nil {
		return err
	}
	if n == 0 {
		return errors.NewParsing(config.SourceJobKorea, "sub category list not found", nil)
	}
	for i := 0; i < min(jobkoreaMaxCategories, n); i++ {
		if err := s.Session.ClickNth(ctx, jobkoreaSubLabels, i); err != nil {
			return errors.NewBrowser(config.SourceJobKorea, fmt.Sprintf("failed to select sub category %d", i), err)
		}
	}
	if err := sleep(ctx, s.Settle); err != nil {
		return err
	}

	if err := s.Session.Click(ctx, jobkoreaSearch, s.Wait); err != nil {
		return errors.NewBrowser(config.SourceJobKorea, "search button not clickable", err)
	}
	if err := s.Session.WaitPresent(ctx, jobkoreaPaging, s.Wait); err != nil {
		return errors.NewBrowser(config.SourceJobKorea, "search results did not load", err)
	}
	s.log().Info().Int("categories", min(jobkoreaMaxCategories, n)).Msg("Search submitted")
	return sleep(ctx, s.Settle)
}

// turnTo clicks the link of page n and checks the page became current. It
// reports false when there is no such page.
func (s *JobKoreaListSource) turnTo(ctx context.Context, n int) (bool, error) {
	link := fmt.Sprintf(`div.tplPagination a[data-page="%d"]`, n)
	if err := s.Session.Click(ctx, link, s.Wait/2); err != nil {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		s.log().Info().Int("page", n).Msg("No next page link, listing complete")
		return false, nil
	}

	now := fmt.Sprintf(`div.tplPagination span.now[data-page="%d"]`, n)
	if err := s.Session.WaitPresent(ctx, now, s.Wait); err != nil {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		s.log().Warn().Int("page", n).Msg("Page did not become current, listing complete")
		return false, nil
	}
	return true, sleep(ctx, s.Settle)
}

// NormalizeJobKoreaRow maps one result row to a listing record. Rows
// without a company or title link are dropped.
func NormalizeJobKoreaRow(baseURL string) Normalizer[*goquery.Selection] {
	return func(tr *goquery.Selection) *Record {
		company := tr.Find("td.tplCo a").First()
		title := tr.Find("td.tplTit strong a").First()
		href, ok := title.Attr("href")
		if company.Length() == 0 || !ok {
			return nil
		}

		cells := tr.Find("td.tplTit p.etc span.cell")
		cell := func(i int) any {
			if i >= cells.Length() {
				return nil
			}
			return strings.TrimSpace(cells.Eq(i).Text())
		}
		odd := tr.Find("td.odd").First()
		span := func(sel string) any {
			s := odd.Find(sel).First()
			if s.Length() == 0 {
				return nil
			}
			return strings.TrimSpace(s.Text())
		}

		return NewRecord().
			Set("회사명", strings.TrimSpace(company.Text())).
			Set("제목", strings.TrimSpace(title.Text())).
			Set("상세페이지_URL", baseURL+href).
			Set("경력", cell(0)).
			Set("학력", cell(1)).
			Set("지역", cell(2)).
			Set("고용형태", cell(3)).
			Set("급여", cell(4)).
			Set("직급", cell(5)).
			Set("등록일", span("span.time")).
			Set("마감일", span("span.date"))
	}
}

// NewJobKoreaCrawler lists jobkorea postings through the browser. With
// detail set, every posting page is rendered too and its fields merged with
// a _상세 suffix where they collide with listing columns.
func NewJobKoreaCrawler(src config.SourceConfig, session Session, detail bool, outputDir string) *Pipeline[*goquery.Selection] {
	list := &JobKoreaListSource{
		Session:   session,
		URL:       src.ListURL,
		UserAgent: src.UserAgent,
		Wait:      10 * time.Second,
		Settle:    2 * time.Second,
	}

	pacer := NewPacer(src.Delay, src.Jitter)
	p := &Pipeline[*goquery.Selection]{
		Name:     "JobKoreaCrawler",
		Provider: config.SourceJobKorea,
		IDKey:    "상세페이지_URL",
		Source: func() *Paginator[*goquery.Selection] {
			return NewPaginator(list.Page, PaginatorConfig{
				Mode:     ByPage,
				MaxPages: MaxPagesFor(src.TotalItems, src.PageSize),
				Pacer:    pacer,
			})
		},
		Normalize: NormalizeJobKoreaRow(src.DetailURL),
		Pacer:     pacer,
		Sink:      NewSink(config.SourceJobKorea),
		Output:    filepath.Join(outputDir, src.Output),
		Closers:   []io.Closer{session},
	}

	if detail {
		p.Enricher = &RenderEnricher{
			Session:  session,
			Provider: config.SourceJobKorea,
			URL:      func(rec *Record) string { return rec.String("상세페이지_URL") },
			Request: RenderRequest{
				UserAgent: src.UserAgent,
				Markers: []string{
					`div[data-sentry-component="RecruitmentGuidelines"]`,
					"#application-section",
					"#company-section",
				},
				Timeout:  15 * time.Second,
				Required: true,
				Settle:   3 * time.Second,
			},
			Spec:   jobkoreaDetail,
			Suffix: "_상세",
			Log:    logger.ForSource(config.SourceJobKorea),
		}
	}
	return p
}
