package crawler

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"sjsage522/recruitcrawler/config"
	"sjsage522/recruitcrawler/logger"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const jobkoreaListURL = "https://www.jobkorea.co.kr/recruit/joblist?menucode=duty"

func jobkoreaRow(company, href, title string, cells ...string) string {
	var etc strings.Builder
	for _, c := range cells {
		fmt.Fprintf(&etc, `<span class="cell">%s</span>`, c)
	}
	return fmt.Sprintf(`<tr class="devloopArea">
		<td class="tplCo"><a href="/company">%s</a></td>
		<td class="tplTit"><strong><a href="%s">%s</a></strong><p class="etc">%s</p></td>
		<td class="odd"><span class="time">2일 전 등록</span><span class="date">~10/30(목)</span></td>
	</tr>`, company, href, title, etc.String())
}

func jobkoreaResults(current int, next bool, rows ...string) string {
	pager := fmt.Sprintf(`<span class="now" data-page="%d">%d</span>`, current, current)
	if next {
		pager += fmt.Sprintf(`<a data-page="%d">%d</a>`, current+1, current+1)
	}
	return fmt.Sprintf(`<html><body>
		<div class="tplList tplJobList"><table>%s</table></div>
		<div id="dvGIPaging"><div class="tplPagination">%s</div></div>
	</body></html>`, strings.Join(rows, ""), pager)
}

// newJobKoreaSite wires the search form and two result pages into a mock
// session
func newJobKoreaSite() *mockSession {
	s := newMockSession()
	s.pages[jobkoreaListURL] = `<html><body><label for="duty_step1_10031">개발·데이터</label></body></html>`
	s.onClick[jobkoreaCategory] = `<html><body>
		<div id="duty_step2_10031_ly">
			<div class="item"><span class="lb_tag">백엔드</span></div>
			<div class="item"><span class="lb_tag">프론트엔드</span></div>
			<div class="item"><span class="lb_tag">DBA</span></div>
		</div>
		<button id="dev-btn-search">검색</button>
	</body></html>`
	s.onClick[jobkoreaSearch] = jobkoreaResults(1, true,
		jobkoreaRow("회사A", "/Recruit/GI_Read/1", "백엔드", "경력3년↑", "대졸↑", "서울 강남구", "정규직", "회사내규", "사원"),
		jobkoreaRow("회사B", "/Recruit/GI_Read/2", "프론트엔드", "신입"),
	)
	s.onClick[`div.tplPagination a[data-page="2"]`] = jobkoreaResults(2, false,
		jobkoreaRow("회사C", "/Recruit/GI_Read/3", "DBA", "경력무관"),
		`<tr class="devloopArea"><td class="tplCo"></td><td class="tplTit">광고</td></tr>`,
	)
	return s
}

func newTestListSource(s Session) *JobKoreaListSource {
	return &JobKoreaListSource{
		Session:   s,
		URL:       jobkoreaListURL,
		UserAgent: "test-agent",
		Wait:      time.Second,
		Log:       logger.Nop(),
	}
}

func TestJobKoreaListSource(t *testing.T) {
	s := newJobKoreaSite()
	list := newTestListSource(s)
	pages := NewPaginator(list.Page, PaginatorConfig{})

	var counts []int
	for pages.Next(context.Background()) {
		counts = append(counts, len(pages.Items()))
	}
	require.NoError(t, pages.Err())

	assert.Equal(t, []int{2, 2}, counts)
	assert.Equal(t, []string{"test-agent"}, s.userAgents)
	assert.Equal(t, []string{
		jobkoreaCategory,
		jobkoreaSubLabels, jobkoreaSubLabels, jobkoreaSubLabels,
		jobkoreaSearch,
		`div.tplPagination a[data-page="2"]`,
	}, s.clicked)
}

func TestJobKoreaListSourceSearchFailure(t *testing.T) {
	s := newMockSession()
	s.pages[jobkoreaListURL] = `<html><body>점검 중</body></html>`

	_, err := newTestListSource(s).Page(context.Background(), Cursor{Page: 1})
	assert.ErrorContains(t, err, "category filter")
}

func TestNormalizeJobKoreaRow(t *testing.T) {
	normalize := NormalizeJobKoreaRow("https://www.jobkorea.co.kr")
	rows := doc(jobkoreaResults(1, false,
		jobkoreaRow("회사A", "/Recruit/GI_Read/1", " 백엔드 ", "경력3년↑", "대졸↑", "서울 강남구", "정규직", "회사내규", "사원"),
		jobkoreaRow("회사B", "/Recruit/GI_Read/2", "프론트엔드", "신입"),
		`<tr class="devloopArea"><td class="tplCo"></td><td class="tplTit">광고</td></tr>`,
	)).Find("tr.devloopArea")

	full := normalize(rows.Eq(0))
	require.NotNil(t, full)
	assert.Equal(t, []string{"회사명", "제목", "상세페이지_URL", "경력", "학력", "지역", "고용형태", "급여", "직급", "등록일", "마감일"}, full.Keys())
	assert.Equal(t, "백엔드", full.String("제목"))
	assert.Equal(t, "https://www.jobkorea.co.kr/Recruit/GI_Read/1", full.String("상세페이지_URL"))
	assert.Equal(t, "서울 강남구", full.String("지역"))
	assert.Equal(t, "~10/30(목)", full.String("마감일"))

	short := normalize(rows.Eq(1))
	require.NotNil(t, short)
	assert.Equal(t, "신입", short.String("경력"))
	v, _ := short.Get("학력")
	assert.Nil(t, v)

	assert.Nil(t, normalize(rows.Eq(2)))
}

func TestJobKoreaRunWithDetail(t *testing.T) {
	s := newJobKoreaSite()
	s.pages["https://www.jobkorea.co.kr/Recruit/GI_Read/1"] = jobkoreaPostingHTML
	s.pages["https://www.jobkorea.co.kr/Recruit/GI_Read/3"] = jobkoreaPostingHTML

	src := config.SourceConfig{ListURL: jobkoreaListURL, DetailURL: "https://www.jobkorea.co.kr", Output: "jobkorea.csv"}
	p := NewJobKoreaCrawler(src, s, true, t.TempDir())
	list := newTestListSource(s)
	p.Source = func() *Paginator[*goquery.Selection] { return NewPaginator(list.Page, PaginatorConfig{}) }
	p.Enricher.(*RenderEnricher).Request.Settle = 0
	p.Log = logger.Nop()
	errs := &recorder{}
	p.Errors = errs

	records, err := p.Run(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, records, 3)

	first := records[0]
	assert.Equal(t, "백엔드", first.String("제목"))
	assert.Equal(t, "백엔드 개발자", first.String("제목_상세"))
	assert.Equal(t, "정규직", first.String("고용형태"))
	assert.Equal(t, "정규직 수습 3개월", first.String("고용형태_상세"))
	assert.Equal(t, "120명", first.String("사원수"))

	missing := records[1]
	assert.True(t, IsErrorMarker(missing))
	assert.Equal(t, "https://www.jobkorea.co.kr/Recruit/GI_Read/2", missing.String("상세페이지_URL"))
	assert.Contains(t, missing.String(ErrorField), "did not load")
	assert.Len(t, errs.errs, 1)

	assert.Equal(t, "DBA", records[2].String("제목"))
	assert.Equal(t, 1, s.closed)
	assert.Len(t, readCSV(t, p.OutputPath()), 4)
}

func TestJobKoreaWithoutDetail(t *testing.T) {
	p := NewJobKoreaCrawler(config.SourceConfig{Output: "jobkorea.csv"}, newMockSession(), false, "out")

	assert.Nil(t, p.Enricher)
	assert.Equal(t, "상세페이지_URL", p.IDKey)
	assert.Equal(t, "out/jobkorea.csv", p.OutputPath())
}
