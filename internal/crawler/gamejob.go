package crawler

import (
	"io"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"sjsage522/recruitcrawler/config"
	"sjsage522/recruitcrawler/logger"
	"sjsage522/recruitcrawler/pkg/errors"
)

// ErrDomainMismatch is the marker message for input URLs of another site
const ErrDomainMismatch = "도메인 불일치로 건너뜀"

var gamejobDate = regexp.MustCompile(`:\s*(.*)`)

// gamejobOutline are the 모집요강 labels kept from a posting, in output order.
// 해당분야, 연령, 최종학력 and 성별 come from the 지원자격 table; 자격사항,
// 외국어 능력 and 자격증 from the nested 우대사항 list.
var gamejobOutline = []string{
	"모집분야", "해당키워드", "게임분야", "고용형태", "모집인원", "채용직급·직책", "급여조건",
	"해당분야", "연령", "최종학력", "성별", "자격사항", "외국어 능력", "자격증", "사전인터뷰",
}

func gamejobDetailSpec() DetailSpec {
	rules := []LabelRule{
		{Label: "지원자격", Expand: TableExpander},
		{Label: "우대사항", Expand: NestedListExpander},
		{Label: "게임분야", Transform: FontColorTransform("#5e42a6", "#ae489e")},
		{Label: "모집인원", Transform: BeforeSlashTransform},
		{Label: "모집분야", Transform: JoinLinksTransform},
		{Label: "채용직급·직책", Transform: JoinLinksTransform},
	}
	special := map[string]bool{"게임분야": true, "모집인원": true, "모집분야": true, "채용직급·직책": true}
	for _, label := range gamejobOutline {
		if !special[label] {
			rules = append(rules, LabelRule{Label: label})
		}
	}

	fields := append([]string{"수정일", "등록일"}, gamejobOutline...)
	fields = append(fields, "담당업무", "자격조건")
	return DetailSpec{
		Fields: fields,
		Selectors: []SelectorRule{
			{Selector: "div#gibReadTop p.date", Index: 0, Field: "수정일", Transform: RegexTransform(gamejobDate)},
			{Selector: "div#gibReadTop p.date", Index: 1, Field: "등록일", Transform: RegexTransform(gamejobDate)},
		},
		Tables: []LabelTable{{
			Root:      "#gibOutline",
			Container: "dl",
			Label:     "dt",
			Value:     "dd",
			Sibling:   true,
			Text:      VisibleTextTransform,
			Rules:     rules,
		}},
	}
}

// domainGuard rejects URLs that are not on host
func domainGuard(provider, host string) func(string) error {
	return func(u string) error {
		if host != "" && !strings.Contains(u, host) {
			return errors.NewValidation(provider, ErrDomainMismatch)
		}
		return nil
	}
}

// NormalizeURL wraps an input URL as a listing record
func NormalizeURL(u string) *Record {
	return NewRecord().Set("URL", u)
}

// NewGamejobCrawler renders every gamejob posting URL of an input file.
// Checkpoints of everything gathered so far are written after each chunk.
func NewGamejobCrawler(src config.SourceConfig, session Session, input string, start, checkpoint int, markerWait time.Duration, outputDir string) *Pipeline[string] {
	output := filepath.Join(outputDir, src.Output)
	pageSize := src.PageSize
	if pageSize <= 0 {
		pageSize = 100
	}
	sink := NewSink(config.SourceGamejob)

	p := &Pipeline[string]{
		Name:     "GamejobCrawler",
		Provider: config.SourceGamejob,
		IDKey:    "URL",
		Source: func() *Paginator[string] {
			in := &CSVSource{Path: input, Column: "URL", Start: start, Provider: config.SourceGamejob}
			return NewPaginator(in.Page(pageSize), PaginatorConfig{Mode: ByPage, PageSize: pageSize})
		},
		Normalize: NormalizeURL,
		Enricher: &RenderEnricher{
			Session:  session,
			Provider: config.SourceGamejob,
			URL:      func(rec *Record) string { return rec.String("URL") },
			Accept:   domainGuard(config.SourceGamejob, src.DetailURL),
			Request: RenderRequest{
				UserAgent: src.UserAgent,
				Markers:   []string{"#gibOutline"},
				Timeout:   markerWait,
				Settle:    2 * time.Second,
			},
			Spec: gamejobDetailSpec(),
			Frames: []FrameField{
				{ID: "GI_Work_Content", Field: "담당업무"},
				{ID: "GI_Comment", Field: "자격조건"},
			},
			Log: logger.ForSource(config.SourceGamejob),
		},
		Pacer:   NewPacer(src.Delay, src.Jitter),
		Sink:    sink,
		Output:  output,
		Closers: []io.Closer{session},
	}

	if checkpoint > 0 {
		p.Checkpoint = &Checkpointer{
			Sink:  sink,
			Base:  strings.TrimSuffix(output, filepath.Ext(output)) + "_checkpoint",
			Every: checkpoint,
		}
	}
	return p
}
