package crawler

import (
	"context"
	"strings"

	"sjsage522/recruitcrawler/helpers"
	"sjsage522/recruitcrawler/logger"
	"sjsage522/recruitcrawler/pkg/errors"

	"github.com/PuerkitoBio/goquery"
)

// FrameField copies an iframe's body text into Field
type FrameField struct {
	ID    string
	Field string
}

// RenderEnricher loads a record's detail page in a browser session and
// merges the fields its DetailSpec extracts from the rendered markup
type RenderEnricher struct {
	Session  Session
	Provider string
	URL      func(rec *Record) string
	Accept   func(url string) error // optional guard run before the browser is touched
	Request  RenderRequest          // URL and an empty UserAgent are filled per record
	Spec     DetailSpec
	Frames   []FrameField
	Suffix   string // detail fields colliding with listing columns get this suffix
	Log      *logger.Logger
}

// Screen runs the Accept guard on the record's URL
func (e *RenderEnricher) Screen(rec *Record) error {
	if e.Accept == nil {
		return nil
	}
	return e.Accept(e.URL(rec))
}

// Enrich renders the record's page and merges the extracted fields
func (e *RenderEnricher) Enrich(ctx context.Context, rec *Record) (*Record, error) {
	if err := e.Screen(rec); err != nil {
		return nil, err
	}
	target := e.URL(rec)

	req := e.Request
	req.Provider = e.Provider
	req.URL = target
	if req.UserAgent == "" {
		req.UserAgent = helpers.RandomUserAgent()
	}
	for _, f := range e.Frames {
		req.Frames = append(req.Frames, f.ID)
	}

	res, err := Render(ctx, e.Session, req)
	if err != nil {
		return nil, err
	}
	if res.Degraded && e.Log != nil {
		e.Log.Warn().Str("url", target).Strs("missing", res.Missing).Msg("Page content did not load in time, extracting what is there")
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(res.HTML))
	if err != nil {
		return nil, errors.NewParsing(e.Provider, "failed to parse rendered page", err)
	}
	detail := e.Spec.Extract(doc.Selection)
	for _, f := range e.Frames {
		detail.SetText(f.Field, res.Frames[f.ID])
	}

	if e.Suffix != "" {
		return rec.Clone().MergeSuffixed(detail, e.Suffix), nil
	}
	return rec.Clone().Merge(detail), nil
}
