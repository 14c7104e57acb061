package crawler

import (
	"context"
	"fmt"
	"io"
	"time"

	"sjsage522/recruitcrawler/helpers"
	"sjsage522/recruitcrawler/logger"
)

// Pipeline is one source's run: page through the listing, normalize each
// item, optionally enrich it from its detail resource, then write the output
// file. Records are processed one at a time in listing order.
type Pipeline[T any] struct {
	Name     string
	Provider string
	IDKey    string // identifier column; records without one are not enriched

	Source    func() *Paginator[T]
	Normalize Normalizer[T]

	Enricher Enricher // nil writes listing records as they are
	Pacer    *Pacer   // shared by listing and detail requests

	Sink       *Sink
	Output     string
	Checkpoint *Checkpointer

	Errors  helpers.ErrorRecorder
	Log     *logger.Logger
	Closers []io.Closer // released when Run returns
}

// GetName, GetProvider and OutputPath satisfy Crawler
func (p *Pipeline[T]) GetName() string     { return p.Name }
func (p *Pipeline[T]) GetProvider() string { return p.Provider }
func (p *Pipeline[T]) OutputPath() string  { return p.Output }

func (p *Pipeline[T]) log() *logger.Logger {
	if p.Log == nil {
		p.Log = logger.ForSource(p.Provider)
	}
	return p.Log
}

func (p *Pipeline[T]) release() {
	for _, c := range p.Closers {
		if err := c.Close(); err != nil {
			p.log().Warn().Err(err).Msg("Failed to release resource")
		}
	}
}

// list drains the listing source. Any failure here is fatal for the run.
func (p *Pipeline[T]) list(ctx context.Context) ([]*Record, error) {
	pages := p.Source()
	var listed []*Record
	for pages.Next(ctx) {
		items := pages.Items()
		for _, item := range items {
			if rec := p.Normalize(item); rec != nil {
				listed = append(listed, rec)
			}
		}
		p.log().Debug().
			Int("page", pages.Cursor().Index).
			Int("items", len(items)).
			Int("total", len(listed)).
			Msg("Listing page fetched")
	}
	if err := pages.Err(); err != nil {
		return nil, fmt.Errorf("%s listing failed after %d records: %w", p.Name, len(listed), err)
	}
	return listed, nil
}

// enrich replaces one record with its enriched form, or with an error marker
// when the detail fetch fails
func (p *Pipeline[T]) enrich(ctx context.Context, rec *Record, id string) (*Record, error) {
	if s, ok := p.Enricher.(Screener); ok {
		if err := s.Screen(rec); err != nil {
			return p.marker(id, err), nil
		}
	}
	if err := p.Pacer.Wait(ctx); err != nil {
		return nil, err
	}
	enriched, err := p.Enricher.Enrich(ctx, rec)
	p.Pacer.Done()
	if err == nil {
		return enriched, nil
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	return p.marker(id, err), nil
}

func (p *Pipeline[T]) marker(id string, err error) *Record {
	p.log().Warn().Str("id", id).Err(err).Msg("Detail fetch failed")
	if p.Errors != nil {
		p.Errors.LogError(p.Name, fmt.Errorf("%s: %w", id, err))
	}
	return ErrorMarker{Key: p.IDKey, ID: id, Err: err}.Record()
}

// Run executes the pipeline, appends its output rows to buf and returns it.
// A listing failure or cancellation returns an error and writes nothing.
func (p *Pipeline[T]) Run(ctx context.Context, buf []*Record) ([]*Record, error) {
	defer p.release()
	start := time.Now()
	log := p.log()

	listed, err := p.list(ctx)
	if err != nil {
		return buf, err
	}
	log.Info().Int("records", len(listed)).Msg("Listing complete")

	first := len(buf)
	out := buf
	markers := 0
	for i, rec := range listed {
		if err := ctx.Err(); err != nil {
			return buf, err
		}

		if p.Enricher == nil {
			out = append(out, rec)
			continue
		}

		id := rec.String(p.IDKey)
		if id == "" {
			log.Debug().Int("index", i).Msg("Skipping record without identifier")
			continue
		}

		enriched, err := p.enrich(ctx, rec, id)
		if err != nil {
			return buf, err
		}
		if IsErrorMarker(enriched) {
			markers++
		}
		out = append(out, enriched)

		if err := p.Checkpoint.Observe(out[first:]); err != nil {
			log.Warn().Err(err).Msg("Checkpoint write failed")
		}
		if (i+1)%50 == 0 {
			log.Info().Int("done", i+1).Int("of", len(listed)).Msg("Enrichment progress")
		}
	}
	if err := p.Checkpoint.Flush(out[first:]); err != nil {
		log.Warn().Err(err).Msg("Checkpoint write failed")
	}

	rows := out[first:]
	if len(rows) == 0 {
		log.Warn().Msg("No records collected, nothing written")
		return out, nil
	}
	if _, err := p.Sink.Write(rows, p.Output); err != nil {
		return out, err
	}

	log.Info().
		Int("records", len(rows)).
		Int("errors", markers).
		Dur("elapsed", time.Since(start)).
		Str("output", p.Output).
		Msg("Crawl finished")
	return out, nil
}
