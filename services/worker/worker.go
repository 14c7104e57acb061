package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"sjsage522/recruitcrawler/helpers"
	"sjsage522/recruitcrawler/internal/crawler"
	"sjsage522/recruitcrawler/logger"
	"sjsage522/recruitcrawler/services/publisher"

	"github.com/google/uuid"
)

// Envelope is one published output row
type Envelope struct {
	RunID  string          `json:"run_id"`
	Source string          `json:"source"`
	Record *crawler.Record `json:"record"`
}

// Result is the outcome of one crawler
type Result struct {
	Name    string
	Records int
	Err     error
	Elapsed time.Duration
}

// Worker runs the configured crawlers once, one after another
type Worker struct {
	crawlers  []crawler.Crawler
	publisher publisher.Publisher
	errors    helpers.ErrorRecorder
	runID     string
	log       *logger.Logger
}

// NewWorker creates a new worker. pub may be nil to disable publishing.
func NewWorker(crawlers []crawler.Crawler, pub publisher.Publisher, errs helpers.ErrorRecorder) *Worker {
	runID := uuid.NewString()
	return &Worker{
		crawlers:  crawlers,
		publisher: pub,
		errors:    errs,
		runID:     runID,
		log:       logger.ForWorker().WithStr("run_id", runID),
	}
}

// RunID identifies this run in logs and published rows
func (w *Worker) RunID() string {
	return w.runID
}

// Run executes every crawler. A failing crawler is logged and the next one
// still runs; the returned error joins all failures.
func (w *Worker) Run(ctx context.Context) ([]Result, error) {
	start := time.Now()
	results := make([]Result, 0, len(w.crawlers))
	var errs []error

	for _, c := range w.crawlers {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		res := w.crawlAndPublish(ctx, c)
		if res.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", res.Name, res.Err))
		}
		results = append(results, res)
	}

	if w.publisher != nil {
		if err := w.publisher.TrimStreams(ctx); err != nil {
			w.log.Warn().Err(err).Msg("Stream trimming failed")
		}
	}

	w.log.Info().
		Int("crawlers", len(results)).
		Int("failed", len(errs)).
		Dur("elapsed", time.Since(start)).
		Msg("Run finished")
	return results, errors.Join(errs...)
}

// crawlAndPublish runs one crawler and publishes its output rows
func (w *Worker) crawlAndPublish(ctx context.Context, c crawler.Crawler) Result {
	name := c.GetName()
	start := time.Now()
	w.log.Info().Str("crawler", name).Msg("Crawler started")

	records, err := c.Run(ctx, nil)
	res := Result{Name: name, Records: len(records), Err: err, Elapsed: time.Since(start)}
	if err != nil {
		w.log.Error().Str("crawler", name).Err(err).Msg("Crawler failed")
		if w.errors != nil {
			w.errors.LogError(name, err)
		}
		return res
	}

	published := w.publish(ctx, c.GetProvider(), records)
	w.log.Info().
		Str("crawler", name).
		Int("records", len(records)).
		Int("published", published).
		Dur("elapsed", res.Elapsed).
		Msg("Crawler finished")
	return res
}

func (w *Worker) publish(ctx context.Context, source string, records []*crawler.Record) int {
	if w.publisher == nil {
		return 0
	}
	n := 0
	for _, rec := range records {
		data, err := json.Marshal(Envelope{RunID: w.runID, Source: source, Record: rec})
		if err != nil {
			w.log.Warn().Err(err).Msg("Failed to encode record")
			continue
		}
		if err := w.publisher.Publish(ctx, source, data); err != nil {
			w.log.Warn().Err(err).Msg("Failed to publish record")
			if ctx.Err() != nil {
				break
			}
			continue
		}
		n++
	}
	return n
}
