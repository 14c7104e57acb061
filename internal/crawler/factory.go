package crawler

import (
	"sjsage522/recruitcrawler/config"
	"sjsage522/recruitcrawler/helpers"
	"sjsage522/recruitcrawler/internal"
	"sjsage522/recruitcrawler/logger"
)

// CreateCrawlers creates the crawlers of cfg.Sources, in order
func CreateCrawlers(cfg *config.Config, deps internal.Dependencies) []Crawler {
	var crawlers []Crawler
	for _, name := range cfg.Sources {
		c := createCrawler(cfg, deps, name)
		if c == nil {
			logger.Warn("Unknown source %q skipped", name)
			continue
		}
		crawlers = append(crawlers, c)
	}

	logger.Info("Created %d crawlers", len(crawlers))
	for i, c := range crawlers {
		logger.Debug("Crawler %d: %s -> %s", i, c.GetName(), c.OutputPath())
	}
	return crawlers
}

func createCrawler(cfg *config.Config, deps internal.Dependencies, name string) Crawler {
	src := cfg.Source(name)
	if src == nil {
		return nil
	}

	switch name {
	case config.SourceJumpit:
		return attach(NewJumpitCrawler(*src, newFetcher(cfg, deps, name, *src), cfg.OutputDir), deps)
	case config.SourceWanted:
		return attach(NewWantedCrawler(*src, newFetcher(cfg, deps, name, *src), cfg.OutputDir), deps)
	case config.SourceJobKorea:
		session := NewChromeSession(name, cfg.ChromeHeadless)
		return attach(NewJobKoreaCrawler(*src, session, cfg.JobKoreaDetail, cfg.OutputDir), deps)
	case config.SourceGamejob:
		session := NewChromeSession(name, cfg.ChromeHeadless)
		return attach(NewGamejobCrawler(*src, session, cfg.GamejobInputFile, cfg.GamejobStartIndex,
			cfg.CheckpointSize, cfg.MarkerTimeout, cfg.OutputDir), deps)
	}
	return nil
}

// newFetcher creates the HTTP fetcher of an API source. With a cache, a
// 429/430 answer blocks the source under "<name>_rate_limited".
func newFetcher(cfg *config.Config, deps internal.Dependencies, name string, src config.SourceConfig) *helpers.Fetcher {
	f := helpers.NewFetcher(name, cfg.RequestTimeout)
	f.UserAgent = src.UserAgent
	if deps.Cache != nil {
		f.Cache = deps.Cache
		f.BlockKey = name + "_rate_limited"
		f.BlockTime = cfg.BlockTime
	}
	return f
}

func attach[T any](p *Pipeline[T], deps internal.Dependencies) *Pipeline[T] {
	p.Errors = deps.Errors
	return p
}
