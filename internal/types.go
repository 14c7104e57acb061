package internal

import (
	"sjsage522/recruitcrawler/helpers"
	"sjsage522/recruitcrawler/services/cache"
	"sjsage522/recruitcrawler/services/publisher"
)

// Dependencies holds the optional services a run is wired with. Nil
// members disable the feature they back.
type Dependencies struct {
	Cache     cache.CacheService
	Publisher publisher.Publisher
	Errors    helpers.ErrorRecorder
}
