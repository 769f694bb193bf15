package search

import "time"

type Config struct {
	// Concurrency bounds the number of source fetches in flight per search.
	Concurrency int `env:"SEARCH_CONCURRENCY,default=5" validate:"required,min=1"`
	// FetchTimeout applies to each individual source fetch.
	FetchTimeout time.Duration `env:"SEARCH_FETCH_TIMEOUT,default=20s" validate:"required"`
	// EnrichQueueSize caps the number of buffered enrichment batches.
	// Batches submitted past the cap are dropped (enrichment is best-effort).
	EnrichQueueSize int `env:"SEARCH_ENRICH_QUEUE_SIZE,default=128" validate:"required,min=1"`
}
