package search

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/yomuapp/yomu/pkg/catalog"
	"github.com/yomuapp/yomu/pkg/source"
)

type enrichBatch struct {
	src   source.Source
	items []*catalog.Manga
}

// Enricher fills in missing detail fields (thumbnail, author, ...) for
// freshly surfaced items without blocking result display. Items within a
// batch are processed sequentially to avoid hammering a single source.
// One enricher runs per search pipeline; a new search replaces it.
type Enricher struct {
	queue    chan enrichBatch
	store    catalogStore
	observer Observer
	config   *Config
	logger   *zerolog.Logger
}

func newEnricher(logger *zerolog.Logger, config *Config, store catalogStore, observer Observer) *Enricher {
	return &Enricher{
		queue:    make(chan enrichBatch, config.EnrichQueueSize),
		store:    store,
		observer: observer,
		config:   config,
		logger:   logger,
	}
}

// submit queues a batch for enrichment. Filtering to items that actually
// need details happens on the consuming side. When the queue is full the
// batch is dropped: enrichment is best-effort.
func (e *Enricher) submit(src source.Source, items []*catalog.Manga) {
	select {
	case e.queue <- enrichBatch{src: src, items: items}:
	default:
		e.logger.Warn().
			Int64("source_id", src.ID()).
			Int("items", len(items)).
			Msg("Enrichment queue full, dropping batch")
	}
}

func (e *Enricher) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case batch := <-e.queue:
			e.process(ctx, batch)
		}
	}
}

func (e *Enricher) process(ctx context.Context, batch enrichBatch) {
	for _, m := range batch.items {
		if ctx.Err() != nil {
			return
		}
		if m.ThumbnailURL != "" || m.Initialized {
			continue
		}

		// Work on a copy so published result snapshots are never mutated
		// concurrently.
		record := *m

		fetchCtx, cancel := context.WithTimeout(ctx, e.config.FetchTimeout)
		details, err := batch.src.FetchDetails(fetchCtx, record.ToNetwork())
		cancel()
		if err != nil {
			// Per-item failures never halt the batch or the queue.
			e.logger.Warn().
				Err(err).
				Int64("source_id", batch.src.ID()).
				Str("url", record.URL).
				Msg("Detail fetch failed")
			continue
		}

		record.ApplyDetails(details)

		if err := e.store.Upsert(ctx, &record); err != nil {
			e.logger.Error().
				Err(err).
				Int64("manga_id", record.ID).
				Msg("Failed to persist enriched item")
			continue
		}

		if ctx.Err() != nil {
			return
		}
		e.observer.ItemEnriched(batch.src, &record)
	}
}
