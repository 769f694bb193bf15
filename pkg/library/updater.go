// Package library implements bulk maintenance of the user's library:
// refreshing detail metadata for favorited catalog records.
package library

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/yomuapp/yomu/pkg/catalog"
	"github.com/yomuapp/yomu/pkg/source"
)

type Config struct {
	// Concurrency bounds how many sources are refreshed at once.
	// Items within one source always refresh sequentially.
	Concurrency  int           `env:"LIBRARY_UPDATE_CONCURRENCY,default=3" validate:"required,min=1"`
	FetchTimeout time.Duration `env:"LIBRARY_FETCH_TIMEOUT,default=30s" validate:"required"`
}

type catalogStore interface {
	ListFavorites(ctx context.Context) ([]*catalog.Manga, error)
	Upsert(ctx context.Context, m *catalog.Manga) error
}

type sourceRegistry interface {
	Get(id int64) (source.Source, bool)
}

type Updater struct {
	store    catalogStore
	registry sourceRegistry
	config   *Config
	logger   *zerolog.Logger
}

func NewUpdater(logger *zerolog.Logger, config *Config, registry sourceRegistry, store catalogStore) *Updater {
	return &Updater{
		store:    store,
		registry: registry,
		config:   config,
		logger:   logger,
	}
}

// UpdateAll refreshes detail metadata for every favorited record, one
// goroutine per source bounded by Config.Concurrency. Per-item failures
// are logged and skipped; the pass keeps going.
func (u *Updater) UpdateAll(ctx context.Context) error {
	favorites, err := u.store.ListFavorites(ctx)
	if err != nil {
		return fmt.Errorf("list favorites: %w", err)
	}

	bySource := make(map[int64][]*catalog.Manga)
	for _, m := range favorites {
		bySource[m.SourceID] = append(bySource[m.SourceID], m)
	}

	u.logger.Info().
		Int("favorites", len(favorites)).
		Int("sources", len(bySource)).
		Msg("Starting library update")

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(u.config.Concurrency)

	for sourceID, mangas := range bySource {
		sourceID, mangas := sourceID, mangas
		eg.Go(func() error {
			src, ok := u.registry.Get(sourceID)
			if !ok {
				u.logger.Warn().
					Int64("source_id", sourceID).
					Msg("Source not installed, skipping its library entries")
				return nil
			}
			u.updateSource(ctx, src, mangas)
			return ctx.Err()
		})
	}

	return eg.Wait()
}

func (u *Updater) updateSource(ctx context.Context, src source.Source, mangas []*catalog.Manga) {
	for _, m := range mangas {
		if ctx.Err() != nil {
			return
		}

		fetchCtx, cancel := context.WithTimeout(ctx, u.config.FetchTimeout)
		details, err := src.FetchDetails(fetchCtx, m.ToNetwork())
		cancel()
		if err != nil {
			u.logger.Warn().
				Err(err).
				Int64("source_id", src.ID()).
				Str("url", m.URL).
				Msg("Library detail refresh failed")
			continue
		}

		m.ApplyDetails(details)
		if err := u.store.Upsert(ctx, m); err != nil {
			u.logger.Error().
				Err(err).
				Int64("manga_id", m.ID).
				Msg("Failed to persist refreshed record")
		}
	}
}
