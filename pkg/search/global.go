// Package search implements the browsing flows of the catalog layer: the
// global multi-source search orchestrator, the background detail enricher
// and the single-source pager.
package search

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/alitto/pond/v2"
	"github.com/rs/zerolog"

	"github.com/yomuapp/yomu/pkg/catalog"
	"github.com/yomuapp/yomu/pkg/source"
)

// Observer receives search results and enrichment updates.
//
// Callbacks are invoked synchronously from orchestrator goroutines and must
// not call back into the orchestrator.
type Observer interface {
	// ResultsUpdated delivers the full re-sorted group list after any
	// group resolves.
	ResultsUpdated(groups []ResultGroup)
	// ItemEnriched delivers one item whose details finished loading.
	ItemEnriched(src source.Source, manga *catalog.Manga)
}

// ResultGroup holds one source's results for the active query.
// Items is nil while the fetch is pending; an empty slice means the source
// returned no results.
type ResultGroup struct {
	Source source.Source
	Pinned bool
	Items  []*catalog.Manga
}

type catalogStore interface {
	GetOrCreate(ctx context.Context, m *catalog.Manga) (*catalog.Manga, error)
	Upsert(ctx context.Context, m *catalog.Manga) error
}

type sourceRegistry interface {
	Enabled() []source.Source
	IsPinned(id int64) bool
}

// GlobalSearch fans a query out across every enabled source, bounded to
// Config.Concurrency fetches in flight, reconciles network items against
// the local catalog and keeps the observer's group list sorted as results
// arrive. Failed source fetches resolve to empty groups.
type GlobalSearch struct {
	registry sourceRegistry
	store    catalogStore
	observer Observer
	pool     pond.Pool
	config   *Config
	logger   *zerolog.Logger

	mu         sync.Mutex
	generation uint64
	active     bool
	query      string
	groups     []*ResultGroup
	cancel     context.CancelFunc
	enricher   *Enricher
}

func NewGlobalSearch(
	logger *zerolog.Logger,
	config *Config,
	registry sourceRegistry,
	store catalogStore,
	observer Observer,
) *GlobalSearch {
	return &GlobalSearch{
		registry: registry,
		store:    store,
		observer: observer,
		pool:     pond.NewPool(config.Concurrency),
		config:   config,
		logger:   logger,
	}
}

// Search starts a global search for query. Re-issuing the currently active
// query is a no-op. A different query cancels the in-flight pipeline and
// its enricher; results of the replaced pipeline are discarded before they
// reach the observer, but catalog writes already issued stay in place.
func (g *GlobalSearch) Search(query string) {
	g.mu.Lock()

	if g.active && g.query == query {
		g.mu.Unlock()
		return
	}

	g.generation++
	gen := g.generation
	g.active = true
	g.query = query

	if g.cancel != nil {
		g.cancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	g.cancel = cancel

	enricher := newEnricher(g.logger, g.config, g.store, g.observer)
	g.enricher = enricher
	go enricher.run(ctx)

	sources := g.registry.Enabled()
	groups := make([]*ResultGroup, len(sources))
	for i, src := range sources {
		groups[i] = &ResultGroup{
			Source: src,
			Pinned: g.registry.IsPinned(src.ID()),
		}
	}
	g.groups = groups

	g.logger.Debug().
		Str("query", query).
		Int("sources", len(sources)).
		Msg("Starting global search")

	// Initial emission: every group pending, in registry order.
	g.observer.ResultsUpdated(g.snapshotLocked())
	g.mu.Unlock()

	for _, grp := range groups {
		grp := grp
		g.pool.Submit(func() {
			g.fetchGroup(ctx, gen, grp, query)
		})
	}
}

// Close cancels the active pipeline and waits for in-flight fetches.
func (g *GlobalSearch) Close() {
	g.mu.Lock()
	if g.cancel != nil {
		g.cancel()
	}
	g.active = false
	g.mu.Unlock()

	g.pool.StopAndWait()
}

func (g *GlobalSearch) fetchGroup(ctx context.Context, gen uint64, grp *ResultGroup, query string) {
	fetchCtx, cancel := context.WithTimeout(ctx, g.config.FetchTimeout)
	defer cancel()

	page, err := grp.Source.FetchSearch(fetchCtx, 1, query, nil)
	if err != nil {
		// Failed sources resolve to an empty group instead of aborting
		// the whole search.
		g.logger.Warn().
			Err(err).
			Int64("source_id", grp.Source.ID()).
			Str("source_name", grp.Source.Name()).
			Msg("Source fetch failed, substituting empty page")
		page = &source.Page{}
	}

	items := make([]*catalog.Manga, 0, len(page.Items))
	for _, it := range page.Items {
		local, err := g.networkToLocal(ctx, grp.Source.ID(), it)
		if err != nil {
			g.logger.Error().
				Err(err).
				Int64("source_id", grp.Source.ID()).
				Str("url", it.URL).
				Msg("Failed to reconcile item with catalog")
			continue
		}
		items = append(items, local)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	// A newer search replaced this pipeline: discard instead of publishing.
	if gen != g.generation {
		return
	}

	grp.Items = items
	g.sortLocked()
	g.enricher.submit(grp.Source, items)
	g.observer.ResultsUpdated(g.snapshotLocked())
}

// networkToLocal resolves a network item against the local catalog,
// creating and persisting a record with the item's base fields when the
// (source id, URL) key is new. The returned record carries the local ID.
func (g *GlobalSearch) networkToLocal(ctx context.Context, sourceID int64, item *source.Item) (*catalog.Manga, error) {
	return g.store.GetOrCreate(ctx, catalog.FromNetwork(sourceID, item))
}

// sortLocked re-sorts the group list: groups with no results sink to the
// bottom, pinned sources sort first among the rest, ties broken by
// case-insensitive name+language.
func (g *GlobalSearch) sortLocked() {
	sort.SliceStable(g.groups, func(i, j int) bool {
		gi, gj := g.groups[i], g.groups[j]

		ei, ej := len(gi.Items) == 0, len(gj.Items) == 0
		if ei != ej {
			return !ei
		}
		if gi.Pinned != gj.Pinned {
			return gi.Pinned
		}
		return groupKey(gi) < groupKey(gj)
	})
}

func (g *GlobalSearch) snapshotLocked() []ResultGroup {
	out := make([]ResultGroup, len(g.groups))
	for i, grp := range g.groups {
		out[i] = *grp
	}
	return out
}

func groupKey(g *ResultGroup) string {
	return strings.ToLower(g.Source.Name() + g.Source.Lang())
}
