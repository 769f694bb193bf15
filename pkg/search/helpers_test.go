package search

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/yomuapp/yomu/pkg/catalog"
	"github.com/yomuapp/yomu/pkg/source"
)

// fakeSource is a scripted source for orchestrator and pager tests.
type fakeSource struct {
	id   int64
	name string
	lang string

	popularFn func(ctx context.Context, page int) (*source.Page, error)
	searchFn  func(ctx context.Context, page int, query string) (*source.Page, error)
	detailsFn func(ctx context.Context, item *source.Item) (*source.Item, error)

	mu           sync.Mutex
	popularCalls int
	searchCalls  int
	detailCalls  int
}

func (s *fakeSource) ID() int64    { return s.id }
func (s *fakeSource) Name() string { return s.name }
func (s *fakeSource) Lang() string { return s.lang }

func (s *fakeSource) FetchPopular(ctx context.Context, page int) (*source.Page, error) {
	s.mu.Lock()
	s.popularCalls++
	s.mu.Unlock()

	if s.popularFn == nil {
		return &source.Page{}, nil
	}
	return s.popularFn(ctx, page)
}

func (s *fakeSource) FetchSearch(ctx context.Context, page int, query string, _ source.FilterList) (*source.Page, error) {
	s.mu.Lock()
	s.searchCalls++
	s.mu.Unlock()

	if s.searchFn == nil {
		return &source.Page{}, nil
	}
	return s.searchFn(ctx, page, query)
}

func (s *fakeSource) FetchDetails(ctx context.Context, item *source.Item) (*source.Item, error) {
	s.mu.Lock()
	s.detailCalls++
	s.mu.Unlock()

	if s.detailsFn == nil {
		return item, nil
	}
	return s.detailsFn(ctx, item)
}

func (s *fakeSource) counts() (popular, search, details int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.popularCalls, s.searchCalls, s.detailCalls
}

func pageOf(titles ...string) *source.Page {
	items := make([]*source.Item, len(titles))
	for i, t := range titles {
		items[i] = &source.Item{URL: "/manga/" + t, Title: t}
	}
	return &source.Page{Items: items, HasNextPage: true}
}

// fakeCatalog is an in-memory stand-in for the catalog store.
type fakeCatalog struct {
	mu      sync.Mutex
	records map[string]*catalog.Manga
	nextID  int64
	creates int
	upserts int
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{records: make(map[string]*catalog.Manga)}
}

func (c *fakeCatalog) key(sourceID int64, url string) string {
	return fmt.Sprintf("%d|%s", sourceID, url)
}

func (c *fakeCatalog) GetOrCreate(_ context.Context, m *catalog.Manga) (*catalog.Manga, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := c.key(m.SourceID, m.URL)
	if existing, ok := c.records[key]; ok {
		out := *existing
		return &out, nil
	}

	c.nextID++
	c.creates++
	stored := *m
	stored.ID = c.nextID
	c.records[key] = &stored

	out := stored
	return &out, nil
}

func (c *fakeCatalog) Upsert(_ context.Context, m *catalog.Manga) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := c.key(m.SourceID, m.URL)
	if existing, ok := c.records[key]; ok {
		m.ID = existing.ID
	} else {
		c.nextID++
		m.ID = c.nextID
	}

	stored := *m
	c.records[key] = &stored
	c.upserts++
	return nil
}

func (c *fakeCatalog) stats() (creates, upserts int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.creates, c.upserts
}

// fakeRegistry serves a fixed source list.
type fakeRegistry struct {
	sources []source.Source
	pinned  map[int64]bool
}

func (r *fakeRegistry) Enabled() []source.Source { return r.sources }

func (r *fakeRegistry) IsPinned(id int64) bool { return r.pinned[id] }

type enrichedEvent struct {
	src   source.Source
	manga *catalog.Manga
}

// recordingObserver captures every emission and signals them on channels
// so tests can wait without polling.
type recordingObserver struct {
	mu       sync.Mutex
	updates  [][]ResultGroup
	enriched []enrichedEvent

	updateCh chan []ResultGroup
	enrichCh chan enrichedEvent
}

func newRecordingObserver() *recordingObserver {
	return &recordingObserver{
		updateCh: make(chan []ResultGroup, 128),
		enrichCh: make(chan enrichedEvent, 128),
	}
}

func (o *recordingObserver) ResultsUpdated(groups []ResultGroup) {
	o.mu.Lock()
	o.updates = append(o.updates, groups)
	o.mu.Unlock()

	select {
	case o.updateCh <- groups:
	default:
	}
}

func (o *recordingObserver) ItemEnriched(src source.Source, manga *catalog.Manga) {
	ev := enrichedEvent{src: src, manga: manga}

	o.mu.Lock()
	o.enriched = append(o.enriched, ev)
	o.mu.Unlock()

	select {
	case o.enrichCh <- ev:
	default:
	}
}

func (o *recordingObserver) updateCount() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.updates)
}

func (o *recordingObserver) allUpdates() [][]ResultGroup {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([][]ResultGroup, len(o.updates))
	copy(out, o.updates)
	return out
}

func resolved(groups []ResultGroup) bool {
	for _, g := range groups {
		if g.Items == nil {
			return false
		}
	}
	return true
}

func testConfig() *Config {
	return &Config{
		Concurrency:     5,
		FetchTimeout:    time.Second,
		EnrichQueueSize: 16,
	}
}
