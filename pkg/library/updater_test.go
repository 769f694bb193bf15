package library

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/yomuapp/yomu/pkg/catalog"
	"github.com/yomuapp/yomu/pkg/source"
)

type fakeStore struct {
	mu        sync.Mutex
	favorites []*catalog.Manga
	listErr   error
	upserted  []*catalog.Manga
	upsertErr error
}

func (s *fakeStore) ListFavorites(ctx context.Context) ([]*catalog.Manga, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	return s.favorites, nil
}

func (s *fakeStore) Upsert(ctx context.Context, m *catalog.Manga) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.upsertErr != nil {
		return s.upsertErr
	}
	s.upserted = append(s.upserted, m)
	return nil
}

func (s *fakeStore) upsertCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.upserted)
}

type fakeDetailSource struct {
	id        int64
	mu        sync.Mutex
	calls     []string
	detailsFn func(url string) (*source.Item, error)
}

func (s *fakeDetailSource) ID() int64    { return s.id }
func (s *fakeDetailSource) Name() string { return "fake" }
func (s *fakeDetailSource) Lang() string { return "en" }

func (s *fakeDetailSource) FetchPopular(ctx context.Context, page int) (*source.Page, error) {
	return nil, errors.New("not used")
}

func (s *fakeDetailSource) FetchSearch(ctx context.Context, page int, query string, filters source.FilterList) (*source.Page, error) {
	return nil, errors.New("not used")
}

func (s *fakeDetailSource) FetchDetails(ctx context.Context, item *source.Item) (*source.Item, error) {
	s.mu.Lock()
	s.calls = append(s.calls, item.URL)
	s.mu.Unlock()
	return s.detailsFn(item.URL)
}

type fakeLookup map[int64]source.Source

func (r fakeLookup) Get(id int64) (source.Source, bool) {
	src, ok := r[id]
	return src, ok
}

func favorite(id, sourceID int64, url string) *catalog.Manga {
	return &catalog.Manga{
		ID:       id,
		SourceID: sourceID,
		URL:      url,
		Title:    url,
		Favorite: true,
		AddedAt:  time.Now(),
	}
}

func newTestUpdater(store *fakeStore, lookup fakeLookup) *Updater {
	logger := zerolog.Nop()
	config := &Config{Concurrency: 3, FetchTimeout: time.Second}
	return NewUpdater(&logger, config, lookup, store)
}

func TestUpdateAll_AppliesFetchedDetails(t *testing.T) {
	src := &fakeDetailSource{
		id: 1,
		detailsFn: func(url string) (*source.Item, error) {
			return &source.Item{
				URL:         url,
				Author:      "Author of " + url,
				Status:      source.StatusOngoing,
				Description: "refreshed",
			}, nil
		},
	}
	store := &fakeStore{favorites: []*catalog.Manga{
		favorite(10, 1, "/manga/a"),
		favorite(11, 1, "/manga/b"),
	}}

	u := newTestUpdater(store, fakeLookup{1: src})
	if err := u.UpdateAll(context.Background()); err != nil {
		t.Fatalf("UpdateAll: %v", err)
	}

	if got := store.upsertCount(); got != 2 {
		t.Fatalf("upserted %d records, want 2", got)
	}
	for _, m := range store.upserted {
		if !m.Initialized {
			t.Errorf("record %s not marked initialized", m.URL)
		}
		if m.Description != "refreshed" {
			t.Errorf("record %s description = %q, want refreshed", m.URL, m.Description)
		}
	}
}

func TestUpdateAll_SkipsMissingSource(t *testing.T) {
	src := &fakeDetailSource{
		id: 1,
		detailsFn: func(url string) (*source.Item, error) {
			return &source.Item{URL: url, Author: "a"}, nil
		},
	}
	store := &fakeStore{favorites: []*catalog.Manga{
		favorite(10, 1, "/manga/a"),
		favorite(11, 99, "/manga/uninstalled"),
	}}

	u := newTestUpdater(store, fakeLookup{1: src})
	if err := u.UpdateAll(context.Background()); err != nil {
		t.Fatalf("UpdateAll: %v", err)
	}

	if got := store.upsertCount(); got != 1 {
		t.Fatalf("upserted %d records, want 1", got)
	}
	if store.upserted[0].URL != "/manga/a" {
		t.Errorf("upserted %q, want /manga/a", store.upserted[0].URL)
	}
}

func TestUpdateAll_ItemFailureDoesNotStopPass(t *testing.T) {
	src := &fakeDetailSource{
		id: 1,
		detailsFn: func(url string) (*source.Item, error) {
			if url == "/manga/bad" {
				return nil, errors.New("fetch failed")
			}
			return &source.Item{URL: url, Author: "a"}, nil
		},
	}
	store := &fakeStore{favorites: []*catalog.Manga{
		favorite(10, 1, "/manga/bad"),
		favorite(11, 1, "/manga/good"),
	}}

	u := newTestUpdater(store, fakeLookup{1: src})
	if err := u.UpdateAll(context.Background()); err != nil {
		t.Fatalf("UpdateAll: %v", err)
	}

	if len(src.calls) != 2 {
		t.Errorf("fetched %d items, want 2", len(src.calls))
	}
	if got := store.upsertCount(); got != 1 {
		t.Fatalf("upserted %d records, want 1", got)
	}
	if store.upserted[0].URL != "/manga/good" {
		t.Errorf("upserted %q, want /manga/good", store.upserted[0].URL)
	}
}

func TestUpdateAll_ListFailure(t *testing.T) {
	store := &fakeStore{listErr: errors.New("db closed")}
	u := newTestUpdater(store, fakeLookup{})
	if err := u.UpdateAll(context.Background()); err == nil {
		t.Fatal("expected error from ListFavorites, got nil")
	}
}

func TestUpdateAll_NoFavoritesIsNoOp(t *testing.T) {
	store := &fakeStore{}
	u := newTestUpdater(store, fakeLookup{})
	if err := u.UpdateAll(context.Background()); err != nil {
		t.Fatalf("UpdateAll: %v", err)
	}
	if got := store.upsertCount(); got != 0 {
		t.Errorf("upserted %d records, want 0", got)
	}
}
