package search

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/yomuapp/yomu/pkg/catalog"
	"github.com/yomuapp/yomu/pkg/source"
)

func collectEnriched(t *testing.T, obs *recordingObserver, n int) []enrichedEvent {
	t.Helper()

	out := make([]enrichedEvent, 0, n)
	deadline := time.After(5 * time.Second)
	for len(out) < n {
		select {
		case ev := <-obs.enrichCh:
			out = append(out, ev)
		case <-deadline:
			t.Fatalf("timed out waiting for %d enriched items, got %d", n, len(out))
		}
	}
	return out
}

func TestEnricher_FiltersItemsNeedingDetails(t *testing.T) {
	logger := zerolog.Nop()

	src := &fakeSource{
		id:   1,
		name: "Src",
		lang: "en",
		detailsFn: func(_ context.Context, item *source.Item) (*source.Item, error) {
			item.ThumbnailURL = "https://img.example/" + item.Title
			item.Author = "author"
			return item, nil
		},
	}

	store := newFakeCatalog()
	obs := newRecordingObserver()
	e := newEnricher(&logger, testConfig(), store, obs)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go e.run(ctx)

	items := []*catalog.Manga{
		{ID: 1, SourceID: 1, URL: "/a", Title: "needs-details"},
		{ID: 2, SourceID: 1, URL: "/b", Title: "has-thumb", ThumbnailURL: "x"},
		{ID: 3, SourceID: 1, URL: "/c", Title: "initialized", Initialized: true},
	}
	e.submit(src, items)

	events := collectEnriched(t, obs, 1)

	if events[0].manga.Title != "needs-details" {
		t.Errorf("enriched wrong item: %s", events[0].manga.Title)
	}
	if !events[0].manga.Initialized {
		t.Error("enriched item should be marked initialized")
	}
	if events[0].manga.ThumbnailURL == "" {
		t.Error("enriched item should carry the fetched thumbnail")
	}

	if _, _, details := src.counts(); details != 1 {
		t.Errorf("got %d detail fetches, want 1", details)
	}
	if _, upserts := store.stats(); upserts != 1 {
		t.Errorf("got %d upserts, want 1", upserts)
	}

	// The batch's published items stay untouched; updates go out as copies.
	if items[0].Initialized {
		t.Error("original batch item should not be mutated")
	}
}

func TestEnricher_FailureDoesNotHaltBatch(t *testing.T) {
	logger := zerolog.Nop()

	src := &fakeSource{
		id:   1,
		name: "Src",
		lang: "en",
		detailsFn: func(_ context.Context, item *source.Item) (*source.Item, error) {
			if item.Title == "broken" {
				return nil, errors.New("boom")
			}
			item.ThumbnailURL = "https://img.example/ok"
			return item, nil
		},
	}

	store := newFakeCatalog()
	obs := newRecordingObserver()
	e := newEnricher(&logger, testConfig(), store, obs)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go e.run(ctx)

	e.submit(src, []*catalog.Manga{
		{ID: 1, SourceID: 1, URL: "/a", Title: "broken"},
		{ID: 2, SourceID: 1, URL: "/b", Title: "fine"},
	})

	events := collectEnriched(t, obs, 1)
	if events[0].manga.Title != "fine" {
		t.Errorf("expected the item after the failure to be enriched, got %s", events[0].manga.Title)
	}

	// Later batches keep flowing too.
	e.submit(src, []*catalog.Manga{
		{ID: 3, SourceID: 1, URL: "/c", Title: "later"},
	})
	events = collectEnriched(t, obs, 1)
	if events[0].manga.Title != "later" {
		t.Errorf("expected later batch to be processed, got %s", events[0].manga.Title)
	}
}

func TestEnricher_QueueOverflowDropsBatch(t *testing.T) {
	logger := zerolog.Nop()

	src := &fakeSource{id: 1, name: "Src", lang: "en"}
	cfg := testConfig()
	cfg.EnrichQueueSize = 1

	e := newEnricher(&logger, cfg, newFakeCatalog(), newRecordingObserver())

	// Not started: the queue fills and further submits must not block.
	done := make(chan struct{})
	go func() {
		e.submit(src, nil)
		e.submit(src, nil)
		e.submit(src, nil)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("submit blocked on a full queue")
	}
}
