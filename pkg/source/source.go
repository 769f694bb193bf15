// Package source defines the content-source capability interface and the
// registry of installed sources. A source is a pluggable content provider
// exposing paginated popular/search listings and per-item detail fetches.
package source

import "context"

type Status int

const (
	StatusUnknown Status = iota
	StatusOngoing
	StatusCompleted
	StatusLicensed
)

// Item is a network-origin catalog entry returned by a source.
// The URL is unique within a single source.
type Item struct {
	URL          string
	Title        string
	Author       string
	Description  string
	Genres       []string
	Status       Status
	ThumbnailURL string
}

// Page is one page of a source listing.
type Page struct {
	Items       []*Item
	HasNextPage bool
}

type Filter struct {
	Name  string
	Value string
}

type FilterList []Filter

func (f FilterList) Empty() bool { return len(f) == 0 }

type Source interface {
	// ID is the stable identifier of the source.
	ID() int64
	// Name is a short human-readable descriptor.
	// Example: "MangaDex"
	Name() string
	// Lang is the BCP-47 language tag of the source's content.
	Lang() string
	// FetchPopular returns one page of the popular listing. Pages start at 1.
	FetchPopular(ctx context.Context, page int) (*Page, error)
	// FetchSearch returns one page of results for the query and filters.
	FetchSearch(ctx context.Context, page int, query string, filters FilterList) (*Page, error)
	// FetchDetails fills in the missing metadata fields of an item.
	FetchDetails(ctx context.Context, item *Item) (*Item, error)
}
