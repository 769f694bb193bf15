package jsonapi

import (
	"context"
	"net/url"

	"github.com/rs/zerolog"

	"github.com/yomuapp/yomu/pkg/source"
)

// Source adapts one JSON-API deployment to the source capability interface.
type Source struct {
	id     int64
	name   string
	lang   string
	client *Client
	logger *zerolog.Logger
}

func NewSource(def Definition, logger *zerolog.Logger) *Source {
	l := logger.With().
		Int64("source_id", def.ID).
		Str("source_name", def.Name).
		Logger()

	return &Source{
		id:     def.ID,
		name:   def.Name,
		lang:   def.Lang,
		client: NewClient(def.BaseURL),
		logger: &l,
	}
}

func (s *Source) ID() int64    { return s.id }
func (s *Source) Name() string { return s.name }
func (s *Source) Lang() string { return s.lang }

func (s *Source) FetchPopular(ctx context.Context, page int) (*source.Page, error) {
	resp, err := s.client.Popular(ctx, page)
	if err != nil {
		return nil, err
	}
	return pageFromJSON(resp), nil
}

func (s *Source) FetchSearch(ctx context.Context, page int, query string, filters source.FilterList) (*source.Page, error) {
	params := url.Values{}
	for _, f := range filters {
		params.Add(f.Name, f.Value)
	}

	resp, err := s.client.Search(ctx, page, query, params)
	if err != nil {
		return nil, err
	}
	return pageFromJSON(resp), nil
}

func (s *Source) FetchDetails(ctx context.Context, item *source.Item) (*source.Item, error) {
	resp, err := s.client.Details(ctx, item.URL)
	if err != nil {
		return nil, err
	}
	return itemFromJSON(*resp), nil
}

func pageFromJSON(p *pageJSON) *source.Page {
	items := make([]*source.Item, len(p.Items))
	for i, it := range p.Items {
		items[i] = itemFromJSON(it)
	}
	return &source.Page{
		Items:       items,
		HasNextPage: p.HasNextPage,
	}
}

func itemFromJSON(it itemJSON) *source.Item {
	return &source.Item{
		URL:          it.URL,
		Title:        it.Title,
		Author:       it.Author,
		Description:  it.Description,
		Genres:       it.Genres,
		Status:       statusFromString(it.Status),
		ThumbnailURL: it.ThumbnailURL,
	}
}

func statusFromString(s string) source.Status {
	switch s {
	case "ongoing":
		return source.StatusOngoing
	case "completed":
		return source.StatusCompleted
	case "licensed":
		return source.StatusLicensed
	default:
		return source.StatusUnknown
	}
}
