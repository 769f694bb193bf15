package catalog

import (
	"time"

	"github.com/yomuapp/yomu/pkg/source"
)

// Manga is a locally persisted catalog record, keyed by (source id, URL).
// Initialized reports whether a detail fetch has completed for the record.
type Manga struct {
	ID           int64
	SourceID     int64
	URL          string
	Title        string
	Author       string
	Description  string
	Genres       []string
	Status       source.Status
	ThumbnailURL string
	Favorite     bool
	Initialized  bool
	AddedAt      time.Time
}

// FromNetwork builds a new local record from a network item, carrying only
// the base fields. Detail fields are filled in later by enrichment.
func FromNetwork(sourceID int64, item *source.Item) *Manga {
	return &Manga{
		SourceID: sourceID,
		URL:      item.URL,
		Title:    item.Title,
		AddedAt:  time.Now(),
	}
}

// ApplyDetails merges the fields of a detail fetch into the record and
// marks it initialized.
func (m *Manga) ApplyDetails(item *source.Item) {
	if item.Title != "" {
		m.Title = item.Title
	}
	if item.Author != "" {
		m.Author = item.Author
	}
	if item.Description != "" {
		m.Description = item.Description
	}
	if len(item.Genres) > 0 {
		m.Genres = item.Genres
	}
	if item.Status != source.StatusUnknown {
		m.Status = item.Status
	}
	if item.ThumbnailURL != "" {
		m.ThumbnailURL = item.ThumbnailURL
	}
	m.Initialized = true
}

// ToNetwork converts the record back into the source item shape expected
// by Source.FetchDetails.
func (m *Manga) ToNetwork() *source.Item {
	return &source.Item{
		URL:          m.URL,
		Title:        m.Title,
		Author:       m.Author,
		Description:  m.Description,
		Genres:       m.Genres,
		Status:       m.Status,
		ThumbnailURL: m.ThumbnailURL,
	}
}
