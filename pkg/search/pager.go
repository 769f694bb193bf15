package search

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/yomuapp/yomu/pkg/source"
)

// ErrNoResults is the terminal no-results condition of a pager: the source
// returned an empty page and no further page advances will happen.
var ErrNoResults = errors.New("no results found")

// Pager is a stateful cursor over one source's paginated listing. It uses
// the popular listing when both query and filters are empty and the search
// listing otherwise. Page advances are strictly sequential; an empty page
// or a failed fetch ends pagination permanently.
type Pager struct {
	src     source.Source
	query   string
	filters source.FilterList

	mu       sync.Mutex
	page     int
	hasNext  bool
	finished bool
}

func NewPager(src source.Source, query string, filters source.FilterList) *Pager {
	return &Pager{
		src:     src,
		query:   query,
		filters: filters,
		page:    1,
		hasNext: true,
	}
}

// RequestNext fetches the page at the current cursor and advances it.
// Returns ErrNoResults when the source has nothing (more) to offer.
func (p *Pager) RequestNext(ctx context.Context) (*source.Page, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.finished {
		return nil, ErrNoResults
	}

	var (
		page *source.Page
		err  error
	)
	if p.query == "" && p.filters.Empty() {
		page, err = p.src.FetchPopular(ctx, p.page)
	} else {
		page, err = p.src.FetchSearch(ctx, p.page, p.query, p.filters)
	}
	if err != nil {
		p.finished = true
		return nil, fmt.Errorf("fetch page %d: %w", p.page, err)
	}

	if len(page.Items) == 0 {
		p.finished = true
		return nil, ErrNoResults
	}

	p.page++
	p.hasNext = page.HasNextPage
	return page, nil
}

// HasNext reports whether another RequestNext call may yield results.
func (p *Pager) HasNext() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.hasNext && !p.finished
}
