package source

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/rs/zerolog"

	"github.com/yomuapp/yomu/pkg/prefs"
)

type settingsStore interface {
	Strings(key string, def []string) []string
	Int64s(key string, def []int64) []int64
}

// Registry holds the installed sources and answers queries about which of
// them are enabled, ordered for display (pinned first, then alphabetical
// by name and language).
type Registry struct {
	mu     sync.RWMutex
	byID   map[int64]Source
	prefs  settingsStore
	logger *zerolog.Logger
}

func NewRegistry(logger *zerolog.Logger, prefs settingsStore) *Registry {
	return &Registry{
		byID:   make(map[int64]Source),
		prefs:  prefs,
		logger: logger,
	}
}

func (r *Registry) Register(s Source) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[s.ID()]; exists {
		return fmt.Errorf("source %d already registered", s.ID())
	}
	r.byID[s.ID()] = s

	r.logger.Debug().
		Int64("source_id", s.ID()).
		Str("source_name", s.Name()).
		Msg("Source registered")

	return nil
}

func (r *Registry) Get(id int64) (Source, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.byID[id]
	return s, ok
}

// All returns every installed source, ordered by name and language.
func (r *Registry) All() []Source {
	r.mu.RLock()
	out := make([]Source, 0, len(r.byID))
	for _, s := range r.byID {
		out = append(out, s)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return sortKey(out[i]) < sortKey(out[j])
	})
	return out
}

// Enabled returns the sources eligible for browsing and global search:
// filtered by the enabled-language set (empty set means all languages) and
// the disabled-source set, pinned sources first, ties broken by
// case-insensitive name+language.
func (r *Registry) Enabled() []Source {
	languages := r.prefs.Strings(prefs.KeyEnabledLanguages, nil)
	disabled := r.prefs.Int64s(prefs.KeyDisabledSources, nil)
	pinned := r.prefs.Int64s(prefs.KeyPinnedSources, nil)

	langSet := make(map[string]bool, len(languages))
	for _, l := range languages {
		langSet[l] = true
	}
	disabledSet := make(map[int64]bool, len(disabled))
	for _, id := range disabled {
		disabledSet[id] = true
	}
	pinnedSet := make(map[int64]bool, len(pinned))
	for _, id := range pinned {
		pinnedSet[id] = true
	}

	r.mu.RLock()
	out := make([]Source, 0, len(r.byID))
	for _, s := range r.byID {
		if len(langSet) > 0 && !langSet[s.Lang()] {
			continue
		}
		if disabledSet[s.ID()] {
			continue
		}
		out = append(out, s)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		pi, pj := pinnedSet[out[i].ID()], pinnedSet[out[j].ID()]
		if pi != pj {
			return pi
		}
		return sortKey(out[i]) < sortKey(out[j])
	})
	return out
}

func (r *Registry) IsPinned(id int64) bool {
	for _, p := range r.prefs.Int64s(prefs.KeyPinnedSources, nil) {
		if p == id {
			return true
		}
	}
	return false
}

// Filter returns the enabled sources whose name fuzzy-matches the query.
// An empty query matches everything.
func (r *Registry) Filter(query string) []Source {
	enabled := r.Enabled()
	if query == "" {
		return enabled
	}

	out := make([]Source, 0, len(enabled))
	for _, s := range enabled {
		if fuzzy.MatchNormalizedFold(query, s.Name()) {
			out = append(out, s)
		}
	}
	return out
}

func sortKey(s Source) string {
	return strings.ToLower(s.Name() + s.Lang())
}
