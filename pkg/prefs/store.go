// Package prefs implements a key-value preference store with per-key
// change notification. Values are JSON-encoded strings; an optional
// backend persists them across restarts.
package prefs

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/rs/zerolog"
)

// Preference keys shared across the browsing and viewer layers.
const (
	KeyEnabledLanguages = "enabled_languages"
	KeyDisabledSources  = "disabled_sources"
	KeyPinnedSources    = "pinned_sources"

	KeyCropBorders    = "crop_borders"
	KeySidePadding    = "side_padding"
	KeyNavigationMode = "navigation_mode"
	KeyInvertTaps     = "invert_taps"
	KeyDualPageSplit  = "dual_page_split"
	KeyDualPageInvert = "dual_page_invert"
)

// Backend persists preference values. Saves are best-effort: a failed
// save is logged by the store and does not fail the Set call.
type Backend interface {
	LoadSettings(ctx context.Context) (map[string]string, error)
	SaveSetting(ctx context.Context, key, value string) error
}

type Store struct {
	mu        sync.RWMutex
	values    map[string]string
	watchers  map[string]map[int]func()
	watcherID int

	backend Backend
	logger  *zerolog.Logger
}

// NewStore creates a preference store. When backend is non-nil, previously
// persisted values are loaded before the store is returned.
func NewStore(backend Backend, logger *zerolog.Logger) (*Store, error) {
	s := &Store{
		values:   make(map[string]string),
		watchers: make(map[string]map[int]func()),
		backend:  backend,
		logger:   logger,
	}

	if backend != nil {
		stored, err := backend.LoadSettings(context.Background())
		if err != nil {
			return nil, err
		}
		for k, v := range stored {
			s.values[k] = v
		}
	}

	return s, nil
}

// Watch registers fn to run after every change to key. Other keys never
// trigger fn. The returned func cancels the registration.
func (s *Store) Watch(key string, fn func()) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.watcherID++
	id := s.watcherID

	if s.watchers[key] == nil {
		s.watchers[key] = make(map[int]func())
	}
	s.watchers[key][id] = fn

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.watchers[key], id)
	}
}

func (s *Store) Bool(key string, def bool) bool {
	v := def
	s.get(key, &v)
	return v
}

func (s *Store) Int(key string, def int) int {
	v := def
	s.get(key, &v)
	return v
}

func (s *Store) String(key string, def string) string {
	v := def
	s.get(key, &v)
	return v
}

func (s *Store) Strings(key string, def []string) []string {
	v := def
	s.get(key, &v)
	return v
}

func (s *Store) Int64s(key string, def []int64) []int64 {
	v := def
	s.get(key, &v)
	return v
}

func (s *Store) SetBool(key string, v bool)        { s.set(key, v) }
func (s *Store) SetInt(key string, v int)          { s.set(key, v) }
func (s *Store) SetString(key string, v string)    { s.set(key, v) }
func (s *Store) SetStrings(key string, v []string) { s.set(key, v) }
func (s *Store) SetInt64s(key string, v []int64)   { s.set(key, v) }

func (s *Store) get(key string, out any) {
	s.mu.RLock()
	raw, ok := s.values[key]
	s.mu.RUnlock()

	if !ok {
		return
	}

	if err := json.Unmarshal([]byte(raw), out); err != nil {
		s.logger.Warn().
			Err(err).
			Str("key", key).
			Msg("Failed to decode stored preference, using default")
	}
}

func (s *Store) set(key string, v any) {
	raw, err := json.Marshal(v)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("key", key).
			Msg("Failed to encode preference")
		return
	}

	s.mu.Lock()
	// Setting an unchanged value is a no-op: no persistence, no notification.
	if existing, ok := s.values[key]; ok && existing == string(raw) {
		s.mu.Unlock()
		return
	}
	s.values[key] = string(raw)

	fns := make([]func(), 0, len(s.watchers[key]))
	for _, fn := range s.watchers[key] {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	if s.backend != nil {
		if err := s.backend.SaveSetting(context.Background(), key, string(raw)); err != nil {
			s.logger.Error().
				Err(err).
				Str("key", key).
				Msg("Failed to persist preference")
		}
	}

	for _, fn := range fns {
		fn()
	}
}
