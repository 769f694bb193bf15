package viewer

import (
	"github.com/rs/zerolog"

	"github.com/yomuapp/yomu/pkg/prefs"
)

type preferenceStore interface {
	Bool(key string, def bool) bool
	Int(key string, def int) int
	Watch(key string, fn func()) func()
}

// Config mirrors the viewer-related preference keys into live fields.
// Each binding applies the stored value immediately on construction,
// invokes its callback once, and re-applies on every later change to its
// own key. Navigation-mode changes rebuild the Navigator; tap-inversion
// changes flip the live Navigator in place (the construction-time emission
// of the navigation callback is skipped for tap inversion).
//
// Callbacks run on whichever goroutine changed the preference; the caller
// is expected to marshal side effects onto its UI context.
type Config struct {
	CropBorders    bool
	SidePadding    int
	NavigationMode NavigationMode
	InvertTaps     bool
	DualPageSplit  bool
	DualPageInvert bool

	Navigator *Navigator

	store  preferenceStore
	logger *zerolog.Logger

	propertyChanged   func()
	navigationChanged func()

	cancels []func()
}

type binding struct {
	key   string
	apply func(initial bool)
}

func NewConfig(store preferenceStore, logger *zerolog.Logger, propertyChanged, navigationChanged func()) *Config {
	c := &Config{
		store:             store,
		logger:            logger,
		propertyChanged:   propertyChanged,
		navigationChanged: navigationChanged,
	}

	// Tap inversion binds before navigation mode so the first navigator
	// build sees the stored flag.
	bindings := []binding{
		{prefs.KeyInvertTaps, c.applyInvertTaps},
		{prefs.KeyNavigationMode, c.applyNavigationMode},
		{prefs.KeyCropBorders, c.applyCropBorders},
		{prefs.KeySidePadding, c.applySidePadding},
		{prefs.KeyDualPageSplit, c.applyDualPageSplit},
		{prefs.KeyDualPageInvert, c.applyDualPageInvert},
	}

	for _, b := range bindings {
		b := b
		b.apply(true)
		c.cancels = append(c.cancels, store.Watch(b.key, func() {
			b.apply(false)
		}))
	}

	return c
}

// Close unregisters every preference binding.
func (c *Config) Close() {
	for _, cancel := range c.cancels {
		cancel()
	}
	c.cancels = nil
}

func (c *Config) applyCropBorders(bool) {
	c.CropBorders = c.store.Bool(prefs.KeyCropBorders, false)
	c.notifyProperty()
}

func (c *Config) applySidePadding(bool) {
	c.SidePadding = c.store.Int(prefs.KeySidePadding, 0)
	c.notifyProperty()
}

func (c *Config) applyDualPageSplit(bool) {
	c.DualPageSplit = c.store.Bool(prefs.KeyDualPageSplit, false)
	c.notifyProperty()
}

func (c *Config) applyDualPageInvert(bool) {
	c.DualPageInvert = c.store.Bool(prefs.KeyDualPageInvert, false)
	c.notifyProperty()
}

func (c *Config) applyNavigationMode(bool) {
	c.NavigationMode = NavigationMode(c.store.Int(prefs.KeyNavigationMode, int(NavigationDefault)))
	c.Navigator = NewNavigator(c.NavigationMode, c.InvertTaps)

	c.logger.Debug().
		Stringer("mode", c.Navigator.Mode()).
		Msg("Rebuilt viewer navigator")

	c.notifyNavigation()
}

func (c *Config) applyInvertTaps(initial bool) {
	c.InvertTaps = c.store.Bool(prefs.KeyInvertTaps, false)
	if c.Navigator != nil {
		c.Navigator.SetInverted(c.InvertTaps)
	}
	if !initial {
		c.notifyNavigation()
	}
}

func (c *Config) notifyProperty() {
	if c.propertyChanged != nil {
		c.propertyChanged()
	}
}

func (c *Config) notifyNavigation() {
	if c.navigationChanged != nil {
		c.navigationChanged()
	}
}
