// Package viewer holds the reader viewer's live configuration: preference
// bindings and the tap-navigation layout.
package viewer

// NavigationMode selects the tap-region layout of the viewer.
type NavigationMode int

const (
	NavigationDefault NavigationMode = iota
	NavigationLShaped
	NavigationKindlish
	NavigationEdge
	NavigationRightAndLeft
	NavigationDisabled
)

func (m NavigationMode) String() string {
	switch m {
	case NavigationDefault:
		return "default"
	case NavigationLShaped:
		return "l-shaped"
	case NavigationKindlish:
		return "kindlish"
	case NavigationEdge:
		return "edge"
	case NavigationRightAndLeft:
		return "right-and-left"
	case NavigationDisabled:
		return "disabled"
	default:
		return "unknown"
	}
}

// Action is what a tap resolves to.
type Action int

const (
	ActionMenu Action = iota
	ActionPrev
	ActionNext
)

// Rect is a tap region in relative screen coordinates, 0..1 on both axes.
type Rect struct {
	Left, Top, Right, Bottom float64
}

func (r Rect) contains(x, y float64) bool {
	return x >= r.Left && x < r.Right && y >= r.Top && y < r.Bottom
}

type region struct {
	rect   Rect
	action Action
}

// Navigator resolves taps to navigation actions for one mode. Regions not
// covered by the layout fall through to the menu action. The invert flag
// swaps prev and next.
type Navigator struct {
	mode     NavigationMode
	inverted bool
	regions  []region
}

// NewNavigator builds the navigator for mode. Unrecognized modes, and the
// default mode itself, fall back to the L-shaped layout.
func NewNavigator(mode NavigationMode, inverted bool) *Navigator {
	resolved := mode
	var regions []region

	switch mode {
	case NavigationKindlish:
		regions = []region{
			{Rect{0, 0, 1, 0.33}, ActionMenu},
			{Rect{0, 0.33, 0.33, 1}, ActionPrev},
			{Rect{0.33, 0.33, 1, 1}, ActionNext},
		}
	case NavigationEdge:
		regions = []region{
			{Rect{0, 0, 0.33, 1}, ActionNext},
			{Rect{0.66, 0, 1, 1}, ActionNext},
		}
	case NavigationRightAndLeft:
		regions = []region{
			{Rect{0, 0, 0.5, 1}, ActionPrev},
			{Rect{0.5, 0, 1, 1}, ActionNext},
		}
	case NavigationDisabled:
		regions = nil
	case NavigationDefault, NavigationLShaped:
		resolved = NavigationLShaped
		regions = lShapedRegions()
	default:
		resolved = NavigationLShaped
		regions = lShapedRegions()
	}

	return &Navigator{
		mode:     resolved,
		inverted: inverted,
		regions:  regions,
	}
}

func lShapedRegions() []region {
	return []region{
		{Rect{0, 0, 0.33, 1}, ActionPrev},
		{Rect{0.33, 0.66, 0.66, 1}, ActionPrev},
		{Rect{0.66, 0, 1, 1}, ActionNext},
	}
}

func (n *Navigator) Mode() NavigationMode { return n.mode }

func (n *Navigator) Inverted() bool { return n.inverted }

func (n *Navigator) SetInverted(inverted bool) { n.inverted = inverted }

// Action resolves a tap at relative coordinates (x, y).
func (n *Navigator) Action(x, y float64) Action {
	for _, r := range n.regions {
		if !r.rect.contains(x, y) {
			continue
		}
		if n.inverted {
			switch r.action {
			case ActionPrev:
				return ActionNext
			case ActionNext:
				return ActionPrev
			}
		}
		return r.action
	}
	return ActionMenu
}
