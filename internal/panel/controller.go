// Package panel decides whether the filter panel renders expanded or
// collapsed. The viewport class is an external signal supplied by the
// console on every call.
package panel

// State is the panel's visibility state.
type State string

const (
	Expanded  State = "expanded"
	Collapsed State = "collapsed"
)

// Viewport classifies the console's viewport width.
type Viewport string

const (
	ViewportWide   Viewport = "wide"
	ViewportNarrow Viewport = "narrow"
)

// Initial returns the state a freshly mounted panel starts in. Narrow
// viewports start collapsed so the report area gets the space.
func Initial(viewport Viewport) State {
	if viewport == ViewportNarrow {
		return Collapsed
	}
	return Expanded
}

// AfterGeneration returns the state following a report generation attempt.
// Only a successful generation on a narrow viewport collapses the panel;
// failures never move it.
func AfterGeneration(current State, viewport Viewport, succeeded bool) State {
	if succeeded && viewport == ViewportNarrow {
		return Collapsed
	}
	return current
}

// Toggle flips the state. Manual toggling is available on any viewport.
func Toggle(current State) State {
	if current == Collapsed {
		return Expanded
	}
	return Collapsed
}
