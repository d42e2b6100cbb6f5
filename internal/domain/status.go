package domain

// VisibilityState describes whether a marker is currently drawn on its map.
type VisibilityState string

const (
	// VisibilityShown marks markers drawn in their group
	VisibilityShown VisibilityState = "shown"
	// VisibilityHiddenZoom marks markers removed because the zoom left their range
	VisibilityHiddenZoom VisibilityState = "hidden_zoom"
	// VisibilityHiddenGroup marks markers removed because their group was retracted
	VisibilityHiddenGroup VisibilityState = "hidden_group"
)

// Hidden reports whether the state removes the marker from its group.
func (s VisibilityState) Hidden() bool {
	return s == VisibilityHiddenZoom || s == VisibilityHiddenGroup
}
