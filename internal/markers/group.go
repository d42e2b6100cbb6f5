package markers

import "sort"

// DisplayGroup holds the displayed markers of one type.
type DisplayGroup struct {
	Type    string
	members map[string]*Marker
}

// NewDisplayGroup creates an empty group for markerType.
func NewDisplayGroup(markerType string) *DisplayGroup {
	return &DisplayGroup{Type: markerType, members: map[string]*Marker{}}
}

func (g *DisplayGroup) add(m *Marker) {
	g.members[m.id] = m
}

func (g *DisplayGroup) remove(m *Marker) {
	delete(g.members, m.id)
}

// Has reports whether the marker is displayed in the group.
func (g *DisplayGroup) Has(id string) bool {
	_, ok := g.members[id]
	return ok
}

// Len returns the number of displayed markers.
func (g *DisplayGroup) Len() int {
	return len(g.members)
}

// IDs lists displayed marker ids in order.
func (g *DisplayGroup) IDs() []string {
	out := make([]string, 0, len(g.members))
	for id := range g.members {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
