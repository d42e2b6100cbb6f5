package icons

import (
	"sort"
	"strings"
	"sync"

	"github.com/goliatone/go-mapblocks/internal/domain"
	"github.com/goliatone/go-slug"
)

// Icon describes how markers of a given type are drawn.
type Icon struct {
	Type      string  `json:"type"`
	IconName  string  `json:"iconName,omitempty"`
	Color     string  `json:"color,omitempty"`
	Layer     bool    `json:"layer,omitempty"`
	Transform *Offset `json:"transform,omitempty"`
	IsImage   bool    `json:"isImage,omitempty"`
	ImageURL  string  `json:"imageUrl,omitempty"`
}

// Offset scales and shifts an icon drawn on top of the default marker.
type Offset struct {
	Size float64 `json:"size"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
}

// Registry resolves marker types to icons. The default icon is always present.
type Registry struct {
	mu    sync.RWMutex
	icons map[string]Icon
	order []string
}

// DefaultIcon is registered when a registry is built without one.
var DefaultIcon = Icon{Type: domain.DefaultMarkerType, IconName: "map-marker", Color: "#dddddd"}

// NewRegistry builds a registry seeded with the default icon and the supplied icons.
func NewRegistry(defaultIcon *Icon, icons ...Icon) *Registry {
	r := &Registry{icons: map[string]Icon{}}
	base := DefaultIcon
	if defaultIcon != nil {
		base = *defaultIcon
		base.Type = domain.DefaultMarkerType
	}
	r.Register(base)
	for _, icon := range icons {
		r.Register(icon)
	}
	return r
}

// Register adds or replaces an icon. Icons without a type are ignored.
func (r *Registry) Register(icon Icon) {
	key := registryKey(icon.Type)
	if key == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.icons[key]; !exists {
		r.order = append(r.order, key)
	}
	r.icons[key] = icon
}

// Lookup returns the icon registered for type.
func (r *Registry) Lookup(markerType string) (Icon, bool) {
	key := registryKey(markerType)
	r.mu.RLock()
	defer r.mu.RUnlock()
	icon, ok := r.icons[key]
	return icon, ok
}

// Resolve maps a marker type to a registered one. Empty, undefined and unknown
// types resolve to the default type; known reports whether the input matched.
func (r *Registry) Resolve(markerType string) (resolved string, known bool) {
	normalized := domain.NormalizeMarkerType(markerType)
	if normalized == domain.DefaultMarkerType {
		return domain.DefaultMarkerType, true
	}
	icon, ok := r.Lookup(normalized)
	if !ok {
		return domain.DefaultMarkerType, false
	}
	return icon.Type, true
}

// Types lists registered types in registration order.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.order))
	for _, key := range r.order {
		out = append(out, r.icons[key].Type)
	}
	return out
}

// Icons returns a sorted snapshot of the registered icons.
func (r *Registry) Icons() []Icon {
	r.mu.RLock()
	out := make([]Icon, 0, len(r.icons))
	for _, icon := range r.icons {
		out = append(out, icon)
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Type < out[j].Type })
	return out
}

func registryKey(markerType string) string {
	candidate := strings.TrimSpace(markerType)
	if candidate == "" {
		return ""
	}
	normalized, err := slug.Normalize(candidate)
	if err != nil || normalized == "" {
		return strings.ToLower(candidate)
	}
	return normalized
}
