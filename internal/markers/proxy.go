package markers

import (
	"strconv"
	"sync"

	"github.com/goliatone/go-mapblocks/internal/geo"
)

// Data attribute keys pushed onto the presentation proxy.
const (
	DataMarker      = "data-marker"
	DataType        = "data-type"
	DataLink        = "data-link"
	DataCommand     = "data-command"
	DataMutable     = "data-mutable"
	DataLayer       = "data-layer"
	DataDescription = "data-description"
)

// ProxyPatch is the full presentation state derived from a marker.
type ProxyPatch struct {
	Position  geo.LatLng
	Icon      string
	Draggable bool
	Tooltip   Tooltip
	Label     string
	Data      map[string]string
}

// Proxy stands in for the map library marker object. A proxy belongs to one
// marker and is updated only by applying patches.
type Proxy struct {
	mu      sync.RWMutex
	state   ProxyPatch
	applied int
}

// Apply replaces the proxy state with patch.
func (p *Proxy) Apply(patch ProxyPatch) {
	data := make(map[string]string, len(patch.Data))
	for key, value := range patch.Data {
		data[key] = value
	}
	patch.Data = data

	p.mu.Lock()
	p.state = patch
	p.applied++
	p.mu.Unlock()
}

// State returns a copy of the current proxy state.
func (p *Proxy) State() ProxyPatch {
	p.mu.RLock()
	defer p.mu.RUnlock()
	state := p.state
	state.Data = make(map[string]string, len(p.state.Data))
	for key, value := range p.state.Data {
		state.Data[key] = value
	}
	return state
}

// Attr reads one data attribute.
func (p *Proxy) Attr(key string) string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.state.Data[key]
}

// Applied counts the patches applied so far.
func (p *Proxy) Applied() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.applied
}

// SyncToPresentation derives the proxy patch for m. It is pure: calling it
// does not touch the proxy.
func SyncToPresentation(m *Marker, label DisplayLabel) ProxyPatch {
	data := map[string]string{
		DataMarker:  m.id,
		DataType:    m.markerType,
		DataLink:    m.target.Text,
		DataCommand: strconv.FormatBool(m.target.IsCommand()),
		DataMutable: strconv.FormatBool(m.mutable),
	}
	if m.layer != "" {
		data[DataLayer] = m.layer
	}
	if m.description != "" {
		data[DataDescription] = m.description
	}
	return ProxyPatch{
		Position:  m.loc,
		Icon:      m.icon,
		Draggable: m.mutable,
		Tooltip:   m.tooltip,
		Label:     label.Text,
		Data:      data,
	}
}
