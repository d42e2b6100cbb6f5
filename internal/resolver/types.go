package resolver

import (
	"github.com/goliatone/go-mapblocks/internal/blockparams"
	"github.com/goliatone/go-mapblocks/internal/domain"
	"github.com/goliatone/go-mapblocks/internal/geo"
)

// MarkerTuple is the fixed-shape record a resolved marker is built from.
type MarkerTuple struct {
	Type        string   `json:"type"`
	Lat         float64  `json:"lat"`
	Long        float64  `json:"long"`
	Link        string   `json:"link"`
	Layer       string   `json:"layer,omitempty"`
	Command     bool     `json:"command"`
	GroupID     string   `json:"groupId,omitempty"`
	Description string   `json:"description,omitempty"`
	MinZoom     *float64 `json:"minZoom,omitempty"`
	MaxZoom     *float64 `json:"maxZoom,omitempty"`

	// Category and Source identify the declaration that produced the tuple.
	// Source is the document path for vault markers and the raw row otherwise.
	Category domain.Category `json:"category"`
	Source   string          `json:"source"`
}

// Loc returns the tuple position.
func (t MarkerTuple) Loc() geo.LatLng {
	return geo.LatLng{Lat: t.Lat, Lng: t.Long}
}

// OverlayTuple is the fixed-shape record a resolved overlay is built from.
type OverlayTuple struct {
	Color       string     `json:"color"`
	Loc         geo.LatLng `json:"loc"`
	Length      string     `json:"length"`
	Description string     `json:"description,omitempty"`
	GroupID     string     `json:"groupId,omitempty"`

	Category domain.Category `json:"category"`
	Source   string          `json:"source"`
}

// SourceIndex maps a document path to the group id each category produced.
type SourceIndex map[string]map[domain.Category]string

// Groups lists every group id contributed by path.
func (s SourceIndex) Groups(path string) []string {
	categories := s[path]
	out := make([]string, 0, len(categories))
	for _, id := range categories {
		out = append(out, id)
	}
	return out
}

// Merge copies other into s, replacing entries for the same document.
func (s SourceIndex) Merge(other SourceIndex) {
	for path, categories := range other {
		copied := make(map[domain.Category]string, len(categories))
		for category, id := range categories {
			copied[category] = id
		}
		s[path] = copied
	}
}

// Input lists the sources of immutable items for one map.
type Input struct {
	MapID          string
	Markers        []string
	CommandMarkers []string
	Tags           [][]string
	Files          []string
	Folders        []string
	LinksTo        []string
	LinksFrom      []string
	OverlayTag     string
	OverlayColor   string
	GeoJSON        []string
	Overlays       [][]any
}

// HasFileFilters reports whether cross-document resolution is needed.
func (in Input) HasFileFilters() bool {
	return len(in.Tags) > 0 || len(in.Files) > 0 || len(in.Folders) > 0 || len(in.LinksTo) > 0 || len(in.LinksFrom) > 0
}

// InputFromParams maps block parameters onto resolver input.
func InputFromParams(params blockparams.BlockParameters) Input {
	return Input{
		MapID:          params.ID,
		Markers:        params.Marker,
		CommandMarkers: params.CommandMarker,
		Tags:           params.MarkerTag,
		Files:          params.MarkerFile,
		Folders:        params.MarkerFolder,
		LinksTo:        params.LinksTo,
		LinksFrom:      params.LinksFrom,
		OverlayTag:     params.OverlayTag,
		OverlayColor:   params.OverlayColor,
		GeoJSON:        params.GeoJSON,
		Overlays:       params.Overlay,
	}
}

// Result is the outcome of one resolution pass.
type Result struct {
	Markers     []MarkerTuple      `json:"markers"`
	Overlays    []OverlayTuple     `json:"overlays"`
	GeoJSON     []geo.GeoJSONLayer `json:"geojson,omitempty"`
	SourceIndex SourceIndex        `json:"sourceIndex"`
	Warnings    []domain.Warning   `json:"warnings,omitempty"`
}
