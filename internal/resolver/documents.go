package resolver

import (
	"fmt"
	"strings"

	"github.com/goliatone/go-mapblocks/internal/distance"
	"github.com/goliatone/go-mapblocks/internal/domain"
	"github.com/goliatone/go-mapblocks/internal/geo"
	"github.com/goliatone/go-mapblocks/pkg/interfaces"
)

const (
	fieldLocation   = "location"
	fieldMapMarker  = "mapmarker"
	fieldMapMarkers = "mapmarkers"
	fieldMapOverlay = "mapoverlay"
	fieldMapZoom    = "mapzoom"
)

// eligible reports whether a note takes part in cross-document resolution.
func eligible(doc *interfaces.Document) bool {
	return doc != nil && (doc.FrontMatter.Has(fieldLocation) || doc.FrontMatter.Has(fieldMapOverlay))
}

// documentItems holds what a single note contributes to a map.
type documentItems struct {
	markers  []MarkerTuple
	overlays []OverlayTuple
	groups   map[domain.Category]string
	warnings []domain.Warning
}

func (r *Resolver) documentItems(doc *interfaces.Document, in Input) documentItems {
	items := documentItems{groups: map[domain.Category]string{}}
	fm := doc.FrontMatter.Raw
	link := strings.TrimSuffix(doc.Path, ".md")
	warn := func(category domain.Category, code, message string) {
		items.warnings = append(items.warnings, domain.Warning{
			Category: category,
			Source:   doc.Path,
			Code:     code,
			Message:  message,
		})
	}

	locations := r.locations(fm[fieldLocation], func(message string) {
		warn(domain.CategoryMarker, codeInvalidCoordinate, message)
	})
	if len(locations) > 0 {
		group := r.newGroupID()
		items.groups[domain.CategoryMarker] = group

		markerType := domain.DefaultMarkerType
		if raw, ok := fm[fieldMapMarker].(string); ok {
			resolved, known := r.icons.Resolve(raw)
			if !known {
				warn(domain.CategoryMarker, codeUnknownType, fmt.Sprintf("unknown marker type %q, using %q", raw, resolved))
			}
			markerType = resolved
		}
		minZoom, maxZoom := zoomRange(fm[fieldMapZoom])
		for _, loc := range locations {
			items.markers = append(items.markers, MarkerTuple{
				Type:     markerType,
				Lat:      loc.Lat,
				Long:     loc.Lng,
				Link:     link,
				GroupID:  group,
				MinZoom:  minZoom,
				MaxZoom:  maxZoom,
				Category: domain.CategoryMarker,
				Source:   doc.Path,
			})
		}
	}

	if entries, ok := fm[fieldMapMarkers].([]any); ok && len(entries) > 0 {
		group := r.newGroupID()
		produced := 0
		for idx, entry := range entries {
			tuple, err := r.mapMarker(entry)
			if err != nil {
				warn(domain.CategoryMapMarkers, codeInvalidMarker, fmt.Sprintf("mapmarkers entry %d: %v", idx+1, err))
				continue
			}
			tuple.Link = link
			tuple.GroupID = group
			tuple.Source = doc.Path
			items.markers = append(items.markers, tuple)
			produced++
		}
		if produced > 0 {
			items.groups[domain.CategoryMapMarkers] = group
		}
	}

	if raw, ok := fm[fieldMapOverlay]; ok && raw != nil {
		group := r.newGroupID()
		produced := 0
		for idx, tuple := range overlayTuples(raw) {
			overlay, err := decodeOverlay(tuple, in.OverlayColor)
			if err != nil {
				warn(domain.CategoryOverlay, codeInvalidOverlay, fmt.Sprintf("could not parse mapoverlay %d in %s: %v", idx+1, doc.Name(), err))
				continue
			}
			overlay.GroupID = group
			overlay.Category = domain.CategoryOverlay
			overlay.Source = doc.Path
			items.overlays = append(items.overlays, overlay)
			produced++
		}
		if produced > 0 {
			items.groups[domain.CategoryOverlay] = group
		}
	}

	if tag := strings.TrimSpace(in.OverlayTag); tag != "" {
		if raw, ok := fm[tag]; ok && raw != nil {
			length := strings.TrimSpace(fmt.Sprint(raw))
			switch {
			case len(locations) == 0:
				warn(domain.CategoryOverlayTag, codeInvalidOverlay, fmt.Sprintf("%s in %s needs a location", tag, doc.Name()))
			case !distance.Valid(length):
				warn(domain.CategoryOverlayTag, codeInvalidDistance, fmt.Sprintf("could not parse %s %q in %s", tag, length, doc.Name()))
			default:
				group := r.newGroupID()
				items.groups[domain.CategoryOverlayTag] = group
				items.overlays = append(items.overlays, OverlayTuple{
					Color:       overlayColor("", in.OverlayColor),
					Loc:         locations[0],
					Length:      length,
					Description: doc.Name() + ": " + length,
					GroupID:     group,
					Category:    domain.CategoryOverlayTag,
					Source:      doc.Path,
				})
			}
		}
	}

	return items
}

// locations decodes a single pair or a sequence of pairs. Bad pairs are
// reported and skipped one by one.
func (r *Resolver) locations(raw any, warn func(string)) []geo.LatLng {
	if raw == nil {
		return nil
	}
	var pairs []any
	switch typed := raw.(type) {
	case []any:
		if len(typed) > 0 {
			if _, nested := typed[0].([]any); nested {
				pairs = typed
				break
			}
		}
		pairs = []any{typed}
	case string:
		parts := strings.Split(typed, ",")
		pair := make([]any, len(parts))
		for i, part := range parts {
			pair[i] = strings.TrimSpace(part)
		}
		pairs = []any{pair}
	default:
		warn(fmt.Sprintf("location %v is not a coordinate pair", raw))
		return nil
	}

	out := make([]geo.LatLng, 0, len(pairs))
	for _, item := range pairs {
		loc, err := decodeLatLng(item)
		if err != nil {
			warn(fmt.Sprintf("could not parse location %v: %v", item, err))
			continue
		}
		out = append(out, loc)
	}
	return out
}

func decodeLatLng(raw any) (geo.LatLng, error) {
	pair, ok := raw.([]any)
	if !ok || len(pair) < 2 {
		return geo.LatLng{}, geo.ErrInvalidCoordinates
	}
	lat, latOK := parseCoordinate(pair[0])
	lng, lngOK := parseCoordinate(pair[1])
	if !latOK || !lngOK {
		return geo.LatLng{}, geo.ErrInvalidCoordinates
	}
	return geo.LatLng{Lat: lat, Lng: lng}, nil
}

// mapMarker decodes [type, [lat, long], description, minZoom, maxZoom].
func (r *Resolver) mapMarker(raw any) (MarkerTuple, error) {
	entry, ok := raw.([]any)
	if !ok || len(entry) < 2 {
		return MarkerTuple{}, fmt.Errorf("expected [type, [lat, long], description, minZoom, maxZoom]")
	}
	loc, err := decodeLatLng(entry[1])
	if err != nil {
		return MarkerTuple{}, err
	}
	markerType, _ := r.icons.Resolve(fmt.Sprint(valueAt(entry, 0, "")))
	tuple := MarkerTuple{
		Type:     markerType,
		Lat:      loc.Lat,
		Long:     loc.Lng,
		MinZoom:  optionalZoom(valueAt(entry, 3, nil)),
		MaxZoom:  optionalZoom(valueAt(entry, 4, nil)),
		Category: domain.CategoryMapMarkers,
	}
	if description := valueAt(entry, 2, nil); description != nil {
		tuple.Description = fmt.Sprint(description)
	}
	return tuple, nil
}

// overlayTuples accepts a single tuple or a sequence of tuples.
func overlayTuples(raw any) [][]any {
	list, ok := raw.([]any)
	if !ok || len(list) == 0 {
		return [][]any{{raw}}
	}
	if _, nested := list[0].([]any); !nested {
		return [][]any{list}
	}
	out := make([][]any, 0, len(list))
	for _, item := range list {
		tuple, ok := item.([]any)
		if !ok {
			tuple = []any{item}
		}
		out = append(out, tuple)
	}
	return out
}

// decodeOverlay decodes [color, [lat, long], length, description]. The length
// must match the distance grammar.
func decodeOverlay(tuple []any, defaultColor string) (OverlayTuple, error) {
	if len(tuple) < 3 {
		return OverlayTuple{}, fmt.Errorf("expected [color, [lat, long], length, description]")
	}
	loc, err := decodeLatLng(tuple[1])
	if err != nil {
		return OverlayTuple{}, err
	}
	length := strings.TrimSpace(fmt.Sprint(tuple[2]))
	if !distance.Valid(length) {
		return OverlayTuple{}, fmt.Errorf("%w: %q", distance.ErrInvalidDistance, length)
	}
	overlay := OverlayTuple{
		Color:  overlayColor(fmt.Sprint(valueAt(tuple, 0, "")), defaultColor),
		Loc:    loc,
		Length: length,
	}
	if description := valueAt(tuple, 3, nil); description != nil {
		overlay.Description = fmt.Sprint(description)
	}
	return overlay, nil
}

func zoomRange(raw any) (*float64, *float64) {
	pair, ok := raw.([]any)
	if !ok {
		return nil, nil
	}
	return optionalZoom(valueAt(pair, 0, nil)), optionalZoom(valueAt(pair, 1, nil))
}

func valueAt(list []any, idx int, fallback any) any {
	if idx < len(list) && list[idx] != nil {
		return list[idx]
	}
	return fallback
}

func overlayColor(color, fallback string) string {
	if trimmed := strings.TrimSpace(color); trimmed != "" {
		return trimmed
	}
	if trimmed := strings.TrimSpace(fallback); trimmed != "" {
		return trimmed
	}
	return defaultOverlayColor
}
