package blockparams

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-mapblocks/internal/domain"
)

// MarkerKeys are the keys that accept one entry per line.
var MarkerKeys = []string{
	"marker",
	"markerFile",
	"markerFolder",
	"markerTag",
	"commandMarker",
	"geojson",
	"linksTo",
	"linksFrom",
}

// Parse converts the raw text of a map block into normalized parameters. It
// never fails: values that cannot be decoded are kept as their raw text and
// problems are reported through BlockParameters.Warnings.
func Parse(source string) BlockParameters {
	protected, tokens := protectLinks(source)
	entries, stray := lex(protected)
	byKey, order := group(entries)

	params := BlockParameters{Options: map[string]any{}}
	for _, line := range stray {
		params.Warnings = append(params.Warnings, domain.Warning{
			Source:  fmt.Sprintf("line %d", line),
			Message: "ignored line that is not a key: value pair",
		})
	}

	decoded := make(map[string][]any, len(byKey))
	for _, key := range order {
		values := make([]any, 0, len(byKey[key]))
		for _, e := range byKey[key] {
			raw := e.raw
			if key == "markerTag" {
				raw = unhashTags(raw)
			}
			values = append(values, tokens.restoreValue(decodeValue(raw)))
		}
		decoded[key] = values
		params.Options[key] = values[len(values)-1]
	}

	applyScalars(&params, decoded)
	params.ID = rawScalar(byKey["id"], tokens)
	applyLayers(&params, decoded)
	if containsMarkerKey(source) {
		applyMarkerKeys(&params, decoded)
	}
	applyOverlays(&params, decoded)
	params.ensureSlices()
	return params
}

// decodeValue interprets one entry's raw text as a YAML value, falling back to
// the trimmed text when the structured decode fails or swallows the value.
func decodeValue(raw string) any {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil
	}
	var value any
	if err := yaml.Unmarshal([]byte(raw), &value); err != nil {
		return trimmed
	}
	if value == nil {
		// a leading # reads as a comment, which is how tags are usually written
		return trimmed
	}
	if _, isMap := value.(map[string]any); isMap && !strings.Contains(trimmed, "\n") && !strings.HasPrefix(trimmed, "{") {
		// "a,b: c" on one line is text with a colon, not a nested mapping
		return trimmed
	}
	return value
}

var tagHashPattern = regexp.MustCompile(`(^|[\s\[,])#+`)

// unhashTags drops the # that starts a tag so YAML does not read the rest of
// the line as a comment, inside flow sequences included.
func unhashTags(raw string) string {
	return tagHashPattern.ReplaceAllString(raw, "$1")
}

// rawScalar returns the text of the last entry as written, without YAML
// typing, so identifiers like 0123 or 1.50 keep their form.
func rawScalar(entries []entry, tokens links) string {
	if len(entries) == 0 {
		return ""
	}
	text := strings.TrimSpace(tokens.restore(entries[len(entries)-1].raw))
	if len(text) >= 2 {
		if quote := text[0]; (quote == '"' || quote == '\'') && text[len(text)-1] == quote {
			text = strings.TrimSpace(text[1 : len(text)-1])
		}
	}
	return text
}

func containsMarkerKey(source string) bool {
	for _, key := range MarkerKeys {
		if strings.Contains(source, key) {
			return true
		}
	}
	return false
}

func last(values []any) any {
	if len(values) == 0 {
		return nil
	}
	return values[len(values)-1]
}

func applyScalars(params *BlockParameters, decoded map[string][]any) {
	params.Lat = floatPtr(last(decoded["lat"]))
	params.Long = floatPtr(last(decoded["long"]))
	params.Height = stringify(last(decoded["height"]))
	params.Width = stringify(last(decoded["width"]))
	params.MinZoom = floatPtr(last(decoded["minZoom"]))
	params.MaxZoom = floatPtr(last(decoded["maxZoom"]))
	params.DefaultZoom = floatPtr(last(decoded["defaultZoom"]))
	params.ZoomDelta = floatPtr(last(decoded["zoomDelta"]))
	params.Scale = floatPtr(last(decoded["scale"]))
	params.Unit = stringify(last(decoded["unit"]))
	params.Tooltip = strings.ToLower(stringify(last(decoded["tooltip"])))
	params.OverlayTag = stringify(last(decoded["overlayTag"]))
	params.OverlayColor = stringify(last(decoded["overlayColor"]))
	params.Verbose = boolValue(last(decoded["verbose"]))
}

// applyLayers reconciles image and layers. Repeated image lines win over a
// single image value; layers[0] always equals image afterwards.
func applyLayers(params *BlockParameters, decoded map[string][]any) {
	images := decoded["image"]
	var layers []string
	if len(images) > 1 {
		for _, value := range images {
			if s := stringify(value); s != "" {
				layers = append(layers, s)
			}
		}
	} else {
		switch typed := last(images).(type) {
		case []any:
			for _, item := range typed {
				if s := stringify(item); s != "" {
					layers = append(layers, s)
				}
			}
		case nil:
		default:
			if s := stringify(typed); s != "" {
				layers = []string{s}
			}
		}
	}
	if len(layers) == 0 {
		layers = []string{domain.DefaultLayer}
	}
	params.Layers = layers
	params.Image = layers[0]
}

func applyMarkerKeys(params *BlockParameters, decoded map[string][]any) {
	params.Marker = flattenStrings(decoded["marker"], false)
	params.MarkerFile = flattenStrings(decoded["markerFile"], true)
	params.MarkerFolder = flattenStrings(decoded["markerFolder"], false)
	params.CommandMarker = flattenStrings(decoded["commandMarker"], false)
	params.GeoJSON = flattenStrings(decoded["geojson"], false)
	params.LinksTo = flattenStrings(decoded["linksTo"], false)
	params.LinksFrom = flattenStrings(decoded["linksFrom"], false)
	params.MarkerTag = tagGroups(decoded["markerTag"])
}

// flattenStrings applies the repeatable-key arity: one entry per line when the
// key repeats, the sequence items when a single entry holds a sequence, or the
// scalar itself. deep flattens one more level of nested sequences.
func flattenStrings(values []any, deep bool) []string {
	var out []string
	appendScalar := func(value any) {
		if s := strings.TrimSpace(stringify(value)); s != "" {
			out = append(out, s)
		}
	}
	if len(values) > 1 {
		for _, value := range values {
			appendScalar(value)
		}
		return out
	}
	switch typed := last(values).(type) {
	case nil:
	case []any:
		for _, item := range typed {
			if nested, ok := item.([]any); ok && deep {
				for _, inner := range nested {
					appendScalar(inner)
				}
				continue
			}
			appendScalar(item)
		}
	default:
		appendScalar(typed)
	}
	return out
}

// tagGroups coerces markerTag entries into groups. Tags inside a group are
// combined with AND, separate groups with OR.
func tagGroups(values []any) [][]string {
	var groups [][]string
	add := func(value any) {
		if tags := toTags(value); len(tags) > 0 {
			groups = append(groups, tags)
		}
	}
	if len(values) > 1 {
		for _, value := range values {
			add(value)
		}
		return groups
	}
	switch typed := last(values).(type) {
	case nil:
	case []any:
		for _, item := range typed {
			add(item)
		}
	default:
		add(typed)
	}
	return groups
}

func toTags(value any) []string {
	var raw []string
	switch typed := value.(type) {
	case []any:
		for _, item := range typed {
			raw = append(raw, strings.Split(stringify(item), ",")...)
		}
	default:
		raw = strings.Split(stringify(typed), ",")
	}
	tags := make([]string, 0, len(raw))
	for _, tag := range raw {
		cleaned := NormalizeTag(tag)
		if cleaned != "" {
			tags = append(tags, cleaned)
		}
	}
	return tags
}

// NormalizeTag strips whitespace, brackets and the leading # from a tag.
func NormalizeTag(tag string) string {
	return strings.TrimLeft(strings.Trim(strings.TrimSpace(tag), "[] "), "#")
}

func applyOverlays(params *BlockParameters, decoded map[string][]any) {
	values := decoded["overlay"]
	for idx, value := range values {
		tuple, ok := value.([]any)
		if !ok {
			params.Warnings = append(params.Warnings, domain.Warning{
				Category: domain.CategoryOverlay,
				Source:   fmt.Sprintf("overlay %d", idx+1),
				Message:  "overlay must be a sequence of [color, [lat, long], length, description]",
			})
			continue
		}
		if len(tuple) > 0 {
			if _, nested := tuple[0].([]any); nested {
				for _, item := range tuple {
					if inner, ok := item.([]any); ok {
						params.Overlay = append(params.Overlay, inner)
					}
				}
				continue
			}
		}
		params.Overlay = append(params.Overlay, tuple)
	}
}

func (p *BlockParameters) ensureSlices() {
	for _, slice := range []*[]string{&p.Marker, &p.MarkerFile, &p.MarkerFolder, &p.CommandMarker, &p.GeoJSON, &p.LinksTo, &p.LinksFrom} {
		if *slice == nil {
			*slice = []string{}
		}
	}
	if p.MarkerTag == nil {
		p.MarkerTag = [][]string{}
	}
}

func stringify(value any) string {
	switch typed := value.(type) {
	case nil:
		return ""
	case string:
		return typed
	case int:
		return strconv.Itoa(typed)
	case int64:
		return strconv.FormatInt(typed, 10)
	case uint64:
		return strconv.FormatUint(typed, 10)
	case float64:
		return strconv.FormatFloat(typed, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(typed)
	case []any:
		parts := make([]string, 0, len(typed))
		for _, item := range typed {
			parts = append(parts, stringify(item))
		}
		return strings.Join(parts, ",")
	default:
		return fmt.Sprint(typed)
	}
}

func floatPtr(value any) *float64 {
	switch typed := value.(type) {
	case int:
		f := float64(typed)
		return &f
	case int64:
		f := float64(typed)
		return &f
	case float64:
		return &typed
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(typed), 64)
		if err != nil {
			return nil
		}
		return &f
	default:
		return nil
	}
}

func boolValue(value any) bool {
	switch typed := value.(type) {
	case bool:
		return typed
	case string:
		parsed, err := strconv.ParseBool(strings.TrimSpace(typed))
		return err == nil && parsed
	default:
		return false
	}
}
