package resolver

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/goliatone/go-mapblocks/internal/domain"
)

var (
	// ErrEmptyRow is returned for blank marker rows.
	ErrEmptyRow = errors.New("resolver: marker row is empty")
	// ErrInvalidRowCoordinates is returned when lat or long is missing or not numeric.
	ErrInvalidRowCoordinates = errors.New("resolver: marker row needs numeric lat and long")

	rowLinkPattern = regexp.MustCompile(`\[\[[^\[\]\n]*\]\]`)
)

const rowLinkPlaceholder = "\x00%d\x00"

// markerRow is one decoded `type,lat,long,link,layer,minZoom,maxZoom` row.
type markerRow struct {
	Type    string
	Lat     float64
	Long    float64
	Link    string
	Layer   string
	MinZoom *float64
	MaxZoom *float64
}

// parseMarkerRow decodes a CSV marker row. Links are protected before the CSV
// split so commas inside [[...]] do not break the row.
func parseMarkerRow(row string) (markerRow, error) {
	trimmed := strings.TrimSpace(row)
	if trimmed == "" {
		return markerRow{}, ErrEmptyRow
	}

	var links []string
	protected := rowLinkPattern.ReplaceAllStringFunc(trimmed, func(token string) string {
		links = append(links, token)
		return fmt.Sprintf(rowLinkPlaceholder, len(links)-1)
	})

	reader := csv.NewReader(strings.NewReader(protected))
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1
	fields, err := reader.Read()
	if err != nil && !errors.Is(err, io.EOF) {
		return markerRow{}, fmt.Errorf("resolver: marker row %q: %w", row, err)
	}
	for i := range fields {
		fields[i] = strings.TrimSpace(restoreRowLinks(fields[i], links))
	}
	field := func(idx int) string {
		if idx < len(fields) {
			return fields[idx]
		}
		return ""
	}

	lat, latErr := parseNumber(field(1))
	long, longErr := parseNumber(field(2))
	if latErr != nil || longErr != nil {
		return markerRow{}, fmt.Errorf("%w: %q", ErrInvalidRowCoordinates, row)
	}

	return markerRow{
		Type:    domain.NormalizeMarkerType(field(0)),
		Lat:     lat,
		Long:    long,
		Link:    unwrapLink(field(3)),
		Layer:   field(4),
		MinZoom: optionalNumber(field(5)),
		MaxZoom: optionalNumber(field(6)),
	}, nil
}

func restoreRowLinks(value string, links []string) string {
	if len(links) == 0 || !strings.Contains(value, "\x00") {
		return value
	}
	for idx, link := range links {
		value = strings.ReplaceAll(value, fmt.Sprintf(rowLinkPlaceholder, idx), link)
	}
	return value
}

func unwrapLink(value string) string {
	if strings.HasPrefix(value, "[[") && strings.HasSuffix(value, "]]") {
		return strings.TrimSpace(value[2 : len(value)-2])
	}
	return value
}

func parseNumber(value string) (float64, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return 0, strconv.ErrSyntax
	}
	return strconv.ParseFloat(trimmed, 64)
}

func optionalNumber(value string) *float64 {
	parsed, err := parseNumber(value)
	if err != nil {
		return nil
	}
	return &parsed
}

// parseCoordinate accepts numbers and numeric strings. A percent sign and
// anything after it is dropped before conversion.
func parseCoordinate(value any) (float64, bool) {
	switch typed := value.(type) {
	case int:
		return float64(typed), true
	case int64:
		return float64(typed), true
	case uint64:
		return float64(typed), true
	case float64:
		return typed, true
	case float32:
		return float64(typed), true
	case string:
		candidate := typed
		if idx := strings.Index(candidate, "%"); idx >= 0 {
			candidate = candidate[:idx]
		}
		parsed, err := parseNumber(candidate)
		if err != nil {
			return 0, false
		}
		return parsed, true
	default:
		return 0, false
	}
}

func optionalZoom(value any) *float64 {
	if value == nil {
		return nil
	}
	parsed, ok := parseCoordinate(value)
	if !ok {
		return nil
	}
	return &parsed
}
