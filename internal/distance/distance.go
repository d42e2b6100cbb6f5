// Package distance implements the "<number> <unit>" grammar used for overlay
// radii, both in block parameters and in document frontmatter.
package distance

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Unit is a supported length unit abbreviation.
type Unit string

const (
	Millimeters   Unit = "mm"
	Centimeters   Unit = "cm"
	Meters        Unit = "m"
	Kilometers    Unit = "km"
	Inches        Unit = "in"
	Feet          Unit = "ft"
	Yards         Unit = "yd"
	Miles         Unit = "mi"
	NauticalMiles Unit = "nmi"
)

var metersPerUnit = map[Unit]float64{
	Millimeters:   0.001,
	Centimeters:   0.01,
	Meters:        1,
	Kilometers:    1000,
	Inches:        0.0254,
	Feet:          0.3048,
	Yards:         0.9144,
	Miles:         1609.344,
	NauticalMiles: 1852,
}

// UnitNames maps each unit to its long form, used for display.
var UnitNames = map[Unit]string{
	Millimeters:   "millimeters",
	Centimeters:   "centimeters",
	Meters:        "meters",
	Kilometers:    "kilometers",
	Inches:        "inches",
	Feet:          "feet",
	Yards:         "yards",
	Miles:         "miles",
	NauticalMiles: "nautical miles",
}

// OverlayTagRegex matches "<number><optional whitespace><unit>". Longer unit
// names are listed first so "nmi" never matches as "mi".
var OverlayTagRegex = regexp.MustCompile(`^(\d+(?:\.\d+)?)\s?(nmi|mm|cm|km|mi|in|ft|yd|m)$`)

// ErrInvalidDistance is returned when a string does not match the grammar.
var ErrInvalidDistance = errors.New("distance: value does not match <number> <unit>")

// Distance is a parsed length with its unit.
type Distance struct {
	Value float64
	Unit  Unit
}

// Parse decodes s using OverlayTagRegex. Surrounding whitespace is ignored.
func Parse(s string) (Distance, error) {
	match := OverlayTagRegex.FindStringSubmatch(strings.TrimSpace(s))
	if match == nil {
		return Distance{}, fmt.Errorf("%w: %q", ErrInvalidDistance, s)
	}
	value, err := strconv.ParseFloat(match[1], 64)
	if err != nil {
		return Distance{}, fmt.Errorf("%w: %q", ErrInvalidDistance, s)
	}
	return Distance{Value: value, Unit: Unit(match[2])}, nil
}

// Valid reports whether s matches the grammar.
func Valid(s string) bool {
	return OverlayTagRegex.MatchString(strings.TrimSpace(s))
}

// Meters converts the distance to meters.
func (d Distance) Meters() float64 {
	return d.Value * metersPerUnit[d.Unit]
}

// Convert expresses the distance in another unit.
func (d Distance) Convert(to Unit) Distance {
	factor, ok := metersPerUnit[to]
	if !ok || factor == 0 {
		return d
	}
	return Distance{Value: d.Meters() / factor, Unit: to}
}

// String renders the canonical "<value> <unit>" form.
func (d Distance) String() string {
	return strconv.FormatFloat(d.Value, 'f', -1, 64) + " " + string(d.Unit)
}

// Describe renders the value with the unit's long name, e.g. "5 kilometers".
func (d Distance) Describe() string {
	name, ok := UnitNames[d.Unit]
	if !ok {
		name = string(d.Unit)
	}
	return strconv.FormatFloat(d.Value, 'f', -1, 64) + " " + name
}
