package distance

import (
	"errors"
	"math"
	"testing"
)

func TestParse(t *testing.T) {
	cases := []struct {
		input string
		value float64
		unit  Unit
	}{
		{input: "5 km", value: 5, unit: Kilometers},
		{input: "5km", value: 5, unit: Kilometers},
		{input: "12.5 mi", value: 12.5, unit: Miles},
		{input: "3 nmi", value: 3, unit: NauticalMiles},
		{input: " 100 m ", value: 100, unit: Meters},
		{input: "40 ft", value: 40, unit: Feet},
	}

	for _, tc := range cases {
		t.Run(tc.input, func(t *testing.T) {
			got, err := Parse(tc.input)
			if err != nil {
				t.Fatalf("parse %q: %v", tc.input, err)
			}
			if got.Value != tc.value || got.Unit != tc.unit {
				t.Fatalf("expected %v %s, got %v %s", tc.value, tc.unit, got.Value, got.Unit)
			}
		})
	}
}

func TestParseRejectsInvalidInput(t *testing.T) {
	for _, input := range []string{"", "bogus", "5", "km", "5  km", "-5 km", "5 parsecs", "5 km extra"} {
		if _, err := Parse(input); !errors.Is(err, ErrInvalidDistance) {
			t.Fatalf("expected ErrInvalidDistance for %q, got %v", input, err)
		}
		if Valid(input) {
			t.Fatalf("expected %q to be invalid", input)
		}
	}
}

func TestMetersAndConvert(t *testing.T) {
	d := Distance{Value: 2, Unit: Kilometers}
	if d.Meters() != 2000 {
		t.Fatalf("expected 2000 meters, got %v", d.Meters())
	}

	miles := Distance{Value: 1, Unit: Miles}.Convert(Feet)
	if math.Abs(miles.Value-5280) > 1e-6 {
		t.Fatalf("expected 5280 feet, got %v", miles.Value)
	}
}

func TestStringAndDescribe(t *testing.T) {
	d := Distance{Value: 5, Unit: Kilometers}
	if d.String() != "5 km" {
		t.Fatalf("unexpected string %q", d.String())
	}
	if d.Describe() != "5 kilometers" {
		t.Fatalf("unexpected description %q", d.Describe())
	}
}
