package parser

import (
	"fmt"
	"testing"
)

func TestDurationMinutes(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		want   int
		wantOK bool
	}{
		{"hour and mins", "1 hour 15 mins", 75, true},
		{"hours and mins", "2 hours 5 mins", 125, true},
		{"mins only", "45 mins", 45, true},
		{"single min", "1 min", 1, true},
		{"hours only", "2 hours", 120, true},
		{"single hour", "1 hour", 60, true},
		{"zero mins", "0 mins", 0, true},
		{"zero hours zero mins", "0 hours 0 mins", 0, true},
		{"no space between parts", "1 hour15 mins", 75, true},
		{"extra whitespace", "3 hours    10 mins", 190, true},
		{"trailing content ignored", "1 hour 15 mins approx.", 75, true},
		{"trailing content after hours", "2 hours and a bit", 120, true},
		{"empty", "", 0, false},
		{"no numbers", "soon", 0, false},
		{"number without unit", "45", 0, false},
		{"unit without number", "mins", 0, false},
		{"leading text", "about 45 mins", 0, false},
		{"days are not recognised", "1 day 2 hours", 0, false},
		{"hour group too large", "99999999999999999999 hours", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := DurationMinutes(tt.input)
			if ok != tt.wantOK {
				t.Fatalf("DurationMinutes(%q) ok = %v, want %v", tt.input, ok, tt.wantOK)
			}
			if got != tt.want {
				t.Errorf("DurationMinutes(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestDurationMinutes_HoursAndMinutesGrid(t *testing.T) {
	for h := 0; h <= 30; h += 3 {
		for m := 0; m < 60; m += 7 {
			input := fmt.Sprintf("%d hours %d mins", h, m)
			got, ok := DurationMinutes(input)
			if !ok || got != h*60+m {
				t.Errorf("DurationMinutes(%q) = %d, %v, want %d, true", input, got, ok, h*60+m)
			}
		}
	}
}

func TestDistanceMeters(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		want   int
		wantOK bool
	}{
		{"fractional km", "10.5 km", 10500, true},
		{"integer km", "3 km", 3000, true},
		{"bare number", "10", 10000, true},
		{"bare fraction", "0.25", 250, true},
		{"leading dot", ".5 km", 500, true},
		{"truncates toward zero", "1.0005 km", 1000, true},
		{"zero", "0 km", 0, true},
		{"unit glued", "7km", 7000, true},
		{"trailing content ignored", "12.3 km (toll road)", 12300, true},
		{"unit only", "km", 0, false},
		{"empty", "", 0, false},
		{"letters", "abc", 0, false},
		{"dot only", ". km", 0, false},
		{"negative sign", "-5 km", 0, false},
		{"overflow", "99999999999999999999 km", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := DistanceMeters(tt.input)
			if ok != tt.wantOK {
				t.Fatalf("DistanceMeters(%q) ok = %v, want %v", tt.input, ok, tt.wantOK)
			}
			if got != tt.want {
				t.Errorf("DistanceMeters(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestDistanceMeters_Monotonic(t *testing.T) {
	prev := -1
	for tenths := 0; tenths <= 2000; tenths++ {
		input := fmt.Sprintf("%d.%d km", tenths/10, tenths%10)
		got, ok := DistanceMeters(input)
		if !ok {
			t.Fatalf("DistanceMeters(%q) returned no value", input)
		}
		if got < prev {
			t.Fatalf("DistanceMeters(%q) = %d, smaller than previous %d", input, got, prev)
		}
		prev = got
	}
}
