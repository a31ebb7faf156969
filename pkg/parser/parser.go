// Package parser converts the free-text duration and distance descriptions
// of logistics records into integer minutes and meters.
//
// Both parsers match from the start of the text and ignore whatever follows
// the recognised prefix. A text that yields no value is reported with
// ok == false, which is distinct from a legitimate zero:
//
//	parser.DurationMinutes("1 hour 15 mins") // 75, true
//	parser.DurationMinutes("0 mins")         // 0, true
//	parser.DurationMinutes("soon")           // 0, false
//	parser.DistanceMeters("10.5 km")         // 10500, true
//	parser.DistanceMeters("km")              // 0, false
package parser

import (
	"math"
	"regexp"
	"strconv"
)

var (
	durationPattern = regexp.MustCompile(`^(?:(?P<hours>\d+)\s+hours?)?\s*(?:(?P<mins>\d+)\s+mins?)?`)
	distancePattern = regexp.MustCompile(`^(?P<km>\d*\.\d+|\d+)(?:\s+km)?`)

	hoursGroup = durationPattern.SubexpIndex("hours")
	minsGroup  = durationPattern.SubexpIndex("mins")
	kmGroup    = distancePattern.SubexpIndex("km")
)

// DurationMinutes parses texts such as "1 hour 15 mins", "2 hours" or
// "45 mins" into minutes. A missing hour or minute part counts as zero;
// ok is false when neither part is present.
func DurationMinutes(text string) (minutes int, ok bool) {
	m := durationPattern.FindStringSubmatchIndex(text)
	if m == nil {
		return 0, false
	}

	hours, hasHours, err := group(text, m, hoursGroup)
	if err != nil {
		return 0, false
	}
	mins, hasMins, err := group(text, m, minsGroup)
	if err != nil {
		return 0, false
	}
	if !hasHours && !hasMins {
		return 0, false
	}

	if hours > (math.MaxInt-mins)/60 {
		return 0, false
	}
	return hours*60 + mins, true
}

// DistanceMeters parses texts such as "10.5 km" or "10" into meters.
// The kilometre value is scaled by 1000 and truncated toward zero.
func DistanceMeters(text string) (meters int, ok bool) {
	m := distancePattern.FindStringSubmatchIndex(text)
	if m == nil || m[2*kmGroup] < 0 {
		return 0, false
	}

	km, err := strconv.ParseFloat(text[m[2*kmGroup]:m[2*kmGroup+1]], 64)
	if err != nil {
		return 0, false
	}

	scaled := km * 1000
	if scaled >= math.MaxInt {
		return 0, false
	}
	return int(scaled), true
}

// group extracts an optional integer submatch. present is false when the
// group did not participate in the match.
func group(text string, m []int, idx int) (value int, present bool, err error) {
	start, end := m[2*idx], m[2*idx+1]
	if start < 0 {
		return 0, false, nil
	}
	value, err = strconv.Atoi(text[start:end])
	if err != nil {
		return 0, true, err
	}
	return value, true, nil
}
