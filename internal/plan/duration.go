package plan

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// DurationKind distinguishes time-based steps from distance-based ones.
type DurationKind int

const (
	// DurationTime is a duration measured in seconds.
	DurationTime DurationKind = iota
	// DurationDistance is a duration measured in kilometres. The calendar
	// service takes distance steps verbatim, so the value is carried through
	// untouched rather than converted to a time estimate.
	DurationDistance
)

// Duration is the canonical form of a step duration.
type Duration struct {
	Kind       DurationKind
	Seconds    float64
	Kilometres float64
}

// magnitudeRE is the accepted number shape: digits with an optional decimal
// part, no sign, no exponent.
var magnitudeRE = regexp.MustCompile(`^\d+(\.\d+)?$`)

// ParseDuration converts a raw duration value into its canonical form.
// A bare integer means seconds; strings take an s (seconds), m (minutes)
// or km (kilometres) suffix, case-insensitively, with an integer or decimal
// magnitude ("90s", "2.5km"). The m suffix is always minutes, never metres.
func ParseDuration(raw json.RawMessage) (Duration, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return Duration{}, &DurationParseError{Value: "<missing>"}
	}

	var n int
	if err := json.Unmarshal(raw, &n); err == nil {
		if n < 0 {
			return Duration{}, &DurationParseError{Value: string(raw)}
		}
		return Duration{Kind: DurationTime, Seconds: float64(n)}, nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return Duration{}, &DurationParseError{Value: string(raw)}
	}

	lower := strings.ToLower(strings.TrimSpace(s))
	var magnitude string
	var kind DurationKind
	minutes := false
	switch {
	case strings.HasSuffix(lower, "km"):
		magnitude = strings.TrimSuffix(lower, "km")
		kind = DurationDistance
	case strings.HasSuffix(lower, "m"):
		magnitude = strings.TrimSuffix(lower, "m")
		kind = DurationTime
		minutes = true
	case strings.HasSuffix(lower, "s"):
		magnitude = strings.TrimSuffix(lower, "s")
		kind = DurationTime
	default:
		return Duration{}, &DurationParseError{Value: strconv.Quote(s)}
	}

	magnitude = strings.TrimSpace(magnitude)
	if !magnitudeRE.MatchString(magnitude) {
		return Duration{}, &DurationParseError{Value: strconv.Quote(s)}
	}
	value, err := strconv.ParseFloat(magnitude, 64)
	if err != nil {
		return Duration{}, &DurationParseError{Value: strconv.Quote(s)}
	}

	switch {
	case kind == DurationDistance:
		return Duration{Kind: DurationDistance, Kilometres: value}, nil
	case minutes:
		return Duration{Kind: DurationTime, Seconds: value * 60}, nil
	default:
		return Duration{Kind: DurationTime, Seconds: value}, nil
	}
}

// formatMagnitude renders a magnitude without trailing zeros ("2.5", "5").
func formatMagnitude(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// String renders the duration in the calendar-service text format: distances
// keep their km suffix, whole minutes render as Nm, everything else as Ns.
func (d Duration) String() string {
	if d.Kind == DurationDistance {
		return formatMagnitude(d.Kilometres) + "km"
	}
	if d.Seconds == math.Trunc(d.Seconds) {
		seconds := int(d.Seconds)
		if seconds >= 60 && seconds%60 == 0 {
			return fmt.Sprintf("%dm", seconds/60)
		}
		return fmt.Sprintf("%ds", seconds)
	}
	return formatMagnitude(d.Seconds) + "s"
}

// MarshalJSON emits the wire text form, so archived plans round-trip through
// the same grammar the parser accepts.
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// ParsePace validates a pace value: an integer percentage of threshold pace
// in [1,150] inclusive.
func ParsePace(raw json.RawMessage) (int, error) {
	if len(raw) == 0 {
		return 0, &PaceRangeError{Value: "<missing>"}
	}
	var p int
	if err := json.Unmarshal(raw, &p); err != nil {
		return 0, &PaceRangeError{Value: string(raw)}
	}
	if p < 1 || p > 150 {
		return 0, &PaceRangeError{Value: strconv.Itoa(p)}
	}
	return p, nil
}
