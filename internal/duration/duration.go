package duration

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

var (
	ErrInvalidFormat   = errors.New("duration must be in hh:mm:ss format")
	ErrZeroDistance    = errors.New("distance must be greater than zero")
	ErrInvalidDistance = errors.New("distance must be a finite non-negative number")
	ErrOutOfRange      = errors.New("duration exceeds the representable range")
)

// MaxSeconds is the largest whole-second count a time.Duration can hold.
const MaxSeconds = math.MaxInt64 / int64(time.Second)

// Duration is a non-negative hours/minutes/seconds triple as typed by the user.
// Minutes and seconds are not range-checked: 00:90:00 means ninety minutes.
type Duration struct {
	Hours   int
	Minutes int
	Seconds int
}

// Parse reads strictly "hh:mm:ss" where every segment is a run of ASCII digits.
// A total above MaxSeconds fails with both ErrInvalidFormat and ErrOutOfRange.
func Parse(text string) (Duration, error) {
	parts := strings.Split(text, ":")
	if len(parts) != 3 {
		return Duration{}, fmt.Errorf("%w: %q", ErrInvalidFormat, text)
	}
	var vals [3]int
	for i, p := range parts {
		if !isDigits(p) {
			return Duration{}, fmt.Errorf("%w: %q", ErrInvalidFormat, text)
		}
		n, err := strconv.Atoi(p)
		if err != nil {
			return Duration{}, fmt.Errorf("%w: %q", ErrInvalidFormat, text)
		}
		vals[i] = n
	}
	d := Duration{Hours: vals[0], Minutes: vals[1], Seconds: vals[2]}
	if _, ok := d.totalSeconds(); !ok {
		return Duration{}, fmt.Errorf("%w: %w: %q", ErrInvalidFormat, ErrOutOfRange, text)
	}
	return d, nil
}

// totalSeconds sums the fields, reporting false on a negative field or when
// the sum exceeds MaxSeconds.
func (d Duration) totalSeconds() (int64, bool) {
	var total int64
	for _, f := range [...]struct{ n, unit int64 }{
		{int64(d.Hours), 3600},
		{int64(d.Minutes), 60},
		{int64(d.Seconds), 1},
	} {
		if f.n < 0 || f.n > (MaxSeconds-total)/f.unit {
			return 0, false
		}
		total += f.n * f.unit
	}
	return total, true
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// Std converts to a time.Duration. Values Parse would reject saturate at
// MaxSeconds instead of wrapping.
func (d Duration) Std() time.Duration {
	total, ok := d.totalSeconds()
	if !ok {
		total = MaxSeconds
	}
	return time.Duration(total) * time.Second
}

func (d Duration) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", d.Hours, d.Minutes, d.Seconds)
}

// FromStd normalizes a time.Duration into hh:mm:ss, dropping sub-second parts.
func FromStd(td time.Duration) Duration {
	if td < 0 {
		td = 0
	}
	total := int(td / time.Second)
	return Duration{Hours: total / 3600, Minutes: total % 3600 / 60, Seconds: total % 60}
}

// Pace returns the time per kilometre truncated to whole seconds.
// 25m47s over 5.0 km is 309.4s, which yields 5m09s.
func Pace(d time.Duration, km float64) (time.Duration, error) {
	if math.IsNaN(km) || math.IsInf(km, 0) || km < 0 {
		return 0, ErrInvalidDistance
	}
	if km == 0 {
		return 0, ErrZeroDistance
	}
	if d < 0 {
		return 0, fmt.Errorf("%w: negative duration %s", ErrOutOfRange, d)
	}
	secs := math.Trunc(d.Seconds() / km)
	if secs > float64(MaxSeconds) {
		return 0, fmt.Errorf("%w: pace over %g km", ErrOutOfRange, km)
	}
	return time.Duration(int64(secs)) * time.Second, nil
}
