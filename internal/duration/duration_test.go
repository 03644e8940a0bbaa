package duration

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestParseRoundTrip(t *testing.T) {
	cases := [][3]int{{0, 0, 0}, {0, 25, 47}, {1, 2, 3}, {12, 59, 59}, {150, 0, 1}, {0, 90, 0}}
	for _, c := range cases {
		text := fmt.Sprintf("%02d:%02d:%02d", c[0], c[1], c[2])
		d, err := Parse(text)
		if err != nil {
			t.Fatalf("parse %q: %v", text, err)
		}
		if d.Hours != c[0] || d.Minutes != c[1] || d.Seconds != c[2] {
			t.Fatalf("parse %q: got %+v", text, d)
		}
	}
}

func TestParseMalformed(t *testing.T) {
	bad := []string{"", "25:47", "1:2:3:4", "aa:00:00", "00:-1:00", "00:+1:00", "00: 1:00", "00::00", "1.5:00:00", "0x1:00:00", "::"}
	for _, s := range bad {
		if _, err := Parse(s); !errors.Is(err, ErrInvalidFormat) {
			t.Fatalf("parse %q: want ErrInvalidFormat, got %v", s, err)
		}
	}
}

func TestStdAndString(t *testing.T) {
	d := Duration{Minutes: 25, Seconds: 47}
	if d.Std() != 25*time.Minute+47*time.Second {
		t.Fatalf("unexpected std: %v", d.Std())
	}
	if d.String() != "00:25:47" {
		t.Fatalf("unexpected string: %s", d.String())
	}
	if got := FromStd(309 * time.Second); got != (Duration{Minutes: 5, Seconds: 9}) {
		t.Fatalf("unexpected FromStd: %+v", got)
	}
}

func TestPaceTruncates(t *testing.T) {
	p, err := Pace(25*time.Minute+47*time.Second, 5.0)
	if err != nil {
		t.Fatalf("pace: %v", err)
	}
	if p != 5*time.Minute+9*time.Second {
		t.Fatalf("want 5m9s, got %v", p)
	}
	p, _ = Pace(50*time.Minute, 10)
	if p != 5*time.Minute {
		t.Fatalf("want 5m, got %v", p)
	}
}

func TestPaceRejectsBadDistance(t *testing.T) {
	if _, err := Pace(10*time.Minute, 0); !errors.Is(err, ErrZeroDistance) {
		t.Fatalf("want ErrZeroDistance, got %v", err)
	}
	if _, err := Pace(10*time.Minute, -1); !errors.Is(err, ErrInvalidDistance) {
		t.Fatalf("want ErrInvalidDistance, got %v", err)
	}
}

func TestParseRangeLimit(t *testing.T) {
	// 2562047:47:16 is exactly MaxSeconds
	d, err := Parse("2562047:47:16")
	if err != nil {
		t.Fatalf("parse at limit: %v", err)
	}
	if d.Std() != time.Duration(MaxSeconds)*time.Second || d.Std() < 0 {
		t.Fatalf("unexpected std at limit: %v", d.Std())
	}

	for _, s := range []string{"2562047:47:17", "3000000:00:00", "00:9999999999:00", "00:00:9223372037", "99999999999999999999:00:00"} {
		_, err := Parse(s)
		if !errors.Is(err, ErrInvalidFormat) {
			t.Fatalf("parse %q: want ErrInvalidFormat, got %v", s, err)
		}
	}
	if _, err := Parse("3000000:00:00"); !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("want ErrOutOfRange, got %v", err)
	}
}

func TestStdSaturatesInsteadOfWrapping(t *testing.T) {
	d := Duration{Hours: 3000000}
	if d.Std() != time.Duration(MaxSeconds)*time.Second {
		t.Fatalf("want saturation, got %v", d.Std())
	}
	if (Duration{Minutes: -1}).Std() < 0 {
		t.Fatalf("negative fields must not produce a negative duration")
	}
}

func TestPaceRejectsOverflow(t *testing.T) {
	if _, err := Pace(time.Hour, 0.0000000001); !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("tiny distance: want ErrOutOfRange, got %v", err)
	}
	if _, err := Pace(-time.Second, 5); !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("negative duration: want ErrOutOfRange, got %v", err)
	}
	limit := time.Duration(MaxSeconds) * time.Second
	p, err := Pace(limit, 1)
	if err != nil || p != limit {
		t.Fatalf("pace at limit: %v %v", p, err)
	}
	p, err = Pace(limit, 5)
	if err != nil || p <= 0 {
		t.Fatalf("large pace must stay positive: %v %v", p, err)
	}
}
