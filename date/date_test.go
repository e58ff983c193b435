package date

import (
	"testing"
	"time"
)

// TestTime assert that the time() is cannonical and gives comparable times.
func TestTime(t *testing.T) {
	d1 := New(2025, 7, 31)
	d2 := New(2025, 7, 31)

	if d1.time() != d2.time() {
		t.Errorf("invalid time() function same day gives two different time")
	}
}

func TestOf(t *testing.T) {
	paris := time.FixedZone("CET", 3600)
	// 23:30 UTC on Dec 31 is already Jan 1 in Paris.
	ts := time.Date(2024, 12, 31, 23, 30, 0, 0, time.UTC).In(paris)
	if got, want := Of(ts), New(2025, 1, 1); got != want {
		t.Errorf("Of(%v) = %v, want %v", ts, got, want)
	}
}

func TestParse(t *testing.T) {
	testCases := []struct {
		in   string
		want Date
	}{
		{"2025-07-01", New(2025, time.July, 1)},
		{"2025-7-1", New(2025, time.July, 1)},
		{"15.03.2024", New(2024, time.March, 15)},
		{"5.3.2024", New(2024, time.March, 5)},
		{"15.03.2024 10:30:00", New(2024, time.March, 15)},
		{"2024-03-15 10:30:00", New(2024, time.March, 15)},
		{"2024-03-15T10:30:00Z", New(2024, time.March, 15)},
		{"15/03/2024", New(2024, time.March, 15)},
		{"20240315", New(2024, time.March, 15)},
		{" 2024-03-15 ", New(2024, time.March, 15)},
	}
	for _, tc := range testCases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := Parse(tc.in)
			if err != nil {
				t.Fatalf("Parse(%q) unexpected error: %v", tc.in, err)
			}
			if got != tc.want {
				t.Errorf("Parse(%q) = %v, want %v", tc.in, got, tc.want)
			}
		})
	}
}

func TestParseRelative(t *testing.T) {
	today := Today()
	testCases := []struct {
		in   string
		want Date
	}{
		{"0d", today},
		{"-1d", today.Add(-1)},
		{"+2w", today.Add(14)},
		{"-1m", today.AddMonth(-1)},
		{"-1q", today.AddMonth(-3)},
		{"-1y", New(today.Year()-1, today.Month(), today.Day())},
	}
	for _, tc := range testCases {
		t.Run(tc.in, func(t *testing.T) {
			if got := MustParse(tc.in); got != tc.want {
				t.Errorf("Parse(%q) = %v, want %v", tc.in, got, tc.want)
			}
		})
	}
}

func TestParseOrToday(t *testing.T) {
	if got, want := ParseOrToday("not a date"), Today(); got != want {
		t.Errorf("ParseOrToday() = %v, want %v", got, want)
	}
	if _, err := Parse("not a date"); err == nil {
		t.Error("Parse() expected an error for an invalid date")
	}
}

func TestDaysSince(t *testing.T) {
	buy := New(2023, time.January, 1)
	testCases := []struct {
		name string
		sell Date
		want int
	}{
		{"same day", buy, 0},
		{"364 days", buy.Add(364), 364},
		{"one year", New(2024, time.January, 1), 365},
		{"leap year", New(2024, time.December, 31), 730},
		{"before", buy.Add(-3), -3},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.sell.DaysSince(buy); got != tc.want {
				t.Errorf("DaysSince() = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestJSON(t *testing.T) {
	d := New(2024, time.February, 29)
	b, err := d.MarshalJSON()
	if err != nil {
		t.Fatalf("MarshalJSON() unexpected error: %v", err)
	}
	if got, want := string(b), `"2024-02-29"`; got != want {
		t.Errorf("MarshalJSON() = %s, want %s", got, want)
	}
	var got Date
	if err := got.UnmarshalJSON(b); err != nil {
		t.Fatalf("UnmarshalJSON() unexpected error: %v", err)
	}
	if got != d {
		t.Errorf("UnmarshalJSON() = %v, want %v", got, d)
	}
}
