package localdate

import (
	"testing"
	"time"
)

func TestKeyIsDeterministic(t *testing.T) {
	loc := Resolve("Asia/Dhaka")
	instant := time.Date(2024, 1, 15, 23, 30, 0, 0, time.UTC)

	first := Key(instant, loc)
	second := Key(instant, loc)
	if first != second {
		t.Fatalf("expected identical keys, got %q and %q", first, second)
	}
}

func TestKeyCrossesLocalMidnight(t *testing.T) {
	// 23:30Z on Jan 15 is 05:30 on Jan 16 in Dhaka (UTC+6).
	loc := Resolve("Asia/Dhaka")
	instant := time.Date(2024, 1, 15, 23, 30, 0, 0, time.UTC)

	if got := Key(instant, loc); got != "2024-01-16" {
		t.Fatalf("expected local date 2024-01-16, got %s", got)
	}
	if got := Key(instant, time.UTC); got != "2024-01-15" {
		t.Fatalf("expected UTC date 2024-01-15, got %s", got)
	}
}

func TestResolveFallsBackToUTC(t *testing.T) {
	for _, name := range []string{"", "Not/AZone", "asia dhaka"} {
		if loc := Resolve(name); loc != time.UTC {
			t.Fatalf("expected UTC fallback for %q, got %v", name, loc)
		}
	}
}

func TestStartAndEndOfDay(t *testing.T) {
	loc := Resolve("Asia/Dhaka")
	date, err := ParseKey("2024-01-16", loc)
	if err != nil {
		t.Fatalf("parse key: %v", err)
	}

	start := StartOfDay(date, loc)
	// Midnight Jan 16 in Dhaka is 18:00Z on Jan 15.
	want := time.Date(2024, 1, 15, 18, 0, 0, 0, time.UTC)
	if !start.Equal(want) {
		t.Fatalf("expected start %v, got %v", want, start)
	}

	end := EndOfDay(date, loc)
	if Key(end, loc) != "2024-01-16" {
		t.Fatalf("end of day left the local date: %s", Key(end, loc))
	}
	if !end.After(start) {
		t.Fatalf("end %v not after start %v", end, start)
	}
}

func TestWithinKeys(t *testing.T) {
	loc := Resolve("Asia/Dhaka")
	instant := time.Date(2024, 1, 15, 23, 30, 0, 0, time.UTC) // local Jan 16

	if WithinKeys(instant, loc, "2024-01-15", "2024-01-15") {
		t.Fatalf("instant with local date 2024-01-16 must not match a 2024-01-15 bucket")
	}
	if !WithinKeys(instant, loc, "2024-01-15", "2024-01-16") {
		t.Fatalf("instant should fall inside inclusive range ending 2024-01-16")
	}
}
