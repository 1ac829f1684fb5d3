package aggregate

import (
	"testing"
	"time"

	"github.com/perfpulse/pulselink/internal/model"
)

func rec(date string, amount int) model.MetricRecord {
	return model.MetricRecord{Date: date, Amount: amount}
}

func TestWeeklyTotal_SameWeek(t *testing.T) {
	// Wednesday 2025-06-11 is ISO 2025-W24 (Mon 9th .. Sun 15th).
	ref := time.Date(2025, 6, 11, 0, 0, 0, 0, time.UTC)

	records := []model.MetricRecord{
		rec("2025-06-09", 30), // Monday, same week
		rec("2025-06-15", 45), // Sunday, same week
		rec("2025-06-08", 60), // Sunday of previous week
		rec("2025-06-16", 90), // Monday of next week
	}

	if got := WeeklyTotal(records, ref); got != 75 {
		t.Errorf("WeeklyTotal = %d, want 75", got)
	}
}

func TestWeeklyTotal_SkipsUnparsableDates(t *testing.T) {
	ref := time.Date(2025, 6, 11, 0, 0, 0, 0, time.UTC)

	records := []model.MetricRecord{
		rec("2025-06-11", 30),
		rec("2025-06-12", 45),
		rec("not-a-date", 999),
		rec("", 999),
		rec("2025/06/11", 999), // wrong separator
	}

	if got := WeeklyTotal(records, ref); got != 75 {
		t.Errorf("WeeklyTotal = %d, want 75 (bad dates must be skipped, not fatal)", got)
	}
}

func TestWeeklyTotal_OrderInvariant(t *testing.T) {
	ref := time.Date(2025, 6, 11, 0, 0, 0, 0, time.UTC)

	forward := []model.MetricRecord{
		rec("2025-06-09", 10), rec("2025-06-10", 20), rec("2025-06-11", 30),
	}
	reversed := []model.MetricRecord{forward[2], forward[1], forward[0]}
	shuffled := []model.MetricRecord{forward[1], forward[2], forward[0]}

	want := WeeklyTotal(forward, ref)
	if got := WeeklyTotal(reversed, ref); got != want {
		t.Errorf("reversed order changed the total: %d vs %d", got, want)
	}
	if got := WeeklyTotal(shuffled, ref); got != want {
		t.Errorf("shuffled order changed the total: %d vs %d", got, want)
	}
}

// 2024-12-30 and 2025-01-02 are both ISO 2025-W01 even though they sit in
// different calendar years. Bucketing must use the ISO year, not the
// calendar year, or those records land in different weeks.
func TestWeeklyTotal_ISOYearBoundary(t *testing.T) {
	ref := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC) // Thursday, W01

	records := []model.MetricRecord{
		rec("2024-12-30", 30), // Monday of the same ISO week
		rec("2025-01-02", 45),
		rec("2024-12-29", 60), // Sunday of ISO 2024-W52
	}

	if got := WeeklyTotal(records, ref); got != 75 {
		t.Errorf("WeeklyTotal = %d, want 75 (ISO year must pair with ISO week)", got)
	}
}

func TestWeeklyTotal_Empty(t *testing.T) {
	if got := WeeklyTotal(nil, time.Now()); got != 0 {
		t.Errorf("WeeklyTotal(nil) = %d, want 0", got)
	}
}

func TestMonthlyGrid_BucketsByDay(t *testing.T) {
	entries := []Tagged{
		{Record: rec("2025-06-01", 30), Subject: "anna", Color: "#2E8B57"},
		{Record: rec("2025-06-01", 45), Subject: "ben", Color: "#1E90FF"},
		{Record: rec("2025-06-15", 20), Subject: "anna", Color: "#2E8B57"},
		{Record: rec("2025-06-15", 10), Subject: "anna", Color: "#2E8B57"},
		{Record: rec("2025-05-31", 99), Subject: "anna", Color: "#2E8B57"}, // wrong month
		{Record: rec("2024-06-01", 99), Subject: "anna", Color: "#2E8B57"}, // wrong year
		{Record: rec("junk", 99), Subject: "anna", Color: "#2E8B57"},
	}

	grid := MonthlyGrid(entries, 2025, time.June)

	if len(grid) != 2 {
		t.Fatalf("grid has %d days, want 2: %v", len(grid), grid)
	}

	day1 := grid[1]
	if day1.Total != 75 {
		t.Errorf("day 1 total = %d, want 75", day1.Total)
	}
	if len(day1.Tags) != 2 {
		t.Fatalf("day 1 tags = %v, want anna+ben", day1.Tags)
	}
	if day1.Tags[0].Subject != "anna" || day1.Tags[1].Subject != "ben" {
		t.Errorf("day 1 tag order = %v, want first-contribution order", day1.Tags)
	}

	day15 := grid[15]
	if day15.Total != 30 {
		t.Errorf("day 15 total = %d, want 30", day15.Total)
	}
	if len(day15.Tags) != 1 || day15.Tags[0].Subject != "anna" {
		t.Errorf("day 15 tags = %v, want a single anna tag (deduped)", day15.Tags)
	}
}

func TestMonthlyGrid_Empty(t *testing.T) {
	grid := MonthlyGrid(nil, 2025, time.June)
	if len(grid) != 0 {
		t.Errorf("empty input should yield empty grid, got %v", grid)
	}
}

func TestCombine(t *testing.T) {
	a := []model.MetricRecord{rec("2025-06-01", 1), rec("2025-06-02", 2)}
	b := []model.MetricRecord{rec("2025-06-01", 1)} // same date on purpose

	got := Combine(a, b)
	if len(got) != 3 {
		t.Fatalf("Combine length = %d, want 3 (no deduplication)", len(got))
	}
	if got[0].Amount != 1 || got[1].Amount != 2 || got[2].Amount != 1 {
		t.Errorf("Combine order broken: %v", got)
	}

	if got := Combine(); len(got) != 0 {
		t.Errorf("Combine() = %v, want empty", got)
	}
}
