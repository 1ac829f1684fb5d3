// Package aggregate computes time-windowed rollups over metric records.
// Everything here is a pure function of its inputs: no store access, no
// clock reads. The reference time is always a parameter so callers (and
// tests) control "now".
package aggregate

import (
	"time"

	"github.com/perfpulse/pulselink/internal/model"
)

// DateLayout is the stored record date format.
const DateLayout = "2006-01-02"

// ParseDate parses a stored "YYYY-MM-DD" date string.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, s)
}

// WeeklyTotal sums the amounts of every record whose date falls in the same
// (ISO year, ISO week) pair as ref. Records with unparsable dates are
// skipped. The result does not depend on record order.
func WeeklyTotal(records []model.MetricRecord, ref time.Time) int {
	refYear, refWeek := ref.ISOWeek()
	total := 0
	for _, r := range records {
		d, err := ParseDate(r.Date)
		if err != nil {
			continue
		}
		if y, w := d.ISOWeek(); y == refYear && w == refWeek {
			total += r.Amount
		}
	}
	return total
}

// Tagged couples a record with the athlete it came from, carrying the
// display color through to multi-subject views.
type Tagged struct {
	Record  model.MetricRecord
	Subject string
	Color   string
}

// Tag identifies one contributing subject in a day cell.
type Tag struct {
	Subject string `json:"subject"`
	Color   string `json:"color"`
}

// DayCell is one day of a monthly grid: the summed amount plus one tag per
// contributing subject, in first-contribution order.
type DayCell struct {
	Total int   `json:"total"`
	Tags  []Tag `json:"tags"`
}

// MonthlyGrid buckets tagged records by calendar day within the given year
// and month. Days with no contributing records are absent from the result.
// Records outside the month, or with unparsable dates, are skipped.
func MonthlyGrid(entries []Tagged, year int, month time.Month) map[int]DayCell {
	grid := make(map[int]DayCell)
	for _, e := range entries {
		d, err := ParseDate(e.Record.Date)
		if err != nil {
			continue
		}
		if d.Year() != year || d.Month() != month {
			continue
		}

		day := d.Day()
		cell := grid[day]
		cell.Total += e.Record.Amount
		if !hasTag(cell.Tags, e.Subject) {
			cell.Tags = append(cell.Tags, Tag{Subject: e.Subject, Color: e.Color})
		}
		grid[day] = cell
	}
	return grid
}

// Combine concatenates multiple logical logs into one sequence for joint
// aggregation. No deduplication happens here; callers must not pass
// overlapping sources unless double counting is intended.
func Combine(seqs ...[]model.MetricRecord) []model.MetricRecord {
	n := 0
	for _, s := range seqs {
		n += len(s)
	}
	out := make([]model.MetricRecord, 0, n)
	for _, s := range seqs {
		out = append(out, s...)
	}
	return out
}

func hasTag(tags []Tag, subject string) bool {
	for _, t := range tags {
		if t.Subject == subject {
			return true
		}
	}
	return false
}
