package model

// ShareSnapshot is an immutable, code-addressed export of selected log
// sequences at a point in time. It is written once under a fresh share code
// and never updated; creating a new snapshot for the same athlete allocates
// a new code and leaves older ones resolvable.
//
// WeeklyTotals are computed at creation time, so a snapshot keeps showing
// the week it was generated in, which is the point of a snapshot.
type ShareSnapshot struct {
	Identity     string                    `json:"identity"`
	GeneratedAt  string                    `json:"generated_at"` // RFC 3339
	Logs         map[string][]MetricRecord `json:"logs"`
	WeeklyTotals map[string]int            `json:"weekly_totals"`
	Code         string                    `json:"code"`
}
