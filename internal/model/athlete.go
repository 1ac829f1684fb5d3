// Package model defines the persisted document shapes used throughout the
// application. Every entity here is stored as a whole JSON document in the
// document store; the json tags are the on-disk format, so renaming a field
// is a migration, not a refactor.
package model

// MetricRecord is a single dated entry in a named log sequence.
//
// Date is kept as a "YYYY-MM-DD" string rather than a time.Time because
// that is the stored wire format and because an unparsable date must not be
// fatal; such records simply never contribute to an aggregate. Parsing
// happens at aggregation time (see internal/aggregate).
type MetricRecord struct {
	ID     string            `json:"id,omitempty"`
	Date   string            `json:"date"`
	Amount int               `json:"amount"`
	Attrs  map[string]string `json:"attrs,omitempty"` // free-form: type, notes, ...
}

// AthleteProfile is the athlete's private log document, keyed by the
// canonical identity. It is only ever mutated by append-record and
// membership operations; the core never deletes one.
//
// PIN holds a bcrypt hash for canonically-stored profiles. Legacy documents
// (stored under the raw, unnormalized identity by old app versions) hold
// the plaintext PIN instead; they are verified by equality and re-hashed
// when migrated.
type AthleteProfile struct {
	Identity string                    `json:"identity"`
	PIN      string                    `json:"pin"`
	Color    string                    `json:"color"`
	Created  string                    `json:"created,omitempty"`
	Teams    []string                  `json:"teams"`
	Logs     map[string][]MetricRecord `json:"logs"`
}

// Redacted returns a copy safe to serve over HTTP: same document with the
// PIN material blanked.
func (p *AthleteProfile) Redacted() *AthleteProfile {
	out := *p
	out.PIN = ""
	return &out
}

// CoachAccount is keyed by the canonical coach identity. Coaches have no
// logs; the account exists only to authenticate the coach-facing views.
type CoachAccount struct {
	Identity string `json:"identity"`
	PIN      string `json:"pin"`
	Created  string `json:"created,omitempty"`
}

// Redacted returns a copy with the PIN material blanked.
func (c *CoachAccount) Redacted() *CoachAccount {
	out := *c
	out.PIN = ""
	return &out
}
