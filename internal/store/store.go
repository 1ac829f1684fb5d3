// Package store defines the document store every component reads and
// writes through. It is intentionally minimal: keyed whole-document get and
// put, no transactions, no versioning, no merge. Correctness of the higher
// layers must not depend on partial-write recovery.
//
// Reads are corruption-tolerant by contract: a missing or undecodable
// document looks exactly like an absent one, and never fails the caller.
package store

import "context"

// Store is the keyed document contract.
type Store interface {
	// Get decodes the document at key into dest. It returns (false, nil)
	// when the key is absent or the stored body is not valid JSON for
	// dest; corruption degrades to "absent", it is never surfaced.
	// A non-nil error means the backend itself failed.
	Get(ctx context.Context, key string, dest any) (bool, error)

	// Put persists the full document at key, replacing any prior value.
	// Whole-document overwrite: last writer wins.
	Put(ctx context.Context, key string, doc any) error

	// Exists reports whether a document is stored at key, without
	// decoding it. Used for code-collision checks.
	Exists(ctx context.Context, key string) (bool, error)

	Close() error
}

// Key builders. Every entity class gets its own prefix so canonical keys
// and codes only need to be unique within their own class.

func AthleteKey(canonical string) string { return "athlete/" + canonical }
func CoachKey(canonical string) string   { return "coach/" + canonical }
func TeamKey(code string) string         { return "team/" + code }
func FamilyKey(code string) string       { return "family/" + code }
func ShareKey(code string) string        { return "share/" + code }

// LegacyAthleteKey addresses profiles written by old app versions under the
// raw, trimmed, unnormalized identity. Consulted only during authenticate,
// never written to.
func LegacyAthleteKey(rawTrimmed string) string { return "athlete/" + rawTrimmed }
