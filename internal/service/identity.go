// Package service contains the business logic layer: identity and
// registration, team/family relationships, and share snapshots. Services
// speak in canonical keys and domain errors; they know nothing about HTTP.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/rs/xid"

	"github.com/perfpulse/pulselink/internal/aggregate"
	"github.com/perfpulse/pulselink/internal/apperror"
	"github.com/perfpulse/pulselink/internal/auth"
	"github.com/perfpulse/pulselink/internal/identity"
	"github.com/perfpulse/pulselink/internal/metrics"
	"github.com/perfpulse/pulselink/internal/model"
	"github.com/perfpulse/pulselink/internal/store"
)

// DefaultLogName is the log sequence every new profile starts with.
const DefaultLogName = "training"

// reservedLogName is the key WeeklyTotals reports the combined sum under;
// no log sequence may take it.
const reservedLogName = "total"

// IdentityService handles registration, authentication and the private log
// of each account. It owns the one-time legacy migration: profiles written
// by old app versions under the raw identity are adopted into the canonical
// namespace on first successful login.
type IdentityService struct {
	docs    store.Store
	pins    *auth.PINService
	metrics *metrics.Manager
	logger  *slog.Logger
	now     func() time.Time
}

// NewIdentityService wires the service. mgr may be nil.
func NewIdentityService(docs store.Store, pins *auth.PINService, mgr *metrics.Manager, logger *slog.Logger) *IdentityService {
	return &IdentityService{
		docs:    docs,
		pins:    pins,
		metrics: mgr,
		logger:  logger,
		now:     time.Now,
	}
}

// RegisterAthlete creates a profile at the canonical key with empty log
// sequences (logNames, defaulting to "training") and a palette color.
// Fails with ErrConflict if the canonical document already exists. The
// legacy path is never consulted here, only authenticate reads it.
func (s *IdentityService) RegisterAthlete(ctx context.Context, rawIdentity, pin, confirm string, logNames []string) (*model.AthleteProfile, error) {
	key, err := validIdentity(rawIdentity)
	if err != nil {
		return nil, err
	}
	if err := validPIN(pin, confirm); err != nil {
		return nil, err
	}

	exists, err := s.docs.Exists(ctx, store.AthleteKey(key))
	if err != nil {
		return nil, fmt.Errorf("service/identity: checking athlete %s: %w", key, err)
	}
	if exists {
		return nil, apperror.Conflict("athlete", key)
	}

	hash, err := s.pins.Hash(pin)
	if err != nil {
		return nil, fmt.Errorf("service/identity: %w", err)
	}

	if len(logNames) == 0 {
		logNames = []string{DefaultLogName}
	}
	logs := make(map[string][]model.MetricRecord, len(logNames))
	for _, name := range logNames {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if name == reservedLogName {
			return nil, apperror.ValidationFailed("logs", fmt.Sprintf("%q is a reserved log name", reservedLogName))
		}
		logs[name] = []model.MetricRecord{}
	}

	profile := &model.AthleteProfile{
		Identity: key,
		PIN:      hash,
		Color:    model.Palette[rand.IntN(len(model.Palette))],
		Created:  s.now().UTC().Format(time.RFC3339),
		Teams:    []string{},
		Logs:     logs,
	}
	if err := s.docs.Put(ctx, store.AthleteKey(key), profile); err != nil {
		return nil, fmt.Errorf("service/identity: storing athlete %s: %w", key, err)
	}

	s.metrics.Registration(auth.RoleAthlete)
	s.logger.Info("athlete registered", slog.String("identity", key))
	return profile, nil
}

// RegisterCoach creates a coach account at the canonical key. Coaches are a
// separate namespace from athletes: the same canonical key may exist in
// both.
func (s *IdentityService) RegisterCoach(ctx context.Context, rawIdentity, pin, confirm string) (*model.CoachAccount, error) {
	key, err := validIdentity(rawIdentity)
	if err != nil {
		return nil, err
	}
	if err := validPIN(pin, confirm); err != nil {
		return nil, err
	}

	exists, err := s.docs.Exists(ctx, store.CoachKey(key))
	if err != nil {
		return nil, fmt.Errorf("service/identity: checking coach %s: %w", key, err)
	}
	if exists {
		return nil, apperror.Conflict("coach", key)
	}

	hash, err := s.pins.Hash(pin)
	if err != nil {
		return nil, fmt.Errorf("service/identity: %w", err)
	}

	account := &model.CoachAccount{
		Identity: key,
		PIN:      hash,
		Created:  s.now().UTC().Format(time.RFC3339),
	}
	if err := s.docs.Put(ctx, store.CoachKey(key), account); err != nil {
		return nil, fmt.Errorf("service/identity: storing coach %s: %w", key, err)
	}

	s.metrics.Registration(auth.RoleCoach)
	s.logger.Info("coach registered", slog.String("identity", key))
	return account, nil
}

// AuthenticateAthlete resolves the canonical document and verifies the PIN.
// When no canonical document exists it falls back to the legacy path: the
// raw, trimmed, unnormalized identity. A legacy document stores the PIN in
// plaintext; if it matches, the profile is migrated: rewritten under the
// canonical key with the identity field canonicalized and the PIN hashed.
// Old identities that were already canonical land at the canonical key
// itself, so a plaintext PIN found there takes the same equality-then-
// migrate path, in place. The legacy copy is left behind; once the
// canonical document holds a hash the legacy path is never read again, so
// migration is effectively one-shot.
func (s *IdentityService) AuthenticateAthlete(ctx context.Context, rawIdentity, pin string) (*model.AthleteProfile, error) {
	key, err := validIdentity(rawIdentity)
	if err != nil {
		return nil, err
	}

	var profile model.AthleteProfile
	found, err := s.docs.Get(ctx, store.AthleteKey(key), &profile)
	if err != nil {
		return nil, fmt.Errorf("service/identity: reading athlete %s: %w", key, err)
	}
	if found {
		if !s.pins.IsHashed(profile.PIN) {
			// Legacy document at the canonical key: plaintext PIN.
			if profile.PIN != pin {
				return nil, apperror.Forbidden("invalid identity or PIN")
			}
			return s.migrateLegacy(ctx, key, store.AthleteKey(key), &profile, pin)
		}
		if err := s.pins.Verify(profile.PIN, pin); err != nil {
			return nil, apperror.Forbidden("invalid identity or PIN")
		}
		return &profile, nil
	}

	// Legacy fallback: old app versions stored the profile under the raw
	// typed identity.
	legacyKey := store.LegacyAthleteKey(strings.TrimSpace(rawIdentity))
	if legacyKey == store.AthleteKey(key) {
		return nil, apperror.NotFound("athlete", key)
	}

	var legacy model.AthleteProfile
	found, err = s.docs.Get(ctx, legacyKey, &legacy)
	if err != nil {
		return nil, fmt.Errorf("service/identity: reading legacy athlete: %w", err)
	}
	if !found {
		return nil, apperror.NotFound("athlete", key)
	}

	if legacy.PIN != pin {
		return nil, apperror.Forbidden("invalid identity or PIN")
	}
	return s.migrateLegacy(ctx, key, legacyKey, &legacy, pin)
}

// migrateLegacy rewrites a plaintext-PIN profile under the canonical key:
// identity canonicalized, PIN hashed, everything else verbatim. The caller
// has already checked the PIN by equality.
func (s *IdentityService) migrateLegacy(ctx context.Context, key, legacyKey string, legacy *model.AthleteProfile, pin string) (*model.AthleteProfile, error) {
	hash, err := s.pins.Hash(pin)
	if err != nil {
		return nil, fmt.Errorf("service/identity: %w", err)
	}
	legacy.Identity = key
	legacy.PIN = hash
	if legacy.Teams == nil {
		legacy.Teams = []string{}
	}
	if legacy.Logs == nil {
		legacy.Logs = map[string][]model.MetricRecord{}
	}
	if err := s.docs.Put(ctx, store.AthleteKey(key), legacy); err != nil {
		return nil, fmt.Errorf("service/identity: migrating athlete %s: %w", key, err)
	}

	s.metrics.LegacyMigration()
	s.logger.Info("legacy profile migrated",
		slog.String("identity", key),
		slog.String("legacyKey", legacyKey),
	)
	return legacy, nil
}

// AuthenticateCoach resolves and verifies a coach account. Coaches were
// always stored canonical, so there is no legacy path.
func (s *IdentityService) AuthenticateCoach(ctx context.Context, rawIdentity, pin string) (*model.CoachAccount, error) {
	key, err := validIdentity(rawIdentity)
	if err != nil {
		return nil, err
	}

	var account model.CoachAccount
	found, err := s.docs.Get(ctx, store.CoachKey(key), &account)
	if err != nil {
		return nil, fmt.Errorf("service/identity: reading coach %s: %w", key, err)
	}
	if !found {
		return nil, apperror.NotFound("coach", key)
	}
	if err := s.pins.Verify(account.PIN, pin); err != nil {
		return nil, apperror.Forbidden("invalid identity or PIN")
	}
	return &account, nil
}

// Profile loads an athlete profile by any spelling of its identity.
func (s *IdentityService) Profile(ctx context.Context, rawIdentity string) (*model.AthleteProfile, error) {
	key, err := validIdentity(rawIdentity)
	if err != nil {
		return nil, err
	}

	var profile model.AthleteProfile
	found, err := s.docs.Get(ctx, store.AthleteKey(key), &profile)
	if err != nil {
		return nil, fmt.Errorf("service/identity: reading athlete %s: %w", key, err)
	}
	if !found {
		return nil, apperror.NotFound("athlete", key)
	}
	return &profile, nil
}

// Coach loads a coach account by any spelling of its identity.
func (s *IdentityService) Coach(ctx context.Context, rawIdentity string) (*model.CoachAccount, error) {
	key, err := validIdentity(rawIdentity)
	if err != nil {
		return nil, err
	}

	var account model.CoachAccount
	found, err := s.docs.Get(ctx, store.CoachKey(key), &account)
	if err != nil {
		return nil, fmt.Errorf("service/identity: reading coach %s: %w", key, err)
	}
	if !found {
		return nil, apperror.NotFound("coach", key)
	}
	return &account, nil
}

// AppendRecord appends a record to the named log sequence, creating the
// sequence on first use, and assigns a record ID when the caller did not.
// The record's date is stored as given; unparsable dates are legal, they
// just never contribute to an aggregate.
func (s *IdentityService) AppendRecord(ctx context.Context, rawIdentity, logName string, rec model.MetricRecord) (*model.MetricRecord, error) {
	logName = strings.TrimSpace(logName)
	if logName == "" {
		return nil, apperror.ValidationFailed("log", "log name is required")
	}
	if logName == reservedLogName {
		return nil, apperror.ValidationFailed("log", fmt.Sprintf("%q is a reserved log name", reservedLogName))
	}

	profile, err := s.Profile(ctx, rawIdentity)
	if err != nil {
		return nil, err
	}

	if rec.ID == "" {
		rec.ID = xid.New().String()
	}
	if profile.Logs == nil {
		profile.Logs = map[string][]model.MetricRecord{}
	}
	profile.Logs[logName] = append(profile.Logs[logName], rec)

	if err := s.docs.Put(ctx, store.AthleteKey(profile.Identity), profile); err != nil {
		return nil, fmt.Errorf("service/identity: storing athlete %s: %w", profile.Identity, err)
	}

	s.logger.Info("record appended",
		slog.String("identity", profile.Identity),
		slog.String("log", logName),
		slog.String("recordID", rec.ID),
	)
	return &rec, nil
}

// WeeklyTotals computes the current-ISO-week total per requested log, plus
// a combined total under the reserved "total" key. Empty logNames means
// every log the profile has; no stored log can shadow the reserved key.
func (s *IdentityService) WeeklyTotals(ctx context.Context, rawIdentity string, logNames []string, ref time.Time) (map[string]int, error) {
	profile, err := s.Profile(ctx, rawIdentity)
	if err != nil {
		return nil, err
	}

	if len(logNames) == 0 {
		for name := range profile.Logs {
			logNames = append(logNames, name)
		}
	}

	totals := make(map[string]int, len(logNames)+1)
	combined := 0
	for _, name := range logNames {
		t := aggregate.WeeklyTotal(profile.Logs[name], ref)
		totals[name] = t
		combined += t
	}
	totals["total"] = combined
	return totals, nil
}

func validIdentity(raw string) (string, error) {
	key := identity.Canonicalize(raw)
	if key == "" {
		return "", apperror.ValidationFailed("identity", "identity is required")
	}
	return key, nil
}

func validPIN(pin, confirm string) error {
	if pin == "" {
		return apperror.ValidationFailed("pin", "PIN is required")
	}
	if pin != confirm {
		return apperror.ValidationFailed("pin", "PINs do not match")
	}
	return nil
}
