package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/perfpulse/pulselink/internal/aggregate"
	"github.com/perfpulse/pulselink/internal/apperror"
	"github.com/perfpulse/pulselink/internal/codes"
	"github.com/perfpulse/pulselink/internal/metrics"
	"github.com/perfpulse/pulselink/internal/model"
	"github.com/perfpulse/pulselink/internal/store"
)

// SnapshotService publishes read-only copies of athlete logs under share
// codes. A snapshot is frozen at creation time: later edits to the profile
// never show through an existing code.
type SnapshotService struct {
	docs    store.Store
	metrics *metrics.Manager
	logger  *slog.Logger
	now     func() time.Time
}

// NewSnapshotService wires the service. mgr may be nil.
func NewSnapshotService(docs store.Store, mgr *metrics.Manager, logger *slog.Logger) *SnapshotService {
	return &SnapshotService{
		docs:    docs,
		metrics: mgr,
		logger:  logger,
		now:     time.Now,
	}
}

// Create copies the named logs out of the athlete's profile into a new
// snapshot and returns it together with its 8-character share code. Log
// names the profile does not have are skipped silently. Weekly totals are
// computed once, against the creation instant.
func (s *SnapshotService) Create(ctx context.Context, rawIdentity string, logNames []string) (*model.ShareSnapshot, error) {
	key, err := validIdentity(rawIdentity)
	if err != nil {
		return nil, err
	}

	var profile model.AthleteProfile
	found, err := s.docs.Get(ctx, store.AthleteKey(key), &profile)
	if err != nil {
		return nil, fmt.Errorf("service/snapshot: reading athlete %s: %w", key, err)
	}
	if !found {
		return nil, apperror.NotFound("athlete", key)
	}

	if len(logNames) == 0 {
		for name := range profile.Logs {
			logNames = append(logNames, name)
		}
	}

	now := s.now()
	snap := &model.ShareSnapshot{
		Identity:     key,
		GeneratedAt:  now.UTC().Format(time.RFC3339),
		Logs:         make(map[string][]model.MetricRecord),
		WeeklyTotals: make(map[string]int),
	}
	for _, name := range logNames {
		records, ok := profile.Logs[name]
		if !ok {
			continue
		}
		// Copy the slice so the snapshot cannot alias the live profile.
		snap.Logs[name] = append([]model.MetricRecord(nil), records...)
		snap.WeeklyTotals[name] = aggregate.WeeklyTotal(records, now)
	}

	code, err := codes.Generate(codes.ShareLength, func(candidate string) (bool, error) {
		return s.docs.Exists(ctx, store.ShareKey(candidate))
	})
	if err != nil {
		return nil, fmt.Errorf("service/snapshot: generating share code: %w", err)
	}
	snap.Code = code

	if err := s.docs.Put(ctx, store.ShareKey(code), snap); err != nil {
		return nil, fmt.Errorf("service/snapshot: storing snapshot %s: %w", code, err)
	}

	s.metrics.CodeIssued("share")
	s.metrics.SnapshotCreated()
	s.logger.Info("snapshot created",
		slog.String("identity", key),
		slog.String("code", code),
		slog.Int("logs", len(snap.Logs)),
	)
	return snap, nil
}

// Resolve looks up a snapshot by share code. No authentication: the code
// itself is the capability.
func (s *SnapshotService) Resolve(ctx context.Context, code string) (*model.ShareSnapshot, error) {
	code = codes.Normalize(code)

	var snap model.ShareSnapshot
	found, err := s.docs.Get(ctx, store.ShareKey(code), &snap)
	if err != nil {
		return nil, fmt.Errorf("service/snapshot: reading snapshot %s: %w", code, err)
	}
	if !found {
		s.metrics.SnapshotResolve(false)
		return nil, apperror.NotFound("snapshot", code)
	}
	s.metrics.SnapshotResolve(true)
	return &snap, nil
}
