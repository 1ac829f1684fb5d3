package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/perfpulse/pulselink/internal/apperror"
	"github.com/perfpulse/pulselink/internal/codes"
	"github.com/perfpulse/pulselink/internal/model"
)

func TestSnapshotCreateAndResolve(t *testing.T) {
	docs := newFakeStore()
	ids := newTestIdentityService(docs)
	snaps := newTestSnapshotService(docs)
	snaps.now = func() time.Time { return time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC) }
	ctx := context.Background()

	if _, err := ids.RegisterAthlete(ctx, "kara", "1234", "1234", []string{"training", "races"}); err != nil {
		t.Fatalf("RegisterAthlete() error = %v", err)
	}
	if _, err := ids.AppendRecord(ctx, "kara", "training", model.MetricRecord{Date: "2026-08-25", Amount: 40}); err != nil {
		t.Fatalf("AppendRecord() error = %v", err)
	}
	if _, err := ids.AppendRecord(ctx, "kara", "training", model.MetricRecord{Date: "2026-08-01", Amount: 90}); err != nil {
		t.Fatalf("AppendRecord() error = %v", err)
	}

	snap, err := snaps.Create(ctx, "kara", []string{"training", "nonsense"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if len(snap.Code) != codes.ShareLength {
		t.Errorf("len(Code) = %d, want %d", len(snap.Code), codes.ShareLength)
	}
	// Unknown log names are skipped, not errors.
	if _, ok := snap.Logs["nonsense"]; ok {
		t.Error("unknown log name copied into snapshot")
	}
	if got := snap.WeeklyTotals["training"]; got != 40 {
		t.Errorf("WeeklyTotals[training] = %d, want 40", got)
	}
	if snap.GeneratedAt != "2026-08-26T12:00:00Z" {
		t.Errorf("GeneratedAt = %q", snap.GeneratedAt)
	}

	got, err := snaps.Resolve(ctx, snap.Code)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got.Identity != "kara" || len(got.Logs["training"]) != 2 {
		t.Errorf("Resolve() = %+v", got)
	}
}

func TestSnapshotFrozenAtCreation(t *testing.T) {
	docs := newFakeStore()
	ids := newTestIdentityService(docs)
	snaps := newTestSnapshotService(docs)
	ctx := context.Background()

	if _, err := ids.RegisterAthlete(ctx, "liam", "1234", "1234", nil); err != nil {
		t.Fatalf("RegisterAthlete() error = %v", err)
	}
	if _, err := ids.AppendRecord(ctx, "liam", "training", model.MetricRecord{Date: "2026-08-25", Amount: 30}); err != nil {
		t.Fatalf("AppendRecord() error = %v", err)
	}

	snap, err := snaps.Create(ctx, "liam", nil)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	// Later edits must not show through the existing code.
	if _, err := ids.AppendRecord(ctx, "liam", "training", model.MetricRecord{Date: "2026-08-26", Amount: 60}); err != nil {
		t.Fatalf("AppendRecord() error = %v", err)
	}

	got, err := snaps.Resolve(ctx, snap.Code)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if len(got.Logs["training"]) != 1 {
		t.Errorf("len(Logs[training]) = %d, want 1", len(got.Logs["training"]))
	}
}

func TestSnapshotResolve_CaseInsensitive(t *testing.T) {
	docs := newFakeStore()
	ids := newTestIdentityService(docs)
	snaps := newTestSnapshotService(docs)
	ctx := context.Background()

	if _, err := ids.RegisterAthlete(ctx, "mia", "1234", "1234", nil); err != nil {
		t.Fatalf("RegisterAthlete() error = %v", err)
	}
	snap, err := snaps.Create(ctx, "mia", nil)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if _, err := snaps.Resolve(ctx, "  "+strings.ToLower(snap.Code)+" "); err != nil {
		t.Errorf("Resolve() with lowercased code: error = %v", err)
	}
}

func TestSnapshotResolve_Unknown(t *testing.T) {
	docs := newFakeStore()
	snaps := newTestSnapshotService(docs)

	_, err := snaps.Resolve(context.Background(), "WRONGCODE")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("Resolve() error = %v, want ErrNotFound", err)
	}
}

func TestSnapshotCreate_UnknownAthlete(t *testing.T) {
	docs := newFakeStore()
	snaps := newTestSnapshotService(docs)

	_, err := snaps.Create(context.Background(), "nobody", nil)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("Create() error = %v, want ErrNotFound", err)
	}
}
