package service

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/perfpulse/pulselink/internal/aggregate"
	"github.com/perfpulse/pulselink/internal/apperror"
	"github.com/perfpulse/pulselink/internal/codes"
	"github.com/perfpulse/pulselink/internal/identity"
	"github.com/perfpulse/pulselink/internal/metrics"
	"github.com/perfpulse/pulselink/internal/model"
	"github.com/perfpulse/pulselink/internal/store"
)

// defaultFamilyName is used when ensure_family is called without a name.
const defaultFamilyName = "Family"

// RelationshipService maintains the athlete↔team and family→children
// graphs. Team and family codes are separate uniqueness namespaces.
type RelationshipService struct {
	docs    store.Store
	metrics *metrics.Manager
	logger  *slog.Logger

	// pick indexes into the palette when it is exhausted; injectable so
	// tests are deterministic.
	pick func(n int) int
}

// NewRelationshipService wires the service. mgr may be nil.
func NewRelationshipService(docs store.Store, mgr *metrics.Manager, logger *slog.Logger) *RelationshipService {
	return &RelationshipService{
		docs:    docs,
		metrics: mgr,
		logger:  logger,
		pick:    rand.IntN,
	}
}

// CreateTeam allocates a team under a fresh 6-character code with an empty
// roster.
func (s *RelationshipService) CreateTeam(ctx context.Context, name string) (*model.Team, string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, "", apperror.ValidationFailed("name", "team name is required")
	}

	code, err := s.newCode(ctx, "team", codes.TeamLength, store.TeamKey)
	if err != nil {
		return nil, "", err
	}

	team := &model.Team{Name: name, Roster: []string{}}
	if err := s.docs.Put(ctx, store.TeamKey(code), team); err != nil {
		return nil, "", fmt.Errorf("service/relationship: storing team %s: %w", code, err)
	}

	s.logger.Info("team created", slog.String("code", code), slog.String("name", name))
	return team, code, nil
}

// Team resolves a team by code.
func (s *RelationshipService) Team(ctx context.Context, code string) (*model.Team, error) {
	code = codes.Normalize(code)

	var team model.Team
	found, err := s.docs.Get(ctx, store.TeamKey(code), &team)
	if err != nil {
		return nil, fmt.Errorf("service/relationship: reading team %s: %w", code, err)
	}
	if !found {
		return nil, apperror.NotFound("team", code)
	}
	return &team, nil
}

// JoinTeam adds the athlete to the team roster and records the membership
// on the profile. Joining twice is a no-op success. Unknown codes fail with
// ErrNotFound; joining never creates a team.
func (s *RelationshipService) JoinTeam(ctx context.Context, rawIdentity, code string) error {
	key, err := validIdentity(rawIdentity)
	if err != nil {
		return err
	}
	code = codes.Normalize(code)

	team, err := s.Team(ctx, code)
	if err != nil {
		return err
	}

	var profile model.AthleteProfile
	found, err := s.docs.Get(ctx, store.AthleteKey(key), &profile)
	if err != nil {
		return fmt.Errorf("service/relationship: reading athlete %s: %w", key, err)
	}
	if !found {
		return apperror.NotFound("athlete", key)
	}

	if team.HasMember(key) {
		return nil
	}

	team.Roster = append(team.Roster, key)
	if err := s.docs.Put(ctx, store.TeamKey(code), team); err != nil {
		return fmt.Errorf("service/relationship: storing team %s: %w", code, err)
	}

	if !contains(profile.Teams, code) {
		profile.Teams = append(profile.Teams, code)
		if err := s.docs.Put(ctx, store.AthleteKey(key), &profile); err != nil {
			return fmt.Errorf("service/relationship: storing athlete %s: %w", key, err)
		}
	}

	s.logger.Info("athlete joined team",
		slog.String("identity", key),
		slog.String("code", code),
	)
	return nil
}

// CreateFamily allocates a family under a fresh 6-character code with no
// children.
func (s *RelationshipService) CreateFamily(ctx context.Context, name string) (*model.Family, string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = defaultFamilyName
	}

	code, err := s.newCode(ctx, "family", codes.FamilyLength, store.FamilyKey)
	if err != nil {
		return nil, "", err
	}

	family := &model.Family{Name: name, Children: []model.FamilyChild{}}
	if err := s.docs.Put(ctx, store.FamilyKey(code), family); err != nil {
		return nil, "", fmt.Errorf("service/relationship: storing family %s: %w", code, err)
	}

	s.logger.Info("family created", slog.String("code", code), slog.String("name", name))
	return family, code, nil
}

// EnsureFamily idempotently creates a family at a caller-supplied code.
// This is the only way a family appears at a chosen code: LinkChild never
// creates one. Callers wanting link-with-autocreate must call EnsureFamily
// first, explicitly.
func (s *RelationshipService) EnsureFamily(ctx context.Context, code, name string) error {
	code = codes.Normalize(code)
	if code == "" {
		return apperror.ValidationFailed("code", "family code is required")
	}

	exists, err := s.docs.Exists(ctx, store.FamilyKey(code))
	if err != nil {
		return fmt.Errorf("service/relationship: checking family %s: %w", code, err)
	}
	if exists {
		return nil
	}

	name = strings.TrimSpace(name)
	if name == "" {
		name = defaultFamilyName
	}
	family := &model.Family{Name: name, Children: []model.FamilyChild{}}
	if err := s.docs.Put(ctx, store.FamilyKey(code), family); err != nil {
		return fmt.Errorf("service/relationship: storing family %s: %w", code, err)
	}

	s.logger.Info("family ensured", slog.String("code", code))
	return nil
}

// Family resolves a family by code.
func (s *RelationshipService) Family(ctx context.Context, code string) (*model.Family, error) {
	code = codes.Normalize(code)

	var family model.Family
	found, err := s.docs.Get(ctx, store.FamilyKey(code), &family)
	if err != nil {
		return nil, fmt.Errorf("service/relationship: reading family %s: %w", code, err)
	}
	if !found {
		return nil, apperror.NotFound("family", code)
	}
	return &family, nil
}

// LinkChild adds the athlete to the family with the first palette color no
// sibling uses; once the palette is exhausted the color is drawn uniformly
// from the full palette, so duplicates only appear past palette capacity.
// Re-linking an already-linked athlete is a no-op success.
func (s *RelationshipService) LinkChild(ctx context.Context, code, rawIdentity string) (*model.FamilyChild, error) {
	key := identity.Canonicalize(rawIdentity)
	if key == "" {
		return nil, apperror.ValidationFailed("identity", "identity is required")
	}
	code = codes.Normalize(code)

	family, err := s.Family(ctx, code)
	if err != nil {
		return nil, err
	}

	if child := family.Child(key); child != nil {
		return child, nil
	}

	child := model.FamilyChild{Identity: key, Color: s.assignColor(family)}
	family.Children = append(family.Children, child)
	if err := s.docs.Put(ctx, store.FamilyKey(code), family); err != nil {
		return nil, fmt.Errorf("service/relationship: storing family %s: %w", code, err)
	}

	s.logger.Info("child linked",
		slog.String("code", code),
		slog.String("identity", key),
		slog.String("color", child.Color),
	)
	return &child, nil
}

// FamilyWeeklyTotals returns the current-week training total per child.
// Children whose profile is missing count as zero rather than failing the
// whole dashboard.
func (s *RelationshipService) FamilyWeeklyTotals(ctx context.Context, code string, ref time.Time) (map[string]int, error) {
	family, err := s.Family(ctx, code)
	if err != nil {
		return nil, err
	}

	totals := make(map[string]int, len(family.Children))
	for _, child := range family.Children {
		totals[child.Identity] = 0

		var profile model.AthleteProfile
		found, err := s.docs.Get(ctx, store.AthleteKey(child.Identity), &profile)
		if err != nil {
			return nil, fmt.Errorf("service/relationship: reading athlete %s: %w", child.Identity, err)
		}
		if !found {
			continue
		}
		totals[child.Identity] = aggregate.WeeklyTotal(profile.Logs[DefaultLogName], ref)
	}
	return totals, nil
}

// MonthlyCalendar builds the family calendar grid for a month: per-day
// training totals across all children, each day tagged with the
// contributing children and their colors.
func (s *RelationshipService) MonthlyCalendar(ctx context.Context, code string, year int, month time.Month) (map[int]aggregate.DayCell, error) {
	family, err := s.Family(ctx, code)
	if err != nil {
		return nil, err
	}

	var entries []aggregate.Tagged
	for _, child := range family.Children {
		var profile model.AthleteProfile
		found, err := s.docs.Get(ctx, store.AthleteKey(child.Identity), &profile)
		if err != nil {
			return nil, fmt.Errorf("service/relationship: reading athlete %s: %w", child.Identity, err)
		}
		if !found {
			continue
		}
		for _, rec := range profile.Logs[DefaultLogName] {
			entries = append(entries, aggregate.Tagged{
				Record:  rec,
				Subject: child.Identity,
				Color:   child.Color,
			})
		}
	}

	return aggregate.MonthlyGrid(entries, year, month), nil
}

func (s *RelationshipService) assignColor(family *model.Family) string {
	used := family.UsedColors()
	for _, c := range model.Palette {
		if !used[c] {
			return c
		}
	}
	return model.Palette[s.pick(len(model.Palette))]
}

func (s *RelationshipService) newCode(ctx context.Context, ns string, length int, key func(string) string) (string, error) {
	code, err := codes.Generate(length, func(candidate string) (bool, error) {
		return s.docs.Exists(ctx, key(candidate))
	})
	if err != nil {
		return "", fmt.Errorf("service/relationship: generating %s code: %w", ns, err)
	}
	s.metrics.CodeIssued(ns)
	return code, nil
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
