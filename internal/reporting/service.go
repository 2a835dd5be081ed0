package reporting

import (
	"context"
	"errors"
	"time"
)

var ErrInvalidRequest = errors.New("reporting: invalid request")

// Repository abstracts data access for reporting. Implementations read
// from the complaint and assignment tables (or views over them), never
// from mutable caches.
type Repository interface {
	CountByStatus(ctx context.Context, from, to time.Time, categoryID, zoneID string) ([]StatusCount, error)
	ResolvedDurations(ctx context.Context, from, to time.Time, categoryID string) ([]ResolvedDuration, error)
	ActiveAssignmentCounts(ctx context.Context) ([]AuthorityLoad, error)
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service { return &Service{repo: repo} }

func validRange(r TimeRange) bool {
	return !r.From.IsZero() && !r.To.IsZero() && r.To.After(r.From)
}

func (s *Service) StatusBreakdown(ctx context.Context, req StatusBreakdownRequest) (StatusBreakdown, error) {
	if !validRange(req.Range) {
		return StatusBreakdown{}, ErrInvalidRequest
	}
	if s.repo == nil {
		return StatusBreakdown{}, errors.New("reporting: repository not configured")
	}

	rows, err := s.repo.CountByStatus(ctx, req.Range.From, req.Range.To, req.CategoryID, req.ZoneID)
	if err != nil {
		return StatusBreakdown{}, err
	}

	out := StatusBreakdown{CategoryID: req.CategoryID, ZoneID: req.ZoneID, ByStatus: rows}
	for _, r := range rows {
		out.Total += r.Count
	}
	return out, nil
}

func (s *Service) ResolutionSummary(ctx context.Context, req ResolutionSummaryRequest) (ResolutionSummary, error) {
	if !validRange(req.Range) {
		return ResolutionSummary{}, ErrInvalidRequest
	}
	if s.repo == nil {
		return ResolutionSummary{}, errors.New("reporting: repository not configured")
	}

	rows, err := s.repo.ResolvedDurations(ctx, req.Range.From, req.Range.To, req.CategoryID)
	if err != nil {
		return ResolutionSummary{}, err
	}

	out := ResolutionSummary{CategoryID: req.CategoryID, ResolvedCount: len(rows)}
	var total float64
	for _, r := range rows {
		total += r.Hours
		if r.Hours > out.MaxHours {
			out.MaxHours = r.Hours
		}
	}
	if out.ResolvedCount > 0 {
		out.AverageHours = total / float64(out.ResolvedCount)
	}
	return out, nil
}

// AuthorityLoads returns active assignment counts per authority, heaviest
// load first.
func (s *Service) AuthorityLoads(ctx context.Context) ([]AuthorityLoad, error) {
	if s.repo == nil {
		return nil, errors.New("reporting: repository not configured")
	}
	return s.repo.ActiveAssignmentCounts(ctx)
}
