package reporting

import (
	"context"
	"sort"
	"sync"
	"time"

	"civic-platform/internal/complaints"
)

// MemoryRepo computes reporting aggregates from in-memory complaint and
// assignment rows. Useful for tests.
type MemoryRepo struct {
	mu sync.Mutex

	Complaints  []complaints.Complaint
	Assignments []complaints.Assignment
}

func NewMemoryRepo() *MemoryRepo { return &MemoryRepo{} }

func (r *MemoryRepo) CountByStatus(_ context.Context, from, to time.Time, categoryID, zoneID string) ([]StatusCount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	counts := map[complaints.Status]int{}
	for _, c := range r.Complaints {
		if c.CreatedAt.Before(from) || !c.CreatedAt.Before(to) {
			continue
		}
		if categoryID != "" && c.CategoryID != categoryID {
			continue
		}
		if zoneID != "" && (c.ZoneID == nil || *c.ZoneID != zoneID) {
			continue
		}
		counts[c.Status]++
	}

	out := make([]StatusCount, 0, len(counts))
	for st, n := range counts {
		out = append(out, StatusCount{Status: st, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Status < out[j].Status })
	return out, nil
}

func (r *MemoryRepo) ResolvedDurations(_ context.Context, from, to time.Time, categoryID string) ([]ResolvedDuration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []ResolvedDuration
	for _, c := range r.Complaints {
		if c.ResolvedAt == nil {
			continue
		}
		if c.ResolvedAt.Before(from) || !c.ResolvedAt.Before(to) {
			continue
		}
		if categoryID != "" && c.CategoryID != categoryID {
			continue
		}
		out = append(out, ResolvedDuration{
			ComplaintID: c.ID,
			Hours:       c.ResolvedAt.Sub(c.CreatedAt).Hours(),
		})
	}
	return out, nil
}

func (r *MemoryRepo) ActiveAssignmentCounts(_ context.Context) ([]AuthorityLoad, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	counts := map[string]int{}
	for _, a := range r.Assignments {
		if a.IsActive {
			counts[a.AuthorityID]++
		}
	}
	out := make([]AuthorityLoad, 0, len(counts))
	for id, n := range counts {
		out = append(out, AuthorityLoad{AuthorityID: id, ActiveCount: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ActiveCount != out[j].ActiveCount {
			return out[i].ActiveCount > out[j].ActiveCount
		}
		return out[i].AuthorityID < out[j].AuthorityID
	})
	return out, nil
}
