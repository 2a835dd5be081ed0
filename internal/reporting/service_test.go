package reporting

import (
	"context"
	"testing"
	"time"

	"civic-platform/internal/complaints"
)

func TestStatusBreakdown_FiltersAndTotals(t *testing.T) {
	repo := NewMemoryRepo()
	now := time.Unix(1700000000, 0).UTC()
	zone := "z1"
	repo.Complaints = []complaints.Complaint{
		{ID: "c1", CategoryID: "roads", Status: complaints.StatusCreated, CreatedAt: now},
		{ID: "c2", CategoryID: "roads", Status: complaints.StatusCreated, CreatedAt: now},
		{ID: "c3", CategoryID: "roads", Status: complaints.StatusResolved, CreatedAt: now, ZoneID: &zone},
		{ID: "c4", CategoryID: "lighting", Status: complaints.StatusCreated, CreatedAt: now},
		{ID: "c5", CategoryID: "roads", Status: complaints.StatusCreated, CreatedAt: now.Add(-48 * time.Hour)},
	}
	svc := NewService(repo)
	rng := TimeRange{From: now.Add(-time.Hour), To: now.Add(time.Hour)}

	out, err := svc.StatusBreakdown(context.Background(), StatusBreakdownRequest{Range: rng, CategoryID: "roads"})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if out.Total != 3 {
		t.Fatalf("expected 3 in-range roads complaints, got %d", out.Total)
	}
	if len(out.ByStatus) != 2 {
		t.Fatalf("expected 2 status buckets, got %+v", out.ByStatus)
	}

	scoped, err := svc.StatusBreakdown(context.Background(), StatusBreakdownRequest{Range: rng, ZoneID: zone})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if scoped.Total != 1 {
		t.Fatalf("expected 1 complaint in zone, got %d", scoped.Total)
	}

	if _, err := svc.StatusBreakdown(context.Background(), StatusBreakdownRequest{}); err != ErrInvalidRequest {
		t.Fatalf("expected ErrInvalidRequest for empty range, got %v", err)
	}
}

func TestResolutionSummary_Aggregates(t *testing.T) {
	repo := NewMemoryRepo()
	now := time.Unix(1700000000, 0).UTC()
	at := func(d time.Duration) *time.Time { ts := now.Add(d); return &ts }
	repo.Complaints = []complaints.Complaint{
		{ID: "c1", CategoryID: "roads", Status: complaints.StatusResolved, CreatedAt: now.Add(-10 * time.Hour), ResolvedAt: at(0)},
		{ID: "c2", CategoryID: "roads", Status: complaints.StatusResolved, CreatedAt: now.Add(-2 * time.Hour), ResolvedAt: at(0)},
		{ID: "c3", CategoryID: "roads", Status: complaints.StatusInReview, CreatedAt: now.Add(-5 * time.Hour)},
		{ID: "c4", CategoryID: "roads", Status: complaints.StatusResolved, CreatedAt: now.Add(-100 * time.Hour), ResolvedAt: at(-72 * time.Hour)},
	}
	svc := NewService(repo)

	out, err := svc.ResolutionSummary(context.Background(), ResolutionSummaryRequest{
		Range: TimeRange{From: now.Add(-time.Hour), To: now.Add(time.Hour)},
	})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if out.ResolvedCount != 2 {
		t.Fatalf("expected 2 resolutions in range, got %d", out.ResolvedCount)
	}
	if out.AverageHours != 6 {
		t.Fatalf("expected average 6h, got %v", out.AverageHours)
	}
	if out.MaxHours != 10 {
		t.Fatalf("expected max 10h, got %v", out.MaxHours)
	}
}

func TestAuthorityLoads_CountsActiveOnly(t *testing.T) {
	repo := NewMemoryRepo()
	repo.Assignments = []complaints.Assignment{
		{ID: "a1", ComplaintID: "c1", AuthorityID: "h1", IsActive: true},
		{ID: "a2", ComplaintID: "c2", AuthorityID: "h1", IsActive: true},
		{ID: "a3", ComplaintID: "c2", AuthorityID: "h2", IsActive: false},
		{ID: "a4", ComplaintID: "c3", AuthorityID: "h2", IsActive: true},
	}
	svc := NewService(repo)

	out, err := svc.AuthorityLoads(context.Background())
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("expected 2 authorities, got %+v", out)
	}
	if out[0].AuthorityID != "h1" || out[0].ActiveCount != 2 {
		t.Fatalf("expected h1 first with 2 active, got %+v", out[0])
	}
	if out[1].AuthorityID != "h2" || out[1].ActiveCount != 1 {
		t.Fatalf("expected h2 with 1 active, got %+v", out[1])
	}
}
