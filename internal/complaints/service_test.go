package complaints

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"civic-platform/internal/catalog"
	"civic-platform/internal/users"

	"github.com/google/uuid"
)

type fixture struct {
	svc  *Service
	repo *MemoryRepo

	admin      users.User
	authority  users.User
	authority2 users.User
	citizen    users.User
	citizen2   users.User

	category catalog.Category
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	urepo := users.NewMemoryRepo()
	addUser := func(email string, role users.Role) users.User {
		u := users.User{
			ID:        uuid.NewString(),
			Email:     email,
			Name:      "Test " + email,
			Role:      role,
			Status:    users.StatusActive,
			CreatedAt: time.Unix(1700000000, 0).UTC(),
			UpdatedAt: time.Unix(1700000000, 0).UTC(),
		}
		if err := urepo.Create(ctx, u); err != nil {
			t.Fatalf("create user %s: %v", email, err)
		}
		return u
	}

	catSvc := catalog.NewService(catalog.NewMemoryRepo())
	cat, err := catSvc.CreateCategory(ctx, "Road damage", "potholes and cracks", "medium")
	if err != nil {
		t.Fatalf("create category: %v", err)
	}

	repo := NewMemoryRepo()
	f := &fixture{
		svc:        NewService(repo, users.NewService(urepo), catSvc, nil),
		repo:       repo,
		admin:      addUser("admin@example.com", users.RoleAdmin),
		authority:  addUser("h1@example.com", users.RoleAuthority),
		authority2: addUser("h2@example.com", users.RoleAuthority),
		citizen:    addUser("ana@example.com", users.RoleCitizen),
		citizen2:   addUser("bob@example.com", users.RoleCitizen),
		category:   cat,
	}
	return f
}

func (f *fixture) file(t *testing.T, reporterID string, public bool) Complaint {
	t.Helper()
	c, err := f.svc.File(context.Background(), FileRequest{
		ReporterID:  reporterID,
		CategoryID:  f.category.ID,
		Title:       "Broken streetlight",
		Description: "Dark corner at night",
		Public:      public,
	})
	if err != nil {
		t.Fatalf("file complaint: %v", err)
	}
	return c
}

func TestFile_CreatesComplaintWithDefaults(t *testing.T) {
	f := newFixture(t)
	c := f.file(t, f.citizen.ID, true)

	if c.Status != StatusCreated {
		t.Fatalf("expected status created, got %q", c.Status)
	}
	if c.Priority != PriorityMedium {
		t.Fatalf("expected category default priority medium, got %q", c.Priority)
	}
	if c.ResolvedAt != nil {
		t.Fatalf("expected nil resolved_at on filing")
	}
}

func TestFile_RejectsUnknownCategoryAndReporter(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.File(context.Background(), FileRequest{
		ReporterID: f.citizen.ID, CategoryID: "nope", Title: "t",
	})
	if !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument for unknown category, got %v", err)
	}

	_, err = f.svc.File(context.Background(), FileRequest{
		ReporterID: "ghost", CategoryID: f.category.ID, Title: "t",
	})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown reporter, got %v", err)
	}
}

func TestChangeStatus_PermissionDeniedLeavesStateUntouched(t *testing.T) {
	f := newFixture(t)
	c := f.file(t, f.citizen.ID, true)

	err := f.svc.ChangeStatus(context.Background(), c.ID, f.citizen2.ID, StatusValidated, "")
	if !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("expected ErrPermissionDenied, got %v", err)
	}

	got, _ := f.svc.Get(context.Background(), c.ID)
	if got.Status != StatusCreated {
		t.Fatalf("status must be unchanged, got %q", got.Status)
	}
	log, _ := f.repo.ListStatusLog(context.Background(), c.ID)
	if len(log) != 0 {
		t.Fatalf("audit log must be unchanged, got %d rows", len(log))
	}
}

func TestChangeStatus_UnknownComplaintOrActor(t *testing.T) {
	f := newFixture(t)
	c := f.file(t, f.citizen.ID, true)

	if err := f.svc.ChangeStatus(context.Background(), "missing", f.admin.ID, StatusValidated, ""); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown complaint, got %v", err)
	}
	if err := f.svc.ChangeStatus(context.Background(), c.ID, "ghost", StatusValidated, ""); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown actor, got %v", err)
	}
	if err := f.svc.ChangeStatus(context.Background(), c.ID, f.admin.ID, "escalated", ""); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument for unknown status, got %v", err)
	}
}

func TestChangeStatus_RecordsAuditRow(t *testing.T) {
	f := newFixture(t)
	c := f.file(t, f.citizen.ID, true)

	if err := f.svc.ChangeStatus(context.Background(), c.ID, f.admin.ID, StatusValidated, "looks legit"); err != nil {
		t.Fatalf("change status: %v", err)
	}

	got, _ := f.svc.Get(context.Background(), c.ID)
	if got.Status != StatusValidated {
		t.Fatalf("expected validated, got %q", got.Status)
	}
	if got.ResolvedAt != nil {
		t.Fatalf("resolved_at must remain nil")
	}

	log, err := f.svc.StatusHistory(context.Background(), c.ID)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(log) != 1 {
		t.Fatalf("expected 1 audit row, got %d", len(log))
	}
	e := log[0]
	if e.FromStatus == nil || *e.FromStatus != StatusCreated {
		t.Fatalf("expected from_status created, got %v", e.FromStatus)
	}
	if e.ToStatus != StatusValidated || e.ChangedBy != f.admin.ID || e.Comment != "looks legit" {
		t.Fatalf("unexpected audit row: %+v", e)
	}
}

func TestChangeStatus_ResolvedAtSetOnceNeverCleared(t *testing.T) {
	f := newFixture(t)
	c := f.file(t, f.citizen.ID, true)

	t0 := time.Unix(1700000100, 0).UTC()
	f.svc.clock = func() time.Time { return t0 }
	if err := f.svc.ChangeStatus(context.Background(), c.ID, f.admin.ID, StatusResolved, ""); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	got, _ := f.svc.Get(context.Background(), c.ID)
	if got.ResolvedAt == nil || !got.ResolvedAt.Equal(t0) {
		t.Fatalf("expected resolved_at %v, got %v", t0, got.ResolvedAt)
	}

	// Transition away: the open graph allows resolved -> created, and
	// resolved_at must survive it.
	f.svc.clock = func() time.Time { return t0.Add(time.Hour) }
	if err := f.svc.ChangeStatus(context.Background(), c.ID, f.admin.ID, StatusCreated, ""); err != nil {
		t.Fatalf("reopen: %v", err)
	}
	got, _ = f.svc.Get(context.Background(), c.ID)
	if got.Status != StatusCreated {
		t.Fatalf("expected created, got %q", got.Status)
	}
	if got.ResolvedAt == nil || !got.ResolvedAt.Equal(t0) {
		t.Fatalf("resolved_at must not be cleared, got %v", got.ResolvedAt)
	}

	// Resolving again must not overwrite the original timestamp.
	f.svc.clock = func() time.Time { return t0.Add(2 * time.Hour) }
	if err := f.svc.ChangeStatus(context.Background(), c.ID, f.admin.ID, StatusResolved, ""); err != nil {
		t.Fatalf("re-resolve: %v", err)
	}
	got, _ = f.svc.Get(context.Background(), c.ID)
	if got.ResolvedAt == nil || !got.ResolvedAt.Equal(t0) {
		t.Fatalf("resolved_at must keep first value, got %v", got.ResolvedAt)
	}
}

func TestChangeStatus_ConcurrentTransitionsSerialize(t *testing.T) {
	f := newFixture(t)
	c := f.file(t, f.citizen.ID, true)

	statuses := []Status{StatusValidated, StatusInReview, StatusInExecution, StatusResolved, StatusRejected, StatusArchived}
	const rounds = 5

	var wg sync.WaitGroup
	for i := 0; i < rounds; i++ {
		for _, st := range statuses {
			wg.Add(1)
			go func(st Status) {
				defer wg.Done()
				if err := f.svc.ChangeStatus(context.Background(), c.ID, f.authority.ID, st, ""); err != nil {
					t.Errorf("change status: %v", err)
				}
			}(st)
		}
	}
	wg.Wait()

	log, _ := f.repo.ListStatusLog(context.Background(), c.ID)
	if len(log) != rounds*len(statuses) {
		t.Fatalf("expected %d audit rows, got %d", rounds*len(statuses), len(log))
	}

	// Per-complaint locking means each entry starts where the previous ended.
	prev := StatusCreated
	for i, e := range log {
		if e.FromStatus == nil || *e.FromStatus != prev {
			t.Fatalf("row %d: expected from_status %q, got %v", i, prev, e.FromStatus)
		}
		prev = e.ToStatus
	}
	got, _ := f.svc.Get(context.Background(), c.ID)
	if got.Status != prev {
		t.Fatalf("cached status %q disagrees with log tail %q", got.Status, prev)
	}
}

func TestAssignAuthority_PermissionAndAssigneeChecks(t *testing.T) {
	f := newFixture(t)
	c := f.file(t, f.citizen.ID, true)

	if err := f.svc.AssignAuthority(context.Background(), c.ID, f.authority.ID, f.citizen.ID); !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("expected ErrPermissionDenied, got %v", err)
	}
	// An admin cannot be the handling authority.
	if err := f.svc.AssignAuthority(context.Background(), c.ID, f.admin.ID, f.admin.ID); !errors.Is(err, ErrInvalidAssignee) {
		t.Fatalf("expected ErrInvalidAssignee for admin target, got %v", err)
	}
	if err := f.svc.AssignAuthority(context.Background(), c.ID, f.citizen2.ID, f.admin.ID); !errors.Is(err, ErrInvalidAssignee) {
		t.Fatalf("expected ErrInvalidAssignee for citizen target, got %v", err)
	}

	rows, _ := f.repo.ListAssignments(context.Background(), c.ID)
	if len(rows) != 0 {
		t.Fatalf("no assignment rows must exist after rejected calls, got %d", len(rows))
	}
}

func TestAssignAuthority_UnknownComplaintOrUsers(t *testing.T) {
	f := newFixture(t)
	c := f.file(t, f.citizen.ID, true)

	if err := f.svc.AssignAuthority(context.Background(), "missing", f.authority.ID, f.admin.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown complaint, got %v", err)
	}
	if err := f.svc.AssignAuthority(context.Background(), c.ID, "ghost", f.admin.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown assignee, got %v", err)
	}
}

func TestAssignAuthority_ReplacesActiveAssignment(t *testing.T) {
	f := newFixture(t)
	c := f.file(t, f.citizen.ID, true)

	if err := f.svc.AssignAuthority(context.Background(), c.ID, f.authority.ID, f.admin.ID); err != nil {
		t.Fatalf("assign h1: %v", err)
	}
	if err := f.svc.AssignAuthority(context.Background(), c.ID, f.authority2.ID, f.admin.ID); err != nil {
		t.Fatalf("assign h2: %v", err)
	}

	rows, _ := f.repo.ListAssignments(context.Background(), c.ID)
	if len(rows) != 2 {
		t.Fatalf("expected 2 assignment rows, got %d", len(rows))
	}

	var active []Assignment
	for _, a := range rows {
		if a.IsActive {
			active = append(active, a)
		} else {
			if a.UnassignedAt == nil {
				t.Fatalf("deactivated row must carry unassigned_at: %+v", a)
			}
			if a.AuthorityID != f.authority.ID {
				t.Fatalf("expected h1 deactivated, got %+v", a)
			}
		}
	}
	if len(active) != 1 || active[0].AuthorityID != f.authority2.ID {
		t.Fatalf("expected exactly one active row for h2, got %+v", active)
	}

	got, ok, err := f.svc.ActiveAssignment(context.Background(), c.ID)
	if err != nil || !ok || got.AuthorityID != f.authority2.ID {
		t.Fatalf("ActiveAssignment = %+v, %v, %v", got, ok, err)
	}
}

func TestAssignAuthority_ConcurrentCallsKeepOneActive(t *testing.T) {
	f := newFixture(t)
	c := f.file(t, f.citizen.ID, true)

	const callers = 32
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			target := f.authority.ID
			if i%2 == 0 {
				target = f.authority2.ID
			}
			if err := f.svc.AssignAuthority(context.Background(), c.ID, target, f.admin.ID); err != nil && !errors.Is(err, ErrConflict) {
				t.Errorf("assign: %v", err)
			}
		}(i)
	}
	wg.Wait()

	rows, _ := f.repo.ListAssignments(context.Background(), c.ID)
	activeCount := 0
	for _, a := range rows {
		if a.IsActive {
			activeCount++
		}
	}
	if activeCount != 1 {
		t.Fatalf("expected exactly 1 active assignment, got %d (of %d rows)", activeCount, len(rows))
	}
}

func TestAssignAuthority_WritesNoAuditRow(t *testing.T) {
	f := newFixture(t)
	c := f.file(t, f.citizen.ID, true)

	if err := f.svc.AssignAuthority(context.Background(), c.ID, f.authority.ID, f.admin.ID); err != nil {
		t.Fatalf("assign: %v", err)
	}
	log, _ := f.repo.ListStatusLog(context.Background(), c.ID)
	if len(log) != 0 {
		t.Fatalf("assignments are not audited in the status log, got %d rows", len(log))
	}
}

func TestList_VisibilityScoping(t *testing.T) {
	f := newFixture(t)
	public := f.file(t, f.citizen.ID, true)
	private := f.file(t, f.citizen.ID, false)
	otherPrivate := f.file(t, f.citizen2.ID, false)

	own, err := f.svc.List(context.Background(), f.citizen.ID, Filter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	ids := map[string]bool{}
	for _, c := range own {
		ids[c.ID] = true
	}
	if !ids[public.ID] || !ids[private.ID] || ids[otherPrivate.ID] {
		t.Fatalf("citizen must see public + own only, got %v", ids)
	}

	all, err := f.svc.List(context.Background(), f.authority.ID, Filter{})
	if err != nil {
		t.Fatalf("list staff: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("staff must see all complaints, got %d", len(all))
	}
}

func TestAddEvidence_Checks(t *testing.T) {
	f := newFixture(t)
	c := f.file(t, f.citizen.ID, true)

	if _, err := f.svc.AddEvidence(context.Background(), c.ID, f.citizen.ID, "archive", "https://x/y.zip", ""); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument for unknown type, got %v", err)
	}
	if _, err := f.svc.AddEvidence(context.Background(), c.ID, f.citizen2.ID, EvidenceImage, "https://x/1.jpg", ""); !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("expected ErrPermissionDenied for stranger, got %v", err)
	}

	e, err := f.svc.AddEvidence(context.Background(), c.ID, f.citizen.ID, EvidenceImage, "https://x/1.jpg", "the broken light")
	if err != nil {
		t.Fatalf("add evidence: %v", err)
	}
	if e.Type != EvidenceImage || e.UploadedBy != f.citizen.ID {
		t.Fatalf("unexpected evidence: %+v", e)
	}

	list, _ := f.svc.ListEvidence(context.Background(), c.ID)
	if len(list) != 1 {
		t.Fatalf("expected 1 evidence row, got %d", len(list))
	}
}

func TestAddComment_InternalIsStaffOnly(t *testing.T) {
	f := newFixture(t)
	c := f.file(t, f.citizen.ID, true)

	if _, err := f.svc.AddComment(context.Background(), c.ID, f.citizen.ID, "when will this be fixed?", true); !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("expected ErrPermissionDenied for citizen internal comment, got %v", err)
	}
	if _, err := f.svc.AddComment(context.Background(), c.ID, f.citizen.ID, "when will this be fixed?", false); err != nil {
		t.Fatalf("public comment: %v", err)
	}
	if _, err := f.svc.AddComment(context.Background(), c.ID, f.authority.ID, "crew dispatched", true); err != nil {
		t.Fatalf("staff internal comment: %v", err)
	}

	list, _ := f.svc.ListComments(context.Background(), c.ID)
	if len(list) != 2 {
		t.Fatalf("expected 2 comments, got %d", len(list))
	}
}
