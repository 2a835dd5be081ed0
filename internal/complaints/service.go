package complaints

import (
	"context"
	"errors"
	"strings"
	"time"

	"civic-platform/internal/catalog"
	"civic-platform/internal/rbac"
	"civic-platform/internal/users"

	"github.com/google/uuid"
)

var (
	ErrNotFound         = errors.New("complaints: not found")
	ErrPermissionDenied = errors.New("complaints: permission denied")
	ErrInvalidAssignee  = errors.New("complaints: assignee is not an authority")
	ErrInvalidArgument  = errors.New("complaints: invalid argument")
	// ErrConflict is returned when a concurrent assignment won the active slot.
	// Callers may retry.
	ErrConflict = errors.New("complaints: concurrent assignment conflict")
)

// Repository is the persistence contract for complaints and their owned rows
// (status log, assignments, evidence, comments).
//
// Atomicity contract:
//   - Transition executes apply under an exclusive per-complaint lock and, in
//     the same atomic operation, appends the returned log entry and saves the
//     mutated complaint. Operations on different complaints never contend.
//   - Activate deactivates the currently-active assignment (if any) and
//     inserts the new active one atomically; at no observable point are two
//     assignments active for the same complaint.
type Repository interface {
	CreateComplaint(ctx context.Context, c Complaint) error
	GetComplaint(ctx context.Context, id string) (Complaint, error)
	ListComplaints(ctx context.Context, f Filter) ([]Complaint, error)

	Transition(ctx context.Context, complaintID string, apply func(c *Complaint) (StatusLogEntry, error)) error
	Activate(ctx context.Context, complaintID string, a Assignment) error

	ListStatusLog(ctx context.Context, complaintID string) ([]StatusLogEntry, error)
	ActiveAssignment(ctx context.Context, complaintID string) (Assignment, bool, error)
	ListAssignments(ctx context.Context, complaintID string) ([]Assignment, error)

	AddEvidence(ctx context.Context, e Evidence) error
	ListEvidence(ctx context.Context, complaintID string) ([]Evidence, error)
	AddComment(ctx context.Context, c Comment) error
	ListComments(ctx context.Context, complaintID string) ([]Comment, error)
}

// Filter narrows ListComplaints.
type Filter struct {
	Status     Status
	CategoryID string
	ZoneID     string
	ReporterID string

	// VisibleTo restricts results to public complaints plus those reported by
	// the given user. Empty means no visibility restriction (staff callers).
	VisibleTo string
}

// Directory resolves user accounts for authorization checks.
// *users.Service satisfies it.
type Directory interface {
	Get(ctx context.Context, id string) (users.User, error)
}

// Catalog resolves complaint categories. *catalog.Service satisfies it.
type Catalog interface {
	GetCategory(ctx context.Context, id string) (catalog.Category, error)
}

// Notifier receives post-commit fan-out hooks. Implementations must be
// best-effort; failures are logged by the implementation, never surfaced here.
type Notifier interface {
	StatusChanged(ctx context.Context, c Complaint, entry StatusLogEntry)
	Assigned(ctx context.Context, c Complaint, a Assignment)
	CommentAdded(ctx context.Context, c Complaint, cm Comment)
}

// Service implements the complaint state machine: filing, the status
// transition operation, and authority assignment.
type Service struct {
	repo     Repository
	users    Directory
	catalog  Catalog
	notifier Notifier
	clock    func() time.Time
}

// NewService wires the complaint service. notifier may be nil.
func NewService(repo Repository, dir Directory, cat Catalog, notifier Notifier) *Service {
	return &Service{
		repo:     repo,
		users:    dir,
		catalog:  cat,
		notifier: notifier,
		clock:    time.Now,
	}
}

type FileRequest struct {
	ReporterID  string   `json:"-"`
	CategoryID  string   `json:"category_id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Priority    Priority `json:"priority,omitempty"`
	Latitude    *float64 `json:"latitude,omitempty"`
	Longitude   *float64 `json:"longitude,omitempty"`
	ZoneID      *string  `json:"zone_id,omitempty"`
	Public      bool     `json:"public"`
}

// File creates a complaint in status created. Any active account may file.
// An unset priority falls back to the category default.
func (s *Service) File(ctx context.Context, req FileRequest) (Complaint, error) {
	if req.ReporterID == "" || req.CategoryID == "" {
		return Complaint{}, ErrInvalidArgument
	}
	if strings.TrimSpace(req.Title) == "" {
		return Complaint{}, ErrInvalidArgument
	}
	if !ValidPriority(req.Priority) {
		return Complaint{}, ErrInvalidArgument
	}

	reporter, err := s.users.Get(ctx, req.ReporterID)
	if err != nil {
		return Complaint{}, mapUserErr(err)
	}
	if reporter.Status != users.StatusActive {
		return Complaint{}, ErrPermissionDenied
	}

	cat, err := s.catalog.GetCategory(ctx, req.CategoryID)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return Complaint{}, ErrInvalidArgument
		}
		return Complaint{}, err
	}

	priority := req.Priority
	if priority == "" {
		priority = Priority(cat.DefaultPriority)
	}

	now := s.clock().UTC()
	c := Complaint{
		ID:          uuid.NewString(),
		ReporterID:  req.ReporterID,
		CategoryID:  req.CategoryID,
		Status:      StatusCreated,
		Priority:    priority,
		Title:       strings.TrimSpace(req.Title),
		Description: strings.TrimSpace(req.Description),
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
		ZoneID:      req.ZoneID,
		Public:      req.Public,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.CreateComplaint(ctx, c); err != nil {
		return Complaint{}, err
	}
	return c, nil
}

func (s *Service) Get(ctx context.Context, id string) (Complaint, error) {
	if id == "" {
		return Complaint{}, ErrInvalidArgument
	}
	return s.repo.GetComplaint(ctx, id)
}

// List returns complaints visible to the viewer. Staff see everything;
// other callers see public complaints plus their own.
func (s *Service) List(ctx context.Context, viewerID string, f Filter) ([]Complaint, error) {
	if viewerID == "" {
		return nil, ErrInvalidArgument
	}
	if f.Status != "" && !ValidStatus(f.Status) {
		return nil, ErrInvalidArgument
	}

	viewer, err := s.users.Get(ctx, viewerID)
	if err != nil {
		return nil, mapUserErr(err)
	}
	if !rbac.CanManageComplaints(string(viewer.Role)) {
		f.VisibleTo = viewerID
	}
	return s.repo.ListComplaints(ctx, f)
}

// ChangeStatus moves a complaint to newStatus and records the transition in
// the status log, atomically and under an exclusive per-complaint lock.
//
// The transition graph is deliberately unrestricted: any authorized actor may
// move any complaint to any status (resolved -> created included). ResolvedAt
// is set once, on the first transition to resolved, and never cleared.
//
// Both the existence and the permission check happen before any mutation.
func (s *Service) ChangeStatus(ctx context.Context, complaintID, actorID string, newStatus Status, comment string) error {
	if complaintID == "" || actorID == "" {
		return ErrInvalidArgument
	}
	if !ValidStatus(newStatus) {
		return ErrInvalidArgument
	}

	actor, err := s.users.Get(ctx, actorID)
	if err != nil {
		return mapUserErr(err)
	}
	if !rbac.CanManageComplaints(string(actor.Role)) {
		return ErrPermissionDenied
	}

	now := s.clock().UTC()
	var updated Complaint
	var logged StatusLogEntry

	err = s.repo.Transition(ctx, complaintID, func(c *Complaint) (StatusLogEntry, error) {
		from := c.Status
		entry := StatusLogEntry{
			ID:          uuid.NewString(),
			ComplaintID: c.ID,
			FromStatus:  &from,
			ToStatus:    newStatus,
			ChangedBy:   actorID,
			Comment:     comment,
			ChangedAt:   now,
		}

		c.Status = newStatus
		if newStatus == StatusResolved && c.ResolvedAt == nil {
			t := now
			c.ResolvedAt = &t
		}
		c.UpdatedAt = now

		updated = *c
		logged = entry
		return entry, nil
	})
	if err != nil {
		return err
	}

	if s.notifier != nil {
		s.notifier.StatusChanged(ctx, updated, logged)
	}
	return nil
}

// AssignAuthority makes authorityUserID the handling authority of the
// complaint, atomically replacing any previously active assignment.
//
// The actor must be authority or admin; the assignee must hold the authority
// role itself (admins triage but are never the handling authority). No status
// log entry is written for assignment changes; only status transitions are
// audited.
func (s *Service) AssignAuthority(ctx context.Context, complaintID, authorityUserID, actorID string) error {
	if complaintID == "" || authorityUserID == "" || actorID == "" {
		return ErrInvalidArgument
	}

	actor, err := s.users.Get(ctx, actorID)
	if err != nil {
		return mapUserErr(err)
	}
	if !rbac.CanManageComplaints(string(actor.Role)) {
		return ErrPermissionDenied
	}

	assignee, err := s.users.Get(ctx, authorityUserID)
	if err != nil {
		return mapUserErr(err)
	}
	if !rbac.IsAssignable(string(assignee.Role)) {
		return ErrInvalidAssignee
	}

	a := Assignment{
		ID:          uuid.NewString(),
		ComplaintID: complaintID,
		AuthorityID: authorityUserID,
		AssignedAt:  s.clock().UTC(),
		IsActive:    true,
	}
	if err := s.repo.Activate(ctx, complaintID, a); err != nil {
		return err
	}

	if s.notifier != nil {
		if c, err := s.repo.GetComplaint(ctx, complaintID); err == nil {
			s.notifier.Assigned(ctx, c, a)
		}
	}
	return nil
}

// StatusHistory returns the complaint's transitions in chronological order.
func (s *Service) StatusHistory(ctx context.Context, complaintID string) ([]StatusLogEntry, error) {
	if complaintID == "" {
		return nil, ErrInvalidArgument
	}
	if _, err := s.repo.GetComplaint(ctx, complaintID); err != nil {
		return nil, err
	}
	return s.repo.ListStatusLog(ctx, complaintID)
}

// ActiveAssignment returns the currently active assignment, if any.
func (s *Service) ActiveAssignment(ctx context.Context, complaintID string) (Assignment, bool, error) {
	if complaintID == "" {
		return Assignment{}, false, ErrInvalidArgument
	}
	if _, err := s.repo.GetComplaint(ctx, complaintID); err != nil {
		return Assignment{}, false, err
	}
	return s.repo.ActiveAssignment(ctx, complaintID)
}

// AddEvidence attaches a file reference to a complaint. Only the reporter or
// staff may attach evidence.
func (s *Service) AddEvidence(ctx context.Context, complaintID, uploaderID string, typ EvidenceType, url, caption string) (Evidence, error) {
	if complaintID == "" || uploaderID == "" || strings.TrimSpace(url) == "" {
		return Evidence{}, ErrInvalidArgument
	}
	if !ValidEvidenceType(typ) {
		return Evidence{}, ErrInvalidArgument
	}

	uploader, err := s.users.Get(ctx, uploaderID)
	if err != nil {
		return Evidence{}, mapUserErr(err)
	}
	c, err := s.repo.GetComplaint(ctx, complaintID)
	if err != nil {
		return Evidence{}, err
	}
	if c.ReporterID != uploaderID && !rbac.CanManageComplaints(string(uploader.Role)) {
		return Evidence{}, ErrPermissionDenied
	}

	e := Evidence{
		ID:          uuid.NewString(),
		ComplaintID: complaintID,
		Type:        typ,
		URL:         strings.TrimSpace(url),
		Caption:     strings.TrimSpace(caption),
		UploadedBy:  uploaderID,
		CreatedAt:   s.clock().UTC(),
	}
	if err := s.repo.AddEvidence(ctx, e); err != nil {
		return Evidence{}, err
	}
	return e, nil
}

func (s *Service) ListEvidence(ctx context.Context, complaintID string) ([]Evidence, error) {
	if complaintID == "" {
		return nil, ErrInvalidArgument
	}
	return s.repo.ListEvidence(ctx, complaintID)
}

// AddComment records a discussion entry. Internal comments are staff-only.
func (s *Service) AddComment(ctx context.Context, complaintID, authorID, body string, internal bool) (Comment, error) {
	if complaintID == "" || authorID == "" || strings.TrimSpace(body) == "" {
		return Comment{}, ErrInvalidArgument
	}

	author, err := s.users.Get(ctx, authorID)
	if err != nil {
		return Comment{}, mapUserErr(err)
	}
	if internal && !rbac.CanManageComplaints(string(author.Role)) {
		return Comment{}, ErrPermissionDenied
	}
	parent, err := s.repo.GetComplaint(ctx, complaintID)
	if err != nil {
		return Comment{}, err
	}

	c := Comment{
		ID:          uuid.NewString(),
		ComplaintID: complaintID,
		AuthorID:    authorID,
		Body:        strings.TrimSpace(body),
		Internal:    internal,
		CreatedAt:   s.clock().UTC(),
	}
	if err := s.repo.AddComment(ctx, c); err != nil {
		return Comment{}, err
	}

	if s.notifier != nil {
		s.notifier.CommentAdded(ctx, parent, c)
	}
	return c, nil
}

func (s *Service) ListComments(ctx context.Context, complaintID string) ([]Comment, error) {
	if complaintID == "" {
		return nil, ErrInvalidArgument
	}
	return s.repo.ListComments(ctx, complaintID)
}

// CanView reports whether a viewer may read a complaint.
func CanView(viewerID, role string, c Complaint) bool {
	if c.Public {
		return true
	}
	if viewerID != "" && viewerID == c.ReporterID {
		return true
	}
	return rbac.CanManageComplaints(role)
}

func mapUserErr(err error) error {
	if errors.Is(err, users.ErrNotFound) {
		return ErrNotFound
	}
	return err
}
