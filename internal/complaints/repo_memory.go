package complaints

import (
	"context"
	"sort"
	"sync"
)

// MemoryRepo is an in-memory Repository for tests and early development.
// It reproduces the SQL repo's atomicity guarantees with a per-complaint
// mutex: Transition and Activate serialize per complaint, and the
// one-active-assignment invariant holds at every observable point.
type MemoryRepo struct {
	mu          sync.Mutex
	complaints  map[string]Complaint
	statusLog   map[string][]StatusLogEntry
	assignments map[string][]Assignment
	evidence    map[string][]Evidence
	comments    map[string][]Comment

	locks map[string]*sync.Mutex
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		complaints:  make(map[string]Complaint),
		statusLog:   make(map[string][]StatusLogEntry),
		assignments: make(map[string][]Assignment),
		evidence:    make(map[string][]Evidence),
		comments:    make(map[string][]Comment),
		locks:       make(map[string]*sync.Mutex),
	}
}

// rowLock returns the mutex serializing state changes for one complaint.
func (r *MemoryRepo) rowLock(complaintID string) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.locks[complaintID]
	if !ok {
		l = &sync.Mutex{}
		r.locks[complaintID] = l
	}
	return l
}

func (r *MemoryRepo) CreateComplaint(_ context.Context, c Complaint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.complaints[c.ID] = c
	return nil
}

func (r *MemoryRepo) GetComplaint(_ context.Context, id string) (Complaint, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.complaints[id]
	if !ok {
		return Complaint{}, ErrNotFound
	}
	return c, nil
}

func (r *MemoryRepo) ListComplaints(_ context.Context, f Filter) ([]Complaint, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Complaint
	for _, c := range r.complaints {
		if f.Status != "" && c.Status != f.Status {
			continue
		}
		if f.CategoryID != "" && c.CategoryID != f.CategoryID {
			continue
		}
		if f.ZoneID != "" && (c.ZoneID == nil || *c.ZoneID != f.ZoneID) {
			continue
		}
		if f.ReporterID != "" && c.ReporterID != f.ReporterID {
			continue
		}
		if f.VisibleTo != "" && !c.Public && c.ReporterID != f.VisibleTo {
			continue
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *MemoryRepo) Transition(_ context.Context, complaintID string, apply func(c *Complaint) (StatusLogEntry, error)) error {
	lock := r.rowLock(complaintID)
	lock.Lock()
	defer lock.Unlock()

	r.mu.Lock()
	c, ok := r.complaints[complaintID]
	r.mu.Unlock()
	if !ok {
		return ErrNotFound
	}

	entry, err := apply(&c)
	if err != nil {
		return err
	}

	r.mu.Lock()
	r.complaints[complaintID] = c
	r.statusLog[complaintID] = append(r.statusLog[complaintID], entry)
	r.mu.Unlock()
	return nil
}

func (r *MemoryRepo) Activate(_ context.Context, complaintID string, a Assignment) error {
	lock := r.rowLock(complaintID)
	lock.Lock()
	defer lock.Unlock()

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.complaints[complaintID]; !ok {
		return ErrNotFound
	}

	rows := r.assignments[complaintID]
	for i := range rows {
		if rows[i].IsActive {
			rows[i].IsActive = false
			t := a.AssignedAt
			rows[i].UnassignedAt = &t
		}
	}
	r.assignments[complaintID] = append(rows, a)
	return nil
}

func (r *MemoryRepo) ListStatusLog(_ context.Context, complaintID string) ([]StatusLogEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]StatusLogEntry, len(r.statusLog[complaintID]))
	copy(out, r.statusLog[complaintID])
	return out, nil
}

func (r *MemoryRepo) ActiveAssignment(_ context.Context, complaintID string) (Assignment, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.assignments[complaintID] {
		if a.IsActive {
			return a, true, nil
		}
	}
	return Assignment{}, false, nil
}

func (r *MemoryRepo) ListAssignments(_ context.Context, complaintID string) ([]Assignment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Assignment, len(r.assignments[complaintID]))
	copy(out, r.assignments[complaintID])
	return out, nil
}

func (r *MemoryRepo) AddEvidence(_ context.Context, e Evidence) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.evidence[e.ComplaintID] = append(r.evidence[e.ComplaintID], e)
	return nil
}

func (r *MemoryRepo) ListEvidence(_ context.Context, complaintID string) ([]Evidence, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Evidence, len(r.evidence[complaintID]))
	copy(out, r.evidence[complaintID])
	return out, nil
}

func (r *MemoryRepo) AddComment(_ context.Context, c Comment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.comments[c.ComplaintID] = append(r.comments[c.ComplaintID], c)
	return nil
}

func (r *MemoryRepo) ListComments(_ context.Context, complaintID string) ([]Comment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Comment, len(r.comments[complaintID]))
	copy(out, r.comments[complaintID])
	return out, nil
}
