package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"civic-platform/internal/complaints"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Repository is the persistence contract for notifications.
//
// Inserts are append-only. MarkRead is the one permitted mutation and it
// only ever sets read_at.
type Repository interface {
	Append(ctx context.Context, n Notification) error
	ListForUser(ctx context.Context, userID string, unreadOnly bool) ([]Notification, error)
	MarkRead(ctx context.Context, userID, id string, at time.Time) error
}

var (
	ErrNotFound            = errors.New("notifications: not found")
	ErrInvalidNotification = errors.New("notifications: invalid notification")
)

// Service fans notifications out to users. Persistence failures are
// surfaced to direct callers (ListForUser, MarkRead) but the hooks called
// from the complaint flow are best-effort: a notification that cannot be
// written or published must never fail the transition that caused it.
type Service struct {
	repo  Repository
	rdb   *redis.Client
	log   *slog.Logger
	clock func() time.Time
}

// NewService builds a Service. rdb may be nil, in which case live publish
// is skipped and notifications are only persisted.
func NewService(repo Repository, rdb *redis.Client, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{repo: repo, rdb: rdb, log: log, clock: time.Now}
}

func (s *Service) append(ctx context.Context, n Notification) error {
	if n.UserID == "" || n.Kind == "" {
		return ErrInvalidNotification
	}
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = s.clock().UTC()
	}
	if err := s.repo.Append(ctx, n); err != nil {
		return err
	}
	s.publish(ctx, n)
	return nil
}

// publish pushes the notification onto the user's live channel. Errors are
// logged and swallowed; subscribers reconcile from the persisted list.
func (s *Service) publish(ctx context.Context, n Notification) {
	if s.rdb == nil {
		return
	}
	payload, err := json.Marshal(n)
	if err != nil {
		return
	}
	channel := "civic:notify:" + n.UserID
	if err := s.rdb.Publish(ctx, channel, payload).Err(); err != nil {
		s.log.Warn("notification publish failed", "channel", channel, "error", err)
	}
}

// StatusChanged notifies the reporter that their complaint moved. It
// implements the hook the complaint service calls after a transition commits.
func (s *Service) StatusChanged(ctx context.Context, c complaints.Complaint, entry complaints.StatusLogEntry) {
	// The actor already knows what they did.
	if c.ReporterID == entry.ChangedBy {
		return
	}
	n := Notification{
		UserID:      c.ReporterID,
		ComplaintID: c.ID,
		Kind:        KindStatusChange,
		Message:     fmt.Sprintf("complaint %q is now %s", c.Title, entry.ToStatus),
	}
	if err := s.append(ctx, n); err != nil {
		s.log.Warn("status notification dropped", "complaint_id", c.ID, "error", err)
	}
}

// Assigned notifies the authority that a complaint landed on their desk.
func (s *Service) Assigned(ctx context.Context, c complaints.Complaint, a complaints.Assignment) {
	n := Notification{
		UserID:      a.AuthorityID,
		ComplaintID: c.ID,
		Kind:        KindAssignment,
		Message:     fmt.Sprintf("complaint %q was assigned to you", c.Title),
	}
	if err := s.append(ctx, n); err != nil {
		s.log.Warn("assignment notification dropped", "complaint_id", c.ID, "error", err)
	}
}

// CommentAdded notifies the reporter about a new public comment on their
// complaint. Internal comments are invisible to reporters, so they produce
// nothing; neither do the reporter's own comments.
func (s *Service) CommentAdded(ctx context.Context, c complaints.Complaint, cm complaints.Comment) {
	if cm.Internal || cm.AuthorID == c.ReporterID {
		return
	}
	n := Notification{
		UserID:      c.ReporterID,
		ComplaintID: c.ID,
		Kind:        KindComment,
		Message:     fmt.Sprintf("new comment on complaint %q", c.Title),
	}
	if err := s.append(ctx, n); err != nil {
		s.log.Warn("comment notification dropped", "complaint_id", c.ID, "error", err)
	}
}

// ListForUser returns the user's notifications, newest first.
func (s *Service) ListForUser(ctx context.Context, userID string, unreadOnly bool) ([]Notification, error) {
	if userID == "" {
		return nil, ErrInvalidNotification
	}
	return s.repo.ListForUser(ctx, userID, unreadOnly)
}

// MarkRead sets read_at on one of the user's notifications. Marking an
// already-read notification is a no-op.
func (s *Service) MarkRead(ctx context.Context, userID, id string) error {
	if userID == "" || id == "" {
		return ErrInvalidNotification
	}
	return s.repo.MarkRead(ctx, userID, id, s.clock().UTC())
}
