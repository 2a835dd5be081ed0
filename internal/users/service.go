package users

import (
	"context"
	"errors"
	"strings"
	"time"

	"civic-platform/internal/rbac"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrNotFound         = errors.New("users: not found")
	ErrInvalidArgument  = errors.New("users: invalid argument")
	ErrEmailTaken       = errors.New("users: email already registered")
	ErrUserReferenced   = errors.New("users: user is referenced by complaint data")
	ErrInvalidLogin     = errors.New("users: invalid credentials")
	ErrAccountNotActive = errors.New("users: account not active")
	ErrPermissionDenied = errors.New("users: permission denied")
)

// Repository is the persistence contract for user accounts.
type Repository interface {
	Create(ctx context.Context, u User) error
	GetByID(ctx context.Context, id string) (User, error)
	GetByEmail(ctx context.Context, email string) (User, error)
	List(ctx context.Context, role Role) ([]User, error)
	UpdateStatus(ctx context.Context, id string, status Status, now time.Time) error
	// Delete removes the account. It must fail with ErrUserReferenced while
	// complaints, status-log rows, or assignments reference the user.
	Delete(ctx context.Context, id string) error
}

// Service provides account operations.
type Service struct {
	repo  Repository
	clock func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, clock: time.Now}
}

type RegisterRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
	Role     Role   `json:"role,omitempty"`
}

// Register creates an account. Citizens self-register and start active;
// staff accounts (authority, admin) start pending until an admin activates them.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (User, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || !strings.Contains(email, "@") {
		return User{}, ErrInvalidArgument
	}
	if strings.TrimSpace(req.Name) == "" {
		return User{}, ErrInvalidArgument
	}
	if len(req.Password) < 8 {
		return User{}, ErrInvalidArgument
	}

	role := req.Role
	if role == "" {
		role = RoleCitizen
	}
	if !rbac.ValidRole(string(role)) {
		return User{}, ErrInvalidArgument
	}

	status := StatusPending
	if role == RoleCitizen {
		status = StatusActive
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, err
	}

	now := s.clock().UTC()
	u := User{
		ID:           uuid.NewString(),
		Email:        email,
		Name:         strings.TrimSpace(req.Name),
		Role:         role,
		Status:       status,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return User{}, err
	}
	return u, nil
}

// Authenticate verifies credentials for login. Only active accounts may log in.
func (s *Service) Authenticate(ctx context.Context, email, password string) (User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return User{}, ErrInvalidArgument
	}

	u, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return User{}, ErrInvalidLogin
		}
		return User{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return User{}, ErrInvalidLogin
	}
	if u.Status != StatusActive {
		return User{}, ErrAccountNotActive
	}
	return u, nil
}

func (s *Service) Get(ctx context.Context, id string) (User, error) {
	if id == "" {
		return User{}, ErrInvalidArgument
	}
	return s.repo.GetByID(ctx, id)
}

// List returns users, optionally filtered by role.
func (s *Service) List(ctx context.Context, role Role) ([]User, error) {
	if role != "" && !rbac.ValidRole(string(role)) {
		return nil, ErrInvalidArgument
	}
	return s.repo.List(ctx, role)
}

// SetStatus changes an account's lifecycle status. Admin only.
func (s *Service) SetStatus(ctx context.Context, actorID, userID string, status Status) error {
	if actorID == "" || userID == "" {
		return ErrInvalidArgument
	}
	switch status {
	case StatusPending, StatusActive, StatusSuspended:
	default:
		return ErrInvalidArgument
	}

	actor, err := s.repo.GetByID(ctx, actorID)
	if err != nil {
		return err
	}
	if !rbac.IsAdmin(string(actor.Role)) {
		return ErrPermissionDenied
	}

	return s.repo.UpdateStatus(ctx, userID, status, s.clock().UTC())
}

// Delete removes an account. Admin only; rejected while complaint data
// references the user.
func (s *Service) Delete(ctx context.Context, actorID, userID string) error {
	if actorID == "" || userID == "" {
		return ErrInvalidArgument
	}

	actor, err := s.repo.GetByID(ctx, actorID)
	if err != nil {
		return err
	}
	if !rbac.IsAdmin(string(actor.Role)) {
		return ErrPermissionDenied
	}

	return s.repo.Delete(ctx, userID)
}
