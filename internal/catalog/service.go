package catalog

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound        = errors.New("catalog: not found")
	ErrInvalidArgument = errors.New("catalog: invalid argument")
	ErrNameTaken       = errors.New("catalog: name already in use")
)

// Repository is the persistence contract for catalog entities.
type Repository interface {
	CreateCategory(ctx context.Context, c Category) error
	GetCategory(ctx context.Context, id string) (Category, error)
	ListCategories(ctx context.Context) ([]Category, error)

	CreateZone(ctx context.Context, z Zone) error
	GetZone(ctx context.Context, id string) (Zone, error)
	ListZones(ctx context.Context) ([]Zone, error)
}

type Service struct {
	repo  Repository
	clock func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, clock: time.Now}
}

func (s *Service) CreateCategory(ctx context.Context, name, description, defaultPriority string) (Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Category{}, ErrInvalidArgument
	}
	switch defaultPriority {
	case "", "low", "medium", "high":
	default:
		return Category{}, ErrInvalidArgument
	}

	now := s.clock().UTC()
	c := Category{
		ID:              uuid.NewString(),
		Name:            name,
		Description:     strings.TrimSpace(description),
		DefaultPriority: defaultPriority,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.repo.CreateCategory(ctx, c); err != nil {
		return Category{}, err
	}
	return c, nil
}

func (s *Service) GetCategory(ctx context.Context, id string) (Category, error) {
	if id == "" {
		return Category{}, ErrInvalidArgument
	}
	return s.repo.GetCategory(ctx, id)
}

func (s *Service) ListCategories(ctx context.Context) ([]Category, error) {
	return s.repo.ListCategories(ctx)
}

func (s *Service) CreateZone(ctx context.Context, name, district string) (Zone, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Zone{}, ErrInvalidArgument
	}

	now := s.clock().UTC()
	z := Zone{
		ID:        uuid.NewString(),
		Name:      name,
		District:  strings.TrimSpace(district),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.CreateZone(ctx, z); err != nil {
		return Zone{}, err
	}
	return z, nil
}

func (s *Service) GetZone(ctx context.Context, id string) (Zone, error) {
	if id == "" {
		return Zone{}, ErrInvalidArgument
	}
	return s.repo.GetZone(ctx, id)
}

func (s *Service) ListZones(ctx context.Context) ([]Zone, error) {
	return s.repo.ListZones(ctx)
}
