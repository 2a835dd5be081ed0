package catalog

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// MemoryRepo is an in-memory Repository for tests and early development.
type MemoryRepo struct {
	mu         sync.Mutex
	categories map[string]Category
	zones      map[string]Zone
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		categories: make(map[string]Category),
		zones:      make(map[string]Zone),
	}
}

func (r *MemoryRepo) CreateCategory(_ context.Context, c Category) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.categories {
		if strings.EqualFold(existing.Name, c.Name) {
			return ErrNameTaken
		}
	}
	r.categories[c.ID] = c
	return nil
}

func (r *MemoryRepo) GetCategory(_ context.Context, id string) (Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.categories[id]
	if !ok {
		return Category{}, ErrNotFound
	}
	return c, nil
}

func (r *MemoryRepo) ListCategories(_ context.Context) ([]Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Category, 0, len(r.categories))
	for _, c := range r.categories {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *MemoryRepo) CreateZone(_ context.Context, z Zone) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.zones {
		if strings.EqualFold(existing.Name, z.Name) {
			return ErrNameTaken
		}
	}
	r.zones[z.ID] = z
	return nil
}

func (r *MemoryRepo) GetZone(_ context.Context, id string) (Zone, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	z, ok := r.zones[id]
	if !ok {
		return Zone{}, ErrNotFound
	}
	return z, nil
}

func (r *MemoryRepo) ListZones(_ context.Context) ([]Zone, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Zone, 0, len(r.zones))
	for _, z := range r.zones {
		out = append(out, z)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}
