package catalog

import (
	"context"
	"errors"
	"testing"
)

func TestCreateCategory_RejectsDuplicateName(t *testing.T) {
	svc := NewService(NewMemoryRepo())

	if _, err := svc.CreateCategory(context.Background(), "Road damage", "potholes and cracks", "medium"); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.CreateCategory(context.Background(), "road DAMAGE", "", ""); !errors.Is(err, ErrNameTaken) {
		t.Fatalf("expected ErrNameTaken, got %v", err)
	}
}

func TestCreateCategory_ValidatesPriority(t *testing.T) {
	svc := NewService(NewMemoryRepo())
	if _, err := svc.CreateCategory(context.Background(), "Noise", "", "urgent"); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestCreateZone_RejectsDuplicateName(t *testing.T) {
	svc := NewService(NewMemoryRepo())

	if _, err := svc.CreateZone(context.Background(), "Centro", "D1"); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.CreateZone(context.Background(), "CENTRO", "D2"); !errors.Is(err, ErrNameTaken) {
		t.Fatalf("expected ErrNameTaken, got %v", err)
	}
}

func TestListCategoriesSorted(t *testing.T) {
	svc := NewService(NewMemoryRepo())
	_, _ = svc.CreateCategory(context.Background(), "Waste", "", "")
	_, _ = svc.CreateCategory(context.Background(), "Lighting", "", "low")

	cats, err := svc.ListCategories(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(cats) != 2 || cats[0].Name != "Lighting" {
		t.Fatalf("expected sorted categories, got %+v", cats)
	}
}
