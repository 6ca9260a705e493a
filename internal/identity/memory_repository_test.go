package identity

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMemoryRepositoryFindAndRevoke(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	for _, u := range DemoUsers(time.Now()) {
		repo.Add(u)
	}

	user, err := repo.FindByID(ctx, DemoBrand.ID)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if user.Role != "brand" || user.TokenVersion != 0 {
		t.Fatalf("unexpected user %+v", user)
	}

	version, err := repo.BumpTokenVersion(ctx, DemoBrand.ID)
	if err != nil {
		t.Fatalf("bump: %v", err)
	}
	if version != 1 {
		t.Fatalf("expected version 1, got %d", version)
	}

	if _, err := repo.FindByID(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := repo.BumpTokenVersion(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDemoUserFor(t *testing.T) {
	if u, ok := DemoUserFor("influencer"); !ok || u.ID != DemoInfluencer.ID {
		t.Fatalf("expected demo influencer, got %+v %v", u, ok)
	}
	if _, ok := DemoUserFor("guest"); ok {
		t.Fatalf("expected no demo user for unknown role")
	}
}
