package resumeanalysis

import (
	"context"
	"errors"
	"testing"
	"time"

	"resume-analyzer/internal/scoring"
)

func TestMemoryRepoTwoPhaseSave(t *testing.T) {
	repo := NewMemoryRepo()
	ctx := context.Background()

	rec, err := repo.Create(ctx, Record{OwnerID: "u1", Filename: "cv.pdf", Scores: scoring.ScoreSet{scoring.Content: 50}})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if rec.ID == 0 {
		t.Fatalf("expected generated id")
	}

	pages := []string{"/api/resume/image/1/1"}
	if err := repo.AttachArtifacts(ctx, rec.ID, Artifacts{PageImages: pages, Details: map[string]any{"pageImages": pages}}); err != nil {
		t.Fatalf("AttachArtifacts: %v", err)
	}

	got, err := repo.GetByID(ctx, rec.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if len(got.PageImages) != 1 || len(got.Scores) != len(scoring.Dimensions) {
		t.Fatalf("unexpected record %+v", got)
	}

	if err := repo.AttachArtifacts(ctx, 99, Artifacts{}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryRepoListNewestFirst(t *testing.T) {
	repo := NewMemoryRepo()
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	for i, owner := range []string{"u1", "u2", "u1", "u1"} {
		if _, err := repo.Create(ctx, Record{OwnerID: owner, CreatedAt: base.Add(time.Duration(i) * time.Hour)}); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	all, err := repo.ListByOwner(ctx, "u1", 0)
	if err != nil {
		t.Fatalf("ListByOwner: %v", err)
	}
	if len(all) != 3 || all[0].ID != 4 || all[2].ID != 1 {
		t.Fatalf("unexpected order %+v", all)
	}

	limited, _ := repo.ListByOwner(ctx, "u1", 2)
	if len(limited) != 2 {
		t.Fatalf("expected limit to apply, got %d", len(limited))
	}
}

func TestMemoryRepoReturnsCopies(t *testing.T) {
	repo := NewMemoryRepo()
	ctx := context.Background()
	rec, _ := repo.Create(ctx, Record{OwnerID: "u1", Details: map[string]any{"k": "v"}})

	got, _ := repo.GetByID(ctx, rec.ID)
	got.Details["k"] = "changed"

	again, _ := repo.GetByID(ctx, rec.ID)
	if again.Details["k"] != "v" {
		t.Fatalf("stored record was mutated through a returned copy")
	}
}
