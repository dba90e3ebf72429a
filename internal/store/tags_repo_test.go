package store

import (
	"context"
	"testing"
)

func openTestDB(t *testing.T) *DomainRepo {
	t.Helper()
	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewDomainRepo(db)
}

// TestSetTagsIdempotent reproduces spec §8's tag write invariant:
// setTags(d, T); setTags(d, T) yields the same stored tags.
func TestSetTagsIdempotent(t *testing.T) {
	ctx := context.Background()
	domains := openTestDB(t)
	d, err := domains.Create(ctx, "acme", "/domains/acme")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	tagRepo := NewTagRepo(domains.db)
	want := []string{"billing", "urgent"}

	if err := tagRepo.SetTags(ctx, d.ID, want); err != nil {
		t.Fatalf("SetTags (1st): %v", err)
	}
	if err := tagRepo.SetTags(ctx, d.ID, want); err != nil {
		t.Fatalf("SetTags (2nd): %v", err)
	}

	got, err := tagRepo.Tags(ctx, d.ID)
	if err != nil {
		t.Fatalf("Tags: %v", err)
	}
	if len(got) != 2 || got[0] != "billing" || got[1] != "urgent" {
		t.Fatalf("Tags = %v, want %v", got, want)
	}
}

// TestSetTagsDropsDuplicatesAndEmpty checks that duplicate and empty
// entries in the input don't produce duplicate rows or errors.
func TestSetTagsDropsDuplicatesAndEmpty(t *testing.T) {
	ctx := context.Background()
	domains := openTestDB(t)
	d, err := domains.Create(ctx, "acme", "/domains/acme")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	tagRepo := NewTagRepo(domains.db)
	if err := tagRepo.SetTags(ctx, d.ID, []string{"a", "a", "", "b"}); err != nil {
		t.Fatalf("SetTags: %v", err)
	}
	got, err := tagRepo.Tags(ctx, d.ID)
	if err != nil {
		t.Fatalf("Tags: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Tags = %v, want 2 unique entries", got)
	}
}
