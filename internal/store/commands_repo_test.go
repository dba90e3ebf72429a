package store

import (
	"context"
	"testing"
)

// TestDisplaySlugsCollision reproduces the §4.L display-slug collision
// resolution rule: a unique short slug displays short, a colliding one
// falls back to its full canonical slug.
func TestDisplaySlugsCollision(t *testing.T) {
	ctx := context.Background()
	domains := openTestDB(t)
	d, err := domains.Create(ctx, "acme", "/domains/acme")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	cmdRepo := NewCommandRepo(domains.db)
	for _, slug := range []string{"git:commit", "tools:commit", "review"} {
		if _, err := cmdRepo.Install(ctx, d.ID, slug, "h1"); err != nil {
			t.Fatalf("Install(%q): %v", slug, err)
		}
	}

	commands, err := cmdRepo.List(ctx, d.ID)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	display := DisplaySlugs(commands)

	if display["review"] != "review" {
		t.Errorf("display[review] = %q, want %q (no namespace, unique)", display["review"], "review")
	}
	if display["git:commit"] != "git:commit" {
		t.Errorf("display[git:commit] = %q, want full canonical slug (collides with tools:commit)", display["git:commit"])
	}
	if display["tools:commit"] != "tools:commit" {
		t.Errorf("display[tools:commit] = %q, want full canonical slug (collides with git:commit)", display["tools:commit"])
	}
}

// TestDisplaySlugsUniqueNamespaced checks that a namespaced slug with no
// colliding short form still displays short.
func TestDisplaySlugsUniqueNamespaced(t *testing.T) {
	ctx := context.Background()
	domains := openTestDB(t)
	d, err := domains.Create(ctx, "acme", "/domains/acme")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	cmdRepo := NewCommandRepo(domains.db)
	if _, err := cmdRepo.Install(ctx, d.ID, "git:commit", "h1"); err != nil {
		t.Fatalf("Install: %v", err)
	}
	commands, err := cmdRepo.List(ctx, d.ID)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	display := DisplaySlugs(commands)
	if display["git:commit"] != "commit" {
		t.Errorf("display[git:commit] = %q, want short slug %q", display["git:commit"], "commit")
	}
}

// TestCommandInstallIsUpsert checks re-installing the same canonical slug
// updates source_hash in place rather than erroring or duplicating the row.
func TestCommandInstallIsUpsert(t *testing.T) {
	ctx := context.Background()
	domains := openTestDB(t)
	d, err := domains.Create(ctx, "acme", "/domains/acme")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	cmdRepo := NewCommandRepo(domains.db)
	if _, err := cmdRepo.Install(ctx, d.ID, "git:commit", "h1"); err != nil {
		t.Fatalf("Install (1st): %v", err)
	}
	if _, err := cmdRepo.Install(ctx, d.ID, "git:commit", "h2"); err != nil {
		t.Fatalf("Install (2nd): %v", err)
	}
	commands, err := cmdRepo.List(ctx, d.ID)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(commands) != 1 || commands[0].SourceHash != "h2" {
		t.Fatalf("commands = %+v, want single row with source_hash h2", commands)
	}
}
