package store

import (
	"context"
	"testing"
)

// TestDomainModelFieldsCoercion reproduces the §4.L Domain defensive rule:
// a model_provider with no model_name is filled from the default table, and
// a model_name with no model_provider is coerced to null on both sides.
func TestDomainModelFieldsCoercion(t *testing.T) {
	ctx := context.Background()
	domains := openTestDB(t)

	withProviderOnly, err := domains.Create(ctx, "provider-only", "/domains/provider-only")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := domains.db.ExecContext(ctx, `UPDATE domains SET model_provider = 'anthropic' WHERE id = ?`, withProviderOnly.ID); err != nil {
		t.Fatalf("seed model_provider: %v", err)
	}

	got, err := domains.Get(ctx, withProviderOnly.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.ModelName == "" {
		t.Fatalf("ModelName = %q, want default filled in for provider %q", got.ModelName, got.ModelProvider)
	}

	withNameOnly, err := domains.Create(ctx, "name-only", "/domains/name-only")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := domains.db.ExecContext(ctx, `UPDATE domains SET model_name = 'gpt-4o-mini' WHERE id = ?`, withNameOnly.ID); err != nil {
		t.Fatalf("seed model_name: %v", err)
	}

	got, err = domains.Get(ctx, withNameOnly.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.ModelProvider != "" || got.ModelName != "" {
		t.Fatalf("got provider=%q name=%q, want both coerced to empty", got.ModelProvider, got.ModelName)
	}
}
