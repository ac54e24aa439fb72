package postgres

import (
	"testing"

	"github.com/google/uuid"
	"github.com/makkenzo/apikey-validator/internal/domain/apikey"
)

func ptr[T any](v T) *T {
	return &v
}

func TestBuildUpdateQueryOnlySetFields(t *testing.T) {
	id := uuid.New()

	query, args := buildUpdateQuery(id, apikey.UpdateParams{
		Name:     ptr("renamed"),
		IsActive: ptr(false),
	})

	want := "UPDATE api_keys SET name = $1, is_active = $2 WHERE id = $3" +
		" RETURNING id, name, key, type, is_active, usage, usage_limit, created_at, last_used"
	if query != want {
		t.Fatalf("unexpected query:\n got: %s\nwant: %s", query, want)
	}
	if len(args) != 3 {
		t.Fatalf("expected 3 args, got %d", len(args))
	}
	if args[0] != "renamed" || args[1] != false || args[2] != id {
		t.Fatalf("unexpected args: %#v", args)
	}
}

func TestBuildUpdateQueryAllFields(t *testing.T) {
	id := uuid.New()

	query, args := buildUpdateQuery(id, apikey.UpdateParams{
		Name:       ptr("n"),
		Type:       ptr("prod"),
		UsageLimit: ptr(int64(5000)),
		IsActive:   ptr(true),
	})

	want := "UPDATE api_keys SET name = $1, type = $2, usage_limit = $3, is_active = $4 WHERE id = $5" +
		" RETURNING id, name, key, type, is_active, usage, usage_limit, created_at, last_used"
	if query != want {
		t.Fatalf("unexpected query:\n got: %s\nwant: %s", query, want)
	}
	if args[2] != int64(5000) {
		t.Fatalf("expected usage limit arg 5000, got %#v", args[2])
	}
}
