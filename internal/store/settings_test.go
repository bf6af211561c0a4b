package store

import (
	"context"
	"testing"

	"github.com/erazemk/omara/internal/db"
)

func TestGetJWTSecret_GeneratesAndPersists(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	secret1, err := GetJWTSecret(ctx, database)
	if err != nil {
		t.Fatal(err)
	}
	if len(secret1) != 64 { // 32 bytes = 64 hex chars
		t.Fatalf("expected 64 hex chars, got %d", len(secret1))
	}

	secret2, err := GetJWTSecret(ctx, database)
	if err != nil {
		t.Fatal(err)
	}
	if secret1 != secret2 {
		t.Fatalf("expected same secret, got %q and %q", secret1, secret2)
	}
}

func TestGetSettingMissingKey(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	if _, ok, err := getSetting(ctx, database, jwtSecretKey); err != nil || ok {
		t.Fatalf("expected no secret before first use, got ok=%v err=%v", ok, err)
	}

	secret, err := GetJWTSecret(ctx, database)
	if err != nil {
		t.Fatal(err)
	}
	value, ok, err := getSetting(ctx, database, jwtSecretKey)
	if err != nil || !ok || value != secret {
		t.Fatalf("expected stored secret, got %q ok=%v err=%v", value, ok, err)
	}
}
