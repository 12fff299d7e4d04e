package db_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/contribhq/contribd/db"
	"github.com/contribhq/contribd/testutil"
)

func setupTokens(t *testing.T) *sql.DB {
	t.Helper()
	database := testutil.SetupTestDB(t)
	if _, err := database.Exec(`DELETE FROM oauth_tokens`); err != nil {
		t.Fatalf("clearing oauth_tokens: %v", err)
	}
	return database
}

func TestOAuthTokenRoundTrip(t *testing.T) {
	database := setupTokens(t)
	store := db.NewStore(database)
	ctx := context.Background()

	expiry := time.Now().Add(4 * time.Hour).UTC().Truncate(time.Second)
	if err := store.UpsertOAuthToken(ctx, "twitch", "access-1", "refresh-1", expiry, "chat:read chat:edit"); err != nil {
		t.Fatalf("UpsertOAuthToken() error = %v", err)
	}

	access, refresh, gotExpiry, scope, err := store.GetOAuthToken(ctx, "twitch")
	if err != nil {
		t.Fatalf("GetOAuthToken() error = %v", err)
	}
	if access != "access-1" || refresh != "refresh-1" || scope != "chat:read chat:edit" {
		t.Errorf("got (%q, %q, %q)", access, refresh, scope)
	}
	if gotExpiry.Sub(expiry) > 2*time.Second || expiry.Sub(gotExpiry) > 2*time.Second {
		t.Errorf("expiry = %v, want about %v", gotExpiry, expiry)
	}

	// Upsert replaces the row for the provider.
	if err := store.UpsertOAuthToken(ctx, "twitch", "access-2", "refresh-2", expiry, "chat:read"); err != nil {
		t.Fatalf("second UpsertOAuthToken() error = %v", err)
	}
	access, refresh, _, _, err = store.GetOAuthToken(ctx, "twitch")
	if err != nil {
		t.Fatalf("GetOAuthToken() error = %v", err)
	}
	if access != "access-2" || refresh != "refresh-2" {
		t.Errorf("got (%q, %q) after overwrite", access, refresh)
	}
}

func TestGetOAuthTokenMissingProvider(t *testing.T) {
	database := setupTokens(t)
	store := db.NewStore(database)

	access, refresh, _, _, err := store.GetOAuthToken(context.Background(), "nonexistent")
	if err != nil {
		t.Fatalf("GetOAuthToken() error = %v", err)
	}
	if access != "" || refresh != "" {
		t.Errorf("got (%q, %q) for missing provider, want empty", access, refresh)
	}
}
