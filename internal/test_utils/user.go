package test_utils

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/heyho99/task-management-app/pkg/user"
)

// CreateTestUser inserts a user row and returns it. Repositories scope every
// query by user id, so most repository tests need one.
func CreateTestUser(t *testing.T, db *pgxpool.Pool, username string) user.User {
	t.Helper()

	u := user.User{
		Uid:         "test-" + username,
		Username:    username,
		DisplayName: "Test User",
		Settings: user.Settings{
			Timezone: "Europe/Warsaw",
		},
	}
	err := db.QueryRow(context.Background(),
		`INSERT INTO users (uid, username, display_name, timezone) VALUES ($1, $2, $3, $4) RETURNING id`,
		u.Uid, u.Username, u.DisplayName, u.Settings.Timezone,
	).Scan(&u.Id)
	if err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return u
}
