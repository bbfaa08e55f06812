package test_utils

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
)

// InsertUser stores a bare user row so repositories with a users foreign key can be exercised.
func InsertUser(t *testing.T, ctx context.Context, db *pgxpool.Pool, username string, timezone string) int {
	t.Helper()

	var id int
	err := db.QueryRow(ctx,
		`INSERT INTO users (uid, username, name, timezone) VALUES ($1, $2, $3, $4) RETURNING id`,
		uuid.NewString(), username, "Test "+username, timezone,
	).Scan(&id)
	require.NoError(t, err)
	return id
}
