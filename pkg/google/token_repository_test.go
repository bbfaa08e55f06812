package google

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/schedulr/schedulr/internal/test_utils"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"golang.org/x/oauth2"
)

var pgContainer *postgres.PostgresContainer
var openDb func() *pgxpool.Pool

func TestMain(m *testing.M) {
	pgContainer, openDb = test_utils.TestWithDB()
	code := m.Run()
	if err := testcontainers.TerminateContainer(pgContainer); err != nil {
		log.Errorf("failed to terminate container: %s", err)
	}
	os.Exit(code)
}

func setupTokenRepository(t *testing.T) (context.Context, *TokenRepositoryImpl, int) {
	ctx := context.Background()
	db := openDb()
	t.Cleanup(func() {
		db.Close()
		err := pgContainer.Restore(ctx)
		require.NoError(t, err)
	})
	userId := test_utils.InsertUser(t, ctx, db, "jane-doe", "UTC")
	return ctx, NewTokenRepository(db), userId
}

func TestTokenRepositoryImpl(t *testing.T) {
	t.Run("should store token for the pending nonce", func(t *testing.T) {
		// given
		ctx, repo, userId := setupTokenRepository(t)
		require.NoError(t, repo.ReplaceNonce(ctx, userId, "nonce-1"))
		expiry := time.Date(2026, time.October, 20, 10, 0, 0, 0, time.UTC)

		// when
		err := repo.StoreToken(ctx, "nonce-1", &oauth2.Token{AccessToken: "access", RefreshToken: "refresh", Expiry: expiry})

		// then
		require.NoError(t, err)
		token, err := repo.GetToken(ctx, userId)
		require.NoError(t, err)
		require.NotNil(t, token)
		assert.Equal(t, "access", token.AccessToken)
		assert.Equal(t, "refresh", token.RefreshToken)
		assert.True(t, expiry.Equal(token.Expiry))
	})

	t.Run("should return no token before callback completes", func(t *testing.T) {
		ctx, repo, userId := setupTokenRepository(t)
		require.NoError(t, repo.ReplaceNonce(ctx, userId, "nonce-1"))

		token, err := repo.GetToken(ctx, userId)

		require.NoError(t, err)
		assert.Nil(t, token)
	})

	t.Run("should invalidate previous authorization on new login", func(t *testing.T) {
		// given
		ctx, repo, userId := setupTokenRepository(t)
		require.NoError(t, repo.ReplaceNonce(ctx, userId, "nonce-1"))
		require.NoError(t, repo.StoreToken(ctx, "nonce-1", &oauth2.Token{AccessToken: "access"}))

		// when
		require.NoError(t, repo.ReplaceNonce(ctx, userId, "nonce-2"))

		// then
		token, err := repo.GetToken(ctx, userId)
		require.NoError(t, err)
		assert.Nil(t, token)
		assert.ErrorIs(t, repo.StoreToken(ctx, "nonce-1", &oauth2.Token{AccessToken: "stale"}), ErrUnknownNonce)
	})

	t.Run("should delete token", func(t *testing.T) {
		ctx, repo, userId := setupTokenRepository(t)
		require.NoError(t, repo.ReplaceNonce(ctx, userId, "nonce-1"))
		require.NoError(t, repo.StoreToken(ctx, "nonce-1", &oauth2.Token{AccessToken: "access"}))

		require.NoError(t, repo.DeleteToken(ctx, userId))

		token, err := repo.GetToken(ctx, userId)
		require.NoError(t, err)
		assert.Nil(t, token)
	})
}
