package availability

import (
	"context"
	"errors"
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

func setupTestRepository(t *testing.T) (context.Context, Repository, int) {
	ctx := context.Background()
	db := openDb()
	t.Cleanup(func() {
		db.Close()
		err := pgContainer.Restore(ctx)
		require.NoError(t, err)
	})
	userId := test_utils.InsertUser(t, ctx, db, "jane-doe", "UTC")
	return ctx, NewRepo(db), userId
}

func TestRepository_StoreRules(t *testing.T) {
	t.Run("should store rules and return them ordered by week day", func(t *testing.T) {
		// given
		ctx, repo, userId := setupTestRepository(t)

		// when
		stored, err := repo.StoreRules(ctx, userId, []Rule{
			{WeekDay: time.Friday, StartMinute: 540, EndMinute: 720},
			{WeekDay: time.Monday, StartMinute: 480, EndMinute: 1080},
		})

		// then
		require.NoError(t, err)
		require.Len(t, stored, 2)
		assert.NotZero(t, stored[0].Id)
		assert.NotZero(t, stored[1].Id)

		rules, err := repo.GetRules(ctx, userId)
		require.NoError(t, err)
		require.Len(t, rules, 2)
		assert.Equal(t, Rule{Id: stored[1].Id, WeekDay: time.Monday, StartMinute: 480, EndMinute: 1080}, rules[0])
		assert.Equal(t, time.Friday, rules[1].WeekDay)
	})

	t.Run("should refuse a second rule for the same week day", func(t *testing.T) {
		// given
		ctx, repo, userId := setupTestRepository(t)
		_, err := repo.StoreRules(ctx, userId, []Rule{{WeekDay: time.Monday, StartMinute: 480, EndMinute: 1080}})
		require.NoError(t, err)

		// when
		_, err = repo.StoreRules(ctx, userId, []Rule{{WeekDay: time.Monday, StartMinute: 600, EndMinute: 720}})

		// then
		assert.Error(t, err)
	})
}

func TestRepository_GetRule(t *testing.T) {
	t.Run("should return rule of the week day", func(t *testing.T) {
		ctx, repo, userId := setupTestRepository(t)
		_, err := repo.StoreRules(ctx, userId, []Rule{{WeekDay: time.Wednesday, StartMinute: 510, EndMinute: 690}})
		require.NoError(t, err)

		rule, err := repo.GetRule(ctx, userId, time.Wednesday)

		require.NoError(t, err)
		assert.Equal(t, 510, rule.StartMinute)
		assert.Equal(t, 690, rule.EndMinute)
	})

	t.Run("should return ErrRuleNotFound for a week day without rule", func(t *testing.T) {
		ctx, repo, userId := setupTestRepository(t)

		_, err := repo.GetRule(ctx, userId, time.Sunday)

		assert.ErrorIs(t, err, ErrRuleNotFound)
	})
}

func TestRepository_WithTransaction(t *testing.T) {
	t.Run("should replace rules atomically", func(t *testing.T) {
		// given
		ctx, repo, userId := setupTestRepository(t)
		_, err := repo.StoreRules(ctx, userId, []Rule{{WeekDay: time.Monday, StartMinute: 480, EndMinute: 1080}})
		require.NoError(t, err)

		// when
		err = repo.WithTransaction(ctx, func(txRepo Repository) error {
			deleted, err := txRepo.DeleteRules(ctx, userId)
			require.NoError(t, err)
			assert.Equal(t, 1, deleted)
			_, err = txRepo.StoreRules(ctx, userId, []Rule{{WeekDay: time.Tuesday, StartMinute: 480, EndMinute: 1080}})
			return err
		})

		// then
		require.NoError(t, err)
		rules, err := repo.GetRules(ctx, userId)
		require.NoError(t, err)
		require.Len(t, rules, 1)
		assert.Equal(t, time.Tuesday, rules[0].WeekDay)
	})

	t.Run("should roll back on error", func(t *testing.T) {
		// given
		ctx, repo, userId := setupTestRepository(t)
		_, err := repo.StoreRules(ctx, userId, []Rule{{WeekDay: time.Monday, StartMinute: 480, EndMinute: 1080}})
		require.NoError(t, err)
		failure := errors.New("stop")

		// when
		err = repo.WithTransaction(ctx, func(txRepo Repository) error {
			if _, err := txRepo.DeleteRules(ctx, userId); err != nil {
				return err
			}
			return failure
		})

		// then
		assert.ErrorIs(t, err, failure)
		rules, err := repo.GetRules(ctx, userId)
		require.NoError(t, err)
		assert.Len(t, rules, 1)
	})
}
