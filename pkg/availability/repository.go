package availability

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
)

type Repository interface {
	WithTransaction(ctx context.Context, fn func(repo Repository) error) error
	// GetRules returns the user's rules ordered by week day.
	GetRules(ctx context.Context, userId int) ([]Rule, error)
	// GetRule returns ErrRuleNotFound when the user is not available on weekDay.
	GetRule(ctx context.Context, userId int, weekDay time.Weekday) (Rule, error)
	DeleteRules(ctx context.Context, userId int) (int, error)
	StoreRules(ctx context.Context, userId int, rules []Rule) ([]Rule, error)
}

type repositoryImpl struct {
	db *pgxpool.Pool
	tx pgx.Tx
}

func NewRepo(db *pgxpool.Pool) Repository {
	return &repositoryImpl{db: db}
}

// getQueryer returns the appropriate database interface for queries (either tx or db)
func (r *repositoryImpl) getQueryer() interface {
	Exec(ctx context.Context, query string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, query string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, query string, args ...interface{}) pgx.Row
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
} {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}

func (r *repositoryImpl) WithTransaction(ctx context.Context, fn func(repo Repository) error) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		// The Rollback will be a no-op if the transaction was already committed
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			log.Errorf("rollback error: %v", rbErr)
		}
	}()

	txRepo := &repositoryImpl{db: r.db, tx: tx}

	if err := fn(txRepo); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

func (r *repositoryImpl) GetRules(ctx context.Context, userId int) ([]Rule, error) {
	query := `SELECT id, week_day, start_minute, end_minute
			  FROM availability_rule
			  WHERE user_id = $1
			  ORDER BY week_day`
	rows, err := r.getQueryer().Query(ctx, query, userId)
	if err != nil {
		log.Errorf("failed to query availability rules: %v", err)
		return nil, err
	}
	defer rows.Close()

	rules := make([]Rule, 0, 7)
	for rows.Next() {
		var rule Rule
		var weekDay int
		if err := rows.Scan(&rule.Id, &weekDay, &rule.StartMinute, &rule.EndMinute); err != nil {
			return nil, err
		}
		rule.WeekDay = time.Weekday(weekDay)
		rules = append(rules, rule)
	}
	if err := rows.Err(); err != nil {
		log.Errorf("error iterating over rows: %v", err)
		return nil, err
	}
	return rules, nil
}

func (r *repositoryImpl) GetRule(ctx context.Context, userId int, weekDay time.Weekday) (Rule, error) {
	query := `SELECT id, week_day, start_minute, end_minute
			  FROM availability_rule
			  WHERE user_id = $1 AND week_day = $2`
	var rule Rule
	var storedWeekDay int
	err := r.getQueryer().QueryRow(ctx, query, userId, int(weekDay)).
		Scan(&rule.Id, &storedWeekDay, &rule.StartMinute, &rule.EndMinute)
	if errors.Is(err, pgx.ErrNoRows) {
		return Rule{}, ErrRuleNotFound
	} else if err != nil {
		log.Errorf("failed to get availability rule: %v", err)
		return Rule{}, err
	}
	rule.WeekDay = time.Weekday(storedWeekDay)
	return rule, nil
}

func (r *repositoryImpl) DeleteRules(ctx context.Context, userId int) (int, error) {
	result, err := r.getQueryer().Exec(ctx, `DELETE FROM availability_rule WHERE user_id = $1`, userId)
	if err != nil {
		return 0, err
	}
	return int(result.RowsAffected()), nil
}

func (r *repositoryImpl) StoreRules(ctx context.Context, userId int, rules []Rule) ([]Rule, error) {
	if len(rules) == 0 {
		return nil, nil
	}

	batch := &pgx.Batch{}
	query := `INSERT INTO availability_rule (user_id, week_day, start_minute, end_minute)
			  VALUES ($1, $2, $3, $4) RETURNING id`
	for _, rule := range rules {
		batch.Queue(query, userId, int(rule.WeekDay), rule.StartMinute, rule.EndMinute)
	}

	results := r.getQueryer().SendBatch(ctx, batch)
	defer results.Close()

	stored := make([]Rule, 0, len(rules))
	for _, rule := range rules {
		if err := results.QueryRow().Scan(&rule.Id); err != nil {
			log.Errorf("failed to store availability rule: %v", err)
			return nil, err
		}
		stored = append(stored, rule)
	}
	return stored, nil
}
