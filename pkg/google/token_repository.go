package google

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
)

var ErrUnknownNonce = errors.New("unknown Google auth state")

// TokenRepository keeps one Google OAuth token per user. A login first stores a nonce that the
// callback later exchanges for the token.
type TokenRepository interface {
	// ReplaceNonce drops any existing authorization of the user and starts a new one.
	ReplaceNonce(ctx context.Context, userId int, nonce string) error
	// StoreToken returns ErrUnknownNonce when no login was started with nonce.
	StoreToken(ctx context.Context, nonce string, token *oauth2.Token) error
	// GetToken returns nil without error when the user never authorized access.
	GetToken(ctx context.Context, userId int) (*oauth2.Token, error)
	DeleteToken(ctx context.Context, userId int) error
}

type TokenRepositoryImpl struct {
	db *pgxpool.Pool
}

func NewTokenRepository(db *pgxpool.Pool) *TokenRepositoryImpl {
	return &TokenRepositoryImpl{db: db}
}

func (r *TokenRepositoryImpl) ReplaceNonce(ctx context.Context, userId int, nonce string) error {
	query := `INSERT INTO google_calendar_auth (user_id, nonce) VALUES ($1, $2)
			  ON CONFLICT (user_id) DO UPDATE
			  SET nonce = EXCLUDED.nonce, access_token = NULL, refresh_token = NULL, expiry = NULL`
	if _, err := r.db.Exec(ctx, query, userId, nonce); err != nil {
		log.Errorf("failed to store Google auth nonce for user %d: %v", userId, err)
		return err
	}
	return nil
}

func (r *TokenRepositoryImpl) StoreToken(ctx context.Context, nonce string, token *oauth2.Token) error {
	query := `UPDATE google_calendar_auth SET access_token = $1, refresh_token = $2, expiry = $3 WHERE nonce = $4`
	result, err := r.db.Exec(ctx, query, token.AccessToken, token.RefreshToken, token.Expiry.Unix(), nonce)
	if err != nil {
		log.Errorf("unable to store Google auth token: %v", err)
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrUnknownNonce
	}
	return nil
}

func (r *TokenRepositoryImpl) GetToken(ctx context.Context, userId int) (*oauth2.Token, error) {
	var accessToken, refreshToken *string
	var expiry *int64
	err := r.db.QueryRow(ctx,
		`SELECT access_token, refresh_token, expiry FROM google_calendar_auth WHERE user_id = $1`, userId,
	).Scan(&accessToken, &refreshToken, &expiry)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	} else if err != nil {
		log.Errorf("unable to retrieve Google auth token: %v", err)
		return nil, err
	}
	// login started but the callback never completed
	if accessToken == nil {
		return nil, nil
	}

	token := &oauth2.Token{AccessToken: *accessToken}
	if refreshToken != nil {
		token.RefreshToken = *refreshToken
	}
	if expiry != nil {
		token.Expiry = time.Unix(*expiry, 0)
	}
	return token, nil
}

func (r *TokenRepositoryImpl) DeleteToken(ctx context.Context, userId int) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM google_calendar_auth WHERE user_id = $1`, userId); err != nil {
		log.Errorf("failed to delete Google auth row for user %d: %v", userId, err)
		return err
	}
	return nil
}
