package gcal

import (
	"context"
	"errors"
	"log"

	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"planner/internal/model"
	"planner/internal/repository"
)

// ErrNeedsReauth means the stored refresh token no longer works and the user
// has to go through the Google sign-in flow again
var ErrNeedsReauth = errors.New("google authorization expired, please sign in again")

// TokenStore persists per-user Google OAuth tokens
type TokenStore interface {
	Get(ctx context.Context, userID uuid.UUID) (*model.GoogleToken, error)
	Save(ctx context.Context, token *model.GoogleToken) error
}

// TokenProvider wraps calendar API calls with the access-token lifecycle:
// read the cached token, and on expiry or a 401 refresh it exactly once via
// the OAuth refresh token before retrying. A second failure surfaces as
// ErrNeedsReauth; nothing beyond the single refresh is ever retried.
type TokenProvider struct {
	store TokenStore
	oauth *oauth2.Config
}

func NewTokenProvider(store TokenStore, oauth *oauth2.Config) *TokenProvider {
	return &TokenProvider{store: store, oauth: oauth}
}

// Do runs op with a valid access token for the user, refreshing once if
// needed. op is called at most twice.
func (p *TokenProvider) Do(ctx context.Context, userID uuid.UUID, op func(accessToken string) error) error {
	token, err := p.store.Get(ctx, userID)
	if errors.Is(err, repository.ErrTokenNotFound) {
		// Токенов нет - пользователь не подключал Google-аккаунт
		return ErrNeedsReauth
	}
	if err != nil {
		return err
	}

	if !token.Expired() {
		err = op(token.AccessToken)
		if err == nil || !IsUnauthorized(err) {
			return err
		}
		// Токен отвергнут API несмотря на срок годности - пробуем обновить
	}

	refreshed, err := p.refresh(ctx, token)
	if err != nil {
		return err
	}

	err = op(refreshed.AccessToken)
	if IsUnauthorized(err) {
		return ErrNeedsReauth
	}
	return err
}

// refresh exchanges the stored refresh token for a new access token and
// persists the result before the retry
func (p *TokenProvider) refresh(ctx context.Context, token *model.GoogleToken) (*model.GoogleToken, error) {
	if token.RefreshToken == "" {
		return nil, ErrNeedsReauth
	}

	source := p.oauth.TokenSource(ctx, &oauth2.Token{RefreshToken: token.RefreshToken})
	newToken, err := source.Token()
	if err != nil {
		log.Printf("token refresh failed for user %s: %v", token.UserID, err)
		return nil, ErrNeedsReauth
	}

	token.AccessToken = newToken.AccessToken
	token.Expiry = newToken.Expiry
	if newToken.RefreshToken != "" {
		token.RefreshToken = newToken.RefreshToken
	}

	if err := p.store.Save(ctx, token); err != nil {
		return nil, err
	}
	return token, nil
}
