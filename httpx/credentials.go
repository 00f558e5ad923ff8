package httpx

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/oauth"
	"github.com/mbolis/quick-forms/config"
	"github.com/mbolis/quick-forms/survey"
	"golang.org/x/crypto/bcrypt"
)

const refreshTokenLifetime = 8760 * time.Hour

// TokenStore remembers issued refresh tokens so each can be used once.
type TokenStore interface {
	StoreToken(ctx context.Context, username, tokenID, refreshTokenID string, expiration time.Time) error
	ConsumeToken(ctx context.Context, username, tokenID, refreshTokenID string) (time.Time, error)
}

var errCouldNotRefresh = errors.New("could not refresh")

type credentialsVerifier struct {
	users  survey.UserStore
	tokens TokenStore
	now    func() time.Time
}

func CredentialsVerifier(users survey.UserStore, tokens TokenStore) oauth.CredentialsVerifier {
	return &credentialsVerifier{users, tokens, time.Now}
}

// NewBearerServer issues tokens for users who log in with e-mail and password.
func NewBearerServer(users survey.UserStore, tokens TokenStore, cfg config.Config) *oauth.BearerServer {
	return oauth.NewBearerServer(cfg.TokenSecret, cfg.TokenTTL, CredentialsVerifier(users, tokens), nil)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (cs *credentialsVerifier) ValidateUser(username string, password string, scope string, r *http.Request) error {
	user, err := cs.users.FindUserByEmail(r.Context(), normalizeEmail(username))
	if err != nil {
		return err
	}

	return bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(password))
}
func (cs *credentialsVerifier) StoreTokenID(tokenType oauth.TokenType, credential string, tokenID string, refreshTokenID string) error {
	return cs.tokens.StoreToken(
		context.Background(),
		normalizeEmail(credential),
		tokenID,
		refreshTokenID,
		cs.now().Add(refreshTokenLifetime),
	)
}
func (cs *credentialsVerifier) ValidateTokenID(tokenType oauth.TokenType, credential string, tokenID string, refreshTokenID string) error {
	expiration, err := cs.tokens.ConsumeToken(context.Background(), normalizeEmail(credential), tokenID, refreshTokenID)
	if err != nil {
		return errCouldNotRefresh
	}

	if expiration.Before(cs.now()) {
		return errCouldNotRefresh
	}
	return nil
}
func (cs *credentialsVerifier) AddClaims(tokenType oauth.TokenType, credential string, tokenID string, scope string, r *http.Request) (map[string]string, error) {
	user, err := cs.users.FindUserByEmail(r.Context(), normalizeEmail(credential))
	if err != nil {
		return nil, err
	}
	return map[string]string{"user_id": user.ID, "email": user.Email}, nil
}
func (*credentialsVerifier) AddProperties(tokenType oauth.TokenType, credential string, tokenID string, scope string, r *http.Request) (map[string]string, error) {
	return map[string]string{}, nil
}
func (*credentialsVerifier) ValidateClient(clientID string, clientSecret string, scope string, r *http.Request) error {
	return errors.New("not supported")
}
