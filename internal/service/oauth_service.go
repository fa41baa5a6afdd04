// FILE: internal/service/oauth_service.go
package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"log"
	"os"

	"ai-chat-be/internal/repository/specification"
	"ai-chat-be/internal/repository/unitofwork"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// IOAuthService links an existing, authenticated account to Google. The
// state round-trips through the user row, so the callback can find the
// account without a session.
type IOAuthService interface {
	GetConnectURL(ctx context.Context, userId uuid.UUID) (string, error)
	HandleCallback(ctx context.Context, state, code string) error
}

type oauthService struct {
	uowFactory unitofwork.RepositoryFactory
	googleConf *oauth2.Config
}

func NewOAuthService(uowFactory unitofwork.RepositoryFactory) IOAuthService {
	conf := &oauth2.Config{
		ClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
		ClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
		RedirectURL:  os.Getenv("GOOGLE_REDIRECT_URL"),
		Scopes: []string{
			"https://www.googleapis.com/auth/userinfo.email",
			"https://www.googleapis.com/auth/calendar.events",
		},
		Endpoint: google.Endpoint,
	}

	return &oauthService{
		uowFactory: uowFactory,
		googleConf: conf,
	}
}

func (s *oauthService) GetConnectURL(ctx context.Context, userId uuid.UUID) (string, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	user, err := uow.UserRepository().FindOne(ctx, specification.ByID{ID: userId})
	if err != nil {
		return "", err
	}
	if user == nil {
		return "", ErrUserNotFound
	}

	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	state := base64.URLEncoding.EncodeToString(b)

	if err := uow.UserRepository().SaveOauthState(ctx, user.Id, state); err != nil {
		return "", err
	}

	// offline access so Google returns a refresh token
	return s.googleConf.AuthCodeURL(state, oauth2.AccessTypeOffline), nil
}

func (s *oauthService) HandleCallback(ctx context.Context, state, code string) error {
	if state == "" || code == "" {
		return errors.New("missing state or code")
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	user, err := uow.UserRepository().FindOne(ctx, specification.ByOauthState{State: state})
	if err != nil {
		return err
	}
	if user == nil {
		return errors.New("unknown oauth state")
	}

	token, err := s.googleConf.Exchange(ctx, code)
	if err != nil {
		log.Printf("[OAuth Service] code exchange failed: %v", err)
		return errors.New("code exchange failed")
	}

	expiry := token.Expiry
	if err := uow.UserRepository().SaveGoogleTokens(ctx, user.Id, token.AccessToken, token.RefreshToken, &expiry); err != nil {
		return err
	}

	log.Printf("[OAuth Service] Google account linked for user %s", user.Id)
	return nil
}
