package services

import (
	"context"
	"time"

	"task-manager/api/internal/apperr"
	"task-manager/api/internal/models"
	"task-manager/api/internal/monitoring"
	"task-manager/api/internal/security"

	"github.com/rs/zerolog"
)

type LoginResult struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	ExpiresIn   int64        `json:"expires_in"`
	User        *models.User `json:"-"`
}

// AuthService exchanges credentials for an access token whose subject is
// the user's email.
type AuthService struct {
	users   *UserService
	codec   *security.TokenCodec
	metrics *monitoring.Metrics
	log     zerolog.Logger
	now     func() time.Time
}

func NewAuthService(users *UserService, codec *security.TokenCodec, metrics *monitoring.Metrics, log zerolog.Logger) *AuthService {
	return &AuthService{
		users:   users,
		codec:   codec,
		metrics: metrics,
		log:     log.With().Str("service", "auth").Logger(),
		now:     time.Now,
	}
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := s.users.Authenticate(ctx, email, password)
	if err != nil {
		if apperr.Is(err, apperr.KindUnauthorized) {
			s.metrics.LoginAttempt("rejected")
			s.log.Warn().Str("code", apperr.Code(err)).Msg("login rejected")
		} else {
			s.metrics.LoginAttempt("error")
		}
		return nil, err
	}

	token, err := s.codec.Issue(user.Email, s.now())
	if err != nil {
		s.metrics.LoginAttempt("error")
		return nil, err
	}

	s.metrics.LoginAttempt("success")
	s.log.Info().Str("user_id", user.ID.String()).Msg("user logged in")

	return &LoginResult{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresIn:   int64(s.codec.TTL() / time.Second),
		User:        user,
	}, nil
}
