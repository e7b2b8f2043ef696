package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/rl1809/food-ordering/internal/core/domain"
	"github.com/rl1809/food-ordering/internal/port"
)

var ErrMissingCredentials = errors.New("username and password are required")

type AuthService struct {
	users  port.UserRepository
	hasher port.PasswordHasher
	events EventDispatcher
	log    logrus.FieldLogger
}

func NewAuthService(users port.UserRepository, hasher port.PasswordHasher, events EventDispatcher, log logrus.FieldLogger) *AuthService {
	return &AuthService{
		users:  users,
		hasher: hasher,
		events: events,
		log:    log,
	}
}

// Register creates a user record. role must name a known role; callers apply
// domain.DefaultRole when none was given. The username check runs before the
// role check.
func (s *AuthService) Register(ctx context.Context, username, password, role string) (domain.User, error) {
	if username == "" || password == "" {
		return domain.User{}, ErrMissingCredentials
	}

	_, err := s.users.GetUser(ctx, username)
	if err == nil {
		return domain.User{}, domain.ErrUsernameTaken
	}
	if !errors.Is(err, domain.ErrUserNotFound) {
		return domain.User{}, fmt.Errorf("look up user: %w", err)
	}

	parsed, err := domain.ParseRole(role)
	if err != nil {
		return domain.User{}, err
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		if errors.Is(err, domain.ErrPasswordTooLong) {
			return domain.User{}, err
		}
		return domain.User{}, fmt.Errorf("hash password: %w", err)
	}

	user := domain.User{
		Username:       username,
		HashedPassword: hash,
		Role:           parsed,
		CreatedAt:      time.Now().UTC(),
	}

	// The store enforces uniqueness; a concurrent registration can still win here.
	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, domain.ErrUsernameTaken) {
			return domain.User{}, err
		}
		return domain.User{}, fmt.Errorf("save user: %w", err)
	}

	s.log.WithFields(logrus.Fields{"username": user.Username, "role": user.Role}).Info("user registered")
	s.events.Dispatch(ctx, domain.UserRegistered{Username: user.Username, Role: user.Role})

	return user, nil
}

// Login verifies password against the stored hash. Unknown users and wrong
// passwords both report false without an error.
func (s *AuthService) Login(ctx context.Context, username, password string) (bool, error) {
	user, err := s.users.GetUser(ctx, username)
	if errors.Is(err, domain.ErrUserNotFound) {
		s.log.WithField("username", username).Info("login rejected: unknown user")
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("look up user: %w", err)
	}

	ok, err := s.hasher.Verify(user.HashedPassword, password)
	if err != nil {
		return false, fmt.Errorf("verify password: %w", err)
	}

	if ok {
		s.log.WithField("username", username).Info("login succeeded")
	} else {
		s.log.WithField("username", username).Info("login rejected: wrong password")
	}
	return ok, nil
}
