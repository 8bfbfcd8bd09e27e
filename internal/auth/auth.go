// Package auth is a local mock of user registration and login. It is not
// meant to protect anything.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"papersum/internal/domain"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	DemoEmail    = "demo@example.com"
	DemoName     = "Demo User"
	DemoPassword = "password123"
)

var (
	ErrUserExists         = errors.New("user with this email already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidInput       = errors.New("email, name and password are required")
	ErrPasswordTooLong    = errors.New("password must be at most 72 bytes")
)

type Service struct {
	mu       sync.Mutex
	repo     Repository
	users    []domain.User
	sessions map[string]string
	log      *slog.Logger
}

// NewService loads users from repo. A failed load is logged and the demo
// user is used instead; an empty store is seeded with the demo user.
func NewService(ctx context.Context, repo Repository, log *slog.Logger) (*Service, error) {
	if repo == nil {
		return nil, errors.New("repository is required")
	}
	if log == nil {
		log = slog.Default()
	}

	s := &Service{
		repo:     repo,
		sessions: make(map[string]string),
		log:      log,
	}

	users, err := repo.Load(ctx)
	if err != nil {
		log.ErrorContext(ctx, "Failed to load users so demo user will be used",
			"error", err)
	}

	s.users = users

	if len(s.users) == 0 {
		demo, seedErr := newUser(DemoEmail, DemoName, DemoPassword)
		if seedErr != nil {
			return nil, fmt.Errorf("seed demo user: %w", seedErr)
		}
		demo.ID = "1"
		s.users = []domain.User{demo}

		// Do not overwrite a store that exists but could not be read.
		if err == nil {
			s.saveLocked(ctx, "SeedDemoUser")
		}
	}

	log.InfoContext(ctx, "Users are loaded",
		"userCount", len(s.users))

	return s, nil
}

func (s *Service) Register(ctx context.Context, email, name, password string) (domain.User, error) {
	email = normalizeEmail(email)
	name = strings.TrimSpace(name)
	if email == "" || name == "" || password == "" {
		return domain.User{}, ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if slices.ContainsFunc(s.users, func(u domain.User) bool { return u.Email == email }) {
		return domain.User{}, ErrUserExists
	}

	u, err := newUser(email, name, password)
	if err != nil {
		return domain.User{}, err
	}

	s.users = append(s.users, u)
	s.saveLocked(ctx, "Register")

	s.log.InfoContext(ctx, "User is registered",
		"userID", u.ID,
		"email", u.Email)

	return u.Public(), nil
}

// Login returns the public user and a session token for Authenticate.
func (s *Service) Login(ctx context.Context, email, password string) (domain.User, string, error) {
	email = normalizeEmail(email)

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := slices.IndexFunc(s.users, func(u domain.User) bool { return u.Email == email })
	if idx < 0 {
		return domain.User{}, "", ErrInvalidCredentials
	}

	u := s.users[idx]
	if err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)); err != nil {
		s.log.DebugContext(ctx, "Login is rejected",
			"email", email)

		return domain.User{}, "", ErrInvalidCredentials
	}

	token := uuid.NewString()
	s.sessions[token] = u.ID

	return u.Public(), token, nil
}

func (s *Service) Authenticate(token string) (domain.User, bool) {
	token = strings.TrimSpace(token)
	if token == "" {
		return domain.User{}, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	userID, ok := s.sessions[token]
	if !ok {
		return domain.User{}, false
	}

	idx := slices.IndexFunc(s.users, func(u domain.User) bool { return u.ID == userID })
	if idx < 0 {
		delete(s.sessions, token)
		return domain.User{}, false
	}

	return s.users[idx].Public(), true
}

func (s *Service) Logout(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, strings.TrimSpace(token))
}

// Users returns every user without passwords.
func (s *Service) Users() []domain.User {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, u.Public())
	}

	return out
}

// saveLocked keeps the in-memory list when the store fails.
func (s *Service) saveLocked(ctx context.Context, operation string) {
	if err := s.repo.Save(ctx, s.users); err != nil {
		s.log.ErrorContext(ctx, "Failed to save users",
			"error", err,
			"operation", operation,
			"userCount", len(s.users))
	}
}

func newUser(email, name, password string) (domain.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return domain.User{}, ErrPasswordTooLong
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("hash password: %w", err)
	}

	return domain.User{
		ID:       uuid.NewString(),
		Email:    email,
		Name:     name,
		Password: string(hash),
	}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
