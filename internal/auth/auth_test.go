package auth

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"papersum/internal/domain"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

type memoryRepository struct {
	mu      sync.Mutex
	users   []domain.User
	loadErr error
	saveErr error
	saves   int
}

func (r *memoryRepository) Load(context.Context) ([]domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]domain.User(nil), r.users...), r.loadErr
}

func (r *memoryRepository) Save(_ context.Context, users []domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.saves++
	if r.saveErr != nil {
		return r.saveErr
	}
	r.users = append([]domain.User(nil), users...)

	return nil
}

func newTestService(t *testing.T, repo Repository) *Service {
	t.Helper()

	s, err := NewService(context.Background(), repo, slog.Default())
	if err != nil {
		t.Fatalf("create service: %v", err)
	}
	return s
}

func TestNewServiceSeedsDemoUser(t *testing.T) {
	repo := &memoryRepository{}
	s := newTestService(t, repo)

	users := s.Users()
	if len(users) != 1 || users[0].Email != DemoEmail || users[0].Name != DemoName {
		t.Fatalf("expected demo user, got %+v", users)
	}
	if users[0].Password != "" {
		t.Fatalf("expected public users to omit passwords")
	}
	if repo.saves != 1 {
		t.Fatalf("expected seeded store to be saved once, got %d", repo.saves)
	}

	if _, _, err := s.Login(context.Background(), DemoEmail, DemoPassword); err != nil {
		t.Fatalf("expected demo login to succeed: %v", err)
	}
}

func TestNewServiceKeepsUnreadableStore(t *testing.T) {
	repo := &memoryRepository{loadErr: errors.New("corrupt")}
	s := newTestService(t, repo)

	if repo.saves != 0 {
		t.Fatalf("expected unreadable store not to be overwritten")
	}
	if len(s.Users()) != 1 {
		t.Fatalf("expected demo user to be available in memory")
	}
}

func TestRegisterAndLogin(t *testing.T) {
	repo := &memoryRepository{}
	s := newTestService(t, repo)
	ctx := context.Background()

	u, err := s.Register(ctx, " Alice@Example.com ", "Alice", "s3cret")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if u.Email != "alice@example.com" || u.Password != "" || u.ID == "" {
		t.Fatalf("unexpected registered user: %+v", u)
	}

	if len(repo.users) != 2 {
		t.Fatalf("expected user to be persisted, got %d users", len(repo.users))
	}
	if repo.users[1].Password == "s3cret" {
		t.Fatalf("expected stored password to be hashed")
	}

	if _, err = s.Register(ctx, "alice@example.com", "Other", "x"); !errors.Is(err, ErrUserExists) {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}

	logged, token, err := s.Login(ctx, "alice@example.com", "s3cret")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if logged.ID != u.ID || token == "" {
		t.Fatalf("unexpected login result: %+v %q", logged, token)
	}

	if got, ok := s.Authenticate(token); !ok || got.ID != u.ID {
		t.Fatalf("expected token to authenticate the user")
	}

	s.Logout(token)
	if _, ok := s.Authenticate(token); ok {
		t.Fatalf("expected token to be revoked after logout")
	}
}

func TestLoginRejectsWrongCredentials(t *testing.T) {
	s := newTestService(t, &memoryRepository{})
	ctx := context.Background()

	if _, _, err := s.Login(ctx, DemoEmail, "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for wrong password, got %v", err)
	}
	if _, _, err := s.Login(ctx, "nobody@example.com", DemoPassword); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown email, got %v", err)
	}
}

func TestRegisterValidatesInput(t *testing.T) {
	s := newTestService(t, &memoryRepository{})

	if _, err := s.Register(context.Background(), "", "Name", "pw"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestRegisterRejectsLongPassword(t *testing.T) {
	repo := &memoryRepository{}
	s := newTestService(t, repo)

	_, err := s.Register(context.Background(), "long@example.com", "Long", strings.Repeat("p", 80))
	if !errors.Is(err, ErrPasswordTooLong) {
		t.Fatalf("expected ErrPasswordTooLong, got %v", err)
	}
	if len(s.Users()) != 1 || repo.saves != 1 {
		t.Fatalf("expected rejected user not to be stored")
	}
}

func TestRegisterKeepsUserWhenSaveFails(t *testing.T) {
	repo := &memoryRepository{}
	s := newTestService(t, repo)
	repo.saveErr = errors.New("disk full")

	if _, err := s.Register(context.Background(), "bob@example.com", "Bob", "pw"); err != nil {
		t.Fatalf("expected register to succeed in memory, got %v", err)
	}
	if len(s.Users()) != 2 {
		t.Fatalf("expected user to be kept in memory")
	}
}

func TestFileStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", DefaultUsersFile)
	store := NewFileStore(path)
	ctx := context.Background()

	users, err := store.Load(ctx)
	if err != nil || users != nil {
		t.Fatalf("expected missing file to load as empty, got %v, %v", users, err)
	}

	want := []domain.User{{ID: "1", Email: "a@b.c", Name: "A", Password: "hash"}}
	if err = store.Save(ctx, want); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got) != 1 || got[0] != want[0] {
		t.Fatalf("unexpected users: %+v", got)
	}

	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected temp files to be cleaned up, got %d entries", len(entries))
	}
}

func TestFileStoreRejectsCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultUsersFile)
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatalf("write file: %v", err)
	}

	if _, err := NewFileStore(path).Load(context.Background()); err == nil {
		t.Fatalf("expected corrupt file to fail loading")
	}
}
