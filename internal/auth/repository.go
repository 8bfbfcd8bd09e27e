package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"papersum/internal/domain"
	"path/filepath"
	"sync"
)

// DefaultUsersFile mirrors the single storage key the user list lives under.
const DefaultUsersFile = "users_db.json"

// Repository loads and saves the whole user list. Service is its only
// writer.
type Repository interface {
	Load(ctx context.Context) ([]domain.User, error)
	Save(ctx context.Context, users []domain.User) error
}

// FileStore keeps the user list as a JSON array in one file.
type FileStore struct {
	mu   sync.Mutex
	path string
}

func NewFileStore(path string) *FileStore {
	if path == "" {
		path = DefaultUsersFile
	}

	return &FileStore{path: path}
}

// Load returns nil users when the file does not exist yet.
func (s *FileStore) Load(_ context.Context) ([]domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read users file: %w", err)
	}

	var users []domain.User
	if err = json.Unmarshal(raw, &users); err != nil {
		return nil, fmt.Errorf("decode users file: %w", err)
	}

	return users, nil
}

// Save replaces the file atomically.
func (s *FileStore) Save(_ context.Context, users []domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if users == nil {
		users = []domain.User{}
	}

	raw, err := json.MarshalIndent(users, "", "  ")
	if err != nil {
		return fmt.Errorf("encode users: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err = os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create users dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() {
		_ = os.Remove(tmp.Name())
	}()

	if _, err = tmp.Write(raw); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}

	if err = os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace users file: %w", err)
	}

	return nil
}
