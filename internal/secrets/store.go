package secrets

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	dErrors "aegis/pkg/domain-errors"
)

// Store is the durable-blob hook for secrets and sensitive config. The host
// decides the medium; this package ships a file-backed default.
type Store interface {
	Load(ctx context.Context, name string) ([]byte, error)
	Save(ctx context.Context, name string, value []byte) error
}

// FileStore keeps one file per secret under a directory, readable by the
// owning user only.
type FileStore struct {
	dir string
}

// NewFileStore creates the directory if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "secrets directory is required")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create secrets directory: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) path(name string) (string, error) {
	if name == "" || strings.ContainsAny(name, `/\`) || strings.Contains(name, "..") {
		return "", dErrors.Newf(dErrors.CodeInvalidInput, "invalid secret name %q", name)
	}
	return filepath.Join(s.dir, name), nil
}

func (s *FileStore) Load(_ context.Context, name string) ([]byte, error) {
	path, err := s.path(name)
	if err != nil {
		return nil, err
	}
	value, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, dErrors.Newf(dErrors.CodeNotFound, "secret %q not found", name)
	}
	if err != nil {
		return nil, fmt.Errorf("load secret %q: %w", name, err)
	}
	return value, nil
}

func (s *FileStore) Save(_ context.Context, name string, value []byte) error {
	path, err := s.path(name)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, value, 0o600); err != nil {
		return fmt.Errorf("save secret %q: %w", name, err)
	}
	return nil
}

// signingKeyName is the blob holding the audit chain key.
const signingKeyName = "audit-signing-key"

// LoadSigningKey resolves the audit signing key: an explicit environment
// value wins; otherwise the key persisted in the store is used, and on first
// run a fresh key is generated, saved, and loudly flagged. There is no
// hardcoded fallback: a key that cannot be sourced is an error, because a
// guessable key silently voids tamper evidence.
func LoadSigningKey(ctx context.Context, envValue string, store Store, logger *slog.Logger) ([]byte, error) {
	if envValue != "" {
		return []byte(envValue), nil
	}
	if store == nil {
		return nil, dErrors.New(dErrors.CodeInternal, "no signing key configured and no secret store available")
	}

	key, err := store.Load(ctx, signingKeyName)
	if err == nil {
		return key, nil
	}
	if !dErrors.HasCode(err, dErrors.CodeNotFound) {
		return nil, err
	}

	generated, err := Generate()
	if err != nil {
		return nil, err
	}
	if err := store.Save(ctx, signingKeyName, []byte(generated)); err != nil {
		return nil, err
	}
	logger.Warn("no audit signing key configured; generated and persisted a new one",
		"secret", signingKeyName)
	return []byte(generated), nil
}
