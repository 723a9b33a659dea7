package columns

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/feral-file/title-scrutiny/internal/adapter"
)

// Storage keeps the overlay blobs of one client
type Storage interface {
	// Load returns the blob stored at key, or nil when there is none
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, data []byte) error
	Delete(ctx context.Context, key string) error
}

// FileStorage keeps each blob in a JSON file of the client's directory
type FileStorage struct {
	fs  adapter.FileSystem
	dir string
}

// NewFileStorage creates a file storage rooted at dir
func NewFileStorage(fs adapter.FileSystem, dir string) *FileStorage {
	return &FileStorage{fs: fs, dir: dir}
}

// ClientDir returns the directory of one client under root
func ClientDir(root, clientID string) string {
	return filepath.Join(root, sanitize(clientID))
}

func (s *FileStorage) path(key string) string {
	return filepath.Join(s.dir, sanitize(key)+".json")
}

func (s *FileStorage) Load(_ context.Context, key string) ([]byte, error) {
	data, err := s.fs.ReadFile(s.path(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return data, nil
}

func (s *FileStorage) Save(_ context.Context, key string, data []byte) error {
	if err := s.fs.MkdirAll(s.dir, 0750); err != nil {
		return fmt.Errorf("failed to create column directory: %w", err)
	}
	if err := s.fs.WriteFile(s.path(key), data, 0600); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

func (s *FileStorage) Delete(_ context.Context, key string) error {
	if err := s.fs.Remove(s.path(key)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove %s: %w", key, err)
	}
	return nil
}

// RedisStorage keeps each blob under a client scoped redis key
type RedisStorage struct {
	client adapter.RedisClient
	prefix string
	ttl    time.Duration
}

// NewRedisStorage creates a redis storage. A zero ttl keeps the keys forever.
func NewRedisStorage(client adapter.RedisClient, prefix string, ttl time.Duration) *RedisStorage {
	return &RedisStorage{client: client, prefix: prefix, ttl: ttl}
}

// ClientPrefix returns the key prefix of one client
func ClientPrefix(base, clientID string) string {
	return fmt.Sprintf("%s:client:%s", base, clientID)
}

func (s *RedisStorage) key(key string) string {
	return s.prefix + ":" + key
}

func (s *RedisStorage) Load(ctx context.Context, key string) ([]byte, error) {
	data, err := s.client.Get(ctx, s.key(key))
	if err != nil {
		if errors.Is(err, adapter.ErrRedisNil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get %s: %w", key, err)
	}
	return data, nil
}

func (s *RedisStorage) Save(ctx context.Context, key string, data []byte) error {
	if err := s.client.Set(ctx, s.key(key), data, s.ttl); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}
	return nil
}

func (s *RedisStorage) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.key(key)); err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

// sanitize keeps a path element inside its directory
func sanitize(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
			return r
		default:
			return '_'
		}
	}, name)
}
