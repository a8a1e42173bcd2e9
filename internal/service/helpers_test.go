package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/pageza/nutrisnap/backend/config"
	"github.com/pageza/nutrisnap/backend/internal/database"
	"github.com/pageza/nutrisnap/backend/internal/logger"
)

var testSealingSecret = strings.Repeat("s", 32)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.New(&config.Config{DBDriver: "sqlite", SQLitePath: ":memory:"}, logger.NewNop())
	require.NoError(t, err)
	require.NoError(t, database.RunMigrations(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

// memoryTokenStore is an in-process TokenStore.
type memoryTokenStore struct {
	mu      sync.Mutex
	revoked map[string]time.Duration
	err     error
}

func newMemoryTokenStore() *memoryTokenStore {
	return &memoryTokenStore{revoked: map[string]time.Duration{}}
}

func (m *memoryTokenStore) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.revoked[jti] = ttl
	return nil
}

func (m *memoryTokenStore) IsRevoked(ctx context.Context, jti string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return false, m.err
	}
	_, ok := m.revoked[jti]
	return ok, nil
}

// memoryAvatarStore records uploads.
type memoryAvatarStore struct {
	objects map[string][]byte
	types   map[string]string
	failPut bool
}

func newMemoryAvatarStore() *memoryAvatarStore {
	return &memoryAvatarStore{objects: map[string][]byte{}, types: map[string]string{}}
}

func (m *memoryAvatarStore) Put(ctx context.Context, key, contentType string, body io.Reader, size int64) error {
	if m.failPut {
		return errors.New("bucket unavailable")
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, body); err != nil {
		return err
	}
	m.objects[key] = buf.Bytes()
	m.types[key] = contentType
	return nil
}

func (m *memoryAvatarStore) URL(ctx context.Context, key string) (string, error) {
	return "https://avatars.example.com/" + key + "?signed=1", nil
}
