package middleware_test

import (
	"crypto/rand"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/loom/pkg/adapters/file"
	"github.com/aretw0/loom/pkg/persistence/middleware"
	"github.com/aretw0/loom/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func generateKey(t *testing.T) []byte {
	t.Helper()
	k := make([]byte, 32)
	_, err := io.ReadFull(rand.Reader, k)
	require.NoError(t, err)
	return k
}

func encrypted(t *testing.T, next *memStore, cfg middleware.EncryptionConfig) ports.StateStore {
	t.Helper()
	mw, err := middleware.NewEncryptionMiddleware(cfg)
	require.NoError(t, err)
	return mw(next)
}

func TestEncryptionMiddleware_Roundtrip(t *testing.T) {
	underlying := &memStore{}
	store := encrypted(t, underlying, middleware.EncryptionConfig{ActiveKey: generateKey(t)})

	require.NoError(t, store.Save(map[string]any{"secret": "my-secret-sauce"}))

	assert.NotContains(t, underlying.saved, "secret")
	assert.Contains(t, underlying.saved, middleware.EnvelopeKey)

	loaded, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "my-secret-sauce", loaded["secret"])
}

func TestEncryptionMiddleware_EmptyStore(t *testing.T) {
	store := encrypted(t, &memStore{}, middleware.EncryptionConfig{ActiveKey: generateKey(t)})

	loaded, err := store.Load()
	require.NoError(t, err)
	assert.Empty(t, loaded)
}

func TestEncryptionMiddleware_KeyRotation(t *testing.T) {
	oldKey, newKey := generateKey(t), generateKey(t)
	underlying := &memStore{}

	before := encrypted(t, underlying, middleware.EncryptionConfig{ActiveKey: oldKey})
	require.NoError(t, before.Save(map[string]any{"hits": 3.0}))

	rotated := encrypted(t, underlying, middleware.EncryptionConfig{ActiveKey: newKey, FallbackKeys: [][]byte{oldKey}})
	loaded, err := rotated.Load()
	require.NoError(t, err)
	assert.Equal(t, 3.0, loaded["hits"])

	withoutOld := encrypted(t, underlying, middleware.EncryptionConfig{ActiveKey: newKey})
	_, err = withoutOld.Load()
	assert.ErrorContains(t, err, "decryption failed")
}

func TestEncryptionMiddleware_RejectsPlainState(t *testing.T) {
	underlying := &memStore{saved: map[string]any{"hits": 1.0}}
	store := encrypted(t, underlying, middleware.EncryptionConfig{ActiveKey: generateKey(t)})

	_, err := store.Load()
	assert.ErrorContains(t, err, "missing encrypted data envelope")
}

func TestEncryptionMiddleware_InvalidKey(t *testing.T) {
	_, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: []byte("short")})
	assert.Error(t, err)
}

func TestEncryptionMiddleware_StateFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	mw, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})
	require.NoError(t, err)
	store := mw(file.NewStateFile(path))

	require.NoError(t, store.Save(map[string]any{"token": "abc"}))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "abc")

	loaded, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "abc", loaded["token"])
}
