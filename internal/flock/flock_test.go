package flock

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func makePath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "lock")
}

func makeLockAt(t *testing.T, path string) *Flock {
	t.Helper()
	f, err := New(path)
	require.NoError(t, err)
	require.NotNil(t, f)
	return f
}

func makeLock(t *testing.T) *Flock {
	return makeLockAt(t, makePath(t))
}

func TestFlock(t *testing.T) {
	t.Run("Open, Lock, Unlock, Close", func(t *testing.T) {
		f := makeLock(t)

		require.NoError(t, f.Lock())
		require.NoError(t, f.Unlock())
		require.NoError(t, f.Close())
	})

	t.Run("Concurrent lock", func(t *testing.T) {
		path := makePath(t)
		f := makeLockAt(t, path)
		f2 := makeLockAt(t, path)

		require.NoError(t, f.Lock())
		require.ErrorIs(t, f2.Lock(), ErrCannotLock)

		require.NoError(t, f.Close())
		require.NoError(t, f2.Close())
	})

	t.Run("Unlock when not locked", func(t *testing.T) {
		f := makeLock(t)
		require.ErrorIs(t, f.Unlock(), ErrNotLocked)
	})

	t.Run("Double lock", func(t *testing.T) {
		f := makeLock(t)
		require.NoError(t, f.Lock())
		require.ErrorIs(t, f.Lock(), ErrAlreadyLocked)
		require.NoError(t, f.Close())
	})

	t.Run("Lock after close", func(t *testing.T) {
		f := makeLock(t)
		require.NoError(t, f.Close())
		require.ErrorIs(t, f.Lock(), ErrClosed)
	})

	t.Run("Remove deletes the lock file", func(t *testing.T) {
		path := makePath(t)
		f := makeLockAt(t, path)
		require.NoError(t, f.Lock())
		require.NoError(t, f.Remove())

		_, err := os.Stat(path)
		require.True(t, os.IsNotExist(err))
	})
}

func TestFlockPID(t *testing.T) {
	t.Run("Empty lock file holds no pid", func(t *testing.T) {
		f := makeLock(t)
		defer func() { _ = f.Close() }()

		_, ok, err := f.ReadPID()
		require.NoError(t, err)
		require.False(t, ok)
	})

	t.Run("WritePID round trip", func(t *testing.T) {
		path := makePath(t)
		f := makeLockAt(t, path)
		require.NoError(t, f.Lock())
		require.NoError(t, f.WritePID(os.Getpid()))
		require.NoError(t, f.Close())

		f = makeLockAt(t, path)
		defer func() { _ = f.Close() }()
		pid, ok, err := f.ReadPID()
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, os.Getpid(), pid)
	})
}
