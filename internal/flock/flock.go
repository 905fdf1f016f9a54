// Package flock implements the advisory lock guarding a tile extract while
// it is being built. The lock file sits next to the extract output and
// records the pid of the process holding it, so a successor can tell a live
// owner from a stale one. Being an flock(2) lock, it is advisory only;
// processes are free to ignore it altogether.
package flock

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"syscall"
)

var le = binary.LittleEndian

var (
	ErrAlreadyLocked = fmt.Errorf("flock is already locked")
	ErrNotLocked     = fmt.Errorf("flock is not locked")
	ErrClosed        = fmt.Errorf("underlying file descriptor has already been closed")
	ErrCannotLock    = fmt.Errorf("could not obtain lock")
)

// New returns a Flock for a file at a given path. The file is created when
// absent, but not locked until Lock is called.
func New(path string) (*Flock, error) {
	oldMask := syscall.Umask(0)
	defer syscall.Umask(oldMask)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0666)
	if err != nil {
		return nil, err
	}
	return &Flock{file: f, name: path}, nil
}

// Flock wraps a single lock file. Exported methods take the internal mutex;
// unexported ones expect it to be held and must not retake it.
type Flock struct {
	mu     sync.Mutex
	file   *os.File
	name   string
	locked bool
	closed bool
}

// Lock attempts to acquire the lock without blocking. Returns
// ErrAlreadyLocked when this instance already holds it, ErrClosed after
// Close, or ErrCannotLock when another process holds the lock.
func (f *Flock) Lock() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch {
	case f.closed:
		return ErrClosed
	case f.locked:
		return ErrAlreadyLocked
	}

	err := syscall.Flock(int(f.file.Fd()), syscall.LOCK_EX|syscall.LOCK_NB)
	if err == nil {
		f.locked = true
	} else {
		err = errors.Join(ErrCannotLock, err)
	}
	return err
}

// Unlock releases the lock acquired by Lock. Returns ErrNotLocked when the
// lock is not currently held, or ErrClosed after Close.
func (f *Flock) Unlock() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch {
	case f.closed:
		return ErrClosed
	case !f.locked:
		return ErrNotLocked
	}

	return f.unlock()
}

func (f *Flock) unlock() error {
	if f.closed || !f.locked {
		return nil
	}

	err := syscall.Flock(int(f.file.Fd()), syscall.LOCK_UN)
	if err == nil {
		f.locked = false
	}
	return err
}

// Close releases the lock when held and closes the underlying descriptor.
// The instance cannot be reused afterwards.
func (f *Flock) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.close()
}

func (f *Flock) close() error {
	if f.closed {
		return ErrClosed
	}

	if err := f.unlock(); err != nil {
		return err
	}
	if err := f.file.Close(); err != nil {
		return err
	}
	f.closed = true
	return nil
}

// Remove closes the instance and deletes the lock file from the filesystem.
func (f *Flock) Remove() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.close(); err != nil && !errors.Is(err, os.ErrClosed) {
		return err
	}

	if err := os.Remove(f.name); err != nil && !os.IsNotExist(err) {
		return err
	}

	return nil
}

// WritePID records pid as the current owner of the lock file.
func (f *Flock) WritePID(pid int) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	data := make([]byte, 8)
	le.PutUint64(data, uint64(pid))
	if _, err := f.file.WriteAt(data, 0); err != nil {
		return err
	}
	return f.file.Sync()
}

// ReadPID returns the pid recorded in the lock file, when one is present.
func (f *Flock) ReadPID() (pid int, ok bool, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	data := make([]byte, 8)
	n, err := f.file.ReadAt(data, 0)
	if n == len(data) {
		return int(le.Uint64(data)), true, nil
	}
	if errors.Is(err, io.EOF) {
		return 0, false, nil
	}
	return 0, false, err
}
