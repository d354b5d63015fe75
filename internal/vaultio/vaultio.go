// Package vaultio provides crash-safe, lock-protected reads and writes of
// the raw vault container bytes. It knows nothing about the container
// format or encryption; higher layers own parsing and crypto.
//
// Writes use the write-temp-file, fsync, atomic-rename pattern in the same
// directory as the target, so a crash mid-write can never leave a
// half-written vault file behind. Reads and writes both take an advisory
// lock on a sibling ".lock" file first, so two processes touching the same
// vault never interleave.
package vaultio

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joojf/passworder/internal/vaulterr"
)

// LockMode selects shared (read) or exclusive (write) advisory locking.
type LockMode int

const (
	LockShared LockMode = iota
	LockExclusive
)

// LockPathFor returns the sibling lock file path for a vault file path.
func LockPathFor(vaultPath string) string {
	return vaultPath + ".lock"
}

// Lock represents a held advisory lock on a vault's lock file. Release it
// with Close once the critical section is done.
type Lock struct {
	file *os.File
}

// AcquireLock opens (creating if necessary) the lock file at lockPath with
// 0600 permissions and takes an advisory lock in the given mode, blocking
// until it is available.
func AcquireLock(lockPath string, mode LockMode) (*Lock, error) {
	if err := ensureParentDir(lockPath); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(lockPath, os.O_RDWR|os.O_CREATE, 0o600)
	if err != nil {
		return nil, vaulterr.New(vaulterr.KindIO, "vaultio", fmt.Errorf("open lock file: %w", err))
	}
	if err := os.Chmod(lockPath, 0o600); err != nil {
		f.Close()
		return nil, vaulterr.New(vaulterr.KindIO, "vaultio", fmt.Errorf("chmod lock file: %w", err))
	}
	if err := lockFile(f, mode); err != nil {
		f.Close()
		return nil, vaulterr.New(vaulterr.KindIO, "vaultio", err)
	}
	return &Lock{file: f}, nil
}

// Close releases the lock and closes the underlying file descriptor.
func (l *Lock) Close() error {
	if l == nil || l.file == nil {
		return nil
	}
	unlockFile(l.file)
	return l.file.Close()
}

// ReadBytes acquires a shared lock on the vault's lock file and returns the
// full contents of vaultPath.
func ReadBytes(vaultPath string) ([]byte, error) {
	lock, err := AcquireLock(LockPathFor(vaultPath), LockShared)
	if err != nil {
		return nil, err
	}
	defer lock.Close()
	return ReadBytesUnlocked(vaultPath)
}

// ReadBytesUnlocked reads vaultPath without taking any lock. Callers that
// already hold an appropriate lock (e.g. the vault package, which locks
// once across a read-modify-write cycle) should use this directly.
func ReadBytesUnlocked(vaultPath string) ([]byte, error) {
	data, err := os.ReadFile(vaultPath)
	if err != nil {
		return nil, vaulterr.New(vaulterr.KindIO, "vaultio", err)
	}
	return data, nil
}

// WriteBytesAtomic acquires an exclusive lock on the vault's lock file and
// atomically writes bytes to vaultPath.
func WriteBytesAtomic(vaultPath string, data []byte) error {
	lock, err := AcquireLock(LockPathFor(vaultPath), LockExclusive)
	if err != nil {
		return err
	}
	defer lock.Close()
	return WriteBytesAtomicUnlocked(vaultPath, data)
}

// WriteBytesAtomicUnlocked performs the atomic write without taking any
// lock. Callers that already hold an appropriate lock should use this
// directly to avoid re-entrant locking on the same process.
func WriteBytesAtomicUnlocked(vaultPath string, data []byte) error {
	if err := ensureParentDir(vaultPath); err != nil {
		return err
	}
	dir := filepath.Dir(vaultPath)

	tmp, err := os.CreateTemp(dir, ".vault-tmp-*")
	if err != nil {
		return vaulterr.New(vaulterr.KindIO, "vaultio", fmt.Errorf("create temp file: %w", err))
	}
	tmpPath := tmp.Name()
	cleanup := func() {
		tmp.Close()
		os.Remove(tmpPath)
	}

	if _, err := tmp.Write(data); err != nil {
		cleanup()
		return vaulterr.New(vaulterr.KindIO, "vaultio", fmt.Errorf("write temp file: %w", err))
	}
	if err := tmp.Sync(); err != nil {
		cleanup()
		return vaulterr.New(vaulterr.KindIO, "vaultio", fmt.Errorf("sync temp file: %w", err))
	}
	if err := tmp.Chmod(0o600); err != nil {
		cleanup()
		return vaulterr.New(vaulterr.KindIO, "vaultio", fmt.Errorf("chmod temp file: %w", err))
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return vaulterr.New(vaulterr.KindIO, "vaultio", fmt.Errorf("close temp file: %w", err))
	}
	if err := os.Rename(tmpPath, vaultPath); err != nil {
		os.Remove(tmpPath)
		return vaulterr.New(vaulterr.KindIO, "vaultio", fmt.Errorf("rename temp file: %w", err))
	}
	if err := os.Chmod(vaultPath, 0o600); err != nil {
		return vaulterr.New(vaulterr.KindIO, "vaultio", fmt.Errorf("chmod vault file: %w", err))
	}
	if err := fsyncDir(dir); err != nil {
		return err
	}
	return nil
}

func ensureParentDir(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return vaulterr.New(vaulterr.KindIO, "vaultio", fmt.Errorf("create parent dir %q: %w", dir, err))
	}
	return nil
}

func fsyncDir(dir string) error {
	f, err := os.Open(dir)
	if err != nil {
		return vaulterr.New(vaulterr.KindIO, "vaultio", fmt.Errorf("open dir for fsync: %w", err))
	}
	defer f.Close()
	if err := f.Sync(); err != nil {
		return vaulterr.New(vaulterr.KindIO, "vaultio", fmt.Errorf("fsync dir: %w", err))
	}
	return nil
}
