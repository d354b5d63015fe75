//go:build !unix

package vaultio

import (
	"errors"
	"os"
)

// ErrUnsupportedPlatform is returned by lock acquisition on platforms this
// package has no advisory-locking implementation for.
var ErrUnsupportedPlatform = errors.New("vaultio: file locking is not supported on this platform")

func lockFile(f *os.File, mode LockMode) error {
	return ErrUnsupportedPlatform
}

func unlockFile(f *os.File) {}
