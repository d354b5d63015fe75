//go:build unix

package vaultio

import (
	"fmt"
	"os"
	"syscall"
)

func lockFile(f *os.File, mode LockMode) error {
	op := syscall.LOCK_EX
	if mode == LockShared {
		op = syscall.LOCK_SH
	}
	if err := syscall.Flock(int(f.Fd()), op); err != nil {
		return fmt.Errorf("vaultio: flock: %w", err)
	}
	return nil
}

func unlockFile(f *os.File) {
	_ = syscall.Flock(int(f.Fd()), syscall.LOCK_UN)
}
