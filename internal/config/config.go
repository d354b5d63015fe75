// Package config resolves the vault file path and the Argon2id policy
// defaults used when a vault is initialised.
package config

import (
	"os"
	"path/filepath"

	"github.com/joojf/passworder/internal/vaultcrypto"
	"github.com/joojf/passworder/internal/vaulterr"
)

const (
	// VaultEnv is the environment variable that overrides the default
	// vault path.
	VaultEnv = "PASSWORDER_VAULT"
	// AppDir is the subdirectory of the user's config directory the
	// default vault file lives in.
	AppDir = "passworder"
	// DefaultVaultFile is the default vault file name.
	DefaultVaultFile = "vault.pwder"
	// TestKDFEnv, when set to any non-empty value, switches Init to
	// deliberately weak Argon2id parameters so test suites don't pay the
	// real KDF cost on every run.
	TestKDFEnv = "PASSWORDER_VAULT_TEST_KDF"
)

// VaultPath resolves the vault file path: an explicit override wins, then
// the PASSWORDER_VAULT environment variable, then the platform's per-user
// config directory.
func VaultPath(override string) (string, error) {
	if override != "" {
		return override, nil
	}
	if envPath := os.Getenv(VaultEnv); envPath != "" {
		return envPath, nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", vaulterr.New(vaulterr.KindIO, "config", vaulterr.ErrVaultDirUnavailable)
	}
	return filepath.Join(dir, AppDir, DefaultVaultFile), nil
}

// IsTestKDF reports whether PASSWORDER_VAULT_TEST_KDF is set.
func IsTestKDF() bool {
	return os.Getenv(TestKDFEnv) != ""
}

// InitKdfParams returns the Argon2id parameters Init should use: the weak
// test parameters when IsTestKDF, the recommended production parameters
// otherwise.
func InitKdfParams() vaultcrypto.KdfParams {
	if IsTestKDF() {
		return vaultcrypto.TestParams()
	}
	return vaultcrypto.RecommendedParams()
}
