// Package secrets handles age-encrypted values of the form ENC[<base64>].
//
// Encrypted values can sit in actionkit.toml or be passed to a step as
// plain inputs. A step unseals them with an identity resolved from
// ACTIONKIT_AGE_KEY, ACTIONKIT_AGE_KEY_FILE, the secrets.identity config key
// or ~/.config/actionkit/age.key, and every unsealed value is registered
// with the runner as a mask before it is used.
package secrets

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"filippo.io/age"
	"github.com/spf13/viper"

	"github.com/sekia-ai/actionkit/pkg/core"
)

const (
	encPrefix = "ENC["
	encSuffix = "]"

	// DefaultKeyFilename is the identity file looked up under
	// ~/.config/actionkit.
	DefaultKeyFilename = "age.key"

	// EnvAgeKey holds a raw AGE-SECRET-KEY-1... identity.
	EnvAgeKey = "ACTIONKIT_AGE_KEY"

	// EnvAgeKeyFile holds the path of an identity file.
	EnvAgeKeyFile = "ACTIONKIT_AGE_KEY_FILE"
)

// IsEncrypted reports whether value is a non-empty ENC[...] wrapper.
func IsEncrypted(value string) bool {
	return len(value) > len(encPrefix)+len(encSuffix) &&
		strings.HasPrefix(value, encPrefix) &&
		strings.HasSuffix(value, encSuffix)
}

// Encrypt seals plaintext for recipients and wraps it as ENC[...].
func Encrypt(plaintext string, recipients ...age.Recipient) (string, error) {
	var buf bytes.Buffer
	w, err := age.Encrypt(&buf, recipients...)
	if err != nil {
		return "", fmt.Errorf("create age encryptor: %w", err)
	}
	if _, err := io.WriteString(w, plaintext); err != nil {
		return "", fmt.Errorf("write plaintext: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("finalize encryption: %w", err)
	}
	return encPrefix + base64.StdEncoding.EncodeToString(buf.Bytes()) + encSuffix, nil
}

// Decrypt opens an ENC[...] value.
func Decrypt(enc string, identities ...age.Identity) (string, error) {
	if !IsEncrypted(enc) {
		return "", fmt.Errorf("value is not encrypted (missing ENC[...] wrapper)")
	}
	ciphertext, err := base64.StdEncoding.DecodeString(enc[len(encPrefix) : len(enc)-len(encSuffix)])
	if err != nil {
		return "", fmt.Errorf("decode base64: %w", err)
	}
	r, err := age.Decrypt(bytes.NewReader(ciphertext), identities...)
	if err != nil {
		return "", fmt.Errorf("age decrypt: %w", err)
	}
	plaintext, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read decrypted data: %w", err)
	}
	return string(plaintext), nil
}

// Unseal decrypts value if it is wrapped in ENC[...] and registers the
// plaintext as a mask. Plain values are returned unchanged and unmasked.
func Unseal(a *core.Action, value string, identities ...age.Identity) (string, error) {
	if !IsEncrypted(value) {
		return value, nil
	}
	if len(identities) == 0 {
		return "", fmt.Errorf("encrypted value found but no age identity is configured")
	}
	plaintext, err := Decrypt(value, identities...)
	if err != nil {
		return "", err
	}
	if err := a.SetSecret(plaintext); err != nil {
		return "", fmt.Errorf("register mask: %w", err)
	}
	return plaintext, nil
}

// Export unseals value and exports it as an environment variable for the
// rest of the job.
func Export(a *core.Action, name, value string, identities ...age.Identity) error {
	plaintext, err := Unseal(a, value, identities...)
	if err != nil {
		return fmt.Errorf("unseal %s: %w", name, err)
	}
	return a.ExportVariable(name, plaintext)
}

// GenerateKeyPair creates a new X25519 identity.
func GenerateKeyPair() (*age.X25519Identity, error) {
	return age.GenerateX25519Identity()
}

// LoadIdentity reads the identities in an age key file.
func LoadIdentity(keyPath string) ([]age.Identity, error) {
	f, err := os.Open(keyPath)
	if err != nil {
		return nil, fmt.Errorf("open identity file: %w", err)
	}
	defer f.Close()
	identities, err := age.ParseIdentities(f)
	if err != nil {
		return nil, fmt.Errorf("parse identity file: %w", err)
	}
	return identities, nil
}

// IdentityFromString parses a raw AGE-SECRET-KEY-1... string.
func IdentityFromString(key string) (*age.X25519Identity, error) {
	return age.ParseX25519Identity(strings.TrimSpace(key))
}

// ResolveIdentity returns the configured identity, or (nil, nil) when none
// is configured. Lookup order: ACTIONKIT_AGE_KEY, ACTIONKIT_AGE_KEY_FILE,
// secrets.identity in v, ~/.config/actionkit/age.key.
func ResolveIdentity(v *viper.Viper) ([]age.Identity, error) {
	if raw := os.Getenv(EnvAgeKey); raw != "" {
		id, err := IdentityFromString(raw)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", EnvAgeKey, err)
		}
		return []age.Identity{id}, nil
	}

	if path := os.Getenv(EnvAgeKeyFile); path != "" {
		return LoadIdentity(path)
	}

	if path := v.GetString("secrets.identity"); path != "" {
		return LoadIdentity(expandHome(path))
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, nil
	}
	defaultPath := filepath.Join(homeDir, ".config", "actionkit", DefaultKeyFilename)
	if _, err := os.Stat(defaultPath); err != nil {
		return nil, nil
	}
	return LoadIdentity(defaultPath)
}

// DecryptViperConfig replaces every ENC[...] string in v with its plaintext.
func DecryptViperConfig(v *viper.Viper, identities []age.Identity) error {
	for _, key := range v.AllKeys() {
		val := v.GetString(key)
		if !IsEncrypted(val) {
			continue
		}
		plaintext, err := Decrypt(val, identities...)
		if err != nil {
			return fmt.Errorf("decrypt config key %q: %w", key, err)
		}
		v.Set(key, plaintext)
	}
	return nil
}

// HasEncryptedValues reports whether any string in v is ENC[...].
func HasEncryptedValues(v *viper.Viper) bool {
	for _, key := range v.AllKeys() {
		if IsEncrypted(v.GetString(key)) {
			return true
		}
	}
	return false
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(homeDir, path[1:])
}
