package keys

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// bootstrapIDBytes is 240 random bits: divisible by 6, so its base64
// encoding needs no padding.
const bootstrapIDBytes = 240 / 8

// BootstrapIDLength is the fixed length of an encoded bootstrap ID.
const BootstrapIDLength = 4 * (bootstrapIDBytes / 3)

// CreateBootstrapID writes a freshly generated bootstrap ID to
// workdir/bootstrap_id.dat and returns it.
func CreateBootstrapID(workDir string) (string, error) {
	buf := make([]byte, bootstrapIDBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("keys: generate bootstrap id: %w", err)
	}
	id := base64.RawStdEncoding.EncodeToString(buf)

	path := bootstrapIDPath(workDir)
	if err := os.MkdirAll(workDir, 0755); err != nil {
		return "", fmt.Errorf("keys: %w", err)
	}
	if err := os.WriteFile(path, []byte(id+"\n"), 0644); err != nil {
		return "", fmt.Errorf("keys: write %s: %w", path, err)
	}
	return id, nil
}

// ReadBootstrapID reads the bootstrap ID written by CreateBootstrapID.
// A missing file is not an error: it reports ("", nil), matching the
// "not having a bootstrap id file is considered normal" convention.
func ReadBootstrapID(workDir string) (string, error) {
	path := bootstrapIDPath(workDir)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("keys: read %s: %w", path, err)
	}

	id := strings.TrimRight(string(data), "\n")
	if len(id) != BootstrapIDLength {
		return "", fmt.Errorf("keys: %s contains invalid data: %q", path, id)
	}
	return id, nil
}

// IsPolicyHub reports whether workdir/state/am_policy_hub exists.
func IsPolicyHub(workDir string) bool {
	_, err := os.Stat(amPolicyHubPath(workDir))
	return err == nil
}

// SetPolicyHub creates or removes the am_policy_hub marker file.
func SetPolicyHub(workDir string, isHub bool) error {
	path := amPolicyHubPath(workDir)
	if !isHub {
		err := os.Remove(path)
		if err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("keys: remove %s: %w", path, err)
		}
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("keys: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("keys: create %s: %w", path, err)
	}
	return f.Close()
}
