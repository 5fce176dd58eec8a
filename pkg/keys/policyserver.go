package keys

import (
	"fmt"
	"os"
	"strings"
)

// ReadPolicyServer reads workdir/policy_server.dat, trimming surrounding
// whitespace. A missing file reports ("", nil).
func ReadPolicyServer(workDir string) (string, error) {
	path := policyServerPath(workDir)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("keys: read %s: %w", path, err)
	}
	return strings.TrimSpace(string(data)), nil
}

// WritePolicyServer writes hostPort to workdir/policy_server.dat,
// emitting a trailing newline.
func WritePolicyServer(workDir, hostPort string) error {
	path := policyServerPath(workDir)
	if err := os.MkdirAll(workDir, 0755); err != nil {
		return fmt.Errorf("keys: %w", err)
	}
	if err := os.WriteFile(path, []byte(hostPort+"\n"), 0644); err != nil {
		return fmt.Errorf("keys: write %s: %w", path, err)
	}
	return nil
}
