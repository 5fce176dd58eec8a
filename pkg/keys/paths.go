package keys

import "path/filepath"

func bootstrapIDPath(workDir string) string { return filepath.Join(workDir, "bootstrap_id.dat") }

func policyServerPath(workDir string) string { return filepath.Join(workDir, "policy_server.dat") }

func amPolicyHubPath(workDir string) string {
	return filepath.Join(workDir, "state", "am_policy_hub")
}

func randSeedPath(workDir string) string { return filepath.Join(workDir, "state", "randseed") }

func localPublicKeyPath(workDir string) string {
	return filepath.Join(workDir, "ppkeys", "localhost.pub")
}

func localPrivateKeyPath(workDir string) string {
	return filepath.Join(workDir, "ppkeys", "localhost.priv")
}

func peerPublicKeyPath(workDir, digest string) string {
	return filepath.Join(workDir, "ppkeys", "root-"+digest+".pub")
}
