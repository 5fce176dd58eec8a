// Package keys manages the on-disk identity artifacts a policy run
// bootstraps and consumes: the bootstrap ID, the host's own RSA key
// pair, remote peers' public keys, the random seed used to key
// generation, the policy-hub marker, and the policy-server pointer
// file.
package keys
