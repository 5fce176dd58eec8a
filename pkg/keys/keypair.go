package keys

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/hex"
	"encoding/pem"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// hostKeySize matches the teacher's node certificate key size: long
// enough for a host identity key, short enough to generate quickly.
const hostKeySize = 2048

// privateKeyPassphrase is the fixed, compiled-in passphrase the private
// key file is encrypted under, per spec.md §6.
const privateKeyPassphrase = "cfengine-ppkeys-default-passphrase"

// GenerateHostKeyPair creates a new RSA key pair and writes it to
// workdir/ppkeys/localhost.{pub,priv}, overwriting any existing pair.
// The public key is written in the clear; the private key file is
// created at mode 0600 before any content is written, then holds the
// PEM block encrypted with the compiled-in passphrase. Returns the new
// key's digest.
func GenerateHostKeyPair(workDir string) (string, error) {
	priv, err := rsa.GenerateKey(rand.Reader, hostKeySize)
	if err != nil {
		return "", fmt.Errorf("keys: generate host key: %w", err)
	}

	pubPEM := pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PUBLIC KEY",
		Bytes: x509.MarshalPKCS1PublicKey(&priv.PublicKey),
	})
	privPEM := pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(priv),
	})

	sealed, err := encryptWithPassphrase(privPEM, privateKeyPassphrase)
	if err != nil {
		return "", fmt.Errorf("keys: encrypt private key: %w", err)
	}

	pubPath := localPublicKeyPath(workDir)
	privPath := localPrivateKeyPath(workDir)
	if err := os.MkdirAll(filepath.Dir(pubPath), 0755); err != nil {
		return "", fmt.Errorf("keys: %w", err)
	}

	if err := os.WriteFile(pubPath, pubPEM, 0644); err != nil {
		return "", fmt.Errorf("keys: write %s: %w", pubPath, err)
	}

	privFile, err := os.OpenFile(privPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return "", fmt.Errorf("keys: create %s: %w", privPath, err)
	}
	defer privFile.Close()
	if _, err := privFile.Write(sealed); err != nil {
		return "", fmt.Errorf("keys: write %s: %w", privPath, err)
	}

	return Digest(&priv.PublicKey), nil
}

// LoadLocalPublicKey reads and decodes workdir/ppkeys/localhost.pub.
func LoadLocalPublicKey(workDir string) (*rsa.PublicKey, error) {
	return readPublicKeyFile(localPublicKeyPath(workDir))
}

// LoadLocalPrivateKey reads, decrypts, and decodes
// workdir/ppkeys/localhost.priv.
func LoadLocalPrivateKey(workDir string) (*rsa.PrivateKey, error) {
	path := localPrivateKeyPath(workDir)
	sealed, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("keys: read %s: %w", path, err)
	}
	privPEM, err := decryptWithPassphrase(sealed, privateKeyPassphrase)
	if err != nil {
		return nil, fmt.Errorf("keys: decrypt %s: %w", path, err)
	}
	block, _ := pem.Decode(privPEM)
	if block == nil {
		return nil, fmt.Errorf("keys: %s is not valid PEM", path)
	}
	return x509.ParsePKCS1PrivateKey(block.Bytes)
}

// SavePeerPublicKey writes a remote peer's public key to
// workdir/ppkeys/root-<digest>.pub, where digest is Digest(pub).
func SavePeerPublicKey(workDir string, pub *rsa.PublicKey) error {
	digest := Digest(pub)
	path := peerPublicKeyPath(workDir, digest)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("keys: %w", err)
	}
	pubPEM := pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PUBLIC KEY",
		Bytes: x509.MarshalPKCS1PublicKey(pub),
	})
	if err := os.WriteFile(path, pubPEM, 0644); err != nil {
		return fmt.Errorf("keys: write %s: %w", path, err)
	}
	return nil
}

// LoadPeerPublicKey reads the public key stored under the given digest.
func LoadPeerPublicKey(workDir, digest string) (*rsa.PublicKey, error) {
	return readPublicKeyFile(peerPublicKeyPath(workDir, digest))
}

func readPublicKeyFile(path string) (*rsa.PublicKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("keys: read %s: %w", path, err)
	}
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, fmt.Errorf("keys: %s is not valid PEM", path)
	}
	return x509.ParsePKCS1PublicKey(block.Bytes)
}

// Digest returns the hex SHA-256 digest of pub's DER encoding, used to
// name peer key files (root-<digest>.pub).
func Digest(pub *rsa.PublicKey) string {
	sum := sha256.Sum256(x509.MarshalPKCS1PublicKey(pub))
	return hex.EncodeToString(sum[:])
}

// encryptWithPassphrase seals plaintext with AES-256-GCM, deriving the
// key from passphrase via SHA-256 and prepending the nonce to the
// ciphertext.
func encryptWithPassphrase(plaintext []byte, passphrase string) ([]byte, error) {
	key := sha256.Sum256([]byte(passphrase))
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}
	return gcm.Seal(nonce, nonce, plaintext, nil), nil
}

func decryptWithPassphrase(sealed []byte, passphrase string) ([]byte, error) {
	key := sha256.Sum256([]byte(passphrase))
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	nonceSize := gcm.NonceSize()
	if len(sealed) < nonceSize {
		return nil, fmt.Errorf("ciphertext too short")
	}
	nonce, ciphertext := sealed[:nonceSize], sealed[nonceSize:]
	return gcm.Open(nil, nonce, ciphertext, nil)
}
