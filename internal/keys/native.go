package keys

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/pem"
	"os"
	"strings"

	"golang.org/x/crypto/ssh"

	"github.com/move-everything/installer/internal/models"
)

// writeNativeKeyPair writes an OpenSSH format ed25519 pair, matching what
// ssh-keygen -t ed25519 -N "" produces.
func writeNativeKeyPair(pair models.KeyPair, comment string) error {
	public, private, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return models.WrapError(models.KindKeygenFailed, err, "failed to generate ed25519 key")
	}

	block, err := ssh.MarshalPrivateKey(private, comment)
	if err != nil {
		return models.WrapError(models.KindKeygenFailed, err, "failed to encode private key")
	}

	sshPublic, err := ssh.NewPublicKey(public)
	if err != nil {
		return models.WrapError(models.KindKeygenFailed, err, "failed to encode public key")
	}

	authorized := strings.TrimSpace(string(ssh.MarshalAuthorizedKey(sshPublic)))
	if len(comment) > 0 {
		authorized += " " + comment
	}

	if err := os.WriteFile(pair.PrivateKeyPath, pem.EncodeToMemory(block), 0600); err != nil {
		return models.WrapError(models.KindIOError, err, "failed to write %s", pair.PrivateKeyPath)
	}
	if err := os.WriteFile(pair.PublicKeyPath, []byte(authorized+"\n"), 0644); err != nil {
		return models.WrapError(models.KindIOError, err, "failed to write %s", pair.PublicKeyPath)
	}

	return nil
}

// ReadPublicKey returns the authorized_keys form of the public half with
// the comment removed.
func ReadPublicKey(pair models.KeyPair) (string, error) {
	data, err := os.ReadFile(pair.PublicKeyPath)
	if err != nil {
		return "", models.WrapError(models.KindIOError, err, "failed to read %s", pair.PublicKeyPath)
	}

	return NormalizePublicKey(string(data))
}

// NormalizePublicKey parses an authorized_keys line and re-encodes it as
// "<type> <base64>".
func NormalizePublicKey(line string) (string, error) {
	key, _, _, _, err := ssh.ParseAuthorizedKey([]byte(strings.TrimSpace(line)))
	if err != nil {
		return "", models.WrapError(models.KindMalformedKey, err, "not a valid public key")
	}

	return strings.TrimSpace(string(ssh.MarshalAuthorizedKey(key))), nil
}

// Fingerprint returns the SHA256 fingerprint of the pair's public key
func Fingerprint(pair models.KeyPair) (string, error) {
	data, err := os.ReadFile(pair.PublicKeyPath)
	if err != nil {
		return "", models.WrapError(models.KindIOError, err, "failed to read %s", pair.PublicKeyPath)
	}
	key, _, _, _, err := ssh.ParseAuthorizedKey(data)
	if err != nil {
		return "", models.WrapError(models.KindMalformedKey, err, "not a valid public key")
	}
	return ssh.FingerprintSHA256(key), nil
}
