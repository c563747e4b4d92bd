package testhelpers

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/pem"
	"testing"

	"golang.org/x/crypto/ssh"
)

// GenerateKey returns a fresh unencrypted ed25519 private key in OpenSSH PEM
// form, the format users paste into the --ssh-key flag.
func GenerateKey(t *testing.T) string {
	t.Helper()

	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("Failed to generate key: %v", err)
	}
	block, err := ssh.MarshalPrivateKey(priv, "gitkey-test")
	if err != nil {
		t.Fatalf("Failed to marshal key: %v", err)
	}
	return string(pem.EncodeToMemory(block))
}
