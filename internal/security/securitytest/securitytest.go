// Package securitytest provides key material and codecs for tests.
package securitytest

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"os"
	"path/filepath"
	"testing"
	"time"

	"task-manager/api/internal/security"
)

// RSAKeyPair returns a fresh PKCS8 private key and PKIX public key, PEM encoded.
func RSAKeyPair(t testing.TB) (privPEM, pubPEM []byte) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate rsa key: %v", err)
	}
	der, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		t.Fatalf("marshal private key: %v", err)
	}
	pubDER, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	if err != nil {
		t.Fatalf("marshal public key: %v", err)
	}
	return pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der}),
		pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubDER})
}

// WriteKeyPair writes a fresh key pair into dir and returns the paths.
func WriteKeyPair(t testing.TB, dir string) (privPath, pubPath string) {
	t.Helper()
	priv, pub := RSAKeyPair(t)
	privPath = filepath.Join(dir, "jwt-private.pem")
	pubPath = filepath.Join(dir, "jwt-public.pem")
	if err := os.WriteFile(privPath, priv, 0o600); err != nil {
		t.Fatalf("write private key: %v", err)
	}
	if err := os.WriteFile(pubPath, pub, 0o644); err != nil {
		t.Fatalf("write public key: %v", err)
	}
	return privPath, pubPath
}

// Codec returns an RS256 codec with the given ttl.
func Codec(t testing.TB, ttl time.Duration) *security.TokenCodec {
	t.Helper()
	priv, pub := RSAKeyPair(t)
	codec, err := security.NewTokenCodecFromPEM(priv, pub, "RS256", ttl)
	if err != nil {
		t.Fatalf("build token codec: %v", err)
	}
	return codec
}
