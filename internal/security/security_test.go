package security

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"task-manager/api/internal/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func pemPair(t *testing.T, priv crypto.Signer) (privPEM, pubPEM []byte) {
	t.Helper()
	der, err := x509.MarshalPKCS8PrivateKey(priv)
	require.NoError(t, err)
	pubDER, err := x509.MarshalPKIXPublicKey(priv.Public())
	require.NoError(t, err)
	return pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der}),
		pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubDER})
}

func rsaPair(t *testing.T) ([]byte, []byte) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	return pemPair(t, key)
}

func newRSACodec(t *testing.T, ttl time.Duration) *TokenCodec {
	t.Helper()
	priv, pub := rsaPair(t)
	codec, err := NewTokenCodecFromPEM(priv, pub, "RS256", ttl)
	require.NoError(t, err)
	return codec
}

var epoch = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func TestHasher_RoundTrip(t *testing.T) {
	h := NewHasher(4)

	hash, err := h.Hash("correct horse")
	require.NoError(t, err)

	assert.True(t, h.Verify("correct horse", hash))
	assert.False(t, h.Verify("wrong horse", hash))
}

func TestHasher_FreshSalt(t *testing.T) {
	h := NewHasher(4)

	first, err := h.Hash("same-password")
	require.NoError(t, err)
	second, err := h.Hash("same-password")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.True(t, h.Verify("same-password", first))
	assert.True(t, h.Verify("same-password", second))
}

func TestHasher_MalformedHashIsMismatch(t *testing.T) {
	h := NewHasher(4)
	assert.False(t, h.Verify("anything", "not-a-bcrypt-hash"))
	assert.False(t, h.Verify("anything", ""))
}

func TestHasher_VerifyAbsentMatchesRealWork(t *testing.T) {
	h := NewHasher(6)

	assert.False(t, h.VerifyAbsent("correct horse"))
	assert.False(t, h.VerifyAbsent(decoyPassword))

	decoy := h.decoyHash()
	cost, err := bcrypt.Cost([]byte(decoy))
	require.NoError(t, err)
	assert.Equal(t, 6, cost)
	assert.Equal(t, decoy, h.decoyHash(), "decoy hash is computed once")
}

func TestHasher_RejectsLongPassword(t *testing.T) {
	h := NewHasher(4)

	_, err := h.Hash(strings.Repeat("a", MaxPasswordBytes+1))
	require.Error(t, err)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	assert.Equal(t, "PASSWORD_TOO_LONG", apperr.Code(err))

	_, err = h.Hash(strings.Repeat("a", MaxPasswordBytes))
	assert.NoError(t, err)
}

func TestHasher_RejectsEmptyPassword(t *testing.T) {
	_, err := NewHasher(4).Hash("")
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestTokenCodec_IssueAndValidate(t *testing.T) {
	codec := newRSACodec(t, 15*time.Minute)

	token, err := codec.Issue("user-123", epoch)
	require.NoError(t, err)

	claims, err := codec.ValidateAt(token, epoch.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, "user-123", claims.Subject)
	assert.True(t, claims.IssuedAt.Equal(epoch))
	assert.True(t, claims.ExpiresAt.Equal(epoch.Add(15*time.Minute)))
}

func TestTokenCodec_ExpiryBoundary(t *testing.T) {
	ttl := 10 * time.Minute
	codec := newRSACodec(t, ttl)

	token, err := codec.Issue("user-1", epoch)
	require.NoError(t, err)

	_, err = codec.ValidateAt(token, epoch.Add(ttl-time.Second))
	assert.NoError(t, err, "one second before expiry must be valid")

	_, err = codec.ValidateAt(token, epoch.Add(ttl))
	assert.Equal(t, apperr.KindTokenExpired, apperr.KindOf(err), "exactly at expiry must be expired")

	_, err = codec.ValidateAt(token, epoch.Add(ttl+time.Hour))
	assert.Equal(t, apperr.KindTokenExpired, apperr.KindOf(err))
}

func TestTokenCodec_SubSecondIssueTime(t *testing.T) {
	codec := newRSACodec(t, time.Minute)

	token, err := codec.Issue("user-1", epoch.Add(700*time.Millisecond))
	require.NoError(t, err)

	claims, err := codec.ValidateAt(token, epoch.Add(59*time.Second))
	require.NoError(t, err)
	assert.True(t, claims.ExpiresAt.Equal(epoch.Add(time.Minute)))
}

func TestTokenCodec_TamperedToken(t *testing.T) {
	codec := newRSACodec(t, time.Minute)

	token, err := codec.Issue("user-1", epoch)
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	require.Len(t, parts, 3)
	sig := []byte(parts[2])
	if sig[0] == 'A' {
		sig[0] = 'B'
	} else {
		sig[0] = 'A'
	}
	tampered := parts[0] + "." + parts[1] + "." + string(sig)

	_, err = codec.ValidateAt(tampered, epoch)
	assert.Equal(t, apperr.KindTokenInvalid, apperr.KindOf(err))
}

func TestTokenCodec_ForeignKeyAndGarbage(t *testing.T) {
	codec := newRSACodec(t, time.Minute)
	other := newRSACodec(t, time.Minute)

	token, err := other.Issue("user-1", epoch)
	require.NoError(t, err)

	_, err = codec.ValidateAt(token, epoch)
	assert.Equal(t, apperr.KindTokenInvalid, apperr.KindOf(err))

	_, err = codec.ValidateAt("not.a.token", epoch)
	assert.Equal(t, apperr.KindTokenInvalid, apperr.KindOf(err))

	_, err = codec.ValidateAt("", epoch)
	assert.Equal(t, apperr.KindTokenInvalid, apperr.KindOf(err))
}

func TestTokenCodec_ExpiredForeignSignatureIsInvalid(t *testing.T) {
	codec := newRSACodec(t, time.Minute)
	other := newRSACodec(t, time.Minute)

	token, err := other.Issue("user-1", epoch)
	require.NoError(t, err)

	_, err = codec.ValidateAt(token, epoch.Add(time.Hour))
	assert.Equal(t, apperr.KindTokenInvalid, apperr.KindOf(err))
}

func TestTokenCodec_OtherAlgorithms(t *testing.T) {
	ecKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	_, edKey, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	cases := map[string]crypto.Signer{
		"ES256": ecKey,
		"EdDSA": edKey,
	}
	for alg, key := range cases {
		t.Run(alg, func(t *testing.T) {
			priv, pub := pemPair(t, key)
			codec, err := NewTokenCodecFromPEM(priv, pub, alg, time.Minute)
			require.NoError(t, err)
			assert.Equal(t, alg, codec.Algorithm())

			token, err := codec.Issue("user-9", epoch)
			require.NoError(t, err)
			claims, err := codec.ValidateAt(token, epoch)
			require.NoError(t, err)
			assert.Equal(t, "user-9", claims.Subject)
		})
	}
}

func TestTokenCodec_RejectsAlgorithmMismatch(t *testing.T) {
	rsaPriv, rsaPub := rsaPair(t)
	rs256, err := NewTokenCodecFromPEM(rsaPriv, rsaPub, "RS256", time.Minute)
	require.NoError(t, err)
	rs512, err := NewTokenCodecFromPEM(rsaPriv, rsaPub, "RS512", time.Minute)
	require.NoError(t, err)

	token, err := rs512.Issue("user-1", epoch)
	require.NoError(t, err)

	_, err = rs256.ValidateAt(token, epoch)
	assert.Equal(t, apperr.KindTokenInvalid, apperr.KindOf(err))
}

func TestNewTokenCodec_Config(t *testing.T) {
	priv, pub := rsaPair(t)
	dir := t.TempDir()
	privPath := filepath.Join(dir, "jwt-private.pem")
	pubPath := filepath.Join(dir, "jwt-public.pem")
	require.NoError(t, os.WriteFile(privPath, priv, 0o600))
	require.NoError(t, os.WriteFile(pubPath, pub, 0o644))

	codec, err := NewTokenCodec(TokenConfig{
		PrivateKeyPath: privPath,
		PublicKeyPath:  pubPath,
		Algorithm:      "RS256",
		TTL:            15 * time.Minute,
	})
	require.NoError(t, err)
	assert.Equal(t, 15*time.Minute, codec.TTL())

	_, err = NewTokenCodec(TokenConfig{PrivateKeyPath: filepath.Join(dir, "missing.pem"), PublicKeyPath: pubPath, Algorithm: "RS256", TTL: time.Minute})
	assert.Error(t, err)

	_, err = NewTokenCodecFromPEM(priv, pub, "HS256", time.Minute)
	assert.Error(t, err, "symmetric algorithms are refused")

	_, err = NewTokenCodecFromPEM(priv, pub, "RS256", 0)
	assert.Error(t, err)
}
