package session

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"strings"
	"time"

	"github.com/chriswk/auth-app/pkg/kernel"
	"golang.org/x/crypto/chacha20poly1305"
)

// tokenPrefix versions the wire format so a future codec change can reject
// or migrate old tokens explicitly.
const tokenPrefix = "v1."

// Codec seals identity claims into an opaque token under a server-held
// symmetric key (XChaCha20-Poly1305). Mint and Validate are synchronous and
// CPU-bound; the codec holds no state beyond the key.
type Codec struct {
	key      []byte
	lifetime time.Duration
	now      func() time.Time
}

// NewCodec creates a codec. The key must be exactly 32 bytes; lifetime
// bounds the enforced expiry claim.
func NewCodec(key []byte, lifetime time.Duration) (*Codec, error) {
	if len(key) != chacha20poly1305.KeySize {
		return nil, ErrInvalidToken().WithDetail("reason", "key must be 32 bytes")
	}
	return &Codec{
		key:      key,
		lifetime: lifetime,
		now:      time.Now,
	}, nil
}

// Mint seals the given claims and returns the opaque token string. An empty
// clientIDs slice produces an identity-scoped, unscoped token; callers
// wanting a tenant-scoped token populate clientIDs explicitly.
func (c *Codec) Mint(email kernel.Email, clientIDs []string) (string, error) {
	if clientIDs == nil {
		clientIDs = []string{}
	}
	now := c.now()
	claims := Claims{
		Email:     email,
		ClientIDs: clientIDs,
		IssuedAt:  now.Unix(),
		ExpiresAt: now.Add(c.lifetime).Unix(),
	}

	plaintext, err := json.Marshal(claims)
	if err != nil {
		return "", ErrInvalidToken().WithCause(err)
	}

	aead, err := chacha20poly1305.NewX(c.key)
	if err != nil {
		return "", ErrInvalidToken().WithCause(err)
	}

	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", ErrInvalidToken().WithCause(err)
	}

	sealed := aead.Seal(nonce, nonce, plaintext, nil)
	return tokenPrefix + base64.RawURLEncoding.EncodeToString(sealed), nil
}

// Validate opens a token and returns its claims. It fails closed: a decode
// error, a decryption failure and a missing required claim all collapse to
// the single invalid-token outcome; an expired token is the only condition
// reported distinctly.
func (c *Codec) Validate(token string) (*Claims, error) {
	raw, ok := strings.CutPrefix(token, tokenPrefix)
	if !ok {
		return nil, ErrInvalidToken()
	}

	sealed, err := base64.RawURLEncoding.DecodeString(raw)
	if err != nil {
		return nil, ErrInvalidToken()
	}

	aead, err := chacha20poly1305.NewX(c.key)
	if err != nil {
		return nil, ErrInvalidToken()
	}
	if len(sealed) < aead.NonceSize() {
		return nil, ErrInvalidToken()
	}

	nonce, ciphertext := sealed[:aead.NonceSize()], sealed[aead.NonceSize():]
	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, ErrInvalidToken()
	}

	var claims Claims
	if err := json.Unmarshal(plaintext, &claims); err != nil {
		return nil, ErrInvalidToken()
	}
	if claims.Email.IsEmpty() || claims.ClientIDs == nil || claims.ExpiresAt == 0 {
		return nil, ErrInvalidToken()
	}
	if claims.Expired(c.now()) {
		return nil, ErrTokenExpired()
	}
	return &claims, nil
}
