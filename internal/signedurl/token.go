package signedurl

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"strings"
	"time"

	apperrors "github.com/spec-kit/commerce-desk/pkg/util"
)

// Claims is the payload carried inside a signed download token.
// Field order is part of the wire contract; do not reorder.
type Claims struct {
	FilePath string `json:"filePath"`
	UserID   string `json:"userId"`
	Exp      int64  `json:"exp"`
}

// Signer mints and verifies self-contained download tokens. Tokens are
// base64url(JSON claims) + "." + hex(HMAC-SHA256(secret, base64 part)).
type Signer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewSigner builds a Signer with the given shared secret and token lifetime.
func NewSigner(secret string, ttl time.Duration) *Signer {
	return &Signer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Sign issues a token granting userID access to filePath until the
// configured TTL elapses.
func (s *Signer) Sign(filePath, userID string) (string, error) {
	claims := Claims{
		FilePath: filePath,
		UserID:   userID,
		Exp:      s.now().Add(s.ttl).Unix(),
	}
	raw, err := json.Marshal(claims)
	if err != nil {
		return "", err
	}
	encoded := base64.RawURLEncoding.EncodeToString(raw)
	return encoded + "." + s.mac(encoded), nil
}

// Verify checks the token's signature and expiry, returning the embedded
// claims on success.
func (s *Signer) Verify(token string) (Claims, error) {
	var claims Claims
	encoded, sig, ok := strings.Cut(token, ".")
	if !ok {
		return claims, apperrors.NewUnauthorized("malformed download token")
	}
	if !hmac.Equal([]byte(s.mac(encoded)), []byte(sig)) {
		return claims, apperrors.NewUnauthorized("invalid download token signature")
	}
	raw, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return claims, apperrors.NewUnauthorized("malformed download token")
	}
	if err := json.Unmarshal(raw, &claims); err != nil {
		return claims, apperrors.NewUnauthorized("malformed download token")
	}
	if s.now().Unix() > claims.Exp {
		return Claims{}, apperrors.NewUnauthorized("download token expired")
	}
	return claims, nil
}

func (s *Signer) mac(encoded string) string {
	h := hmac.New(sha256.New, s.secret)
	h.Write([]byte(encoded))
	return hex.EncodeToString(h.Sum(nil))
}
