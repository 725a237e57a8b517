// Package auth verifies the HMAC-signed session tokens issued to the web
// client. A token is base64url(claims JSON) + "." + base64url(HMAC-SHA256),
// carrying the session id, the access tier and an expiry timestamp.
package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"arkiv/internal/config"
	"arkiv/internal/model"
)

var (
	// ErrInvalidToken covers malformed tokens, bad signatures and unknown
	// access tiers. Callers treat all of these as "not authenticated".
	ErrInvalidToken = errors.New("invalid session token")

	// ErrExpiredToken reports a well-signed token past its expiry.
	ErrExpiredToken = errors.New("expired session token")
)

type claims struct {
	SessionID string           `json:"sid"`
	Access    model.AccessTier `json:"access"`
	ExpiresAt int64            `json:"exp"`
}

// Authenticator signs and verifies session tokens with a shared secret.
type Authenticator struct {
	secret []byte
	now    func() time.Time
}

func New(cfg config.AuthConfig) (*Authenticator, error) {
	if cfg.SessionSecret == "" {
		return nil, errors.New("session secret is required")
	}
	return &Authenticator{secret: []byte(cfg.SessionSecret), now: time.Now}, nil
}

// Issue signs a token for the actor, valid for ttl from now.
func (a *Authenticator) Issue(actor model.Actor, ttl time.Duration) (string, error) {
	payload, err := json.Marshal(claims{
		SessionID: actor.SessionID,
		Access:    actor.Access,
		ExpiresAt: a.now().Add(ttl).Unix(),
	})
	if err != nil {
		return "", err
	}
	encoded := base64.RawURLEncoding.EncodeToString(payload)
	return encoded + "." + a.sign(encoded), nil
}

// Verify checks the token signature and expiry and returns the actor it
// identifies.
func (a *Authenticator) Verify(token string) (model.Actor, error) {
	encoded, sig, ok := strings.Cut(token, ".")
	if !ok || encoded == "" {
		return model.Actor{}, ErrInvalidToken
	}
	if !hmac.Equal([]byte(a.sign(encoded)), []byte(sig)) {
		return model.Actor{}, ErrInvalidToken
	}

	payload, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return model.Actor{}, ErrInvalidToken
	}
	var c claims
	if err := json.Unmarshal(payload, &c); err != nil {
		return model.Actor{}, ErrInvalidToken
	}
	if c.SessionID == "" {
		return model.Actor{}, ErrInvalidToken
	}
	if c.Access != model.TierAll && c.Access != model.TierPublic {
		return model.Actor{}, ErrInvalidToken
	}
	if a.now().Unix() >= c.ExpiresAt {
		return model.Actor{}, ErrExpiredToken
	}

	return model.Actor{SessionID: c.SessionID, Access: c.Access}, nil
}

func (a *Authenticator) sign(encoded string) string {
	mac := hmac.New(sha256.New, a.secret)
	mac.Write([]byte(encoded))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}
