package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"arkiv/internal/config"
	"arkiv/internal/model"
)

func newTestAuthenticator(t *testing.T, secret string) *Authenticator {
	t.Helper()
	a, err := New(config.AuthConfig{SessionSecret: secret})
	require.NoError(t, err)
	return a
}

func TestNewRequiresSecret(t *testing.T) {
	_, err := New(config.AuthConfig{})
	assert.Error(t, err)
}

func TestIssueVerifyRoundTrip(t *testing.T) {
	a := newTestAuthenticator(t, "test-secret")
	actor := model.Actor{SessionID: "sess-42", Access: model.TierAll}

	token, err := a.Issue(actor, time.Hour)
	require.NoError(t, err)

	got, err := a.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, actor, got)
}

func TestVerifyExpired(t *testing.T) {
	a := newTestAuthenticator(t, "test-secret")
	a.now = func() time.Time { return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC) }

	token, err := a.Issue(model.Actor{SessionID: "s", Access: model.TierPublic}, time.Minute)
	require.NoError(t, err)

	a.now = func() time.Time { return time.Date(2026, 1, 1, 0, 2, 0, 0, time.UTC) }
	_, err = a.Verify(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestVerifyRejectsTampering(t *testing.T) {
	a := newTestAuthenticator(t, "test-secret")
	token, err := a.Issue(model.Actor{SessionID: "s", Access: model.TierPublic}, time.Hour)
	require.NoError(t, err)

	// Flip a byte in the claims half; the signature no longer matches.
	encoded, sig, _ := strings.Cut(token, ".")
	tampered := encoded[:len(encoded)-1] + "A" + "." + sig
	if tampered == token {
		tampered = encoded[:len(encoded)-1] + "B" + "." + sig
	}
	_, err = a.Verify(tampered)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	issuer := newTestAuthenticator(t, "secret-one")
	verifier := newTestAuthenticator(t, "secret-two")

	token, err := issuer.Issue(model.Actor{SessionID: "s", Access: model.TierAll}, time.Hour)
	require.NoError(t, err)

	_, err = verifier.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsGarbage(t *testing.T) {
	a := newTestAuthenticator(t, "test-secret")

	for _, token := range []string{"", "no-dot", ".", "a.b", "!!!.???"} {
		_, err := a.Verify(token)
		assert.ErrorIs(t, err, ErrInvalidToken, "token=%q", token)
	}
}

func TestVerifyRejectsUnknownTier(t *testing.T) {
	a := newTestAuthenticator(t, "test-secret")

	token, err := a.Issue(model.Actor{SessionID: "s", Access: "root"}, time.Hour)
	require.NoError(t, err)

	_, err = a.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
