package tokenizer

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"testing"
	"time"

	"github.com/abdasg25/BioPass/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTokenizer(t *testing.T) *JWTTokenizer {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	return NewJWTTokenizer(key)
}

func TestLoginToken_RoundTrip(t *testing.T) {
	j := newTokenizer(t)

	user := &core.User{ID: "u1", Email: "alice@example.com", Username: "alice"}
	token, err := j.MintLoginToken(user)
	require.NoError(t, err)

	ident, err := j.ParseLoginToken(token)
	require.NoError(t, err)
	assert.Equal(t, "u1", ident.UserID)
	assert.Equal(t, "alice@example.com", ident.Email)
	assert.Equal(t, "alice", ident.Username)
}

func TestWebSessionToken_RoundTrip(t *testing.T) {
	j := newTokenizer(t)

	session := &core.QRSession{
		SessionKey:          "k1",
		Authenticated:       true,
		AuthenticatedUserID: "u1",
		DeviceID:            "phone-1",
	}
	token, err := j.MintWebSessionToken(session)
	require.NoError(t, err)

	ident, err := j.ParseWebSessionToken(token)
	require.NoError(t, err)
	assert.Equal(t, "u1", ident.UserID)
}

func TestMintWebSessionToken_RequiresBoundUser(t *testing.T) {
	j := newTokenizer(t)

	_, err := j.MintWebSessionToken(&core.QRSession{SessionKey: "k1"})
	assert.Error(t, err)
}

func TestParseLoginToken_RejectsWebSessionToken(t *testing.T) {
	j := newTokenizer(t)

	session := &core.QRSession{SessionKey: "k1", AuthenticatedUserID: "u1"}
	token, err := j.MintWebSessionToken(session)
	require.NoError(t, err)

	_, err = j.ParseLoginToken(token)
	assert.ErrorIs(t, err, core.ErrInvalidToken)
}

func TestParseLoginToken_RejectsForeignKey(t *testing.T) {
	a := newTokenizer(t)
	b := newTokenizer(t)

	token, err := a.MintLoginToken(&core.User{ID: "u1"})
	require.NoError(t, err)

	_, err = b.ParseLoginToken(token)
	assert.ErrorIs(t, err, core.ErrInvalidToken)
}

func TestParseLoginToken_Expired(t *testing.T) {
	j := newTokenizer(t)
	j.now = func() time.Time { return time.Now().Add(-LoginTTL - time.Minute) }

	token, err := j.MintLoginToken(&core.User{ID: "u1"})
	require.NoError(t, err)

	_, err = j.ParseLoginToken(token)
	assert.ErrorIs(t, err, core.ErrTokenExpired)
}

func TestParseLoginToken_Garbage(t *testing.T) {
	j := newTokenizer(t)

	_, err := j.ParseLoginToken("not.a.token")
	assert.ErrorIs(t, err, core.ErrInvalidToken)
}
