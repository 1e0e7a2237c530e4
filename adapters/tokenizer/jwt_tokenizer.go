package tokenizer

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"time"

	"github.com/abdasg25/BioPass/core"
	"github.com/golang-jwt/jwt/v5"
)

const AudienceWebSession = "session:web"
const AudienceLogin = "session:login"

// WebSessionTTL bounds the token handed to the polling browser.
const WebSessionTTL = 15 * time.Minute

// LoginTTL bounds the bearer token issued on signup/login.
const LoginTTL = 7 * 24 * time.Hour

// JWTTokenizer implements the Tokenizer interface using JWT
type JWTTokenizer struct {
	signKey *ecdsa.PrivateKey
	now     func() time.Time
}

// NewJWTTokenizer creates a new JWT tokenizer
func NewJWTTokenizer(signKey *ecdsa.PrivateKey) *JWTTokenizer {
	return &JWTTokenizer{signKey: signKey, now: time.Now}
}

// MintWebSessionToken issues the short-lived token for an authenticated QR
// session. The session must already carry the bound user id.
func (j *JWTTokenizer) MintWebSessionToken(session *core.QRSession) (string, error) {
	if session.AuthenticatedUserID == "" {
		return "", fmt.Errorf("session has no authenticated user")
	}

	now := j.now()
	claims := WebSessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   session.AuthenticatedUserID,
			ID:        session.SessionKey,
			ExpiresAt: jwt.NewNumericDate(now.Add(WebSessionTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			Audience:  jwt.ClaimStrings{AudienceWebSession},
		},
		Web:      true,
		DeviceID: session.DeviceID,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodES256, claims)

	signedToken, err := token.SignedString(j.signKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign web session token: %w", err)
	}

	return signedToken, nil
}

// MintLoginToken issues the long-lived bearer token for an account.
func (j *JWTTokenizer) MintLoginToken(user *core.User) (string, error) {
	now := j.now()
	claims := LoginClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			ExpiresAt: jwt.NewNumericDate(now.Add(LoginTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			Audience:  jwt.ClaimStrings{AudienceLogin},
		},
		Email:    user.Email,
		Username: user.Username,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodES256, claims)

	signedToken, err := token.SignedString(j.signKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign login token: %w", err)
	}

	return signedToken, nil
}

// ParseLoginToken validates a login token and returns the identity it carries.
func (j *JWTTokenizer) ParseLoginToken(tokenStr string) (*core.Identity, error) {
	claims := &LoginClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, j.keyFunc, jwt.WithAudience(AudienceLogin))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, core.ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", core.ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, core.ErrInvalidToken
	}

	return &core.Identity{
		UserID:   claims.Subject,
		Email:    claims.Email,
		Username: claims.Username,
	}, nil
}

// ParseWebSessionToken validates a web session token and returns the bound
// user identity.
func (j *JWTTokenizer) ParseWebSessionToken(tokenStr string) (*core.Identity, error) {
	claims := &WebSessionClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, j.keyFunc, jwt.WithAudience(AudienceWebSession))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, core.ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", core.ErrInvalidToken, err)
	}
	if !token.Valid || !claims.Web {
		return nil, core.ErrInvalidToken
	}

	return &core.Identity{UserID: claims.Subject}, nil
}

func (j *JWTTokenizer) keyFunc(token *jwt.Token) (interface{}, error) {
	// Validate the signing method
	if _, ok := token.Method.(*jwt.SigningMethodECDSA); !ok {
		return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
	}
	return &j.signKey.PublicKey, nil
}
