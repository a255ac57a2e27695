// Package auth resolves connection credentials and session passwords.
package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"

	"github.com/edulive/classroom/internal/domain"
)

// Claims is the data carried inside an access token.
type Claims struct {
	UserID string `json:"user_id"`
	Name   string `json:"name"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// Verifier turns a bearer token into an Identity. It never fails: a
// missing, expired or forged token yields the Guest identity, because the
// transport must stay open for anonymous visitors.
type Verifier struct {
	secret []byte
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

func (v *Verifier) Verify(credential string) domain.Identity {
	if credential == "" {
		return domain.Guest()
	}

	token, err := jwt.ParseWithClaims(credential, &Claims{}, func(t *jwt.Token) (any, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		log.Debug().Err(err).Str("module", "auth").Msg("token rejected, degrading to guest")
		return domain.Guest()
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || claims.UserID == "" {
		return domain.Guest()
	}

	name := claims.Name
	if name == "" {
		name = claims.UserID
	}
	return domain.Authenticated(claims.UserID, name, domain.Role(claims.Role))
}
