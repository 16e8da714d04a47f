package token

import (
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
)

// ExpiryFromJWT recovers the expiry of an access token from its "exp" claim.
// The signature is not verified: the client has no key material and the
// expiry is only used to schedule a proactive refresh, never to grant
// access. Servers that omit "expires_in" from their token responses still
// issue JWTs, so this keeps the refresh scheduler informed.
func ExpiryFromJWT(rawToken string) (time.Time, error) {
	if strings.TrimSpace(rawToken) == "" {
		return time.Time{}, errors.New("[ExpiryFromJWT] empty token")
	}

	unverifiedToken, _, err := jwt.NewParser().ParseUnverified(rawToken, jwt.MapClaims{})
	if err != nil {
		return time.Time{}, errors.Wrap(err, "[ExpiryFromJWT] ParseUnverified")
	}

	claims, ok := unverifiedToken.Claims.(jwt.MapClaims)
	if !ok {
		return time.Time{}, errors.New("[ExpiryFromJWT] error extracting claims")
	}

	exp, err := claims.GetExpirationTime()
	if err != nil {
		return time.Time{}, errors.Wrap(err, "[ExpiryFromJWT] exp claim")
	}
	if exp == nil {
		return time.Time{}, errors.New("[ExpiryFromJWT] token has no exp claim")
	}

	return exp.Time, nil
}
