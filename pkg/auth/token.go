package auth

import (
	"github.com/golang-jwt/jwt/v5"
)

// TokenClaims is the decoded claim payload of a bearer token.
//
// The broker is a consumer of tokens, not a validator: the signature is never
// checked here, only the payload is read. Validation is the job of the
// service the token is presented to.
type TokenClaims struct {
	PreferredUsername string
	UPN               string
	Oid               string
	Subject           string
	TenantID          string
	AppID             string
	Audience          string
	Issuer            string
	ExpirationTime    int64
	IssuedAt          int64
}

// DisplayID returns the human identity of the token's subject: the user
// principal name for a user token, the client id for an app token.
func (c TokenClaims) DisplayID() string {
	if upn := c.userPrincipalName(); upn != "" {
		return upn
	}
	return c.AppID
}

// IsApp reports whether the token was issued to an application identity
// rather than a user.
func (c TokenClaims) IsApp() bool {
	return c.userPrincipalName() == "" && c.AppID != ""
}

func (c TokenClaims) userPrincipalName() string {
	if c.UPN != "" {
		return c.UPN
	}
	return c.PreferredUsername
}

// ParseClaims extracts claims from an access token. Access tokens are JWTs
// and the middle segment is a base64 encoded JSON object with claims. The
// signature is not verified.
func ParseClaims(rawToken string) (TokenClaims, error) {
	mapClaims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(rawToken, mapClaims); err != nil {
		return TokenClaims{}, &MalformedTokenError{innerErr: err}
	}

	claims := TokenClaims{
		PreferredUsername: stringClaim(mapClaims, "preferred_username"),
		UPN:               stringClaim(mapClaims, "upn"),
		Oid:               stringClaim(mapClaims, "oid"),
		Subject:           stringClaim(mapClaims, "sub"),
		TenantID:          stringClaim(mapClaims, "tid"),
		AppID:             stringClaim(mapClaims, "appid"),
		Issuer:            stringClaim(mapClaims, "iss"),
	}

	if aud, err := mapClaims.GetAudience(); err == nil && len(aud) > 0 {
		claims.Audience = aud[0]
	}

	if exp, err := mapClaims.GetExpirationTime(); err == nil && exp != nil {
		claims.ExpirationTime = exp.Unix()
	}

	if iat, err := mapClaims.GetIssuedAt(); err == nil && iat != nil {
		claims.IssuedAt = iat.Unix()
	}

	return claims, nil
}

func stringClaim(claims jwt.MapClaims, name string) string {
	if v, ok := claims[name].(string); ok {
		return v
	}
	return ""
}
