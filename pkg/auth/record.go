package auth

import (
	"fmt"
	"strings"
	"time"
)

// IdentityKind describes how a cached token's identity authenticates, which
// in turn determines the refresh policy applied when the token expires.
type IdentityKind string

const (
	// IdentityKindUser is an interactively authenticated user.
	IdentityKindUser IdentityKind = "user"
	// IdentityKindAppSecret is a service principal with a stored client secret.
	IdentityKindAppSecret IdentityKind = "appSecret"
	// IdentityKindAppCertificate is a certificate-backed service principal.
	// The private key is never cached, so these tokens cannot be silently
	// refreshed.
	IdentityKindAppCertificate IdentityKind = "appCertificate"
	// IdentityKindManagedIdentity is a platform-assigned identity resolved by
	// the hosting platform's identity endpoint.
	IdentityKindManagedIdentity IdentityKind = "managedIdentity"
)

// TokenRecord is a resolved, usable credential. Records are immutable once
// created: a refresh removes the old record and inserts a new one under the
// same key.
type TokenRecord struct {
	AccessToken string `json:"accessToken"`
	TokenKind   string `json:"tokenKind"`

	// UserID and AppID are mutually exclusive: exactly one identifies the
	// subject.
	UserID string `json:"userId,omitempty"`
	AppID  string `json:"appId,omitempty"`

	// AppKey is the stored client secret used to silently refresh app tokens.
	// Empty for user identities, certificate-backed apps and managed
	// identities.
	AppKey string `json:"appKey,omitempty"`

	// CertificateBacked marks an app identity whose credential material is a
	// certificate and therefore cannot silently refresh.
	CertificateBacked bool `json:"certificateBacked,omitempty"`

	// ManagedIdentity marks a token issued by the platform identity endpoint.
	ManagedIdentity bool `json:"managedIdentity,omitempty"`

	// ManagedIdentityClientID is the user-assigned identity selected at login,
	// empty for a system-assigned identity. Distinct from AppID, which is
	// whatever appid claim the platform stamped into the token: a
	// system-assigned identity still carries an appid, but presenting it as a
	// client_id on refresh is rejected by some platform endpoints.
	ManagedIdentityClientID string `json:"managedIdentityClientId,omitempty"`

	TenantID string `json:"tenantId"`
	Resource string `json:"resource"`

	// ExpiresOn is an absolute UTC instant, never a duration, so it survives
	// process restarts.
	ExpiresOn time.Time `json:"expiresOn"`
}

// Kind derives the identity kind from the record's credential material.
func (r TokenRecord) Kind() IdentityKind {
	switch {
	case r.ManagedIdentity:
		return IdentityKindManagedIdentity
	case r.AppID != "" && r.CertificateBacked:
		return IdentityKindAppCertificate
	case r.AppID != "":
		return IdentityKindAppSecret
	default:
		return IdentityKindUser
	}
}

// Subject returns the display identity of the record: the user principal name
// or the app client id.
func (r TokenRecord) Subject() string {
	if r.UserID != "" {
		return r.UserID
	}
	return r.AppID
}

// Key returns the credential cache key for this record.
func (r TokenRecord) Key() string {
	return credentialKey(r.TenantID, r.Resource)
}

func credentialKey(tenantID, resource string) string {
	return fmt.Sprintf("%s::%s", strings.ToLower(tenantID), canonicalResource(resource))
}

// canonicalResource maps the several spellings of the same token audience to
// one key form: a requested scope carries a "/.default" suffix that the
// issued token's aud claim does not, and audiences come back with and without
// a trailing slash.
func canonicalResource(resource string) string {
	r := strings.ToLower(resource)
	r = strings.TrimSuffix(r, "/.default")
	return strings.TrimSuffix(r, "/")
}

// newTokenRecord builds a record from a raw token and its decoded claims. The
// tenant, subject, resource and expiry all derive from the claim payload so
// they can never disagree with the token itself. When the token carries no
// audience claim the requested scope stands in for the resource.
func newTokenRecord(rawToken string, claims TokenClaims, requestedScope string) TokenRecord {
	resource := claims.Audience
	if resource == "" {
		resource = requestedScope
	}

	record := TokenRecord{
		AccessToken: rawToken,
		TokenKind:   "Bearer",
		TenantID:    claims.TenantID,
		Resource:    resource,
		ExpiresOn:   time.Unix(claims.ExpirationTime, 0).UTC(),
	}

	if claims.IsApp() {
		record.AppID = claims.AppID
	} else {
		record.UserID = claims.DisplayID()
	}

	return record
}

// refreshScope returns the scope to request when re-acquiring a token for the
// record's resource.
func refreshScope(resource string) string {
	if strings.Contains(resource, "/.default") {
		return resource
	}
	return strings.TrimSuffix(resource, "/") + "/.default"
}
