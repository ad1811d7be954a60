package auth

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
)

// ErrIdentifierRequired indicates that an operation requiring a tenant,
// subscription or domain identifier was invoked without one and no recently
// used identity was available.
var ErrIdentifierRequired = errors.New("a tenant id, subscription id or domain name is required")

// ErrNotLoggedIn indicates that no usable identity is cached on this machine.
var ErrNotLoggedIn = errors.New("not logged in, run `armctl login` to log in")

// TenantNotFoundError indicates that identifier resolution exhausted every
// strategy without finding a tenant.
type TenantNotFoundError struct {
	Identifier string
}

func (e *TenantNotFoundError) Error() string {
	return fmt.Sprintf("no tenant found for '%s', run `armctl login` to refresh the tenant directory", e.Identifier)
}

// SubscriptionNotFoundError indicates that an identifier that looks like a
// subscription id could not be matched to any accessible subscription.
type SubscriptionNotFoundError struct {
	Identifier string
}

func (e *SubscriptionNotFoundError) Error() string {
	return fmt.Sprintf(
		"no subscription found for '%s'. If you recently gained access, run `armctl login` to reload subscriptions",
		e.Identifier)
}

// MultipleIdentitiesFoundError indicates that more than one cached identity
// matches a request with no disambiguating identifier. The candidates are
// enumerated so the caller can pick one explicitly.
type MultipleIdentitiesFoundError struct {
	Resource   string
	Candidates []string
}

func (e *MultipleIdentitiesFoundError) Error() string {
	return fmt.Sprintf(
		"multiple cached identities match, specify a tenant or subscription explicitly. Candidates: %s",
		strings.Join(e.Candidates, ", "))
}

// ReauthRequiredError indicates that an expired credential cannot be silently
// refreshed because no secret material is retained for it. Certificate-backed
// service principals always take this path, since the private key is never
// cached.
type ReauthRequiredError struct {
	TenantID string
	AppID    string
}

func (e *ReauthRequiredError) Error() string {
	return fmt.Sprintf(
		"the token for app '%s' in tenant '%s' has expired and cannot be refreshed without the certificate, "+
			"run `armctl spn %s %s --cert <path>` to log in again",
		e.AppID, e.TenantID, e.TenantID, e.AppID)
}

// MalformedTokenError indicates that a bearer token's claim payload could not
// be decoded.
type MalformedTokenError struct {
	innerErr error
}

func (e *MalformedTokenError) Error() string {
	return fmt.Sprintf("malformed access token: %s", e.innerErr.Error())
}

func (e *MalformedTokenError) Unwrap() error {
	return e.innerErr
}

const authFailedPrefix string = "failed to authenticate"

// An error response from the identity authority.
//
// See https://www.rfc-editor.org/rfc/rfc6749#section-5.2 for the OAuth 2.0 spec.
type AadErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
	ErrorCodes       []int  `json:"error_codes"`
	Timestamp        string `json:"timestamp"`
	TraceId          string `json:"trace_id"`
	CorrelationId    string `json:"correlation_id"`
	ErrorUri         string `json:"error_uri"`
}

// AuthorityError indicates that the identity authority rejected a token
// request. The provider's raw error text is preserved and never swallowed.
type AuthorityError struct {
	// The HTTP response motivating the error, if available
	rawResp *http.Response
	// The unmarshaled error response, if available
	parsed *AadErrorResponse

	innerErr error
}

func newAuthorityError(err error) error {
	var authFailed *azidentity.AuthenticationFailedError
	var authorityErr *AuthorityError
	var res *http.Response
	if errors.As(err, &authFailed) {
		res = authFailed.RawResponse
	} else if errors.As(err, &authorityErr) { // in case this is re-thrown
		res = authorityErr.rawResp
	}

	e := &AuthorityError{rawResp: res, innerErr: err}
	e.parseResponse()
	return e
}

func (e *AuthorityError) parseResponse() {
	if e.rawResp == nil {
		return
	}

	body, err := io.ReadAll(e.rawResp.Body)
	e.rawResp.Body.Close()
	if err != nil {
		log.Printf("error reading authority response body: %v", err)
		return
	}
	e.rawResp.Body = io.NopCloser(bytes.NewReader(body))

	var er AadErrorResponse
	if err := json.Unmarshal(body, &er); err != nil {
		log.Printf("parsing authority response body: %v", err)
		return
	}

	e.parsed = &er
}

func (e *AuthorityError) Unwrap() error {
	return e.innerErr
}

func (e *AuthorityError) Error() string {
	if e.parsed == nil { // non-http or unparsable error, append the inner error
		return fmt.Sprintf("%s: %s", authFailedPrefix, e.innerErr.Error())
	}

	// ErrorDescription contains multiline messaging that has TraceID,
	// CorrelationID and other useful information embedded in it, so no other
	// response fields need to be repeated here.
	return fmt.Sprintf(
		"%s:\n(%s) %s\n",
		authFailedPrefix,
		e.parsed.Error,
		e.parsed.ErrorDescription)
}
