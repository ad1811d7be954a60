package auth

import (
	"context"
	"crypto"
	"crypto/x509"
	"fmt"
	"io"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/cloud"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
)

// TokenResult is the outcome of one authority exchange.
type TokenResult struct {
	// Token is the raw access token string.
	Token string
	// ExpiresOn is the expiry reported by the authority.
	ExpiresOn time.Time
}

// AuthorityClient performs the network round-trip against the identity
// authority for each credential flow. The acquisition engine depends on this
// interface only, so tests substitute a fake and the engine never dials out.
type AuthorityClient interface {
	// AcquireUserToken runs the interactive (or device code) user flow. An
	// empty tenantID authenticates against the home ("organizations")
	// endpoint.
	AcquireUserToken(ctx context.Context, authorityHost, tenantID, scope string) (TokenResult, error)

	// AcquireClientSecretToken runs the client-credentials flow with a
	// client secret.
	AcquireClientSecretToken(
		ctx context.Context, authorityHost, tenantID, scope, clientID, clientSecret string) (TokenResult, error)

	// AcquireClientCertificateToken runs the client-credentials flow with a
	// client certificate.
	AcquireClientCertificateToken(
		ctx context.Context,
		authorityHost, tenantID, scope, clientID string,
		certs []*x509.Certificate,
		key crypto.PrivateKey) (TokenResult, error)

	// AcquireManagedIdentityToken delegates to the platform identity
	// endpoint. clientID optionally selects a user-assigned identity.
	AcquireManagedIdentityToken(ctx context.Context, clientID, scope string) (TokenResult, error)
}

// azidentityClient is the production AuthorityClient.
type azidentityClient struct {
	out           io.Writer
	useDeviceCode bool
}

// NewAuthorityClient creates the production authority client. Device code
// prompts and other user-facing instructions are written to out.
func NewAuthorityClient(out io.Writer, useDeviceCode bool) AuthorityClient {
	return &azidentityClient{
		out:           out,
		useDeviceCode: useDeviceCode,
	}
}

func clientOptions(authorityHost string) azcore.ClientOptions {
	return azcore.ClientOptions{
		Cloud: cloud.Configuration{
			ActiveDirectoryAuthorityHost: authorityHost,
		},
	}
}

func (c *azidentityClient) AcquireUserToken(
	ctx context.Context, authorityHost, tenantID, scope string) (TokenResult, error) {
	var cred azcore.TokenCredential
	var err error

	if c.useDeviceCode {
		cred, err = azidentity.NewDeviceCodeCredential(&azidentity.DeviceCodeCredentialOptions{
			ClientOptions:              clientOptions(authorityHost),
			TenantID:                   tenantID,
			AdditionallyAllowedTenants: []string{"*"},
			UserPrompt: func(ctx context.Context, dc azidentity.DeviceCodeMessage) error {
				// Block waiting for the user to complete the flow after
				// showing them what to do next.
				fmt.Fprintln(c.out, dc.Message)
				return nil
			},
		})
	} else {
		cred, err = azidentity.NewInteractiveBrowserCredential(&azidentity.InteractiveBrowserCredentialOptions{
			ClientOptions:              clientOptions(authorityHost),
			TenantID:                   tenantID,
			AdditionallyAllowedTenants: []string{"*"},
		})
	}
	if err != nil {
		return TokenResult{}, fmt.Errorf("creating credential: %w", err)
	}

	return c.getToken(ctx, cred, scope)
}

func (c *azidentityClient) AcquireClientSecretToken(
	ctx context.Context, authorityHost, tenantID, scope, clientID, clientSecret string) (TokenResult, error) {
	cred, err := azidentity.NewClientSecretCredential(tenantID, clientID, clientSecret,
		&azidentity.ClientSecretCredentialOptions{
			ClientOptions:              clientOptions(authorityHost),
			AdditionallyAllowedTenants: []string{"*"},
		})
	if err != nil {
		return TokenResult{}, fmt.Errorf("creating credential: %w", err)
	}

	return c.getToken(ctx, cred, scope)
}

func (c *azidentityClient) AcquireClientCertificateToken(
	ctx context.Context,
	authorityHost, tenantID, scope, clientID string,
	certs []*x509.Certificate,
	key crypto.PrivateKey) (TokenResult, error) {
	cred, err := azidentity.NewClientCertificateCredential(tenantID, clientID, certs, key,
		&azidentity.ClientCertificateCredentialOptions{
			ClientOptions:              clientOptions(authorityHost),
			AdditionallyAllowedTenants: []string{"*"},
		})
	if err != nil {
		return TokenResult{}, fmt.Errorf("creating credential: %w", err)
	}

	return c.getToken(ctx, cred, scope)
}

func (c *azidentityClient) AcquireManagedIdentityToken(
	ctx context.Context, clientID, scope string) (TokenResult, error) {
	options := &azidentity.ManagedIdentityCredentialOptions{}
	if clientID != "" {
		options.ID = azidentity.ClientID(clientID)
	}

	cred, err := azidentity.NewManagedIdentityCredential(options)
	if err != nil {
		return TokenResult{}, fmt.Errorf("creating credential: %w", err)
	}

	return c.getToken(ctx, cred, scope)
}

func (c *azidentityClient) getToken(
	ctx context.Context, cred azcore.TokenCredential, scope string) (TokenResult, error) {
	tok, err := cred.GetToken(ctx, policy.TokenRequestOptions{Scopes: []string{scope}})
	if err != nil {
		return TokenResult{}, newAuthorityError(err)
	}

	return TokenResult{
		Token:     tok.Token,
		ExpiresOn: tok.ExpiresOn,
	}, nil
}

// ParseCertificates loads the certificates and private key from PEM or PKCS12
// data for the client-certificate flow.
func ParseCertificates(data []byte, password string) ([]*x509.Certificate, crypto.PrivateKey, error) {
	var pass []byte
	if password != "" {
		pass = []byte(password)
	}

	certs, key, err := azidentity.ParseCertificates(data, pass)
	if err != nil {
		return nil, nil, fmt.Errorf("parsing certificate: %w", err)
	}

	return certs, key, nil
}
