// Package armclient is a thin client over the resource manager endpoints the
// credential broker needs: tenant and subscription enumeration, and the
// unauthenticated probe that maps a subscription id to its owning tenant.
package armclient

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/arm"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/resources/armsubscriptions"
	"github.com/armctl/armctl/pkg/environment"
)

const cProbeAPIVersion = "2022-12-01"

// Tenant is one directory the current identity can access.
type Tenant struct {
	TenantID      string
	DisplayName   string
	DefaultDomain string
}

// Subscription is one subscription visible within a tenant.
type Subscription struct {
	ID          string
	DisplayName string
}

// ClientOptions controls the transports used by the client. The zero value
// uses defaults; tests substitute both for mocking.
type ClientOptions struct {
	// Transport is the transporter for authenticated SDK calls.
	Transport policy.Transporter
	// HTTPClient issues the unauthenticated tenant probe.
	HTTPClient *http.Client
}

// Client calls the resource manager of one environment.
type Client struct {
	armOptions  *arm.ClientOptions
	armEndpoint string
	httpClient  *http.Client
}

// NewClient creates a client for the given environment profile.
func NewClient(profile *environment.Profile, options *ClientOptions) (*Client, error) {
	if options == nil {
		options = &ClientOptions{}
	}

	cloudConfig, err := profile.CloudConfiguration()
	if err != nil {
		return nil, err
	}

	armEndpoint, err := profile.ResourceManagerEndpoint()
	if err != nil {
		return nil, err
	}

	httpClient := options.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	return &Client{
		armOptions: &arm.ClientOptions{
			ClientOptions: policy.ClientOptions{
				Cloud:     cloudConfig,
				Transport: options.Transport,
			},
		},
		armEndpoint: strings.TrimSuffix(armEndpoint, "/"),
		httpClient:  httpClient,
	}, nil
}

// ListTenants enumerates the tenants accessible to the credential. Tenants
// can be listed with a home-tenant token; no per-tenant token is needed.
func (c *Client) ListTenants(ctx context.Context, cred azcore.TokenCredential) ([]Tenant, error) {
	client, err := armsubscriptions.NewTenantsClient(cred, c.armOptions)
	if err != nil {
		return nil, fmt.Errorf("creating tenants client: %w", err)
	}

	tenants := []Tenant{}
	pager := client.NewListPager(nil)

	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed getting next page of tenants: %w", err)
		}

		for _, tenant := range page.TenantListResult.Value {
			if tenant == nil || tenant.TenantID == nil {
				continue
			}

			tenants = append(tenants, Tenant{
				TenantID:      *tenant.TenantID,
				DisplayName:   valueOrDefault(tenant.DisplayName, ""),
				DefaultDomain: valueOrDefault(tenant.DefaultDomain, ""),
			})
		}
	}

	sort.Slice(tenants, func(i, j int) bool {
		return tenants[i].DisplayName < tenants[j].DisplayName
	})

	return tenants, nil
}

// ListSubscriptions enumerates the subscriptions visible to the credential.
// The credential must be scoped to the tenant whose subscriptions are wanted.
func (c *Client) ListSubscriptions(ctx context.Context, cred azcore.TokenCredential) ([]Subscription, error) {
	client, err := armsubscriptions.NewClient(cred, c.armOptions)
	if err != nil {
		return nil, fmt.Errorf("creating subscriptions client: %w", err)
	}

	subscriptions := []Subscription{}
	pager := client.NewListPager(nil)

	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed getting next page of subscriptions: %w", err)
		}

		for _, sub := range page.SubscriptionListResult.Value {
			if sub == nil || sub.SubscriptionID == nil {
				continue
			}

			subscriptions = append(subscriptions, Subscription{
				ID:          *sub.SubscriptionID,
				DisplayName: valueOrDefault(sub.DisplayName, ""),
			})
		}
	}

	sort.Slice(subscriptions, func(i, j int) bool {
		return subscriptions[i].DisplayName < subscriptions[j].DisplayName
	})

	return subscriptions, nil
}

// TenantIDForSubscription discovers the tenant owning a subscription the
// local directory does not know about. An unauthenticated request to the
// resource manager is answered with a WWW-Authenticate challenge whose
// authorization_uri names the tenant's authority.
func (c *Client) TenantIDForSubscription(ctx context.Context, subscriptionID string) (string, error) {
	probeURL := fmt.Sprintf(
		"%s/subscriptions/%s?api-version=%s", c.armEndpoint, url.PathEscape(subscriptionID), cProbeAPIVersion)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, probeURL, nil)
	if err != nil {
		return "", err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("probing subscription '%s': %w", subscriptionID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		return "", fmt.Errorf(
			"unexpected status %d probing subscription '%s'", resp.StatusCode, subscriptionID)
	}

	return TenantIDFromChallenge(resp.Header.Get("WWW-Authenticate"))
}

// TenantIDFromChallenge extracts the tenant id from a WWW-Authenticate
// challenge header. The authorization_uri parameter is the tenant's authority
// URL; its last path segment is the tenant id.
func TenantIDFromChallenge(header string) (string, error) {
	const prefix = `authorization_uri="`

	start := strings.Index(header, prefix)
	if start < 0 {
		return "", fmt.Errorf("no authorization_uri in challenge %q", header)
	}

	rest := header[start+len(prefix):]
	end := strings.Index(rest, `"`)
	if end < 0 {
		return "", fmt.Errorf("unterminated authorization_uri in challenge %q", header)
	}

	authority, err := url.Parse(rest[:end])
	if err != nil {
		return "", fmt.Errorf("parsing authorization_uri: %w", err)
	}

	segments := strings.Split(strings.Trim(authority.Path, "/"), "/")
	tenantID := segments[len(segments)-1]
	if tenantID == "" {
		return "", fmt.Errorf("no tenant in authorization_uri %q", rest[:end])
	}

	return tenantID, nil
}

func valueOrDefault(v *string, def string) string {
	if v == nil {
		return def
	}
	return *v
}
