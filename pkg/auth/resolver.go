package auth

import (
	"context"
	"log"

	"github.com/google/uuid"
)

// subscriptionProber maps a subscription id the local directory does not know
// about to its owning tenant, via the resource manager's authentication
// challenge.
type subscriptionProber interface {
	TenantIDForSubscription(ctx context.Context, subscriptionID string) (string, error)
}

// ResourcePolicy decides which resource a bare identifier defaults to. The
// conventional reading is asymmetric: "give me a token for tenant X" means
// "let me query its directory" while "give me a token for subscription Y"
// means "let me manage its resources".
type ResourcePolicy struct {
	// TenantDefaultsToGraph selects the directory-graph scope as the default
	// resource when the identifier names a tenant. When false, the management
	// resource is the default for every identifier.
	TenantDefaultsToGraph bool
}

// Resolution is the outcome of resolving a user-supplied identifier.
type Resolution struct {
	TenantID string
	// Resource is the default resource for this identifier; callers may
	// override it.
	Resource string
	// SubscriptionID is set when the identifier named a subscription rather
	// than a tenant.
	SubscriptionID string
}

type resolver struct {
	directory     *TenantDirectoryCache
	prober        subscriptionProber
	armResource   string
	graphResource string
	policy        ResourcePolicy
}

// Resolve determines whether an identifier denotes a tenant or a subscription
// and which tenant the caller needs a token for.
func (r *resolver) Resolve(ctx context.Context, identifier string) (Resolution, error) {
	if identifier == "" {
		return Resolution{}, ErrIdentifierRequired
	}

	// A known tenant id or domain resolves directly.
	if record, ok := r.directory.Get(identifier); ok {
		resource := r.armResource
		if r.policy.TenantDefaultsToGraph {
			resource = r.graphResource
		}

		return Resolution{TenantID: record.TenantID, Resource: resource}, nil
	}

	// A subscription resolves to its owning tenant, never to itself.
	if tenant, sub, ok := r.directory.FindSubscription(identifier); ok {
		return Resolution{
			TenantID:       tenant.TenantID,
			Resource:       r.armResource,
			SubscriptionID: sub.ID,
		}, nil
	}

	if _, err := uuid.Parse(identifier); err != nil {
		return Resolution{}, &TenantNotFoundError{Identifier: identifier}
	}

	// A GUID the directory has never seen may still be a reachable
	// subscription; the resource manager's challenge names its tenant.
	if r.prober != nil {
		tenantID, err := r.prober.TenantIDForSubscription(ctx, identifier)
		if err == nil {
			return Resolution{
				TenantID:       tenantID,
				Resource:       r.armResource,
				SubscriptionID: identifier,
			}, nil
		}

		log.Printf("tenant probe for '%s' failed: %v", identifier, err)
	}

	return Resolution{}, &SubscriptionNotFoundError{Identifier: identifier}
}
