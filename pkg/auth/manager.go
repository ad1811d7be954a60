// Package auth implements the credential broker core: acquiring bearer
// tokens for user, service principal, certificate and managed identities,
// caching them keyed by tenant and resource, refreshing them on expiry, and
// resolving which tenant a given identifier belongs to.
package auth

import (
	"context"
	"crypto"
	"crypto/x509"
	"fmt"
	"io"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/armctl/armctl/pkg/armclient"
	"github.com/armctl/armctl/pkg/environment"
	"github.com/benbjohnson/clock"
	"go.uber.org/multierr"
	"golang.org/x/sync/singleflight"
)

// Storage names for the persisted cache blobs.
const (
	cTokensKey  = "tokens"
	cTenantsKey = "tenants"
	cRecentKey  = "recent."
)

// DirectoryClient enumerates tenants and subscriptions for an authenticated
// identity. Implemented by armclient.Client; tests substitute a fake.
type DirectoryClient interface {
	ListTenants(ctx context.Context, cred azcore.TokenCredential) ([]armclient.Tenant, error)
	ListSubscriptions(ctx context.Context, cred azcore.TokenCredential) ([]armclient.Subscription, error)
	TenantIDForSubscription(ctx context.Context, subscriptionID string) (string, error)
}

// staticTokenCredential adapts a cached record to azcore.TokenCredential for
// SDK clients. It never refreshes; the engine owns that policy.
type staticTokenCredential struct {
	record TokenRecord
}

func (c staticTokenCredential) GetToken(
	ctx context.Context, options policy.TokenRequestOptions) (azcore.AccessToken, error) {
	return azcore.AccessToken{
		Token:     c.record.AccessToken,
		ExpiresOn: c.record.ExpiresOn,
	}, nil
}

// ManagerOptions tunes optional Manager behavior.
type ManagerOptions struct {
	// Clock supplies the current time for expiry checks. Defaults to the
	// wall clock.
	Clock clock.Clock
	// ResourcePolicy decides default resources for bare identifiers.
	ResourcePolicy ResourcePolicy
}

// Manager is the acquisition engine. It exclusively owns the in-memory caches
// for the duration of one logical operation; sealed storage is read at the
// start of an operation and written once at the end, so concurrent processes
// race at whole-snapshot granularity (last writer wins) and no process holds
// a long-lived lock.
type Manager struct {
	out       io.Writer
	profile   *environment.Profile
	storage   Cache
	authority AuthorityClient
	arm       DirectoryClient
	clock     clock.Clock
	policy    ResourcePolicy

	group    singleflight.Group
	loadOnce sync.Once

	mu      sync.Mutex
	tokens  *CredentialCache
	tenants *TenantDirectoryCache
	recent  *RecentTokens
}

// NewManager creates the acquisition engine. Login and discovery progress is
// written to out; out never affects control flow.
func NewManager(
	out io.Writer,
	profile *environment.Profile,
	storage Cache,
	authority AuthorityClient,
	arm DirectoryClient,
	options *ManagerOptions,
) *Manager {
	if options == nil {
		options = &ManagerOptions{}
	}

	clk := options.Clock
	if clk == nil {
		clk = clock.New()
	}

	return &Manager{
		out:       out,
		profile:   profile,
		storage:   storage,
		authority: authority,
		arm:       arm,
		clock:     clk,
		policy:    options.ResourcePolicy,
		tokens:    NewCredentialCache(),
		tenants:   NewTenantDirectoryCache(),
		recent:    NewRecentTokens(),
	}
}

// load reads all persisted cache state into memory, once per Manager. The
// Manager's own state stays authoritative afterwards; a fresh process builds
// a fresh Manager and re-reads the files. Missing or corrupt blobs yield
// empty caches; losing a performance cache is recoverable.
func (m *Manager) load() {
	m.loadOnce.Do(m.loadState)
}

func (m *Manager) loadState() {
	m.mu.Lock()
	defer m.mu.Unlock()

	tokens, err := m.storage.Read(cTokensKey)
	if err != nil {
		tokens = nil
	}
	m.tokens = DeserializeCredentialCache(tokens)

	tenants, err := m.storage.Read(cTenantsKey)
	if err != nil {
		tenants = nil
	}
	m.tenants = DeserializeTenantDirectoryCache(tenants)

	m.recent = NewRecentTokens()
	for _, category := range []ResourceCategory{CategoryManagement, CategoryOther} {
		data, err := m.storage.Read(cRecentKey + string(category))
		if err != nil {
			continue
		}
		m.recent.DeserializeSlot(category, data)
	}
}

// save persists all cache state in one snapshot write per blob. A canceled
// context suppresses the write entirely so cancellation never leaves partial
// state behind.
func (m *Manager) save(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	tokens, err := m.tokens.Serialize()
	if err != nil {
		return fmt.Errorf("serializing credential cache: %w", err)
	}
	if err := m.storage.Set(cTokensKey, tokens); err != nil {
		return fmt.Errorf("saving credential cache: %w", err)
	}

	tenants, err := m.tenants.Serialize()
	if err != nil {
		return fmt.Errorf("serializing tenant directory: %w", err)
	}
	if err := m.storage.Set(cTenantsKey, tenants); err != nil {
		return fmt.Errorf("saving tenant directory: %w", err)
	}

	for _, category := range []ResourceCategory{CategoryManagement, CategoryOther} {
		data, ok, err := m.recent.SerializeSlot(category)
		if err != nil {
			return fmt.Errorf("serializing recent-token slot: %w", err)
		}
		if !ok {
			continue
		}
		if err := m.storage.Set(cRecentKey+string(category), data); err != nil {
			return fmt.Errorf("saving recent-token slot: %w", err)
		}
	}

	return nil
}

func (m *Manager) armResource() (string, error) {
	return m.profile.ResourceManagerResource()
}

func (m *Manager) categoryOf(resource string) ResourceCategory {
	armRes, err := m.armResource()
	if err != nil {
		return CategoryOther
	}

	if resource == "" || canonicalResource(resource) == canonicalResource(armRes) {
		return CategoryManagement
	}
	return CategoryOther
}

func (m *Manager) newResolver() (*resolver, error) {
	armRes, err := m.armResource()
	if err != nil {
		return nil, err
	}

	graphRes, err := m.profile.GraphResource()
	if err != nil {
		return nil, err
	}

	return &resolver{
		directory:     m.tenants,
		prober:        m.arm,
		armResource:   armRes,
		graphResource: graphRes,
		policy:        m.policy,
	}, nil
}

// Token returns a usable token for the identifier (tenant id, subscription id
// or domain) and resource. An empty identifier means "whatever I used most
// recently". An empty resource selects the identifier's default resource.
func (m *Manager) Token(ctx context.Context, identifier string, resource string) (*TokenRecord, error) {
	m.load()

	if identifier == "" {
		return m.tokenFromRecent(ctx, resource)
	}

	res, err := m.resolve(ctx, identifier)
	if err != nil {
		return nil, err
	}

	scope := resource
	if scope == "" {
		scope = res.Resource
	}

	m.mu.Lock()
	record, ok := m.tokens.Get(res.TenantID, scope)
	m.mu.Unlock()

	if ok {
		return m.ensureFresh(ctx, record)
	}

	return m.acquireForTenant(ctx, res.TenantID, scope)
}

func (m *Manager) resolve(ctx context.Context, identifier string) (Resolution, error) {
	r, err := m.newResolver()
	if err != nil {
		return Resolution{}, err
	}

	return r.Resolve(ctx, identifier)
}

// tokenFromRecent serves the "next call" fast path from the recent-token
// slot, falling back to the credential cache when no slot is populated.
func (m *Manager) tokenFromRecent(ctx context.Context, resource string) (*TokenRecord, error) {
	category := m.categoryOf(resource)

	m.mu.Lock()
	record, ok := m.recent.Get(category)
	m.mu.Unlock()

	// An explicit resource must match the slotted record's audience. A slot
	// filled for some other resource in the same category falls through to
	// the exact cache lookup below.
	if ok && resource != "" && canonicalResource(record.Resource) != canonicalResource(resource) {
		ok = false
	}

	if ok {
		return m.ensureFresh(ctx, record)
	}

	lookup := resource
	if lookup == "" {
		armRes, err := m.armResource()
		if err != nil {
			return nil, err
		}
		lookup = armRes
	}

	m.mu.Lock()
	matches := m.tokens.GetAll(lookup)
	m.mu.Unlock()

	switch len(matches) {
	case 0:
		return nil, ErrNotLoggedIn
	case 1:
		return m.ensureFresh(ctx, matches[0])
	default:
		candidates := make([]string, 0, len(matches))
		for _, match := range matches {
			candidates = append(candidates, fmt.Sprintf("%s (tenant %s)", match.Subject(), match.TenantID))
		}
		return nil, &MultipleIdentitiesFoundError{Resource: lookup, Candidates: candidates}
	}
}

// ensureFresh applies the expiry policy: a token is usable iff its expiry is
// strictly in the future. An exactly-now expiry is treated as expired.
func (m *Manager) ensureFresh(ctx context.Context, record TokenRecord) (*TokenRecord, error) {
	if record.ExpiresOn.After(m.clock.Now()) {
		m.mu.Lock()
		m.recent.Put(record, m.categoryOf(record.Resource))
		m.mu.Unlock()

		if err := m.save(ctx); err != nil {
			return nil, err
		}

		return &record, nil
	}

	return m.refresh(ctx, record)
}

// refresh re-acquires an expired record. At most one authority exchange per
// (tenant, resource) key is in flight at a time; concurrent callers for the
// same key share one result.
func (m *Manager) refresh(ctx context.Context, record TokenRecord) (*TokenRecord, error) {
	v, err, _ := m.group.Do(record.Key(), func() (any, error) {
		// Another caller may have refreshed this key while we waited.
		m.mu.Lock()
		current, ok := m.tokens.Get(record.TenantID, record.Resource)
		m.mu.Unlock()

		if ok && current.ExpiresOn.After(m.clock.Now()) {
			return &current, nil
		}

		return m.reacquire(ctx, record)
	})
	if err != nil {
		return nil, err
	}

	fresh := v.(*TokenRecord)

	m.mu.Lock()
	m.recent.Put(*fresh, m.categoryOf(fresh.Resource))
	m.mu.Unlock()

	if err := m.save(ctx); err != nil {
		return nil, err
	}

	return fresh, nil
}

// reacquire runs the refresh flow for the record's identity kind. The stale
// record is removed before the exchange so a failed refresh can never be
// silently reused.
func (m *Manager) reacquire(ctx context.Context, record TokenRecord) (*TokenRecord, error) {
	authorityHost, err := m.profile.AuthorityHost()
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.tokens.Remove(record)
	m.mu.Unlock()

	scope := refreshScope(record.Resource)

	var result TokenResult
	switch record.Kind() {
	case IdentityKindUser:
		result, err = m.authority.AcquireUserToken(ctx, authorityHost, record.TenantID, scope)
	case IdentityKindAppSecret:
		result, err = m.authority.AcquireClientSecretToken(
			ctx, authorityHost, record.TenantID, scope, record.AppID, record.AppKey)
	case IdentityKindAppCertificate:
		// The private key is not retained, there is nothing to silently
		// refresh with and no human to prompt.
		return nil, &ReauthRequiredError{TenantID: record.TenantID, AppID: record.AppID}
	case IdentityKindManagedIdentity:
		result, err = m.authority.AcquireManagedIdentityToken(ctx, record.ManagedIdentityClientID, scope)
	}
	if err != nil {
		return nil, err
	}

	fresh, err := m.recordFromResult(result, scope, &record)
	if err != nil {
		return nil, err
	}

	if record.ManagedIdentity {
		m.halveLifetime(fresh)
	}

	m.mu.Lock()
	m.tokens.Put(*fresh)
	m.mu.Unlock()

	return fresh, nil
}

// acquireForTenant mints a token for a tenant and scope with no cached record
// under that key, reusing the identity of whatever is already cached for the
// tenant (or the most recent identity, for tenants seen via discovery).
func (m *Manager) acquireForTenant(ctx context.Context, tenantID string, scope string) (*TokenRecord, error) {
	v, err, _ := m.group.Do(credentialKey(tenantID, scope), func() (any, error) {
		m.mu.Lock()
		if current, ok := m.tokens.Get(tenantID, scope); ok && current.ExpiresOn.After(m.clock.Now()) {
			m.mu.Unlock()
			return &current, nil
		}

		identity, ok := m.identityForTenant(tenantID)
		m.mu.Unlock()

		if !ok {
			return nil, ErrNotLoggedIn
		}

		authorityHost, err := m.profile.AuthorityHost()
		if err != nil {
			return nil, err
		}

		var result TokenResult
		switch identity.Kind() {
		case IdentityKindUser:
			result, err = m.authority.AcquireUserToken(ctx, authorityHost, tenantID, scope)
		case IdentityKindAppSecret:
			result, err = m.authority.AcquireClientSecretToken(
				ctx, authorityHost, tenantID, scope, identity.AppID, identity.AppKey)
		case IdentityKindAppCertificate:
			return nil, &ReauthRequiredError{TenantID: tenantID, AppID: identity.AppID}
		case IdentityKindManagedIdentity:
			result, err = m.authority.AcquireManagedIdentityToken(ctx, identity.ManagedIdentityClientID, scope)
		}
		if err != nil {
			return nil, err
		}

		record, err := m.recordFromResult(result, scope, &identity)
		if err != nil {
			return nil, err
		}
		if record.TenantID == "" {
			record.TenantID = tenantID
		}

		if identity.ManagedIdentity {
			m.halveLifetime(record)
		}

		m.mu.Lock()
		m.tokens.Put(*record)
		m.mu.Unlock()

		return record, nil
	})
	if err != nil {
		return nil, err
	}

	record := v.(*TokenRecord)

	m.mu.Lock()
	m.recent.Put(*record, m.categoryOf(record.Resource))
	m.mu.Unlock()

	if err := m.save(ctx); err != nil {
		return nil, err
	}

	return record, nil
}

// identityForTenant finds a cached identity able to authenticate against the
// tenant: any record already cached for it, else the most recent management
// identity (users commonly hop tenants with the same account). Callers hold
// m.mu.
func (m *Manager) identityForTenant(tenantID string) (TokenRecord, bool) {
	for _, record := range m.tokens.All() {
		if strings.EqualFold(record.TenantID, tenantID) {
			return record, true
		}
	}

	if record, ok := m.recent.Get(CategoryManagement); ok {
		return record, true
	}

	return TokenRecord{}, false
}

// recordFromResult decodes the returned token and builds the cache record.
// The tenant, subject, resource and expiry all come from the token's own
// claims; credential material carries over from the base record so the new
// record can refresh the same way.
func (m *Manager) recordFromResult(
	result TokenResult, requestedScope string, base *TokenRecord) (*TokenRecord, error) {
	claims, err := ParseClaims(result.Token)
	if err != nil {
		return nil, err
	}

	record := newTokenRecord(result.Token, claims, requestedScope)

	if claims.ExpirationTime == 0 && !result.ExpiresOn.IsZero() {
		record.ExpiresOn = result.ExpiresOn.UTC()
	}

	if base != nil {
		record.AppKey = base.AppKey
		record.CertificateBacked = base.CertificateBacked
		record.ManagedIdentity = base.ManagedIdentity
		record.ManagedIdentityClientID = base.ManagedIdentityClientID
		if record.TenantID == "" {
			record.TenantID = base.TenantID
		}
		if base.AppID != "" && record.AppID == "" {
			record.AppID = base.AppID
			record.UserID = ""
		}
	}

	return &record, nil
}

// halveLifetime rewrites a managed-identity record's expiry to half its
// remaining lifetime. The platform endpoint manages real refresh; halving
// keeps two in-flight callers from both hitting the network right at expiry.
func (m *Manager) halveLifetime(record *TokenRecord) {
	now := m.clock.Now()
	remaining := record.ExpiresOn.Sub(now)
	if remaining <= 0 {
		return
	}
	record.ExpiresOn = now.Add(remaining / 2).UTC()
}

// LoginResult summarizes a completed login and discovery pass.
type LoginResult struct {
	Subject           string
	HomeTenantID      string
	TenantCount       int
	SubscriptionCount int
}

// LoginInteractive authenticates a user and runs the discovery pass. An empty
// tenantID authenticates against the home endpoint and discovers every
// accessible tenant; a specific tenantID pins discovery to that tenant alone.
func (m *Manager) LoginInteractive(ctx context.Context, tenantID string) (*LoginResult, error) {
	m.load()

	authorityHost, err := m.profile.AuthorityHost()
	if err != nil {
		return nil, err
	}

	armScope, err := m.armResource()
	if err != nil {
		return nil, err
	}

	// The initial "who am I" exchange is the one discovery step that is
	// allowed to fail the whole login.
	result, err := m.authority.AcquireUserToken(ctx, authorityHost, tenantID, armScope)
	if err != nil {
		return nil, err
	}

	primary, err := m.recordFromResult(result, armScope, nil)
	if err != nil {
		return nil, err
	}

	fmt.Fprintf(m.out, "logged in as %s\n", primary.Subject())

	return m.discover(ctx, *primary, tenantID, func(ctx context.Context, tid string) (TokenResult, error) {
		return m.authority.AcquireUserToken(ctx, authorityHost, tid, armScope)
	})
}

// LoginWithServicePrincipal authenticates a secret-backed service principal
// and runs the discovery pass for its tenant. The secret is retained in the
// record so later refreshes need no interaction.
func (m *Manager) LoginWithServicePrincipal(
	ctx context.Context, tenantID, clientID, clientSecret string) (*LoginResult, error) {
	m.load()

	authorityHost, err := m.profile.AuthorityHost()
	if err != nil {
		return nil, err
	}

	armScope, err := m.armResource()
	if err != nil {
		return nil, err
	}

	result, err := m.authority.AcquireClientSecretToken(ctx, authorityHost, tenantID, armScope, clientID, clientSecret)
	if err != nil {
		return nil, err
	}

	primary, err := m.recordFromResult(result, armScope, nil)
	if err != nil {
		return nil, err
	}
	primary.AppID = clientID
	primary.UserID = ""
	primary.AppKey = clientSecret
	if primary.TenantID == "" {
		primary.TenantID = tenantID
	}

	fmt.Fprintf(m.out, "logged in as service principal %s\n", clientID)

	return m.discover(ctx, *primary, tenantID, func(ctx context.Context, tid string) (TokenResult, error) {
		return m.authority.AcquireClientSecretToken(ctx, authorityHost, tid, armScope, clientID, clientSecret)
	})
}

// LoginWithClientCertificate authenticates a certificate-backed service
// principal. The certificate material is used for the discovery pass but
// never cached; once these tokens expire, only a new login helps.
func (m *Manager) LoginWithClientCertificate(
	ctx context.Context,
	tenantID, clientID string,
	certs []*x509.Certificate,
	key crypto.PrivateKey,
) (*LoginResult, error) {
	m.load()

	authorityHost, err := m.profile.AuthorityHost()
	if err != nil {
		return nil, err
	}

	armScope, err := m.armResource()
	if err != nil {
		return nil, err
	}

	result, err := m.authority.AcquireClientCertificateToken(
		ctx, authorityHost, tenantID, armScope, clientID, certs, key)
	if err != nil {
		return nil, err
	}

	primary, err := m.recordFromResult(result, armScope, nil)
	if err != nil {
		return nil, err
	}
	primary.AppID = clientID
	primary.UserID = ""
	primary.CertificateBacked = true
	if primary.TenantID == "" {
		primary.TenantID = tenantID
	}

	fmt.Fprintf(m.out, "logged in as service principal %s (certificate)\n", clientID)

	return m.discover(ctx, *primary, tenantID, func(ctx context.Context, tid string) (TokenResult, error) {
		return m.authority.AcquireClientCertificateToken(ctx, authorityHost, tid, armScope, clientID, certs, key)
	})
}

// LoginWithManagedIdentity authenticates through the platform identity
// endpoint. clientID optionally selects a user-assigned identity.
func (m *Manager) LoginWithManagedIdentity(ctx context.Context, clientID string) (*LoginResult, error) {
	m.load()

	armScope, err := m.armResource()
	if err != nil {
		return nil, err
	}

	result, err := m.authority.AcquireManagedIdentityToken(ctx, clientID, armScope)
	if err != nil {
		return nil, err
	}

	primary, err := m.recordFromResult(result, armScope, nil)
	if err != nil {
		return nil, err
	}
	primary.ManagedIdentity = true
	primary.ManagedIdentityClientID = clientID
	if primary.AppID == "" {
		primary.AppID = clientID
	}
	primary.UserID = ""
	m.halveLifetime(primary)

	fmt.Fprintf(m.out, "logged in with managed identity\n")

	return m.discover(ctx, *primary, primary.TenantID, func(ctx context.Context, tid string) (TokenResult, error) {
		return m.authority.AcquireManagedIdentityToken(ctx, clientID, armScope)
	})
}

// discover runs the tenant/subscription fan-out: enumerate tenants, acquire a
// tenant-scoped token for each, best-effort fetch directory details and
// subscriptions, then persist everything once. One tenant's failure never
// aborts the pass; only a pass in which every tenant fails is an error.
func (m *Manager) discover(
	ctx context.Context,
	primary TokenRecord,
	requestedTenant string,
	reacquire func(context.Context, string) (TokenResult, error),
) (*LoginResult, error) {
	m.mu.Lock()
	m.tokens.Put(primary)
	m.mu.Unlock()

	tenantList := m.enumerateTenants(ctx, primary, requestedTenant)

	home := primary.TenantID
	if home != "" {
		found := false
		for _, tenant := range tenantList {
			if strings.EqualFold(tenant.TenantID, home) {
				found = true
				break
			}
		}
		if !found {
			tenantList = append([]armclient.Tenant{{TenantID: home}}, tenantList...)
		}
	}

	var tenantErrors []error
	oneSuccess := false
	totalSubscriptions := 0
	var best *TokenRecord
	bestCount := -1

	for _, tenant := range tenantList {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		var record TokenRecord
		if strings.EqualFold(tenant.TenantID, home) {
			record = primary
		} else {
			result, err := reacquire(ctx, tenant.TenantID)
			if err != nil {
				tenantErrors = append(tenantErrors,
					fmt.Errorf("failed to get token for tenant '%s': %w", tenant.TenantID, err))
				continue
			}

			fresh, err := m.recordFromResult(result, refreshScope(primary.Resource), &primary)
			if err != nil {
				// A token we cannot decode skips its tenant, nothing more.
				tenantErrors = append(tenantErrors,
					fmt.Errorf("failed to decode token for tenant '%s': %w", tenant.TenantID, err))
				continue
			}
			if fresh.TenantID == "" {
				fresh.TenantID = tenant.TenantID
			}
			record = *fresh
		}

		m.mu.Lock()
		m.tokens.Put(record)
		m.mu.Unlock()

		displayName := tenant.DisplayName
		if displayName == "" {
			displayName = UnknownPlaceholder
		}
		defaultDomain := tenant.DefaultDomain
		if defaultDomain == "" {
			defaultDomain = UnknownPlaceholder
		}

		subscriptions := []SubscriptionRecord{}
		subs, err := m.arm.ListSubscriptions(ctx, staticTokenCredential{record})
		if err != nil {
			log.Printf("failed to list subscriptions for tenant '%s': %v", tenant.TenantID, err)
		} else {
			for _, sub := range subs {
				subscriptions = append(subscriptions, SubscriptionRecord{
					ID:          sub.ID,
					DisplayName: sub.DisplayName,
				})
			}
		}

		m.mu.Lock()
		m.tenants.Put(TenantRecord{
			TenantID:      record.TenantID,
			DisplayName:   displayName,
			DefaultDomain: defaultDomain,
			Subscriptions: subscriptions,
		})
		m.mu.Unlock()

		fmt.Fprintf(m.out, "  tenant %s (%s): %d subscription(s)\n",
			displayName, record.TenantID, len(subscriptions))

		oneSuccess = true
		totalSubscriptions += len(subscriptions)
		if len(subscriptions) > bestCount {
			bestCount = len(subscriptions)
			copied := record
			best = &copied
		}
	}

	if !oneSuccess && len(tenantList) > 0 {
		return nil, multierr.Combine(tenantErrors...)
	}

	// At least one tenant succeeded: log the stragglers and continue.
	for _, err := range tenantErrors {
		log.Println(err.Error())
	}

	if best != nil {
		m.mu.Lock()
		m.recent.Put(*best, m.categoryOf(best.Resource))
		m.mu.Unlock()
	}

	if err := m.save(ctx); err != nil {
		return nil, err
	}

	m.mu.Lock()
	tenantCount := len(m.tenants.All())
	m.mu.Unlock()

	return &LoginResult{
		Subject:           primary.Subject(),
		HomeTenantID:      home,
		TenantCount:       tenantCount,
		SubscriptionCount: totalSubscriptions,
	}, nil
}

// enumerateTenants lists accessible tenants, honoring a pinned tenant: when a
// specific tenant was requested, discovery never widens beyond it. A failed
// listing falls back to the home tenant alone.
func (m *Manager) enumerateTenants(
	ctx context.Context, primary TokenRecord, requestedTenant string) []armclient.Tenant {
	if requestedTenant != "" {
		pinned := armclient.Tenant{TenantID: requestedTenant}

		// Best-effort enrichment with directory details for the pinned
		// tenant; a failed listing leaves the placeholders in place.
		if listed, err := m.arm.ListTenants(ctx, staticTokenCredential{primary}); err == nil {
			for _, tenant := range listed {
				if strings.EqualFold(tenant.TenantID, requestedTenant) {
					pinned = tenant
					break
				}
			}
		} else {
			log.Printf("listing tenants: %v", err)
		}

		return []armclient.Tenant{pinned}
	}

	listed, err := m.arm.ListTenants(ctx, staticTokenCredential{primary})
	if err != nil {
		log.Printf("listing tenants: %v", err)
		return nil
	}

	return listed
}

// ListCache returns every cached token record, for display. Access tokens are
// included; callers decide what to show.
func (m *Manager) ListCache() []TokenRecord {
	m.load()

	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tokens.All()
}

// ListTenantDirectory returns the persisted tenant directory, for display.
func (m *Manager) ListTenantDirectory() []TenantRecord {
	m.load()

	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tenants.All()
}

// ClearCache deletes every persisted cache blob and resets the in-memory
// state. Used by logout and on environment switches.
func (m *Manager) ClearCache() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	names := []string{
		cTokensKey,
		cTenantsKey,
		cRecentKey + string(CategoryManagement),
		cRecentKey + string(CategoryOther),
	}

	for _, name := range names {
		if err := m.storage.Delete(name); err != nil {
			return fmt.Errorf("deleting cache blob '%s': %w", name, err)
		}
	}

	m.tokens = NewCredentialCache()
	m.tenants = NewTenantDirectoryCache()
	m.recent = NewRecentTokens()

	return nil
}

// ExpiresIn is a display helper: the remaining lifetime of a record relative
// to the engine clock, floored at zero.
func (m *Manager) ExpiresIn(record TokenRecord) time.Duration {
	remaining := record.ExpiresOn.Sub(m.clock.Now())
	if remaining < 0 {
		return 0
	}
	return remaining
}
