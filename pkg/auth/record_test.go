package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCredentialKey(t *testing.T) {
	// Case, the scope suffix and trailing slashes never produce distinct keys.
	base := credentialKey("11111111-1111-1111-1111-111111111111", "https://management.core.windows.net/")

	require.Equal(t, base,
		credentialKey("11111111-1111-1111-1111-111111111111", "https://management.core.windows.net//.default"))
	require.Equal(t, base,
		credentialKey("11111111-1111-1111-1111-111111111111", "https://management.core.windows.net"))
	require.Equal(t, base,
		credentialKey("11111111-1111-1111-1111-111111111111", "HTTPS://MANAGEMENT.CORE.WINDOWS.NET/"))

	require.NotEqual(t, base,
		credentialKey("22222222-2222-2222-2222-222222222222", "https://management.core.windows.net/"))
	require.NotEqual(t, base,
		credentialKey("11111111-1111-1111-1111-111111111111", "https://graph.windows.net/"))
}

func TestRefreshScope(t *testing.T) {
	require.Equal(t, "https://management.core.windows.net//.default",
		refreshScope("https://management.core.windows.net/"))
	require.Equal(t, "https://management.core.windows.net//.default",
		refreshScope("https://management.core.windows.net//.default"))
	require.Equal(t, "https://graph.windows.net/.default",
		refreshScope("https://graph.windows.net"))
}

func TestNewTokenRecord(t *testing.T) {
	claims := TokenClaims{
		UPN:            "ella@contoso.com",
		TenantID:       "11111111-1111-1111-1111-111111111111",
		Audience:       "https://management.core.windows.net/",
		ExpirationTime: 1700000000,
	}

	record := newTokenRecord("raw-token", claims, "https://management.core.windows.net//.default")

	require.Equal(t, "raw-token", record.AccessToken)
	require.Equal(t, "Bearer", record.TokenKind)
	require.Equal(t, "ella@contoso.com", record.UserID)
	require.Empty(t, record.AppID)
	require.Equal(t, "11111111-1111-1111-1111-111111111111", record.TenantID)
	require.Equal(t, "https://management.core.windows.net/", record.Resource)
	require.Equal(t, time.Unix(1700000000, 0).UTC(), record.ExpiresOn)
	require.Equal(t, IdentityKindUser, record.Kind())
	require.Equal(t, "ella@contoso.com", record.Subject())
}

func TestNewTokenRecordNoAudience(t *testing.T) {
	claims := TokenClaims{
		AppID:          "22222222-2222-2222-2222-222222222222",
		ExpirationTime: 1700000000,
	}

	record := newTokenRecord("raw-token", claims, "https://vault.azure.net/.default")

	// The requested scope stands in when the token has no audience claim.
	require.Equal(t, "https://vault.azure.net/.default", record.Resource)
	require.Equal(t, "22222222-2222-2222-2222-222222222222", record.AppID)
	require.Empty(t, record.UserID)
}

func TestIdentityKind(t *testing.T) {
	require.Equal(t, IdentityKindUser, TokenRecord{UserID: "u"}.Kind())
	require.Equal(t, IdentityKindAppSecret, TokenRecord{AppID: "a", AppKey: "s"}.Kind())
	require.Equal(t, IdentityKindAppCertificate, TokenRecord{AppID: "a", CertificateBacked: true}.Kind())
	require.Equal(t, IdentityKindManagedIdentity, TokenRecord{AppID: "a", ManagedIdentity: true}.Kind())
}
