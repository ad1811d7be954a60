package auth

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseClaimsUser(t *testing.T) {
	token := fabricateToken(t, map[string]any{
		"upn": "ella@contoso.com",
		"oid": "this-is-an-oid",
		"tid": "11111111-1111-1111-1111-111111111111",
		"aud": "https://management.core.windows.net/",
		"exp": 1700000000,
	})

	claims, err := ParseClaims(token)
	require.NoError(t, err)
	require.Equal(t, "ella@contoso.com", claims.UPN)
	require.Equal(t, "this-is-an-oid", claims.Oid)
	require.Equal(t, "11111111-1111-1111-1111-111111111111", claims.TenantID)
	require.Equal(t, "https://management.core.windows.net/", claims.Audience)
	require.Equal(t, int64(1700000000), claims.ExpirationTime)
	require.Equal(t, "ella@contoso.com", claims.DisplayID())
	require.False(t, claims.IsApp())
}

func TestParseClaimsApp(t *testing.T) {
	token := fabricateToken(t, map[string]any{
		"appid": "22222222-2222-2222-2222-222222222222",
		"tid":   "11111111-1111-1111-1111-111111111111",
		"exp":   1700000000,
	})

	claims, err := ParseClaims(token)
	require.NoError(t, err)
	require.True(t, claims.IsApp())
	require.Equal(t, "22222222-2222-2222-2222-222222222222", claims.DisplayID())
}

func TestParseClaimsPrefersUpn(t *testing.T) {
	token := fabricateToken(t, map[string]any{
		"upn":                "ella@contoso.com",
		"preferred_username": "ella@fabrikam.com",
	})

	claims, err := ParseClaims(token)
	require.NoError(t, err)
	require.Equal(t, "ella@contoso.com", claims.DisplayID())
}

func TestParseClaimsMalformed(t *testing.T) {
	var malformed *MalformedTokenError

	_, err := ParseClaims("not-a-token")
	require.Error(t, err)
	require.ErrorAs(t, err, &malformed)

	_, err = ParseClaims("a.b")
	require.Error(t, err)

	_, err = ParseClaims("!!!.!!!.!!!")
	require.Error(t, err)
}
