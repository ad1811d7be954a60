package environment

import (
	"testing"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/cloud"
	"github.com/armctl/armctl/pkg/config"
	"github.com/stretchr/testify/require"
)

func TestEnvVarName(t *testing.T) {
	require.Equal(t, "ARMCTL_AUTHORITY_HOST", envVarName(FieldAuthorityHost))
	require.Equal(t, "ARMCTL_RESOURCE_MANAGER_RESOURCE", envVarName(FieldResourceManagerResource))
	require.Equal(t, "ARMCTL_SCM_SUFFIX", envVarName(FieldScmSuffix))
}

func TestProfileBuiltinDefaults(t *testing.T) {
	profile, err := NewDefaultProfile(ProdName)
	require.NoError(t, err)

	authority, err := profile.AuthorityHost()
	require.NoError(t, err)
	require.Equal(t, "https://login.microsoftonline.com", authority)

	armResource, err := profile.ResourceManagerResource()
	require.NoError(t, err)
	require.Equal(t, "https://management.azure.com//.default", armResource)
}

func TestProfileUnknownName(t *testing.T) {
	_, err := NewDefaultProfile("Contoso")
	require.Error(t, err)
	require.Contains(t, err.Error(), "unknown environment")
}

func TestProfileLookupOrder(t *testing.T) {
	overrides := config.NewEmptyConfig()
	require.NoError(t, overrides.Set("environment.overrides.authorityHost", "https://config.example.com"))

	profile := newProfile(ProdName, builtinDefaults[ProdName], overrides)

	// Config override beats the built-in default.
	v, err := profile.AuthorityHost()
	require.NoError(t, err)
	require.Equal(t, "https://config.example.com", v)

	// Environment variable beats both.
	t.Setenv("ARMCTL_AUTHORITY_HOST", "https://env.example.com")
	v, err = profile.AuthorityHost()
	require.NoError(t, err)
	require.Equal(t, "https://env.example.com", v)
}

func TestProfileMissingField(t *testing.T) {
	profile := newProfile("Custom", map[string]string{}, nil)

	var missing *ConfigurationMissingError
	_, err := profile.AuthorityHost()
	require.ErrorAs(t, err, &missing)
	require.Equal(t, "Custom", missing.Environment)
	require.Equal(t, FieldAuthorityHost, missing.Field)
	require.Contains(t, err.Error(), "ARMCTL_AUTHORITY_HOST")
}

func TestCloudConfiguration(t *testing.T) {
	profile, err := NewDefaultProfile(ChinaName)
	require.NoError(t, err)

	cfg, err := profile.CloudConfiguration()
	require.NoError(t, err)
	require.Equal(t, "https://login.chinacloudapi.cn", cfg.ActiveDirectoryAuthorityHost)

	arm := cfg.Services[cloud.ResourceManager]
	require.Equal(t, "https://management.chinacloudapi.cn", arm.Endpoint)

	// The audience is the resource, not the scope.
	require.Equal(t, "https://management.chinacloudapi.cn/", arm.Audience)
}

func TestNames(t *testing.T) {
	names := Names()
	require.Contains(t, names, ProdName)
	require.Contains(t, names, DogfoodName)
	require.Contains(t, names, ChinaName)
	require.Contains(t, names, USGovernmentName)
}
