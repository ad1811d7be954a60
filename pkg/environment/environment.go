// Package environment maps named cloud environments to their service
// endpoints.
//
// Each field of a profile resolves in a fixed order: process environment
// variable, user configuration override, built-in default. A field with no
// value from any source surfaces a ConfigurationMissingError rather than an
// empty string.
package environment

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"unicode"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/cloud"
	"github.com/armctl/armctl/pkg/config"
)

// Well known environment names.
const (
	ProdName         = "Prod"
	DogfoodName      = "Dogfood"
	ChinaName        = "Mooncake"
	USGovernmentName = "Fairfax"
)

// Field names for a profile. These double as the suffix of the environment
// variable override (ARMCTL_<FIELD>) and the config override path
// (environment.overrides.<field>).
const (
	FieldAuthorityHost           = "authorityHost"
	FieldResourceManagerEndpoint = "resourceManagerEndpoint"
	FieldGraphEndpoint           = "graphEndpoint"
	FieldMicrosoftGraphEndpoint  = "microsoftGraphEndpoint"
	FieldKeyVaultResource        = "keyVaultResource"
	FieldResourceManagerResource = "resourceManagerResource"
	FieldGraphResource           = "graphResource"
	FieldAppServiceSuffix        = "appServiceSuffix"
	FieldScmSuffix               = "scmSuffix"
)

// ConfigurationMissingError indicates that a profile field has no environment
// variable override, no configuration override and no built-in default.
type ConfigurationMissingError struct {
	Environment string
	Field       string
}

func (e *ConfigurationMissingError) Error() string {
	return fmt.Sprintf(
		"no value configured for '%s' in environment '%s', set %s or add a '%s' entry under environment.overrides "+
			"in your config",
		e.Field, e.Environment, envVarName(e.Field), e.Field)
}

// Profile describes the service endpoints of one cloud environment. A profile
// is constructed once (see Registry) and is immutable for the process
// lifetime.
type Profile struct {
	Name string

	defaults  map[string]string
	overrides config.Config
}

// envVarName maps a camelCase field name to its override variable, e.g.
// "authorityHost" becomes "ARMCTL_AUTHORITY_HOST".
func envVarName(field string) string {
	var sb strings.Builder
	sb.WriteString("ARMCTL_")
	for _, r := range field {
		if r >= 'A' && r <= 'Z' {
			sb.WriteByte('_')
			sb.WriteRune(r)
		} else {
			sb.WriteRune(unicode.ToUpper(r))
		}
	}
	return sb.String()
}

// lookup resolves a single field: env var, then config override, then the
// built-in default.
func (p *Profile) lookup(field string) (string, error) {
	if v := os.Getenv(envVarName(field)); v != "" {
		return v, nil
	}

	if p.overrides != nil {
		if v, ok := p.overrides.GetString("environment.overrides." + field); ok && v != "" {
			return v, nil
		}
	}

	if v, ok := p.defaults[field]; ok && v != "" {
		return v, nil
	}

	return "", &ConfigurationMissingError{Environment: p.Name, Field: field}
}

func (p *Profile) AuthorityHost() (string, error) {
	return p.lookup(FieldAuthorityHost)
}

func (p *Profile) ResourceManagerEndpoint() (string, error) {
	return p.lookup(FieldResourceManagerEndpoint)
}

func (p *Profile) GraphEndpoint() (string, error) {
	return p.lookup(FieldGraphEndpoint)
}

func (p *Profile) MicrosoftGraphEndpoint() (string, error) {
	return p.lookup(FieldMicrosoftGraphEndpoint)
}

func (p *Profile) KeyVaultResource() (string, error) {
	return p.lookup(FieldKeyVaultResource)
}

// ResourceManagerResource is the default scope used when acquiring tokens for
// resource management operations.
func (p *Profile) ResourceManagerResource() (string, error) {
	return p.lookup(FieldResourceManagerResource)
}

// GraphResource is the default scope used when acquiring tokens for directory
// queries.
func (p *Profile) GraphResource() (string, error) {
	return p.lookup(FieldGraphResource)
}

func (p *Profile) AppServiceSuffix() (string, error) {
	return p.lookup(FieldAppServiceSuffix)
}

func (p *Profile) ScmSuffix() (string, error) {
	return p.lookup(FieldScmSuffix)
}

// CloudConfiguration builds the azcore cloud configuration for SDK clients
// operating against this environment.
func (p *Profile) CloudConfiguration() (cloud.Configuration, error) {
	authorityHost, err := p.AuthorityHost()
	if err != nil {
		return cloud.Configuration{}, err
	}

	armEndpoint, err := p.ResourceManagerEndpoint()
	if err != nil {
		return cloud.Configuration{}, err
	}

	armResource, err := p.ResourceManagerResource()
	if err != nil {
		return cloud.Configuration{}, err
	}

	return cloud.Configuration{
		ActiveDirectoryAuthorityHost: authorityHost,
		Services: map[cloud.ServiceName]cloud.ServiceConfiguration{
			cloud.ResourceManager: {
				Endpoint: armEndpoint,
				Audience: strings.TrimSuffix(armResource, "/.default"),
			},
		},
	}, nil
}

// hosts returns the set of hostnames associated with this profile, used for
// reverse lookup of a bare URL to an environment.
func (p *Profile) hosts() []string {
	hosts := []string{}
	for _, field := range []string{
		FieldAuthorityHost,
		FieldResourceManagerEndpoint,
		FieldGraphEndpoint,
		FieldMicrosoftGraphEndpoint,
	} {
		v, err := p.lookup(field)
		if err != nil {
			continue
		}
		if u, err := url.Parse(v); err == nil && u.Host != "" {
			hosts = append(hosts, strings.ToLower(u.Host))
		} else {
			hosts = append(hosts, strings.ToLower(v))
		}
	}
	return hosts
}

func newProfile(name string, defaults map[string]string, overrides config.Config) *Profile {
	return &Profile{Name: name, defaults: defaults, overrides: overrides}
}

// NewDefaultProfile returns the built-in profile for a well known environment
// name, with no configuration overrides applied.
func NewDefaultProfile(name string) (*Profile, error) {
	defaults, ok := builtinDefaults[name]
	if !ok {
		return nil, fmt.Errorf("unknown environment '%s', expected one of: %s", name, strings.Join(Names(), ", "))
	}

	return newProfile(name, defaults, nil), nil
}

var builtinDefaults = map[string]map[string]string{
	ProdName: {
		FieldAuthorityHost:           "https://login.microsoftonline.com",
		FieldResourceManagerEndpoint: "https://management.azure.com",
		FieldGraphEndpoint:           "https://graph.windows.net",
		FieldMicrosoftGraphEndpoint:  "https://graph.microsoft.com",
		FieldKeyVaultResource:        "https://vault.azure.net",
		FieldResourceManagerResource: "https://management.azure.com//.default",
		FieldGraphResource:           "https://graph.microsoft.com//.default",
		FieldAppServiceSuffix:        ".azurewebsites.net",
		FieldScmSuffix:               ".scm.azurewebsites.net",
	},
	DogfoodName: {
		FieldAuthorityHost:           "https://login.windows-ppe.net",
		FieldResourceManagerEndpoint: "https://api-dogfood.resources.windows-int.net",
		FieldGraphEndpoint:           "https://graph.ppe.windows.net",
		FieldMicrosoftGraphEndpoint:  "https://graph.microsoft-ppe.com",
		FieldKeyVaultResource:        "https://vault-int.azure-int.net",
		FieldResourceManagerResource: "https://api-dogfood.resources.windows-int.net//.default",
		FieldGraphResource:           "https://graph.ppe.windows.net//.default",
		FieldAppServiceSuffix:        ".azurewebsites-ppe.net",
		FieldScmSuffix:               ".scm.azurewebsites-ppe.net",
	},
	ChinaName: {
		FieldAuthorityHost:           "https://login.chinacloudapi.cn",
		FieldResourceManagerEndpoint: "https://management.chinacloudapi.cn",
		FieldGraphEndpoint:           "https://graph.chinacloudapi.cn",
		FieldMicrosoftGraphEndpoint:  "https://microsoftgraph.chinacloudapi.cn",
		FieldKeyVaultResource:        "https://vault.azure.cn",
		FieldResourceManagerResource: "https://management.chinacloudapi.cn//.default",
		FieldGraphResource:           "https://microsoftgraph.chinacloudapi.cn//.default",
		FieldAppServiceSuffix:        ".chinacloudsites.cn",
		FieldScmSuffix:               ".scm.chinacloudsites.cn",
	},
	USGovernmentName: {
		FieldAuthorityHost:           "https://login.microsoftonline.us",
		FieldResourceManagerEndpoint: "https://management.usgovcloudapi.net",
		FieldGraphEndpoint:           "https://graph.windows.net",
		FieldMicrosoftGraphEndpoint:  "https://graph.microsoft.us",
		FieldKeyVaultResource:        "https://vault.usgovcloudapi.net",
		FieldResourceManagerResource: "https://management.usgovcloudapi.net//.default",
		FieldGraphResource:           "https://graph.microsoft.us//.default",
		FieldAppServiceSuffix:        ".azurewebsites.us",
		FieldScmSuffix:               ".scm.azurewebsites.us",
	},
}

// Names lists the built-in environment names.
func Names() []string {
	return []string{ProdName, DogfoodName, ChinaName, USGovernmentName}
}
