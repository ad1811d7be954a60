package cmd

import (
	"errors"
	"io"
	"os"

	"github.com/armctl/armctl/pkg/armclient"
	"github.com/armctl/armctl/pkg/auth"
	"github.com/armctl/armctl/pkg/config"
	"github.com/armctl/armctl/pkg/environment"
)

// broker bundles the fully wired engine for one command invocation.
type broker struct {
	registry *environment.Registry
	profile  *environment.Profile
	manager  *auth.Manager
	arm      *armclient.Client
	console  io.Writer
}

// newBroker loads user configuration, restores the environment registry and
// builds the acquisition engine on top of the current environment's sealed
// cache directory.
func newBroker(console io.Writer, useDeviceCode bool) (*broker, error) {
	configDir, err := config.GetUserConfigDir()
	if err != nil {
		return nil, err
	}

	userConfig, err := loadUserConfig()
	if err != nil {
		return nil, err
	}

	registry, err := environment.NewRegistry(configDir, userConfig)
	if err != nil {
		return nil, err
	}

	profile := registry.Current()

	cacheDir, err := registry.CacheDir()
	if err != nil {
		return nil, err
	}

	arm, err := armclient.NewClient(profile, nil)
	if err != nil {
		return nil, err
	}

	manager := auth.NewManager(
		console,
		profile,
		auth.NewSealedStorage(cacheDir),
		auth.NewAuthorityClient(console, useDeviceCode),
		arm,
		&auth.ManagerOptions{
			ResourcePolicy: resourcePolicy(userConfig),
		},
	)

	return &broker{
		registry: registry,
		profile:  profile,
		manager:  manager,
		arm:      arm,
		console:  console,
	}, nil
}

func loadUserConfig() (config.Config, error) {
	path, err := config.GetUserConfigFilePath()
	if err != nil {
		return nil, err
	}

	cfg, err := config.NewFileConfigManager(config.NewManager()).Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return config.NewEmptyConfig(), nil
	} else if err != nil {
		return nil, err
	}

	return cfg, nil
}

// resourcePolicy reads the default-resource policy from user configuration.
// Tenant identifiers default to the directory graph unless
// auth.tenantResource is set to "management".
func resourcePolicy(cfg config.Config) auth.ResourcePolicy {
	value, _ := cfg.GetString("auth.tenantResource")
	return auth.ResourcePolicy{
		TenantDefaultsToGraph: value != "management",
	}
}
