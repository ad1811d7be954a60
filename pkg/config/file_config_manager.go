package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/armctl/armctl/pkg/osutil"
)

// FileConfigManager provides the ability to load, parse and save configuration
// files on disk.
type FileConfigManager interface {
	// Save saves the configuration to the specified file path.
	// The parent directory is created if it does not exist.
	Save(config Config, filePath string) error

	// Load loads configuration from the specified file path.
	Load(filePath string) (Config, error)
}

// NewFileConfigManager creates a new FileConfigManager instance.
func NewFileConfigManager(configManager Manager) FileConfigManager {
	return &fileConfigManager{
		manager: configManager,
	}
}

type fileConfigManager struct {
	manager Manager
}

func (m *fileConfigManager) Load(filePath string) (Config, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed opening configuration file: %w", err)
	}

	defer file.Close()

	return m.manager.Load(file)
}

func (m *fileConfigManager) Save(c Config, filePath string) error {
	folderPath := filepath.Dir(filePath)
	if err := os.MkdirAll(folderPath, osutil.PermissionDirectoryOwnerOnly); err != nil {
		return fmt.Errorf("failed creating config directory: %w", err)
	}

	file, err := os.OpenFile(filePath, os.O_RDWR|os.O_CREATE|os.O_TRUNC, osutil.PermissionFileOwnerOnly)
	if err != nil {
		return fmt.Errorf("failed creating config file: %w", err)
	}
	defer file.Close()

	return m.manager.Save(c, file)
}
