// Package config provides functionality related to storing application-wide
// configuration data.
//
// Configuration data is scoped to the current user and is not specific to any
// cloud environment.
package config

import (
	"strings"
)

// Config is the user configuration for the tool, stored in the user's home
// directory at ~/.armctl/config.json. Values are addressed by dotted paths,
// e.g. "environment.overrides.authorityHost".
type Config interface {
	Raw() map[string]any
	Get(path string) (any, bool)
	GetString(path string) (string, bool)
	Set(path string, value any) error
	Unset(path string) error
	IsEmpty() bool
}

// NewEmptyConfig creates an empty configuration object.
func NewEmptyConfig() Config {
	return NewConfig(nil)
}

// NewConfig creates a configuration object populated with an initial set of
// keys and values. If [data] is nil an empty configuration object is returned.
func NewConfig(data map[string]any) Config {
	if data == nil {
		data = map[string]any{}
	}

	return &config{
		data: data,
	}
}

type config struct {
	data map[string]any
}

func (c *config) IsEmpty() bool {
	return len(c.data) == 0
}

// Raw returns the values stored in the configuration as a Go map.
func (c *config) Raw() map[string]any {
	return c.data
}

// Set stores the value at the given dotted path, creating intermediate nodes
// as needed.
func (c *config) Set(path string, value any) error {
	depth := 1
	currentNode := c.data
	keys := strings.Split(path, ".")
	for _, key := range keys {
		if depth == len(keys) {
			currentNode[key] = value
			return nil
		}
		var node map[string]any
		if value, ok := currentNode[key]; ok {
			node = value.(map[string]any)
		}

		if node == nil {
			node = map[string]any{}
		}

		currentNode[key] = node
		currentNode = node
		depth++
	}

	return nil
}

// Unset removes any value stored at the given dotted path. Removing a path
// that does not exist is not an error.
func (c *config) Unset(path string) error {
	depth := 1
	currentNode := c.data
	keys := strings.Split(path, ".")
	for _, key := range keys {
		if depth == len(keys) {
			delete(currentNode, key)
			return nil
		}
		var node map[string]any
		if value, ok := currentNode[key]; ok {
			node = value.(map[string]any)
		}

		// Path already doesn't exist, NOOP
		if node == nil {
			return nil
		}

		currentNode = node
		depth++
	}

	return nil
}

// Get retrieves the value stored at the given dotted path.
func (c *config) Get(path string) (any, bool) {
	depth := 1
	currentNode := c.data
	keys := strings.Split(path, ".")
	for _, key := range keys {
		if depth == len(keys) {
			value, ok := currentNode[key]
			return value, ok
		}
		if value, ok := currentNode[key]; ok {
			node, ok := value.(map[string]any)
			if !ok {
				return nil, false
			}
			currentNode = node
		} else {
			return nil, false
		}
		depth++
	}

	return nil, false
}

// GetString retrieves the value stored at the given dotted path as a string.
func (c *config) GetString(path string) (string, bool) {
	value, ok := c.Get(path)
	if !ok {
		return "", false
	}

	str, ok := value.(string)
	return str, ok
}
