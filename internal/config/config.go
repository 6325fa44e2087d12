// Package config holds the gateway process's local configuration: where to
// listen, which publish-ingress hop this process is, and the single-service
// descriptor used as the registry fallback when no registry source is set in
// the environment.
package config

import "meshgateway/internal/registry"

// Config is the top-level local configuration
type Config struct {
	Gateway Gateway `yaml:"gateway"`
}

// Gateway configures the mesh gateway process
type Gateway struct {
	Listen Listen `yaml:"listen"`

	// Hop is this process's hop name in the publish ingress policy
	Hop string `yaml:"hop"`

	// Service is the local fallback service descriptor
	Service Service `yaml:"service"`
}

// Listen configures the HTTP listener
type Listen struct {
	Host         string `yaml:"host"`
	Port         int    `yaml:"port"`
	ReadTimeout  int    `yaml:"readTimeout"`
	WriteTimeout int    `yaml:"writeTimeout"`
}

// Service describes the single local backend used when the process runs
// without a registry source configured
type Service struct {
	RegistryVersion string   `yaml:"registryVersion"`
	Name            string   `yaml:"name"`
	BaseURL         string   `yaml:"baseUrl"`
	APIContracts    []string `yaml:"apiContracts"`
}

// FallbackDocument builds the single-service registry document handed to the
// loader as the last-resort source
func (c *Config) FallbackDocument() *registry.Document {
	version := c.Gateway.Service.RegistryVersion
	if version == "" {
		version = "local"
	}
	contracts := c.Gateway.Service.APIContracts
	if len(contracts) == 0 {
		contracts = registry.GatewayAPIContracts
	}
	return registry.SingleService(version, c.Gateway.Service.Name, c.Gateway.Service.BaseURL, contracts)
}
