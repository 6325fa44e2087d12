// Package loader resolves the service-mesh registry from one of three
// configuration sources with fixed precedence: inline JSON from the
// environment, a JSON file path from the environment, or a caller-supplied
// fallback document for local development. Resolution happens once at
// startup; there is no caching and no live reload — a new registry means a
// new process.
package loader

import (
	"fmt"
	"os"
	"strings"

	"meshgateway/internal/registry"
	"meshgateway/pkg/errors"
)

// Environment variable names are part of the deployment contract.
const (
	// EnvRegistryJSON holds the registry document inline
	EnvRegistryJSON = "WORLD_BUILDER_SERVICE_MESH_REGISTRY_JSON"
	// EnvRegistryPath holds a filesystem path to the registry document
	EnvRegistryPath = "WORLD_BUILDER_SERVICE_MESH_REGISTRY_PATH"
)

// Source is one resolved origin of the registry document
type Source interface {
	// Load reads and validates the registry from this source
	Load() (*registry.Registry, error)

	// Type returns the source type name
	Type() string
}

// InlineSource parses the registry from an inline JSON string
type InlineSource struct {
	JSON string
}

// Load implements Source
func (s InlineSource) Load() (*registry.Registry, error) {
	return registry.FromJSON([]byte(s.JSON))
}

// Type returns the source type
func (s InlineSource) Type() string { return "inline" }

// FileSource reads the registry document from a file on disk
type FileSource struct {
	Path string
}

// Load implements Source
func (s FileSource) Load() (*registry.Registry, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, errors.NewError(errors.ErrorTypeConfiguration,
			fmt.Sprintf("failed to read registry file %s", s.Path)).WithCause(err)
	}
	return registry.FromJSON(data)
}

// Type returns the source type
func (s FileSource) Type() string { return "file" }

// FallbackSource wraps a caller-supplied document, typically a single-service
// descriptor built from local configuration
type FallbackSource struct {
	Document *registry.Document
}

// Load implements Source
func (s FallbackSource) Load() (*registry.Registry, error) {
	if s.Document == nil {
		return nil, errors.NewError(errors.ErrorTypeConfiguration,
			"no registry source configured and no fallback document supplied")
	}
	return registry.FromDocument(s.Document)
}

// Type returns the source type
func (s FallbackSource) Type() string { return "fallback" }

// Resolve picks the configuration source. Precedence is fixed: inline JSON
// wins over the file path, which wins over the fallback. A variable that is
// set but blank is treated as unset.
func Resolve(env Environ, fallback *registry.Document) Source {
	if raw, ok := env.Lookup(EnvRegistryJSON); ok && strings.TrimSpace(raw) != "" {
		return InlineSource{JSON: raw}
	}
	if path, ok := env.Lookup(EnvRegistryPath); ok && strings.TrimSpace(path) != "" {
		return FileSource{Path: strings.TrimSpace(path)}
	}
	return FallbackSource{Document: fallback}
}

// Load resolves the source and loads the registry in one step
func Load(env Environ, fallback *registry.Document) (*registry.Registry, error) {
	return Resolve(env, fallback).Load()
}

// LoadFromEnvironment loads strictly from the environment, with no fallback.
// Used by deploy-time auditing, where a synthesized registry would mask a
// missing deployment.
func LoadFromEnvironment(env Environ) (*registry.Registry, error) {
	src := Resolve(env, nil)
	if _, isFallback := src.(FallbackSource); isFallback {
		return nil, errors.NewError(errors.ErrorTypeConfiguration,
			fmt.Sprintf("neither %s nor %s is set", EnvRegistryJSON, EnvRegistryPath))
	}
	return src.Load()
}
