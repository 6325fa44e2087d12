// Package registry holds the WorldBuilder service-mesh registry: a versioned,
// load-once mapping from api contract identifiers to backend service base
// URLs, plus the publish-ingress body-size policy sub-document. The registry
// is built during process initialization and read concurrently afterwards
// without locking; it is never mutated.
package registry

import (
	"encoding/json"
	"fmt"
	"strings"

	"meshgateway/pkg/errors"
)

// Registry is a validated registry document with a contract lookup index
type Registry struct {
	version  string
	services []ServiceEntry
	policy   *PolicyDocument

	// contract identifier -> index into services
	contractIndex map[string]int
}

// FromDocument validates a document and builds the contract index
func FromDocument(doc *Document) (*Registry, error) {
	if err := validateDocument(doc); err != nil {
		return nil, err
	}

	index := make(map[string]int)
	for i, svc := range doc.Services {
		for _, contract := range svc.APIContracts {
			index[strings.TrimSpace(contract)] = i
		}
	}

	return &Registry{
		version:       doc.Version,
		services:      doc.Services,
		policy:        doc.PublishIngressPolicy,
		contractIndex: index,
	}, nil
}

// FromJSON parses and validates a registry document from its wire form.
// A decode failure never yields a partially populated registry.
func FromJSON(data []byte) (*Registry, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, errors.NewError(errors.ErrorTypeConfiguration,
			"failed to decode registry document").WithCause(err)
	}
	return FromDocument(&doc)
}

// SingleService builds a one-entry registry document, the fallback shape used
// by local and dev processes that run without a registry source configured
func SingleService(version, serviceName, baseURL string, apiContracts []string) *Document {
	return &Document{
		Version: version,
		Services: []ServiceEntry{{
			ServiceName:  serviceName,
			BaseURL:      baseURL,
			APIContracts: apiContracts,
		}},
	}
}

// Version returns the document's audit version string
func (r *Registry) Version() string {
	return r.version
}

// Services returns the registered service entries in document order
func (r *Registry) Services() []ServiceEntry {
	return r.services
}

// Policy returns the publish-ingress policy sub-document, or nil
func (r *Registry) Policy() *PolicyDocument {
	return r.policy
}

// Document rebuilds the wire-form document for serialization
func (r *Registry) Document() *Document {
	return &Document{
		Version:              r.version,
		Services:             r.services,
		PublishIngressPolicy: r.policy,
	}
}

// ResolveContract returns the routing target for an api contract
func (r *Registry) ResolveContract(apiContract string) (ResolvedTarget, error) {
	contract := strings.TrimSpace(apiContract)
	i, ok := r.contractIndex[contract]
	if !ok {
		return ResolvedTarget{}, errors.NewError(errors.ErrorTypeUnknownContract,
			fmt.Sprintf("api contract %q is not registered", contract)).
			WithDetail("apiContract", contract)
	}
	svc := r.services[i]
	return ResolvedTarget{
		ServiceName: svc.ServiceName,
		BaseURL:     svc.BaseURL,
		APIContract: contract,
	}, nil
}

// EnsureContractsRegistered confirms every required contract is served by some
// service entry. All missing identifiers are reported together so operators
// see every gap in one pass.
func (r *Registry) EnsureContractsRegistered(required []string) error {
	var missing []string
	for _, contract := range required {
		id := strings.TrimSpace(contract)
		if id == "" {
			return errors.NewError(errors.ErrorTypeInvalidDocument,
				"required api contract list contains an empty value")
		}
		if _, ok := r.contractIndex[id]; !ok {
			missing = append(missing, id)
		}
	}

	if len(missing) == 0 {
		return nil
	}
	return errors.MissingContracts(missing)
}
