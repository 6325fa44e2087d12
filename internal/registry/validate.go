package registry

import (
	"fmt"
	"net/url"
	"strings"

	"meshgateway/pkg/errors"
)

// validateDocument checks the structural invariants of a parsed registry
// document. A contract identifier registered by two services is rejected here
// rather than resolved first-match: ambiguous routing must never load.
func validateDocument(doc *Document) error {
	if strings.TrimSpace(doc.Version) == "" {
		return errors.NewError(errors.ErrorTypeInvalidDocument, "version must not be empty")
	}
	if len(doc.Services) == 0 {
		return errors.NewError(errors.ErrorTypeInvalidDocument, "at least one service entry is required")
	}

	serviceNames := make(map[string]struct{}, len(doc.Services))
	contracts := make(map[string]struct{})

	for _, svc := range doc.Services {
		name := strings.TrimSpace(svc.ServiceName)
		if name == "" {
			return errors.NewError(errors.ErrorTypeInvalidDocument, "service_name must not be empty")
		}
		if _, dup := serviceNames[name]; dup {
			return errors.NewError(errors.ErrorTypeInvalidDocument,
				fmt.Sprintf("service_name %q is duplicated", name))
		}
		serviceNames[name] = struct{}{}

		base, err := url.Parse(strings.TrimSpace(svc.BaseURL))
		if err != nil {
			return errors.NewError(errors.ErrorTypeInvalidDocument,
				fmt.Sprintf("service %q base_url %q is invalid", name, svc.BaseURL)).WithCause(err)
		}
		if base.Scheme != "http" && base.Scheme != "https" {
			return errors.NewError(errors.ErrorTypeInvalidDocument,
				fmt.Sprintf("service %q base_url %q must be http or https", name, svc.BaseURL))
		}
		if base.Host == "" {
			return errors.NewError(errors.ErrorTypeInvalidDocument,
				fmt.Sprintf("service %q base_url %q must include a host", name, svc.BaseURL))
		}

		if len(svc.APIContracts) == 0 {
			return errors.NewError(errors.ErrorTypeInvalidDocument,
				fmt.Sprintf("service %q must register at least one api contract", name))
		}
		for _, contract := range svc.APIContracts {
			id := strings.TrimSpace(contract)
			if id == "" {
				return errors.NewError(errors.ErrorTypeInvalidDocument,
					fmt.Sprintf("service %q has an empty api contract entry", name))
			}
			if _, dup := contracts[id]; dup {
				return errors.NewError(errors.ErrorTypeInvalidDocument,
					fmt.Sprintf("api contract %q is registered by multiple services", id))
			}
			contracts[id] = struct{}{}
		}
	}

	if doc.PublishIngressPolicy != nil {
		if err := validatePolicy(doc.PublishIngressPolicy); err != nil {
			return err
		}
	}

	return nil
}

func validatePolicy(pol *PolicyDocument) error {
	if strings.TrimSpace(pol.PublishAPIContract) == "" {
		return errors.NewError(errors.ErrorTypeInvalidDocument,
			"publish_ingress_policy.publish_api_contract must not be empty")
	}
	if pol.DefaultMaxBodyBytes <= 0 {
		return errors.NewError(errors.ErrorTypeInvalidDocument,
			"publish_ingress_policy.default_max_body_bytes must be positive")
	}

	hopNames := make(map[string]struct{}, len(pol.RequiredHops))
	for _, hop := range pol.RequiredHops {
		name := strings.TrimSpace(hop.HopName)
		if name == "" {
			return errors.NewError(errors.ErrorTypeInvalidDocument,
				"publish_ingress_policy hop_name must not be empty")
		}
		if _, dup := hopNames[name]; dup {
			return errors.NewError(errors.ErrorTypeInvalidDocument,
				fmt.Sprintf("publish_ingress_policy hop %q is duplicated", name))
		}
		hopNames[name] = struct{}{}
		if strings.TrimSpace(hop.MaxBodyBytesEnvVar) == "" {
			return errors.NewError(errors.ErrorTypeInvalidDocument,
				fmt.Sprintf("publish_ingress_policy hop %q has no max_body_bytes_env_var", name))
		}
	}

	return nil
}
