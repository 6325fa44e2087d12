// Package policy enforces the publish-ingress body-size contract: every
// network hop in front of the publish-creation api contract must be
// provisioned with a request-body limit at least as large as the policy's
// default. A single service runs the single-hop gate for itself at startup;
// CI runs the all-hops audit across the whole chain.
package policy

import (
	"fmt"
	"strconv"
	"strings"

	"meshgateway/internal/loader"
	"meshgateway/internal/registry"
	"meshgateway/pkg/errors"
)

// Violation describes one hop whose configured limit fails the policy
type Violation struct {
	HopName    string `json:"hop_name"`
	Product    string `json:"product"`
	EnvVar     string `json:"env_var"`
	Raw        string `json:"raw_value,omitempty"`
	Configured int64  `json:"configured_max_body_bytes"`
	Required   int64  `json:"required_policy_bytes"`
	Reason     string `json:"reason"`
}

// String renders the violation for operator-facing reports
func (v Violation) String() string {
	if v.Raw == "" {
		return fmt.Sprintf("hop %q (%s): %s is not set, policy requires at least %d bytes",
			v.HopName, v.Product, v.EnvVar, v.Required)
	}
	return fmt.Sprintf("hop %q (%s): %s=%s, %s (policy requires at least %d bytes)",
		v.HopName, v.Product, v.EnvVar, v.Raw, v.Reason, v.Required)
}

// EnsureHopLimitFromEnvironment is the startup gate a single service runs for
// its own hop: the hop's environment variable must be set, parse as an
// integer, and meet the policy's default_max_body_bytes. A policy without the
// named hop is itself a violation — it means the deployment and the policy
// document have drifted.
func EnsureHopLimitFromEnvironment(env loader.Environ, pol *registry.PolicyDocument, hopName string) error {
	if pol == nil {
		return nil
	}

	for _, hop := range pol.RequiredHops {
		if hop.HopName != hopName {
			continue
		}
		if v := checkHop(env, pol, hop); v != nil {
			return violationError(*v)
		}
		return nil
	}

	return errors.NewError(errors.ErrorTypePolicyViolation,
		fmt.Sprintf("hop %q is not declared in the publish ingress policy", hopName)).
		WithDetail("hop", hopName)
}

// EnsureAllHopsConform audits every required hop in document order,
// collecting all violations rather than stopping at the first, so a deploy
// check reports the complete set of drifted hops in one pass. The returned
// error is non-nil whenever violations exist.
func EnsureAllHopsConform(env loader.Environ, pol *registry.PolicyDocument) ([]Violation, error) {
	if pol == nil {
		return nil, nil
	}

	var violations []Violation
	for _, hop := range pol.RequiredHops {
		if v := checkHop(env, pol, hop); v != nil {
			violations = append(violations, *v)
		}
	}

	if len(violations) == 0 {
		return nil, nil
	}

	names := make([]string, len(violations))
	for i, v := range violations {
		names[i] = v.HopName
	}
	return violations, errors.NewError(errors.ErrorTypePolicyViolation,
		fmt.Sprintf("%d of %d publish ingress hops violate the body-size policy: %s",
			len(violations), len(pol.RequiredHops), strings.Join(names, ", "))).
		WithDetail("hops", names)
}

// HopLimit returns the validated byte limit configured for a hop. Callers run
// EnsureHopLimitFromEnvironment first; this re-reads for the enforcement path.
func HopLimit(env loader.Environ, pol *registry.PolicyDocument, hopName string) (int64, error) {
	if err := EnsureHopLimitFromEnvironment(env, pol, hopName); err != nil {
		return 0, err
	}
	if pol == nil {
		return 0, nil
	}
	for _, hop := range pol.RequiredHops {
		if hop.HopName == hopName {
			raw, _ := env.Lookup(hop.MaxBodyBytesEnvVar)
			limit, _ := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
			return limit, nil
		}
	}
	return 0, nil
}

func checkHop(env loader.Environ, pol *registry.PolicyDocument, hop registry.HopSpec) *Violation {
	v := Violation{
		HopName:  hop.HopName,
		Product:  hop.Product,
		EnvVar:   hop.MaxBodyBytesEnvVar,
		Required: pol.DefaultMaxBodyBytes,
	}

	raw, ok := env.Lookup(hop.MaxBodyBytesEnvVar)
	if !ok || strings.TrimSpace(raw) == "" {
		v.Reason = "environment variable is not set"
		return &v
	}
	v.Raw = raw

	limit, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		v.Reason = "value is not an integer"
		return &v
	}
	v.Configured = limit

	if limit < pol.DefaultMaxBodyBytes {
		v.Reason = fmt.Sprintf("configured limit %d is below the policy minimum", limit)
		return &v
	}

	return nil
}

func violationError(v Violation) error {
	return errors.NewError(errors.ErrorTypePolicyViolation, v.String()).
		WithDetail("hop", v.HopName).
		WithDetail("envVar", v.EnvVar).
		WithDetail("configured", v.Configured).
		WithDetail("required", v.Required)
}
