// Command meshcheck audits a deployed WorldBuilder service mesh at CI or
// deploy time: it loads the registry from the environment, verifies that
// every required api contract is routable, and checks every publish-ingress
// hop's configured body limit against the policy minimum. All drift is
// reported in one pass; any drift exits non-zero.
//
// Usage:
//
//	meshcheck [--contracts id,id,...] [--json]
//
// The registry comes from WORLD_BUILDER_SERVICE_MESH_REGISTRY_JSON or
// WORLD_BUILDER_SERVICE_MESH_REGISTRY_PATH; there is no local fallback here,
// because a synthesized registry would mask a broken deployment.
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/fatih/color"
	flag "github.com/spf13/pflag"

	"meshgateway/internal/loader"
	"meshgateway/internal/policy"
	"meshgateway/internal/registry"
	"meshgateway/pkg/errors"
)

var (
	requiredContracts = flag.StringSlice("contracts", registry.GatewayAPIContracts,
		"api contracts the registry must serve")
	jsonOutput = flag.Bool("json", false, "emit the report as JSON (for CI pipelines)")
)

// report is the machine-readable audit result
type report struct {
	RegistryVersion  string             `json:"registry_version,omitempty"`
	LoadError        string             `json:"load_error,omitempty"`
	MissingContracts []string           `json:"missing_contracts,omitempty"`
	HopViolations    []policy.Violation `json:"hop_violations,omitempty"`
	OK               bool               `json:"ok"`
}

func main() {
	flag.Parse()

	rep := run(loader.OSEnviron{})

	if *jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(rep); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	} else {
		printHuman(rep)
	}

	if !rep.OK {
		os.Exit(1)
	}
}

func run(env loader.Environ) report {
	var rep report

	reg, err := loader.LoadFromEnvironment(env)
	if err != nil {
		rep.LoadError = err.Error()
		return rep
	}
	rep.RegistryVersion = reg.Version()

	if err := reg.EnsureContractsRegistered(*requiredContracts); err != nil {
		if missing := errors.MissingContractSet(err); missing != nil {
			rep.MissingContracts = missing
		} else {
			rep.LoadError = err.Error()
			return rep
		}
	}

	violations, _ := policy.EnsureAllHopsConform(env, reg.Policy())
	rep.HopViolations = violations

	rep.OK = len(rep.MissingContracts) == 0 && len(rep.HopViolations) == 0
	return rep
}

func printHuman(rep report) {
	green := color.New(color.FgGreen)
	red := color.New(color.FgRed, color.Bold)
	yellow := color.New(color.FgYellow)

	if rep.LoadError != "" {
		red.Fprintf(os.Stderr, "FAIL  %s\n", rep.LoadError)
		return
	}

	fmt.Printf("registry version: %s\n", rep.RegistryVersion)

	if len(rep.MissingContracts) == 0 {
		green.Printf("OK    all %d required api contracts are registered\n", len(*requiredContracts))
	} else {
		red.Printf("FAIL  %d required api contracts are missing:\n", len(rep.MissingContracts))
		for _, contract := range rep.MissingContracts {
			yellow.Printf("      - %s\n", contract)
		}
	}

	if len(rep.HopViolations) == 0 {
		green.Println("OK    all publish ingress hops meet the body-size policy")
	} else {
		red.Printf("FAIL  %d publish ingress hops violate the body-size policy:\n", len(rep.HopViolations))
		for _, v := range rep.HopViolations {
			yellow.Printf("      - %s\n", v.String())
		}
	}
}
