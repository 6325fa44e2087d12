package registry

// Document is the versioned service-mesh registry as it appears on the wire.
// It is parsed once at startup and treated as immutable afterwards. Unknown
// JSON fields are ignored for forward compatibility.
type Document struct {
	Version              string          `json:"version"`
	Services             []ServiceEntry  `json:"services"`
	PublishIngressPolicy *PolicyDocument `json:"publish_ingress_policy,omitempty"`
}

// ServiceEntry maps one backend service to the api contracts it serves
type ServiceEntry struct {
	ServiceName  string   `json:"service_name"`
	BaseURL      string   `json:"base_url"`
	APIContracts []string `json:"api_contracts"`
}

// PolicyDocument is the publish-ingress body-size contract shared by every
// network hop in front of the publish-creation api contract
type PolicyDocument struct {
	PolicyOwnerProduct  string            `json:"policy_owner_product"`
	PublishAPIContract  string            `json:"publish_api_contract"`
	DefaultMaxBodyBytes int64             `json:"default_max_body_bytes"`
	RequiredHops        []HopSpec         `json:"required_hops"`
	Observability       ObservabilitySpec `json:"observability"`
}

// HopSpec names one network-traversal stage and the environment variable
// holding its configured byte limit
type HopSpec struct {
	HopName            string `json:"hop_name"`
	Product            string `json:"product"`
	MaxBodyBytesEnvVar string `json:"max_body_bytes_env_var"`
}

// ObservabilitySpec mandates how downstream hops report rejected payloads
type ObservabilitySpec struct {
	RejectionMetricName string   `json:"rejection_metric_name"`
	RejectionLogFields  []string `json:"rejection_log_fields"`
}

// ResolvedTarget is the routing decision for one api contract
type ResolvedTarget struct {
	ServiceName string
	BaseURL     string
	APIContract string
}
