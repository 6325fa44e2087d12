package registry

// Well-known WorldBuilder api contract identifiers. Contract identifiers are
// opaque dotted strings compared by exact match; these constants exist so the
// gateway and its tests agree on spelling.
const (
	APIDiscoveryCatalogV1        = "worldbuilder.discovery.catalog.v1"
	APIDiscoveryDetailV1         = "worldbuilder.discovery.detail.v1"
	APIDiscoverySchemaV1         = "worldbuilder.discovery.schema.v1"
	APIDiscoveryPlaySessionGetV1 = "worldbuilder.discovery.play-session.get.v1"
	APIDiscoveryPublishCreateV1  = "worldbuilder.discovery.publish.create.v1"
)

// GatewayAPIContracts is the full contract set the gateway must be able to
// route before accepting traffic
var GatewayAPIContracts = []string{
	APIDiscoveryCatalogV1,
	APIDiscoveryDetailV1,
	APIDiscoverySchemaV1,
	APIDiscoveryPlaySessionGetV1,
	APIDiscoveryPublishCreateV1,
}

// ReadAPIContracts is the read-only subset, excluding publish creation
var ReadAPIContracts = []string{
	APIDiscoveryCatalogV1,
	APIDiscoveryDetailV1,
	APIDiscoverySchemaV1,
	APIDiscoveryPlaySessionGetV1,
}
