// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - EntityStore: Entity registry catalog persistence
//   - TableStore: Physical table creation, bulk writes and queries
//   - Connector: Produces the rows of one entity
//   - ConnectorFactory: Creates connectors from connector configuration
//   - FeatureReader: Reads spatial layers reprojected to EPSG:4326
//   - ConfigStore: Application settings
//
// # Optional Interfaces
//
//   - ImportRunStore: Import run log. When nil, runs are not recorded.
//
// # Import Rules
//
//   - Can Import: domain and importconfig packages only
//   - Cannot Import: Any adapter or connector package
package driven
