// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
// The importer runs phases over the entity registry and table store, the
// hierarchy builder derives trees from imported rows, and the loaders read
// subtrees back at query time.
package services
