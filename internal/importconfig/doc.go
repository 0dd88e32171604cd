// Package importconfig is the declarative model of an import: which
// entities exist, how each is sourced, what its rows look like and, for
// hierarchical references, how the hierarchy is derived or stored.
//
// A Config is a pure value. It is validated exhaustively when it is
// parsed or constructed, so a malformed connector or extraction block is
// rejected before any connector runs or any table is touched.
//
// Connector blocks are a tagged union keyed by "type". Each variant is its
// own struct implementing ConnectorSpec; consumers switch on the concrete
// type rather than probing optional fields.
package importconfig
