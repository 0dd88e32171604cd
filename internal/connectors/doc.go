// Package connectors groups the implementations of driven.Connector.
//
// Each subpackage reads one kind of source into a domain.Table:
//
//   - file: CSV, TSV, XLSX and JSON arrays
//   - duckdbcsv: CSV through DuckDB's type-sniffing reader
//   - vector: GeoJSON and GeoPackage layers, reprojected to EPSG:4326
//   - api: paginated JSON over HTTP
//   - plugin: named in-process sources
//
// source resolves local and s3:// paths for the file-based connectors.
// factory registers every built-in connector at startup.
package connectors
