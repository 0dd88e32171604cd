// Package geo resolves coordinate reference systems and reprojects
// geometries into EPSG:4326 (longitude, latitude).
//
// Supported systems: EPSG:4326 itself, Web Mercator (3857, 900913, 102100),
// WGS 84 UTM zones (326xx north, 327xx south) and the Lambert conformal
// conic definitions of EPSG:2154 (Lambert-93) and EPSG:3163
// (RGNC91-93 / Lambert New Caledonia).
package geo
