// Package api fetches JSON records over HTTP.
//
// Records are located in the response body with a gjson path. Pages are
// requested either by page number, when pagination is configured, or by
// following the RFC 8288 Link header's "next" relation.
//
// Requests are throttled proactively by a token bucket sized from the
// configured rate limit, and reactively from X-RateLimit-* and Retry-After
// response headers. A 429 response is retried after the advertised delay.
package api
