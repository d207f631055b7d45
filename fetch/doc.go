// Package fetch retrieves files the module asks for by location.
//
// Relative locations are read from an asset filesystem rooted at the
// configured directory. Absolute http and https URLs are fetched over the
// network only when enabled, behind a rate limiter and a circuit
// breaker.
package fetch
