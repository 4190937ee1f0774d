// Package main provides the entry point for the auth-gateway service.
// It runs a web server using the Fiber framework that authenticates
// browser users against an external OpenID Connect identity provider,
// persists session records across the redirect round-trip and maps
// provider claims into an internal role-based profile.
package main
