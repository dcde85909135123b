// Package version provides build version information for the service.
// It is a separate package so cli and server can both read it without an
// import cycle.
package version

// Version is the build version string, set by ldflags during release builds.
var Version = "v1.0.0-dev"

// BuildTime is the build timestamp, set by ldflags during release builds.
var BuildTime = "unknown"
