// Package version holds the tool version stamp.
//
// The version participates in cache invalidation: persisted cache state is
// stamped with the version that wrote it, and a mismatch on load forces a
// full purge (see pkg/environment).
package version

// Version is the semantic version of the tool. Overridden at build time via
// -ldflags "-X github.com/armctl/armctl/internal/version.Version=...".
var Version = "0.4.0-dev"
