// Package version provides centralized version information for plaza binaries.
// This package supports independent versioning for the plazad daemon and the
// plazactl CLI as separate deliverables, allowing them to evolve independently
// while maintaining consistency within each binary's components.
// All versions follow semantic versioning (semver) conventions.

package version

// PlazadVersion holds the current plazad daemon version.
// Format: major.minor.patch[-prerelease][+build]
const PlazadVersion = "0.1.0-dev"

// PlazactlVersion holds the current plazactl CLI version.
// This is used by the CLI binary and allows independent evolution
// of the management tool separate from the daemon.
// Format: major.minor.patch[-prerelease][+build]
const PlazactlVersion = "0.1.0-dev"
