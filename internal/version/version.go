// Package version exposes the build-time version string.
package version

// version is injected at build time via
// -ldflags "-X github.com/cpp-linter/cpp-linter/internal/version.version=...".
var version = "dev"

// Value returns the build version.
func Value() string {
	return version
}
