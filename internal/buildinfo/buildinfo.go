// Package buildinfo holds build-time metadata injected with -ldflags, kept apart from user configuration
package buildinfo

import (
	"fmt"
	"runtime/debug"
)

// UnknownValue is reported for metadata that was not injected at build time.
const UnknownValue = "unknown"

// Set at build time:
//
//	go build -ldflags "-X github.com/tphakala/birddb-export/internal/buildinfo.version=v1.2.0 \
//	    -X github.com/tphakala/birddb-export/internal/buildinfo.buildDate=2024-05-01"
var (
	version   string
	buildDate string
)

// Context contains build-time metadata that is not user-configurable.
type Context struct {
	// Version holds the Git version tag from build
	Version string

	// BuildDate is the time when the binary was built
	BuildDate string
}

// NewContext creates a Context with the given metadata.
func NewContext(version, buildDate string) *Context {
	return &Context{Version: version, BuildDate: buildDate}
}

// Current returns the metadata of the running binary. When no version was injected the
// main module version recorded by the Go toolchain is used, e.g. for go install builds.
func Current() *Context {
	ctx := NewContext(version, buildDate)
	if ctx.Version == "" {
		if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
			ctx.Version = info.Main.Version
		}
	}
	return ctx
}

// GetVersion returns the build version string
func (c *Context) GetVersion() string {
	if c == nil || c.Version == "" {
		return UnknownValue
	}
	return c.Version
}

// GetBuildDate returns the build date string
func (c *Context) GetBuildDate() string {
	if c == nil || c.BuildDate == "" {
		return UnknownValue
	}
	return c.BuildDate
}

// String formats the metadata for --version output.
func (c *Context) String() string {
	return fmt.Sprintf("%s (built %s)", c.GetVersion(), c.GetBuildDate())
}
