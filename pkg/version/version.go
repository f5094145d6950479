// Package version exposes the analysis core's own semantic version.
package version

import "github.com/seekerror/build"

var current = build.NewVersion(0, 1, 0)

// Current returns the analysis core's semantic version.
func Current() string {
	return current.String()
}
