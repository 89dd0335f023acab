package version

import (
	"fmt"
	"strings"
)

// Set via ldflags during release builds; empty for local builds.
var (
	version   = ""
	gitCommit = ""
)

// String returns a human-readable version, or "(local)" when the
// binary was built without release metadata.
func String() string {
	v := strings.TrimPrefix(strings.TrimSpace(version), "v")
	if v == "" {
		return "(local)"
	}
	if c := strings.TrimSpace(gitCommit); c != "" {
		return fmt.Sprintf("%s (%s)", v, c)
	}
	return v
}
