// Package version exposes build identification for the backstage endpoint.
package version

import "runtime/debug"

// Version is stamped at build time via -ldflags; it falls back to the
// module version recorded in the binary.
var Version = "dev"

// Info is the payload served on the version endpoint.
type Info struct {
	Version  string `json:"version"`
	Revision string `json:"revision,omitempty"`
	GoVer    string `json:"go_version,omitempty"`
}

// Get assembles version info from the ldflags stamp and the embedded
// build metadata.
func Get() Info {
	info := Info{Version: Version}
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return info
	}
	info.GoVer = bi.GoVersion
	if Version == "dev" && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		info.Version = bi.Main.Version
	}
	for _, s := range bi.Settings {
		if s.Key == "vcs.revision" {
			info.Revision = s.Value
		}
	}
	return info
}
