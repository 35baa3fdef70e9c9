// Package version exposes build metadata for the schemakit binary.
package version

import "runtime/debug"

var (
	// Version is the module version, overridable at link time.
	Version = "dev"

	// Revision is the VCS revision the binary was built from.
	Revision = "unknown"
)

func init() {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}

	if Version == "dev" && info.Main.Version != "" && info.Main.Version != "(devel)" {
		Version = info.Main.Version
	}

	for _, kv := range info.Settings {
		if kv.Key == "vcs.revision" && kv.Value != "" {
			Revision = kv.Value
		}
	}
}
