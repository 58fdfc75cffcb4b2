package version

import "runtime/debug"

// Revision - The VCS revision the binary was built from, or "<unknown>".
var Revision = "<unknown>"

// Modified - True if the working tree had uncommitted changes at build time.
var Modified = false

func init() {
	build, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}
	for _, setting := range build.Settings {
		switch setting.Key {
		case "vcs.revision":
			Revision = setting.Value
		case "vcs.modified":
			Modified = setting.Value == "true"
		}
	}
}

// String - The revision, marked when built from a dirty tree.
func String() string {
	if Modified {
		return Revision + "-dirty"
	}
	return Revision
}

// UserAgent - The User-Agent header value used for outbound webhook requests.
func UserAgent() string {
	return "trustserv/" + String()
}
