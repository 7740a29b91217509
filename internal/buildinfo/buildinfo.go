package buildinfo

// Injected at build time via -ldflags, e.g.:
//
//	-X cbcgrab/internal/buildinfo.Version=v0.3.0
//	-X cbcgrab/internal/buildinfo.Commit=abcdef
//	-X cbcgrab/internal/buildinfo.Date=2026-08-29
var (
	Version = "dev"
	Commit  = ""
	Date    = ""
)

type Info struct {
	Version string `json:"version"`
	Commit  string `json:"commit,omitempty"`
	Date    string `json:"date,omitempty"`
}

func Current() Info {
	return Info{Version: Version, Commit: Commit, Date: Date}
}
