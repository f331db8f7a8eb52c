package version

import (
	"fmt"
	"runtime"
	"strings"
)

// These variables are set via ldflags during build.
var (
	Version   = "dev"
	Commit    = "none"
	Date      = "unknown"
	GoVersion = runtime.Version()
)

func Platform() string {
	return runtime.GOOS + "/" + runtime.GOARCH
}

// Summary returns the version with a short commit hash when known.
func Summary() string {
	v := Version
	if v == "" {
		v = "dev"
	}
	if Commit != "" && Commit != "none" {
		short := Commit
		if len(short) > 7 {
			short = short[:7]
		}
		return fmt.Sprintf("%s (%s)", v, short)
	}
	return v
}

// Details returns the multi-line build report printed by the version command.
func Details(program string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n", program, Summary())
	fmt.Fprintf(&b, "  commit:   %s\n", Commit)
	fmt.Fprintf(&b, "  built:    %s\n", Date)
	fmt.Fprintf(&b, "  go:       %s\n", GoVersion)
	fmt.Fprintf(&b, "  platform: %s\n", Platform())
	return b.String()
}
