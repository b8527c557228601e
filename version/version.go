// Package version carries build metadata injected via -ldflags.
package version

import (
	"fmt"
	"runtime"
)

var (
	NAME     = "prebake"
	VERSION  = "unknown"
	REVISION = "HEAD"
	BUILTAT  = "now"
)

// String renders the version block printed by "prebake version".
func String() string {
	return fmt.Sprintf("Version:        %s\nGit hash:       %s\nBuilt:          %s\nGolang version: %s\nOS/Arch:        %s/%s\n",
		VERSION, REVISION, BUILTAT, runtime.Version(), runtime.GOOS, runtime.GOARCH)
}
