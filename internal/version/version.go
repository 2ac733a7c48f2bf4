// Package version reports the version of amdil compiled into the running binary.
package version

import (
	"runtime/debug"
	"strings"
)

// Default is the default version value used when none was found.
const Default = "dev"

// modulePath is the path amdil is imported as.
const modulePath = "github.com/tetratelabs/amdil"

// version holds the version set by ldflag for the amdilc CLI.
var version string

// GetAmdilVersion returns the amdil version from the ldflag, from the go.mod of a downstream
// user, or Default.
func GetAmdilVersion() (ret string) {
	ret = version
	if ret != "" {
		return
	}
	info, ok := debug.ReadBuildInfo()
	if ok {
		for _, dep := range info.Deps {
			if strings.HasPrefix(dep.Path, modulePath) {
				ret = dep.Version
			}
		}
		// In amdilc, amdil is the main module.
		if versionMissing(ret) {
			ret = info.Main.Version
		}
	}
	if versionMissing(ret) {
		return Default
	}
	return
}

func versionMissing(ret string) bool {
	return ret == "" || ret == "(devel)"
}
